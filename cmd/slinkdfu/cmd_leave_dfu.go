package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sndlnk/slinkdfu/pkg/devices"
	"github.com/sndlnk/slinkdfu/pkg/dfu"
)

var leaveDFUCmd = &cobra.Command{
	Use:   "leave-dfu",
	Short: "Force a DFU-mode device to manifest and reset back into app mode",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, desc, err := leaveDFUSelector.openFor(devices.ModeDFU)
		if err != nil {
			return err
		}
		defer t.Close()

		m := dfu.New(t)
		if err := m.LeaveDFU(); err != nil {
			return err
		}
		slog.Info("device manifesting back into app mode", "vid", desc.VID, "pid", desc.PID)
		return nil
	},
}

var leaveDFUSelector selector

func init() {
	leaveDFUSelector.addFlags(leaveDFUCmd)
}
