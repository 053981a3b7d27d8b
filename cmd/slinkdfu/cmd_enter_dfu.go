package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sndlnk/slinkdfu/pkg/devices"
	"github.com/sndlnk/slinkdfu/pkg/dfu"
)

// detachTimeoutMs is the wTimeout sent with DETACH; the device disconnects
// and re-enumerates under its DFU-mode product ID on its own schedule
// after this.
const detachTimeoutMs = 1000

var enterDFUCmd = &cobra.Command{
	Use:   "enter-dfu",
	Short: "Switch an app-mode device into DFU mode",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, desc, err := enterDFUSelector.openFor(devices.ModeApp)
		if err != nil {
			return err
		}
		defer t.Close()

		if err := dfu.EnterDFU(t, detachTimeoutMs); err != nil {
			return err
		}
		slog.Info("device detaching into DFU mode", "vid", desc.VID, "pid", desc.PID)
		return nil
	},
}

var enterDFUSelector selector

func init() {
	enterDFUSelector.addFlags(enterDFUCmd)
}
