package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sndlnk/slinkdfu/pkg/devices"
	"github.com/sndlnk/slinkdfu/pkg/dfu"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print codename and firmware version of an app-mode device",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, desc, err := infoSelector.openFor(devices.ModeApp)
		if err != nil {
			return err
		}
		defer t.Close()

		codename, err := dfu.Info(t)
		if err != nil {
			return err
		}

		fmt.Printf("device:   %04x:%04x (%s)\n", desc.VID, desc.PID, desc.Model)
		fmt.Printf("codename: %s\n", codename)
		return nil
	},
}

var infoSelector selector

func init() {
	infoSelector.addFlags(infoCmd)
}
