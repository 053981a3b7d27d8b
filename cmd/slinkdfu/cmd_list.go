package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sndlnk/slinkdfu/pkg/devices"
	"github.com/sndlnk/slinkdfu/pkg/hid"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List connected devices",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		descs, err := devices.Enumerate(registry())
		if err != nil && len(descs) == 0 {
			return err
		}
		for _, d := range descs {
			mode := d.Mode.String()
			// A device this tool cannot open (most often a missing udev
			// rule on Linux) is reported as INVALID rather than guessed at.
			if dev, err := hid.Open(d.Info()); err != nil {
				mode = "INVALID"
			} else {
				dev.Close()
			}
			model := d.Model
			if model == "" {
				model = "-"
			}
			fmt.Printf("%s\t%04x:%04x\t%s\t%s\t%s\n", d.Path, d.VID, d.PID, mode, d.Serial, model)
		}
		return nil
	},
}
