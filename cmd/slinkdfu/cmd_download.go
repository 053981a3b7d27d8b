package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sndlnk/slinkdfu/pkg/devices"
	"github.com/sndlnk/slinkdfu/pkg/dfu"
	"github.com/sndlnk/slinkdfu/pkg/suffix"
)

var downloadCmd = &cobra.Command{
	Use:   "download FILE",
	Short: "Flash a .dfu firmware image to a DFU-mode device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		img, err := suffix.Parse(raw)
		if err != nil {
			return err
		}

		t, desc, err := downloadSelector.openFor(devices.ModeDFU)
		if err != nil {
			return err
		}
		defer t.Close()

		if !suffix.Matches(img, desc.VID, desc.PID) {
			return &suffix.MismatchedDeviceIds{
				ImageVendor: img.IDVendor, ImageProduct: img.IDProduct,
				DeviceVendor: desc.VID, DeviceProduct: desc.PID,
			}
		}

		m := dfu.New(t)
		if err := m.Reset(); err != nil {
			return err
		}
		slog.Info("downloading firmware", "bytes", len(img.Payload), "vid", desc.VID, "pid", desc.PID)
		if err := m.Download(img.Payload); err != nil {
			return err
		}
		slog.Info("download complete, device is manifesting")
		return nil
	},
}

var downloadSelector selector

func init() {
	downloadSelector.addFlags(downloadCmd)
}
