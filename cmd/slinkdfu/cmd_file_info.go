package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sndlnk/slinkdfu/pkg/suffix"
)

var fileInfoCmd = &cobra.Command{
	Use:   "file-info FILE",
	Short: "Print the suffix metadata of a .dfu firmware image",
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

		fmt.Printf("vendor:  %04x\n", img.IDVendor)
		fmt.Printf("product: %04x\n", img.IDProduct)
		fmt.Printf("device:  %04x\n", img.BcdDevice)
		fmt.Printf("dfu:     %04x\n", img.BcdDFU)
		fmt.Printf("payload: %d bytes\n", len(img.Payload))
		fmt.Printf("crc:     verified (%#08x)\n", img.CRC)
		return nil
	},
}
