package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sndlnk/slinkdfu/pkg/config"
	"github.com/sndlnk/slinkdfu/pkg/devices"
	"github.com/sndlnk/slinkdfu/pkg/dfu"
	"github.com/sndlnk/slinkdfu/pkg/suffix"
)

var rootCmd = &cobra.Command{
	Use:   "slinkdfu",
	Short: "slinkdfu updates firmware on the vendor's DFU-over-HID audio devices",
	Long: `slinkdfu talks to the vendor's speakers and headphones over their
proprietary DFU-over-HID protocol: listing connected devices, switching them
into and out of DFU mode, and streaming a CRC-checked .dfu
image down to the device.

slinkdfu does not support reading firmware back off a device: the vendor's
upload path returns a non-reinstallable image, so that operation is
withheld from this tool even though the underlying protocol supports it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setLogLevel()
	},
}

var (
	flagConfigPath string
	flagLogLevel   string
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&flagConfigPath, "config", "c", config.DefaultPath(), "Path to the known-devices overlay file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(enterDFUCmd)
	rootCmd.AddCommand(leaveDFUCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(fileInfoCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

func init() {
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
}

func setLogLevel() {
	switch flagLogLevel {
	case "debug":
		slog.SetLogLoggerLevel(slog.LevelDebug)
	case "warn":
		slog.SetLogLoggerLevel(slog.LevelWarn)
	case "error":
		slog.SetLogLoggerLevel(slog.LevelError)
	default:
		slog.SetLogLoggerLevel(slog.LevelInfo)
	}
}

func registry() *devices.Registry {
	return devices.NewRegistry(config.LoadOverlay(flagConfigPath))
}

// exitCode maps an error to the process exit code described in the CLI
// surface: 0 success, 1 user error, 2 device error, 3 untested-device
// refusal.
func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var untested *devices.ErrUntestedDevice
	if errors.As(err, &untested) {
		return 3
	}

	var wrongMode *devices.ErrWrongMode
	var unexpected *dfu.UnexpectedState
	var devErr *dfu.DeviceError
	var badLen *dfu.BadResponseLength
	if errors.As(err, &wrongMode) || errors.Is(err, devices.ErrNoDevice) ||
		errors.Is(err, devices.ErrAmbiguous) || errors.As(err, &unexpected) ||
		errors.As(err, &devErr) || errors.As(err, &badLen) || errors.Is(err, dfu.ErrTransportLost) {
		return 2
	}

	var tooShort *suffix.SuffixTooShort
	var badSig *suffix.BadSignature
	var badCrc *suffix.BadCrc
	var badVer *suffix.UnsupportedDfuVersion
	var mismatch *suffix.MismatchedDeviceIds
	if errors.As(err, &tooShort) || errors.As(err, &badSig) || errors.As(err, &badCrc) ||
		errors.As(err, &badVer) || errors.As(err, &mismatch) || errors.Is(err, dfu.ErrImageTooLarge) ||
		errors.Is(err, fs.ErrNotExist) {
		return 1
	}

	return 1
}
