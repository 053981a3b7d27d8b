package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sndlnk/slinkdfu/pkg/devices"
	"github.com/sndlnk/slinkdfu/pkg/hid"
)

// selector holds the -p/-s/-f flags shared by every command that needs to
// pick one device out of the candidates.
type selector struct {
	pid    string
	serial string
	force  bool
}

func (s *selector) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.pid, "pid", "p", "", "Select device by USB product ID (hex, e.g. 0x4080)")
	cmd.Flags().StringVarP(&s.serial, "serial", "s", "", "Select device by serial number")
	cmd.Flags().BoolVarP(&s.force, "force", "f", false, "Proceed even if the device is not on the known-model allowlist")
}

func (s *selector) filter() (devices.Filter, error) {
	f := devices.Filter{Serial: s.serial}
	if s.pid != "" {
		v, err := devices.ParsePID(s.pid)
		if err != nil {
			return f, err
		}
		f.PID = v
	}
	return f, nil
}

// openFor selects exactly one device in requiredMode matching s, enforces
// the untested-device policy, and opens an HID transport to it. The
// returned transport must be closed by the caller on every exit path.
func (s *selector) openFor(requiredMode devices.Mode) (hid.Transport, devices.Descriptor, error) {
	filter, err := s.filter()
	if err != nil {
		return nil, devices.Descriptor{}, err
	}

	descs, err := devices.Enumerate(registry())
	if err != nil && len(descs) == 0 {
		return nil, devices.Descriptor{}, err
	}

	desc, err := devices.Select(descs, filter, requiredMode)
	if err == devices.ErrNoDevice {
		// A selector that found nothing in the required mode but did find
		// the vendor ID elsewhere usually means "wrong mode", not "no
		// device" - give the caller that more specific diagnosis.
		if other, serr := devices.Select(descs, filter, otherMode(requiredMode)); serr == nil {
			return nil, devices.Descriptor{}, &devices.ErrWrongMode{Want: requiredMode, Got: other.Mode}
		}
	}
	if err != nil {
		return nil, devices.Descriptor{}, err
	}

	if err := devices.RequireTested(desc, s.force); err != nil {
		return nil, devices.Descriptor{}, err
	}
	if !desc.Known && s.force {
		slog.Warn("proceeding against untested device", "vid", desc.VID, "pid", desc.PID)
	}

	dev, err := hid.Open(desc.Info())
	if err != nil {
		return nil, devices.Descriptor{}, err
	}
	return dev, desc, nil
}

func otherMode(m devices.Mode) devices.Mode {
	if m == devices.ModeApp {
		return devices.ModeDFU
	}
	return devices.ModeApp
}
