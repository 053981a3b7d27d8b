// Package devices enumerates and classifies HID devices belonging to the
// vendor, maintains the known-model allowlist, and enforces the
// untested-device/force-flag policy.
package devices

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/karalabe/hid"
)

// VendorID is the USB vendor ID shared by every device this tool talks to.
const VendorID = 0x05A7

// Mode is the USB personality a device is currently presenting.
type Mode int

const (
	ModeUnknown Mode = iota
	ModeApp
	ModeDFU
)

func (m Mode) String() string {
	switch m {
	case ModeApp:
		return "app"
	case ModeDFU:
		return "dfu"
	default:
		return "unknown"
	}
}

// Model pairs the app-mode and DFU-mode product IDs a single hardware model
// presents, plus a human-readable name.
type Model struct {
	Name   string
	AppPID uint16
	DFUPID uint16
}

// knownModels is the compile-time allowlist. Only "SoundLink Color II" has
// been confirmed against real hardware; everything else goes through the
// untested-device / --force path even if it otherwise looks plausible.
var knownModels = []Model{
	{Name: "SoundLink Color II", AppPID: 0x40fe, DFUPID: 0x400d},
}

// Registry resolves product IDs to known models. It starts from the
// compile-time table and can be extended with an overlay loaded from the
// user's config file (see pkg/config).
type Registry struct {
	models []Model
}

// NewRegistry builds a registry from the compile-time table plus any
// overlay entries. Overlay entries that collide with a compiled-in PID
// are dropped in favor of the compiled-in entry.
func NewRegistry(overlay []Model) *Registry {
	r := &Registry{models: append([]Model(nil), knownModels...)}
	for _, m := range overlay {
		if r.lookup(m.AppPID, m.DFUPID) != nil {
			continue
		}
		r.models = append(r.models, m)
	}
	return r
}

func (r *Registry) lookup(appPID, dfuPID uint16) *Model {
	for i := range r.models {
		m := &r.models[i]
		if (appPID != 0 && m.AppPID == appPID) || (dfuPID != 0 && m.DFUPID == dfuPID) {
			return m
		}
	}
	return nil
}

// Classify returns the mode and, if known, the model name for a candidate
// product ID.
func (r *Registry) Classify(pid uint16) (Mode, string) {
	for _, m := range r.models {
		switch pid {
		case m.AppPID:
			return ModeApp, m.Name
		case m.DFUPID:
			return ModeDFU, m.Name
		}
	}
	return ModeUnknown, ""
}

// Descriptor is one enumerated candidate device.
type Descriptor struct {
	VID, PID uint16
	Serial   string
	Path     string
	Mode     Mode
	Known    bool
	Model    string

	info hid.DeviceInfo
}

// Info returns the underlying HID enumeration record, used to open the
// device.
func (d Descriptor) Info() hid.DeviceInfo {
	return d.info
}

// Enumerate lists every HID device under VendorID, classified against reg.
// When nothing is found at all, that is reported as an error so the list
// command can tell "no devices" apart from "devices present but none
// matched a filter".
func Enumerate(reg *Registry) ([]Descriptor, error) {
	infos := hid.Enumerate(VendorID, 0)

	var out []Descriptor
	var errs error
	for _, info := range infos {
		mode, model := reg.Classify(info.ProductID)
		out = append(out, Descriptor{
			VID:    info.VendorID,
			PID:    info.ProductID,
			Serial: info.Serial,
			Path:   info.Path,
			Mode:   mode,
			Known:  mode != ModeUnknown,
			Model:  model,
			info:   info,
		})
	}
	if len(infos) == 0 {
		errs = multierror.Append(errs, fmt.Errorf("%w: no HID devices found for vendor %#04x", ErrNoDevice, VendorID))
	}
	return out, errs
}

// Filter narrows a Select call to a specific candidate.
type Filter struct {
	PID    uint16 // 0 means "any"
	Serial string // "" means "any"
}

// ParsePID parses a product ID given in the "0x1234" form used on the
// command line and in the known-devices overlay file.
func ParsePID(s string) (uint16, error) {
	var v uint16
	if _, err := fmt.Sscanf(s, "0x%x", &v); err != nil {
		return 0, fmt.Errorf("invalid product id %q, want hex like 0x1234", s)
	}
	return v, nil
}

var (
	// ErrNoDevice is returned when no descriptor matches the filter.
	ErrNoDevice = fmt.Errorf("no matching device found")
	// ErrAmbiguous is returned when more than one descriptor matches.
	ErrAmbiguous = fmt.Errorf("multiple matching devices found, narrow with -p/-s")
)

// Select picks exactly one descriptor out of descs matching filter and
// requiredMode. A device whose mode could not be classified is also
// admitted as a candidate: its PID isn't on the allowlist, so its mode
// can't be determined from that alone, but it still carries our vendor ID
// and may well be a real, just-untested, device in the required mode.
// RequireTested is what actually gates it, not this filter.
func Select(descs []Descriptor, filter Filter, requiredMode Mode) (Descriptor, error) {
	var matches []Descriptor
	for _, d := range descs {
		if d.Mode != requiredMode && d.Mode != ModeUnknown {
			continue
		}
		if filter.PID != 0 && d.PID != filter.PID {
			continue
		}
		if filter.Serial != "" && d.Serial != filter.Serial {
			continue
		}
		matches = append(matches, d)
	}
	switch len(matches) {
	case 0:
		return Descriptor{}, ErrNoDevice
	case 1:
		return matches[0], nil
	default:
		return Descriptor{}, ErrAmbiguous
	}
}

// ErrUntestedDevice is returned by RequireTested when the descriptor's
// model is not on the allowlist and force is false.
type ErrUntestedDevice struct {
	VID, PID uint16
}

func (e *ErrUntestedDevice) Error() string {
	return fmt.Sprintf("untested device %#04x:%#04x, pass --force to proceed anyway", e.VID, e.PID)
}

// RequireTested enforces the force-flag policy: an unknown device is
// refused unless force is set. It emits no warning itself; when force lets
// an unknown device through, warning the user is left to the caller.
func RequireTested(d Descriptor, force bool) error {
	if d.Known || force {
		return nil
	}
	return &ErrUntestedDevice{VID: d.VID, PID: d.PID}
}

// ErrWrongMode is returned when an operation is attempted against a device
// in the wrong USB personality.
type ErrWrongMode struct {
	Want, Got Mode
}

func (e *ErrWrongMode) Error() string {
	return fmt.Sprintf("device is in %s mode, operation requires %s mode", e.Got, e.Want)
}
