package devices

import "testing"

func TestRegistryClassifyKnownModel(t *testing.T) {
	reg := NewRegistry(nil)

	mode, name := reg.Classify(0x40fe)
	if mode != ModeApp || name != "SoundLink Color II" {
		t.Errorf("Classify(app pid) = %s, %q, want app, SoundLink Color II", mode, name)
	}

	mode, name = reg.Classify(0x400d)
	if mode != ModeDFU || name != "SoundLink Color II" {
		t.Errorf("Classify(dfu pid) = %s, %q, want dfu, SoundLink Color II", mode, name)
	}
}

func TestRegistryClassifyUnknownModel(t *testing.T) {
	reg := NewRegistry(nil)
	mode, name := reg.Classify(0x9999)
	if mode != ModeUnknown || name != "" {
		t.Errorf("Classify(unknown pid) = %s, %q, want unknown, \"\"", mode, name)
	}
}

func TestRegistryOverlayExtendsTable(t *testing.T) {
	reg := NewRegistry([]Model{{Name: "SoundLink Mini III", AppPID: 0x5050, DFUPID: 0x5051}})

	mode, name := reg.Classify(0x5050)
	if mode != ModeApp || name != "SoundLink Mini III" {
		t.Errorf("Classify(overlay app pid) = %s, %q, want app, SoundLink Mini III", mode, name)
	}
}

func TestRegistryOverlayCannotShadowBuiltin(t *testing.T) {
	reg := NewRegistry([]Model{{Name: "Imposter", AppPID: 0x40fe, DFUPID: 0x9999}})

	_, name := reg.Classify(0x40fe)
	if name != "SoundLink Color II" {
		t.Errorf("Classify(shadowed pid) = %q, want compiled-in entry to win", name)
	}
}

func descFixture() []Descriptor {
	return []Descriptor{
		{VID: VendorID, PID: 0x40fe, Serial: "AAA", Mode: ModeApp, Known: true, Model: "SoundLink Color II"},
		{VID: VendorID, PID: 0x400d, Serial: "AAA", Mode: ModeDFU, Known: true, Model: "SoundLink Color II"},
		{VID: VendorID, PID: 0x400d, Serial: "BBB", Mode: ModeDFU, Known: true, Model: "SoundLink Color II"},
		{VID: VendorID, PID: 0x9999, Serial: "CCC", Mode: ModeUnknown, Known: false},
	}
}

func TestSelectByModeOnly(t *testing.T) {
	_, err := Select(descFixture(), Filter{}, ModeDFU)
	if err != ErrAmbiguous {
		t.Errorf("Select(dfu, no filter) = %v, want ErrAmbiguous (two dfu-mode matches)", err)
	}
}

func TestSelectNarrowedBySerial(t *testing.T) {
	d, err := Select(descFixture(), Filter{Serial: "BBB"}, ModeDFU)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if d.Serial != "BBB" {
		t.Errorf("Select() returned serial %q, want BBB", d.Serial)
	}
}

func TestSelectNoMatch(t *testing.T) {
	_, err := Select(descFixture(), Filter{PID: 0x1234}, ModeApp)
	if err != ErrNoDevice {
		t.Errorf("Select(no match) = %v, want ErrNoDevice", err)
	}
}

// TestSelectAdmitsUnknownModeCandidate covers S5: a device whose PID is not
// on the allowlist enumerates as ModeUnknown, but it still carries our
// vendor ID and must remain selectable for a mode-required operation so
// that RequireTested - not the mode filter - is what decides whether it's
// usable.
func TestSelectAdmitsUnknownModeCandidate(t *testing.T) {
	descs := []Descriptor{
		{VID: VendorID, PID: 0x9999, Serial: "CCC", Mode: ModeUnknown, Known: false},
	}

	d, err := Select(descs, Filter{}, ModeApp)
	if err != nil {
		t.Fatalf("Select: %v, want the untested device to be admitted", err)
	}
	if d.PID != 0x9999 {
		t.Errorf("Select() returned pid %#04x, want 0x9999", d.PID)
	}

	if err := RequireTested(d, false); err == nil {
		t.Error("RequireTested: want error for the untested device without --force")
	}
	if err := RequireTested(d, true); err != nil {
		t.Errorf("RequireTested(force=true) = %v, want nil", err)
	}
}

func TestRequireTestedRefusesUnknown(t *testing.T) {
	d := Descriptor{VID: VendorID, PID: 0x9999, Known: false}
	err := RequireTested(d, false)
	if err == nil {
		t.Fatal("RequireTested: want error for unknown device without --force")
	}
	untested, ok := err.(*ErrUntestedDevice)
	if !ok {
		t.Fatalf("RequireTested: got %T, want *ErrUntestedDevice", err)
	}
	if untested.PID != 0x9999 {
		t.Errorf("ErrUntestedDevice.PID = %#04x, want 0x9999", untested.PID)
	}
}

func TestRequireTestedForceOverrides(t *testing.T) {
	d := Descriptor{VID: VendorID, PID: 0x9999, Known: false}
	if err := RequireTested(d, true); err != nil {
		t.Errorf("RequireTested(force=true) = %v, want nil", err)
	}
}

func TestRequireTestedAllowsKnownWithoutForce(t *testing.T) {
	d := Descriptor{VID: VendorID, PID: 0x40fe, Known: true}
	if err := RequireTested(d, false); err != nil {
		t.Errorf("RequireTested(known device) = %v, want nil", err)
	}
}
