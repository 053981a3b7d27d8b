package dfu

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/golang/glog"
	"github.com/sndlnk/slinkdfu/pkg/hid"
)

// abortMarker is the one-byte payload that disambiguates an ABORT request
// from a CLR_STATUS request on report 0x04: DFU 1.1 assigns ABORT request
// code 0x06, CLR_STATUS request code 0x04, and the vendor's HID tunnel
// carries that request code as the first payload byte after the report ID.
// The vendor's captures only cover CLR_STATUS; this follows DFU 1.1
// literally for ABORT, per the open question in the design notes.
const (
	clrStatusMarker byte = 0x04
	abortMarker     byte = 0x06
)

// Detach issues the DETACH request with the given timeout.
func Detach(t hid.Transport, timeout uint16) error {
	payload := make([]byte, 2)
	binary.LittleEndian.PutUint16(payload, timeout)
	glog.V(1).Infof("DFU: DETACH wTimeout=%d", timeout)
	return t.WriteFeature(ReportDetachInfo, payload)
}

// Dnload sends one DNLOAD data block. A nil or empty data slice signals
// end-of-transfer.
func Dnload(t hid.Transport, block uint16, data []byte) error {
	payload := make([]byte, 4+len(data))
	binary.LittleEndian.PutUint16(payload[0:2], block)
	binary.LittleEndian.PutUint16(payload[2:4], uint16(len(data)))
	copy(payload[4:], data)
	glog.V(2).Infof("DFU: DNLOAD block=%d len=%d", block, len(data))
	return t.WriteOutput(ReportDnload, payload)
}

// GetStatus reads the 6-byte DFU status structure.
func GetStatus(t hid.Transport) (Status, error) {
	buf := make([]byte, 6)
	n, err := t.ReadFeature(ReportStatus, buf)
	if err != nil {
		return Status{}, fmt.Errorf("dfu: GET_STATUS: %w", err)
	}
	if n != 6 {
		return Status{}, &BadResponseLength{Want: 6, Got: n}
	}
	st := Status{
		Status:      StatusCode(buf[0]),
		PollTimeout: uint32(buf[1]) | uint32(buf[2])<<8 | uint32(buf[3])<<16,
		State:       State(buf[4]),
		StringIndex: buf[5],
	}
	glog.V(2).Infof("DFU: GET_STATUS -> %+v", st)
	return st, nil
}

// GetState reads the device's current 1-byte state.
func GetState(t hid.Transport) (State, error) {
	buf := make([]byte, 1)
	n, err := t.ReadFeature(ReportStatus, buf)
	if err != nil {
		return 0, fmt.Errorf("dfu: GET_STATE: %w", err)
	}
	if n != 1 {
		return 0, &BadResponseLength{Want: 1, Got: n}
	}
	glog.V(2).Infof("DFU: GET_STATE -> %s", State(buf[0]))
	return State(buf[0]), nil
}

// ClrStatus clears a device error, returning it to dfuIDLE.
func ClrStatus(t hid.Transport) error {
	glog.V(1).Infof("DFU: CLR_STATUS")
	return t.WriteFeature(ReportStatus, []byte{clrStatusMarker})
}

// Abort aborts the current transfer and returns the device to dfuIDLE (or
// appIDLE).
func Abort(t hid.Transport) error {
	glog.V(1).Infof("DFU: ABORT")
	return t.WriteFeature(ReportStatus, []byte{abortMarker})
}

// Info reads the vendor INFO string (codename / firmware version),
// trimming trailing NUL padding.
func Info(t hid.Transport) (string, error) {
	buf := make([]byte, 64)
	n, err := t.ReadFeature(ReportInfo, buf)
	if err != nil {
		return "", fmt.Errorf("dfu: INFO: %w", err)
	}
	return string(bytes.TrimRight(buf[:n], "\x00")), nil
}
