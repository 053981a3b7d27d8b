// Package hid exposes the four blocking HID report primitives the DFU
// protocol layer needs, wrapping a real user-space HID backend behind a
// small interface so the protocol layer can be tested against a mock.
package hid

import (
	"fmt"
	"time"

	"github.com/karalabe/hid"
)

// ErrTimeout is returned by ReadInput when no report arrives before the
// deadline.
var ErrTimeout = fmt.Errorf("hid: read timed out")

// Transport is the capability the DFU protocol layer depends on. All
// methods block the calling goroutine.
type Transport interface {
	// WriteFeature sends a feature report with the given report ID.
	WriteFeature(reportID byte, payload []byte) error
	// ReadFeature reads a feature report with the given report ID into
	// buf, returning the number of bytes read after the leading report-ID
	// byte.
	ReadFeature(reportID byte, buf []byte) (int, error)
	// WriteOutput sends an output report, used for DNLOAD data blocks.
	WriteOutput(reportID byte, payload []byte) error
	// ReadInput reads an input report with a bound on how long to wait.
	ReadInput(buf []byte, timeout time.Duration) (int, error)
	// Close releases the underlying device handle.
	Close() error
}

// Device wraps an opened karalabe/hid device handle.
type Device struct {
	dev *hid.Device
}

// Open opens the HID device described by info.
func Open(info hid.DeviceInfo) (*Device, error) {
	dev, err := info.Open()
	if err != nil {
		return nil, fmt.Errorf("hid: open %04x:%04x: %w", info.VendorID, info.ProductID, err)
	}
	return &Device{dev: dev}, nil
}

func (d *Device) WriteFeature(reportID byte, payload []byte) error {
	buf := append([]byte{reportID}, payload...)
	if _, err := d.dev.SendFeatureReport(buf); err != nil {
		return fmt.Errorf("hid: send feature report %#02x: %w", reportID, err)
	}
	return nil
}

func (d *Device) ReadFeature(reportID byte, buf []byte) (int, error) {
	req := make([]byte, len(buf)+1)
	req[0] = reportID
	n, err := d.dev.GetFeatureReport(req)
	if err != nil {
		return 0, fmt.Errorf("hid: get feature report %#02x: %w", reportID, err)
	}
	if n > 0 {
		n--
		copy(buf, req[1:1+n])
	}
	return n, nil
}

func (d *Device) WriteOutput(reportID byte, payload []byte) error {
	buf := append([]byte{reportID}, payload...)
	if _, err := d.dev.Write(buf); err != nil {
		return fmt.Errorf("hid: write output report %#02x: %w", reportID, err)
	}
	return nil
}

// ReadInput blocks on the device's input endpoint with a bound on how long
// to wait, running the blocking device read in a background goroutine and
// waiting on a channel against a deadline. The
// goroutine reads into its own buffer rather than the caller's: if the
// timeout fires first, d.dev.Read is still in flight, and a caller that
// reuses buf for a subsequent call must not race with that late write. The
// channel is buffered so the abandoned goroutine's send never blocks.
func (d *Device) ReadInput(buf []byte, timeout time.Duration) (int, error) {
	type result struct {
		buf []byte
		n   int
		err error
	}
	resC := make(chan result, 1)
	go func() {
		local := make([]byte, len(buf))
		n, err := d.dev.Read(local)
		resC <- result{local, n, err}
	}()

	select {
	case res := <-resC:
		if res.err != nil {
			return 0, fmt.Errorf("hid: read input report: %w", res.err)
		}
		copy(buf, res.buf[:res.n])
		return res.n, nil
	case <-time.After(timeout):
		return 0, ErrTimeout
	}
}

func (d *Device) Close() error {
	if err := d.dev.Close(); err != nil {
		return fmt.Errorf("hid: close: %w", err)
	}
	return nil
}
