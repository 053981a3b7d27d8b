package dfu

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/sndlnk/slinkdfu/pkg/hid"
)

// classifyErr turns a raw protocol-layer failure into ErrTransportLost
// unless it is already one of the typed DFU protocol errors, which are
// meaningful to the caller on their own.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	var de *DeviceError
	var us *UnexpectedState
	var bl *BadResponseLength
	if errors.As(err, &de) || errors.As(err, &us) || errors.As(err, &bl) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrTransportLost, err)
}

// Machine is the host-side mirror of a device's DFU state. It owns no
// resources beyond the transport handed to it; callers are responsible
// for opening and closing the underlying HID device.
type Machine struct {
	t     hid.Transport
	state State
}

// New wraps t in a Machine whose expected state starts as dfuIDLE without
// asking the device; callers that need the device's real state should call
// Reset.
func New(t hid.Transport) *Machine {
	return &Machine{t: t, state: StateDfuIdle}
}

// State returns the machine's current expected state.
func (m *Machine) State() State {
	return m.state
}

// Reset clears a device found in dfuERROR back to dfuIDLE. This is the one
// error recovery performed automatically: callers invoke it at the start
// of a DFU-mode operation so that subsequent requests are accepted.
func (m *Machine) Reset() error {
	state, err := GetState(m.t)
	if err != nil {
		return fmt.Errorf("dfu: reset: %w", err)
	}
	if state == StateDfuError {
		if err := ClrStatus(m.t); err != nil {
			return fmt.Errorf("dfu: reset: clear status: %w", err)
		}
		state = StateDfuIdle
	}
	m.state = state
	return nil
}

func sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

// pollUntil issues GET_STATUS in a loop, sleeping the device-reported
// poll interval between each attempt, until the device reports done or an
// error/unexpected-state condition terminates the loop.
func pollUntil(t hid.Transport, done State, transient ...State) (Status, error) {
	for {
		st, err := GetStatus(t)
		if err != nil {
			return st, err
		}
		if st.Status != StatusOK {
			return st, &DeviceError{Status: st.Status, StringIndex: st.StringIndex}
		}
		sleep(time.Duration(st.PollTimeout) * time.Millisecond)
		if st.State == done {
			return st, nil
		}
		legal := false
		for _, s := range transient {
			if st.State == s {
				legal = true
				break
			}
		}
		if !legal {
			return st, &UnexpectedState{Expected: done, Got: st.State}
		}
	}
}

// Download drives the block-streamed download loop against payload,
// following the DFU 1.1 sync/busy/idle discipline between chunks and the
// manifestation handshake at the end. The machine must already be in
// dfuIDLE (see Reset).
func (m *Machine) Download(payload []byte) error {
	if m.state != StateDfuIdle {
		return &UnexpectedState{Expected: StateDfuIdle, Got: m.state}
	}

	nBlocks := (len(payload) + WTransferSize - 1) / WTransferSize
	if nBlocks > 0xFFFF {
		return ErrImageTooLarge
	}

	block := uint16(0)
	for offset := 0; offset < len(payload); offset += WTransferSize {
		end := offset + WTransferSize
		if end > len(payload) {
			end = len(payload)
		}
		chunk := payload[offset:end]

		if err := Dnload(m.t, block, chunk); err != nil {
			return fmt.Errorf("dfu: download: block %d: %w", block, classifyErr(err))
		}
		if _, err := pollUntil(m.t, StateDfuDownloadIdle, StateDfuDownloadBusy, StateDfuDownloadSync); err != nil {
			return fmt.Errorf("dfu: download: block %d: %w", block, classifyErr(err))
		}
		block++
		glog.V(1).Infof("DFU: download block %d/%d complete", block, nBlocks)
	}

	// Zero-length DNLOAD signals end of transfer and starts manifestation.
	if err := Dnload(m.t, block, nil); err != nil {
		return fmt.Errorf("dfu: download: end-of-transfer: %w", classifyErr(err))
	}
	if _, err := pollUntil(m.t, StateDfuManifestWaitReset, StateDfuManifestSync, StateDfuManifest); err != nil {
		return fmt.Errorf("dfu: download: manifestation: %w", classifyErr(err))
	}

	m.state = StateDfuManifestWaitReset
	return nil
}

// EnterDFU issues DETACH against an app-mode device. The device
// disconnects and re-enumerates under its DFU-mode product ID; this call
// does not wait for or reopen that new device.
func EnterDFU(t hid.Transport, timeout uint16) error {
	return Detach(t, timeout)
}

// LeaveDFU forces manifestation from dfuIDLE via a zero-length DNLOAD,
// which is the portable HID-only way to get a vendor device to reset back
// into app mode (see the design-notes open question on DNLOAD(0,0) vs USB
// reset).
func (m *Machine) LeaveDFU() error {
	if err := m.Reset(); err != nil {
		return err
	}
	if m.state != StateDfuIdle {
		return &UnexpectedState{Expected: StateDfuIdle, Got: m.state}
	}
	if err := Dnload(m.t, 0, nil); err != nil {
		return fmt.Errorf("dfu: leave-dfu: %w", classifyErr(err))
	}
	if _, err := pollUntil(m.t, StateDfuManifestWaitReset, StateDfuManifestSync, StateDfuManifest); err != nil {
		return fmt.Errorf("dfu: leave-dfu: %w", classifyErr(err))
	}
	m.state = StateDfuManifestWaitReset
	return nil
}
