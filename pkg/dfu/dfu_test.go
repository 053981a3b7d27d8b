package dfu

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"
)

// scriptedTransport is a mock hid.Transport that answers GET_STATUS with a
// scripted sequence of responses and records every DNLOAD it sees.
type scriptedTransport struct {
	statuses  []Status
	statusIdx int
	dnloads   []dnloadCall
}

type dnloadCall struct {
	block uint16
	len   int
}

func (s *scriptedTransport) WriteFeature(reportID byte, payload []byte) error { return nil }

func (s *scriptedTransport) ReadFeature(reportID byte, buf []byte) (int, error) {
	if len(buf) == 1 {
		buf[0] = byte(StateDfuIdle)
		return 1, nil
	}
	st := s.statuses[s.statusIdx]
	s.statusIdx++
	buf[0] = byte(st.Status)
	buf[1] = byte(st.PollTimeout)
	buf[2] = byte(st.PollTimeout >> 8)
	buf[3] = byte(st.PollTimeout >> 16)
	buf[4] = byte(st.State)
	buf[5] = st.StringIndex
	return 6, nil
}

func (s *scriptedTransport) WriteOutput(reportID byte, payload []byte) error {
	block := binary.LittleEndian.Uint16(payload[0:2])
	length := binary.LittleEndian.Uint16(payload[2:4])
	s.dnloads = append(s.dnloads, dnloadCall{block: block, len: int(length)})
	return nil
}

func (s *scriptedTransport) ReadInput(buf []byte, timeout time.Duration) (int, error) {
	return 0, nil
}

func (s *scriptedTransport) Close() error { return nil }

func TestDownloadHappyPath(t *testing.T) {
	mock := &scriptedTransport{statuses: []Status{
		{Status: StatusOK, State: StateDfuDownloadIdle},
		{Status: StatusOK, State: StateDfuDownloadIdle},
		{Status: StatusOK, State: StateDfuManifestWaitReset},
	}}

	m := New(mock)
	payload := make([]byte, 5000) // 2 non-empty blocks under WTransferSize=4096
	if err := m.Download(payload); err != nil {
		t.Fatalf("Download: %v", err)
	}

	wantDnloads := 3 // ceil(5000/4096) + 1
	if len(mock.dnloads) != wantDnloads {
		t.Errorf("dnloads = %d, want %d", len(mock.dnloads), wantDnloads)
	}
	if mock.statusIdx != wantDnloads {
		t.Errorf("GET_STATUS calls = %d, want %d", mock.statusIdx, wantDnloads)
	}
	if m.State() != StateDfuManifestWaitReset {
		t.Errorf("final state = %s, want dfuMANIFEST-WAIT-RESET", m.State())
	}
}

func TestDownloadHonorsPollTimeout(t *testing.T) {
	mock := &scriptedTransport{statuses: []Status{
		{Status: StatusOK, PollTimeout: 50, State: StateDfuDownloadIdle},
		{Status: StatusOK, State: StateDfuManifestWaitReset},
	}}

	m := New(mock)
	start := time.Now()
	if err := m.Download([]byte("x")); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("elapsed %v before next GET_STATUS, want >= 50ms", elapsed)
	}
}

func TestDownloadFailsOnDeviceError(t *testing.T) {
	mock := &scriptedTransport{statuses: []Status{
		{Status: StatusErrTarget, State: StateDfuError},
	}}

	m := New(mock)
	err := m.Download([]byte("x"))

	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("Download: got %v, want *DeviceError", err)
	}
	if len(mock.dnloads) != 1 {
		t.Errorf("dnloads = %d, want exactly 1 (no further DNLOAD after a device error)", len(mock.dnloads))
	}
}

func TestDownloadRejectsWrongStartState(t *testing.T) {
	m := New(&scriptedTransport{})
	m.state = StateDfuError

	err := m.Download([]byte("x"))
	var unexpected *UnexpectedState
	if !errors.As(err, &unexpected) {
		t.Fatalf("Download: got %v, want *UnexpectedState", err)
	}
}

func TestDownloadZeroLengthPayload(t *testing.T) {
	mock := &scriptedTransport{statuses: []Status{
		{Status: StatusOK, State: StateDfuManifestWaitReset},
	}}

	m := New(mock)
	if err := m.Download(nil); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if len(mock.dnloads) != 1 {
		t.Errorf("dnloads = %d, want exactly 1 for an empty payload", len(mock.dnloads))
	}
	if mock.dnloads[0].len != 0 {
		t.Errorf("dnload length = %d, want 0", mock.dnloads[0].len)
	}
}
