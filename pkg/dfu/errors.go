package dfu

import "fmt"

// UnexpectedState is returned when a GET_STATUS response reports a state
// that is not a legal DFU 1.1 transition from the host's expected state.
type UnexpectedState struct {
	Expected, Got State
}

func (e *UnexpectedState) Error() string {
	return fmt.Sprintf("dfu: expected state %s, device reports %s", e.Expected, e.Got)
}

// DeviceError is returned when a GET_STATUS response reports a non-OK
// status code.
type DeviceError struct {
	Status      StatusCode
	StringIndex uint8
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("dfu: device reported error %s (string index %d)", e.Status, e.StringIndex)
}

// BadResponseLength is returned when a feature-report read returns fewer
// or more bytes than the operation's fixed wire length.
type BadResponseLength struct {
	Want, Got int
}

func (e *BadResponseLength) Error() string {
	return fmt.Sprintf("dfu: expected %d response bytes, got %d", e.Want, e.Got)
}

// ErrImageTooLarge is returned when an image requires more non-empty
// blocks than the 16-bit block counter can address.
var ErrImageTooLarge = fmt.Errorf("dfu: image requires more than 65535 blocks")

// ErrTransportLost is returned when the transport fails mid-download; DFU
// defines no resume, so the operation simply fails.
var ErrTransportLost = fmt.Errorf("dfu: transport lost contact with device")
