// Package dfu implements the client side of the vendor's DFU-over-HID
// protocol: the wire encodings for each request/response pair (protocol.go)
// and the host-side state machine that drives a download (statemachine.go).
package dfu

import "fmt"

// State is the device's DFU state, matching DFU 1.1 §6.1.2.
type State uint8

const (
	StateAppIdle              State = 0
	StateAppDetach            State = 1
	StateDfuIdle              State = 2
	StateDfuDownloadSync      State = 3
	StateDfuDownloadBusy      State = 4
	StateDfuDownloadIdle      State = 5
	StateDfuManifestSync      State = 6
	StateDfuManifest          State = 7
	StateDfuManifestWaitReset State = 8
	StateDfuUploadIdle        State = 9
	StateDfuError             State = 10
)

func (s State) String() string {
	switch s {
	case StateAppIdle:
		return "appIDLE"
	case StateAppDetach:
		return "appDETACH"
	case StateDfuIdle:
		return "dfuIDLE"
	case StateDfuDownloadSync:
		return "dfuDNLOAD-SYNC"
	case StateDfuDownloadBusy:
		return "dfuDNBUSY"
	case StateDfuDownloadIdle:
		return "dfuDNLOAD-IDLE"
	case StateDfuManifestSync:
		return "dfuMANIFEST-SYNC"
	case StateDfuManifest:
		return "dfuMANIFEST"
	case StateDfuManifestWaitReset:
		return "dfuMANIFEST-WAIT-RESET"
	case StateDfuUploadIdle:
		return "dfuUPLOAD-IDLE"
	case StateDfuError:
		return "dfuERROR"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(s))
	}
}

// StatusCode is the device-reported outcome of the last request, per DFU
// 1.1 §6.1.2.
type StatusCode uint8

const (
	StatusOK             StatusCode = 0x00
	StatusErrTarget      StatusCode = 0x01
	StatusErrFile        StatusCode = 0x02
	StatusErrWrite       StatusCode = 0x03
	StatusErrErase       StatusCode = 0x04
	StatusErrCheckErased StatusCode = 0x05
	StatusErrProg        StatusCode = 0x06
	StatusErrVerify      StatusCode = 0x07
	StatusErrAddress     StatusCode = 0x08
	StatusErrNotDone     StatusCode = 0x09
	StatusErrFirmware    StatusCode = 0x0a
	StatusErrVendor      StatusCode = 0x0b
	StatusErrUsbr        StatusCode = 0x0c
	StatusErrPor         StatusCode = 0x0d
	StatusErrUnknown     StatusCode = 0x0e
	StatusErrStalledPkt  StatusCode = 0x0f
)

func (s StatusCode) String() string {
	if s == StatusOK {
		return "OK"
	}
	return fmt.Sprintf("ERROR(%#02x)", uint8(s))
}

// Status is the 6-byte DFU status structure returned by GET_STATUS.
type Status struct {
	Status      StatusCode
	PollTimeout uint32 // milliseconds
	State       State
	StringIndex uint8
}

// WTransferSize is the DNLOAD chunk size. The vendor's devices expose no
// DFU functional descriptor over HID, so this is hard-coded to the value
// observed in captures.
const WTransferSize = 4096

// Report IDs used on the HID wire, per the vendor's captures.
const (
	ReportDetachInfo byte = 0x01
	ReportDnload     byte = 0x02
	ReportUpload     byte = 0x03
	ReportStatus     byte = 0x04
	ReportInfo       byte = 0x05
)
