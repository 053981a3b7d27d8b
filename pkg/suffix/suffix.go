// Package suffix parses and validates the trailing metadata block of a
// .dfu firmware file, per DFU 1.1 §7: bcdDevice, idProduct, idVendor,
// bcdDFU, ucDfuSignature, bLength, dwCRC, little-endian, read from the
// tail of the file.
package suffix

import (
	"encoding/binary"
	"fmt"

	"github.com/golang/glog"
)

// MinLength is the minimum legal bLength: the seven fixed fields, signature
// included (2+2+2+2+3+1+4 bytes).
const MinLength = 16

// supportedDFUVersion is the only bcdDFU value this codec accepts.
const supportedDFUVersion = 0x0100

// Wildcard is the idVendor/idProduct value meaning "matches any device".
const Wildcard = 0xFFFF

var signature = [3]byte{'U', 'F', 'D'}

// FirmwareImage is a fully-parsed, immutable .dfu file: the payload plus
// the fields read from its suffix.
type FirmwareImage struct {
	Payload   []byte
	IDVendor  uint16
	IDProduct uint16
	BcdDevice uint16
	BcdDFU    uint16
	CRC       uint32
}

// SuffixTooShort is returned when the file is shorter than the minimum
// suffix length, or shorter than its own declared bLength.
type SuffixTooShort struct {
	Have, Want int
}

func (e *SuffixTooShort) Error() string {
	return fmt.Sprintf("suffix: file length %d is shorter than required %d bytes", e.Have, e.Want)
}

// BadSignature is returned when the 3-byte "UFD" marker does not appear
// immediately before the length byte.
type BadSignature struct {
	Got [3]byte
}

func (e *BadSignature) Error() string {
	return fmt.Sprintf("suffix: bad signature %q, want %q", e.Got, signature)
}

// BadCrc is returned when the stored CRC does not match the one computed
// over the file.
type BadCrc struct {
	Expected, Computed uint32
}

func (e *BadCrc) Error() string {
	return fmt.Sprintf("suffix: crc mismatch: file declares %#08x, computed %#08x", e.Expected, e.Computed)
}

// UnsupportedDfuVersion is returned when bcdDFU is not 0x0100.
type UnsupportedDfuVersion struct {
	Got uint16
}

func (e *UnsupportedDfuVersion) Error() string {
	return fmt.Sprintf("suffix: unsupported DFU version %#04x", e.Got)
}

// Parse validates raw and, on success, returns the firmware image it
// describes. Validation order: sufficient length, bLength >= 16, the
// sufficient-for-bLength length, signature match, CRC verification, DFU
// version check.
func Parse(raw []byte) (*FirmwareImage, error) {
	if len(raw) < MinLength {
		return nil, &SuffixTooShort{Have: len(raw), Want: MinLength}
	}

	bLength := int(raw[len(raw)-5])
	if bLength < MinLength {
		return nil, fmt.Errorf("suffix: bLength %d below minimum %d", bLength, MinLength)
	}
	if len(raw) < bLength {
		return nil, &SuffixTooShort{Have: len(raw), Want: bLength}
	}

	suffixStart := len(raw) - bLength

	// The fixed fields always occupy the last 16 bytes of the file,
	// regardless of bLength: [-16:-14] bcdDevice [-14:-12] idProduct
	// [-12:-10] idVendor [-10:-8] bcdDFU [-8:-5] signature [-5] bLength
	// [-4:] dwCRC.
	end := raw[len(raw)-16:]

	var got [3]byte
	copy(got[:], end[8:11])
	if got != signature {
		return nil, &BadSignature{Got: got}
	}

	bcdDevice := binary.LittleEndian.Uint16(end[0:2])
	idProduct := binary.LittleEndian.Uint16(end[2:4])
	idVendor := binary.LittleEndian.Uint16(end[4:6])
	bcdDFU := binary.LittleEndian.Uint16(end[6:8])
	declaredCRC := binary.LittleEndian.Uint32(raw[len(raw)-4:])

	computed := crc(raw[:len(raw)-4])
	if computed != declaredCRC {
		return nil, &BadCrc{Expected: declaredCRC, Computed: computed}
	}

	if bcdDFU != supportedDFUVersion {
		return nil, &UnsupportedDfuVersion{Got: bcdDFU}
	}

	img := &FirmwareImage{
		Payload:   raw[:suffixStart],
		IDVendor:  idVendor,
		IDProduct: idProduct,
		BcdDevice: bcdDevice,
		BcdDFU:    bcdDFU,
		CRC:       declaredCRC,
	}
	glog.V(1).Infof("suffix: parsed image vid=%#04x pid=%#04x payload=%d bytes", img.IDVendor, img.IDProduct, len(img.Payload))
	return img, nil
}

// MismatchedDeviceIds is returned when a firmware image's vendor/product
// IDs do not target the connected device.
type MismatchedDeviceIds struct {
	ImageVendor, ImageProduct   uint16
	DeviceVendor, DeviceProduct uint16
}

func (e *MismatchedDeviceIds) Error() string {
	return fmt.Sprintf("suffix: image targets %#04x:%#04x, device is %#04x:%#04x",
		e.ImageVendor, e.ImageProduct, e.DeviceVendor, e.DeviceProduct)
}

// Matches reports whether img targets the given vendor/product ID pair,
// honoring the 0xFFFF wildcard on either field.
func Matches(img *FirmwareImage, vid, pid uint16) bool {
	vidOK := img.IDVendor == Wildcard || img.IDVendor == vid
	pidOK := img.IDProduct == Wildcard || img.IDProduct == pid
	return vidOK && pidOK
}
