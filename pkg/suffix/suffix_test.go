package suffix

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// build assembles a valid .dfu file for payload targeting vid/pid, with a
// correctly computed CRC.
func build(payload []byte, bcdDevice, idProduct, idVendor, bcdDFU uint16) []byte {
	trailer := make([]byte, 16)
	binary.LittleEndian.PutUint16(trailer[0:2], bcdDevice)
	binary.LittleEndian.PutUint16(trailer[2:4], idProduct)
	binary.LittleEndian.PutUint16(trailer[4:6], idVendor)
	binary.LittleEndian.PutUint16(trailer[6:8], bcdDFU)
	copy(trailer[8:11], signature[:])
	trailer[11] = 16

	buf := append([]byte{}, payload...)
	buf = append(buf, trailer[:12]...)
	c := crc(buf)
	crcBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(crcBytes, c)
	return append(buf, crcBytes...)
}

func TestParseValidRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAA}, 1024)
	raw := build(payload, 0x0001, 0x1234, 0x05A7, 0x0100)

	img, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, want := len(img.Payload), 1024; got != want {
		t.Errorf("payload length = %d, want %d", got, want)
	}
	if img.IDVendor != 0x05A7 || img.IDProduct != 0x1234 || img.BcdDevice != 0x0001 || img.BcdDFU != 0x0100 {
		t.Errorf("unexpected fields: %+v", img)
	}
}

func TestParseCrcRejection(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAA}, 1024)
	raw := build(payload, 0x0001, 0x1234, 0x05A7, 0x0100)
	raw[1023] ^= 0xFF // flip last payload byte

	_, err := Parse(raw)
	if _, ok := err.(*BadCrc); !ok {
		t.Fatalf("Parse: got %v, want *BadCrc", err)
	}
}

func TestParseBLengthOffByOneFails(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAA}, 1024)
	raw := build(payload, 0x0001, 0x1234, 0x05A7, 0x0100)

	// Mutate the bLength byte (the last byte before the 4-byte CRC)
	// without recomputing the CRC: the file's own CRC now
	// no longer matches, since bLength is covered by the CRC region.
	raw[len(raw)-5]++

	if _, err := Parse(raw); err == nil {
		t.Fatal("Parse: expected error for off-by-one bLength, got nil")
	}
}

func TestParseTooShort(t *testing.T) {
	if _, err := Parse(make([]byte, 8)); err == nil {
		t.Fatal("Parse: expected error for too-short file")
	}
}

func TestParseBadSignature(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAA}, 64)
	raw := build(payload, 0x0001, 0x1234, 0x05A7, 0x0100)
	raw[len(raw)-8] = 'X' // corrupt signature, recompute nothing

	if _, err := Parse(raw); err == nil {
		t.Fatal("Parse: expected error for bad signature")
	}
}

func TestMatchesWildcard(t *testing.T) {
	img := &FirmwareImage{IDVendor: Wildcard, IDProduct: 0x1234}
	if !Matches(img, 0x05A7, 0x1234) {
		t.Error("Matches: expected wildcard vendor to match")
	}
	if Matches(img, 0x05A7, 0x5678) {
		t.Error("Matches: expected product mismatch to fail")
	}
}
