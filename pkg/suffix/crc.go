package suffix

import "hash/crc32"

// crc computes the CRC-32 variant DFU 1.1 suffixes use: IEEE 802.3
// polynomial, reflected, initial register 0xFFFFFFFF, and critically no
// final complement of the register.
//
// The standard library's crc32.ChecksumIEEE computes the ordinary CRC-32
// (same polynomial and initial register, but with the customary final
// complement baked into Sum32). Undoing that complement by XORing the
// result with 0xFFFFFFFF recovers the raw register value DFU wants,
// without reimplementing the table-driven shift loop.
func crc(data []byte) uint32 {
	return crc32.ChecksumIEEE(data) ^ 0xFFFFFFFF
}
