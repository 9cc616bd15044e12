// Package binfmt implements the wire-level primitives of the recordio
// format: block magics, CRC32 checksums, little-endian fixed-width
// integers, LEB128 varints and tagged header values.
package binfmt

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"strings"
)

// NumMagicBytes is the size of the magic number stored at the beginning of
// every block and chunk.
const NumMagicBytes = 8

// Magic distinguishes framing variants and block kinds.
type Magic [NumMagicBytes]byte

var (
	// MagicLegacyUnpacked marks a legacy unpacked block.
	MagicLegacyUnpacked = Magic{0xfc, 0xae, 0x95, 0x31, 0xf0, 0xd9, 0xbd, 0x20}

	// MagicPacked marks a legacy packed block and a v2 data block. The two
	// uses share bytes; they are told apart by the position in the file and
	// by the surrounding chunk frame.
	MagicPacked = Magic{0x2e, 0x76, 0x47, 0xeb, 0x34, 0x07, 0x3c, 0x2e}

	// MagicHeader marks a v2 header block.
	MagicHeader = Magic{0xd9, 0xe1, 0xd9, 0x5c, 0xc2, 0x16, 0x04, 0xf7}

	// MagicTrailer marks a v2 trailer block.
	MagicTrailer = Magic{0xfe, 0xba, 0x1a, 0xd7, 0xcb, 0xdf, 0x75, 0x3a}

	// MagicInvalid is a sentinel. It is never written to storage.
	MagicInvalid = Magic{0xe4, 0xe7, 0x9a, 0xc1, 0xb3, 0xf6, 0xb7, 0xa2}
)

// MagicDebugString renders a magic number for error messages.
func MagicDebugString(magic Magic) string {
	var parts []string
	for _, b := range magic {
		parts = append(parts, fmt.Sprintf("%x", b))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

var crcTable = crc32.MakeTable(crc32.IEEE)

// Crc32 computes the CRC32/IEEE checksum of data.
func Crc32(data []byte) uint32 {
	return crc32.Checksum(data, crcTable)
}

// MaxUVarintLen is the maximum encoded size of a 64-bit varint.
const MaxUVarintLen = 10

// AppendLEUint32 appends v in little-endian order.
func AppendLEUint32(buf []byte, v uint32) []byte {
	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], v)
	return append(buf, scratch[:]...)
}

// AppendLEUint64 appends v in little-endian order.
func AppendLEUint64(buf []byte, v uint64) []byte {
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], v)
	return append(buf, scratch[:]...)
}

// PutLEUint32 overwrites buf[offset:offset+4] with v in little-endian order.
func PutLEUint32(buf []byte, offset int, v uint32) {
	binary.LittleEndian.PutUint32(buf[offset:offset+4], v)
}

// AppendUVarint appends v as a LEB128 unsigned varint.
func AppendUVarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

// AppendVarint appends v as a zig-zag signed varint.
func AppendVarint(buf []byte, v int64) []byte {
	return AppendUVarint(buf, uint64(v<<1)^uint64(v>>63))
}
