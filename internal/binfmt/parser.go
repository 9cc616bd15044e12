package binfmt

import (
	"github.com/wal-g/recordio/internal/errtrack"
)

// Parser consumes wire-format primitives from an in-memory buffer. The
// first decoding failure is recorded in the shared error recorder and
// every later read returns a zero value without advancing.
type Parser struct {
	data []byte
	err  *errtrack.Recorder
}

func NewParser(data []byte, err *errtrack.Recorder) *Parser {
	return &Parser{data: data, err: err}
}

// Data returns the unread part of the buffer.
func (parser *Parser) Data() []byte {
	return parser.data
}

// Remaining returns the number of unread bytes.
func (parser *Parser) Remaining() int {
	return len(parser.data)
}

// ReadBytes consumes exactly n bytes and returns them as a sub-slice of
// the parser's buffer. Returns nil if fewer than n bytes remain.
func (parser *Parser) ReadBytes(n int) []byte {
	if !parser.err.Ok() {
		return nil
	}
	if len(parser.data) < n {
		parser.err.Set(NewTruncatedError("byte range", n, len(parser.data)))
		return nil
	}
	result := parser.data[:n:n]
	parser.data = parser.data[n:]
	return result
}

// ReadString consumes exactly n bytes as a string.
func (parser *Parser) ReadString(n int) string {
	return string(parser.ReadBytes(n))
}

// ReadLEUint32 consumes a little-endian uint32.
func (parser *Parser) ReadLEUint32() uint32 {
	raw := parser.ReadBytes(4)
	if raw == nil {
		return 0
	}
	return uint32(raw[0]) | uint32(raw[1])<<8 | uint32(raw[2])<<16 | uint32(raw[3])<<24
}

// ReadLEUint64 consumes a little-endian uint64.
func (parser *Parser) ReadLEUint64() uint64 {
	raw := parser.ReadBytes(8)
	if raw == nil {
		return 0
	}
	return uint64(raw[0]) | uint64(raw[1])<<8 | uint64(raw[2])<<16 | uint64(raw[3])<<24 |
		uint64(raw[4])<<32 | uint64(raw[5])<<40 | uint64(raw[6])<<48 | uint64(raw[7])<<56
}

// ReadUVarint consumes a LEB128 unsigned varint. Encodings longer than
// ten bytes, or a tenth byte above one, overflow 64 bits and are
// rejected.
func (parser *Parser) ReadUVarint() uint64 {
	if !parser.err.Ok() {
		return 0
	}
	var v uint64
	shift := uint(0)
	for i := 0; ; i++ {
		if i == MaxUVarintLen {
			parser.err.Set(NewInvalidVarintError())
			return 0
		}
		if len(parser.data) == 0 {
			parser.err.Set(NewTruncatedError("uvarint", 1, 0))
			return 0
		}
		b := parser.data[0]
		parser.data = parser.data[1:]
		if b < 0x80 {
			if i == MaxUVarintLen-1 && b > 1 {
				parser.err.Set(NewInvalidVarintError())
				return 0
			}
			return v | uint64(b)<<shift
		}
		v |= uint64(b&0x7f) << shift
		shift += 7
	}
}

// ReadVarint consumes a zig-zag signed varint.
func (parser *Parser) ReadVarint() int64 {
	u := parser.ReadUVarint()
	x := u >> 1
	if u&1 != 0 {
		x = ^x
	}
	return int64(x)
}
