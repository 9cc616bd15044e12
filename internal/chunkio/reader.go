// Package chunkio reads and writes the fixed-size chunk framing used by
// chunked (v2) recordio files. A logical block of any length is carried
// by a contiguous run of 32 KiB chunks, each with its own header and
// CRC32; this package assembles runs back into blocks and splits blocks
// into runs, without applying any transformation.
package chunkio

import (
	"io"

	"github.com/pkg/errors"
	"github.com/wal-g/recordio/internal/binfmt"
	"github.com/wal-g/recordio/internal/errtrack"
	"github.com/wal-g/recordio/internal/ioextensions"
)

const (
	// ChunkSize is the on-disk size of every chunk.
	ChunkSize = 32 << 10

	// ChunkHeaderSize is the size of the per-chunk header.
	ChunkHeaderSize = 28

	// MaxChunkPayloadSize is the number of payload bytes a chunk can carry.
	MaxChunkPayloadSize = ChunkSize - ChunkHeaderSize

	// crcRangeOffset is where the checksummed range of a chunk starts. The
	// range covers the flag, size, total and index fields plus the payload.
	crcRangeOffset = 12
)

// Reader assembles chunk runs into blocks. The payload slices handed out
// by Chunks point into a free list of chunk buffers owned by the reader;
// they stay valid until the next call to Scan.
type Reader struct {
	in  io.ReadSeeker
	err *errtrack.Recorder

	magic binfmt.Magic
	iov   [][]byte

	nextFreeChunk int
	freeChunks    [][]byte
}

func NewReader(in io.ReadSeeker, err *errtrack.Recorder) *Reader {
	return &Reader{in: in, err: err, magic: binfmt.MagicInvalid}
}

// Magic returns the magic number of the current block.
//
// REQUIRES: the last call to Scan returned true.
func (reader *Reader) Magic() binfmt.Magic {
	return reader.magic
}

// Chunks returns the payload slices of the current block, in order. The
// slices are invalidated by the next Scan.
//
// REQUIRES: the last call to Scan returned true.
func (reader *Reader) Chunks() [][]byte {
	return reader.iov
}

// Scan reads the next block. It returns false at end of file or on the
// first error; the error, if any, is in the shared recorder.
func (reader *Reader) Scan() bool {
	reader.magic = binfmt.MagicInvalid
	reader.iov = reader.iov[:0]
	reader.nextFreeChunk = 0
	if !reader.err.Ok() {
		return false
	}
	var totalChunks uint32
	for {
		magic, index, total, payload, ok := reader.readChunk(len(reader.iov) == 0)
		if !ok {
			return false
		}
		if len(reader.iov) == 0 {
			reader.magic = magic
			totalChunks = total
		}
		if magic != reader.magic {
			reader.err.Set(NewMagicChangedError(
				binfmt.MagicDebugString(magic), binfmt.MagicDebugString(reader.magic)))
			return false
		}
		if index != uint32(len(reader.iov)) {
			reader.err.Set(NewIndexMismatchError(index, uint32(len(reader.iov))))
			return false
		}
		if total != totalChunks {
			reader.err.Set(NewTotalMismatchError(total, totalChunks))
			return false
		}
		reader.iov = append(reader.iov, payload)
		if index+1 == total {
			return true
		}
	}
}

// Seek positions the reader so that the next Scan reads the block at the
// given absolute byte offset.
func (reader *Reader) Seek(offset int64) {
	reader.err.Set(ioextensions.AbsSeek(reader.in, offset))
}

// SeekLastBlock positions the reader at the first chunk of the trailer
// block. The chunk index of the file's last chunk tells how far back the
// block starts.
func (reader *Reader) SeekLastBlock() {
	if _, err := reader.in.Seek(-ChunkSize, io.SeekEnd); err != nil {
		reader.err.Set(errors.Wrap(err, "failed to seek to the last chunk"))
		return
	}
	magic, index, _, _, ok := reader.readChunk(false)
	if !ok {
		return
	}
	if magic != binfmt.MagicTrailer {
		reader.err.Set(NewBadTrailerMagicError(binfmt.MagicDebugString(magic)))
		return
	}
	offset := -int64(ChunkSize) * (int64(index) + 1)
	if _, err := reader.in.Seek(offset, io.SeekEnd); err != nil {
		reader.err.Set(errors.Wrap(err, "failed to seek to the trailer block"))
	}
}

// readChunk reads one chunk into a free-list buffer and validates its
// header. eofOk selects whether a clean end of file is acceptable here;
// it is, only before the first chunk of a block.
func (reader *Reader) readChunk(eofOk bool) (magic binfmt.Magic, index, total uint32, payload []byte, ok bool) {
	for reader.nextFreeChunk >= len(reader.freeChunks) {
		reader.freeChunks = append(reader.freeChunks, make([]byte, ChunkSize))
	}
	buf := reader.freeChunks[reader.nextFreeChunk]
	reader.nextFreeChunk++

	n, err := io.ReadFull(reader.in, buf)
	if err == io.EOF && eofOk {
		return magic, 0, 0, nil, false
	}
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			reader.err.Set(NewUnexpectedEofError(n))
		} else {
			reader.err.Set(errors.Wrap(err, "failed to read chunk"))
		}
		return magic, 0, 0, nil, false
	}

	parser := binfmt.NewParser(buf[:ChunkHeaderSize], reader.err)
	copy(magic[:], parser.ReadBytes(binfmt.NumMagicBytes))
	expectedChecksum := parser.ReadLEUint32()
	parser.ReadLEUint32() // flag, reserved
	size := parser.ReadLEUint32()
	total = parser.ReadLEUint32()
	index = parser.ReadLEUint32()
	if !reader.err.Ok() {
		return magic, 0, 0, nil, false
	}
	if size > MaxChunkPayloadSize {
		reader.err.Set(NewInvalidSizeError(size))
		return magic, 0, 0, nil, false
	}
	actualChecksum := binfmt.Crc32(buf[crcRangeOffset : ChunkHeaderSize+size])
	if expectedChecksum != actualChecksum {
		reader.err.Set(NewChecksumMismatchError(expectedChecksum, actualChecksum))
		return magic, 0, 0, nil, false
	}
	return magic, index, total, buf[ChunkHeaderSize : ChunkHeaderSize+size], true
}
