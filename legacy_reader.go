package recordio

import (
	"io"

	"github.com/pkg/errors"
	"github.com/wal-g/recordio/internal/binfmt"
	"github.com/wal-g/recordio/internal/errtrack"
	"github.com/wal-g/recordio/internal/iovec"
)

const legacyBlockHeaderSize = binfmt.NumMagicBytes + 8 + 4

// MaxReadRecordSize bounds the declared size of a legacy block, to avoid
// huge allocations on corrupt input.
var MaxReadRecordSize = uint64(1 << 29)

// baseReader reads raw legacy blocks, without any transformation.
type baseReader struct {
	in    io.Reader
	magic binfmt.Magic
	err   *errtrack.Recorder
	buf   []byte
}

// Scan reads the next block into the internal buffer. It returns false
// at end of file or on the first error.
func (reader *baseReader) Scan() bool {
	if !reader.err.Ok() {
		return false
	}
	size, ok := reader.readHeader()
	if !ok {
		return false
	}
	if cap(reader.buf) < int(size) {
		reader.buf = make([]byte, size)
	}
	reader.buf = reader.buf[:size]
	if n, err := io.ReadFull(reader.in, reader.buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			reader.err.Set(NewUnexpectedEofError("block body", n, int(size)))
		} else {
			reader.err.Set(errors.Wrap(err, "failed to read block body"))
		}
		return false
	}
	return true
}

// takeBuf hands the current block buffer to the caller. The next Scan
// allocates a fresh one.
func (reader *baseReader) takeBuf() []byte {
	buf := reader.buf
	reader.buf = nil
	return buf
}

func (reader *baseReader) readHeader() (size uint64, ok bool) {
	var header [legacyBlockHeaderSize]byte
	n, err := io.ReadFull(reader.in, header[:])
	if err == io.EOF {
		return 0, false
	}
	if err == io.ErrUnexpectedEOF {
		reader.err.Set(NewCorruptHeaderError(n, legacyBlockHeaderSize))
		return 0, false
	}
	if err != nil {
		reader.err.Set(errors.Wrap(err, "failed to read block header"))
		return 0, false
	}
	var magic binfmt.Magic
	copy(magic[:], header[:binfmt.NumMagicBytes])
	if magic != reader.magic {
		reader.err.Set(NewBadMagicError(
			binfmt.MagicDebugString(magic), binfmt.MagicDebugString(reader.magic)))
		return 0, false
	}
	parser := binfmt.NewParser(header[binfmt.NumMagicBytes:], reader.err)
	size = parser.ReadLEUint64()
	expectedChecksum := parser.ReadLEUint32()
	if !reader.err.Ok() {
		return 0, false
	}
	actualChecksum := binfmt.Crc32(header[binfmt.NumMagicBytes : binfmt.NumMagicBytes+8])
	if actualChecksum != expectedChecksum {
		reader.err.Set(NewChecksumMismatchError("block header", expectedChecksum, actualChecksum))
		return 0, false
	}
	if size > MaxReadRecordSize {
		reader.err.Set(NewInvalidSizeError("record size", size))
		return 0, false
	}
	return size, true
}

// runTransformer feeds block[offset:] through the transformer and
// returns an owned flat copy of the output.
func runTransformer(transformer Transformer, block []byte, offset int) ([]byte, error) {
	out, err := transformer.Transform([][]byte{block[offset:]})
	if err != nil {
		return nil, err
	}
	return iovec.Flatten(out), nil
}

// unpackedReader yields one record per legacy unpacked block.
type unpackedReader struct {
	err         errtrack.Recorder
	base        baseReader
	transformer Transformer
	block       []byte
	closer      io.Closer
}

func newLegacyUnpackedReader(in io.Reader, transformer Transformer, closer io.Closer) *unpackedReader {
	reader := &unpackedReader{transformer: transformer, closer: closer}
	reader.base = baseReader{in: in, magic: binfmt.MagicLegacyUnpacked, err: &reader.err}
	return reader
}

func (reader *unpackedReader) Scan() bool {
	if !reader.base.Scan() {
		return false
	}
	reader.block = reader.base.takeBuf()
	if reader.transformer != nil {
		transformed, err := runTransformer(reader.transformer, reader.block, 0)
		if err != nil {
			reader.err.Set(err)
			return false
		}
		reader.block = transformed
	}
	return true
}

func (reader *unpackedReader) Get() []byte {
	return reader.block
}

func (reader *unpackedReader) Err() error {
	return reader.err.Err()
}

func (reader *unpackedReader) Header() []HeaderEntry {
	return nil
}

func (reader *unpackedReader) Trailer() []byte {
	return nil
}

func (reader *unpackedReader) Seek(ItemLocation) {
	reader.err.Set(NewSeekUnsupportedError("legacy framing has no seek index"))
}

func (reader *unpackedReader) Close() error {
	if reader.closer == nil {
		return nil
	}
	return reader.closer.Close()
}

// packedReader yields the items of legacy packed blocks one at a time.
type packedReader struct {
	err         errtrack.Recorder
	base        baseReader
	transformer Transformer
	closer      io.Closer

	itemsRegion []byte
	spans       []itemSpan
	curItem     int
}

func newLegacyPackedReader(in io.Reader, transformer Transformer, closer io.Closer) *packedReader {
	reader := &packedReader{transformer: transformer, closer: closer}
	reader.base = baseReader{in: in, magic: binfmt.MagicPacked, err: &reader.err}
	return reader
}

func (reader *packedReader) Scan() bool {
	reader.curItem++
	for reader.curItem >= len(reader.spans) {
		if !reader.readBlock() {
			return false
		}
	}
	return true
}

func (reader *packedReader) readBlock() bool {
	reader.curItem = 0
	reader.spans = reader.spans[:0]
	if !reader.base.Scan() {
		return false
	}
	block := reader.base.takeBuf()
	var itemsStart int
	reader.spans, itemsStart = parsePackedList(block, reader.spans, &reader.err)
	if !reader.err.Ok() {
		return false
	}
	reader.itemsRegion = block[itemsStart:]
	if reader.transformer != nil {
		transformed, err := runTransformer(reader.transformer, block, itemsStart)
		if err != nil {
			reader.err.Set(err)
			return false
		}
		reader.itemsRegion = transformed
	}
	last := reader.spans[len(reader.spans)-1]
	if last.offset+last.size != len(reader.itemsRegion) {
		reader.err.Set(NewTrailingJunkError())
		return false
	}
	return true
}

func (reader *packedReader) Get() []byte {
	span := reader.spans[reader.curItem]
	return reader.itemsRegion[span.offset : span.offset+span.size]
}

func (reader *packedReader) Err() error {
	return reader.err.Err()
}

func (reader *packedReader) Header() []HeaderEntry {
	return nil
}

func (reader *packedReader) Trailer() []byte {
	return nil
}

func (reader *packedReader) Seek(ItemLocation) {
	reader.err.Set(NewSeekUnsupportedError("legacy framing has no seek index"))
}

func (reader *packedReader) Close() error {
	if reader.closer == nil {
		return nil
	}
	return reader.closer.Close()
}
