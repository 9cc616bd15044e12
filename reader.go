package recordio

import (
	"io"

	"github.com/pkg/errors"
	"github.com/wal-g/recordio/internal/binfmt"
	"github.com/wal-g/recordio/internal/chunkio"
	"github.com/wal-g/recordio/internal/errtrack"
	"github.com/wal-g/recordio/internal/ioextensions"
	"github.com/wal-g/recordio/internal/iovec"
)

// Reader reads the records of a recordio file. The framing variant is
// auto-detected from the file's leading magic.
//
// A reader is single-threaded. The first error is sticky: once Scan has
// returned false on error, every later Scan returns false without new
// I/O, and Err reports the stored error.
type Reader interface {
	// Scan advances to the next record. It returns false at end of file
	// or on the first error.
	Scan() bool

	// Get returns the current record. The slice is owned by the reader
	// and is invalidated by the next Scan.
	//
	// REQUIRES: the last call to Scan returned true.
	Get() []byte

	// Seek positions the reader at a location previously reported by the
	// writer's IndexFunc. Only chunked files support seeking; the next
	// Scan yields the first item of the block at the location.
	Seek(loc ItemLocation)

	// Header returns the parsed header dictionary. It is empty for
	// legacy files.
	Header() []HeaderEntry

	// Trailer returns the trailer payload, or nil if the file has none.
	Trailer() []byte

	// Err returns the first error, or nil.
	Err() error

	// Close releases the underlying source if the reader owns it.
	Close() error
}

// errorReader is the terminal reader returned when construction fails.
// With a nil error it doubles as the reader of an empty file: Scan is
// false and Err is nil.
type errorReader struct {
	err error
}

func (reader *errorReader) Scan() bool            { return false }
func (reader *errorReader) Get() []byte           { return nil }
func (reader *errorReader) Seek(ItemLocation)     {}
func (reader *errorReader) Header() []HeaderEntry { return nil }
func (reader *errorReader) Trailer() []byte       { return nil }
func (reader *errorReader) Err() error            { return reader.err }
func (reader *errorReader) Close() error          { return nil }

// NewReader creates a reader over in. The source remains owned by the
// caller.
func NewReader(in io.ReadSeeker, opts ReaderOpts) Reader {
	return newReader(in, opts, nil)
}

// NewReaderPath opens the file at path, deriving options from the path
// suffix. The file is owned by the reader and closed by Close. Errors,
// including a missing file, are reported through the returned reader's
// Err after the first Scan returns false.
func NewReaderPath(path string) Reader {
	source, err := ioextensions.OpenFileReadSeeker(path)
	if err != nil {
		return &errorReader{err: err}
	}
	return newReader(source, DefaultReaderOpts(path), source)
}

func newReader(in io.ReadSeeker, opts ReaderOpts, closer io.Closer) Reader {
	curOffset, err := ioextensions.Tell(in)
	if err != nil {
		return &errorReader{err: err}
	}
	var magic binfmt.Magic
	n, err := io.ReadFull(in, magic[:])
	if err == io.EOF {
		return &errorReader{}
	}
	if err == io.ErrUnexpectedEOF {
		return &errorReader{err: NewCorruptHeaderError(n, binfmt.NumMagicBytes)}
	}
	if err != nil {
		return &errorReader{err: errors.Wrap(err, "failed to read leading magic")}
	}
	if err := ioextensions.AbsSeek(in, curOffset); err != nil {
		return &errorReader{err: err}
	}
	switch magic {
	case binfmt.MagicPacked:
		return newLegacyPackedReader(in, opts.Transformer, closer)
	case binfmt.MagicLegacyUnpacked:
		return newLegacyUnpackedReader(in, opts.Transformer, closer)
	default:
		return newV2Reader(in, closer)
	}
}

// v2Reader reads chunked recordio files: a header block, data blocks,
// and an optional trailer block.
type v2Reader struct {
	err         errtrack.Recorder
	chunks      *chunkio.Reader
	transformer Transformer
	closer      io.Closer

	header  []HeaderEntry
	trailer []byte

	block       []byte
	itemsRegion []byte
	spans       []itemSpan
	curItem     int
	nextItem    int
}

func newV2Reader(in io.ReadSeeker, closer io.Closer) *v2Reader {
	reader := &v2Reader{closer: closer}
	reader.chunks = chunkio.NewReader(in, &reader.err)

	headerItem := reader.readSpecialBlock("header", binfmt.MagicHeader)
	if !reader.err.Ok() {
		return reader
	}
	reader.header = decodeHeader(headerItem, &reader.err)

	resumeOffset, err := ioextensions.Tell(in)
	reader.err.Set(err)
	trailerPresent, err := hasTrailer(reader.header)
	reader.err.Set(err)
	if !reader.err.Ok() {
		return reader
	}

	if trailerPresent {
		reader.chunks.SeekLastBlock()
		reader.trailer = reader.readSpecialBlock("trailer", binfmt.MagicTrailer)
	}
	reader.chunks.Seek(resumeOffset)

	configs, err := transformerConfigs(reader.header)
	reader.err.Set(err)
	transformer, err := GetUntransformer(configs)
	reader.err.Set(err)
	reader.transformer = transformer
	return reader
}

// readSpecialBlock reads the next block, requires the expected magic,
// and returns the block's single packed item.
func (reader *v2Reader) readSpecialBlock(what string, expected binfmt.Magic) []byte {
	if !reader.chunks.Scan() {
		reader.err.Set(errors.Errorf("failed to read %v block", what))
		return nil
	}
	if magic := reader.chunks.Magic(); magic != expected {
		reader.err.Set(NewBadMagicError(
			binfmt.MagicDebugString(magic), binfmt.MagicDebugString(expected)))
		return nil
	}
	flat := iovec.Flatten(reader.chunks.Chunks())
	spans, itemsStart := parsePackedList(flat, nil, &reader.err)
	if !reader.err.Ok() {
		return nil
	}
	if len(spans) != 1 {
		reader.err.Set(NewInvalidSizeError(what+" block item count", uint64(len(spans))))
		return nil
	}
	if spans[0].size != len(flat)-itemsStart {
		reader.err.Set(NewTrailingJunkError())
		return nil
	}
	return flat[itemsStart:]
}

func (reader *v2Reader) Scan() bool {
	for reader.nextItem >= len(reader.spans) {
		if !reader.readBlock() {
			return false
		}
	}
	reader.curItem = reader.nextItem
	reader.nextItem++
	return true
}

func (reader *v2Reader) readBlock() bool {
	reader.nextItem = 0
	reader.spans = reader.spans[:0]
	if !reader.err.Ok() {
		return false
	}
	if !reader.chunks.Scan() {
		return false
	}
	magic := reader.chunks.Magic()
	if magic == binfmt.MagicTrailer { // end of the data blocks
		return false
	}
	if magic != binfmt.MagicPacked {
		reader.err.Set(NewBadMagicError(
			binfmt.MagicDebugString(magic), binfmt.MagicDebugString(binfmt.MagicPacked)))
		return false
	}
	transformed, err := reader.transformer.Transform(reader.chunks.Chunks())
	if err != nil {
		reader.err.Set(err)
		return false
	}
	reader.block = iovec.FlattenTo(reader.block[:0], transformed)
	var itemsStart int
	reader.spans, itemsStart = parsePackedList(reader.block, reader.spans, &reader.err)
	if !reader.err.Ok() {
		return false
	}
	reader.itemsRegion = reader.block[itemsStart:]
	last := reader.spans[len(reader.spans)-1]
	if last.offset+last.size != len(reader.itemsRegion) {
		reader.err.Set(NewTrailingJunkError())
		return false
	}
	return true
}

func (reader *v2Reader) Get() []byte {
	span := reader.spans[reader.curItem]
	return reader.itemsRegion[span.offset : span.offset+span.size]
}

// Seek positions the reader at the block starting at loc.Block. The
// next Scan yields that block's first item.
func (reader *v2Reader) Seek(loc ItemLocation) {
	if loc.Block%chunkio.ChunkSize != 0 {
		reader.err.Set(NewSeekUnsupportedError("location is not a block boundary"))
		return
	}
	reader.chunks.Seek(loc.Block)
	reader.spans = reader.spans[:0]
	reader.nextItem = 0
}

func (reader *v2Reader) Header() []HeaderEntry {
	return reader.header
}

func (reader *v2Reader) Trailer() []byte {
	return reader.trailer
}

func (reader *v2Reader) Err() error {
	return reader.err.Err()
}

func (reader *v2Reader) Close() error {
	if reader.closer == nil {
		return nil
	}
	return reader.closer.Close()
}
