package recordio

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/wal-g/recordio/internal/binfmt"
	"github.com/wal-g/recordio/internal/errtrack"
	"github.com/wal-g/recordio/internal/ioextensions"
	"github.com/wal-g/recordio/internal/iovec"
)

// Writer emits records into a legacy-framed recordio stream.
//
// A writer is single-threaded. The first error is sticky: once Write or
// Close has returned false, every later Write returns false without
// touching the sink, Close returns false after only closing a sink the
// writer owns, and Err reports the stored error.
type Writer interface {
	// Write appends one record. In unpacked mode it emits one block per
	// call; in packed mode it buffers into the pending block.
	Write(record []byte) bool

	// Close flushes any pending block and closes the sink if the writer
	// owns it.
	Close() bool

	// Err returns the first error, or nil.
	Err() error
}

// baseWriter frames raw blocks, tracks block offsets for the indexer and
// owns the sticky error state.
type baseWriter struct {
	out   *ioextensions.CountingWriter
	magic binfmt.Magic
	err   *errtrack.Recorder
	index IndexFunc
	owned io.Closer
}

// writeBlock writes one block consisting of the given spans, contiguous
// after the 20-byte block header.
func (writer *baseWriter) writeBlock(parts [][]byte) bool {
	if !writer.err.Ok() {
		return false
	}
	blockStart := writer.out.Written()
	size := uint64(iovec.Size(parts))

	var header [legacyBlockHeaderSize]byte
	buf := append(header[:0], writer.magic[:]...)
	buf = binfmt.AppendLEUint64(buf, size)
	buf = binfmt.AppendLEUint32(buf, binfmt.Crc32(buf[binfmt.NumMagicBytes:]))
	if _, err := writer.out.Write(buf); err != nil {
		writer.err.Set(errors.Wrap(err, "failed to write block header"))
		return false
	}
	for _, part := range parts {
		if len(part) == 0 {
			continue
		}
		if _, err := writer.out.Write(part); err != nil {
			writer.err.Set(errors.Wrap(err, "failed to write block body"))
			return false
		}
	}
	if writer.index != nil {
		if err := writer.index(blockStart); err != nil {
			writer.err.Set(NewIndexerFailureError(err))
			return false
		}
	}
	return true
}

func (writer *baseWriter) close() bool {
	if writer.owned != nil {
		if err := writer.owned.Close(); err != nil {
			writer.err.Set(errors.Wrap(err, "failed to close output"))
			return false
		}
		writer.owned = nil
	}
	return writer.err.Ok()
}

// unpackedWriter emits one block per record.
type unpackedWriter struct {
	err         errtrack.Recorder
	base        baseWriter
	transformer Transformer
}

func newUnpackedWriter(out io.Writer, opts WriterOpts, owned io.Closer) *unpackedWriter {
	writer := &unpackedWriter{transformer: opts.Transformer}
	writer.base = baseWriter{
		out:   ioextensions.NewCountingWriter(out),
		magic: binfmt.MagicLegacyUnpacked,
		err:   &writer.err,
		index: opts.Index,
		owned: owned,
	}
	return writer
}

func (writer *unpackedWriter) Write(record []byte) bool {
	if !writer.err.Ok() {
		return false
	}
	parts := [][]byte{record}
	if writer.transformer != nil {
		transformed, err := writer.transformer.Transform(parts)
		if err != nil {
			writer.err.Set(err)
			return false
		}
		parts = transformed
	}
	return writer.base.writeBlock(parts)
}

func (writer *unpackedWriter) Close() bool {
	return writer.base.close()
}

func (writer *unpackedWriter) Err() error {
	return writer.err.Err()
}

// packedWriter multiplexes records into packed blocks, flushing when
// either packing bound is reached.
type packedWriter struct {
	err         errtrack.Recorder
	base        baseWriter
	transformer Transformer

	maxItems uint64
	maxBytes uint64

	builder  packedListBuilder
	buffered []byte
	scratch  []byte
}

func newPackedWriter(out io.Writer, opts WriterOpts, owned io.Closer) *packedWriter {
	writer := &packedWriter{
		transformer: opts.Transformer,
		maxItems:    opts.MaxPackedItems,
		maxBytes:    opts.MaxPackedBytes,
	}
	if writer.maxItems == 0 {
		writer.maxItems = DefaultMaxPackedItems
	}
	if writer.maxBytes == 0 {
		writer.maxBytes = DefaultMaxPackedBytes
	}
	writer.base = baseWriter{
		out:   ioextensions.NewCountingWriter(out),
		magic: binfmt.MagicPacked,
		err:   &writer.err,
		index: opts.Index,
		owned: owned,
	}
	return writer
}

func (writer *packedWriter) Write(record []byte) bool {
	if !writer.err.Ok() {
		return false
	}
	if uint64(len(record)) > writer.maxBytes {
		writer.err.Set(NewItemTooLargeError(uint64(len(record)), writer.maxBytes))
		return false
	}
	if writer.builder.itemsCount+1 > writer.maxItems ||
		uint64(len(writer.buffered)+len(record)) > writer.maxBytes {
		if !writer.flush() {
			return false
		}
	}
	if !writer.builder.addItemSize(uint64(len(record))) {
		writer.err.Set(NewInvalidSizeError("packed block item count", writer.builder.itemsCount))
		return false
	}
	writer.buffered = append(writer.buffered, record...)
	return true
}

func (writer *packedWriter) flush() bool {
	writer.scratch = writer.builder.appendHeader(writer.scratch[:0])
	parts := [][]byte{writer.buffered}
	if writer.transformer != nil {
		transformed, err := writer.transformer.Transform(parts)
		if err != nil {
			writer.err.Set(err)
			return false
		}
		parts = transformed
	}
	if !writer.base.writeBlock(append([][]byte{writer.scratch}, parts...)) {
		return false
	}
	writer.builder.clear()
	writer.buffered = writer.buffered[:0]
	return true
}

func (writer *packedWriter) Close() bool {
	if writer.err.Ok() && writer.builder.itemsCount > 0 {
		if !writer.flush() {
			return false
		}
	}
	return writer.base.close()
}

func (writer *packedWriter) Err() error {
	return writer.err.Err()
}

// NewWriter creates a writer that emits into out. The sink remains owned
// by the caller.
func NewWriter(out io.Writer, opts WriterOpts) Writer {
	if opts.Packed {
		return newPackedWriter(out, opts, nil)
	}
	return newUnpackedWriter(out, opts, nil)
}

// NewWriterPath creates the file at path and derives the writer options
// from the path suffix. The file is owned by the writer and closed by
// Close.
func NewWriterPath(path string) Writer {
	opts := DefaultWriterOpts(path)
	file, err := os.Create(path)
	if err != nil {
		if opts.Packed {
			writer := newPackedWriter(io.Discard, opts, nil)
			writer.err.Set(errors.Wrapf(err, "failed to create %v", path))
			return writer
		}
		writer := newUnpackedWriter(io.Discard, opts, nil)
		writer.err.Set(errors.Wrapf(err, "failed to create %v", path))
		return writer
	}
	if opts.Packed {
		return newPackedWriter(file, opts, file)
	}
	return newUnpackedWriter(file, opts, file)
}
