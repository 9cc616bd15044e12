package recordio

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/pkg/errors"
	"github.com/wal-g/recordio/internal/iovec"
)

// FlateTransformerName is pre-registered and denotes raw DEFLATE
// (RFC 1951, no zlib wrapper).
const FlateTransformerName = "flate"

func init() {
	RegisterTransformer(FlateTransformerName,
		func(args string) (Transformer, error) {
			// TODO(compat): use args to set the compression level.
			return FlateTransformer(), nil
		},
		func(args string) (Transformer, error) {
			return UnflateTransformer(), nil
		})
}

// FlateTransformer returns a transformer that compresses a block with
// raw DEFLATE at the default level.
func FlateTransformer() Transformer {
	return &flateTransformer{}
}

// UnflateTransformer returns the matching decompressor.
func UnflateTransformer() Transformer {
	return &unflateTransformer{}
}

type flateTransformer struct {
	buf    bytes.Buffer
	writer *flate.Writer
}

func (transformer *flateTransformer) Transform(in [][]byte) ([][]byte, error) {
	transformer.buf.Reset()
	total := iovec.Size(in)
	transformer.buf.Grow(total + total>>10 + 64)
	if transformer.writer == nil {
		writer, err := flate.NewWriter(&transformer.buf, flate.DefaultCompression)
		if err != nil {
			return nil, errors.Wrap(err, "deflate init failed")
		}
		transformer.writer = writer
	} else {
		transformer.writer.Reset(&transformer.buf)
	}
	for _, slice := range in {
		if _, err := transformer.writer.Write(slice); err != nil {
			return nil, errors.Wrap(err, "deflate failed")
		}
	}
	if err := transformer.writer.Close(); err != nil {
		return nil, errors.Wrap(err, "deflate finish failed")
	}
	return [][]byte{transformer.buf.Bytes()}, nil
}

type unflateTransformer struct {
	src    sliceReader
	reader io.ReadCloser
	buf    []byte
}

func (transformer *unflateTransformer) Transform(in [][]byte) ([][]byte, error) {
	transformer.src.reset(in)
	if transformer.reader == nil {
		transformer.reader = flate.NewReader(&transformer.src)
	} else {
		resetter := transformer.reader.(flate.Resetter)
		if err := resetter.Reset(&transformer.src, nil); err != nil {
			return nil, errors.Wrap(err, "inflate init failed")
		}
	}
	totalIn := iovec.Size(in)
	out := transformer.buf[:cap(transformer.buf)]
	if len(out) < totalIn {
		out = make([]byte, totalIn)
	}
	if len(out) == 0 {
		out = make([]byte, 32)
	}
	n := 0
	for {
		m, err := transformer.reader.Read(out[n:])
		n += m
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "inflate failed")
		}
		if n == len(out) {
			grown := make([]byte, 2*len(out))
			copy(grown, out)
			out = grown
		}
	}
	if transformer.src.remaining() > 0 {
		return nil, NewTrailingJunkError()
	}
	transformer.buf = out
	return [][]byte{out[:n]}, nil
}

// sliceReader reads through a sequence of byte slices. It implements
// io.ByteReader so that the inflater consumes exactly the bytes of the
// stream, letting the caller detect trailing junk.
type sliceReader struct {
	iov [][]byte
}

func (reader *sliceReader) reset(iov [][]byte) {
	reader.iov = append(reader.iov[:0], iov...)
}

func (reader *sliceReader) skipEmpty() {
	for len(reader.iov) > 0 && len(reader.iov[0]) == 0 {
		reader.iov = reader.iov[1:]
	}
}

func (reader *sliceReader) Read(p []byte) (int, error) {
	reader.skipEmpty()
	if len(reader.iov) == 0 {
		return 0, io.EOF
	}
	n := copy(p, reader.iov[0])
	reader.iov[0] = reader.iov[0][n:]
	return n, nil
}

func (reader *sliceReader) ReadByte() (byte, error) {
	reader.skipEmpty()
	if len(reader.iov) == 0 {
		return 0, io.EOF
	}
	b := reader.iov[0][0]
	reader.iov[0] = reader.iov[0][1:]
	return b, nil
}

func (reader *sliceReader) remaining() int {
	n := 0
	for _, slice := range reader.iov {
		n += len(slice)
	}
	return n
}
