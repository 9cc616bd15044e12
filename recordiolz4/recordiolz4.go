// Package recordiolz4 registers an lz4 transformer with the recordio
// registry. Importing the package is not enough; call Init once before
// use.
package recordiolz4

import (
	"bytes"
	"io"
	"sync"

	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
	"github.com/wal-g/recordio"
)

// Name is the registered transformer name.
const Name = "lz4"

var initOnce sync.Once

// Init registers the lz4 transformers. It is safe to call multiple
// times from multiple goroutines.
func Init() {
	initOnce.Do(func() {
		recordio.RegisterTransformer(Name,
			func(args string) (recordio.Transformer, error) {
				return &compressor{}, nil
			},
			func(args string) (recordio.Transformer, error) {
				return &decompressor{}, nil
			})
	})
}

type compressor struct {
	buf    bytes.Buffer
	writer *lz4.Writer
}

func (transformer *compressor) Transform(in [][]byte) ([][]byte, error) {
	transformer.buf.Reset()
	if transformer.writer == nil {
		transformer.writer = lz4.NewWriter(&transformer.buf)
	} else {
		transformer.writer.Reset(&transformer.buf)
	}
	for _, slice := range in {
		if _, err := transformer.writer.Write(slice); err != nil {
			return nil, errors.Wrap(err, "lz4 compression failed")
		}
	}
	if err := transformer.writer.Close(); err != nil {
		return nil, errors.Wrap(err, "lz4 finish failed")
	}
	return [][]byte{transformer.buf.Bytes()}, nil
}

type decompressor struct {
	buf    bytes.Buffer
	reader *lz4.Reader
	flat   []byte
}

func (transformer *decompressor) Transform(in [][]byte) ([][]byte, error) {
	transformer.flat = transformer.flat[:0]
	for _, slice := range in {
		transformer.flat = append(transformer.flat, slice...)
	}
	src := bytes.NewReader(transformer.flat)
	if transformer.reader == nil {
		transformer.reader = lz4.NewReader(src)
	} else {
		transformer.reader.Reset(src)
	}
	transformer.buf.Reset()
	if _, err := io.Copy(&transformer.buf, transformer.reader); err != nil {
		return nil, errors.Wrap(err, "lz4 decompression failed")
	}
	return [][]byte{transformer.buf.Bytes()}, nil
}
