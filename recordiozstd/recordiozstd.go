// Package recordiozstd registers a zstd transformer with the recordio
// registry. Importing the package is not enough; call Init once before
// use.
package recordiozstd

import (
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/wal-g/recordio"
	"github.com/wal-g/recordio/internal/iovec"
)

// Name is the registered transformer name.
const Name = "zstd"

var initOnce sync.Once

// Init registers the zstd transformers. It is safe to call multiple
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
	encoder *zstd.Encoder
	flat    []byte
	out     []byte
}

func (transformer *compressor) Transform(in [][]byte) ([][]byte, error) {
	if transformer.encoder == nil {
		encoder, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, errors.Wrap(err, "zstd encoder init failed")
		}
		transformer.encoder = encoder
	}
	transformer.flat = iovec.FlattenTo(transformer.flat[:0], in)
	transformer.out = transformer.encoder.EncodeAll(transformer.flat, transformer.out[:0])
	return [][]byte{transformer.out}, nil
}

type decompressor struct {
	decoder *zstd.Decoder
	flat    []byte
	out     []byte
}

func (transformer *decompressor) Transform(in [][]byte) ([][]byte, error) {
	if transformer.decoder == nil {
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, errors.Wrap(err, "zstd decoder init failed")
		}
		transformer.decoder = decoder
	}
	transformer.flat = iovec.FlattenTo(transformer.flat[:0], in)
	out, err := transformer.decoder.DecodeAll(transformer.flat, transformer.out[:0])
	if err != nil {
		return nil, errors.Wrap(err, "zstd decode failed")
	}
	transformer.out = out
	return [][]byte{out}, nil
}
