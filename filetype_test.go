package recordio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetermineFileType(t *testing.T) {
	assert.Equal(t, FileTypeRIO, DetermineFileType("dir/test.grail-rio"))
	assert.Equal(t, FileTypeRIOPacked, DetermineFileType("test.grail-rpk"))
	assert.Equal(t, FileTypeRIOPackedCompressed, DetermineFileType("test.grail-rpk-gz"))
	assert.Equal(t, FileTypeUnknown, DetermineFileType("test.txt"))
	assert.Equal(t, FileTypeUnknown, DetermineFileType("grail-rio"))
}

func TestDefaultWriterOpts(t *testing.T) {
	opts := DefaultWriterOpts("test.grail-rio")
	assert.False(t, opts.Packed)
	assert.Nil(t, opts.Transformer)

	opts = DefaultWriterOpts("test.grail-rpk")
	assert.True(t, opts.Packed)
	assert.Nil(t, opts.Transformer)

	opts = DefaultWriterOpts("test.grail-rpk-gz")
	assert.True(t, opts.Packed)
	assert.NotNil(t, opts.Transformer)
}

func TestDefaultReaderOpts(t *testing.T) {
	assert.Nil(t, DefaultReaderOpts("test.grail-rio").Transformer)
	assert.Nil(t, DefaultReaderOpts("test.grail-rpk").Transformer)
	assert.NotNil(t, DefaultReaderOpts("test.grail-rpk-gz").Transformer)
}
