package recordio

const (
	// DefaultMaxPackedItems bounds the number of items in a packed block.
	DefaultMaxPackedItems = uint64(16 << 10)

	// DefaultMaxPackedBytes bounds the pre-transform byte size of a
	// packed block.
	DefaultMaxPackedBytes = uint64(16 << 20)
)

// IndexFunc is called after every flushed block with the absolute byte
// offset of the block's first byte, relative to the sink position at
// writer construction. Blocks are reported in file order. A non-nil
// return value becomes the writer's sticky error.
type IndexFunc func(blockOffset int64) error

// ItemLocation addresses one item in a file: the byte offset of the
// containing block's first byte and the item's index inside the block's
// packed-item list.
type ItemLocation struct {
	Block int64
	Item  int
}

// ReaderOpts configures NewReader.
type ReaderOpts struct {
	// Transformer decodes legacy block payloads. Chunked files ignore it
	// and derive their transformer from the header block.
	Transformer Transformer
}

// WriterOpts configures NewWriter.
type WriterOpts struct {
	// Packed selects the packed legacy framing: records are multiplexed
	// into blocks of at most MaxPackedItems items and MaxPackedBytes
	// pre-transform bytes.
	Packed bool

	// MaxPackedItems and MaxPackedBytes bound the pending packed block.
	// Zero selects the defaults.
	MaxPackedItems uint64
	MaxPackedBytes uint64

	// Transformer encodes block payloads before framing.
	Transformer Transformer

	// Index, if set, is called for every flushed block.
	Index IndexFunc
}
