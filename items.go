package recordio

import (
	"math"

	"github.com/wal-g/recordio/internal/binfmt"
	"github.com/wal-g/recordio/internal/errtrack"
)

// itemSpan locates one item inside the items region of a packed block.
type itemSpan struct {
	offset int
	size   int
}

// parsePackedList reads the metadata of a packed-item list: the leading
// checksum, the item count and the size vector. It returns the item
// spans and the byte offset at which the items region starts. The
// checksum guards the count and size varints.
func parsePackedList(block []byte, spans []itemSpan, err *errtrack.Recorder) ([]itemSpan, int) {
	parser := binfmt.NewParser(block, err)
	expectedChecksum := parser.ReadLEUint32()
	if !err.Ok() {
		return spans[:0], 0
	}
	varintRegionStart := len(block) - parser.Remaining()
	nItems := parser.ReadUVarint()
	if !err.Ok() {
		return spans[:0], 0
	}
	if nItems == 0 || nItems >= uint64(len(block)) {
		err.Set(NewInvalidSizeError("packed block item count", nItems))
		return spans[:0], 0
	}
	spans = spans[:0]
	offset := 0
	for i := uint64(0); i < nItems; i++ {
		size := parser.ReadUVarint()
		if !err.Ok() {
			return spans[:0], 0
		}
		spans = append(spans, itemSpan{offset: offset, size: int(size)})
		offset += int(size)
	}
	itemsStart := len(block) - parser.Remaining()
	actualChecksum := binfmt.Crc32(block[varintRegionStart:itemsStart])
	if actualChecksum != expectedChecksum {
		err.Set(NewChecksumMismatchError("packed item list", expectedChecksum, actualChecksum))
		return spans[:0], 0
	}
	return spans, itemsStart
}

// packedListBuilder accumulates the metadata of a packed-item list as
// items are appended, and renders the checksum-guarded list header.
type packedListBuilder struct {
	itemsCount uint64
	sizes      []byte
}

// addItemSize records one more item. It fails once the per-block item
// count limit is reached.
func (builder *packedListBuilder) addItemSize(size uint64) bool {
	if builder.itemsCount == math.MaxUint32 {
		return false
	}
	builder.itemsCount++
	builder.sizes = binfmt.AppendUVarint(builder.sizes, size)
	return true
}

// appendHeader renders the list header: the checksum, the item count and
// the size vector. The checksum covers the varints that follow it.
func (builder *packedListBuilder) appendHeader(buf []byte) []byte {
	checksumOffset := len(buf)
	buf = binfmt.AppendLEUint32(buf, 0)
	varintsOffset := len(buf)
	buf = binfmt.AppendUVarint(buf, builder.itemsCount)
	buf = append(buf, builder.sizes...)
	checksum := binfmt.Crc32(buf[varintsOffset:])
	binfmt.PutLEUint32(buf, checksumOffset, checksum)
	return buf
}

func (builder *packedListBuilder) clear() {
	builder.itemsCount = 0
	builder.sizes = builder.sizes[:0]
}
