package recordio

import (
	"bytes"
	"encoding/binary"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wal-g/recordio/internal/binfmt"
)

const testRecordTemplate = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// testRecord returns the i-th eight-byte test record.
func testRecord(i int) []byte {
	start := i % 44
	return []byte(testRecordTemplate[start : start+8])
}

func checkRecords(t *testing.T, reader Reader, count int) {
	t.Helper()
	n := 0
	for reader.Scan() {
		require.Equal(t, testRecord(n), reader.Get(), "record %v", n)
		require.NoError(t, reader.Err())
		n++
	}
	assert.NoError(t, reader.Err())
	assert.Equal(t, count, n)
}

func writeRecords(t *testing.T, writer Writer, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		require.True(t, writer.Write(testRecord(i)), "write %v: %v", i, writer.Err())
	}
	require.True(t, writer.Close(), "close: %v", writer.Err())
}

func TestUnpackedRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(&buf, WriterOpts{})
	records := [][]byte{[]byte("hi"), {}, []byte("abcd")}
	for _, record := range records {
		require.True(t, writer.Write(record))
	}
	require.True(t, writer.Close())

	// Three self-framed blocks with payload sizes 2, 0 and 4.
	file := buf.Bytes()
	offset := 0
	for _, expectedSize := range []uint64{2, 0, 4} {
		require.True(t, bytes.HasPrefix(file[offset:], binfmt.MagicLegacyUnpacked[:]))
		size := binary.LittleEndian.Uint64(file[offset+8 : offset+16])
		assert.Equal(t, expectedSize, size)
		offset += legacyBlockHeaderSize + int(size)
	}
	assert.Equal(t, len(file), offset)

	reader := NewReader(bytes.NewReader(file), ReaderOpts{})
	for _, expected := range records {
		require.True(t, reader.Scan())
		assert.Equal(t, expected, append([]byte{}, reader.Get()...))
	}
	assert.False(t, reader.Scan())
	assert.NoError(t, reader.Err())
}

func countBlockMagics(file []byte, magic binfmt.Magic) int {
	count := 0
	for offset := 0; offset+legacyBlockHeaderSize <= len(file); {
		if !bytes.HasPrefix(file[offset:], magic[:]) {
			break
		}
		size := binary.LittleEndian.Uint64(file[offset+8 : offset+16])
		count++
		offset += legacyBlockHeaderSize + int(size)
	}
	return count
}

func TestPackedBatching(t *testing.T) {
	var buf bytes.Buffer
	var offsets []int64
	writer := NewWriter(&buf, WriterOpts{
		Packed:         true,
		MaxPackedItems: 3,
		MaxPackedBytes: 1 << 20,
		Index: func(blockOffset int64) error {
			offsets = append(offsets, blockOffset)
			return nil
		},
	})
	writeRecords(t, writer, 10)

	// 10 records at 3 per block make 4 blocks: 3 + 3 + 3 + 1.
	file := buf.Bytes()
	assert.Equal(t, 4, countBlockMagics(file, binfmt.MagicPacked))
	require.Len(t, offsets, 4)
	assert.Equal(t, int64(0), offsets[0])

	checkRecords(t, NewReader(bytes.NewReader(file), ReaderOpts{}), 10)
}

func TestPackedDefaultBounds(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(&buf, WriterOpts{Packed: true})
	writeRecords(t, writer, 128)
	assert.Equal(t, 1, countBlockMagics(buf.Bytes(), binfmt.MagicPacked))
	checkRecords(t, NewReader(bytes.NewReader(buf.Bytes()), ReaderOpts{}), 128)
}

func TestFlateRoundTrip(t *testing.T) {
	record := bytes.Repeat([]byte("compressible data "), 100*1024/18+1)[:100*1024]
	var buf bytes.Buffer
	writer := NewWriter(&buf, WriterOpts{Transformer: FlateTransformer()})
	require.True(t, writer.Write(record))
	require.True(t, writer.Close())

	file := buf.Bytes()
	payloadSize := binary.LittleEndian.Uint64(file[8:16])
	assert.Less(t, payloadSize, uint64(len(record)))

	reader := NewReader(bytes.NewReader(file), ReaderOpts{Transformer: UnflateTransformer()})
	require.True(t, reader.Scan(), "%v", reader.Err())
	assert.Equal(t, record, reader.Get())
	assert.False(t, reader.Scan())
	assert.NoError(t, reader.Err())
}

func TestPackedCompressedPathRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.grail-rpk-gz")
	writer := NewWriterPath(path)
	writeRecords(t, writer, 128)

	reader := NewReaderPath(path)
	checkRecords(t, reader, 128)
	require.NoError(t, reader.Close())
}

func TestUnpackedPathRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.grail-rio")
	writer := NewWriterPath(path)
	writeRecords(t, writer, 16)

	reader := NewReaderPath(path)
	checkRecords(t, reader, 16)
	require.NoError(t, reader.Close())
}

func TestEmptyFile(t *testing.T) {
	reader := NewReader(bytes.NewReader(nil), ReaderOpts{})
	assert.False(t, reader.Scan())
	assert.NoError(t, reader.Err())
}

func TestEmptyPackedWriter(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(&buf, WriterOpts{Packed: true})
	require.True(t, writer.Close())
	assert.Equal(t, 0, buf.Len())

	reader := NewReader(bytes.NewReader(buf.Bytes()), ReaderOpts{})
	assert.False(t, reader.Scan())
	assert.NoError(t, reader.Err())
}

func TestItemTooLarge(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(&buf, WriterOpts{Packed: true, MaxPackedBytes: 4})
	assert.False(t, writer.Write([]byte("12345")))
	require.Error(t, writer.Err())
	assert.IsType(t, ItemTooLargeError{}, writer.Err())

	// The error is sticky.
	assert.False(t, writer.Write([]byte("1")))
}

func TestItemExactlyMaxBytesFlushedAlone(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(&buf, WriterOpts{Packed: true, MaxPackedBytes: 8})
	require.True(t, writer.Write(testRecord(0)))
	require.True(t, writer.Write(testRecord(1)))
	require.True(t, writer.Close())
	assert.Equal(t, 2, countBlockMagics(buf.Bytes(), binfmt.MagicPacked))

	checkRecords(t, NewReader(bytes.NewReader(buf.Bytes()), ReaderOpts{}), 2)
}

func TestCorruptBlockHeaderChecksum(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(&buf, WriterOpts{})
	require.True(t, writer.Write([]byte("payload")))
	require.True(t, writer.Close())

	file := buf.Bytes()
	file[8] ^= 1 // inside the size field guarded by the header CRC

	reader := NewReader(bytes.NewReader(file), ReaderOpts{})
	assert.False(t, reader.Scan())
	require.Error(t, reader.Err())
	assert.IsType(t, ChecksumMismatchError{}, reader.Err())

	// The error is sticky across Scan calls.
	assert.False(t, reader.Scan())
	assert.IsType(t, ChecksumMismatchError{}, reader.Err())
}

func TestCorruptPackedListChecksum(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(&buf, WriterOpts{Packed: true})
	require.True(t, writer.Write([]byte("12345678")))
	require.True(t, writer.Close())

	file := buf.Bytes()
	// The packed-item list starts right after the block header: four
	// checksum bytes, the item count, then the guarded size varints.
	file[legacyBlockHeaderSize+5] ^= 1

	reader := NewReader(bytes.NewReader(file), ReaderOpts{})
	assert.False(t, reader.Scan())
	require.Error(t, reader.Err())
	assert.IsType(t, ChecksumMismatchError{}, reader.Err())
}

func TestBadMagicMidStream(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(&buf, WriterOpts{})
	require.True(t, writer.Write([]byte("one")))
	require.True(t, writer.Write([]byte("two")))
	require.True(t, writer.Close())

	file := buf.Bytes()
	secondBlock := legacyBlockHeaderSize + 3
	copy(file[secondBlock:], binfmt.MagicPacked[:])

	reader := NewReader(bytes.NewReader(file), ReaderOpts{})
	require.True(t, reader.Scan())
	assert.False(t, reader.Scan())
	require.Error(t, reader.Err())
	assert.IsType(t, BadMagicError{}, reader.Err())
}

func TestOversizedRecordRejected(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(&buf, WriterOpts{})
	require.True(t, writer.Write([]byte("x")))
	require.True(t, writer.Close())

	file := buf.Bytes()
	binary.LittleEndian.PutUint64(file[8:16], MaxReadRecordSize+1)
	checksum := binfmt.Crc32(file[8:16])
	binary.LittleEndian.PutUint32(file[16:20], checksum)

	reader := NewReader(bytes.NewReader(file), ReaderOpts{})
	assert.False(t, reader.Scan())
	require.Error(t, reader.Err())
	assert.IsType(t, InvalidSizeError{}, reader.Err())
}

func TestSeekUnsupportedOnLegacy(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(&buf, WriterOpts{Packed: true})
	writeRecords(t, writer, 4)

	reader := NewReader(bytes.NewReader(buf.Bytes()), ReaderOpts{})
	reader.Seek(ItemLocation{Block: 0, Item: 0})
	assert.False(t, reader.Scan())
	require.Error(t, reader.Err())
	assert.IsType(t, SeekUnsupportedError{}, reader.Err())
}

func TestLegacyIndexedReads(t *testing.T) {
	var buf bytes.Buffer
	var offsets []int64
	writer := NewWriter(&buf, WriterOpts{
		Packed:         true,
		MaxPackedItems: 3,
		Index: func(blockOffset int64) error {
			offsets = append(offsets, blockOffset)
			return nil
		},
	})
	const total = 128
	writeRecords(t, writer, total)
	require.NotEmpty(t, offsets)

	// Position the source at an indexed block offset and open a fresh
	// reader there; it picks up mid-file because every packed block is
	// self-framed.
	file := buf.Bytes()
	for block := 0; block < len(offsets); block += 5 {
		source := bytes.NewReader(file)
		_, err := source.Seek(offsets[block], io.SeekStart)
		require.NoError(t, err)
		reader := NewReader(source, ReaderOpts{})
		record := block * 3
		for i := 0; i < 10 && record < total; i++ {
			require.True(t, reader.Scan(), "block %v record %v: %v", block, record, reader.Err())
			assert.Equal(t, testRecord(record), reader.Get())
			record++
		}
		require.NoError(t, reader.Err())
	}
}

func TestIndexerFailureIsSticky(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(&buf, WriterOpts{
		Index: func(blockOffset int64) error {
			return errors.New("index store unavailable")
		},
	})
	assert.False(t, writer.Write([]byte("record")))
	require.Error(t, writer.Err())
	assert.IsType(t, IndexerFailureError{}, writer.Err())
	assert.False(t, writer.Write([]byte("record")))
}

func TestReadMissingFile(t *testing.T) {
	reader := NewReaderPath(filepath.Join(t.TempDir(), "nonexistent.grail-rio"))
	assert.False(t, reader.Scan())
	require.Error(t, reader.Err())
	assert.True(t, strings.Contains(reader.Err().Error(), "no such file"))
}

func TestTruncatedFileTail(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(&buf, WriterOpts{})
	require.True(t, writer.Write([]byte("0123456789")))
	require.True(t, writer.Close())

	reader := NewReader(bytes.NewReader(buf.Bytes()[:buf.Len()-3]), ReaderOpts{})
	assert.False(t, reader.Scan())
	require.Error(t, reader.Err())
	assert.IsType(t, UnexpectedEofError{}, reader.Err())
}
