package chunkio

import (
	"io"

	"github.com/pkg/errors"
	"github.com/wal-g/recordio/internal/binfmt"
)

// Writer splits logical blocks into chunk runs. A single scratch buffer
// is reused for every chunk written.
type Writer struct {
	out     io.Writer
	scratch []byte
}

func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out, scratch: make([]byte, ChunkSize)}
}

// WriteBlock writes payload as a run of chunks carrying the given magic.
// An empty payload still produces one chunk, so that every block has a
// presence on disk.
func (writer *Writer) WriteBlock(magic binfmt.Magic, payload []byte) error {
	totalChunks := (len(payload) + MaxChunkPayloadSize - 1) / MaxChunkPayloadSize
	if totalChunks == 0 {
		totalChunks = 1
	}
	for index := 0; index < totalChunks; index++ {
		piece := payload
		if len(piece) > MaxChunkPayloadSize {
			piece = piece[:MaxChunkPayloadSize]
		}
		payload = payload[len(piece):]
		if err := writer.writeChunk(magic, uint32(index), uint32(totalChunks), piece); err != nil {
			return err
		}
	}
	return nil
}

func (writer *Writer) writeChunk(magic binfmt.Magic, index, total uint32, piece []byte) error {
	buf := writer.scratch[:0]
	buf = append(buf, magic[:]...)
	buf = binfmt.AppendLEUint32(buf, 0) // checksum, patched below
	buf = binfmt.AppendLEUint32(buf, 0) // flag, reserved
	buf = binfmt.AppendLEUint32(buf, uint32(len(piece)))
	buf = binfmt.AppendLEUint32(buf, total)
	buf = binfmt.AppendLEUint32(buf, index)
	buf = append(buf, piece...)
	checksum := binfmt.Crc32(buf[crcRangeOffset:])
	binfmt.PutLEUint32(buf, binfmt.NumMagicBytes, checksum)
	for len(buf) < ChunkSize {
		buf = append(buf, 0)
	}
	_, err := writer.out.Write(buf)
	return errors.Wrap(err, "failed to write chunk")
}
