// Package ioextensions holds the byte-source and byte-sink helpers used
// by the framing readers and writers.
package ioextensions

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// Tell reports the current position of in.
func Tell(in io.Seeker) (int64, error) {
	offset, err := in.Seek(0, io.SeekCurrent)
	return offset, errors.Wrap(err, "failed to query stream position")
}

// AbsSeek moves in to the given absolute offset.
func AbsSeek(in io.Seeker, offset int64) error {
	newOffset, err := in.Seek(offset, io.SeekStart)
	if err != nil {
		return errors.Wrapf(err, "failed to seek to offset %v", offset)
	}
	if newOffset != offset {
		return errors.Errorf("failed to seek to offset %v, landed on %v", offset, newOffset)
	}
	return nil
}

// CountingWriter wraps a writer and tracks the number of bytes written
// through it. Block offsets reported to the indexer are derived from the
// count, so they are relative to the position of the underlying stream
// at construction time.
type CountingWriter struct {
	underlying io.Writer
	written    int64
}

func NewCountingWriter(underlying io.Writer) *CountingWriter {
	return &CountingWriter{underlying: underlying}
}

func (writer *CountingWriter) Write(p []byte) (int, error) {
	n, err := writer.underlying.Write(p)
	writer.written += int64(n)
	return n, errors.Wrap(err, "write failed")
}

// Written returns the number of bytes written so far.
func (writer *CountingWriter) Written() int64 {
	return writer.written
}

// FileReadSeeker is a seekable byte source backed by an owned file. The
// file is closed by Close; reads after Close fail.
type FileReadSeeker struct {
	file *os.File
}

// OpenFileReadSeeker opens path for reading. The returned source owns the
// descriptor.
func OpenFileReadSeeker(path string) (*FileReadSeeker, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %v", path)
	}
	return &FileReadSeeker{file: file}, nil
}

// NewFileReadSeeker wraps an already-open file, taking ownership of it.
func NewFileReadSeeker(file *os.File) *FileReadSeeker {
	return &FileReadSeeker{file: file}
}

func (source *FileReadSeeker) Read(p []byte) (int, error) {
	return source.file.Read(p)
}

func (source *FileReadSeeker) Seek(offset int64, whence int) (int64, error) {
	return source.file.Seek(offset, whence)
}

func (source *FileReadSeeker) Close() error {
	return errors.Wrap(source.file.Close(), "failed to close file")
}
