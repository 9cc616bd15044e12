package chunkio

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/wal-g/tracelog"
)

type UnexpectedEofError struct {
	error
}

func NewUnexpectedEofError(got int) UnexpectedEofError {
	return UnexpectedEofError{
		errors.Errorf("failed to read chunk, got %v bytes, expect %v bytes", got, ChunkSize)}
}

func (err UnexpectedEofError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}

type MagicChangedError struct {
	error
}

func NewMagicChangedError(got, expected string) MagicChangedError {
	return MagicChangedError{
		errors.Errorf("magic number changed in the middle of a chunk sequence, got %v expect %v",
			got,
			expected)}
}

func (err MagicChangedError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}

type IndexMismatchError struct {
	error
}

func NewIndexMismatchError(got, expected uint32) IndexMismatchError {
	return IndexMismatchError{
		errors.Errorf("wrong chunk index %v, expect %v", got, expected)}
}

func (err IndexMismatchError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}

type TotalMismatchError struct {
	error
}

func NewTotalMismatchError(got, expected uint32) TotalMismatchError {
	return TotalMismatchError{
		errors.Errorf("wrong total chunk count %v, expect %v", got, expected)}
}

func (err TotalMismatchError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}

type InvalidSizeError struct {
	error
}

func NewInvalidSizeError(size uint32) InvalidSizeError {
	return InvalidSizeError{
		errors.Errorf("invalid chunk payload size %v, max %v", size, MaxChunkPayloadSize)}
}

func (err InvalidSizeError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}

type ChecksumMismatchError struct {
	error
}

func NewChecksumMismatchError(expected, actual uint32) ChecksumMismatchError {
	return ChecksumMismatchError{
		errors.Errorf("chunk checksum mismatch, expect %v got %v", expected, actual)}
}

func (err ChecksumMismatchError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}

type BadTrailerMagicError struct {
	error
}

func NewBadTrailerMagicError(got string) BadTrailerMagicError {
	return BadTrailerMagicError{
		errors.Errorf("wrong magic for the trailer block: %v", got)}
}

func (err BadTrailerMagicError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}
