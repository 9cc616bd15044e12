package recordio

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/wal-g/tracelog"
)

type BadMagicError struct {
	error
}

func NewBadMagicError(got, expected string) BadMagicError {
	return BadMagicError{
		errors.Errorf("wrong block magic: %v, expect %v", got, expected)}
}

func (err BadMagicError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}

type CorruptHeaderError struct {
	error
}

func NewCorruptHeaderError(got, expected int) CorruptHeaderError {
	return CorruptHeaderError{
		errors.Errorf("corrupt block header: read %v bytes, expect %v bytes", got, expected)}
}

func (err CorruptHeaderError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}

type ChecksumMismatchError struct {
	error
}

func NewChecksumMismatchError(what string, expected, actual uint32) ChecksumMismatchError {
	return ChecksumMismatchError{
		errors.Errorf("%v checksum mismatch, expect %v found %v", what, expected, actual)}
}

func (err ChecksumMismatchError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}

type InvalidSizeError struct {
	error
}

func NewInvalidSizeError(what string, size uint64) InvalidSizeError {
	return InvalidSizeError{
		errors.Errorf("invalid %v: %v", what, size)}
}

func (err InvalidSizeError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}

type TrailingJunkError struct {
	error
}

func NewTrailingJunkError() TrailingJunkError {
	return TrailingJunkError{errors.New("junk at the end of block")}
}

func (err TrailingJunkError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}

type SeekUnsupportedError struct {
	error
}

func NewSeekUnsupportedError(reason string) SeekUnsupportedError {
	return SeekUnsupportedError{errors.Errorf("seek not supported: %v", reason)}
}

func (err SeekUnsupportedError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}

type UnsupportedError struct {
	error
}

func NewUnsupportedError(what string) UnsupportedError {
	return UnsupportedError{errors.Errorf("%v not supported", what)}
}

func (err UnsupportedError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}

type ItemTooLargeError struct {
	error
}

func NewItemTooLargeError(size, limit uint64) ItemTooLargeError {
	return ItemTooLargeError{
		errors.Errorf("item size %v exceeds the packed block limit %v", size, limit)}
}

func (err ItemTooLargeError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}

type IndexerFailureError struct {
	error
}

func NewIndexerFailureError(cause error) IndexerFailureError {
	return IndexerFailureError{errors.Wrap(cause, "indexer failed")}
}

func (err IndexerFailureError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}

type UnexpectedEofError struct {
	error
}

func NewUnexpectedEofError(what string, got, expected int) UnexpectedEofError {
	return UnexpectedEofError{
		errors.Errorf("failed to read %v: got %v bytes, expect %v bytes", what, got, expected)}
}

func (err UnexpectedEofError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}

type InvalidHeaderError struct {
	error
}

func NewInvalidHeaderError(what string) InvalidHeaderError {
	return InvalidHeaderError{errors.Errorf("failed to parse header block: %v", what)}
}

func (err InvalidHeaderError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}

type TransformerNotFoundError struct {
	error
}

func NewTransformerNotFoundError(name string) TransformerNotFoundError {
	return TransformerNotFoundError{errors.Errorf("transformer %v not found", name)}
}

func (err TransformerNotFoundError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}
