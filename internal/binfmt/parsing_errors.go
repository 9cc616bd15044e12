package binfmt

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/wal-g/tracelog"
)

type TruncatedError struct {
	error
}

func NewTruncatedError(what string, bytes int, remaining int) TruncatedError {
	return TruncatedError{
		errors.Errorf("truncated input: need %v bytes for %v, %v remaining",
			bytes,
			what,
			remaining)}
}

func (err TruncatedError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}

type InvalidVarintError struct {
	error
}

func NewInvalidVarintError() InvalidVarintError {
	return InvalidVarintError{errors.New("varint overflows 64 bits")}
}

func (err InvalidVarintError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}

type InvalidValueTypeError struct {
	error
}

func NewInvalidValueTypeError(tag byte) InvalidValueTypeError {
	return InvalidValueTypeError{errors.Errorf("invalid value type tag: %v", tag)}
}

func (err InvalidValueTypeError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}
