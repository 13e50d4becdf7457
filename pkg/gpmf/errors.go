package gpmf

import (
	"errors"
	"fmt"
)

// Decode failure taxonomy. Every failure surfaced by this package wraps
// exactly one of these sentinels, so callers can classify with errors.Is.
var (
	// ErrInsufficientData means the buffer ran out before a requested read
	// completed.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrFormatMismatch means the element type tag or element size does not
	// match the fixed expectation for the dispatched type key.
	ErrFormatMismatch = errors.New("format mismatch")

	// ErrInvalidText means a text payload is not valid UTF-8.
	ErrInvalidText = errors.New("invalid text")

	// ErrTrailingData means a grouping record's nested sub-buffer was not
	// fully consumed by its children.
	ErrTrailingData = errors.New("trailing data")

	// ErrUnknownBlockType means the type key has no table entry and its tag
	// is not the custom marker.
	ErrUnknownBlockType = errors.New("unknown block type")
)

// DecodeError is the error type returned by Decode. It wraps one of the
// sentinel errors above and records where the decode failed.
type DecodeError struct {
	Key    Key    // record key being decoded, zero if the header itself failed
	Offset int    // byte offset into the buffer handed to Decode
	Err    error  // wraps one of the sentinels
	Detail string // human-readable expectation vs. reality
}

func (e *DecodeError) Error() string {
	if e.Key == (Key{}) {
		return fmt.Sprintf("gpmf: offset %d: %s: %v", e.Offset, e.Detail, e.Err)
	}
	return fmt.Sprintf("gpmf: record %s at offset %d: %s: %v", e.Key, e.Offset, e.Detail, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// decodeErr builds a DecodeError for a record-scoped failure. If err already
// is a DecodeError (from a nested decode or a cursor read) it is returned
// untouched so the innermost location wins; only a missing key is filled in.
func decodeErr(key Key, offset int, err error, format string, args ...any) error {
	var de *DecodeError
	if errors.As(err, &de) {
		if de.Key == (Key{}) {
			de.Key = key
		}
		return err
	}
	return &DecodeError{
		Key:    key,
		Offset: offset,
		Err:    err,
		Detail: fmt.Sprintf(format, args...),
	}
}
