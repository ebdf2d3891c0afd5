// Package fault defines the fatal error kinds that abort a tagging run.
//
// Malformed input lines are not faults: they are reported through
// internal/diag and processing continues.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a fatal error.
type Kind int

const (
	// Unknown is returned by KindOf for errors not produced by this package.
	Unknown Kind = iota
	// MissingSource means an input could not be opened.
	MissingSource
	// EmptyResult means an input was read completely without a single valid entry.
	EmptyResult
	// WriteFailure means the report destination could not be written.
	WriteFailure
)

func (k Kind) String() string {
	switch k {
	case MissingSource:
		return "missing source"
	case EmptyResult:
		return "empty result"
	case WriteFailure:
		return "write failure"
	default:
		return "unknown"
	}
}

var (
	ErrMissingSource = errors.New("source cannot be opened")
	ErrEmptyResult   = errors.New("no valid entries")
	ErrWriteFailure  = errors.New("report cannot be written")
)

func (k Kind) sentinel() error {
	switch k {
	case MissingSource:
		return ErrMissingSource
	case EmptyResult:
		return ErrEmptyResult
	case WriteFailure:
		return ErrWriteFailure
	default:
		return nil
	}
}

// Error is a fatal error tied to one named source or destination.
type Error struct {
	Kind Kind
	// Source names the input or output, e.g. "lookup table" or a file path.
	Source string
	Err    error
}

func (e *Error) Error() string {
	cause := e.Err
	if cause == nil {
		cause = e.Kind.sentinel()
	}
	if cause == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Source)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Source, cause)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrEmptyResult) and friends match by kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

func New(kind Kind, source string, err error) *Error {
	return &Error{Kind: kind, Source: source, Err: err}
}

func Missing(source string, err error) error { return New(MissingSource, source, err) }

func Empty(source string) error { return New(EmptyResult, source, nil) }

func Write(dest string, err error) error { return New(WriteFailure, dest, err) }

// KindOf reports the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unknown
}
