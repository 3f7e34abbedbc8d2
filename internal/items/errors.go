package items

import (
	"errors"
	"fmt"
)

// Kind classifies a violation of the index-suffix key convention.
type Kind string

const (
	KindEmptyKey        Kind = "empty_key"
	KindMissingIndex    Kind = "missing_index"
	KindUnparsableIndex Kind = "unparsable_index"
)

var (
	ErrEmptyKey        = errors.New("empty key")
	ErrMissingIndex    = errors.New("missing index")
	ErrUnparsableIndex = errors.New("unparsable index")
)

// ItemProcessingError reports a line item key whose index could not be read.
type ItemProcessingError struct {
	Key    string
	Value  string // the trailing component that failed to parse
	Reason Kind
}

func (e *ItemProcessingError) Error() string {
	switch e.Reason {
	case KindEmptyKey:
		return fmt.Sprintf("empty key encountered (key %q, size %d)", e.Key, len(e.Key))
	case KindMissingIndex:
		return fmt.Sprintf("no number at the end of key %q, expected for example 'some_key_1'", e.Key)
	default:
		return fmt.Sprintf("could not parse %q at the end of key %q to a number, expected for example 'some_key_1'", e.Value, e.Key)
	}
}

func (e *ItemProcessingError) Kind() string { return string(e.Reason) }

func (e *ItemProcessingError) Is(target error) bool {
	switch e.Reason {
	case KindEmptyKey:
		return target == ErrEmptyKey
	case KindMissingIndex:
		return target == ErrMissingIndex
	default:
		return target == ErrUnparsableIndex
	}
}
