package fields

import (
	"errors"
	"fmt"
)

// Kind classifies why a required field could not be extracted.
type Kind string

const (
	KindMissingKey          Kind = "missing_key"
	KindNullValue           Kind = "null_value"
	KindTypeCoercionFailure Kind = "type_coercion_failure"
)

// Sentinels matched by ExtractionError.Is.
var (
	ErrMissingKey          = errors.New("missing key")
	ErrNullValue           = errors.New("null value")
	ErrTypeCoercionFailure = errors.New("type coercion failure")
)

// ExtractionError is returned by the Require* accessors.
type ExtractionError struct {
	Key          string
	ExpectedType string
	KeyExisted   bool
	Reason       Kind
	Err          error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %q: %s (expected %s, key existed: %t)",
		e.Key, e.sentinel().Error(), e.ExpectedType, e.KeyExisted)
}

// Kind reports the classification string used by transport layers.
func (e *ExtractionError) Kind() string { return string(e.Reason) }

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Is(target error) bool {
	return target == e.sentinel()
}

func (e *ExtractionError) sentinel() error {
	switch e.Reason {
	case KindMissingKey:
		return ErrMissingKey
	case KindNullValue:
		return ErrNullValue
	default:
		return ErrTypeCoercionFailure
	}
}

func missingKey(key, typ string) *ExtractionError {
	return &ExtractionError{Key: key, ExpectedType: typ, KeyExisted: false, Reason: KindMissingKey}
}

func nullValue(key string) *ExtractionError {
	return &ExtractionError{Key: key, ExpectedType: TypeObject, KeyExisted: true, Reason: KindNullValue}
}

func coercionFailure(key, typ string, err error) *ExtractionError {
	return &ExtractionError{Key: key, ExpectedType: typ, KeyExisted: true, Reason: KindTypeCoercionFailure, Err: err}
}
