// Package fields provides typed accessors over the untyped parameter map a
// caller hands to the payment bridge.
//
// The map crosses a dynamic-language boundary, so every accessor decides
// explicitly how it treats a key that is absent, a key that is present with a
// nil value, and a value that cannot be coerced. Required accessors fail with
// an *ExtractionError; optional accessors report "no value" through their
// second return instead.
package fields

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// InputMap is the caller-supplied parameter map. A key mapped to nil is not
// the same as a missing key.
type InputMap = map[string]any

// Expected type names reported in ExtractionError.
const (
	TypeString  = "String"
	TypeObject  = "Object"
	TypeInteger = "Integer"
	TypeDouble  = "Double"
)

// Present reports whether key exists with a non-nil value.
func Present(m InputMap, key string) bool {
	v, ok := m[key]
	return ok && v != nil
}

// RequireString returns the string form of m[key].
func RequireString(m InputMap, key string) (string, error) {
	raw, ok := m[key]
	if !ok {
		return "", missingKey(key, TypeString)
	}
	if raw == nil {
		return "", nullValue(key)
	}
	return stringify(raw), nil
}

// OptionalString returns the string form of m[key] and true, or "" and false
// when the key is absent or nil. An empty string value is still a value.
func OptionalString(m InputMap, key string) (string, bool) {
	s, err := RequireString(m, key)
	if err != nil {
		return "", false
	}
	return s, true
}

// RequireInteger parses m[key] as a base-10 int. Parse failures are reported
// against key as a type coercion failure.
func RequireInteger(m InputMap, key string) (int, error) {
	s, err := RequireString(m, key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, coercionFailure(key, TypeInteger, err)
	}
	return n, nil
}

// RequireAmount parses m[key] as a decimal amount.
//
// With allowZeroDefault set, an absent key, a nil value and a value that trims
// to "" all yield zero. A non-blank value that does not parse still fails.
func RequireAmount(m InputMap, key string, allowZeroDefault bool) (decimal.Decimal, error) {
	raw, ok := m[key]
	if allowZeroDefault && (!ok || raw == nil || strings.TrimSpace(stringify(raw)) == "") {
		return decimal.Zero, nil
	}
	s, err := RequireString(m, key)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, coercionFailure(key, TypeDouble, err)
	}
	return d, nil
}

// OptionalAmount returns the parsed amount and true, or zero and false when
// the key is absent, nil or unparsable. It never fails.
func OptionalAmount(m InputMap, key string) (decimal.Decimal, bool) {
	s, ok := OptionalString(m, key)
	if !ok {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// RequireBoolean reads m[key] as a boolean.
//
// Coercion is lenient on purpose: only "true" (any case) is true, and every
// other string, including "yes", "1" and "", is false rather than an error.
// Callers rely on this rule, so it must not be tightened.
func RequireBoolean(m InputMap, key string) (bool, error) {
	s, err := RequireString(m, key)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(s, "true"), nil
}

// Flag reports whether key holds a true boolean. Missing, nil and non-boolean
// values are false; it never fails.
func Flag(m InputMap, key string) bool {
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	default:
		return false
	}
}

// stringify renders a scalar the way it reads on the wire. Floats drop the
// exponent and trailing zeros so 2 renders as "2", not "2e+00".
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case decimal.Decimal:
		return t.String()
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
