package outcome

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ResultCode is the coarse result reported by the payment screen.
type ResultCode int

const (
	ResultCanceled ResultCode = 0
	ResultOK       ResultCode = -1
)

func (c ResultCode) String() string {
	switch c {
	case ResultOK:
		return "OK"
	case ResultCanceled:
		return "CANCELED"
	default:
		return strconv.Itoa(int(c))
	}
}

// ParseResultCode accepts "OK", "CANCELED" (any case) or a raw integer code.
func ParseResultCode(s string) (ResultCode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OK":
		return ResultOK, nil
	case "CANCELED", "CANCELLED":
		return ResultCanceled, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse result code %q: %w", s, err)
	}
	return ResultCode(n), nil
}

// Response status codes reported by the processor when the screen closes
// without a completed payment.
const (
	StatusErrorNetwork    = -1
	StatusErrorValidation = -2
	StatusErrorData       = -3
	StatusErrorPayment    = -4
	StatusErrorCanceled   = -5
	StatusErrorUnknown    = -6
)

// Payment status codes carried in StatusResponse.
const (
	PaymentChargedBack = -3
	PaymentFailed      = -2
	PaymentCanceled    = -1
	PaymentPending     = 0
	PaymentSuccess     = 2
	PaymentHold        = 3
)

// StatusResponse is the payment payload attached to a Response.
type StatusResponse struct {
	Status    int     `json:"status"`
	PaymentNo int64   `json:"payment_no"`
	Message   *string `json:"message,omitempty"`
}

func (s *StatusResponse) String() string {
	msg := "null"
	if s.Message != nil {
		msg = "'" + *s.Message + "'"
	}
	return fmt.Sprintf("StatusResponse{status=%d, paymentNo=%d, message=%s}", s.Status, s.PaymentNo, msg)
}

// Response is the processor's structured completion response.
//
// Raw holds the processor's own text rendering when it is available. Some
// failure paths carry their only human-readable message inside it.
type Response struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    *StatusResponse `json:"data,omitempty"`
	Raw     string          `json:"raw,omitempty"`
}

// String returns Raw, or a rendering in the processor's text format.
func (r *Response) String() string {
	if r.Raw != "" {
		return r.Raw
	}
	msg := "null"
	if r.Message != "" {
		msg = "'" + r.Message + "'"
	}
	data := "null"
	if r.Data != nil {
		data = r.Data.String()
	}
	return fmt.Sprintf("PHResponse{status=%d, message=%s, data=%s}", r.Status, msg, data)
}

// UnmarshalJSON accepts a result code as "OK", "CANCELED" or a number.
func (c *ResultCode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		code, err := ParseResultCode(s)
		if err != nil {
			return err
		}
		*c = code
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("result code must be a string or integer: %s", b)
	}
	*c = ResultCode(n)
	return nil
}

// MarshalJSON writes the symbolic name for OK and CANCELED.
func (c ResultCode) MarshalJSON() ([]byte, error) {
	switch c {
	case ResultOK, ResultCanceled:
		return json.Marshal(c.String())
	default:
		return json.Marshal(int(c))
	}
}

// Report is the wire form of a completion signal. A report without a result
// code carries no signal data and classifies as Dismissed.
type Report struct {
	RequestID  string      `json:"request_id,omitempty"`
	ResultCode *ResultCode `json:"result_code"`
	Response   *Response   `json:"response"`
}

// Signal converts r to the signal it describes.
func (r Report) Signal() Signal {
	if r.ResultCode == nil {
		return Signal{}
	}
	return Signal{Present: true, Code: *r.ResultCode, Response: r.Response}
}
