package outcome

import (
	"fmt"
	"regexp"
	"strconv"
)

// Diagnostic messages produced by the classifier.
const (
	MsgUnmappedSuccess = "Internal Error. Could not map success response."
	MsgNetwork         = "Network Error"
	MsgValidation      = "Parameter Validation Error"
	MsgDataAbsent      = "Intent Data not Present"
	MsgUnknown         = "Unknown Error Occurred."
	MsgNullPayload     = "Unknown Error Occurred. Payment response was null."
	MsgNullResponse    = "Unknown Error Occurred, response was null"
	MsgUnknownCallback = "Unknown callback"
)

// LaunchFailed is the outcome of a request whose launch collaborator failed.
func LaunchFailed(err error) Outcome {
	return Error(fmt.Sprintf("Could not launch payment: %v", err))
}

// Signal is the single completion signal for a launched request. Present is
// false when the payment screen returned no data at all.
type Signal struct {
	Present  bool
	Code     ResultCode
	Response *Response
}

// Classify resolves s to its outcome. It never fails.
func (s Signal) Classify() Outcome {
	if !s.Present {
		return Dismissed()
	}
	return Classify(s.Code, s.Response)
}

// Classify maps a result code and optional response to an outcome. It is a
// pure function of its inputs.
func Classify(code ResultCode, resp *Response) Outcome {
	switch code {
	case ResultOK:
		return classifyOK(resp)
	case ResultCanceled:
		return classifyCanceled(resp)
	default:
		return Dismissed()
	}
}

func classifyOK(resp *Response) Outcome {
	if resp == nil {
		return Dismissed()
	}
	if resp.Data == nil {
		if resp.Success {
			return Error(MsgUnmappedSuccess)
		}
		return diagnose(resp)
	}
	switch resp.Data.Status {
	case PaymentSuccess, PaymentHold:
		return Complete(strconv.FormatInt(resp.Data.PaymentNo, 10))
	default:
		return diagnose(resp)
	}
}

func classifyCanceled(resp *Response) Outcome {
	if resp == nil {
		return Dismissed()
	}
	switch resp.Status {
	case StatusErrorCanceled:
		return Dismissed()
	case StatusErrorNetwork:
		return Error(MsgNetwork)
	case StatusErrorValidation:
		return Error(MsgValidation)
	case StatusErrorData:
		return Error(MsgDataAbsent)
	default:
		return diagnose(resp)
	}
}

// diagnose recovers the most specific message available for a failed
// response: the structured message, then the message embedded in the
// processor's own text rendering, then the payload's message.
func diagnose(resp *Response) Outcome {
	if resp == nil {
		return Error(MsgNullResponse)
	}
	if resp.Message != "" {
		return Error(resp.Message)
	}
	if resp.Raw != "" {
		if msg, ok := scrapeMessage(resp.Raw); ok {
			return Error(msg)
		}
	}
	if resp.Data == nil {
		return Error(MsgNullPayload)
	}
	if resp.Data.Message == nil {
		return Error(MsgUnknown)
	}
	return Error(*resp.Data.Message)
}

// messagePattern matches the message fragment of the processor's text
// rendering, e.g. PHResponse{status=-4, message='Card declined', data=null}.
var messagePattern = regexp.MustCompile(`message='(.+?)',`)

// scrapeMessage is the fallback for responses whose only message lives in
// their text rendering.
func scrapeMessage(rendered string) (string, bool) {
	m := messagePattern.FindStringSubmatch(rendered)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}
