package outcome

// Callback types carried in a Result.
const (
	CallbackComplete = "complete"
	CallbackDismiss  = "dismiss"
	CallbackError    = "error"
)

// Result is the record delivered to the caller. Data carries the payment
// reference for complete, the message for error, and is absent for dismiss.
type Result struct {
	Success      bool    `json:"success"`
	CallbackType string  `json:"callbackType"`
	Data         *string `json:"data,omitempty"`
}

// Result converts o to its caller-facing record.
func (o Outcome) Result() Result {
	switch o.Kind {
	case KindComplete:
		ref := o.PaymentReference
		return Result{Success: true, CallbackType: CallbackComplete, Data: &ref}
	case KindError:
		msg := o.Message
		return Result{Success: false, CallbackType: CallbackError, Data: &msg}
	default:
		return Result{Success: false, CallbackType: CallbackDismiss}
	}
}

// Outcome converts a delivered record back. A successful record is always
// Complete; otherwise unrecognised callback types become an Error outcome.
func (r Result) Outcome() Outcome {
	data := ""
	if r.Data != nil {
		data = *r.Data
	}
	if r.Success {
		return Complete(data)
	}
	switch r.CallbackType {
	case CallbackDismiss:
		return Dismissed()
	case CallbackError:
		return Error(data)
	default:
		return Error(MsgUnknownCallback)
	}
}
