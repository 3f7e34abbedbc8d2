// Package outcome classifies the completion signal of an external payment
// flow into a terminal Complete, Dismissed or Error outcome.
package outcome

import "fmt"

// Kind is the closed set of terminal outcomes.
type Kind int

const (
	KindDismissed Kind = iota
	KindComplete
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindComplete:
		return "complete"
	case KindError:
		return "error"
	default:
		return "dismissed"
	}
}

// Outcome is the terminal result of one payment attempt. PaymentReference is
// set only for Complete and Message only for Error. Outcomes are comparable.
type Outcome struct {
	Kind             Kind
	PaymentReference string
	Message          string
}

func Complete(paymentReference string) Outcome {
	return Outcome{Kind: KindComplete, PaymentReference: paymentReference}
}

func Dismissed() Outcome { return Outcome{Kind: KindDismissed} }

func Error(message string) Outcome {
	return Outcome{Kind: KindError, Message: message}
}

func (o Outcome) String() string {
	switch o.Kind {
	case KindComplete:
		return fmt.Sprintf("Complete(%s)", o.PaymentReference)
	case KindError:
		return fmt.Sprintf("Error(%s)", o.Message)
	default:
		return "Dismissed"
	}
}
