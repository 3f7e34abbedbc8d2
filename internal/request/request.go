// Package request assembles typed payment requests from a caller's untyped
// parameter map.
package request

import (
	"github.com/shopspring/decimal"

	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/items"
)

// Input keys understood by Build.
const (
	KeySandbox          = "sandbox"
	KeyMerchantID       = "merchant_id"
	KeyNotifyURL        = "notify_url"
	KeyOrderID          = "order_id"
	KeyItems            = "items"
	KeyAmount           = "amount"
	KeyCurrency         = "currency"
	KeyFirstName        = "first_name"
	KeyLastName         = "last_name"
	KeyEmail            = "email"
	KeyPhone            = "phone"
	KeyAddress          = "address"
	KeyCity             = "city"
	KeyCountry          = "country"
	KeyDeliveryAddress  = "delivery_address"
	KeyDeliveryCity     = "delivery_city"
	KeyDeliveryCountry  = "delivery_country"
	KeyCustom1          = "custom_1"
	KeyCustom2          = "custom_2"
	KeyRecurrence       = "recurrence"
	KeyDuration         = "duration"
	KeyStartupFee       = "startup_fee"
	KeyPreapprove       = "preapprove"
	KeyAuthorize        = "authorize"
)

// Variant is the shape of a payment request.
type Variant int

const (
	OneTime Variant = iota
	Recurring
	Preapproval
	Authorization
)

func (v Variant) String() string {
	switch v {
	case OneTime:
		return "one_time"
	case Recurring:
		return "recurring"
	case Preapproval:
		return "preapproval"
	case Authorization:
		return "authorization"
	default:
		return "unknown"
	}
}

// Environment selects the backend a request is launched against.
type Environment string

const (
	Sandbox Environment = "sandbox"
	Live    Environment = "live"
)

type Address struct {
	Line    string `json:"address"`
	City    string `json:"city"`
	Country string `json:"country"`
}

type Customer struct {
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone"`
	BillingAddress  Address `json:"billing_address"`
	DeliveryAddress Address `json:"delivery_address"`
}

// RecurringTerms holds the fields only a Recurring request carries.
type RecurringTerms struct {
	Recurrence string           `json:"recurrence"`
	Duration   string           `json:"duration"`
	StartupFee *decimal.Decimal `json:"startup_fee,omitempty"`
}

// PaymentRequest is a fully populated request ready for launch. Recurring is
// set only for the Recurring variant and HoldOnCapture only for Authorization.
type PaymentRequest struct {
	Variant          Variant          `json:"-"`
	MerchantID       string           `json:"merchant_id"`
	NotifyURL        string           `json:"notify_url"`
	Currency         string           `json:"currency"`
	OrderID          string           `json:"order_id"`
	ItemsDescription string           `json:"items"`
	Amount           decimal.Decimal  `json:"amount"`
	Custom1          *string          `json:"custom_1,omitempty"`
	Custom2          *string          `json:"custom_2,omitempty"`
	Customer         Customer         `json:"customer"`
	Items            []items.LineItem `json:"line_items"`
	Recurring        *RecurringTerms  `json:"recurring,omitempty"`
	HoldOnCapture    bool             `json:"hold_on_capture"`
	Sandbox          bool             `json:"-"`
}

// Environment reports which backend the request targets.
func (r *PaymentRequest) Environment() Environment {
	if r.Sandbox {
		return Sandbox
	}
	return Live
}
