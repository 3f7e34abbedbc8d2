package request

import (
	"errors"
	"fmt"

	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/fields"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/items"
)

// SelectVariant picks the request shape from flags alone, in fixed priority:
// preapprove, then authorize, then recurrence+duration, then one-time.
func SelectVariant(m fields.InputMap) Variant {
	switch {
	case fields.Flag(m, KeyPreapprove):
		return Preapproval
	case fields.Flag(m, KeyAuthorize):
		return Authorization
	case fields.Present(m, KeyRecurrence) && fields.Present(m, KeyDuration):
		return Recurring
	default:
		return OneTime
	}
}

// Build validates m and returns the request for its variant. Any extraction
// or item error aborts the build; no partially populated request is returned.
func Build(m fields.InputMap) (*PaymentRequest, error) {
	v := SelectVariant(m)
	req, err := build(m, v)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", v, err)
	}
	return req, nil
}

func build(m fields.InputMap, v Variant) (*PaymentRequest, error) {
	// items first so index errors surface before field errors
	lineItems, err := items.Collate(m)
	if err != nil {
		return nil, err
	}

	req := &PaymentRequest{Variant: v, Items: lineItems}

	required := []struct {
		key string
		dst *string
	}{
		{KeyMerchantID, &req.MerchantID},
		{KeyNotifyURL, &req.NotifyURL},
		{KeyCurrency, &req.Currency},
		{KeyOrderID, &req.OrderID},
		{KeyItems, &req.ItemsDescription},
	}
	for _, f := range required {
		if *f.dst, err = fields.RequireString(m, f.key); err != nil {
			return nil, err
		}
	}

	if req.Amount, err = fields.RequireAmount(m, KeyAmount, v == Preapproval); err != nil {
		return nil, err
	}

	if v == Recurring {
		terms := &RecurringTerms{}
		if terms.Recurrence, err = fields.RequireString(m, KeyRecurrence); err != nil {
			return nil, err
		}
		if terms.Duration, err = fields.RequireString(m, KeyDuration); err != nil {
			return nil, err
		}
		if fee, ok := fields.OptionalAmount(m, KeyStartupFee); ok {
			terms.StartupFee = &fee
		}
		req.Recurring = terms
	}

	if s, ok := fields.OptionalString(m, KeyCustom1); ok {
		req.Custom1 = &s
	}
	if s, ok := fields.OptionalString(m, KeyCustom2); ok {
		req.Custom2 = &s
	}

	if req.Customer, err = buildCustomer(m); err != nil {
		return nil, err
	}

	req.HoldOnCapture = v == Authorization

	if req.Sandbox, err = fields.RequireBoolean(m, KeySandbox); err != nil {
		return nil, err
	}
	return req, nil
}

func buildCustomer(m fields.InputMap) (Customer, error) {
	var c Customer
	required := []struct {
		key string
		dst *string
	}{
		{KeyFirstName, &c.FirstName},
		{KeyLastName, &c.LastName},
		{KeyEmail, &c.Email},
		{KeyPhone, &c.Phone},
		{KeyAddress, &c.BillingAddress.Line},
		{KeyCity, &c.BillingAddress.City},
		{KeyCountry, &c.BillingAddress.Country},
	}
	for _, f := range required {
		s, err := fields.RequireString(m, f.key)
		if err != nil {
			return Customer{}, err
		}
		*f.dst = s
	}

	// a partial delivery address is fine; unset parts keep their zero value
	optional := []struct {
		key string
		dst *string
	}{
		{KeyDeliveryAddress, &c.DeliveryAddress.Line},
		{KeyDeliveryCity, &c.DeliveryAddress.City},
		{KeyDeliveryCountry, &c.DeliveryAddress.Country},
	}
	for _, f := range optional {
		if s, ok := fields.OptionalString(m, f.key); ok {
			*f.dst = s
		}
	}
	return c, nil
}

// Diagnostic renders a build failure as the single message delivered to the
// caller. Extraction and item errors render without the build prefix.
func Diagnostic(err error) string {
	if err == nil {
		return ""
	}
	var ee *fields.ExtractionError
	if errors.As(err, &ee) {
		return ee.Error()
	}
	var ipe *items.ItemProcessingError
	if errors.As(err, &ipe) {
		return ipe.Error()
	}
	return err.Error()
}
