package request

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/fields"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/items"
)

func baseInput() fields.InputMap {
	return fields.InputMap{
		"sandbox":     true,
		"merchant_id": "1210000",
		"notify_url":  "https://example.com/notify",
		"order_id":    "ORD-1",
		"items":       "Door bell",
		"amount":      "100.00",
		"currency":    "LKR",
		"first_name":  "Saman",
		"last_name":   "Perera",
		"email":       "saman@example.com",
		"phone":       "0771234567",
		"address":     "No.1, Galle Road",
		"city":        "Colombo",
		"country":     "Sri Lanka",
	}
}

func with(m fields.InputMap, kv ...any) fields.InputMap {
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i].(string)] = kv[i+1]
	}
	return m
}

func TestBuild_OneTime(t *testing.T) {
	req, err := Build(baseInput())
	require.NoError(t, err)

	assert.Equal(t, OneTime, req.Variant)
	assert.Equal(t, "1210000", req.MerchantID)
	assert.Equal(t, "https://example.com/notify", req.NotifyURL)
	assert.Equal(t, "LKR", req.Currency)
	assert.Equal(t, "ORD-1", req.OrderID)
	assert.Equal(t, "Door bell", req.ItemsDescription)
	assert.True(t, decimal.RequireFromString("100").Equal(req.Amount))
	assert.Equal(t, "Saman", req.Customer.FirstName)
	assert.Equal(t, "Colombo", req.Customer.BillingAddress.City)
	assert.Nil(t, req.Custom1)
	assert.Nil(t, req.Recurring)
	assert.False(t, req.HoldOnCapture)
	assert.Empty(t, req.Items)
	assert.True(t, req.Sandbox)
	assert.Equal(t, Sandbox, req.Environment())
}

func TestBuild_VariantSelection(t *testing.T) {
	tests := []struct {
		name string
		kv   []any
		want Variant
	}{
		{name: "one time", want: OneTime},
		{name: "recurring", kv: []any{"recurrence", "1 Month", "duration", "1 Year"}, want: Recurring},
		{name: "recurrence only", kv: []any{"recurrence", "1 Month"}, want: OneTime},
		{name: "null duration", kv: []any{"recurrence", "1 Month", "duration", nil}, want: OneTime},
		{name: "preapprove", kv: []any{"preapprove", true}, want: Preapproval},
		{name: "preapprove beats recurring", kv: []any{"preapprove", true, "recurrence", "1 Month", "duration", "1 Year"}, want: Preapproval},
		{name: "preapprove beats authorize", kv: []any{"preapprove", true, "authorize", true}, want: Preapproval},
		{name: "authorize beats recurring", kv: []any{"authorize", true, "recurrence", "1 Month", "duration", "1 Year"}, want: Authorization},
		{name: "preapprove false", kv: []any{"preapprove", false}, want: OneTime},
		{name: "authorize as string", kv: []any{"authorize", "TRUE"}, want: Authorization},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := with(baseInput(), tt.kv...)
			assert.Equal(t, tt.want, SelectVariant(m))

			req, err := Build(m)
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.Variant)
		})
	}
}

func TestBuild_MissingMerchantIDFailsForEveryVariant(t *testing.T) {
	tests := []struct {
		name string
		kv   []any
		want Variant
	}{
		{name: "one time", want: OneTime},
		{name: "authorization", kv: []any{"authorize", true}, want: Authorization},
		{name: "preapproval", kv: []any{"preapprove", true}, want: Preapproval},
		{name: "recurring", kv: []any{"recurrence", "1 Month", "duration", "1 Year"}, want: Recurring},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := with(baseInput(), tt.kv...)
			delete(m, "merchant_id")
			require.Equal(t, tt.want, SelectVariant(m))

			req, err := Build(m)
			assert.Nil(t, req)

			var ee *fields.ExtractionError
			require.True(t, errors.As(err, &ee), "got %v", err)
			assert.Equal(t, "merchant_id", ee.Key)
			assert.False(t, ee.KeyExisted)
			assert.Equal(t, fields.KindMissingKey, ee.Reason)
		})
	}
}

func TestBuild_Recurring(t *testing.T) {
	m := with(baseInput(), "recurrence", "1 Month", "duration", "1 Year", "startup_fee", "25.50")

	req, err := Build(m)
	require.NoError(t, err)
	require.NotNil(t, req.Recurring)
	assert.Equal(t, "1 Month", req.Recurring.Recurrence)
	assert.Equal(t, "1 Year", req.Recurring.Duration)
	require.NotNil(t, req.Recurring.StartupFee)
	assert.True(t, decimal.RequireFromString("25.5").Equal(*req.Recurring.StartupFee))
}

func TestBuild_RecurringWithoutStartupFee(t *testing.T) {
	m := with(baseInput(), "recurrence", "1 Month", "duration", "Forever", "startup_fee", "n/a")

	req, err := Build(m)
	require.NoError(t, err)
	require.NotNil(t, req.Recurring)
	assert.Nil(t, req.Recurring.StartupFee)
}

func TestBuild_PreapprovalAmountDefaultsToZero(t *testing.T) {
	for _, amount := range []any{nil, "", "   "} {
		m := with(baseInput(), "preapprove", true, "amount", amount)
		req, err := Build(m)
		require.NoError(t, err)
		assert.True(t, req.Amount.IsZero())
	}

	m := baseInput()
	delete(m, "amount")
	m["preapprove"] = true
	req, err := Build(m)
	require.NoError(t, err)
	assert.True(t, req.Amount.IsZero())
}

func TestBuild_PreapprovalRejectsGarbageAmount(t *testing.T) {
	_, err := Build(with(baseInput(), "preapprove", true, "amount", "abc"))
	assert.ErrorIs(t, err, fields.ErrTypeCoercionFailure)
}

func TestBuild_MissingAmountOutsidePreapproval(t *testing.T) {
	m := baseInput()
	delete(m, "amount")

	_, err := Build(m)
	require.ErrorIs(t, err, fields.ErrMissingKey)
	var ee *fields.ExtractionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "amount", ee.Key)
	assert.False(t, ee.KeyExisted)
}

func TestBuild_Authorization(t *testing.T) {
	req, err := Build(with(baseInput(), "authorize", true))
	require.NoError(t, err)
	assert.True(t, req.HoldOnCapture)
	assert.Nil(t, req.Recurring)
}

func TestBuild_CustomFields(t *testing.T) {
	req, err := Build(with(baseInput(), "custom_1", "alpha", "custom_2", nil))
	require.NoError(t, err)
	require.NotNil(t, req.Custom1)
	assert.Equal(t, "alpha", *req.Custom1)
	assert.Nil(t, req.Custom2)
}

func TestBuild_PartialDeliveryAddress(t *testing.T) {
	req, err := Build(with(baseInput(), "delivery_city", "Kandy"))
	require.NoError(t, err)
	assert.Equal(t, "Kandy", req.Customer.DeliveryAddress.City)
	assert.Equal(t, "", req.Customer.DeliveryAddress.Line)
	assert.Equal(t, "", req.Customer.DeliveryAddress.Country)
}

func TestBuild_SandboxIsLenient(t *testing.T) {
	tests := []struct {
		value any
		want  Environment
	}{
		{value: "true", want: Sandbox},
		{value: "True", want: Sandbox},
		{value: false, want: Live},
		{value: "yes", want: Live},
		{value: "1", want: Live},
	}
	for _, tt := range tests {
		req, err := Build(with(baseInput(), "sandbox", tt.value))
		require.NoError(t, err)
		assert.Equal(t, tt.want, req.Environment(), "sandbox=%v", tt.value)
	}
}

func TestBuild_SandboxRequired(t *testing.T) {
	m := baseInput()
	delete(m, "sandbox")

	_, err := Build(m)
	require.ErrorIs(t, err, fields.ErrMissingKey)
	assert.Equal(t, `extract "sandbox": missing key (expected String, key existed: false)`, Diagnostic(err))
}

func TestBuild_NullRequiredField(t *testing.T) {
	_, err := Build(with(baseInput(), "email", nil))
	require.ErrorIs(t, err, fields.ErrNullValue)

	var ee *fields.ExtractionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "email", ee.Key)
	assert.True(t, ee.KeyExisted)
	assert.Equal(t, fields.TypeObject, ee.ExpectedType)
}

func TestBuild_ItemsCollectedBeforeFields(t *testing.T) {
	m := with(baseInput(), "item_amount_x", "1.00")
	delete(m, "merchant_id")

	req, err := Build(m)
	assert.Nil(t, req)
	require.ErrorIs(t, err, items.ErrUnparsableIndex)
	assert.Contains(t, Diagnostic(err), `"x"`)
}

func TestBuild_WithLineItems(t *testing.T) {
	m := with(baseInput(),
		"item_number_1", "SKU1",
		"item_name_1", "Widget",
		"quantity_1", 2.0,
		"amount_1", 9.99,
	)

	req, err := Build(m)
	require.NoError(t, err)
	require.Len(t, req.Items, 1)
	assert.Equal(t, "SKU1", *req.Items[0].ID)
	assert.Equal(t, 2, *req.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("9.99").Equal(*req.Items[0].Amount))
}

func TestDiagnostic(t *testing.T) {
	assert.Equal(t, "", Diagnostic(nil))

	_, err := Build(with(baseInput(), "currency", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build one_time request")
	assert.NotContains(t, Diagnostic(err), "build one_time request")
	assert.Equal(t, `extract "currency": null value (expected Object, key existed: true)`, Diagnostic(err))
}
