package items

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/fields"
)

func TestCollate_SingleCompleteItem(t *testing.T) {
	m := fields.InputMap{
		"item_number_1": "SKU1",
		"item_name_1":   "Widget",
		"quantity_1":    "2",
		"amount_1":      "9.99",
		"merchant_id":   "1210000",
		"amount":        "19.98",
	}

	got, err := Collate(m)
	require.NoError(t, err)
	require.Len(t, got, 1)

	it := got[0]
	assert.Equal(t, 1, it.Index)
	require.NotNil(t, it.ID)
	assert.Equal(t, "SKU1", *it.ID)
	require.NotNil(t, it.Name)
	assert.Equal(t, "Widget", *it.Name)
	require.NotNil(t, it.Quantity)
	assert.Equal(t, 2, *it.Quantity)
	require.NotNil(t, it.Amount)
	assert.True(t, decimal.RequireFromString("9.99").Equal(*it.Amount))
}

func TestCollate_SparseIndices(t *testing.T) {
	m := fields.InputMap{
		"item_name_2":   "Gadget",
		"item_number_5": "SKU5",
	}

	got, err := Collate(m)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 2, got[0].Index)
	require.NotNil(t, got[0].Name)
	assert.Equal(t, "Gadget", *got[0].Name)
	assert.Nil(t, got[0].ID)
	assert.Nil(t, got[0].Quantity)
	assert.Nil(t, got[0].Amount)

	assert.Equal(t, 5, got[1].Index)
	require.NotNil(t, got[1].ID)
	assert.Equal(t, "SKU5", *got[1].ID)
	assert.Nil(t, got[1].Name)
}

func TestCollate_NoItemKeys(t *testing.T) {
	got, err := Collate(fields.InputMap{"merchant_id": "1", "amount": "5", "custom_1": "x"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCollate_NonNumericSuffix(t *testing.T) {
	_, err := Collate(fields.InputMap{"item_amount_x": "1.00"})

	require.ErrorIs(t, err, ErrUnparsableIndex)
	var ipe *ItemProcessingError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "item_amount_x", ipe.Key)
	assert.Equal(t, "x", ipe.Value)
	assert.Equal(t, string(KindUnparsableIndex), ipe.Kind())
}

func TestCollate_FieldErrorsPropagate(t *testing.T) {
	tests := []struct {
		name    string
		m       fields.InputMap
		wantErr error
	}{
		{name: "quantity not a number", m: fields.InputMap{"quantity_1": "many"}, wantErr: fields.ErrTypeCoercionFailure},
		{name: "amount nil", m: fields.InputMap{"amount_3": nil}, wantErr: fields.ErrNullValue},
		{name: "name nil", m: fields.InputMap{"item_name_1": nil}, wantErr: fields.ErrNullValue},
		{name: "empty suffix", m: fields.InputMap{"amount_": "1"}, wantErr: ErrMissingIndex},
		{name: "negative index", m: fields.InputMap{"quantity_-1": "1"}, wantErr: ErrUnparsableIndex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Collate(tt.m)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestIndex(t *testing.T) {
	n, err := Index("item_number_12")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	n, err = Index("amount_0")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = Index("")
	require.ErrorIs(t, err, ErrEmptyKey)
	assert.Contains(t, err.Error(), "size 0")

	_, err = Index("amount_99999999999999999999")
	assert.ErrorIs(t, err, ErrUnparsableIndex)
}

func TestCollate_OrderedByIndex(t *testing.T) {
	m := fields.InputMap{
		"item_name_10": "c",
		"item_name_3":  "b",
		"item_name_0":  "a",
	}

	got, err := Collate(m)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int{0, 3, 10}, []int{got[0].Index, got[1].Index, got[2].Index})
}

func TestLineItem_JSONUsesSnakeCase(t *testing.T) {
	got, err := Collate(fields.InputMap{
		"item_number_2": "SKU2",
		"item_name_2":   "Bell",
		"quantity_2":    3,
		"amount_2":      "12.50",
		"item_name_5":   "Chime",
	})
	require.NoError(t, err)

	b, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"index":2,"item_number":"SKU2","item_name":"Bell","quantity":3,"amount":"12.5"},
		{"index":5,"item_name":"Chime"}
	]`, string(b))
}
