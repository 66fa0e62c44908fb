package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleIntent() CheckoutIntent {
	return CheckoutIntent{
		Lines: []CartLine{
			{VariantID: "var-a", ProductName: "Silla ergonómica", UnitPrice: 10000, Quantity: 2, StockCeiling: 5},
		},
		ShippingMethod: ShippingLocal,
		ShippingCost:   5000,
		BuyerID:        "buyer-1",
		Customer: Customer{
			FullName:   "Ana López",
			Phone:      "5512345678",
			Address:    "Av. Reforma 100",
			City:       "CDMX",
			PostalCode: "06600",
		},
	}
}

func TestOrderStatus_Transitions(t *testing.T) {
	assert.True(t, StatusPaid.CanTransitionTo(StatusShipped))
	assert.True(t, StatusPaid.CanTransitionTo(StatusCancelled))
	assert.True(t, StatusShipped.CanTransitionTo(StatusDelivered))
	assert.True(t, StatusShipped.CanTransitionTo(StatusCancelled))

	assert.False(t, StatusPaid.CanTransitionTo(StatusDelivered))
	assert.False(t, StatusShipped.CanTransitionTo(StatusPaid))
	assert.False(t, StatusDelivered.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusPaid))

	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPaid.Terminal())
}

func TestParseOrderStatus(t *testing.T) {
	s, err := ParseOrderStatus("enviado")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, s)

	_, err = ParseOrderStatus("shipped")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestCheckoutIntent_Total(t *testing.T) {
	intent := sampleIntent()
	assert.Equal(t, int64(20000), intent.Subtotal())
	assert.Equal(t, int64(25000), intent.Total())
}

func TestDecodeMetadata_RebuildsIntent(t *testing.T) {
	intent := sampleIntent()
	meta, err := EncodeMetadata(intent)
	require.NoError(t, err)
	assert.Equal(t, "5000", meta[MetaShippingCost])
	assert.Equal(t, "local", meta[MetaShippingType])

	decoded, err := DecodeMetadata(meta)
	require.NoError(t, err)
	assert.Equal(t, intent, *decoded)
}

func TestDecodeMetadata_Rejects(t *testing.T) {
	valid, err := EncodeMetadata(sampleIntent())
	require.NoError(t, err)

	with := func(key, value string) map[string]string {
		m := make(map[string]string, len(valid))
		for k, v := range valid {
			m[k] = v
		}
		m[key] = value
		return m
	}

	tests := []struct {
		name string
		meta map[string]string
		code string
	}{
		{"nil metadata", nil, "METADATA_MISSING"},
		{"missing buyer", with(MetaBuyerID, ""), "METADATA_MISSING"},
		{"blank city", with(MetaCity, "   "), "METADATA_MISSING"},
		{"items not json", with(MetaItems, "{not-json"), "METADATA_MALFORMED"},
		{"empty items", with(MetaItems, "[]"), "METADATA_MALFORMED"},
		{"zero quantity", with(MetaItems, `[{"variant_id":"v","quantity":0,"price":100}]`), "METADATA_MALFORMED"},
		{"cost not numeric", with(MetaShippingCost, "fifty"), "METADATA_MALFORMED"},
		{"unknown shipping", with(MetaShippingType, "drone"), "METADATA_MALFORMED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, err := DecodeMetadata(tt.meta)
			assert.Nil(t, intent)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDataIntegrity))
			assert.Equal(t, tt.code, ErrorCode(err))
		})
	}
}

func TestNewOrder_CapturesPurchasePrice(t *testing.T) {
	order := NewOrder("order-1", "sess-1", sampleIntent(), "ana@example.com", 25000)

	assert.Equal(t, StatusPaid, order.Status)
	assert.Equal(t, int64(25000), order.Total)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, "order-1", order.Lines[0].OrderID)
	assert.Equal(t, int64(10000), order.Lines[0].UnitPrice)
	assert.Equal(t, 2, order.Lines[0].Quantity)
}

func TestMoney(t *testing.T) {
	assert.Equal(t, 100.5, MinorToMajor(10050))
	assert.Equal(t, int64(10050), MajorToMinor(100.5))
	assert.Equal(t, "250.00 MXN", FormatMoney(25000, ""))
}

func TestLineCursorOrdering(t *testing.T) {
	t0 := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	a := OrderLine{ID: "a", CreatedAt: t0}
	b := OrderLine{ID: "b", CreatedAt: t0}
	c := OrderLine{ID: "0", CreatedAt: t0.Add(time.Millisecond)}

	var zero LineCursor
	assert.True(t, zero.IsZero())
	assert.True(t, zero.Precedes(a))

	cur := CursorAt(a)
	assert.False(t, cur.IsZero())
	assert.False(t, cur.Precedes(a))
	assert.True(t, cur.Precedes(b))
	assert.True(t, cur.Precedes(c))
	assert.False(t, CursorAt(c).Precedes(b))
}
