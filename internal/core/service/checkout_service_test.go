package service

import (
	"context"
	"errors"
	"testing"

	"github.com/BosskingGM/office-gama/internal/adapters/memory"
	"github.com/BosskingGM/office-gama/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateCheckout_BuildsSessionRequest(t *testing.T) {
	// Arrange
	gateway := new(MockGateway)
	store := memory.NewStore()
	svc := NewCheckoutService(gateway, store)

	var captured domain.SessionRequest
	gateway.On("CreateCheckoutSession", mock.Anything, mock.AnythingOfType("domain.SessionRequest")).
		Run(func(args mock.Arguments) { captured = args.Get(1).(domain.SessionRequest) }).
		Return(&domain.CheckoutSession{ID: "pref-123", RedirectURL: "https://pay.example/pref-123"}, nil)

	// Act
	session, err := svc.CreateCheckout(context.Background(), testIntent(), "ana@example.com")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/pref-123", session.RedirectURL)

	require.Len(t, captured.LineItems, 2)
	assert.Equal(t, domain.PriceLine{Name: "Escritorio - Nogal", UnitAmount: 10000, Quantity: 2}, captured.LineItems[0])
	assert.Equal(t, domain.PriceLine{Name: "Envío local", UnitAmount: 5000, Quantity: 1}, captured.LineItems[1])
	assert.Equal(t, int64(25000), captured.Total())
	assert.Equal(t, "buyer-1", captured.Metadata[domain.MetaBuyerID])
	assert.Equal(t, "06600", captured.Metadata[domain.MetaPostalCode])
	assert.Equal(t, "ana@example.com", captured.BuyerEmail)

	pending, err := store.GetPending(context.Background(), "pref-123")
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, "buyer-1", pending.Intent.BuyerID)
	assert.Nil(t, pending.ConsumedAt)

	orders, _ := store.ListOrders(context.Background(), domain.OrderFilter{})
	assert.Empty(t, orders)
	gateway.AssertExpectations(t)
}

func TestCreateCheckout_PickupHasNoShippingLine(t *testing.T) {
	gateway := new(MockGateway)
	svc := NewCheckoutService(gateway, memory.NewStore())

	intent := testIntent()
	intent.ShippingMethod = domain.ShippingPickup
	intent.ShippingCost = 0

	gateway.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(req domain.SessionRequest) bool {
		return len(req.LineItems) == 1 && req.Total() == 20000
	})).Return(&domain.CheckoutSession{ID: "pref-1", RedirectURL: "https://pay.example/1"}, nil)

	_, err := svc.CreateCheckout(context.Background(), intent, "")

	require.NoError(t, err)
	gateway.AssertExpectations(t)
}

func TestCreateCheckout_ValidationBeforeNetwork(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.CheckoutIntent)
		code   string
	}{
		{"empty cart", func(i *domain.CheckoutIntent) { i.Lines = nil }, "EMPTY_CART"},
		{"missing buyer", func(i *domain.CheckoutIntent) { i.BuyerID = "  " }, "MISSING_BUYER"},
		{"blank address", func(i *domain.CheckoutIntent) { i.Customer.Address = "   " }, "MISSING_SHIPPING_FIELD"},
		{"missing postal code", func(i *domain.CheckoutIntent) { i.Customer.PostalCode = "" }, "MISSING_SHIPPING_FIELD"},
		{"unknown shipping", func(i *domain.CheckoutIntent) { i.ShippingMethod = "drone" }, "INVALID_SHIPPING"},
		{"quantity above ceiling", func(i *domain.CheckoutIntent) { i.Lines[0].Quantity = 11 }, "INVALID_LINE"},
		{"zero quantity", func(i *domain.CheckoutIntent) { i.Lines[0].Quantity = 0 }, "INVALID_LINE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := new(MockGateway)
			svc := NewCheckoutService(gateway, memory.NewStore())
			intent := testIntent()
			tt.mutate(&intent)

			session, err := svc.CreateCheckout(context.Background(), intent, "")

			assert.Nil(t, session)
			assert.True(t, errors.Is(err, domain.ErrValidation))
			assert.Equal(t, tt.code, domain.ErrorCode(err))
			gateway.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateCheckout_UpstreamFailure(t *testing.T) {
	gateway := new(MockGateway)
	store := memory.NewStore()
	svc := NewCheckoutService(gateway, store)

	gateway.On("CreateCheckoutSession", mock.Anything, mock.Anything).
		Return(nil, errors.New("401 invalid token")).Once()

	session, err := svc.CreateCheckout(context.Background(), testIntent(), "")

	assert.Nil(t, session)
	assert.True(t, errors.Is(err, domain.ErrUpstream))
	gateway.AssertNumberOfCalls(t, "CreateCheckoutSession", 1)
}
