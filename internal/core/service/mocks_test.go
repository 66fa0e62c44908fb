package service

import (
	"context"

	"github.com/BosskingGM/office-gama/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// MockGateway simulates the payment provider.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateCheckoutSession(ctx context.Context, req domain.SessionRequest) (*domain.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if s, ok := args.Get(0).(*domain.CheckoutSession); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMailer records shipment notices.
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendShipped(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

// MockInventory lets tests fail individual decrements.
type MockInventory struct {
	mock.Mock
}

func (m *MockInventory) ApplyOrderLine(ctx context.Context, line domain.OrderLine) (bool, error) {
	args := m.Called(ctx, line)
	return args.Bool(0), args.Error(1)
}

func (m *MockInventory) UnappliedLines(ctx context.Context, after domain.LineCursor, limit int) ([]domain.OrderLine, error) {
	args := m.Called(ctx, after, limit)
	lines, _ := args.Get(0).([]domain.OrderLine)
	return lines, args.Error(1)
}

// MockLedger lets tests script the order ledger, e.g. to lose an insert race.
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	args := m.Called(ctx, order)
	o, _ := args.Get(0).(*domain.Order)
	return o, args.Error(1)
}

func (m *MockLedger) FindBySessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	args := m.Called(ctx, sessionID)
	o, _ := args.Get(0).(*domain.Order)
	return o, args.Error(1)
}

func (m *MockLedger) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(*domain.Order)
	return o, args.Error(1)
}

func (m *MockLedger) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	args := m.Called(ctx, filter)
	orders, _ := args.Get(0).([]domain.Order)
	return orders, args.Error(1)
}

func (m *MockLedger) UpdateStatus(ctx context.Context, orderID string, from, to domain.OrderStatus) (*domain.Order, error) {
	args := m.Called(ctx, orderID, from, to)
	o, _ := args.Get(0).(*domain.Order)
	return o, args.Error(1)
}

func (m *MockLedger) DeleteOrder(ctx context.Context, orderID string) error {
	return m.Called(ctx, orderID).Error(0)
}

// stubValidator accepts exactly one signature value.
type stubValidator struct {
	valid string
}

func (v stubValidator) ValidateSignature(xSignature string, _ []byte, secret string) bool {
	return secret != "" && xSignature == v.valid
}

func testIntent() domain.CheckoutIntent {
	return domain.CheckoutIntent{
		Lines: []domain.CartLine{
			{VariantID: "var-a", ProductName: "Escritorio", ModelLabel: "Nogal", UnitPrice: 10000, Quantity: 2, StockCeiling: 10},
		},
		ShippingMethod: domain.ShippingLocal,
		ShippingCost:   5000,
		BuyerID:        "buyer-1",
		Customer: domain.Customer{
			FullName:   "Ana López",
			Phone:      "5512345678",
			Address:    "Av. Reforma 100",
			City:       "CDMX",
			PostalCode: "06600",
		},
	}
}
