package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BosskingGM/office-gama/internal/adapters/memory"
	"github.com/BosskingGM/office-gama/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSweep_AppliesMissingDecrementsOnce(t *testing.T) {
	// Arrange: an order whose decrement never happened
	store := memory.NewStore()
	store.SetStock("var-a", 10)
	seedOrder(t, store, "sweep-1", "buyer-1")
	svc := NewReconcileService(store, 0)

	// Act
	report, err := svc.Sweep(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, domain.ReconcileReport{Scanned: 1, Applied: 1}, report)
	stock, _ := store.Stock("var-a")
	assert.Equal(t, 8, stock)

	report, err = svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.ReconcileReport{}, report)
	stock, _ = store.Stock("var-a")
	assert.Equal(t, 8, stock)
}

func TestSweep_SkipsLinesAppliedByWebhook(t *testing.T) {
	svc, store := newWebhookFixture()
	_, err := svc.HandleEvent(context.Background(), completedEvent(t, "sess-sweep", 25000, testMetadata(t)), testSignature)
	require.NoError(t, err)

	report, err := NewReconcileService(store, 10).Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, report.Scanned)
	stock, _ := store.Stock("var-a")
	assert.Equal(t, 8, stock)
}

func TestSweep_CountsFailures(t *testing.T) {
	inventory := new(MockInventory)
	lines := []domain.OrderLine{
		{ID: "l1", VariantID: "v1", Quantity: 1},
		{ID: "l2", VariantID: "gone", Quantity: 1},
	}
	inventory.On("UnappliedLines", mock.Anything, domain.LineCursor{}, 50).Return(lines, nil)
	inventory.On("ApplyOrderLine", mock.Anything, lines[0]).Return(true, nil)
	inventory.On("ApplyOrderLine", mock.Anything, lines[1]).Return(false, domain.ErrVariantNotFound)

	report, err := NewReconcileService(inventory, 50).Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.ReconcileReport{Scanned: 2, Applied: 1, Failed: 1}, report)
	inventory.AssertExpectations(t)
}

func TestSweep_ListFailure(t *testing.T) {
	inventory := new(MockInventory)
	inventory.On("UnappliedLines", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	_, err := NewReconcileService(inventory, 0).Sweep(context.Background())

	assert.Error(t, err)
}

func seedOrderFor(t *testing.T, store *memory.Store, sessionID, variantID string) {
	t.Helper()
	intent := testIntent()
	intent.Lines[0].VariantID = variantID
	intent.Lines[0].Quantity = 1
	order := domain.NewOrder("order-"+sessionID, sessionID, intent, "ana@example.com", intent.Total())
	order.Lines[0].ID = "line-" + sessionID
	_, err := store.CreateOrder(context.Background(), order)
	require.NoError(t, err)
}

func TestSweep_FailingLinesDoNotHideNewerOnes(t *testing.T) {
	// Arrange: the two oldest lines point at variants that no longer exist
	store := memory.NewStore()
	store.SetStock("good", 10)
	seedOrderFor(t, store, "s-gone-1", "gone-1")
	seedOrderFor(t, store, "s-gone-2", "gone-2")
	seedOrderFor(t, store, "s-good", "good")
	svc := NewReconcileService(store, 2)

	// Act
	report, err := svc.Sweep(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, domain.ReconcileReport{Scanned: 3, Applied: 1, Failed: 2}, report)
	stock, _ := store.Stock("good")
	assert.Equal(t, 9, stock)

	report, err = svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.ReconcileReport{Scanned: 2, Failed: 2}, report)
	stock, _ = store.Stock("good")
	assert.Equal(t, 9, stock)
}

func TestSweep_PagesWithCursor(t *testing.T) {
	inventory := new(MockInventory)
	now := time.Now()
	first := []domain.OrderLine{
		{ID: "l1", VariantID: "v1", Quantity: 1, CreatedAt: now},
		{ID: "l2", VariantID: "v1", Quantity: 1, CreatedAt: now},
	}
	second := []domain.OrderLine{{ID: "l3", VariantID: "v1", Quantity: 1, CreatedAt: now.Add(time.Second)}}

	inventory.On("UnappliedLines", mock.Anything, domain.LineCursor{}, 2).Return(first, nil).Once()
	inventory.On("UnappliedLines", mock.Anything, domain.CursorAt(first[1]), 2).Return(second, nil).Once()
	inventory.On("ApplyOrderLine", mock.Anything, mock.Anything).Return(true, nil).Times(3)

	report, err := NewReconcileService(inventory, 2).Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.ReconcileReport{Scanned: 3, Applied: 3}, report)
	inventory.AssertExpectations(t)
}
