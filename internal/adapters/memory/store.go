// Package memory implements the storage ports in process. It backs dev mode
// when no database is configured and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/BosskingGM/office-gama/internal/core/domain"
	"github.com/BosskingGM/office-gama/internal/core/ports"
)

var (
	_ ports.OrderLedger          = (*Store)(nil)
	_ ports.InventoryAdjuster    = (*Store)(nil)
	_ ports.PendingCheckoutStore = (*Store)(nil)
)

// Store keeps orders, stock and pending checkouts behind a single mutex, which
// gives the same uniqueness and atomicity guarantees as the database schema.
type Store struct {
	mu        sync.Mutex
	orders    map[string]*domain.Order
	bySession map[string]string
	stock     map[string]int
	movements map[string]time.Time
	pending   map[string]*domain.PendingCheckout
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		orders:    make(map[string]*domain.Order),
		bySession: make(map[string]string),
		stock:     make(map[string]int),
		movements: make(map[string]time.Time),
		pending:   make(map[string]*domain.PendingCheckout),
	}
}

// SetStock sets the stock counter of a variant.
func (s *Store) SetStock(variantID string, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stock[variantID] = qty
}

// Stock returns the stock counter of a variant and whether it exists.
func (s *Store) Stock(variantID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	qty, ok := s.stock[variantID]
	return qty, ok
}

// CreateOrder implements ports.OrderLedger.
func (s *Store) CreateOrder(_ context.Context, order *domain.Order) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bySession[order.PaymentSessionID]; exists {
		return nil, domain.NewServiceError(domain.ErrDuplicateSession,
			"session "+order.PaymentSessionID, "DUPLICATE_SESSION")
	}

	stored := cloneOrder(order)
	now := time.Now()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	for i := range stored.Lines {
		if stored.Lines[i].CreatedAt.IsZero() {
			stored.Lines[i].CreatedAt = stored.CreatedAt
		}
	}

	s.orders[stored.ID] = stored
	s.bySession[stored.PaymentSessionID] = stored.ID
	return cloneOrder(stored), nil
}

// FindBySessionID implements ports.OrderLedger.
func (s *Store) FindBySessionID(_ context.Context, sessionID string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.bySession[sessionID]
	if !ok {
		return nil, nil
	}
	return cloneOrder(s.orders[id]), nil
}

// GetOrder implements ports.OrderLedger.
func (s *Store) GetOrder(_ context.Context, orderID string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return nil, domain.NewServiceError(domain.ErrOrderNotFound, "order "+orderID, "ORDER_NOT_FOUND")
	}
	return cloneOrder(order), nil
}

// ListOrders implements ports.OrderLedger.
func (s *Store) ListOrders(_ context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if filter.BuyerID != "" && o.BuyerID != filter.BuyerID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		orders = append(orders, *cloneOrder(o))
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	if filter.Limit > 0 && len(orders) > filter.Limit {
		orders = orders[:filter.Limit]
	}
	return orders, nil
}

// UpdateStatus implements ports.OrderLedger.
func (s *Store) UpdateStatus(_ context.Context, orderID string, from, to domain.OrderStatus) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return nil, domain.NewServiceError(domain.ErrOrderNotFound, "order "+orderID, "ORDER_NOT_FOUND")
	}
	if order.Status != from {
		return nil, domain.NewServiceError(domain.ErrInvalidTransition,
			"order "+orderID+" is no longer "+string(from), "STATUS_CONFLICT")
	}
	order.Status = to
	order.UpdatedAt = time.Now()
	return cloneOrder(order), nil
}

// DeleteOrder implements ports.OrderLedger.
func (s *Store) DeleteOrder(_ context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return domain.NewServiceError(domain.ErrOrderNotFound, "order "+orderID, "ORDER_NOT_FOUND")
	}
	for _, l := range order.Lines {
		delete(s.movements, l.ID)
	}
	delete(s.bySession, order.PaymentSessionID)
	delete(s.orders, orderID)
	return nil
}

// decrementLocked lowers a variant's stock by qty. Stock may go negative.
func (s *Store) decrementLocked(variantID string, qty int) error {
	current, ok := s.stock[variantID]
	if !ok {
		return domain.NewServiceError(domain.ErrVariantNotFound, "variant "+variantID, "VARIANT_NOT_FOUND")
	}
	s.stock[variantID] = current - qty
	return nil
}

// ApplyOrderLine implements ports.InventoryAdjuster.
func (s *Store) ApplyOrderLine(_ context.Context, line domain.OrderLine) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, done := s.movements[line.ID]; done {
		return false, nil
	}
	if err := s.decrementLocked(line.VariantID, line.Quantity); err != nil {
		return false, err
	}
	s.movements[line.ID] = time.Now()
	return true, nil
}

// UnappliedLines implements ports.InventoryAdjuster.
func (s *Store) UnappliedLines(_ context.Context, after domain.LineCursor, limit int) ([]domain.OrderLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lines []domain.OrderLine
	for _, o := range s.orders {
		for _, l := range o.Lines {
			if _, done := s.movements[l.ID]; done || !after.Precedes(l) {
				continue
			}
			lines = append(lines, l)
		}
	}
	sort.Slice(lines, func(i, j int) bool {
		return domain.CursorAt(lines[i]).Precedes(lines[j])
	})
	if limit > 0 && len(lines) > limit {
		lines = lines[:limit]
	}
	return lines, nil
}

// SavePending implements ports.PendingCheckoutStore.
func (s *Store) SavePending(_ context.Context, pending *domain.PendingCheckout) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.pending[pending.SessionID]; exists {
		return nil
	}
	p := *pending
	p.Intent.Lines = append([]domain.CartLine(nil), pending.Intent.Lines...)
	s.pending[p.SessionID] = &p
	return nil
}

// GetPending implements ports.PendingCheckoutStore.
func (s *Store) GetPending(_ context.Context, sessionID string) (*domain.PendingCheckout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[sessionID]
	if !ok {
		return nil, nil
	}
	out := *p
	out.Intent.Lines = append([]domain.CartLine(nil), p.Intent.Lines...)
	return &out, nil
}

// MarkConsumed implements ports.PendingCheckoutStore.
func (s *Store) MarkConsumed(_ context.Context, sessionID, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[sessionID]
	if !ok {
		return nil
	}
	now := time.Now()
	p.OrderID = orderID
	p.ConsumedAt = &now
	return nil
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Lines = append([]domain.OrderLine(nil), o.Lines...)
	return &c
}
