package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/BosskingGM/office-gama/internal/core/domain"
	"github.com/BosskingGM/office-gama/internal/core/ports"
)

const defaultNotifyTimeout = 10 * time.Second

// OrderService exposes the ledger to buyers and operators and drives the
// status lifecycle.
type OrderService struct {
	ledger        ports.OrderLedger
	mailer        ports.ShipmentMailer
	notifyTimeout time.Duration
	inflight      sync.WaitGroup
}

// NewOrderService creates a new order service.
func NewOrderService(ledger ports.OrderLedger, mailer ports.ShipmentMailer, notifyTimeout time.Duration) *OrderService {
	if notifyTimeout <= 0 {
		notifyTimeout = defaultNotifyTimeout
	}
	return &OrderService{
		ledger:        ledger,
		mailer:        mailer,
		notifyTimeout: notifyTimeout,
	}
}

// GetOrder returns any order by id.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.ledger.GetOrder(ctx, orderID)
}

// BuyerOrder returns the order only when it belongs to buyerID.
func (s *OrderService) BuyerOrder(ctx context.Context, buyerID, orderID string) (*domain.Order, error) {
	order, err := s.ledger.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, domain.NewServiceError(domain.ErrOrderNotFound, "order "+orderID, "ORDER_NOT_FOUND")
	}
	return order, nil
}

// ListOrders returns orders newest first.
func (s *OrderService) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.NewServiceError(domain.ErrValidation,
			fmt.Sprintf("unknown order status %q", filter.Status), "INVALID_STATUS")
	}
	return s.ledger.ListOrders(ctx, filter)
}

// UpdateStatus applies an operator status change. Moving an order to enviado
// fires the shipment notice; the notice never affects the transition.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, next domain.OrderStatus) (*domain.Order, error) {
	if !next.Valid() {
		return nil, domain.NewServiceError(domain.ErrValidation,
			fmt.Sprintf("unknown order status %q", next), "INVALID_STATUS")
	}

	current, err := s.ledger.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, domain.NewServiceError(domain.ErrInvalidTransition,
			fmt.Sprintf("cannot move order from %s to %s", current.Status, next), "INVALID_TRANSITION")
	}

	updated, err := s.ledger.UpdateStatus(ctx, orderID, current.Status, next)
	if err != nil {
		return nil, err
	}
	log.Printf("Order %s status %s -> %s", orderID, current.Status, next)

	if next == domain.StatusShipped {
		s.NotifyShipped(updated.ID)
	}
	return updated, nil
}

// NotifyShipped sends the shipment notice in the background. Failures are
// logged and dropped.
func (s *OrderService) NotifyShipped(orderID string) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()

		order, err := s.ledger.GetOrder(ctx, orderID)
		if err != nil {
			log.Printf("[NOTIFY] cannot load order %s for shipment notice: %v", orderID, err)
			return
		}
		if order.BuyerEmail == "" {
			log.Printf("[NOTIFY] order %s has no buyer email, shipment notice skipped", orderID)
			return
		}
		if err := s.mailer.SendShipped(ctx, order); err != nil {
			log.Printf("[NOTIFY] shipment notice for order %s failed: %v", orderID, err)
			return
		}
		log.Printf("[NOTIFY] shipment notice sent for order %s", orderID)
	}()
}

// Wait blocks until in-flight notices finish. Used on shutdown.
func (s *OrderService) Wait() {
	s.inflight.Wait()
}

// DeleteOrder removes an order and its lines.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID string) error {
	if err := s.ledger.DeleteOrder(ctx, orderID); err != nil {
		return err
	}
	log.Printf("Order %s deleted with its lines", orderID)
	return nil
}
