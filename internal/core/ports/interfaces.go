// Package ports defines the interfaces (ports) for the checkout service.
// These are contracts that adapters must implement.
package ports

import (
	"context"

	"github.com/BosskingGM/office-gama/internal/core/domain"
)

// PaymentGateway creates hosted checkout sessions with the payment provider.
type PaymentGateway interface {
	// CreateCheckoutSession returns the provider session id and the redirect target.
	CreateCheckoutSession(ctx context.Context, req domain.SessionRequest) (*domain.CheckoutSession, error)
}

// WebhookValidator validates provider webhook signatures.
type WebhookValidator interface {
	// ValidateSignature checks the signature header against the raw request body.
	ValidateSignature(xSignature string, payload []byte, secret string) bool
}

// OrderLedger is the durable store of orders and their lines.
type OrderLedger interface {
	// CreateOrder stores the order and all its lines atomically. A second order
	// for the same payment session fails with domain.ErrDuplicateSession.
	CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)

	// FindBySessionID returns nil, nil when no order exists for the session.
	FindBySessionID(ctx context.Context, sessionID string) (*domain.Order, error)

	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)

	// UpdateStatus moves the order from one status to another only if it is
	// still in the expected one.
	UpdateStatus(ctx context.Context, orderID string, from, to domain.OrderStatus) (*domain.Order, error)

	// DeleteOrder removes the order together with its lines.
	DeleteOrder(ctx context.Context, orderID string) error
}

// InventoryAdjuster decrements per-variant stock.
type InventoryAdjuster interface {
	// ApplyOrderLine decrements stock for the line at most once. It reports
	// false when the line had already been applied.
	ApplyOrderLine(ctx context.Context, line domain.OrderLine) (bool, error)

	// UnappliedLines lists up to limit order lines with no recorded stock
	// movement that come after the cursor, in (created_at, id) order.
	UnappliedLines(ctx context.Context, after domain.LineCursor, limit int) ([]domain.OrderLine, error)
}

// PendingCheckoutStore keeps the local copy of each checkout intent.
type PendingCheckoutStore interface {
	SavePending(ctx context.Context, pending *domain.PendingCheckout) error

	// GetPending returns nil, nil when the session is unknown.
	GetPending(ctx context.Context, sessionID string) (*domain.PendingCheckout, error)

	MarkConsumed(ctx context.Context, sessionID, orderID string) error
}

// ShipmentMailer sends the "your order has shipped" notice.
type ShipmentMailer interface {
	SendShipped(ctx context.Context, order *domain.Order) error
}
