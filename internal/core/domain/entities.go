// Package domain contains the core business entities for the storefront checkout service.
// This is the innermost layer - it knows nothing about HTTP, SQL or the payment provider.
package domain

import "time"

// ShippingMethod identifies how an order reaches the buyer.
type ShippingMethod string

const (
	ShippingPickup   ShippingMethod = "pickup"
	ShippingLocal    ShippingMethod = "local"
	ShippingNational ShippingMethod = "national"
)

// Valid reports whether m is one of the supported shipping methods.
func (m ShippingMethod) Valid() bool {
	switch m {
	case ShippingPickup, ShippingLocal, ShippingNational:
		return true
	}
	return false
}

// Label returns the name shown on the synthetic shipping price line.
func (m ShippingMethod) Label() string {
	switch m {
	case ShippingLocal:
		return "Envío local"
	case ShippingNational:
		return "Estafeta nacional"
	default:
		return "Recoger en tienda"
	}
}

// CartLine is one purchasable variant held in a shopper's cart.
// Prices are in minor currency units (centavos).
type CartLine struct {
	VariantID    string `json:"variant_id" validate:"required"`
	ProductName  string `json:"name" validate:"required"`
	ModelLabel   string `json:"model_name,omitempty"`
	UnitPrice    int64  `json:"price" validate:"gt=0"`
	Quantity     int    `json:"quantity" validate:"gte=1,ltefield=StockCeiling"`
	StockCeiling int    `json:"stock" validate:"gte=1"`
	ImageRef     string `json:"image_url,omitempty"`
}

// Amount returns the line subtotal.
func (l CartLine) Amount() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Customer holds the shipping contact captured at checkout.
type Customer struct {
	FullName   string `json:"full_name" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
}

// CheckoutIntent is everything needed to rebuild an order once the provider
// confirms payment.
type CheckoutIntent struct {
	Lines          []CartLine     `json:"lines"`
	ShippingMethod ShippingMethod `json:"shipping_type"`
	ShippingCost   int64          `json:"shipping_cost"`
	Customer       Customer       `json:"customer"`
	BuyerID        string         `json:"buyer_id"`
}

// Subtotal sums the cart lines, excluding shipping.
func (i CheckoutIntent) Subtotal() int64 {
	var total int64
	for _, l := range i.Lines {
		total += l.Amount()
	}
	return total
}

// Total is the amount the buyer is expected to be charged.
func (i CheckoutIntent) Total() int64 {
	return i.Subtotal() + i.ShippingCost
}

// PriceLine is a single line on the hosted payment page.
type PriceLine struct {
	Name       string `json:"name"`
	UnitAmount int64  `json:"unit_amount"`
	Quantity   int    `json:"quantity"`
}

// SessionRequest is what the checkout initiator sends to the payment provider.
type SessionRequest struct {
	LineItems  []PriceLine       `json:"line_items"`
	Metadata   map[string]string `json:"metadata"`
	BuyerID    string            `json:"buyer_id"`
	BuyerEmail string            `json:"buyer_email,omitempty"`
}

// Total sums all price lines of the request.
func (r SessionRequest) Total() int64 {
	var total int64
	for _, l := range r.LineItems {
		total += l.UnitAmount * int64(l.Quantity)
	}
	return total
}

// CheckoutSession is a hosted payment page created by the provider.
type CheckoutSession struct {
	ID          string `json:"session_id"`
	RedirectURL string `json:"url"`
}

// PendingCheckout is the locally persisted copy of a CheckoutIntent, keyed by
// the provider session id.
type PendingCheckout struct {
	SessionID  string         `json:"session_id"`
	Intent     CheckoutIntent `json:"intent"`
	OrderID    string         `json:"order_id,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	ConsumedAt *time.Time     `json:"consumed_at,omitempty"`
}

// Order is the durable record of a confirmed payment.
type Order struct {
	ID               string         `json:"id"`
	PaymentSessionID string         `json:"payment_session_id"`
	BuyerID          string         `json:"user_id"`
	BuyerEmail       string         `json:"user_email"`
	Total            int64          `json:"total"`
	Status           OrderStatus    `json:"status"`
	FullName         string         `json:"full_name"`
	Phone            string         `json:"phone"`
	Address          string         `json:"address"`
	City             string         `json:"city"`
	PostalCode       string         `json:"postal_code"`
	ShippingMethod   ShippingMethod `json:"shipping_type"`
	ShippingCost     int64          `json:"shipping_cost"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	Lines            []OrderLine    `json:"order_items,omitempty"`
}

// OrderLine is a purchased variant. UnitPrice is captured at purchase time and
// never recomputed from the catalog.
type OrderLine struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"price"`

	CreatedAt time.Time `json:"-"`
}

// LineCursor is a position in the (created_at, id) ordering of order lines.
// The zero cursor sits before the first line.
type LineCursor struct {
	CreatedAt time.Time
	LineID    string
}

// IsZero reports whether c sits before the first line.
func (c LineCursor) IsZero() bool {
	return c.LineID == ""
}

// Precedes reports whether l comes strictly after c.
func (c LineCursor) Precedes(l OrderLine) bool {
	if c.IsZero() {
		return true
	}
	if !l.CreatedAt.Equal(c.CreatedAt) {
		return l.CreatedAt.After(c.CreatedAt)
	}
	return l.ID > c.LineID
}

// CursorAt returns the cursor positioned on l.
func CursorAt(l OrderLine) LineCursor {
	return LineCursor{CreatedAt: l.CreatedAt, LineID: l.ID}
}

// NewOrder builds a paid order from a recovered intent. total is the amount the
// provider reports as charged.
func NewOrder(id, sessionID string, intent CheckoutIntent, buyerEmail string, total int64) *Order {
	now := time.Now()
	order := &Order{
		ID:               id,
		PaymentSessionID: sessionID,
		BuyerID:          intent.BuyerID,
		BuyerEmail:       buyerEmail,
		Total:            total,
		Status:           StatusPaid,
		FullName:         intent.Customer.FullName,
		Phone:            intent.Customer.Phone,
		Address:          intent.Customer.Address,
		City:             intent.Customer.City,
		PostalCode:       intent.Customer.PostalCode,
		ShippingMethod:   intent.ShippingMethod,
		ShippingCost:     intent.ShippingCost,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for _, l := range intent.Lines {
		order.Lines = append(order.Lines, OrderLine{
			OrderID:   id,
			VariantID: l.VariantID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			CreatedAt: now,
		})
	}
	return order
}

// OrderFilter narrows order listings. Zero values mean "any".
type OrderFilter struct {
	BuyerID string
	Status  OrderStatus
	Limit   int
}

// ReconcileReport summarizes one inventory reconciliation sweep.
type ReconcileReport struct {
	Scanned int `json:"scanned"`
	Applied int `json:"applied"`
	Failed  int `json:"failed"`
}
