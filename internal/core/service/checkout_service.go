// Package service implements the core business logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/BosskingGM/office-gama/internal/core/domain"
	"github.com/BosskingGM/office-gama/internal/core/ports"
	"github.com/go-playground/validator/v10"
)

// CheckoutService turns a cart into a hosted payment session.
type CheckoutService struct {
	gateway  ports.PaymentGateway
	pending  ports.PendingCheckoutStore
	validate *validator.Validate
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(gateway ports.PaymentGateway, pending ports.PendingCheckoutStore) *CheckoutService {
	return &CheckoutService{
		gateway:  gateway,
		pending:  pending,
		validate: validator.New(),
	}
}

// CreateCheckout validates the intent, requests a hosted session and records
// the pending checkout. It never writes orders or touches inventory.
func (s *CheckoutService) CreateCheckout(ctx context.Context, intent domain.CheckoutIntent, buyerEmail string) (*domain.CheckoutSession, error) {
	intent = normalizeIntent(intent)
	if err := s.validateIntent(intent); err != nil {
		return nil, err
	}

	metadata, err := domain.EncodeMetadata(intent)
	if err != nil {
		return nil, domain.NewServiceError(domain.ErrValidation, err.Error(), "VALIDATION_ERROR")
	}

	req := domain.SessionRequest{
		LineItems:  buildPriceLines(intent),
		Metadata:   metadata,
		BuyerID:    intent.BuyerID,
		BuyerEmail: buyerEmail,
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, req)
	if err != nil {
		log.Printf("Failed to create checkout session for buyer %s: %v", intent.BuyerID, err)
		if errors.Is(err, domain.ErrUpstream) {
			return nil, err
		}
		return nil, domain.NewServiceError(domain.ErrUpstream, "failed to create checkout session: "+err.Error(), "GATEWAY_ERROR")
	}

	// The provider already holds the session; the receiver can still fall back
	// on the echoed metadata if this write is lost.
	pending := &domain.PendingCheckout{
		SessionID: session.ID,
		Intent:    intent,
		CreatedAt: time.Now(),
	}
	if err := s.pending.SavePending(ctx, pending); err != nil {
		log.Printf("[WARN] could not persist pending checkout %s: %v", session.ID, err)
	}

	log.Printf("Created checkout session %s for buyer %s, total: %s",
		session.ID, intent.BuyerID, domain.FormatMoney(req.Total(), ""))

	return session, nil
}

func (s *CheckoutService) validateIntent(intent domain.CheckoutIntent) error {
	if len(intent.Lines) == 0 {
		return domain.NewServiceError(domain.ErrValidation, "cart is empty", "EMPTY_CART")
	}
	if intent.BuyerID == "" {
		return domain.NewServiceError(domain.ErrValidation, "buyer identity is required", "MISSING_BUYER")
	}
	if !intent.ShippingMethod.Valid() {
		return domain.NewServiceError(domain.ErrValidation,
			fmt.Sprintf("unknown shipping method %q", intent.ShippingMethod), "INVALID_SHIPPING")
	}
	if intent.ShippingCost < 0 {
		return domain.NewServiceError(domain.ErrValidation, "shipping cost cannot be negative", "INVALID_SHIPPING")
	}
	if err := s.validate.Struct(intent.Customer); err != nil {
		return domain.NewServiceError(domain.ErrValidation, describeValidation("shipping", err), "MISSING_SHIPPING_FIELD")
	}
	for i, line := range intent.Lines {
		if err := s.validate.Struct(line); err != nil {
			return domain.NewServiceError(domain.ErrValidation,
				describeValidation(fmt.Sprintf("line %d", i), err), "INVALID_LINE")
		}
	}
	return nil
}

func buildPriceLines(intent domain.CheckoutIntent) []domain.PriceLine {
	lines := make([]domain.PriceLine, 0, len(intent.Lines)+1)
	for _, l := range intent.Lines {
		name := l.ProductName
		if l.ModelLabel != "" {
			name += " - " + l.ModelLabel
		}
		lines = append(lines, domain.PriceLine{Name: name, UnitAmount: l.UnitPrice, Quantity: l.Quantity})
	}
	if intent.ShippingCost > 0 {
		lines = append(lines, domain.PriceLine{
			Name:       intent.ShippingMethod.Label(),
			UnitAmount: intent.ShippingCost,
			Quantity:   1,
		})
	}
	return lines
}

func normalizeIntent(intent domain.CheckoutIntent) domain.CheckoutIntent {
	intent.BuyerID = strings.TrimSpace(intent.BuyerID)
	intent.Customer = domain.Customer{
		FullName:   strings.TrimSpace(intent.Customer.FullName),
		Phone:      strings.TrimSpace(intent.Customer.Phone),
		Address:    strings.TrimSpace(intent.Customer.Address),
		City:       strings.TrimSpace(intent.Customer.City),
		PostalCode: strings.TrimSpace(intent.Customer.PostalCode),
	}
	return intent
}

func describeValidation(scope string, err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("%s: %s failed on '%s'", scope, fe.Field(), fe.Tag())
	}
	return scope + ": " + err.Error()
}
