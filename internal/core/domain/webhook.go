package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// EventCheckoutCompleted is the only event class the receiver acts on.
const EventCheckoutCompleted = "checkout.session.completed"

// Metadata keys carried in the provider session.
const (
	MetaBuyerID      = "buyer_id"
	MetaItems        = "items"
	MetaFullName     = "full_name"
	MetaPhone        = "phone"
	MetaAddress      = "address"
	MetaCity         = "city"
	MetaPostalCode   = "postal_code"
	MetaShippingType = "shipping_type"
	MetaShippingCost = "shipping_cost"
)

// WebhookEvent is the payload the provider delivers to the confirmation endpoint.
type WebhookEvent struct {
	EventType string          `json:"event_type"`
	Session   ProviderSession `json:"session"`
}

// ProviderSession is the session as reported by the provider after payment.
type ProviderSession struct {
	ID            string            `json:"id"`
	AmountTotal   int64             `json:"amount_total"`
	CustomerEmail string            `json:"customer_email"`
	Metadata      map[string]string `json:"metadata"`
}

// WebhookOutcome is the terminal state of one delivery.
type WebhookOutcome string

const (
	OutcomeCreated           WebhookOutcome = "acknowledged-created"
	OutcomeDuplicate         WebhookOutcome = "acknowledged-duplicate"
	OutcomeIgnored           WebhookOutcome = "acknowledged-ignored"
	OutcomeRejectedAuth      WebhookOutcome = "rejected-auth"
	OutcomeRejectedMalformed WebhookOutcome = "rejected-malformed"
)

// EncodeMetadata flattens an intent into the provider's string-only metadata bag.
func EncodeMetadata(intent CheckoutIntent) (map[string]string, error) {
	items, err := json.Marshal(intent.Lines)
	if err != nil {
		return nil, fmt.Errorf("encode cart lines: %w", err)
	}
	return map[string]string{
		MetaBuyerID:      intent.BuyerID,
		MetaItems:        string(items),
		MetaFullName:     intent.Customer.FullName,
		MetaPhone:        intent.Customer.Phone,
		MetaAddress:      intent.Customer.Address,
		MetaCity:         intent.Customer.City,
		MetaPostalCode:   intent.Customer.PostalCode,
		MetaShippingType: string(intent.ShippingMethod),
		MetaShippingCost: strconv.FormatInt(intent.ShippingCost, 10),
	}, nil
}

// DecodeMetadata rebuilds an intent from session metadata. Missing or
// malformed fields are never defaulted.
func DecodeMetadata(meta map[string]string) (*CheckoutIntent, error) {
	if len(meta) == 0 {
		return nil, NewServiceError(ErrDataIntegrity, "session metadata missing", "METADATA_MISSING")
	}
	for _, key := range []string{MetaBuyerID, MetaItems, MetaFullName, MetaPhone, MetaAddress, MetaCity, MetaPostalCode, MetaShippingType, MetaShippingCost} {
		if strings.TrimSpace(meta[key]) == "" {
			return nil, NewServiceError(ErrDataIntegrity, "metadata field "+key+" missing", "METADATA_MISSING")
		}
	}

	var lines []CartLine
	if err := json.Unmarshal([]byte(meta[MetaItems]), &lines); err != nil {
		return nil, NewServiceError(ErrDataIntegrity, "metadata items malformed", "METADATA_MALFORMED")
	}
	cost, err := strconv.ParseInt(meta[MetaShippingCost], 10, 64)
	if err != nil || cost < 0 {
		return nil, NewServiceError(ErrDataIntegrity, "metadata shipping_cost malformed", "METADATA_MALFORMED")
	}

	intent := &CheckoutIntent{
		Lines:          lines,
		ShippingMethod: ShippingMethod(meta[MetaShippingType]),
		ShippingCost:   cost,
		BuyerID:        meta[MetaBuyerID],
		Customer: Customer{
			FullName:   meta[MetaFullName],
			Phone:      meta[MetaPhone],
			Address:    meta[MetaAddress],
			City:       meta[MetaCity],
			PostalCode: meta[MetaPostalCode],
		},
	}
	if err := CheckRecoverable(*intent); err != nil {
		return nil, err
	}
	return intent, nil
}

// CheckRecoverable verifies that an intent carries enough to record an order.
func CheckRecoverable(intent CheckoutIntent) error {
	if len(intent.Lines) == 0 {
		return NewServiceError(ErrDataIntegrity, "intent has no lines", "METADATA_MALFORMED")
	}
	if !intent.ShippingMethod.Valid() {
		return NewServiceError(ErrDataIntegrity, fmt.Sprintf("unknown shipping type %q", intent.ShippingMethod), "METADATA_MALFORMED")
	}
	for _, l := range intent.Lines {
		if l.VariantID == "" || l.Quantity < 1 || l.UnitPrice < 0 {
			return NewServiceError(ErrDataIntegrity, "intent line malformed", "METADATA_MALFORMED")
		}
	}
	return nil
}
