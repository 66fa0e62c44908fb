// Package mercadopago implements the PaymentGateway interface using the official SDK.
package mercadopago

import (
	"context"

	"github.com/BosskingGM/office-gama/internal/core/domain"
	"github.com/BosskingGM/office-gama/internal/core/ports"
	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/preference"
)

var _ ports.PaymentGateway = (*Adapter)(nil)

// Options configures the hosted checkout.
type Options struct {
	AccessToken     string
	Currency        string
	SuccessURL      string
	CancelURL       string
	NotificationURL string
	Sandbox         bool
}

// preferenceCreator is the subset of preference.Client the adapter uses.
type preferenceCreator interface {
	Create(ctx context.Context, request preference.Request) (*preference.Response, error)
}

// Adapter implements ports.PaymentGateway using Mercado Pago Checkout Pro.
type Adapter struct {
	client preferenceCreator
	opts   Options
}

// NewAdapter creates a new Mercado Pago adapter for the store's account.
func NewAdapter(opts Options) (*Adapter, error) {
	cfg, err := config.New(opts.AccessToken)
	if err != nil {
		return nil, domain.NewServiceError(domain.ErrUpstream,
			"failed to create MP config", "MP_CONFIG_ERROR")
	}
	if opts.Currency == "" {
		opts.Currency = domain.DefaultCurrency
	}
	return &Adapter{client: preference.NewClient(cfg), opts: opts}, nil
}

// CreateCheckoutSession creates a Checkout Pro preference. The preference id
// is the session id echoed back in payment confirmations.
func (a *Adapter) CreateCheckoutSession(ctx context.Context, req domain.SessionRequest) (*domain.CheckoutSession, error) {
	result, err := a.client.Create(ctx, a.buildRequest(req))
	if err != nil {
		return nil, domain.NewServiceError(domain.ErrUpstream,
			"failed to create preference: "+err.Error(), "MP_PREFERENCE_ERROR")
	}

	redirect := result.InitPoint
	if a.opts.Sandbox && result.SandboxInitPoint != "" {
		redirect = result.SandboxInitPoint
	}
	if result.ID == "" || redirect == "" {
		return nil, domain.NewServiceError(domain.ErrUpstream,
			"preference created without id or init point", "MP_PREFERENCE_ERROR")
	}

	return &domain.CheckoutSession{ID: result.ID, RedirectURL: redirect}, nil
}

func (a *Adapter) buildRequest(req domain.SessionRequest) preference.Request {
	items := make([]preference.ItemRequest, 0, len(req.LineItems))
	for _, l := range req.LineItems {
		items = append(items, preference.ItemRequest{
			Title:      l.Name,
			Quantity:   l.Quantity,
			UnitPrice:  domain.MinorToMajor(l.UnitAmount),
			CurrencyID: a.opts.Currency,
		})
	}

	metadata := make(map[string]any, len(req.Metadata))
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	prefRequest := preference.Request{
		Items:             items,
		ExternalReference: req.BuyerID,
		Metadata:          metadata,
		AutoReturn:        "approved",
		BackURLs: &preference.BackURLsRequest{
			Success: a.opts.SuccessURL,
			Failure: a.opts.CancelURL,
			Pending: a.opts.CancelURL,
		},
		NotificationURL: a.opts.NotificationURL,
	}
	if req.BuyerEmail != "" {
		prefRequest.Payer = &preference.PayerRequest{Email: req.BuyerEmail}
	}
	return prefRequest
}
