package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/BosskingGM/office-gama/config"
	"github.com/BosskingGM/office-gama/internal/core/domain"
	"github.com/BosskingGM/office-gama/internal/core/service"
	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 64 << 10

// CheckoutRequest is the body of POST /api/v1/checkout.
type CheckoutRequest struct {
	Items          []domain.CartLine     `json:"items" binding:"required"`
	ShippingMethod domain.ShippingMethod `json:"shipping_type" binding:"required"`
	Customer       domain.Customer       `json:"customer"`
}

// CheckoutResponse carries the hosted payment page the buyer is sent to.
type CheckoutResponse struct {
	Success      bool   `json:"success"`
	SessionID    string `json:"session_id"`
	URL          string `json:"url"`
	ShippingCost int64  `json:"shipping_cost"`
}

// PaymentHandler handles checkout and payment confirmation requests.
type PaymentHandler struct {
	checkout *service.CheckoutService
	webhook  *service.WebhookService
	shipping config.ShippingConfig
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(checkout *service.CheckoutService, webhook *service.WebhookService, shipping config.ShippingConfig) *PaymentHandler {
	return &PaymentHandler{checkout: checkout, webhook: webhook, shipping: shipping}
}

// CreateCheckout handles POST /api/v1/checkout
// The buyer comes from the bearer token; the shipping cost from the tariff table.
func (h *PaymentHandler) CreateCheckout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request: " + err.Error(),
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	cost, ok := h.shippingCost(req.ShippingMethod)
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Unknown shipping type: " + string(req.ShippingMethod),
			Code:    "INVALID_SHIPPING",
		})
		return
	}

	intent := domain.CheckoutIntent{
		Lines:          req.Items,
		ShippingMethod: req.ShippingMethod,
		ShippingCost:   cost,
		Customer:       req.Customer,
		BuyerID:        c.GetString(ctxBuyerID),
	}

	session, err := h.checkout.CreateCheckout(c.Request.Context(), intent, c.GetString(ctxBuyerEmail))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, CheckoutResponse{
		Success:      true,
		SessionID:    session.ID,
		URL:          session.RedirectURL,
		ShippingCost: cost,
	})
}

// HandleWebhook handles POST /api/v1/webhooks/payments
// The raw body is read before any parsing so the signature covers exactly
// what was sent.
func (h *PaymentHandler) HandleWebhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		log.Printf("Webhook body read error: %v", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "unreadable body", Code: "MALFORMED_BODY"})
		return
	}

	outcome, err := h.webhook.HandleEvent(c.Request.Context(), body, c.GetHeader("x-signature"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAuthenticity):
			c.JSON(http.StatusUnauthorized, gin.H{"received": false, "outcome": outcome})
		case errors.Is(err, domain.ErrDataIntegrity):
			c.JSON(http.StatusBadRequest, gin.H{"received": false, "outcome": outcome})
		default:
			// Ledger unavailable: a 5xx makes the provider redeliver.
			handleServiceError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "outcome": outcome})
}

// ShippingRates handles GET /api/v1/shipping-rates
func (h *PaymentHandler) ShippingRates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		string(domain.ShippingPickup):   int64(0),
		string(domain.ShippingLocal):    h.shipping.LocalCost,
		string(domain.ShippingNational): h.shipping.NationalCost,
	})
}

func (h *PaymentHandler) shippingCost(method domain.ShippingMethod) (int64, bool) {
	switch method {
	case domain.ShippingPickup:
		return 0, true
	case domain.ShippingLocal:
		return h.shipping.LocalCost, true
	case domain.ShippingNational:
		return h.shipping.NationalCost, true
	}
	return 0, false
}

// Health handles GET /health
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "office-gama-api",
		"version": "1.0.0",
	})
}
