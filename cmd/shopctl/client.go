package main

import (
	"context"
	"fmt"
	"time"

	"github.com/BosskingGM/office-gama/internal/core/domain"
	"github.com/go-resty/resty/v2"
)

type checkoutRequest struct {
	Items          []domain.CartLine     `json:"items"`
	ShippingMethod domain.ShippingMethod `json:"shipping_type"`
	Customer       domain.Customer       `json:"customer"`
}

type checkoutResponse struct {
	Success      bool   `json:"success"`
	SessionID    string `json:"session_id"`
	URL          string `json:"url"`
	ShippingCost int64  `json:"shipping_cost"`
}

type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// apiClient talks to the storefront API on behalf of the shopper.
type apiClient struct {
	client *resty.Client
}

func newAPIClient(baseURL, token string) *apiClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Content-Type", "application/json")
	if token != "" {
		client.SetAuthToken(token)
	}
	return &apiClient{client: client}
}

// Checkout posts the cart and returns the hosted payment page.
func (c *apiClient) Checkout(ctx context.Context, req checkoutRequest) (*checkoutResponse, error) {
	var out checkoutResponse
	var failure apiError

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&failure).
		Post("/api/v1/checkout")
	if err != nil {
		return nil, fmt.Errorf("checkout request failed: %w", err)
	}
	if resp.IsError() {
		if failure.Error != "" {
			return nil, fmt.Errorf("checkout rejected (%d %s): %s", resp.StatusCode(), failure.Code, failure.Error)
		}
		return nil, fmt.Errorf("checkout rejected: status %d", resp.StatusCode())
	}
	return &out, nil
}
