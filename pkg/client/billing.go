package client

import (
	"context"
	"net/http"
)

// BillingService handles plans, checkout and cancellation
type BillingService struct {
	client *Client
}

// Plans lists the paid plans
func (s *BillingService) Plans(ctx context.Context) ([]Plan, error) {
	var plans []Plan
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/billing/plans", nil, nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// Info returns the caller's subscription state
func (s *BillingService) Info(ctx context.Context) (*BillingInfo, error) {
	var info BillingInfo
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/billing/info", nil, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Checkout opens a hosted checkout with a trial of planID
func (s *BillingService) Checkout(ctx context.Context, planID string) (*CheckoutSession, error) {
	req := map[string]string{"planId": planID}
	var session CheckoutSession
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/billing/checkout", nil, req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Cancel cancels the subscription. Content created during the trial is
// reverted to the trial-start snapshot.
func (s *BillingService) Cancel(ctx context.Context) error {
	return s.client.doRequest(ctx, http.MethodPost, "/api/v1/billing/cancel", nil, nil, nil)
}
