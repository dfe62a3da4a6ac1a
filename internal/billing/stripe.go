// Package billing adapts the Stripe API to the subscription domain.
package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/pratik-mahalle/creatorhub/internal/config"
	"github.com/pratik-mahalle/creatorhub/internal/domain/subscription"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/errors"
)

// Stripe event types translated by ParseEvent
const (
	stripeCheckoutCompleted   = "checkout.session.completed"
	stripeSubscriptionUpdated = "customer.subscription.updated"
	stripeSubscriptionDeleted = "customer.subscription.deleted"
)

// StripeClient implements subscription.BillingClient and
// subscription.EventParser on an explicitly constructed API client.
type StripeClient struct {
	api           *client.API
	webhookSecret string
	priceIDs      map[string]string
	trialDays     int
	successURL    string
	cancelURL     string
}

// NewStripeClient creates a client from billing config. backends may be nil
// to talk to the live Stripe API.
func NewStripeClient(cfg config.BillingConfig, backends *stripe.Backends) *StripeClient {
	api := &client.API{}
	api.Init(cfg.StripeSecretKey, backends)

	trialDays := cfg.TrialDays
	if trialDays < 1 {
		trialDays = subscription.TrialDays
	}

	return &StripeClient{
		api:           api,
		webhookSecret: cfg.StripeWebhookSecret,
		priceIDs:      cfg.PriceIDs,
		trialDays:     trialDays,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
	}
}

// CancelSubscription cancels the subscription immediately
func (c *StripeClient) CancelSubscription(ctx context.Context, subscriptionRef string) error {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx

	_, err := c.api.Subscriptions.Cancel(subscriptionRef, params)
	if isMissing(err) {
		// already gone at the provider
		return nil
	}
	return err
}

// CreateCheckoutSession starts a subscription checkout with a trial. The user
// id and plan travel as metadata on both the session and the subscription so
// every later event can be matched back.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, req subscription.CheckoutRequest) (*subscription.CheckoutSession, error) {
	priceID := c.priceIDs[string(req.Tier)]
	if priceID == "" {
		return nil, errors.ServiceUnavailable(fmt.Sprintf("No price configured for plan %s", req.Tier))
	}

	trialDays := req.TrialDays
	if trialDays < 1 {
		trialDays = c.trialDays
	}

	metadata := map[string]string{
		"userId":   req.UserID,
		"planType": string(req.Tier),
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		ClientReferenceID: stripe.String(req.UserID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			TrialPeriodDays: stripe.Int64(int64(trialDays)),
			Metadata:        metadata,
		},
		SuccessURL: stripe.String(c.successURL),
		CancelURL:  stripe.String(c.cancelURL),
	}
	params.Context = ctx
	params.Metadata = metadata
	if req.CustomerRef != nil && *req.CustomerRef != "" {
		params.Customer = req.CustomerRef
	} else if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, errors.BillingProviderError(err)
	}

	return &subscription.CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// ParseEvent verifies the Stripe-Signature header and translates the event.
// Event types with no domain meaning keep their Stripe name so the
// controller can report them as unknown.
func (c *StripeClient) ParseEvent(payload []byte, signature string) (*subscription.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return nil, errors.InvalidSignature(err)
	}

	ev := &subscription.Event{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil {
		return ev, nil
	}

	switch string(event.Type) {
	case stripeCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, errors.BadRequest("Invalid checkout session payload")
		}
		ev.Type = subscription.EventCheckoutCompleted
		ev.Metadata = metadataOf(sess.Metadata)
		if ev.Metadata.UserID == "" {
			ev.Metadata.UserID = sess.ClientReferenceID
		}
		if sess.Customer != nil {
			ev.CustomerRef = sess.Customer.ID
		}
		if sess.Subscription != nil {
			ev.SubscriptionRef = sess.Subscription.ID
		}

	case stripeSubscriptionUpdated, stripeSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, errors.BadRequest("Invalid subscription payload")
		}
		ev.Type = subscription.EventSubscriptionUpdated
		if string(event.Type) == stripeSubscriptionDeleted {
			ev.Type = subscription.EventSubscriptionDeleted
		}
		ev.SubscriptionRef = sub.ID
		ev.Status = string(sub.Status)
		ev.Metadata = metadataOf(sub.Metadata)
		if sub.Customer != nil {
			ev.CustomerRef = sub.Customer.ID
		}
		if sub.TrialEnd > 0 {
			t := time.Unix(sub.TrialEnd, 0)
			ev.TrialEnd = &t
		}
	}

	return ev, nil
}

func metadataOf(m map[string]string) subscription.Metadata {
	return subscription.Metadata{
		UserID:   m["userId"],
		PlanType: m["planType"],
	}
}

func isMissing(err error) bool {
	stripeErr, ok := err.(*stripe.Error)
	return ok && stripeErr.Code == stripe.ErrorCodeResourceMissing
}
