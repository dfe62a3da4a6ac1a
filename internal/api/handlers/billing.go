package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/pratik-mahalle/creatorhub/internal/api/dto"
	"github.com/pratik-mahalle/creatorhub/internal/domain/snapshot"
	"github.com/pratik-mahalle/creatorhub/internal/domain/subscription"
	"github.com/pratik-mahalle/creatorhub/internal/domain/user"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/errors"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/logger"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/utils"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/validator"
	"github.com/pratik-mahalle/creatorhub/internal/queue"
)

// maxWebhookBody caps provider payloads; Stripe events are well below it.
const maxWebhookBody = 64 << 10

// BillingHandler serves plans, checkout, cancellation and the provider webhook
type BillingHandler struct {
	users      user.Service
	controller subscription.Controller
	billing    subscription.BillingClient // nil when billing is not configured
	parser     subscription.EventParser   // nil when billing is not configured
	dispatcher queue.Dispatcher
	snapshots  snapshot.Reader
	trialDays  int
	logger     *logger.Logger
	validator  *validator.Validator
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(
	users user.Service,
	controller subscription.Controller,
	billing subscription.BillingClient,
	parser subscription.EventParser,
	dispatcher queue.Dispatcher,
	snapshots snapshot.Reader,
	trialDays int,
	log *logger.Logger,
	val *validator.Validator,
) *BillingHandler {
	if trialDays < 1 {
		trialDays = subscription.TrialDays
	}
	return &BillingHandler{
		users:      users,
		controller: controller,
		billing:    billing,
		parser:     parser,
		dispatcher: dispatcher,
		snapshots:  snapshots,
		trialDays:  trialDays,
		logger:     log,
		validator:  val,
	}
}

// ListPlans returns the plan catalogue
// @Summary List plans
// @Description Paid plans with the caller's current plan flagged
// @Tags Billing
// @Produce json
// @Success 200 {array} dto.PlanDTO "Plans"
// @Security BearerAuth
// @Router /billing/plans [get]
func (h *BillingHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	u, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}

	plans := make([]dto.PlanDTO, 0, len(subscription.Plans))
	for _, p := range subscription.Plans {
		plans = append(plans, dto.ToPlanDTO(p, u.SubscriptionTier, h.trialDays))
	}
	utils.WriteSuccess(w, http.StatusOK, plans)
}

// GetBillingInfo returns the caller's lifecycle state
// @Summary Billing info
// @Description Subscription state, trial window and whether a restore point exists
// @Tags Billing
// @Produce json
// @Success 200 {object} dto.BillingInfoDTO "Billing info"
// @Failure 401 {object} utils.ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /billing/info [get]
func (h *BillingHandler) GetBillingInfo(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	u, err := h.users.GetByID(ctx, userID)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}

	hasSnapshot := true
	if _, err := h.snapshots.GetActive(ctx, userID); err != nil {
		if !errors.IsCode(err, errors.ErrCodeNoActiveSnapshot) {
			utils.WriteErr(w, err)
			return
		}
		hasSnapshot = false
	}

	now := time.Now()
	state := subscription.StateOf(u, now)
	info := dto.BillingInfoDTO{
		State:               string(state),
		HasActiveSnapshot:   hasSnapshot,
		MonthlyContentLimit: u.MonthlyContentLimit,
	}
	for _, s := range subscription.ValidTransitionsFrom(state) {
		info.AvailableStates = append(info.AvailableStates, string(s))
	}

	tier := u.SubscriptionTier
	if u.TrialPlan != nil {
		tier = *u.TrialPlan
	}
	if plan, ok := subscription.PlanFor(tier); ok {
		p := dto.ToPlanDTO(plan, u.SubscriptionTier, h.trialDays)
		info.Plan = &p
	}
	if state == subscription.StateTrialing {
		trial, err := h.users.GetTrialStatus(ctx, userID)
		if err != nil {
			utils.WriteErr(w, err)
			return
		}
		info.TrialEndsAt = trial.EndsAt
		info.DaysRemaining = trial.DaysRemaining
	}

	utils.WriteSuccess(w, http.StatusOK, info)
}

// Checkout opens a hosted checkout with a trial for a paid plan
// @Summary Start checkout
// @Tags Billing
// @Accept json
// @Produce json
// @Param request body dto.CheckoutRequest true "Plan to trial"
// @Success 200 {object} dto.CheckoutResponse "Checkout session"
// @Failure 400 {object} utils.ErrorResponse "Validation error"
// @Failure 409 {object} utils.ErrorResponse "Already subscribed"
// @Failure 503 {object} utils.ErrorResponse "Billing not configured"
// @Security BearerAuth
// @Router /billing/checkout [post]
func (h *BillingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req dto.CheckoutRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	if h.billing == nil {
		utils.WriteError(w, errors.ServiceUnavailable("Billing is not configured"))
		return
	}

	ctx := r.Context()
	u, err := h.users.GetByID(ctx, userID)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}

	switch subscription.StateOf(u, time.Now()) {
	case subscription.StateTrialing, subscription.StateActive:
		utils.WriteError(w, errors.Conflict("Subscription already active"))
		return
	}

	tier, _ := user.ParseTier(req.PlanID)
	session, err := h.billing.CreateCheckoutSession(ctx, subscription.CheckoutRequest{
		UserID:      u.ID,
		Email:       u.Email,
		CustomerRef: u.BillingCustomerRef,
		Tier:        tier,
		TrialDays:   h.trialDays,
	})
	if err != nil {
		h.logger.WithFields(map[string]interface{}{
			"user_id": userID,
			"plan":    req.PlanID,
		}).ErrorWithErr(err, "Failed to create checkout session")
		utils.WriteErr(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.CheckoutResponse{
		SessionID: session.ID,
		URL:       session.URL,
	})
}

// Cancel cancels the caller's subscription and restores their content
// @Summary Cancel subscription
// @Description Cancels with the provider, then reverts content to the trial-start snapshot
// @Tags Billing
// @Produce json
// @Success 200 {object} utils.SuccessResponse "Cancelled"
// @Failure 409 {object} utils.ErrorResponse "Nothing to cancel"
// @Failure 500 {object} utils.ErrorResponse "Restore failed"
// @Failure 502 {object} utils.ErrorResponse "Billing provider error"
// @Security BearerAuth
// @Router /billing/cancel [post]
func (h *BillingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.controller.CancelSubscription(r.Context(), userID); err != nil {
		utils.WriteErr(w, err)
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Subscription cancelled", nil)
}

// Webhook receives signed billing provider events
// @Summary Billing webhook
// @Tags Billing
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Provider signature"
// @Success 200 {object} map[string]bool "Received"
// @Failure 400 {object} utils.ErrorResponse "Bad signature or payload"
// @Failure 500 {object} utils.ErrorResponse "Handling failed, provider retries"
// @Router /billing/webhook [post]
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	if h.parser == nil {
		utils.WriteError(w, errors.ServiceUnavailable("Billing is not configured"))
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	ev, err := h.parser.ParseEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.WarnWithErr(err, "Rejected billing webhook")
		utils.WriteErr(w, err)
		return
	}

	if err := h.dispatcher.Dispatch(r.Context(), ev); err != nil {
		h.logger.WithFields(map[string]interface{}{
			"event_id":   ev.ID,
			"event_type": ev.Type,
		}).ErrorWithErr(err, "Failed to handle billing event")
		utils.WriteError(w, errors.Internal("Failed to handle billing event", err))
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}
