// Package queue moves verified billing events from the webhook to the
// lifecycle controller, either inline or through asynq.
package queue

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/pratik-mahalle/creatorhub/internal/domain/subscription"
)

// TypeBillingEvent is the asynq task type for billing events
const TypeBillingEvent = "billing:event"

// Dispatcher hands a verified billing event to the controller
type Dispatcher interface {
	Dispatch(ctx context.Context, ev *subscription.Event) error
}

// Inline dispatches on the caller's goroutine
type Inline struct {
	ctrl subscription.Controller
}

// NewInline creates a dispatcher that calls ctrl directly
func NewInline(ctrl subscription.Controller) *Inline {
	return &Inline{ctrl: ctrl}
}

// Dispatch handles ev before returning
func (d *Inline) Dispatch(ctx context.Context, ev *subscription.Event) error {
	return d.ctrl.HandleBillingEvent(ctx, ev)
}

// NewBillingEventTask builds the task for ev. The event id doubles as the
// task id so a provider redelivery is dropped while the first copy is queued.
func NewBillingEventTask(ev *subscription.Event, maxRetry int) (*asynq.Task, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}

	opts := []asynq.Option{
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(time.Minute),
		asynq.Retention(24 * time.Hour),
	}
	if ev.ID != "" {
		opts = append(opts, asynq.TaskID(ev.ID))
	}
	return asynq.NewTask(TypeBillingEvent, payload, opts...), nil
}

// Client enqueues billing events to Redis
type Client struct {
	client   *asynq.Client
	maxRetry int
}

// NewClient creates an enqueuing dispatcher
func NewClient(redis asynq.RedisConnOpt, maxRetry int) *Client {
	return &Client{
		client:   asynq.NewClient(redis),
		maxRetry: maxRetry,
	}
}

// Dispatch enqueues ev. A duplicate of a task still pending is not an error.
func (c *Client) Dispatch(ctx context.Context, ev *subscription.Event) error {
	task, err := NewBillingEventTask(ev, c.maxRetry)
	if err != nil {
		return fmt.Errorf("encode billing event: %w", err)
	}

	_, err = c.client.EnqueueContext(ctx, task)
	if stderrors.Is(err, asynq.ErrTaskIDConflict) || stderrors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}
