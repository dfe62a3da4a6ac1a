package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/pratik-mahalle/creatorhub/internal/domain/subscription"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/logger"
)

// Handler processes billing event tasks
type Handler struct {
	ctrl   subscription.Controller
	logger *logger.Logger
}

// NewHandler creates a task handler
func NewHandler(ctrl subscription.Controller, log *logger.Logger) *Handler {
	return &Handler{ctrl: ctrl, logger: log}
}

// ProcessTask implements asynq.Handler. Errors from the controller are
// returned so asynq retries; a payload that cannot be decoded never will be.
func (h *Handler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var ev subscription.Event
	if err := json.Unmarshal(t.Payload(), &ev); err != nil {
		h.logger.ErrorWithErr(err, "Dropping undecodable billing task")
		return fmt.Errorf("decode billing event: %v: %w", err, asynq.SkipRetry)
	}

	return h.ctrl.HandleBillingEvent(ctx, &ev)
}

// Server runs the asynq worker for billing events
type Server struct {
	srv *asynq.Server
	mux *asynq.ServeMux
}

// NewServer creates a worker server bound to handler
func NewServer(redis asynq.RedisConnOpt, concurrency int, handler *Handler, log *logger.Logger) *Server {
	if concurrency < 1 {
		concurrency = 1
	}

	srv := asynq.NewServer(redis, asynq.Config{
		Concurrency: concurrency,
		Logger:      asynqLogger{log},
		LogLevel:    asynq.WarnLevel,
	})

	mux := asynq.NewServeMux()
	mux.Handle(TypeBillingEvent, handler)

	return &Server{srv: srv, mux: mux}
}

// Start begins processing in the background
func (s *Server) Start() error {
	return s.srv.Start(s.mux)
}

// Shutdown waits for in-flight tasks and stops the server
func (s *Server) Shutdown() {
	s.srv.Shutdown()
}

// asynqLogger adapts the application logger to asynq.Logger
type asynqLogger struct {
	l *logger.Logger
}

func (a asynqLogger) Debug(args ...interface{}) { a.l.Debug(fmt.Sprint(args...)) }
func (a asynqLogger) Info(args ...interface{})  { a.l.Info(fmt.Sprint(args...)) }
func (a asynqLogger) Warn(args ...interface{})  { a.l.Warn(fmt.Sprint(args...)) }
func (a asynqLogger) Error(args ...interface{}) { a.l.Error(fmt.Sprint(args...)) }
func (a asynqLogger) Fatal(args ...interface{}) { a.l.Fatal(fmt.Sprint(args...)) }
