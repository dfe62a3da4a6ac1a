package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/pratik-mahalle/creatorhub/internal/api/handlers"
	"github.com/pratik-mahalle/creatorhub/internal/api/middleware"
	"github.com/pratik-mahalle/creatorhub/internal/config"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/logger"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/metrics"
)

type Handlers struct {
	Health   *handlers.HealthHandler
	Auth     *handlers.AuthHandler
	Billing  *handlers.BillingHandler
	Content  *handlers.ContentHandler
	Snapshot *handlers.SnapshotHandler
}

func New(cfg *config.Config, log *logger.Logger, h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(metrics.Middleware)
	r.Use(middleware.SecurityHeaders(cfg.Server.Environment == "production"))
	r.Use(middleware.DefaultCORS(cfg.Server.FrontendURL))

	// Probes and scraping stay outside the rate limiter
	r.Get("/health", h.Health.Healthz)
	r.Get("/healthz", h.Health.Healthz)
	r.Get("/readyz", h.Health.Readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(100, 200)) // 100 req/sec, burst of 200

		// Public routes
		r.Get("/swagger/*", httpSwagger.WrapHandler)
		r.Post("/api/v1/auth/register", h.Auth.Register)
		r.Post("/api/v1/auth/login", h.Auth.Login)
		r.Post("/api/v1/auth/refresh", h.Auth.Refresh)
		r.Post("/api/v1/auth/logout", h.Auth.Logout)
		r.Post("/api/v1/billing/webhook", h.Billing.Webhook)

		// Protected routes (require authentication)
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret))

			r.Get("/api/v1/auth/me", h.Auth.Me)
			r.Patch("/api/v1/auth/me", h.Auth.UpdateProfile)

			r.Route("/api/v1/billing", func(r chi.Router) {
				r.Get("/plans", h.Billing.ListPlans)
				r.Get("/info", h.Billing.GetBillingInfo)
				r.Post("/checkout", h.Billing.Checkout)
				r.Post("/cancel", h.Billing.Cancel)
			})

			r.Route("/api/v1/content", func(r chi.Router) {
				r.Get("/posts", h.Content.ListPosts)
				r.Post("/posts", h.Content.CreatePost)
				r.Get("/posts/{id}", h.Content.GetPost)
				r.Put("/posts/{id}", h.Content.UpdatePost)
				r.Delete("/posts/{id}", h.Content.DeletePost)
				r.Get("/analytics", h.Content.ListAnalytics)
				r.Post("/analytics", h.Content.RecordAnalytics)
			})

			r.Route("/api/v1/snapshots", func(r chi.Router) {
				r.Get("/", h.Snapshot.List)
				r.Get("/active", h.Snapshot.GetActive)
				r.Post("/restore", h.Snapshot.Restore)
			})
		})
	})

	return r
}
