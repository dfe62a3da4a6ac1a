package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pratik-mahalle/creatorhub/internal/api/handlers"
	"github.com/pratik-mahalle/creatorhub/internal/auth"
	"github.com/pratik-mahalle/creatorhub/internal/config"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/logger"
	"github.com/pratik-mahalle/creatorhub/internal/queue"
	"github.com/pratik-mahalle/creatorhub/internal/services"
	"github.com/pratik-mahalle/creatorhub/internal/testutil"
)

func newTestRouter(t *testing.T) (http.Handler, *config.Config) {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{FrontendURL: "http://localhost:5173", Environment: "test"},
		Auth: config.AuthConfig{
			JWTSecret:          "router-secret",
			AccessTokenExpiry:  time.Minute,
			RefreshTokenExpiry: time.Hour,
		},
	}
	log := logger.Nop()
	users := services.NewUserService(testutil.NewMockUserRepository(), 4, log)
	ctrl := &testutil.MockController{}

	h := &Handlers{
		Health:   handlers.NewHealthHandler(nil, nil, log),
		Auth:     handlers.NewAuthHandler(users, cfg, log, nil),
		Billing:  handlers.NewBillingHandler(users, ctrl, nil, nil, queue.NewInline(ctrl), nil, 14, log, nil),
		Content:  handlers.NewContentHandler(nil, log, nil),
		Snapshot: handlers.NewSnapshotHandler(nil, &testutil.MockRestoreEngine{}, users, log),
	}
	return New(cfg, log, h), cfg
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	r, cfg := newTestRouter(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/auth/me"},
		{http.MethodGet, "/api/v1/billing/info"},
		{http.MethodPost, "/api/v1/billing/cancel"},
		{http.MethodGet, "/api/v1/content/posts"},
		{http.MethodPut, "/api/v1/content/posts/p1"},
		{http.MethodPost, "/api/v1/snapshots/restore"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(rt.method, rt.path, nil))
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}

	t.Run("refresh token is not an access token", func(t *testing.T) {
		pair, err := auth.MintTokens("user-1", "u@example.com", cfg.Auth.JWTSecret, time.Minute, time.Hour)
		assert.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/cancel", nil)
		req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestRouter_CancelWithAccessToken(t *testing.T) {
	r, cfg := newTestRouter(t)
	pair, err := auth.MintTokens("user-1", "u@example.com", cfg.Auth.JWTSecret, time.Minute, time.Hour)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/cancel", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestRouter_PublicRoutes(t *testing.T) {
	r, _ := newTestRouter(t)

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{name: "liveness", method: http.MethodGet, path: "/healthz", expectedStatus: http.StatusOK},
		{name: "metrics", method: http.MethodGet, path: "/metrics", expectedStatus: http.StatusOK},
		{name: "webhook without billing", method: http.MethodPost, path: "/api/v1/billing/webhook", expectedStatus: http.StatusServiceUnavailable},
		{name: "unknown route", method: http.MethodGet, path: "/api/v1/nope", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}
