package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/creatorhub/internal/api/middleware"
	"github.com/pratik-mahalle/creatorhub/internal/domain/user"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/logger"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/validator"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

func testValidator() *validator.Validator {
	return validator.New(validator.WithRule("tier", func(s string) bool {
		t, ok := user.ParseTier(s)
		return ok && t.IsPaid()
	}))
}

// newRequest builds a request authenticated as userID; an empty userID
// leaves it anonymous.
func newRequest(t *testing.T, method, target string, body interface{}, userID string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req = req.WithContext(middleware.WithUser(req.Context(), userID, userID+"@example.com"))
	}
	return req
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	return env
}

func seedUser(t *testing.T, repo user.Repository, email string, fn func(u *user.User)) *user.User {
	t.Helper()
	ctx := context.Background()
	u := &user.User{Email: email, PasswordHash: "x"}
	require.NoError(t, repo.Create(ctx, u))
	if fn != nil {
		fn(u)
		require.NoError(t, repo.UpdateSubscription(ctx, u.ID, u.Subscription()))
	}
	return u
}
