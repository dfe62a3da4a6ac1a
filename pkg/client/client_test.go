package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/"})
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "data": data})
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   map[string]string{"code": code, "message": msg},
	})
}

func TestClient_LoginStoresAccessToken(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			var req LoginRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "creator@example.com", req.Email)
			writeData(w, http.StatusOK, LoginResponse{
				AccessToken:  "access-1",
				RefreshToken: "refresh-1",
				User:         &User{ID: "u1", Email: req.Email, SubscriptionTier: "none"},
			})
		case "/api/v1/auth/me":
			assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
			writeData(w, http.StatusOK, User{ID: "u1", Email: "creator@example.com"})
		default:
			http.NotFound(w, r)
		}
	})

	resp, err := c.Login(context.Background(), "creator@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "access-1", c.GetToken())
	assert.Equal(t, "u1", resp.User.ID)

	me, err := c.GetCurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "creator@example.com", me.Email)
}

func TestClient_ErrorEnvelope(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/content/posts/p1":
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Post is locked until you subscribe")
		case "/api/v1/snapshots/active":
			writeError(w, http.StatusNotFound, "NO_ACTIVE_SNAPSHOT", "No active snapshot to restore")
		default:
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("upstream down"))
		}
	})
	ctx := context.Background()

	body := "edit"
	_, err := c.Posts().Update(ctx, "p1", UpdatePostRequest{Body: &body})
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.True(t, apiErr.IsForbidden())
	assert.Equal(t, "FORBIDDEN", apiErr.Code)

	_, err = c.Snapshots().Active(ctx)
	apiErr, ok = AsAPIError(err)
	require.True(t, ok)
	assert.True(t, apiErr.IsNotFound())
	assert.Equal(t, "NO_ACTIVE_SNAPSHOT", apiErr.Code)

	err = c.Billing().Cancel(ctx)
	apiErr, ok = AsAPIError(err)
	require.True(t, ok)
	assert.True(t, apiErr.IsServerError())
	assert.Equal(t, "upstream down", apiErr.Message)
}

func TestPostService_ListQuery(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/content/posts", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "5", q.Get("page_size"))
		assert.Equal(t, "tiktok", q.Get("platform"))
		assert.Empty(t, q.Get("status"))
		writeData(w, http.StatusOK, map[string]interface{}{
			"items":       []Post{{ID: "p1", Platform: "tiktok", Locked: true}},
			"page":        2,
			"page_size":   5,
			"total_items": 6,
			"total_pages": 2,
		})
	})

	page, err := c.Posts().List(context.Background(), &PostListOptions{
		ListOptions: ListOptions{Page: 2, PageSize: 5},
		Platform:    "tiktok",
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.True(t, page.Items[0].Locked)
	assert.EqualValues(t, 6, page.TotalItems)
}

func TestBillingService_CheckoutAndRestore(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/billing/checkout":
			var req map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "pro", req["planId"])
			writeData(w, http.StatusOK, CheckoutSession{SessionID: "cs_1", URL: "https://checkout.test/pro"})
		case "/api/v1/snapshots/restore":
			assert.Equal(t, http.MethodPost, r.Method)
			writeData(w, http.StatusOK, RestoreResult{SnapshotID: "snap-1", RestoredPosts: 3, DeletedPosts: 2})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	session, err := c.Billing().Checkout(ctx, "pro")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.test/pro", session.URL)

	result, err := c.Snapshots().Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, result.RestoredPosts)
	assert.EqualValues(t, 2, result.DeletedPosts)
}
