package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/creatorhub/internal/api/dto"
	"github.com/pratik-mahalle/creatorhub/internal/domain/user"
	"github.com/pratik-mahalle/creatorhub/internal/repository/postgres"
	"github.com/pratik-mahalle/creatorhub/internal/services"
	"github.com/pratik-mahalle/creatorhub/internal/testutil"
)

// withURLParam routes the request through chi so URLParam resolves
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestContentHandler_LockedPostLifecycle(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)
	ctx := context.Background()

	repos := postgres.NewManager(db)
	log := testLogger()
	handler := NewContentHandler(services.NewContentService(repos.Content(), repos.Users(), log), log, testValidator())
	userID := testutil.SeedUser(t, db, "handler@example.com")

	create := func(body string) dto.PostDTO {
		rr := httptest.NewRecorder()
		handler.CreatePost(rr, newRequest(t, http.MethodPost, "/api/v1/content/posts",
			dto.CreatePostRequest{Platform: "instagram", Body: body}, userID))
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		var post dto.PostDTO
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rr).Data, &post))
		return post
	}

	first := create("before trial")
	assert.False(t, first.Locked)
	assert.Equal(t, "draft", first.Status)

	// trial opened after the first post and lapsed without conversion
	started := time.Now().Add(time.Second).Truncate(time.Second)
	ended := started.Add(time.Hour)
	pro := user.TierPro
	require.NoError(t, repos.Users().UpdateSubscription(ctx, userID, user.Subscription{
		Tier:           user.TierNone,
		TrialPlan:      &pro,
		TrialStartedAt: &started,
		TrialEndAt:     &ended,
	}))
	time.Sleep(time.Until(started))
	second := create("during trial")
	assert.True(t, second.Locked)

	t.Run("list flags locked posts", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ListPosts(rr, newRequest(t, http.MethodGet, "/api/v1/content/posts?page=1&page_size=10", nil, userID))
		require.Equal(t, http.StatusOK, rr.Code)

		var page struct {
			Items      []dto.PostDTO `json:"items"`
			TotalItems int64         `json:"total_items"`
		}
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rr).Data, &page))
		assert.EqualValues(t, 2, page.TotalItems)
		locked := map[string]bool{}
		for _, p := range page.Items {
			locked[p.ID] = p.Locked
		}
		assert.Equal(t, map[string]bool{first.ID: false, second.ID: true}, locked)
	})

	tests := []struct {
		name           string
		postID         string
		expectedStatus int
	}{
		{name: "locked post is read-only", postID: second.ID, expectedStatus: http.StatusForbidden},
		{name: "unlocked post is editable", postID: first.ID, expectedStatus: http.StatusOK},
		{name: "missing post", postID: "nope", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run("update "+tt.name, func(t *testing.T) {
			body := "edited"
			req := newRequest(t, http.MethodPut, "/api/v1/content/posts/"+tt.postID, dto.UpdatePostRequest{Body: &body}, userID)
			rr := httptest.NewRecorder()
			handler.UpdatePost(rr, withURLParam(req, "id", tt.postID))
			assert.Equal(t, tt.expectedStatus, rr.Code, rr.Body.String())
		})
	}

	t.Run("delete locked post", func(t *testing.T) {
		req := newRequest(t, http.MethodDelete, "/api/v1/content/posts/"+second.ID, nil, userID)
		rr := httptest.NewRecorder()
		handler.DeletePost(rr, withURLParam(req, "id", second.ID))
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("get locked post", func(t *testing.T) {
		req := newRequest(t, http.MethodGet, "/api/v1/content/posts/"+second.ID, nil, userID)
		rr := httptest.NewRecorder()
		handler.GetPost(rr, withURLParam(req, "id", second.ID))
		require.Equal(t, http.StatusOK, rr.Code)
		var post dto.PostDTO
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rr).Data, &post))
		assert.True(t, post.Locked)
	})
}

func TestContentHandler_CreatePostValidation(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repos := postgres.NewManager(db)
	log := testLogger()
	handler := NewContentHandler(services.NewContentService(repos.Content(), repos.Users(), log), log, testValidator())
	userID := testutil.SeedUser(t, db, "validate@example.com")

	tests := []struct {
		name           string
		req            dto.CreatePostRequest
		expectedStatus int
	}{
		{name: "unknown platform", req: dto.CreatePostRequest{Platform: "myspace", Body: "hi"}, expectedStatus: http.StatusBadRequest},
		{name: "empty body", req: dto.CreatePostRequest{Platform: "x"}, expectedStatus: http.StatusBadRequest},
		{name: "bad status", req: dto.CreatePostRequest{Platform: "x", Body: "hi", Status: "failed"}, expectedStatus: http.StatusBadRequest},
		{name: "scheduled post", req: dto.CreatePostRequest{Platform: "x", Body: "hi", Status: "scheduled"}, expectedStatus: http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			handler.CreatePost(rr, newRequest(t, http.MethodPost, "/api/v1/content/posts", tt.req, userID))
			assert.Equal(t, tt.expectedStatus, rr.Code, rr.Body.String())
		})
	}
}

func TestContentHandler_Analytics(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repos := postgres.NewManager(db)
	log := testLogger()
	handler := NewContentHandler(services.NewContentService(repos.Content(), repos.Users(), log), log, testValidator())
	userID := testutil.SeedUser(t, db, "analytics@example.com")

	rr := httptest.NewRecorder()
	handler.ListAnalytics(rr, newRequest(t, http.MethodGet, "/api/v1/content/analytics", nil, userID))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", string(decodeEnvelope(t, rr).Data))

	rr = httptest.NewRecorder()
	handler.RecordAnalytics(rr, newRequest(t, http.MethodPost, "/api/v1/content/analytics",
		dto.RecordAnalyticsRequest{Platform: "youtube", Metric: "views", Value: 1200}, userID))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = httptest.NewRecorder()
	handler.ListAnalytics(rr, newRequest(t, http.MethodGet, "/api/v1/content/analytics?platform=youtube", nil, userID))
	require.Equal(t, http.StatusOK, rr.Code)
	var records []map[string]interface{}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rr).Data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "views", records[0]["metric"])
}
