package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/creatorhub/internal/domain/content"
	"github.com/pratik-mahalle/creatorhub/internal/repository"
	"github.com/pratik-mahalle/creatorhub/internal/testutil"
)

func TestContentRepository_CRUD(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := NewContentRepository(db)
	ctx := context.Background()
	userID := testutil.SeedUser(t, db, "creator@example.com")
	other := testutil.SeedUser(t, db, "other@example.com")

	p := &content.Post{UserID: userID, Platform: "instagram", Body: "hello", MediaRef: strPtr("m/1.jpg")}
	require.NoError(t, repo.CreatePost(ctx, p))
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, content.StatusDraft, p.Status)

	got, err := repo.GetPost(ctx, userID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Body)
	assert.Equal(t, "m/1.jpg", *got.MediaRef)

	_, err = repo.GetPost(ctx, other, p.ID)
	assert.Error(t, err, "posts are scoped to their owner")

	got.Body = "edited"
	got.Status = content.StatusPublished
	require.NoError(t, repo.UpdatePost(ctx, got))

	got, err = repo.GetPost(ctx, userID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Body)
	assert.Equal(t, content.StatusPublished, got.Status)

	require.NoError(t, repo.DeletePost(ctx, userID, p.ID))
	assert.Error(t, repo.DeletePost(ctx, userID, p.ID))
}

func TestContentRepository_ListPostsFilters(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := NewContentRepository(db)
	ctx := context.Background()
	userID := testutil.SeedUser(t, db, "creator@example.com")

	for _, p := range []*content.Post{
		{UserID: userID, Platform: "instagram", Body: "a", Status: content.StatusDraft},
		{UserID: userID, Platform: "instagram", Body: "b", Status: content.StatusPublished},
		{UserID: userID, Platform: "tiktok", Body: "c", Status: content.StatusPublished},
	} {
		require.NoError(t, repo.CreatePost(ctx, p))
	}

	tests := []struct {
		name   string
		filter content.Filter
		want   int64
	}{
		{"all", content.Filter{}, 3},
		{"platform", content.Filter{Platform: "instagram"}, 2},
		{"status", content.Filter{Status: content.StatusPublished}, 2},
		{"both", content.Filter{Platform: "tiktok", Status: content.StatusPublished}, 1},
		{"none", content.Filter{Platform: "youtube"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, total, err := repo.ListPosts(ctx, userID, tt.filter, 10, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, total)
			assert.Len(t, posts, int(tt.want))
		})
	}

	posts, total, err := repo.ListPosts(ctx, userID, content.Filter{}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, posts, 1)
}

func TestContentRepository_DeleteExceptAndUpsert(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := NewContentRepository(db)
	ctx := context.Background()
	userID := testutil.SeedUser(t, db, "creator@example.com")
	other := testutil.SeedUser(t, db, "other@example.com")

	keep := &content.Post{UserID: userID, Platform: "x", Body: "keep"}
	drop := &content.Post{UserID: userID, Platform: "x", Body: "drop"}
	foreign := &content.Post{UserID: other, Platform: "x", Body: "not mine"}
	for _, p := range []*content.Post{keep, drop, foreign} {
		require.NoError(t, repo.CreatePost(ctx, p))
	}

	n, err := repo.DeletePostsExcept(ctx, userID, []string{keep.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, testutil.CountRows(t, db, "content_posts", "user_id = $1", userID))
	assert.Equal(t, 1, testutil.CountRows(t, db, "content_posts", "user_id = $1", other))

	created := time.Unix(1600000000, 0)
	restored := []*content.Post{
		{ID: keep.ID, UserID: userID, Platform: "x", Body: "original", Status: content.StatusDraft,
			Likes: 7, CreatedAt: created, UpdatedAt: created},
		{ID: drop.ID, UserID: userID, Platform: "x", Body: "drop", Status: content.StatusDraft,
			CreatedAt: created, UpdatedAt: created},
	}
	require.NoError(t, repo.UpsertPosts(ctx, restored))

	all, err := repo.AllPosts(ctx, userID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, p := range all {
		assert.True(t, p.CreatedAt.Equal(created), "created_at is restored verbatim")
		if p.ID == keep.ID {
			assert.Equal(t, "original", p.Body)
			assert.Equal(t, int64(7), p.Likes)
		}
	}

	n, err = repo.DeletePostsExcept(ctx, userID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestContentRepository_Analytics(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := NewContentRepository(db)
	ctx := context.Background()
	userID := testutil.SeedUser(t, db, "creator@example.com")

	require.NoError(t, repo.CreateAnalytics(ctx, &content.AnalyticsRecord{UserID: userID, Platform: "x", Metric: "followers", Value: 10}))
	require.NoError(t, repo.CreateAnalytics(ctx, &content.AnalyticsRecord{UserID: userID, Platform: "tiktok", Metric: "views", Value: 99.5}))

	all, err := repo.ListAnalytics(ctx, userID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	tiktok, err := repo.ListAnalytics(ctx, userID, "tiktok")
	require.NoError(t, err)
	require.Len(t, tiktok, 1)
	assert.Equal(t, 99.5, tiktok[0].Value)

	tiktok[0].Value = 1
	require.NoError(t, repo.UpsertAnalytics(ctx, tiktok))
	n, err := repo.DeleteAnalyticsExcept(ctx, userID, []string{tiktok[0].ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := repo.AllAnalytics(ctx, userID)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, float64(1), left[0].Value)
}

func TestContentRepository_CountPostsSince(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := NewContentRepository(db)
	ctx := context.Background()
	userID := testutil.SeedUser(t, db, "creator@example.com")

	old := time.Now().AddDate(0, -2, 0)
	require.NoError(t, repo.UpsertPosts(ctx, []*content.Post{
		{ID: "old", UserID: userID, Platform: "x", Body: "old", Status: content.StatusDraft, CreatedAt: old, UpdatedAt: old},
	}))
	require.NoError(t, repo.CreatePost(ctx, &content.Post{UserID: userID, Platform: "x", Body: "new"}))

	n, err := repo.CountPostsSince(ctx, userID, time.Now().AddDate(0, -1, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestContentRepository_DeleteExceptLargeKeepSet(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	ctx := context.Background()
	userID := testutil.SeedUser(t, db, "creator@example.com")
	mgr := NewManager(db)

	keep := &content.Post{UserID: userID, Platform: "x", Body: "keep"}
	drop := &content.Post{UserID: userID, Platform: "x", Body: "drop"}
	for _, p := range []*content.Post{keep, drop} {
		require.NoError(t, mgr.Content().CreatePost(ctx, p))
	}

	// well past the 65535 bind parameter ceiling of postgres and sqlite
	ids := make([]string, 0, 70000)
	ids = append(ids, keep.ID)
	for i := 0; i < 69999; i++ {
		ids = append(ids, fmt.Sprintf("missing-%d", i))
	}

	var n int64
	err := mgr.WithTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		var err error
		n, err = tx.Content().DeletePostsExcept(ctx, userID, ids)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := mgr.Content().AllPosts(ctx, userID)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, keep.ID, left[0].ID)
}
