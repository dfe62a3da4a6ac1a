package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// SnapshotService reads snapshot history and triggers restores
type SnapshotService struct {
	client *Client
}

// List retrieves the snapshot history, newest first
func (s *SnapshotService) List(ctx context.Context, opts *ListOptions) (*Page[Snapshot], error) {
	query := url.Values{}
	if opts != nil {
		if opts.Page > 0 {
			query.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PageSize > 0 {
			query.Set("page_size", strconv.Itoa(opts.PageSize))
		}
	}

	var page Page[Snapshot]
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/snapshots", query, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Active returns the unconsumed snapshot. A 404 APIError with code
// NO_ACTIVE_SNAPSHOT means there is nothing to restore.
func (s *SnapshotService) Active(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/snapshots/active", nil, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Restore reverts content to the active snapshot
func (s *SnapshotService) Restore(ctx context.Context) (*RestoreResult, error) {
	var result RestoreResult
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/snapshots/restore", nil, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
