package handlers

import (
	"net/http"

	"github.com/pratik-mahalle/creatorhub/internal/api/dto"
	"github.com/pratik-mahalle/creatorhub/internal/domain/snapshot"
	"github.com/pratik-mahalle/creatorhub/internal/domain/user"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/errors"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/logger"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/utils"
)

// SnapshotHandler exposes snapshot history and the owner-triggered restore
type SnapshotHandler struct {
	snapshots snapshot.Reader
	restore   snapshot.RestoreEngine
	users     user.Service
	logger    *logger.Logger
}

// NewSnapshotHandler creates a new snapshot handler
func NewSnapshotHandler(snapshots snapshot.Reader, restore snapshot.RestoreEngine, users user.Service, log *logger.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		snapshots: snapshots,
		restore:   restore,
		users:     users,
		logger:    log,
	}
}

// List returns the caller's snapshot history, newest first
// @Summary List snapshots
// @Tags Snapshots
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} utils.PaginatedResponse "Snapshots"
// @Security BearerAuth
// @Router /snapshots [get]
func (h *SnapshotHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	p := utils.ParsePaginationParams(r)
	snaps, total, err := h.snapshots.List(r.Context(), userID, p.PageSize, p.Offset)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}

	items := make([]dto.SnapshotDTO, 0, len(snaps))
	for _, s := range snaps {
		items = append(items, dto.ToSnapshotDTO(s))
	}
	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(items, p, total))
}

// GetActive returns the unconsumed snapshot
// @Summary Active snapshot
// @Tags Snapshots
// @Produce json
// @Success 200 {object} dto.SnapshotDTO "Active snapshot"
// @Failure 404 {object} utils.ErrorResponse "No active snapshot"
// @Security BearerAuth
// @Router /snapshots/active [get]
func (h *SnapshotHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	snap, err := h.snapshots.GetActive(r.Context(), userID)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.ToSnapshotDTO(snap))
}

// Restore reverts the caller's content to the active snapshot. Only allowed
// once the caller no longer holds a paid tier.
// @Summary Restore snapshot
// @Tags Snapshots
// @Produce json
// @Success 200 {object} dto.RestoreResponse "Restored"
// @Failure 404 {object} utils.ErrorResponse "No active snapshot"
// @Failure 409 {object} utils.ErrorResponse "Subscription still active"
// @Failure 500 {object} utils.ErrorResponse "Restore failed"
// @Security BearerAuth
// @Router /snapshots/restore [post]
func (h *SnapshotHandler) Restore(w http.ResponseWriter, r *http.Request) {
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
	if u.HasActiveSubscription() {
		utils.WriteError(w, errors.Conflict("Cancel the subscription before restoring"))
		return
	}

	result, err := h.restore.Restore(ctx, userID)
	if err != nil {
		h.logger.WithFields(map[string]interface{}{
			"user_id": userID,
		}).WarnWithErr(err, "Owner restore failed")
		utils.WriteErr(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.ToRestoreResponse(result))
}
