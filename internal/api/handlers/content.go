package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pratik-mahalle/creatorhub/internal/api/dto"
	"github.com/pratik-mahalle/creatorhub/internal/domain/content"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/logger"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/utils"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/validator"
)

// ContentHandler handles post and analytics requests
type ContentHandler struct {
	service   content.Service
	logger    *logger.Logger
	validator *validator.Validator
}

// NewContentHandler creates a new content handler
func NewContentHandler(service content.Service, log *logger.Logger, val *validator.Validator) *ContentHandler {
	return &ContentHandler{
		service:   service,
		logger:    log,
		validator: val,
	}
}

// ListPosts lists the caller's posts
// @Summary List posts
// @Description Paginated posts, each flagged with its lock status
// @Tags Content
// @Produce json
// @Param platform query string false "Filter by platform"
// @Param status query string false "Filter by status"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} utils.PaginatedResponse "Posts"
// @Security BearerAuth
// @Router /content/posts [get]
func (h *ContentHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	p := utils.ParsePaginationParams(r)
	filter := content.Filter{
		Platform: r.URL.Query().Get("platform"),
		Status:   r.URL.Query().Get("status"),
	}

	views, total, err := h.service.ListPosts(r.Context(), userID, filter, p.PageSize, p.Offset)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(dto.ToPostDTOs(views), p, total))
}

// GetPost returns one post
// @Summary Get post
// @Tags Content
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} dto.PostDTO "Post"
// @Failure 404 {object} utils.ErrorResponse "Not found"
// @Security BearerAuth
// @Router /content/posts/{id} [get]
func (h *ContentHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	view, err := h.service.GetPost(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteErr(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.ToPostDTO(*view))
}

// CreatePost creates a post
// @Summary Create post
// @Tags Content
// @Accept json
// @Produce json
// @Param request body dto.CreatePostRequest true "Post"
// @Success 201 {object} dto.PostDTO "Created"
// @Failure 400 {object} utils.ErrorResponse "Validation error"
// @Failure 402 {object} utils.ErrorResponse "Monthly limit reached"
// @Security BearerAuth
// @Router /content/posts [post]
func (h *ContentHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req dto.CreatePostRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	view, err := h.service.CreatePost(r.Context(), userID, content.CreatePostInput{
		Platform:    req.Platform,
		Body:        req.Body,
		MediaRef:    req.MediaRef,
		Status:      req.Status,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		utils.WriteErr(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, dto.ToPostDTO(*view))
}

// UpdatePost edits an unlocked post
// @Summary Update post
// @Tags Content
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param request body dto.UpdatePostRequest true "Fields to change"
// @Success 200 {object} dto.PostDTO "Updated"
// @Failure 403 {object} utils.ErrorResponse "Post is locked"
// @Failure 404 {object} utils.ErrorResponse "Not found"
// @Security BearerAuth
// @Router /content/posts/{id} [put]
func (h *ContentHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req dto.UpdatePostRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	view, err := h.service.UpdatePost(r.Context(), userID, chi.URLParam(r, "id"), content.UpdatePostInput{
		Body:        req.Body,
		MediaRef:    req.MediaRef,
		Status:      req.Status,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		utils.WriteErr(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.ToPostDTO(*view))
}

// DeletePost deletes an unlocked post
// @Summary Delete post
// @Tags Content
// @Param id path string true "Post ID"
// @Success 204 "Deleted"
// @Failure 403 {object} utils.ErrorResponse "Post is locked"
// @Failure 404 {object} utils.ErrorResponse "Not found"
// @Security BearerAuth
// @Router /content/posts/{id} [delete]
func (h *ContentHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.service.DeletePost(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		utils.WriteErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListAnalytics lists metric samples
// @Summary List analytics
// @Tags Content
// @Produce json
// @Param platform query string false "Filter by platform"
// @Success 200 {array} content.AnalyticsRecord "Samples"
// @Security BearerAuth
// @Router /content/analytics [get]
func (h *ContentHandler) ListAnalytics(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	records, err := h.service.ListAnalytics(r.Context(), userID, r.URL.Query().Get("platform"))
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	if records == nil {
		records = []*content.AnalyticsRecord{}
	}

	utils.WriteSuccess(w, http.StatusOK, records)
}

// RecordAnalytics stores a metric sample
// @Summary Record analytics
// @Tags Content
// @Accept json
// @Produce json
// @Param request body dto.RecordAnalyticsRequest true "Sample"
// @Success 201 {object} content.AnalyticsRecord "Recorded"
// @Failure 400 {object} utils.ErrorResponse "Validation error"
// @Security BearerAuth
// @Router /content/analytics [post]
func (h *ContentHandler) RecordAnalytics(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req dto.RecordAnalyticsRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	rec := &content.AnalyticsRecord{
		Platform: req.Platform,
		Metric:   req.Metric,
		Value:    req.Value,
	}
	if req.RecordedAt != nil {
		rec.RecordedAt = *req.RecordedAt
	}

	if err := h.service.RecordAnalytics(r.Context(), userID, rec); err != nil {
		utils.WriteErr(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, rec)
}
