package adaptor

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"cinema-reviews/internal/dto/request"
	"cinema-reviews/internal/dto/response"
	"cinema-reviews/internal/usecase"
	"cinema-reviews/pkg/middleware"
	"cinema-reviews/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReviewHandler struct {
	base
	service usecase.ReviewService
	listing usecase.ListingService
}

func NewReviewHandler(service usecase.ReviewService, listing usecase.ListingService, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		base:    newBase(log, "review"),
		service: service,
		listing: listing,
	}
}

// CreateReview handles POST /api/reviews (protected)
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.ReviewRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	review, err := h.service.CreateReview(r.Context(), actor, &req)
	if err != nil {
		h.handleServiceError(w, err, "create review")
		return
	}

	utils.ResponseCreated(w, "Review submitted for moderation", review)
}

// GetReview handles GET /api/reviews/{id} (optional auth)
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	review, err := h.service.GetReview(r.Context(), middleware.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.handleServiceError(w, err, "get review")
		return
	}

	utils.ResponseSuccess(w, "Review retrieved successfully", review)
}

// UpdateReview handles PUT /api/reviews/{id} (owner only)
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req request.ReviewRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	review, err := h.service.UpdateReview(r.Context(), actor, id, &req)
	if err != nil {
		h.handleServiceError(w, err, "update review")
		return
	}

	utils.ResponseSuccess(w, "Review updated and sent for moderation", review)
}

// DeleteReview handles DELETE /api/reviews/{id} (owner only)
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteReview(r.Context(), actor, id); err != nil {
		h.handleServiceError(w, err, "delete review")
		return
	}

	utils.ResponseSuccess(w, "Review deleted successfully", nil)
}

// ApproveReview handles POST /api/reviews/{id}/approve (admin)
func (h *ReviewHandler) ApproveReview(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, "approve review", h.service.ApproveReview, "Review approved")
}

// RejectReview handles POST /api/reviews/{id}/reject (admin)
func (h *ReviewHandler) RejectReview(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, "reject review", h.service.RejectReview, "Review rejected")
}

type moderateFunc func(ctx context.Context, actor usecase.Identity, id uuid.UUID) (*response.ReviewResponse, error)

func (h *ReviewHandler) moderate(w http.ResponseWriter, r *http.Request, operation string, decide moderateFunc, message string) {
	actor, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	review, err := decide(r.Context(), actor, id)
	if err != nil {
		h.handleServiceError(w, err, operation)
		return
	}

	h.log.Info(message,
		zap.String("review_id", id.String()),
		zap.String("admin_id", actor.UserID.String()))

	utils.ResponseSuccess(w, message, review)
}

// ToggleLike handles POST /api/reviews/{id}/like (protected)
func (h *ReviewHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	result, err := h.service.ToggleLike(r.Context(), actor, id)
	if err != nil {
		h.handleServiceError(w, err, "toggle like")
		return
	}

	utils.ResponseSuccess(w, "Like toggled", result)
}

// ListPublic handles GET /api/reviews/public (optional auth)
func (h *ReviewHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	query, ok := h.listQuery(w, r.URL.Query(), true)
	if !ok {
		return
	}

	page, err := h.listing.ListPublic(r.Context(), middleware.PrincipalFromContext(r.Context()), query)
	if err != nil {
		h.handleServiceError(w, err, "list public reviews")
		return
	}

	utils.ResponseSuccess(w, "Reviews retrieved successfully", page)
}

// ListOwn handles GET /api/reviews/my (protected)
func (h *ReviewHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	query, ok := h.listQuery(w, r.URL.Query(), false)
	if !ok {
		return
	}

	page, err := h.listing.ListOwn(r.Context(), actor, query)
	if err != nil {
		h.handleServiceError(w, err, "list own reviews")
		return
	}

	utils.ResponseSuccess(w, "Reviews retrieved successfully", page)
}

// ListModeration handles GET /api/reviews/moderation (admin)
func (h *ReviewHandler) ListModeration(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	paging, ok := h.pageQuery(w, r.URL.Query())
	if !ok {
		return
	}

	page, err := h.listing.ListModeration(r.Context(), actor, &paging)
	if err != nil {
		h.handleServiceError(w, err, "list moderation queue")
		return
	}

	utils.ResponseSuccess(w, "Reviews retrieved successfully", page)
}

// pageQuery parses page and limit. Range checks are left to the service.
func (h *ReviewHandler) pageQuery(w http.ResponseWriter, values url.Values) (request.PaginatedRequest, bool) {
	paging := request.NewPaginatedRequest()
	errs := make(map[string]string)

	page, err := utils.ParseQueryInt(values.Get("page"), request.DefaultPage)
	if err != nil {
		errs["page"] = "must be an integer"
	}
	limit, err := utils.ParseQueryInt(values.Get("limit"), request.DefaultLimit)
	if err != nil {
		errs["limit"] = "must be an integer"
	}

	if len(errs) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", errs)
		return paging, false
	}

	paging.Page = page
	paging.Limit = limit
	return paging, true
}

func (h *ReviewHandler) listQuery(w http.ResponseWriter, values url.Values, withAuthor bool) (*request.ReviewListQuery, bool) {
	paging, ok := h.pageQuery(w, values)
	if !ok {
		return nil, false
	}

	query := &request.ReviewListQuery{
		PaginatedRequest: paging,
		Sort:             strings.TrimSpace(values.Get("sort")),
		Order:            strings.ToLower(strings.TrimSpace(values.Get("order"))),
		Search:           strings.TrimSpace(values.Get("search")),
	}

	if withAuthor {
		authorID, err := utils.ParseOptionalUUID(values.Get("author_id"))
		if err != nil {
			utils.ResponseBadRequest(w, "Validation failed", map[string]string{"author_id": "must be a valid UUID"})
			return nil, false
		}
		query.AuthorID = authorID
	}

	return query, true
}
