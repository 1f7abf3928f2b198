package adaptor

import (
	"net/http"

	"cinema-reviews/internal/usecase"
	"cinema-reviews/pkg/middleware"
	"cinema-reviews/pkg/utils"

	"go.uber.org/zap"
)

type UserHandler struct {
	base
	service usecase.UserService
}

func NewUserHandler(service usecase.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{
		base:    newBase(log, "user"),
		service: service,
	}
}

// GetUser handles GET /api/users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err, "get user")
		return
	}

	utils.ResponseSuccess(w, "User retrieved successfully", user)
}

// DeleteUser handles DELETE /api/admin/users/{id}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	actor, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.DeleteUser(r.Context(), actor, id); err != nil {
		h.handleServiceError(w, err, "delete user")
		return
	}

	h.log.Info("User deleted by admin",
		zap.String("user_id", id.String()),
		zap.String("admin_id", actor.UserID.String()))

	utils.ResponseSuccess(w, "User deleted successfully", nil)
}
