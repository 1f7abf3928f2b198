package adaptor

import (
	"net/http"

	"cinema-reviews/internal/dto/request"
	"cinema-reviews/internal/usecase"
	"cinema-reviews/pkg/middleware"
	"cinema-reviews/pkg/utils"

	"go.uber.org/zap"
)

type AuthHandler struct {
	base
	service usecase.AuthService
}

func NewAuthHandler(service usecase.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		base:    newBase(log, "auth"),
		service: service,
	}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	response, err := h.service.Register(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err, "register")
		return
	}

	utils.ResponseCreated(w, "Registration successful", response)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	response, err := h.service.Login(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err, "login")
		return
	}

	utils.ResponseSuccess(w, "Login successful", response)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	response, err := h.service.Me(r.Context(), identity)
	if err != nil {
		h.handleServiceError(w, err, "get current user")
		return
	}

	utils.ResponseSuccess(w, "User retrieved successfully", response)
}
