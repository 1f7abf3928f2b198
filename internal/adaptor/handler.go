package adaptor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"cinema-reviews/internal/usecase"
	"cinema-reviews/pkg/apperror"
	"cinema-reviews/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	Auth   *AuthHandler
	User   *UserHandler
	Review *ReviewHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:   NewAuthHandler(service.Auth, log),
		User:   NewUserHandler(service.User, log),
		Review: NewReviewHandler(service.Review, service.Listing, log),
	}
}

// base carries what every handler shares.
type base struct {
	log *zap.Logger
}

func newBase(log *zap.Logger, name string) base {
	return base{log: log.With(zap.String("handler", name))}
}

// decodeJSON reads a single JSON object from the body. On failure it has
// already written the 400.
func (b base) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			utils.ResponseBadRequest(w, "Request body is empty", nil)
			return false
		}
		b.log.Debug("Invalid request body", zap.Error(err))
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}
	return true
}

// pathID parses the {id} URL parameter.
func (b base) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid ID format", map[string]string{"id": "must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

// handleServiceError maps an error kind to its status. Only the message of a
// classified error reaches the client.
func (b base) handleServiceError(w http.ResponseWriter, err error, operation string) {
	appErr, ok := apperror.As(err)
	if !ok {
		b.log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	switch appErr.Kind {
	case apperror.KindUnauthenticated:
		b.log.Warn(operation+" failed - unauthenticated", zap.Error(err))
		utils.ResponseUnauthorized(w, appErr.Message)

	case apperror.KindForbidden:
		b.log.Warn(operation+" failed - forbidden", zap.Error(err))
		utils.ResponseForbidden(w, appErr.Message)

	case apperror.KindNotFound:
		b.log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, appErr.Message)

	case apperror.KindInvalidState:
		b.log.Warn(operation+" failed - invalid state", zap.Error(err))
		utils.ResponseBadRequest(w, appErr.Message, nil)

	case apperror.KindConflict:
		b.log.Warn(operation+" failed - conflict", zap.Error(err))
		utils.ResponseConflict(w, appErr.Message)

	case apperror.KindValidation:
		b.log.Warn(operation+" validation failed", zap.String("errors", utils.FormatValidationErrors(appErr.Fields)))
		utils.ResponseBadRequest(w, "Validation failed", appErr.Fields)

	default:
		b.log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
