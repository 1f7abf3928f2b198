package middleware

import (
	"net/http"
	"strings"

	"cinema-reviews/internal/data/entity"
	"cinema-reviews/internal/usecase"
	"cinema-reviews/pkg/apperror"
	"cinema-reviews/pkg/utils"

	"go.uber.org/zap"
)

// bearerToken returns the token from "Authorization: Bearer <token>". ok is
// false when the header is present but malformed.
func bearerToken(r *http.Request) (token string, present bool, ok bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false, true
	}

	scheme, value, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(value) == "" {
		return "", true, false
	}
	return strings.TrimSpace(value), true, true
}

// Auth rejects requests without a valid bearer token.
func Auth(auth usecase.AuthService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, present, ok := bearerToken(r)
			if !present {
				utils.ResponseUnauthorized(w, "Missing authorization token")
				return
			}
			if !ok {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}

			identity, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if appErr, isApp := apperror.As(err); isApp && appErr.Kind == apperror.KindUnauthenticated {
					logger.Debug("Authentication rejected",
						zap.String("path", r.URL.Path),
						zap.String("reason", appErr.Message))
					utils.ResponseUnauthorized(w, appErr.Message)
					return
				}
				logger.Error("Failed to authenticate request", zap.Error(err))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), identity)))
		})
	}
}

// OptionalAuth attaches an identity when a valid token is sent and lets
// every request through.
func OptionalAuth(auth usecase.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var principal usecase.Principal = usecase.Anonymous{}
			if token, present, ok := bearerToken(r); present && ok {
				principal = auth.AuthenticateOptional(r.Context(), token)
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// Admin must run after Auth.
func Admin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFromContext(r.Context())
			if _, err := usecase.RequireRole(principal, entity.RoleAdmin); err != nil {
				if apperror.KindOf(err) == apperror.KindUnauthenticated {
					utils.ResponseUnauthorized(w, "Authentication required")
					return
				}
				identity, _ := principal.(usecase.Identity)
				logger.Warn("Admin check: non-admin access attempt",
					zap.String("user_id", identity.UserID.String()),
					zap.String("path", r.URL.Path))
				utils.ResponseForbidden(w, "Admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
