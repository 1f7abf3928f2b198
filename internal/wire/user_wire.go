package wire

import (
	"cinema-reviews/internal/adaptor"
	"cinema-reviews/internal/usecase"
	"cinema-reviews/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// wireUser configures public profiles and admin user management.
func wireUser(
	r chi.Router,
	userHandler *adaptor.UserHandler,
	auth usecase.AuthService,
	log *zap.Logger,
) {
	r.Get("/api/users/{id}", userHandler.GetUser)

	r.With(
		middleware.Auth(auth, log),
		middleware.Admin(log),
	).Route("/api/admin/users", func(r chi.Router) {
		r.Delete("/{id}", userHandler.DeleteUser)
	})
}
