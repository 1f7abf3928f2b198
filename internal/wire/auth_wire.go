package wire

import (
	"cinema-reviews/internal/adaptor"
	"cinema-reviews/internal/usecase"
	"cinema-reviews/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAuth(
	r chi.Router,
	authHandler *adaptor.AuthHandler,
	auth usecase.AuthService,
	log *zap.Logger,
) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)

		r.With(middleware.Auth(auth, log)).Get("/me", authHandler.Me)
	})
}
