package wire

import (
	"cinema-reviews/internal/adaptor"
	"cinema-reviews/internal/usecase"
	"cinema-reviews/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireReview(
	r chi.Router,
	reviewHandler *adaptor.ReviewHandler,
	auth usecase.AuthService,
	log *zap.Logger,
) {
	requireAuth := middleware.Auth(auth, log)
	optionalAuth := middleware.OptionalAuth(auth)
	requireAdmin := middleware.Admin(log)

	r.Route("/api/reviews", func(r chi.Router) {
		// Fixed paths go before /{id}.
		r.With(optionalAuth).Get("/public", reviewHandler.ListPublic)
		r.With(requireAuth).Get("/my", reviewHandler.ListOwn)
		r.With(requireAuth, requireAdmin).Get("/moderation", reviewHandler.ListModeration)

		r.With(requireAuth).Post("/", reviewHandler.CreateReview)

		r.Route("/{id}", func(r chi.Router) {
			r.With(optionalAuth).Get("/", reviewHandler.GetReview)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Put("/", reviewHandler.UpdateReview)
				r.Delete("/", reviewHandler.DeleteReview)
				r.Post("/like", reviewHandler.ToggleLike)

				r.With(requireAdmin).Post("/approve", reviewHandler.ApproveReview)
				r.With(requireAdmin).Post("/reject", reviewHandler.RejectReview)
			})
		})
	})
}
