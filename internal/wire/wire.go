package wire

import (
	"net/http"

	"cinema-reviews/internal/adaptor"
	"cinema-reviews/internal/data/repository"
	"cinema-reviews/internal/usecase"
	"cinema-reviews/pkg/middleware"
	"cinema-reviews/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the assembled dependencies.
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds services, handlers and the router on top of repo.
func Wiring(repo *repository.Repository, config *utils.Config, logger *zap.Logger) *App {
	service := usecase.NewService(repo, config, logger)
	handler := adaptor.NewHandler(service, logger)

	return &App{
		Router:  setupRouter(handler, service, config, logger),
		Service: service,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	service *usecase.Service,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.CORS.AllowedOrigins))

	wireAuth(r, handler.Auth, service.Auth, logger)
	wireUser(r, handler.User, service.Auth, logger)
	wireReview(r, handler.Review, service.Auth, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseJSON(w, http.StatusMethodNotAllowed, false, "Method not allowed", nil, nil)
	})

	return r
}
