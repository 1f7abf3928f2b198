package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cinema-reviews/cmd"
	"cinema-reviews/internal/data/migrations"
	"cinema-reviews/internal/data/repository"
	"cinema-reviews/internal/wire"
	"cinema-reviews/pkg/database"
	"cinema-reviews/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.InitLogger(config.App)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using production defaults.", err)
		logger, _ = zap.NewProduction()
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.String("db_driver", config.Database.Driver),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, closeStore, err := openRepository(ctx, config, logger)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer closeStore()

	app := wire.Wiring(repos, config, logger)

	if err := app.Service.Auth.EnsureAdmin(ctx, config.Admin); err != nil {
		logger.Fatal("Failed to bootstrap admin account", zap.Error(err))
	}

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return
	}
	logger.Info("Server stopped")
}

// openRepository picks the store named by DB_DRIVER.
func openRepository(ctx context.Context, config *utils.Config, logger *zap.Logger) (*repository.Repository, func(), error) {
	if config.Database.Driver == utils.DriverMemory {
		logger.Warn("Using in-memory store; data is lost on restart")
		return repository.NewMemoryRepository(logger), func() {}, nil
	}

	db, err := database.InitDB(ctx, config.Database)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Database connected successfully")

	if config.Database.Migrate {
		if err := database.Migrate(ctx, db, migrations.FS); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info("Database migrations applied")
	}

	return repository.NewRepository(db, logger), db.Close, nil
}
