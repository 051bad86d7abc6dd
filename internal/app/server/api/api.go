package api

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"

	authAPI "lookyswappy/internal/app/server/api/http/auth"
	gameAPI "lookyswappy/internal/app/server/api/http/game"
	healthAPI "lookyswappy/internal/app/server/api/http/health"
	"lookyswappy/internal/app/server/api/http/middleware"
	"lookyswappy/internal/app/server/api/http/middleware/auth"
	"lookyswappy/internal/app/server/api/http/middleware/logger"
	statsAPI "lookyswappy/internal/app/server/api/http/stats"
	syncAPI "lookyswappy/internal/app/server/api/http/sync"
	"lookyswappy/internal/app/server/config"
	"lookyswappy/internal/domain/device"
	"lookyswappy/internal/domain/game"
	"lookyswappy/internal/domain/stats"
	"lookyswappy/internal/domain/sync"
	"lookyswappy/internal/infrastructure/storage/postgres"
)

type Handlers struct {
	Health *healthAPI.Handler
	Auth   *authAPI.Handler
	Sync   *syncAPI.Handler
	Game   *gameAPI.Handler
	Stats  *statsAPI.Handler
}

// New builds a *chi.Mux with every operation registered through huma.
func New(storage *postgres.Storage, cfg *config.Config, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	apiConfig := huma.DefaultConfig("Lookyswappy API", "1.0.0")
	apiConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}

	API := humachi.New(mux, apiConfig)

	h := handlers(storage, cfg, log)
	h.Health.SetupRoutes(API)
	h.Auth.SetupRoutes(API)
	h.Sync.SetupRoutes(API)
	h.Game.SetupRoutes(API)
	h.Stats.SetupRoutes(API)

	return mux
}

func handlers(storage *postgres.Storage, cfg *config.Config, log *slog.Logger) *Handlers {
	pool := storage.Pool()

	deviceRepo := postgres.NewDeviceRepository(pool, log)
	deviceService := device.NewService(deviceRepo, log, cfg.Auth.JWTSecret, cfg.Auth.JWTExpireDays)
	authMW := auth.New(deviceService, log)
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(log, middlewares.GetAllAndClear())

	middlewares.Add(loggerMW.Middleware())
	public := middlewares.GetAllAndClear()
	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	authHandler := authAPI.NewHandler(deviceService, log, public, middlewares.GetAllAndClear())

	syncRepo := postgres.NewSyncRepository(pool, log)
	syncService := sync.NewService(syncRepo, log)
	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	syncHandler := syncAPI.NewHandler(syncService, log, middlewares.GetAllAndClear())

	gameRepo := postgres.NewGameRepository(pool, log)
	gameService := game.NewService(gameRepo, log)
	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	gameHandler := gameAPI.NewHandler(gameService, log, middlewares.GetAllAndClear())

	statsRepo := postgres.NewStatsRepository(pool, log)
	statsService := stats.NewService(statsRepo, log)
	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	statsHandler := statsAPI.NewHandler(statsService, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health: healthHandler,
		Auth:   authHandler,
		Sync:   syncHandler,
		Game:   gameHandler,
		Stats:  statsHandler,
	}
}
