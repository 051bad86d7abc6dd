package client

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"lookyswappy/internal/app/client/config"
)

// App ties together the local sqlite replica and the HTTP client.
type App struct {
	config     *config.Config
	log        *slog.Logger
	httpClient *httpClient
	storage    *SQLiteStorage
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	httpCl, err := NewHTTPClient(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to init HTTP client: %w", err)
	}

	storage, err := NewSQLiteStorage(cfg.DataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to init local storage: %w", err)
	}

	app := &App{
		config:     cfg,
		log:        log,
		httpClient: httpCl,
		storage:    storage,
	}

	if token, err := storage.GetState(stateToken); err == nil && token != "" {
		httpCl.SetToken(token)
		log.Debug("token loaded from local storage")
	}

	return app, nil
}

// DeviceID returns the persisted device id, generating one on first use.
func (a *App) DeviceID() (string, error) {
	id, err := a.storage.GetState(stateDeviceID)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}

	id = uuid.NewString()
	if err := a.storage.SetState(stateDeviceID, id); err != nil {
		return "", fmt.Errorf("failed to persist device id: %w", err)
	}

	a.log.Info("generated new device id", "device_id", id)
	return id, nil
}

// Register registers this device with the server and stores the token.
func (a *App) Register(ctx context.Context) (string, error) {
	deviceID, err := a.DeviceID()
	if err != nil {
		return "", err
	}

	token, err := a.httpClient.RegisterDevice(ctx, deviceID)
	if err != nil {
		return "", fmt.Errorf("failed to register device: %w", err)
	}

	if err := a.storage.SetState(stateToken, token); err != nil {
		return "", fmt.Errorf("failed to persist token: %w", err)
	}

	a.log.Info("device registered", "device_id", deviceID)
	return deviceID, nil
}

// Refresh renews the access token and stores the replacement.
func (a *App) Refresh(ctx context.Context) error {
	token, err := a.httpClient.RefreshToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh token: %w", err)
	}

	if err := a.storage.SetState(stateToken, token); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}

	return nil
}

// IsRegistered reports whether a token is available locally.
func (a *App) IsRegistered() bool {
	token, err := a.storage.GetState(stateToken)
	return err == nil && token != ""
}

// CheckConnection pings the server health endpoint.
func (a *App) CheckConnection() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return a.httpClient.HealthCheck(ctx)
}

// Games lists the device's games from the server.
func (a *App) Games(ctx context.Context) ([]ServerGame, error) {
	return a.httpClient.ListGames(ctx)
}

func (a *App) Close() error {
	return a.storage.Close()
}
