package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/exp/slog"

	"lookyswappy/internal/app/client/config"
	"lookyswappy/internal/domain/sync"
)

type httpClient struct {
	client    *http.Client
	config    *config.Config
	log       *slog.Logger
	baseURL   string
	token     string
	userAgent string
}

func NewHTTPClient(cfg *config.Config, log *slog.Logger) (*httpClient, error) {
	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 10,
		},
	}

	scheme := "http://"
	if cfg.EnableTLS {
		scheme = "https://"
	}
	baseURL := scheme + cfg.ServerAddress

	return &httpClient{
		client:    client,
		config:    cfg,
		log:       log,
		baseURL:   baseURL,
		userAgent: "Lookyswappy-Client/1.0",
	}, nil
}

// SetToken sets the bearer token used on subsequent requests.
func (h *httpClient) SetToken(token string) {
	h.token = token
}

// HealthCheck verifies the server is reachable.
func (h *httpClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", h.baseURL+"/api/v1/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status: %d", resp.StatusCode)
	}

	return nil
}

// RegisterDevice registers the device id and returns an access token.
func (h *httpClient) RegisterDevice(ctx context.Context, deviceID string) (string, error) {
	body := struct {
		DeviceID string `json:"device_id"`
	}{DeviceID: deviceID}

	resp, err := h.doRequest(ctx, "POST", "/api/v1/auth/register-device", body)
	if err != nil {
		return "", err
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := h.parseResponse(resp, &tokenResp); err != nil {
		return "", err
	}

	h.SetToken(tokenResp.AccessToken)
	return tokenResp.AccessToken, nil
}

// RefreshToken exchanges the current token for a fresh one.
func (h *httpClient) RefreshToken(ctx context.Context) (string, error) {
	resp, err := h.doRequest(ctx, "POST", "/api/v1/auth/refresh", nil)
	if err != nil {
		return "", err
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := h.parseResponse(resp, &tokenResp); err != nil {
		return "", err
	}

	h.SetToken(tokenResp.AccessToken)
	return tokenResp.AccessToken, nil
}

// Pull fetches server-side changes since the given watermark.
func (h *httpClient) Pull(ctx context.Context, lastPulledAt float64) (*sync.PullResponse, error) {
	path := "/api/v1/sync/pull?last_pulled_at=" +
		url.QueryEscape(strconv.FormatFloat(lastPulledAt, 'f', -1, 64))

	resp, err := h.doRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var pullResp sync.PullResponse
	if err := h.parseResponse(resp, &pullResp); err != nil {
		return nil, err
	}

	return &pullResp, nil
}

// Push sends local changes to the server.
func (h *httpClient) Push(ctx context.Context, req sync.PushRequest) (*sync.PushResponse, error) {
	resp, err := h.doRequest(ctx, "POST", "/api/v1/sync/push", req)
	if err != nil {
		return nil, err
	}

	var pushResp sync.PushResponse
	if err := h.parseResponse(resp, &pushResp); err != nil {
		return nil, err
	}

	return &pushResp, nil
}

// ServerGame is a game row as the server's list endpoint returns it.
type ServerGame struct {
	ID          string  `json:"id"`
	Name        *string `json:"name"`
	TargetScore int     `json:"target_score"`
	Status      string  `json:"status"`
}

func (h *httpClient) ListGames(ctx context.Context) ([]ServerGame, error) {
	resp, err := h.doRequest(ctx, "GET", "/api/v1/games", nil)
	if err != nil {
		return nil, err
	}

	var listResp struct {
		Games []ServerGame `json:"games"`
	}
	if err := h.parseResponse(resp, &listResp); err != nil {
		return nil, err
	}

	return listResp.Games, nil
}

func (h *httpClient) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", h.userAgent)
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	h.log.Debug("sending request",
		"method", method,
		"url", req.URL.String(),
	)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	return resp, nil
}

func (h *httpClient) parseResponse(resp *http.Response, result interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	h.log.Debug("received response",
		"status", resp.StatusCode,
		"body", string(body),
	)

	if resp.StatusCode >= 400 {
		var errResp struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("server error: %s", errResp.Detail)
		}
		return fmt.Errorf("server error: status %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}
