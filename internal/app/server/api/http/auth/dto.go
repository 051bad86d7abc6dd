package auth

import (
	"lookyswappy/internal/domain/device"
)

type registerInput struct {
	Body RegisterRequest
}

type RegisterRequest struct {
	DeviceID string `json:"device_id" doc:"Client-generated device UUID"`
}

type tokenOutput struct {
	Body TokenResponse
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type" default:"bearer"`
	ExpiresIn   int    `json:"expires_in" doc:"Token lifetime in seconds"`
}

type refreshInput struct{}

type meInput struct{}

type meOutput struct {
	Body device.Device
}
