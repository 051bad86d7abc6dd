package device

import "errors"

var (
	ErrNotFound     = errors.New("device not found")
	ErrInvalidID    = errors.New("device id must be a UUID")
	ErrInvalidToken = errors.New("invalid or expired token")
)
