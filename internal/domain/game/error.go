package game

import "errors"

var (
	ErrNotFound = errors.New("game not found")
)
