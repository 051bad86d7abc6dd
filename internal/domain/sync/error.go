package sync

import "errors"

var (
	// ErrNotFound is returned by identity resolution when no record in
	// the table carries the given client identity.
	ErrNotFound = errors.New("record not found")

	// ErrNotOwned is returned by game resolution when the client
	// identity matches a game owned by a different device.
	ErrNotOwned = errors.New("game owned by another device")
)
