package repository

import "errors"

var (
	ErrNotFound = errors.New("record not found")
	// ErrNoSettings means the settings row was never created. Call EnsureSettings at startup.
	ErrNoSettings = errors.New("auction settings not initialised")
)
