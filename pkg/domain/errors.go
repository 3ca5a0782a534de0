package domain

import "errors"

// Sentinel errors shared across the engine.
var (
	ErrUnknownParameter = errors.New("parameter not registered")
	ErrUnknownCategory  = errors.New("category not registered")
	ErrNoActiveSession  = errors.New("no active session")
	ErrUnknownVariant   = errors.New("variant not found")
	ErrDuplicateVariant = errors.New("variant already exists")
	ErrVariantTerminal  = errors.New("variant already completed or failed")
	ErrSessionNotFound  = errors.New("session not found")
)
