// Package config provides configuration types and defaults for qrdecode.
package config

import "errors"

// Sentinel errors for configuration validation.
var (
	// ErrInvalidWorkerCount indicates a worker count outside the valid 1-16 range.
	ErrInvalidWorkerCount = errors.New("worker count out of range")

	// ErrInvalidTimeout indicates a negative timeout value.
	ErrInvalidTimeout = errors.New("timeout must be non-negative")

	// ErrInvalidSkip indicates a frame-skip stride less than 1.
	ErrInvalidSkip = errors.New("skip must be at least 1")

	// ErrInvalidRotation indicates a rotation value other than 0, 90, 180, or 270.
	ErrInvalidRotation = errors.New("rotation must be 0, 90, 180, or 270")
)
