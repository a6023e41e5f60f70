package remote

import "errors"

// Availability errors
var (
	ErrUnavailable  = errors.New("remote device unavailable")
	ErrNotConnected = errors.New("not connected")
	ErrClosed       = errors.New("device closed")
)

// Registry and configuration errors
var (
	ErrUnknownDriver    = errors.New("unknown driver")
	ErrDriverExists     = errors.New("driver already registered")
	ErrInvalidConfig    = errors.New("invalid driver configuration")
	ErrMissingConfigKey = errors.New("missing required configuration key")
	ErrInvalidValue     = errors.New("invalid value")
)
