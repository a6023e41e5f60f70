package relay

import "errors"

// Construction errors
var (
	ErrIndicatorRequired = errors.New("local indicator is required")
	ErrRemoteRequired    = errors.New("remote source is required")
)

// Configuration errors
var (
	ErrInvalidDwell  = errors.New("dwell duration must be positive")
	ErrValueRequired = errors.New("active and inactive values are required")
	ErrUnknownPreset = errors.New("unknown preset")
)
