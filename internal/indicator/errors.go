package indicator

import "errors"

var (
	ErrNoSurfaces          = errors.New("at least one indicator surface must be enabled")
	ErrInvalidPin          = errors.New("HomeKit PIN must be 8 digits")
	ErrStoragePathRequired = errors.New("homekit storage-path is required")
	ErrServerFailed        = errors.New("server failed")
)
