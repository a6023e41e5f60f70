package gpio

import "errors"

var (
	ErrInvalidPinSpec    = errors.New("invalid pin specification")
	ErrChipOpenFailed    = errors.New("failed to open GPIO chip")
	ErrLineRequestFailed = errors.New("failed to request GPIO line")
	ErrSetValueFailed    = errors.New("failed to set GPIO line")
)
