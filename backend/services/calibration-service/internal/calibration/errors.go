package calibration

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when no reading is supplied.
	ErrInvalidInput = errors.New("calibration: invalid measurement")
	// ErrConfiguration is returned when the calibrate url is not configured.
	ErrConfiguration = errors.New("calibration: calibrate url is not configured")
)

// TransportError reports a failure to complete the HTTP exchange.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("calibration: request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ParseError reports a 200 response whose body is not a list of calibration results.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("calibration: decode response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
