package main

import (
	"errors"
	"fmt"
	"os"

	"aircalibration/backend/services/calibration-service/internal/calibration"
)

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func handleCmdError(err error) {
	var transportErr *calibration.TransportError
	switch {
	case errors.Is(err, calibration.ErrConfiguration):
		fmt.Fprintln(os.Stderr, "\nError: no calibration endpoint")
		fmt.Fprintln(os.Stderr, "  - Pass --url or set CALIBRATE_URL")
	case errors.As(err, &transportErr):
		fmt.Fprintln(os.Stderr, "\nError: calibration service is unreachable")
	}
}
