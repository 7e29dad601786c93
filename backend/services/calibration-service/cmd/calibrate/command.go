package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"aircalibration/backend/libs/logging"
	"aircalibration/backend/services/calibration-service/internal/calibration"
	"aircalibration/backend/services/calibration-service/internal/config"
	"aircalibration/backend/services/calibration-service/internal/models"
)

type options struct {
	url        string
	configPath string
	file       string
	raw        bool
	timeout    time.Duration
	retries    int
	verbose    bool
}

type result struct {
	DeviceID        string            `json:"device_id"`
	Datetime        string            `json:"datetime"`
	CalibratedValue calibration.Value `json:"calibrated_value"`
}

// NewCommand builds the calibrate command.
func NewCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Resolve the calibrated value of one sensor reading",
		Long: `Resolve the calibrated value of one sensor reading.

The reading is read as JSON from --file (or stdin when the file is "-") and
posted to the calibration service. The calibrated value is printed as JSON.
When the service has no calibration the value is the string "null".`,
		Example: `  calibrate --url http://localhost:5000/api/v1/calibrate --file reading.json
  kcca-export | calibrate --raw`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.url, "url", "", "calibration endpoint, overrides calibrate.url from config")
	f.StringVarP(&opts.configPath, "config", "c", "", "YAML config file")
	f.StringVarP(&opts.file, "file", "f", "-", "reading JSON file, - for stdin")
	f.BoolVar(&opts.raw, "raw", false, "input is a raw device measurement rather than a normalized reading")
	f.DurationVar(&opts.timeout, "timeout", 0, "request timeout, 0 disables it")
	f.IntVar(&opts.retries, "retries", 0, "retries after a failed request")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	cfg, err := config.LoadFile(opts.configPath)
	if err != nil {
		return err
	}
	url, _ := cfg.CalibrateURL()
	if opts.url != "" {
		url = opts.url
	}
	timeout := cfg.Calibrate.Timeout
	if cmd.Flags().Changed("timeout") {
		timeout = opts.timeout
	}
	retries := cfg.Calibrate.RetryCount
	if cmd.Flags().Changed("retries") {
		retries = opts.retries
	}
	if retries < 0 {
		return fmt.Errorf("--retries must not be negative, got %d", retries)
	}
	if timeout < 0 {
		return fmt.Errorf("--timeout must not be negative, got %s", timeout)
	}

	logger := zap.NewNop()
	if opts.verbose {
		if logger, err = logging.NewLogger("calibrate"); err != nil {
			return err
		}
		defer logger.Sync()
	}

	reading, err := readReading(cmd.InOrStdin(), opts.file, opts.raw)
	if err != nil {
		return err
	}

	transport := calibration.NewHTTPTransport(calibration.TransportOptions{
		Timeout:    timeout,
		RetryCount: retries,
		RetryWait:  cfg.Calibrate.RetryWait,
	}, logger)
	value, err := calibration.NewResolver(url, transport, logger).Resolve(cmd.Context(), reading)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result{
		DeviceID:        reading.DeviceID,
		Datetime:        reading.Timestamp,
		CalibratedValue: value,
	})
}

func readReading(stdin io.Reader, file string, raw bool) (*models.Reading, error) {
	var data []byte
	var err error
	if file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, fmt.Errorf("read reading: %w", err)
	}

	if raw {
		var m models.RawMeasurement
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode raw measurement: %w", err)
		}
		reading := m.Normalize()
		return &reading, nil
	}

	var reading models.Reading
	if err := json.Unmarshal(data, &reading); err != nil {
		return nil, fmt.Errorf("decode reading: %w", err)
	}
	return &reading, nil
}
