package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "aircalibration/backend/libs/config"
)

const defaultPort = "8085"

// Config defines calibration service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"CALIBRATION_HTTP_PORT"`
	} `yaml:"http"`
	JWT struct {
		Secret string `yaml:"secret" env:"CALIBRATION_JWT_SECRET"`
	} `yaml:"jwt"`
	Calibrate struct {
		URL        string        `yaml:"url" env:"CALIBRATE_URL"`
		Timeout    time.Duration `yaml:"timeout" env:"CALIBRATE_TIMEOUT"`
		RetryCount int           `yaml:"retryCount" env:"CALIBRATE_RETRY_COUNT"`
		RetryWait  time.Duration `yaml:"retryWait" env:"CALIBRATE_RETRY_WAIT"`
	} `yaml:"calibrate"`
	Database struct {
		DSN string `yaml:"dsn" env:"CALIBRATION_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr" env:"CALIBRATION_REDIS_ADDR"`
		Password string `yaml:"password" env:"CALIBRATION_REDIS_PASSWORD"`
	} `yaml:"redis"`
	Stream struct {
		Input     string        `yaml:"input" env:"CALIBRATION_STREAM_INPUT"`
		Output    string        `yaml:"output" env:"CALIBRATION_STREAM_OUTPUT"`
		Group     string        `yaml:"group" env:"CALIBRATION_STREAM_GROUP"`
		Consumer  string        `yaml:"consumer" env:"CALIBRATION_STREAM_CONSUMER"`
		Block     time.Duration `yaml:"block" env:"CALIBRATION_STREAM_BLOCK"`
		ClaimIdle time.Duration `yaml:"claimIdle" env:"CALIBRATION_STREAM_CLAIM_IDLE"`
	} `yaml:"stream"`
}

// Load reads configuration from CONFIG_FILE and the environment.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit YAML path. An empty path falls back to CONFIG_FILE.
// A missing calibrate url is not a load error; the resolver reports it per call.
func LoadFile(path string) (*Config, error) {
	cfg := defaults()

	var err error
	if path == "" {
		err = libconfig.LoadConfig(cfg)
	} else {
		err = libconfig.LoadConfigFile(path, cfg)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Calibrate.RetryCount < 0 {
		return nil, errors.New("config: calibrate retry count must not be negative")
	}
	if cfg.Calibrate.Timeout < 0 {
		return nil, errors.New("config: calibrate timeout must not be negative")
	}
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.HTTP.Port = defaultPort
	cfg.Stream.Input = "measurements:raw"
	cfg.Stream.Output = "measurements:calibrated"
	cfg.Stream.Group = "calibration-service"
	cfg.Stream.Consumer = "calibration-1"
	cfg.Stream.Block = 5 * time.Second
	cfg.Stream.ClaimIdle = 30 * time.Second
	return cfg
}

// HTTPAddress returns :port style. Values that already carry a host are kept.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = defaultPort
	}
	if strings.Contains(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// CalibrateURL returns the calibration endpoint and whether it is configured.
func (c *Config) CalibrateURL() (string, bool) {
	url := strings.TrimSpace(c.Calibrate.URL)
	return url, url != ""
}

// HistoryEnabled reports whether calibrated measurements are persisted.
func (c *Config) HistoryEnabled() bool {
	return strings.TrimSpace(c.Database.DSN) != ""
}

// StreamEnabled reports whether the Redis stream worker should run.
func (c *Config) StreamEnabled() bool {
	return strings.TrimSpace(c.Redis.Addr) != ""
}
