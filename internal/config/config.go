package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	DefaultPort    = 3000          // port used when PORT is unset
	DefaultVersion = "1.0.0"       // version reported when APP_VERSION is unset
	DefaultEnv     = "development" // environment reported when NODE_ENV is unset
)

// ErrInvalidPort is returned by Load when PORT is not a usable TCP port.
var ErrInvalidPort = errors.New("invalid port")

// Config holds all runtime configuration values.  It is resolved once at
// startup and never modified afterwards; handlers receive it by value.
type Config struct {
	Port     int    // HTTP port to listen on
	Version  string // version reported by every endpoint
	Env      string // deployment environment name (e.g. "development", "production")
	LogLevel string // slog level name: trace, debug, info, warn, error

	RateLimit RateLimitConfig
	Broker    BrokerConfig
}

// Load reads configuration values from environment variables and returns a
// Config.  Unset variables fall back to their defaults; only a malformed
// PORT is reported as an error.
func Load() (Config, error) {
	port, err := parsePort(getenv("PORT", strconv.Itoa(DefaultPort)))
	if err != nil {
		return Config{}, err
	}
	return Config{
		Port:      port,
		Version:   getenv("APP_VERSION", DefaultVersion),
		Env:       getenv("NODE_ENV", DefaultEnv),
		LogLevel:  getenv("LOG_LEVEL", "info"),
		RateLimit: LoadRateLimitConfig(),
		Broker:    LoadBrokerConfig(),
	}, nil
}

// Addr returns the listen address, bound to all interfaces.
func (c Config) Addr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}

func parsePort(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: PORT=%q is not an integer", ErrInvalidPort, s)
	}
	if n < 0 || n > 65535 {
		return 0, fmt.Errorf("%w: PORT=%d is out of range", ErrInvalidPort, n)
	}
	return n, nil
}
