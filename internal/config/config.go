package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

const (
	defaultBaseURL        = "http://localhost:8080"
	defaultSocketPath     = "/ws"
	defaultCookieName     = "session_token"
	defaultRequestTimeout = 15000
	defaultTypingTimeout  = 2000
	defaultScrollThrottle = 200
	defaultNearTop        = 100
	defaultLoaderFloor    = 500
	defaultInitialDelay   = 500
	defaultMaxDelay       = 30000
	defaultMaxAttempts    = 5
)

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	cfg := Config{}
	applyDefaults(&cfg)
	return cfg
}
