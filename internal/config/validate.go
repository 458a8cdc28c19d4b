package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue
	add := func(path, format string, args ...any) {
		issues = append(issues, ValidationIssue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	// Server validation
	if u, err := url.Parse(cfg.Server.BaseURL); err != nil || u.Host == "" {
		add("server.baseUrl", "must be an absolute URL, got %q", cfg.Server.BaseURL)
	} else if u.Scheme != "http" && u.Scheme != "https" {
		add("server.baseUrl", "scheme must be http or https, got %q", u.Scheme)
	}
	if cfg.Server.SocketPath != "" && !strings.HasPrefix(cfg.Server.SocketPath, "/") {
		add("server.socketPath", "must start with /, got %q", cfg.Server.SocketPath)
	}
	if cfg.Server.CookieName == "" {
		add("server.cookieName", "cookie name is required")
	}
	if envVarPattern.MatchString(cfg.Server.SessionToken) {
		add("server.sessionToken", "references an unset environment variable")
	}
	if cfg.Server.RequestTimeoutMs < 0 {
		add("server.requestTimeoutMs", "must not be negative, got %d", cfg.Server.RequestTimeoutMs)
	}

	// Chat validation
	positive := map[string]int{
		"chat.typingTimeoutMs":  cfg.Chat.TypingTimeoutMs,
		"chat.scrollThrottleMs": cfg.Chat.ScrollThrottleMs,
		"chat.nearTopThreshold": cfg.Chat.NearTopThreshold,
	}
	for _, path := range []string{"chat.typingTimeoutMs", "chat.scrollThrottleMs", "chat.nearTopThreshold"} {
		if positive[path] < 0 {
			add(path, "must not be negative, got %d", positive[path])
		}
	}
	if cfg.Chat.LoaderFloorMs < -1 {
		add("chat.loaderFloorMs", "must be -1 (off) or more, got %d", cfg.Chat.LoaderFloorMs)
	}

	// Reconnect validation
	if cfg.Reconnect.InitialDelayMs < 0 {
		add("reconnect.initialDelayMs", "must not be negative, got %d", cfg.Reconnect.InitialDelayMs)
	}
	if cfg.Reconnect.MaxDelayMs > 0 && cfg.Reconnect.MaxDelayMs < cfg.Reconnect.InitialDelayMs {
		add("reconnect.maxDelayMs", "must be at least initialDelayMs (%d), got %d",
			cfg.Reconnect.InitialDelayMs, cfg.Reconnect.MaxDelayMs)
	}
	if cfg.Reconnect.Attempts() < 0 {
		add("reconnect.maxAttempts", "must be 0 (unlimited) or more, got %d", cfg.Reconnect.Attempts())
	}

	// Logging validation
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		add("logging.level", "must be one of %v, got %q", validLogLevels, cfg.Logging.Level)
	}

	validConsoleStyles := []string{"pretty", "compact", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		add("logging.consoleStyle", "must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle)
	}

	return issues
}
