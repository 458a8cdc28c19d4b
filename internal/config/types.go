package config

import "time"

// Config is the root configuration for forumchat.
type Config struct {
	Server    ServerConfig    `yaml:"server,omitempty"`
	Chat      ChatConfig      `yaml:"chat,omitempty"`
	Reconnect ReconnectConfig `yaml:"reconnect,omitempty"`
	Archive   ArchiveConfig   `yaml:"archive,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
}

// ServerConfig points the client at a forum server.
type ServerConfig struct {
	BaseURL          string `yaml:"baseUrl,omitempty"`
	SocketPath       string `yaml:"socketPath,omitempty"`
	CookieName       string `yaml:"cookieName,omitempty"`
	SessionToken     string `yaml:"sessionToken,omitempty"` // may be ${ENV_VAR}
	RequestTimeoutMs int    `yaml:"requestTimeoutMs,omitempty"`
}

// RequestTimeout returns the per-request REST timeout.
func (s ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutMs) * time.Millisecond
}

// ChatConfig tunes the chat pane.
type ChatConfig struct {
	TypingTimeoutMs  int  `yaml:"typingTimeoutMs,omitempty"`
	ScrollThrottleMs int  `yaml:"scrollThrottleMs,omitempty"`
	NearTopThreshold int  `yaml:"nearTopThreshold,omitempty"`
	LoaderFloorMs    int  `yaml:"loaderFloorMs,omitempty"`
	Bell             bool `yaml:"bell,omitempty"` // ring on messages outside the open conversation
}

// ReconnectConfig controls redialing the relay after a dropped connection.
type ReconnectConfig struct {
	Enabled        *bool `yaml:"enabled,omitempty"` // defaults to true
	InitialDelayMs int   `yaml:"initialDelayMs,omitempty"`
	MaxDelayMs     int   `yaml:"maxDelayMs,omitempty"`
	MaxAttempts    *int  `yaml:"maxAttempts,omitempty"` // 0 = unlimited
}

// IsEnabled reports whether reconnecting is on.
func (r ReconnectConfig) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// Attempts returns the attempt limit.
func (r ReconnectConfig) Attempts() int {
	if r.MaxAttempts == nil {
		return defaultMaxAttempts
	}
	return *r.MaxAttempts
}

// ArchiveConfig controls the local SQLite transcript.
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"` // defaults to <base>/data/archive.db
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"`        // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "compact" | "json"
}
