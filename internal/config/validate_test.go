package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidDefaults(t *testing.T) {
	cfg := Defaults()
	issues := Validate(&cfg)
	assert.Empty(t, issues)
}

func TestValidate_SingleIssue(t *testing.T) {
	neg := -2
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"relative base url", func(c *Config) { c.Server.BaseURL = "forum.example.com" }, "server.baseUrl"},
		{"ws base url", func(c *Config) { c.Server.BaseURL = "ws://forum.example.com" }, "server.baseUrl"},
		{"socket path without slash", func(c *Config) { c.Server.SocketPath = "ws" }, "server.socketPath"},
		{"empty cookie name", func(c *Config) { c.Server.CookieName = "" }, "server.cookieName"},
		{"unexpanded token", func(c *Config) { c.Server.SessionToken = "${NOPE}" }, "server.sessionToken"},
		{"negative request timeout", func(c *Config) { c.Server.RequestTimeoutMs = -1 }, "server.requestTimeoutMs"},
		{"negative typing timeout", func(c *Config) { c.Chat.TypingTimeoutMs = -5 }, "chat.typingTimeoutMs"},
		{"negative throttle", func(c *Config) { c.Chat.ScrollThrottleMs = -5 }, "chat.scrollThrottleMs"},
		{"negative threshold", func(c *Config) { c.Chat.NearTopThreshold = -5 }, "chat.nearTopThreshold"},
		{"loader floor below off", func(c *Config) { c.Chat.LoaderFloorMs = -2 }, "chat.loaderFloorMs"},
		{"negative initial delay", func(c *Config) { c.Reconnect.InitialDelayMs = -1 }, "reconnect.initialDelayMs"},
		{"max below initial", func(c *Config) { c.Reconnect.MaxDelayMs = 100 }, "reconnect.maxDelayMs"},
		{"negative attempts", func(c *Config) { c.Reconnect.MaxAttempts = &neg }, "reconnect.maxAttempts"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad console style", func(c *Config) { c.Logging.ConsoleStyle = "fancy" }, "logging.consoleStyle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			issues := Validate(&cfg)
			require.Len(t, issues, 1, "issues: %v", issues)
			assert.Equal(t, tt.path, issues[0].Path)
		})
	}
}

func TestValidate_AcceptedValues(t *testing.T) {
	zero := 0
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"https base url", func(c *Config) { c.Server.BaseURL = "https://forum.example.com/app" }},
		{"loader floor off", func(c *Config) { c.Chat.LoaderFloorMs = -1 }},
		{"unlimited attempts", func(c *Config) { c.Reconnect.MaxAttempts = &zero }},
		{"empty log level", func(c *Config) { c.Logging.Level = "" }},
		{"silent log level", func(c *Config) { c.Logging.Level = "silent" }},
		{"compact style", func(c *Config) { c.Logging.ConsoleStyle = "compact" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			assert.Empty(t, Validate(&cfg))
		})
	}
}

func TestValidate_MultipleIssues(t *testing.T) {
	cfg := Defaults()
	cfg.Server.CookieName = ""
	cfg.Logging.Level = "nope"

	issues := Validate(&cfg)
	assert.Len(t, issues, 2)
}

func TestValidationIssue_String(t *testing.T) {
	issue := ValidationIssue{Path: "server.baseUrl", Message: "bad"}
	assert.Equal(t, "server.baseUrl: bad", issue.String())
}
