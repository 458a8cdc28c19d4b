package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "http://localhost:8080", cfg.Server.BaseURL)
	assert.Equal(t, "/ws", cfg.Server.SocketPath)
	assert.Equal(t, "session_token", cfg.Server.CookieName)
	assert.Equal(t, 15*time.Second, cfg.Server.RequestTimeout())
	assert.Equal(t, 2000, cfg.Chat.TypingTimeoutMs)
	assert.Equal(t, 200, cfg.Chat.ScrollThrottleMs)
	assert.Equal(t, 100, cfg.Chat.NearTopThreshold)
	assert.Equal(t, 500, cfg.Chat.LoaderFloorMs)
	assert.Equal(t, 500, cfg.Reconnect.InitialDelayMs)
	assert.Equal(t, 30000, cfg.Reconnect.MaxDelayMs)
	assert.True(t, cfg.Reconnect.IsEnabled())
	assert.Equal(t, 5, cfg.Reconnect.Attempts())
	assert.False(t, cfg.Archive.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "pretty", cfg.Logging.ConsoleStyle)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	// Should return defaults
	assert.Equal(t, "/ws", cfg.Server.SocketPath)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `
server:
  baseUrl: https://forum.example.com
  socketPath: /chat/ws
  cookieName: sid
  sessionToken: abc123
chat:
  typingTimeoutMs: 3000
  loaderFloorMs: -1
reconnect:
  enabled: false
  maxAttempts: 0
archive:
  enabled: true
  path: /tmp/chat.db
logging:
  level: debug
  consoleStyle: json
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://forum.example.com", cfg.Server.BaseURL)
	assert.Equal(t, "/chat/ws", cfg.Server.SocketPath)
	assert.Equal(t, "sid", cfg.Server.CookieName)
	assert.Equal(t, "abc123", cfg.Server.SessionToken)
	assert.Equal(t, 3000, cfg.Chat.TypingTimeoutMs)
	assert.Equal(t, -1, cfg.Chat.LoaderFloorMs)
	assert.Equal(t, 200, cfg.Chat.ScrollThrottleMs, "unset fields keep defaults")
	assert.False(t, cfg.Reconnect.IsEnabled())
	assert.Equal(t, 0, cfg.Reconnect.Attempts())
	assert.True(t, cfg.Archive.Enabled)
	assert.Equal(t, "/tmp/chat.db", cfg.Archive.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.ConsoleStyle)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{invalid yaml"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoadExpandsSessionToken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  sessionToken: ${FORUM_SID}\n"), 0o600))

	t.Setenv("FORUM_SID", "from-env")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Server.SessionToken)
}

func TestExpandEnvVars_UnsetLeftAlone(t *testing.T) {
	assert.Equal(t, "${FORUMCHAT_DEFINITELY_UNSET_VAR}", expandEnvVars("${FORUMCHAT_DEFINITELY_UNSET_VAR}"))
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FORUMCHAT_SERVER_URL", "https://other.example.com")
	t.Setenv("FORUMCHAT_SESSION_TOKEN", "tok")
	t.Setenv("FORUMCHAT_LOG_LEVEL", "TRACE")

	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "https://other.example.com", cfg.Server.BaseURL)
	assert.Equal(t, "tok", cfg.Server.SessionToken)
	assert.Equal(t, "trace", cfg.Logging.Level)
}

func TestLoadRawAndSaveRaw(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	raw := map[string]any{
		"chat": map[string]any{
			"typingTimeoutMs": 2500,
		},
	}

	require.NoError(t, SaveRaw(path, raw))

	loaded, err := LoadRaw(path)
	require.NoError(t, err)

	val, ok := GetValueAtPath(loaded, []string{"chat", "typingTimeoutMs"})
	assert.True(t, ok)
	assert.Equal(t, 2500, val)
}

func TestLoadRawMissingAndEmpty(t *testing.T) {
	raw, err := LoadRaw("/nonexistent/config.yaml")
	require.NoError(t, err)
	assert.Empty(t, raw)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	raw, err = LoadRaw(path)
	require.NoError(t, err)
	assert.NotNil(t, raw)
}
