package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"FALSE", false},
		{"42", 42},
		{"-1", -1},
		{"0.5", 0.5},
		{"https://forum.example.com", "https://forum.example.com"},
		{"${FORUM_SID}", "${FORUM_SID}"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseValue(tt.in))
		})
	}
}

func TestPrintValue(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printValue(&buf, "plain"))
	assert.Equal(t, "plain\n", buf.String())

	buf.Reset()
	require.NoError(t, printValue(&buf, map[string]any{"baseUrl": "http://x"}))
	assert.Equal(t, "baseUrl: http://x\n", buf.String())
}

func TestConfigCommands(t *testing.T) {
	t.Setenv("FORUMCHAT_HOME", t.TempDir())
	t.Setenv("FORUMCHAT_LOG_LEVEL", "silent")

	out, err := execute(t, "config", "set", "server.baseUrl", "https://forum.example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Set server.baseUrl = https://forum.example.com")

	out, err = execute(t, "config", "get", "server.baseUrl")
	require.NoError(t, err)
	assert.Equal(t, "https://forum.example.com\n", out)

	_, err = execute(t, "config", "set", "server.sessionToken", "secret")
	require.NoError(t, err)
	out, err = execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "baseUrl: https://forum.example.com")
	assert.Contains(t, out, "<redacted>")
	assert.NotContains(t, out, "secret")

	out, err = execute(t, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "OK")

	_, err = execute(t, "config", "set", "chat.typingTimeoutMs", "-5")
	require.NoError(t, err)
	out, err = execute(t, "config", "validate")
	require.Error(t, err)
	assert.Contains(t, out, "chat.typingTimeoutMs")

	_, err = execute(t, "config", "unset", "chat.typingTimeoutMs")
	require.NoError(t, err)
	_, err = execute(t, "config", "get", "chat.typingTimeoutMs")
	assert.Error(t, err)

	_, err = execute(t, "config", "unset", "chat.typingTimeoutMs")
	assert.Error(t, err)
}

func TestConfigGet_BlockedKey(t *testing.T) {
	t.Setenv("FORUMCHAT_HOME", t.TempDir())
	_, err := execute(t, "config", "get", "__proto__")
	assert.Error(t, err)
}
