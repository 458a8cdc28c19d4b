package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{"single segment", "server", []string{"server"}, false},
		{"two segments", "server.baseUrl", []string{"server", "baseUrl"}, false},
		{"three segments", "a.b.c", []string{"a", "b", "c"}, false},
		{"empty", "", nil, true},
		{"empty segment", "server..baseUrl", nil, true},
		{"leading dot", ".server", nil, true},
		{"trailing dot", "server.", nil, true},
		{"blocked __proto__", "foo.__proto__.bar", nil, true},
		{"blocked prototype", "prototype.x", nil, true},
		{"blocked constructor", "constructor", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfigPath(tt.input)
			if tt.wantErr {
				var ce *ConfigError
				assert.ErrorAs(t, err, &ce)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetValueAtPath(t *testing.T) {
	root := map[string]any{
		"server": map[string]any{
			"baseUrl": "https://forum.example.com",
		},
		"chat": map[string]any{
			"typingTimeoutMs": 3000,
		},
		"simple": "value",
	}

	tests := []struct {
		name string
		path []string
		want any
		ok   bool
	}{
		{"nested value", []string{"server", "baseUrl"}, "https://forum.example.com", true},
		{"nested int", []string{"chat", "typingTimeoutMs"}, 3000, true},
		{"top level", []string{"simple"}, "value", true},
		{"missing key", []string{"nonexistent"}, nil, false},
		{"missing nested", []string{"server", "nonexistent"}, nil, false},
		{"non-map intermediate", []string{"simple", "sub"}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			val, ok := GetValueAtPath(root, tt.path)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, val)
			}
		})
	}
}

func TestSetValueAtPath(t *testing.T) {
	root := map[string]any{
		"server":  map[string]any{"baseUrl": "http://old"},
		"logging": "string-not-map",
	}

	SetValueAtPath(root, []string{"server", "baseUrl"}, "http://new")
	SetValueAtPath(root, []string{"reconnect", "maxAttempts"}, 0)
	SetValueAtPath(root, []string{"logging", "level"}, "debug")

	val, _ := GetValueAtPath(root, []string{"server", "baseUrl"})
	assert.Equal(t, "http://new", val)
	val, ok := GetValueAtPath(root, []string{"reconnect", "maxAttempts"})
	assert.True(t, ok)
	assert.Equal(t, 0, val)
	val, _ = GetValueAtPath(root, []string{"logging", "level"})
	assert.Equal(t, "debug", val)
}

func TestUnsetValueAtPath(t *testing.T) {
	root := map[string]any{
		"server": map[string]any{
			"baseUrl":    "http://x",
			"cookieName": "session_token",
		},
		"simple": "string",
	}

	assert.True(t, UnsetValueAtPath(root, []string{"server", "baseUrl"}))
	_, found := GetValueAtPath(root, []string{"server", "baseUrl"})
	assert.False(t, found)

	val, found := GetValueAtPath(root, []string{"server", "cookieName"})
	assert.True(t, found)
	assert.Equal(t, "session_token", val)

	assert.False(t, UnsetValueAtPath(root, []string{"server", "nonexistent"}))
	assert.False(t, UnsetValueAtPath(root, []string{"a", "b", "c"}))
	assert.False(t, UnsetValueAtPath(root, []string{"simple", "sub"}))
}

func TestResolvePaths_Default(t *testing.T) {
	t.Setenv("FORUMCHAT_HOME", "")

	paths, err := ResolvePaths()
	require.NoError(t, err)

	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".forumchat")
	assert.Equal(t, base, paths.Base)
	assert.Equal(t, filepath.Join(base, "config.yaml"), paths.Config)
	assert.Equal(t, filepath.Join(base, "data"), paths.Data)
	assert.Equal(t, filepath.Join(base, "data", "archive.db"), paths.Archive)
}

func TestResolvePaths_CustomHome(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("FORUMCHAT_HOME", tmp)

	paths, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, tmp, paths.Base)
	assert.Equal(t, filepath.Join(tmp, "config.yaml"), paths.Config)
}

func TestArchivePath(t *testing.T) {
	paths := Paths{Archive: "/home/ana/.forumchat/data/archive.db"}

	assert.Equal(t, paths.Archive, paths.ArchivePath(Defaults()))

	cfg := Defaults()
	cfg.Archive.Path = "/srv/chat.db"
	assert.Equal(t, "/srv/chat.db", paths.ArchivePath(cfg))
}

func TestEnsureDirs(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("FORUMCHAT_HOME", filepath.Join(tmp, "nested"))

	paths, err := ResolvePaths()
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirs())
	require.NoError(t, paths.EnsureDirs())

	for _, d := range []string{paths.Base, paths.Data} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestBlockedKeys(t *testing.T) {
	assert.True(t, blockedKeys["__proto__"])
	assert.True(t, blockedKeys["prototype"])
	assert.True(t, blockedKeys["constructor"])
	assert.False(t, blockedKeys["server"])
}
