package config

import (
	"os"
	"path/filepath"
	"strings"
)

const defaultBaseDir = ".forumchat"

// Paths holds resolved filesystem paths for forumchat data.
type Paths struct {
	Base    string // ~/.forumchat
	Config  string // ~/.forumchat/config.yaml
	Data    string // ~/.forumchat/data
	Archive string // ~/.forumchat/data/archive.db
}

// ResolvePaths computes all standard paths from the home directory.
// If FORUMCHAT_HOME is set, it overrides the default base directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("FORUMCHAT_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	data := filepath.Join(base, "data")
	return Paths{
		Base:    base,
		Config:  filepath.Join(base, "config.yaml"),
		Data:    data,
		Archive: filepath.Join(data, "archive.db"),
	}, nil
}

// ArchivePath returns the archive database location for cfg.
func (p Paths) ArchivePath(cfg Config) string {
	if cfg.Archive.Path != "" {
		return cfg.Archive.Path
	}
	return p.Archive
}

// EnsureDirs creates all standard directories if they don't exist.
func (p Paths) EnsureDirs() error {
	for _, d := range []string{p.Base, p.Data} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return err
		}
	}
	return nil
}

// blockedKeys are keys that must never appear in config paths.
var blockedKeys = map[string]bool{
	"__proto__":   true,
	"prototype":   true,
	"constructor": true,
}

// ParseConfigPath splits a dot-separated config path into segments.
// Returns an error if any segment is blocked or empty.
func ParseConfigPath(raw string) ([]string, error) {
	if raw == "" {
		return nil, &ConfigError{Message: "empty config path"}
	}
	parts := strings.Split(raw, ".")
	for _, p := range parts {
		if p == "" {
			return nil, &ConfigError{Message: "config path contains empty segment"}
		}
		if blockedKeys[p] {
			return nil, &ConfigError{Message: "config path contains blocked key: " + p}
		}
	}
	return parts, nil
}

// GetValueAtPath traverses a nested map using the given path segments.
func GetValueAtPath(root map[string]any, path []string) (any, bool) {
	parent := walk(root, path, false)
	if parent == nil {
		return nil, false
	}
	v, ok := parent[path[len(path)-1]]
	return v, ok
}

// SetValueAtPath sets a value in a nested map. Missing or non-map
// intermediate values are replaced by maps.
func SetValueAtPath(root map[string]any, path []string, value any) {
	walk(root, path, true)[path[len(path)-1]] = value
}

// UnsetValueAtPath removes a value at the given path. Returns true if removed.
func UnsetValueAtPath(root map[string]any, path []string) bool {
	parent := walk(root, path, false)
	if parent == nil {
		return false
	}
	last := path[len(path)-1]
	if _, ok := parent[last]; !ok {
		return false
	}
	delete(parent, last)
	return true
}

// walk returns the map holding the last segment of path. With create set,
// intermediate maps are made as needed; otherwise a gap yields nil.
func walk(root map[string]any, path []string, create bool) map[string]any {
	cur := root
	for _, key := range path[:len(path)-1] {
		next, ok := cur[key].(map[string]any)
		if !ok {
			if !create {
				return nil
			}
			next = map[string]any{}
			cur[key] = next
		}
		cur = next
	}
	return cur
}
