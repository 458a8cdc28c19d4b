package version

import (
	"fmt"
	"runtime"
)

// Set via ldflags at build time:
//
//	go build -ldflags "-X github.com/soyeahso/forumchat/internal/version.Version=1.0.0
//	  -X github.com/soyeahso/forumchat/internal/version.Commit=abc123
//	  -X github.com/soyeahso/forumchat/internal/version.Date=2026-01-01"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

const name = "forumchat"

// Info returns a formatted version string.
func Info() string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s, %s/%s)",
		name, Version, short(Commit), Date, runtime.GOOS, runtime.GOARCH)
}

// UserAgent is sent on every REST request and on the relay handshake.
func UserAgent() string {
	return fmt.Sprintf("%s/%s (%s/%s)", name, Version, runtime.GOOS, runtime.GOARCH)
}

func short(s string) string {
	if len(s) > 7 {
		return s[:7]
	}
	return s
}
