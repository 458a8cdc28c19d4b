package cli

import (
	"fmt"
	"time"

	"github.com/soyeahso/forumchat/internal/config"
	"github.com/soyeahso/forumchat/internal/session"
	"github.com/soyeahso/forumchat/internal/store"
	"github.com/soyeahso/forumchat/internal/transport"
)

// loadConfig reads and validates the config file. tokenOverride, when set,
// replaces the configured session token.
func loadConfig(tokenOverride string) (config.Config, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return cfg, err
	}
	if tokenOverride != "" {
		cfg.Server.SessionToken = tokenOverride
	}

	issues := config.Validate(&cfg)
	if len(issues) > 0 {
		for _, issue := range issues {
			log.Error().Str("path", issue.Path).Msg(issue.Message)
		}
		return cfg, fmt.Errorf("config validation failed with %d issue(s)", len(issues))
	}
	return cfg, nil
}

// newAPI builds a REST client carrying the configured session cookie.
func newAPI(cfg config.Config) (*transport.API, error) {
	jar, err := transport.NewSessionJar(cfg.Server.BaseURL, cfg.Server.CookieName, cfg.Server.SessionToken)
	if err != nil {
		return nil, err
	}
	return transport.NewAPI(cfg.Server.BaseURL, jar, log, transport.WithTimeout(cfg.Server.RequestTimeout()))
}

// openArchive opens the local transcript database, or returns nil when the
// archive is disabled.
func openArchive(cfg config.Config) (*store.DB, *store.Archive, error) {
	if !cfg.Archive.Enabled {
		return nil, nil, nil
	}
	if err := paths.EnsureDirs(); err != nil {
		return nil, nil, fmt.Errorf("creating data dir: %w", err)
	}
	db, err := store.Open(paths.ArchivePath(cfg), log)
	if err != nil {
		return nil, nil, fmt.Errorf("opening archive: %w", err)
	}
	return db, store.NewArchive(db), nil
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// sessionConfig maps the file config onto the session's tunables.
func sessionConfig(cfg config.Config) session.Config {
	return session.Config{
		BaseURL:          cfg.Server.BaseURL,
		SocketPath:       cfg.Server.SocketPath,
		TypingTimeout:    ms(cfg.Chat.TypingTimeoutMs),
		ScrollThrottle:   ms(cfg.Chat.ScrollThrottleMs),
		NearTopThreshold: cfg.Chat.NearTopThreshold,
		LoaderFloor:      ms(cfg.Chat.LoaderFloorMs),
		Reconnect: session.ReconnectPolicy{
			Enabled:      cfg.Reconnect.IsEnabled(),
			InitialDelay: ms(cfg.Reconnect.InitialDelayMs),
			MaxDelay:     ms(cfg.Reconnect.MaxDelayMs),
			MaxAttempts:  cfg.Reconnect.Attempts(),
		},
	}
}
