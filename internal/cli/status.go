package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/soyeahso/forumchat/internal/config"
	"github.com/soyeahso/forumchat/internal/transport"
	"github.com/soyeahso/forumchat/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show configuration summary and whether the server accepts the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "forumchat %s (commit %s)\n\n", version.Version, version.Commit)

			// Show paths
			fmt.Fprintf(out, "Config:  %s\n", paths.Config)
			fmt.Fprintf(out, "Data:    %s\n", paths.Data)
			fmt.Fprintln(out)

			cfg, err := config.Load(paths.Config)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Fprintln(out, "Config:  not found (using defaults)")
				} else {
					fmt.Fprintf(out, "Config:  error loading: %v\n", err)
				}
				return nil
			}

			wsURL, _ := transport.SocketURL(cfg.Server.BaseURL, cfg.Server.SocketPath)
			fmt.Fprintf(out, "Server:  %s\n", cfg.Server.BaseURL)
			fmt.Fprintf(out, "Relay:   %s\n", wsURL)

			reconnect := "off"
			if cfg.Reconnect.IsEnabled() {
				reconnect = fmt.Sprintf("on (%dms..%dms, attempts=%d)",
					cfg.Reconnect.InitialDelayMs, cfg.Reconnect.MaxDelayMs, cfg.Reconnect.Attempts())
			}
			fmt.Fprintf(out, "Retry:   %s\n", reconnect)

			if cfg.Archive.Enabled {
				fmt.Fprintf(out, "Archive: %s\n", paths.ArchivePath(cfg))
			} else {
				fmt.Fprintln(out, "Archive: (disabled)")
			}

			// Validation
			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s: %s\n", issue.Path, issue.Message)
				}
				return nil
			}

			fmt.Fprintf(out, "Login:   %s\n", checkLogin(cmd.Context(), cfg))
			return nil
		},
	}

	return cmd
}

// checkLogin asks the server who the configured session belongs to.
func checkLogin(ctx context.Context, cfg config.Config) string {
	if cfg.Server.SessionToken == "" {
		return "no session token configured"
	}
	api, err := newAPI(cfg)
	if err != nil {
		return "error: " + err.Error()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	user, err := api.Logged(ctx)
	var se *transport.StatusError
	switch {
	case err == nil:
		return "logged in as " + user
	case errors.As(err, &se) && se.Unauthorized():
		return "session rejected (not logged in)"
	case errors.As(err, &se):
		return fmt.Sprintf("server answered %s", se.Status)
	default:
		return "server unreachable: " + err.Error()
	}
}
