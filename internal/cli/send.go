package cli

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/soyeahso/forumchat/internal/domain"
	"github.com/soyeahso/forumchat/internal/transport"
	"github.com/spf13/cobra"
)

func newSendCmd() *cobra.Command {
	var (
		token   string
		noRelay bool
	)

	cmd := &cobra.Command{
		Use:   "send <nick> <message>",
		Short: "Send one message without opening a chat session",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			peer := args[0]
			content := strings.Join(args[1:], " ")
			if domain.IsBlank(content) {
				return fmt.Errorf("message is empty")
			}

			cfg, err := loadConfig(token)
			if err != nil {
				return err
			}
			api, err := newAPI(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			user, err := api.Logged(ctx)
			if err != nil {
				return fmt.Errorf("checking login: %w", err)
			}
			if user == peer {
				return fmt.Errorf("cannot send a message to yourself")
			}

			saved, err := api.SendMessage(ctx, domain.Message{
				From:      user,
				To:        peer,
				Content:   content,
				Timestamp: time.Now().UTC().Format(time.RFC3339),
				Type:      domain.MessageTypeChat,
			})
			if err != nil {
				return fmt.Errorf("sending message: %w", err)
			}

			if !noRelay {
				if err := relay(ctx, cfg.Server.BaseURL, cfg.Server.SocketPath, api, saved); err != nil {
					// Persisted already; the peer sees it on their next history load.
					log.Warn().Err(err).Msg("live relay failed")
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), formatMessage(saved))
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "session token (overrides server.sessionToken)")
	cmd.Flags().BoolVar(&noRelay, "no-relay", false, "only persist the message, do not push it to the peer live")
	return cmd
}

// relay pushes a persisted message over a short-lived relay connection.
func relay(ctx context.Context, baseURL, socketPath string, api *transport.API, m domain.Message) error {
	wsURL, err := transport.SocketURL(baseURL, socketPath)
	if err != nil {
		return err
	}
	sock, err := transport.Dial(ctx, wsURL, api.Jar())
	if err != nil {
		return err
	}
	defer sock.Close()
	return sock.Send(m)
}
