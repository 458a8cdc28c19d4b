package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

func newNotificationsCmd() *cobra.Command {
	var (
		token    string
		markRead string
	)

	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"unread"},
		Short:   "Show unread message counts per sender",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(token)
			if err != nil {
				return err
			}
			api, err := newAPI(cfg)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if markRead != "" {
				if err := api.MarkRead(ctx, markRead); err != nil {
					return fmt.Errorf("marking %s read: %w", markRead, err)
				}
				fmt.Fprintf(out, "Marked %s read\n", markRead)
				return nil
			}

			counts, err := api.Notifications(ctx)
			if err != nil {
				return fmt.Errorf("fetching notifications: %w", err)
			}

			senders := make([]string, 0, len(counts))
			for sender, n := range counts {
				if n > 0 {
					senders = append(senders, sender)
				}
			}
			if len(senders) == 0 {
				fmt.Fprintln(out, "No unread messages")
				return nil
			}
			slices.Sort(senders)
			for _, sender := range senders {
				fmt.Fprintf(out, "  %-16s %d\n", sender, counts[sender])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "session token (overrides server.sessionToken)")
	cmd.Flags().StringVar(&markRead, "mark-read", "", "reset the unread count of this sender")
	return cmd
}
