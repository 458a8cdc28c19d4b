package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var (
		owner  string
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history [nick]",
		Short: "Read the local message archive",
		Long: "Without arguments, lists archived conversations. With a nick, prints the\n" +
			"most recent archived messages of that conversation. Requires archive.enabled.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig("")
			if err != nil {
				return err
			}
			if !cfg.Archive.Enabled {
				return fmt.Errorf("archive is disabled, set archive.enabled to true")
			}
			db, archive, err := openArchive(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if owner == "" {
				api, err := newAPI(cfg)
				if err != nil {
					return err
				}
				if owner, err = api.Logged(cmd.Context()); err != nil {
					return fmt.Errorf("resolving archive owner (pass --user to skip): %w", err)
				}
			}

			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")

			if len(args) == 0 {
				peers, err := archive.Peers(owner)
				if err != nil {
					return err
				}
				if asJSON {
					return enc.Encode(peers)
				}
				if len(peers) == 0 {
					fmt.Fprintln(out, "No archived conversations")
				}
				for _, p := range peers {
					fmt.Fprintf(out, "  %-16s %4d message(s)  last %s\n", p.Peer, p.Messages, p.LastAt)
				}
				return nil
			}

			msgs, err := archive.History(owner, args[0], limit)
			if err != nil {
				return err
			}
			if asJSON {
				return enc.Encode(msgs)
			}
			for _, m := range msgs {
				fmt.Fprintln(out, formatMessage(m))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "user", "", "archive owner (default: the logged-in user)")
	cmd.Flags().IntVar(&limit, "limit", 50, "number of messages to print")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
