package cli

import (
	"github.com/soyeahso/forumchat/internal/config"
	"github.com/soyeahso/forumchat/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	paths config.Paths
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forumchat",
		Short: "Private chat client for the forum",
		Long:  "forumchat connects to a forum server's chat relay and lets you talk one-to-one with other members.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}

			// Logging settings come from the file when it parses; a broken
			// file is reported later by the command that needs it.
			style, level := "pretty", "info"
			if cfg, err := config.Load(paths.Config); err == nil {
				style, level = cfg.Logging.ConsoleStyle, cfg.Logging.Level
			}
			if logLevel != "" {
				level = logLevel
			}
			log = logging.NewStyled(style, level)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.forumchat/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newSendCmd())
	cmd.AddCommand(newNotificationsCmd())
	cmd.AddCommand(newHistoryCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
