package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/soyeahso/forumchat/internal/domain"
	"github.com/soyeahso/forumchat/internal/hooks"
	"github.com/soyeahso/forumchat/internal/plugin"
	"github.com/soyeahso/forumchat/internal/session"
	"github.com/spf13/cobra"
)

const rosterWait = 5 * time.Second

const chatHelp = `commands:
  /open <nick>   open the conversation with nick
  /close         close the open conversation
  /more          load older messages
  /typing        tell the peer you are typing
  /who           list users, unread counts and who is typing
  /quit          leave
anything else is sent to the open conversation`

func newChatCmd() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "chat [nick]",
		Short: "Start an interactive chat session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			hookMgr := hooks.NewManager(log)
			plugins := plugin.NewRegistry(hookMgr, log)
			if err := plugins.Register(&plugin.EventLog{}); err != nil {
				return err
			}
			if cfg.Chat.Bell {
				if err := plugins.Register(plugin.NewBell(cmd.ErrOrStderr())); err != nil {
					return err
				}
			}
			if err := plugins.InitAll(ctx); err != nil {
				return fmt.Errorf("initializing plugins: %w", err)
			}
			defer plugins.CloseAll()
			opts := []session.Option{session.WithHooks(hookMgr)}

			db, archive, err := openArchive(cfg)
			if err != nil {
				return err
			}
			if db != nil {
				defer db.Close()
				opts = append(opts, session.WithArchive(archive))
				log.Info().Str("path", paths.ArchivePath(cfg)).Msg("archiving messages")
			}

			term := newTerminal(cmd.OutOrStdout())
			sess, err := session.Start(ctx, user, sessionConfig(cfg), session.Deps{
				API:  api,
				View: term,
				Log:  log,
			}, opts...)
			if err != nil {
				return err
			}
			defer sess.Stop()

			term.printf("* logged in as %s, /help for commands", user)
			r := &repl{sess: sess, term: term}
			if len(args) == 1 {
				if err := r.open(ctx, args[0]); err != nil {
					term.Notice(err.Error())
				}
			}
			r.run(ctx, cmd.InOrStdin())
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "session token (overrides server.sessionToken)")
	return cmd
}

// repl reads commands and drafts from the user and drives the session.
type repl struct {
	sess *session.Session
	term *terminal
}

// run processes lines from in until /quit, end of input, cancellation, or
// the session ending on its own.
func (r *repl) run(ctx context.Context, in io.Reader) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.sess.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if quit := r.handle(ctx, line); quit {
				return
			}
		}
	}
}

// handle runs one input line. It reports whether the user asked to quit.
func (r *repl) handle(ctx context.Context, line string) bool {
	if !strings.HasPrefix(line, "/") {
		if err := r.sess.Keypress(session.KeyEnter, line); err != nil {
			log.Debug().Err(err).Msg("send failed")
		}
		return false
	}

	name, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	var err error
	switch name {
	case "/quit", "/exit":
		return true
	case "/help":
		r.term.printf("%s", chatHelp)
	case "/open":
		if arg == "" {
			r.term.Notice("usage: /open <nick>")
			return false
		}
		err = r.open(ctx, arg)
	case "/close":
		err = r.sess.CloseConversation()
	case "/more":
		r.term.scrollToTop()
		err = r.sess.Scroll()
	case "/typing":
		err = r.sess.SendTyping()
	case "/who":
		r.term.who()
	default:
		r.term.Notice("unknown command " + name + ", /help for commands")
	}
	if err != nil {
		r.term.Notice(err.Error())
	}
	return false
}

// open selects the conversation with peer. Right after connecting the roster
// may not have arrived yet, so an unknown peer is retried for a short while.
func (r *repl) open(ctx context.Context, peer string) error {
	deadline := time.Now().Add(rosterWait)
	for {
		err := r.sess.SelectConversation(peer)
		if !errors.Is(err, session.ErrUnknownPeer) || time.Now().After(deadline) {
			return err
		}
		if r.hasRoster() {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func (r *repl) hasRoster() bool {
	return slices.ContainsFunc(r.sess.Roster(), func(e domain.PresenceEntry) bool {
		return e.Nickname != ""
	})
}
