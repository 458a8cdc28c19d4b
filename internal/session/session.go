// Package session ties the relay connection, message cache, pagination,
// unread counts, typing and presence together for one logged-in user.
//
// A Session owns a loop goroutine. Every piece of session state is touched
// only from that goroutine; socket reads, REST calls and timers post their
// effects to it.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/soyeahso/forumchat/internal/domain"
	"github.com/soyeahso/forumchat/internal/hooks"
	"github.com/soyeahso/forumchat/internal/logging"
	"github.com/soyeahso/forumchat/internal/loop"
	"github.com/soyeahso/forumchat/internal/notify"
	"github.com/soyeahso/forumchat/internal/pagination"
	"github.com/soyeahso/forumchat/internal/presence"
	"github.com/soyeahso/forumchat/internal/store"
	"github.com/soyeahso/forumchat/internal/transport"
	"github.com/soyeahso/forumchat/internal/typing"
)

var (
	ErrUnknownPeer      = errors.New("peer is not on the roster")
	ErrSelfConversation = errors.New("cannot open a conversation with yourself")
	ErrStopped          = errors.New("session stopped")
)

// KeyEnter is the key that submits the draft.
const KeyEnter = "Enter"

// Deps are the collaborators a session needs.
type Deps struct {
	API  *transport.API
	View Renderer
	Log  *logging.Logger
}

// Option configures optional session behaviour.
type Option func(*Session)

// WithHooks emits lifecycle events on m.
func WithHooks(m *hooks.Manager) Option {
	return func(s *Session) {
		s.hooks = m
	}
}

// WithArchive records every accepted message in a.
func WithArchive(a *store.Archive) Option {
	return func(s *Session) {
		s.archive = a
	}
}

// Session is one user's live chat session.
type Session struct {
	self    string
	cfg     Config
	wsURL   string
	api     *transport.API
	view    Renderer
	log     *logging.Logger
	hooks   *hooks.Manager
	archive *store.Archive
	loop    *loop.Loop

	ctx    context.Context
	cancel context.CancelFunc

	stopOnce sync.Once
	done     chan struct{}

	// owned by the loop
	sock      *transport.Socket
	messages  *store.MessageStore
	tracker   *notify.Tracker
	roster    *presence.List
	typing    *typing.Signal
	pager     *pagination.Controller
	peer      string
	stopped   bool
	redial    *loop.Timer
	attempts  int
	lostSince time.Time
}

// Start bootstraps unread counts, opens the relay socket for currentUser and
// starts processing frames. The session runs until Stop, a server logout,
// exhausted reconnects or cancellation of ctx.
func Start(ctx context.Context, currentUser string, cfg Config, deps Deps, opts ...Option) (*Session, error) {
	if currentUser == "" {
		return nil, errors.New("current user is required")
	}
	if deps.API == nil || deps.View == nil || deps.Log == nil {
		return nil, errors.New("session: API, View and Log are required")
	}
	cfg = cfg.withDefaults()
	wsURL, err := transport.SocketURL(cfg.BaseURL, cfg.SocketPath)
	if err != nil {
		return nil, err
	}

	s := &Session{
		self:  currentUser,
		cfg:   cfg,
		wsURL: wsURL,
		api:   deps.API,
		view:  deps.View,
		log:   deps.Log.Sub("session").With("user", currentUser),
		loop:  loop.New(256),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.hooks == nil {
		s.hooks = hooks.NewManager(deps.Log)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.messages = store.NewMessageStore()
	s.tracker = notify.NewTracker(s.view)
	s.roster = presence.NewList(currentUser, s.view)
	s.typing = typing.NewSignal(currentUser, s.loop, s.view, cfg.TypingTimeout)

	go s.loop.Run(context.Background())

	counts, err := s.api.Notifications(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("notification bootstrap failed")
	} else {
		s.loop.Post(func() { s.tracker.Replace(counts) })
	}

	sock, err := transport.Dial(ctx, wsURL, s.api.Jar())
	if err != nil {
		s.loop.Close()
		s.cancel()
		return nil, fmt.Errorf("opening relay socket: %w", err)
	}
	s.loop.Post(func() { s.sock = sock })
	go s.readFrames(sock)

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.done:
		}
	}()

	s.log.Info().Str("url", wsURL).Msg("session started")
	s.hooks.Emit(ctx, hooks.EventSessionStart, map[string]any{"user": currentUser})
	return s, nil
}

// User returns the nickname the session belongs to.
func (s *Session) User() string {
	return s.self
}

// Done is closed once the session has stopped.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Stop tears the session down: socket closed, fetches and timers cancelled,
// caches and counts dropped. Safe to call more than once.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.loop.Do(ctx, s.teardown); err != nil {
			s.log.Debug().Err(err).Msg("teardown skipped")
		}
		s.loop.Close()
		s.cancel()
		s.log.Info().Msg("session stopped")
		s.hooks.Emit(context.Background(), hooks.EventSessionStop, map[string]any{"user": s.self})
		close(s.done)
	})
}

// teardown releases everything the loop owns. It runs on the loop.
func (s *Session) teardown() {
	if s.stopped {
		return
	}
	s.stopped = true
	s.closeActive()
	if s.peer != "" {
		s.view.ClosePane()
		s.peer = ""
	}
	s.typing.Stop()
	s.redial.Stop()
	s.redial = nil
	if s.sock != nil {
		s.sock.Close()
		s.sock = nil
	}
	s.messages.Reset()
	s.tracker.Clear()
}

// onLoop runs fn on the loop and waits for it.
func (s *Session) onLoop(fn func()) error {
	if err := s.loop.Do(s.ctx, fn); err != nil {
		return ErrStopped
	}
	return nil
}

// SelectConversation opens the conversation with peer, replacing whatever
// was open. The previous conversation's in-flight history fetch is discarded.
func (s *Session) SelectConversation(peer string) error {
	var err error
	if lerr := s.onLoop(func() { err = s.selectConversation(peer) }); lerr != nil {
		return lerr
	}
	return err
}

func (s *Session) selectConversation(peer string) error {
	switch {
	case s.stopped:
		return ErrStopped
	case peer == s.self:
		return ErrSelfConversation
	case !s.roster.Contains(peer):
		return fmt.Errorf("%w: %s", ErrUnknownPeer, peer)
	}

	s.closeActive()
	s.messages.Reset()
	s.view.ClearMessages()
	s.peer = peer
	s.view.OpenPane(peer)

	s.tracker.Reset(peer)
	go s.markRead(peer)
	if s.archive != nil {
		if err := s.archive.MarkRead(s.self, peer); err != nil {
			s.log.Warn().Err(err).Msg("archive mark-read failed")
		}
	}

	s.pager = pagination.New(s.self, peer, s.loop, s.api, s.messages, s.view, s.log, pagination.Options{
		Throttle:    s.cfg.ScrollThrottle,
		NearTop:     s.cfg.NearTopThreshold,
		LoaderFloor: s.cfg.LoaderFloor,
		OnPage:      s.recordAll,
	})
	s.pager.Load()
	s.log.Debug().Str("peer", peer).Msg("conversation opened")
	return nil
}

// closeActive detaches the open conversation's controller and pane typing.
func (s *Session) closeActive() {
	if s.pager != nil {
		s.pager.Close()
		s.pager = nil
	}
	s.typing.StopPane()
}

func (s *Session) markRead(peer string) {
	if err := s.api.MarkRead(s.ctx, peer); err != nil {
		s.log.Warn().Err(err).Str("sender", peer).Msg("mark-read failed")
	}
}

// CloseConversation closes the chat pane.
func (s *Session) CloseConversation() error {
	return s.onLoop(func() {
		if s.stopped || s.peer == "" {
			return
		}
		s.closeActive()
		s.messages.Reset()
		s.view.ClosePane()
		s.peer = ""
	})
}

// ActivePeer returns the peer of the open conversation, or "".
func (s *Session) ActivePeer() string {
	var peer string
	_ = s.onLoop(func() { peer = s.peer })
	return peer
}

// Roster returns the current roster without the own user.
func (s *Session) Roster() []domain.PresenceEntry {
	var out []domain.PresenceEntry
	_ = s.onLoop(func() { out = s.roster.Entries() })
	return out
}

// Unread returns the non-zero unread counts per sender.
func (s *Session) Unread() map[string]uint {
	var out map[string]uint
	_ = s.onLoop(func() { out = s.tracker.Snapshot() })
	return out
}

// Messages returns the materialized messages of the open conversation.
func (s *Session) Messages() []domain.Message {
	var out []domain.Message
	_ = s.onLoop(func() {
		if s.peer != "" {
			out = s.messages.Messages(s.peer)
		}
	})
	return out
}

// SendMessage posts content to the open conversation. Without an open
// conversation, or with blank content, it does nothing. The message is only
// shown once the server accepted it; on failure nothing is retried.
func (s *Session) SendMessage(content string) error {
	var peer string
	if err := s.onLoop(func() {
		if !s.stopped {
			peer = s.peer
		}
	}); err != nil {
		return err
	}
	if peer == "" || domain.IsBlank(content) {
		return nil
	}

	m := domain.Message{
		From:      s.self,
		To:        peer,
		Content:   strings.TrimSpace(content),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Type:      domain.MessageTypeChat,
	}
	s.hooks.Emit(s.ctx, hooks.EventMessageSending, map[string]any{"to": peer, "content": m.Content})

	saved, err := s.api.SendMessage(s.ctx, m)
	if err != nil {
		s.loop.Post(func() { s.report("message not sent", err) })
		return fmt.Errorf("sending message: %w", err)
	}
	if !s.loop.Post(func() { s.delivered(saved) }) {
		return ErrStopped
	}
	return nil
}

// delivered relays the server's copy of an own message and shows it.
func (s *Session) delivered(m domain.Message) {
	if s.stopped {
		return
	}
	if s.sock != nil {
		if err := s.sock.Send(m); err != nil {
			s.log.Warn().Err(err).Msg("relaying sent message failed")
		}
	}
	s.accept(m)
}

// SendTyping tells the open conversation's peer that the user is typing.
func (s *Session) SendTyping() error {
	return s.onLoop(func() {
		if s.stopped || s.peer == "" || s.sock == nil {
			return
		}
		if err := s.sock.Send(transport.NewTypingPing(s.self, s.peer)); err != nil {
			s.log.Debug().Err(err).Msg("typing ping failed")
		}
	})
}

// Keypress handles a key in the message input. Enter submits draft; any
// other key is a typing ping.
func (s *Session) Keypress(key, draft string) error {
	if key == KeyEnter {
		return s.SendMessage(draft)
	}
	return s.SendTyping()
}

// Scroll feeds a scroll event of the chat pane to the history pager.
func (s *Session) Scroll() error {
	return s.onLoop(func() {
		if s.pager != nil {
			s.pager.OnScroll()
		}
	})
}

// report routes a failed REST call to the view.
func (s *Session) report(what string, err error) {
	if s.stopped {
		return
	}
	var se *transport.StatusError
	switch {
	case errors.As(err, &se) && se.Unauthorized():
		s.view.Notice(what + ": not logged in")
	case errors.As(err, &se):
		text := se.Body
		if text == "" {
			text = se.Status
		}
		s.view.ErrorPage(se.Code, text)
	default:
		s.view.Notice(what + ": network error")
	}
	s.log.Warn().Err(err).Msg(what)
}

func (s *Session) recordAll(msgs []domain.Message) {
	for _, m := range msgs {
		s.record(m)
	}
}

func (s *Session) record(m domain.Message) {
	if s.archive == nil {
		return
	}
	if err := s.archive.Record(s.self, m); err != nil {
		s.log.Warn().Err(err).Msg("archiving message failed")
	}
}
