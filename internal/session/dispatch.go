package session

import (
	"context"
	"errors"
	"time"

	"github.com/soyeahso/forumchat/internal/domain"
	"github.com/soyeahso/forumchat/internal/hooks"
	"github.com/soyeahso/forumchat/internal/transport"
)

// readFrames pumps one socket into the loop until the socket fails.
func (s *Session) readFrames(sock *transport.Socket) {
	for {
		f, err := sock.ReadFrame()
		if errors.Is(err, transport.ErrMalformedFrame) {
			s.log.Debug().Err(err).Msg("dropping frame")
			continue
		}
		if err != nil {
			s.loop.Post(func() { s.connectionLost(sock, err) })
			return
		}
		if !s.loop.Post(func() { s.dispatch(sock, f) }) {
			return
		}
	}
}

func (s *Session) dispatch(sock *transport.Socket, f transport.Frame) {
	if s.stopped || sock != s.sock {
		return
	}
	if f.IsLogout() {
		s.logout()
		return
	}
	switch f.Type {
	case transport.FrameTypeUserList:
		s.roster.Update(f.Users)
		s.tracker.RenderAll()
	case transport.FrameTypeTyping:
		s.typing.Receive(f.From, s.peer)
	case transport.FrameTypeChat:
		m := f.Message()
		if m.From != s.self && m.To != s.self {
			s.log.Debug().Str("from", m.From).Str("to", m.To).Msg("dropping message for another user")
			return
		}
		s.accept(m)
	default:
		s.log.Debug().Str("type", f.Type).Msg("ignoring frame")
	}
}

// accept passes a chat message through the dedup gate and, if it is new,
// shows it in the open pane or counts it as unread.
func (s *Session) accept(m domain.Message) {
	key := domain.ConversationKey(m, s.self)
	if !s.messages.Insert(key, m) {
		s.log.Trace().Str("id", domain.CanonicalID(m)).Msg("duplicate message")
		return
	}
	s.record(m)
	if m.From != s.self {
		s.hooks.EmitAsync(s.ctx, hooks.EventMessageReceived, map[string]any{
			"from":    m.From,
			"content": m.Content,
			"active":  key == s.peer,
		})
	}

	if key == s.peer {
		s.view.AppendMessage(m)
		return
	}
	if m.To == s.self {
		s.tracker.Increment(m.From)
	}
}

// logout handles the server ending the session.
func (s *Session) logout() {
	s.log.Info().Msg("logged out by server")
	s.teardown()
	s.hooks.EmitAsync(context.Background(), hooks.EventSessionLogout, map[string]any{"user": s.self})
	go func() {
		s.Stop()
		s.view.Reload()
	}()
}

// connectionLost handles a dead socket. Sockets that were already replaced
// or closed by teardown are ignored.
func (s *Session) connectionLost(sock *transport.Socket, err error) {
	if s.stopped || sock != s.sock {
		return
	}
	sock.Close()
	s.sock = nil
	s.lostSince = time.Now()
	s.log.Warn().Err(err).Msg("relay connection lost")
	s.view.Notice("connection lost")
	s.hooks.EmitAsync(s.ctx, hooks.EventConnectionLost, map[string]any{"error": err.Error()})

	if !s.cfg.Reconnect.Enabled {
		s.giveUp()
		return
	}
	s.attempts = 0
	s.scheduleRedial()
}

func (s *Session) scheduleRedial() {
	s.attempts++
	if s.cfg.Reconnect.exhausted(s.attempts) {
		s.view.Notice("could not reconnect")
		s.giveUp()
		return
	}
	delay := s.cfg.Reconnect.Backoff(s.attempts)
	s.log.Debug().Int("attempt", s.attempts).Dur("delay", delay).Msg("scheduling redial")
	s.redial = s.loop.AfterFunc(delay, func() {
		s.redial = nil
		go s.dial()
	})
}

// dial runs off the loop and reports back.
func (s *Session) dial() {
	sock, err := transport.Dial(s.ctx, s.wsURL, s.api.Jar())
	var counts map[string]uint
	var countsErr error
	if err == nil {
		counts, countsErr = s.api.Notifications(s.ctx)
	}
	posted := s.loop.Post(func() { s.redialed(sock, err, counts, countsErr) })
	if !posted && sock != nil {
		sock.Close()
	}
}

func (s *Session) redialed(sock *transport.Socket, err error, counts map[string]uint, countsErr error) {
	if s.stopped {
		if sock != nil {
			sock.Close()
		}
		return
	}
	if err != nil {
		s.log.Warn().Err(err).Int("attempt", s.attempts).Msg("redial failed")
		var se *transport.StatusError
		if errors.As(err, &se) && se.Unauthorized() {
			s.view.Notice("session expired")
			s.giveUp()
			return
		}
		s.scheduleRedial()
		return
	}

	s.sock = sock
	s.attempts = 0
	go s.readFrames(sock)

	// counts may have moved while the socket was down
	if countsErr != nil {
		s.log.Warn().Err(countsErr).Msg("notification resync failed")
	} else {
		s.tracker.Replace(counts)
		// the server also counted what arrived in the open pane
		if s.peer != "" {
			s.tracker.Reset(s.peer)
			go s.markRead(s.peer)
		}
	}
	s.log.Info().Dur("downtime", time.Since(s.lostSince)).Msg("relay connection restored")
	s.view.Notice("reconnected")
	s.hooks.EmitAsync(s.ctx, hooks.EventConnectionRestored, nil)
}

// giveUp ends a session that can no longer reach the relay.
func (s *Session) giveUp() {
	s.teardown()
	go s.Stop()
}
