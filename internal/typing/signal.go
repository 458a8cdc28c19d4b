// Package typing shows and expires "is typing" indicators.
package typing

import (
	"time"

	"github.com/soyeahso/forumchat/internal/loop"
)

// DefaultTimeout is how long an indicator stays up without a refresh.
const DefaultTimeout = 2 * time.Second

// View renders typing indicators in the open chat pane and on roster rows.
type View interface {
	ShowPaneTyping(from string)
	HidePaneTyping()
	ShowRowTyping(nick string)
	HideRowTyping(nick string)
}

// Signal owns one pane indicator and one indicator per roster row, each with
// its own expiry timer. All methods must run on the loop.
type Signal struct {
	self    string
	loop    *loop.Loop
	view    View
	timeout time.Duration

	pane     *loop.Timer
	paneFrom string
	rows     map[string]*loop.Timer
}

// NewSignal creates a typing signal for self. A non-positive timeout uses DefaultTimeout.
func NewSignal(self string, l *loop.Loop, view View, timeout time.Duration) *Signal {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Signal{
		self:    self,
		loop:    l,
		view:    view,
		timeout: timeout,
		rows:    make(map[string]*loop.Timer),
	}
}

// Receive handles a typing ping from another user. It lights the pane
// indicator when from is the open conversation's peer and the roster row of
// from otherwise, restarting that indicator's timer.
func (s *Signal) Receive(from, activePeer string) {
	if from == "" || from == s.self {
		return
	}
	if activePeer != "" && from == activePeer {
		s.pane.Stop()
		s.paneFrom = from
		s.view.ShowPaneTyping(from)
		s.pane = s.loop.AfterFunc(s.timeout, func() {
			s.pane = nil
			s.paneFrom = ""
			s.view.HidePaneTyping()
		})
		return
	}

	s.rows[from].Stop()
	s.view.ShowRowTyping(from)
	s.rows[from] = s.loop.AfterFunc(s.timeout, func() {
		delete(s.rows, from)
		s.view.HideRowTyping(from)
	})
}

// paneActive reports who is shown typing in the pane, if anyone.
func (s *Signal) paneActive() (string, bool) {
	return s.paneFrom, s.pane != nil
}

// rowActive reports whether nick's roster row shows the indicator.
func (s *Signal) rowActive(nick string) bool {
	_, ok := s.rows[nick]
	return ok
}

// StopPane cancels and hides the pane indicator, e.g. when the pane closes.
func (s *Signal) StopPane() {
	if s.pane == nil {
		return
	}
	s.pane.Stop()
	s.pane = nil
	s.paneFrom = ""
	s.view.HidePaneTyping()
}

// Stop cancels every timer and hides every indicator.
func (s *Signal) Stop() {
	s.StopPane()
	for nick, t := range s.rows {
		t.Stop()
		s.view.HideRowTyping(nick)
	}
	s.rows = make(map[string]*loop.Timer)
}
