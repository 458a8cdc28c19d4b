package session

import (
	"github.com/soyeahso/forumchat/internal/domain"
	"github.com/soyeahso/forumchat/internal/notify"
	"github.com/soyeahso/forumchat/internal/pagination"
	"github.com/soyeahso/forumchat/internal/presence"
	"github.com/soyeahso/forumchat/internal/typing"
)

// Renderer is everything the session draws on. Every call is made from the
// session's loop goroutine, one at a time.
type Renderer interface {
	presence.RosterView
	notify.BadgeView
	typing.View
	pagination.View

	// OpenPane shows an empty chat pane for peer.
	OpenPane(peer string)
	ClosePane()
	ClearMessages()
	AppendMessage(m domain.Message)

	// Notice shows a transient message to the user.
	Notice(text string)
	// ErrorPage replaces the view with an error for an unexpected HTTP status.
	ErrorPage(status int, text string)
	// Reload is requested after the server ended the session. It is called
	// once the session has stopped, so it may call Stop itself.
	Reload()
}
