// Package plugin provides optional add-ons that observe a chat session
// through its hook events.
package plugin

import (
	"context"

	"github.com/soyeahso/forumchat/internal/hooks"
	"github.com/soyeahso/forumchat/internal/logging"
)

// Plugin is an add-on with a lifecycle bound to one chat session.
type Plugin interface {
	// ID returns a unique identifier for the plugin (e.g., "bell").
	ID() string

	// Init registers the plugin's hooks.
	Init(ctx context.Context, api API) error

	// Close releases whatever Init acquired.
	Close() error
}

// API is what a plugin gets to work with.
type API struct {
	Hooks *hooks.Manager
	Log   *logging.Logger
}
