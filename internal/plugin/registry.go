package plugin

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/soyeahso/forumchat/internal/hooks"
	"github.com/soyeahso/forumchat/internal/logging"
)

// Registry starts and stops a session's plugins. Plugins start in
// registration order and stop in reverse.
type Registry struct {
	hooks *hooks.Manager
	log   *logging.Logger

	mu      sync.Mutex
	plugins []Plugin
	started int // plugins[:started] have been initialized
}

// NewRegistry creates a plugin registry whose plugins hook into hm.
func NewRegistry(hm *hooks.Manager, log *logging.Logger) *Registry {
	return &Registry{
		hooks: hm,
		log:   log.Sub("plugins"),
	}
}

// Register adds a plugin without initializing it.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if slices.ContainsFunc(r.plugins, func(q Plugin) bool { return q.ID() == p.ID() }) {
		return fmt.Errorf("plugin already registered: %s", p.ID())
	}
	r.plugins = append(r.plugins, p)
	return nil
}

// InitAll initializes the plugins not yet started. It stops at the first
// failure; plugins started before it stay up until CloseAll.
func (r *Registry) InitAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for ; r.started < len(r.plugins); r.started++ {
		p := r.plugins[r.started]
		api := API{Hooks: r.hooks, Log: r.log.Sub(p.ID())}
		if err := p.Init(ctx, api); err != nil {
			return fmt.Errorf("init plugin %s: %w", p.ID(), err)
		}
		r.log.Debug().Str("id", p.ID()).Msg("plugin started")
	}
	return nil
}

// CloseAll closes every started plugin, newest first.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for ; r.started > 0; r.started-- {
		p := r.plugins[r.started-1]
		if err := p.Close(); err != nil {
			r.log.Error().Err(err).Str("id", p.ID()).Msg("plugin close error")
		}
	}
}

// List returns the registered plugin IDs in registration order.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, len(r.plugins))
	for i, p := range r.plugins {
		ids[i] = p.ID()
	}
	return ids
}
