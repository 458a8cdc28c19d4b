// Package presence keeps the roster of other users and their online status.
package presence

import (
	"slices"

	"github.com/soyeahso/forumchat/internal/domain"
)

// RosterView renders the roster.
type RosterView interface {
	RenderRoster(entries []domain.PresenceEntry)
}

// List is the current roster, without the own user. Not safe for concurrent use.
type List struct {
	self    string
	view    RosterView
	entries []domain.PresenceEntry
}

// NewList creates an empty roster for self.
func NewList(self string, view RosterView) *List {
	return &List{self: self, view: view}
}

// Update replaces the roster wholesale and re-renders it. The own entry and
// entries without a nickname are dropped.
func (l *List) Update(entries []domain.PresenceEntry) {
	next := make([]domain.PresenceEntry, 0, len(entries))
	for _, e := range entries {
		if e.Nickname == "" || e.Nickname == l.self {
			continue
		}
		if e.Status != domain.StatusOnline {
			e.Status = domain.StatusOffline
		}
		next = append(next, e)
	}
	l.entries = next
	l.view.RenderRoster(l.Entries())
}

// Contains reports whether nick is on the roster.
func (l *List) Contains(nick string) bool {
	return slices.ContainsFunc(l.entries, func(e domain.PresenceEntry) bool {
		return e.Nickname == nick
	})
}

// Entries returns a copy of the roster in server order.
func (l *List) Entries() []domain.PresenceEntry {
	return slices.Clone(l.entries)
}
