// Package notify tracks unread message counts per sender and keeps the
// roster badges in step with them.
package notify

import (
	"maps"
	"slices"
)

// BadgeView renders unread badges on roster rows.
type BadgeView interface {
	ShowBadge(sender string, count uint)
	HideBadge(sender string)
}

// Tracker holds sender -> unread count. It is not safe for concurrent use.
type Tracker struct {
	view   BadgeView
	counts map[string]uint
}

// NewTracker creates an empty tracker rendering into view.
func NewTracker(view BadgeView) *Tracker {
	return &Tracker{view: view, counts: make(map[string]uint)}
}

// Replace swaps in a full set of counts, as returned by the server on
// bootstrap, and re-renders every affected badge.
func (t *Tracker) Replace(counts map[string]uint) {
	old := t.counts
	t.counts = make(map[string]uint, len(counts))
	for sender, n := range counts {
		if n > 0 {
			t.counts[sender] = n
		}
	}
	for sender := range old {
		if _, ok := t.counts[sender]; !ok {
			t.view.HideBadge(sender)
		}
	}
	t.RenderAll()
}

// Increment bumps the count for sender by one.
func (t *Tracker) Increment(sender string) uint {
	t.counts[sender]++
	t.render(sender)
	return t.counts[sender]
}

// Reset zeroes the count for sender locally. The caller is responsible for
// telling the server; a failure there is not rolled back here.
func (t *Tracker) Reset(sender string) {
	delete(t.counts, sender)
	t.view.HideBadge(sender)
}

// Count returns the unread count for sender.
func (t *Tracker) Count(sender string) uint {
	return t.counts[sender]
}

// Snapshot returns a copy of all non-zero counts.
func (t *Tracker) Snapshot() map[string]uint {
	return maps.Clone(t.counts)
}

// RenderAll repaints every non-zero badge, e.g. after the roster was rebuilt.
func (t *Tracker) RenderAll() {
	for _, sender := range slices.Sorted(maps.Keys(t.counts)) {
		t.render(sender)
	}
}

// Clear drops every count and hides the badges.
func (t *Tracker) Clear() {
	for sender := range t.counts {
		t.view.HideBadge(sender)
	}
	t.counts = make(map[string]uint)
}

func (t *Tracker) render(sender string) {
	if n := t.counts[sender]; n > 0 {
		t.view.ShowBadge(sender, n)
		return
	}
	t.view.HideBadge(sender)
}
