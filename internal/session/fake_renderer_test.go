package session

import (
	"maps"
	"slices"
	"sync"

	"github.com/soyeahso/forumchat/internal/domain"
)

const rowHeight = 20

// fakeRenderer records what the session draws. The session calls it from
// its loop goroutine while tests read it from theirs.
type fakeRenderer struct {
	mu sync.Mutex

	roster     []domain.PresenceEntry
	badges     map[string]uint
	paneTyping string
	rowTyping  map[string]bool

	pane       string
	paneOpen   bool
	rows       []domain.Message
	top        int
	loader     bool
	notices    []string
	errorPages []int
	reloads    int
	onReload   func()
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{badges: make(map[string]uint), rowTyping: make(map[string]bool)}
}

func (f *fakeRenderer) RenderRoster(entries []domain.PresenceEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roster = entries
}

func (f *fakeRenderer) ShowBadge(sender string, count uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.badges[sender] = count
}

func (f *fakeRenderer) HideBadge(sender string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.badges, sender)
}

func (f *fakeRenderer) ShowPaneTyping(from string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paneTyping = from
}

func (f *fakeRenderer) HidePaneTyping() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paneTyping = ""
}

func (f *fakeRenderer) ShowRowTyping(nick string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rowTyping[nick] = true
}

func (f *fakeRenderer) HideRowTyping(nick string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rowTyping, nick)
}

func (f *fakeRenderer) ShowLoader() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loader = true
}

func (f *fakeRenderer) HideLoader() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loader = false
}

func (f *fakeRenderer) PrependMessages(msgs []domain.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(append([]domain.Message(nil), msgs...), f.rows...)
}

func (f *fakeRenderer) ScrollTop() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.top
}

func (f *fakeRenderer) ScrollHeight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows) * rowHeight
}

func (f *fakeRenderer) SetScrollTop(top int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.top = top
}

func (f *fakeRenderer) ScrollToBottom() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.top = len(f.rows) * rowHeight
}

func (f *fakeRenderer) OpenPane(peer string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pane = peer
	f.paneOpen = true
}

func (f *fakeRenderer) ClosePane() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pane = ""
	f.paneOpen = false
	f.rows = nil
}

func (f *fakeRenderer) ClearMessages() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = nil
	f.top = 0
}

func (f *fakeRenderer) AppendMessage(m domain.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, m)
}

func (f *fakeRenderer) Notice(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, text)
}

func (f *fakeRenderer) ErrorPage(status int, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errorPages = append(f.errorPages, status)
}

func (f *fakeRenderer) Reload() {
	f.mu.Lock()
	f.reloads++
	fn := f.onReload
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// --- accessors for assertions ---

func (f *fakeRenderer) rowIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.rows))
	for i, m := range f.rows {
		out[i] = m.ID
	}
	return out
}

func (f *fakeRenderer) badge(sender string) uint {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.badges[sender]
}

func (f *fakeRenderer) rosterNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.roster))
	for i, e := range f.roster {
		out[i] = e.Nickname
	}
	return out
}

func (f *fakeRenderer) hasNotice(text string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Contains(f.notices, text)
}

// viewState is a point-in-time copy of the renderer's scalar state.
type viewState struct {
	pane       string
	paneOpen   bool
	paneTyping string
	rowTyping  map[string]bool
	notices    []string
	errorPages []int
	reloads    int
	loader     bool
}

func (f *fakeRenderer) snapshot() viewState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return viewState{
		pane:       f.pane,
		paneOpen:   f.paneOpen,
		paneTyping: f.paneTyping,
		rowTyping:  maps.Clone(f.rowTyping),
		notices:    slices.Clone(f.notices),
		errorPages: slices.Clone(f.errorPages),
		reloads:    f.reloads,
		loader:     f.loader,
	}
}
