package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/soyeahso/forumchat/internal/domain"
)

// terminal renders a chat session as plain lines on a writer. The session
// calls it from its loop goroutine; the input loop prints through it too,
// so writes are serialized.
//
// A terminal cannot scroll back, so the pane is modelled as a list of rows
// with a virtual viewport: one row per message, the viewport top at the last
// row until the user asks for older history.
type terminal struct {
	mu  sync.Mutex
	out io.Writer

	peer   string
	rows   int
	top    int
	roster []domain.PresenceEntry
	badges map[string]uint
	typing map[string]bool
}

func newTerminal(out io.Writer) *terminal {
	return &terminal{
		out:    out,
		badges: make(map[string]uint),
		typing: make(map[string]bool),
	}
}

func (t *terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format+"\n", args...)
}

func (t *terminal) RenderRoster(entries []domain.PresenceEntry) {
	t.mu.Lock()
	t.roster = entries
	t.mu.Unlock()

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, fmt.Sprintf("%s (%s)", e.Nickname, e.Status))
	}
	if len(names) == 0 {
		t.printf("* nobody else is here")
		return
	}
	t.printf("* users: %s", strings.Join(names, ", "))
}

func (t *terminal) ShowBadge(sender string, count uint) {
	t.mu.Lock()
	prev := t.badges[sender]
	t.badges[sender] = count
	t.mu.Unlock()
	if count != prev {
		t.printf("* %s: %d unread", sender, count)
	}
}

func (t *terminal) HideBadge(sender string) {
	t.mu.Lock()
	delete(t.badges, sender)
	t.mu.Unlock()
}

func (t *terminal) ShowPaneTyping(from string) {
	t.printf("* %s is typing...", from)
}

func (t *terminal) HidePaneTyping() {}

func (t *terminal) ShowRowTyping(nick string) {
	t.mu.Lock()
	t.typing[nick] = true
	t.mu.Unlock()
}

func (t *terminal) HideRowTyping(nick string) {
	t.mu.Lock()
	delete(t.typing, nick)
	t.mu.Unlock()
}

func (t *terminal) ShowLoader() {
	t.printf("* loading older messages...")
}

func (t *terminal) HideLoader() {}

func (t *terminal) PrependMessages(msgs []domain.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(msgs) == 0 {
		return
	}
	fmt.Fprintf(t.out, "--- %d earlier message(s) ---\n", len(msgs))
	for _, m := range msgs {
		fmt.Fprintln(t.out, formatMessage(m))
	}
	fmt.Fprintln(t.out, "---")
	t.rows += len(msgs)
}

func (t *terminal) ScrollTop() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.top
}

func (t *terminal) ScrollHeight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rows
}

func (t *terminal) SetScrollTop(top int) {
	t.mu.Lock()
	t.top = max(top, 0)
	t.mu.Unlock()
}

func (t *terminal) ScrollToBottom() {
	t.mu.Lock()
	t.top = t.rows
	t.mu.Unlock()
}

// scrollToTop moves the viewport to the oldest row, the way a user reaching
// the top of the pane would.
func (t *terminal) scrollToTop() {
	t.SetScrollTop(0)
}

func (t *terminal) OpenPane(peer string) {
	t.mu.Lock()
	t.peer = peer
	t.rows, t.top = 0, 0
	t.mu.Unlock()
	t.printf("=== conversation with %s ===", peer)
}

func (t *terminal) ClosePane() {
	t.mu.Lock()
	peer := t.peer
	t.peer = ""
	t.mu.Unlock()
	t.printf("=== closed %s ===", peer)
}

func (t *terminal) ClearMessages() {
	t.mu.Lock()
	t.rows, t.top = 0, 0
	t.mu.Unlock()
}

func (t *terminal) AppendMessage(m domain.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, formatMessage(m))
	t.rows++
	t.top = t.rows
}

func (t *terminal) Notice(text string) {
	t.printf("! %s", text)
}

func (t *terminal) ErrorPage(status int, text string) {
	t.printf("! server error %d: %s", status, text)
}

func (t *terminal) Reload() {
	t.printf("! the server ended this session, log in again")
}

// who prints the roster with unread counts and typing markers.
func (t *terminal) who() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.roster) == 0 {
		fmt.Fprintln(t.out, "* nobody else is here")
		return
	}
	entries := append([]domain.PresenceEntry(nil), t.roster...)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Nickname < entries[j].Nickname
	})
	for _, e := range entries {
		line := fmt.Sprintf("  %-16s %s", e.Nickname, e.Status)
		if n := t.badges[e.Nickname]; n > 0 {
			line += fmt.Sprintf("  [%d unread]", n)
		}
		if t.typing[e.Nickname] {
			line += "  (typing)"
		}
		fmt.Fprintln(t.out, line)
	}
}

// formatMessage renders m as "[15:04] from: content".
func formatMessage(m domain.Message) string {
	stamp := m.Timestamp
	if ts, err := time.Parse(time.RFC3339Nano, m.Timestamp); err == nil {
		stamp = ts.Local().Format("15:04")
	}
	return fmt.Sprintf("[%s] %s: %s", stamp, m.From, m.Content)
}
