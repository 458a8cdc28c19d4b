// Package relaytest runs an in-memory forum relay for tests: the chat REST
// endpoints on a chi router plus the /ws socket, with hooks to seed history,
// push frames and inject failures.
package relaytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/soyeahso/forumchat/internal/domain"
	"github.com/soyeahso/forumchat/internal/logging"
)

// CookieName is the session cookie the relay authenticates with.
const CookieName = "session_token"

// PageSize is the number of messages per history page, as on the forum.
const PageSize = 10

// Token returns the session cookie value that authenticates nick.
func Token(nick string) string {
	return "token-" + nick
}

// Server is a fake relay. All exported helpers are safe for concurrent use.
type Server struct {
	*httptest.Server

	log      *logging.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	users    []string
	conns    map[string][]*websocket.Conn
	writeMu  map[*websocket.Conn]*sync.Mutex
	history  []domain.Message
	unread   map[string]map[string]uint
	nextID   int
	failures map[string][]int
	delays   map[string]time.Duration
	calls    map[string]int
	inbound  []domain.Message
}

// New starts a relay knowing the given users and closes it when t ends.
func New(t testing.TB, users ...string) *Server {
	t.Helper()
	s := &Server{
		log:      logging.New(nil, "silent"),
		users:    append([]string(nil), users...),
		conns:    make(map[string][]*websocket.Conn),
		writeMu:  make(map[*websocket.Conn]*sync.Mutex),
		unread:   make(map[string]map[string]uint),
		failures: make(map[string][]int),
		delays:   make(map[string]time.Duration),
		calls:    make(map[string]int),
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.countCalls)
	r.Use(loggingMiddleware(s.log))

	r.Post("/logged", s.handleLogged)
	r.Post("/sendMessage", s.handleSendMessage)
	r.Post("/messages", s.handleMessages)
	r.Get("/notifications", s.handleNotifications)
	r.Post("/notifications/mark-read", s.handleMarkRead)
	r.Get("/ws", s.handleWebSocket)
	return r
}

// Close drops every socket and shuts the server down.
func (s *Server) Close() {
	s.mu.Lock()
	for _, cs := range s.conns {
		for _, c := range cs {
			c.Close()
		}
	}
	s.conns = make(map[string][]*websocket.Conn)
	s.mu.Unlock()
	s.Server.Close()
}

// --- test helpers ---

// Seed appends messages to the stored history, assigning ids to those without one.
func (s *Server) Seed(msgs ...domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range msgs {
		s.storeLocked(m)
	}
}

// SetUnread sets the server-side unread count of receiver for sender.
func (s *Server) SetUnread(receiver, sender string, n uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unreadLocked(receiver)[sender] = n
}

// Unread returns the server-side unread count of receiver for sender.
func (s *Server) Unread(receiver, sender string) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread[receiver][sender]
}

// FailNext makes the next request to path answer with code. Calls queue up.
func (s *Server) FailNext(path string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = append(s.failures[path], code)
}

// Delay holds every request to path for d before answering.
func (s *Server) Delay(path string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[path] = d
}

// Calls returns how many requests reached path.
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// Online reports whether nick has at least one open socket.
func (s *Server) Online(nick string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns[nick]) > 0
}

// Inbound returns every frame clients pushed over their sockets.
func (s *Server) Inbound() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Message(nil), s.inbound...)
}

// Push writes v as a JSON frame to every socket of nick.
func (s *Server) Push(nick string, v any) {
	s.mu.Lock()
	conns := append([]*websocket.Conn(nil), s.conns[nick]...)
	s.mu.Unlock()
	for _, c := range conns {
		s.write(c, v)
	}
}

// PushRaw writes raw bytes as a text frame to every socket of nick.
func (s *Server) PushRaw(nick string, data []byte) {
	s.mu.Lock()
	conns := append([]*websocket.Conn(nil), s.conns[nick]...)
	s.mu.Unlock()
	for _, c := range conns {
		s.lockFor(c).Lock()
		c.WriteMessage(websocket.TextMessage, data)
		s.lockFor(c).Unlock()
	}
}

// Drop closes every socket of nick, simulating a network failure.
func (s *Server) Drop(nick string) {
	s.mu.Lock()
	conns := s.conns[nick]
	delete(s.conns, nick)
	s.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}
}

// BroadcastRoster pushes the current user_list to every connected user.
func (s *Server) BroadcastRoster() {
	s.mu.Lock()
	nicks := make([]string, 0, len(s.conns))
	for n := range s.conns {
		nicks = append(nicks, n)
	}
	s.mu.Unlock()
	for _, n := range nicks {
		s.Push(n, s.roster())
	}
}

// --- internals ---

func (s *Server) roster() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]domain.PresenceEntry, 0, len(s.users))
	for _, u := range s.users {
		status := domain.StatusOffline
		if len(s.conns[u]) > 0 {
			status = domain.StatusOnline
		}
		users = append(users, domain.PresenceEntry{Nickname: u, Status: status})
	}
	return map[string]any{"type": "user_list", "users": users}
}

func (s *Server) storeLocked(m domain.Message) domain.Message {
	if m.ID == "" {
		s.nextID++
		m.ID = strconv.Itoa(s.nextID)
	} else if n, err := strconv.Atoi(m.ID); err == nil && n > s.nextID {
		s.nextID = n
	}
	if m.Type == "" {
		m.Type = domain.MessageTypeChat
	}
	s.history = append(s.history, m)
	return m
}

func (s *Server) unreadLocked(receiver string) map[string]uint {
	m, ok := s.unread[receiver]
	if !ok {
		m = make(map[string]uint)
		s.unread[receiver] = m
	}
	return m
}

func (s *Server) lockFor(c *websocket.Conn) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.writeMu[c]
	if !ok {
		m = &sync.Mutex{}
		s.writeMu[c] = m
	}
	return m
}

func (s *Server) write(c *websocket.Conn, v any) {
	mu := s.lockFor(c)
	mu.Lock()
	defer mu.Unlock()
	if err := c.WriteJSON(v); err != nil {
		s.log.Debug().Err(err).Msg("relay write failed")
	}
}

func (s *Server) user(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return "", false
	}
	nick, ok := strings.CutPrefix(c.Value, "token-")
	if !ok {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return nick, slices.Contains(s.users, nick)
}

// countCalls records the call, applies configured delays and injected failures.
func (s *Server) countCalls(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.URL.Path]++
		delay := s.delays[r.URL.Path]
		var fail int
		if q := s.failures[r.URL.Path]; len(q) > 0 {
			fail, s.failures[r.URL.Path] = q[0], q[1:]
		}
		s.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}
		if fail != 0 {
			http.Error(w, http.StatusText(fail), fail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
