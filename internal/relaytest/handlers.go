package relaytest

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/soyeahso/forumchat/internal/domain"
	"github.com/soyeahso/forumchat/internal/logging"
)

func (s *Server) handleLogged(w http.ResponseWriter, r *http.Request) {
	nick, ok := s.user(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"username": nick})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.user(r); !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var m domain.Message
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if n := len(strings.TrimSpace(m.Content)); n < 1 || n > 5000 {
		http.Error(w, "Message must be 1-5000 characters", http.StatusBadRequest)
		return
	}

	m.ID = ""
	m.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)

	s.mu.Lock()
	m = s.storeLocked(m)
	s.unreadLocked(m.To)[m.From]++
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	nick, ok := s.user(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" || from != nick {
		http.Error(w, "Missing parameters", http.StatusBadRequest)
		return
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	s.mu.Lock()
	var thread []domain.Message
	for _, m := range s.history {
		if m.Involves(from, to) {
			thread = append(thread, m)
		}
	}
	s.mu.Unlock()

	// newest first, one page after skipping offset
	slices.Reverse(thread)
	page := []domain.Message{}
	if offset < len(thread) {
		end := min(offset+PageSize, len(thread))
		page = thread[offset:end]
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	nick, ok := s.user(r)
	if !ok {
		http.Error(w, "Unauthorized - No session", http.StatusUnauthorized)
		return
	}
	out := map[string]uint{}
	s.mu.Lock()
	for sender, n := range s.unread[nick] {
		if n > 0 {
			out[sender] = n
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	nick, ok := s.user(r)
	if !ok {
		http.Error(w, "Unauthorized - No session", http.StatusUnauthorized)
		return
	}
	var req struct {
		Sender string `json:"sender"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.unreadLocked(nick)[req.Sender] = 0
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	nick, ok := s.user(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.conns[nick] = append(s.conns[nick], conn)
	s.mu.Unlock()
	s.BroadcastRoster()

	go s.receive(nick, conn)
}

// receive relays chat and typing frames from one client socket.
func (s *Server) receive(nick string, conn *websocket.Conn) {
	defer func() {
		s.mu.Lock()
		s.conns[nick] = slices.DeleteFunc(s.conns[nick], func(c *websocket.Conn) bool { return c == conn })
		if len(s.conns[nick]) == 0 {
			delete(s.conns, nick)
		}
		delete(s.writeMu, conn)
		s.mu.Unlock()
		conn.Close()
		s.BroadcastRoster()
	}()

	for {
		var m domain.Message
		if err := conn.ReadJSON(&m); err != nil {
			return
		}
		m.From = nick

		s.mu.Lock()
		s.inbound = append(s.inbound, m)
		recipients := append([]*websocket.Conn(nil), s.conns[m.To]...)
		if m.Type != domain.MessageTypeTyping {
			for _, c := range s.conns[nick] {
				if c != conn {
					recipients = append(recipients, c)
				}
			}
		}
		s.mu.Unlock()

		for _, c := range recipients {
			s.write(c, m)
		}
	}
}

// loggingMiddleware logs each relay request at debug level.
func loggingMiddleware(log *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("requestId", r.Header.Get("X-Request-ID")).
				Dur("duration", time.Since(start)).
				Msg("relay request")
		})
	}
}
