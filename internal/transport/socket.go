package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/soyeahso/forumchat/internal/domain"
	"github.com/soyeahso/forumchat/internal/version"
)

// ErrSocketClosed is returned when writing to a closed socket.
var ErrSocketClosed = errors.New("socket closed")

const handshakeTimeout = 10 * time.Second

// Socket is the single live relay connection. Send is safe for concurrent use.
type Socket struct {
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
}

// SocketURL turns the forum base URL into the relay's ws:// or wss:// URL.
func SocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	return u.String(), nil
}

// Dial opens the relay socket. The jar carries the forum session cookie.
func Dial(ctx context.Context, wsURL string, jar http.CookieJar) (*Socket, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
		Jar:              jar,
		ReadBufferSize:   4096,
		WriteBufferSize:  4096,
	}
	header := http.Header{"User-Agent": {version.UserAgent()}}
	conn, resp, err := dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status, Path: "/ws"}
		}
		return nil, fmt.Errorf("dialing relay: %w", err)
	}
	return &Socket{conn: conn}, nil
}

// Send writes one outbound frame.
func (s *Socket) Send(m domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSocketClosed
	}
	return s.conn.WriteJSON(m)
}

// ReadFrame blocks for the next frame. Decode failures wrap
// ErrMalformedFrame and leave the connection usable; any other error means
// the connection is gone.
func (s *Socket) ReadFrame() (Frame, error) {
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return Frame{}, err
	}
	return DecodeFrame(data)
}

// Close sends a normal closure and closes the connection.
func (s *Socket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	deadline := time.Now().Add(time.Second)
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return s.conn.Close()
}
