package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/soyeahso/forumchat/internal/domain"
	"github.com/soyeahso/forumchat/internal/logging"
	"github.com/soyeahso/forumchat/internal/version"
)

// StatusError is a non-2xx answer from the forum server.
type StatusError struct {
	Code   int
	Status string
	Path   string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Status, e.Body)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Status)
}

// Unauthorized reports whether the server rejected the session. 401 is the
// one error status the client expects during normal operation.
func (e *StatusError) Unauthorized() bool {
	return e.Code == http.StatusUnauthorized
}

const maxErrorBody = 4096

// API is a client for the forum's chat REST endpoints.
type API struct {
	base *url.URL
	http *http.Client
	log  *logging.Logger
}

// APIOption configures an API client.
type APIOption func(*API)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) APIOption {
	return func(a *API) {
		a.http.Timeout = d
	}
}

// NewSessionJar builds a cookie jar holding the forum session cookie for baseURL.
// An empty token yields an empty jar.
func NewSessionJar(baseURL, cookieName, token string) (http.CookieJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return jar, nil
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	jar.SetCookies(u, []*http.Cookie{{Name: cookieName, Value: token, Path: "/"}})
	return jar, nil
}

// NewAPI creates a client rooted at baseURL. jar may be nil.
func NewAPI(baseURL string, jar http.CookieJar, log *logging.Logger, opts ...APIOption) (*API, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	a := &API{
		base: u,
		http: &http.Client{Jar: jar, Timeout: 15 * time.Second},
		log:  log.Sub("transport"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Jar returns the cookie jar shared with the relay socket.
func (a *API) Jar() http.CookieJar {
	return a.http.Jar
}

// Logged asks the server who the session belongs to.
func (a *API) Logged(ctx context.Context) (string, error) {
	var out struct {
		Username string `json:"username"`
	}
	if err := a.do(ctx, http.MethodPost, "/logged", nil, nil, &out); err != nil {
		return "", err
	}
	return out.Username, nil
}

// SendMessage persists m and returns the server's canonical copy.
func (a *API) SendMessage(ctx context.Context, m domain.Message) (domain.Message, error) {
	m.Type = domain.MessageTypeChat
	var out domain.Message
	if err := a.do(ctx, http.MethodPost, "/sendMessage", nil, m, &out); err != nil {
		return domain.Message{}, err
	}
	if out.Type == "" {
		out.Type = domain.MessageTypeChat
	}
	return out, nil
}

// History fetches one page of the conversation between self and peer,
// newest first, skipping the offset most recent messages. An empty page means
// there is nothing older.
func (a *API) History(ctx context.Context, self, peer string, offset int) ([]domain.Message, error) {
	q := url.Values{}
	q.Set("from", self)
	q.Set("to", peer)
	q.Set("offset", strconv.Itoa(offset))

	var out []domain.Message
	if err := a.do(ctx, http.MethodPost, "/messages", q, nil, &out); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Type == "" {
			out[i].Type = domain.MessageTypeChat
		}
	}
	return out, nil
}

// Notifications returns the unread count per sender.
func (a *API) Notifications(ctx context.Context) (map[string]uint, error) {
	out := map[string]uint{}
	if err := a.do(ctx, http.MethodGet, "/notifications", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkRead clears the server-side unread count for sender.
func (a *API) MarkRead(ctx context.Context, sender string) error {
	body := struct {
		Sender string `json:"sender"`
	}{Sender: sender}
	return a.do(ctx, http.MethodPost, "/notifications/mark-read", nil, body, nil)
}

func (a *API) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := *a.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding %s body: %w", path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	reqID := uuid.New().String()
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	a.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Str("requestId", reqID).
		Msg("http request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Code:   resp.StatusCode,
			Status: resp.Status,
			Path:   path,
			Body:   strings.TrimSpace(string(raw)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
