package session

import (
	"time"

	"github.com/soyeahso/forumchat/internal/pagination"
	"github.com/soyeahso/forumchat/internal/typing"
)

// Config holds the tunables of a session.
type Config struct {
	BaseURL    string
	SocketPath string

	TypingTimeout    time.Duration
	ScrollThrottle   time.Duration
	NearTopThreshold int
	LoaderFloor      time.Duration

	Reconnect ReconnectPolicy
}

// ReconnectPolicy controls redialing after the relay socket drops.
type ReconnectPolicy struct {
	Enabled      bool
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int // 0 means unlimited
}

// DefaultReconnect is the policy used when none is configured.
var DefaultReconnect = ReconnectPolicy{
	Enabled:      true,
	InitialDelay: 500 * time.Millisecond,
	MaxDelay:     30 * time.Second,
	MaxAttempts:  5,
}

func (c Config) withDefaults() Config {
	if c.SocketPath == "" {
		c.SocketPath = "/ws"
	}
	if c.TypingTimeout <= 0 {
		c.TypingTimeout = typing.DefaultTimeout
	}
	if c.ScrollThrottle <= 0 {
		c.ScrollThrottle = pagination.DefaultThrottle
	}
	if c.NearTopThreshold <= 0 {
		c.NearTopThreshold = pagination.DefaultNearTop
	}
	if c.LoaderFloor == 0 {
		c.LoaderFloor = pagination.DefaultLoaderFloor
	}
	if c.Reconnect.InitialDelay <= 0 {
		c.Reconnect.InitialDelay = DefaultReconnect.InitialDelay
	}
	if c.Reconnect.MaxDelay <= 0 {
		c.Reconnect.MaxDelay = DefaultReconnect.MaxDelay
	}
	if c.Reconnect.MaxAttempts < 0 {
		c.Reconnect.MaxAttempts = 0
	}
	return c
}

// Backoff returns the delay before redial attempt n (1-based): the initial
// delay doubled per attempt, capped at MaxDelay.
func (p ReconnectPolicy) Backoff(n int) time.Duration {
	d := p.InitialDelay
	for i := 1; i < n; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return min(d, p.MaxDelay)
}

// exhausted reports whether attempt n is beyond the limit.
func (p ReconnectPolicy) exhausted(n int) bool {
	return p.MaxAttempts > 0 && n > p.MaxAttempts
}
