// Package pagination loads older conversation history as the user scrolls
// towards the top of the chat pane.
package pagination

import (
	"context"
	"slices"
	"time"

	"github.com/soyeahso/forumchat/internal/domain"
	"github.com/soyeahso/forumchat/internal/logging"
	"github.com/soyeahso/forumchat/internal/loop"
	"github.com/soyeahso/forumchat/internal/store"
	"golang.org/x/time/rate"
)

// State is the controller's position in its fetch cycle.
type State int

const (
	Idle State = iota
	Fetching
	Exhausted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Defaults.
const (
	DefaultThrottle    = 200 * time.Millisecond
	DefaultNearTop     = 100
	DefaultLoaderFloor = 500 * time.Millisecond
)

// Fetcher returns one page of history between self and peer, newest first,
// skipping the offset most recent messages.
type Fetcher interface {
	History(ctx context.Context, self, peer string, offset int) ([]domain.Message, error)
}

// View is the scrollable chat pane as the controller sees it.
type View interface {
	ShowLoader()
	HideLoader()
	PrependMessages(msgs []domain.Message)
	ScrollTop() int
	ScrollHeight() int
	SetScrollTop(top int)
	ScrollToBottom()
}

// Options tunes a Controller. Zero values fall back to the defaults.
type Options struct {
	Throttle    time.Duration
	NearTop     int
	LoaderFloor time.Duration

	// OnPage, if set, receives every page of fresh messages after it was
	// merged into the store, oldest first.
	OnPage func(msgs []domain.Message)
}

// Controller pages one conversation backwards. It lives exactly as long as
// the conversation is open; all methods must run on the loop.
type Controller struct {
	self, peer string
	loop       *loop.Loop
	fetcher    Fetcher
	store      *store.MessageStore
	view       View
	log        *logging.Logger
	opts       Options

	ctx     context.Context
	cancel  context.CancelFunc
	limiter *rate.Limiter
	now     func() time.Time

	state  State
	closed bool
	loader *loop.Timer
}

// New creates a controller for the conversation between self and peer.
func New(self, peer string, l *loop.Loop, f Fetcher, s *store.MessageStore, v View, log *logging.Logger, opts Options) *Controller {
	if opts.Throttle <= 0 {
		opts.Throttle = DefaultThrottle
	}
	if opts.NearTop <= 0 {
		opts.NearTop = DefaultNearTop
	}
	if opts.LoaderFloor < 0 {
		opts.LoaderFloor = 0
	} else if opts.LoaderFloor == 0 {
		opts.LoaderFloor = DefaultLoaderFloor
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		self:    self,
		peer:    peer,
		loop:    l,
		fetcher: f,
		store:   s,
		view:    v,
		log:     log.Sub("pagination"),
		opts:    opts,
		ctx:     ctx,
		cancel:  cancel,
		limiter: rate.NewLimiter(rate.Every(opts.Throttle), 1),
		now:     time.Now,
	}
}

// State returns the current fetch state.
func (c *Controller) State() State {
	return c.state
}

// OnScroll is the scroll observer. At most one call per throttle window is
// considered, and it loads only when the pane is scrolled near the top.
func (c *Controller) OnScroll() bool {
	if c.closed || !c.limiter.AllowN(c.now(), 1) {
		return false
	}
	if c.view.ScrollTop() > c.opts.NearTop {
		return false
	}
	return c.Load()
}

// Load starts fetching the next older page. It does nothing unless Idle.
func (c *Controller) Load() bool {
	if c.closed || c.state != Idle {
		return false
	}
	c.state = Fetching
	c.view.ShowLoader()

	offset := c.store.Len(c.peer)
	started := c.now()
	ctx := c.ctx
	c.log.Trace().Str("peer", c.peer).Int("offset", offset).Msg("loading history page")

	go func() {
		batch, err := c.fetcher.History(ctx, c.self, c.peer, offset)
		c.loop.Post(func() { c.finish(offset, batch, err, started) })
	}()
	return true
}

func (c *Controller) finish(offset int, batch []domain.Message, err error, started time.Time) {
	if c.closed {
		return
	}

	next := Idle
	switch {
	case err != nil:
		c.log.Debug().Err(err).Str("peer", c.peer).Msg("history page failed")
	case len(batch) == 0:
		next = Exhausted
	default:
		if !c.apply(offset, batch) {
			next = Exhausted
		}
	}

	remaining := c.opts.LoaderFloor - c.now().Sub(started)
	if remaining <= 0 {
		c.settle(next)
		return
	}
	c.loader = c.loop.AfterFunc(remaining, func() {
		c.loader = nil
		c.settle(next)
	})
}

// apply merges a newest-first page and reports whether any of it was new.
func (c *Controller) apply(offset int, batch []domain.Message) bool {
	fresh := c.store.Unseen(c.peer, batch)
	if len(fresh) == 0 {
		return false
	}
	slices.Reverse(fresh)
	slices.SortStableFunc(fresh, byTimestamp)

	oldHeight := c.view.ScrollHeight()
	oldTop := c.view.ScrollTop()

	fresh = c.store.Prepend(c.peer, fresh)
	c.view.PrependMessages(fresh)

	if offset == 0 {
		c.view.ScrollToBottom()
	} else {
		c.view.SetScrollTop(oldTop + c.view.ScrollHeight() - oldHeight)
	}
	if c.opts.OnPage != nil {
		c.opts.OnPage(fresh)
	}
	return true
}

func (c *Controller) settle(next State) {
	c.view.HideLoader()
	c.state = next
	if next == Exhausted {
		c.log.Debug().Str("peer", c.peer).Msg("history exhausted")
	}
}

// Close detaches the controller. An in-flight fetch is cancelled and its
// result discarded.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	if c.loader != nil || c.state == Fetching {
		c.loader.Stop()
		c.loader = nil
		c.view.HideLoader()
	}
}

// byTimestamp orders messages by time. Unparseable timestamps sort first,
// keeping their relative order.
func byTimestamp(a, b domain.Message) int {
	return sentAt(a).Compare(sentAt(b))
}

func sentAt(m domain.Message) time.Time {
	t, err := time.Parse(time.RFC3339Nano, m.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}
