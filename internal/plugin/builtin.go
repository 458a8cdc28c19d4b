package plugin

import (
	"context"
	"io"
	"sync"

	"github.com/soyeahso/forumchat/internal/hooks"
)

// EventLog writes every session event to the plugin log.
type EventLog struct {
	hooks *hooks.Manager
}

func (p *EventLog) ID() string { return "eventlog" }

func (p *EventLog) Init(_ context.Context, api API) error {
	p.hooks = api.Hooks
	api.Hooks.OnAll(p.ID(), hooks.LogHandler(api.Log))
	return nil
}

func (p *EventLog) Close() error {
	if p.hooks != nil {
		for _, e := range hooks.AllEvents {
			p.hooks.Off(e, p.ID())
		}
	}
	return nil
}

// Bell rings the terminal bell when a message arrives outside the open
// conversation.
type Bell struct {
	out io.Writer

	mu    sync.Mutex
	hooks *hooks.Manager
	rung  int
}

// NewBell creates a bell writing BEL characters to out.
func NewBell(out io.Writer) *Bell {
	return &Bell{out: out}
}

func (p *Bell) ID() string { return "bell" }

func (p *Bell) Init(_ context.Context, api API) error {
	p.hooks = api.Hooks
	api.Hooks.On(hooks.EventMessageReceived, p.ID(), func(_ context.Context, pl hooks.Payload) error {
		if active, _ := pl.Data["active"].(bool); active {
			return nil
		}
		p.mu.Lock()
		defer p.mu.Unlock()
		p.rung++
		_, err := io.WriteString(p.out, "\a")
		return err
	})
	return nil
}

func (p *Bell) Close() error {
	if p.hooks != nil {
		p.hooks.Off(hooks.EventMessageReceived, p.ID())
	}
	return nil
}

// Rung returns how often the bell rang.
func (p *Bell) Rung() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rung
}
