package domain

import "strings"

// MessageType discriminates the payload kinds that travel between peers.
type MessageType string

const (
	MessageTypeChat   MessageType = "chat_message"
	MessageTypeTyping MessageType = "typing_indicator"
)

// Message is a single two-party chat message as it appears on the wire and in
// the REST history pages. Timestamp is kept as the ISO8601 string the server
// produced; typing pings carry an empty one.
type Message struct {
	ID        string      `json:"id,omitempty"`
	From      string      `json:"from"`
	To        string      `json:"to"`
	Content   string      `json:"content"`
	Timestamp string      `json:"timestamp"`
	Type      MessageType `json:"type,omitempty"`
}

// ConversationKey returns the peer that addresses the thread m belongs to,
// relative to self. A->B and B->A resolve to the same key.
func ConversationKey(m Message, self string) string {
	if m.From == self {
		return m.To
	}
	return m.From
}

// Involves reports whether m belongs to the conversation between self and peer.
func (m Message) Involves(self, peer string) bool {
	return (m.From == self && m.To == peer) || (m.From == peer && m.To == self)
}

// IsBlank reports whether content is empty after trimming whitespace.
func IsBlank(content string) bool {
	return strings.TrimSpace(content) == ""
}
