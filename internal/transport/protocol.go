// Package transport speaks the relay's wire protocol: JSON socket frames over
// a gorilla/websocket connection and the forum's REST endpoints.
package transport

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/soyeahso/forumchat/internal/domain"
)

// Frame kinds pushed by the relay.
const (
	FrameTypeUserList = "user_list"
	FrameTypeChat     = string(domain.MessageTypeChat)
	FrameTypeTyping   = string(domain.MessageTypeTyping)

	EventLogout = "logout"
)

// ErrMalformedFrame marks a socket payload that is not a usable frame.
var ErrMalformedFrame = errors.New("malformed frame")

// Frame is the inbound envelope. Type discriminates data frames; Event is
// only set on control frames such as {"event":"logout"}.
type Frame struct {
	Type  string `json:"type,omitempty"`
	Event string `json:"event,omitempty"`

	// user_list
	Users []domain.PresenceEntry `json:"users,omitempty"`

	// chat_message, typing_indicator
	ID        string `json:"id,omitempty"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Content   string `json:"content,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// IsLogout reports whether f forces a session teardown.
func (f Frame) IsLogout() bool {
	return f.Event == EventLogout
}

// Message extracts the chat payload of a chat or typing frame.
func (f Frame) Message() domain.Message {
	return domain.Message{
		ID:        f.ID,
		From:      f.From,
		To:        f.To,
		Content:   f.Content,
		Timestamp: f.Timestamp,
		Type:      domain.MessageType(f.Type),
	}
}

// DecodeFrame parses one socket payload. Frames of unknown type decode
// without error so the caller can ignore them; structurally broken ones
// wrap ErrMalformedFrame.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if f.IsLogout() {
		return f, nil
	}
	switch f.Type {
	case FrameTypeChat:
		if f.From == "" || f.To == "" {
			return Frame{}, fmt.Errorf("%w: chat_message without from/to", ErrMalformedFrame)
		}
	case FrameTypeTyping:
		if f.From == "" {
			return Frame{}, fmt.Errorf("%w: typing_indicator without from", ErrMalformedFrame)
		}
	case "":
		return Frame{}, fmt.Errorf("%w: missing type", ErrMalformedFrame)
	}
	return f, nil
}

// NewTypingPing builds the outbound liveness frame. Content and timestamp are
// deliberately empty on the wire.
func NewTypingPing(from, to string) domain.Message {
	return domain.Message{From: from, To: to, Type: domain.MessageTypeTyping}
}
