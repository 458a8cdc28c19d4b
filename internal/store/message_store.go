package store

import (
	"slices"

	"github.com/soyeahso/forumchat/internal/domain"
)

// conversation is the materialized thread with one peer.
type conversation struct {
	messages []domain.Message // oldest first
	gate     domain.Gate
}

// MessageStore caches messages per conversation key behind a single dedup
// gate. Every insertion path (history page, own send, socket echo, peer push)
// is admitted by the conversation's domain.Gate, so a canonical id is
// materialized at most once.
//
// MessageStore is not safe for concurrent use; the session loop owns it.
type MessageStore struct {
	conversations map[string]*conversation
}

// NewMessageStore creates an empty store.
func NewMessageStore() *MessageStore {
	return &MessageStore{conversations: make(map[string]*conversation)}
}

func (s *MessageStore) get(key string) *conversation {
	c, ok := s.conversations[key]
	if !ok {
		c = &conversation{gate: make(domain.Gate)}
		s.conversations[key] = c
	}
	return c
}

// Insert appends m to the end of key's conversation. It reports false when m
// was already materialized.
func (s *MessageStore) Insert(key string, m domain.Message) bool {
	c := s.get(key)
	fresh := c.gate.Admit([]domain.Message{m})
	if len(fresh) == 0 {
		return false
	}
	c.messages = append(c.messages, fresh...)
	return true
}

// Prepend places an older, chronologically ordered batch before the earliest
// materialized message and returns the part of it that was new.
func (s *MessageStore) Prepend(key string, batch []domain.Message) []domain.Message {
	c := s.get(key)
	fresh := c.gate.Admit(batch)
	if len(fresh) == 0 {
		return nil
	}
	merged := make([]domain.Message, 0, len(fresh)+len(c.messages))
	merged = append(merged, fresh...)
	c.messages = append(merged, c.messages...)
	return fresh
}

// Unseen filters msgs down to those whose canonical id is not yet in key's
// conversation, without recording anything. Repeats within msgs are dropped.
func (s *MessageStore) Unseen(key string, msgs []domain.Message) []domain.Message {
	batch := domain.Merge(nil, msgs)
	c, ok := s.conversations[key]
	if !ok {
		return batch
	}
	return slices.DeleteFunc(batch, c.gate.Has)
}

// Messages returns a copy of key's conversation, oldest first.
func (s *MessageStore) Messages(key string) []domain.Message {
	c, ok := s.conversations[key]
	if !ok {
		return nil
	}
	return append([]domain.Message(nil), c.messages...)
}

// Len returns the number of materialized messages for key.
func (s *MessageStore) Len(key string) int {
	if c, ok := s.conversations[key]; ok {
		return len(c.messages)
	}
	return 0
}

// Reset drops every conversation.
func (s *MessageStore) Reset() {
	s.conversations = make(map[string]*conversation)
}
