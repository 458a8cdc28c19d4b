package store

import (
	"database/sql"
	"fmt"
	"slices"

	"github.com/soyeahso/forumchat/internal/domain"
)

// PeerSummary describes one archived conversation.
type PeerSummary struct {
	Peer     string `json:"peer"`
	Messages int    `json:"messages"`
	LastAt   string `json:"lastAt,omitempty"`
	ReadAt   string `json:"readAt,omitempty"`
}

// Archive is a local, append-only transcript of every message the session
// materialized. It is a read-only log for the owner, never an outbox.
type Archive struct {
	db *DB
}

// NewArchive creates an archive on top of db.
func NewArchive(db *DB) *Archive {
	return &Archive{db: db}
}

// Record stores m for owner. Messages already archived under the same
// canonical id are ignored.
func (a *Archive) Record(owner string, m domain.Message) error {
	_, err := a.db.sql.Exec(
		`INSERT OR IGNORE INTO transcript
		   (owner, canonical_id, peer, server_id, sender, receiver, content, sent_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		owner, domain.CanonicalID(m), domain.ConversationKey(m, owner),
		m.ID, m.From, m.To, m.Content, m.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("recording message: %w", err)
	}
	return nil
}

// MarkRead stamps the moment owner opened the conversation with peer.
func (a *Archive) MarkRead(owner, peer string) error {
	_, err := a.db.sql.Exec(
		`INSERT INTO read_marks (owner, peer) VALUES (?, ?)
		 ON CONFLICT(owner, peer) DO UPDATE SET read_at = datetime('now')`,
		owner, peer,
	)
	return err
}

// History returns up to limit of the most recent archived messages between
// owner and peer, oldest first. A limit of 0 defaults to 50.
func (a *Archive) History(owner, peer string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := a.db.sql.Query(
		`SELECT server_id, sender, receiver, content, sent_at
		 FROM transcript
		 WHERE owner = ? AND peer = ?
		 ORDER BY sent_at DESC, rowid DESC
		 LIMIT ?`,
		owner, peer, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		m := domain.Message{Type: domain.MessageTypeChat}
		if err := rows.Scan(&m.ID, &m.From, &m.To, &m.Content, &m.Timestamp); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(msgs)
	return msgs, nil
}

// Peers lists owner's archived conversations, most recent first.
func (a *Archive) Peers(owner string) ([]PeerSummary, error) {
	rows, err := a.db.sql.Query(
		`SELECT t.peer, COUNT(*), MAX(t.sent_at), r.read_at
		 FROM transcript t
		 LEFT JOIN read_marks r ON r.owner = t.owner AND r.peer = t.peer
		 WHERE t.owner = ?
		 GROUP BY t.peer
		 ORDER BY MAX(t.sent_at) DESC, t.peer`,
		owner,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PeerSummary
	for rows.Next() {
		var p PeerSummary
		var readAt sql.NullString
		if err := rows.Scan(&p.Peer, &p.Messages, &p.LastAt, &readAt); err != nil {
			return nil, err
		}
		p.ReadAt = readAt.String
		out = append(out, p)
	}
	return out, rows.Err()
}
