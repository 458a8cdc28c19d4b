package store

// migration is one forward-only schema change.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered archive schema history.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create transcript",
		SQL: `
			CREATE TABLE transcript (
				owner        TEXT NOT NULL,
				canonical_id TEXT NOT NULL,
				peer         TEXT NOT NULL,
				server_id    TEXT NOT NULL DEFAULT '',
				sender       TEXT NOT NULL,
				receiver     TEXT NOT NULL,
				content      TEXT NOT NULL,
				sent_at      TEXT NOT NULL DEFAULT '',
				recorded_at  TEXT NOT NULL DEFAULT (datetime('now')),
				PRIMARY KEY (owner, canonical_id)
			);

			CREATE INDEX idx_transcript_peer ON transcript (owner, peer, sent_at);
		`,
	},
	{
		Version: 2,
		Name:    "track last read per peer",
		SQL: `
			CREATE TABLE read_marks (
				owner   TEXT NOT NULL,
				peer    TEXT NOT NULL,
				read_at TEXT NOT NULL DEFAULT (datetime('now')),
				PRIMARY KEY (owner, peer)
			);
		`,
	},
}
