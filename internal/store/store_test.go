package store

import (
	"testing"

	"github.com/soyeahso/forumchat/internal/domain"
	"github.com/soyeahso/forumchat/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	log := logging.New(nil, "silent")
	db, err := Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func msg(id, from, to string) domain.Message {
	return domain.Message{ID: id, From: from, To: to, Content: "m" + id, Timestamp: "2026-01-01T10:00:0" + id + "Z", Type: domain.MessageTypeChat}
}

func contents(msgs []domain.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, domain.CanonicalID(m))
	}
	return out
}

// --- MessageStore tests ---

func TestMessageStore_InsertDedup(t *testing.T) {
	s := NewMessageStore()

	assert.True(t, s.Insert("bob", msg("1", "bob", "ana")))
	assert.False(t, s.Insert("bob", msg("1", "bob", "ana")))
	assert.Equal(t, 1, s.Len("bob"))
	assert.True(t, s.Insert("carol", msg("1", "bob", "ana")), "gates are per conversation")
}

func TestMessageStore_IDLessDuplicatesCollapse(t *testing.T) {
	s := NewMessageStore()
	m := domain.Message{From: "bob", To: "ana", Content: "hey", Timestamp: "2026-01-01T10:00:00Z"}

	assert.True(t, s.Insert("bob", m))
	assert.False(t, s.Insert("bob", m))
	assert.Equal(t, 1, s.Len("bob"))
}

func TestMessageStore_PrependBeforeLive(t *testing.T) {
	s := NewMessageStore()
	s.Insert("bob", msg("6", "bob", "ana"))

	fresh := s.Prepend("bob", []domain.Message{msg("4", "bob", "ana"), msg("5", "ana", "bob")})
	assert.Len(t, fresh, 2)
	assert.Equal(t, []string{"4", "5", "6"}, contents(s.Messages("bob")))
}

func TestMessageStore_PrependSkipsSeen(t *testing.T) {
	s := NewMessageStore()
	s.Insert("bob", msg("5", "bob", "ana"))

	fresh := s.Prepend("bob", []domain.Message{msg("4", "bob", "ana"), msg("5", "bob", "ana")})
	assert.Equal(t, []string{"4"}, contents(fresh))
	assert.Equal(t, []string{"4", "5"}, contents(s.Messages("bob")))

	assert.Nil(t, s.Prepend("bob", []domain.Message{msg("4", "bob", "ana")}))
}

func TestMessageStore_Unseen(t *testing.T) {
	s := NewMessageStore()
	batch := []domain.Message{msg("1", "bob", "ana"), msg("1", "bob", "ana"), msg("2", "bob", "ana")}

	assert.Equal(t, []string{"1", "2"}, contents(s.Unseen("bob", batch)))

	s.Insert("bob", msg("2", "bob", "ana"))
	assert.Equal(t, []string{"1"}, contents(s.Unseen("bob", batch)))
	assert.Equal(t, 1, s.Len("bob"), "Unseen must not record ids")
}

func TestMessageStore_Reset(t *testing.T) {
	s := NewMessageStore()
	s.Insert("bob", msg("1", "bob", "ana"))
	s.Insert("carol", msg("2", "carol", "ana"))

	s.Reset()
	assert.Equal(t, 0, s.Len("carol"))
	assert.Nil(t, s.Messages("carol"))
	assert.True(t, s.Insert("bob", msg("1", "bob", "ana")), "reset forgets seen ids")
}

func TestMessageStore_MessagesIsCopy(t *testing.T) {
	s := NewMessageStore()
	s.Insert("bob", msg("1", "bob", "ana"))

	got := s.Messages("bob")
	got[0].Content = "mutated"
	assert.Equal(t, "m1", s.Messages("bob")[0].Content)
}

// --- DB/Migration tests ---

func TestMigrations_Applied(t *testing.T) {
	db := testDB(t)

	var count int
	require.NoError(t, db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, len(migrations), count)
}

func TestMigrations_Idempotent(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.migrate())

	var count int
	require.NoError(t, db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, len(migrations), count)
}

func TestSchema_TablesExist(t *testing.T) {
	db := testDB(t)

	for _, table := range []string{"transcript", "read_marks"} {
		var name string
		err := db.sql.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

// --- Archive tests ---

func TestArchive_RecordAndHistory(t *testing.T) {
	a := NewArchive(testDB(t))

	require.NoError(t, a.Record("ana", msg("1", "bob", "ana")))
	require.NoError(t, a.Record("ana", msg("2", "ana", "bob")))
	require.NoError(t, a.Record("ana", msg("3", "carol", "ana")))

	got, err := a.History("ana", "bob", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, contents(got))
}

func TestArchive_RecordIgnoresDuplicates(t *testing.T) {
	a := NewArchive(testDB(t))

	require.NoError(t, a.Record("ana", msg("1", "bob", "ana")))
	require.NoError(t, a.Record("ana", msg("1", "bob", "ana")))

	got, err := a.History("ana", "bob", 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestArchive_HistoryLimitKeepsNewest(t *testing.T) {
	a := NewArchive(testDB(t))
	for _, id := range []string{"1", "2", "3", "4"} {
		require.NoError(t, a.Record("ana", msg(id, "bob", "ana")))
	}

	got, err := a.History("ana", "bob", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "4"}, contents(got))
}

func TestArchive_Peers(t *testing.T) {
	a := NewArchive(testDB(t))
	require.NoError(t, a.Record("ana", msg("1", "bob", "ana")))
	require.NoError(t, a.Record("ana", msg("2", "bob", "ana")))
	require.NoError(t, a.Record("ana", msg("3", "carol", "ana")))
	require.NoError(t, a.MarkRead("ana", "bob"))
	require.NoError(t, a.MarkRead("ana", "bob"))

	peers, err := a.Peers("ana")
	require.NoError(t, err)
	require.Len(t, peers, 2)
	assert.Equal(t, "carol", peers[0].Peer)
	assert.Equal(t, 1, peers[0].Messages)
	assert.Empty(t, peers[0].ReadAt)
	assert.Equal(t, "bob", peers[1].Peer)
	assert.Equal(t, 2, peers[1].Messages)
	assert.NotEmpty(t, peers[1].ReadAt)
}

func TestArchive_OwnersAreIsolated(t *testing.T) {
	a := NewArchive(testDB(t))
	require.NoError(t, a.Record("ana", msg("1", "bob", "ana")))

	got, err := a.History("bob", "ana", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
