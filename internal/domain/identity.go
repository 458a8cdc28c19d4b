package domain

// CanonicalID returns the deduplication key for m: the server-assigned id when
// present, otherwise the composite "timestamp|from|to|content".
//
// The composite form is lossy. Two distinct id-less messages with the same
// pair, content and timestamp collapse into one.
func CanonicalID(m Message) string {
	if m.ID != "" {
		return m.ID
	}
	return m.Timestamp + "|" + m.From + "|" + m.To + "|" + m.Content
}

// Gate is a set of canonical ids. Messages enter a conversation only through
// Admit, so each id is materialized at most once.
type Gate map[string]struct{}

// Admit records the ids of batch and returns, in order, the messages whose
// id was not recorded before.
func (g Gate) Admit(batch []Message) []Message {
	var fresh []Message
	for _, m := range batch {
		id := CanonicalID(m)
		if _, ok := g[id]; ok {
			continue
		}
		g[id] = struct{}{}
		fresh = append(fresh, m)
	}
	return fresh
}

// Has reports whether m's id was admitted.
func (g Gate) Has(m Message) bool {
	_, ok := g[CanonicalID(m)]
	return ok
}

// Merge concatenates existing and incoming and keeps only the first message
// seen for each canonical id. Order is preserved, and
// Merge(Merge(a, b), b) equals Merge(a, b).
func Merge(existing, incoming []Message) []Message {
	g := make(Gate, len(existing)+len(incoming))
	return append(g.Admit(existing), g.Admit(incoming)...)
}
