package console

import (
	"encoding/binary"
	"sort"
	"sync"

	"github.com/tokendeck/tokendeck/internal/log"
	"github.com/tokendeck/tokendeck/internal/storage"
)

var prefixHistory = []byte("h/") // h/<index(8)> -> raw input

// HistoryStore persists submitted inputs across sessions. Entries are
// keyed by a monotonic index so iteration order is insertion order.
// Persistence is best-effort: a write failure is logged, never
// surfaced — losing shell history must not break the console.
type HistoryStore struct {
	mu   sync.Mutex
	db   storage.DB
	next uint64
}

// NewHistoryStore creates a history store over db.
func NewHistoryStore(db storage.DB) *HistoryStore {
	s := &HistoryStore{db: db}
	// Resume the index after the highest persisted entry.
	_ = db.ForEach(prefixHistory, func(key, _ []byte) error {
		if len(key) == len(prefixHistory)+8 {
			idx := binary.BigEndian.Uint64(key[len(prefixHistory):])
			if idx >= s.next {
				s.next = idx + 1
			}
		}
		return nil
	})
	return s
}

func historyKey(idx uint64) []byte {
	key := make([]byte, len(prefixHistory)+8)
	copy(key, prefixHistory)
	binary.BigEndian.PutUint64(key[len(prefixHistory):], idx)
	return key
}

// Append persists one submitted input.
func (s *HistoryStore) Append(raw string) {
	s.mu.Lock()
	idx := s.next
	s.next++
	s.mu.Unlock()

	if err := s.db.Put(historyKey(idx), []byte(raw)); err != nil {
		log.Storage.Warn().Err(err).Msg("persist history entry")
	}
}

// Load returns all persisted inputs, oldest first.
func (s *HistoryStore) Load() ([]string, error) {
	type entry struct {
		idx uint64
		raw string
	}
	var entries []entry
	err := s.db.ForEach(prefixHistory, func(key, value []byte) error {
		if len(key) != len(prefixHistory)+8 {
			return nil
		}
		entries = append(entries, entry{
			idx: binary.BigEndian.Uint64(key[len(prefixHistory):]),
			raw: string(value),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].idx < entries[j].idx })
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.raw
	}
	return out, nil
}
