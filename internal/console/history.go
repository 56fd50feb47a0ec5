package console

import "sync"

// History is the ring of previously submitted inputs plus the browse
// cursor. The cursor counts back from the newest entry; -1 means "not
// browsing". Duplicates are allowed and insertion order is significant.
type History struct {
	mu      sync.Mutex
	entries []string
	cursor  int
	store   *HistoryStore
}

// NewHistory creates a history. With a non-nil store, previously
// persisted entries are loaded and new submissions are persisted.
func NewHistory(store *HistoryStore) *History {
	h := &History{cursor: -1, store: store}
	if store != nil {
		if entries, err := store.Load(); err == nil {
			h.entries = entries
		}
	}
	return h
}

// Push records a submitted input and resets the cursor to not-browsing.
func (h *History) Push(raw string) {
	h.mu.Lock()
	h.entries = append(h.entries, raw)
	h.cursor = -1
	store := h.store
	h.mu.Unlock()
	if store != nil {
		store.Append(raw)
	}
}

// Up moves one step toward the oldest entry, saturating there, and
// returns the entry now under the cursor. ok is false when there is no
// history to browse.
func (h *History) Up() (value string, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		return "", false
	}
	if h.cursor < len(h.entries)-1 {
		h.cursor++
	}
	return h.entries[len(h.entries)-1-h.cursor], true
}

// Down moves one step toward "not browsing". Stepping past the newest
// entry returns an empty value (clear the buffer); repeated Down while
// not browsing reports ok=false and has no effect.
func (h *History) Down() (value string, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cursor == -1 {
		return "", false
	}
	h.cursor--
	if h.cursor == -1 {
		return "", true
	}
	return h.entries[len(h.entries)-1-h.cursor], true
}

// Browsing reports whether the cursor sits on a history entry.
func (h *History) Browsing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor != -1
}

// Len returns the number of recorded entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Entries returns a snapshot of the recorded inputs, oldest first.
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}
