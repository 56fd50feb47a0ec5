package console

import (
	"testing"

	"github.com/tokendeck/tokendeck/internal/storage"
)

func TestHistoryUpDown(t *testing.T) {
	h := NewHistory(nil)
	h.Push("first")
	h.Push("second")
	h.Push("third")

	// Up walks toward the oldest entry.
	if v, ok := h.Up(); !ok || v != "third" {
		t.Fatalf("Up = %q, %v", v, ok)
	}
	if v, _ := h.Up(); v != "second" {
		t.Fatalf("Up = %q", v)
	}
	if v, _ := h.Up(); v != "first" {
		t.Fatalf("Up = %q", v)
	}

	// Saturates at the oldest: repeated Up returns the same entry.
	for i := 0; i < 3; i++ {
		if v, ok := h.Up(); !ok || v != "first" {
			t.Fatalf("saturated Up = %q, %v", v, ok)
		}
	}

	// Down walks back toward "not browsing".
	if v, _ := h.Down(); v != "second" {
		t.Fatalf("Down = %q", v)
	}
	if v, _ := h.Down(); v != "third" {
		t.Fatalf("Down = %q", v)
	}
	// Passing the newest entry clears the buffer.
	if v, ok := h.Down(); !ok || v != "" {
		t.Fatalf("Down past newest = %q, %v", v, ok)
	}
	// Repeated Down while not browsing has no effect.
	for i := 0; i < 3; i++ {
		if _, ok := h.Down(); ok {
			t.Fatal("Down while not browsing should report ok=false")
		}
	}
}

func TestHistoryEmptyNavigation(t *testing.T) {
	h := NewHistory(nil)
	if _, ok := h.Up(); ok {
		t.Fatal("Up on empty history should report ok=false")
	}
	if _, ok := h.Down(); ok {
		t.Fatal("Down on empty history should report ok=false")
	}
}

func TestHistoryPushResetsCursor(t *testing.T) {
	h := NewHistory(nil)
	h.Push("one")
	h.Push("two")

	if _, ok := h.Up(); !ok {
		t.Fatal("Up failed")
	}
	if !h.Browsing() {
		t.Fatal("expected browsing after Up")
	}

	h.Push("three")
	if h.Browsing() {
		t.Fatal("Push must reset the cursor to not-browsing")
	}
	if v, _ := h.Up(); v != "three" {
		t.Fatalf("Up after push = %q, want newest", v)
	}
}

func TestHistoryAllowsDuplicates(t *testing.T) {
	h := NewHistory(nil)
	h.Push("balance")
	h.Push("balance")
	if h.Len() != 2 {
		t.Fatalf("len = %d, want 2 (duplicates allowed)", h.Len())
	}
}

func TestHistoryPersistence(t *testing.T) {
	db := storage.NewMemory()

	store := NewHistoryStore(db)
	h := NewHistory(store)
	h.Push("connect")
	h.Push("mint")

	// A fresh history over the same store sees the prior session.
	h2 := NewHistory(NewHistoryStore(db))
	got := h2.Entries()
	if len(got) != 2 || got[0] != "connect" || got[1] != "mint" {
		t.Fatalf("reloaded entries = %v", got)
	}

	// And appends continue after the highest persisted index.
	h2.Push("balance")
	h3 := NewHistory(NewHistoryStore(db))
	got = h3.Entries()
	if len(got) != 3 || got[2] != "balance" {
		t.Fatalf("entries after resume = %v", got)
	}
}
