package storage

import (
	"errors"
	"sort"
	"testing"
)

// exerciseDB runs the common contract checks against any DB implementation.
func exerciseDB(t *testing.T, db DB) {
	t.Helper()

	// Get on a missing key returns ErrNotFound.
	if _, err := db.Get([]byte("missing")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing: got %v, want ErrNotFound", err)
	}

	// Put / Get round trip.
	if err := db.Put([]byte("h/0001"), []byte("mint")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := db.Get([]byte("h/0001"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "mint" {
		t.Fatalf("Get = %q, want %q", got, "mint")
	}

	// Has.
	ok, err := db.Has([]byte("h/0001"))
	if err != nil || !ok {
		t.Fatalf("Has = %v, %v, want true", ok, err)
	}

	// ForEach respects the prefix.
	if err := db.Put([]byte("h/0002"), []byte("balance")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := db.Put([]byte("x/0001"), []byte("other")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	var keys []string
	err = db.ForEach([]byte("h/"), func(key, value []byte) error {
		keys = append(keys, string(key))
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach: %v", err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "h/0001" || keys[1] != "h/0002" {
		t.Fatalf("ForEach keys = %v", keys)
	}

	// Delete.
	if err := db.Delete([]byte("h/0001")); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	ok, err = db.Has([]byte("h/0001"))
	if err != nil {
		t.Fatalf("Has after delete: %v", err)
	}
	if ok {
		t.Fatal("Has after delete = true")
	}
}

func TestMemoryDB(t *testing.T) {
	db := NewMemory()
	defer db.Close()
	exerciseDB(t, db)
}

func TestBadgerDB(t *testing.T) {
	db, err := NewBadger(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadger: %v", err)
	}
	defer db.Close()
	exerciseDB(t, db)
}

func TestMemoryDBGetReturnsCopy(t *testing.T) {
	db := NewMemory()
	if err := db.Put([]byte("k"), []byte("abc")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	v, err := db.Get([]byte("k"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	v[0] = 'z'
	v2, err := db.Get([]byte("k"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(v2) != "abc" {
		t.Fatalf("stored value mutated through returned slice: %q", v2)
	}
}
