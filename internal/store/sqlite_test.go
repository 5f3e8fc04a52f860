package store

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutThenGet(t *testing.T) {
	s := newTestStore(t)

	if err := s.Put("Are you authorized to work in the US?", "Yes"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	answer, found, err := s.Get("Are you authorized to work in the US?")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found {
		t.Fatal("expected a cache hit after Put")
	}
	if answer != "Yes" {
		t.Errorf("answer = %q, want Yes", answer)
	}
}

func TestGetUnknownReturnsMiss(t *testing.T) {
	s := newTestStore(t)

	_, found, err := s.Get("never asked")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Error("expected a miss for an unknown question")
	}
}

func TestPutReplacesExistingAnswer(t *testing.T) {
	s := newTestStore(t)

	if err := s.Put("How many years of Go?", "3"); err != nil {
		t.Fatalf("first Put: %v", err)
	}
	if err := s.Put("How many years of Go?", "4"); err != nil {
		t.Fatalf("second Put (replace): %v", err)
	}

	answer, found, err := s.Get("How many years of Go?")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found || answer != "4" {
		t.Errorf("answer = %q (found=%v), want the replaced value 4", answer, found)
	}
}

func TestCleanupRemovesOldKeepsFresh(t *testing.T) {
	s := newTestStore(t)

	// Insert an "old" entry by writing directly with a past timestamp.
	_, err := s.db.Exec(
		"INSERT INTO answers (question, answer, created_at) VALUES (?, ?, ?)",
		"stale question", "stale answer", time.Now().Add(-48*time.Hour),
	)
	if err != nil {
		t.Fatalf("inserting old answer: %v", err)
	}

	if err := s.Put("fresh question", "fresh answer"); err != nil {
		t.Fatalf("Put fresh: %v", err)
	}

	if err := s.Cleanup(24 * time.Hour); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	if _, found, _ := s.Get("stale question"); found {
		t.Error("expected stale answer to be cleaned up")
	}
	if _, found, _ := s.Get("fresh question"); !found {
		t.Error("expected fresh answer to survive cleanup")
	}
}
