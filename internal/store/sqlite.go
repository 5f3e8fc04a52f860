package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore caches answered application questions so repeat questions skip
// the LLM entirely.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the answers table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS answers (
		question   TEXT PRIMARY KEY,
		answer     TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating answers table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Get returns the cached answer for question, with found=false on a miss.
func (s *SQLiteStore) Get(question string) (string, bool, error) {
	var answer string
	err := s.db.QueryRow("SELECT answer FROM answers WHERE question = ?", question).Scan(&answer)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("looking up cached answer: %w", err)
	}
	return answer, true, nil
}

// Put records an answer for question. An existing entry is replaced so a
// re-answered question keeps the latest wording.
func (s *SQLiteStore) Put(question, answer string) error {
	_, err := s.db.Exec(
		"INSERT INTO answers (question, answer) VALUES (?, ?) ON CONFLICT(question) DO UPDATE SET answer = excluded.answer",
		question, answer,
	)
	if err != nil {
		return fmt.Errorf("caching answer: %w", err)
	}
	return nil
}

// Cleanup deletes cached answers older than the given duration.
func (s *SQLiteStore) Cleanup(olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)
	_, err := s.db.Exec("DELETE FROM answers WHERE created_at < ?", cutoff)
	if err != nil {
		return fmt.Errorf("cleaning up answers older than %v: %w", olderThan, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
