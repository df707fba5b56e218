// Package cache is the durable memoization layer for token resolution:
// lowercased symbol → chain→contract-address map. Entries are written once
// and never expire; a stale entry is returned for the lifetime of the store.
package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// Store is the resolver-facing contract.
type Store interface {
	Lookup(symbol string) (map[string]string, bool, error)
	Store(symbol string, platforms map[string]string) error
	Close() error
}

type SQLiteStore struct {
	db *sql.DB
}

func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS platforms (
			symbol TEXT PRIMARY KEY,
			platforms TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create platforms table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Lookup(symbol string) (map[string]string, bool, error) {
	var raw string
	err := s.db.QueryRow(
		"SELECT platforms FROM platforms WHERE symbol = ?",
		strings.ToLower(symbol),
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache lookup %q: %w", symbol, err)
	}

	platforms := map[string]string{}
	if err := json.Unmarshal([]byte(raw), &platforms); err != nil {
		return nil, false, fmt.Errorf("cache entry %q corrupt: %w", symbol, err)
	}
	return platforms, true, nil
}

// Store persists the mapping for symbol. Concurrent writers racing on the
// same new symbol both carry semantically equivalent values, so the first
// insert wins and later ones are no-ops.
func (s *SQLiteStore) Store(symbol string, platforms map[string]string) error {
	raw, err := json.Marshal(platforms)
	if err != nil {
		return fmt.Errorf("encode platforms for %q: %w", symbol, err)
	}
	_, err = s.db.Exec(
		"INSERT INTO platforms (symbol, platforms, created_at) VALUES (?, ?, ?) ON CONFLICT(symbol) DO NOTHING",
		strings.ToLower(symbol), string(raw), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("cache store %q: %w", symbol, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
