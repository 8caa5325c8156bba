// Package localstore is the device-local key/value state of the client:
// review receipts keyed by organization, and device metadata such as the
// device id. It is a cache; the server's ledger decides eligibility.
package localstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - empty file
// 1 - receipts and device tables
const currentSchemaVersion = 1

// Store is a SQLite-backed receipt and metadata store. It is safe for
// concurrent use.
type Store struct {
	db      *sql.DB
	version atomic.Uint64

	mu     sync.Mutex
	subs   map[int]func(orgID string)
	nextID int
}

// Open creates or opens the database at path and applies migrations.
// Use ":memory:" only in tests; it does not persist.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect local store: %w", err)
	}

	// SQLite has one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, subs: map[int]func(string){}}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	for _, p := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("execute %q: %w", p, err)
		}
	}
	return nil
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version >= currentSchemaVersion {
		return nil
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// Version increases after every receipt write or delete. Readers that
// cached receipts compare it to decide whether to re-read.
func (s *Store) Version() uint64 { return s.version.Load() }

// Subscribe registers fn to run after each receipt change, with the
// organization id that changed. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(orgID string)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// changed runs after a committed write.
func (s *Store) changed(orgID string) {
	s.version.Add(1)
	s.mu.Lock()
	fns := make([]func(string), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(orgID)
	}
}

// Get returns the receipt for orgID.
func (s *Store) Get(ctx context.Context, orgID string) (reviewID string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT review_id FROM receipts WHERE organization_id = ?`, orgID).Scan(&reviewID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get receipt: %w", err)
	}
	return reviewID, true, nil
}

// Set stores or replaces the receipt for orgID.
func (s *Store) Set(ctx context.Context, orgID, reviewID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO receipts (organization_id, review_id, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(organization_id) DO UPDATE SET review_id = excluded.review_id, created_at = excluded.created_at`,
		orgID, reviewID, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("set receipt: %w", err)
	}
	s.changed(orgID)
	return nil
}

// Delete removes the receipt for orgID. Deleting a missing receipt is not an error.
func (s *Store) Delete(ctx context.Context, orgID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM receipts WHERE organization_id = ?`, orgID)
	if err != nil {
		return fmt.Errorf("delete receipt: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.changed(orgID)
	}
	return nil
}

// All returns every receipt keyed by organization id.
func (s *Store) All(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT organization_id, review_id FROM receipts`)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var org, id string
		if err := rows.Scan(&org, &id); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		out[org] = id
	}
	return out, rows.Err()
}

// Meta returns a device metadata value.
func (s *Store) Meta(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM device WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}

// PutMetaIfAbsent stores value under key unless a value is already there,
// and returns whichever value is stored afterwards.
func (s *Store) PutMetaIfAbsent(ctx context.Context, key, value string) (string, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO device (key, value) VALUES (?, ?)`, key, value); err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	v, ok, err := s.Meta(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("put %s: value missing after insert", key)
	}
	return v, nil
}

// DeleteMeta removes a metadata value, e.g. to reset the device id.
func (s *Store) DeleteMeta(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM device WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
