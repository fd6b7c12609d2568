// Package cache stores compiled listings in a SQLite database keyed by the
// hash of the source they were compiled from.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // enable the "sqlite" SQL driver
)

// ErrMiss is returned by Lookup when no entry matches.
var ErrMiss = errors.New("cache miss")

var initTable = map[string]string{
	"listings": `CREATE TABLE IF NOT EXISTS listings (
		id         TEXT PRIMARY KEY,
		hash       TEXT NOT NULL UNIQUE,
		file       TEXT NOT NULL,
		version    TEXT NOT NULL,
		listing    TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
}

// Entry is one cached compilation.
type Entry struct {
	ID        uuid.UUID
	Hash      string
	File      string
	Version   string
	Listing   string
	CreatedAt time.Time
}

// Cache is the compile cache backend.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache database at path. Use
// ":memory:" for a throwaway cache.
func Open(ctx context.Context, path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", path, err)
	}
	c, err := NewCacheDB(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// NewCacheDB wraps an already opened SQLite database.
func NewCacheDB(ctx context.Context, db *sql.DB) (*Cache, error) {
	// A single connection keeps ":memory:" databases alive and shared.
	db.SetMaxOpenConns(1)
	for t, q := range initTable {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return nil, fmt.Errorf("initializing table %s: %w", t, err)
		}
	}
	return &Cache{db: db}, nil
}

// Hash returns the key a source text is cached under. The compiler version
// is part of the key so an upgrade never serves stale listings.
func Hash(version, source string) string {
	sum := sha256.Sum256([]byte(version + "\x00" + source))
	return hex.EncodeToString(sum[:])
}

// Lookup returns the entry stored under hash, or ErrMiss.
func (c *Cache) Lookup(ctx context.Context, hash string) (*Entry, error) {
	var (
		e       Entry
		id      string
		created int64
	)
	row := c.db.QueryRowContext(ctx,
		`SELECT id, hash, file, version, listing, created_at FROM listings WHERE hash = ?`, hash)
	err := row.Scan(&id, &e.Hash, &e.File, &e.Version, &e.Listing, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache lookup: %w", err)
	}
	if e.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("cache lookup: bad id %q: %w", id, err)
	}
	e.CreatedAt = time.Unix(created, 0)
	return &e, nil
}

// Store records listing under hash, replacing any previous entry with the
// same hash, and returns the new entry.
func (c *Cache) Store(ctx context.Context, hash, file, version, listing string) (*Entry, error) {
	e := &Entry{
		ID:        uuid.New(),
		Hash:      hash,
		File:      file,
		Version:   version,
		Listing:   listing,
		CreatedAt: time.Now().Truncate(time.Second),
	}
	err := transaction(ctx, c.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM listings WHERE hash = ?`, hash); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO listings (id, hash, file, version, listing, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			e.ID.String(), e.Hash, e.File, e.Version, e.Listing, e.CreatedAt.Unix())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("cache store: %w", err)
	}
	return e, nil
}

// Len returns the number of cached entries.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("cache len: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// transaction runs f in a transaction, committing if it succeeds and
// rolling back otherwise.
func transaction(ctx context.Context, db *sql.DB, f func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := f(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
