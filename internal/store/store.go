// Package store persists a warm-start snapshot of the index: per-file
// content hashes plus the serialized entities derived from each file, one
// row per (kind, path). The snapshot is a cache, never an authority — a
// session that loads one still rescans the workspace and hash-diffs
// against live disk content.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// schemaVersion invalidates snapshots written by incompatible builds.
const schemaVersion = "1"

// Querier abstracts *sql.DB and *sql.Tx so store methods work in both contexts.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Store wraps a SQLite connection holding one workspace's snapshot.
type Store struct {
	db     *sql.DB
	q      Querier // active querier: db or tx
	dbPath string
}

// FileEntities is one snapshot row: the entities of one kind derived from
// one file, with the content hash they were derived from.
type FileEntities struct {
	Path    string
	Hash    uint64
	Payload json.RawMessage // JSON array of the kind's entity type
}

// cacheDir returns the default snapshot directory.
func cacheDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	dir := filepath.Join(home, ".cache", "phx-index")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir cache: %w", err)
	}
	return dir, nil
}

// Open opens or creates the snapshot database for a workspace name.
func Open(workspace string) (*Store, error) {
	dir, err := cacheDir()
	if err != nil {
		return nil, err
	}
	return OpenPath(filepath.Join(dir, workspace+".db"))
}

// OpenPath opens a snapshot database at the given path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &Store{db: db, dbPath: dbPath}
	s.q = s.db
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// OpenMemory opens an in-memory snapshot database (for testing).
func OpenMemory() (*Store, error) {
	return OpenPath(":memory:")
}

func (s *Store) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS entities (
			kind    TEXT NOT NULL,
			path    TEXT NOT NULL,
			hash    TEXT NOT NULL,
			payload TEXT NOT NULL,
			PRIMARY KEY (kind, path)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entities_kind ON entities(kind)`,
	}
	for _, stmt := range stmts {
		if _, err := s.q.Exec(stmt); err != nil {
			return err
		}
	}
	ver, err := s.meta("schema_version")
	if err != nil {
		return err
	}
	if ver != "" && ver != schemaVersion {
		if _, err := s.q.Exec("DELETE FROM entities"); err != nil {
			return fmt.Errorf("wipe stale snapshot: %w", err)
		}
	}
	return s.setMeta("schema_version", schemaVersion)
}

func (s *Store) meta(key string) (string, error) {
	var v string
	err := s.q.QueryRow("SELECT value FROM meta WHERE key=?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read meta %s: %w", key, err)
	}
	return v, nil
}

func (s *Store) setMeta(key, value string) error {
	_, err := s.q.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("write meta %s: %w", key, err)
	}
	return nil
}

// WithTransaction executes fn within a single SQLite transaction. The
// callback receives a transaction-scoped Store; the receiver's q field is
// never mutated, so concurrent readers using s.q == s.db are unaffected.
func (s *Store) WithTransaction(fn func(txStore *Store) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	txStore := &Store{db: s.db, q: tx, dbPath: s.dbPath}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// SaveKind replaces every row of one entity kind with the given set.
func (s *Store) SaveKind(kind string, entries []FileEntities) error {
	return s.WithTransaction(func(tx *Store) error {
		if _, err := tx.q.Exec("DELETE FROM entities WHERE kind=?", kind); err != nil {
			return fmt.Errorf("clear kind %s: %w", kind, err)
		}
		for _, e := range entries {
			_, err := tx.q.Exec(
				"INSERT INTO entities (kind, path, hash, payload) VALUES (?, ?, ?, ?)",
				kind, e.Path, formatHash(e.Hash), string(e.Payload))
			if err != nil {
				return fmt.Errorf("insert %s %s: %w", kind, e.Path, err)
			}
		}
		return nil
	})
}

// LoadKind returns every snapshot row of one entity kind.
func (s *Store) LoadKind(kind string) ([]FileEntities, error) {
	rows, err := s.q.Query("SELECT path, hash, payload FROM entities WHERE kind=?", kind)
	if err != nil {
		return nil, fmt.Errorf("load kind %s: %w", kind, err)
	}
	defer rows.Close()
	var out []FileEntities
	for rows.Next() {
		var e FileEntities
		var hash, payload string
		if err := rows.Scan(&e.Path, &hash, &payload); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", kind, err)
		}
		e.Hash = parseHash(hash)
		e.Payload = json.RawMessage(payload)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.dbPath }

// Hashes round-trip through TEXT: SQLite integers are signed 64-bit and
// xxh3 digests use the full unsigned range.
func formatHash(h uint64) string {
	return fmt.Sprintf("%016x", h)
}

func parseHash(s string) uint64 {
	var h uint64
	fmt.Sscanf(s, "%x", &h)
	return h
}
