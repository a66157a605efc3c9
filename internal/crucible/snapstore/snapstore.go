// Package snapstore is a CLI-only convenience layer over an embedded
// SQLite database: CLI commands load --snapshot from it and save changes
// back, and the `snapshot list|copy` subcommands manage it. It is not
// part of the engine's public contract — the engine's own persistence
// story stays exactly Engine.Serialize()/Deserialize() over an in-memory
// struct (spec §1c, §6); this package merely gives the CLI somewhere
// durable to put the result of that call.
package snapstore

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/crucible/core/internal/crucible/engine"
	"github.com/crucible/core/internal/crucible/xerrors"
)

const (
	journalMode = "WAL"
	busyTimeoutMS = 5000
)

// Store wraps a SQLite-backed snapshot table.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) a SQLite database at path with the
// snapshots table present (spec §11 domain stack: mattn/go-sqlite3).
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, xerrors.Wrapf(err, "create snapstore directory %s", dir)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, xerrors.Wrapf(err, "open snapstore at %s", path)
	}
	if _, err := db.Exec("PRAGMA journal_mode = " + journalMode); err != nil {
		db.Close()
		return nil, xerrors.Wrapf(err, "enable %s journal mode", journalMode)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, xerrors.Wrapf(err, "set busy timeout")
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		name TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		payload BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, xerrors.Wrap(err, "create snapshots table")
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Save serializes e and stores it under name, overwriting any prior
// snapshot of the same name.
func (s *Store) Save(name string, createdAtUnix int64, e *engine.Engine) error {
	payload, err := json.Marshal(e.Serialize())
	if err != nil {
		return xerrors.Wrap(err, "marshal snapshot")
	}
	_, err = s.db.Exec(
		`INSERT INTO snapshots (name, created_at, payload) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET created_at = excluded.created_at, payload = excluded.payload`,
		name, createdAtUnix, payload,
	)
	if err != nil {
		return xerrors.Wrapf(err, "save snapshot %s", name)
	}
	return nil
}

// Load restores the named snapshot into e.
func (s *Store) Load(name string, e *engine.Engine) error {
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM snapshots WHERE name = ?`, name).Scan(&payload)
	if err != nil {
		return xerrors.Wrapf(err, "load snapshot %s", name)
	}

	var snap engine.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return xerrors.Wrapf(err, "unmarshal snapshot %s", name)
	}
	return e.Deserialize(snap)
}

// List returns every stored snapshot name, newest first.
func (s *Store) List() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM snapshots ORDER BY created_at DESC`)
	if err != nil {
		return nil, xerrors.Wrap(err, "list snapshots")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, xerrors.Wrap(err, "scan snapshot row")
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
