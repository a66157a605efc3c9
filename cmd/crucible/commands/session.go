// Package commands implements the crucible CLI's command tree (cobra) over
// internal/crucible/engine, persisting state between invocations through a
// SQLite-backed snapshot store (internal/crucible/snapstore).
package commands

import (
	"log/slog"
	"os"

	"github.com/crucible/core/internal/crucible/config"
	"github.com/crucible/core/internal/crucible/engine"
	"github.com/crucible/core/internal/crucible/snapstore"
	"github.com/crucible/core/internal/crucible/xerrors"
)

var (
	flagConfigPath string
	flagDBPath     string
	flagSnapshot   string
	flagSeed       int64
	flagVerbose    bool
)

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadConfig() (*config.Config, error) {
	if flagConfigPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		return nil, xerrors.Wrapf(err, "load config %s", flagConfigPath)
	}
	return cfg, nil
}

// session bundles an open snapshot store with the engine loaded (or freshly
// seeded) from it, so every command acts against durable state without each
// RunE re-deriving the open/load/save dance by hand.
type session struct {
	store *snapstore.Store
	eng   *engine.Engine
	fresh bool
}

// openSession opens the snapshot store at --db and loads --snapshot into a
// new engine. When the load fails for any reason (no such snapshot, or one
// that does not decode or validate), the engine is seeded afresh with Reset
// instead.
func openSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := newLogger()

	store, err := snapstore.Open(flagDBPath)
	if err != nil {
		return nil, err
	}

	eng := engine.New(cfg, flagSeed, log)
	fresh := false
	if err := store.Load(flagSnapshot, eng); err != nil {
		eng.Reset()
		fresh = true
	}
	return &session{store: store, eng: eng, fresh: fresh}, nil
}

// save persists the session's engine under --snapshot and closes the store.
func (s *session) save(createdAtUnix int64) error {
	defer s.store.Close()
	return s.store.Save(flagSnapshot, createdAtUnix, s.eng)
}

// close releases the store without saving (read-only commands).
func (s *session) close() error {
	return s.store.Close()
}
