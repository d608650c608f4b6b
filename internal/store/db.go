package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver, no CGO

	"github.com/amanmcp/codeindex/internal/errcodes"
)

// Store is the persistent SQLite-backed store: schema, pragmas, and
// the single-writer discipline described in §4.1/§4.10.
type Store struct {
	db     *sql.DB
	path   string
	mu     sync.Mutex // serializes writer transactions app-side, on top of SQLite's own lock
	logger *slog.Logger
}

// Options configures pragma tuning at open time.
type Options struct {
	CacheSizeMB       int
	MmapSizeMB        int
	BusyTimeoutMS     int
	WALAutoCheckpoint int
	Logger            *slog.Logger
}

// DefaultOptions returns the tuning defaults from §6.
func DefaultOptions() Options {
	return Options{CacheSizeMB: 64, MmapSizeMB: 256, BusyTimeoutMS: 5000, WALAutoCheckpoint: 1000}
}

// Open opens (creating if absent) the SQLite database at path, applies
// pragmas, validates integrity, and ensures the schema is current.
func Open(path string, opts Options) (*Store, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errcodes.New(errcodes.ErrCodeFileAccess, "create store directory", err)
		}
		if err := validateIntegrity(path); err != nil {
			opts.Logger.Warn("store index appears corrupted, recreating",
				slog.String("path", path), slog.String("error", err.Error()))
			_ = os.Remove(path)
			_ = os.Remove(path + "-wal")
			_ = os.Remove(path + "-shm")
		}
	}

	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errcodes.New(errcodes.ErrCodeDatabase, "open sqlite database", err)
	}
	db.SetMaxOpenConns(1) // single writer; SQLite WAL allows concurrent readers within this conn pool serialization

	for _, stmt := range pragmaStatements(opts.CacheSizeMB, opts.MmapSizeMB, opts.BusyTimeoutMS, opts.WALAutoCheckpoint) {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, errcodes.New(errcodes.ErrCodeDatabase, fmt.Sprintf("apply pragma %q", stmt), err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, errcodes.New(errcodes.ErrCodeDatabase, "apply schema", err)
	}

	if err := ensureSchemaVersion(db); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_key_check"); err != nil {
		db.Close()
		return nil, errcodes.New(errcodes.ErrCodeIntegrityCheck, "foreign key check", err)
	}

	return &Store{db: db, path: path, logger: opts.Logger}, nil
}

func validateIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}
	return nil
}

func ensureSchemaVersion(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM migration_history").Scan(&count); err != nil {
		return errcodes.New(errcodes.ErrCodeDatabase, "read migration_history", err)
	}
	var maxVersion int
	if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM migration_history").Scan(&maxVersion); err != nil {
		return errcodes.New(errcodes.ErrCodeDatabase, "read migration_history", err)
	}
	if maxVersion > CurrentSchemaVersion {
		return errcodes.New(errcodes.ErrCodeDatabase,
			fmt.Sprintf("database schema version %d is newer than supported version %d", maxVersion, CurrentSchemaVersion), nil)
	}
	if count == 0 {
		_, err := db.Exec("INSERT INTO migration_history(version, applied_at) VALUES (?, ?)",
			CurrentSchemaVersion, time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			return errcodes.New(errcodes.ErrCodeDatabase, "record schema version", err)
		}
	}
	return nil
}

// Close checkpoints the WAL and closes the underlying connection.
func (s *Store) Close() error {
	if s.path != "" {
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	}
	return s.db.Close()
}

// DB exposes the underlying *sql.DB for repositories in this package.
func (s *Store) DB() *sql.DB { return s.db }

// Ping validates the connection is alive, used by health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
