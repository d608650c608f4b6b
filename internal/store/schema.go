package store

import "fmt"

// schemaSQL creates the full persisted schema in one shot for a fresh
// database. It is schema version CurrentSchemaVersion; no migration
// steps exist, and Open records that version in an empty
// migration_history.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS migration_history (
	version    INTEGER PRIMARY KEY,
	applied_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS files (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id   INTEGER NOT NULL DEFAULT 1,
	path         TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	language     TEXT NOT NULL DEFAULT '',
	size_bytes   INTEGER NOT NULL DEFAULT 0,
	mtime        TEXT NOT NULL,
	indexed_at   TEXT NOT NULL,
	deleted_at   TEXT,
	UNIQUE(project_id, path)
);
CREATE INDEX IF NOT EXISTS idx_files_path ON files(path) WHERE deleted_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_files_deleted ON files(deleted_at);

CREATE TABLE IF NOT EXISTS symbols (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id    INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	type       TEXT NOT NULL,
	start_line INTEGER NOT NULL,
	end_line   INTEGER NOT NULL,
	start_col  INTEGER NOT NULL DEFAULT 0,
	end_col    INTEGER NOT NULL DEFAULT 0,
	signature  TEXT NOT NULL DEFAULT '',
	parent_id  INTEGER REFERENCES symbols(id) ON DELETE SET NULL,
	deleted_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_id) WHERE deleted_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS chunks (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id          INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
	symbol_id        INTEGER REFERENCES symbols(id) ON DELETE SET NULL,
	text             TEXT NOT NULL,
	text_schema_ver  INTEGER NOT NULL,
	start_line       INTEGER NOT NULL,
	end_line         INTEGER NOT NULL,
	content_hash     TEXT NOT NULL,
	deleted_at       TEXT
);
CREATE INDEX IF NOT EXISTS idx_chunks_file ON chunks(file_id) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS embeddings (
	chunk_id      INTEGER PRIMARY KEY REFERENCES chunks(id) ON DELETE CASCADE,
	dense         BLOB NOT NULL,
	sparse_values BLOB NOT NULL,
	sparse_cols   BLOB NOT NULL,
	model         TEXT NOT NULL,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS calls (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	caller_id   INTEGER NOT NULL REFERENCES symbols(id) ON DELETE CASCADE,
	callee_name TEXT NOT NULL,
	callee_id   INTEGER REFERENCES symbols(id) ON DELETE SET NULL,
	line        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_calls_caller ON calls(caller_id);
CREATE INDEX IF NOT EXISTS idx_calls_callee_name ON calls(callee_name);

CREATE TABLE IF NOT EXISTS watcher_state (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE VIRTUAL TABLE IF NOT EXISTS fts_chunks USING fts5(
	chunk_id UNINDEXED,
	content,
	tokenize = 'unicode61'
);
`

// pragmas configures the connection per §4.1/§6: WAL journaling, a
// bounded busy timeout so writers queue instead of failing fast, and a
// pragmatic cache/mmap budget for a local single-project database.
func pragmaStatements(cacheSizeMB, mmapSizeMB, busyTimeoutMS, walAutoCheckpoint int) []string {
	return []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeoutMS),
		fmt.Sprintf("PRAGMA cache_size=-%d", cacheSizeMB*1024),
		fmt.Sprintf("PRAGMA mmap_size=%d", mmapSizeMB*1024*1024),
		fmt.Sprintf("PRAGMA wal_autocheckpoint=%d", walAutoCheckpoint),
	}
}
