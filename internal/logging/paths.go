package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.codeindex/logs/).
// Falls back to a temp directory if the home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".codeindex", "logs")
	}
	return filepath.Join(home, ".codeindex", "logs")
}

// DefaultLogPath returns the default server log path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "server.log")
}

// ProjectLogDir returns the logs/ directory under a project's metadata
// directory, per the persisted layout in §6.
func ProjectLogDir(metaDir string) string {
	return filepath.Join(metaDir, "logs")
}

// DBErrorsLogPath, SlowQueriesLogPath, SearchPerfLogPath name the
// newline-delimited JSON log files under a project's logs/ directory.
func DBErrorsLogPath(metaDir string) string    { return filepath.Join(ProjectLogDir(metaDir), "db-errors.jsonl") }
func SlowQueriesLogPath(metaDir string) string { return filepath.Join(ProjectLogDir(metaDir), "slow-queries.jsonl") }
func SearchPerfLogPath(metaDir string) string {
	return filepath.Join(ProjectLogDir(metaDir), "search-performance.jsonl")
}

// FindLogFile locates the log file to view: an explicit path if given
// and present, otherwise the default global server log.
func FindLogFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit, nil
		}
		return "", fmt.Errorf("log file not found: %s", explicit)
	}

	globalPath := DefaultLogPath()
	if _, err := os.Stat(globalPath); err == nil {
		return globalPath, nil
	}

	return "", fmt.Errorf("no log file found. Run with --debug first.\nExpected at: %s", globalPath)
}

// EnsureLogDir creates the default log directory if it doesn't exist.
func EnsureLogDir() error {
	return os.MkdirAll(DefaultLogDir(), 0o755)
}
