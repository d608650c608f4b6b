package hybridindex

import (
	"github.com/gofrs/flock"

	"github.com/amanmcp/codeindex/internal/errcodes"
)

// fileLockName is the advisory lock file guarding Save across
// processes: the CLI's index/refresh/watch commands and the MCP
// driver can all hold an *Index over the same on-disk directory, and
// only one of them may be mid-Save at a time or a reader could
// observe a half-renamed file set.
const fileLockName = ".save.lock"

// withSaveLock acquires dir's cross-process advisory lock for the
// duration of fn. Save holds the in-memory RWMutex only for reading,
// so it does not keep two Saves apart; this file lock serializes
// Saves from separate processes and from goroutines of one process.
func withSaveLock(dir string, fn func() error) error {
	lockPath := dir + "/" + fileLockName
	fl := flock.New(lockPath)
	if err := fl.Lock(); err != nil {
		return errcodes.Wrap(errcodes.ErrCodeFileAccess, err)
	}
	defer fl.Unlock()
	return fn()
}
