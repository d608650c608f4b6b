// Package indexer implements the diff-aware incremental indexer (C8):
// given a batch of changed paths, it partitions them into
// added/modified/deleted/renamed, re-parses only what changed, and
// writes the result through the persistent store and the in-memory
// hybrid index. Each store call takes the write lock on its own; no
// lock is held across a whole batch.
package indexer

import (
	"time"

	"github.com/amanmcp/codeindex/internal/watcher"
)

// ChangeKind classifies one path within a batch.
type ChangeKind int

const (
	ChangeAdded ChangeKind = iota
	ChangeModified
	ChangeDeleted
	ChangeRenamed
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeModified:
		return "modified"
	case ChangeDeleted:
		return "deleted"
	case ChangeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// Change is one partitioned unit of work derived from a FileEvent batch.
type Change struct {
	Kind    ChangeKind
	Path    string
	OldPath string // set only for ChangeRenamed
}

// Partition classifies each watcher event as one of the four change
// kinds C8 processes. Changes keep the input order; they are neither
// grouped by kind nor sorted by path.
func Partition(events []watcher.FileEvent) []Change {
	var out []Change
	for _, e := range events {
		switch e.Operation {
		case watcher.OpDelete:
			out = append(out, Change{Kind: ChangeDeleted, Path: e.Path})
		case watcher.OpRename:
			out = append(out, Change{Kind: ChangeRenamed, Path: e.Path, OldPath: e.OldPath})
		case watcher.OpCreate:
			out = append(out, Change{Kind: ChangeAdded, Path: e.Path})
		default:
			out = append(out, Change{Kind: ChangeModified, Path: e.Path})
		}
	}
	return out
}

// FileError records a per-file failure that did not abort the batch.
type FileError struct {
	Path string
	Err  error
}

// BatchResult is the outcome of processing one batch, per spec: a
// count of files that were written, skipped (unchanged content or
// filtered), or failed, plus the individual errors.
type BatchResult struct {
	Processed int
	Skipped   int
	Failed    int
	Duration  time.Duration
	Errors    []FileError
}
