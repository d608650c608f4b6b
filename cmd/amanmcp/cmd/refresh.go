package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/amanmcp/codeindex/internal/config"
	"github.com/amanmcp/codeindex/internal/indexer"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh [files...]",
	Short: "Incrementally reindex the given files (or the whole tree if none given)",
	RunE: func(c *cobra.Command, args []string) error {
		a, err := openApp(verboseFlag)
		if err != nil {
			return err
		}
		defer a.Close()

		ix := a.newIndexer(false)

		if len(args) == 0 {
			result, err := ix.RunFull(context.Background(), indexer.FullIndexConfig{
				ExcludePatterns: a.cfg.Paths.Exclude,
				IncludePatterns: a.cfg.Paths.Include,
			})
			if err != nil {
				return err
			}
			printf("refreshed %d files: %d processed, %d skipped, %d failed\n",
				result.Files, result.Processed, result.Skipped, result.Failed)
			return nil
		}

		changes := make([]indexer.Change, 0, len(args))
		for _, path := range args {
			rel := path
			if abs, absErr := filepath.Abs(path); absErr == nil {
				rel = config.NormalizePath(a.root, abs)
			}
			kind := indexer.ChangeAdded
			if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
				kind = indexer.ChangeDeleted
			}
			changes = append(changes, indexer.Change{Kind: kind, Path: rel})
		}

		result, err := ix.ProcessBatch(context.Background(), changes)
		if err != nil {
			return err
		}
		printf("refreshed %d files: %d processed, %d skipped, %d failed\n",
			len(args), result.Processed, result.Skipped, result.Failed)
		if verboseFlag {
			for _, e := range result.Errors {
				printf("  %s: %v\n", e.Path, e.Err)
			}
		}
		return nil
	},
}
