package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/amanmcp/codeindex/internal/indexer"
	"github.com/amanmcp/codeindex/internal/progressui"
)

var (
	indexForce          bool
	indexBatchSize      int
	indexFollowSymlinks bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Run a full index of the project tree",
	RunE: func(c *cobra.Command, args []string) error {
		a, err := openApp(verboseFlag)
		if err != nil {
			return err
		}
		defer a.Close()

		ix := a.newIndexer(indexForce)
		reporter := progressui.Start(os.Stderr, "indexing")

		result, err := ix.RunFull(context.Background(), indexer.FullIndexConfig{
			ExcludePatterns: a.cfg.Paths.Exclude,
			IncludePatterns: a.cfg.Paths.Include,
			BatchSize:       indexBatchSize,
			FollowSymlinks:  indexFollowSymlinks,
			OnProgress: func(r *indexer.FullIndexResult, lastPath string) {
				reporter.Update(r.Processed, r.Skipped, r.Failed, lastPath)
			},
		})
		if err != nil {
			reporter.Stop("indexing failed")
			return err
		}
		reporter.Stop("indexing complete")

		printf("indexed %d files: %d processed, %d skipped, %d failed (%s)\n",
			result.Files, result.Processed, result.Skipped, result.Failed, result.Duration.Round(1e6))
		if verboseFlag {
			for _, e := range result.Errors {
				printf("  %s: %v\n", e.Path, e.Err)
			}
		}
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&indexForce, "force", false, "reindex every file, ignoring content-hash dedup")
	indexCmd.Flags().IntVar(&indexBatchSize, "batch-size", 200, "files per transactional batch")
	indexCmd.Flags().BoolVar(&indexFollowSymlinks, "follow-symlinks", false, "follow symbolic links while scanning")
}
