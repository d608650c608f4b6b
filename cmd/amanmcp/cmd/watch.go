package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amanmcp/codeindex/internal/indexer"
	"github.com/amanmcp/codeindex/internal/watcher"
)

var (
	watchDelayMS    int
	watchBatchSize  int
	watchIgnore     []string
	watchMaxDepth   int
	watchDryRun     bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the project tree and incrementally reindex on change",
	RunE: func(c *cobra.Command, args []string) error {
		a, err := openApp(verboseFlag)
		if err != nil {
			return err
		}
		defer a.Close()

		opts := watcher.DefaultOptions()
		if watchDelayMS > 0 {
			opts.DebounceWindow = time.Duration(watchDelayMS) * time.Millisecond
		} else if a.cfg.Watcher.DebounceMS > 0 {
			opts.DebounceWindow = time.Duration(a.cfg.Watcher.DebounceMS) * time.Millisecond
		}
		if a.cfg.Watcher.MaxQueueSize > 0 {
			opts.EventBufferSize = a.cfg.Watcher.MaxQueueSize
		}
		opts.IgnorePatterns = append(append([]string{}, a.cfg.Watcher.ExtraIgnorePatterns...), watchIgnore...)

		w, err := watcher.NewHybridWatcher(opts)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := w.Start(ctx, a.root); err != nil {
			return err
		}
		printf("watching %s (%s backend, debounce=%s)\n", a.root, w.WatcherType(), opts.DebounceWindow)

		ix := a.newIndexer(false)
		batchSize := watchBatchSize
		if batchSize <= 0 {
			batchSize = a.cfg.Watcher.BatchSize
		}

		for {
			select {
			case <-ctx.Done():
				printf("stopping\n")
				_ = w.Stop()
				return nil
			case events, ok := <-w.Events():
				if !ok {
					return nil
				}
				changes := indexer.Partition(events)
				for start := 0; start < len(changes); start += maxInt(batchSize, 1) {
					end := start + maxInt(batchSize, 1)
					if end > len(changes) {
						end = len(changes)
					}
					chunk := changes[start:end]
					if watchDryRun {
						for _, ch := range chunk {
							printf("[dry-run] %s %s\n", ch.Kind, ch.Path)
						}
						continue
					}
					result, err := ix.ProcessBatch(ctx, chunk)
					if err != nil {
						printf("batch error: %v\n", err)
						continue
					}
					if verboseFlag || result.Processed > 0 {
						printf("processed %d, skipped %d, failed %d\n", result.Processed, result.Skipped, result.Failed)
					}
					for _, fe := range result.Errors {
						printf("  %s: %v\n", fe.Path, fe.Err)
					}
				}
			case watchErr, ok := <-w.Errors():
				if !ok {
					continue
				}
				printf("watcher error: %v\n", watchErr)
			}
		}
	},
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func init() {
	watchCmd.Flags().IntVar(&watchDelayMS, "delay", 0, "debounce window in milliseconds (default from config)")
	watchCmd.Flags().IntVar(&watchBatchSize, "batch-size", 0, "max changes processed per batch (default from config)")
	watchCmd.Flags().StringSliceVar(&watchIgnore, "ignore", nil, "additional gitignore-style patterns to ignore")
	watchCmd.Flags().IntVar(&watchMaxDepth, "max-depth", 0, "(reserved; the watcher currently recurses the full tree)")
	watchCmd.Flags().BoolVar(&watchDryRun, "dry-run", false, "print detected changes without writing to the index")
}
