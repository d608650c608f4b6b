package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/amanmcp/codeindex/internal/config"
	"github.com/amanmcp/codeindex/internal/errcodes"
	"github.com/amanmcp/codeindex/internal/store"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the project metadata directory and default config",
	RunE: func(c *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return errcodes.InternalError("getwd", err)
		}
		meta := config.MetaDir(cwd)
		if _, statErr := os.Stat(meta); statErr == nil && !initForce {
			return errcodes.New(errcodes.ErrCodeConfigInvalid, "project already initialized", nil).
				WithSuggestion("pass --force to reinitialize")
		}
		for _, sub := range []string{"", "hybrid", "logs", "models", "backups"} {
			if err := os.MkdirAll(filepath.Join(meta, sub), 0o755); err != nil {
				return errcodes.FileAccessError(filepath.Join(meta, sub), err)
			}
		}

		cfg := config.Default()
		cfgPath := filepath.Join(cwd, ".codeindex.yaml")
		if _, statErr := os.Stat(cfgPath); statErr != nil || initForce {
			if err := cfg.WriteYAML(cfgPath); err != nil {
				return errcodes.ConfigError("write default config", err)
			}
		}

		dbPath := filepath.Join(meta, "index.db")
		st, err := store.Open(dbPath, store.DefaultOptions())
		if err != nil {
			return errcodes.DatabaseError("create store", false, err)
		}
		defer st.Close()

		printf("initialized project at %s\n", meta)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "reinitialize even if already initialized")
}
