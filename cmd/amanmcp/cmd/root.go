package cmd

import (
	"github.com/spf13/cobra"
)

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "amanmcp",
	Short: "Local, offline code-indexing and hybrid search engine",
	Long: `amanmcp builds a persistent, incrementally-maintained index of a
source tree — files, symbols, full-text content, and dense embeddings —
and serves hybrid lexical + semantic search over it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI, returning the first command error encountered.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "print the full error cause chain and debug logs")
	rootCmd.AddCommand(initCmd, indexCmd, refreshCmd, searchCmd, watchCmd, diagnoseCmd, versionCmd)
}
