package cmd

import "github.com/spf13/cobra"

// buildVersion is overridden at build time via -ldflags.
var buildVersion = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the amanmcp version",
	RunE: func(c *cobra.Command, args []string) error {
		printf("amanmcp %s\n", buildVersion)
		return nil
	},
}
