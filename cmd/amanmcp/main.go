// Command amanmcp is the CLI driver (C14): a thin cobra front-end over
// the indexing core. It owns no business logic beyond argument
// parsing, wiring, and output formatting.
package main

import (
	"fmt"
	"os"

	"github.com/amanmcp/codeindex/cmd/amanmcp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cmd.FormatError(err))
		os.Exit(cmd.ExitCode(err))
	}
}
