package cmd

import (
	"errors"
	"fmt"

	"github.com/amanmcp/codeindex/internal/errcodes"
)

// FormatError renders a single-line error for stderr, with a
// remediation suggestion when the error carries one, per §7's
// user-visible behavior contract.
func FormatError(err error) string {
	var ie *errcodes.IndexError
	if errors.As(err, &ie) {
		if ie.Suggestion != "" {
			return fmt.Sprintf("error: %s (try: %s)", ie.Message, ie.Suggestion)
		}
		return fmt.Sprintf("error: %s", ie.Message)
	}
	return fmt.Sprintf("error: %s", err.Error())
}

// ExitCode maps an error to the CLI's exit code contract: 0 success
// (never reached here), 1 recoverable error, 2 usage error.
func ExitCode(err error) int {
	var ie *errcodes.IndexError
	if errors.As(err, &ie) {
		if ie.Category == errcodes.CategoryValidation {
			return 2
		}
	}
	return 1
}
