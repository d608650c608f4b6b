package cmd

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	diagnoseFix    bool
	diagnoseReport bool
	diagnoseJSON   bool
)

type diagnoseCheck struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Check the index's integrity and environment health",
	RunE: func(c *cobra.Command, args []string) error {
		a, err := openApp(verboseFlag)
		if err != nil {
			return err
		}
		defer a.Close()

		var checks []diagnoseCheck

		var fkViolation string
		row := a.store.DB().QueryRow("PRAGMA foreign_key_check")
		scanErr := row.Scan(&fkViolation)
		checks = append(checks, diagnoseCheck{
			Name:   "foreign_key_check",
			OK:     errors.Is(scanErr, sql.ErrNoRows), // sql.ErrNoRows means no violations found
			Detail: fkViolation,
		})

		var integrityResult string
		if err := a.store.DB().QueryRow("PRAGMA integrity_check").Scan(&integrityResult); err != nil {
			checks = append(checks, diagnoseCheck{Name: "integrity_check", OK: false, Detail: err.Error()})
		} else {
			checks = append(checks, diagnoseCheck{Name: "integrity_check", OK: integrityResult == "ok", Detail: integrityResult})
		}

		if _, err := os.Stat(a.meta); err != nil {
			checks = append(checks, diagnoseCheck{Name: "meta_dir", OK: false, Detail: err.Error()})
		} else {
			checks = append(checks, diagnoseCheck{Name: "meta_dir", OK: true})
		}

		checks = append(checks, diagnoseCheck{
			Name:   "hybrid_index",
			OK:     a.hybrid != nil,
			Detail: fmt.Sprintf("dimensions=%d", a.embedder.Dimensions()),
		})

		healthy := true
		for _, ch := range checks {
			if !ch.OK {
				healthy = false
			}
		}

		if diagnoseFix && !healthy {
			if _, err := a.store.DB().Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
				printf("fix attempt failed: %v\n", err)
			}
			printf("attempted repair via wal checkpoint; re-run diagnose to confirm\n")
		}

		if diagnoseJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(struct {
				Healthy bool            `json:"healthy"`
				Checks  []diagnoseCheck `json:"checks"`
			}{Healthy: healthy, Checks: checks}); err != nil {
				return err
			}
		} else {
			for _, ch := range checks {
				status := "ok"
				if !ch.OK {
					status = "FAIL"
				}
				if diagnoseReport || !ch.OK {
					printf("[%s] %s %s\n", status, ch.Name, ch.Detail)
				}
			}
			if healthy {
				printf("index is healthy\n")
			} else {
				printf("index has problems; run with --fix to attempt repair\n")
			}
		}

		if !healthy {
			return fmt.Errorf("diagnose: unhealthy index")
		}
		return nil
	},
}

func init() {
	diagnoseCmd.Flags().BoolVar(&diagnoseFix, "fix", false, "attempt to repair detected problems")
	diagnoseCmd.Flags().BoolVar(&diagnoseReport, "report", false, "print every check, not just failures")
	diagnoseCmd.Flags().BoolVar(&diagnoseJSON, "json", false, "emit machine-readable JSON")
}
