package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/showaudit/pkg/logger"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Audit every production against the ledger",
	Long: `Runs one full audit.

This command:
- reads the production short names from the ledger
- searches the vendor for each one
- extracts every performance of every product page found
- writes sold = received - available into the matching ledger row

Example:
  go run ./cmd/showaudit run
  go run ./cmd/showaudit run --show "Concert X" --show "ABC Live"
  go run ./cmd/showaudit run --dry-run`,
	RunE: runAudit,
}

var (
	runShows  []string
	runDryRun bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	// Flags
	runCmd.Flags().StringArrayVar(&runShows, "show", nil, "audit only this short name (repeatable)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "read the ledger but do not write to it")
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newAuditApp(ctx, cfg, log, runDryRun, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.runner.Run(ctx, runShows)
	if err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}

	out := cmd.OutOrStdout()
	report.Render(out)

	if a.dryRun != nil {
		fmt.Fprintf(out, "\nDry run: %d ledger writes skipped\n", len(a.dryRun.Writes()))
	}
	return nil
}
