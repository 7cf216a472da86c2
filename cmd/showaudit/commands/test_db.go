package commands

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/showaudit/internal/audit"
	"github.com/wonny/showaudit/internal/ledger"
	"github.com/wonny/showaudit/pkg/database"
	"github.com/wonny/showaudit/pkg/logger"
)

// testDBCmd represents the test-db command
var testDBCmd = &cobra.Command{
	Use:   "test-db",
	Short: "Check the ledger database connection",
	Long: `Connects to the ledger database and shows pool statistics.

This command:
- loads DATABASE_URL from config
- creates a connection pool and pings it
- optionally creates the ledger and run history tables (--ensure-schema)
- counts the ledger rows and production short names

Example:
  go run ./cmd/showaudit test-db
  go run ./cmd/showaudit test-db --ensure-schema`,
	RunE: runTestDB,
}

var ensureSchema bool

func init() {
	rootCmd.AddCommand(testDBCmd)

	testDBCmd.Flags().BoolVar(&ensureSchema, "ensure-schema", false, "create the ledger and run history tables when missing")
}

func runTestDB(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg)
	fmt.Fprintf(out, "Config loaded (ENV: %s)\n", cfg.Env)
	fmt.Fprintf(out, "   Database URL: %s\n", maskPassword(cfg.Database.URL))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	fmt.Fprintln(out, "Database connection established")

	status := db.HealthCheck(ctx)
	if !status.Healthy {
		return fmt.Errorf("health check failed: %s", status.Error)
	}
	fmt.Fprintf(out, "   Response Time: %v\n", status.ResponseTime)
	fmt.Fprintf(out, "   Connections: total=%d acquired=%d idle=%d\n", status.TotalConns, status.AcquiredConns, status.IdleConns)

	repo := ledger.NewRepository(db.Pool, cfg.Ledger.TicketsTable, cfg.Ledger.ProductionsTable)
	if ensureSchema {
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		if err := audit.NewHistory(db.Pool, cfg.Ledger.RunsTable).EnsureSchema(ctx); err != nil {
			return err
		}
		log.Info("Ledger schema ensured")
	}

	rows, err := repo.Snapshot(ctx)
	if err != nil {
		return err
	}
	names, err := repo.ShortNames(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Ledger: %d ticket rows, %d productions\n", len(rows), len(names))
	return nil
}

// maskPassword hides the password of a database URL for display
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
