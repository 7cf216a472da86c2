package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/showaudit/internal/api"
	"github.com/wonny/showaudit/internal/api/handlers"
	"github.com/wonny/showaudit/internal/scheduler"
	"github.com/wonny/showaudit/internal/scheduler/jobs"
	"github.com/wonny/showaudit/pkg/logger"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the status API and the audit scheduler",
	Long: `Starts the HTTP API and, unless SCHEDULER_ENABLED=false, the cron audit job.

Endpoints:
  GET  /health             - Health check
  GET  /api/audit/latest   - Report of the last finished audit
  POST /api/audit/run      - Start an audit in the background
  GET  /api/audit/jobs     - Scheduled job statistics
  GET  /api/audit/history  - Stored runs, newest first
  GET  /api/audit/history/{id} - Full report of a stored run
  GET  /api/audit/feed     - Websocket stream of finished reports

Example:
  go run ./cmd/showaudit serve
  go run ./cmd/showaudit serve --port 8080`,
	RunE: runServe,
}

var (
	servePort string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	// Flags
	serveCmd.Flags().StringVar(&servePort, "port", "", "API port (default from PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Port = servePort
	}
	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	feed := api.NewFeed(log)
	defer feed.Close()

	a, err := newAuditApp(ctx, cfg, log, false, feed.Publish)
	if err != nil {
		return err
	}
	defer a.Close()

	var jobStats handlers.JobStatsProvider
	if cfg.Scheduler.Enabled {
		sched := scheduler.New(log)
		if err := sched.AddJob(jobs.NewAuditJob(a.runner, cfg.Scheduler.Schedule, log)); err != nil {
			return fmt.Errorf("schedule audit: %w", err)
		}
		sched.Start()
		defer sched.Stop()
		jobStats = sched
	}

	handler := handlers.NewAuditHandler(a.runner, jobStats, log)
	if a.history != nil {
		handler.WithHistory(a.history)
	}
	router := api.NewRouter(handler, feed, log)
	server := api.New(cfg, log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Server running on http://localhost:%s\n", cfg.Port)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
