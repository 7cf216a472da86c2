package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/showaudit/internal/audit"
	"github.com/wonny/showaudit/pkg/logger"
)

// AuditJob runs the full ledger audit on a cron schedule
type AuditJob struct {
	runner   *audit.Runner
	schedule string
	logger   *logger.Logger
}

// NewAuditJob creates a new audit job
func NewAuditJob(runner *audit.Runner, schedule string, log *logger.Logger) *AuditJob {
	return &AuditJob{
		runner:   runner,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *AuditJob) Name() string {
	return "audit"
}

// Schedule returns the cron schedule
func (j *AuditJob) Schedule() string {
	return j.schedule
}

// Run audits every production. A run already in progress (e.g. triggered
// through the API) is not an error.
func (j *AuditJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled audit")

	report, err := j.runner.Run(ctx, nil)
	if errors.Is(err, audit.ErrAlreadyRunning) {
		j.logger.Warn("Audit already running, skipping scheduled run")
		return nil
	}
	if err != nil {
		return fmt.Errorf("audit run: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"updated":   len(report.Updated),
		"unmatched": len(report.Unmatched),
		"failed":    len(report.Failed),
	}).Info("Scheduled audit completed")

	return nil
}
