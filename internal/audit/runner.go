// Package audit runs the locate, extract and reconcile pipeline over every production.
package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/showaudit/internal/contracts"
	"github.com/wonny/showaudit/internal/extract"
	"github.com/wonny/showaudit/internal/reconcile"
	"github.com/wonny/showaudit/pkg/logger"
)

// ErrAlreadyRunning is returned when a run is requested while another is in progress
var ErrAlreadyRunning = errors.New("audit already running")

// Runner processes shows one page at a time
// ⭐ SSOT: audit orchestration lives here
type Runner struct {
	productions contracts.ProductionSource
	locator     contracts.Locator
	pages       contracts.PageSource
	store       contracts.LedgerStore
	extractor   *extract.Extractor
	reconciler  *reconcile.Reconciler
	diagnostics contracts.DiagnosticsSink
	logger      *logger.Logger

	pageDelay time.Duration
	onFinish  func(*Report)
	now       func() time.Time

	mu      sync.Mutex
	running bool
	latest  *Report
}

// Deps groups the collaborators of a Runner
type Deps struct {
	Productions contracts.ProductionSource
	Locator     contracts.Locator
	Pages       contracts.PageSource
	Store       contracts.LedgerStore
	Extractor   *extract.Extractor
	Reconciler  *reconcile.Reconciler
	Diagnostics contracts.DiagnosticsSink // optional
	Logger      *logger.Logger

	// OnFinish is called with every successful report, outside the runner lock
	OnFinish func(*Report)
}

// NewRunner creates a runner that pauses pageDelay between successive page visits
func NewRunner(deps Deps, pageDelay time.Duration) *Runner {
	return &Runner{
		productions: deps.Productions,
		locator:     deps.Locator,
		pages:       deps.Pages,
		store:       deps.Store,
		extractor:   deps.Extractor,
		reconciler:  deps.Reconciler,
		diagnostics: deps.Diagnostics,
		logger:      deps.Logger,
		pageDelay:   pageDelay,
		onFinish:    deps.OnFinish,
		now:         time.Now,
	}
}

// Latest returns the report of the last finished run, nil before the first one
func (r *Runner) Latest() *Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest
}

// Running reports whether a run is in progress
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Run audits the given shows, or every production short name when shows is empty.
// Page and record failures are collected in the report; only a failure to read the
// production list or the ledger snapshot aborts the run.
func (r *Runner) Run(ctx context.Context, shows []string) (*Report, error) {
	if !r.claim() {
		return nil, ErrAlreadyRunning
	}
	return r.finish(r.run(ctx, shows))
}

// Start runs an audit in the background. It returns ErrAlreadyRunning without
// starting anything when a run is in progress.
func (r *Runner) Start(ctx context.Context, shows []string) error {
	if !r.claim() {
		return ErrAlreadyRunning
	}
	go func() {
		if _, err := r.finish(r.run(ctx, shows)); err != nil {
			r.logger.WithError(err).Error("Background audit failed")
		}
	}()
	return nil
}

func (r *Runner) claim() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return false
	}
	r.running = true
	return true
}

// finish releases the run and keeps a successful report as the latest one
func (r *Runner) finish(report *Report, err error) (*Report, error) {
	r.mu.Lock()
	r.running = false
	if err == nil {
		r.latest = report
	}
	r.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if r.onFinish != nil {
		r.onFinish(report)
	}
	return report, nil
}

func (r *Runner) run(ctx context.Context, shows []string) (*Report, error) {
	report := &Report{StartedAt: r.now()}

	if len(shows) == 0 {
		names, err := r.productions.ShortNames(ctx)
		if err != nil {
			return nil, fmt.Errorf("list productions: %w", err)
		}
		shows = names
	}

	snapshot, err := r.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("read ledger snapshot: %w", err)
	}

	r.logger.WithFields(map[string]interface{}{
		"shows":       len(shows),
		"ledger_rows": len(snapshot),
	}).Info("Audit started")

	visited := 0
	for _, show := range shows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		report.Shows++

		urls, err := r.locator.Locate(ctx, show)
		if err != nil {
			r.logger.WithError(err).WithField("show", show).Warn("Locating show failed")
			report.Failed = append(report.Failed, PageFailure{Show: show, Reason: err.Error()})
			continue
		}
		if len(urls) == 0 {
			report.NotFound = append(report.NotFound, show)
			continue
		}

		for _, url := range urls {
			if visited > 0 {
				if err := r.pause(ctx); err != nil {
					return nil, err
				}
			}
			visited++

			r.auditPage(ctx, show, url, snapshot, report)
		}
	}

	report.FinishedAt = r.now()

	r.logger.WithFields(map[string]interface{}{
		"pages":     report.Pages,
		"updated":   len(report.Updated),
		"unmatched": len(report.Unmatched),
		"failed":    len(report.Failed),
		"duration":  report.FinishedAt.Sub(report.StartedAt),
	}).Info("Audit finished")

	return report, nil
}

// auditPage loads, extracts and reconciles one product page
func (r *Runner) auditPage(ctx context.Context, show, url string, snapshot []*contracts.LedgerRow, report *Report) {
	log := r.logger.WithFields(map[string]interface{}{
		"show": show,
		"url":  url,
	})
	report.Pages++

	page, err := r.pages.FetchProduct(ctx, url)
	if err != nil {
		log.WithError(err).Warn("Loading product page failed")
		report.Failed = append(report.Failed, PageFailure{Show: show, URL: url, Reason: err.Error()})
		return
	}

	if page.Skipped {
		log.WithField("reason", page.SkipReason).Info("Skipping product page")
		report.Skipped = append(report.Skipped, PageFailure{Show: show, URL: url, Reason: page.SkipReason})
		return
	}

	records, err := r.extractor.ExtractPage(page)
	if err != nil {
		failure := PageFailure{Show: show, URL: url, Reason: err.Error()}
		failure.Diagnostic = r.saveDiagnostic(ctx, show, page.HTML)
		log.WithError(err).WithField("diagnostic", failure.Diagnostic).Error("Page extraction failed")
		report.Failed = append(report.Failed, failure)
		return
	}

	for _, rec := range records {
		res, err := r.reconciler.Reconcile(ctx, rec, snapshot)
		if err != nil {
			log.WithError(err).Error("Ledger update failed")
			report.Failed = append(report.Failed, PageFailure{Show: show, URL: url, Reason: err.Error()})
			continue
		}
		if res.Matched {
			report.Updated = append(report.Updated, UpdatedRecord{Record: rec, RowIndex: res.RowIndex, Sold: res.Sold})
		} else {
			report.Unmatched = append(report.Unmatched, rec)
		}
	}
}

// saveDiagnostic keeps the page for inspection and returns where it went, "" if nowhere
func (r *Runner) saveDiagnostic(ctx context.Context, show string, html []byte) string {
	if r.diagnostics == nil || len(html) == 0 {
		return ""
	}
	path, err := r.diagnostics.Save(ctx, show, r.now(), html)
	if err != nil {
		r.logger.WithError(err).WithField("show", show).Warn("Saving diagnostic failed")
		return ""
	}
	return path
}

// pause waits pageDelay between page visits
func (r *Runner) pause(ctx context.Context) error {
	if r.pageDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(r.pageDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
