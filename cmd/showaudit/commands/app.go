package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/showaudit/internal/audit"
	"github.com/wonny/showaudit/internal/contracts"
	"github.com/wonny/showaudit/internal/diagnostics"
	"github.com/wonny/showaudit/internal/external/calstore"
	"github.com/wonny/showaudit/internal/extract"
	"github.com/wonny/showaudit/internal/layout"
	"github.com/wonny/showaudit/internal/ledger"
	"github.com/wonny/showaudit/internal/reconcile"
	"github.com/wonny/showaudit/pkg/config"
	"github.com/wonny/showaudit/pkg/database"
	"github.com/wonny/showaudit/pkg/httputil"
	"github.com/wonny/showaudit/pkg/logger"
	"github.com/wonny/showaudit/pkg/redis"
)

// app holds the wired collaborators shared by the commands
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	redis   *redis.Client
	vendor  *calstore.Client
	db      *database.DB
	dryRun  *ledger.DryRun
	history *audit.History
	runner  *audit.Runner
}

// newVendorApp wires only the vendor client, for commands that never touch the ledger
func newVendorApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	lay, err := layout.Load(cfg.Vendor.LayoutFile)
	if err != nil {
		return nil, fmt.Errorf("load vendor layout: %w", err)
	}
	if hash, err := layout.Hash(lay); err == nil {
		log.WithFields(map[string]interface{}{
			"layout_file": cfg.Vendor.LayoutFile,
			"layout_hash": hash[:12],
		}).Debug("Vendor layout loaded")
	}

	rdb, err := redis.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	httpClient := httputil.New(cfg, log).WithPacing(cfg.Vendor.MinRequestInterval)
	if rdb.Enabled() {
		limiter := redis.NewRateLimiter(rdb, "showaudit")
		httpClient = httpClient.WithRateLimiter(limiter, redis.VendorRateLimit(cfg.Vendor.MinRequestInterval))
	}

	return &app{
		cfg:    cfg,
		log:    log,
		redis:  rdb,
		vendor: calstore.NewClient(httpClient, log, lay, cfg.Vendor.BaseURL, cfg.Vendor.SkipMarker),
	}, nil
}

// newAuditApp wires the full audit pipeline. With dryRun the ledger is read but never written.
// onFinish, if set, receives every finished report.
func newAuditApp(ctx context.Context, cfg *config.Config, log *logger.Logger, dryRun bool, onFinish func(*audit.Report)) (*app, error) {
	a, err := newVendorApp(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	failMode, err := extract.ParseFailMode(cfg.Extract.FailMode)
	if err != nil {
		a.Close()
		return nil, err
	}

	db, err := database.New(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	a.db = db

	repo := ledger.NewRepository(db.Pool, cfg.Ledger.TicketsTable, cfg.Ledger.ProductionsTable)

	var store contracts.LedgerStore = repo
	if dryRun {
		a.dryRun = ledger.NewDryRun(repo)
		store = a.dryRun
	} else {
		a.history = audit.NewHistory(db.Pool, cfg.Ledger.RunsTable)
	}

	a.runner = audit.NewRunner(audit.Deps{
		Productions: repo,
		Locator:     a.vendor,
		Pages:       a.vendor,
		Store:       store,
		Extractor:   extract.New(log, failMode),
		Reconciler:  reconcile.New(store, log, cfg.Ledger.TargetOrganization, cfg.Location()),
		Diagnostics: diagnostics.NewFileSink(cfg.Diagnostics.Dir),
		Logger:      log,
		OnFinish:    a.finishHook(onFinish),
	}, cfg.Vendor.PageDelay)

	return a, nil
}

// finishHook stores every finished report before handing it to next
func (a *app) finishHook(next func(*audit.Report)) func(*audit.Report) {
	return func(report *audit.Report) {
		if a.history != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			id, err := a.history.Save(ctx, report)
			cancel()
			if err != nil {
				a.log.WithError(err).Warn("Saving audit report failed")
			} else {
				a.log.WithField("run_id", id).Debug("Audit report saved")
			}
		}
		if next != nil {
			next(report)
		}
	}
}

// Close releases the connections of the app
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("Closing redis failed")
		}
	}
}
