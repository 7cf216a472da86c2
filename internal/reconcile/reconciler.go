// Package reconcile matches extracted performances against ledger rows and
// writes the computed sold count back.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/showaudit/internal/contracts"
	"github.com/wonny/showaudit/pkg/logger"
)

// Layouts shared by the vendor page and the ledger
const (
	DateLayout      = "02/01/2006"
	TimestampLayout = "02/01/2006 15:04:05"
)

// ErrLedgerRowSkipped marks a ledger row that cannot take part in matching
var ErrLedgerRowSkipped = errors.New("ledger row skipped")

// Result is the outcome of reconciling one record
type Result struct {
	Matched  bool
	RowIndex int
	Sold     int
}

// Reconciler updates the sold column of the ledger row matching a record
// ⭐ SSOT: matching rule and sold formula live here
type Reconciler struct {
	store        contracts.LedgerStore
	logger       *logger.Logger
	organization string
	location     *time.Location
	now          func() time.Time
}

// Option configures a Reconciler
type Option func(*Reconciler)

// WithClock replaces time.Now, used by tests
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		r.now = now
	}
}

// New creates a reconciler for the given promotional channel (ledger organization)
func New(store contracts.LedgerStore, log *logger.Logger, organization string, loc *time.Location, opts ...Option) *Reconciler {
	if loc == nil {
		loc = time.UTC
	}
	r := &Reconciler{
		store:        store,
		logger:       log,
		organization: strings.TrimSpace(organization),
		location:     loc,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile finds the first snapshot row matching rec and writes
// sold = received - available to it. The matched snapshot row is updated in place.
// The only error is a failed store write; no match is Result{Matched: false}.
func (r *Reconciler) Reconcile(ctx context.Context, rec contracts.PerformanceRecord, snapshot []*contracts.LedgerRow) (Result, error) {
	log := r.logger.WithFields(map[string]interface{}{
		"title": rec.Title,
		"date":  rec.Date,
	})

	title := strings.TrimSpace(rec.Title)
	if title == "" {
		log.Warn("Record has no title, not matching")
		return Result{}, nil
	}

	recDate, err := time.Parse(DateLayout, strings.TrimSpace(rec.Date))
	if err != nil {
		log.WithError(err).Warn("Record date unparseable, not matching")
		return Result{}, nil
	}

	for _, row := range snapshot {
		if row == nil {
			continue
		}

		matched, err := r.matches(row, title, recDate)
		if err != nil {
			log.WithError(err).WithField("row", row.RowIndex).Warn("Error parsing ledger row")
			continue
		}
		if !matched {
			continue
		}

		if row.Received == nil {
			log.WithField("row", row.RowIndex).Warn("Matched ledger row has no received count, skipping")
			continue
		}

		sold := *row.Received - availableCount(rec.Available)
		stamp := r.now().In(r.location).Format(TimestampLayout)

		if err := r.store.UpdateSold(ctx, row.RowIndex, sold, stamp); err != nil {
			return Result{}, fmt.Errorf("update sold of row %d: %w", row.RowIndex, err)
		}

		row.Sold = &sold
		row.UpdatedAt = stamp

		log.WithFields(map[string]interface{}{
			"row":  row.RowIndex,
			"sold": sold,
		}).Info("Updated ledger row")

		return Result{Matched: true, RowIndex: row.RowIndex, Sold: sold}, nil
	}

	log.Warn("No matching ledger row found")
	return Result{}, nil
}

// matches applies the title / date / organization rule to one row.
// A row whose stored date is not DD/MM/YYYY returns ErrLedgerRowSkipped.
func (r *Reconciler) matches(row *contracts.LedgerRow, title string, recDate time.Time) (bool, error) {
	if strings.TrimSpace(row.Organization) != r.organization {
		return false, nil
	}
	if !strings.Contains(strings.TrimSpace(row.Production), title) {
		return false, nil
	}

	rowDate, err := time.Parse(DateLayout, strings.TrimSpace(row.Date))
	if err != nil {
		return false, fmt.Errorf("%w: date %q: %v", ErrLedgerRowSkipped, row.Date, err)
	}
	return rowDate.Equal(recDate), nil
}

// availableCount coerces the extracted availability; "" or non-numeric count as 0
func availableCount(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
