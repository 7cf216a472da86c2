// Package extract turns product table rows into canonical performance records.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wonny/showaudit/internal/contracts"
	"github.com/wonny/showaudit/internal/normalize"
	"github.com/wonny/showaudit/internal/registry"
	"github.com/wonny/showaudit/pkg/logger"
)

// minCells is the number of table cells a performance row must have:
// date/time/hall, (unused), special price, full price, availability
const minCells = 5

// FailMode decides what a broken row does to the rest of its page
type FailMode int

const (
	// FailPage aborts the whole page; a broken row usually means the layout changed
	FailPage FailMode = iota
	// FailRow skips only the broken row
	FailRow
)

// ParseFailMode maps the config value ("page", "row") to a FailMode
func ParseFailMode(s string) (FailMode, error) {
	switch s {
	case "", "page":
		return FailPage, nil
	case "row":
		return FailRow, nil
	default:
		return FailPage, fmt.Errorf("unknown fail mode %q", s)
	}
}

func (m FailMode) String() string {
	if m == FailRow {
		return "row"
	}
	return "page"
}

// ErrRowSkipped marks a row that does not describe a performance
var ErrRowSkipped = errors.New("row skipped")

// ErrLayoutMismatch marks a page missing the elements every product page carries
var ErrLayoutMismatch = errors.New("page layout not recognized")

// PageExtractionError aborts the extraction of one page.
// Row is -1 when the page as a whole could not be read.
type PageExtractionError struct {
	Title string
	Row   int
	Err   error
}

func (e *PageExtractionError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("extraction of %q failed: %v", e.Title, e.Err)
	}
	return fmt.Sprintf("extraction of %q failed at row %d: %v", e.Title, e.Row, e.Err)
}

func (e *PageExtractionError) Unwrap() error {
	return e.Err
}

// Extractor builds PerformanceRecords from row descriptors
// ⭐ SSOT: source precedence for hall and date/time lives here
type Extractor struct {
	logger   *logger.Logger
	failMode FailMode
}

// New creates an extractor
func New(log *logger.Logger, mode FailMode) *Extractor {
	return &Extractor{logger: log, failMode: mode}
}

// ExtractPage indexes the page's hidden metadata and extracts its rows.
// A page without rows or with missing layout elements fails as a whole, in either fail mode.
func (e *Extractor) ExtractPage(page *contracts.ProductPage) ([]contracts.PerformanceRecord, error) {
	if err := checkLayout(page); err != nil {
		e.logger.WithError(err).WithFields(map[string]interface{}{
			"title": page.Title,
			"url":   page.URL,
		}).Error("Aborting page extraction")
		return nil, &PageExtractionError{Title: page.Title, Row: -1, Err: err}
	}

	reg, errs := registry.Build(page.HallsRaw, page.DatesRaw)
	for _, err := range errs {
		e.logger.WithError(err).WithFields(map[string]interface{}{
			"title": page.Title,
			"url":   page.URL,
		}).Warn("Hidden metadata unreadable, falling back to row text")
	}

	e.logger.WithFields(map[string]interface{}{
		"title":  page.Title,
		"halls":  reg.HallCount(),
		"stocks": reg.StockCount(),
		"rows":   len(page.Rows),
	}).Debug("Hidden metadata indexed")

	return e.Extract(page.Title, reg, page.Rows)
}

// Extract produces one record per usable row, in row order.
// In FailPage mode a broken row yields (nil, *PageExtractionError).
func (e *Extractor) Extract(title string, reg *registry.Registry, rows []contracts.RowDescriptor) ([]contracts.PerformanceRecord, error) {
	if reg == nil {
		reg = registry.Empty()
	}

	records := make([]contracts.PerformanceRecord, 0, len(rows))
	for idx, row := range rows {
		rec, err := e.extractRow(title, reg, row)
		switch {
		case err == nil:
			records = append(records, rec)
		case errors.Is(err, ErrRowSkipped):
			e.logger.WithFields(map[string]interface{}{
				"title":     title,
				"row":       idx,
				"stock_uid": row.StockID,
				"cells":     len(row.Cells),
			}).Warn("Skipping row, not enough columns")
		default:
			log := e.logger.WithError(err).WithFields(map[string]interface{}{
				"title":     title,
				"row":       idx,
				"stock_uid": row.StockID,
				"fail_mode": e.failMode.String(),
			})
			if e.failMode == FailRow {
				log.Warn("Skipping unreadable row")
				continue
			}
			log.Error("Aborting page extraction")
			return nil, &PageExtractionError{Title: title, Row: idx, Err: err}
		}
	}

	e.logger.WithFields(map[string]interface{}{
		"title":   title,
		"records": len(records),
	}).Info("Page extracted")

	return records, nil
}

// extractRow converts one row; panics from malformed provider data become errors
func (e *Extractor) extractRow(title string, reg *registry.Registry, row contracts.RowDescriptor) (rec contracts.PerformanceRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("row processing panicked: %v", r)
		}
	}()

	if row.Err != nil {
		return rec, row.Err
	}
	if len(row.Cells) < minCells {
		return rec, ErrRowSkipped
	}

	date, clock := resolveDateTime(reg, row)

	return contracts.PerformanceRecord{
		Title:        title,
		Date:         date,
		Time:         clock,
		Hall:         resolveHall(reg, row),
		SpecialPrice: normalize.ExtractDigits(row.Cells[2]),
		FullPrice:    normalize.ExtractDigits(row.Cells[3]),
		Available:    normalize.FirstNumber(row.Cells[4]),
	}, nil
}

// resolveHall: row hall id, then the stock's hall id, then the cell text.
// A registry hit with an empty display name falls through.
func resolveHall(reg *registry.Registry, row contracts.RowDescriptor) string {
	if name, ok := reg.HallName(row.HallID); ok && name != "" {
		return name
	}
	if hallID, ok := reg.StockHall(row.StockID); ok {
		if name, ok := reg.HallName(hallID); ok && name != "" {
			return name
		}
	}
	_, _, hall := normalize.SplitDateTimeHall(row.Cells[0])
	return hall
}

// resolveDateTime: row attribute, then the stock's end-use date, then the cell text
func resolveDateTime(reg *registry.Registry, row contracts.RowDescriptor) (string, string) {
	if date, clock, ok := normalize.SplitDateTime(row.DateShow); ok && date != "" {
		return date, clock
	}
	if src, found := reg.StockDate(row.StockID); found {
		if date, clock, ok := normalize.SplitDateTime(src); ok && date != "" {
			return date, clock
		}
	}
	date, clock, _ := normalize.SplitDateTimeHall(row.Cells[0])
	if date == "" || clock == "" {
		return "", ""
	}
	return date, clock
}

func checkLayout(page *contracts.ProductPage) error {
	switch {
	case len(page.Missing) > 0:
		return fmt.Errorf("%w: missing %s", ErrLayoutMismatch, strings.Join(page.Missing, ", "))
	case len(page.Rows) == 0:
		return fmt.Errorf("%w: no performance rows", ErrLayoutMismatch)
	}
	return nil
}
