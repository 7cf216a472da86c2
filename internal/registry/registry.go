// Package registry indexes the redundant hidden metadata of a product page.
package registry

import (
	"github.com/wonny/showaudit/internal/contracts"
	"github.com/wonny/showaudit/internal/normalize"
)

// Hidden JSON field names used by the vendor
const (
	fieldHallID     = "d_hall_id"
	fieldHallName   = "hall_area_name"
	fieldHallArea   = "area"
	fieldStockID    = "stock_uid"
	fieldEndUseDate = "d_end_use_date"
)

// Source names a hidden metadata blob, used to label parse failures
type Source string

const (
	SourceHalls Source = "halls"
	SourceDates Source = "dates"
)

// SourceError is a non-fatal parse failure of one metadata blob
type SourceError struct {
	Source Source
	Err    error
}

func (e *SourceError) Error() string {
	return string(e.Source) + ": " + e.Err.Error()
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// Registry holds the lookup tables built from a page's hidden metadata.
// It is never mutated after Build.
type Registry struct {
	hallByID    map[string]string
	stockToHall map[string]string
	stockToDate map[string]string

	halls      []contracts.HallEntry
	stockDates []contracts.StockDateEntry
}

// Build parses the halls and dates blobs and indexes them.
// A malformed blob degrades to an empty source; its error is returned for logging only.
func Build(hallsRaw, datesRaw string) (*Registry, []error) {
	var errs []error

	hallItems, err := normalize.UnescapeAndParseJSON(hallsRaw)
	if err != nil {
		errs = append(errs, &SourceError{Source: SourceHalls, Err: err})
		hallItems = nil
	}

	dateItems, err := normalize.UnescapeAndParseJSON(datesRaw)
	if err != nil {
		errs = append(errs, &SourceError{Source: SourceDates, Err: err})
		dateItems = nil
	}

	halls := make([]contracts.HallEntry, 0, len(hallItems))
	for _, item := range hallItems {
		name := normalize.StringField(item, fieldHallName)
		if name == "" {
			name = normalize.StringField(item, fieldHallArea)
		}
		halls = append(halls, contracts.HallEntry{
			HallID:   normalize.StringField(item, fieldHallID),
			HallName: name,
		})
	}

	stockDates := make([]contracts.StockDateEntry, 0, len(dateItems))
	for _, item := range dateItems {
		stockDates = append(stockDates, contracts.StockDateEntry{
			StockID:    normalize.StringField(item, fieldStockID),
			HallID:     normalize.StringField(item, fieldHallID),
			EndUseDate: normalize.StringField(item, fieldEndUseDate),
		})
	}

	return FromEntries(halls, stockDates), errs
}

// FromEntries indexes already-typed entries. Entries with an empty id are ignored;
// a repeated id overwrites the earlier entry.
func FromEntries(halls []contracts.HallEntry, stockDates []contracts.StockDateEntry) *Registry {
	r := &Registry{
		hallByID:    make(map[string]string, len(halls)),
		stockToHall: make(map[string]string, len(stockDates)),
		stockToDate: make(map[string]string, len(stockDates)),
	}

	pos := make(map[string]int, len(halls))
	for _, h := range halls {
		if h.HallID == "" {
			continue
		}
		if i, seen := pos[h.HallID]; seen {
			r.halls[i] = h
		} else {
			pos[h.HallID] = len(r.halls)
			r.halls = append(r.halls, h)
		}
		r.hallByID[h.HallID] = h.HallName
	}

	for _, d := range stockDates {
		if d.StockID == "" {
			continue
		}
		r.stockToHall[d.StockID] = d.HallID
		r.stockToDate[d.StockID] = d.EndUseDate
		r.stockDates = append(r.stockDates, d)
	}

	return r
}

// Empty returns a registry with no entries
func Empty() *Registry {
	return FromEntries(nil, nil)
}

// HallName returns the display name of a hall id
func (r *Registry) HallName(hallID string) (string, bool) {
	if hallID == "" {
		return "", false
	}
	name, ok := r.hallByID[hallID]
	return name, ok
}

// StockHall returns the hall id a stock id belongs to
func (r *Registry) StockHall(stockID string) (string, bool) {
	if stockID == "" {
		return "", false
	}
	hallID, ok := r.stockToHall[stockID]
	return hallID, ok
}

// StockDate returns the end-use date string of a stock id
func (r *Registry) StockDate(stockID string) (string, bool) {
	if stockID == "" {
		return "", false
	}
	date, ok := r.stockToDate[stockID]
	return date, ok
}

// Halls returns a copy of the indexed halls in first-seen order
func (r *Registry) Halls() []contracts.HallEntry {
	return append([]contracts.HallEntry(nil), r.halls...)
}

// StockDates returns a copy of the indexed stock dates
func (r *Registry) StockDates() []contracts.StockDateEntry {
	return append([]contracts.StockDateEntry(nil), r.stockDates...)
}

// HallCount returns the number of distinct hall ids
func (r *Registry) HallCount() int {
	return len(r.hallByID)
}

// StockCount returns the number of distinct stock ids
func (r *Registry) StockCount() int {
	return len(r.stockToDate)
}
