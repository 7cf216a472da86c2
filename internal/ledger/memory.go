package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/showaudit/internal/contracts"
)

// MemoryStore is an in-process ledger for tests
type MemoryStore struct {
	mu          sync.Mutex
	rows        []contracts.LedgerRow
	shortNames  []string
	updateCount int
}

// NewMemoryStore copies rows into a new store. Rows without an index are
// numbered from FirstLedgerRow in order.
func NewMemoryStore(rows []contracts.LedgerRow, shortNames ...string) *MemoryStore {
	s := &MemoryStore{shortNames: shortNames}
	for i, row := range rows {
		if row.RowIndex == 0 {
			row.RowIndex = contracts.FirstLedgerRow + i
		}
		s.rows = append(s.rows, cloneRow(row))
	}
	return s
}

// Snapshot returns copies of all rows
func (s *MemoryStore) Snapshot(ctx context.Context) ([]*contracts.LedgerRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*contracts.LedgerRow, 0, len(s.rows))
	for _, row := range s.rows {
		c := cloneRow(row)
		out = append(out, &c)
	}
	return out, nil
}

// UpdateSold writes the sold count and timestamp of one row
func (s *MemoryStore) UpdateSold(ctx context.Context, rowIndex int, sold int, updatedAt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rows {
		if s.rows[i].RowIndex == rowIndex {
			v := sold
			s.rows[i].Sold = &v
			s.rows[i].UpdatedAt = updatedAt
			s.updateCount++
			return nil
		}
	}
	return fmt.Errorf("%w: row %d", ErrRowNotFound, rowIndex)
}

// ShortNames returns the configured production short names
func (s *MemoryStore) ShortNames(ctx context.Context) ([]string, error) {
	return append([]string(nil), s.shortNames...), nil
}

// Row returns a copy of one row
func (s *MemoryStore) Row(rowIndex int) (contracts.LedgerRow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.rows {
		if row.RowIndex == rowIndex {
			return cloneRow(row), true
		}
	}
	return contracts.LedgerRow{}, false
}

// UpdateCount returns how many writes were applied
func (s *MemoryStore) UpdateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateCount
}

func cloneRow(row contracts.LedgerRow) contracts.LedgerRow {
	if row.Received != nil {
		v := *row.Received
		row.Received = &v
	}
	if row.Sold != nil {
		v := *row.Sold
		row.Sold = &v
	}
	return row
}
