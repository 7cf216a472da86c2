package ledger

import (
	"context"
	"sync"

	"github.com/wonny/showaudit/internal/contracts"
)

// Write is one UpdateSold call captured by DryRun
type Write struct {
	RowIndex  int
	Sold      int
	UpdatedAt string
}

// DryRun reads through to a store but only records writes
type DryRun struct {
	contracts.LedgerStore

	mu     sync.Mutex
	writes []Write
}

// NewDryRun wraps store
func NewDryRun(store contracts.LedgerStore) *DryRun {
	return &DryRun{LedgerStore: store}
}

// UpdateSold records the write without applying it
func (d *DryRun) UpdateSold(ctx context.Context, rowIndex int, sold int, updatedAt string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writes = append(d.writes, Write{RowIndex: rowIndex, Sold: sold, UpdatedAt: updatedAt})
	return nil
}

// Writes returns the captured writes
func (d *DryRun) Writes() []Write {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Write(nil), d.writes...)
}
