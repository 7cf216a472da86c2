package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: collaborator interfaces of the audit engine

// PageSource loads product pages
type PageSource interface {
	FetchProduct(ctx context.Context, url string) (*ProductPage, error)
}

// Locator finds candidate product page URLs for a show's short name
type Locator interface {
	Locate(ctx context.Context, showName string) ([]string, error)
}

// LedgerStore reads and point-updates the tickets ledger
type LedgerStore interface {
	Snapshot(ctx context.Context) ([]*LedgerRow, error)
	UpdateSold(ctx context.Context, rowIndex int, sold int, updatedAt string) error
}

// ProductionSource lists the short names of the productions to audit
type ProductionSource interface {
	ShortNames(ctx context.Context) ([]string, error)
}

// DiagnosticsSink keeps a labeled blob for later human inspection
type DiagnosticsSink interface {
	Save(ctx context.Context, label string, at time.Time, data []byte) (string, error)
}
