// Package ledger implements the tickets ledger store.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/showaudit/internal/contracts"
)

// ErrRowNotFound is returned when a point update targets a missing row
var ErrRowNotFound = errors.New("ledger row not found")

// Repository is the PostgreSQL ledger store
// ⭐ SSOT: ledger SQL lives here
type Repository struct {
	pool        *pgxpool.Pool
	tickets     string
	productions string
	schemas     []string
}

// NewRepository creates a repository on the given tables ("schema.table" or "table")
func NewRepository(pool *pgxpool.Pool, ticketsTable, productionsTable string) *Repository {
	r := &Repository{
		pool:        pool,
		tickets:     QuoteTable(ticketsTable),
		productions: QuoteTable(productionsTable),
	}
	for _, name := range []string{ticketsTable, productionsTable} {
		if schema, _, ok := strings.Cut(name, "."); ok {
			r.schemas = append(r.schemas, pgx.Identifier{schema}.Sanitize())
		}
	}
	return r
}

// QuoteTable sanitizes a possibly schema-qualified table name
func QuoteTable(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}

// Snapshot reads every ticket row in index order
func (r *Repository) Snapshot(ctx context.Context) ([]*contracts.LedgerRow, error) {
	query := fmt.Sprintf(`
		SELECT row_index, production, hall, show_date, organization, received, sold, updated_at
		FROM %s
		ORDER BY row_index ASC
	`, r.tickets)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var out []*contracts.LedgerRow
	for rows.Next() {
		var (
			row      contracts.LedgerRow
			received *int32
			sold     *int32
		)
		if err := rows.Scan(
			&row.RowIndex, &row.Production, &row.Hall, &row.Date,
			&row.Organization, &received, &sold, &row.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		row.Received = intPtr(received)
		row.Sold = intPtr(sold)
		out = append(out, &row)
	}
	return out, rows.Err()
}

// UpdateSold writes the sold count and timestamp of one row
func (r *Repository) UpdateSold(ctx context.Context, rowIndex int, sold int, updatedAt string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET sold = $2, updated_at = $3
		WHERE row_index = $1
	`, r.tickets)

	tag, err := r.pool.Exec(ctx, query, rowIndex, sold, updatedAt)
	if err != nil {
		return fmt.Errorf("update ledger row %d: %w", rowIndex, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: row %d", ErrRowNotFound, rowIndex)
	}
	return nil
}

// ShortNames lists the non-empty production short names
func (r *Repository) ShortNames(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT short_name
		FROM %s
		WHERE COALESCE(TRIM(short_name), '') <> ''
		ORDER BY row_index ASC
	`, r.productions)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query productions: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan production: %w", err)
		}
		names = append(names, strings.TrimSpace(name))
	}
	return names, rows.Err()
}

// EnsureSchema creates the ledger tables when missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	var stmts []string
	for _, schema := range r.schemas {
		stmts = append(stmts, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, schema))
	}
	stmts = append(stmts,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			row_index    INTEGER PRIMARY KEY,
			production   TEXT NOT NULL DEFAULT '',
			hall         TEXT NOT NULL DEFAULT '',
			show_date    TEXT NOT NULL DEFAULT '',
			organization TEXT NOT NULL DEFAULT '',
			received     INTEGER,
			sold         INTEGER,
			updated_at   TEXT NOT NULL DEFAULT ''
		)`, r.tickets),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			row_index  INTEGER PRIMARY KEY,
			short_name TEXT NOT NULL DEFAULT ''
		)`, r.productions),
	)

	for _, stmt := range stmts {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure ledger schema: %w", err)
		}
	}
	return nil
}

func intPtr(v *int32) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}
