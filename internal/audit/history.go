package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrRunNotFound is returned when a stored run id does not exist
var ErrRunNotFound = errors.New("audit run not found")

// RunSummary is one stored run without its full report
type RunSummary struct {
	ID         int64     `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Shows      int       `json:"shows"`
	Pages      int       `json:"pages"`
	Updated    int       `json:"updated"`
	Unmatched  int       `json:"unmatched"`
	Failed     int       `json:"failed"`
}

// History persists finished reports
// ⭐ SSOT: audit run storage lives here
type History struct {
	pool   *pgxpool.Pool
	table  string
	schema string
}

// NewHistory creates a history store on table ("schema.table" or "table")
func NewHistory(pool *pgxpool.Pool, table string) *History {
	h := &History{
		pool:  pool,
		table: pgx.Identifier(strings.Split(table, ".")).Sanitize(),
	}
	if schema, _, ok := strings.Cut(table, "."); ok {
		h.schema = pgx.Identifier{schema}.Sanitize()
	}
	return h
}

// EnsureSchema creates the runs table when missing
func (h *History) EnsureSchema(ctx context.Context) error {
	var stmts []string
	if h.schema != "" {
		stmts = append(stmts, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, h.schema))
	}
	stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id          BIGSERIAL PRIMARY KEY,
		started_at  TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		shows       INTEGER NOT NULL,
		pages       INTEGER NOT NULL,
		updated     INTEGER NOT NULL,
		unmatched   INTEGER NOT NULL,
		failed      INTEGER NOT NULL,
		report      JSONB NOT NULL
	)`, h.table))

	for _, stmt := range stmts {
		if _, err := h.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure history schema: %w", err)
		}
	}
	return nil
}

// Save stores a finished report and returns its id
func (h *History) Save(ctx context.Context, report *Report) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal report: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (
			started_at, finished_at, shows, pages, updated, unmatched, failed, report
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, h.table)

	var id int64
	err = h.pool.QueryRow(ctx, query,
		report.StartedAt, report.FinishedAt, report.Shows, report.Pages,
		len(report.Updated), len(report.Unmatched), len(report.Failed), reportJSON,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to save report: %w", err)
	}
	return id, nil
}

// Recent lists the latest limit runs, newest first
func (h *History) Recent(ctx context.Context, limit int) ([]RunSummary, error) {
	query := fmt.Sprintf(`
		SELECT id, started_at, finished_at, shows, pages, updated, unmatched, failed
		FROM %s
		ORDER BY id DESC
		LIMIT $1
	`, h.table)

	rows, err := h.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunSummary, 0)
	for rows.Next() {
		var run RunSummary
		if err := rows.Scan(
			&run.ID, &run.StartedAt, &run.FinishedAt, &run.Shows,
			&run.Pages, &run.Updated, &run.Unmatched, &run.Failed,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// Get loads the full report of one run
func (h *History) Get(ctx context.Context, id int64) (*Report, error) {
	query := fmt.Sprintf(`SELECT report FROM %s WHERE id = $1`, h.table)

	var reportJSON []byte
	err := h.pool.QueryRow(ctx, query, id).Scan(&reportJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %d: %w", id, err)
	}

	var report Report
	if err := json.Unmarshal(reportJSON, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}
