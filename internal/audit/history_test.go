package audit

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/showaudit/internal/contracts"
)

func TestNewHistory_QuotesTable(t *testing.T) {
	h := NewHistory(nil, "ledger.audit_runs")
	assert.Equal(t, `"ledger"."audit_runs"`, h.table)
	assert.Equal(t, `"ledger"`, h.schema)

	plain := NewHistory(nil, "runs")
	assert.Equal(t, `"runs"`, plain.table)
	assert.Empty(t, plain.schema)
}

func TestHistory_Integration(t *testing.T) {
	url := os.Getenv("LEDGER_TEST_DATABASE_URL")
	if testing.Short() || url == "" {
		t.Skip("LEDGER_TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err, "database connection failed")
	defer pool.Close()

	table := fmt.Sprintf("showaudit_test.audit_runs_%d", time.Now().UnixNano())
	h := NewHistory(pool, table)
	require.NoError(t, h.EnsureSchema(ctx))
	defer func() {
		_, _ = pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+h.table)
	}()

	started := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	first := &Report{
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Minute),
		Shows:      2,
		Pages:      3,
		Updated: []UpdatedRecord{{
			Record:   contracts.PerformanceRecord{Title: "Concert X", Date: "15/03/2025", Available: "37"},
			RowIndex: 2,
			Sold:     83,
		}},
		Unmatched: []contracts.PerformanceRecord{{Title: "ABC Live", Date: "16/03/2025"}},
		Failed:    []PageFailure{{Show: "ABC Live", URL: "u/bad", Reason: "page layout not recognized"}},
		NotFound:  []string{"Missing"},
	}
	second := &Report{StartedAt: started.Add(time.Hour), FinishedAt: started.Add(time.Hour + time.Minute), Shows: 1}

	firstID, err := h.Save(ctx, first)
	require.NoError(t, err)
	secondID, err := h.Save(ctx, second)
	require.NoError(t, err)
	assert.Greater(t, secondID, firstID)

	runs, err := h.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, secondID, runs[0].ID)
	assert.Equal(t, RunSummary{
		ID:         firstID,
		StartedAt:  first.StartedAt,
		FinishedAt: first.FinishedAt,
		Shows:      2,
		Pages:      3,
		Updated:    1,
		Unmatched:  1,
		Failed:     1,
	}, normalizeSummary(runs[1]))

	limited, err := h.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, secondID, limited[0].ID)

	loaded, err := h.Get(ctx, firstID)
	require.NoError(t, err)
	assert.True(t, first.StartedAt.Equal(loaded.StartedAt))
	assert.Equal(t, first.Updated, loaded.Updated)
	assert.Equal(t, first.Unmatched, loaded.Unmatched)
	assert.Equal(t, first.Failed, loaded.Failed)
	assert.Equal(t, first.NotFound, loaded.NotFound)

	_, err = h.Get(ctx, secondID+1000)
	assert.ErrorIs(t, err, ErrRunNotFound)
}

// normalizeSummary puts timestamps read back from the database into UTC for comparison
func normalizeSummary(run RunSummary) RunSummary {
	run.StartedAt = run.StartedAt.UTC()
	run.FinishedAt = run.FinishedAt.UTC()
	return run
}
