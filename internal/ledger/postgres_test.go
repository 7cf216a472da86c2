package ledger

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Integration(t *testing.T) {
	url := os.Getenv("LEDGER_TEST_DATABASE_URL")
	if testing.Short() || url == "" {
		t.Skip("LEDGER_TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err, "database connection failed")
	defer pool.Close()

	suffix := time.Now().UnixNano()
	tickets := fmt.Sprintf("showaudit_test.tickets_%d", suffix)
	productions := fmt.Sprintf("showaudit_test.productions_%d", suffix)

	repo := NewRepository(pool, tickets, productions)
	require.NoError(t, repo.EnsureSchema(ctx))
	defer func() {
		_, _ = pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+QuoteTable(tickets))
		_, _ = pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+QuoteTable(productions))
	}()

	_, err = pool.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (row_index, production, hall, show_date, organization, received)
		VALUES (2, 'ABC Live Tour', 'Main', '15/03/2025', 'ויזה כאל', 120),
		       (3, 'Other', 'Main', '15/03/2025', 'ויזה כאל', NULL)
	`, QuoteTable(tickets)))
	require.NoError(t, err)

	_, err = pool.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (row_index, short_name) VALUES (2, 'ABC Live'), (3, '  '), (4, 'Concert X')
	`, QuoteTable(productions)))
	require.NoError(t, err)

	rows, err := repo.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 120, *rows[0].Received)
	assert.Nil(t, rows[1].Received)
	assert.Nil(t, rows[0].Sold)

	require.NoError(t, repo.UpdateSold(ctx, 2, 83, "15/03/2025 10:00:00"))
	rows, err = repo.Snapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, rows[0].Sold)
	assert.Equal(t, 83, *rows[0].Sold)
	assert.Equal(t, "15/03/2025 10:00:00", rows[0].UpdatedAt)

	assert.ErrorIs(t, repo.UpdateSold(ctx, 99, 1, "x"), ErrRowNotFound)

	names, err := repo.ShortNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ABC Live", "Concert X"}, names)
}
