package results

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradesim/tradesim/internal/core"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRun(createdAt time.Time) Run {
	return Run{
		ID:           uuid.NewString(),
		Strategy:     "sma_cross_10_30",
		Symbol:       "EURUSD",
		StartDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		StartingCash: 100000,
		FinalEquity:  104200,
		Bars:         130,
		Orders:       14,
		Fills:        12,
		CreatedAt:    createdAt,
		Metrics: map[string]string{
			"Total Trades": "6",
			"Net Profit":   "4.2%",
			"Win Rate":     "67%",
		},
	}
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	run := sampleRun(time.Now())
	require.NoError(t, store.SaveRun(ctx, run))

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)

	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, run.Strategy, got.Strategy)
	assert.Equal(t, run.FinalEquity, got.FinalEquity)
	assert.Equal(t, run.Metrics, got.Metrics)
	assert.True(t, got.StartDate.Equal(run.StartDate))
}

func TestSQLiteStore_GetMissingRun(t *testing.T) {
	store := openStore(t)

	_, err := store.GetRun(context.Background(), "no-such-run")
	assert.ErrorIs(t, err, core.ErrRunNotFound)
}

func TestSQLiteStore_ListRunsNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	base := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	older := sampleRun(base)
	newer := sampleRun(base.Add(time.Hour))
	require.NoError(t, store.SaveRun(ctx, older))
	require.NoError(t, store.SaveRun(ctx, newer))

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)

	require.Len(t, runs, 2)
	assert.Equal(t, newer.ID, runs[0].ID)
	assert.Equal(t, older.ID, runs[1].ID)
	// List omits the metric maps.
	assert.Nil(t, runs[0].Metrics)
}

func TestSQLiteStore_ListLimit(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.SaveRun(ctx, sampleRun(base.Add(time.Duration(i)*time.Minute))))
	}

	runs, err := store.ListRuns(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestSQLiteStore_PruneRuns(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	base := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	var newest Run
	for i := 0; i < 5; i++ {
		newest = sampleRun(base.Add(time.Duration(i) * time.Hour))
		require.NoError(t, store.SaveRun(ctx, newest))
	}

	removed, err := store.PruneRuns(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newest.ID, runs[0].ID)

	// Surviving runs keep their metrics.
	got, err := store.GetRun(ctx, newest.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, got.Metrics)
}
