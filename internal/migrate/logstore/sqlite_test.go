package logstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blobsvc/blobsvc/internal/migrate/logstore"
)

func newTestStore(t *testing.T) *logstore.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "migration.db")
	store, err := logstore.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSeedMissingSkipsAlreadyLogged(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	n, err := store.SeedMissing(ctx, 2024, []string{"doc-1", "doc-2"})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	n, err = store.SeedMissing(ctx, 2024, []string{"doc-2", "doc-3"})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	rows, err := store.SeededForYear(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, rows, 3)
}

func TestEnrichAndSelectBatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.SeedMissing(ctx, 2024, []string{"doc-1", "doc-2"})
	require.NoError(t, err)

	rows, err := store.SeededForYear(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NoError(t, store.MarkEnriched(ctx, rows[0].ID, "report.pdf", "pdf", "application/pdf", 1024, rows[0].CreatedAt))
	require.NoError(t, store.MarkSkipped(ctx, rows[1].ID, "no metadata found"))

	batch, err := store.SelectBatch(ctx, 2024, "", 10, 3)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	require.Equal(t, "doc-1", batch[0].SourceDocumentID)
	require.Equal(t, logstore.StatusPending, batch[0].Status)
}

func TestFailedRowsRescuedUntilMaxRetries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.SeedMissing(ctx, 2024, []string{"doc-1"})
	require.NoError(t, err)
	rows, err := store.SeededForYear(ctx, 2024)
	require.NoError(t, err)
	require.NoError(t, store.MarkEnriched(ctx, rows[0].ID, "x.bin", "bin", "", 10, rows[0].CreatedAt))

	require.NoError(t, store.MarkInProgress(ctx, rows[0].ID))
	require.NoError(t, store.MarkFailed(ctx, rows[0].ID, "boom"))

	batch, err := store.SelectBatch(ctx, 2024, "", 10, 3)
	require.NoError(t, err)
	require.Len(t, batch, 1, "a Failed row under MaxRetries should be rescued")

	for i := 0; i < 2; i++ {
		require.NoError(t, store.MarkFailed(ctx, rows[0].ID, "boom again"))
	}

	batch, err = store.SelectBatch(ctx, 2024, "", 10, 3)
	require.NoError(t, err)
	require.Len(t, batch, 0, "a Failed row at MaxRetries should no longer be selected")

	counts, err := store.Report(ctx, 2024, "", 3)
	require.NoError(t, err)
	require.EqualValues(t, 1, counts.FailedExhausted)
}

func TestMarkCompletedAndReport(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.SeedMissing(ctx, 2024, []string{"doc-1"})
	require.NoError(t, err)
	rows, err := store.SeededForYear(ctx, 2024)
	require.NoError(t, err)
	require.NoError(t, store.MarkEnriched(ctx, rows[0].ID, "x.bin", "bin", "", 10, rows[0].CreatedAt))
	require.NoError(t, store.MarkInProgress(ctx, rows[0].ID))
	require.NoError(t, store.MarkCompleted(ctx, rows[0].ID, "2024-abc", "migrated", "doc-1/x.bin", "deadbeef", "application/octet-stream"))

	counts, err := store.Report(ctx, 2024, "", 3)
	require.NoError(t, err)
	require.EqualValues(t, 1, counts.ByStatus[logstore.StatusCompleted])
}
