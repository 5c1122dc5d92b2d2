package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/chalkpath/ragmill/core"
	"github.com/chalkpath/ragmill/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()

	ledger, err := OpenLedger(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })
	return ledger
}

func TestOpenLedgerCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "ledger.db")
	ledger, err := OpenLedger(path)
	require.NoError(t, err)
	defer ledger.Close()
	assert.Equal(t, path, ledger.Path())
}

func TestOpenLedgerEmptyPath(t *testing.T) {
	_, err := OpenLedger("")
	assert.Error(t, err)
}

func TestLookupMissing(t *testing.T) {
	ledger := openTestLedger(t)

	_, err := ledger.Lookup(context.Background(), "unknown-hash")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRecordAndLookup(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()

	rec := &core.IngestionRecord{
		SourceHash:  "abc123",
		SourcePath:  "/docs/a.txt",
		Status:      core.StatusSuccess,
		ProcessedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		ChunkCount:  7,
	}
	require.NoError(t, ledger.Record(ctx, rec))

	got, err := ledger.Lookup(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", got.SourceHash)
	assert.Equal(t, "/docs/a.txt", got.SourcePath)
	assert.Equal(t, core.StatusSuccess, got.Status)
	assert.Equal(t, 7, got.ChunkCount)
	assert.True(t, got.ProcessedAt.Equal(rec.ProcessedAt))
}

func TestRecordReplaces(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.Record(ctx, &core.IngestionRecord{
		SourceHash: "h1",
		SourcePath: "/docs/a.txt",
		Status:     core.StatusProcessing,
	}))
	require.NoError(t, ledger.Record(ctx, &core.IngestionRecord{
		SourceHash: "h1",
		SourcePath: "/docs/a.txt",
		Status:     core.StatusSuccess,
		ChunkCount: 3,
	}))

	got, err := ledger.Lookup(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusSuccess, got.Status)
	assert.Equal(t, 3, got.ChunkCount)
}

func TestRecordDefaultsProcessedAt(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()

	before := time.Now().UTC().Add(-time.Second)
	require.NoError(t, ledger.Record(ctx, &core.IngestionRecord{
		SourceHash: "h2",
		SourcePath: "/docs/b.txt",
		Status:     core.StatusFailed,
	}))

	got, err := ledger.Lookup(ctx, "h2")
	require.NoError(t, err)
	assert.True(t, got.ProcessedAt.After(before))
}

func TestRecordValidation(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()

	assert.ErrorIs(t, ledger.Record(ctx, nil), storage.ErrInvalidQuery)
	assert.ErrorIs(t, ledger.Record(ctx, &core.IngestionRecord{}), storage.ErrInvalidQuery)
}

func TestDistinctHashesCoexist(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()

	// Same source path under two different content hashes: both records
	// persist, because the ledger is keyed by hash, not by path.
	require.NoError(t, ledger.Record(ctx, &core.IngestionRecord{
		SourceHash: "old", SourcePath: "/docs/a.txt", Status: core.StatusSuccess, ChunkCount: 2,
	}))
	require.NoError(t, ledger.Record(ctx, &core.IngestionRecord{
		SourceHash: "new", SourcePath: "/docs/a.txt", Status: core.StatusSuccess, ChunkCount: 1,
	}))

	oldRec, err := ledger.Lookup(ctx, "old")
	require.NoError(t, err)
	newRec, err := ledger.Lookup(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, 2, oldRec.ChunkCount)
	assert.Equal(t, 1, newRec.ChunkCount)
}
