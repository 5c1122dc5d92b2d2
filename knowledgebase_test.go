package ragmill

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chalkpath/ragmill/ai/mock"
)

func TestOpen(t *testing.T) {
	t.Run("create new knowledge base", func(t *testing.T) {
		dataDir := filepath.Join(t.TempDir(), "kb")
		kb, err := Open(dataDir, WithProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		require.NotNil(t, kb)
		defer kb.Close()

		// Verify components are initialized
		assert.NotNil(t, kb.ChunkStore())
		assert.NotNil(t, kb.Ledger())
		assert.NotNil(t, kb.backend)
		assert.NotNil(t, kb.logger)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		// Try to open a knowledge base where a file blocks the data dir
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		kb, err := Open(filepath.Join(tmpFile, "kb"), WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
		assert.Nil(t, kb)
	})
}

func TestKnowledgeBase_Close(t *testing.T) {
	kb, err := Open(t.TempDir(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	require.NotNil(t, kb)

	err = kb.Close()
	assert.NoError(t, err)
}

func TestKnowledgeBase_FactoryMethods(t *testing.T) {
	kb, err := Open(t.TempDir(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	require.NotNil(t, kb)
	defer kb.Close()

	t.Run("can create ingestion pipeline", func(t *testing.T) {
		pipeline, err := kb.NewIngestionPipeline()
		require.NoError(t, err)
		require.NotNil(t, pipeline)
	})

	t.Run("can create searcher", func(t *testing.T) {
		searcher, err := kb.NewSearcher()
		require.NoError(t, err)
		require.NotNil(t, searcher)
	})
}

func TestKnowledgeBase_IngestAndSearch(t *testing.T) {
	kb, err := Open(t.TempDir(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer kb.Close()

	path := filepath.Join(t.TempDir(), "facts.txt")
	require.NoError(t, os.WriteFile(path, []byte("the mill grinds documents into chunks"), 0o644))

	pipeline, err := kb.NewIngestionPipeline()
	require.NoError(t, err)

	count, err := pipeline.ProcessSource(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	searcher, err := kb.NewSearcher()
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), "documents into chunks", 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "the mill grinds documents into chunks", results[0].Chunk.Content)
}

func TestKnowledgeBase_StatePersistsAcrossReopen(t *testing.T) {
	dataDir := t.TempDir()
	path := filepath.Join(t.TempDir(), "facts.txt")
	require.NoError(t, os.WriteFile(path, []byte("durable knowledge"), 0o644))

	kb, err := Open(dataDir, WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)

	pipeline, err := kb.NewIngestionPipeline()
	require.NoError(t, err)
	count, err := pipeline.ProcessSource(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.NoError(t, kb.Close())

	// Reopen: the ledger remembers the source, so it is skipped.
	kb, err = Open(dataDir, WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer kb.Close()

	pipeline, err = kb.NewIngestionPipeline()
	require.NoError(t, err)
	count, err = pipeline.ProcessSource(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	searcher, err := kb.NewSearcher()
	require.NoError(t, err)
	results, err := searcher.FindSimilar(context.Background(), "durable knowledge", 3)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}
