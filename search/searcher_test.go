package search

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chalkpath/ragmill/ai/mock"
	"github.com/chalkpath/ragmill/core"
	"github.com/chalkpath/ragmill/storage"
	"github.com/chalkpath/ragmill/storage/badger"
)

func setupSearcher(t *testing.T) (*Searcher, *badger.ChunkRepository, *mock.MockProvider) {
	t.Helper()

	provider := mock.NewMockProvider()
	store, err := badger.NewMemoryChunkStore(provider.MockEmbedder)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	s, err := NewSearcher(store, provider)
	require.NoError(t, err)
	return s, store, provider
}

func seedChunks(t *testing.T, store *badger.ChunkRepository, contents ...string) {
	t.Helper()

	chunks := make([]core.Chunk, len(contents))
	hashes := make([]string, len(contents))
	for i, content := range contents {
		chunks[i] = core.Chunk{
			Content: content,
			Metadata: map[string]string{
				core.MetaSourcePath: "/tmp/seed.txt",
				core.MetaChunkIndex: strconv.Itoa(i),
				core.MetaTitle:      "seed",
			},
		}
		hashes[i] = core.ContentHash(&chunks[i])
	}
	require.NoError(t, store.Upsert(context.Background(), chunks, make([][]float32, len(chunks)), hashes))
}

func TestNewSearcher_Validation(t *testing.T) {
	provider := mock.NewMockProvider()
	store, err := badger.NewMemoryChunkStore(provider.MockEmbedder)
	require.NoError(t, err)
	defer store.Close()

	_, err = NewSearcher(nil, provider)
	assert.ErrorIs(t, err, ErrChunkStoreRequired)

	_, err = NewSearcher(store, nil)
	assert.ErrorIs(t, err, ErrProviderRequired)
}

func TestFindSimilar_EmptyQuery(t *testing.T) {
	s, _, _ := setupSearcher(t)

	_, err := s.FindSimilar(context.Background(), "   ", 5)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestFindSimilar_EmptyStore(t *testing.T) {
	s, _, _ := setupSearcher(t)

	results, err := s.FindSimilar(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilar_ExactMatchRanksFirst(t *testing.T) {
	s, store, _ := setupSearcher(t)
	seedChunks(t, store,
		"go channels coordinate goroutines",
		"sourdough bread needs a long proof",
		"badger is an embedded key-value store",
	)

	results, err := s.FindSimilar(context.Background(), "go channels coordinate goroutines", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "go channels coordinate goroutines", results[0].Chunk.Content)
	assert.InDelta(t, 1.0, results[0].Score, 0.001)
}

func TestFindSimilar_DefaultMaxHits(t *testing.T) {
	s, store, _ := setupSearcher(t)

	contents := make([]string, 8)
	for i := range contents {
		contents[i] = "distinct chunk number " + strconv.Itoa(i)
	}
	seedChunks(t, store, contents...)

	results, err := s.FindSimilar(context.Background(), "distinct chunk", 0)
	require.NoError(t, err)
	assert.Len(t, results, DefaultMaxHits)
}

func TestAnswer_GroundsPromptInRetrievedChunks(t *testing.T) {
	s, store, provider := setupSearcher(t)
	seedChunks(t, store, "the capital of norway is oslo")

	provider.MockGenerator.Responses = []string{"  Oslo.  "}

	answer, results, err := s.Answer(context.Background(), "what is the capital of norway?", 3)
	require.NoError(t, err)
	assert.Equal(t, "Oslo.", answer)
	require.Len(t, results, 1)

	prompts := provider.MockGenerator.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "the capital of norway is oslo")
	assert.Contains(t, prompts[0], "what is the capital of norway?")
	assert.Contains(t, prompts[0], "/tmp/seed.txt")
}

func TestAnswer_EmptyStore(t *testing.T) {
	s, _, _ := setupSearcher(t)

	_, _, err := s.Answer(context.Background(), "anything", 3)
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestAnswer_GeneratorFailure(t *testing.T) {
	s, store, provider := setupSearcher(t)
	seedChunks(t, store, "some stored fact")

	provider.MockGenerator.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("model offline")
	}

	_, _, err := s.Answer(context.Background(), "question", 3)
	assert.Error(t, err)
}

func TestFormatContext(t *testing.T) {
	results := []*storage.SearchResult{
		{Chunk: core.Chunk{Content: "first fact", Metadata: map[string]string{
			core.MetaSourcePath: "/tmp/a.txt", core.MetaTitle: "Notes",
		}}},
		{Chunk: core.Chunk{Content: "second fact", Metadata: map[string]string{
			core.MetaSourcePath: "/tmp/b.txt",
		}}},
	}

	text := formatContext(results)
	assert.True(t, strings.HasPrefix(text, "[1] Notes (/tmp/a.txt)\nfirst fact"))
	assert.Contains(t, text, "[2] /tmp/b.txt\nsecond fact")
}
