package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chalkpath/ragmill/ai"
	"github.com/chalkpath/ragmill/core"
)

// DefaultBatchSize is the number of texts embedded per model call.
const DefaultBatchSize = 32

// EmbeddingGenerator computes embeddings for chunks, skipping any chunk
// whose content hash already exists in the store. Skipped positions are
// left nil so the store can resolve them from existing entries.
type EmbeddingGenerator struct {
	embedder  ai.Embedder
	batchSize int
	logger    *slog.Logger
}

// EmbeddingOption configures an EmbeddingGenerator.
type EmbeddingOption func(*EmbeddingGenerator) error

// WithBatchSize sets the number of texts per embedding call.
func WithBatchSize(n int) EmbeddingOption {
	return func(g *EmbeddingGenerator) error {
		if n <= 0 {
			return fmt.Errorf("%w: batch size must be positive", core.ErrInvalidInput)
		}
		g.batchSize = n
		return nil
	}
}

// NewEmbeddingGenerator creates an EmbeddingGenerator.
func NewEmbeddingGenerator(embedder ai.Embedder, opts ...EmbeddingOption) (*EmbeddingGenerator, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	g := &EmbeddingGenerator{
		embedder:  embedder,
		batchSize: DefaultBatchSize,
		logger:    slog.Default().With("component", "embedding-generator"),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Generate returns one embedding slot and one content hash per chunk,
// in chunk order. Chunks whose hash appears in existing get a nil slot
// and cost no model call; everything else is embedded in batches. When
// every chunk is already known, the model is never invoked.
func (g *EmbeddingGenerator) Generate(ctx context.Context, chunks []core.Chunk, existing map[string]struct{}) ([][]float32, []string, error) {
	hashes := make([]string, len(chunks))
	embeddings := make([][]float32, len(chunks))

	var pending []int
	for i := range chunks {
		hashes[i] = core.ContentHash(&chunks[i])
		if _, known := existing[hashes[i]]; !known {
			pending = append(pending, i)
		}
	}

	if len(pending) == 0 {
		g.logger.Debug("all chunks already embedded", "chunks", len(chunks))
		return embeddings, hashes, nil
	}

	for start := 0; start < len(pending); start += g.batchSize {
		end := min(start+g.batchSize, len(pending))

		texts := make([]string, 0, end-start)
		for _, idx := range pending[start:end] {
			texts = append(texts, chunks[idx].Content)
		}

		vectors, err := g.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to embed batch: %w", err)
		}
		if len(vectors) != len(texts) {
			return nil, nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
		}

		for j, idx := range pending[start:end] {
			embeddings[idx] = vectors[j]
		}
	}

	g.logger.Debug("generated embeddings",
		"chunks", len(chunks),
		"embedded", len(pending),
		"reused", len(chunks)-len(pending))
	return embeddings, hashes, nil
}
