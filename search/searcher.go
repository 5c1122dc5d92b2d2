package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chalkpath/ragmill/ai"
	"github.com/chalkpath/ragmill/core"
	"github.com/chalkpath/ragmill/storage"
)

// DefaultMaxHits is the number of chunks retrieved when the caller does
// not specify one.
const DefaultMaxHits = 5

const answerPromptTemplate = `Answer the question using ONLY the context below. If the context does not
contain the answer, say so plainly instead of guessing.

Context:
%s

Question: %s

Answer:`

// Searcher provides semantic retrieval over ingested chunks, and
// retrieval-augmented answers on top of it.
type Searcher struct {
	store     storage.ChunkStore
	generator ai.Generator
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher over the given chunk store.
func NewSearcher(store storage.ChunkStore, provider ai.Provider, opts ...Option) (*Searcher, error) {
	if store == nil {
		return nil, ErrChunkStoreRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}

	s := &Searcher{
		store:     store,
		generator: provider.Generator(),
		logger:    slog.Default().With("component", "searcher"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// FindSimilar returns up to maxHits chunks ranked by descending cosine
// similarity to the query. A non-positive maxHits uses the default.
func (s *Searcher) FindSimilar(ctx context.Context, query string, maxHits int) ([]*storage.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if maxHits <= 0 {
		maxHits = DefaultMaxHits
	}

	results, err := s.store.SimilaritySearch(ctx, query, maxHits)
	if err != nil {
		s.logger.Error("similarity search failed", "query", query, "err", err)
		return nil, err
	}

	s.logger.Debug("similarity search", "query", query, "hits", len(results))
	return results, nil
}

// Answer retrieves the chunks most relevant to the question and asks
// the generator to answer from them. It returns the answer together
// with the chunks it was grounded on, so callers can cite sources.
func (s *Searcher) Answer(ctx context.Context, question string, maxHits int) (string, []*storage.SearchResult, error) {
	results, err := s.FindSimilar(ctx, question, maxHits)
	if err != nil {
		return "", nil, err
	}
	if len(results) == 0 {
		return "", nil, ErrNoResults
	}

	prompt := fmt.Sprintf(answerPromptTemplate, formatContext(results), question)
	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.logger.Error("answer generation failed", "err", err)
		return "", nil, err
	}

	return strings.TrimSpace(answer), results, nil
}

// formatContext renders retrieved chunks as a numbered context block,
// tagging each with its source so the model can attribute claims.
func formatContext(results []*storage.SearchResult) string {
	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		source := r.Chunk.SourcePath()
		if title := r.Chunk.Metadata[core.MetaTitle]; title != "" {
			source = fmt.Sprintf("%s (%s)", title, source)
		}
		fmt.Fprintf(&sb, "[%d] %s\n%s", i+1, source, r.Chunk.Content)
	}
	return sb.String()
}
