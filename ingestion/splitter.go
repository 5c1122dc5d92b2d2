package ingestion

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/chalkpath/ragmill/core"
)

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the number of characters shared by
	// adjacent chunks.
	DefaultChunkOverlap = 200
)

// defaultSeparators are tried in order, coarsest boundary first.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter divides documents into overlapping chunks, preferring
// paragraph and sentence boundaries over hard character cuts. Chunk
// indices are assigned globally across all documents of a source so
// that chunk identity stays stable across the whole batch.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
	inner        textsplitter.RecursiveCharacter
	logger       *slog.Logger
}

// SplitterOption configures a Splitter.
type SplitterOption func(*Splitter) error

// WithChunkSize sets the target chunk size in characters.
func WithChunkSize(size int) SplitterOption {
	return func(s *Splitter) error {
		if size < 1 {
			return fmt.Errorf("%w: got %d", ErrInvalidChunkSize, size)
		}
		s.chunkSize = size
		return nil
	}
}

// WithChunkOverlap sets the overlap between adjacent chunks.
func WithChunkOverlap(overlap int) SplitterOption {
	return func(s *Splitter) error {
		if overlap < 0 {
			return fmt.Errorf("%w: overlap cannot be negative", core.ErrInvalidInput)
		}
		s.chunkOverlap = overlap
		return nil
	}
}

// NewSplitter creates a Splitter. The overlap must be strictly smaller
// than the chunk size or the splitter would never advance.
func NewSplitter(opts ...SplitterOption) (*Splitter, error) {
	s := &Splitter{
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		logger:       slog.Default().With("component", "splitter"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.chunkOverlap >= s.chunkSize {
		return nil, fmt.Errorf("%w: overlap %d, size %d", ErrOverlapTooLarge, s.chunkOverlap, s.chunkSize)
	}
	s.inner = textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(s.chunkSize),
		textsplitter.WithChunkOverlap(s.chunkOverlap),
		textsplitter.WithSeparators(defaultSeparators),
	)
	return s, nil
}

// Split divides the documents into chunks. Each chunk inherits a copy
// of its document's metadata plus a chunk index that increments across
// the entire batch. A document without a source path is a programming
// error and aborts the whole call.
func (s *Splitter) Split(docs []core.Document) ([]core.Chunk, error) {
	chunks := make([]core.Chunk, 0, len(docs))
	index := 0
	for i := range docs {
		if err := core.ValidateDocument(&docs[i]); err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		pieces, err := s.inner.SplitText(docs[i].Content)
		if err != nil {
			return nil, fmt.Errorf("failed to split document %d: %w", i, err)
		}
		for _, piece := range pieces {
			meta := cloneMetadata(docs[i].Metadata)
			meta[core.MetaChunkIndex] = strconv.Itoa(index)
			chunks = append(chunks, core.Chunk{Content: piece, Metadata: meta})
			index++
		}
	}
	s.logger.Debug("split documents", "documents", len(docs), "chunks", len(chunks))
	return chunks, nil
}

func cloneMetadata(meta map[string]string) map[string]string {
	out := make(map[string]string, len(meta)+2)
	for k, v := range meta {
		out[k] = v
	}
	return out
}
