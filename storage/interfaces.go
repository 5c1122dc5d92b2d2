package storage

import (
	"context"

	"github.com/chalkpath/ragmill/core"
)

// ChunkEntry is the persisted form of a chunk: its text, its embedding
// vector, and its metadata, keyed by a derived stable id. Every persisted
// entry has a vector.
type ChunkEntry struct {
	ID       string
	Content  string
	Vector   []float32
	Metadata map[string]string
}

// SearchResult is a chunk returned from similarity search with its score.
type SearchResult struct {
	Chunk core.Chunk
	Score float32
}

// ChunkStore persists chunk text, vector, and metadata keyed by chunk id.
// Implementations must be thread-safe and support concurrent access.
type ChunkStore interface {
	// Upsert stores the chunks with their embeddings and content hashes.
	// The chunk id is derived from (source_path, chunk_index, content_hash),
	// so re-ingesting unchanged content replaces entries in place. Slices
	// must be index-aligned; a nil embedding slot means the chunk's hash was
	// already known and the store computes the vector itself on the fly.
	Upsert(ctx context.Context, chunks []core.Chunk, embeddings [][]float32, contentHashes []string) error

	// DeleteBySourcePath removes all entries whose metadata source_path
	// matches. Returns the number of entries removed. Used to purge stale
	// chunks from a previous version of a source before upserting, since a
	// shrinking chunk count would otherwise leave orphans behind.
	DeleteBySourcePath(ctx context.Context, sourcePath string) (int, error)

	// SimilaritySearch embeds the query with the same model used at
	// ingestion and returns the top-k entries by descending cosine
	// similarity. An empty store yields an empty result.
	SimilaritySearch(ctx context.Context, query string, k int) ([]*SearchResult, error)

	// ExistingContentHashes returns the content_hash values found in stored
	// metadata, capped at limit entries. Callers must tolerate an incomplete
	// set for very large stores; dedup is best-effort at scale.
	ExistingContentHashes(ctx context.Context, limit int) (map[string]struct{}, error)

	// Close closes the store and releases resources.
	Close() error
}

// Ledger is the durable record of ingestion outcomes keyed by raw-content
// hash. Implementations must be thread-safe; writes are last-write-wins per
// hash.
type Ledger interface {
	// Lookup returns the record for a source hash.
	// Returns ErrNotFound if no record exists.
	Lookup(ctx context.Context, sourceHash string) (*core.IngestionRecord, error)

	// Record inserts or replaces the record for its source hash.
	Record(ctx context.Context, rec *core.IngestionRecord) error

	// Close closes the ledger and releases resources.
	Close() error
}
