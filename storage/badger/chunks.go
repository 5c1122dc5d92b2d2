package badger

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"slices"

	"github.com/chalkpath/ragmill/ai"
	"github.com/chalkpath/ragmill/core"
	"github.com/chalkpath/ragmill/storage"
	"github.com/dgraph-io/badger/v4"
)

// ChunkRepository implements storage.ChunkStore for BadgerDB.
//
// Entries are kept under a primary key derived from the chunk id, with a
// secondary index keyed by source path enabling delete-by-source without a
// full scan. Similarity search scans entries and ranks them by cosine
// similarity; the collection is expected to stay within a size where a flat
// scan is acceptable.
type ChunkRepository struct {
	backend  *Backend
	embedder ai.Embedder
	logger   *slog.Logger
}

var _ storage.ChunkStore = (*ChunkRepository)(nil)

var (
	// ErrBackendRequired is returned when a backend is not provided.
	ErrBackendRequired = errors.New("backend required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")
)

// NewChunkRepository creates a new ChunkRepository. The embedder must be the
// same embedding model used at ingestion; it is used to embed queries and to
// fill entries whose embedding was skipped by the dedup pass.
func NewChunkRepository(backend *Backend, embedder ai.Embedder) (*ChunkRepository, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	return &ChunkRepository{
		backend:  backend,
		embedder: embedder,
		logger:   slog.Default().With("component", "chunk-store"),
	}, nil
}

// Close closes the underlying backend.
func (r *ChunkRepository) Close() error {
	return r.backend.Close()
}

// Upsert stores the chunks with their embeddings and content hashes, keyed
// by the derived chunk id. Entries with the same id are replaced. A nil
// embedding slot is filled by embedding the chunk text on the fly, so every
// persisted entry carries a vector.
func (r *ChunkRepository) Upsert(ctx context.Context, chunks []core.Chunk, embeddings [][]float32, contentHashes []string) error {
	if len(chunks) != len(embeddings) || len(chunks) != len(contentHashes) {
		return storage.ErrLengthMismatch
	}
	if len(chunks) == 0 {
		return nil
	}

	entries := make([]*storage.ChunkEntry, len(chunks))
	for i := range chunks {
		chunk := &chunks[i]
		if err := core.ValidateChunk(chunk); err != nil {
			return err
		}

		vector := embeddings[i]
		if vector == nil {
			// Skip-case from the dedup pass: the hash was already known but
			// this exact entry still needs a vector of its own.
			v, err := r.embedder.EmbedText(ctx, chunk.Content)
			if err != nil {
				return err
			}
			vector = v
		}

		metadata := chunk.CloneMetadata()
		metadata[core.MetaContentHash] = contentHashes[i]

		entries[i] = &storage.ChunkEntry{
			ID:       core.ChunkID(chunk.SourcePath(), chunk.Index(), contentHashes[i]),
			Content:  chunk.Content,
			Vector:   vector,
			Metadata: metadata,
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, entry := range entries {
			if err := tx.Set(makeChunkKey(entry.ID), storage.MarshalChunkEntry(entry)); err != nil {
				return err
			}
			idxKey := makeSourceIndexKey(entry.Metadata[core.MetaSourcePath], entry.ID)
			if err := tx.Set(idxKey, []byte(entry.ID)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}

	r.logger.Debug("upserted chunk entries", "count", len(entries))
	return nil
}

// DeleteBySourcePath removes all entries whose source_path matches.
func (r *ChunkRepository) DeleteBySourcePath(ctx context.Context, sourcePath string) (int, error) {
	var removed int

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialSourceIndexKey(sourcePath)

		// Collect first; deleting while iterating the same prefix is
		// undefined behavior in badger.
		var ids []string
		var idxKeys [][]byte

		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			id, err := item.ValueCopy(nil)
			if err != nil {
				iter.Close()
				return err
			}
			ids = append(ids, string(id))
			idxKeys = append(idxKeys, item.KeyCopy(nil))
		}
		iter.Close()

		for i, id := range ids {
			if err := tx.Delete(makeChunkKey(id)); err != nil {
				return err
			}
			if err := tx.Delete(idxKeys[i]); err != nil {
				return err
			}
			removed++
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}

	r.logger.Debug("deleted chunk entries by source", "source", sourcePath, "count", removed)
	return removed, nil
}

// SimilaritySearch embeds the query and returns the top-k entries by
// descending cosine similarity. An empty store yields an empty result.
func (r *ChunkRepository) SimilaritySearch(ctx context.Context, query string, k int) ([]*storage.SearchResult, error) {
	if k < 1 {
		return nil, storage.ErrInvalidQuery
	}

	queryVector, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, err
	}

	var results []*storage.SearchResult
	err = r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkEntryPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var entry *storage.ChunkEntry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalChunkEntry(val)
				return err
			})
			if err != nil {
				return err
			}

			results = append(results, &storage.SearchResult{
				Chunk: core.Chunk{
					Content:  entry.Content,
					Metadata: entry.Metadata,
				},
				Score: cosineSimilarity(queryVector, entry.Vector),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *storage.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// ExistingContentHashes returns the content_hash values found in stored
// metadata, visiting at most limit entries. The result is best-effort for
// stores larger than the limit.
func (r *ChunkRepository) ExistingContentHashes(ctx context.Context, limit int) (map[string]struct{}, error) {
	hashes := make(map[string]struct{})
	if limit < 1 {
		return hashes, nil
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkEntryPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		visited := 0
		for iter.Rewind(); iter.Valid() && visited < limit; iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				entry, err := storage.UnmarshalChunkEntry(val)
				if err != nil {
					return err
				}
				if h, ok := entry.Metadata[core.MetaContentHash]; ok {
					hashes[h] = struct{}{}
				}
				return nil
			})
			if err != nil {
				return err
			}
			visited++
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return hashes, nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Returns 0 when either vector has zero magnitude.
func cosineSimilarity(a, b []float32) float32 {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	for _, v := range a {
		normA += float64(v) * float64(v)
	}
	for _, v := range b {
		normB += float64(v) * float64(v)
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
