package core

import (
	"strconv"
	"time"
)

// Metadata keys used throughout the ingestion pipeline.
const (
	// MetaSourcePath is the canonical path or URL of the originating source.
	// Every chunk must carry this key; absence is a fatal precondition
	// violation.
	MetaSourcePath = "source_path"

	// MetaDocType identifies the kind of source ("text", "webpage").
	MetaDocType = "doc_type"

	// MetaTitle is the best-effort title of the document or chunk.
	MetaTitle = "title"

	// MetaSummary is the LLM-extracted summary of a chunk.
	MetaSummary = "summary"

	// MetaTags holds comma-separated LLM-extracted tags.
	MetaTags = "tags"

	// MetaChunkIndex is the 0-based position of a chunk within its source's
	// chunk list, stored as a decimal string.
	MetaChunkIndex = "chunk_index"

	// MetaContentHash is the dedup hash stamped onto stored entries.
	MetaContentHash = "content_hash"
)

// DocTypeText and DocTypeWebPage are the supported doc_type values.
const (
	DocTypeText    = "text"
	DocTypeWebPage = "webpage"
)

// Document is a raw document produced by a loader. A source yields one or
// more documents; they exist only between loading and splitting.
type Document struct {
	Content  string
	Metadata map[string]string
}

// Chunk is a bounded-size slice of a document's text carrying inherited and
// derived metadata. Chunks are mutated in place by the postprocessor and
// consumed by the embedder and the chunk store.
type Chunk struct {
	Content  string
	Metadata map[string]string
}

// SourcePath returns the chunk's source_path metadata value.
func (c *Chunk) SourcePath() string {
	return c.Metadata[MetaSourcePath]
}

// Index returns the chunk's position within its source's chunk list, or -1
// if the chunk_index key is missing or malformed.
func (c *Chunk) Index() int {
	v, ok := c.Metadata[MetaChunkIndex]
	if !ok {
		return -1
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return i
}

// SetIndex stamps the chunk's position.
func (c *Chunk) SetIndex(i int) {
	if c.Metadata == nil {
		c.Metadata = make(map[string]string)
	}
	c.Metadata[MetaChunkIndex] = strconv.Itoa(i)
}

// CloneMetadata returns a copy of the chunk's metadata map.
func (c *Chunk) CloneMetadata() map[string]string {
	cloned := make(map[string]string, len(c.Metadata))
	for k, v := range c.Metadata {
		cloned[k] = v
	}
	return cloned
}

// IngestionStatus is the recorded outcome of a source ingestion attempt.
type IngestionStatus string

const (
	// StatusSuccess marks a source whose chunks were stored and recorded.
	StatusSuccess IngestionStatus = "success"
	// StatusFailed marks a source that loaded but produced nothing usable.
	StatusFailed IngestionStatus = "failed"
	// StatusProcessing marks a source whose ingestion is in flight.
	StatusProcessing IngestionStatus = "processing"
)

// IngestionRecord is the durable ledger entry for one distinct raw-content
// hash. Re-ingesting an unchanged source resolves to an existing success
// record and is skipped.
type IngestionRecord struct {
	SourceHash  string
	SourcePath  string
	Status      IngestionStatus
	ProcessedAt time.Time
	ChunkCount  int
}
