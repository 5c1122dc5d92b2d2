// Package core defines the domain model shared across the ingestion
// pipeline: documents, chunks, ingestion ledger records, and the hashing
// scheme that gives chunks stable identities.
//
// Three hashes drive the incremental pipeline:
//   - the source hash, over a source's raw bytes, used for
//     skip-if-already-ingested,
//   - the content hash, over chunk text plus a restricted metadata subset,
//     used as the dedup key for embedding reuse,
//   - the chunk id, over (source_path, chunk_index, content_hash), used as
//     the stable upsert/delete key in the chunk store.
//
// All three are SHA-256 hex digests.
package core
