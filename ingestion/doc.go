// Package ingestion implements the incremental ingestion pipeline:
// loading sources from files and the web, splitting them into
// overlapping chunks, optional LLM enrichment, embedding with
// content-hash dedup, and persisting chunks plus a durable record of
// each source's outcome.
//
// The pipeline is idempotent at two levels. A source whose raw content
// hash already has a successful ledger record is skipped before any
// model call, and within a changed source any chunk whose content hash
// already exists in the store reuses its stored embedding.
package ingestion
