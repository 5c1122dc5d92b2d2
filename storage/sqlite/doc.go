// Package sqlite implements the ingestion ledger on a single SQLite table.
//
// The table maps each raw-content hash ever seen to its ingestion outcome
// (status, timestamp, chunk count). Re-ingesting an unchanged source resolves
// to an existing success row and is skipped upstream.
package sqlite
