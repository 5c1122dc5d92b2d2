// Copyright 2026 Chalkpath Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/chalkpath/ragmill/core"
	"github.com/chalkpath/ragmill/storage"
)

// Ledger implements storage.Ledger on a single SQLite table keyed by the
// raw-content hash of each source ever seen.
type Ledger struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

var _ storage.Ledger = (*Ledger)(nil)

// OpenLedger opens (creating if needed) the ingestion ledger at dbPath.
// The parent directory is created when missing.
func OpenLedger(dbPath string) (*Ledger, error) {
	if dbPath == "" {
		return nil, errors.New("ledger path required")
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	// WAL mode for concurrent readers alongside the ingest writer.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}

	l := &Ledger{
		db:     db,
		path:   dbPath,
		logger: slog.Default().With("component", "ledger"),
	}

	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

// initSchema creates the ingestion_history table if it does not exist.
func (l *Ledger) initSchema() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS ingestion_history (
			file_hash    TEXT PRIMARY KEY,
			source_path  TEXT NOT NULL,
			status       TEXT NOT NULL,
			processed_at TIMESTAMP NOT NULL,
			chunk_count  INTEGER DEFAULT 0
		)
	`)
	if err != nil {
		return fmt.Errorf("creating ingestion_history table: %w", err)
	}

	_, err = l.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_source_path ON ingestion_history(source_path)
	`)
	if err != nil {
		return fmt.Errorf("creating source_path index: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Path returns the database file path.
func (l *Ledger) Path() string {
	return l.path
}

// Lookup returns the ingestion record for a source hash.
// Returns storage.ErrNotFound when no record exists.
func (l *Ledger) Lookup(ctx context.Context, sourceHash string) (*core.IngestionRecord, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT file_hash, source_path, status, processed_at, chunk_count
		FROM ingestion_history
		WHERE file_hash = ?
	`, sourceHash)

	var rec core.IngestionRecord
	var status string
	var processedAt time.Time
	err := row.Scan(&rec.SourceHash, &rec.SourcePath, &status, &processedAt, &rec.ChunkCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ledger lookup: %w", err)
	}

	rec.Status = core.IngestionStatus(status)
	rec.ProcessedAt = processedAt
	return &rec, nil
}

// Record inserts or replaces the outcome for a source hash. Writes are
// last-write-wins per hash.
func (l *Ledger) Record(ctx context.Context, rec *core.IngestionRecord) error {
	if rec == nil || rec.SourceHash == "" {
		return storage.ErrInvalidQuery
	}

	processedAt := rec.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now().UTC()
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO ingestion_history
		(file_hash, source_path, status, processed_at, chunk_count)
		VALUES (?, ?, ?, ?, ?)
	`, rec.SourceHash, rec.SourcePath, string(rec.Status), processedAt, rec.ChunkCount)
	if err != nil {
		return fmt.Errorf("ledger record: %w", err)
	}

	l.logger.Debug("recorded ingestion outcome",
		"hash", core.ShortHash(rec.SourceHash),
		"source", rec.SourcePath,
		"status", rec.Status,
		"chunks", rec.ChunkCount)
	return nil
}
