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


package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/chalkpath/ragmill/ai"
	"github.com/chalkpath/ragmill/core"
	"github.com/chalkpath/ragmill/storage"
)

// DefaultHashLimit caps how many stored content hashes are loaded for
// dedup before embedding. Beyond the cap, dedup is best-effort.
const DefaultHashLimit = 10000

// Pipeline drives a source from raw bytes to persisted, searchable
// chunks: load, split, optionally enrich, embed, store, and record the
// outcome in the ingestion ledger. Re-running the pipeline over
// unchanged sources is cheap; unchanged sources are skipped before any
// model call and unchanged chunks of a changed source reuse their
// stored embeddings.
type Pipeline struct {
	loader       *Loader
	splitter     *Splitter
	postProc     *PostProcessor
	embeddingGen *EmbeddingGenerator
	store        storage.ChunkStore
	ledger       storage.Ledger
	monitor      Monitor
	logger       *slog.Logger

	transform   bool
	hashLimit   int
	concurrency int

	// Serializes the delete-then-upsert pair so concurrent sources
	// cannot interleave a purge with another source's write.
	storeMu sync.Mutex

	// Deferred construction parameters, applied in NewPipeline.
	chunkSize    int
	chunkOverlap int
	maxRetries   int
	baseDelay    time.Duration
	batchSize    int
	loaderOpts   []LoaderOption
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline) error

// WithTransform enables or disables LLM chunk enrichment.
func WithTransform(enabled bool) PipelineOption {
	return func(p *Pipeline) error {
		p.transform = enabled
		return nil
	}
}

// WithSplitterConfig sets the chunk size and overlap used when
// splitting documents.
func WithSplitterConfig(chunkSize, chunkOverlap int) PipelineOption {
	return func(p *Pipeline) error {
		p.chunkSize = chunkSize
		p.chunkOverlap = chunkOverlap
		return nil
	}
}

// WithRetryConfig sets the retry budget and base delay for enrichment
// calls.
func WithRetryConfig(maxRetries int, baseDelay time.Duration) PipelineOption {
	return func(p *Pipeline) error {
		if maxRetries <= 0 {
			return fmt.Errorf("%w: got %d", ErrInvalidMaxAttempts, maxRetries)
		}
		p.maxRetries = maxRetries
		p.baseDelay = baseDelay
		return nil
	}
}

// WithEmbeddingBatchSize sets the number of texts per embedding call.
func WithEmbeddingBatchSize(n int) PipelineOption {
	return func(p *Pipeline) error {
		if n <= 0 {
			return fmt.Errorf("%w: batch size must be positive", core.ErrInvalidInput)
		}
		p.batchSize = n
		return nil
	}
}

// WithHashLimit caps how many stored content hashes are consulted for
// dedup.
func WithHashLimit(n int) PipelineOption {
	return func(p *Pipeline) error {
		if n < 0 {
			return fmt.Errorf("%w: hash limit cannot be negative", core.ErrInvalidInput)
		}
		p.hashLimit = n
		return nil
	}
}

// WithConcurrency sets the number of sources processed in parallel by
// ProcessSources. Values below 2 mean sequential processing.
func WithConcurrency(n int) PipelineOption {
	return func(p *Pipeline) error {
		p.concurrency = n
		return nil
	}
}

// WithMonitor installs hooks observing pipeline progress.
func WithMonitor(m Monitor) PipelineOption {
	return func(p *Pipeline) error {
		if m == nil {
			return fmt.Errorf("%w: monitor cannot be nil", core.ErrInvalidInput)
		}
		p.monitor = m
		return nil
	}
}

// WithLoaderOptions forwards options to the source loader.
func WithLoaderOptions(opts ...LoaderOption) PipelineOption {
	return func(p *Pipeline) error {
		p.loaderOpts = append(p.loaderOpts, opts...)
		return nil
	}
}

// NewPipeline creates an ingestion pipeline over the given chunk store
// and ledger, using the provider's embedder for vectors and its
// generator for optional enrichment.
func NewPipeline(store storage.ChunkStore, ledger storage.Ledger, provider ai.Provider, opts ...PipelineOption) (*Pipeline, error) {
	if store == nil {
		return nil, ErrChunkStoreRequired
	}
	if ledger == nil {
		return nil, ErrLedgerRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}

	p := &Pipeline{
		store:        store,
		ledger:       ledger,
		monitor:      &noopMonitor{},
		logger:       slog.Default().With("component", "pipeline"),
		hashLimit:    DefaultHashLimit,
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		maxRetries:   DefaultMaxRetries,
		baseDelay:    DefaultRetryBaseDelay,
		batchSize:    DefaultBatchSize,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	loader, err := NewLoader(ledger, p.loaderOpts...)
	if err != nil {
		return nil, err
	}
	p.loader = loader

	splitter, err := NewSplitter(WithChunkSize(p.chunkSize), WithChunkOverlap(p.chunkOverlap))
	if err != nil {
		return nil, err
	}
	p.splitter = splitter

	postProc, err := NewPostProcessor(provider.Generator(),
		WithMaxRetries(p.maxRetries), WithRetryBaseDelay(p.baseDelay))
	if err != nil {
		return nil, err
	}
	p.postProc = postProc

	embeddingGen, err := NewEmbeddingGenerator(provider.Embedder(), WithBatchSize(p.batchSize))
	if err != nil {
		return nil, err
	}
	p.embeddingGen = embeddingGen

	return p, nil
}

// ProcessSource ingests a single source end to end and returns the
// number of chunks stored. An unchanged source returns 0 without
// touching the store or the ledger. A source that loads but yields no
// content is recorded as failed and returns 0 without error; only
// infrastructure failures return one.
func (p *Pipeline) ProcessSource(ctx context.Context, source string) (int, error) {
	p.monitor.Start(source)

	docs, sourceHash, skipped, err := p.loader.Load(ctx, source)
	if err != nil {
		p.monitor.Failed(source, err)
		return 0, err
	}
	if skipped {
		p.monitor.Skipped(source)
		return 0, nil
	}
	p.monitor.Loaded(source, len(docs))

	if len(docs) == 0 {
		p.logger.Warn("no content loaded", "source", source)
		if err := p.recordOutcome(ctx, sourceHash, source, core.StatusFailed, 0); err != nil {
			p.monitor.Failed(source, err)
			return 0, err
		}
		p.monitor.Recorded(source, core.StatusFailed, 0)
		return 0, nil
	}

	chunks, err := p.splitter.Split(docs)
	if err != nil {
		p.monitor.Failed(source, err)
		return 0, err
	}
	p.monitor.Split(source, len(chunks))

	if p.transform && len(chunks) > 0 {
		chunks = p.postProc.Process(ctx, chunks)
		p.monitor.Postprocessed(source, len(chunks))
	}

	existing, err := p.store.ExistingContentHashes(ctx, p.hashLimit)
	if err != nil {
		p.monitor.Failed(source, err)
		return 0, fmt.Errorf("failed to load existing hashes: %w", err)
	}

	embeddings, hashes, err := p.embeddingGen.Generate(ctx, chunks, existing)
	if err != nil {
		p.monitor.Failed(source, err)
		return 0, err
	}
	newEmbeddings := 0
	for _, e := range embeddings {
		if e != nil {
			newEmbeddings++
		}
	}
	p.monitor.Embedded(source, newEmbeddings, len(chunks)-newEmbeddings)

	if err := p.replaceSourceChunks(ctx, chunks, embeddings, hashes); err != nil {
		p.monitor.Failed(source, err)
		return 0, err
	}
	p.monitor.Stored(source, len(chunks))

	if err := p.recordOutcome(ctx, sourceHash, source, core.StatusSuccess, len(chunks)); err != nil {
		p.monitor.Failed(source, err)
		return 0, err
	}
	p.monitor.Recorded(source, core.StatusSuccess, len(chunks))

	p.logger.Info("source ingested",
		"source", source,
		"chunks", len(chunks),
		"newEmbeddings", newEmbeddings,
		"hash", core.ShortHash(sourceHash))
	return len(chunks), nil
}

// replaceSourceChunks purges any entries from a previous version of the
// source and writes the new chunks. The pair runs under a lock so that
// parallel sources observe it atomically.
func (p *Pipeline) replaceSourceChunks(ctx context.Context, chunks []core.Chunk, embeddings [][]float32, hashes []string) error {
	if len(chunks) == 0 {
		return nil
	}

	p.storeMu.Lock()
	defer p.storeMu.Unlock()

	removed, err := p.store.DeleteBySourcePath(ctx, chunks[0].SourcePath())
	if err != nil {
		return fmt.Errorf("failed to purge stale chunks: %w", err)
	}
	if removed > 0 {
		p.logger.Debug("purged stale chunks", "source", chunks[0].SourcePath(), "removed", removed)
	}

	if err := p.store.Upsert(ctx, chunks, embeddings, hashes); err != nil {
		return fmt.Errorf("failed to store chunks: %w", err)
	}
	return nil
}

func (p *Pipeline) recordOutcome(ctx context.Context, sourceHash, source string, status core.IngestionStatus, chunkCount int) error {
	rec := &core.IngestionRecord{
		SourceHash: sourceHash,
		SourcePath: source,
		Status:     status,
		ChunkCount: chunkCount,
	}
	if err := p.ledger.Record(ctx, rec); err != nil {
		return fmt.Errorf("failed to record ingestion: %w", err)
	}
	return nil
}

// ProcessSources ingests every source, isolating failures: one bad
// source is logged and skipped, the rest still complete. Returns the
// total number of chunks stored. With a concurrency above 1 the sources
// run on a worker pool.
func (p *Pipeline) ProcessSources(ctx context.Context, sources []string) int {
	if p.concurrency > 1 && len(sources) > 1 {
		return p.processSourcesConcurrent(ctx, sources)
	}

	total := 0
	for _, source := range sources {
		count, err := p.ProcessSource(ctx, source)
		if err != nil {
			p.logger.Error("failed to ingest source", "source", source, "error", err)
			continue
		}
		total += count
	}
	p.monitor.Finish(total)
	return total
}

func (p *Pipeline) processSourcesConcurrent(ctx context.Context, sources []string) int {
	pool, err := ants.NewPool(p.concurrency)
	if err != nil {
		p.logger.Warn("failed to create worker pool, falling back to sequential", "error", err)
		p.concurrency = 1
		return p.ProcessSources(ctx, sources)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	var total atomic.Int64

	for _, source := range sources {
		source := source
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			count, err := p.ProcessSource(ctx, source)
			if err != nil {
				p.logger.Error("failed to ingest source", "source", source, "error", err)
				return
			}
			total.Add(int64(count))
		})
		if submitErr != nil {
			wg.Done()
			p.logger.Error("failed to submit source", "source", source, "error", submitErr)
		}
	}
	wg.Wait()

	p.monitor.Finish(int(total.Load()))
	return int(total.Load())
}
