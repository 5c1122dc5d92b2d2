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


package ragmill

import (
	"log/slog"
	"path/filepath"

	"github.com/chalkpath/ragmill/ai"
	"github.com/chalkpath/ragmill/ai/openai"
	"github.com/chalkpath/ragmill/ingestion"
	"github.com/chalkpath/ragmill/search"
	"github.com/chalkpath/ragmill/storage"
	"github.com/chalkpath/ragmill/storage/badger"
	"github.com/chalkpath/ragmill/storage/sqlite"
)

const (
	chunksSubdir   = "chunks"
	ledgerFilename = "ledger.db"
)

// KnowledgeBase bundles the chunk store, the ingestion ledger, and the
// AI provider behind one handle. It is the entry point for embedding
// applications: open it once, build pipelines and searchers from it,
// close it on shutdown.
type KnowledgeBase struct {
	backend  *badger.Backend
	chunks   storage.ChunkStore
	ledger   storage.Ledger
	provider ai.Provider
	logger   *slog.Logger
}

// KnowledgeBaseOption configures a KnowledgeBase.
type KnowledgeBaseOption func(*knowledgeBaseOptions)

type knowledgeBaseOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
}

// WithAIConfig sets the model endpoints and names used for embedding
// and generation.
func WithAIConfig(config *ai.Config) KnowledgeBaseOption {
	return func(o *knowledgeBaseOptions) {
		o.aiConfig = config
	}
}

// WithProvider injects a pre-built AI provider, bypassing the OpenAI
// client construction. Mostly useful in tests.
func WithProvider(provider ai.Provider) KnowledgeBaseOption {
	return func(o *knowledgeBaseOptions) {
		o.provider = provider
	}
}

// Open opens (or creates) a knowledge base rooted at dataDir. The chunk
// store and the ingestion ledger live side by side under it.
func Open(dataDir string, opts ...KnowledgeBaseOption) (*KnowledgeBase, error) {
	options := &knowledgeBaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	provider := options.provider
	if provider == nil {
		var err error
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			return nil, err
		}
	}

	backend, err := badger.OpenBackend(filepath.Join(dataDir, chunksSubdir), false)
	if err != nil {
		return nil, err
	}

	chunks, err := badger.NewChunkRepository(backend, provider.Embedder())
	if err != nil {
		backend.Close()
		return nil, err
	}

	ledger, err := sqlite.OpenLedger(filepath.Join(dataDir, ledgerFilename))
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &KnowledgeBase{
		backend:  backend,
		chunks:   chunks,
		ledger:   ledger,
		provider: provider,
		logger:   slog.Default(),
	}, nil
}

func (kb *KnowledgeBase) Close() error {
	if err := kb.provider.Close(); err != nil {
		kb.logger.Error("error closing AI provider", "err", err)
	}

	if err := kb.ledger.Close(); err != nil {
		kb.logger.Error("error closing ingestion ledger", "err", err)
		return err
	}

	// Closing the backend closes the chunk repository with it.
	if err := kb.backend.Close(); err != nil {
		kb.logger.Error("error closing chunk store", "err", err)
		return err
	}
	return nil
}

// ChunkStore exposes the underlying chunk store.
func (kb *KnowledgeBase) ChunkStore() storage.ChunkStore {
	return kb.chunks
}

// Ledger exposes the underlying ingestion ledger.
func (kb *KnowledgeBase) Ledger() storage.Ledger {
	return kb.ledger
}

// NewIngestionPipeline builds a pipeline writing into this knowledge base.
func (kb *KnowledgeBase) NewIngestionPipeline(opts ...ingestion.PipelineOption) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(kb.chunks, kb.ledger, kb.provider, opts...)
}

// NewSearcher builds a searcher reading from this knowledge base.
func (kb *KnowledgeBase) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(kb.chunks, kb.provider, opts...)
}
