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
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chalkpath/ragmill/ai"
	"github.com/chalkpath/ragmill/core"
)

const (
	// DefaultMaxRetries is the retry budget for each generator call.
	DefaultMaxRetries = 3
	// DefaultRetryBaseDelay is the initial backoff delay.
	DefaultRetryBaseDelay = time.Second

	fallbackSummaryLength = 100
)

// ChunkMetadata is the structure expected from the extraction prompt.
type ChunkMetadata struct {
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

// PostProcessor enriches chunks with an LLM: it rewrites chunk text for
// clarity and extracts a title, summary and tags for each chunk. Every
// operation degrades gracefully; a chunk whose enrichment fails passes
// through unchanged (or with deterministic fallback metadata), so a
// flaky model can never abort an ingestion or change the chunk count.
type PostProcessor struct {
	generator  ai.Generator
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// PostProcessorOption configures a PostProcessor.
type PostProcessorOption func(*PostProcessor) error

// WithMaxRetries sets the retry budget for generator calls.
func WithMaxRetries(n int) PostProcessorOption {
	return func(p *PostProcessor) error {
		if n <= 0 {
			return fmt.Errorf("%w: got %d", ErrInvalidMaxAttempts, n)
		}
		p.maxRetries = n
		return nil
	}
}

// WithRetryBaseDelay sets the initial backoff delay between retries.
func WithRetryBaseDelay(d time.Duration) PostProcessorOption {
	return func(p *PostProcessor) error {
		if d <= 0 {
			return fmt.Errorf("%w: base delay must be positive", core.ErrInvalidInput)
		}
		p.baseDelay = d
		return nil
	}
}

// NewPostProcessor creates a PostProcessor backed by the given generator.
func NewPostProcessor(generator ai.Generator, opts ...PostProcessorOption) (*PostProcessor, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	p := &PostProcessor{
		generator:  generator,
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultRetryBaseDelay,
		logger:     slog.Default().With("component", "postprocessor"),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Process enriches every chunk independently. The result has exactly the
// same length and order as the input; a failed chunk is carried through
// in its original form.
func (p *PostProcessor) Process(ctx context.Context, chunks []core.Chunk) []core.Chunk {
	out := make([]core.Chunk, len(chunks))
	for i := range chunks {
		out[i] = p.processChunk(ctx, chunks[i])
	}
	return out
}

func (p *PostProcessor) processChunk(ctx context.Context, chunk core.Chunk) (result core.Chunk) {
	// A panicking model client must not take the whole batch down.
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("chunk enrichment panicked, keeping original", "index", chunk.Index(), "panic", r)
			result = chunk
		}
	}()

	refined := p.RefineChunk(ctx, chunk)
	meta := p.ExtractMetadata(ctx, refined)

	refined.Metadata = refined.CloneMetadata()
	refined.Metadata[core.MetaTitle] = meta.Title
	refined.Metadata[core.MetaSummary] = meta.Summary
	if len(meta.Tags) > 0 {
		refined.Metadata[core.MetaTags] = strings.Join(meta.Tags, ",")
	}
	return refined
}

// RefineChunk rewrites the chunk text for clarity. On any failure after
// retries the original chunk is returned unchanged.
func (p *PostProcessor) RefineChunk(ctx context.Context, chunk core.Chunk) core.Chunk {
	prompt := buildRefinePrompt(chunk.Content)

	var refined string
	err := RetryWithBackoff(ctx, func() error {
		response, err := p.generator.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		response = strings.TrimSpace(response)
		if response == "" {
			return ErrEmptyResponse
		}
		refined = response
		return nil
	}, p.maxRetries, p.baseDelay)
	if err != nil {
		p.logger.Warn("chunk refinement failed, keeping original", "index", chunk.Index(), "error", err)
		return chunk
	}

	return core.Chunk{Content: refined, Metadata: chunk.CloneMetadata()}
}

// ExtractMetadata asks the model for a title, summary and tags. On any
// failure after retries it returns deterministic fallback metadata
// derived from the chunk itself.
func (p *PostProcessor) ExtractMetadata(ctx context.Context, chunk core.Chunk) ChunkMetadata {
	prompt := buildExtractPrompt(chunk.Content)

	var meta ChunkMetadata
	err := RetryWithBackoff(ctx, func() error {
		response, err := p.generator.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		parsed, err := parseMetadataResponse(response)
		if err != nil {
			return err
		}
		meta = parsed
		return nil
	}, p.maxRetries, p.baseDelay)
	if err != nil {
		p.logger.Warn("metadata extraction failed, using fallback", "index", chunk.Index(), "error", err)
		return fallbackMetadata(chunk)
	}

	return meta
}

// parseMetadataResponse extracts the JSON object from an LLM response,
// repairing common formatting mistakes before unmarshaling. A response
// without both a title and a summary counts as a parse failure.
func parseMetadataResponse(response string) (ChunkMetadata, error) {
	text := repairJSON(stripCodeFences(response))

	var meta ChunkMetadata
	if err := json.Unmarshal([]byte(text), &meta); err != nil {
		return ChunkMetadata{}, fmt.Errorf("%w: %w", ErrMetadataParse, err)
	}
	if strings.TrimSpace(meta.Title) == "" || strings.TrimSpace(meta.Summary) == "" {
		return ChunkMetadata{}, fmt.Errorf("%w: missing title or summary", ErrMetadataParse)
	}
	return meta, nil
}

// fallbackMetadata derives metadata from the chunk without a model:
// the existing title if one is present, and the leading content as the
// summary.
func fallbackMetadata(chunk core.Chunk) ChunkMetadata {
	title := chunk.Metadata[core.MetaTitle]
	if strings.TrimSpace(title) == "" {
		title = "Untitled"
	}

	summary := chunk.Content
	if runes := []rune(summary); len(runes) > fallbackSummaryLength {
		summary = string(runes[:fallbackSummaryLength]) + "..."
	}

	return ChunkMetadata{Title: title, Summary: summary}
}
