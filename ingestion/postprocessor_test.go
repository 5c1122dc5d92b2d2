package ingestion

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chalkpath/ragmill/ai/mock"
	"github.com/chalkpath/ragmill/core"
)

func makeChunk(content string, index int) core.Chunk {
	return core.Chunk{
		Content: content,
		Metadata: map[string]string{
			core.MetaSourcePath: "/tmp/a.txt",
			core.MetaChunkIndex: strconv.Itoa(index),
			core.MetaTitle:      "a",
		},
	}
}

func fastPostProcessor(t *testing.T, gen *mock.MockGenerator) *PostProcessor {
	t.Helper()
	p, err := NewPostProcessor(gen, WithMaxRetries(2), WithRetryBaseDelay(time.Millisecond))
	require.NoError(t, err)
	return p
}

func TestNewPostProcessor_Validation(t *testing.T) {
	_, err := NewPostProcessor(nil)
	assert.ErrorIs(t, err, ErrGeneratorRequired)

	_, err = NewPostProcessor(mock.NewMockGenerator(), WithMaxRetries(0))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)

	_, err = NewPostProcessor(mock.NewMockGenerator(), WithRetryBaseDelay(0))
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestRefineChunk_Success(t *testing.T) {
	gen := mock.NewMockGenerator("  a clearer version of the text  ")
	p := fastPostProcessor(t, gen)

	original := makeChunk("murky text", 0)
	refined := p.RefineChunk(context.Background(), original)

	assert.Equal(t, "a clearer version of the text", refined.Content)
	assert.Equal(t, original.Metadata[core.MetaSourcePath], refined.Metadata[core.MetaSourcePath])
	assert.Equal(t, "murky text", original.Content, "input must not be mutated")
}

func TestRefineChunk_FailureKeepsOriginal(t *testing.T) {
	gen := &mock.MockGenerator{
		GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
			return "", errors.New("model offline")
		},
	}
	p := fastPostProcessor(t, gen)

	original := makeChunk("the original text", 0)
	refined := p.RefineChunk(context.Background(), original)

	assert.Equal(t, original.Content, refined.Content)
	assert.Equal(t, 2, gen.CallCount(), "should retry before giving up")
}

func TestRefineChunk_EmptyResponseKeepsOriginal(t *testing.T) {
	gen := mock.NewMockGenerator("   ")
	p := fastPostProcessor(t, gen)

	original := makeChunk("the original text", 0)
	refined := p.RefineChunk(context.Background(), original)
	assert.Equal(t, original.Content, refined.Content)
}

func TestExtractMetadata_Success(t *testing.T) {
	gen := mock.NewMockGenerator(`{"title": "Go Concurrency", "summary": "Channels and goroutines.", "tags": ["go", "concurrency"]}`)
	p := fastPostProcessor(t, gen)

	meta := p.ExtractMetadata(context.Background(), makeChunk("some text", 0))
	assert.Equal(t, "Go Concurrency", meta.Title)
	assert.Equal(t, "Channels and goroutines.", meta.Summary)
	assert.Equal(t, []string{"go", "concurrency"}, meta.Tags)
}

func TestExtractMetadata_FencedResponse(t *testing.T) {
	gen := mock.NewMockGenerator("Here you go:\n```json\n{\"title\": \"T\", \"summary\": \"S\", \"tags\": []}\n```")
	p := fastPostProcessor(t, gen)

	meta := p.ExtractMetadata(context.Background(), makeChunk("some text", 0))
	assert.Equal(t, "T", meta.Title)
	assert.Equal(t, "S", meta.Summary)
	assert.Empty(t, meta.Tags)
}

func TestExtractMetadata_RetriesThenSucceeds(t *testing.T) {
	gen := mock.NewMockGenerator(
		"not json at all",
		`{"title": "T", "summary": "S", "tags": []}`,
	)
	p := fastPostProcessor(t, gen)

	meta := p.ExtractMetadata(context.Background(), makeChunk("some text", 0))
	assert.Equal(t, "T", meta.Title)
	assert.Equal(t, 2, gen.CallCount())
}

func TestExtractMetadata_FallbackOnPersistentFailure(t *testing.T) {
	gen := mock.NewMockGenerator("still not json")
	p := fastPostProcessor(t, gen)

	long := strings.Repeat("x", 150)
	chunk := core.Chunk{
		Content:  long,
		Metadata: map[string]string{core.MetaSourcePath: "/tmp/a.txt"},
	}

	meta := p.ExtractMetadata(context.Background(), chunk)
	assert.Equal(t, "Untitled", meta.Title)
	assert.Equal(t, strings.Repeat("x", 100)+"...", meta.Summary)
	assert.Empty(t, meta.Tags)
}

func TestExtractMetadata_FallbackKeepsExistingTitle(t *testing.T) {
	gen := mock.NewMockGenerator("nope")
	p := fastPostProcessor(t, gen)

	chunk := makeChunk("short", 0)
	meta := p.ExtractMetadata(context.Background(), chunk)
	assert.Equal(t, "a", meta.Title)
	assert.Equal(t, "short", meta.Summary, "short content is not truncated")
}

func TestProcess_PreservesLengthAndOrder(t *testing.T) {
	gen := &mock.MockGenerator{
		GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
			return "", errors.New("model offline")
		},
	}
	p := fastPostProcessor(t, gen)

	chunks := []core.Chunk{
		makeChunk("first", 0),
		makeChunk("second", 1),
		makeChunk("third", 2),
	}

	out := p.Process(context.Background(), chunks)
	require.Len(t, out, 3)
	assert.Equal(t, "first", out[0].Content)
	assert.Equal(t, "second", out[1].Content)
	assert.Equal(t, "third", out[2].Content)
}

func TestProcess_EnrichesMetadata(t *testing.T) {
	gen := &mock.MockGenerator{
		GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
			if strings.Contains(prompt, "Extract metadata") {
				return `{"title": "T", "summary": "S", "tags": ["one", "two"]}`, nil
			}
			return "refined text", nil
		},
	}
	p := fastPostProcessor(t, gen)

	out := p.Process(context.Background(), []core.Chunk{makeChunk("raw text", 0)})
	require.Len(t, out, 1)
	assert.Equal(t, "refined text", out[0].Content)
	assert.Equal(t, "T", out[0].Metadata[core.MetaTitle])
	assert.Equal(t, "S", out[0].Metadata[core.MetaSummary])
	assert.Equal(t, "one,two", out[0].Metadata[core.MetaTags])
}

func TestProcess_RecoversFromPanic(t *testing.T) {
	gen := &mock.MockGenerator{
		GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
			panic("client blew up")
		},
	}
	p := fastPostProcessor(t, gen)

	original := makeChunk("survives", 0)
	out := p.Process(context.Background(), []core.Chunk{original})
	require.Len(t, out, 1)
	assert.Equal(t, "survives", out[0].Content)
}
