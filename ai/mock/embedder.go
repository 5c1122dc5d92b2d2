package mock

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
)

// mockVectorDim is the embedding width produced by the default behavior.
const mockVectorDim = 384

// MockEmbedder is a test double for ai.Embedder. By default it produces
// deterministic unit vectors derived from the input text, so equal texts
// embed identically and cosine scores are stable across runs. Either Func
// field can be set to inject custom behavior. Safe for concurrent use.
type MockEmbedder struct {
	EmbedTextFunc  func(ctx context.Context, text string) ([]float32, error)
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	mu        sync.Mutex
	callCount int
}

// NewMockEmbedder creates a mock embedder with the default deterministic
// behavior.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	return textVector(text), nil
}

func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = textVector(text)
	}
	return vectors, nil
}

// CallCount returns the number of times any embed method was called,
// including calls routed to injected funcs.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and any injected behavior.
func (m *MockEmbedder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
}

// textVector derives a unit vector from the text. An FNV hash of the text
// seeds a linear congruential generator that fills the components, so the
// mapping is stable with no shared state.
func textVector(text string) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))

	vector := make([]float32, mockVectorDim)
	state := h.Sum32()
	var sumSquares float64
	for i := range vector {
		state = state*1664525 + 1013904223
		c := float32(state%1000) / 1000.0
		vector[i] = c
		sumSquares += float64(c) * float64(c)
	}

	if sumSquares > 0 {
		scale := float32(1.0 / math.Sqrt(sumSquares))
		for i := range vector {
			vector[i] *= scale
		}
	}
	return vector
}
