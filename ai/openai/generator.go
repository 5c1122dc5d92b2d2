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


package openai

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/chalkpath/ragmill/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrEmptyResponse is returned when the model produces no choices.
var ErrEmptyResponse = errors.New("model returned no choices")

// Generator implements ai.Generator using OpenAI-compatible chat APIs.
//
// The underlying client is constructed on first use and cached for the
// lifetime of the Generator; concurrent first use is safe.
type Generator struct {
	config *ai.Config
	logger *slog.Logger

	once    sync.Once
	client  llms.Model
	initErr error
}

// newGenerator is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Generator{
		config: config,
		logger: slog.Default().With("component", "openai-generator"),
	}, nil
}

// NewGenerator creates a new generator using the provided configuration.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config)
}

// init constructs the langchaingo client on first use.
func (g *Generator) init() error {
	g.once.Do(func() {
		client, err := openai.New(
			openai.WithBaseURL(g.config.GeneratorHost),
			openai.WithToken(g.config.Token()),
			openai.WithModel(g.config.GeneratorModel),
		)
		if err != nil {
			g.initErr = err
			return
		}
		g.client = client
	})
	return g.initErr
}

// Generate sends a fully rendered prompt and returns the response text.
// Temperature is pinned to 0 so refinement and extraction are as
// deterministic as the model allows.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := g.init(); err != nil {
		return "", err
	}
	g.logger.Debug("generating completion", "promptLength", len(prompt))

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(prompt),
			},
		},
	}

	response, err := g.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		g.logger.Error("failed to generate content", "err", err)
		return "", err
	}
	if len(response.Choices) < 1 {
		g.logger.Warn("no choices returned from model")
		return "", ErrEmptyResponse
	}

	return strings.TrimSpace(response.Choices[0].Content), nil
}
