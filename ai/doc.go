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


// Package ai provides abstractions for the AI services used by ragmill.
//
// It defines interfaces for text embeddings and single-shot text generation.
// The pipeline, chunk store, and searcher depend only on these abstractions;
// concrete clients live in subpackages:
//
//   - ai/openai: OpenAI-compatible services via langchaingo (works with
//     hosted OpenAI as well as local servers such as Ollama or vLLM)
//   - ai/mock: deterministic test doubles
//
// Clients are constructed lazily on first use and cached for the lifetime of
// the provider, so creating a provider never performs network I/O.
package ai
