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


package core

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Metadata must carry source_path
//
// NOT validated:
//   - Content (empty documents are legal; they simply split into nothing)
//   - title / doc_type (best-effort keys)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if doc.Metadata[MetaSourcePath] == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrMissingSourcePath)
	}
	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Metadata must carry source_path
//   - chunk_index, if present, must parse as a non-negative integer
//
// NOT validated (populated later in the pipeline):
//   - title / summary / tags (postprocessor output)
//   - content_hash (stamped at store time)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}
	if chunk.Metadata[MetaSourcePath] == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrMissingSourcePath)
	}
	if _, ok := chunk.Metadata[MetaChunkIndex]; ok && chunk.Index() < 0 {
		return fmt.Errorf("%w: malformed chunk_index %q", ErrInvalidChunk, chunk.Metadata[MetaChunkIndex])
	}
	return nil
}
