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

import "errors"

// Domain errors
var (
	// ErrSourceNotFound indicates the source file or URL does not exist.
	ErrSourceNotFound = errors.New("source not found")

	// ErrUnsupportedType indicates the source's type or extension is not
	// recognized by any loader.
	ErrUnsupportedType = errors.New("unsupported source type")

	// ErrInvalidInput indicates a malformed source, such as a directory
	// where a file was expected.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingSourcePath indicates a document or chunk lacks the required
	// source_path metadata key. This is a precondition violation, not a
	// recoverable condition.
	ErrMissingSourcePath = errors.New("missing required source_path metadata")

	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")
)
