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


// Package storage provides the storage abstraction layer for ragmill.
//
// It defines two independent stores:
//
//   - ChunkStore, the vector collection holding chunk text, embedding, and
//     metadata keyed by stable chunk ids (storage/badger)
//   - Ledger, the durable table of per-source ingestion outcomes keyed by
//     raw-content hash (storage/sqlite)
//
// Interfaces decouple the pipeline from the backends, so either store can be
// swapped or faked in tests.
package storage
