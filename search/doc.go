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


// Package search provides semantic retrieval over ingested chunks and
// retrieval-augmented answering on top of it.
//
// FindSimilar ranks stored chunks by cosine similarity to the query
// using the same embedding model the pipeline ingested them with.
// Answer feeds the top hits to a generator as grounding context and
// returns both the answer and the chunks it drew on.
package search
