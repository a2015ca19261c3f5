// Copyright 2025 Poiesic Systems
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


// Package search provides access-filtered retrieval over document chunks.
//
// Two providers rank chunks independently:
//   - VectorProvider scores by cosine similarity against chunk embeddings
//   - LexicalProvider scores by term matching against the stored term lists
//
// The Retriever selects exactly one provider per request (vector when an
// embedder is available, lexical otherwise or on embedding failure) and
// returns its ranking truncated to the configured result count. Rankings
// from the two providers are never blended.
//
// Authorization is a pre-filter: both providers gather candidate chunks
// only from documents the caller may read, so an unauthorized caller's
// result set is built from nothing rather than filtered down to nothing.
package search
