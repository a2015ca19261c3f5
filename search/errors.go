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


package search

import "errors"

var (
	// ErrResolverRequired is returned when an access resolver is not provided.
	ErrResolverRequired = errors.New("access resolver required")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrMalformedQuery is returned when the question is empty or unusable
	// before any provider runs.
	ErrMalformedQuery = errors.New("malformed query")

	// ErrProviderUnavailable wraps a provider failure that permits falling
	// back to another provider, such as an embedding service being down.
	ErrProviderUnavailable = errors.New("search provider unavailable")
)
