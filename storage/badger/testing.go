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


package badger

import "github.com/poiesic/sondera/storage"

// Repositories bundles every repository backed by a single BadgerDB instance.
type Repositories struct {
	Documents   storage.DocumentRepository
	Chunks      storage.ChunkRepository
	Collections storage.CollectionRepository
	Access      storage.AccessRepository
	Cache       storage.EmbeddingCacheRepository
	QueryLog    storage.QueryLogRepository
}

// Close closes every repository in the bundle.
func (r *Repositories) Close() error {
	var firstErr error
	for _, c := range []storage.Repository{
		r.Documents, r.Chunks, r.Collections, r.Access, r.Cache, r.QueryLog,
	} {
		if c == nil {
			continue
		}
		if err := c.Close(); firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewRepositories creates all repositories against a shared backend.
func NewRepositories(backend *Backend) (*Repositories, error) {
	docs, err := NewDocumentRepository(backend)
	if err != nil {
		return nil, err
	}

	chunks, err := NewChunkRepository(backend)
	if err != nil {
		docs.Close()
		return nil, err
	}

	collections, err := NewCollectionRepository(backend)
	if err != nil {
		chunks.Close()
		docs.Close()
		return nil, err
	}

	access, err := NewAccessRepository(backend)
	if err != nil {
		collections.Close()
		chunks.Close()
		docs.Close()
		return nil, err
	}

	cache, err := NewEmbeddingCacheRepository(backend)
	if err != nil {
		access.Close()
		collections.Close()
		chunks.Close()
		docs.Close()
		return nil, err
	}

	queryLog, err := NewQueryLogRepository(backend)
	if err != nil {
		cache.Close()
		access.Close()
		collections.Close()
		chunks.Close()
		docs.Close()
		return nil, err
	}

	return &Repositories{
		Documents:   docs,
		Chunks:      chunks,
		Collections: collections,
		Access:      access,
		Cache:       cache,
		QueryLog:    queryLog,
	}, nil
}

// NewMemoryRepositories creates in-memory repositories for testing.
// Caller must close the repositories and the backend when done.
func NewMemoryRepositories() (*Repositories, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, err
	}

	repos, err := NewRepositories(backend)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}

	return repos, backend, nil
}
