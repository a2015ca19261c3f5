package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/sondera/core"
	"github.com/poiesic/sondera/storage"
)

// EmbeddingCacheRepository implements storage.EmbeddingCacheRepository for BadgerDB.
type EmbeddingCacheRepository struct {
	backend *Backend
}

var _ storage.EmbeddingCacheRepository = (*EmbeddingCacheRepository)(nil)

// NewEmbeddingCacheRepository creates a new EmbeddingCacheRepository.
func NewEmbeddingCacheRepository(backend *Backend) (*EmbeddingCacheRepository, error) {
	return &EmbeddingCacheRepository{
		backend: backend,
	}, nil
}

// Close releases resources. EmbeddingCacheRepository has no resources to release.
func (r *EmbeddingCacheRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *EmbeddingCacheRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// GetEntry retrieves a cache entry by content hash and model version.
func (r *EmbeddingCacheRepository) GetEntry(ctx context.Context, contentHash, modelVersion string) (*core.EmbeddingCacheEntry, error) {
	var result *core.EmbeddingCacheEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readCacheEntry(tx, makeCacheEntryKey(contentHash, modelVersion))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// PutEntryIfAbsent stores a cache entry unless the key is already present.
// The cache is append-only: a concurrent writer that lands first wins, and
// its entry is returned instead.
func (r *EmbeddingCacheRepository) PutEntryIfAbsent(ctx context.Context, entry *core.EmbeddingCacheEntry) (*core.EmbeddingCacheEntry, error) {
	var result *core.EmbeddingCacheEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeCacheEntryKey(entry.ContentHash, entry.ModelVersion)

		existing, err := readCacheEntry(tx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			return nil
		}

		entry.InsertedAt = storedNow()
		if err := tx.Set(key, storage.MarshalCacheEntry(entry)); err != nil {
			return err
		}
		result = entry
		return tx.Commit()
	}, true)

	if err != nil {
		// Another writer may have committed the same key concurrently
		existing, getErr := r.GetEntry(ctx, entry.ContentHash, entry.ModelVersion)
		if getErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return result, nil
}

// readCacheEntry reads a cache entry from the transaction.
func readCacheEntry(tx *badger.Txn, key []byte) (*core.EmbeddingCacheEntry, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var entry *core.EmbeddingCacheEntry
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		entry, unmarshalErr = storage.UnmarshalCacheEntry(val)
		return unmarshalErr
	})
	return entry, err
}
