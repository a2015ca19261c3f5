package badger

import (
	"context"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/sondera/core"
	"github.com/poiesic/sondera/storage"
)

// AccessRepository implements storage.AccessRepository for BadgerDB.
type AccessRepository struct {
	backend *Backend
}

var _ storage.AccessRepository = (*AccessRepository)(nil)

// NewAccessRepository creates a new AccessRepository.
func NewAccessRepository(backend *Backend) (*AccessRepository, error) {
	return &AccessRepository{
		backend: backend,
	}, nil
}

// Close releases resources. AccessRepository has no resources to release.
func (r *AccessRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *AccessRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddGrant records that a subject may read a collection.
// Re-granting an existing grant keeps the original timestamp.
func (r *AccessRepository) AddGrant(ctx context.Context, grant *core.Grant) (*core.Grant, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeGrantKey(grant.Subject, grant.CollectionId)

		existing, err := readGrant(tx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			*grant = *existing
			return nil
		}

		grant.InsertedAt = storedNow()
		if err := tx.Set(key, storage.MarshalGrant(grant)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return grant, nil
}

// RevokeGrant removes a subject's grant on a collection.
func (r *AccessRepository) RevokeGrant(ctx context.Context, subject string, collectionID core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeGrantKey(subject, collectionID)

		existing, err := readGrant(tx, key)
		if err != nil {
			return err
		}
		if existing == nil {
			return storage.ErrNotFound
		}

		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GrantsForSubject retrieves all grants held by a subject.
func (r *AccessRepository) GrantsForSubject(ctx context.Context, subject string) ([]*core.Grant, error) {
	var results []*core.Grant
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialGrantKey(subject)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(startKey) || slices.Compare(key[:len(startKey)], startKey) != 0 {
				break
			}

			var grant *core.Grant
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				grant, err = storage.UnmarshalGrant(val)
				return err
			}); err != nil {
				return err
			}
			if grant != nil {
				results = append(results, grant)
			}
		}
		return nil
	}, false)
	return results, err
}

// readGrant reads a grant from the transaction.
func readGrant(tx *badger.Txn, key []byte) (*core.Grant, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var grant *core.Grant
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		grant, unmarshalErr = storage.UnmarshalGrant(val)
		return unmarshalErr
	})
	return grant, err
}
