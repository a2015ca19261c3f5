package badger

import (
	"context"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/sondera/core"
	"github.com/poiesic/sondera/storage"
)

// CollectionRepository implements storage.CollectionRepository for BadgerDB.
type CollectionRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.CollectionRepository = (*CollectionRepository)(nil)

// NewCollectionRepository creates a new CollectionRepository.
func NewCollectionRepository(backend *Backend) (*CollectionRepository, error) {
	idSeq, err := backend.GetSequence(collectionIDSeq)
	if err != nil {
		return nil, err
	}

	return &CollectionRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *CollectionRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *CollectionRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddCollection adds a collection to storage. Collection names are unique.
func (r *CollectionRepository) AddCollection(ctx context.Context, collection *core.Collection) (*core.Collection, error) {
	if err := core.ValidateCollection(collection); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		nameKey := makeCollectionNameKey(collection.Name)
		if _, err := tx.Get(nameKey); err == nil {
			return storage.ErrDuplicateKey
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		nextID, err := r.idSeq.Next()
		if err != nil {
			return err
		}
		// BadgerDB sequences can return 0 on first call, so we skip it
		if nextID == 0 {
			nextID, err = r.idSeq.Next()
			if err != nil {
				return err
			}
		}
		collection.Id = core.ID(nextID)
		collection.InsertedAt = storedNow()

		if err := tx.Set(makeCollectionKey(collection.Id), storage.MarshalCollection(collection)); err != nil {
			return err
		}
		if err := tx.Set(nameKey, storage.MarshalID(collection.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return collection, nil
}

// GetCollection retrieves a single collection by ID.
func (r *CollectionRepository) GetCollection(ctx context.Context, id core.ID) (*core.Collection, error) {
	var result *core.Collection
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readCollection(tx, makeCollectionKey(id))
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

// FindCollectionByName finds a collection by its unique name.
func (r *CollectionRepository) FindCollectionByName(ctx context.Context, name string) (*core.Collection, error) {
	var result *core.Collection
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeCollectionNameKey(name))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		var collectionID core.ID
		if err := item.Value(func(val []byte) error {
			var err error
			collectionID, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return err
		}

		result, err = readCollection(tx, makeCollectionKey(collectionID))
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

// ListCollections retrieves all collections, ordered by ID.
func (r *CollectionRepository) ListCollections(ctx context.Context) ([]*core.Collection, error) {
	var results []*core.Collection
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(collectionPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var collection *core.Collection
			err := iter.Item().Value(func(val []byte) error {
				var err error
				collection, err = storage.UnmarshalCollection(val)
				return err
			})
			if err != nil {
				return err
			}
			if collection != nil {
				results = append(results, collection)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.Collection) int {
		switch {
		case a.Id < b.Id:
			return -1
		case a.Id > b.Id:
			return 1
		default:
			return 0
		}
	})
	return results, nil
}

// ListDefaultCollections retrieves all collections marked as default.
func (r *CollectionRepository) ListDefaultCollections(ctx context.Context) ([]*core.Collection, error) {
	collections, err := r.ListCollections(ctx)
	if err != nil {
		return nil, err
	}

	var results []*core.Collection
	for _, collection := range collections {
		if collection.IsDefault {
			results = append(results, collection)
		}
	}
	return results, nil
}

// LinkDocument adds a document to a collection.
func (r *CollectionRepository) LinkDocument(ctx context.Context, collectionID, documentID core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeCollectionDocKey(collectionID, documentID), storage.MarshalID(documentID)); err != nil {
			return err
		}
		if err := tx.Set(makeDocumentColKey(documentID, collectionID), storage.MarshalID(collectionID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// UnlinkDocument removes a document from a collection.
func (r *CollectionRepository) UnlinkDocument(ctx context.Context, collectionID, documentID core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeCollectionDocKey(collectionID, documentID)); err != nil {
			return err
		}
		if err := tx.Delete(makeDocumentColKey(documentID, collectionID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DocumentsInCollection retrieves the IDs of all documents in a collection.
func (r *CollectionRepository) DocumentsInCollection(ctx context.Context, collectionID core.ID) ([]core.ID, error) {
	return r.scanIDs(makePartialCollectionDocKey(collectionID))
}

// CollectionsForDocument retrieves the IDs of all collections containing a document.
func (r *CollectionRepository) CollectionsForDocument(ctx context.Context, documentID core.ID) ([]core.ID, error) {
	return r.scanIDs(makePartialDocumentColKey(documentID))
}

// Helper methods

// scanIDs collects the ID values stored under a composite key prefix.
func (r *CollectionRepository) scanIDs(startKey []byte) ([]core.ID, error) {
	var ids []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(startKey) || slices.Compare(key[:len(startKey)], startKey) != 0 {
				break
			}

			var id core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	}, false)
	return ids, err
}

// readCollection reads a collection from the transaction.
func readCollection(tx *badger.Txn, key []byte) (*core.Collection, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var collection *core.Collection
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		collection, unmarshalErr = storage.UnmarshalCollection(val)
		return unmarshalErr
	})
	return collection, err
}
