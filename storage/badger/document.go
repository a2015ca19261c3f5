package badger

import (
	"context"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/sondera/core"
	"github.com/poiesic/sondera/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	idSeq, err := backend.GetSequence(documentIDSeq)
	if err != nil {
		return nil, err
	}

	return &DocumentRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *DocumentRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddDocument adds a new document version and maintains the version chain.
// A zero status defaults to draft; every version enters the lifecycle there.
func (r *DocumentRepository) AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	if doc.Status == 0 {
		doc.Status = core.StatusDraft
	}
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		nextID, err := r.nextID()
		if err != nil {
			return err
		}
		doc.Id = core.ID(nextID)

		// Checksum uniqueness guards against re-ingesting identical sources
		if doc.Checksum != "" {
			if _, err := tx.Get(makeDocumentChecksumKey(doc.Checksum)); err == nil {
				return storage.ErrDuplicateKey
			} else if err != badger.ErrKeyNotFound {
				return err
			}
		}

		if doc.CanonicalId == 0 {
			// First version of a new chain
			doc.CanonicalId = doc.Id
			doc.VersionNum = 1
			doc.SupersedesId = 0
		} else {
			previous, err := r.latestVersion(tx, doc.CanonicalId)
			if err != nil {
				return err
			}
			if previous == nil {
				return storage.ErrNotFound
			}
			doc.VersionNum = previous.VersionNum + 1
			doc.SupersedesId = previous.Id

			// The latest flag moves to the new version
			previous.IsLatest = false
			previous.UpdatedAt = storedNow()
			if err := tx.Set(makeDocumentKey(previous.Id), storage.MarshalDocument(previous)); err != nil {
				return err
			}
		}
		doc.IsLatest = true

		doc.InsertedAt = storedNow()
		doc.UpdatedAt = doc.InsertedAt

		if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
			return err
		}

		versionKey := makeDocumentVersionKey(doc.CanonicalId, doc.VersionNum)
		if err := tx.Set(versionKey, storage.MarshalID(doc.Id)); err != nil {
			return err
		}

		if doc.Checksum != "" {
			if err := tx.Set(makeDocumentChecksumKey(doc.Checksum), storage.MarshalID(doc.Id)); err != nil {
				return err
			}
		}

		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetDocument retrieves a single document version by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeDocumentKey(id))
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

// GetDocuments retrieves multiple document versions by their IDs.
func (r *DocumentRepository) GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error) {
	var result []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			doc, err := readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if doc != nil {
				result = append(result, doc)
			}
		}
		return nil
	}, false)
	return result, err
}

// ListDocuments retrieves every stored document version, ordered by ID.
func (r *DocumentRepository) ListDocuments(ctx context.Context) ([]*core.Document, error) {
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var doc *core.Document
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			if doc != nil {
				results = append(results, doc)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Decimal keys don't sort numerically, so order here
	slices.SortFunc(results, func(a, b *core.Document) int {
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

// ListVersions retrieves all versions of a canonical document,
// ordered by version number ascending.
func (r *DocumentRepository) ListVersions(ctx context.Context, canonicalID core.ID) ([]*core.Document, error) {
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		results, err = r.readVersions(tx, canonicalID)
		return err
	}, false)
	return results, err
}

// ActiveVersion retrieves the currently active version of a canonical document.
func (r *DocumentRepository) ActiveVersion(ctx context.Context, canonicalID core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		versions, err := r.readVersions(tx, canonicalID)
		if err != nil {
			return err
		}
		for _, doc := range versions {
			if doc.Status == core.StatusActive {
				result = doc
				return nil
			}
		}
		return storage.ErrNotFound
	}, false)
	return result, err
}

// Activate transitions a document version to active, archiving any previously
// active version of the same canonical document in the same transaction.
func (r *DocumentRepository) Activate(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		doc, err := readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}
		if err := core.ValidateTransition(doc.Status, core.StatusActive); err != nil {
			return err
		}

		versions, err := r.readVersions(tx, doc.CanonicalId)
		if err != nil {
			return err
		}
		now := storedNow()
		for _, other := range versions {
			if other.Id == doc.Id || other.Status != core.StatusActive {
				continue
			}
			other.Status = core.StatusArchived
			other.UpdatedAt = now
			if err := tx.Set(makeDocumentKey(other.Id), storage.MarshalDocument(other)); err != nil {
				return err
			}
		}

		doc.Status = core.StatusActive
		doc.UpdatedAt = now
		if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
			return err
		}

		result = doc
		return tx.Commit()
	}, true)
	return result, err
}

// Archive transitions a document version to archived.
func (r *DocumentRepository) Archive(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		doc, err := readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}
		if err := core.ValidateTransition(doc.Status, core.StatusArchived); err != nil {
			return err
		}

		doc.Status = core.StatusArchived
		doc.UpdatedAt = storedNow()
		if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
			return err
		}

		result = doc
		return tx.Commit()
	}, true)
	return result, err
}

// FindByChecksum finds a document version by its source checksum.
func (r *DocumentRepository) FindByChecksum(ctx context.Context, checksum string) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDocumentChecksumKey(checksum))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		var docID core.ID
		if err := item.Value(func(val []byte) error {
			var err error
			docID, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return err
		}

		result, err = readDocument(tx, makeDocumentKey(docID))
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

// Helper methods

// nextID draws the next ID from the sequence.
// BadgerDB sequences can return 0 on first call, so 0 is skipped.
func (r *DocumentRepository) nextID() (uint64, error) {
	nextID, err := r.idSeq.Next()
	if err != nil {
		return 0, err
	}
	if nextID == 0 {
		nextID, err = r.idSeq.Next()
		if err != nil {
			return 0, err
		}
	}
	return nextID, nil
}

// readVersions scans the version chain index, ordered by version ascending.
func (r *DocumentRepository) readVersions(tx *badger.Txn, canonicalID core.ID) ([]*core.Document, error) {
	var results []*core.Document
	startKey := makePartialDocumentVersionKey(canonicalID)
	iter := tx.NewIterator(badger.DefaultIteratorOptions)
	defer iter.Close()

	for iter.Seek(startKey); iter.Valid(); iter.Next() {
		key := iter.Item().Key()
		if len(key) < len(startKey) || slices.Compare(key[:len(startKey)], startKey) != 0 {
			break
		}

		var docID core.ID
		if err := iter.Item().Value(func(val []byte) error {
			var err error
			docID, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return nil, err
		}

		doc, err := readDocument(tx, makeDocumentKey(docID))
		if err != nil {
			return nil, err
		}
		if doc != nil {
			results = append(results, doc)
		}
	}
	return results, nil
}

// latestVersion returns the newest version in a chain, or nil if the chain is empty.
func (r *DocumentRepository) latestVersion(tx *badger.Txn, canonicalID core.ID) (*core.Document, error) {
	versions, err := r.readVersions(tx, canonicalID)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, nil
	}
	return versions[len(versions)-1], nil
}

// readDocument reads a document from the transaction.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}
