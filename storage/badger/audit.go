package badger

import (
	"context"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/sondera/core"
	"github.com/poiesic/sondera/storage"
)

// QueryLogRepository implements storage.QueryLogRepository for BadgerDB.
type QueryLogRepository struct {
	backend     *Backend
	idSeq       *badger.Sequence
	feedbackSeq *badger.Sequence
}

var _ storage.QueryLogRepository = (*QueryLogRepository)(nil)

// NewQueryLogRepository creates a new QueryLogRepository.
func NewQueryLogRepository(backend *Backend) (*QueryLogRepository, error) {
	idSeq, err := backend.GetSequence(queryIDSeq)
	if err != nil {
		return nil, err
	}

	feedbackSeq, err := backend.GetSequence(feedbackIDSeq)
	if err != nil {
		idSeq.Release()
		return nil, err
	}

	return &QueryLogRepository{
		backend:     backend,
		idSeq:       idSeq,
		feedbackSeq: feedbackSeq,
	}, nil
}

// Close releases the ID sequences.
func (r *QueryLogRepository) Close() error {
	err := r.idSeq.Release()
	if ferr := r.feedbackSeq.Release(); err == nil {
		err = ferr
	}
	return err
}

// WithTransaction delegates to the backend.
func (r *QueryLogRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddQuery records a retrieval request and the chunks it surfaced.
// A zero record ID is replaced from the sequence; a pre-assigned ID is kept
// so async writers can hand the ID to callers before the write lands.
func (r *QueryLogRepository) AddQuery(ctx context.Context, record *core.QueryRecord, chunks ...*core.QueryChunk) (*core.QueryRecord, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if record.Id == 0 {
			nextID, err := nextSequenceID(r.idSeq)
			if err != nil {
				return err
			}
			record.Id = core.ID(nextID)
		}
		if record.InsertedAt.IsZero() {
			record.InsertedAt = storedNow()
		}

		if err := tx.Set(makeQueryKey(record.Id), storage.MarshalQueryRecord(record)); err != nil {
			return err
		}

		for _, chunk := range chunks {
			chunk.QueryId = record.Id
			key := makeQueryChunkKey(record.Id, chunk.Rank)
			if err := tx.Set(key, storage.MarshalQueryChunk(chunk)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return record, nil
}

// GetQuery retrieves a single query record by ID.
func (r *QueryLogRepository) GetQuery(ctx context.Context, id core.ID) (*core.QueryRecord, error) {
	var result *core.QueryRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeQueryKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalQueryRecord(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}

// ChunksForQuery retrieves the chunks surfaced for a query, ordered by rank.
func (r *QueryLogRepository) ChunksForQuery(ctx context.Context, queryID core.ID) ([]*core.QueryChunk, error) {
	var results []*core.QueryChunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialQueryChunkKey(queryID)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(startKey) || slices.Compare(key[:len(startKey)], startKey) != 0 {
				break
			}

			var chunk *core.QueryChunk
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalQueryChunk(val)
				return err
			}); err != nil {
				return err
			}
			if chunk != nil {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)
	return results, err
}

// AddFeedback attaches feedback to a query record.
func (r *QueryLogRepository) AddFeedback(ctx context.Context, feedback *core.Feedback) (*core.Feedback, error) {
	if err := core.ValidateFeedback(feedback); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// The query must exist before feedback can reference it
		if _, err := tx.Get(makeQueryKey(feedback.QueryId)); err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		nextID, err := nextSequenceID(r.feedbackSeq)
		if err != nil {
			return err
		}
		feedback.Id = core.ID(nextID)
		feedback.InsertedAt = storedNow()

		if err := tx.Set(makeFeedbackKey(feedback.Id), storage.MarshalFeedback(feedback)); err != nil {
			return err
		}

		indexKey := makeFeedbackQueryKey(feedback.QueryId, feedback.Id)
		if err := tx.Set(indexKey, storage.MarshalID(feedback.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return feedback, nil
}

// FeedbackForQuery retrieves all feedback attached to a query.
func (r *QueryLogRepository) FeedbackForQuery(ctx context.Context, queryID core.ID) ([]*core.Feedback, error) {
	var results []*core.Feedback
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialFeedbackQueryKey(queryID)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(startKey) || slices.Compare(key[:len(startKey)], startKey) != 0 {
				break
			}

			var feedbackID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				feedbackID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			item, err := tx.Get(makeFeedbackKey(feedbackID))
			if err != nil {
				if err == badger.ErrKeyNotFound {
					continue
				}
				return err
			}

			var feedback *core.Feedback
			if err := item.Value(func(val []byte) error {
				var unmarshalErr error
				feedback, unmarshalErr = storage.UnmarshalFeedback(val)
				return unmarshalErr
			}); err != nil {
				return err
			}
			if feedback != nil {
				results = append(results, feedback)
			}
		}
		return nil
	}, false)
	return results, err
}

// nextSequenceID draws the next ID from a sequence.
// BadgerDB sequences can return 0 on first call, so 0 is skipped.
func nextSequenceID(seq *badger.Sequence) (uint64, error) {
	nextID, err := seq.Next()
	if err != nil {
		return 0, err
	}
	if nextID == 0 {
		nextID, err = seq.Next()
		if err != nil {
			return 0, err
		}
	}
	return nextID, nil
}
