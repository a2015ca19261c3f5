package storage

import (
	"context"

	"github.com/poiesic/sondera/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing document versions.
type DocumentRepository interface {
	Repository
	// AddDocument adds a new document version to storage.
	// Generates an ID from sequence and maintains the version chain:
	// a document with CanonicalId=0 starts a new chain (CanonicalId=Id,
	// VersionNum=1); otherwise the version is appended to the chain with
	// VersionNum=latest+1 and SupersedesId pointing at the previous latest.
	// IsLatest moves to the new version in the same transaction.
	// A zero Status defaults to StatusDraft.
	// Returns the document with generated fields populated.
	AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// GetDocument retrieves a single document version by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocuments retrieves multiple document versions by their IDs.
	// Returns only the documents that exist (no error for missing documents).
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error)

	// ListDocuments retrieves every stored document version.
	ListDocuments(ctx context.Context) ([]*core.Document, error)

	// ListVersions retrieves all versions of a canonical document,
	// ordered by version number ascending.
	ListVersions(ctx context.Context, canonicalID core.ID) ([]*core.Document, error)

	// ActiveVersion retrieves the currently active version of a canonical
	// document. Returns ErrNotFound if no version is active.
	ActiveVersion(ctx context.Context, canonicalID core.ID) (*core.Document, error)

	// Activate transitions a document version to active. Any previously
	// active version of the same canonical document is archived in the
	// same transaction, so at most one version per chain is ever active.
	// Returns ErrNotFound if the document doesn't exist and
	// core.ErrInvalidTransition if the version cannot be activated.
	Activate(ctx context.Context, id core.ID) (*core.Document, error)

	// Archive transitions a document version to archived.
	// Returns ErrNotFound if the document doesn't exist and
	// core.ErrInvalidTransition if the version cannot be archived.
	Archive(ctx context.Context, id core.ID) (*core.Document, error)

	// FindByChecksum finds a document version by its source checksum.
	// Returns ErrNotFound if no matching version exists.
	FindByChecksum(ctx context.Context, checksum string) (*core.Document, error)
}

// ChunkRepository provides operations for managing document chunks.
type ChunkRepository interface {
	Repository
	// ReplaceChunks atomically replaces all chunks of a document.
	// Existing chunks and their indices are removed, the given chunks are
	// inserted with sequence-generated IDs, and either every chunk is
	// visible or none is. Returns the chunks with generated IDs and
	// timestamps populated.
	ReplaceChunks(ctx context.Context, documentID core.ID, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// UpdateChunks updates existing chunks in place.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any chunk doesn't exist.
	UpdateChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// GetChunks retrieves multiple chunks by their IDs.
	// Returns only the chunks that exist (no error for missing chunks).
	GetChunks(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error)

	// GetChunksByDocument retrieves all chunks of a document,
	// ordered by chunk index ascending.
	GetChunksByDocument(ctx context.Context, documentID core.ID) ([]*core.Chunk, error)

	// ListChunks retrieves up to limit chunks with ID greater than afterID,
	// ordered by ID ascending. Pass afterID=0 to start from the beginning.
	// Used for batch iteration over the whole chunk set.
	ListChunks(ctx context.Context, afterID core.ID, limit int) ([]*core.Chunk, error)
}

// CollectionRepository provides operations for managing collections and
// their document membership.
type CollectionRepository interface {
	Repository
	// AddCollection adds a collection to storage.
	// Generates an ID from sequence and sets the InsertedAt timestamp.
	// Returns ErrDuplicateKey if a collection with the same name exists.
	AddCollection(ctx context.Context, collection *core.Collection) (*core.Collection, error)

	// GetCollection retrieves a single collection by ID.
	// Returns ErrNotFound if the collection doesn't exist.
	GetCollection(ctx context.Context, id core.ID) (*core.Collection, error)

	// FindCollectionByName finds a collection by its unique name.
	// Returns ErrNotFound if no matching collection exists.
	FindCollectionByName(ctx context.Context, name string) (*core.Collection, error)

	// ListCollections retrieves all collections.
	ListCollections(ctx context.Context) ([]*core.Collection, error)

	// ListDefaultCollections retrieves all collections marked as default.
	ListDefaultCollections(ctx context.Context) ([]*core.Collection, error)

	// LinkDocument adds a document to a collection. Idempotent.
	LinkDocument(ctx context.Context, collectionID, documentID core.ID) error

	// UnlinkDocument removes a document from a collection. Idempotent.
	UnlinkDocument(ctx context.Context, collectionID, documentID core.ID) error

	// DocumentsInCollection retrieves the IDs of all documents in a collection.
	DocumentsInCollection(ctx context.Context, collectionID core.ID) ([]core.ID, error)

	// CollectionsForDocument retrieves the IDs of all collections containing
	// a document.
	CollectionsForDocument(ctx context.Context, documentID core.ID) ([]core.ID, error)
}

// AccessRepository provides operations for managing per-subject collection grants.
type AccessRepository interface {
	Repository
	// AddGrant records that a subject may read a collection. Idempotent;
	// re-granting keeps the original timestamp.
	AddGrant(ctx context.Context, grant *core.Grant) (*core.Grant, error)

	// RevokeGrant removes a subject's grant on a collection.
	// Returns ErrNotFound if no such grant exists.
	RevokeGrant(ctx context.Context, subject string, collectionID core.ID) error

	// GrantsForSubject retrieves all grants held by a subject.
	GrantsForSubject(ctx context.Context, subject string) ([]*core.Grant, error)
}

// EmbeddingCacheRepository provides operations for the append-only
// embedding cache, keyed by (content hash, model version).
type EmbeddingCacheRepository interface {
	Repository
	// GetEntry retrieves a cache entry by content hash and model version.
	// Returns ErrNotFound if the entry doesn't exist.
	GetEntry(ctx context.Context, contentHash, modelVersion string) (*core.EmbeddingCacheEntry, error)

	// PutEntryIfAbsent stores a cache entry unless one already exists for
	// the same (content hash, model version) key. Returns the stored entry,
	// which is the existing one when the key was already present.
	// Thread-safe: handles concurrent insertion attempts.
	PutEntryIfAbsent(ctx context.Context, entry *core.EmbeddingCacheEntry) (*core.EmbeddingCacheEntry, error)
}

// QueryLogRepository provides operations for the query audit log.
type QueryLogRepository interface {
	Repository
	// AddQuery records a retrieval request and the chunks it surfaced.
	// A zero ID is generated from sequence; a pre-assigned ID is kept.
	// Sets the InsertedAt timestamp when unset.
	// Returns the record with generated fields populated.
	AddQuery(ctx context.Context, record *core.QueryRecord, chunks ...*core.QueryChunk) (*core.QueryRecord, error)

	// GetQuery retrieves a single query record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetQuery(ctx context.Context, id core.ID) (*core.QueryRecord, error)

	// ChunksForQuery retrieves the chunks surfaced for a query,
	// ordered by rank ascending.
	ChunksForQuery(ctx context.Context, queryID core.ID) ([]*core.QueryChunk, error)

	// AddFeedback attaches feedback to a query record.
	// Generates an ID from sequence and sets the InsertedAt timestamp.
	// Returns ErrNotFound if the query doesn't exist.
	AddFeedback(ctx context.Context, feedback *core.Feedback) (*core.Feedback, error)

	// FeedbackForQuery retrieves all feedback attached to a query.
	FeedbackForQuery(ctx context.Context, queryID core.ID) ([]*core.Feedback, error)
}
