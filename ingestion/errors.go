package ingestion

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrCollectionRepositoryRequired is returned when a collection repository is not provided.
	ErrCollectionRepositoryRequired = errors.New("collection repository required")

	// ErrCacheRepositoryRequired is returned when an embedding cache repository is not provided.
	ErrCacheRepositoryRequired = errors.New("embedding cache repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrDuplicateDocument is returned when a document with the same content
	// checksum has already been ingested.
	ErrDuplicateDocument = errors.New("document already ingested")

	// ErrNoContent is returned when the submitted pages contain no text.
	ErrNoContent = errors.New("document has no content")
)
