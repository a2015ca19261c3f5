package access

import "errors"

var (
	// ErrDocumentRepositoryRequired indicates a nil document repository.
	ErrDocumentRepositoryRequired = errors.New("document repository is required")

	// ErrCollectionRepositoryRequired indicates a nil collection repository.
	ErrCollectionRepositoryRequired = errors.New("collection repository is required")

	// ErrAccessRepositoryRequired indicates a nil access repository.
	ErrAccessRepositoryRequired = errors.New("access repository is required")

	// ErrUnauthorized indicates the caller may not perform the operation.
	ErrUnauthorized = errors.New("unauthorized")
)
