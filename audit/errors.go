package audit

import "errors"

var (
	// ErrQueryLogRepositoryRequired is returned when a query log repository is not provided.
	ErrQueryLogRepositoryRequired = errors.New("query log repository required")

	// ErrFeedbackNotAllowed is returned when a caller rates a query that is
	// not their own.
	ErrFeedbackNotAllowed = errors.New("feedback only allowed from the query's caller")
)
