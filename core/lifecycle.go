package core

import "fmt"

// The document lifecycle is a one-way chain:
//
//	draft → active → archived
//
// Ingestion creates versions as draft. Activation makes exactly one version
// of a canonical document retrievable; the previously active version, if any,
// is archived in the same transaction. Archived is terminal.

// CanTransition reports whether a lifecycle transition is allowed.
func CanTransition(from, to DocumentStatus) bool {
	switch from {
	case StatusDraft:
		return to == StatusActive || to == StatusArchived
	case StatusActive:
		return to == StatusArchived
	default:
		return false
	}
}

// ValidateTransition returns ErrInvalidTransition if the transition is not allowed.
func ValidateTransition(from, to DocumentStatus) error {
	if err := ValidateStatus(from); err != nil {
		return err
	}
	if err := ValidateStatus(to); err != nil {
		return err
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// Retrievable reports whether a document version is eligible for retrieval.
// Draft and archived versions are reachable only through admin paths.
func (d *Document) Retrievable() bool {
	return d != nil && d.Status == StatusActive
}
