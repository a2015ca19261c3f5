// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "fmt"

// feedbackIssueTypes are the recognized feedback categories.
var feedbackIssueTypes = map[string]bool{
	"wrong":    true,
	"missing":  true,
	"unclear":  true,
	"too_long": true,
	"other":    true,
}

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Title must not be empty
//   - Status must be a known lifecycle state
//
// NOT validated (populated by the repository):
//   - ID, CanonicalId, VersionNum (0 is valid before insertion)
//   - IsLatest and SupersedesId (maintained by the version chain)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyTitle)
	}

	if err := ValidateStatus(doc.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Content must not be empty
//   - ChunkIndex must not be negative
//
// NOT validated (populated by processors):
//   - Embedding (can be empty until embedded)
//   - Term lists (recomputed from content on write)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if chunk.ChunkIndex < 0 {
		return fmt.Errorf("%w: chunk index %d is negative", ErrInvalidChunk, chunk.ChunkIndex)
	}

	return nil
}

// ValidateCollection validates a Collection according to domain rules.
func ValidateCollection(collection *Collection) error {
	if collection == nil {
		return fmt.Errorf("%w: collection is nil", ErrInvalidCollection)
	}

	if collection.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCollection, ErrEmptyCollectionName)
	}

	return nil
}

// ValidateFeedback validates a Feedback according to domain rules.
//
// Validation rules:
//   - Rating must be between 1 and 5
//   - IssueType, when set, must be one of the recognized categories
func ValidateFeedback(feedback *Feedback) error {
	if feedback == nil {
		return fmt.Errorf("%w: feedback is nil", ErrInvalidFeedback)
	}

	if feedback.Rating < 1 || feedback.Rating > 5 {
		return fmt.Errorf("%w: %w", ErrInvalidFeedback, ErrInvalidRating)
	}

	if feedback.IssueType != "" && !feedbackIssueTypes[feedback.IssueType] {
		return fmt.Errorf("%w: %w: %q", ErrInvalidFeedback, ErrInvalidIssueType, feedback.IssueType)
	}

	return nil
}

// ValidateStatus validates that a DocumentStatus has a valid value.
func ValidateStatus(status DocumentStatus) error {
	if status != StatusDraft && status != StatusActive && status != StatusArchived {
		return fmt.Errorf("%w: value %d", ErrInvalidStatus, status)
	}
	return nil
}

// ValidateRole validates that a Role has a valid value.
func ValidateRole(role Role) error {
	if role != RoleReader && role != RoleEditor && role != RoleAdmin {
		return fmt.Errorf("%w: value %d", ErrInvalidRole, role)
	}
	return nil
}
