package core

import (
	"errors"
	"testing"
)

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{
			name: "valid document",
			doc: &Document{
				Id:     1,
				Title:  "Heat Pump Manual",
				Status: StatusDraft,
			},
			wantErr: nil,
		},
		{
			name: "valid document with ID 0",
			doc: &Document{
				Id:     0,
				Title:  "Heat Pump Manual",
				Status: StatusActive,
			},
			wantErr: nil,
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrInvalidDocument,
		},
		{
			name: "empty title",
			doc: &Document{
				Id:     1,
				Title:  "",
				Status: StatusDraft,
			},
			wantErr: ErrEmptyTitle,
		},
		{
			name: "invalid status",
			doc: &Document{
				Id:     1,
				Title:  "Heat Pump Manual",
				Status: DocumentStatus(999),
			},
			wantErr: ErrInvalidStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDocument() error = %v, want nil", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDocument() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateChunk(t *testing.T) {
	tests := []struct {
		name    string
		chunk   *Chunk
		wantErr error
	}{
		{
			name: "valid chunk",
			chunk: &Chunk{
				Id:         1,
				DocumentId: 1,
				ChunkIndex: 0,
				Content:    "The return temperature should stay below 45 degrees.",
			},
			wantErr: nil,
		},
		{
			name: "valid chunk without embedding",
			chunk: &Chunk{
				Id:         1,
				DocumentId: 1,
				ChunkIndex: 2,
				Content:    "Some content",
				Embedding:  nil,
			},
			wantErr: nil,
		},
		{
			name:    "nil chunk",
			chunk:   nil,
			wantErr: ErrInvalidChunk,
		},
		{
			name: "empty content",
			chunk: &Chunk{
				Id:         1,
				DocumentId: 1,
				ChunkIndex: 0,
				Content:    "",
			},
			wantErr: ErrEmptyContent,
		},
		{
			name: "negative chunk index",
			chunk: &Chunk{
				Id:         1,
				DocumentId: 1,
				ChunkIndex: -1,
				Content:    "Some content",
			},
			wantErr: ErrInvalidChunk,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunk(tt.chunk)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateChunk() error = %v, want nil", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateChunk() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCollection(t *testing.T) {
	tests := []struct {
		name       string
		collection *Collection
		wantErr    error
	}{
		{
			name: "valid collection",
			collection: &Collection{
				Id:   1,
				Name: "technical-docs",
			},
			wantErr: nil,
		},
		{
			name:       "nil collection",
			collection: nil,
			wantErr:    ErrInvalidCollection,
		},
		{
			name: "empty name",
			collection: &Collection{
				Id:   1,
				Name: "",
			},
			wantErr: ErrEmptyCollectionName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCollection(tt.collection)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateCollection() error = %v, want nil", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateCollection() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateFeedback(t *testing.T) {
	tests := []struct {
		name     string
		feedback *Feedback
		wantErr  error
	}{
		{
			name: "valid feedback",
			feedback: &Feedback{
				QueryId: 1,
				Rating:  4,
			},
			wantErr: nil,
		},
		{
			name: "valid feedback with issue type",
			feedback: &Feedback{
				QueryId:   1,
				Rating:    2,
				IssueType: "missing",
				Comment:   "answer skipped the maintenance interval",
			},
			wantErr: nil,
		},
		{
			name:     "nil feedback",
			feedback: nil,
			wantErr:  ErrInvalidFeedback,
		},
		{
			name: "rating too low",
			feedback: &Feedback{
				QueryId: 1,
				Rating:  0,
			},
			wantErr: ErrInvalidRating,
		},
		{
			name: "rating too high",
			feedback: &Feedback{
				QueryId: 1,
				Rating:  6,
			},
			wantErr: ErrInvalidRating,
		},
		{
			name: "unrecognized issue type",
			feedback: &Feedback{
				QueryId:   1,
				Rating:    3,
				IssueType: "bogus",
			},
			wantErr: ErrInvalidIssueType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFeedback(tt.feedback)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateFeedback() error = %v, want nil", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateFeedback() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRole(t *testing.T) {
	tests := []struct {
		name    string
		role    Role
		wantErr bool
	}{
		{
			name:    "reader",
			role:    RoleReader,
			wantErr: false,
		},
		{
			name:    "editor",
			role:    RoleEditor,
			wantErr: false,
		},
		{
			name:    "admin",
			role:    RoleAdmin,
			wantErr: false,
		},
		{
			name:    "invalid role (0)",
			role:    Role(0),
			wantErr: true,
		},
		{
			name:    "invalid role (999)",
			role:    Role(999),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRole(tt.role)

			if tt.wantErr && err == nil {
				t.Error("ValidateRole() error = nil, want error")
			}

			if !tt.wantErr && err != nil {
				t.Errorf("ValidateRole() error = %v, want nil", err)
			}

			if err != nil && !errors.Is(err, ErrInvalidRole) {
				t.Errorf("ValidateRole() error = %v, want %v", err, ErrInvalidRole)
			}
		})
	}
}
