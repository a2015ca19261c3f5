package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/sondera/core"
	"github.com/poiesic/sondera/storage"
)

func TestAddQueryWithChunks(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { repos.Close(); backend.Close() }()

	ctx := context.Background()

	record := &core.QueryRecord{
		Subject:    "anna@example.com",
		Provider:   "vector",
		Question:   "what is peak shaving?",
		Answer:     "Peak shaving caps load during demand spikes.",
		Confidence: core.ConfidenceHigh,
		LatencyMs:  42,
	}
	chunks := []*core.QueryChunk{
		{ChunkId: 11, Rank: 1, Score: 0.91},
		{ChunkId: 12, Rank: 2, Score: 0.74},
	}

	added, err := repos.QueryLog.AddQuery(ctx, record, chunks...)
	if err != nil {
		t.Fatalf("Failed to add query: %v", err)
	}
	if added.Id == 0 {
		t.Fatal("Expected non-zero query ID")
	}

	retrieved, err := repos.QueryLog.GetQuery(ctx, added.Id)
	if err != nil {
		t.Fatalf("Failed to get query: %v", err)
	}
	if retrieved.Question != "what is peak shaving?" {
		t.Fatalf("Unexpected question: %s", retrieved.Question)
	}

	queryChunks, err := repos.QueryLog.ChunksForQuery(ctx, added.Id)
	if err != nil {
		t.Fatalf("Failed to get query chunks: %v", err)
	}
	if len(queryChunks) != 2 {
		t.Fatalf("Expected 2 query chunks, got %d", len(queryChunks))
	}
	if queryChunks[0].Rank != 1 || queryChunks[1].Rank != 2 {
		t.Fatalf("Chunks out of rank order: %d, %d", queryChunks[0].Rank, queryChunks[1].Rank)
	}
	if queryChunks[0].QueryId != added.Id {
		t.Fatalf("Expected query ID %d, got %d", added.Id, queryChunks[0].QueryId)
	}
}

func TestFeedbackRequiresQuery(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { repos.Close(); backend.Close() }()

	ctx := context.Background()

	_, err = repos.QueryLog.AddFeedback(ctx, &core.Feedback{
		QueryId: 12345,
		Subject: "anna@example.com",
		Rating:  3,
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for missing query, got %v", err)
	}

	query, err := repos.QueryLog.AddQuery(ctx, &core.QueryRecord{
		Subject:  "anna@example.com",
		Question: "how do I bleed a radiator?",
	})
	if err != nil {
		t.Fatalf("Failed to add query: %v", err)
	}

	feedback, err := repos.QueryLog.AddFeedback(ctx, &core.Feedback{
		QueryId:   query.Id,
		Subject:   "anna@example.com",
		Rating:    2,
		IssueType: "unclear",
		Comment:   "answer mixed up supply and return",
	})
	if err != nil {
		t.Fatalf("Failed to add feedback: %v", err)
	}
	if feedback.Id == 0 {
		t.Fatal("Expected non-zero feedback ID")
	}

	list, err := repos.QueryLog.FeedbackForQuery(ctx, query.Id)
	if err != nil {
		t.Fatalf("Failed to list feedback: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("Expected 1 feedback, got %d", len(list))
	}
	if list[0].IssueType != "unclear" {
		t.Fatalf("Unexpected issue type: %s", list[0].IssueType)
	}
}
