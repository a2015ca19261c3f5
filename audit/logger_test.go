package audit

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/sondera/core"
	"github.com/poiesic/sondera/storage"
	"github.com/poiesic/sondera/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoggerFixture(t *testing.T) (*badger.Repositories, *Logger) {
	t.Helper()
	repos, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)

	logger, err := NewLogger(repos.QueryLog)
	require.NoError(t, err)

	t.Cleanup(func() {
		logger.Release()
		repos.Close()
		backend.Close()
	})
	return repos, logger
}

func TestNewLogger(t *testing.T) {
	t.Run("nil repository", func(t *testing.T) {
		_, err := NewLogger(nil)
		assert.Equal(t, ErrQueryLogRepositoryRequired, err)
	})

	t.Run("with pool size", func(t *testing.T) {
		repos, backend, err := badger.NewMemoryRepositories()
		require.NoError(t, err)
		defer func() {
			repos.Close()
			backend.Close()
		}()

		logger, err := NewLogger(repos.QueryLog, WithPoolSize(2))
		require.NoError(t, err)
		logger.Release()
	})
}

func TestRecordWritesAsynchronously(t *testing.T) {
	repos, logger := newLoggerFixture(t)
	ctx := context.Background()

	id := logger.Record(&core.QueryRecord{
		Subject:    "alice",
		Provider:   "vector",
		Question:   "what is peak shaving",
		Answer:     "shifting load away from demand peaks",
		Confidence: core.ConfidenceHigh,
		LatencyMs:  42,
	}, &core.QueryChunk{ChunkId: 7, Rank: 1, Score: 0.9})

	require.NotZero(t, id)

	require.Eventually(t, func() bool {
		_, err := repos.QueryLog.GetQuery(ctx, id)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	query, err := repos.QueryLog.GetQuery(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", query.Subject)
	assert.Equal(t, "what is peak shaving", query.Question)

	chunks, err := repos.QueryLog.ChunksForQuery(ctx, id)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, id, chunks[0].QueryId)
	assert.Equal(t, core.ID(7), chunks[0].ChunkId)
}

func TestRecordAssignsDistinctIDs(t *testing.T) {
	_, logger := newLoggerFixture(t)

	first := logger.Record(&core.QueryRecord{Subject: "alice", Question: "q"})
	time.Sleep(time.Microsecond)
	second := logger.Record(&core.QueryRecord{Subject: "alice", Question: "q"})

	assert.NotEqual(t, first, second)
}

func TestAttachFeedback(t *testing.T) {
	repos, logger := newLoggerFixture(t)
	ctx := context.Background()

	query, err := repos.QueryLog.AddQuery(ctx, &core.QueryRecord{
		Subject:  "alice",
		Question: "what is peak shaving",
	})
	require.NoError(t, err)

	alice := core.Principal{Subject: "alice", Role: core.RoleReader, Authenticated: true}

	t.Run("own query", func(t *testing.T) {
		feedback, err := logger.AttachFeedback(ctx, alice, &core.Feedback{
			QueryId:   query.Id,
			Rating:    4,
			IssueType: "unclear",
			Comment:   "good but wordy",
		})
		require.NoError(t, err)
		assert.NotZero(t, feedback.Id)
		assert.Equal(t, "alice", feedback.Subject)

		stored, err := repos.QueryLog.FeedbackForQuery(ctx, query.Id)
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Equal(t, 4, stored[0].Rating)
	})

	t.Run("someone else's query", func(t *testing.T) {
		bob := core.Principal{Subject: "bob", Role: core.RoleAdmin, Authenticated: true}
		_, err := logger.AttachFeedback(ctx, bob, &core.Feedback{
			QueryId: query.Id,
			Rating:  1,
		})
		assert.ErrorIs(t, err, ErrFeedbackNotAllowed)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		_, err := logger.AttachFeedback(ctx, core.Anonymous(), &core.Feedback{
			QueryId: query.Id,
			Rating:  3,
		})
		assert.ErrorIs(t, err, ErrFeedbackNotAllowed)
	})

	t.Run("missing query", func(t *testing.T) {
		_, err := logger.AttachFeedback(ctx, alice, &core.Feedback{
			QueryId: 999999,
			Rating:  3,
		})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}
