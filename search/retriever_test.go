package search

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/sondera/ai/mock"
	"github.com/poiesic/sondera/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRetriever(t *testing.T) {
	f := newFixture(t)

	t.Run("valid configuration", func(t *testing.T) {
		retriever, err := NewRetriever(f.resolver, f.repos.Chunks, mock.NewMockEmbedder())
		require.NoError(t, err)
		assert.NotNil(t, retriever)
	})

	t.Run("nil embedder is lexical-only", func(t *testing.T) {
		retriever, err := NewRetriever(f.resolver, f.repos.Chunks, nil)
		require.NoError(t, err)
		assert.NotNil(t, retriever)
	})

	t.Run("nil resolver", func(t *testing.T) {
		_, err := NewRetriever(nil, f.repos.Chunks, nil)
		assert.Equal(t, ErrResolverRequired, err)
	})

	t.Run("nil chunk repository", func(t *testing.T) {
		_, err := NewRetriever(f.resolver, nil, nil)
		assert.Equal(t, ErrChunkRepositoryRequired, err)
	})
}

func TestRetrieveMalformedQuery(t *testing.T) {
	f := newFixture(t)
	retriever, err := NewRetriever(f.resolver, f.repos.Chunks, nil)
	require.NoError(t, err)

	_, err = retriever.Retrieve(context.Background(), reader("alice"), 0, "   ")
	assert.ErrorIs(t, err, ErrMalformedQuery)
}

func TestRetrieveUnauthenticated(t *testing.T) {
	f := newFixture(t)
	doc := f.addActiveDocument(t, "energy handbook")
	f.setChunks(t, doc, newChunk(0, "peak shaving reduces demand charges", nil))

	retriever, err := NewRetriever(f.resolver, f.repos.Chunks, nil)
	require.NoError(t, err)

	retrieval, err := retriever.Retrieve(context.Background(), core.Anonymous(), 0, "peak shaving")
	require.NoError(t, err)

	assert.Equal(t, OutcomeUnauthorized, retrieval.Outcome)
	assert.Empty(t, retrieval.Results)
	assert.Equal(t, core.ConfidenceLow, retrieval.Confidence)
}

func TestRetrieveInvisibleCollectionLooksEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	restricted, err := f.repos.Collections.AddCollection(ctx, &core.Collection{Name: "board-materials"})
	require.NoError(t, err)

	retriever, err := NewRetriever(f.resolver, f.repos.Chunks, nil)
	require.NoError(t, err)

	retrieval, err := retriever.Retrieve(ctx, reader("alice"), restricted.Id, "anything")
	require.NoError(t, err)

	// The result rows are the same as a no-match; only the outcome differs.
	assert.Equal(t, OutcomeUnauthorized, retrieval.Outcome)
	assert.Empty(t, retrieval.Results)
}

func TestRetrieveNoMatch(t *testing.T) {
	f := newFixture(t)
	doc := f.addActiveDocument(t, "energy handbook")
	f.setChunks(t, doc, newChunk(0, "peak shaving reduces demand charges", nil))

	retriever, err := NewRetriever(f.resolver, f.repos.Chunks, nil)
	require.NoError(t, err)

	retrieval, err := retriever.Retrieve(context.Background(), reader("alice"), 0, "quantum entanglement")
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoMatch, retrieval.Outcome)
	assert.Equal(t, ProviderLexical, retrieval.Provider)
	assert.Empty(t, retrieval.Results)
	assert.Equal(t, core.ConfidenceLow, retrieval.Confidence)
}

func TestRetrieveVectorProvider(t *testing.T) {
	f := newFixture(t)
	embedder := mock.NewMockEmbedder()
	ctx := context.Background()

	// Embed chunk content with the same deterministic embedder the
	// retriever uses, so the query against identical text scores 1.0.
	content := "peak shaving reduces demand charges"
	vector, err := embedder.EmbedText(ctx, content)
	require.NoError(t, err)

	doc := f.addActiveDocument(t, "energy handbook")
	f.setChunks(t, doc, newChunk(0, content, vector))

	retriever, err := NewRetriever(f.resolver, f.repos.Chunks, embedder)
	require.NoError(t, err)

	retrieval, err := retriever.Retrieve(ctx, reader("alice"), 0, content)
	require.NoError(t, err)

	assert.Equal(t, OutcomeMatched, retrieval.Outcome)
	assert.Equal(t, ProviderVector, retrieval.Provider)
	require.Len(t, retrieval.Results, 1)
	assert.InDelta(t, 1.0, retrieval.Results[0].Score, 1e-5)
	assert.Equal(t, core.ConfidenceHigh, retrieval.Confidence)
}

func TestRetrieveFallsBackToLexical(t *testing.T) {
	f := newFixture(t)
	doc := f.addActiveDocument(t, "energy handbook")
	f.setChunks(t, doc, newChunk(0, "peak shaving reduces demand charges", nil))

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedding service down")
	}

	retriever, err := NewRetriever(f.resolver, f.repos.Chunks, embedder)
	require.NoError(t, err)

	retrieval, err := retriever.Retrieve(context.Background(), reader("alice"), 0, "peak shaving")
	require.NoError(t, err)

	assert.Equal(t, ProviderLexical, retrieval.Provider)
	assert.Equal(t, OutcomeMatched, retrieval.Outcome)
	require.NotEmpty(t, retrieval.Results)
}

func TestRetrieveTopKTruncation(t *testing.T) {
	f := newFixture(t)
	doc := f.addActiveDocument(t, "energy handbook")

	chunks := make([]*core.Chunk, 10)
	for i := range chunks {
		chunks[i] = newChunk(i, "peak shaving tip number", nil)
	}
	f.setChunks(t, doc, chunks...)

	retriever, err := NewRetriever(f.resolver, f.repos.Chunks, nil, WithTopK(3))
	require.NoError(t, err)

	retrieval, err := retriever.Retrieve(context.Background(), reader("alice"), 0, "peak shaving")
	require.NoError(t, err)

	assert.Len(t, retrieval.Results, 3)
}

type recordingMonitor struct {
	started  bool
	provider string
	fellBack bool
	finished *Retrieval
}

func (m *recordingMonitor) Start(_ string)                             { m.started = true }
func (m *recordingMonitor) ProviderSelected(name string)               { m.provider = name }
func (m *recordingMonitor) FallbackToLexical(_ error)                  { m.fellBack = true }
func (m *recordingMonitor) AfterProviderSearch(_ []*core.SearchResult) {}
func (m *recordingMonitor) Finish(r *Retrieval)                        { m.finished = r }

func TestRetrieveWithMonitor(t *testing.T) {
	f := newFixture(t)
	doc := f.addActiveDocument(t, "energy handbook")
	f.setChunks(t, doc, newChunk(0, "peak shaving reduces demand charges", nil))

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedding service down")
	}

	retriever, err := NewRetriever(f.resolver, f.repos.Chunks, embedder)
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	retrieval, err := retriever.RetrieveWithMonitor(context.Background(), reader("alice"), 0, "peak shaving", monitor)
	require.NoError(t, err)

	assert.True(t, monitor.started)
	assert.True(t, monitor.fellBack)
	assert.Equal(t, ProviderLexical, monitor.provider)
	assert.Equal(t, retrieval, monitor.finished)
}
