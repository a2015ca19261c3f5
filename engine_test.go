package sondera

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/sondera/ai"
	"github.com/poiesic/sondera/ai/mock"
	"github.com/poiesic/sondera/ai/openai"
	"github.com/poiesic/sondera/audit"
	"github.com/poiesic/sondera/core"
	"github.com/poiesic/sondera/ingestion"
	"github.com/poiesic/sondera/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*Engine, *mock.MockProvider) {
	t.Helper()

	provider := mock.NewMockProvider().(*mock.MockProvider)
	engine, err := NewEngine("", WithInMemory(), WithProvider(provider))
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	return engine, provider
}

func alice() core.Principal {
	return core.Principal{Subject: "alice", Role: core.RoleReader, Authenticated: true}
}

// ingestActive ingests a single-page document, activates it, and links it
// to the given collections.
func ingestActive(t *testing.T, engine *Engine, title, text string, canonicalID core.ID, collections ...core.ID) *core.Document {
	t.Helper()
	ctx := context.Background()

	doc, _, err := engine.Pipeline().IngestDocument(ctx, &ingestion.IngestRequest{
		Title:       title,
		Language:    "en",
		CanonicalId: canonicalID,
		Collections: collections,
		Pages:       []ingestion.Page{{Number: 1, Text: text}},
	})
	require.NoError(t, err)

	doc, err = engine.Repositories().Documents.Activate(ctx, doc.Id)
	require.NoError(t, err)
	return doc
}

func defaultCollection(t *testing.T, engine *Engine) *core.Collection {
	t.Helper()
	collection, err := engine.Repositories().Collections.AddCollection(context.Background(),
		&core.Collection{Name: "handbook", IsDefault: true})
	require.NoError(t, err)
	return collection
}

func TestEngineQueryAnswersStrongMatch(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	collection := defaultCollection(t, engine)
	text := "Peak shaving reduces demand charges by discharging batteries during load peaks."
	ingestActive(t, engine, "Energy Handbook", text, 0, collection.Id)

	// The deterministic mock embedder gives identical text a perfect score.
	result, err := engine.Query(ctx, alice(), 0, text, ai.ModeTechnical)
	require.NoError(t, err)

	assert.Equal(t, search.OutcomeMatched, result.Outcome)
	assert.Equal(t, search.ProviderVector, result.Provider)
	assert.True(t, result.Answered)
	assert.NotEqual(t, openai.NoAnswerSentinel, result.Answer)
	assert.NotZero(t, result.QueryID)
	require.NotEmpty(t, result.Results)
	assert.InDelta(t, 1.0, float64(result.Results[0].Score), 1e-5)
}

func TestEngineQueryNoMatchDeclines(t *testing.T) {
	engine, provider := newTestEngine(t)
	ctx := context.Background()

	collection := defaultCollection(t, engine)
	ingestActive(t, engine, "Energy Handbook",
		"Peak shaving reduces demand charges.", 0, collection.Id)

	// Force the lexical path: with deterministic mock vectors every pair of
	// texts scores well above the similarity threshold.
	provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedding service down")
	}

	result, err := engine.Query(ctx, alice(), 0, "quantum entanglement", "")
	require.NoError(t, err)

	assert.Equal(t, search.OutcomeNoMatch, result.Outcome)
	assert.Equal(t, search.ProviderLexical, result.Provider)
	assert.False(t, result.Answered)
	assert.Equal(t, openai.NoAnswerSentinel, result.Answer)
	assert.Empty(t, result.Results)
	assert.Equal(t, 0, provider.GetMockGenerator().CallCount(),
		"generator must not run without a match")
}

func TestEngineWeakVectorMatchDeclines(t *testing.T) {
	engine, provider := newTestEngine(t)
	ctx := context.Background()

	collection := defaultCollection(t, engine)

	// Chunks embed to a fixed axis; the query lands at cosine 0.4, above
	// the candidacy threshold but below the weak-match bar.
	provider.GetMockEmbedder().EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range out {
			out[i] = []float32{1, 0, 0}
		}
		return out, nil
	}
	ingestActive(t, engine, "Energy Handbook", "Peak shaving reduces demand charges.", 0, collection.Id)

	provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{0.4, 0.9165151, 0}, nil
	}

	result, err := engine.Query(ctx, alice(), 0, "something tangential", "")
	require.NoError(t, err)

	assert.Equal(t, search.OutcomeMatched, result.Outcome)
	assert.False(t, result.Answered, "weak matches must not be answered")
	assert.Equal(t, openai.NoAnswerSentinel, result.Answer)
	assert.Equal(t, core.ConfidenceLow, result.Confidence)
	assert.Equal(t, 0, provider.GetMockGenerator().CallCount())
}

func TestEngineCrossCollectionIsolation(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	restricted, err := engine.Repositories().Collections.AddCollection(ctx,
		&core.Collection{Name: "board-materials"})
	require.NoError(t, err)

	text := "Dividend decision postponed until the next board meeting."
	ingestActive(t, engine, "Board Minutes", text, 0, restricted.Id)

	// No grant: the restricted collection is indistinguishable from empty.
	result, err := engine.Query(ctx, alice(), restricted.Id, text, "")
	require.NoError(t, err)
	assert.Equal(t, search.OutcomeUnauthorized, result.Outcome)
	assert.Empty(t, result.Results)
	assert.False(t, result.Answered)

	// With a grant the same query matches.
	_, err = engine.Repositories().Access.AddGrant(ctx,
		&core.Grant{Subject: "alice", CollectionId: restricted.Id})
	require.NoError(t, err)

	result, err = engine.Query(ctx, alice(), restricted.Id, text, "")
	require.NoError(t, err)
	assert.Equal(t, search.OutcomeMatched, result.Outcome)
	assert.True(t, result.Answered)
}

func TestEngineArchivedVersionExcluded(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	collection := defaultCollection(t, engine)
	v1 := ingestActive(t, engine, "Pricing Sheet",
		"Old pricing applies until June.", 0, collection.Id)

	// Activating version 2 archives version 1.
	v2 := ingestActive(t, engine, "Pricing Sheet",
		"New pricing applies from July.", v1.CanonicalId, collection.Id)

	result, err := engine.Query(ctx, alice(), 0, "pricing applies", "")
	require.NoError(t, err)

	require.NotEmpty(t, result.Results)
	for _, hit := range result.Results {
		assert.Equal(t, v2.Id, hit.Chunk.DocumentId,
			"archived version chunks must never surface")
	}
}

func TestEngineAuditTrailAndFeedback(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	collection := defaultCollection(t, engine)
	text := "Peak shaving reduces demand charges."
	ingestActive(t, engine, "Energy Handbook", text, 0, collection.Id)

	result, err := engine.Query(ctx, alice(), 0, text, "")
	require.NoError(t, err)
	require.NotZero(t, result.QueryID)

	// The audit write is fire-and-forget; wait for it to land.
	require.Eventually(t, func() bool {
		_, err := engine.Repositories().QueryLog.GetQuery(ctx, result.QueryID)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	chunks, err := engine.Repositories().QueryLog.ChunksForQuery(ctx, result.QueryID)
	require.NoError(t, err)
	assert.Len(t, chunks, len(result.Results))

	_, err = engine.AttachFeedback(ctx, alice(), &core.Feedback{
		QueryId:   result.QueryID,
		Rating:    5,
		IssueType: "",
	})
	require.NoError(t, err)

	bob := core.Principal{Subject: "bob", Role: core.RoleAdmin, Authenticated: true}
	_, err = engine.AttachFeedback(ctx, bob, &core.Feedback{QueryId: result.QueryID, Rating: 1})
	assert.ErrorIs(t, err, audit.ErrFeedbackNotAllowed)
}
