package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/sondera/ai/mock"
	"github.com/poiesic/sondera/core"
	"github.com/poiesic/sondera/storage"
	"github.com/poiesic/sondera/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCacheFixture(t *testing.T) (*badger.Repositories, *mock.MockEmbedder) {
	t.Helper()
	repos, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		repos.Close()
		backend.Close()
	})
	return repos, mock.NewMockEmbedder()
}

func TestCachedEmbedderComputesOnce(t *testing.T) {
	repos, embedder := newCacheFixture(t)
	cached, err := NewCachedEmbedder(repos.Cache, embedder, "model-v1")
	require.NoError(t, err)

	ctx := context.Background()
	first, err := cached.EmbedText(ctx, "peak shaving reduces demand charges")
	require.NoError(t, err)
	require.NotEmpty(t, first)
	assert.Equal(t, 1, embedder.CallCount())

	// Identical content: served from the cache, bit-identical vector.
	second, err := cached.EmbedText(ctx, "peak shaving reduces demand charges")
	require.NoError(t, err)
	assert.Equal(t, 1, embedder.CallCount())
	assert.Equal(t, first, second)
}

func TestCachedEmbedderNormalizesWhitespace(t *testing.T) {
	repos, embedder := newCacheFixture(t)
	cached, err := NewCachedEmbedder(repos.Cache, embedder, "model-v1")
	require.NoError(t, err)

	ctx := context.Background()
	first, err := cached.EmbedText(ctx, "peak  shaving\treduces demand charges")
	require.NoError(t, err)

	// Same content modulo whitespace hits the same fingerprint.
	second, err := cached.EmbedText(ctx, "peak shaving reduces  demand charges")
	require.NoError(t, err)
	assert.Equal(t, 1, embedder.CallCount())
	assert.Equal(t, first, second)
}

func TestCachedEmbedderModelVersionIsolation(t *testing.T) {
	repos, embedder := newCacheFixture(t)
	ctx := context.Background()

	cachedV1, err := NewCachedEmbedder(repos.Cache, embedder, "model-v1")
	require.NoError(t, err)
	cachedV2, err := NewCachedEmbedder(repos.Cache, embedder, "model-v2")
	require.NoError(t, err)

	_, err = cachedV1.EmbedText(ctx, "some content")
	require.NoError(t, err)
	_, err = cachedV2.EmbedText(ctx, "some content")
	require.NoError(t, err)

	// Different model versions never share entries.
	assert.Equal(t, 2, embedder.CallCount())
}

func TestCachedEmbedderBatchMixesHitsAndMisses(t *testing.T) {
	repos, embedder := newCacheFixture(t)
	cached, err := NewCachedEmbedder(repos.Cache, embedder, "model-v1")
	require.NoError(t, err)

	ctx := context.Background()
	warm, err := cached.EmbedText(ctx, "already cached")
	require.NoError(t, err)
	require.Equal(t, 1, embedder.CallCount())

	vectors, err := cached.EmbedTexts(ctx, []string{"already cached", "fresh content"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)

	// One additional call for the single miss.
	assert.Equal(t, 2, embedder.CallCount())
	assert.Equal(t, warm, vectors[0])
	assert.NotEmpty(t, vectors[1])
}

// failingCache returns an error on every write to exercise the
// logged-not-raised contract.
type failingCache struct {
	storage.EmbeddingCacheRepository
}

func (f *failingCache) GetEntry(ctx context.Context, contentHash, modelVersion string) (*core.EmbeddingCacheEntry, error) {
	return nil, storage.ErrNotFound
}

func (f *failingCache) PutEntryIfAbsent(ctx context.Context, entry *core.EmbeddingCacheEntry) (*core.EmbeddingCacheEntry, error) {
	return nil, errors.New("disk full")
}

func TestCachedEmbedderWriteFailureStillReturnsVector(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	cached, err := NewCachedEmbedder(&failingCache{}, embedder, "model-v1")
	require.NoError(t, err)

	vector, err := cached.EmbedText(context.Background(), "some content")
	require.NoError(t, err)
	assert.NotEmpty(t, vector)
	assert.Equal(t, 1, embedder.CallCount())
}
