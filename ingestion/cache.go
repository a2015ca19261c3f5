package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/sondera/ai"
	"github.com/poiesic/sondera/core"
	"github.com/poiesic/sondera/storage"
)

// CachedEmbedder wraps an embedder with a persistent cache keyed by content
// fingerprint and model version. Identical content is embedded at most once
// per model; the stored vector is returned bit-identical on every hit.
type CachedEmbedder struct {
	cache        storage.EmbeddingCacheRepository
	embedder     ai.Embedder
	modelVersion string
	logger       *slog.Logger
}

var _ ai.Embedder = (*CachedEmbedder)(nil)

// CacheOption configures a CachedEmbedder.
type CacheOption func(*CachedEmbedder) error

// WithCacheLogger sets a custom logger.
// Default is slog.Default().
func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *CachedEmbedder) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewCachedEmbedder creates a caching wrapper around an embedder.
//
// Returns ai.Embedder interface rather than concrete type, allowing the
// pipeline to treat cached and uncached embedders uniformly.
func NewCachedEmbedder(
	cache storage.EmbeddingCacheRepository,
	embedder ai.Embedder,
	modelVersion string,
	opts ...CacheOption,
) (ai.Embedder, error) {
	if cache == nil {
		return nil, ErrCacheRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	c := &CachedEmbedder{
		cache:        cache,
		embedder:     embedder,
		modelVersion: modelVersion,
		logger:       slog.Default().With("component", "embedding-cache"),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// EmbedText returns the cached vector for the content when present,
// otherwise computes and stores it. A failed cache write is logged and the
// computed vector is still returned.
func (c *CachedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	hash := core.Fingerprint(text)

	if vector, ok := c.lookup(ctx, hash); ok {
		return vector, nil
	}

	vector, err := c.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}

	return c.store(ctx, hash, text, vector), nil
}

// EmbedTexts embeds multiple texts, serving hits from the cache and
// computing only the misses in one batched call.
func (c *CachedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	hashes := make([]string, len(texts))

	var missTexts []string
	var missIndexes []int
	for i, text := range texts {
		hashes[i] = core.Fingerprint(text)
		if vector, ok := c.lookup(ctx, hashes[i]); ok {
			vectors[i] = vector
			continue
		}
		missTexts = append(missTexts, text)
		missIndexes = append(missIndexes, i)
	}

	if len(missTexts) == 0 {
		return vectors, nil
	}

	computed, err := c.embedder.EmbedTexts(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(computed) != len(missTexts) {
		return nil, fmt.Errorf("embedding result mismatch. expected %d, received %d",
			len(missTexts), len(computed))
	}

	for j, i := range missIndexes {
		vectors[i] = c.store(ctx, hashes[i], texts[i], computed[j])
	}
	return vectors, nil
}

// lookup reads the cache; read failures degrade to a miss.
func (c *CachedEmbedder) lookup(ctx context.Context, hash string) ([]float32, bool) {
	entry, err := c.cache.GetEntry(ctx, hash, c.modelVersion)
	if err == storage.ErrNotFound {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("cache lookup failed", "err", err)
		return nil, false
	}
	return entry.Vector, true
}

// store persists a computed vector. When a concurrent writer got there
// first, the winning row's vector is returned so hits stay bit-identical.
func (c *CachedEmbedder) store(ctx context.Context, hash, text string, vector []float32) []float32 {
	stored, err := c.cache.PutEntryIfAbsent(ctx, &core.EmbeddingCacheEntry{
		ContentHash:  hash,
		ModelVersion: c.modelVersion,
		Vector:       vector,
		Tokens:       EstimateTokens(text),
		InsertedAt:   time.Now().UTC().Truncate(time.Microsecond),
	})
	if err != nil {
		c.logger.Error("cache write failed, returning uncached vector", "err", err)
		return vector
	}
	return stored.Vector
}
