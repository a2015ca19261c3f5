package search

import (
	"context"
	"log/slog"
	"math"

	"github.com/poiesic/sondera/access"
	"github.com/poiesic/sondera/core"
	"github.com/poiesic/sondera/storage"
)

const (
	// DefaultSimilarityThreshold is the minimum cosine similarity for a
	// chunk to count as a vector match.
	DefaultSimilarityThreshold float32 = 0.30

	// DefaultProviderLimit caps the number of results a single provider
	// returns before fusion truncates further.
	DefaultProviderLimit = 30
)

// VectorProvider ranks readable chunks by cosine similarity against a
// query embedding. Chunks without an embedding are never candidates.
type VectorProvider struct {
	resolver *access.Resolver
	chunks   storage.ChunkRepository
	logger   *slog.Logger
}

// VectorOption configures a VectorProvider.
type VectorOption func(*VectorProvider) error

// WithVectorLogger sets a custom logger.
// Default is slog.Default().
func WithVectorLogger(logger *slog.Logger) VectorOption {
	return func(p *VectorProvider) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewVectorProvider creates a new vector search provider.
func NewVectorProvider(
	resolver *access.Resolver,
	chunks storage.ChunkRepository,
	opts ...VectorOption,
) (*VectorProvider, error) {
	if resolver == nil {
		return nil, ErrResolverRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}

	p := &VectorProvider{
		resolver: resolver,
		chunks:   chunks,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Search returns up to limit readable chunks with cosine similarity to the
// query vector of at least threshold, ordered by score descending. Ties go
// to the higher document version, then the lower chunk index.
func (p *VectorProvider) Search(
	ctx context.Context,
	principal core.Principal,
	collectionID core.ID,
	queryVector []float32,
	limit int,
	threshold float32,
) ([]*core.SearchResult, error) {
	if limit <= 0 {
		limit = DefaultProviderLimit
	}

	set, err := gatherCandidates(ctx, p.resolver, p.chunks, principal, collectionID)
	if err != nil {
		p.logger.Error("error gathering candidate chunks", "err", err)
		return nil, err
	}

	results := make([]*core.SearchResult, 0, len(set.chunks))
	for _, chunk := range set.chunks {
		if len(chunk.Embedding) == 0 {
			continue
		}
		score := CosineSimilarity(queryVector, chunk.Embedding)
		if score < threshold {
			continue
		}
		results = append(results, &core.SearchResult{
			Chunk:    chunk,
			Document: set.documents[chunk.DocumentId],
			Score:    score,
		})
	}

	sortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// Inputs need not be normalized. Mismatched dimensions or a zero-norm
// vector yield 0.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
