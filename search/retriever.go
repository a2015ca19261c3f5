package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/sondera/access"
	"github.com/poiesic/sondera/ai"
	"github.com/poiesic/sondera/core"
	"github.com/poiesic/sondera/storage"
)

const (
	// DefaultTopK is the number of results a retrieval returns after
	// provider ranking.
	DefaultTopK = 6

	// WeakMatchThreshold is the vector score below which even the best hit
	// is considered too weak to ground an answer.
	WeakMatchThreshold float32 = 0.50
)

// Provider names recorded on each retrieval.
const (
	ProviderVector  = "vector"
	ProviderLexical = "lexical"
)

// Outcome classifies how a retrieval ended.
type Outcome int

const (
	// OutcomeMatched means at least one chunk survived ranking.
	OutcomeMatched Outcome = iota + 1
	// OutcomeNoMatch means the caller was authorized but nothing matched.
	OutcomeNoMatch
	// OutcomeUnauthorized means the caller could not read the requested
	// scope. The result rows are indistinguishable from OutcomeNoMatch.
	OutcomeUnauthorized
)

// String returns the lowercase name of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeMatched:
		return "matched"
	case OutcomeNoMatch:
		return "no_match"
	case OutcomeUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Retrieval is the outcome of one retrieval request: the ranked results of
// exactly one provider, with classification metadata.
type Retrieval struct {
	Results    []*core.SearchResult
	Provider   string
	Outcome    Outcome
	Confidence core.Confidence
	Latency    time.Duration
}

// MaxScore returns the highest result score, or 0 for an empty retrieval.
func (r *Retrieval) MaxScore() float32 {
	var max float32
	for _, result := range r.Results {
		if result.Score > max {
			max = result.Score
		}
	}
	return max
}

// Retriever selects one search provider per request and returns its ranking.
// With an embedder configured it prefers vector search and falls back to
// lexical when embedding fails; without one it is lexical-only.
type Retriever struct {
	resolver      *access.Resolver
	vector        *VectorProvider
	lexical       *LexicalProvider
	embedder      ai.Embedder
	topK          int
	providerLimit int
	threshold     float32
	logger        *slog.Logger
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever) error

// WithRetrieverLogger sets a custom logger.
// Default is slog.Default().
func WithRetrieverLogger(logger *slog.Logger) RetrieverOption {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithTopK overrides the number of results returned per retrieval.
func WithTopK(topK int) RetrieverOption {
	return func(r *Retriever) error {
		if topK > 0 {
			r.topK = topK
		}
		return nil
	}
}

// WithProviderLimit overrides the per-provider result cap.
func WithProviderLimit(limit int) RetrieverOption {
	return func(r *Retriever) error {
		if limit > 0 {
			r.providerLimit = limit
		}
		return nil
	}
}

// WithSimilarityThreshold overrides the minimum cosine similarity for
// vector matches.
func WithSimilarityThreshold(threshold float32) RetrieverOption {
	return func(r *Retriever) error {
		r.threshold = threshold
		return nil
	}
}

// NewRetriever creates a new retriever. A nil embedder puts the retriever
// in lexical-only mode.
func NewRetriever(
	resolver *access.Resolver,
	chunks storage.ChunkRepository,
	embedder ai.Embedder,
	opts ...RetrieverOption,
) (*Retriever, error) {
	if resolver == nil {
		return nil, ErrResolverRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}

	r := &Retriever{
		resolver:      resolver,
		embedder:      embedder,
		topK:          DefaultTopK,
		providerLimit: DefaultProviderLimit,
		threshold:     DefaultSimilarityThreshold,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	var err error
	r.vector, err = NewVectorProvider(resolver, chunks, WithVectorLogger(r.logger))
	if err != nil {
		return nil, err
	}
	r.lexical, err = NewLexicalProvider(resolver, chunks, WithLexicalLogger(r.logger))
	if err != nil {
		return nil, err
	}

	return r, nil
}

// Retrieve runs one retrieval request.
func (r *Retriever) Retrieve(ctx context.Context, principal core.Principal, collectionID core.ID, question string) (*Retrieval, error) {
	return r.RetrieveWithMonitor(ctx, principal, collectionID, question, nil)
}

// RetrieveWithMonitor runs one retrieval request with monitoring.
// The monitor receives callbacks at each stage of the request.
func (r *Retriever) RetrieveWithMonitor(
	ctx context.Context,
	principal core.Principal,
	collectionID core.ID,
	question string,
	monitor RetrievalMonitor,
) (*Retrieval, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	start := time.Now()
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrMalformedQuery
	}

	monitor.Start(question)

	authorized, err := r.authorized(ctx, principal, collectionID)
	if err != nil {
		return nil, err
	}
	if !authorized {
		retrieval := &Retrieval{
			Outcome:    OutcomeUnauthorized,
			Confidence: core.ConfidenceLow,
			Latency:    time.Since(start),
		}
		monitor.Finish(retrieval)
		return retrieval, nil
	}

	results, provider, err := r.runProvider(ctx, principal, collectionID, question, monitor)
	if err != nil {
		return nil, err
	}
	monitor.AfterProviderSearch(results)

	if len(results) > r.topK {
		results = results[:r.topK]
	}

	retrieval := &Retrieval{
		Results:  results,
		Provider: provider,
		Latency:  time.Since(start),
	}
	if len(results) == 0 {
		retrieval.Outcome = OutcomeNoMatch
		retrieval.Confidence = core.ConfidenceLow
	} else {
		retrieval.Outcome = OutcomeMatched
		retrieval.Confidence = confidenceFor(provider, results)
	}
	monitor.Finish(retrieval)

	return retrieval, nil
}

// authorized reports whether the principal may read the requested scope.
func (r *Retriever) authorized(ctx context.Context, principal core.Principal, collectionID core.ID) (bool, error) {
	if !principal.Authenticated {
		return false, nil
	}
	if collectionID == 0 {
		return true, nil
	}
	return r.resolver.CanReadCollection(ctx, principal, collectionID)
}

// runProvider executes exactly one provider's search. Embedding failure is
// not fatal: the request falls back to the lexical provider.
func (r *Retriever) runProvider(
	ctx context.Context,
	principal core.Principal,
	collectionID core.ID,
	question string,
	monitor RetrievalMonitor,
) ([]*core.SearchResult, string, error) {
	if r.embedder != nil {
		queryVector, err := r.embedder.EmbedText(ctx, question)
		if err == nil {
			monitor.ProviderSelected(ProviderVector)
			results, err := r.vector.Search(ctx, principal, collectionID, queryVector, r.providerLimit, r.threshold)
			if err != nil {
				return nil, "", err
			}
			return results, ProviderVector, nil
		}

		unavailable := fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		r.logger.Warn("embedding failed, falling back to lexical search", "err", err)
		monitor.FallbackToLexical(unavailable)
	}

	monitor.ProviderSelected(ProviderLexical)
	results, err := r.lexical.Search(ctx, principal, collectionID, question, r.providerLimit)
	if err != nil {
		return nil, "", err
	}
	return results, ProviderLexical, nil
}

// confidenceFor buckets the mean result score on the provider's own scale.
// Vector scores are cosine similarities; lexical scores are coverage times
// term frequency and run much smaller.
func confidenceFor(provider string, results []*core.SearchResult) core.Confidence {
	var sum float32
	for _, result := range results {
		sum += result.Score
	}
	avg := sum / float32(len(results))

	if provider == ProviderVector {
		switch {
		case avg >= 0.75:
			return core.ConfidenceHigh
		case avg >= 0.50:
			return core.ConfidenceMedium
		default:
			return core.ConfidenceLow
		}
	}

	switch {
	case avg >= 0.1:
		return core.ConfidenceHigh
	case avg >= 0.01:
		return core.ConfidenceMedium
	default:
		return core.ConfidenceLow
	}
}
