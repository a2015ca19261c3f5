package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/sondera/access"
	"github.com/poiesic/sondera/core"
	"github.com/poiesic/sondera/storage"
)

const (
	// DefaultANDBoost multiplies the rank of a chunk matching every query
	// token. Matching all tokens is a precision signal, not a candidacy
	// requirement.
	DefaultANDBoost float32 = 2.0

	// andMatchFloor lifts boosted AND ranks into a band above every
	// possible OR rank. rankTerms never exceeds 1, so a chunk matching
	// every query token always outranks a chunk matching only some of
	// them, no matter how often the partial match repeats its tokens.
	andMatchFloor float32 = 1.0

	// literalMatchScore is assigned when the whole normalized phrase occurs
	// verbatim in a chunk. Used only on the zero-token fallback path.
	literalMatchScore float32 = 0.1
)

// LexicalProvider ranks readable chunks by term matching against the stored
// term lists. Both the stemmed and the plain list are queried; chunks
// matching every query token in either list score in a band above all
// partial matches, ranked by boosted AND rank within it.
type LexicalProvider struct {
	resolver *access.Resolver
	chunks   storage.ChunkRepository
	andBoost float32
	logger   *slog.Logger
}

// LexicalOption configures a LexicalProvider.
type LexicalOption func(*LexicalProvider) error

// WithLexicalLogger sets a custom logger.
// Default is slog.Default().
func WithLexicalLogger(logger *slog.Logger) LexicalOption {
	return func(p *LexicalProvider) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithANDBoost overrides the all-tokens boost factor.
func WithANDBoost(boost float32) LexicalOption {
	return func(p *LexicalProvider) error {
		if boost > 0 {
			p.andBoost = boost
		}
		return nil
	}
}

// NewLexicalProvider creates a new lexical search provider.
func NewLexicalProvider(
	resolver *access.Resolver,
	chunks storage.ChunkRepository,
	opts ...LexicalOption,
) (*LexicalProvider, error) {
	if resolver == nil {
		return nil, ErrResolverRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}

	p := &LexicalProvider{
		resolver: resolver,
		chunks:   chunks,
		andBoost: DefaultANDBoost,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Search returns up to limit readable chunks matching the question's tokens,
// ordered by fused score descending. A chunk is a candidate when it contains
// any query token in either term list; chunks containing every token rank
// higher through the AND boost. When tokenization yields nothing, the whole
// normalized phrase is matched literally against chunk content instead.
func (p *LexicalProvider) Search(
	ctx context.Context,
	principal core.Principal,
	collectionID core.ID,
	question string,
	limit int,
) ([]*core.SearchResult, error) {
	if limit <= 0 {
		limit = DefaultProviderLimit
	}

	set, err := gatherCandidates(ctx, p.resolver, p.chunks, principal, collectionID)
	if err != nil {
		p.logger.Error("error gathering candidate chunks", "err", err)
		return nil, err
	}

	plainQuery := Tokenize(question)
	stemmedQuery := StemTokens(plainQuery)

	var results []*core.SearchResult
	if len(plainQuery) == 0 {
		results = p.literalSearch(set, question)
	} else {
		results = p.tokenSearch(set, plainQuery, stemmedQuery)
	}

	sortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (p *LexicalProvider) tokenSearch(set *candidateSet, plainQuery, stemmedQuery []string) []*core.SearchResult {
	var results []*core.SearchResult
	for _, chunk := range set.chunks {
		orPlain := rankTerms(plainQuery, chunk.TermsPlain, false)
		orStemmed := rankTerms(stemmedQuery, chunk.TermsStemmed, false)
		if orPlain == 0 && orStemmed == 0 {
			continue
		}

		andRank := rankTerms(plainQuery, chunk.TermsPlain, true)
		if s := rankTerms(stemmedQuery, chunk.TermsStemmed, true); s > andRank {
			andRank = s
		}

		score := orPlain
		if orStemmed > score {
			score = orStemmed
		}
		if andRank > 0 {
			score = andMatchFloor + p.andBoost*andRank
		}

		results = append(results, &core.SearchResult{
			Chunk:    chunk,
			Document: set.documents[chunk.DocumentId],
			Score:    score,
		})
	}
	return results
}

// literalSearch handles questions whose tokens were all filtered out, such
// as single-character or punctuation-only input.
func (p *LexicalProvider) literalSearch(set *candidateSet, question string) []*core.SearchResult {
	phrase := NormalizePhrase(question)
	if phrase == "" {
		return nil
	}

	var results []*core.SearchResult
	for _, chunk := range set.chunks {
		if !strings.Contains(NormalizePhrase(chunk.Content), phrase) {
			continue
		}
		results = append(results, &core.SearchResult{
			Chunk:    chunk,
			Document: set.documents[chunk.DocumentId],
			Score:    literalMatchScore,
		})
	}
	return results
}

// rankTerms scores one query against one term list.
// Rank is coverage (matched distinct tokens over query tokens) weighted by
// term frequency (occurrences over list length), so longer chunks need more
// occurrences for the same rank. With requireAll, a single missing token
// zeroes the rank.
func rankTerms(queryTokens, terms []string, requireAll bool) float32 {
	if len(queryTokens) == 0 || len(terms) == 0 {
		return 0
	}

	freq := make(map[string]int, len(terms))
	for _, term := range terms {
		freq[term]++
	}

	distinct := make(map[string]bool, len(queryTokens))
	for _, token := range queryTokens {
		distinct[token] = true
	}

	matched := 0
	occurrences := 0
	for token := range distinct {
		if n := freq[token]; n > 0 {
			matched++
			occurrences += n
		}
	}

	if matched == 0 {
		return 0
	}
	if requireAll && matched < len(distinct) {
		return 0
	}

	coverage := float32(matched) / float32(len(distinct))
	tfWeight := float32(occurrences) / float32(len(terms))
	return coverage * tfWeight
}
