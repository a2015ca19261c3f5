package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// AnswerGenerator produces a grounded answer to a question from retrieved
// source passages. Implementations must be thread-safe for concurrent use.
type AnswerGenerator interface {
	// GenerateAnswer answers the question using only the supplied passages.
	// The mode selects the answer register (see Modes); an unknown mode falls
	// back to ModeTechnical. When the passages do not contain the answer, the
	// generator must say so rather than invent one.
	GenerateAnswer(ctx context.Context, question string, passages []string, mode string) (string, error)
}

// Answer generation modes. The mode shapes tone and depth, never content:
// every mode is restricted to the supplied passages.
const (
	// ModeTechnical answers with full detail for engineers and operators.
	ModeTechnical = "technical"
	// ModeSales answers benefit-first for customer-facing staff.
	ModeSales = "sales"
	// ModeInvestor answers with business framing and key figures.
	ModeInvestor = "investor"
)

// Modes lists the valid answer generation modes.
var Modes = []string{ModeTechnical, ModeSales, ModeInvestor}

// Provider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and AnswerGenerator instances,
// ensuring they share configuration and resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Generator returns the answer generation service.
	// The returned AnswerGenerator is safe for concurrent use.
	Generator() AnswerGenerator

	// ModelVersion returns the embedding model identifier. Cached vectors are
	// keyed by this value, so it must change whenever the model changes.
	ModelVersion() string

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
