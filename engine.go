// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package sondera

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/sondera/access"
	"github.com/poiesic/sondera/ai"
	"github.com/poiesic/sondera/ai/openai"
	"github.com/poiesic/sondera/audit"
	"github.com/poiesic/sondera/core"
	"github.com/poiesic/sondera/ingestion"
	"github.com/poiesic/sondera/reindex"
	"github.com/poiesic/sondera/search"
	"github.com/poiesic/sondera/storage/badger"
)

// Engine wires storage, access control, retrieval, ingestion, and auditing
// into one handle. It is the entry point for embedding the retrieval system
// in a process.
type Engine struct {
	backend   *badger.Backend
	repos     *badger.Repositories
	provider  ai.Provider
	resolver  *access.Resolver
	embedder  ai.Embedder
	retriever *search.Retriever
	pipeline  *ingestion.Pipeline
	auditLog  *audit.Logger
	logger    *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
	inMemory bool
}

// WithAIConfig sets the AI endpoint configuration used to build the default
// provider.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithProvider injects a pre-built AI provider, bypassing the default
// OpenAI-compatible one. Used by tests and embedders with custom stacks.
func WithProvider(provider ai.Provider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithInMemory opens the storage backend in memory. Nothing survives Close.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// NewEngine opens the database at filePath and wires every component.
func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	repos, err := badger.NewRepositories(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			repos.Close()
			backend.Close()
			return nil, err
		}
	}

	resolver, err := access.NewResolver(repos.Documents, repos.Collections, repos.Access)
	if err != nil {
		provider.Close()
		repos.Close()
		backend.Close()
		return nil, err
	}

	// Every embedding in the system goes through the cache, keyed by the
	// provider's model version.
	embedder, err := ingestion.NewCachedEmbedder(repos.Cache, provider.Embedder(), provider.ModelVersion())
	if err != nil {
		provider.Close()
		repos.Close()
		backend.Close()
		return nil, err
	}

	retriever, err := search.NewRetriever(resolver, repos.Chunks, embedder)
	if err != nil {
		provider.Close()
		repos.Close()
		backend.Close()
		return nil, err
	}

	pipeline, err := ingestion.NewPipeline(repos.Documents, repos.Chunks, repos.Collections, embedder)
	if err != nil {
		provider.Close()
		repos.Close()
		backend.Close()
		return nil, err
	}

	auditLog, err := audit.NewLogger(repos.QueryLog)
	if err != nil {
		provider.Close()
		repos.Close()
		backend.Close()
		return nil, err
	}

	return &Engine{
		backend:   backend,
		repos:     repos,
		provider:  provider,
		resolver:  resolver,
		embedder:  embedder,
		retriever: retriever,
		pipeline:  pipeline,
		auditLog:  auditLog,
		logger:    slog.Default(),
	}, nil
}

// Close shuts down the engine. Pending audit writes may be dropped.
func (e *Engine) Close() error {
	e.auditLog.Release()

	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}
	if err := e.repos.Close(); err != nil {
		e.logger.Error("error closing repositories", "err", err)
		return err
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Repositories exposes the underlying repositories for admin operations.
func (e *Engine) Repositories() *badger.Repositories {
	return e.repos
}

// Resolver exposes the access control resolver.
func (e *Engine) Resolver() *access.Resolver {
	return e.resolver
}

// Retriever exposes the rank fusion retriever.
func (e *Engine) Retriever() *search.Retriever {
	return e.retriever
}

// Pipeline exposes the ingestion pipeline.
func (e *Engine) Pipeline() *ingestion.Pipeline {
	return e.pipeline
}

// AuditLogger exposes the query audit logger.
func (e *Engine) AuditLogger() *audit.Logger {
	return e.auditLog
}

// NewReindexer builds a reindexer over the engine's chunk store, writing
// progress to the given writer.
func (e *Engine) NewReindexer(config *reindex.Config, progress io.Writer) (*reindex.Reindexer, error) {
	return reindex.NewReindexer(e.repos.Chunks, e.embedder, config, progress)
}

// QueryResult is one answered (or declined) retrieval request.
type QueryResult struct {
	QueryID    core.ID
	Answer     string
	Answered   bool // false when the match was too weak to ground an answer
	Results    []*core.SearchResult
	Provider   string
	Outcome    search.Outcome
	Confidence core.Confidence
	LatencyMs  int64
}

// Query retrieves chunks for the question, generates a grounded answer when
// the match is strong enough, and records the request in the audit log.
// Weak or empty matches answer with the no-answer sentinel without calling
// the generator. collectionID=0 searches all collections the principal can
// read.
func (e *Engine) Query(ctx context.Context, principal core.Principal, collectionID core.ID, question, mode string) (*QueryResult, error) {
	if mode == "" {
		mode = ai.ModeTechnical
	}

	retrieval, err := e.retriever.Retrieve(ctx, principal, collectionID, question)
	if err != nil {
		return nil, err
	}

	result := &QueryResult{
		Results:    retrieval.Results,
		Provider:   retrieval.Provider,
		Outcome:    retrieval.Outcome,
		Confidence: retrieval.Confidence,
		LatencyMs:  retrieval.Latency.Milliseconds(),
		Answer:     openai.NoAnswerSentinel,
	}

	if e.shouldAnswer(retrieval) {
		answer, err := e.provider.Generator().GenerateAnswer(ctx, question, passages(retrieval.Results), mode)
		if err != nil {
			return nil, fmt.Errorf("generating answer: %w", err)
		}
		result.Answer = answer
		result.Answered = true
	}

	record := &core.QueryRecord{
		Subject:      principal.Subject,
		CollectionId: collectionID,
		Provider:     retrieval.Provider,
		Question:     question,
		Answer:       result.Answer,
		Confidence:   retrieval.Confidence,
		LatencyMs:    result.LatencyMs,
	}
	queryChunks := make([]*core.QueryChunk, len(retrieval.Results))
	for i, hit := range retrieval.Results {
		queryChunks[i] = &core.QueryChunk{
			ChunkId: hit.Chunk.Id,
			Rank:    i + 1,
			Score:   hit.Score,
		}
	}
	result.QueryID = e.auditLog.Record(record, queryChunks...)

	return result, nil
}

// AttachFeedback rates a previous query. Only the query's own caller may
// attach feedback.
func (e *Engine) AttachFeedback(ctx context.Context, principal core.Principal, feedback *core.Feedback) (*core.Feedback, error) {
	return e.auditLog.AttachFeedback(ctx, principal, feedback)
}

// shouldAnswer applies the weak-match rule: no answer on low confidence,
// and no answer when even the best vector hit is below the weak-match
// threshold.
func (e *Engine) shouldAnswer(retrieval *search.Retrieval) bool {
	if retrieval.Outcome != search.OutcomeMatched {
		return false
	}
	if retrieval.Confidence == core.ConfidenceLow {
		return false
	}
	if retrieval.Provider == search.ProviderVector && retrieval.MaxScore() < search.WeakMatchThreshold {
		return false
	}
	return true
}

// passages formats retrieved chunks as citation blocks for the generator.
func passages(results []*core.SearchResult) []string {
	out := make([]string, len(results))
	for i, hit := range results {
		header := "unknown source"
		if hit.Document != nil {
			header = fmt.Sprintf("%s, version %d", hit.Document.Title, hit.Document.VersionNum)
		}
		if hit.Chunk.PageStart > 0 {
			header = fmt.Sprintf("%s, pages %d-%d", header, hit.Chunk.PageStart, hit.Chunk.PageEnd)
		}
		out[i] = fmt.Sprintf("[%s, chunk %d]\n%s", header, hit.Chunk.Id, hit.Chunk.Content)
	}
	return out
}
