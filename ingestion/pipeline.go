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


package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/sondera/ai"
	"github.com/poiesic/sondera/core"
	"github.com/poiesic/sondera/search"
	"github.com/poiesic/sondera/storage"
)

// Pipeline orchestrates document ingestion: duplicate detection, chunking,
// term computation, embedding, and collection linking.
type Pipeline struct {
	documents   storage.DocumentRepository
	chunks      storage.ChunkRepository
	collections storage.CollectionRepository
	embedder    ai.Embedder // nil means lexical-only ingestion
	chunker     *Chunker
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithChunker sets a custom chunker.
func WithChunker(chunker *Chunker) Option {
	return func(p *Pipeline) error {
		if chunker != nil {
			p.chunker = chunker
		}
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline. A nil embedder produces
// chunks with term lists only; embeddings can be added later by a reindex.
func NewPipeline(
	documents storage.DocumentRepository,
	chunks storage.ChunkRepository,
	collections storage.CollectionRepository,
	embedder ai.Embedder,
	opts ...Option,
) (*Pipeline, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if collections == nil {
		return nil, ErrCollectionRepositoryRequired
	}

	chunker, err := NewChunker()
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		documents:   documents,
		chunks:      chunks,
		collections: collections,
		embedder:    embedder,
		chunker:     chunker,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// IngestRequest describes one document to ingest.
type IngestRequest struct {
	Title       string
	Source      string
	Category    string
	Language    string
	CanonicalId core.ID   // 0 starts a new version chain
	Collections []core.ID // collections to link the new version into
	Pages       []Page
}

// IngestDocument ingests one document as a new draft version.
// Identical content (by checksum) that was already ingested is rejected
// with ErrDuplicateDocument. The returned chunks carry term lists and,
// when an embedder is configured, embeddings.
func (p *Pipeline) IngestDocument(ctx context.Context, req *IngestRequest) (*core.Document, []*core.Chunk, error) {
	checksum, err := p.checkDuplicate(ctx, req.Pages)
	if err != nil {
		return nil, nil, err
	}

	chunks := p.chunker.ChunkPages(req.Pages)
	if len(chunks) == 0 {
		return nil, nil, ErrNoContent
	}

	for _, chunk := range chunks {
		plain := search.Tokenize(chunk.Content)
		chunk.TermsPlain = plain
		chunk.TermsStemmed = search.StemTokens(plain)
	}

	if p.embedder != nil {
		if err := p.embedChunks(ctx, chunks); err != nil {
			return nil, nil, err
		}
	}

	doc, err := p.documents.AddDocument(ctx, &core.Document{
		CanonicalId: req.CanonicalId,
		Status:      core.StatusDraft,
		Title:       req.Title,
		Source:      req.Source,
		Category:    req.Category,
		Language:    req.Language,
		Checksum:    checksum,
	})
	if err != nil {
		return nil, nil, err
	}

	stored, err := p.chunks.ReplaceChunks(ctx, doc.Id, chunks...)
	if err != nil {
		return nil, nil, err
	}

	for _, collectionID := range req.Collections {
		if err := p.collections.LinkDocument(ctx, collectionID, doc.Id); err != nil {
			return nil, nil, fmt.Errorf("linking document to collection %d: %w", collectionID, err)
		}
	}

	p.logger.Info("document ingested",
		"documentID", doc.Id, "version", doc.VersionNum, "chunks", len(stored))

	return doc, stored, nil
}

// checkDuplicate fingerprints the full text and rejects content that was
// already ingested under any version.
func (p *Pipeline) checkDuplicate(ctx context.Context, pages []Page) (string, error) {
	var b strings.Builder
	for _, page := range pages {
		b.WriteString(page.Text)
		b.WriteString("\n")
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", ErrNoContent
	}

	checksum := core.Fingerprint(b.String())
	existing, err := p.documents.FindByChecksum(ctx, checksum)
	if err != nil && err != storage.ErrNotFound {
		return "", err
	}
	if existing != nil {
		return "", fmt.Errorf("%w: matches document %d version %d",
			ErrDuplicateDocument, existing.Id, existing.VersionNum)
	}
	return checksum, nil
}

// embedChunks fills in chunk embeddings with one batched call.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []*core.Chunk) error {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	embeddings, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return err
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedding result mismatch. expected %d, received %d",
			len(chunks), len(embeddings))
	}

	for i, chunk := range chunks {
		chunk.Embedding = embeddings[i]
	}
	return nil
}
