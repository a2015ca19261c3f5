package search

import (
	"context"
	"testing"

	"github.com/poiesic/sondera/access"
	"github.com/poiesic/sondera/core"
	"github.com/poiesic/sondera/storage/badger"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	repos      *badger.Repositories
	resolver   *access.Resolver
	collection *core.Collection
}

// newFixture builds in-memory repositories, a resolver, and one default
// collection every authenticated caller can read.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	repos, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		repos.Close()
		backend.Close()
	})

	resolver, err := access.NewResolver(repos.Documents, repos.Collections, repos.Access)
	require.NoError(t, err)

	collection, err := repos.Collections.AddCollection(context.Background(), &core.Collection{
		Name:      "handbook",
		IsDefault: true,
	})
	require.NoError(t, err)

	return &fixture{repos: repos, resolver: resolver, collection: collection}
}

func reader(subject string) core.Principal {
	return core.Principal{Subject: subject, Role: core.RoleReader, Authenticated: true}
}

// addActiveDocument ingests, activates, and links a document to the
// fixture's default collection.
func (f *fixture) addActiveDocument(t *testing.T, title string) *core.Document {
	t.Helper()
	ctx := context.Background()

	doc, err := f.repos.Documents.AddDocument(ctx, &core.Document{
		Title:    title,
		Source:   title + ".md",
		Language: "en",
		Checksum: core.Fingerprint(title),
	})
	require.NoError(t, err)

	doc, err = f.repos.Documents.Activate(ctx, doc.Id)
	require.NoError(t, err)

	require.NoError(t, f.repos.Collections.LinkDocument(ctx, f.collection.Id, doc.Id))
	return doc
}

// addVersion appends a new version to an existing chain, activates it, and
// links it to the fixture's default collection.
func (f *fixture) addVersion(t *testing.T, prev *core.Document) *core.Document {
	t.Helper()
	ctx := context.Background()

	doc, err := f.repos.Documents.AddDocument(ctx, &core.Document{
		CanonicalId: prev.CanonicalId,
		Title:       prev.Title,
		Source:      prev.Source,
		Language:    prev.Language,
		Checksum:    core.Fingerprint(prev.Title + " v2"),
	})
	require.NoError(t, err)

	doc, err = f.repos.Documents.Activate(ctx, doc.Id)
	require.NoError(t, err)

	require.NoError(t, f.repos.Collections.LinkDocument(ctx, f.collection.Id, doc.Id))
	return doc
}

// newChunk builds a chunk with its term lists computed the same way the
// ingestion pipeline does.
func newChunk(index int, content string, embedding []float32) *core.Chunk {
	plain := Tokenize(content)
	return &core.Chunk{
		ChunkIndex:    index,
		Content:       content,
		ContentHash:   core.Fingerprint(content),
		ContentTokens: len(content) / 4,
		Embedding:     embedding,
		TermsPlain:    plain,
		TermsStemmed:  StemTokens(plain),
	}
}

func (f *fixture) setChunks(t *testing.T, doc *core.Document, chunks ...*core.Chunk) []*core.Chunk {
	t.Helper()
	stored, err := f.repos.Chunks.ReplaceChunks(context.Background(), doc.Id, chunks...)
	require.NoError(t, err)
	return stored
}
