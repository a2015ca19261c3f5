package search

import (
	"context"
	"sort"

	"github.com/poiesic/sondera/access"
	"github.com/poiesic/sondera/core"
	"github.com/poiesic/sondera/storage"
)

// candidateSet holds the chunks a principal may read, with their owning
// documents, before any scoring happens.
type candidateSet struct {
	chunks    []*core.Chunk
	documents map[core.ID]*core.Document
}

// gatherCandidates collects every chunk of every document version the
// principal may read. This runs before scoring so that authorization is a
// pre-filter, never applied to a ranked result set.
func gatherCandidates(
	ctx context.Context,
	resolver *access.Resolver,
	chunks storage.ChunkRepository,
	principal core.Principal,
	collectionID core.ID,
) (*candidateSet, error) {
	docs, err := resolver.ReadableDocuments(ctx, principal, collectionID)
	if err != nil {
		return nil, err
	}

	set := &candidateSet{
		documents: make(map[core.ID]*core.Document, len(docs)),
	}
	for _, doc := range docs {
		set.documents[doc.Id] = doc

		docChunks, err := chunks.GetChunksByDocument(ctx, doc.Id)
		if err != nil {
			return nil, err
		}
		set.chunks = append(set.chunks, docChunks...)
	}
	return set, nil
}

// sortResults orders results by score descending; ties go to the higher
// document version, then the lower chunk index.
func sortResults(results []*core.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		vi, vj := 0, 0
		if results[i].Document != nil {
			vi = results[i].Document.VersionNum
		}
		if results[j].Document != nil {
			vj = results[j].Document.VersionNum
		}
		if vi != vj {
			return vi > vj
		}
		return results[i].Chunk.ChunkIndex < results[j].Chunk.ChunkIndex
	})
}
