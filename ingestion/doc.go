// Package ingestion turns source documents into retrievable chunks.
//
// The Pipeline type manages the ingestion workflow for documents, including:
//   - Duplicate detection by content checksum
//   - Sentence-based chunking with page-range preservation
//   - Computing lexical term lists for every chunk
//   - Embedding chunk content through a cache that avoids recomputation
//
// Ingested documents start as drafts; activation is a separate lifecycle
// step. Embedding cache write failures are logged but never fail ingestion.
package ingestion
