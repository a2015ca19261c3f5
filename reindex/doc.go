// Package reindex rebuilds derived chunk data after a configuration change.
//
// Switching embedding models invalidates every stored vector, and changing
// the tokenizer or stemmer invalidates every term list. The Reindexer walks
// all chunks in batches, recomputes embeddings and term lists, and writes
// the chunks back, with progress tracking and retry logic with exponential
// backoff around the embedding calls.
package reindex
