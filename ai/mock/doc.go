// Package mock provides test doubles for the ai interfaces.
// The embedder produces deterministic vectors so similarity assertions are
// stable across runs; the generator returns canned answers.
package mock
