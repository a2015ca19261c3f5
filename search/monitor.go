package search

import "github.com/poiesic/sondera/core"

// RetrievalMonitor provides hooks to observe the retrieval process.
// Implement this interface to track provider selection and intermediate
// results during a request.
type RetrievalMonitor interface {
	Start(question string)
	ProviderSelected(name string)
	FallbackToLexical(err error)
	AfterProviderSearch(results []*core.SearchResult)
	Finish(retrieval *Retrieval)
}

// noopMonitor is a no-op implementation of RetrievalMonitor
type noopMonitor struct{}

var _ RetrievalMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                             {}
func (n *noopMonitor) ProviderSelected(_ string)                  {}
func (n *noopMonitor) FallbackToLexical(_ error)                  {}
func (n *noopMonitor) AfterProviderSearch(_ []*core.SearchResult) {}
func (n *noopMonitor) Finish(_ *Retrieval)                        {}
