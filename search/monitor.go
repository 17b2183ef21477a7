package search

import "github.com/hearthlight/quiver/core"

// Monitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type Monitor interface {
	Start(query string)
	AfterSemanticSearch(results []core.SearchResult)
	AfterTextSearch(results []core.SearchResult)
	SubSearchFailed(kind Type, err error)
	Finish(results []core.SearchResult)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                           {}
func (n *noopMonitor) AfterSemanticSearch(_ []core.SearchResult) {}
func (n *noopMonitor) AfterTextSearch(_ []core.SearchResult)     {}
func (n *noopMonitor) SubSearchFailed(_ Type, _ error)           {}
func (n *noopMonitor) Finish(_ []core.SearchResult)              {}
