package retrieve

import "github.com/hearthlight/quiver/core"

// Monitor provides hooks to observe the corrective retrieval pipeline.
// Implement this interface to track intermediate steps and results.
type Monitor interface {
	Start(query string)
	AfterDecomposeDecision(decompose bool)
	AfterDecompose(subQueries []string)
	AfterSubQuerySearch(subQuery string, results []core.SearchResult)
	AfterGrading(kept []core.SearchResult, dropped int)
	AfterSynthesis(answer string)
	Finish(result *Result)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                      {}
func (n *noopMonitor) AfterDecomposeDecision(_ bool)                       {}
func (n *noopMonitor) AfterDecompose(_ []string)                           {}
func (n *noopMonitor) AfterSubQuerySearch(_ string, _ []core.SearchResult) {}
func (n *noopMonitor) AfterGrading(_ []core.SearchResult, _ int)           {}
func (n *noopMonitor) AfterSynthesis(_ string)                             {}
func (n *noopMonitor) Finish(_ *Result)                                    {}
