package report

import (
	"sync"
	"sync/atomic"
)

// Metrics is the shared counter set updated concurrently by passes.
// Scalar counters are atomic; the per-function and per-pass maps are
// guarded by one mutex held only across the insert.
type Metrics struct {
	files       atomic.Int64
	functions   atomic.Int64
	lines       atomic.Int64
	security    atomic.Int64
	performance atomic.Int64

	mu      sync.Mutex
	scores  map[string]int   // complexity per qualified function name
	reduced map[string]int64 // instructions reduced per optimization pass
}

func newMetrics() *Metrics {
	return &Metrics{
		scores:  make(map[string]int),
		reduced: make(map[string]int64),
	}
}

// AddFiles records n analyzed source files.
func (m *Metrics) AddFiles(n int64) { m.files.Add(n) }

// AddLines records n analyzed source lines.
func (m *Metrics) AddLines(n int64) { m.lines.Add(n) }

// AddFunction records one analyzed function declaration.
func (m *Metrics) AddFunction() { m.functions.Add(1) }

// AddSecurityIssue bumps the global security-issue counter.
func (m *Metrics) AddSecurityIssue() { m.security.Add(1) }

// AddPerformanceIssue bumps the global performance-issue counter.
func (m *Metrics) AddPerformanceIssue() { m.performance.Add(1) }

// SetComplexity records the raw complexity score for the function
// identified by its qualified name. Recorded unconditionally, whether or
// not the score breaches the reporting threshold.
func (m *Metrics) SetComplexity(name string, score int) {
	m.mu.Lock()
	m.scores[name] = score
	m.mu.Unlock()
}

// AddReduced records n instructions removed by the named optimization pass.
func (m *Metrics) AddReduced(pass string, n int64) {
	if n == 0 {
		return
	}
	m.mu.Lock()
	m.reduced[pass] += n
	m.mu.Unlock()
}

// MetricsSnapshot is the immutable view of Metrics embedded in a Report.
type MetricsSnapshot struct {
	Files             int64            `json:"files"`
	Functions         int64            `json:"functions"`
	Lines             int64            `json:"lines"`
	TotalComplexity   int64            `json:"total_complexity"`
	SecurityIssues    int64            `json:"security_issues"`
	PerformanceIssues int64            `json:"performance_issues"`
	Complexity        map[string]int   `json:"complexity,omitempty"`
	Reduced           map[string]int64 `json:"instructions_reduced,omitempty"`
}

// Snapshot copies the current counters into an immutable view.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := MetricsSnapshot{
		Files:             m.files.Load(),
		Functions:         m.functions.Load(),
		Lines:             m.lines.Load(),
		SecurityIssues:    m.security.Load(),
		PerformanceIssues: m.performance.Load(),
		Complexity:        make(map[string]int, len(m.scores)),
		Reduced:           make(map[string]int64, len(m.reduced)),
	}
	for name, score := range m.scores {
		snap.Complexity[name] = score
		snap.TotalComplexity += int64(score)
	}
	for pass, n := range m.reduced {
		snap.Reduced[pass] = n
	}
	return snap
}
