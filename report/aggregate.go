package report

import (
	"io"
	"log"
	"sync"
)

// diagKey is the deduplication identity of a Diagnostic.
type diagKey struct {
	rule string
	file string
	line int
	col  int
}

// Aggregator merges per-unit results from concurrently running passes.
//
// All writers go through one coarse mutex; no caller holds it across
// computation, only across the final insert. Counter updates bypass the
// mutex entirely through Metrics.
type Aggregator struct {
	logger *log.Logger

	metrics *Metrics

	mu      sync.Mutex
	diags   []Diagnostic
	seen    map[diagKey]struct{}
	results map[string]interface{}
	errs    []UnitError
}

// NewAggregator returns an empty Aggregator ready for a run.
func NewAggregator() *Aggregator {
	return &Aggregator{
		logger:  log.New(io.Discard, "report: ", 0),
		metrics: newMetrics(),
		seen:    make(map[diagKey]struct{}),
		results: make(map[string]interface{}),
	}
}

// SetLog sets the debug log output to w.
func (a *Aggregator) SetLog(w io.Writer) {
	a.logger = log.New(w, "report: ", 0)
}

// Metrics returns the shared counter set. Safe for concurrent use without
// further locking.
func (a *Aggregator) Metrics() *Metrics {
	return a.metrics
}

// Report records d unless an identical (rule, position) finding exists.
// It reports whether d was recorded.
func (a *Aggregator) Report(d Diagnostic) bool {
	k := diagKey{rule: d.Rule, file: d.Pos.File, line: d.Pos.Line, col: d.Pos.Col}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, dup := a.seen[k]; dup {
		a.logger.Printf("drop duplicate %s at %s", d.Rule, d.Pos)
		return false
	}
	a.seen[k] = struct{}{}
	a.diags = append(a.diags, d)
	return true
}

// PutResult stores a pass's typed result payload for one unit.
func (a *Aggregator) PutResult(pass, unit string, v interface{}) {
	a.mu.Lock()
	a.results[Key(pass, unit)] = v
	a.mu.Unlock()
}

// ResultOf returns the payload stored for (pass, unit), if any.
func (a *Aggregator) ResultOf(pass, unit string) (interface{}, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v, ok := a.results[Key(pass, unit)]
	return v, ok
}

// AddError records a per-unit pass failure.
func (a *Aggregator) AddError(pass, unit string, err error) {
	a.mu.Lock()
	a.errs = append(a.errs, UnitError{Pass: pass, Unit: unit, Err: err})
	a.mu.Unlock()
}

// Errors returns a copy of the failures recorded so far.
func (a *Aggregator) Errors() []UnitError {
	a.mu.Lock()
	defer a.mu.Unlock()
	errs := make([]UnitError, len(a.errs))
	copy(errs, a.errs)
	return errs
}

// Snapshot freezes the aggregate into an immutable Report. Diagnostics are
// ordered by position, then rule id.
func (a *Aggregator) Snapshot() *Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	r := &Report{
		Metrics:     a.metrics.Snapshot(),
		Diagnostics: make([]Diagnostic, len(a.diags)),
		Results:     make(map[string]interface{}, len(a.results)),
		Errors:      make([]UnitError, len(a.errs)),
	}
	copy(r.Diagnostics, a.diags)
	copy(r.Errors, a.errs)
	for k, v := range a.results {
		r.Results[k] = v
	}
	sortDiagnostics(r.Diagnostics)
	return r
}
