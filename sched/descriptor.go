// Package sched schedules analysis and optimization passes across program
// units.
//
// Passes are data: a Descriptor names the pass, declares the passes it
// requires, and carries the run operation. The scheduler resolves the
// dependency graph once into waves and dispatches each wave's (pass,
// unit) tasks over a bounded worker pool, with a barrier between waves so
// a later pass can read an earlier pass's results from the shared
// aggregator.
package sched

import (
	"github.com/rlange/anneal/model"
	"github.com/rlange/anneal/report"
)

// TaskFunc runs one pass over one unit. It returns the pass's typed
// result payload (stored under "pass-name:unit-id" in the result map) or
// an error recorded against the (pass, unit) pair. Diagnostics stream
// through the Context instead of the return value.
type TaskFunc func(*Context, *model.Unit) (interface{}, error)

// Descriptor declares one pass to the scheduler.
type Descriptor struct {
	Name     string   // unique pass name
	Doc      string   // human-readable description
	Requires []string // names of passes whose results this pass reads
	Run      TaskFunc
}

// Context is the engine state shared by every task in one run. The
// program is immutable; the aggregator serializes all writes internally.
type Context struct {
	Program *model.Program
	Agg     *report.Aggregator
	Log     *Logger
}

// NewContext returns a Context over prog reporting into agg. A nil logger
// is replaced with a silent one.
func NewContext(prog *model.Program, agg *report.Aggregator, log *Logger) *Context {
	if log == nil {
		log = NopLogger()
	}
	return &Context{Program: prog, Agg: agg, Log: log}
}

// Report streams one diagnostic to the aggregator. It reports whether the
// diagnostic was recorded or dropped as a duplicate.
func (c *Context) Report(d report.Diagnostic) bool {
	return c.Agg.Report(d)
}

// Metrics returns the shared counters.
func (c *Context) Metrics() *report.Metrics {
	return c.Agg.Metrics()
}

// ResultOf returns the stored result of a prior pass for one unit. Only
// results of passes in strictly earlier waves are guaranteed visible.
func (c *Context) ResultOf(pass, unit string) (interface{}, bool) {
	return c.Agg.ResultOf(pass, unit)
}
