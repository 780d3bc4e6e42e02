// Package optim implements the SSA optimization pipeline: constant
// folding, dead code elimination, loop-invariant code motion and
// function inlining.
//
// Passes rewrite a function in place, so the pipeline always runs on
// clones of the model's functions, never on the originals. Each pass
// reports whether it changed anything and the net instruction count
// change it caused; inlining routinely makes that negative.
package optim

import (
	"github.com/rlange/anneal/ir"
)

// PassNames lists the optimization sub-passes in their default run order.
// Folding runs before dead code elimination because folding a conditional
// branch exposes its untaken arm as unreachable.
var PassNames = []string{"fold", "dce", "licm", "inline"}

// Result is one pass's outcome on one function. Removed is the net
// instruction count change, before minus after.
type Result struct {
	Changed bool
	Removed int
}

// Pass is one rewrite over a single function.
type Pass interface {
	Name() string
	Run(f *ir.Function) Result
}

// FunctionResult sums what a pipeline run did to one function.
type FunctionResult struct {
	Applied []string       `json:"applied,omitempty"` // passes that changed the function, first-seen order
	Reduced map[string]int `json:"reduced,omitempty"` // net instructions removed per pass
}

// Pipeline runs passes over one function in a fixed order.
type Pipeline struct {
	passes []Pass
}

// NewPipeline returns a pipeline over the given passes, run in the order
// given.
func NewPipeline(passes ...Pass) *Pipeline {
	return &Pipeline{passes: passes}
}

// Run applies every pass to f once, in order.
func (p *Pipeline) Run(f *ir.Function) FunctionResult {
	res := FunctionResult{Reduced: make(map[string]int, len(p.passes))}
	for _, pass := range p.passes {
		r := pass.Run(f)
		if r.Changed {
			res.Applied = append(res.Applied, pass.Name())
		}
		res.Reduced[pass.Name()] += r.Removed
	}
	return res
}
