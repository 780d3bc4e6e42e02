package optim

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/rlange/anneal/ir"
	"github.com/rlange/anneal/model"
	"github.com/rlange/anneal/sched"
)

// PassOptimize is the registered name of the optimization pass.
const PassOptimize = "optimize"

// ErrUnknownOptimization is returned when Options name a sub-pass that
// does not exist.
var ErrUnknownOptimization = errors.New("unknown optimization")

// Options configure the optimization pass.
type Options struct {
	Passes []string    // sub-passes in run order; empty means all of PassNames
	Rounds int         // pipeline repetitions per function; minimum one
	Gates  InlineGates // inliner bounds

	// CallGraphFrom names a scheduler pass whose per-unit result is an
	// *ir.CallGraph. When set, the inliner's recursion gate consults that
	// graph, which still has the call edges of the unoptimized program.
	CallGraphFrom string
}

// UnitResult is the optimization pass's payload for one unit. Optimized
// holds the rewritten working copies; the unit's own functions are
// unchanged.
type UnitResult struct {
	Functions map[string]FunctionResult `json:"functions,omitempty"`
	PerPass   map[string]int            `json:"per_pass,omitempty"`
	Skipped   map[string]string         `json:"skipped,omitempty"`
	Optimized map[string]*ir.Function   `json:"-"`
}

// Optimize returns the optimization pipeline pass. Every function of the
// unit is cloned up front, so the pipeline rewrites private working
// copies and concurrent passes keep reading the unmodified model.
// Functions that fail SSA verification before optimizing are skipped and
// noted in the payload; a function failing verification after a rewrite
// fails the unit's whole optimization task.
func Optimize(o Options) sched.Descriptor {
	return sched.Descriptor{
		Name: PassOptimize,
		Doc:  "runs the optimization pipeline over cloned function bodies",
		Run: func(pc *sched.Context, u *model.Unit) (interface{}, error) {
			res := &UnitResult{
				Functions: make(map[string]FunctionResult),
				PerPass:   make(map[string]int),
				Skipped:   make(map[string]string),
				Optimized: make(map[string]*ir.Function),
			}
			var clones []*ir.Function
			for _, fn := range u.Functions() {
				c := fn.Clone()
				if err := c.Verify(); err != nil {
					pc.Log.Debugf("optimize: skipping %s: %v", fn.Name, err)
					res.Skipped[fn.Name] = err.Error()
					continue
				}
				clones = append(clones, c)
			}

			local := ir.BuildCallGraph(clones)
			recursion := local
			if o.CallGraphFrom != "" {
				if v, ok := pc.ResultOf(o.CallGraphFrom, u.Name); ok {
					if g, ok := v.(*ir.CallGraph); ok {
						recursion = g
					}
				}
			}
			pipe, err := o.pipeline(local, recursion)
			if err != nil {
				return nil, err
			}

			rounds := o.Rounds
			if rounds < 1 {
				rounds = 1
			}
			var failures error
			for _, fn := range clones {
				fr := FunctionResult{Reduced: make(map[string]int)}
				applied := make(map[string]bool)
				for r := 0; r < rounds; r++ {
					one := pipe.Run(fn)
					for _, name := range one.Applied {
						if !applied[name] {
							applied[name] = true
							fr.Applied = append(fr.Applied, name)
						}
					}
					for name, n := range one.Reduced {
						fr.Reduced[name] += n
					}
					if len(one.Applied) == 0 {
						break
					}
				}
				if err := fn.Verify(); err != nil {
					failures = multierr.Append(failures, errors.Wrapf(err, "%s after optimization", fn.Name))
					continue
				}
				res.Functions[fn.Name] = fr
				res.Optimized[fn.Name] = fn
				for name, n := range fr.Reduced {
					res.PerPass[name] += n
				}
			}
			if failures != nil {
				return nil, failures
			}
			m := pc.Metrics()
			for name, n := range res.PerPass {
				m.AddReduced(name, int64(n))
			}
			return res, nil
		},
	}
}

// pipeline assembles the configured sub-passes in order.
func (o Options) pipeline(local, recursion *ir.CallGraph) (*Pipeline, error) {
	names := o.Passes
	if len(names) == 0 {
		names = PassNames
	}
	passes := make([]Pass, 0, len(names))
	for _, name := range names {
		switch name {
		case "fold":
			passes = append(passes, Fold{})
		case "dce":
			passes = append(passes, DCE{})
		case "licm":
			passes = append(passes, LICM{})
		case "inline":
			passes = append(passes, NewInline(o.Gates, local, recursion))
		default:
			return nil, errors.Wrap(ErrUnknownOptimization, name)
		}
	}
	return NewPipeline(passes...), nil
}
