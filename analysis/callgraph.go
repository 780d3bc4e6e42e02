package analysis

import (
	"github.com/rlange/anneal/ir"
	"github.com/rlange/anneal/model"
	"github.com/rlange/anneal/sched"
)

// PassCallGraph is the registered name of the call graph pass.
const PassCallGraph = "callgraph"

// CallGraph returns the call graph construction pass. The graph is built
// from the unit's IR call sites and stored as the result payload so later
// passes, the inliner in particular, can query call relations instead of
// rescanning every function.
func CallGraph() sched.Descriptor {
	return sched.Descriptor{
		Name: PassCallGraph,
		Doc:  "builds the per-unit call graph from IR call sites",
		Run: func(pc *sched.Context, u *model.Unit) (interface{}, error) {
			return ir.BuildCallGraph(u.Functions()), nil
		},
	}
}
