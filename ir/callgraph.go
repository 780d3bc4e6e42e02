package ir

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// CallGraph is the static call graph over a set of functions, built from
// direct call sites (unresolved calls contribute no edge). It answers the
// two questions the inliner asks: who does a function call, and does a
// function call itself.
type CallGraph struct {
	funcs map[string]*Function
	edges map[string]map[string]int // caller -> callee -> call-site count
}

// BuildCallGraph constructs the call graph for fns.
func BuildCallGraph(fns []*Function) *CallGraph {
	g := &CallGraph{
		funcs: make(map[string]*Function, len(fns)),
		edges: make(map[string]map[string]int),
	}
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		g.funcs[fn.Name] = fn
	}
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		for _, b := range fn.Blocks {
			for _, in := range b.Instrs {
				call, ok := in.(*Call)
				if !ok || call.Callee == "" {
					continue
				}
				callees := g.edges[fn.Name]
				if callees == nil {
					callees = make(map[string]int)
					g.edges[fn.Name] = callees
				}
				callees[call.Callee]++
			}
		}
	}
	return g
}

// Resolve returns the function known under name, or nil.
func (g *CallGraph) Resolve(name string) *Function {
	return g.funcs[name]
}

// Callees returns the distinct call targets of name, sorted.
func (g *CallGraph) Callees(name string) []string {
	callees := make([]string, 0, len(g.edges[name]))
	for callee := range g.edges[name] {
		callees = append(callees, callee)
	}
	sort.Strings(callees)
	return callees
}

// Sites returns the number of call sites from caller to callee.
func (g *CallGraph) Sites(caller, callee string) int {
	return g.edges[caller][callee]
}

// SelfRecursive reports whether name contains a direct call to itself.
func (g *CallGraph) SelfRecursive(name string) bool {
	return g.edges[name][name] > 0
}

// Recursive reports whether name can reach itself through call edges,
// covering mutual recursion as well as direct self-calls.
func (g *CallGraph) Recursive(name string) bool {
	seen := make(map[string]bool)
	var walk func(from string) bool
	walk = func(from string) bool {
		for callee := range g.edges[from] {
			if callee == name {
				return true
			}
			if !seen[callee] {
				seen[callee] = true
				if walk(callee) {
					return true
				}
			}
		}
		return false
	}
	return walk(name)
}

// MarshalJSON encodes the graph as caller to per-callee call-site counts.
func (g *CallGraph) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.edges)
}

// WriteGraphviz writes the call graph to w in graphviz dot format.
func (g *CallGraph) WriteGraphviz(w io.Writer) error {
	bufw := bufio.NewWriter(w)
	bufw.WriteString("digraph callgraph {\n")
	callers := make([]string, 0, len(g.edges))
	for caller := range g.edges {
		callers = append(callers, caller)
	}
	sort.Strings(callers)
	for _, caller := range callers {
		for _, callee := range g.Callees(caller) {
			bufw.WriteString(fmt.Sprintf("  %q -> %q\n", caller, callee))
		}
	}
	bufw.WriteString("}\n")
	return bufw.Flush()
}
