// Package rules is the diagnostic rule engine: a registry of pattern
// matchers evaluated against syntax-tree nodes.
//
// Each rule is a pure function from one node to zero or more diagnostics;
// rules hold no mutable state and are order-insensitive. The engine
// evaluates every registered rule at every node, so a caller traverses a
// tree exactly once regardless of how many rules are registered.
package rules

import (
	"github.com/rlange/anneal/report"
	"github.com/rlange/anneal/syntax"
)

// Rule matches one pattern family against a single syntax node.
type Rule interface {
	// ID is the stable rule id carried by every diagnostic the rule emits.
	ID() string
	// Describe returns a one-line human-readable description.
	Describe() string
	// Evaluate returns the diagnostics for n, without descending into
	// children; the caller owns the traversal.
	Evaluate(n *syntax.Node) []report.Diagnostic
}

// Engine evaluates a fixed set of rules against nodes.
type Engine struct {
	rules []Rule
}

// NewEngine returns an Engine over the given rules.
func NewEngine(rules ...Rule) *Engine {
	return &Engine{rules: rules}
}

// Default returns an Engine with all built-in rule families registered.
func Default() *Engine {
	return NewEngine(
		Injection(),
		Credential(),
		Transport(),
		WeakCrypto(),
	)
}

// Rules returns the registered rules in registration order.
func (e *Engine) Rules() []Rule {
	return e.rules
}

// Evaluate runs every registered rule against n and returns the combined
// diagnostics.
func (e *Engine) Evaluate(n *syntax.Node) []report.Diagnostic {
	var diags []report.Diagnostic
	for _, r := range e.rules {
		diags = append(diags, r.Evaluate(n)...)
	}
	return diags
}
