// Package analysis provides the syntax-level analysis passes of the
// engine: cyclomatic complexity scoring, security rule evaluation, and
// call graph construction over the IR.
//
// Each pass is exposed as a scheduler descriptor so the engine can place
// it in a dependency wave.
package analysis
