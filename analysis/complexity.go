package analysis

import (
	"fmt"

	"github.com/rlange/anneal/model"
	"github.com/rlange/anneal/report"
	"github.com/rlange/anneal/sched"
	"github.com/rlange/anneal/syntax"
)

// Rule ids of diagnostics emitted by the analysis passes themselves.
const (
	RuleComplexity = "high-complexity"
	RuleMalformed  = "malformed-decl"
)

// PassComplexity is the registered name of the complexity pass.
const PassComplexity = "complexity"

// Complexity returns the cyclomatic complexity pass. Every analyzed
// function's score is recorded in the metrics under its qualified name,
// whether or not it crosses the threshold; scores above the threshold
// additionally raise a warning. A threshold of zero or below disables the
// warning. The result payload maps qualified function names to scores.
func Complexity(threshold int) sched.Descriptor {
	return sched.Descriptor{
		Name: PassComplexity,
		Doc:  "scores cyclomatic complexity per function",
		Run: func(pc *sched.Context, u *model.Unit) (interface{}, error) {
			scores := make(map[string]int, len(u.Decls))
			m := pc.Metrics()
			for _, d := range u.Decls {
				if d.Body == nil {
					pc.Report(report.Diagnostic{
						Rule:     RuleMalformed,
						Severity: report.Info,
						Message:  fmt.Sprintf("%s has no body, skipped", d.Qualified(u.Name)),
						Pos:      d.Pos,
					})
					continue
				}
				name := d.Qualified(u.Name)
				score := Score(d.Body)
				scores[name] = score
				m.AddFunction()
				m.SetComplexity(name, score)
				if threshold > 0 && score > threshold {
					m.AddPerformanceIssue()
					pc.Report(report.Diagnostic{
						Rule:     RuleComplexity,
						Severity: report.Warning,
						Message:  fmt.Sprintf("%s has cyclomatic complexity %d, above threshold %d", name, score, threshold),
						Pos:      d.Pos,
						Fix:      "split the function into smaller helpers",
					})
				}
			}
			return scores, nil
		},
	}
}

// Score computes the cyclomatic complexity of a function body: one for
// the single entry, plus one per branch point. Switch and select
// statements count per arm; default arms add nothing.
func Score(body *syntax.Node) int {
	score := 1
	syntax.Walk(body, func(n *syntax.Node) bool {
		switch n.Kind {
		case syntax.KindIf, syntax.KindFor:
			score++
		case syntax.KindCase:
			if !n.Default {
				score++
			}
		}
		return true
	})
	return score
}
