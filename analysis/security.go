package analysis

import (
	"github.com/rlange/anneal/model"
	"github.com/rlange/anneal/rules"
	"github.com/rlange/anneal/sched"
	"github.com/rlange/anneal/syntax"
)

// PassSecurity is the registered name of the security pass.
const PassSecurity = "security"

// Security returns the security scanning pass. Each declaration's tree is
// walked exactly once and every rule in the engine is evaluated at every
// node; findings stream to the aggregator as they are produced, so
// partial results survive a later failure. The result payload is the
// number of findings recorded for the unit after deduplication.
func Security(eng *rules.Engine) sched.Descriptor {
	if eng == nil {
		eng = rules.Default()
	}
	return sched.Descriptor{
		Name: PassSecurity,
		Doc:  "evaluates security rules over every syntax node",
		Run: func(pc *sched.Context, u *model.Unit) (interface{}, error) {
			m := pc.Metrics()
			found := 0
			for _, d := range u.Decls {
				if d.Body == nil {
					continue
				}
				syntax.Walk(d.Body, func(n *syntax.Node) bool {
					for _, diag := range eng.Evaluate(n) {
						if pc.Report(diag) {
							m.AddSecurityIssue()
							found++
						}
					}
					return true
				})
			}
			return found, nil
		},
	}
}
