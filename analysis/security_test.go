package analysis

import (
	"testing"

	"github.com/rlange/anneal/model"
	"github.com/rlange/anneal/report"
	"github.com/rlange/anneal/rules"
	"github.com/rlange/anneal/syntax"
)

func taintedQuery(line int) *syntax.Node {
	lit := syntax.New(syntax.KindStringLit, pos(line))
	lit.Value = "SELECT * FROM t WHERE id="
	id := syntax.New(syntax.KindIdent, pos(line))
	id.Name = "userInput"
	concat := syntax.New(syntax.KindBinaryOp, pos(line))
	concat.Value = "+"
	concat.Add(lit, id)
	call := syntax.New(syntax.KindCall, pos(line))
	call.Name = "db.Query"
	return call.Add(concat)
}

func TestSecurityPass(t *testing.T) {
	u := &model.Unit{
		Name: "main",
		Decls: []*model.Decl{
			{Name: "fetch", Pos: pos(1), Body: body(taintedQuery(4))},
		},
	}
	v, agg := run(t, Security(nil), u)

	if expect, got := 1, v.(int); expect != got {
		t.Errorf("findings: want %d, got %d", expect, got)
	}
	snap := agg.Snapshot()
	if expect, got := 1, len(snap.Diagnostics); expect != got {
		t.Fatalf("diagnostics: want %d, got %d", expect, got)
	}
	d := snap.Diagnostics[0]
	if expect, got := rules.RuleInjection, d.Rule; expect != got {
		t.Errorf("rule: want %s, got %s", expect, got)
	}
	if expect, got := report.Critical, d.Severity; expect != got {
		t.Errorf("severity: want %s, got %s", expect, got)
	}
	if expect, got := int64(1), snap.Metrics.SecurityIssues; expect != got {
		t.Errorf("security issue counter: want %d, got %d", expect, got)
	}
}

func TestSecurityPassDedup(t *testing.T) {
	// The same finding surfacing twice counts once, keeping the counter in
	// step with the deduplicated diagnostic list.
	u := &model.Unit{
		Name: "main",
		Decls: []*model.Decl{
			{Name: "a", Pos: pos(1), Body: body(taintedQuery(4))},
			{Name: "b", Pos: pos(8), Body: body(taintedQuery(4))},
		},
	}
	v, agg := run(t, Security(nil), u)

	if expect, got := 1, v.(int); expect != got {
		t.Errorf("findings: want %d, got %d", expect, got)
	}
	snap := agg.Snapshot()
	if expect, got := 1, len(snap.Diagnostics); expect != got {
		t.Errorf("diagnostics: want %d, got %d", expect, got)
	}
	if expect, got := int64(1), snap.Metrics.SecurityIssues; expect != got {
		t.Errorf("security issue counter: want %d, got %d", expect, got)
	}
}

func TestSecurityPassCustomEngine(t *testing.T) {
	u := &model.Unit{
		Name: "main",
		Decls: []*model.Decl{
			{Name: "fetch", Pos: pos(1), Body: body(taintedQuery(4))},
		},
	}
	// An engine with only the transport rule sees nothing here.
	v, agg := run(t, Security(rules.NewEngine(rules.Transport())), u)
	if expect, got := 0, v.(int); expect != got {
		t.Errorf("findings: want %d, got %d", expect, got)
	}
	if got := len(agg.Snapshot().Diagnostics); got != 0 {
		t.Errorf("unexpected diagnostics: %d", got)
	}
}

func TestSecurityPassSkipsBodiless(t *testing.T) {
	u := &model.Unit{
		Name:  "main",
		Decls: []*model.Decl{{Name: "extern", Pos: pos(1)}},
	}
	v, _ := run(t, Security(nil), u)
	if expect, got := 0, v.(int); expect != got {
		t.Errorf("findings: want %d, got %d", expect, got)
	}
}
