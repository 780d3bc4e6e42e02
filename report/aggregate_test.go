package report

import (
	"strings"
	"testing"

	"github.com/rlange/anneal/source"
)

func diag(rule string, line int) Diagnostic {
	return Diagnostic{
		Rule:     rule,
		Severity: Warning,
		Message:  "finding",
		Pos:      source.Pos{File: "main.x", Line: line, Col: 1},
	}
}

func TestReportDedup(t *testing.T) {
	a := NewAggregator()
	if !a.Report(diag("weak-crypto", 3)) {
		t.Error("first finding dropped")
	}
	if a.Report(diag("weak-crypto", 3)) {
		t.Error("duplicate finding recorded")
	}
	if !a.Report(diag("weak-crypto", 7)) {
		t.Error("same rule at another position dropped")
	}
	if !a.Report(diag("cleartext-transport", 3)) {
		t.Error("another rule at the same position dropped")
	}
	if expect, got := 3, len(a.Snapshot().Diagnostics); expect != got {
		t.Errorf("diagnostics after dedup: want %d, got %d", expect, got)
	}
}

func TestReportDedupLog(t *testing.T) {
	a := NewAggregator()
	var buf strings.Builder
	a.SetLog(&buf)
	a.Report(diag("weak-crypto", 3))
	a.Report(diag("weak-crypto", 3))
	if !strings.Contains(buf.String(), "drop duplicate weak-crypto") {
		t.Errorf("dropped duplicate not logged: %q", buf.String())
	}
}

func TestSnapshotOrder(t *testing.T) {
	a := NewAggregator()
	a.Report(Diagnostic{Rule: "b-rule", Pos: source.Pos{File: "z.x", Line: 1}})
	a.Report(Diagnostic{Rule: "b-rule", Pos: source.Pos{File: "a.x", Line: 9}})
	a.Report(Diagnostic{Rule: "a-rule", Pos: source.Pos{File: "a.x", Line: 9}})
	a.Report(Diagnostic{Rule: "c-rule", Pos: source.Pos{File: "a.x", Line: 2}})

	got := a.Snapshot().Diagnostics
	order := make([]string, len(got))
	for i, d := range got {
		order[i] = d.Rule + "@" + d.Pos.String()
	}
	expect := []string{"c-rule@a.x:2", "a-rule@a.x:9", "b-rule@a.x:9", "b-rule@z.x:1"}
	for i := range expect {
		if expect[i] != order[i] {
			t.Fatalf("diagnostic order: want %v, got %v", expect, order)
		}
	}
}

func TestResults(t *testing.T) {
	a := NewAggregator()
	a.PutResult("complexity", "main", map[string]int{"main.main": 3})
	v, ok := a.ResultOf("complexity", "main")
	if !ok {
		t.Fatal("stored result not found")
	}
	if expect, got := 3, v.(map[string]int)["main.main"]; expect != got {
		t.Errorf("payload: want %d, got %d", expect, got)
	}
	if _, ok := a.ResultOf("complexity", "other"); ok {
		t.Error("missing result found")
	}
	if expect, got := 1, len(a.Snapshot().Results); expect != got {
		t.Errorf("snapshot results: want %d, got %d", expect, got)
	}
}

func TestErrors(t *testing.T) {
	a := NewAggregator()
	a.AddError("optimize", "main", errTest)
	errs := a.Errors()
	if expect, got := 1, len(errs); expect != got {
		t.Fatalf("errors: want %d, got %d", expect, got)
	}
	if expect, got := "optimize: unit main: boom", errs[0].Error(); expect != got {
		t.Errorf("error text: want %q, got %q", expect, got)
	}
	// The returned slice is a copy.
	errs[0].Unit = "changed"
	if expect, got := "main", a.Errors()[0].Unit; expect != got {
		t.Errorf("unit after mutation: want %q, got %q", expect, got)
	}
}

func TestMetricsSnapshot(t *testing.T) {
	a := NewAggregator()
	m := a.Metrics()
	m.AddFiles(2)
	m.AddLines(120)
	m.AddFunction()
	m.AddFunction()
	m.AddSecurityIssue()
	m.SetComplexity("main.main", 4)
	m.SetComplexity("main.helper", 1)
	m.AddReduced("fold", 3)
	m.AddReduced("fold", 2)
	m.AddReduced("dce", 0) // no-op

	snap := m.Snapshot()
	if expect, got := int64(2), snap.Files; expect != got {
		t.Errorf("files: want %d, got %d", expect, got)
	}
	if expect, got := int64(120), snap.Lines; expect != got {
		t.Errorf("lines: want %d, got %d", expect, got)
	}
	if expect, got := int64(2), snap.Functions; expect != got {
		t.Errorf("functions: want %d, got %d", expect, got)
	}
	if expect, got := int64(5), snap.TotalComplexity; expect != got {
		t.Errorf("total complexity: want %d, got %d", expect, got)
	}
	if expect, got := int64(1), snap.SecurityIssues; expect != got {
		t.Errorf("security issues: want %d, got %d", expect, got)
	}
	if expect, got := int64(5), snap.Reduced["fold"]; expect != got {
		t.Errorf("fold reduction: want %d, got %d", expect, got)
	}
	if _, ok := snap.Reduced["dce"]; ok {
		t.Error("zero reduction recorded for dce")
	}
}
