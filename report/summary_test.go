package report

import (
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/rlange/anneal/source"
)

func TestWriteSummary(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = noColor }()

	a := NewAggregator()
	m := a.Metrics()
	m.AddFiles(1)
	m.AddLines(42)
	m.AddFunction()
	m.AddSecurityIssue()
	m.SetComplexity("main.main", 3)
	m.AddReduced("fold", 2)
	m.AddReduced("dce", 4)
	a.Report(Diagnostic{
		Rule:     "sql-injection",
		Severity: Critical,
		Message:  "query built by string concatenation reaches db.Query",
		Pos:      source.Pos{File: "main.x", Line: 4, Col: 2},
		Fix:      "bind untrusted input with query parameters",
	})
	a.AddError("optimize", "main", errTest)

	var buf strings.Builder
	if err := a.Snapshot().WriteSummary(&buf); err != nil {
		t.Fatal("cannot write summary:", err)
	}
	expect := `analysis
  files 1  lines 42  functions 1  total complexity 3
  issues: 1 security, 0 performance
optimization
  dce      4 instructions removed
  fold     2 instructions removed
diagnostics
  critical main.x:4:2 [sql-injection] query built by string concatenation reaches db.Query
           fix: bind untrusted input with query parameters
errors
  optimize: unit main: boom
`
	if got := buf.String(); expect != got {
		t.Errorf("unexpected summary, want:\n%s\ngot:\n%s", expect, got)
	}
}

func TestWriteSummaryQuiet(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = noColor }()

	var buf strings.Builder
	if err := NewAggregator().Snapshot().WriteSummary(&buf); err != nil {
		t.Fatal("cannot write summary:", err)
	}
	out := buf.String()
	for _, section := range []string{"optimization", "diagnostics", "errors"} {
		if strings.Contains(out, section) {
			t.Errorf("empty report prints %s section:\n%s", section, out)
		}
	}
}
