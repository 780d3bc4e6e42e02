package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"go/constant"
	"go/token"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/rlange/anneal/analysis"
	"github.com/rlange/anneal/ir"
	"github.com/rlange/anneal/model"
	"github.com/rlange/anneal/optim"
	"github.com/rlange/anneal/report"
	"github.com/rlange/anneal/rules"
	"github.com/rlange/anneal/source"
	"github.com/rlange/anneal/syntax"
)

// testProgram returns a one-unit program with a tainted query reaching a
// database sink and a function whose body folds down to a constant.
func testProgram() *model.Program {
	calc := ir.NewFunction("calc")
	b := calc.NewBlock("entry")
	c2, c3, m := calc.NewValue(), calc.NewValue(), calc.NewValue()
	b.Append(
		&ir.Constant{ID: c2, Type: ir.TypeInt, Value: constant.MakeInt64(2)},
		&ir.Constant{ID: c3, Type: ir.TypeInt, Value: constant.MakeInt64(3)},
		&ir.BinaryOp{ID: m, Type: ir.TypeInt, Op: token.MUL, X: c2, Y: c3},
		&ir.Return{Val: m},
	)
	calc.RebuildEdges()

	query := &syntax.Node{Kind: syntax.KindBinaryOp, Value: "+", Kids: []*syntax.Node{
		{Kind: syntax.KindStringLit, Value: "WHERE id = "},
		{Kind: syntax.KindIdent, Name: "id"},
	}}
	sink := &syntax.Node{
		Kind: syntax.KindCall,
		Name: "db.Query",
		Pos:  source.Pos{File: "web.x", Line: 14, Col: 3},
		Kids: []*syntax.Node{query},
	}
	return &model.Program{Units: []*model.Unit{{
		Name:  "main",
		Files: []*model.File{{Path: "web.x", Lines: 40}},
		Decls: []*model.Decl{
			{
				Name: "handler",
				Pos:  source.Pos{File: "web.x", Line: 12, Col: 1},
				Body: &syntax.Node{Kind: syntax.KindBlock, Kids: []*syntax.Node{sink}},
			},
			{
				Name: "calc",
				Pos:  source.Pos{File: "web.x", Line: 30, Col: 1},
				Body: &syntax.Node{Kind: syntax.KindBlock, Kids: []*syntax.Node{{Kind: syntax.KindReturn}}},
				Fn:   calc,
			},
		},
	}}}
}

func runEngine(t *testing.T, conf Config) (*Engine, *report.Report) {
	t.Helper()
	e, err := New(testProgram(), conf, nil)
	if err != nil {
		t.Fatal("cannot build engine:", err)
	}
	rep, err := e.Run(context.Background())
	if err != nil {
		t.Fatal("run failed:", err)
	}
	return e, rep
}

func TestEngineRun(t *testing.T) {
	_, rep := runEngine(t, DefaultConfig())

	m := rep.Metrics
	if expect, got := int64(1), m.Files; expect != got {
		t.Errorf("files: want %d, got %d", expect, got)
	}
	if expect, got := int64(40), m.Lines; expect != got {
		t.Errorf("lines: want %d, got %d", expect, got)
	}
	if expect, got := int64(2), m.Functions; expect != got {
		t.Errorf("functions: want %d, got %d", expect, got)
	}
	if expect, got := int64(2), m.TotalComplexity; expect != got {
		t.Errorf("total complexity: want %d, got %d", expect, got)
	}
	if expect, got := int64(1), m.SecurityIssues; expect != got {
		t.Errorf("security issues: want %d, got %d", expect, got)
	}
	if expect, got := int64(0), m.PerformanceIssues; expect != got {
		t.Errorf("performance issues: want %d, got %d", expect, got)
	}
	if expect, got := map[string]int64{"dce": 2}, m.Reduced; !reflect.DeepEqual(expect, got) {
		t.Errorf("reduced: want %v, got %v", expect, got)
	}

	if expect, got := 1, len(rep.Diagnostics); expect != got {
		t.Fatalf("diagnostics: want %d, got %d: %v", expect, got, rep.Diagnostics)
	}
	d := rep.Diagnostics[0]
	if expect, got := rules.RuleInjection, d.Rule; expect != got {
		t.Errorf("rule: want %q, got %q", expect, got)
	}
	if expect, got := report.Critical, d.Severity; expect != got {
		t.Errorf("severity: want %v, got %v", expect, got)
	}
	if expect, got := (source.Pos{File: "web.x", Line: 14, Col: 3}), d.Pos; expect != got {
		t.Errorf("pos: want %v, got %v", expect, got)
	}

	scores, ok := rep.Results[report.Key(analysis.PassComplexity, "main")].(map[string]int)
	if !ok {
		t.Fatal("no complexity result for main")
	}
	if expect, got := 1, scores["main.handler"]; expect != got {
		t.Errorf("handler score: want %d, got %d", expect, got)
	}
	if _, ok := rep.Results[report.Key(analysis.PassCallGraph, "main")].(*ir.CallGraph); !ok {
		t.Error("no call graph result for main")
	}
	res, ok := rep.Results[report.Key(optim.PassOptimize, "main")].(*optim.UnitResult)
	if !ok {
		t.Fatal("no optimize result for main")
	}
	if expect, got := []string{"fold", "dce"}, res.Functions["calc"].Applied; !reflect.DeepEqual(expect, got) {
		t.Errorf("applied: want %v, got %v", expect, got)
	}
	if expect, got := 2, res.Optimized["calc"].InstrCount(); expect != got {
		t.Errorf("optimized size: want %d, got %d", expect, got)
	}
}

func TestEnginePassFiltering(t *testing.T) {
	_, rep := runEngine(t, DefaultConfig().WithPasses(analysis.PassSecurity))

	if expect, got := 1, len(rep.Results); expect != got {
		t.Errorf("results: want %d, got %d: %v", expect, got, rep.Results)
	}
	if _, ok := rep.Results[report.Key(analysis.PassSecurity, "main")]; !ok {
		t.Error("no security result for main")
	}
	// File and line counts come from the model, not from any pass; the
	// function count comes from the disabled complexity pass.
	if expect, got := int64(1), rep.Metrics.Files; expect != got {
		t.Errorf("files: want %d, got %d", expect, got)
	}
	if expect, got := int64(0), rep.Metrics.Functions; expect != got {
		t.Errorf("functions: want %d, got %d", expect, got)
	}
	if expect, got := 1, len(rep.Diagnostics); expect != got {
		t.Errorf("diagnostics: want %d, got %d", expect, got)
	}
}

func TestEngineWriteSummary(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	e, rep := runEngine(t, DefaultConfig())
	var buf bytes.Buffer
	e.SetOutput(&buf)
	if err := e.Write(rep); err != nil {
		t.Fatal("write failed:", err)
	}
	for _, want := range []string{
		"files 1  lines 40  functions 2  total complexity 2",
		"issues: 1 security, 0 performance",
		"dce      2 instructions removed",
		"critical web.x:14:3 [sql-injection] query built by string concatenation reaches db.Query",
		"fix: bind untrusted input with query parameters",
	} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("summary missing %q:\n%s", want, buf.String())
		}
	}
}

func TestEngineWriteJSON(t *testing.T) {
	e, rep := runEngine(t, DefaultConfig().WithFormat(FormatJSON))
	var buf bytes.Buffer
	e.SetOutput(&buf)
	if err := e.Write(rep); err != nil {
		t.Fatal("write failed:", err)
	}

	var round struct {
		Metrics     report.MetricsSnapshot `json:"metrics"`
		Diagnostics []report.Diagnostic    `json:"diagnostics"`
	}
	if err := json.Unmarshal(buf.Bytes(), &round); err != nil {
		t.Fatal("cannot decode report:", err)
	}
	if expect, got := int64(1), round.Metrics.SecurityIssues; expect != got {
		t.Errorf("security issues: want %d, got %d", expect, got)
	}
	if expect, got := int64(2), round.Metrics.Reduced["dce"]; expect != got {
		t.Errorf("reduced: want %d, got %d", expect, got)
	}
	if expect, got := 1, len(round.Diagnostics); expect != got {
		t.Fatalf("diagnostics: want %d, got %d", expect, got)
	}
	if expect, got := rules.RuleInjection, round.Diagnostics[0].Rule; expect != got {
		t.Errorf("rule: want %q, got %q", expect, got)
	}
	if expect, got := report.Critical, round.Diagnostics[0].Severity; expect != got {
		t.Errorf("severity: want %v, got %v", expect, got)
	}
}

func TestEngineConfigValidation(t *testing.T) {
	for _, tt := range []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative concurrency", func(c *Config) { c.Concurrency = -1 }},
		{"negative threshold", func(c *Config) { c.ComplexityThreshold = -1 }},
		{"unknown pass", func(c *Config) { c.Passes = []string{"lint"} }},
		{"unknown optimization", func(c *Config) { c.Optimizations = []string{"unroll"} }},
		{"unknown format", func(c *Config) { c.Format = "xml" }},
	} {
		t.Run(tt.name, func(t *testing.T) {
			conf := DefaultConfig()
			tt.mutate(&conf)
			_, err := New(testProgram(), conf, nil)
			if err == nil {
				t.Fatal("bad configuration accepted")
			}
			if expect, got := ErrBadConfig, errors.Cause(err); expect != got {
				t.Errorf("cause: want %v, got %v", expect, got)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	conf, err := LoadConfig(strings.NewReader(""))
	if err != nil {
		t.Fatal("empty document:", err)
	}
	if expect, got := DefaultConfig(), conf; !reflect.DeepEqual(expect, got) {
		t.Errorf("defaults: want %+v, got %+v", expect, got)
	}

	doc := `
concurrency: 2
complexity_threshold: 3
passes: [complexity, optimize]
optimizations: [fold, dce]
optimize_rounds: 2
inline:
  max_depth: 1
format: json
`
	conf, err = LoadConfig(strings.NewReader(doc))
	if err != nil {
		t.Fatal("cannot load config:", err)
	}
	if expect, got := 2, conf.Concurrency; expect != got {
		t.Errorf("concurrency: want %d, got %d", expect, got)
	}
	if expect, got := 3, conf.ComplexityThreshold; expect != got {
		t.Errorf("threshold: want %d, got %d", expect, got)
	}
	if expect, got := []string{"complexity", "optimize"}, conf.Passes; !reflect.DeepEqual(expect, got) {
		t.Errorf("passes: want %v, got %v", expect, got)
	}
	if expect, got := []string{"fold", "dce"}, conf.Optimizations; !reflect.DeepEqual(expect, got) {
		t.Errorf("optimizations: want %v, got %v", expect, got)
	}
	if expect, got := 2, conf.OptimizeRounds; expect != got {
		t.Errorf("rounds: want %d, got %d", expect, got)
	}
	// Keys absent from the document keep their defaults, nested ones too.
	if expect, got := (optim.InlineGates{MaxBlocks: 8, MaxInstrs: 48, MaxDepth: 1}), conf.Inline; expect != got {
		t.Errorf("inline gates: want %+v, got %+v", expect, got)
	}
	if expect, got := FormatJSON, conf.Format; expect != got {
		t.Errorf("format: want %q, got %q", expect, got)
	}

	if _, err := LoadConfig(strings.NewReader("frobnicate: 1\n")); err == nil {
		t.Error("unknown key accepted")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "anneal.yaml")
	if err := os.WriteFile(path, []byte("complexity_threshold: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	conf, err := LoadConfigFile(path)
	if err != nil {
		t.Fatal("cannot load config file:", err)
	}
	if expect, got := 5, conf.ComplexityThreshold; expect != got {
		t.Errorf("threshold: want %d, got %d", expect, got)
	}
	if expect, got := FormatText, conf.Format; expect != got {
		t.Errorf("format: want %q, got %q", expect, got)
	}

	if _, err := LoadConfigFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("missing file accepted")
	} else if !strings.Contains(err.Error(), "cannot open") {
		t.Errorf("unexpected error: %v", err)
	}
}
