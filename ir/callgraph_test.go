package ir

import (
	"strings"
	"testing"
)

// callFunc returns a function whose body is just the given calls.
func callFunc(name string, callees ...string) *Function {
	f := NewFunction(name)
	b := f.NewBlock("")
	for _, callee := range callees {
		b.Append(&Call{Callee: callee})
	}
	b.Append(&Return{})
	f.RebuildEdges()
	return f
}

func buildCallGraph() *CallGraph {
	return BuildCallGraph([]*Function{
		callFunc("main", "helper", "helper"),
		callFunc("helper", "leaf"),
		callFunc("leaf"),
		callFunc("rec", "rec"),
	})
}

func TestCallGraphEdges(t *testing.T) {
	g := buildCallGraph()
	if expect, got := "helper", strings.Join(g.Callees("main"), ","); expect != got {
		t.Errorf("callees of main: want %s, got %s", expect, got)
	}
	if expect, got := 2, g.Sites("main", "helper"); expect != got {
		t.Errorf("call sites main->helper: want %d, got %d", expect, got)
	}
	if expect, got := 0, g.Sites("leaf", "main"); expect != got {
		t.Errorf("call sites leaf->main: want %d, got %d", expect, got)
	}
	if g.Resolve("helper") == nil {
		t.Error("helper did not resolve")
	}
	if g.Resolve("missing") != nil {
		t.Error("unknown name resolved")
	}
}

func TestCallGraphIgnoresUnresolved(t *testing.T) {
	f := callFunc("dyn", "known")
	f.Entry().Instrs[0] = &Call{Callee: ""}
	g := BuildCallGraph([]*Function{f, callFunc("known")})
	if expect, got := 0, len(g.Callees("dyn")); expect != got {
		t.Errorf("callees of dyn: want %d, got %d", expect, got)
	}
}

func TestRecursive(t *testing.T) {
	g := buildCallGraph()
	if !g.SelfRecursive("rec") {
		t.Error("rec calls itself")
	}
	if g.SelfRecursive("main") {
		t.Error("main does not call itself")
	}
	if !g.Recursive("rec") {
		t.Error("rec is recursive")
	}
	if g.Recursive("main") {
		t.Error("main is not recursive")
	}

	mutual := BuildCallGraph([]*Function{
		callFunc("ping", "pong"),
		callFunc("pong", "ping"),
	})
	if !mutual.Recursive("ping") {
		t.Error("ping reaches itself through pong")
	}
	if mutual.SelfRecursive("ping") {
		t.Error("ping has no direct self-call")
	}
}

func TestWriteGraphviz(t *testing.T) {
	expect := `digraph callgraph {
  "helper" -> "leaf"
  "main" -> "helper"
  "rec" -> "rec"
}
`
	var buf strings.Builder
	if err := buildCallGraph().WriteGraphviz(&buf); err != nil {
		t.Fatal("cannot write graph:", err)
	}
	if got := buf.String(); expect != got {
		t.Errorf("unexpected dot output, want:\n%s\ngot:\n%s", expect, got)
	}
}
