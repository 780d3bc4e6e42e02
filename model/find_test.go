package model

import (
	"testing"

	"github.com/pkg/errors"
)

func TestFindDecl(t *testing.T) {
	p := &Program{Units: []*Unit{{Name: "app", Decls: []*Decl{
		{Name: "Main"},
		{Name: "Close", Receiver: "Conn"},
	}}}}

	tests := []struct {
		name  string
		path  string
		found bool
	}{
		{"plain function", "app.Main", true},
		{"method", "app.(Conn).Close", true},
		{"missing function", "app.Ghost", false},
		{"missing unit", "ghost.Main", false},
		{"receiver mismatch", "app.(File).Close", false},
		{"plain name of a method", "app.Close", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, d, err := p.FindDecl(tt.path)
			if err != nil {
				t.Fatal("find failed:", err)
			}
			if !tt.found {
				if u != nil || d != nil {
					t.Fatalf("unexpected match: %v in %v", d, u)
				}
				return
			}
			if u == nil || d == nil {
				t.Fatal("no match")
			}
			if expect, got := tt.path, d.Qualified(u.Name); expect != got {
				t.Errorf("matched declaration: want %s, got %s", expect, got)
			}
		})
	}
}

func TestFindDeclBadPath(t *testing.T) {
	p := &Program{Units: []*Unit{{Name: "app"}}}
	for _, path := range []string{
		"",
		"noDot",
		"a.b.c",
		".Main",
		"app.",
		"app.(Conn.Close",
		"app.(Conn)",
	} {
		_, _, err := p.FindDecl(path)
		if err == nil {
			t.Errorf("%q: no error", path)
			continue
		}
		if expect, got := ErrBadPath, errors.Cause(err); expect != got {
			t.Errorf("%q: cause: want %v, got %v", path, expect, got)
		}
	}
}
