package source

import "testing"

func TestPosString(t *testing.T) {
	tests := []struct {
		name string
		pos  Pos
		want string
	}{
		{"zero", Pos{}, "-"},
		{"file and line", Pos{File: "main.x", Line: 12}, "main.x:12"},
		{"full", Pos{File: "main.x", Line: 12, Col: 3}, "main.x:12:3"},
		{"column without line", Pos{File: "main.x", Col: 3}, "-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if expect, got := tt.want, tt.pos.String(); expect != got {
				t.Errorf("want %q, got %q", expect, got)
			}
		})
	}
}

func TestPosBefore(t *testing.T) {
	tests := []struct {
		name string
		p, q Pos
		want bool
	}{
		{"earlier file", Pos{File: "a.x", Line: 9}, Pos{File: "b.x", Line: 1}, true},
		{"earlier line", Pos{File: "a.x", Line: 1}, Pos{File: "a.x", Line: 9}, true},
		{"earlier column", Pos{File: "a.x", Line: 1, Col: 2}, Pos{File: "a.x", Line: 1, Col: 8}, true},
		{"equal", Pos{File: "a.x", Line: 1, Col: 2}, Pos{File: "a.x", Line: 1, Col: 2}, false},
		{"later line", Pos{File: "a.x", Line: 9}, Pos{File: "a.x", Line: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if expect, got := tt.want, tt.p.Before(tt.q); expect != got {
				t.Errorf("want %t, got %t", expect, got)
			}
		})
	}
}
