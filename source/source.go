// Package source provides source positions for the program model.
//
// Positions originate from the front-end that built the model; the engine
// only carries them through to diagnostics and never interprets file
// contents itself.
package source

import "fmt"

// Pos is a position in a source file.
// The zero Pos means "no position recorded".
type Pos struct {
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
	Col  int    `json:"col,omitempty"`
}

// IsValid reports whether p carries a real position.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	if p.Col > 0 {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// Before reports whether p orders before q, comparing file, then line,
// then column. Used to give reports a stable diagnostic order.
func (p Pos) Before(q Pos) bool {
	if p.File != q.File {
		return p.File < q.File
	}
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Col < q.Col
}
