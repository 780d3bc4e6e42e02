// Package model is the program model consumed by the engine: the units,
// declarations, syntax trees and SSA bodies a front-end built from source.
//
// A Program is constructed once per run, either directly in memory by a
// front-end linking this module, or decoded from the serialized model
// format with a Loader. Passes read it; nothing in the engine mutates it.
package model

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/rlange/anneal/ir"
	"github.com/rlange/anneal/source"
	"github.com/rlange/anneal/syntax"
)

// Program is one whole analyzed program.
type Program struct {
	Units []*Unit `json:"units"`
}

// Unit is one compilable package/module. Its name is the unit id used in
// result-map keys and must be unique within a Program.
type Unit struct {
	Name  string  `json:"name"`
	Files []*File `json:"files,omitempty"`
	Decls []*Decl `json:"decls,omitempty"`
}

// File records a source file the front-end consumed; Lines feeds the
// lines-of-code metric.
type File struct {
	Path  string `json:"path"`
	Lines int    `json:"lines,omitempty"`
}

// Decl is one function or method declaration. Body is the syntax tree of
// the declaration; Fn is its SSA form where the front-end built one.
type Decl struct {
	Name     string       `json:"name"`
	Receiver string       `json:"receiver,omitempty"`
	Pos      source.Pos   `json:"pos,omitempty"`
	Body     *syntax.Node `json:"body,omitempty"`
	Fn       *ir.Function `json:"fn,omitempty"`
}

// Qualified returns the stable identifier of the declaration within unit:
// "unit.Name", or "unit.(Receiver).Name" for methods.
func (d *Decl) Qualified(unit string) string {
	if d.Receiver != "" {
		return fmt.Sprintf("%s.(%s).%s", unit, d.Receiver, d.Name)
	}
	return fmt.Sprintf("%s.%s", unit, d.Name)
}

// Unit returns the unit with the given name, or nil.
func (p *Program) Unit(name string) *Unit {
	for _, u := range p.Units {
		if u.Name == name {
			return u
		}
	}
	return nil
}

// Functions returns the SSA bodies of the unit's declarations, in
// declaration order, skipping declarations without one.
func (u *Unit) Functions() []*ir.Function {
	var fns []*ir.Function
	for _, d := range u.Decls {
		if d.Fn != nil {
			fns = append(fns, d.Fn)
		}
	}
	return fns
}

// decls is a slice of Decl used only for sorting by position.
type decls []*Decl

func (d decls) Len() int           { return len(d) }
func (d decls) Less(i, j int) bool { return d[i].Pos.Before(d[j].Pos) }
func (d decls) Swap(i, j int)      { d[i], d[j] = d[j], d[i] }

// WriteTo writes the SSA listing of every declaration to w, units in name
// order and declarations in source order, in human-readable form.
func (p *Program) WriteTo(w io.Writer) (int64, error) {
	units := make([]*Unit, len(p.Units))
	copy(units, p.Units)
	sort.Slice(units, func(i, j int) bool { return units[i].Name < units[j].Name })

	var buf bytes.Buffer
	for _, u := range units {
		ds := make(decls, len(u.Decls))
		copy(ds, u.Decls)
		sort.Sort(ds)
		for _, d := range ds {
			if d.Fn == nil {
				continue
			}
			fmt.Fprintf(&buf, "; %s\n", d.Qualified(u.Name))
			if _, err := d.Fn.WriteTo(&buf); err != nil {
				return 0, err
			}
			buf.WriteByte('\n')
		}
	}
	n, err := w.Write(buf.Bytes())
	return int64(n), err
}
