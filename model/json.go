package model

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// ErrBadModel is the cause of all serialized-model validation failures.
var ErrBadModel = errors.New("model: malformed program model")

// Decode reads one serialized Program from r and validates the pieces the
// engine relies on: unit names present and unique, declaration names
// present. SSA bodies are decoded by the ir package and arrive with their
// adjacency maps rebuilt.
func Decode(r io.Reader) (*Program, error) {
	var p Program
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, errors.Wrap(err, "model: cannot decode")
	}
	seen := make(map[string]bool, len(p.Units))
	for _, u := range p.Units {
		if u == nil || u.Name == "" {
			return nil, errors.Wrap(ErrBadModel, "unit with no name")
		}
		if seen[u.Name] {
			return nil, errors.Wrapf(ErrBadModel, "duplicate unit %q", u.Name)
		}
		seen[u.Name] = true
		for _, d := range u.Decls {
			if d == nil || d.Name == "" {
				return nil, errors.Wrapf(ErrBadModel, "unit %q: declaration with no name", u.Name)
			}
		}
	}
	return &p, nil
}

// Encode writes the Program to w in the serialized model format.
func (p *Program) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return errors.Wrap(err, "model: cannot encode")
	}
	return nil
}
