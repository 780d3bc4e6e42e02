package model

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// ErrBadPath is returned for declaration paths that cannot be parsed.
var ErrBadPath = errors.New("model: malformed declaration path")

// FindDecl parses path (e.g. "app.Main", or "app.(Conn).Close" for a
// method) and returns the matching declaration and its unit. A
// well-formed path with no match returns nil without error.
func (p *Program) FindDecl(path string) (*Unit, *Decl, error) {
	unitName, recv, fnName, err := parseDeclPath(path)
	if err != nil {
		return nil, nil, err
	}
	u := p.Unit(unitName)
	if u == nil {
		return nil, nil, nil
	}
	for _, d := range u.Decls {
		if d.Name == fnName && d.Receiver == recv {
			return u, d, nil
		}
	}
	return nil, nil, nil
}

// parseDeclPath splits path into unit, receiver and function segments.
// Unit names must not contain dots.
func parseDeclPath(path string) (unit, recv, fn string, err error) {
	if strings.Contains(path, "(") {
		regex := regexp.MustCompile(`^(?P<unit>[^.()]+)\.\((?P<recv>[^)]+)\)\.(?P<fn>[^.()]+)$`)
		submatches := regex.FindStringSubmatch(path)
		if len(submatches) >= 4 {
			return submatches[1], submatches[2], submatches[3], nil
		}
		return "", "", "", errors.Wrapf(ErrBadPath, "%q", path)
	}
	parts := strings.Split(path, ".")
	if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
		return parts[0], "", parts[1], nil
	}
	return "", "", "", errors.Wrapf(ErrBadPath, "%q", path)
}
