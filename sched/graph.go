package sched

import (
	"sort"

	"github.com/pkg/errors"
)

var (
	// ErrDuplicatePass is returned when two descriptors share a name.
	ErrDuplicatePass = errors.New("duplicate pass name")
	// ErrUnknownPass is returned when a descriptor requires a pass that
	// was not registered.
	ErrUnknownPass = errors.New("unknown pass in requires")
	// ErrCycle is returned when the pass dependencies form a cycle.
	ErrCycle = errors.New("pass dependency cycle")
)

// Waves partitions descriptors into dependency layers: every pass in wave
// i depends only on passes in waves before i. Passes with no ordering
// between them land in the same wave, preserving registration order.
// A duplicate name, a requirement on an unregistered pass, or a
// dependency cycle is a configuration error.
func Waves(descs []Descriptor) ([][]Descriptor, error) {
	byName := make(map[string]int, len(descs))
	for i, d := range descs {
		if _, ok := byName[d.Name]; ok {
			return nil, errors.Wrap(ErrDuplicatePass, d.Name)
		}
		byName[d.Name] = i
	}
	indegree := make([]int, len(descs))
	dependents := make(map[int][]int, len(descs))
	for i, d := range descs {
		for _, req := range d.Requires {
			j, ok := byName[req]
			if !ok {
				return nil, errors.Wrapf(ErrUnknownPass, "%s requires %s", d.Name, req)
			}
			indegree[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	var waves [][]Descriptor
	frontier := make([]int, 0, len(descs))
	for i := range descs {
		if indegree[i] == 0 {
			frontier = append(frontier, i)
		}
	}
	placed := 0
	for len(frontier) > 0 {
		sort.Ints(frontier)
		wave := make([]Descriptor, 0, len(frontier))
		var next []int
		for _, i := range frontier {
			wave = append(wave, descs[i])
			placed++
			for _, dep := range dependents[i] {
				indegree[dep]--
				if indegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		waves = append(waves, wave)
		frontier = next
	}
	if placed != len(descs) {
		var stuck []string
		for i, d := range descs {
			if indegree[i] > 0 {
				stuck = append(stuck, d.Name)
			}
		}
		sort.Strings(stuck)
		return nil, errors.Wrapf(ErrCycle, "involving %v", stuck)
	}
	return waves, nil
}
