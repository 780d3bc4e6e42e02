package ir

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidFunction is the cause of all Verify failures.
var ErrInvalidFunction = errors.New("ir: invalid function")

// Verify checks the structural invariants a well-formed function holds:
// an entry block with no predecessors, exactly one terminator at the end
// of every block, adjacency maps matching the terminators, every value
// defined exactly once (the SSA invariant), every operand defined by a
// parameter or instruction, and phi edge sets matching predecessors.
//
// Verify does not require every block to be reachable; unreachable blocks
// are a defect state whose removal belongs to dead-code elimination.
func (f *Function) Verify() error {
	var problems []string
	complain := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if len(f.Blocks) == 0 {
		complain("no blocks")
		return errors.Wrapf(ErrInvalidFunction, "%s: %s", f.Name, strings.Join(problems, "; "))
	}

	seenBlocks := make(map[BlockID]bool, len(f.Blocks))
	for _, b := range f.Blocks {
		if seenBlocks[b.ID] {
			complain("duplicate block id %s", bname(b.ID))
		}
		seenBlocks[b.ID] = true
	}

	// Terminator discipline and edge consistency.
	for _, b := range f.Blocks {
		if len(b.Instrs) == 0 {
			complain("%s is empty", bname(b.ID))
			continue
		}
		for i, in := range b.Instrs {
			_, isTerm := in.(Term)
			if i == len(b.Instrs)-1 {
				if !isTerm {
					complain("%s does not end in a terminator", bname(b.ID))
				}
			} else if isTerm {
				complain("%s has a terminator before its end", bname(b.ID))
			}
		}
		if t := b.Term(); t != nil {
			for _, tgt := range t.Targets() {
				if !seenBlocks[tgt] {
					complain("%s branches to missing %s", bname(b.ID), bname(tgt))
				}
			}
			if !sameEdgeSet(f.Succs[b.ID], presentTargets(t, seenBlocks)) {
				complain("successor map of %s is stale", bname(b.ID))
			}
		}
	}
	for id, preds := range f.Preds {
		for _, p := range preds {
			if !containsEdge(f.Succs[p], id) {
				complain("predecessor map of %s is stale", bname(id))
			}
		}
	}
	if entry := f.Entry(); entry != nil && len(f.Preds[entry.ID]) > 0 {
		complain("entry %s has predecessors", bname(entry.ID))
	}

	// Single definition per value, over parameters and instructions.
	defined := make(map[ValueID]bool, len(f.Params))
	for _, p := range f.Params {
		if p.ID == InvalidValue {
			complain("parameter %s has no value id", p.Name)
			continue
		}
		if defined[p.ID] {
			complain("%s defined more than once", vname(p.ID))
		}
		defined[p.ID] = true
	}
	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			id := in.Result()
			if id == InvalidValue {
				continue
			}
			if defined[id] {
				complain("%s defined more than once", vname(id))
			}
			defined[id] = true
		}
	}

	// Operand references and phi placement.
	for _, b := range f.Blocks {
		atHead := true
		for _, in := range b.Instrs {
			phi, isPhi := in.(*Phi)
			if isPhi && !atHead {
				complain("%s has a phi after non-phi instructions", bname(b.ID))
			}
			if !isPhi {
				atHead = false
			}
			for _, op := range in.Operands() {
				if op == InvalidValue {
					complain("%v uses the invalid value", in)
					continue
				}
				if !defined[op] {
					complain("%s used but never defined", vname(op))
				}
			}
			if isPhi {
				f.verifyPhi(b, phi, complain)
			}
		}
	}

	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return errors.Wrapf(ErrInvalidFunction, "%s: %s", f.Name, strings.Join(problems, "; "))
}

func (f *Function) verifyPhi(b *Block, phi *Phi, complain func(string, ...interface{})) {
	preds := f.Preds[b.ID]
	if len(phi.Edges) != len(preds) {
		complain("phi %s has %d edges for %d predecessors", vname(phi.ID), len(phi.Edges), len(preds))
		return
	}
	want := make(map[BlockID]bool, len(preds))
	for _, p := range preds {
		want[p] = true
	}
	seen := make(map[BlockID]bool, len(phi.Edges))
	for _, e := range phi.Edges {
		if seen[e.Pred] {
			complain("phi %s repeats edge %s", vname(phi.ID), bname(e.Pred))
		}
		seen[e.Pred] = true
		if !want[e.Pred] {
			complain("phi %s has edge from non-predecessor %s", vname(phi.ID), bname(e.Pred))
		}
	}
}

func presentTargets(t Term, present map[BlockID]bool) []BlockID {
	var tgts []BlockID
	for _, tgt := range t.Targets() {
		if present[tgt] {
			tgts = append(tgts, tgt)
		}
	}
	return tgts
}

func sameEdgeSet(a, b []BlockID) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[BlockID]int, len(a))
	for _, id := range a {
		counts[id]++
	}
	for _, id := range b {
		counts[id]--
		if counts[id] < 0 {
			return false
		}
	}
	return true
}

func containsEdge(edges []BlockID, id BlockID) bool {
	for _, e := range edges {
		if e == id {
			return true
		}
	}
	return false
}
