// Package loop finds natural loops in a function's block graph.
//
// Loops are derived structure: a back-edge from B to H where H dominates B
// marks H as a loop header, and the loop body is the backward-reachable set
// from B bounded by H. Results are never cached on the Function, because
// optimization passes change the block graph; callers recompute when they
// need loops again.
package loop

import (
	"sort"

	"github.com/rlange/anneal/ir"
)

// Loop is one natural loop: its header and its member blocks (the header
// is a member of itself).
type Loop struct {
	Header  ir.BlockID
	Members map[ir.BlockID]bool
}

// Contains reports whether id is inside the loop.
func (l *Loop) Contains(id ir.BlockID) bool {
	return l.Members[id]
}

// Blocks returns the member block ids in ascending order.
func (l *Loop) Blocks() []ir.BlockID {
	ids := make([]ir.BlockID, 0, len(l.Members))
	for id := range l.Members {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Find detects the natural loops of f from its current dominance relation.
// Back-edges sharing a header contribute to one merged loop. Loops are
// returned smallest-first, so callers hoisting code see inner loops before
// the outer loops that enclose them.
func Find(f *ir.Function) []*Loop {
	dom := f.Dominators()
	byHeader := make(map[ir.BlockID]*Loop)
	var headers []ir.BlockID

	for _, b := range f.Blocks {
		for _, succ := range f.Succs[b.ID] {
			if !dom.Dominates(succ, b.ID) {
				continue // not a back-edge
			}
			l, ok := byHeader[succ]
			if !ok {
				l = &Loop{Header: succ, Members: map[ir.BlockID]bool{succ: true}}
				byHeader[succ] = l
				headers = append(headers, succ)
			}
			collect(f, l, b.ID)
		}
	}

	loops := make([]*Loop, 0, len(headers))
	for _, h := range headers {
		loops = append(loops, byHeader[h])
	}
	sort.SliceStable(loops, func(i, j int) bool {
		if len(loops[i].Members) != len(loops[j].Members) {
			return len(loops[i].Members) < len(loops[j].Members)
		}
		return loops[i].Header < loops[j].Header
	})
	return loops
}

// collect adds the blocks that reach tail without passing the header.
func collect(f *ir.Function, l *Loop, tail ir.BlockID) {
	if l.Members[tail] {
		return
	}
	l.Members[tail] = true
	stack := []ir.BlockID{tail}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, pred := range f.Preds[id] {
			if !l.Members[pred] {
				l.Members[pred] = true
				stack = append(stack, pred)
			}
		}
	}
}
