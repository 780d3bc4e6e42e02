package optim

import (
	"go/token"

	"github.com/rlange/anneal/ir"
	"github.com/rlange/anneal/loop"
)

// LICM is the loop-invariant code motion pass. For each natural loop,
// pure value computations whose operands are defined outside the loop, or
// by instructions already hoisted, move to the loop's preheader. The
// preheader is the loop's unique out-of-loop predecessor when that block
// falls through to the header; otherwise one is created by splitting the
// entry edge. Loops entered from more than one block are left alone, as
// are instructions with side effects, phis, and memory operations.
//
// Inner loops are processed before the loops enclosing them, so an
// invariant hoisted out of an inner loop can be hoisted again by the
// outer one.
type LICM struct{}

// Name implements Pass.
func (LICM) Name() string { return "licm" }

// Run implements Pass.
func (LICM) Run(f *ir.Function) Result {
	before := f.InstrCount()
	changed := false
	// Hoisting one loop can insert a preheader inside an enclosing loop,
	// so loops are rediscovered after every hoist; headers are stable and
	// mark which loops are done. Find returns inner loops first.
	done := make(map[ir.BlockID]bool)
	for {
		var l *loop.Loop
		for _, cand := range loop.Find(f) {
			if !done[cand.Header] {
				l = cand
				break
			}
		}
		if l == nil {
			break
		}
		done[l.Header] = true
		if hoistLoop(f, l) > 0 {
			changed = true
		}
	}
	return Result{Changed: changed, Removed: before - f.InstrCount()}
}

// hoistable reports whether in may be executed speculatively outside its
// loop. Division is excluded: it can fault, and hoisting would run it on
// iterations that never reached it.
func hoistable(in ir.Instr) bool {
	switch in := in.(type) {
	case *ir.Constant, *ir.UnaryOp, *ir.Convert:
		return true
	case *ir.BinaryOp:
		return in.Op != token.QUO && in.Op != token.REM
	}
	return false
}

// hoistLoop moves the invariant instructions of one loop to its preheader
// and returns how many moved.
func hoistLoop(f *ir.Function, l *loop.Loop) int {
	var outside []ir.BlockID
	for _, p := range f.Preds[l.Header] {
		if !l.Members[p] {
			outside = append(outside, p)
		}
	}
	if len(outside) != 1 {
		return 0
	}

	defBlock := make(map[ir.ValueID]ir.BlockID)
	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			if id := in.Result(); id != ir.InvalidValue {
				defBlock[id] = b.ID
			}
		}
	}

	// Grow the invariant set to a fixed point before touching the graph.
	// Discovery order respects def-before-use, so the hoisted sequence is
	// valid as-is in the preheader.
	hoisted := make(map[ir.ValueID]bool)
	chosen := make(map[ir.Instr]bool)
	var order []ir.Instr
	invariant := func(op ir.ValueID) bool {
		if hoisted[op] {
			return true
		}
		db, ok := defBlock[op]
		if !ok {
			return true // parameter
		}
		return !l.Members[db]
	}
	for again := true; again; {
		again = false
		for _, id := range l.Blocks() {
			for _, in := range f.Block(id).Instrs {
				if chosen[in] || !hoistable(in) {
					continue
				}
				ok := true
				for _, op := range in.Operands() {
					if !invariant(op) {
						ok = false
						break
					}
				}
				if !ok {
					continue
				}
				chosen[in] = true
				hoisted[in.Result()] = true
				order = append(order, in)
				again = true
			}
		}
	}
	if len(order) == 0 {
		return 0
	}

	p := f.Block(outside[0])
	pre := p
	if br, isBr := p.Term().(*ir.Branch); !isBr || br.Target != l.Header {
		pre = splitEdge(f, p, l.Header)
	}

	for _, id := range l.Blocks() {
		b := f.Block(id)
		kept := b.Instrs[:0]
		for _, in := range b.Instrs {
			if chosen[in] {
				continue
			}
			kept = append(kept, in)
		}
		b.Instrs = kept
	}
	for _, in := range order {
		insertBeforeTerm(pre, in)
	}
	return len(order)
}

// splitEdge inserts a fresh block on the p to target edge, redirecting
// p's terminator and target's phi inputs through it, and returns it.
func splitEdge(f *ir.Function, p *ir.Block, target ir.BlockID) *ir.Block {
	pre := f.NewBlock("preheader")
	pre.Append(&ir.Branch{Target: target})
	switch t := p.Term().(type) {
	case *ir.Branch:
		t.Target = pre.ID
	case *ir.CondBranch:
		if t.Then == target {
			t.Then = pre.ID
		}
		if t.Else == target {
			t.Else = pre.ID
		}
	}
	for _, in := range f.Block(target).Instrs {
		phi, ok := in.(*ir.Phi)
		if !ok {
			continue
		}
		for i := range phi.Edges {
			if phi.Edges[i].Pred == p.ID {
				phi.Edges[i].Pred = pre.ID
			}
		}
	}
	f.RebuildEdges()
	return pre
}

// insertBeforeTerm places in ahead of b's terminator, or at the end of an
// unterminated block.
func insertBeforeTerm(b *ir.Block, in ir.Instr) {
	n := len(b.Instrs)
	if n > 0 {
		if _, ok := b.Instrs[n-1].(ir.Term); ok {
			term := b.Instrs[n-1]
			b.Instrs = append(b.Instrs[:n-1], in, term)
			return
		}
	}
	b.Instrs = append(b.Instrs, in)
}
