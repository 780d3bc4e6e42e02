package optim

import (
	"github.com/rlange/anneal/ir"
)

// DCE is the dead code elimination pass. Liveness seeds from the
// side-effecting instructions and flows backwards through operand chains;
// value definitions the flow never reaches are removed. Blocks the entry
// can no longer reach are then dropped, and the two steps repeat to a
// fixed point, because removing a block can kill the phi inputs that kept
// values alive.
type DCE struct{}

// Name implements Pass.
func (DCE) Name() string { return "dce" }

// Run implements Pass.
func (DCE) Run(f *ir.Function) Result {
	before := f.InstrCount()
	changed := false
	for {
		n := removeDeadValues(f) + removeUnreachable(f)
		if n == 0 {
			break
		}
		changed = true
	}
	return Result{Changed: changed, Removed: before - f.InstrCount()}
}

// removeDeadValues drops pure value definitions nothing live uses.
func removeDeadValues(f *ir.Function) int {
	defs := f.Defs()
	live := make(map[ir.ValueID]bool)
	var work []ir.ValueID
	mark := func(id ir.ValueID) {
		if id == ir.InvalidValue || live[id] {
			return
		}
		live[id] = true
		work = append(work, id)
	}

	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			if ir.HasSideEffect(in) {
				for _, op := range in.Operands() {
					mark(op)
				}
			}
		}
	}
	for len(work) > 0 {
		id := work[len(work)-1]
		work = work[:len(work)-1]
		in, ok := defs[id]
		if !ok {
			continue // parameter
		}
		for _, op := range in.Operands() {
			mark(op)
		}
	}

	removed := 0
	for _, b := range f.Blocks {
		kept := b.Instrs[:0]
		for _, in := range b.Instrs {
			id := in.Result()
			if id != ir.InvalidValue && !live[id] && !ir.HasSideEffect(in) {
				removed++
				continue
			}
			kept = append(kept, in)
		}
		b.Instrs = kept
	}
	return removed
}

// removeUnreachable drops blocks the entry cannot reach and prunes the
// phi inputs that arrived from them.
func removeUnreachable(f *ir.Function) int {
	reach := f.ReachableBlocks()
	if len(reach) == len(f.Blocks) {
		return 0
	}
	removed := 0
	kept := f.Blocks[:0]
	for _, b := range f.Blocks {
		if !reach[b.ID] {
			removed += len(b.Instrs)
			continue
		}
		kept = append(kept, b)
	}
	f.Blocks = kept
	for _, b := range f.Blocks {
		for _, pred := range f.Preds[b.ID] {
			if !reach[pred] {
				f.PrunePhiEdges(b.ID, pred)
			}
		}
	}
	f.RebuildEdges()
	return removed
}
