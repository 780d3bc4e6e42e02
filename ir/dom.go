package ir

// Dominators holds the immediate-dominator relation for one Function,
// computed over the current block graph. It is a snapshot: any pass that
// changes blocks or edges must recompute rather than reuse an old value,
// which is why dominance is never cached on the Function itself.
type Dominators struct {
	idom map[BlockID]BlockID // immediate dominator; entry maps to itself
	rpo  map[BlockID]int     // reverse-postorder index of reachable blocks
}

// Dominators computes the dominator relation with the iterative
// reverse-postorder algorithm. Unreachable blocks have no dominator and
// report false from Idom.
func (f *Function) Dominators() *Dominators {
	d := &Dominators{
		idom: make(map[BlockID]BlockID),
		rpo:  make(map[BlockID]int),
	}
	entry := f.Entry()
	if entry == nil {
		return d
	}

	post := f.postorder()
	order := make([]BlockID, 0, len(post)) // reverse postorder
	for i := len(post) - 1; i >= 0; i-- {
		order = append(order, post[i])
	}
	for i, id := range order {
		d.rpo[id] = i
	}

	d.idom[entry.ID] = entry.ID
	for changed := true; changed; {
		changed = false
		for _, b := range order {
			if b == entry.ID {
				continue
			}
			newIdom := b
			first := true
			for _, p := range f.Preds[b] {
				if _, ok := d.idom[p]; !ok {
					continue // not yet processed or unreachable
				}
				if first {
					newIdom = p
					first = false
					continue
				}
				newIdom = d.intersect(p, newIdom)
			}
			if first {
				continue
			}
			if cur, ok := d.idom[b]; !ok || cur != newIdom {
				d.idom[b] = newIdom
				changed = true
			}
		}
	}
	return d
}

// intersect walks the two dominator chains up to their common ancestor.
func (d *Dominators) intersect(b1, b2 BlockID) BlockID {
	for b1 != b2 {
		for d.rpo[b1] > d.rpo[b2] {
			b1 = d.idom[b1]
		}
		for d.rpo[b2] > d.rpo[b1] {
			b2 = d.idom[b2]
		}
	}
	return b1
}

// Idom returns the immediate dominator of b. The entry block is its own
// immediate dominator. The second result is false for unreachable blocks.
func (d *Dominators) Idom(b BlockID) (BlockID, bool) {
	id, ok := d.idom[b]
	return id, ok
}

// Dominates reports whether a dominates b. The relation is reflexive.
// Unreachable blocks dominate nothing and are dominated by nothing but
// themselves.
func (d *Dominators) Dominates(a, b BlockID) bool {
	if a == b {
		return true
	}
	cur, ok := d.idom[b]
	if !ok {
		return false
	}
	for {
		if cur == a {
			return true
		}
		next, ok := d.idom[cur]
		if !ok || next == cur {
			return false
		}
		cur = next
	}
}
