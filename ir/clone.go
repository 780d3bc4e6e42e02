package ir

// Clone returns a deep copy of f. Optimization passes clone before
// rewriting so every unit works on its own private function graph and the
// original program model stays untouched.
func (f *Function) Clone() *Function {
	g := &Function{
		Name:      f.Name,
		Params:    make([]Param, len(f.Params)),
		Blocks:    make([]*Block, 0, len(f.Blocks)),
		nextValue: f.nextValue,
		nextBlock: f.nextBlock,
	}
	copy(g.Params, f.Params)
	for _, b := range f.Blocks {
		nb := &Block{ID: b.ID, Name: b.Name, Instrs: make([]Instr, len(b.Instrs))}
		for i, in := range b.Instrs {
			nb.Instrs[i] = cloneInstr(in)
		}
		g.Blocks = append(g.Blocks, nb)
	}
	g.RebuildEdges()
	return g
}

// cloneInstr copies one instruction, including its operand slices.
// Constant payloads are immutable and shared.
func cloneInstr(in Instr) Instr {
	switch in := in.(type) {
	case *Constant:
		c := *in
		return &c
	case *BinaryOp:
		c := *in
		return &c
	case *UnaryOp:
		c := *in
		return &c
	case *Convert:
		c := *in
		return &c
	case *Alloc:
		c := *in
		return &c
	case *Load:
		c := *in
		return &c
	case *Store:
		c := *in
		return &c
	case *Send:
		c := *in
		return &c
	case *Call:
		c := *in
		c.Args = make([]ValueID, len(in.Args))
		copy(c.Args, in.Args)
		return &c
	case *Phi:
		c := *in
		c.Edges = make([]PhiEdge, len(in.Edges))
		copy(c.Edges, in.Edges)
		return &c
	case *Branch:
		c := *in
		return &c
	case *CondBranch:
		c := *in
		return &c
	case *Return:
		c := *in
		return &c
	}
	return nil
}
