package optim

import (
	"github.com/rlange/anneal/ir"
)

// InlineGates bounds what the inliner will touch. A zero or negative
// bound on blocks or instructions disables that check; a zero MaxDepth
// disables inlining entirely.
type InlineGates struct {
	MaxBlocks int `json:"max_blocks" yaml:"max_blocks"` // callee block-count ceiling
	MaxInstrs int `json:"max_instrs" yaml:"max_instrs"` // callee instruction-count ceiling
	MaxDepth  int `json:"max_depth" yaml:"max_depth"`   // inlined call sites per caller per run
}

// Inline is the function inlining pass. A call site whose callee is
// known, within the size gates, and free of recursion is replaced by a
// copy of the callee body: arguments rebind the parameters directly, the
// copied returns branch to a continuation block, and the call's value id
// becomes a phi over the returned values there. Inlining is best-effort;
// a site failing any gate is simply left alone.
type Inline struct {
	gates     InlineGates
	resolve   *ir.CallGraph
	recursion *ir.CallGraph
}

// NewInline returns the inlining pass. Callee bodies come from resolve,
// which must be built over the same working copies the pipeline rewrites.
// The recursion gate walks the recursion graph when given, resolve
// otherwise; a separate graph lets the gate see call edges an earlier
// pass already folded away.
func NewInline(gates InlineGates, resolve, recursion *ir.CallGraph) *Inline {
	if recursion == nil {
		recursion = resolve
	}
	return &Inline{gates: gates, resolve: resolve, recursion: recursion}
}

// Name implements Pass.
func (p *Inline) Name() string { return "inline" }

// Run implements Pass. Each splice consumes one unit of the depth budget,
// including calls that became visible through an earlier splice, so a
// chain of nested small callees cannot grow the caller without bound.
func (p *Inline) Run(f *ir.Function) Result {
	if p.resolve == nil || p.gates.MaxDepth <= 0 {
		return Result{}
	}
	before := f.InstrCount()
	changed := false
	for budget := p.gates.MaxDepth; budget > 0; budget-- {
		s := p.findSite(f)
		if s == nil {
			break
		}
		p.splice(f, s)
		changed = true
	}
	return Result{Changed: changed, Removed: before - f.InstrCount()}
}

// callSite is one inlinable call, located by block and instruction index.
type callSite struct {
	block  *ir.Block
	index  int
	call   *ir.Call
	callee *ir.Function
}

func (p *Inline) findSite(f *ir.Function) *callSite {
	for _, b := range f.Blocks {
		for i, in := range b.Instrs {
			call, ok := in.(*ir.Call)
			if !ok || call.Callee == "" || call.Callee == f.Name {
				continue
			}
			callee := p.resolve.Resolve(call.Callee)
			if callee == nil || !p.eligible(call, callee) {
				continue
			}
			return &callSite{block: b, index: i, call: call, callee: callee}
		}
	}
	return nil
}

func (p *Inline) eligible(call *ir.Call, callee *ir.Function) bool {
	if callee.Entry() == nil {
		return false
	}
	if p.gates.MaxBlocks > 0 && len(callee.Blocks) > p.gates.MaxBlocks {
		return false
	}
	if p.gates.MaxInstrs > 0 && callee.InstrCount() > p.gates.MaxInstrs {
		return false
	}
	if len(call.Args) != len(callee.Params) {
		return false
	}
	if p.recursion.Recursive(callee.Name) {
		return false
	}
	returns := 0
	for _, b := range callee.Blocks {
		t := b.Term()
		if t == nil {
			return false // splicing an unterminated block would corrupt the caller
		}
		if ret, ok := t.(*ir.Return); ok {
			returns++
			if call.ID != ir.InvalidValue && ret.Val == ir.InvalidValue {
				return false
			}
		}
	}
	if call.ID != ir.InvalidValue && returns == 0 {
		return false
	}
	return true
}

// splice replaces the call at s with a copy of the callee body. The
// caller block is cut at the call: everything after it moves to a new
// continuation block, the call becomes a branch into the copied entry,
// and every copied return becomes a branch to the continuation.
func (p *Inline) splice(f *ir.Function, s *callSite) {
	caller, call, callee := s.block, s.call, s.callee

	oldSuccs := append([]ir.BlockID(nil), f.Succs[caller.ID]...)

	blockMap := make(map[ir.BlockID]ir.BlockID, len(callee.Blocks))
	bodies := make([]*ir.Block, len(callee.Blocks))
	for i, cb := range callee.Blocks {
		nb := f.NewBlock(cb.Name)
		blockMap[cb.ID] = nb.ID
		bodies[i] = nb
	}
	cont := f.NewBlock("cont")

	// Parameters rebind to the argument values; every other callee value
	// gets a fresh id in the caller on first sight.
	vmap := make(map[ir.ValueID]ir.ValueID, len(callee.Params))
	for i, prm := range callee.Params {
		vmap[prm.ID] = call.Args[i]
	}
	mapv := func(id ir.ValueID) ir.ValueID {
		if id == ir.InvalidValue {
			return id
		}
		if nv, ok := vmap[id]; ok {
			return nv
		}
		nv := f.NewValue()
		vmap[id] = nv
		return nv
	}

	var retEdges []ir.PhiEdge
	for i, cb := range callee.Blocks {
		nb := bodies[i]
		for _, in := range cb.Instrs {
			if ret, ok := in.(*ir.Return); ok {
				if call.ID != ir.InvalidValue {
					retEdges = append(retEdges, ir.PhiEdge{Pred: nb.ID, Val: mapv(ret.Val)})
				}
				nb.Append(&ir.Branch{Target: cont.ID})
				continue
			}
			nb.Append(rewriteInstr(in, mapv, blockMap))
		}
	}

	tail := make([]ir.Instr, len(caller.Instrs)-s.index-1)
	copy(tail, caller.Instrs[s.index+1:])
	if call.ID != ir.InvalidValue {
		cont.Append(&ir.Phi{ID: call.ID, Type: call.Type, Edges: retEdges})
	}
	cont.Append(tail...)
	caller.Instrs = append(caller.Instrs[:s.index], &ir.Branch{Target: blockMap[callee.Entry().ID]})

	// The caller's old terminator now lives in cont, so phi inputs in its
	// targets must name cont as their predecessor.
	for _, succ := range oldSuccs {
		sb := f.Block(succ)
		if sb == nil {
			continue
		}
		for _, in := range sb.Instrs {
			phi, ok := in.(*ir.Phi)
			if !ok {
				continue
			}
			for j := range phi.Edges {
				if phi.Edges[j].Pred == caller.ID {
					phi.Edges[j].Pred = cont.ID
				}
			}
		}
	}
	f.RebuildEdges()
}

// rewriteInstr copies one callee instruction into the caller's value and
// block spaces.
func rewriteInstr(in ir.Instr, mapv func(ir.ValueID) ir.ValueID, bmap map[ir.BlockID]ir.BlockID) ir.Instr {
	switch in := in.(type) {
	case *ir.Constant:
		return &ir.Constant{ID: mapv(in.ID), Type: in.Type, Value: in.Value}
	case *ir.BinaryOp:
		return &ir.BinaryOp{ID: mapv(in.ID), Type: in.Type, Op: in.Op, X: mapv(in.X), Y: mapv(in.Y)}
	case *ir.UnaryOp:
		return &ir.UnaryOp{ID: mapv(in.ID), Type: in.Type, Op: in.Op, X: mapv(in.X)}
	case *ir.Convert:
		return &ir.Convert{ID: mapv(in.ID), Type: in.Type, X: mapv(in.X)}
	case *ir.Alloc:
		return &ir.Alloc{ID: mapv(in.ID), Elem: in.Elem}
	case *ir.Load:
		return &ir.Load{ID: mapv(in.ID), Type: in.Type, Addr: mapv(in.Addr)}
	case *ir.Store:
		return &ir.Store{Addr: mapv(in.Addr), Val: mapv(in.Val)}
	case *ir.Send:
		return &ir.Send{Chan: mapv(in.Chan), Val: mapv(in.Val)}
	case *ir.Call:
		args := make([]ir.ValueID, len(in.Args))
		for i, a := range in.Args {
			args[i] = mapv(a)
		}
		return &ir.Call{ID: mapv(in.ID), Type: in.Type, Callee: in.Callee, Args: args}
	case *ir.Phi:
		edges := make([]ir.PhiEdge, len(in.Edges))
		for i, e := range in.Edges {
			edges[i] = ir.PhiEdge{Pred: bmap[e.Pred], Val: mapv(e.Val)}
		}
		return &ir.Phi{ID: mapv(in.ID), Type: in.Type, Edges: edges}
	case *ir.Branch:
		return &ir.Branch{Target: bmap[in.Target]}
	case *ir.CondBranch:
		return &ir.CondBranch{Cond: mapv(in.Cond), Then: bmap[in.Then], Else: bmap[in.Else]}
	case *ir.Return:
		return &ir.Return{Val: mapv(in.Val)}
	}
	return in
}
