package ir

import (
	"fmt"
	"go/constant"
	"go/token"
	"strings"
)

// Instr is one SSA instruction. The variant set is closed: implementations
// carry the unexported marker method, so every pass can (and must) switch
// exhaustively over the kinds below. Instructions reference the values
// they use by id and never own one another; ownership is solely the
// containing block's instruction list.
//
// The variants are: Constant, BinaryOp, UnaryOp, Convert, Alloc, Load,
// Store, Send, Call, Phi, Branch, CondBranch, Return.
type Instr interface {
	irInstr()

	// Result returns the value this instruction defines, or InvalidValue.
	Result() ValueID
	// Operands returns the values this instruction uses.
	Operands() []ValueID

	String() string
}

// Term is a block terminator: Branch, CondBranch or Return.
type Term interface {
	Instr
	// Targets returns the successor blocks this terminator may reach.
	Targets() []BlockID
}

// HasSideEffect reports whether in has an observable effect. Side-effecting
// instructions are the liveness roots for dead-code elimination: calls,
// stores, sends, and all terminators.
func HasSideEffect(in Instr) bool {
	switch in.(type) {
	case *Call, *Store, *Send, *Branch, *CondBranch, *Return:
		return true
	}
	return false
}

// Constant defines a value known at compile time.
type Constant struct {
	ID    ValueID
	Type  Type
	Value constant.Value
}

// BinaryOp applies Op to X and Y.
type BinaryOp struct {
	ID   ValueID
	Type Type
	Op   token.Token
	X, Y ValueID
}

// UnaryOp applies Op to X.
type UnaryOp struct {
	ID   ValueID
	Type Type
	Op   token.Token
	X    ValueID
}

// Convert converts X to the instruction's type.
type Convert struct {
	ID   ValueID
	Type Type
	X    ValueID
}

// Alloc allocates a fresh memory cell holding a value of type Elem and
// defines its address.
type Alloc struct {
	ID   ValueID
	Elem Type
}

// Load reads the cell at Addr.
type Load struct {
	ID   ValueID
	Type Type
	Addr ValueID
}

// Store writes Val into the cell at Addr. Defines no value.
type Store struct {
	Addr ValueID
	Val  ValueID
}

// Send sends Val on the channel value Chan. Defines no value.
type Send struct {
	Chan ValueID
	Val  ValueID
}

// Call invokes Callee with Args. Callee is the statically known qualified
// target name, or empty when the front-end could not resolve the target.
// ID is InvalidValue for calls whose result is unused or void.
type Call struct {
	ID     ValueID
	Type   Type
	Callee string
	Args   []ValueID
}

// PhiEdge is one incoming value of a Phi, tagged with the predecessor
// block it arrives from.
type PhiEdge struct {
	Pred BlockID
	Val  ValueID
}

// Phi merges one value per predecessor edge. Phis appear only at the head
// of a block, and their edge set matches the block's predecessors.
type Phi struct {
	ID    ValueID
	Type  Type
	Edges []PhiEdge
}

// Branch jumps unconditionally to Target.
type Branch struct {
	Target BlockID
}

// CondBranch jumps to Then when Cond is true, otherwise to Else.
type CondBranch struct {
	Cond ValueID
	Then BlockID
	Else BlockID
}

// Return leaves the function, yielding Val unless Val is InvalidValue.
type Return struct {
	Val ValueID
}

func (*Constant) irInstr()   {}
func (*BinaryOp) irInstr()   {}
func (*UnaryOp) irInstr()    {}
func (*Convert) irInstr()    {}
func (*Alloc) irInstr()      {}
func (*Load) irInstr()       {}
func (*Store) irInstr()      {}
func (*Send) irInstr()       {}
func (*Call) irInstr()       {}
func (*Phi) irInstr()        {}
func (*Branch) irInstr()     {}
func (*CondBranch) irInstr() {}
func (*Return) irInstr()     {}

func (c *Constant) Result() ValueID   { return c.ID }
func (b *BinaryOp) Result() ValueID   { return b.ID }
func (u *UnaryOp) Result() ValueID    { return u.ID }
func (c *Convert) Result() ValueID    { return c.ID }
func (a *Alloc) Result() ValueID      { return a.ID }
func (l *Load) Result() ValueID       { return l.ID }
func (*Store) Result() ValueID        { return InvalidValue }
func (*Send) Result() ValueID         { return InvalidValue }
func (c *Call) Result() ValueID       { return c.ID }
func (p *Phi) Result() ValueID        { return p.ID }
func (*Branch) Result() ValueID       { return InvalidValue }
func (*CondBranch) Result() ValueID   { return InvalidValue }
func (*Return) Result() ValueID       { return InvalidValue }

func (*Constant) Operands() []ValueID   { return nil }
func (b *BinaryOp) Operands() []ValueID { return []ValueID{b.X, b.Y} }
func (u *UnaryOp) Operands() []ValueID  { return []ValueID{u.X} }
func (c *Convert) Operands() []ValueID  { return []ValueID{c.X} }
func (*Alloc) Operands() []ValueID      { return nil }
func (l *Load) Operands() []ValueID     { return []ValueID{l.Addr} }
func (s *Store) Operands() []ValueID    { return []ValueID{s.Addr, s.Val} }
func (s *Send) Operands() []ValueID     { return []ValueID{s.Chan, s.Val} }
func (c *Call) Operands() []ValueID     { return c.Args }
func (p *Phi) Operands() []ValueID {
	ops := make([]ValueID, len(p.Edges))
	for i, e := range p.Edges {
		ops[i] = e.Val
	}
	return ops
}
func (*Branch) Operands() []ValueID       { return nil }
func (c *CondBranch) Operands() []ValueID { return []ValueID{c.Cond} }
func (r *Return) Operands() []ValueID {
	if r.Val == InvalidValue {
		return nil
	}
	return []ValueID{r.Val}
}

func (b *Branch) Targets() []BlockID     { return []BlockID{b.Target} }
func (c *CondBranch) Targets() []BlockID { return []BlockID{c.Then, c.Else} }
func (*Return) Targets() []BlockID       { return nil }

func vname(id ValueID) string {
	if id == InvalidValue {
		return "v?"
	}
	return fmt.Sprintf("v%d", id)
}

func bname(id BlockID) string {
	return fmt.Sprintf("b%d", id)
}

func vlist(ids []ValueID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = vname(id)
	}
	return strings.Join(parts, ", ")
}

func (c *Constant) String() string {
	return fmt.Sprintf("%s = const %s : %s", vname(c.ID), c.Value.ExactString(), c.Type)
}

func (b *BinaryOp) String() string {
	return fmt.Sprintf("%s = %s %s %s : %s", vname(b.ID), vname(b.X), b.Op, vname(b.Y), b.Type)
}

func (u *UnaryOp) String() string {
	return fmt.Sprintf("%s = %s%s : %s", vname(u.ID), u.Op, vname(u.X), u.Type)
}

func (c *Convert) String() string {
	return fmt.Sprintf("%s = convert %s : %s", vname(c.ID), vname(c.X), c.Type)
}

func (a *Alloc) String() string {
	return fmt.Sprintf("%s = alloc %s", vname(a.ID), a.Elem)
}

func (l *Load) String() string {
	return fmt.Sprintf("%s = load %s : %s", vname(l.ID), vname(l.Addr), l.Type)
}

func (s *Store) String() string {
	return fmt.Sprintf("store %s -> %s", vname(s.Val), vname(s.Addr))
}

func (s *Send) String() string {
	return fmt.Sprintf("send %s -> %s", vname(s.Val), vname(s.Chan))
}

func (c *Call) String() string {
	if c.ID == InvalidValue {
		return fmt.Sprintf("call %s(%s)", c.Callee, vlist(c.Args))
	}
	return fmt.Sprintf("%s = call %s(%s) : %s", vname(c.ID), c.Callee, vlist(c.Args), c.Type)
}

func (p *Phi) String() string {
	parts := make([]string, len(p.Edges))
	for i, e := range p.Edges {
		parts[i] = fmt.Sprintf("%s: %s", bname(e.Pred), vname(e.Val))
	}
	return fmt.Sprintf("%s = phi [%s] : %s", vname(p.ID), strings.Join(parts, ", "), p.Type)
}

func (b *Branch) String() string {
	return fmt.Sprintf("goto %s", bname(b.Target))
}

func (c *CondBranch) String() string {
	return fmt.Sprintf("if %s goto %s else %s", vname(c.Cond), bname(c.Then), bname(c.Else))
}

func (r *Return) String() string {
	if r.Val == InvalidValue {
		return "ret"
	}
	return fmt.Sprintf("ret %s", vname(r.Val))
}
