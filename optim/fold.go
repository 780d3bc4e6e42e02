package optim

import (
	"go/constant"
	"go/token"

	"github.com/rlange/anneal/ir"
)

// Folded shifts stay within a 64-bit word.
const maxShift = 63

// Fold is the constant folding pass. Each block is scanned forward once:
// an instruction whose operands are all known constants is replaced in
// place by an equivalent Constant under the same value id, and a
// conditional branch on a known condition becomes an unconditional one.
// Folds that feed earlier blocks are picked up on the next pipeline
// round.
type Fold struct{}

// Name implements Pass.
func (Fold) Name() string { return "fold" }

// Run implements Pass.
func (Fold) Run(f *ir.Function) Result {
	before := f.InstrCount()
	changed := false
	edges := false

	consts := make(map[ir.ValueID]constant.Value)
	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			if c, ok := in.(*ir.Constant); ok {
				consts[c.ID] = c.Value
			}
		}
	}

	for _, b := range f.Blocks {
		for i, in := range b.Instrs {
			switch in := in.(type) {
			case *ir.BinaryOp:
				x, okx := consts[in.X]
				y, oky := consts[in.Y]
				if !okx || !oky {
					continue
				}
				v, ok := foldBinary(in.Op, in.Type, x, y)
				if !ok {
					continue
				}
				b.Instrs[i] = &ir.Constant{ID: in.ID, Type: in.Type, Value: v}
				consts[in.ID] = v
				changed = true
			case *ir.UnaryOp:
				x, okx := consts[in.X]
				if !okx {
					continue
				}
				v, ok := foldUnary(in.Op, x)
				if !ok {
					continue
				}
				b.Instrs[i] = &ir.Constant{ID: in.ID, Type: in.Type, Value: v}
				consts[in.ID] = v
				changed = true
			case *ir.Convert:
				x, okx := consts[in.X]
				if !okx {
					continue
				}
				v, ok := foldConvert(in.Type, x)
				if !ok {
					continue
				}
				b.Instrs[i] = &ir.Constant{ID: in.ID, Type: in.Type, Value: v}
				consts[in.ID] = v
				changed = true
			case *ir.CondBranch:
				v, ok := consts[in.Cond]
				if !ok || v.Kind() != constant.Bool {
					continue
				}
				taken, untaken := in.Then, in.Else
				if !constant.BoolVal(v) {
					taken, untaken = untaken, taken
				}
				if untaken != taken {
					f.PrunePhiEdges(untaken, b.ID)
				}
				b.Instrs[i] = &ir.Branch{Target: taken}
				changed = true
				edges = true
			}
		}
	}
	if edges {
		f.RebuildEdges()
	}
	return Result{Changed: changed, Removed: before - f.InstrCount()}
}

// foldBinary evaluates op over two known constants. go/constant panics on
// operand combinations a malformed model can produce; those fold to
// nothing.
func foldBinary(op token.Token, t ir.Type, x, y constant.Value) (v constant.Value, ok bool) {
	defer func() {
		if recover() != nil {
			v, ok = nil, false
		}
	}()
	switch op {
	case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ:
		return constant.MakeBool(constant.Compare(x, op, y)), true
	case token.SHL, token.SHR:
		s, exact := constant.Uint64Val(y)
		if !exact || s > maxShift {
			return nil, false
		}
		return constant.Shift(x, op, uint(s)), true
	case token.QUO, token.REM:
		// division by zero faults at run time, never at fold time
		if constant.Sign(y) == 0 {
			return nil, false
		}
		if op == token.QUO && t == ir.TypeInt {
			op = token.QUO_ASSIGN // integer division
		}
		return constant.BinaryOp(x, op, y), true
	case token.ADD, token.SUB, token.MUL,
		token.AND, token.OR, token.XOR, token.AND_NOT,
		token.LAND, token.LOR:
		return constant.BinaryOp(x, op, y), true
	}
	return nil, false
}

func foldUnary(op token.Token, x constant.Value) (v constant.Value, ok bool) {
	defer func() {
		if recover() != nil {
			v, ok = nil, false
		}
	}()
	switch op {
	case token.ADD:
		return x, true
	case token.SUB, token.XOR, token.NOT:
		return constant.UnaryOp(op, x, 0), true
	}
	return nil, false
}

// foldConvert folds only exact conversions. Float to int truncates at run
// time, so it is left to the runtime.
func foldConvert(t ir.Type, x constant.Value) (constant.Value, bool) {
	switch t {
	case ir.TypeInt:
		if x.Kind() == constant.Int {
			return x, true
		}
	case ir.TypeFloat:
		if v := constant.ToFloat(x); v.Kind() == constant.Float {
			return v, true
		}
	case ir.TypeBool:
		if x.Kind() == constant.Bool {
			return x, true
		}
	case ir.TypeString:
		if x.Kind() == constant.String {
			return x, true
		}
	}
	return nil, false
}
