package ir

import (
	"encoding/json"
	"go/constant"
	"go/token"
	"strconv"

	"github.com/pkg/errors"
)

// Decode errors. Serialized functions come from front-ends in other
// processes, so decoding validates tags instead of trusting them.
var (
	ErrBadInstr    = errors.New("ir: unknown instruction op")
	ErrBadType     = errors.New("ir: unknown type name")
	ErrBadOp       = errors.New("ir: unknown operator")
	ErrBadConstant = errors.New("ir: malformed constant")
)

// binaryTokens are the operators accepted in serialized binop/unop
// instructions. The String form of the token is the wire name.
var binaryTokens = []token.Token{
	token.ADD, token.SUB, token.MUL, token.QUO, token.REM,
	token.AND, token.OR, token.XOR, token.SHL, token.SHR,
	token.LAND, token.LOR,
	token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ,
	token.NOT,
}

var tokenByName = func() map[string]token.Token {
	m := make(map[string]token.Token, len(binaryTokens))
	for _, t := range binaryTokens {
		m[t.String()] = t
	}
	return m
}()

var typeByName = func() map[string]Type {
	m := make(map[string]Type, len(typeNames))
	for i, n := range typeNames {
		m[n] = Type(i)
	}
	return m
}()

type paramJSON struct {
	ID   ValueID `json:"id"`
	Name string  `json:"name,omitempty"`
	Type string  `json:"type"`
}

type edgeJSON struct {
	Pred BlockID `json:"pred"`
	Val  ValueID `json:"val"`
}

// instrJSON is the flat wire form of one instruction; the Op tag selects
// which fields are meaningful.
type instrJSON struct {
	Op     string     `json:"op"`
	ID     ValueID    `json:"id,omitempty"`
	Type   string     `json:"type,omitempty"`
	Value  string     `json:"value,omitempty"`
	Tok    string     `json:"tok,omitempty"`
	X      ValueID    `json:"x,omitempty"`
	Y      ValueID    `json:"y,omitempty"`
	Addr   ValueID    `json:"addr,omitempty"`
	Val    ValueID    `json:"val,omitempty"`
	Chan   ValueID    `json:"chan,omitempty"`
	Callee string     `json:"callee,omitempty"`
	Args   []ValueID  `json:"args,omitempty"`
	Edges  []edgeJSON `json:"edges,omitempty"`
	Cond   ValueID    `json:"cond,omitempty"`
	Target BlockID    `json:"target,omitempty"`
	Then   BlockID    `json:"then,omitempty"`
	Else   BlockID    `json:"else,omitempty"`
}

type blockJSON struct {
	ID     BlockID     `json:"id"`
	Name   string      `json:"name,omitempty"`
	Instrs []instrJSON `json:"instrs"`
}

type functionJSON struct {
	Name   string      `json:"name"`
	Params []paramJSON `json:"params,omitempty"`
	Blocks []blockJSON `json:"blocks"`
}

// MarshalJSON implements json.Marshaler.
func (f *Function) MarshalJSON() ([]byte, error) {
	out := functionJSON{Name: f.Name}
	for _, p := range f.Params {
		out.Params = append(out.Params, paramJSON{ID: p.ID, Name: p.Name, Type: p.Type.String()})
	}
	for _, b := range f.Blocks {
		bj := blockJSON{ID: b.ID, Name: b.Name, Instrs: make([]instrJSON, 0, len(b.Instrs))}
		for _, in := range b.Instrs {
			ij, err := encodeInstr(in)
			if err != nil {
				return nil, errors.Wrapf(err, "function %s block b%d", f.Name, b.ID)
			}
			bj.Instrs = append(bj.Instrs, ij)
		}
		out.Blocks = append(out.Blocks, bj)
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. The decoded function has its
// adjacency maps and id allocators rebuilt and is ready for use.
func (f *Function) UnmarshalJSON(data []byte) error {
	var in functionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return errors.Wrap(err, "ir: cannot decode function")
	}
	dec := NewFunction(in.Name)
	maxValue := InvalidValue
	note := func(id ValueID) {
		if id > maxValue {
			maxValue = id
		}
	}
	for _, p := range in.Params {
		t, ok := typeByName[p.Type]
		if !ok {
			return errors.Wrapf(ErrBadType, "%s: param %s: %q", in.Name, p.Name, p.Type)
		}
		dec.Params = append(dec.Params, Param{ID: p.ID, Name: p.Name, Type: t})
		note(p.ID)
	}
	maxBlock := BlockID(0)
	for _, bj := range in.Blocks {
		b := &Block{ID: bj.ID, Name: bj.Name}
		for _, ij := range bj.Instrs {
			instr, err := decodeInstr(ij)
			if err != nil {
				return errors.Wrapf(err, "function %s block b%d", in.Name, bj.ID)
			}
			note(instr.Result())
			b.Instrs = append(b.Instrs, instr)
		}
		dec.Blocks = append(dec.Blocks, b)
		if bj.ID >= maxBlock {
			maxBlock = bj.ID + 1
		}
	}
	dec.nextValue = maxValue + 1
	dec.nextBlock = maxBlock
	dec.RebuildEdges()
	*f = *dec
	return nil
}

func encodeInstr(in Instr) (instrJSON, error) {
	switch in := in.(type) {
	case *Constant:
		val, err := encodeConstant(in)
		if err != nil {
			return instrJSON{}, err
		}
		return instrJSON{Op: "const", ID: in.ID, Type: in.Type.String(), Value: val}, nil
	case *BinaryOp:
		return instrJSON{Op: "binop", ID: in.ID, Type: in.Type.String(), Tok: in.Op.String(), X: in.X, Y: in.Y}, nil
	case *UnaryOp:
		return instrJSON{Op: "unop", ID: in.ID, Type: in.Type.String(), Tok: in.Op.String(), X: in.X}, nil
	case *Convert:
		return instrJSON{Op: "convert", ID: in.ID, Type: in.Type.String(), X: in.X}, nil
	case *Alloc:
		return instrJSON{Op: "alloc", ID: in.ID, Type: in.Elem.String()}, nil
	case *Load:
		return instrJSON{Op: "load", ID: in.ID, Type: in.Type.String(), Addr: in.Addr}, nil
	case *Store:
		return instrJSON{Op: "store", Addr: in.Addr, Val: in.Val}, nil
	case *Send:
		return instrJSON{Op: "send", Chan: in.Chan, Val: in.Val}, nil
	case *Call:
		return instrJSON{Op: "call", ID: in.ID, Type: in.Type.String(), Callee: in.Callee, Args: in.Args}, nil
	case *Phi:
		edges := make([]edgeJSON, len(in.Edges))
		for i, e := range in.Edges {
			edges[i] = edgeJSON{Pred: e.Pred, Val: e.Val}
		}
		return instrJSON{Op: "phi", ID: in.ID, Type: in.Type.String(), Edges: edges}, nil
	case *Branch:
		return instrJSON{Op: "br", Target: in.Target}, nil
	case *CondBranch:
		return instrJSON{Op: "condbr", Cond: in.Cond, Then: in.Then, Else: in.Else}, nil
	case *Return:
		return instrJSON{Op: "ret", Val: in.Val}, nil
	}
	return instrJSON{}, errors.Wrapf(ErrBadInstr, "%T", in)
}

func decodeInstr(ij instrJSON) (Instr, error) {
	typ := func() (Type, error) {
		t, ok := typeByName[ij.Type]
		if !ok {
			return TypeVoid, errors.Wrapf(ErrBadType, "%q", ij.Type)
		}
		return t, nil
	}
	tok := func() (token.Token, error) {
		t, ok := tokenByName[ij.Tok]
		if !ok {
			return token.ILLEGAL, errors.Wrapf(ErrBadOp, "%q", ij.Tok)
		}
		return t, nil
	}
	switch ij.Op {
	case "const":
		t, err := typ()
		if err != nil {
			return nil, err
		}
		val, err := decodeConstant(t, ij.Value)
		if err != nil {
			return nil, err
		}
		return &Constant{ID: ij.ID, Type: t, Value: val}, nil
	case "binop":
		t, err := typ()
		if err != nil {
			return nil, err
		}
		op, err := tok()
		if err != nil {
			return nil, err
		}
		return &BinaryOp{ID: ij.ID, Type: t, Op: op, X: ij.X, Y: ij.Y}, nil
	case "unop":
		t, err := typ()
		if err != nil {
			return nil, err
		}
		op, err := tok()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{ID: ij.ID, Type: t, Op: op, X: ij.X}, nil
	case "convert":
		t, err := typ()
		if err != nil {
			return nil, err
		}
		return &Convert{ID: ij.ID, Type: t, X: ij.X}, nil
	case "alloc":
		t, err := typ()
		if err != nil {
			return nil, err
		}
		return &Alloc{ID: ij.ID, Elem: t}, nil
	case "load":
		t, err := typ()
		if err != nil {
			return nil, err
		}
		return &Load{ID: ij.ID, Type: t, Addr: ij.Addr}, nil
	case "store":
		return &Store{Addr: ij.Addr, Val: ij.Val}, nil
	case "send":
		return &Send{Chan: ij.Chan, Val: ij.Val}, nil
	case "call":
		t := TypeVoid
		if ij.Type != "" {
			var err error
			if t, err = typ(); err != nil {
				return nil, err
			}
		}
		return &Call{ID: ij.ID, Type: t, Callee: ij.Callee, Args: ij.Args}, nil
	case "phi":
		t, err := typ()
		if err != nil {
			return nil, err
		}
		edges := make([]PhiEdge, len(ij.Edges))
		for i, e := range ij.Edges {
			edges[i] = PhiEdge{Pred: e.Pred, Val: e.Val}
		}
		return &Phi{ID: ij.ID, Type: t, Edges: edges}, nil
	case "br":
		return &Branch{Target: ij.Target}, nil
	case "condbr":
		return &CondBranch{Cond: ij.Cond, Then: ij.Then, Else: ij.Else}, nil
	case "ret":
		return &Return{Val: ij.Val}, nil
	}
	return nil, errors.Wrapf(ErrBadInstr, "%q", ij.Op)
}

// encodeConstant renders a constant payload by its declared type.
func encodeConstant(c *Constant) (string, error) {
	switch c.Type {
	case TypeInt:
		n, ok := constant.Int64Val(c.Value)
		if !ok {
			return "", errors.Wrapf(ErrBadConstant, "%s is not an int64", c.Value)
		}
		return strconv.FormatInt(n, 10), nil
	case TypeFloat:
		fl, _ := constant.Float64Val(c.Value)
		return strconv.FormatFloat(fl, 'g', -1, 64), nil
	case TypeBool:
		return strconv.FormatBool(constant.BoolVal(c.Value)), nil
	case TypeString:
		return constant.StringVal(c.Value), nil
	}
	return "", errors.Wrapf(ErrBadConstant, "constant of type %s", c.Type)
}

// decodeConstant parses a constant payload by its declared type.
func decodeConstant(t Type, raw string) (constant.Value, error) {
	switch t {
	case TypeInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrBadConstant, "int %q", raw)
		}
		return constant.MakeInt64(n), nil
	case TypeFloat:
		fl, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrBadConstant, "float %q", raw)
		}
		return constant.MakeFloat64(fl), nil
	case TypeBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errors.Wrapf(ErrBadConstant, "bool %q", raw)
		}
		return constant.MakeBool(b), nil
	case TypeString:
		return constant.MakeString(raw), nil
	}
	return nil, errors.Wrapf(ErrBadConstant, "constant of type %s", t)
}
