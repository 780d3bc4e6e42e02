// Package ir is the SSA half of the program model.
//
// A Function owns its Basic Blocks in order, entry block first. Blocks own
// their instruction lists and nothing else: the block graph's
// predecessor/successor edges are index-based adjacency maps owned by the
// Function, so the cycles a loop introduces never turn into cyclic
// ownership between blocks. Every SSA value is defined by exactly one
// instruction or parameter and referenced by id, never by pointer.
//
// Analysis reads functions in place; optimization passes work on a Clone.
// Derived structure (dominance, loops) is recomputed on demand and never
// stored on the Function, because passes change the block graph.
package ir

// ValueID names an SSA value. The zero ValueID is "no value".
type ValueID uint32

// InvalidValue is the id of the absent value, e.g. the result of a Store.
const InvalidValue ValueID = 0

// BlockID names a basic block within its Function. Blocks are numbered
// from 0 in creation order; the entry block is always b0.
type BlockID uint32

// Type is the value type attached to instructions. The model keeps types
// flat: compound structure is the front-end's business.
type Type int

const (
	TypeVoid Type = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeString
	TypeChan
	TypePtr
)

var typeNames = [...]string{
	TypeVoid:   "void",
	TypeInt:    "int",
	TypeFloat:  "float",
	TypeBool:   "bool",
	TypeString: "string",
	TypeChan:   "chan",
	TypePtr:    "ptr",
}

func (t Type) String() string {
	if t < TypeVoid || int(t) >= len(typeNames) {
		return "invalid"
	}
	return typeNames[t]
}

// Param is a function parameter. Parameters define SSA values exactly like
// instructions do, but live on the Function rather than in a block.
type Param struct {
	ID   ValueID
	Name string
	Type Type
}

// Block is a basic block: a maximal straight-line instruction sequence.
// The last instruction of a well-formed block is its only terminator.
type Block struct {
	ID     BlockID
	Name   string // optional label, printing only
	Instrs []Instr
}

// Term returns the block's terminator, or nil if the block is empty or
// does not end in one.
func (b *Block) Term() Term {
	if len(b.Instrs) == 0 {
		return nil
	}
	t, ok := b.Instrs[len(b.Instrs)-1].(Term)
	if !ok {
		return nil
	}
	return t
}

// Append adds instructions to the end of the block.
func (b *Block) Append(instrs ...Instr) {
	b.Instrs = append(b.Instrs, instrs...)
}

// Function is one SSA function body.
type Function struct {
	Name   string
	Params []Param
	Blocks []*Block // entry first

	// Succs and Preds are the adjacency maps of the block graph, derived
	// from block terminators. Mutating passes call RebuildEdges after
	// changing terminators or the block list.
	Succs map[BlockID][]BlockID
	Preds map[BlockID][]BlockID

	index     map[BlockID]*Block
	nextValue ValueID
	nextBlock BlockID
}

// NewFunction returns an empty function with no blocks.
func NewFunction(name string) *Function {
	return &Function{
		Name:      name,
		Succs:     make(map[BlockID][]BlockID),
		Preds:     make(map[BlockID][]BlockID),
		index:     make(map[BlockID]*Block),
		nextValue: InvalidValue + 1,
	}
}

// AddParam appends a parameter and returns its fresh value id.
func (f *Function) AddParam(name string, t Type) ValueID {
	id := f.NewValue()
	f.Params = append(f.Params, Param{ID: id, Name: name, Type: t})
	return id
}

// NewValue allocates a fresh SSA value id.
func (f *Function) NewValue() ValueID {
	id := f.nextValue
	f.nextValue++
	return id
}

// NewBlock appends a new empty block and returns it. The first block
// created is the entry block.
func (f *Function) NewBlock(name string) *Block {
	b := &Block{ID: f.nextBlock, Name: name}
	f.nextBlock++
	f.Blocks = append(f.Blocks, b)
	f.index[b.ID] = b
	return b
}

// Block returns the block with the given id, or nil.
func (f *Function) Block(id BlockID) *Block {
	return f.index[id]
}

// Entry returns the entry block, or nil for an empty function.
func (f *Function) Entry() *Block {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// RebuildEdges recomputes the adjacency maps and the block index from the
// current block list and terminators. Edges to missing blocks are dropped;
// Verify reports them.
func (f *Function) RebuildEdges() {
	f.index = make(map[BlockID]*Block, len(f.Blocks))
	f.Succs = make(map[BlockID][]BlockID, len(f.Blocks))
	f.Preds = make(map[BlockID][]BlockID, len(f.Blocks))
	for _, b := range f.Blocks {
		f.index[b.ID] = b
	}
	for _, b := range f.Blocks {
		t := b.Term()
		if t == nil {
			continue
		}
		for _, tgt := range t.Targets() {
			if _, ok := f.index[tgt]; !ok {
				continue
			}
			f.Succs[b.ID] = append(f.Succs[b.ID], tgt)
			f.Preds[tgt] = append(f.Preds[tgt], b.ID)
		}
	}
}

// Defs returns the defining instruction for every instruction-defined
// value. Parameters are definitions too but have no instruction; use
// IsParam for those.
func (f *Function) Defs() map[ValueID]Instr {
	defs := make(map[ValueID]Instr)
	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			if id := in.Result(); id != InvalidValue {
				defs[id] = in
			}
		}
	}
	return defs
}

// IsParam reports whether id is defined by a parameter.
func (f *Function) IsParam(id ValueID) bool {
	for _, p := range f.Params {
		if p.ID == id {
			return true
		}
	}
	return false
}

// InstrCount returns the total number of instructions across all blocks.
func (f *Function) InstrCount() int {
	n := 0
	for _, b := range f.Blocks {
		n += len(b.Instrs)
	}
	return n
}

// PrunePhiEdges drops phi inputs in block b that name pred as their
// incoming edge. Passes call this when an edge into b is removed, before
// rebuilding the adjacency maps.
func (f *Function) PrunePhiEdges(b, pred BlockID) {
	blk := f.Block(b)
	if blk == nil {
		return
	}
	for _, in := range blk.Instrs {
		phi, ok := in.(*Phi)
		if !ok {
			continue
		}
		kept := phi.Edges[:0]
		for _, e := range phi.Edges {
			if e.Pred != pred {
				kept = append(kept, e)
			}
		}
		phi.Edges = kept
	}
}
