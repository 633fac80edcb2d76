package llir

import (
	"fmt"
	"strings"

	"github.com/hhramberg/closurec/src/llir/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Function is an LL-IR function: a typed parameter list, a result type, a calling convention,
// and an ordered sequence of basic blocks.
type Function struct {
	m         *Module
	id        int
	name      string
	signature types.FunctionType
	linkage   types.Linkage
	params    []*Param
	blocks    []*Block
	seq       int
}

// ---------------------
// ----- functions -----
// ---------------------

// Name returns f's symbol name.
func (f *Function) Name() string { return f.name }

// Signature returns f's FunctionType.
func (f *Function) Signature() types.FunctionType { return f.signature }

// Linkage returns f's linkage.
func (f *Function) Linkage() types.Linkage { return f.linkage }

// Params returns f's parameters, in declared order; for a Source-convention closure entry
// function, Params()[0] is always the environment pointer.
func (f *Function) Params() []*Param { return f.params }

// Blocks returns f's basic blocks in creation order.
func (f *Function) Blocks() []*Block { return f.blocks }

// CreateBlock appends a new, empty basic block to f.
func (f *Function) CreateBlock(label string) *Block {
	b := &Block{
		f:            f,
		id:           f.m.getId(),
		label:        label,
		instructions: make([]Value, 0, 16),
	}
	f.blocks = append(f.blocks, b)
	return b
}

// getId returns a function-local unique identifier for a value defined within f.
func (f *Function) getId() int {
	id := f.seq
	f.seq++
	return id
}

// String returns the textual LL-IR representation of f.
func (f *Function) String() string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("function %s(", f.name))
	for i, p := range f.params {
		sb.WriteString(p.String())
		if i < len(f.params)-1 {
			sb.WriteString(", ")
		}
	}
	sb.WriteString(fmt.Sprintf("): %s [%s] {\n", f.signature.Result.String(), f.linkage))
	for _, b := range f.blocks {
		sb.WriteString(b.String())
	}
	sb.WriteString("}\n")
	return sb.String()
}
