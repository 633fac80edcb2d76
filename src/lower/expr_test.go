package lower

import (
	"strings"
	"testing"

	"github.com/hhramberg/closurec/src/llir"
	"github.com/hhramberg/closurec/src/llir/types"
	"github.com/hhramberg/closurec/src/sfir"
)

// TestLowerIfBranchesShareMergeBlock checks that both arms of an If lower without error and
// that the surrounding definition still produces a single entry function — i.e. lowering
// doesn't leak an unterminated or duplicate block out of the conditional.
func TestLowerIfBranchesShareMergeBlock(t *testing.T) {
	d := &sfir.Definition{
		Name:       "abs_ish",
		Arguments:  []sfir.Argument{{Name: "x", Type: float64T}},
		ResultType: float64T,
		Body: sfir.If{
			Condition: sfir.Comparison{Operator: sfir.LessThan, LHS: sfir.Variable{Name: "x"}, RHS: sfir.NumberLiteral{Value: 0}},
			Then:      sfir.Arithmetic{Operator: sfir.Subtract, LHS: sfir.NumberLiteral{Value: 0}, RHS: sfir.Variable{Name: "x"}},
			Else:      sfir.Variable{Name: "x"},
		},
	}
	m := sfir.Module{Definitions: []*sfir.Definition{d}}
	out := mustLower(t, m)

	var entries []*llir.Function
	for _, f := range out.Functions() {
		if strings.Contains(f.Name(), "_entry") {
			entries = append(entries, f)
		}
	}
	if len(entries) != 1 {
		t.Fatalf("entry functions = %d, want 1", len(entries))
	}
	seen := map[string]bool{}
	var merge *llir.Block
	branches := 0
	for _, blk := range entries[0].Blocks() {
		if !blk.Terminated() {
			t.Errorf("block %s is not terminated", blk.Name())
		}
		if seen[blk.Name()] {
			t.Errorf("block %s appears twice", blk.Name())
		}
		seen[blk.Name()] = true
		insts := blk.Instructions()
		if len(insts) == 0 {
			continue
		}
		br, ok := insts[len(insts)-1].(*llir.BranchInst)
		if !ok {
			continue
		}
		branches++
		if merge == nil {
			merge = br.Target
		} else if br.Target != merge {
			t.Errorf("arm jumps to %s, want shared merge block %s", br.Target.Name(), merge.Name())
		}
	}
	if branches != 2 {
		t.Errorf("unconditional branches = %d, want 2 (one per arm)", branches)
	}
}

// TestLowerNestedLet checks a chain of nested Lets, each shadowing the scope it's built on top
// of, lowers to a single value without losing an outer binding a later Let doesn't shadow.
func TestLowerNestedLet(t *testing.T) {
	d := &sfir.Definition{
		Name:       "nested",
		Arguments:  []sfir.Argument{{Name: "x", Type: float64T}},
		ResultType: float64T,
		Body: sfir.Let{
			Name:  "y",
			Type:  float64T,
			Bound: sfir.Arithmetic{Operator: sfir.Add, LHS: sfir.Variable{Name: "x"}, RHS: sfir.NumberLiteral{Value: 1}},
			Body: sfir.Let{
				Name:  "z",
				Type:  float64T,
				Bound: sfir.Arithmetic{Operator: sfir.Multiply, LHS: sfir.Variable{Name: "y"}, RHS: sfir.NumberLiteral{Value: 2}},
				Body:  sfir.Arithmetic{Operator: sfir.Add, LHS: sfir.Variable{Name: "x"}, RHS: sfir.Variable{Name: "z"}},
			},
		},
	}
	m := sfir.Module{Definitions: []*sfir.Definition{d}}
	mustLower(t, m)
}

// TestLowerUnboxedRecordElement checks an unboxed (by-value) record constructs and projects
// without a heap allocation of the record itself and without any eir_ clone/drop helper. (The
// curried definition's first stage still heap-allocates the closure record capturing a.)
func TestLowerUnboxedRecordElement(t *testing.T) {
	point := sfir.Record{Elements: []sfir.Type{float64T, float64T}}
	d := &sfir.Definition{
		Name:       "x_of",
		Arguments:  []sfir.Argument{{Name: "a", Type: float64T}, {Name: "b", Type: float64T}},
		ResultType: float64T,
		Body: sfir.RecordElement{
			Type:  point,
			Value: sfir.RecordConstruct{Type: point, Elements: []sfir.Expression{sfir.Variable{Name: "a"}, sfir.Variable{Name: "b"}}},
			Index: 0,
		},
	}
	m := sfir.Module{Definitions: []*sfir.Definition{d}}
	out := mustLower(t, m)

	pointType := types.RecordType{Elements: []types.Type{types.Primitive{K: types.Float64}, types.Primitive{K: types.Float64}}}
	for _, f := range out.Functions() {
		if strings.HasPrefix(f.Name(), "eir_") {
			t.Errorf("unexpected clone/drop helper %s", f.Name())
		}
		for _, blk := range f.Blocks() {
			for _, inst := range blk.Instructions() {
				alloc, ok := inst.(*llir.AllocateHeapInst)
				if !ok {
					continue
				}
				if alloc.Type().(types.PointerType).Pointee.Equal(pointType) {
					t.Errorf("%s heap-allocates the unboxed record %s", f.Name(), pointType)
				}
			}
		}
	}
}

// TestLowerPrimitiveCase checks a Case over a primitive (non-variant) scrutinee with a default
// alternative.
func TestLowerPrimitiveCase(t *testing.T) {
	d := &sfir.Definition{
		Name:       "day_name",
		Arguments:  []sfir.Argument{{Name: "n", Type: float64T}},
		ResultType: float64T,
		Body: sfir.Case{
			Argument: sfir.Variable{Name: "n"},
			PrimitiveAlternatives: []sfir.PrimitiveAlternative{
				{Value: sfir.NumberLiteral{Value: 0}, Expression: sfir.NumberLiteral{Value: 100}},
				{Value: sfir.NumberLiteral{Value: 1}, Expression: sfir.NumberLiteral{Value: 200}},
			},
			Default: sfir.NumberLiteral{Value: -1},
		},
	}
	m := sfir.Module{Definitions: []*sfir.Definition{d}}
	mustLower(t, m)
}
