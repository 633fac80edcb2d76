package lower

import (
	"strings"
	"testing"

	"github.com/hhramberg/closurec/src/llir/types"
	"github.com/hhramberg/closurec/src/sfir"
)

// TestThunkShapeAppendsResultSlot checks §4.5's record layout: a thunk's environment is the
// captured free variables plus exactly one trailing slot sized for the memoized result, and its
// three (init/locked/normal) functions share one (envPtr, argPtr) -> result signature.
func TestThunkShapeAppendsResultSlot(t *testing.T) {
	d := &sfir.Definition{
		Name:       "lazy_sum",
		ResultType: float64T,
		IsThunk:    true,
		Environment: []sfir.Argument{
			{Name: "a", Type: float64T},
			{Name: "b", Type: float64T},
		},
	}
	c := newContext(sfir.Module{})

	envType, sig := c.thunkShape(d)
	if got := len(envType.Elements); got != 3 {
		t.Fatalf("len(envType.Elements) = %d, want 3 (2 captured + 1 result slot)", got)
	}
	if got := thunkResultField(d.Environment); got != 2 {
		t.Fatalf("thunkResultField() = %d, want 2", got)
	}
	if got := envType.Elements[thunkResultField(d.Environment)]; !got.Equal(types.Primitive{K: types.Float64}) {
		t.Fatalf("result slot type = %v, want Float64", got)
	}

	wantParams := []types.Type{
		types.PointerType{Pointee: types.Primitive{K: types.Void}},
		types.PointerType{Pointee: types.Primitive{K: types.Void}},
	}
	if got := len(sig.Parameters); got != len(wantParams) {
		t.Fatalf("len(sig.Parameters) = %d, want %d", got, len(wantParams))
	}
	for i, p := range wantParams {
		if !sig.Parameters[i].Equal(p) {
			t.Fatalf("sig.Parameters[%d] = %v, want %v", i, sig.Parameters[i], p)
		}
	}
	if !sig.Result.Equal(types.Primitive{K: types.Float64}) {
		t.Fatalf("sig.Result = %v, want Float64", sig.Result)
	}
}

// TestThunkLoweringEmitsInitLockedNormalTrio checks that lowering a zero-argument thunk
// definition produces all three named stages the state machine (§4.5) requires.
func TestThunkLoweringEmitsInitLockedNormalTrio(t *testing.T) {
	d := &sfir.Definition{
		Name:       "answer",
		Arguments:  []sfir.Argument{},
		ResultType: float64T,
		IsThunk:    true,
		Body:       sfir.NumberLiteral{Value: 42},
	}
	m := sfir.Module{Definitions: []*sfir.Definition{d}}
	out := mustLower(t, m)

	suffixes := []string{"_thunk_init", "_thunk_locked", "_thunk_normal"}
	for _, suffix := range suffixes {
		found := false
		for _, fn := range out.Functions() {
			if strings.HasPrefix(fn.Name(), "answer"+suffix) {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("no function named answer%s<N> among %v", suffix, functionNames(out))
		}
	}
}
