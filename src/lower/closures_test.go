package lower

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hhramberg/closurec/src/llir/types"
	"github.com/hhramberg/closurec/src/sfir"
)

// TestCurriedStagesRoundTrip covers spec §8 item 4: lowering an arity-2 curried definition
// produces exactly two stages whose signatures chain together consistently with a call site
// written as f(a)(b) — stage 1's result is a pointer to an UnsizedClosure over stage 2's
// signature, and stage 2's result is the definition's own lowered result type, regardless of
// whether a caller applies the two arguments one at a time or (hypothetically) as a single
// two-argument call.
func TestCurriedStagesRoundTrip(t *testing.T) {
	add := &sfir.Definition{
		Name: "add",
		Arguments: []sfir.Argument{
			{Name: "a", Type: float64T},
			{Name: "b", Type: float64T},
		},
		ResultType: float64T,
		Body: sfir.Arithmetic{
			Operator: sfir.Add,
			LHS:      sfir.Variable{Name: "a"},
			RHS:      sfir.Variable{Name: "b"},
		},
	}
	c := newContext(sfir.Module{Definitions: []*sfir.Definition{add}})

	stages := c.curriedStages(add)
	if got := len(stages); got != 2 {
		t.Fatalf("len(curriedStages()) = %d, want 2", got)
	}

	// Stage 1 (f(a)): empty environment in, one Float64 argument, returns a pointer to an
	// UnsizedClosure wrapping stage 2's own signature.
	if got := len(stages[0].envType.Elements); got != 0 {
		t.Fatalf("stage 1 envType has %d elements, want 0", got)
	}
	wantStage1Result := types.PointerType{Pointee: types.UnsizedClosureType{Function: stages[1].sig}}
	if diff := cmp.Diff(wantStage1Result, stages[0].sig.Result); diff != "" {
		t.Fatalf("stage 1 result type mismatch (-want +got):\n%s", diff)
	}

	// Stage 2 (the inner call, applied against the environment stage 1 packaged with `a`):
	// one Float64 element already captured (`a`), one more Float64 argument (`b`), returns
	// add's own Float64 result type directly — the same type a hypothetical single
	// two-argument call site would expect back.
	wantStage2Env := types.RecordType{Elements: []types.Type{types.Primitive{K: types.Float64}}}
	if diff := cmp.Diff(wantStage2Env, stages[1].envType); diff != "" {
		t.Fatalf("stage 2 environment mismatch (-want +got):\n%s", diff)
	}
	if got := stages[1].sig.Result; !got.Equal(types.Primitive{K: types.Float64}) {
		t.Fatalf("stage 2 result = %v, want Float64", got)
	}

	// Both stages share the calling convention f(a)(b) and a hypothetical flattened call
	// would both rely on: Source, one environment pointer plus one argument per stage.
	for i, st := range stages {
		if st.sig.CallingConvention != types.Source {
			t.Fatalf("stage %d calling convention = %v, want Source", i+1, st.sig.CallingConvention)
		}
		if got := len(st.sig.Parameters); got != 2 {
			t.Fatalf("stage %d has %d parameters, want 2 (environment, argument)", i+1, got)
		}
	}
}
