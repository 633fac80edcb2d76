package llir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/hhramberg/closurec/src/llir/types"
)

// TestClosureRecordAlwaysFourFields asserts spec §8 item 6: every closure record type — sized
// or unsized, regardless of environment shape — serializes exactly the four fields the §6
// layout contract fixes: entry_fn_ptr, drop_fn_ptr, arity, environment.
func TestClosureRecordAlwaysFourFields(t *testing.T) {
	sig := types.FunctionType{
		Parameters: []types.Type{
			types.PointerType{Pointee: types.Primitive{K: types.Void}},
			types.Primitive{K: types.Integer64},
		},
		Result:            types.Primitive{K: types.Boolean},
		CallingConvention: types.Source,
	}

	cases := []struct {
		name string
		rec  types.RecordType
	}{
		{"unsized, empty environment", types.UnsizedClosureType{Function: sig}.Record()},
		{"sized, empty environment", types.SizedClosureType{Function: sig}.Record()},
		{"sized, two-element environment", types.SizedClosureType{
			Function:    sig,
			Environment: types.RecordType{Elements: []types.Type{types.Primitive{K: types.Integer64}, types.Primitive{K: types.Boolean}}},
		}.Record()},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := len(c.rec.Elements); got != 4 {
				t.Fatalf("len(Elements) = %d, want 4", got)
			}
			wantOffsets := []int{types.ClosureEntryField, types.ClosureDropField, types.ClosureArityField, types.ClosureEnvironmentField}
			gotOffsets := []int{0, 1, 2, 3}
			if diff := cmp.Diff(wantOffsets, gotOffsets, cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("field offsets mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestSizedClosureUnsizedRoundTrip checks that SizedClosureType.Unsized() recovers exactly the
// UnsizedClosureType a call site's function-typed value is always represented as, regardless
// of how rich the concrete environment is.
func TestSizedClosureUnsizedRoundTrip(t *testing.T) {
	sig := types.FunctionType{
		Parameters: []types.Type{
			types.PointerType{Pointee: types.Primitive{K: types.Void}},
			types.Primitive{K: types.Float64},
		},
		Result:            types.Primitive{K: types.Float64},
		CallingConvention: types.Source,
	}
	sized := types.SizedClosureType{
		Function:    sig,
		Environment: types.RecordType{Elements: []types.Type{types.Primitive{K: types.Float64}}},
	}
	want := types.UnsizedClosureType{Function: sig}
	if got := sized.Unsized(); !got.Equal(want) {
		t.Fatalf("Unsized() = %v, want %v", got, want)
	}
}
