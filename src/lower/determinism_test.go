package lower

import (
	"sort"
	"testing"

	"github.com/segmentio/encoding/json"

	"github.com/hhramberg/closurec/src/llir"
	"github.com/hhramberg/closurec/src/sfir"
)

// moduleSnapshot captures everything about a lowered module that a second, independent lowering
// of the exact same input must reproduce byte-for-byte: every function and global's own textual
// dump, keyed by name and sorted, so map/slice iteration order can never introduce a spurious
// diff of its own.
type moduleSnapshot struct {
	Functions map[string]string `json:"functions"`
	Globals   map[string]string `json:"globals"`
}

func snapshot(m *llir.Module) moduleSnapshot {
	s := moduleSnapshot{Functions: map[string]string{}, Globals: map[string]string{}}
	for _, fn := range m.Functions() {
		s.Functions[fn.Name()] = fn.String()
	}
	for _, g := range m.Globals() {
		s.Globals[g.Name()] = g.String()
	}
	return s
}

func fixedDefinitions() []*sfir.Definition {
	boxed := sfir.Record{Name: "Pair", Boxed: true, Elements: []sfir.Type{float64T, float64T}}
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
	makePair := &sfir.Definition{
		Name:       "make_pair",
		Arguments:  []sfir.Argument{{Name: "x", Type: float64T}},
		ResultType: boxed,
		Body: sfir.RecordConstruct{
			Type:     boxed,
			Elements: []sfir.Expression{sfir.Variable{Name: "x"}, sfir.Variable{Name: "x"}},
		},
	}
	return []*sfir.Definition{add, makePair}
}

// TestLoweringIsDeterministic covers spec §8 item 5: lowering the same well-typed module twice,
// independently, must produce byte-identical functions and globals — no map-iteration-order or
// id-generator leakage between separate Module() calls.
func TestLoweringIsDeterministic(t *testing.T) {
	boxed := sfir.Record{Name: "Pair", Boxed: true, Elements: []sfir.Type{float64T, float64T}}
	m := sfir.Module{
		TypeDefinitions: []sfir.TypeDefinition{{Name: "Pair", Type: boxed}},
		Definitions:     fixedDefinitions(),
	}

	out1 := mustLower(t, m)
	out2 := mustLower(t, sfir.Module{
		TypeDefinitions: []sfir.TypeDefinition{{Name: "Pair", Type: boxed}},
		Definitions:     fixedDefinitions(),
	})

	snap1, snap2 := snapshot(out1), snapshot(out2)

	names1, names2 := sortedKeys(snap1.Functions), sortedKeys(snap2.Functions)
	if len(names1) != len(names2) {
		t.Fatalf("function count differs: %d vs %d", len(names1), len(names2))
	}
	for i := range names1 {
		if names1[i] != names2[i] {
			t.Fatalf("function name set differs at %d: %s vs %s", i, names1[i], names2[i])
		}
	}

	j1, err := json.Marshal(snap1)
	if err != nil {
		t.Fatalf("json.Marshal(snap1) = %v, want nil", err)
	}
	j2, err := json.Marshal(snap2)
	if err != nil {
		t.Fatalf("json.Marshal(snap2) = %v, want nil", err)
	}
	if string(j1) != string(j2) {
		t.Fatalf("lowering is not deterministic:\nfirst:  %s\nsecond: %s", j1, j2)
	}
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
