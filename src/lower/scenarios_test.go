package lower

import (
	"strings"
	"testing"

	"github.com/hhramberg/closurec/src/check"
	"github.com/hhramberg/closurec/src/llir"
	"github.com/hhramberg/closurec/src/sfir"
)

// float64T is the SF-IR type used throughout these fixtures; SF-IR's own Float64 primitive.
var float64T = sfir.Primitive{Kind: sfir.Float64}

// mustLower checks and lowers m, failing the test immediately on either error.
func mustLower(t *testing.T, m sfir.Module) *llir.Module {
	t.Helper()
	if err := check.Check(m); err != nil {
		t.Fatalf("check.Check() = %v, want nil", err)
	}
	out, err := Module(m)
	if err != nil {
		t.Fatalf("Module() = %v, want nil", err)
	}
	if out == nil {
		t.Fatal("Module() returned a nil *llir.Module")
	}
	return out
}

// TestScenarioIdentity covers spec §8's Identity scenario: `define id(x: Float64): Float64 = x`.
func TestScenarioIdentity(t *testing.T) {
	m := sfir.Module{
		Definitions: []*sfir.Definition{
			{
				Name:       "id",
				Arguments:  []sfir.Argument{{Name: "x", Type: float64T}},
				ResultType: float64T,
				Body:       sfir.Variable{Name: "x"},
			},
		},
	}
	out := mustLower(t, m)
	if len(out.Functions()) == 0 {
		t.Fatal("Functions() is empty, want id's entry stage function")
	}
	found := false
	for _, f := range out.Functions() {
		if strings.HasPrefix(f.Name(), "id_entry") {
			found = true
		}
	}
	if !found {
		t.Fatalf("no function named id_entry<N> among %v", functionNames(out))
	}
}

func functionNames(m *llir.Module) []string {
	names := make([]string, len(m.Functions()))
	for i, f := range m.Functions() {
		names[i] = f.Name()
	}
	return names
}

// TestScenarioCurriedAdd covers spec §8's Curried add scenario:
// `define add(a: Float64)(b: Float64): Float64 = a + b`, applied as add(1)(2).
func TestScenarioCurriedAdd(t *testing.T) {
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
	applyTwo := &sfir.Definition{
		Name:       "apply_add",
		Arguments:  []sfir.Argument{},
		ResultType: float64T,
		IsThunk:    true,
		Body: sfir.FunctionApplication{
			Function: sfir.FunctionApplication{
				Function: sfir.Variable{Name: "add"},
				Argument: sfir.NumberLiteral{Value: 1},
			},
			Argument: sfir.NumberLiteral{Value: 2},
		},
	}
	m := sfir.Module{Definitions: []*sfir.Definition{add, applyTwo}}
	mustLower(t, m)
}

// TestScenarioVariant covers spec §8's Variant scenario: constructing and matching a tagged
// value carrying a Float64 payload.
func TestScenarioVariant(t *testing.T) {
	d := &sfir.Definition{
		Name:       "classify",
		Arguments:  []sfir.Argument{{Name: "x", Type: float64T}},
		ResultType: float64T,
		Body: sfir.Case{
			Argument: sfir.VariantConstruct{Tag: "num", Payload: sfir.Variable{Name: "x"}},
			VariantAlternatives: []sfir.VariantAlternative{
				{Type: float64T, Name: "num", Expression: sfir.Variable{Name: "num"}},
			},
		},
	}
	m := sfir.Module{Definitions: []*sfir.Definition{d}}
	mustLower(t, m)
}

// TestScenarioRefcount covers spec §8's Refcount scenario: a boxed record cloned into a let
// binding and dropped at the end of the body.
func TestScenarioRefcount(t *testing.T) {
	boxed := sfir.Record{Name: "Pair", Boxed: true, Elements: []sfir.Type{float64T, float64T}}
	d := &sfir.Definition{
		Name:       "make_pair",
		Arguments:  []sfir.Argument{{Name: "x", Type: float64T}},
		ResultType: float64T,
		Body: sfir.Let{
			Name: "p",
			Type: boxed,
			Bound: sfir.RecordConstruct{
				Type:     boxed,
				Elements: []sfir.Expression{sfir.Variable{Name: "x"}, sfir.Variable{Name: "x"}},
			},
			Body: sfir.Let{
				Name:  "q",
				Type:  boxed,
				Bound: sfir.CloneVariable{Name: "p", Type: boxed},
				Body: sfir.DropVariable{
					Name: "p",
					Type: boxed,
					Body: sfir.RecordElement{Type: boxed, Value: sfir.Variable{Name: "q"}, Index: 0},
				},
			},
		},
	}
	m := sfir.Module{
		TypeDefinitions: []sfir.TypeDefinition{{Name: "Pair", Type: boxed}},
		Definitions:     []*sfir.Definition{d},
	}
	mustLower(t, m)
}

// TestScenarioRecursion covers spec §8's Recursion scenario: a self-recursive arity-1
// definition using the pointer-arithmetic self-reference trick (§4.4).
func TestScenarioRecursion(t *testing.T) {
	d := &sfir.Definition{
		Name:       "countdown",
		Arguments:  []sfir.Argument{{Name: "n", Type: float64T}},
		ResultType: float64T,
		Body: sfir.If{
			Condition: sfir.Comparison{Operator: sfir.LessThanOrEqual, LHS: sfir.Variable{Name: "n"}, RHS: sfir.NumberLiteral{Value: 0}},
			Then:      sfir.NumberLiteral{Value: 0},
			Else: sfir.FunctionApplication{
				Function: sfir.Variable{Name: "countdown"},
				Argument: sfir.Arithmetic{Operator: sfir.Subtract, LHS: sfir.Variable{Name: "n"}, RHS: sfir.NumberLiteral{Value: 1}},
			},
		},
	}
	m := sfir.Module{Definitions: []*sfir.Definition{d}}
	mustLower(t, m)
}

// TestScenarioMutualRecursionLetRecursive exercises the forward/mutual-reference fix directly:
// two LetRecursive-local definitions that reference each other regardless of declaration order.
func TestScenarioMutualRecursionLetRecursive(t *testing.T) {
	boolT := sfir.Primitive{Kind: sfir.Boolean}
	isEven := &sfir.Definition{
		Name:       "is_even",
		Arguments:  []sfir.Argument{{Name: "n", Type: float64T}},
		ResultType: boolT,
		Body: sfir.If{
			Condition: sfir.Comparison{Operator: sfir.Equal, LHS: sfir.Variable{Name: "n"}, RHS: sfir.NumberLiteral{Value: 0}},
			Then:      sfir.BooleanLiteral{Value: true},
			Else: sfir.FunctionApplication{
				Function: sfir.Variable{Name: "is_odd"},
				Argument: sfir.Arithmetic{Operator: sfir.Subtract, LHS: sfir.Variable{Name: "n"}, RHS: sfir.NumberLiteral{Value: 1}},
			},
		},
	}
	isOdd := &sfir.Definition{
		Name:       "is_odd",
		Arguments:  []sfir.Argument{{Name: "n", Type: float64T}},
		ResultType: boolT,
		Body: sfir.If{
			Condition: sfir.Comparison{Operator: sfir.Equal, LHS: sfir.Variable{Name: "n"}, RHS: sfir.NumberLiteral{Value: 0}},
			Then:      sfir.BooleanLiteral{Value: false},
			Else: sfir.FunctionApplication{
				Function: sfir.Variable{Name: "is_even"},
				Argument: sfir.Arithmetic{Operator: sfir.Subtract, LHS: sfir.Variable{Name: "n"}, RHS: sfir.NumberLiteral{Value: 1}},
			},
		},
	}
	top := &sfir.Definition{
		Name:       "entry",
		Arguments:  []sfir.Argument{{Name: "n", Type: float64T}},
		ResultType: boolT,
		Body: sfir.LetRecursive{
			Definitions: []*sfir.Definition{isOdd, isEven}, // declared backward: is_odd references is_even before it appears.
			Body:        sfir.FunctionApplication{Function: sfir.Variable{Name: "is_even"}, Argument: sfir.Variable{Name: "n"}},
		},
	}
	m := sfir.Module{Definitions: []*sfir.Definition{top}}
	mustLower(t, m)
}
