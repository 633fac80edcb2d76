package check

import (
	"testing"

	"github.com/hhramberg/closurec/src/sfir"
)

var float64T = sfir.Primitive{Kind: sfir.Float64}
var boolT = sfir.Primitive{Kind: sfir.Boolean}

// TestCheckAcceptsWellTypedModule covers spec §8 item 1: a well-typed module, closing over
// several node kinds at once, must check clean.
func TestCheckAcceptsWellTypedModule(t *testing.T) {
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
	useAdd := &sfir.Definition{
		Name:       "triple_sum",
		Arguments:  []sfir.Argument{{Name: "x", Type: float64T}},
		ResultType: float64T,
		Body: sfir.FunctionApplication{
			Function: sfir.FunctionApplication{Function: sfir.Variable{Name: "add"}, Argument: sfir.Variable{Name: "x"}},
			Argument: sfir.Variable{Name: "x"},
		},
	}
	m := sfir.Module{Definitions: []*sfir.Definition{add, useAdd}}
	if err := Check(m); err != nil {
		t.Fatalf("Check() = %v, want nil", err)
	}
}

func TestCheckRejectsUnknownVariable(t *testing.T) {
	d := &sfir.Definition{
		Name:       "bad",
		Arguments:  []sfir.Argument{{Name: "x", Type: float64T}},
		ResultType: float64T,
		Body:       sfir.Variable{Name: "y"},
	}
	m := sfir.Module{Definitions: []*sfir.Definition{d}}
	if err := Check(m); err == nil {
		t.Fatal("Check() = nil, want an unresolved-variable error")
	}
}

func TestCheckRejectsResultTypeMismatch(t *testing.T) {
	d := &sfir.Definition{
		Name:       "wrong_result",
		Arguments:  []sfir.Argument{{Name: "x", Type: float64T}},
		ResultType: boolT,
		Body:       sfir.Variable{Name: "x"},
	}
	m := sfir.Module{Definitions: []*sfir.Definition{d}}
	if err := Check(m); err == nil {
		t.Fatal("Check() = nil, want a result-type mismatch error")
	}
}

func TestCheckRejectsArithmeticOperandMismatch(t *testing.T) {
	d := &sfir.Definition{
		Name:       "mixed",
		Arguments:  []sfir.Argument{{Name: "x", Type: float64T}, {Name: "y", Type: boolT}},
		ResultType: float64T,
		Body: sfir.Arithmetic{
			Operator: sfir.Add,
			LHS:      sfir.Variable{Name: "x"},
			RHS:      sfir.Variable{Name: "y"},
		},
	}
	m := sfir.Module{Definitions: []*sfir.Definition{d}}
	if err := Check(m); err == nil {
		t.Fatal("Check() = nil, want an operand-type mismatch error")
	}
}

func TestCheckRejectsNonFunctionApplicationTarget(t *testing.T) {
	d := &sfir.Definition{
		Name:       "calls_number",
		Arguments:  []sfir.Argument{{Name: "x", Type: float64T}},
		ResultType: float64T,
		Body: sfir.FunctionApplication{
			Function: sfir.Variable{Name: "x"},
			Argument: sfir.Variable{Name: "x"},
		},
	}
	m := sfir.Module{Definitions: []*sfir.Definition{d}}
	if err := Check(m); err == nil {
		t.Fatal("Check() = nil, want a function-expected error")
	}
}

func TestCheckRejectsIfBranchMismatch(t *testing.T) {
	d := &sfir.Definition{
		Name:       "branchy",
		Arguments:  []sfir.Argument{{Name: "c", Type: boolT}, {Name: "x", Type: float64T}},
		ResultType: float64T,
		Body: sfir.If{
			Condition: sfir.Variable{Name: "c"},
			Then:      sfir.Variable{Name: "x"},
			Else:      sfir.BooleanLiteral{Value: false},
		},
	}
	m := sfir.Module{Definitions: []*sfir.Definition{d}}
	if err := Check(m); err == nil {
		t.Fatal("Check() = nil, want an if-branch mismatch error")
	}
}

func TestCheckRejectsRecordElementCountMismatch(t *testing.T) {
	pair := sfir.Record{Name: "Pair", Boxed: true, Elements: []sfir.Type{float64T, float64T}}
	d := &sfir.Definition{
		Name:       "make_pair",
		Arguments:  []sfir.Argument{{Name: "x", Type: float64T}},
		ResultType: pair,
		Body: sfir.RecordConstruct{
			Type:     pair,
			Elements: []sfir.Expression{sfir.Variable{Name: "x"}},
		},
	}
	m := sfir.Module{
		TypeDefinitions: []sfir.TypeDefinition{{Name: "Pair", Type: pair}},
		Definitions:     []*sfir.Definition{d},
	}
	if err := Check(m); err == nil {
		t.Fatal("Check() = nil, want a wrong-arguments-length error")
	}
}

func TestCheckRejectsRecordElementIndexOutOfBounds(t *testing.T) {
	pair := sfir.Record{Name: "Pair", Boxed: true, Elements: []sfir.Type{float64T, float64T}}
	d := &sfir.Definition{
		Name:       "third",
		Arguments:  []sfir.Argument{{Name: "p", Type: pair}},
		ResultType: float64T,
		Body:       sfir.RecordElement{Type: pair, Value: sfir.Variable{Name: "p"}, Index: 2},
	}
	m := sfir.Module{
		TypeDefinitions: []sfir.TypeDefinition{{Name: "Pair", Type: pair}},
		Definitions:     []*sfir.Definition{d},
	}
	if err := Check(m); err == nil {
		t.Fatal("Check() = nil, want an element-index-out-of-bounds error")
	}
}

// TestCheckAcceptsMutualRecursionAnyOrder covers the LetRecursive free-variable/self-reference
// resolution (§4.4): two siblings referencing each other must check regardless of declaration
// order.
func TestCheckAcceptsMutualRecursionAnyOrder(t *testing.T) {
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
			Definitions: []*sfir.Definition{isOdd, isEven},
			Body:        sfir.FunctionApplication{Function: sfir.Variable{Name: "is_even"}, Argument: sfir.Variable{Name: "n"}},
		},
	}
	m := sfir.Module{Definitions: []*sfir.Definition{top}}
	if err := Check(m); err != nil {
		t.Fatalf("Check() = %v, want nil", err)
	}
}

func TestCheckRejectsUnresolvedForeignDefinition(t *testing.T) {
	fd := sfir.ForeignDefinition{Name: "alias", ForeignName: "nowhere"}
	m := sfir.Module{ForeignDefinitions: []sfir.ForeignDefinition{fd}}
	if err := Check(m); err == nil {
		t.Fatal("Check() = nil, want an unresolved foreign-definition error")
	}
}
