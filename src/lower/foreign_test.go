package lower

import (
	"strings"
	"testing"

	"github.com/hhramberg/closurec/src/sfir"
)

// TestForeignSourceDeclaration covers §4.6's CallingConventionSource wrapping: the external
// symbol already speaks our curried entry convention, so lowering just closes a zero-environment
// closure record directly over the declared function, with no trampoline stages synthesized.
func TestForeignSourceDeclaration(t *testing.T) {
	fd := sfir.ForeignDeclaration{
		Name:              "imported_id",
		ForeignName:       "sf_identity",
		Type:              sfir.Function{Argument: float64T, Result: float64T},
		CallingConvention: sfir.CallingConventionSource,
	}
	m := sfir.Module{ForeignDeclarations: []sfir.ForeignDeclaration{fd}}
	out := mustLower(t, m)

	if got := out.GetFunction("sf_identity"); got == nil {
		t.Fatal("GetFunction(\"sf_identity\") = nil, want the declared external symbol")
	}
	found := false
	for _, g := range out.Globals() {
		if g.Name() == "imported_id" {
			found = true
		}
	}
	if !found {
		t.Fatalf("no global named imported_id among module globals")
	}
}

// TestForeignNativeDeclarationBuildsTrampoline covers §4.6's CallingConventionNative wrapping:
// an arity-2 flat-ABI symbol gets the same n-stage curried trampoline chain an ordinary
// Definition would, with the final stage calling the native symbol directly.
func TestForeignNativeDeclarationBuildsTrampoline(t *testing.T) {
	fd := sfir.ForeignDeclaration{
		Name:        "native_add",
		ForeignName: "c_add",
		Type: sfir.Function{
			Argument: float64T,
			Result:   sfir.Function{Argument: float64T, Result: float64T},
		},
		CallingConvention: sfir.CallingConventionNative,
	}
	m := sfir.Module{ForeignDeclarations: []sfir.ForeignDeclaration{fd}}
	out := mustLower(t, m)

	if got := out.GetFunction("c_add"); got == nil {
		t.Fatal("GetFunction(\"c_add\") = nil, want the flat-ABI native symbol declared")
	}
	trampolines := 0
	for _, fn := range out.Functions() {
		if strings.HasPrefix(fn.Name(), "native_add_foreign_entry") {
			trampolines++
		}
	}
	if trampolines != 2 {
		t.Fatalf("found %d native_add_foreign_entry<N> stages, want 2", trampolines)
	}
}

// TestForeignDeclarationResolvesFromDefinitionBody checks that a Definition referencing a
// foreign-declared name resolves through ctx.globals like any module-level definition —
// exercising the registerForeignClosure fix that binds the foreign name into globals, not just
// ctx.closures.
func TestForeignDeclarationResolvesFromDefinitionBody(t *testing.T) {
	fd := sfir.ForeignDeclaration{
		Name:              "imported_id",
		ForeignName:       "sf_identity",
		Type:              sfir.Function{Argument: float64T, Result: float64T},
		CallingConvention: sfir.CallingConventionSource,
	}
	d := &sfir.Definition{
		Name:       "calls_foreign",
		Arguments:  []sfir.Argument{{Name: "x", Type: float64T}},
		ResultType: float64T,
		Body: sfir.FunctionApplication{
			Function: sfir.Variable{Name: "imported_id"},
			Argument: sfir.Variable{Name: "x"},
		},
	}
	m := sfir.Module{
		ForeignDeclarations: []sfir.ForeignDeclaration{fd},
		Definitions:         []*sfir.Definition{d},
	}
	mustLower(t, m)
}
