package sfir

import "fmt"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Argument is a named, typed formal parameter — used both for a Definition's own argument list
// and for its captured environment.
type Argument struct {
	Name string
	Type Type
}

// Definition is a top-level or LetRecursive-local function (or thunk) definition. Its own
// LL-IR type is always Pointer<UnsizedClosure(function_type)>.
type Definition struct {
	Name        string
	Arguments   []Argument
	ResultType  Type
	Body        Expression
	Environment []Argument // free variables captured from the enclosing scope.
	IsThunk     bool
}

// Type returns the curried Function type of d: Arguments folded right over ResultType.
func (d *Definition) Type() Type {
	result := d.ResultType
	for i := len(d.Arguments) - 1; i >= 0; i-- {
		result = Function{Argument: d.Arguments[i].Type, Result: result}
	}
	return result
}

// Arity returns the declared number of arguments of d — not the depth of any partially
// applied or curried form built from it.
func (d *Definition) Arity() int {
	return len(d.Arguments)
}

// String returns the print friendly representation of d.
func (d *Definition) String() string {
	return fmt.Sprintf("define %s: %s", d.Name, d.Type().String())
}

// Declaration names a Definition that exists but whose body is defined elsewhere in the module
// (forward declaration), carrying only its type.
type Declaration struct {
	Name string
	Type Type
}

// CallingConvention enumerates the calling conventions a ForeignDeclaration may use to invoke
// the external symbol.
type CallingConvention int

// The two calling conventions a foreign function may be declared under.
const (
	CallingConventionNative CallingConvention = iota
	CallingConventionSource
)

// ForeignDeclaration wraps an externally-named function as a closure global of known arity,
// per §4.6.
type ForeignDeclaration struct {
	Name              string
	ForeignName       string
	Type              Function
	CallingConvention CallingConvention
}

// ForeignDefinition remaps a module-local name onto a foreign symbol that must already be bound
// as a Declaration, Definition, or ForeignDeclaration in the same module.
type ForeignDefinition struct {
	Name        string
	ForeignName string
}

// TypeDefinition binds Name to the record body Type, the only mechanism by which a Boxed Record
// type can be recursive or self-referential: the recursive reference is expressed as a Record
// value whose Name matches this definition, resolved by name rather than structurally.
type TypeDefinition struct {
	Name string
	Type Record
}

// Module is the unit the checker verifies and the lowering pipeline consumes: foreign
// declarations, local declarations, foreign definitions, type definitions, and definitions, all
// in deterministic, caller-supplied order (no maps), so that lowering the same Module twice
// produces byte-identical LL-IR modulo anonymous-name-generator seeding.
type Module struct {
	ForeignDeclarations []ForeignDeclaration
	Declarations        []Declaration
	ForeignDefinitions  []ForeignDefinition
	TypeDefinitions     []TypeDefinition
	Definitions         []*Definition
}
