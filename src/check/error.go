// Package check verifies that every expression of an sfir.Module is well-typed against the
// module's declarations, definitions, and type definitions, grounded on vslc/src/ir/validate.go
// (lookup-table-driven binary/relation checks) generalized to ssf's recursive structural
// checker (ssf/src/analysis/type_check/mod.rs).
package check

import (
	"fmt"

	"github.com/hhramberg/closurec/src/sfir"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// ErrorKind enumerates the type checker's failure taxonomy.
type ErrorKind int

// The seven kinds of type-check failure named in the data model.
const (
	TypesNotMatched ErrorKind = iota
	FunctionExpected
	VariableNotFound
	WrongArgumentsLength
	ElementIndexOutOfBounds
	NoAlternativeFound
	ForeignDefinitionNotFound
)

var errorKindNames = [...]string{
	"TypesNotMatched",
	"FunctionExpected",
	"VariableNotFound",
	"WrongArgumentsLength",
	"ElementIndexOutOfBounds",
	"NoAlternativeFound",
	"ForeignDefinitionNotFound",
}

// String returns the print friendly name of k.
func (k ErrorKind) String() string {
	if k < TypesNotMatched || k > ForeignDefinitionNotFound {
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
	return errorKindNames[k]
}

// Error is the single structured error type the checker produces. The checker collects the
// first Error it encounters and returns, per the fail-fast policy of §7; it never aggregates
// multiple errors.
type Error struct {
	Kind    ErrorKind
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// newError constructs an *Error with a formatted message.
func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func errVariableNotFound(name string) *Error {
	return newError(VariableNotFound, "variable %q not found in scope", name)
}

func errFunctionExpected(e sfir.Expression, t sfir.Type) *Error {
	return newError(FunctionExpected, "expected function type, got %s for expression %s", t, e)
}

func errTypesNotMatched(a, b sfir.Type) *Error {
	return newError(TypesNotMatched, "types do not match: %s vs %s", a, b)
}

func errWrongArgumentsLength(want, got int) *Error {
	return newError(WrongArgumentsLength, "wrong number of elements: want %d, got %d", want, got)
}

func errElementIndexOutOfBounds(index, length int) *Error {
	return newError(ElementIndexOutOfBounds, "element index %d out of bounds for record of length %d", index, length)
}

func errNoAlternativeFound(e sfir.Expression) *Error {
	return newError(NoAlternativeFound, "case expression %s has no alternatives and no default", e)
}

func errForeignDefinitionNotFound(name string) *Error {
	return newError(ForeignDefinitionNotFound, "foreign definition %q has no matching declaration or definition", name)
}
