// Package sfir defines the data model of the source functional intermediate representation:
// algebraic types, the sixteen expression variants, and the module/definition shapes that
// check.Check verifies and lower.Module consumes.
//
// Types and expressions are modeled as a small interface plus one concrete struct per variant,
// the same shape eir's own Rust enums take (eir::types::Type, eir::ir::Expression) and the
// idiom the rest of the retrieved compiler corpus reaches for over an untyped node+tag tree.
package sfir

import (
	"fmt"
	"strings"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Type is implemented by every SF-IR type: Primitive, Function, Record, Variant, ByteString.
type Type interface {
	// Equal reports whether t and other describe the same SF-IR type, structurally.
	Equal(other Type) bool
	String() string

	sfirType()
}

// PrimitiveKind enumerates the primitive SF-IR types.
type PrimitiveKind int

// The seven primitive kinds named in the data model: Boolean, Float32, Float64, Integer8,
// Integer32, Integer64, Pointer (opaque byte pointer).
const (
	Boolean PrimitiveKind = iota
	Float32
	Float64
	Integer8
	Integer32
	Integer64
	Pointer
)

// primitiveNames provides print friendly names for PrimitiveKind constants.
var primitiveNames = [...]string{
	"Boolean",
	"Float32",
	"Float64",
	"Integer8",
	"Integer32",
	"Integer64",
	"Pointer",
}

// String returns a print friendly string representation of k.
func (k PrimitiveKind) String() string {
	if k < Boolean || k > Pointer {
		return fmt.Sprintf("PrimitiveKind(%d)", int(k))
	}
	return primitiveNames[k]
}

// Primitive is a primitive SF-IR type.
type Primitive struct {
	Kind PrimitiveKind
}

// Equal reports whether other is a Primitive of the same Kind.
func (p Primitive) Equal(other Type) bool {
	o, ok := other.(Primitive)
	return ok && o.Kind == p.Kind
}

// String returns the print friendly representation of p.
func (p Primitive) String() string {
	return p.Kind.String()
}

func (Primitive) sfirType() {}

// Function is a unary function type; curried chains represent multi-argument functions.
type Function struct {
	Argument Type
	Result   Type
}

// Equal reports whether other is a Function type with equal argument and result types.
func (f Function) Equal(other Type) bool {
	o, ok := other.(Function)
	return ok && f.Argument.Equal(o.Argument) && f.Result.Equal(o.Result)
}

// String returns the print friendly representation of f.
func (f Function) String() string {
	return fmt.Sprintf("(%s -> %s)", f.Argument.String(), f.Result.String())
}

func (Function) sfirType() {}

// Arguments flattens a (possibly curried) Function type into its ordered argument types,
// following the chain of nested Function results the way a curried definition of arity n is
// represented as n nested unary Function types.
func (f Function) Arguments() []Type {
	args := []Type{f.Argument}
	result := f.Result
	for {
		next, ok := result.(Function)
		if !ok {
			break
		}
		args = append(args, next.Argument)
		result = next.Result
	}
	return args
}

// LastResult returns the final, non-function result type at the end of a curried chain.
func (f Function) LastResult() Type {
	result := f.Result
	for {
		next, ok := result.(Function)
		if !ok {
			return result
		}
		result = next.Result
	}
}

// Record is an ordered sequence of element types. Boxed records are heap-allocated behind a
// pointer; Name is non-empty only for boxed records that participate in a module's type
// definitions (see Module.TypeDefinitions), since recursive/self-referential record shapes can
// only be expressed through a named forward declaration — an unboxed record is always
// anonymous and structural.
type Record struct {
	Name     string
	Elements []Type
	Boxed    bool
}

// Equal reports whether other is a Record type with the same boxing and element types.
// Named boxed records compare by name first, since two differently-named boxed records may
// happen to share a structural shape without being the same type (analogous to two Go named
// struct types with identical fields not being assignable to one another).
func (r Record) Equal(other Type) bool {
	o, ok := other.(Record)
	if !ok || r.Boxed != o.Boxed {
		return false
	}
	if r.Boxed && (r.Name != "" || o.Name != "") {
		return r.Name == o.Name
	}
	if len(r.Elements) != len(o.Elements) {
		return false
	}
	for i, e := range r.Elements {
		if !e.Equal(o.Elements[i]) {
			return false
		}
	}
	return true
}

// String returns the print friendly representation of r.
func (r Record) String() string {
	parts := make([]string, len(r.Elements))
	for i, e := range r.Elements {
		parts[i] = e.String()
	}
	body := fmt.Sprintf("{%s}", strings.Join(parts, ", "))
	if r.Name != "" {
		body = r.Name + body
	}
	if r.Boxed {
		return "Boxed " + body
	}
	return body
}

func (Record) sfirType() {}

// Variant is an open tagged union. Every value of type Variant carries a runtime tag pointer
// and a payload slot; unlike Record, Variant carries no element-level shape at the type level,
// since the possible cases are determined dynamically by the alternatives of whichever Case
// expression inspects the value.
type Variant struct{}

// Equal reports whether other is also a Variant type.
func (Variant) Equal(other Type) bool {
	_, ok := other.(Variant)
	return ok
}

// String returns "Variant".
func (Variant) String() string {
	return "Variant"
}

func (Variant) sfirType() {}

// ByteString is a length-prefixed, heap-allocated byte string.
type ByteString struct{}

// Equal reports whether other is also a ByteString type.
func (ByteString) Equal(other Type) bool {
	_, ok := other.(ByteString)
	return ok
}

// String returns "ByteString".
func (ByteString) String() string {
	return "ByteString"
}

func (ByteString) sfirType() {}

// IsPrimitive reports whether t is a Primitive type; used throughout the type checker to guard
// Arithmetic and Comparison operands.
func IsPrimitive(t Type) bool {
	_, ok := t.(Primitive)
	return ok
}
