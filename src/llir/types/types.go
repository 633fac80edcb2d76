// Package types defines the LL-IR type universe: primitives, pointers, functions, records,
// variants, and the closure record shapes (unsized and sized) the core lowering compiler
// builds for every SF-IR function value. The shape of this package mirrors
// vslc/src/ir/lir/types (an enum-tagged DataType plus print-friendly String methods),
// generalized from three assembly datatypes (Int, Float, String) to the full closure/record/
// variant universe spec.md's data model requires.
package types

import (
	"fmt"
	"strings"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Kind tags the concrete shape of a Type.
type Kind int

// The LL-IR type kinds.
const (
	Void Kind = iota
	Boolean
	Integer8
	Integer32
	Integer64
	Float32
	Float64
	PointerInteger // a pointer-sized integer, used for arity fields and pointer arithmetic offsets.
	Pointer
	Function
	Record
	Variant
	ByteString
	UnsizedClosure
	SizedClosure
	TypeInformation
)

var kindNames = [...]string{
	"Void",
	"Boolean",
	"Integer8",
	"Integer32",
	"Integer64",
	"Float32",
	"Float64",
	"PointerInteger",
	"Pointer",
	"Function",
	"Record",
	"Variant",
	"ByteString",
	"UnsizedClosure",
	"SizedClosure",
	"TypeInformation",
}

// String returns the print friendly name of k.
func (k Kind) String() string {
	if k < Void || k > TypeInformation {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// CallingConvention distinguishes internal closures from runtime helpers and foreign bridges,
// per §6 of the data model.
type CallingConvention int

// The two LL-IR calling conventions.
const (
	Source CallingConvention = iota // internal closures, curried entries, thunk state machines.
	Target                          // runtime helpers (clone/drop) and foreign bridges.
)

func (c CallingConvention) String() string {
	if c == Source {
		return "source"
	}
	return "target"
}

// Linkage is a function or global variable's visibility outside its defining module.
type Linkage int

// The two linkages a module-level symbol may have.
const (
	Internal Linkage = iota
	External
)

func (l Linkage) String() string {
	if l == Internal {
		return "internal"
	}
	return "external"
}

// Type is implemented by every LL-IR type.
type Type interface {
	Kind() Kind
	Equal(other Type) bool
	String() string
}

// Primitive is a scalar LL-IR type: Void, Boolean, a sized integer, PointerInteger, or a float.
type Primitive struct {
	K Kind
}

func (p Primitive) Kind() Kind { return p.K }

// Equal reports whether other is a Primitive of the same Kind.
func (p Primitive) Equal(other Type) bool {
	o, ok := other.(Primitive)
	return ok && o.K == p.K
}

func (p Primitive) String() string { return p.K.String() }

// IsInteger reports whether p is one of the fixed-width signed integer kinds.
func (p Primitive) IsInteger() bool {
	switch p.K {
	case Integer8, Integer32, Integer64, PointerInteger:
		return true
	}
	return false
}

// IsFloat reports whether p is Float32 or Float64.
func (p Primitive) IsFloat() bool {
	return p.K == Float32 || p.K == Float64
}

// PointerType is a pointer to a Pointee type.
type PointerType struct {
	Pointee Type
}

func (PointerType) Kind() Kind { return Pointer }

// Equal reports whether other is a pointer to an equal Pointee type.
func (p PointerType) Equal(other Type) bool {
	o, ok := other.(PointerType)
	return ok && p.Pointee.Equal(o.Pointee)
}

func (p PointerType) String() string { return fmt.Sprintf("Pointer<%s>", p.Pointee.String()) }

// FunctionType is an LL-IR function signature: an ordered parameter list (conventionally
// prefixed by the environment pointer for Source-convention functions), a result type, and the
// calling convention under which it is invoked.
type FunctionType struct {
	Parameters        []Type
	Result            Type
	CallingConvention CallingConvention
}

func (FunctionType) Kind() Kind { return Function }

// Equal reports whether other is a FunctionType with equal parameters, result, and calling
// convention.
func (f FunctionType) Equal(other Type) bool {
	o, ok := other.(FunctionType)
	if !ok || len(f.Parameters) != len(o.Parameters) || f.CallingConvention != o.CallingConvention {
		return false
	}
	for i, p := range f.Parameters {
		if !p.Equal(o.Parameters[i]) {
			return false
		}
	}
	return f.Result.Equal(o.Result)
}

func (f FunctionType) String() string {
	parts := make([]string, len(f.Parameters))
	for i, p := range f.Parameters {
		parts[i] = p.String()
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(parts, ", "), f.Result.String())
}

// Arity returns the number of arguments of f excluding the leading environment pointer
// parameter, matching §4.2's arity constant: "for an LL-IR function whose first argument is
// the environment pointer, arity = (argument count) − 1".
func (f FunctionType) Arity() int {
	if len(f.Parameters) == 0 {
		return 0
	}
	return len(f.Parameters) - 1
}

// RecordType is a named or anonymous ordered sequence of element types.
type RecordType struct {
	Name     string
	Elements []Type
}

func (RecordType) Kind() Kind { return Record }

// Equal reports whether other is a RecordType with the same name (if named) and element types.
func (r RecordType) Equal(other Type) bool {
	o, ok := other.(RecordType)
	if !ok {
		return false
	}
	if r.Name != "" || o.Name != "" {
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

func (r RecordType) String() string {
	parts := make([]string, len(r.Elements))
	for i, e := range r.Elements {
		parts[i] = e.String()
	}
	body := fmt.Sprintf("{%s}", strings.Join(parts, ", "))
	if r.Name != "" {
		return r.Name + body
	}
	return body
}

// VariantValueType is the fixed two-field variant layout: {Pointer<TypeInformation>,
// Integer64 payload-slot}, per §6.
var VariantValueType = RecordType{
	Name: "Variant",
	Elements: []Type{
		PointerType{Pointee: TypeInformationType},
		Primitive{K: Integer64},
	},
}

// TypeInformationType carries at minimum a drop-function pointer at offset 1; offset 0
// holds the corresponding clone-function pointer, so §4.7's "for variants, call the
// type-information-provided clone" has a concrete slot to call through.
var TypeInformationType = RecordType{
	Name: "TypeInformation",
	Elements: []Type{
		PointerType{Pointee: Primitive{K: Void}}, // clone function pointer, opaque at the type level.
		PointerType{Pointee: Primitive{K: Void}}, // drop function pointer, offset 1.
	},
}

// ByteStringValueType is the fixed layout for a heap-allocated byte string: {length:
// Integer64, Pointer<Integer8>}, per §6.
var ByteStringValueType = RecordType{
	Name: "ByteString",
	Elements: []Type{
		Primitive{K: Integer64},
		PointerType{Pointee: Primitive{K: Integer8}},
	},
}

// UnsizedClosureType is the closure type all references use: entry/drop/arity fields plus an
// empty environment tuple, so that closures of any concrete environment shape share one
// pointer type at call sites.
type UnsizedClosureType struct {
	Function FunctionType
}

func (UnsizedClosureType) Kind() Kind { return UnsizedClosure }

// Equal reports whether other is an UnsizedClosureType with an equal underlying Function type.
func (u UnsizedClosureType) Equal(other Type) bool {
	o, ok := other.(UnsizedClosureType)
	return ok && u.Function.Equal(o.Function)
}

func (u UnsizedClosureType) String() string {
	return fmt.Sprintf("UnsizedClosure<%s>", u.Function.String())
}

// Record returns the four-field closure record layout with an empty environment tuple, the
// concrete RecordType an UnsizedClosureType is laid out as: { entry_fn_ptr, drop_fn_ptr,
// arity, environment }.
func (u UnsizedClosureType) Record() RecordType {
	return RecordType{
		Elements: []Type{
			PointerType{Pointee: u.Function},
			PointerType{Pointee: Primitive{K: Void}},
			Primitive{K: PointerInteger},
			RecordType{},
		},
	}
}

// SizedClosureType is used only to allocate, write, and compute the offset of the environment
// field: the same four fields as UnsizedClosureType, but with the concrete Environment tuple
// (or, for thunks, the environment/result union — see §4.5).
type SizedClosureType struct {
	Function    FunctionType
	Environment RecordType
}

func (SizedClosureType) Kind() Kind { return SizedClosure }

// Equal reports whether other is a SizedClosureType with equal Function and Environment.
func (s SizedClosureType) Equal(other Type) bool {
	o, ok := other.(SizedClosureType)
	return ok && s.Function.Equal(o.Function) && s.Environment.Equal(o.Environment)
}

func (s SizedClosureType) String() string {
	return fmt.Sprintf("SizedClosure<%s, %s>", s.Function.String(), s.Environment.String())
}

// Record returns the concrete four-field closure record layout: { entry_fn_ptr, drop_fn_ptr,
// arity, environment }.
func (s SizedClosureType) Record() RecordType {
	return RecordType{
		Elements: []Type{
			PointerType{Pointee: s.Function},
			PointerType{Pointee: Primitive{K: Void}},
			Primitive{K: PointerInteger},
			s.Environment,
		},
	}
}

// Unsized returns the UnsizedClosureType that every reference to a closure of this shape uses.
func (s SizedClosureType) Unsized() UnsizedClosureType {
	return UnsizedClosureType{Function: s.Function}
}

// The four closure record field offsets, fixed by §6's layout contract:
// { entry_fn_ptr, drop_fn_ptr, arity, environment }.
const (
	ClosureEntryField       = 0
	ClosureDropField        = 1
	ClosureArityField       = 2
	ClosureEnvironmentField = 3
)

// The two variant record field offsets: { tag_ptr, payload }.
const (
	VariantTagField     = 0
	VariantPayloadField = 1
)

// The two type-information record field offsets: { clone_fn_ptr, drop_fn_ptr }.
const (
	TypeInformationCloneField = 0
	TypeInformationDropField  = 1
)

// The two byte-string record field offsets: { length, data }.
const (
	ByteStringLengthField = 0
	ByteStringDataField   = 1
)
