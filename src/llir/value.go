package llir

import (
	"fmt"
	"strings"

	"github.com/hhramberg/closurec/src/llir/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Value is an LL-IR operand: anything that can be read by another instruction. Unlike
// vslc/src/ir/lir's Value interface, this one carries no register-allocation hooks (SetHW,
// GetHW, Has2Operands, GetOperand1/2, SetWrapper) — those exist downstream of this compiler, in
// the object-code emitter this package's output feeds, and have no meaning at the LL-IR level.
type Value interface {
	Name() string
	Type() types.Type
	String() string
}

// Param is a function parameter, addressable by name for the lifetime of the function body.
type Param struct {
	id   int
	name string
	typ  types.Type
}

func (p *Param) Name() string     { return p.name }
func (p *Param) Type() types.Type { return p.typ }
func (p *Param) String() string   { return fmt.Sprintf("%s: %s", p.name, p.typ.String()) }

// Global is a module-level constant or foreign-linked symbol, optionally carrying a compile-
// time constant Init value (e.g. a top-level closure's static four-field record).
type Global struct {
	id      int
	name    string
	typ     types.Type
	linkage types.Linkage
	Init    Value
}

func (g *Global) Name() string           { return g.name }
func (g *Global) Type() types.Type       { return types.PointerType{Pointee: g.typ} }
func (g *Global) Linkage() types.Linkage { return g.linkage }
func (g *Global) String() string {
	if g.Init != nil {
		return fmt.Sprintf("global %s %s: %s = %s", g.linkage, g.name, g.typ.String(), g.Init.Name())
	}
	return fmt.Sprintf("global %s %s: %s", g.linkage, g.name, g.typ.String())
}

// FunctionPointer is a reference to a Function's address — the compile-time-constant operand
// used wherever a closure's entry_fn_ptr/drop_fn_ptr field is populated with a known function.
type FunctionPointer struct {
	Target *Function
}

func (f *FunctionPointer) Name() string     { return "&" + f.Target.Name() }
func (f *FunctionPointer) Type() types.Type { return types.PointerType{Pointee: f.Target.Signature()} }
func (f *FunctionPointer) String() string   { return fmt.Sprintf("%s = &%s", f.Name(), f.Target.Name()) }

// StaticRecord is a compile-time-constant record value used to initialize a Global — e.g. a
// top-level closure's { entry_fn_ptr, drop_fn_ptr, arity, environment } fields, all of which
// are themselves compile-time constants (function pointers and small integers) for a
// definition that captures nothing.
type StaticRecord struct {
	id       int
	typ      types.RecordType
	Elements []Value
}

func (s *StaticRecord) Name() string     { return fmt.Sprintf("static%d", s.id) }
func (s *StaticRecord) Type() types.Type { return s.typ }
func (s *StaticRecord) String() string {
	parts := make([]string, len(s.Elements))
	for i, e := range s.Elements {
		parts[i] = e.Name()
	}
	return fmt.Sprintf("%s = static %s{%s}", s.Name(), s.typ.String(), strings.Join(parts, ", "))
}

// ConstantInt is a literal sized or pointer-sized integer.
type ConstantInt struct {
	id   int
	typ  types.Type
	Val  int64
}

func (c *ConstantInt) Name() string     { return fmt.Sprintf("const%d", c.id) }
func (c *ConstantInt) Type() types.Type { return c.typ }
func (c *ConstantInt) String() string   { return fmt.Sprintf("%s = %d", c.Name(), c.Val) }

// ConstantFloat is a literal Float32 or Float64 value.
type ConstantFloat struct {
	id  int
	typ types.Type
	Val float64
}

func (c *ConstantFloat) Name() string     { return fmt.Sprintf("const%d", c.id) }
func (c *ConstantFloat) Type() types.Type { return c.typ }
func (c *ConstantFloat) String() string   { return fmt.Sprintf("%s = %g", c.Name(), c.Val) }

// ConstantBool is a literal true/false value.
type ConstantBool struct {
	id  int
	Val bool
}

func (c *ConstantBool) Name() string     { return fmt.Sprintf("const%d", c.id) }
func (c *ConstantBool) Type() types.Type { return types.Primitive{K: types.Boolean} }
func (c *ConstantBool) String() string   { return fmt.Sprintf("%s = %t", c.Name(), c.Val) }

// Null is the null pointer constant of a Pointer type — used as the dummy argument force passes
// to a thunk's entry function.
type Null struct {
	id  int
	typ types.Type
}

func (n *Null) Name() string     { return fmt.Sprintf("const%d", n.id) }
func (n *Null) Type() types.Type { return n.typ }
func (n *Null) String() string   { return fmt.Sprintf("%s = null<%s>", n.Name(), n.typ.String()) }

// Void is the sole value of Void type, returned by Target-convention helper functions (drop,
// clone) that have nothing meaningful to hand back but still need a terminator operand.
type Void struct {
	id int
}

func (v *Void) Name() string     { return fmt.Sprintf("const%d", v.id) }
func (v *Void) Type() types.Type { return types.Primitive{K: types.Void} }
func (v *Void) String() string   { return fmt.Sprintf("%s = void", v.Name()) }
