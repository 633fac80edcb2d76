// Package llir is the builder for the target of the core lowering compiler: an imperative,
// pointer-explicit, closure-and-record-typed intermediate representation. Its Module/Function/
// Block builder shape and sequence-numbered, mutex-guarded id generation are grounded on
// vslc/src/ir/lir (Module/Function/Block, getId()), generalized from three assembly datatypes
// (Int, Float, String) and a register-allocation-aware Value interface to the full closure/
// record/variant/atomic-instruction universe SPEC_FULL.md's data model requires.
package llir

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hhramberg/closurec/src/llir/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Module is a unit of LL-IR: global constants, foreign declarations, and functions, in the
// deterministic order they were created (no maps), so that lowering the same sfir.Module twice
// produces a byte-identical llir.Module modulo anonymous-name-generator seeding.
type Module struct {
	Name      string
	globals   []*Global
	functions []*Function
	seq       int
	mu        sync.Mutex
}

// ---------------------
// ----- functions -----
// ---------------------

// CreateModule creates a new empty Module with the given name.
func CreateModule(name string) *Module {
	return &Module{
		Name:      name,
		globals:   make([]*Global, 0, 16),
		functions: make([]*Function, 0, 16),
	}
}

// String returns a textual dump of m, used by golden-style determinism tests.
func (m *Module) String() string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("module %s\n\n", m.Name))
	for _, g := range m.globals {
		sb.WriteString(g.String())
		sb.WriteRune('\n')
	}
	if len(m.globals) > 0 {
		sb.WriteRune('\n')
	}
	for _, f := range m.functions {
		sb.WriteString(f.String())
		sb.WriteRune('\n')
	}
	return sb.String()
}

// getId returns a module-wide unique identifier, guarded against concurrent lowering of
// sibling definitions.
func (m *Module) getId() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.seq
	m.seq++
	return id
}

// CreateGlobal declares a named, typed global symbol under the given linkage.
func (m *Module) CreateGlobal(name string, typ types.Type, linkage types.Linkage) *Global {
	g := &Global{id: m.getId(), name: name, typ: typ, linkage: linkage}
	m.globals = append(m.globals, g)
	return g
}

// CreateFunction creates a new empty Function of the given signature and calling convention,
// appending it to m.
func (m *Module) CreateFunction(name string, fnType types.FunctionType, linkage types.Linkage) *Function {
	f := &Function{
		m:          m,
		id:         m.getId(),
		name:       name,
		signature:  fnType,
		linkage:    linkage,
		params:     make([]*Param, 0, len(fnType.Parameters)),
		blocks:     make([]*Block, 0, 4),
	}
	for i, pt := range fnType.Parameters {
		f.params = append(f.params, &Param{id: f.getId(), name: fmt.Sprintf("arg%d", i), typ: pt})
	}
	m.functions = append(m.functions, f)
	return f
}

// CreateFunctionPointer returns a compile-time-constant reference to target's address.
func (m *Module) CreateFunctionPointer(target *Function) *FunctionPointer {
	return &FunctionPointer{Target: target}
}

// CreateStaticRecord builds a compile-time-constant record value of type typ from elements,
// used to initialize a Global closure that captures nothing (every module-level definition,
// since only LetRecursive-local definitions ever capture enclosing values).
func (m *Module) CreateStaticRecord(typ types.RecordType, elements []Value) *StaticRecord {
	if len(elements) != len(typ.Elements) {
		panic(fmt.Sprintf("llir: CreateStaticRecord wrong arity: want %d, got %d", len(typ.Elements), len(elements)))
	}
	return &StaticRecord{id: m.getId(), typ: typ, Elements: elements}
}

// Globals returns m's globals in creation order.
func (m *Module) Globals() []*Global { return m.globals }

// Functions returns m's functions in creation order.
func (m *Module) Functions() []*Function { return m.functions }

// GetFunction returns the named function, or nil if m declares no function by that name.
func (m *Module) GetFunction(name string) *Function {
	for _, f := range m.functions {
		if f.name == name {
			return f
		}
	}
	return nil
}
