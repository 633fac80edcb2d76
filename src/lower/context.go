// Package lower implements the core lowering compiler: it maps a well-typed sfir.Module onto
// an llir.Module, synthesizing closure records, curried entry trampolines, thunk state
// machines, and per-type reference-count helpers along the way. Its structure follows
// vslc/src/ir's own top-down node-to-instruction walk (see validate.go's single-pass recursion
// over the parse tree), generalized from a validating walk to an emitting one.
package lower

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/hhramberg/closurec/src/llir"
	"github.com/hhramberg/closurec/src/llir/types"
	"github.com/hhramberg/closurec/src/sfir"
	"github.com/hhramberg/closurec/src/util"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// binding pairs the LL-IR value currently representing an SF-IR name with that name's static
// SF-IR type — lowering needs both: the value to emit references to, and the type to decide
// whether a use must clone/drop it and how a result merges with sibling branches.
type binding struct {
	value   llir.Value
	typ     sfir.Type
	isThunk bool // forcing this name through c.force is required before its value is usable.
}

// scope binds an SF-IR name to its current LL-IR value and static type.
type scope map[string]binding

func (s scope) clone() scope {
	out := make(scope, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	return out
}

// bind records name as v of static type t.
func (s scope) bind(name string, v llir.Value, t sfir.Type) {
	s[name] = binding{value: v, typ: t}
}

// bindThunk records name as the (unforced) closure pointer v of a thunk whose declared type is
// t; every reference to name must force it, per §4.5.
func (s scope) bindThunk(name string, v llir.Value, t sfir.Type) {
	s[name] = binding{value: v, typ: t, isThunk: true}
}

// recordHelper is the pair of per-type clone/drop functions emitted once for a given record
// shape, per §4.7's "emitted once per record type encountered" rule.
type recordHelper struct {
	clone *llir.Function
	drop  *llir.Function
}

// context carries the state threaded through one Module lowering: the output builder, the
// module's type definitions (for resolving named boxed records), the cache of per-record
// clone/drop helpers, and the anonymous-name sequence used for thunk and curried-entry labels.
type context struct {
	out         *llir.Module
	typeDefs    map[string]sfir.Record
	helpers     map[string]recordHelper
	names       util.Sequence
	closures    map[string]closureInfo // top-level definition name -> its lowered shape
	variantTags map[string]*variantTag // variant tag name -> payload type and TypeInformation
	globals     scope                  // every module-level name, visible from every function body.
}

// closureInfo records the static shape of a top-level (or LetRecursive-local) Definition, so
// that references to its name resolve to the right arity/environment/entry chain without
// re-deriving it from the sfir.Definition every time. ptr is the stable closure pointer a
// self-recursive reference to an arity > 1 definition resolves to: a *llir.Global for top-level
// definitions, or a heap AllocateHeapInst value for a LetRecursive-local one.
type closureInfo struct {
	def     *sfir.Definition
	ptr     llir.Value
	envType types.RecordType
	fnType  types.FunctionType // the unary entry type, per §4.2.
	arity   int
}

func newContext(m sfir.Module) *context {
	typeDefs := make(map[string]sfir.Record, len(m.TypeDefinitions))
	for _, td := range m.TypeDefinitions {
		typeDefs[td.Name] = td.Type
	}
	return &context{
		out:         llir.CreateModule("closurec"),
		typeDefs:    typeDefs,
		helpers:     make(map[string]recordHelper),
		closures:    make(map[string]closureInfo),
		variantTags: make(map[string]*variantTag),
		globals:     make(scope),
	}
}

// nextName returns a deterministic, monotonically increasing anonymous helper name prefixed
// by kind, e.g. "thunk7" or "curry3" — grounded on vslc/src/ir/lir/module.go's seq-based
// anonymous-function-label scheme.
func (c *context) nextName(kind string) string {
	return fmt.Sprintf("%s%d", kind, c.names.Next())
}

func (c *context) debugf(format string, args ...interface{}) {
	log.WithField("component", "lower").Debugf(format, args...)
}

func unreachable(format string, args ...interface{}) {
	util.Unreachable(format, args...)
}
