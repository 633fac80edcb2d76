package lower

import (
	"github.com/hhramberg/closurec/src/llir/types"
	"github.com/hhramberg/closurec/src/sfir"
)

// ----------------------------
// ----- Type lowering (D) -----
// ----------------------------

// loweredFunctionType computes the unary entry-function signature for an sfir.Function type,
// per §4.2: always (env_ptr, lowered(arg)) → lowered(result), since an SF-IR function value is
// always applied one argument at a time.
func (c *context) loweredFunctionType(f sfir.Function) types.FunctionType {
	return types.FunctionType{
		Parameters: []types.Type{
			types.PointerType{Pointee: types.Primitive{K: types.Void}},
			c.loweredType(f.Argument),
		},
		Result:            c.loweredType(f.Result),
		CallingConvention: types.Source,
	}
}

// loweredType maps an SF-IR type to its LL-IR representation, per §4.2.
func (c *context) loweredType(t sfir.Type) types.Type {
	switch n := t.(type) {
	case sfir.Primitive:
		return types.Primitive{K: loweredPrimitiveKind(n.Kind)}
	case sfir.Function:
		return types.PointerType{Pointee: types.UnsizedClosureType{Function: c.loweredFunctionType(n)}}
	case sfir.Record:
		if n.Boxed {
			return types.PointerType{Pointee: c.recordType(n)}
		}
		return c.recordType(n)
	case sfir.Variant:
		return types.VariantValueType
	case sfir.ByteString:
		return types.PointerType{Pointee: types.ByteStringValueType}
	default:
		unreachable("lower: unhandled sfir type %T", t)
		return nil
	}
}

// recordType lowers a (possibly named, possibly boxed) sfir.Record into its structural
// llir.types.RecordType body. Named boxed records carry their name through so recursive
// references compare equal by name rather than attempting infinite structural recursion.
func (c *context) recordType(r sfir.Record) types.RecordType {
	elements := make([]types.Type, len(r.Elements))
	for i, e := range r.Elements {
		elements[i] = c.loweredType(e)
	}
	return types.RecordType{Name: r.Name, Elements: elements}
}

func loweredPrimitiveKind(k sfir.PrimitiveKind) types.Kind {
	switch k {
	case sfir.Boolean:
		return types.Boolean
	case sfir.Float32:
		return types.Float32
	case sfir.Float64:
		return types.Float64
	case sfir.Integer8:
		return types.Integer8
	case sfir.Integer32:
		return types.Integer32
	case sfir.Integer64:
		return types.Integer64
	case sfir.Pointer:
		return types.PointerInteger
	default:
		unreachable("lower: unhandled primitive kind %v", k)
		return types.Void
	}
}

// environmentType computes the concrete RecordType of a Definition's captured environment,
// the tuple a SizedClosureType's Environment field holds.
func (c *context) environmentType(env []sfir.Argument) types.RecordType {
	elements := make([]types.Type, len(env))
	for i, a := range env {
		elements[i] = c.loweredType(a.Type)
	}
	return types.RecordType{Elements: elements}
}

// isHeapOwning reports whether a value of SF-IR type t is refcounted: boxed records, byte
// strings, closures (functions), and variants whose payload may itself be boxed (the variant
// record itself is never heap-allocated, but its contained type-information clone/drop must be
// consulted — see refcount.go).
func isHeapOwning(t sfir.Type) bool {
	switch n := t.(type) {
	case sfir.ByteString:
		return true
	case sfir.Function:
		return true
	case sfir.Record:
		return n.Boxed
	case sfir.Variant:
		return true
	default:
		return false
	}
}
