package lower

import (
	"github.com/hhramberg/closurec/src/llir"
	"github.com/hhramberg/closurec/src/llir/types"
	"github.com/hhramberg/closurec/src/sfir"
)

// --------------------------------------------------
// ----- Foreign declarations (H) -----
// --------------------------------------------------
//
// A ForeignDeclaration wraps an externally-named symbol as a closure global of known arity
// (§4.6), so call sites never need to distinguish a foreign function from an ordinary
// definition: both are FunctionApplication targets of the same Pointer<UnsizedClosure> shape.
//
//   - CallingConventionSource means the symbol already speaks our curried entry convention
//     (e.g. it was produced by compiling another SF-IR module) — wrapping it is just building a
//     zero-environment closure record directly around the declared function pointer.
//   - CallingConventionNative means the symbol uses a flat, all-arguments-at-once native ABI —
//     wrapping it synthesizes the same n-stage curried trampoline chain a Definition gets,
//     except the final stage calls the native symbol with every accumulated argument instead of
//     lowering an SF-IR body.

// lowerForeignDeclaration declares fd's external symbol and registers its module-visible closure
// global in ctx.closures under fd.Name, so ordinary FunctionApplication lowering can call it
// exactly like any other top-level definition.
func (c *context) lowerForeignDeclaration(fd sfir.ForeignDeclaration) {
	switch fd.CallingConvention {
	case sfir.CallingConventionSource:
		c.lowerForeignSource(fd)
	default:
		c.lowerForeignNative(fd)
	}
}

// lowerForeignSource wraps a symbol that already speaks our curried entry convention: no
// trampoline is needed, just a closure record pointing straight at the declared function.
func (c *context) lowerForeignSource(fd sfir.ForeignDeclaration) {
	n := len(fd.Type.Arguments())
	sig := c.curriedStageSig(fd, 1)
	fn := c.out.CreateFunction(fd.ForeignName, sig, types.External)
	c.registerForeignClosure(fd, fn, n, sig)
}

// curriedStageSig computes the signature of foreign stage k (1-based) of fd's curried chain, the
// same way closures.go's per-Definition stage computation does.
func (c *context) curriedStageSig(fd sfir.ForeignDeclaration, k int) types.FunctionType {
	argTypes := fd.Type.Arguments()
	n := len(argTypes)
	var result types.Type
	if k == n {
		result = c.loweredType(fd.Type.LastResult())
	} else {
		result = types.PointerType{Pointee: types.UnsizedClosureType{Function: c.curriedStageSig(fd, k+1)}}
	}
	return types.FunctionType{
		Parameters: []types.Type{
			types.PointerType{Pointee: types.Primitive{K: types.Void}},
			c.loweredType(argTypes[k-1]),
		},
		Result:            result,
		CallingConvention: types.Source,
	}
}

// lowerForeignNative synthesizes the same n-stage curried trampoline a Definition gets, except
// the final stage calls the native symbol with every accumulated argument at once instead of
// lowering an SF-IR body.
func (c *context) lowerForeignNative(fd sfir.ForeignDeclaration) {
	argTypes := fd.Type.Arguments()
	n := len(argTypes)
	resultType := c.loweredType(fd.Type.LastResult())

	nativeParams := make([]types.Type, n)
	for i, t := range argTypes {
		nativeParams[i] = c.loweredType(t)
	}
	nativeSig := types.FunctionType{Parameters: nativeParams, Result: resultType, CallingConvention: types.Target}
	native := c.out.CreateFunction(fd.ForeignName, nativeSig, types.External)
	nativePtr := c.out.CreateFunctionPointer(native)

	type foreignStage struct {
		envType types.RecordType
		argType types.Type
		sig     types.FunctionType
		fn      *llir.Function
	}
	stages := make([]foreignStage, n)
	for k := 1; k <= n; k++ {
		applied := make([]types.Type, k-1)
		for j := 0; j < k-1; j++ {
			applied[j] = c.loweredType(argTypes[j])
		}
		stages[k-1] = foreignStage{
			envType: types.RecordType{Elements: applied},
			argType: c.loweredType(argTypes[k-1]),
		}
	}
	for k := n; k >= 1; k-- {
		var result types.Type
		if k < n {
			result = types.PointerType{Pointee: types.UnsizedClosureType{Function: stages[k].sig}}
		} else {
			result = resultType
		}
		stages[k-1].sig = types.FunctionType{
			Parameters: []types.Type{
				types.PointerType{Pointee: types.Primitive{K: types.Void}},
				stages[k-1].argType,
			},
			Result:            result,
			CallingConvention: types.Source,
		}
	}

	for k := n; k >= 1; k-- {
		st := stages[k-1]
		fn := c.out.CreateFunction(c.nextName(fd.Name+"_foreign_entry"), st.sig, types.Internal)
		entry := fn.CreateBlock("entry")
		envParam, argParam := fn.Params()[0], fn.Params()[1]
		envPtr := entry.CreateBitCast(envParam, types.PointerType{Pointee: st.envType})

		applied := make([]llir.Value, 0, k)
		for i := 0; i < k-1; i++ {
			applied = append(applied, entry.CreateLoad(entry.CreateRecordAddress(envPtr, i)))
		}
		applied = append(applied, argParam)

		if k < n {
			next := stages[k]
			closureType := types.SizedClosureType{Function: next.sig, Environment: next.envType}.Record()
			rec := entry.CreateAllocateHeap(closureType)
			entry.CreateStore(entry.CreateRecordAddress(rec, types.ClosureEntryField), c.out.CreateFunctionPointer(stages[k].fn))
			noopDrop := c.emitNoopDrop()
			entry.CreateStore(entry.CreateRecordAddress(rec, types.ClosureDropField), c.out.CreateFunctionPointer(noopDrop))
			entry.CreateStore(entry.CreateRecordAddress(rec, types.ClosureArityField), entry.CreateConstantInt(int64(n), types.PointerInteger))
			envAddr := entry.CreateRecordAddress(rec, types.ClosureEnvironmentField)
			for i, v := range applied {
				entry.CreateStore(entry.CreateRecordAddress(envAddr, i), v)
			}
			entry.CreateReturn(entry.CreateBitCast(rec, st.sig.Result))
		} else {
			entry.CreateReturn(entry.CreateCall(nativePtr, applied))
		}
		stages[k-1].fn = fn
	}

	sig := stages[0].sig
	c.registerForeignClosure(fd, stages[0].fn, n, sig)
}

// emitNoopDrop returns (synthesizing once) the shared drop function for a closure whose
// environment holds nothing owned — every foreign-native trampoline stage's partial environment
// is primitives-only, since a foreign declaration's argument types are never inferred to capture
// heap-owning free variables the way a Definition's environment can.
func (c *context) emitNoopDrop() *llir.Function {
	const key = "foreign_noop_drop"
	if h, ok := c.helpers[key]; ok && h.drop != nil {
		return h.drop
	}
	sig := types.FunctionType{
		Parameters:        []types.Type{types.PointerType{Pointee: types.Primitive{K: types.Void}}},
		Result:            types.Primitive{K: types.Void},
		CallingConvention: types.Target,
	}
	fn := c.out.CreateFunction(c.nextName("eir_foreign_noop_drop"), sig, types.Internal)
	b := fn.CreateBlock("entry")
	b.CreateReturn(b.CreateVoid())
	c.helpers[key] = recordHelper{drop: fn}
	return fn
}

// registerForeignClosure builds fd's module-level closure global, pointing its entry field at
// entryFn, and registers it in ctx.closures under fd.Name.
func (c *context) registerForeignClosure(fd sfir.ForeignDeclaration, entryFn *llir.Function, arity int, sig types.FunctionType) {
	dropFn := c.emitNoopDrop()
	entryPtr := c.out.CreateFunctionPointer(entryFn)
	dropPtr := c.out.CreateFunctionPointer(dropFn)
	envType := types.RecordType{}
	closureType := types.SizedClosureType{Function: sig, Environment: envType}.Record()

	elements := []llir.Value{entryPtr, dropPtr, staticInt(int64(arity)), c.out.CreateStaticRecord(envType, nil)}
	// Declared type is the Unsized view, matching every other module-level closure reference
	// (see shellClosure); the concrete, sized Init value below is independent of it.
	global := c.out.CreateGlobal(fd.Name, types.UnsizedClosureType{Function: sig}, types.External)
	global.Init = c.out.CreateStaticRecord(closureType, elements)
	c.closures[fd.Name] = closureInfo{ptr: global, envType: envType, fnType: sig, arity: arity}
	c.globals.bind(fd.Name, global, fd.Type)
}
