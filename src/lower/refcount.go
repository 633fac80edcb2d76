package lower

import (
	"github.com/hhramberg/closurec/src/llir"
	"github.com/hhramberg/closurec/src/llir/types"
	"github.com/hhramberg/closurec/src/sfir"
)

// --------------------------------------------------
// ----- Reference-count lowering (G) -----
// --------------------------------------------------
//
// Every function in this file returns the *llir.Block subsequent instructions should append
// to: dropping a heap pointer branches to test whether the refcount reached zero, so the block
// current when emitDrop/emitClone is called is not necessarily the block current once it
// returns — callers must always reassign their working block from the result, mirroring
// vslc/src/ir/llvm/transform.go's habit of threading the "current basic block" through a
// recursive emitter rather than assuming a single straight-line function body.

// emitClone clones v of SF-IR type t in place and returns the (possibly rewritten) value plus
// the block subsequent instructions append to. Per §4.7: a heap pointer is cloned by bumping
// its refcount alone; an inlined value is cloned by recursing structurally.
func (c *context) emitClone(b *llir.Block, v llir.Value, t sfir.Type) (llir.Value, *llir.Block) {
	switch n := t.(type) {
	case sfir.Record:
		if n.Boxed {
			return v, c.incRefcount(b, v)
		}
		fn := c.recordCloneHelperValue(n)
		target := c.out.CreateFunctionPointer(fn)
		b.CreateCall(target, []llir.Value{v})
		return v, b
	case sfir.Variant:
		return v, c.cloneVariant(b, v)
	case sfir.Function:
		return v, c.incRefcount(b, v)
	case sfir.ByteString:
		return v, c.incRefcount(b, v)
	default:
		return v, b // primitives: no-op.
	}
}

// emitDrop drops v of SF-IR type t and returns the block subsequent instructions append to.
func (c *context) emitDrop(b *llir.Block, v llir.Value, t sfir.Type) *llir.Block {
	switch n := t.(type) {
	case sfir.Record:
		if n.Boxed {
			return c.dropHeapPointer(b, v, func(fb *llir.Block, ptr llir.Value) *llir.Block {
				fn := c.recordDropHelperBoxed(n)
				target := c.out.CreateFunctionPointer(fn)
				fb.CreateCall(target, []llir.Value{ptr})
				return fb
			})
		}
		fn := c.recordDropHelperValue(n)
		target := c.out.CreateFunctionPointer(fn)
		b.CreateCall(target, []llir.Value{v})
		return b
	case sfir.Variant:
		return c.dropVariant(b, v)
	case sfir.Function:
		return c.dropHeapPointer(b, v, func(fb *llir.Block, ptr llir.Value) *llir.Block {
			dropAddr := fb.CreateRecordAddress(ptr, types.ClosureDropField)
			dropFnPtr := fb.CreateLoad(dropAddr)
			sig := types.FunctionType{
				Parameters:        []types.Type{ptr.Type()},
				Result:            types.Primitive{K: types.Void},
				CallingConvention: types.Target,
			}
			casted := fb.CreateBitCast(dropFnPtr, types.PointerType{Pointee: sig})
			fb.CreateCall(casted, []llir.Value{ptr})
			return fb
		})
	case sfir.ByteString:
		return c.dropHeapPointer(b, v, func(fb *llir.Block, ptr llir.Value) *llir.Block {
			return fb // no owned constituents beyond the block itself, freed by the caller.
		})
	default:
		return b // primitives: no-op.
	}
}

// incRefcount atomically increments the refcount word preceding the heap block ptr points
// into, and returns the (unchanged) current block.
func (c *context) incRefcount(b *llir.Block, ptr llir.Value) *llir.Block {
	addr := b.CreateRefcountAddress(ptr)
	one := b.CreateConstantInt(1, types.PointerInteger)
	b.CreateAtomicAdd(addr, one)
	return b
}

// dropHeapPointer atomically decrements ptr's refcount; if the prior value was 1, it runs
// onZero (which drops ptr's owned constituents, but must not free or branch itself) on a fresh
// block, frees the block, and joins back into a merge block, which it returns. If the prior
// value was not 1, control skips straight to the same merge block.
func (c *context) dropHeapPointer(b *llir.Block, ptr llir.Value, onZero func(*llir.Block, llir.Value) *llir.Block) *llir.Block {
	addr := b.CreateRefcountAddress(ptr)
	negOne := b.CreateConstantInt(-1, types.PointerInteger)
	prior := b.CreateAtomicAdd(addr, negOne)
	one := b.CreateConstantInt(1, types.PointerInteger)
	cond := b.CreateComparison(llir.OpEqual, prior, one)

	fn := b.Function()
	freeBlock := fn.CreateBlock(c.nextName("drop_free"))
	mergeBlock := fn.CreateBlock(c.nextName("drop_merge"))
	b.CreateCondBranch(cond, freeBlock, mergeBlock)

	freeBlock = onZero(freeBlock, ptr)
	freeBlock.CreateFreeHeap(ptr)
	freeBlock.CreateBranch(mergeBlock)

	return mergeBlock
}

// cloneVariant calls the clone function recorded in v's type-information slot, per §4.7's
// "for variants, call the type-information-provided clone" — the dispatch is always dynamic,
// since a Variant's possible payload types are determined by whichever Case alternatives
// constructed it, not by Variant's own (empty) type-level shape.
func (c *context) cloneVariant(b *llir.Block, v llir.Value) *llir.Block {
	tagPtr := b.CreateDeconstruct(v, types.VariantTagField)
	cloneAddr := b.CreateRecordAddress(tagPtr, types.TypeInformationCloneField)
	cloneFnPtr := b.CreateLoad(cloneAddr)
	payload := b.CreateDeconstruct(v, types.VariantPayloadField)
	sig := types.FunctionType{
		Parameters:        []types.Type{types.Primitive{K: types.Integer64}},
		Result:            types.Primitive{K: types.Integer64},
		CallingConvention: types.Target,
	}
	casted := b.CreateBitCast(cloneFnPtr, types.PointerType{Pointee: sig})
	b.CreateCall(casted, []llir.Value{payload})
	return b
}

// dropVariant calls the drop function recorded in v's type-information slot.
func (c *context) dropVariant(b *llir.Block, v llir.Value) *llir.Block {
	tagPtr := b.CreateDeconstruct(v, types.VariantTagField)
	dropAddr := b.CreateRecordAddress(tagPtr, types.TypeInformationDropField)
	dropFnPtr := b.CreateLoad(dropAddr)
	payload := b.CreateDeconstruct(v, types.VariantPayloadField)
	sig := types.FunctionType{
		Parameters:        []types.Type{types.Primitive{K: types.Integer64}},
		Result:            types.Primitive{K: types.Void},
		CallingConvention: types.Target,
	}
	casted := b.CreateBitCast(dropFnPtr, types.PointerType{Pointee: sig})
	b.CreateCall(casted, []llir.Value{payload})
	return b
}

// recordHelperKey identifies a record type for helper memoization: boxed records are keyed by
// their module-unique name (the only kind of record that carries one), unboxed records by
// their structural signature, since two unboxed records with identical element types share one
// clone/drop helper.
func recordHelperKey(n sfir.Record) string {
	if n.Boxed {
		return "boxed:" + n.Name
	}
	return "value:" + n.String()
}

// recordDropHelperBoxed returns (synthesizing and memoizing if needed) the eir_drop_<Record>
// function for a boxed record type: pointer-taking, recursively drops owned elements. The
// caller is responsible for freeing the block itself once this returns — dropHeapPointer does
// that uniformly for every heap-owning type.
func (c *context) recordDropHelperBoxed(n sfir.Record) *llir.Function {
	key := recordHelperKey(n)
	if h, ok := c.helpers[key]; ok && h.drop != nil {
		return h.drop
	}
	ptrType := types.PointerType{Pointee: c.recordType(n)}
	sig := types.FunctionType{Parameters: []types.Type{ptrType}, Result: types.Primitive{K: types.Void}, CallingConvention: types.Target}
	fn := c.out.CreateFunction("eir_drop_"+n.Name, sig, types.Internal)
	b := fn.CreateBlock("entry")
	ptr := fn.Params()[0]
	for i, e := range n.Elements {
		if !isHeapOwning(e) {
			continue
		}
		addr := b.CreateRecordAddress(ptr, i)
		val := b.CreateLoad(addr)
		b = c.emitDrop(b, val, e)
	}
	b.CreateReturn(b.CreateVoid())
	h := c.helpers[key]
	h.drop = fn
	c.helpers[key] = h
	return fn
}

// recordDropHelperValue returns the eir_drop_value<N> function for an unboxed (inline) record
// type (unboxed records are anonymous, so the helper is numbered rather than named):
// value-taking, recursively drops owned elements, never frees (there is no heap block).
func (c *context) recordDropHelperValue(n sfir.Record) *llir.Function {
	key := recordHelperKey(n)
	if h, ok := c.helpers[key]; ok && h.drop != nil {
		return h.drop
	}
	concrete := c.recordType(n)
	sig := types.FunctionType{Parameters: []types.Type{concrete}, Result: types.Primitive{K: types.Void}, CallingConvention: types.Target}
	name := c.nextName("eir_drop_value")
	fn := c.out.CreateFunction(name, sig, types.Internal)
	b := fn.CreateBlock("entry")
	v := fn.Params()[0]
	for i, e := range n.Elements {
		if !isHeapOwning(e) {
			continue
		}
		field := b.CreateDeconstruct(v, i)
		b = c.emitDrop(b, field, e)
	}
	b.CreateReturn(b.CreateVoid())
	h := c.helpers[key]
	h.drop = fn
	c.helpers[key] = h
	return fn
}

// recordCloneHelperValue returns the eir_clone_value<N> function for an unboxed (inline) record
// type: value-taking, recursively clones owned elements.
func (c *context) recordCloneHelperValue(n sfir.Record) *llir.Function {
	key := recordHelperKey(n)
	if h, ok := c.helpers[key]; ok && h.clone != nil {
		return h.clone
	}
	concrete := c.recordType(n)
	sig := types.FunctionType{Parameters: []types.Type{concrete}, Result: types.Primitive{K: types.Void}, CallingConvention: types.Target}
	name := c.nextName("eir_clone_value")
	fn := c.out.CreateFunction(name, sig, types.Internal)
	b := fn.CreateBlock("entry")
	v := fn.Params()[0]
	for i, e := range n.Elements {
		if !isHeapOwning(e) {
			continue
		}
		field := b.CreateDeconstruct(v, i)
		_, b = c.emitClone(b, field, e)
	}
	b.CreateReturn(b.CreateVoid())
	h := c.helpers[key]
	h.clone = fn
	c.helpers[key] = h
	return fn
}
