package lower

import (
	"github.com/hhramberg/closurec/src/llir"
	"github.com/hhramberg/closurec/src/llir/types"
	"github.com/hhramberg/closurec/src/sfir"
)

// --------------------------------------------------
// ----- Thunk memoization lowering (§4.5) -----
// --------------------------------------------------
//
// A thunk reuses the ordinary closure record shape {entry_fn_ptr, drop_fn_ptr, arity,
// environment}, with its environment extended by one trailing slot that holds the cached
// result once computed. Laziness and memoization live entirely in which of three functions
// entry_fn_ptr currently points to:
//
//   - the init function: on first force, wins a compare-and-swap of its own entry_fn_ptr from
//     &init to &locked, computes the body, drops the now-unneeded captured environment, stores
//     the result into the trailing slot, and swaps entry_fn_ptr to &normal; a concurrent forcer
//     that loses the race instead spins on entry_fn_ptr until it reads &normal.
//   - the locked function: entry_fn_ptr is rewritten to &locked for the entire duration the
//     winner spends computing the body, so every other forcer whose own force() call lands
//     during that window calls straight into this function, not just the narrow pre-CAS race the
//     init function's own spin loop covers. It must therefore busy-spin itself — atomically
//     reload entry_fn_ptr until it reads &normal — before loading and returning the result.
//   - the normal function: loads and returns the cached result.
//
// force (the only way a thunk's value is ever observed, per the automatic force a reference to
// a thunk-bound name triggers in expr.go's resolve) simply loads entry_fn_ptr and calls through
// it — identical to an ordinary FunctionApplication but with a dummy argument, since the three
// functions above share one (envPtr, argPtr) -> result signature regardless of which state
// entry_fn_ptr currently names.
//
// Like an ordinary closure (closures.go), a thunk is lowered in the shell/body/fill three-phase
// split: shellThunk allocates the record and registers its pointer before any body exists;
// bodyThunk then emits the three functions — free to reference any sibling's shell, including
// its own; the shared fillEnvironment stores the captured environment last.

// thunkResultField is the index, within a thunk's environment record, of the slot that holds
// the memoized result once the init function has run to completion.
func thunkResultField(env []sfir.Argument) int {
	return len(env)
}

// thunkShape computes a thunk's environment and function-signature shape, shared by shellThunk
// and bodyThunk so both agree on the record layout without threading extra state between them.
func (c *context) thunkShape(d *sfir.Definition) (envType types.RecordType, sig types.FunctionType) {
	envElems := make([]types.Type, len(d.Environment)+1)
	for i, a := range d.Environment {
		envElems[i] = c.loweredType(a.Type)
	}
	resultType := c.loweredType(d.ResultType)
	envElems[len(d.Environment)] = resultType
	envType = types.RecordType{Elements: envElems}
	sig = types.FunctionType{
		Parameters: []types.Type{
			types.PointerType{Pointee: types.Primitive{K: types.Void}},
			types.PointerType{Pointee: types.Primitive{K: types.Void}},
		},
		Result:            resultType,
		CallingConvention: types.Source,
	}
	return envType, sig
}

// shellThunk allocates d's (uninitialized) closure record and registers its pointer in
// ctx.closures, without emitting the init/locked/normal function trio.
func (c *context) shellThunk(d *sfir.Definition, kind allocKind, b *llir.Block) *llir.Block {
	envType, sig := c.thunkShape(d)
	closureType := types.SizedClosureType{Function: sig, Environment: envType}.Record()

	if kind == allocGlobal {
		global := c.out.CreateGlobal(d.Name, closureType, types.External)
		c.closures[d.Name] = closureInfo{def: d, ptr: global, envType: envType, fnType: sig, arity: 0}
		return b
	}
	rec := b.CreateAllocateHeap(closureType)
	c.closures[d.Name] = closureInfo{def: d, ptr: rec, envType: envType, fnType: sig, arity: 0}
	return b
}

// bodyThunk emits d's init/locked/normal function trio and finishes initializing the record
// shellThunk already allocated. base is the scope visible from inside d's own body, per
// bodyClosure's doc comment.
func (c *context) bodyThunk(d *sfir.Definition, kind allocKind, base scope, b *llir.Block) *llir.Block {
	envType, sig := c.thunkShape(d)
	closureType := types.SizedClosureType{Function: sig, Environment: envType}.Record()

	normalFn := c.emitThunkNormal(d, sig, envType)
	lockedFn := c.emitThunkLocked(d, sig, envType, closureType)
	initFn := c.emitThunkInit(d, sig, envType, closureType, lockedFn, normalFn, base)

	entryPtr := c.out.CreateFunctionPointer(initFn)
	dropFn := c.emitDropForEnvironment(d.Name+"_drop0", d.Environment)
	dropPtr := c.out.CreateFunctionPointer(dropFn)

	ptr := c.closures[d.Name].ptr
	if kind == allocGlobal {
		global := ptr.(*llir.Global)
		elements := []llir.Value{entryPtr, dropPtr, staticInt(0), c.out.CreateStaticRecord(envType, nil)}
		global.Init = c.out.CreateStaticRecord(closureType, elements)
		return b
	}
	b.CreateStore(b.CreateRecordAddress(ptr, types.ClosureEntryField), entryPtr)
	b.CreateStore(b.CreateRecordAddress(ptr, types.ClosureDropField), dropPtr)
	b.CreateStore(b.CreateRecordAddress(ptr, types.ClosureArityField), b.CreateConstantInt(0, types.PointerInteger))
	return b
}

// emitThunkNormal builds the function entry_fn_ptr names once a thunk has been forced: load and
// return the cached result.
func (c *context) emitThunkNormal(d *sfir.Definition, sig types.FunctionType, envType types.RecordType) *llir.Function {
	fn := c.out.CreateFunction(c.nextName(d.Name+"_thunk_normal"), sig, types.Internal)
	entry := fn.CreateBlock("entry")
	envPtr := entry.CreateBitCast(fn.Params()[0], types.PointerType{Pointee: envType})
	addr := entry.CreateRecordAddress(envPtr, thunkResultField(d.Environment))
	entry.CreateReturn(entry.CreateLoad(addr))
	return fn
}

// emitThunkLocked builds the function entry_fn_ptr names for the entire duration the winning
// forcer spends computing the body. force() reaches this function for every forcer whose load
// lands anywhere in that window, not only the narrow pre-CAS race the init function's own spin
// loop handles — so it must busy-spin itself, reloading entry_fn_ptr until it observes &normal,
// before loading and returning the now-published result.
func (c *context) emitThunkLocked(d *sfir.Definition, sig types.FunctionType, envType, closureType types.RecordType) *llir.Function {
	fn := c.out.CreateFunction(c.nextName(d.Name+"_thunk_locked"), sig, types.Internal)
	entry := fn.CreateBlock("entry")
	envPtr := entry.CreateBitCast(fn.Params()[0], types.PointerType{Pointee: envType})
	closurePtr := entry.CreateRecordBase(envPtr, closureType, types.ClosureEnvironmentField)
	entryAddr := entry.CreateRecordAddress(closurePtr, types.ClosureEntryField)
	lockedPtr := c.out.CreateFunctionPointer(fn)

	loopBlock := fn.CreateBlock(c.nextName(d.Name + "_thunk_locked_loop"))
	doneBlock := fn.CreateBlock(c.nextName(d.Name + "_thunk_locked_done"))
	entry.CreateBranch(loopBlock)

	cur := loopBlock.CreateAtomicLoad(entryAddr)
	stillLocked := loopBlock.CreateComparison(llir.OpEqual, cur, lockedPtr)
	loopBlock.CreateCondBranch(stillLocked, loopBlock, doneBlock)

	resultAddr := doneBlock.CreateRecordAddress(envPtr, thunkResultField(d.Environment))
	doneBlock.CreateReturn(doneBlock.CreateLoad(resultAddr))
	return fn
}

// emitThunkInit builds the function entry_fn_ptr starts out naming: CAS its own entry_fn_ptr
// from &init to &locked; the winner binds d's captured environment (seeded from base, exactly
// like an ordinary entry stage) and, for a self-referential thunk, d's own name, bound as a
// forceable thunk pointer exactly like any other reference to it, lowers the body, drops the
// now-consumed environment, stores the result, and publishes it by swapping entry_fn_ptr to
// &normal; every loser spins until entry_fn_ptr reads &normal and then loads the published
// result directly.
func (c *context) emitThunkInit(d *sfir.Definition, sig types.FunctionType, envType, closureType types.RecordType, lockedFn, normalFn *llir.Function, base scope) *llir.Function {
	fn := c.out.CreateFunction(c.nextName(d.Name+"_thunk_init"), sig, types.Internal)
	entry := fn.CreateBlock("entry")
	envParam := fn.Params()[0]
	envPtr := entry.CreateBitCast(envParam, types.PointerType{Pointee: envType})
	closurePtr := entry.CreateRecordBase(envPtr, closureType, types.ClosureEnvironmentField)
	entryAddr := entry.CreateRecordAddress(closurePtr, types.ClosureEntryField)

	initPtr := c.out.CreateFunctionPointer(fn)
	lockedPtr := c.out.CreateFunctionPointer(lockedFn)
	normalPtr := c.out.CreateFunctionPointer(normalFn)

	cas := entry.CreateCompareAndSwap(entryAddr, initPtr, lockedPtr)
	won := entry.CreateComparison(llir.OpEqual, cas, initPtr)

	computeBlock := fn.CreateBlock(c.nextName(d.Name + "_thunk_compute"))
	spinBlock := fn.CreateBlock(c.nextName(d.Name + "_thunk_spin"))
	entry.CreateCondBranch(won, computeBlock, spinBlock)

	local := base.clone()
	for i, a := range d.Environment {
		addr := computeBlock.CreateRecordAddress(envPtr, i)
		local.bind(a.Name, computeBlock.CreateLoad(addr), a.Type)
	}
	local.bindThunk(d.Name, closurePtr, d.Type())

	value, tail := c.lowerExpression(d.Body, local, computeBlock)
	tail = c.emitDropForEnvironmentInline(tail, envPtr, d.Environment)
	resultAddr := tail.CreateRecordAddress(envPtr, thunkResultField(d.Environment))
	tail.CreateStore(resultAddr, value)
	tail.CreateAtomicStore(entryAddr, normalPtr)
	tail.CreateReturn(value)

	loopBlock := fn.CreateBlock(c.nextName(d.Name + "_thunk_loop"))
	doneBlock := fn.CreateBlock(c.nextName(d.Name + "_thunk_done"))
	spinBlock.CreateBranch(loopBlock)
	cur := loopBlock.CreateAtomicLoad(entryAddr)
	stillLocked := loopBlock.CreateComparison(llir.OpEqual, cur, lockedPtr)
	loopBlock.CreateCondBranch(stillLocked, loopBlock, doneBlock)
	doneResultAddr := doneBlock.CreateRecordAddress(envPtr, thunkResultField(d.Environment))
	doneBlock.CreateReturn(doneBlock.CreateLoad(doneResultAddr))

	return fn
}

// emitDropForEnvironmentInline drops every heap-owning captured variable of env directly out of
// envPtr on b, without synthesizing a separate function — used once the init function is done
// with its own environment, since by then it already holds envPtr locally and a call indirection
// would be pointless.
func (c *context) emitDropForEnvironmentInline(b *llir.Block, envPtr llir.Value, env []sfir.Argument) *llir.Block {
	for i, a := range env {
		if !isHeapOwning(a.Type) {
			continue
		}
		addr := b.CreateRecordAddress(envPtr, i)
		val := b.CreateLoad(addr)
		b = c.emitDrop(b, val, a.Type)
	}
	return b
}

// force loads a thunk's current entry_fn_ptr and calls through it — the only way a thunk's
// cached-or-freshly-computed result is ever observed, per every sfir.Variable reference to a
// thunk-bound name in expr.go's resolve. The load must be atomic: entry_fn_ptr is mutated
// concurrently by a racing forcer's CAS.
func (c *context) force(b *llir.Block, thunkPtr llir.Value) (llir.Value, *llir.Block) {
	entryAddr := b.CreateRecordAddress(thunkPtr, types.ClosureEntryField)
	entryFn := b.CreateAtomicLoad(entryAddr)
	envFieldAddr := b.CreateRecordAddress(thunkPtr, types.ClosureEnvironmentField)
	envParam := b.CreateBitCast(envFieldAddr, types.PointerType{Pointee: types.Primitive{K: types.Void}})
	dummyArg := b.CreateNull(types.Primitive{K: types.Void})
	result := b.CreateCall(entryFn, []llir.Value{envParam, dummyArg})
	return result, b
}
