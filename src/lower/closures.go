package lower

import (
	"github.com/hhramberg/closurec/src/llir"
	"github.com/hhramberg/closurec/src/llir/types"
	"github.com/hhramberg/closurec/src/sfir"
)

// ----------------------------------------------------
// ----- Closure & entry-function lowering (F) -----
// ----------------------------------------------------
//
// Every closure — top-level or LetRecursive-local, ordinary or thunk — is lowered in three
// phases, so that forward and mutual references between sibling definitions (LetRecursive
// siblings referencing each other, or top-level definitions referencing one another regardless
// of declaration order) always resolve to a known, stable pointer:
//
//  1. shell: allocate the (uninitialized) closure record and register its pointer in
//     ctx.closures, without emitting any stage body or storing any field.
//  2. body: emit every stage's entry function — now free to reference ANY sibling's shell,
//     including its own — and fill in the record's entry/drop/arity fields.
//  3. fill: resolve, clone, and store the record's captured environment (fillEnvironment,
//     below) — deferred furthest because a captured value may itself be another sibling's
//     shell pointer.
//
// A group of definitions is lowered by running phase 1 over the whole group, then phase 2 over
// the whole group, then phase 3 over the whole group — never definition-by-definition — which is
// what makes forward references work: every shell exists before any body is emitted.

// allocKind distinguishes where a Definition's closure record lives, per §4.4 item 3.
type allocKind int

const (
	allocGlobal allocKind = iota // top-level definitions.
	allocHeap                    // LetRecursive-local definitions.
)

// stage is one link of a Definition's curried entry-function chain: the environment it
// expects to find (free variables plus however many arguments have already been applied),
// and the single argument it itself consumes.
type stage struct {
	index   int // 1-based: this stage consumes Arguments[index-1].
	envType types.RecordType
	argType types.Type
	sig     types.FunctionType
	fn      *llir.Function
}

// curriedStages computes the signature (but not the body) of every stage of d's curried entry
// chain, outermost-in (final stage's signature known first, since each earlier stage's result
// type is "pointer to a closure over the next stage").
func (c *context) curriedStages(d *sfir.Definition) []stage {
	n := d.Arity()
	envElems := make([]types.Type, len(d.Environment))
	for i, a := range d.Environment {
		envElems[i] = c.loweredType(a.Type)
	}
	stages := make([]stage, n)
	for k := 1; k <= n; k++ {
		applied := make([]types.Type, 0, len(envElems)+k-1)
		applied = append(applied, envElems...)
		for j := 0; j < k-1; j++ {
			applied = append(applied, c.loweredType(d.Arguments[j].Type))
		}
		stages[k-1] = stage{
			index:   k,
			envType: types.RecordType{Elements: applied},
			argType: c.loweredType(d.Arguments[k-1].Type),
		}
	}
	for k := n; k >= 1; k-- {
		var result types.Type
		if k < n {
			result = types.PointerType{Pointee: types.UnsizedClosureType{Function: stages[k].sig}}
		} else {
			result = c.loweredType(d.ResultType)
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
	return stages
}

// shellClosure allocates d's (uninitialized) closure record — or, for a thunk, delegates to
// shellThunk — and registers its pointer in ctx.closures, without emitting any stage body.
func (c *context) shellClosure(d *sfir.Definition, kind allocKind, b *llir.Block) *llir.Block {
	if d.IsThunk {
		return c.shellThunk(d, kind, b)
	}
	stages := c.curriedStages(d)
	n := d.Arity()
	if n == 0 {
		unreachable("lower: definition %s has zero arguments but is not marked as a thunk", d.Name)
	}
	closureRecordType := types.SizedClosureType{Function: stages[0].sig, Environment: stages[0].envType}.Record()

	if kind == allocGlobal {
		// Declared as the Unsized view so every reference to this name (in particular, a call
		// target in lowerFunctionApplication) sees the same Pointer<UnsizedClosureType> that
		// loweredType(d.Type()) produces for an ordinary sfir.Function value. The concrete,
		// sized init value (below, in bodyClosure) is independent of the Global's declared type.
		global := c.out.CreateGlobal(d.Name, types.UnsizedClosureType{Function: stages[0].sig}, types.External)
		c.closures[d.Name] = closureInfo{def: d, ptr: global, envType: stages[0].envType, fnType: stages[0].sig, arity: n}
		return b
	}
	rec := b.CreateAllocateHeap(closureRecordType)
	c.closures[d.Name] = closureInfo{def: d, ptr: rec, envType: stages[0].envType, fnType: stages[0].sig, arity: n}
	return b
}

// bodyClosure emits every stage entry function of d's curried chain — or, for a thunk, delegates
// to bodyThunk — and finishes initializing the record shellClosure already allocated. base is
// the scope visible from inside d's own body before its arguments and environment are bound:
// ctx.globals for a top-level definition, globals-plus-LetRecursive-siblings for a local one.
func (c *context) bodyClosure(d *sfir.Definition, kind allocKind, base scope, b *llir.Block) *llir.Block {
	if d.IsThunk {
		return c.bodyThunk(d, kind, base, b)
	}
	stages := c.curriedStages(d)
	n := d.Arity()
	for k := n; k >= 1; k-- {
		stages[k-1].fn = c.emitEntryStage(d, stages, k, base)
	}
	dropFn := c.emitDropForEnvironment(d.Name+"_drop0", d.Environment)
	entryPtr := c.out.CreateFunctionPointer(stages[0].fn)
	dropPtr := c.out.CreateFunctionPointer(dropFn)

	ptr := c.closures[d.Name].ptr
	if kind == allocGlobal {
		global := ptr.(*llir.Global)
		closureRecordType := types.SizedClosureType{Function: stages[0].sig, Environment: stages[0].envType}.Record()
		elements := []llir.Value{entryPtr, dropPtr, staticInt(int64(n)), c.out.CreateStaticRecord(stages[0].envType, nil)}
		global.Init = c.out.CreateStaticRecord(closureRecordType, elements)
		return b
	}
	b.CreateStore(b.CreateRecordAddress(ptr, types.ClosureEntryField), entryPtr)
	b.CreateStore(b.CreateRecordAddress(ptr, types.ClosureDropField), dropPtr)
	b.CreateStore(b.CreateRecordAddress(ptr, types.ClosureArityField), b.CreateConstantInt(int64(n), types.PointerInteger))
	return b
}

// fillEnvironment stores captured into name's already-allocated closure record, looking its
// shape up from ctx.closures. A no-op for zero-length captured (every allocGlobal definition,
// whose environment is always empty, since only LetRecursive-local definitions capture enclosing
// values).
func (c *context) fillEnvironment(name string, captured []llir.Value, b *llir.Block) *llir.Block {
	if len(captured) == 0 {
		return b
	}
	info := c.closures[name]
	envAddr := b.CreateRecordAddress(info.ptr, types.ClosureEnvironmentField)
	for i, v := range captured {
		b.CreateStore(b.CreateRecordAddress(envAddr, i), v)
	}
	return b
}

// staticInt is a convenience compile-time integer constant not tied to any block, used only
// inside StaticRecord initializers.
func staticInt(v int64) llir.Value {
	return &llir.ConstantInt{Val: v}
}

// emitEntryStage builds the k-th entry function of d's curried chain. Stage k receives the
// environment of stage k (free variables plus the first k-1 arguments already applied) and
// d.Arguments[k-1]; if k < n it packages a new, one-argument-richer environment into a fresh
// heap closure pointing at stage k+1 and returns it; if k == n it binds every captured name
// and argument, reconstructs d's own name for self-recursion when n == 1 (§4.4's
// pointer-arithmetic trick; for n > 1 self-recursive references instead resolve through the
// stable closure pointer recorded in ctx.closures, since the final stage's environment is not
// shaped like the original arity-n closure), lowers d.Body, and returns its value.
func (c *context) emitEntryStage(d *sfir.Definition, stages []stage, k int, base scope) *llir.Function {
	st := stages[k-1]
	n := len(stages)

	fn := c.out.CreateFunction(c.nextName(d.Name+"_entry"), st.sig, types.Internal)
	entry := fn.CreateBlock("entry")
	params := fn.Params()
	envParam, argParam := params[0], params[1]

	local := base.clone()
	envPtr := entry.CreateBitCast(envParam, types.PointerType{Pointee: st.envType})
	for i, a := range d.Environment {
		addr := entry.CreateRecordAddress(envPtr, i)
		local.bind(a.Name, entry.CreateLoad(addr), a.Type)
	}
	for j := 0; j < k-1; j++ {
		addr := entry.CreateRecordAddress(envPtr, len(d.Environment)+j)
		local.bind(d.Arguments[j].Name, entry.CreateLoad(addr), d.Arguments[j].Type)
	}
	local.bind(d.Arguments[k-1].Name, argParam, d.Arguments[k-1].Type)

	if k < n {
		next := stages[k]
		fields := make([]llir.Value, 0, len(next.envType.Elements))
		for _, a := range d.Environment {
			fields = append(fields, local[a.Name].value)
		}
		for j := 0; j < k; j++ {
			fields = append(fields, local[d.Arguments[j].Name].value)
		}
		closureType := types.SizedClosureType{Function: next.sig, Environment: next.envType}.Record()
		rec := entry.CreateAllocateHeap(closureType)
		entry.CreateStore(entry.CreateRecordAddress(rec, types.ClosureEntryField), c.out.CreateFunctionPointer(next.fn))
		dropFn := c.emitDropForEnvironment(c.nextName(d.Name+"_partialdrop"), partialEnvironment(d, k))
		entry.CreateStore(entry.CreateRecordAddress(rec, types.ClosureDropField), c.out.CreateFunctionPointer(dropFn))
		entry.CreateStore(entry.CreateRecordAddress(rec, types.ClosureArityField), entry.CreateConstantInt(int64(n), types.PointerInteger))
		envAddr := entry.CreateRecordAddress(rec, types.ClosureEnvironmentField)
		for i, v := range fields {
			entry.CreateStore(entry.CreateRecordAddress(envAddr, i), v)
		}
		cast := entry.CreateBitCast(rec, st.sig.Result)
		entry.CreateReturn(cast)
		return fn
	}

	if n == 1 {
		closureType := types.SizedClosureType{Function: st.sig, Environment: st.envType}.Record()
		closurePtr := entry.CreateRecordBase(envPtr, closureType, types.ClosureEnvironmentField)
		local.bind(d.Name, entry.CreateBitCast(closurePtr, c.loweredType(d.Type())), d.Type())
	} else if info, ok := c.closures[d.Name]; ok {
		local.bind(d.Name, entry.CreateBitCast(info.ptr, c.loweredType(d.Type())), d.Type())
	}

	value, tail := c.lowerExpression(d.Body, local, entry)
	tail.CreateReturn(value)
	return fn
}

// partialEnvironment returns the sfir.Argument list describing a partial-application closure's
// environment after k arguments have been applied: the original free variables followed by
// d.Arguments[0:k].
func partialEnvironment(d *sfir.Definition, k int) []sfir.Argument {
	out := make([]sfir.Argument, 0, len(d.Environment)+k)
	out = append(out, d.Environment...)
	out = append(out, d.Arguments[:k]...)
	return out
}

// emitDropForEnvironment synthesizes a drop function of Target calling convention that drops
// each captured variable of env by type, per §4.4 item 2.
func (c *context) emitDropForEnvironment(name string, env []sfir.Argument) *llir.Function {
	envType := c.environmentType(env)
	closureType := types.PointerType{Pointee: types.RecordType{Elements: []types.Type{
		types.PointerType{Pointee: types.Primitive{K: types.Void}},
		types.PointerType{Pointee: types.Primitive{K: types.Void}},
		types.Primitive{K: types.PointerInteger},
		envType,
	}}}
	sig := types.FunctionType{
		Parameters:        []types.Type{closureType},
		Result:            types.Primitive{K: types.Void},
		CallingConvention: types.Target,
	}
	fn := c.out.CreateFunction(name, sig, types.Internal)
	b := fn.CreateBlock("entry")
	closurePtr := fn.Params()[0]
	envAddr := b.CreateRecordAddress(closurePtr, types.ClosureEnvironmentField)
	for i, a := range env {
		if !isHeapOwning(a.Type) {
			continue
		}
		field := b.CreateRecordAddress(envAddr, i)
		val := b.CreateLoad(field)
		b = c.emitDrop(b, val, a.Type)
	}
	b.CreateReturn(b.CreateVoid())
	return fn
}
