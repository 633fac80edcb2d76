package lower

import (
	"github.com/hhramberg/closurec/src/llir"
	"github.com/hhramberg/closurec/src/llir/types"
	"github.com/hhramberg/closurec/src/sfir"
)

// --------------------------------------------
// ----- Expression lowering (E) -----
// --------------------------------------------
//
// lowerExpression mirrors check.checkExpression's dispatch (same sixteen variants, same
// recursive shape) but emits LL-IR instructions instead of inferring types, and threads the
// current block through every call: any construct that branches (If, Case, a clone/drop of a
// heap pointer) returns a different block than the one it was given, and every caller must
// continue appending to whatever block comes back.

var arithmeticOps = [...]llir.ArithmeticOp{llir.OpAdd, llir.OpSub, llir.OpMul, llir.OpDiv}

var comparisonOps = [...]llir.ComparisonOp{
	llir.OpEqual, llir.OpNotEqual, llir.OpLessThan,
	llir.OpLessThanOrEqual, llir.OpGreaterThan, llir.OpGreaterThanOrEqual,
}

// lowerExpression lowers e under the bindings in vars, appending instructions starting at b,
// and returns the resulting value together with the block subsequent instructions append to.
func (c *context) lowerExpression(e sfir.Expression, vars scope, b *llir.Block) (llir.Value, *llir.Block) {
	switch n := e.(type) {
	case sfir.Arithmetic:
		lhs, b := c.lowerExpression(n.LHS, vars, b)
		rhs, b := c.lowerExpression(n.RHS, vars, b)
		return b.CreateArithmetic(arithmeticOps[n.Operator], lhs, rhs), b
	case sfir.Comparison:
		lhs, b := c.lowerExpression(n.LHS, vars, b)
		rhs, b := c.lowerExpression(n.RHS, vars, b)
		return b.CreateComparison(comparisonOps[n.Operator], lhs, rhs), b
	case sfir.BooleanLiteral:
		return b.CreateConstantBool(n.Value), b
	case sfir.NumberLiteral:
		return b.CreateConstantFloat(n.Value, types.Float64), b
	case sfir.ByteStringLiteral:
		return c.lowerByteStringLiteral(n, b)
	case sfir.Case:
		return c.lowerCase(n, vars, b)
	case sfir.CloneVariable:
		val, b := c.resolve(vars, n.Name, b)
		return c.emitClone(b, val, n.Type)
	case sfir.DropVariable:
		value, b := c.lowerExpression(n.Body, vars, b)
		val, b := c.resolve(vars, n.Name, b)
		b = c.emitDrop(b, val, n.Type)
		return value, b
	case sfir.FunctionApplication:
		return c.lowerFunctionApplication(n, vars, b)
	case sfir.If:
		return c.lowerIf(n, vars, b)
	case sfir.Let:
		return c.lowerLet(n, vars, b)
	case sfir.LetRecursive:
		return c.lowerLetRecursive(n, vars, b)
	case sfir.RecordConstruct:
		return c.lowerRecordConstruct(n, vars, b)
	case sfir.RecordElement:
		return c.lowerRecordElement(n, vars, b)
	case sfir.Variable:
		return c.resolve(vars, n.Name, b)
	case sfir.VariantConstruct:
		return c.lowerVariantConstruct(n, vars, b)
	default:
		unreachable("lower: unhandled expression kind %T", e)
		return nil, b
	}
}

// resolve looks name up in vars and, if it names an unforced thunk, forces it — the single
// choke point every read of a bound name passes through, whether from a Variable expression, a
// Clone/DropVariable node, or a LetRecursive environment capture, so a thunk is never observed
// in its raw (possibly still-unforced) closure-record form anywhere its declared SF-IR type
// (always its eventual result type, never a distinct "thunk of" wrapper) is expected.
func (c *context) resolve(vars scope, name string, b *llir.Block) (llir.Value, *llir.Block) {
	bind := vars[name]
	if bind.isThunk {
		return c.force(b, bind.value)
	}
	return bind.value, b
}

func (c *context) lowerLet(n sfir.Let, vars scope, b *llir.Block) (llir.Value, *llir.Block) {
	bound, b := c.lowerExpression(n.Bound, vars, b)
	local := vars.clone()
	local.bind(n.Name, bound, n.Type)
	return c.lowerExpression(n.Body, local, b)
}

// lowerLetRecursive lowers a group of mutually (and self-) recursive sibling definitions in the
// three phases closures.go documents: shell every sibling's closure record and register its
// stable pointer in both ctx.closures and the local scope; emit every sibling's body, now free
// to reference any sibling (forward or backward) by name; then resolve, clone, and store every
// sibling's captured environment, per §4.3 and §4.7.
func (c *context) lowerLetRecursive(n sfir.LetRecursive, vars scope, b *llir.Block) (llir.Value, *llir.Block) {
	local := vars.clone()
	siblings := c.globals.clone() // visible from inside each sibling's own body: globals + group.
	for _, d := range n.Definitions {
		b = c.shellClosure(d, allocHeap, b)
		info := c.closures[d.Name]
		if d.IsThunk {
			local.bindThunk(d.Name, info.ptr, d.Type())
			siblings.bindThunk(d.Name, info.ptr, d.Type())
		} else {
			// Every reader of a bound sfir.Function value (in particular FunctionApplication)
			// expects the Unsized view loweredType(d.Type()) produces, not the concrete, sized
			// record shellClosure allocated — bitcast once here rather than at every call site.
			cast := b.CreateBitCast(info.ptr, c.loweredType(d.Type()))
			local.bind(d.Name, cast, d.Type())
			siblings.bind(d.Name, cast, d.Type())
		}
	}
	for _, d := range n.Definitions {
		b = c.bodyClosure(d, allocHeap, siblings, b)
	}
	for _, d := range n.Definitions {
		captured := make([]llir.Value, len(d.Environment))
		for i, a := range d.Environment {
			resolved, nb := c.resolve(local, a.Name, b)
			v, nb2 := c.emitClone(nb, resolved, a.Type)
			b = nb2
			captured[i] = v
		}
		b = c.fillEnvironment(d.Name, captured, b)
	}
	return c.lowerExpression(n.Body, local, b)
}

func (c *context) lowerIf(n sfir.If, vars scope, b *llir.Block) (llir.Value, *llir.Block) {
	cond, b := c.lowerExpression(n.Condition, vars, b)
	fn := b.Function()
	thenBlock := fn.CreateBlock(c.nextName("if_then"))
	elseBlock := fn.CreateBlock(c.nextName("if_else"))
	mergeBlock := fn.CreateBlock(c.nextName("if_merge"))
	b.CreateCondBranch(cond, thenBlock, elseBlock)

	thenVal, thenTail := c.lowerExpression(n.Then, vars, thenBlock)
	thenTail.CreateBranch(mergeBlock)
	elseVal, elseTail := c.lowerExpression(n.Else, vars, elseBlock)
	elseTail.CreateBranch(mergeBlock)

	result := mergeBlock.CreatePhi(thenVal.Type(), []llir.PhiIncoming{
		{Value: thenVal, Block: thenTail},
		{Value: elseVal, Block: elseTail},
	})
	return result, mergeBlock
}

// lowerFunctionApplication performs exactly one atomic entry-pointer load and one unary call,
// per §4.3: entry_fn_ptr is always loaded with acquire semantics, since an ordinary closure
// reference and a thunk share the same record shape and a caller cannot tell which one it holds.
// The saturated-call optimization that would skip intermediate stages for a fully-applied
// curried call is deliberately not implemented (see the no-whole-program-optimization non-goal),
// so an n-ary call lowers to n chained FunctionApplication nodes, each independently performing
// this sequence.
func (c *context) lowerFunctionApplication(n sfir.FunctionApplication, vars scope, b *llir.Block) (llir.Value, *llir.Block) {
	fnVal, b := c.lowerExpression(n.Function, vars, b)
	argVal, b := c.lowerExpression(n.Argument, vars, b)

	uc := fnVal.Type().(types.PointerType).Pointee.(types.UnsizedClosureType)
	recType := uc.Record()
	closurePtr := b.CreateBitCast(fnVal, types.PointerType{Pointee: recType})

	entryAddr := b.CreateRecordAddress(closurePtr, types.ClosureEntryField)
	entryFn := b.CreateAtomicLoad(entryAddr)

	envFieldAddr := b.CreateRecordAddress(closurePtr, types.ClosureEnvironmentField)
	envParam := b.CreateBitCast(envFieldAddr, types.PointerType{Pointee: types.Primitive{K: types.Void}})

	result := b.CreateCall(entryFn, []llir.Value{envParam, argVal})
	return result, b
}

func (c *context) lowerByteStringLiteral(n sfir.ByteStringLiteral, b *llir.Block) (llir.Value, *llir.Block) {
	elemType := types.Primitive{K: types.Integer8}
	arrType := types.RecordType{Elements: make([]types.Type, len(n.Value))}
	elements := make([]llir.Value, len(n.Value))
	for i, by := range n.Value {
		arrType.Elements[i] = elemType
		elements[i] = &llir.ConstantInt{Val: int64(by)}
	}
	arrGlobal := c.out.CreateGlobal(c.nextName("eir_bytes"), arrType, types.Internal)
	arrGlobal.Init = c.out.CreateStaticRecord(arrType, elements)

	dataPtr := b.CreateBitCast(arrGlobal, types.PointerType{Pointee: elemType})
	rec := b.CreateAllocateHeap(types.ByteStringValueType)
	b.CreateStore(b.CreateRecordAddress(rec, types.ByteStringLengthField), b.CreateConstantInt(int64(len(n.Value)), types.Integer64))
	b.CreateStore(b.CreateRecordAddress(rec, types.ByteStringDataField), dataPtr)
	return rec, b
}

func (c *context) lowerRecordConstruct(n sfir.RecordConstruct, vars scope, b *llir.Block) (llir.Value, *llir.Block) {
	rt := n.Type.(sfir.Record)
	values := make([]llir.Value, len(n.Elements))
	for i, el := range n.Elements {
		v, nb := c.lowerExpression(el, vars, b)
		b = nb
		values[i] = v
	}
	concrete := c.recordType(rt)
	if rt.Boxed {
		rec := b.CreateAllocateHeap(concrete)
		for i, v := range values {
			b.CreateStore(b.CreateRecordAddress(rec, i), v)
		}
		return rec, b
	}
	return b.CreateConstructRecord(concrete, values), b
}

func (c *context) lowerRecordElement(n sfir.RecordElement, vars scope, b *llir.Block) (llir.Value, *llir.Block) {
	val, b := c.lowerExpression(n.Value, vars, b)
	rt := n.Type.(sfir.Record)
	if rt.Boxed {
		return b.CreateLoad(b.CreateRecordAddress(val, n.Index)), b
	}
	return b.CreateDeconstruct(val, n.Index), b
}

func (c *context) lowerVariantConstruct(n sfir.VariantConstruct, vars scope, b *llir.Block) (llir.Value, *llir.Block) {
	payload, b := c.lowerExpression(n.Payload, vars, b)
	slot := b.CreateReinterpret(payload, types.Primitive{K: types.Integer64})
	info := c.variantTagInfo(n.Tag)
	result := b.CreateConstructRecord(types.VariantValueType, []llir.Value{info, slot})
	return result, b
}

func (c *context) lowerCase(n sfir.Case, vars scope, b *llir.Block) (llir.Value, *llir.Block) {
	if n.IsVariant() {
		return c.lowerVariantCase(n, vars, b)
	}
	return c.lowerPrimitiveCase(n, vars, b)
}

func (c *context) lowerPrimitiveCase(n sfir.Case, vars scope, b *llir.Block) (llir.Value, *llir.Block) {
	argVal, b := c.lowerExpression(n.Argument, vars, b)
	fn := b.Function()
	mergeBlock := fn.CreateBlock(c.nextName("case_merge"))
	var incoming []llir.PhiIncoming
	var resultType types.Type

	current := b
	for _, alt := range n.PrimitiveAlternatives {
		keyVal, nb := c.lowerExpression(alt.Value, vars, current)
		cond := nb.CreateComparison(llir.OpEqual, argVal, keyVal)
		altBlock := fn.CreateBlock(c.nextName("case_alt"))
		nextBlock := fn.CreateBlock(c.nextName("case_next"))
		nb.CreateCondBranch(cond, altBlock, nextBlock)

		altVal, altTail := c.lowerExpression(alt.Expression, vars, altBlock)
		if resultType == nil {
			resultType = altVal.Type()
		}
		altTail.CreateBranch(mergeBlock)
		incoming = append(incoming, llir.PhiIncoming{Value: altVal, Block: altTail})
		current = nextBlock
	}

	resultType = c.terminateCaseDefault(n.Default, vars, current, mergeBlock, resultType, &incoming)
	return mergeBlock.CreatePhi(resultType, incoming), mergeBlock
}

func (c *context) lowerVariantCase(n sfir.Case, vars scope, b *llir.Block) (llir.Value, *llir.Block) {
	argVal, b := c.lowerExpression(n.Argument, vars, b)
	tagPtr := b.CreateDeconstruct(argVal, types.VariantTagField)
	payloadSlot := b.CreateDeconstruct(argVal, types.VariantPayloadField)
	fn := b.Function()
	mergeBlock := fn.CreateBlock(c.nextName("case_merge"))
	var incoming []llir.PhiIncoming
	var resultType types.Type

	current := b
	for _, alt := range n.VariantAlternatives {
		tagInfo := c.variantTagInfo(alt.Name)
		cond := current.CreateComparison(llir.OpEqual, tagPtr, tagInfo)
		altBlock := fn.CreateBlock(c.nextName("case_alt"))
		nextBlock := fn.CreateBlock(c.nextName("case_next"))
		current.CreateCondBranch(cond, altBlock, nextBlock)

		payloadVal := altBlock.CreateReinterpret(payloadSlot, c.loweredType(alt.Type))
		local := vars.clone()
		local.bind(alt.Name, payloadVal, alt.Type)
		altVal, altTail := c.lowerExpression(alt.Expression, local, altBlock)
		if resultType == nil {
			resultType = altVal.Type()
		}
		altTail.CreateBranch(mergeBlock)
		incoming = append(incoming, llir.PhiIncoming{Value: altVal, Block: altTail})
		current = nextBlock
	}

	resultType = c.terminateCaseDefault(n.Default, vars, current, mergeBlock, resultType, &incoming)
	return mergeBlock.CreatePhi(resultType, incoming), mergeBlock
}

// terminateCaseDefault lowers Default (if present) into current, branching into mergeBlock and
// appending to incoming, or — absent a Default — marks current unreachable. The checker does
// not verify that the alternatives are exhaustive; an unmatched value reaching current is
// undefined behavior.
func (c *context) terminateCaseDefault(def sfir.Expression, vars scope, current, mergeBlock *llir.Block, resultType types.Type, incoming *[]llir.PhiIncoming) types.Type {
	if def == nil {
		current.CreateUnreachable()
		return resultType
	}
	defVal, defTail := c.lowerExpression(def, vars, current)
	if resultType == nil {
		resultType = defVal.Type()
	}
	defTail.CreateBranch(mergeBlock)
	*incoming = append(*incoming, llir.PhiIncoming{Value: defVal, Block: defTail})
	return resultType
}
