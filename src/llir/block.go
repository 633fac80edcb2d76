package llir

import (
	"fmt"
	"strings"

	"github.com/hhramberg/closurec/src/llir/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Block is a basic block: a straight-line instruction sequence ended by exactly one terminator
// (BranchInst, CondBranchInst, ReturnInst, or UnreachableInst).
type Block struct {
	f            *Function
	id           int
	label        string
	instructions []Value
	term         Value
}

// ---------------------
// ----- functions -----
// ---------------------

// Function returns the Function b belongs to, so callers needing to branch can create sibling
// blocks via Function.CreateBlock.
func (b *Block) Function() *Function { return b.f }

// Name returns b's label.
func (b *Block) Name() string {
	if b.label != "" {
		return b.label
	}
	return fmt.Sprintf("block%d", b.id)
}

// Instructions returns b's instructions in order, including the terminator if set.
func (b *Block) Instructions() []Value { return b.instructions }

// Terminated reports whether b already has a terminator instruction.
func (b *Block) Terminated() bool { return b.term != nil }

// String returns the textual LL-IR representation of b.
func (b *Block) String() string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("%s:\n", b.Name()))
	for _, v := range b.instructions {
		sb.WriteString("\t")
		sb.WriteString(v.String())
		sb.WriteRune('\n')
	}
	if b.term == nil {
		sb.WriteString(fmt.Sprintf("\t// error: block %s is not terminated\n", b.Name()))
	}
	return sb.String()
}

func (b *Block) append(v Value) {
	b.instructions = append(b.instructions, v)
}

func (b *Block) terminate(v Value) {
	b.instructions = append(b.instructions, v)
	b.term = v
}

// -----------------------------
// ----- constant builders -----
// -----------------------------

// CreateConstantInt creates a literal integer of the given kind (Integer8/32/64 or
// PointerInteger).
func (b *Block) CreateConstantInt(val int64, kind types.Kind) *ConstantInt {
	c := &ConstantInt{id: b.f.getId(), typ: types.Primitive{K: kind}, Val: val}
	b.append(c)
	return c
}

// CreateConstantFloat creates a literal Float32 or Float64 value.
func (b *Block) CreateConstantFloat(val float64, kind types.Kind) *ConstantFloat {
	c := &ConstantFloat{id: b.f.getId(), typ: types.Primitive{K: kind}, Val: val}
	b.append(c)
	return c
}

// CreateConstantBool creates a literal Boolean value.
func (b *Block) CreateConstantBool(val bool) *ConstantBool {
	c := &ConstantBool{id: b.f.getId(), Val: val}
	b.append(c)
	return c
}

// CreateNull creates the null pointer constant of the given pointee type.
func (b *Block) CreateNull(pointee types.Type) *Null {
	n := &Null{id: b.f.getId(), typ: types.PointerType{Pointee: pointee}}
	b.append(n)
	return n
}

// CreateVoid creates the sole Void-typed value, used as a Target-convention function's return
// operand when it has nothing to report.
func (b *Block) CreateVoid() *Void {
	v := &Void{id: b.f.getId()}
	b.append(v)
	return v
}

// --------------------------------
// ----- memory load / store -----
// --------------------------------

// LoadInst reads the value stored at a pointer.
type LoadInst struct {
	id  int
	typ types.Type
	Src Value
}

func (i *LoadInst) Name() string     { return fmt.Sprintf("%%%d", i.id) }
func (i *LoadInst) Type() types.Type { return i.typ }
func (i *LoadInst) String() string {
	return fmt.Sprintf("%s = load %s", i.Name(), i.Src.Name())
}

// CreateLoad loads the pointee value of Src.
func (b *Block) CreateLoad(src Value) *LoadInst {
	pt, ok := src.Type().(types.PointerType)
	if !ok {
		panic(fmt.Sprintf("llir: CreateLoad operand %s is not a pointer", src.Name()))
	}
	inst := &LoadInst{id: b.f.getId(), typ: pt.Pointee, Src: src}
	b.append(inst)
	return inst
}

// AtomicLoadInst atomically reads the value stored at a pointer — used for the thunk state
// machine's entry-function-pointer reads (§4.5).
type AtomicLoadInst struct {
	id  int
	typ types.Type
	Src Value
}

func (i *AtomicLoadInst) Name() string     { return fmt.Sprintf("%%%d", i.id) }
func (i *AtomicLoadInst) Type() types.Type { return i.typ }
func (i *AtomicLoadInst) String() string {
	return fmt.Sprintf("%s = atomic_load %s", i.Name(), i.Src.Name())
}

// CreateAtomicLoad atomically loads the pointee value of Src.
func (b *Block) CreateAtomicLoad(src Value) *AtomicLoadInst {
	pt, ok := src.Type().(types.PointerType)
	if !ok {
		panic(fmt.Sprintf("llir: CreateAtomicLoad operand %s is not a pointer", src.Name()))
	}
	inst := &AtomicLoadInst{id: b.f.getId(), typ: pt.Pointee, Src: src}
	b.append(inst)
	return inst
}

// StoreInst writes Val to the memory addressed by Dst; has no result value.
type StoreInst struct {
	id  int
	Dst Value
	Val Value
}

func (i *StoreInst) Name() string     { return fmt.Sprintf("store%d", i.id) }
func (i *StoreInst) Type() types.Type { return types.Primitive{K: types.Void} }
func (i *StoreInst) String() string {
	return fmt.Sprintf("store %s, %s", i.Val.Name(), i.Dst.Name())
}

// CreateStore writes val to the memory addressed by dst.
func (b *Block) CreateStore(dst, val Value) *StoreInst {
	inst := &StoreInst{id: b.f.getId(), Dst: dst, Val: val}
	b.append(inst)
	return inst
}

// AtomicStoreInst atomically writes Val to the memory addressed by Dst.
type AtomicStoreInst struct {
	id  int
	Dst Value
	Val Value
}

func (i *AtomicStoreInst) Name() string     { return fmt.Sprintf("atomic_store%d", i.id) }
func (i *AtomicStoreInst) Type() types.Type { return types.Primitive{K: types.Void} }
func (i *AtomicStoreInst) String() string {
	return fmt.Sprintf("atomic_store %s, %s", i.Val.Name(), i.Dst.Name())
}

// CreateAtomicStore atomically writes val to the memory addressed by dst.
func (b *Block) CreateAtomicStore(dst, val Value) *AtomicStoreInst {
	inst := &AtomicStoreInst{id: b.f.getId(), Dst: dst, Val: val}
	b.append(inst)
	return inst
}

// CompareAndSwapInst is the single atomic primitive the thunk state machine is built from: it
// compares the value at Addr to Expected and, if equal, stores New; the result is the value
// observed at Addr before the attempt, so callers can distinguish "won the race" from "someone
// else already transitioned the state" without a second load.
type CompareAndSwapInst struct {
	id       int
	typ      types.Type
	Addr     Value
	Expected Value
	New      Value
}

func (i *CompareAndSwapInst) Name() string     { return fmt.Sprintf("%%%d", i.id) }
func (i *CompareAndSwapInst) Type() types.Type { return i.typ }
func (i *CompareAndSwapInst) String() string {
	return fmt.Sprintf("%s = cas %s, %s, %s", i.Name(), i.Addr.Name(), i.Expected.Name(), i.New.Name())
}

// CreateCompareAndSwap builds a CAS of addr from expected to new, the sole synchronization
// primitive the thunk lowering emits (§4.5: "the lowering never emits a mutex or condition
// variable — only CAS").
func (b *Block) CreateCompareAndSwap(addr, expected, new Value) *CompareAndSwapInst {
	pt, ok := addr.Type().(types.PointerType)
	if !ok {
		panic(fmt.Sprintf("llir: CreateCompareAndSwap addr %s is not a pointer", addr.Name()))
	}
	inst := &CompareAndSwapInst{id: b.f.getId(), typ: pt.Pointee, Addr: addr, Expected: expected, New: new}
	b.append(inst)
	return inst
}

// AtomicAddInst atomically adds Delta to the value at Addr and returns the prior value —
// used by refcount clone/drop insertion to increment/decrement a heap block's refcount prefix
// without a torn read-modify-write.
type AtomicAddInst struct {
	id    int
	typ   types.Type
	Addr  Value
	Delta Value
}

func (i *AtomicAddInst) Name() string     { return fmt.Sprintf("%%%d", i.id) }
func (i *AtomicAddInst) Type() types.Type { return i.typ }
func (i *AtomicAddInst) String() string {
	return fmt.Sprintf("%s = atomic_add %s, %s", i.Name(), i.Addr.Name(), i.Delta.Name())
}

// CreateAtomicAdd atomically adds delta to the integer at addr, returning the prior value.
func (b *Block) CreateAtomicAdd(addr, delta Value) *AtomicAddInst {
	pt, ok := addr.Type().(types.PointerType)
	if !ok {
		panic(fmt.Sprintf("llir: CreateAtomicAdd addr %s is not a pointer", addr.Name()))
	}
	inst := &AtomicAddInst{id: b.f.getId(), typ: pt.Pointee, Addr: addr, Delta: delta}
	b.append(inst)
	return inst
}

// --------------------------------
// ----- arithmetic/comparison -----
// --------------------------------

// ArithmeticOp enumerates the LL-IR binary arithmetic opcodes.
type ArithmeticOp int

// The four arithmetic opcodes.
const (
	OpAdd ArithmeticOp = iota
	OpSub
	OpMul
	OpDiv
)

var arithmeticOpNames = [...]string{"add", "sub", "mul", "div"}

func (o ArithmeticOp) String() string { return arithmeticOpNames[o] }

// ArithmeticInst is a binary arithmetic instruction over two primitive operands of equal type.
type ArithmeticInst struct {
	id  int
	typ types.Type
	Op  ArithmeticOp
	LHS Value
	RHS Value
}

func (i *ArithmeticInst) Name() string     { return fmt.Sprintf("%%%d", i.id) }
func (i *ArithmeticInst) Type() types.Type { return i.typ }
func (i *ArithmeticInst) String() string {
	return fmt.Sprintf("%s = %s %s, %s", i.Name(), i.Op, i.LHS.Name(), i.RHS.Name())
}

// CreateArithmetic builds a binary arithmetic instruction of the given opcode.
func (b *Block) CreateArithmetic(op ArithmeticOp, lhs, rhs Value) *ArithmeticInst {
	inst := &ArithmeticInst{id: b.f.getId(), typ: lhs.Type(), Op: op, LHS: lhs, RHS: rhs}
	b.append(inst)
	return inst
}

// ComparisonOp enumerates the LL-IR binary comparison opcodes.
type ComparisonOp int

// The six comparison opcodes.
const (
	OpEqual ComparisonOp = iota
	OpNotEqual
	OpLessThan
	OpLessThanOrEqual
	OpGreaterThan
	OpGreaterThanOrEqual
)

var comparisonOpNames = [...]string{"eq", "ne", "lt", "le", "gt", "ge"}

func (o ComparisonOp) String() string { return comparisonOpNames[o] }

// ComparisonInst is a binary comparison instruction producing a Boolean.
type ComparisonInst struct {
	id  int
	Op  ComparisonOp
	LHS Value
	RHS Value
}

func (i *ComparisonInst) Name() string     { return fmt.Sprintf("%%%d", i.id) }
func (i *ComparisonInst) Type() types.Type { return types.Primitive{K: types.Boolean} }
func (i *ComparisonInst) String() string {
	return fmt.Sprintf("%s = %s %s, %s", i.Name(), i.Op, i.LHS.Name(), i.RHS.Name())
}

// CreateComparison builds a binary comparison instruction of the given opcode.
func (b *Block) CreateComparison(op ComparisonOp, lhs, rhs Value) *ComparisonInst {
	inst := &ComparisonInst{id: b.f.getId(), Op: op, LHS: lhs, RHS: rhs}
	b.append(inst)
	return inst
}

// ----------------------------------
// ----- records and variants -----
// ----------------------------------

// RecordAddressInst computes the address of field Index of the record pointed to by Base,
// without loading it — the sole address-arithmetic primitive the closure record layout, the
// thunk state machine, and the refcount prefix are all built from.
type RecordAddressInst struct {
	id    int
	typ   types.Type
	Base  Value
	Index int
}

func (i *RecordAddressInst) Name() string     { return fmt.Sprintf("%%%d", i.id) }
func (i *RecordAddressInst) Type() types.Type { return i.typ }
func (i *RecordAddressInst) String() string {
	return fmt.Sprintf("%s = field_addr %s, %d", i.Name(), i.Base.Name(), i.Index)
}

// recordShapeOf normalizes t to the concrete RecordType it is laid out as, so that
// CreateRecordAddress can index into a closure reference (Sized or Unsized) exactly as it would
// a plain record — field 0 through 2 (entry_fn_ptr, drop_fn_ptr, arity) sit at the same index
// under either view; only the trailing environment field's own type differs.
func recordShapeOf(t types.Type) (types.RecordType, bool) {
	switch n := t.(type) {
	case types.RecordType:
		return n, true
	case types.UnsizedClosureType:
		return n.Record(), true
	case types.SizedClosureType:
		return n.Record(), true
	default:
		return types.RecordType{}, false
	}
}

// CreateRecordAddress computes the address of field index of the record base points to.
func (b *Block) CreateRecordAddress(base Value, index int) *RecordAddressInst {
	pt, ok := base.Type().(types.PointerType)
	if !ok {
		panic(fmt.Sprintf("llir: CreateRecordAddress base %s is not a pointer", base.Name()))
	}
	rt, ok := recordShapeOf(pt.Pointee)
	if !ok {
		panic(fmt.Sprintf("llir: CreateRecordAddress base %s does not point to a record", base.Name()))
	}
	if index < 0 || index >= len(rt.Elements) {
		panic(fmt.Sprintf("llir: CreateRecordAddress index %d out of bounds for record of %d elements", index, len(rt.Elements)))
	}
	inst := &RecordAddressInst{id: b.f.getId(), typ: types.PointerType{Pointee: rt.Elements[index]}, Base: base, Index: index}
	b.append(inst)
	return inst
}

// RecordBaseInst recovers a pointer to the start of an enclosing record of type Enclosing from
// Field, a pointer to one of its fields — the self-reference trick a non-thunk closure's entry
// function uses to recover its own closure pointer from the environment pointer it receives
// (§4.4: `closure_ptr = env_ptr − offsetof(ConcreteClosure, env)`), expressed here as the
// inverse of RecordAddressInst rather than raw byte-offset subtraction.
type RecordBaseInst struct {
	id        int
	Enclosing types.RecordType
	Field     Value
	Index     int
}

func (i *RecordBaseInst) Name() string { return fmt.Sprintf("%%%d", i.id) }
func (i *RecordBaseInst) Type() types.Type {
	return types.PointerType{Pointee: i.Enclosing}
}
func (i *RecordBaseInst) String() string {
	return fmt.Sprintf("%s = record_base %s, %s, %d", i.Name(), i.Field.Name(), i.Enclosing.String(), i.Index)
}

// CreateRecordBase recovers a pointer to the enclosing record of type enclosing from field, a
// pointer to field index of that record.
func (b *Block) CreateRecordBase(field Value, enclosing types.RecordType, index int) *RecordBaseInst {
	pt, ok := field.Type().(types.PointerType)
	if !ok {
		panic(fmt.Sprintf("llir: CreateRecordBase field %s is not a pointer", field.Name()))
	}
	if index < 0 || index >= len(enclosing.Elements) {
		panic(fmt.Sprintf("llir: CreateRecordBase index %d out of bounds for record of %d elements", index, len(enclosing.Elements)))
	}
	if !pt.Pointee.Equal(enclosing.Elements[index]) {
		panic(fmt.Sprintf("llir: CreateRecordBase field %s does not have the type of %s's element %d", field.Name(), enclosing.String(), index))
	}
	inst := &RecordBaseInst{id: b.f.getId(), Enclosing: enclosing, Field: field, Index: index}
	b.append(inst)
	return inst
}

// DeconstructInst extracts field Index directly out of a by-value record operand.
type DeconstructInst struct {
	id    int
	typ   types.Type
	Value Value
	Index int
}

func (i *DeconstructInst) Name() string     { return fmt.Sprintf("%%%d", i.id) }
func (i *DeconstructInst) Type() types.Type { return i.typ }
func (i *DeconstructInst) String() string {
	return fmt.Sprintf("%s = deconstruct %s, %d", i.Name(), i.Value.Name(), i.Index)
}

// CreateDeconstruct extracts field index out of a by-value record operand.
func (b *Block) CreateDeconstruct(v Value, index int) *DeconstructInst {
	rt, ok := v.Type().(types.RecordType)
	if !ok {
		panic(fmt.Sprintf("llir: CreateDeconstruct %s is not a record", v.Name()))
	}
	if index < 0 || index >= len(rt.Elements) {
		panic(fmt.Sprintf("llir: CreateDeconstruct index %d out of bounds for record of %d elements", index, len(rt.Elements)))
	}
	inst := &DeconstructInst{id: b.f.getId(), typ: rt.Elements[index], Value: v, Index: index}
	b.append(inst)
	return inst
}

// ConstructRecordInst builds a by-value record from its element values, in order.
type ConstructRecordInst struct {
	id       int
	typ      types.RecordType
	Elements []Value
}

func (i *ConstructRecordInst) Name() string     { return fmt.Sprintf("%%%d", i.id) }
func (i *ConstructRecordInst) Type() types.Type { return i.typ }
func (i *ConstructRecordInst) String() string {
	parts := make([]string, len(i.Elements))
	for j, e := range i.Elements {
		parts[j] = e.Name()
	}
	return fmt.Sprintf("%s = construct %s{%s}", i.Name(), i.typ.String(), strings.Join(parts, ", "))
}

// CreateConstructRecord builds a by-value record of type typ from elements, in order.
func (b *Block) CreateConstructRecord(typ types.RecordType, elements []Value) *ConstructRecordInst {
	if len(elements) != len(typ.Elements) {
		panic(fmt.Sprintf("llir: CreateConstructRecord wrong arity: want %d, got %d", len(typ.Elements), len(elements)))
	}
	inst := &ConstructRecordInst{id: b.f.getId(), typ: typ, Elements: elements}
	b.append(inst)
	return inst
}

// BitCastInst reinterprets Value's pointer type as To without changing its bit pattern — used
// to move between a closure's UnsizedClosureType view and its concrete SizedClosureType view.
type BitCastInst struct {
	id    int
	typ   types.Type
	Value Value
}

func (i *BitCastInst) Name() string     { return fmt.Sprintf("%%%d", i.id) }
func (i *BitCastInst) Type() types.Type { return i.typ }
func (i *BitCastInst) String() string {
	return fmt.Sprintf("%s = bitcast %s to %s", i.Name(), i.Value.Name(), i.typ.String())
}

// CreateBitCast reinterprets v's pointer type as to.
func (b *Block) CreateBitCast(v Value, to types.Type) *BitCastInst {
	if _, ok := v.Type().(types.PointerType); !ok {
		panic(fmt.Sprintf("llir: CreateBitCast operand %s is not a pointer", v.Name()))
	}
	if _, ok := to.(types.PointerType); !ok {
		panic("llir: CreateBitCast target type is not a pointer")
	}
	inst := &BitCastInst{id: b.f.getId(), typ: to, Value: v}
	b.append(inst)
	return inst
}

// ReinterpretInst reinterprets v's bit pattern as To without any numeric conversion — the only
// way a pointer or sub-word primitive moves into or out of a Variant's fixed Integer64 payload
// slot (§6).
type ReinterpretInst struct {
	id  int
	typ types.Type
	V   Value
}

func (i *ReinterpretInst) Name() string     { return fmt.Sprintf("%%%d", i.id) }
func (i *ReinterpretInst) Type() types.Type { return i.typ }
func (i *ReinterpretInst) String() string {
	return fmt.Sprintf("%s = reinterpret %s to %s", i.Name(), i.V.Name(), i.typ.String())
}

// CreateReinterpret reinterprets v's bits as to, used to move a payload value into or out of a
// Variant's Integer64 slot regardless of whether the payload is itself a pointer or a primitive.
func (b *Block) CreateReinterpret(v Value, to types.Type) *ReinterpretInst {
	inst := &ReinterpretInst{id: b.f.getId(), typ: to, V: v}
	b.append(inst)
	return inst
}

// ------------------------------------
// ----- heap/stack allocation -----
// ------------------------------------

// AllocateHeapInst allocates a heap block sized to hold typ, prefixed by a refcount word
// initialized to 1, and returns a pointer to the payload (the refcount prefix sits at a
// negative, implementation-defined offset from the returned pointer).
type AllocateHeapInst struct {
	id  int
	typ types.Type
}

func (i *AllocateHeapInst) Name() string     { return fmt.Sprintf("%%%d", i.id) }
func (i *AllocateHeapInst) Type() types.Type { return types.PointerType{Pointee: i.typ} }
func (i *AllocateHeapInst) String() string {
	return fmt.Sprintf("%s = alloc_heap %s", i.Name(), i.typ.String())
}

// CreateAllocateHeap allocates a refcounted heap block sized to hold typ.
func (b *Block) CreateAllocateHeap(typ types.Type) *AllocateHeapInst {
	inst := &AllocateHeapInst{id: b.f.getId(), typ: typ}
	b.append(inst)
	return inst
}

// RefcountAddressInst recovers the address of the pointer-sized atomic counter word that
// AllocateHeapInst places immediately before Ptr's payload, for use with CreateAtomicAdd.
type RefcountAddressInst struct {
	id  int
	Ptr Value
}

func (i *RefcountAddressInst) Name() string { return fmt.Sprintf("%%%d", i.id) }
func (i *RefcountAddressInst) Type() types.Type {
	return types.PointerType{Pointee: types.Primitive{K: types.PointerInteger}}
}
func (i *RefcountAddressInst) String() string {
	return fmt.Sprintf("%s = refcount_address %s", i.Name(), i.Ptr.Name())
}

// CreateRefcountAddress returns the address of the refcount word preceding the heap block ptr
// points into.
func (b *Block) CreateRefcountAddress(ptr Value) *RefcountAddressInst {
	if _, ok := ptr.Type().(types.PointerType); !ok {
		panic(fmt.Sprintf("llir: CreateRefcountAddress operand %s is not a pointer", ptr.Name()))
	}
	inst := &RefcountAddressInst{id: b.f.getId(), Ptr: ptr}
	b.append(inst)
	return inst
}

// AllocateStackInst allocates typ on the current function's stack frame.
type AllocateStackInst struct {
	id  int
	typ types.Type
}

func (i *AllocateStackInst) Name() string     { return fmt.Sprintf("%%%d", i.id) }
func (i *AllocateStackInst) Type() types.Type { return types.PointerType{Pointee: i.typ} }
func (i *AllocateStackInst) String() string {
	return fmt.Sprintf("%s = alloc_stack %s", i.Name(), i.typ.String())
}

// CreateAllocateStack allocates typ on the stack.
func (b *Block) CreateAllocateStack(typ types.Type) *AllocateStackInst {
	inst := &AllocateStackInst{id: b.f.getId(), typ: typ}
	b.append(inst)
	return inst
}

// FreeHeapInst releases a heap block previously returned by AllocateHeapInst; has no result
// value. Emitted only by drop-function bodies once a refcount decrement reaches zero.
type FreeHeapInst struct {
	id   int
	Addr Value
}

func (i *FreeHeapInst) Name() string     { return fmt.Sprintf("free%d", i.id) }
func (i *FreeHeapInst) Type() types.Type { return types.Primitive{K: types.Void} }
func (i *FreeHeapInst) String() string {
	return fmt.Sprintf("free_heap %s", i.Addr.Name())
}

// CreateFreeHeap releases the heap block addressed by addr.
func (b *Block) CreateFreeHeap(addr Value) *FreeHeapInst {
	inst := &FreeHeapInst{id: b.f.getId(), Addr: addr}
	b.append(inst)
	return inst
}

// -----------------------------------
// ----- call and control flow -----
// -----------------------------------

// CallInst invokes a function value (direct Global or indirect closure entry pointer) with
// Arguments.
type CallInst struct {
	id        int
	typ       types.Type
	Target    Value
	Arguments []Value
}

func (i *CallInst) Name() string     { return fmt.Sprintf("%%%d", i.id) }
func (i *CallInst) Type() types.Type { return i.typ }
func (i *CallInst) String() string {
	parts := make([]string, len(i.Arguments))
	for j, a := range i.Arguments {
		parts[j] = a.Name()
	}
	return fmt.Sprintf("%s = call %s(%s)", i.Name(), i.Target.Name(), strings.Join(parts, ", "))
}

// CreateCall invokes target, whose type must be a Pointer to a Function, with arguments.
func (b *Block) CreateCall(target Value, arguments []Value) *CallInst {
	pt, ok := target.Type().(types.PointerType)
	if !ok {
		panic(fmt.Sprintf("llir: CreateCall target %s is not a pointer", target.Name()))
	}
	ft, ok := pt.Pointee.(types.FunctionType)
	if !ok {
		panic(fmt.Sprintf("llir: CreateCall target %s does not point to a function", target.Name()))
	}
	if len(arguments) != len(ft.Parameters) {
		panic(fmt.Sprintf("llir: CreateCall wrong argument count: want %d, got %d", len(ft.Parameters), len(arguments)))
	}
	inst := &CallInst{id: b.f.getId(), typ: ft.Result, Target: target, Arguments: arguments}
	b.append(inst)
	return inst
}

// UnreachableInst marks control flow whose execution is undefined behavior — used for the
// fall-through of a Case that has no Default (the type checker does not verify that its
// alternatives are exhaustive).
type UnreachableInst struct {
	id int
}

func (i *UnreachableInst) Name() string     { return fmt.Sprintf("unreachable%d", i.id) }
func (i *UnreachableInst) Type() types.Type { return types.Primitive{K: types.Void} }
func (i *UnreachableInst) String() string   { return "unreachable" }

// CreateUnreachable terminates b with an UnreachableInst.
func (b *Block) CreateUnreachable() *UnreachableInst {
	inst := &UnreachableInst{id: b.f.getId()}
	b.terminate(inst)
	return inst
}

// BranchInst is an unconditional jump, terminating its block.
type BranchInst struct {
	id     int
	Target *Block
}

func (i *BranchInst) Name() string     { return fmt.Sprintf("jump%d", i.id) }
func (i *BranchInst) Type() types.Type { return types.Primitive{K: types.Void} }
func (i *BranchInst) String() string   { return fmt.Sprintf("jump %s", i.Target.Name()) }

// CreateBranch terminates b with an unconditional jump to target.
func (b *Block) CreateBranch(target *Block) *BranchInst {
	inst := &BranchInst{id: b.f.getId(), Target: target}
	b.terminate(inst)
	return inst
}

// CondBranchInst is a two-way conditional branch, terminating its block.
type CondBranchInst struct {
	id        int
	Condition Value
	Then      *Block
	Else      *Block
}

func (i *CondBranchInst) Name() string     { return fmt.Sprintf("condjump%d", i.id) }
func (i *CondBranchInst) Type() types.Type { return types.Primitive{K: types.Void} }
func (i *CondBranchInst) String() string {
	return fmt.Sprintf("condjump %s, %s, %s", i.Condition.Name(), i.Then.Name(), i.Else.Name())
}

// CreateCondBranch terminates b with a conditional jump to thenBlock if condition is true,
// elseBlock otherwise.
func (b *Block) CreateCondBranch(condition Value, thenBlock, elseBlock *Block) *CondBranchInst {
	inst := &CondBranchInst{id: b.f.getId(), Condition: condition, Then: thenBlock, Else: elseBlock}
	b.terminate(inst)
	return inst
}

// PhiIncoming is one (value, predecessor) pair of a PhiInst.
type PhiIncoming struct {
	Value Value
	Block *Block
}

// PhiInst merges values from multiple predecessor blocks — used to join the result of an If
// or Case's alternative branches back into a single SSA value.
type PhiInst struct {
	id        int
	typ       types.Type
	Incoming  []PhiIncoming
}

func (i *PhiInst) Name() string     { return fmt.Sprintf("%%%d", i.id) }
func (i *PhiInst) Type() types.Type { return i.typ }
func (i *PhiInst) String() string {
	parts := make([]string, len(i.Incoming))
	for j, in := range i.Incoming {
		parts[j] = fmt.Sprintf("[%s, %s]", in.Value.Name(), in.Block.Name())
	}
	return fmt.Sprintf("%s = phi %s", i.Name(), strings.Join(parts, ", "))
}

// CreatePhi builds a phi node of typ merging incoming.
func (b *Block) CreatePhi(typ types.Type, incoming []PhiIncoming) *PhiInst {
	inst := &PhiInst{id: b.f.getId(), typ: typ, Incoming: incoming}
	b.append(inst)
	return inst
}

// ReturnInst returns Value from the enclosing function, terminating its block.
type ReturnInst struct {
	id    int
	Value Value
}

func (i *ReturnInst) Name() string     { return fmt.Sprintf("ret%d", i.id) }
func (i *ReturnInst) Type() types.Type { return types.Primitive{K: types.Void} }
func (i *ReturnInst) String() string   { return fmt.Sprintf("return %s", i.Value.Name()) }

// CreateReturn terminates b, returning val from the enclosing function.
func (b *Block) CreateReturn(val Value) *ReturnInst {
	inst := &ReturnInst{id: b.f.getId(), Value: val}
	b.terminate(inst)
	return inst
}
