package lower

import (
	"github.com/hhramberg/closurec/src/llir"
	"github.com/hhramberg/closurec/src/llir/types"
	"github.com/hhramberg/closurec/src/sfir"
)

// --------------------------------------------------
// ----- Variant tag registry -----
// --------------------------------------------------
//
// A Variant carries no element-level shape at the type level (§3): the payload type behind any
// given tag is only known from the VariantAlternative that names it. Lowering collects every tag
// it sees across the whole module before emitting any function body, so a VariantConstruct can
// resolve its Tag to a payload type and a TypeInformation record regardless of where in the
// module the matching Case alternative lives.

// variantTag records the payload type a tag carries and the lazily-built TypeInformation record
// naming that type's clone/drop functions.
type variantTag struct {
	payload sfir.Type
	info    *llir.Global
}

// collectVariantTags walks every Definition body in m and records each VariantAlternative's
// (tag, payload type) pair, so VariantConstruct lowering never needs to search the module.
func (c *context) collectVariantTags(m sfir.Module) {
	for _, d := range m.Definitions {
		c.collectTagsExpr(d.Body)
	}
}

func (c *context) collectTagsExpr(e sfir.Expression) {
	switch n := e.(type) {
	case sfir.Arithmetic:
		c.collectTagsExpr(n.LHS)
		c.collectTagsExpr(n.RHS)
	case sfir.Comparison:
		c.collectTagsExpr(n.LHS)
		c.collectTagsExpr(n.RHS)
	case sfir.Case:
		c.collectTagsExpr(n.Argument)
		for _, alt := range n.PrimitiveAlternatives {
			c.collectTagsExpr(alt.Value)
			c.collectTagsExpr(alt.Expression)
		}
		for _, alt := range n.VariantAlternatives {
			if existing, ok := c.variantTags[alt.Name]; ok {
				if !existing.payload.Equal(alt.Type) {
					unreachable("lower: variant tag %s carries inconsistent payload types", alt.Name)
				}
			} else {
				c.variantTags[alt.Name] = &variantTag{payload: alt.Type}
			}
			c.collectTagsExpr(alt.Expression)
		}
		if n.Default != nil {
			c.collectTagsExpr(n.Default)
		}
	case sfir.DropVariable:
		c.collectTagsExpr(n.Body)
	case sfir.FunctionApplication:
		c.collectTagsExpr(n.Function)
		c.collectTagsExpr(n.Argument)
	case sfir.If:
		c.collectTagsExpr(n.Condition)
		c.collectTagsExpr(n.Then)
		c.collectTagsExpr(n.Else)
	case sfir.Let:
		c.collectTagsExpr(n.Bound)
		c.collectTagsExpr(n.Body)
	case sfir.LetRecursive:
		for _, d := range n.Definitions {
			c.collectTagsExpr(d.Body)
		}
		c.collectTagsExpr(n.Body)
	case sfir.RecordConstruct:
		for _, el := range n.Elements {
			c.collectTagsExpr(el)
		}
	case sfir.RecordElement:
		c.collectTagsExpr(n.Value)
	case sfir.VariantConstruct:
		c.collectTagsExpr(n.Payload)
	}
}

// variantTagInfo returns (synthesizing and memoizing if needed) the TypeInformation global for
// tag, whose two fields are the clone and drop function pointers for that tag's payload type,
// reinterpreted from the Integer64 slot a Variant's payload field always carries.
func (c *context) variantTagInfo(tag string) *llir.Global {
	t, ok := c.variantTags[tag]
	if !ok {
		unreachable("lower: variant tag %s used without a matching Case alternative", tag)
	}
	if t.info != nil {
		return t.info
	}

	cloneFn := c.emitVariantPayloadHelper(tag, "clone", t.payload, true)
	dropFn := c.emitVariantPayloadHelper(tag, "drop", t.payload, false)

	global := c.out.CreateGlobal(c.nextName("eir_tag_"+tag), types.TypeInformationType, types.Internal)
	global.Init = c.out.CreateStaticRecord(types.TypeInformationType, []llir.Value{
		c.out.CreateFunctionPointer(cloneFn),
		c.out.CreateFunctionPointer(dropFn),
	})
	t.info = global
	return global
}

// emitVariantPayloadHelper synthesizes a Target-convention function taking (and, for clone,
// returning) the Integer64 payload slot: it reinterprets the slot back to payload's lowered
// type, clones or drops it by type, and — for clone — reinterprets the (possibly rewritten)
// value back into the slot.
func (c *context) emitVariantPayloadHelper(tag, kind string, payload sfir.Type, isClone bool) *llir.Function {
	slot := types.Primitive{K: types.Integer64}
	var sig types.FunctionType
	if isClone {
		sig = types.FunctionType{Parameters: []types.Type{slot}, Result: slot, CallingConvention: types.Target}
	} else {
		sig = types.FunctionType{Parameters: []types.Type{slot}, Result: types.Primitive{K: types.Void}, CallingConvention: types.Target}
	}
	fn := c.out.CreateFunction(c.nextName("eir_variant_"+kind+"_"+tag), sig, types.Internal)
	b := fn.CreateBlock("entry")
	arg := fn.Params()[0]
	lowered := c.loweredType(payload)
	value := b.CreateReinterpret(arg, lowered)

	if isClone {
		result, tail := c.emitClone(b, value, payload)
		out := tail.CreateReinterpret(result, slot)
		tail.CreateReturn(out)
	} else {
		tail := c.emitDrop(b, value, payload)
		tail.CreateReturn(tail.CreateVoid())
	}
	return fn
}
