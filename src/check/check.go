package check

import (
	"github.com/hhramberg/closurec/src/sfir"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// scope maps a variable name to its SF-IR type in the current expression's lexical context.
// Scopes are copied (not mutated in place) at every binding site, the same way ssf's checker
// clones its HashMap<&str, Type> per Let/LetRecursive/Case arm, so that a binding never leaks
// into a sibling branch.
type scope map[string]sfir.Type

// clone returns a shallow copy of s, safe to extend without mutating s.
func (s scope) clone() scope {
	out := make(scope, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	return out
}

// ---------------------
// ----- functions -----
// ---------------------

// Check verifies that every expression in m is well-typed against m's declarations,
// definitions, and type definitions. It returns the first Error encountered (fail-fast, per
// §7) or nil if m is well-typed.
func Check(m sfir.Module) error {
	typeDefs := make(map[string]sfir.Record, len(m.TypeDefinitions))
	for _, td := range m.TypeDefinitions {
		typeDefs[td.Name] = td.Type
	}

	vars := make(scope, len(m.ForeignDeclarations)+len(m.Declarations)+len(m.Definitions))
	for _, fd := range m.ForeignDeclarations {
		vars[fd.Name] = fd.Type
	}
	for _, d := range m.Declarations {
		vars[d.Name] = d.Type
	}
	for _, d := range m.Definitions {
		vars[d.Name] = d.Type()
	}

	for _, d := range m.Definitions {
		if err := checkDefinition(d, vars, typeDefs); err != nil {
			return err
		}
	}

	for _, fd := range m.ForeignDefinitions {
		if _, ok := vars[fd.ForeignName]; !ok {
			return errForeignDefinitionNotFound(fd.Name)
		}
	}

	return nil
}

// checkDefinition verifies that d's body checks to d's declared result type, with d's
// environment and arguments bound in scope.
func checkDefinition(d *sfir.Definition, vars scope, typeDefs map[string]sfir.Record) error {
	local := vars.clone()
	for _, a := range d.Environment {
		local[a.Name] = a.Type
	}
	for _, a := range d.Arguments {
		local[a.Name] = a.Type
	}

	bodyType, err := checkExpression(d.Body, local, typeDefs)
	if err != nil {
		return err
	}
	return checkEquality(bodyType, d.ResultType)
}

// checkEquality returns a TypesNotMatched Error unless a and b are structurally equal.
func checkEquality(a, b sfir.Type) error {
	if !a.Equal(b) {
		return errTypesNotMatched(a, b)
	}
	return nil
}

// checkExpression type-checks e in the given scope and returns its SF-IR type.
func checkExpression(e sfir.Expression, vars scope, typeDefs map[string]sfir.Record) (sfir.Type, error) {
	switch n := e.(type) {
	case sfir.Arithmetic:
		return checkArithmetic(n, vars, typeDefs)
	case sfir.Comparison:
		return checkComparison(n, vars, typeDefs)
	case sfir.BooleanLiteral:
		return sfir.Primitive{Kind: sfir.Boolean}, nil
	case sfir.NumberLiteral:
		return sfir.Primitive{Kind: sfir.Float64}, nil
	case sfir.ByteStringLiteral:
		return sfir.ByteString{}, nil
	case sfir.Case:
		return checkCase(n, vars, typeDefs)
	case sfir.CloneVariable:
		if _, ok := vars[n.Name]; !ok {
			return nil, errVariableNotFound(n.Name)
		}
		return n.Type, nil
	case sfir.DropVariable:
		if _, ok := vars[n.Name]; !ok {
			return nil, errVariableNotFound(n.Name)
		}
		return checkExpression(n.Body, vars, typeDefs)
	case sfir.FunctionApplication:
		return checkFunctionApplication(n, vars, typeDefs)
	case sfir.If:
		return checkIf(n, vars, typeDefs)
	case sfir.Let:
		return checkLet(n, vars, typeDefs)
	case sfir.LetRecursive:
		return checkLetRecursive(n, vars, typeDefs)
	case sfir.RecordConstruct:
		return checkRecord(n, vars, typeDefs)
	case sfir.RecordElement:
		return checkRecordElement(n, vars, typeDefs)
	case sfir.Variable:
		t, ok := vars[n.Name]
		if !ok {
			return nil, errVariableNotFound(n.Name)
		}
		return t, nil
	case sfir.VariantConstruct:
		if _, err := checkExpression(n.Payload, vars, typeDefs); err != nil {
			return nil, err
		}
		return sfir.Variant{}, nil
	default:
		panic("check: unhandled expression kind")
	}
}

func checkArithmetic(n sfir.Arithmetic, vars scope, typeDefs map[string]sfir.Record) (sfir.Type, error) {
	lhs, err := checkExpression(n.LHS, vars, typeDefs)
	if err != nil {
		return nil, err
	}
	rhs, err := checkExpression(n.RHS, vars, typeDefs)
	if err != nil {
		return nil, err
	}
	if !sfir.IsPrimitive(lhs) || !sfir.IsPrimitive(rhs) || !lhs.Equal(rhs) {
		return nil, errTypesNotMatched(lhs, rhs)
	}
	return lhs, nil
}

func checkComparison(n sfir.Comparison, vars scope, typeDefs map[string]sfir.Record) (sfir.Type, error) {
	lhs, err := checkExpression(n.LHS, vars, typeDefs)
	if err != nil {
		return nil, err
	}
	rhs, err := checkExpression(n.RHS, vars, typeDefs)
	if err != nil {
		return nil, err
	}
	if !sfir.IsPrimitive(lhs) || !sfir.IsPrimitive(rhs) || !lhs.Equal(rhs) {
		return nil, errTypesNotMatched(lhs, rhs)
	}
	return sfir.Primitive{Kind: sfir.Boolean}, nil
}

func checkFunctionApplication(n sfir.FunctionApplication, vars scope, typeDefs map[string]sfir.Record) (sfir.Type, error) {
	fnType, err := checkExpression(n.Function, vars, typeDefs)
	if err != nil {
		return nil, err
	}
	fn, ok := fnType.(sfir.Function)
	if !ok {
		return nil, errFunctionExpected(n.Function, fnType)
	}
	argType, err := checkExpression(n.Argument, vars, typeDefs)
	if err != nil {
		return nil, err
	}
	if err := checkEquality(argType, fn.Argument); err != nil {
		return nil, err
	}
	return fn.Result, nil
}

func checkIf(n sfir.If, vars scope, typeDefs map[string]sfir.Record) (sfir.Type, error) {
	condType, err := checkExpression(n.Condition, vars, typeDefs)
	if err != nil {
		return nil, err
	}
	if err := checkEquality(condType, sfir.Primitive{Kind: sfir.Boolean}); err != nil {
		return nil, err
	}
	thenType, err := checkExpression(n.Then, vars, typeDefs)
	if err != nil {
		return nil, err
	}
	elseType, err := checkExpression(n.Else, vars, typeDefs)
	if err != nil {
		return nil, err
	}
	if err := checkEquality(thenType, elseType); err != nil {
		return nil, err
	}
	return thenType, nil
}

func checkLet(n sfir.Let, vars scope, typeDefs map[string]sfir.Record) (sfir.Type, error) {
	boundType, err := checkExpression(n.Bound, vars, typeDefs)
	if err != nil {
		return nil, err
	}
	if err := checkEquality(boundType, n.Type); err != nil {
		return nil, err
	}
	local := vars.clone()
	local[n.Name] = n.Type
	return checkExpression(n.Body, local, typeDefs)
}

func checkLetRecursive(n sfir.LetRecursive, vars scope, typeDefs map[string]sfir.Record) (sfir.Type, error) {
	if err := checkLetRecursiveEnvironments(n, vars); err != nil {
		return nil, err
	}
	local := vars.clone()
	for _, d := range n.Definitions {
		local[d.Name] = d.Type()
	}
	for _, d := range n.Definitions {
		if err := checkDefinition(d, local, typeDefs); err != nil {
			return nil, err
		}
	}
	return checkExpression(n.Body, local, typeDefs)
}

func checkRecord(n sfir.RecordConstruct, vars scope, typeDefs map[string]sfir.Record) (sfir.Type, error) {
	rt, ok := n.Type.(sfir.Record)
	if !ok {
		return nil, errTypesNotMatched(n.Type, n.Type)
	}
	if rt.Boxed && rt.Name != "" {
		if declared, ok := typeDefs[rt.Name]; ok && !declared.Equal(rt) {
			return nil, errTypesNotMatched(rt, declared)
		}
	}
	if len(n.Elements) != len(rt.Elements) {
		return nil, errWrongArgumentsLength(len(rt.Elements), len(n.Elements))
	}
	for i, el := range n.Elements {
		elType, err := checkExpression(el, vars, typeDefs)
		if err != nil {
			return nil, err
		}
		if err := checkEquality(elType, rt.Elements[i]); err != nil {
			return nil, err
		}
	}
	return n.Type, nil
}

func checkRecordElement(n sfir.RecordElement, vars scope, typeDefs map[string]sfir.Record) (sfir.Type, error) {
	valueType, err := checkExpression(n.Value, vars, typeDefs)
	if err != nil {
		return nil, err
	}
	if err := checkEquality(valueType, n.Type); err != nil {
		return nil, err
	}
	rt, ok := n.Type.(sfir.Record)
	if !ok {
		return nil, errTypesNotMatched(n.Type, n.Type)
	}
	if n.Index < 0 || n.Index >= len(rt.Elements) {
		return nil, errElementIndexOutOfBounds(n.Index, len(rt.Elements))
	}
	return rt.Elements[n.Index], nil
}

func checkCase(n sfir.Case, vars scope, typeDefs map[string]sfir.Record) (sfir.Type, error) {
	if n.IsVariant() {
		return checkVariantCase(n, vars, typeDefs)
	}
	return checkPrimitiveCase(n, vars, typeDefs)
}

func checkPrimitiveCase(n sfir.Case, vars scope, typeDefs map[string]sfir.Record) (sfir.Type, error) {
	argType, err := checkExpression(n.Argument, vars, typeDefs)
	if err != nil {
		return nil, err
	}
	if !sfir.IsPrimitive(argType) {
		return nil, errTypesNotMatched(argType, argType)
	}

	var resultType sfir.Type
	for _, alt := range n.PrimitiveAlternatives {
		keyType, err := checkExpression(alt.Value, vars, typeDefs)
		if err != nil {
			return nil, err
		}
		if err := checkEquality(keyType, argType); err != nil {
			return nil, err
		}
		altType, err := checkExpression(alt.Expression, vars, typeDefs)
		if err != nil {
			return nil, err
		}
		if resultType == nil {
			resultType = altType
		} else if err := checkEquality(altType, resultType); err != nil {
			return nil, err
		}
	}

	if n.Default != nil {
		defaultType, err := checkExpression(n.Default, vars, typeDefs)
		if err != nil {
			return nil, err
		}
		if resultType == nil {
			resultType = defaultType
		} else if err := checkEquality(defaultType, resultType); err != nil {
			return nil, err
		}
	}

	if resultType == nil {
		return nil, errNoAlternativeFound(n)
	}
	return resultType, nil
}

func checkVariantCase(n sfir.Case, vars scope, typeDefs map[string]sfir.Record) (sfir.Type, error) {
	argType, err := checkExpression(n.Argument, vars, typeDefs)
	if err != nil {
		return nil, err
	}
	if err := checkEquality(argType, sfir.Variant{}); err != nil {
		return nil, err
	}

	var resultType sfir.Type
	for _, alt := range n.VariantAlternatives {
		local := vars.clone()
		local[alt.Name] = alt.Type
		altType, err := checkExpression(alt.Expression, local, typeDefs)
		if err != nil {
			return nil, err
		}
		if resultType == nil {
			resultType = altType
		} else if err := checkEquality(altType, resultType); err != nil {
			return nil, err
		}
	}

	if n.Default != nil {
		defaultType, err := checkExpression(n.Default, vars, typeDefs)
		if err != nil {
			return nil, err
		}
		if resultType == nil {
			resultType = defaultType
		} else if err := checkEquality(defaultType, resultType); err != nil {
			return nil, err
		}
	}

	if resultType == nil {
		return nil, errNoAlternativeFound(n)
	}
	return resultType, nil
}
