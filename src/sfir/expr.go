package sfir

import "fmt"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Expression is implemented by every SF-IR expression variant named in the data model:
// Arithmetic, Comparison, Boolean, Number, ByteStringLiteral, Case, CloneVariable,
// DropVariable, FunctionApplication, If, Let, LetRecursive, Record, RecordElement, Variable,
// Variant.
type Expression interface {
	String() string

	sfirExpression()
}

// ArithmeticOperator enumerates the binary arithmetic operators.
type ArithmeticOperator int

// The arithmetic operators. Division is included because LL-IR primitive
// numeric semantics (two's-complement wrapping, IEEE-754) define them for every primitive
// numeric type this operator is legal on.
const (
	Add ArithmeticOperator = iota
	Subtract
	Multiply
	Divide
)

var arithmeticNames = [...]string{"+", "-", "*", "/"}

// String returns the print friendly operator symbol.
func (o ArithmeticOperator) String() string {
	if o < Add || o > Divide {
		return fmt.Sprintf("ArithmeticOperator(%d)", int(o))
	}
	return arithmeticNames[o]
}

// Arithmetic is a binary arithmetic expression over two primitive operands of equal type.
type Arithmetic struct {
	Operator ArithmeticOperator
	LHS      Expression
	RHS      Expression
}

func (Arithmetic) sfirExpression() {}

// String returns the print friendly representation of a.
func (a Arithmetic) String() string {
	return fmt.Sprintf("(%s %s %s)", a.LHS.String(), a.Operator.String(), a.RHS.String())
}

// ComparisonOperator enumerates the binary comparison operators.
type ComparisonOperator int

// The comparison operators.
const (
	Equal ComparisonOperator = iota
	NotEqual
	LessThan
	LessThanOrEqual
	GreaterThan
	GreaterThanOrEqual
)

var comparisonNames = [...]string{"==", "!=", "<", "<=", ">", ">="}

// String returns the print friendly operator symbol.
func (o ComparisonOperator) String() string {
	if o < Equal || o > GreaterThanOrEqual {
		return fmt.Sprintf("ComparisonOperator(%d)", int(o))
	}
	return comparisonNames[o]
}

// Comparison is a binary comparison expression over two primitive operands of equal type,
// producing a Boolean result.
type Comparison struct {
	Operator ComparisonOperator
	LHS      Expression
	RHS      Expression
}

func (Comparison) sfirExpression() {}

// String returns the print friendly representation of c.
func (c Comparison) String() string {
	return fmt.Sprintf("(%s %s %s)", c.LHS.String(), c.Operator.String(), c.RHS.String())
}

// BooleanLiteral is a literal true/false value.
type BooleanLiteral struct {
	Value bool
}

func (BooleanLiteral) sfirExpression() {}

// String returns "true" or "false".
func (b BooleanLiteral) String() string {
	if b.Value {
		return "true"
	}
	return "false"
}

// NumberLiteral is a literal floating-point value. It always checks and lowers as Float64; it
// is not narrowed to Float32 by the type it is compared or combined with.
type NumberLiteral struct {
	Value float64
}

func (NumberLiteral) sfirExpression() {}

// String returns the print friendly representation of n.
func (n NumberLiteral) String() string {
	return fmt.Sprintf("%g", n.Value)
}

// ByteStringLiteral is a literal byte string; its lowering heap-allocates a length+bytes record
// with refcount preinitialized to 1.
type ByteStringLiteral struct {
	Value []byte
}

func (ByteStringLiteral) sfirExpression() {}

// String returns the print friendly representation of s.
func (s ByteStringLiteral) String() string {
	return fmt.Sprintf("%q", string(s.Value))
}

// PrimitiveAlternative is one arm of a Case over a primitive-typed argument: a literal key
// (itself an Expression — BooleanLiteral or NumberLiteral) and its result expression.
type PrimitiveAlternative struct {
	Value      Expression
	Expression Expression
}

// VariantAlternative is one arm of a Case over a Variant-typed argument: the tag's payload
// type, the name the payload is bound to, and the result expression.
type VariantAlternative struct {
	Type       Type
	Name       string
	Expression Expression
}

// Case is either a primitive-typed or Variant-typed case expression; exactly one of
// PrimitiveAlternatives or VariantAlternatives is populated, matching which kind of Argument
// this Case inspects.
type Case struct {
	Argument             Expression
	PrimitiveAlternatives []PrimitiveAlternative
	VariantAlternatives   []VariantAlternative
	Default               Expression // nil if absent.
}

func (Case) sfirExpression() {}

// IsVariant reports whether this Case inspects a Variant-typed argument.
func (c Case) IsVariant() bool {
	return c.VariantAlternatives != nil
}

// String returns the print friendly representation of c.
func (c Case) String() string {
	return fmt.Sprintf("case %s of {...}", c.Argument.String())
}

// CloneVariable increments the reference count of the named heap-owning variable, per §4.7.
type CloneVariable struct {
	Name string
	Type Type
}

func (CloneVariable) sfirExpression() {}

// String returns the print friendly representation of c.
func (c CloneVariable) String() string {
	return fmt.Sprintf("clone(%s)", c.Name)
}

// DropVariable evaluates Body, then decrements the reference count of the named heap-owning
// variable before the resulting value is returned, per §4.7 — the drop must not precede Body's
// last use of the name.
type DropVariable struct {
	Name string
	Type Type
	Body Expression
}

func (DropVariable) sfirExpression() {}

// String returns the print friendly representation of d.
func (d DropVariable) String() string {
	return fmt.Sprintf("drop(%s); %s", d.Name, d.Body.String())
}

// FunctionApplication applies Function to Argument. Function must have Function type;
// Argument's type must equal the function's argument type.
type FunctionApplication struct {
	Function Expression
	Argument Expression
}

func (FunctionApplication) sfirExpression() {}

// String returns the print friendly representation of f.
func (f FunctionApplication) String() string {
	return fmt.Sprintf("%s(%s)", f.Function.String(), f.Argument.String())
}

// If is a two-way branch; Then and Else must check to the same result type.
type If struct {
	Condition Expression
	Then      Expression
	Else      Expression
}

func (If) sfirExpression() {}

// String returns the print friendly representation of i.
func (i If) String() string {
	return fmt.Sprintf("if %s then %s else %s", i.Condition.String(), i.Then.String(), i.Else.String())
}

// Let binds Bound, of type Type, to Name in scope for Body.
type Let struct {
	Name  string
	Type  Type
	Bound Expression
	Body  Expression
}

func (Let) sfirExpression() {}

// String returns the print friendly representation of l.
func (l Let) String() string {
	return fmt.Sprintf("let %s: %s = %s; %s", l.Name, l.Type.String(), l.Bound.String(), l.Body.String())
}

// LetRecursive introduces a group of mutually recursive local Definitions, all of whose names
// are in scope simultaneously throughout every definition body and Body.
type LetRecursive struct {
	Definitions []*Definition
	Body        Expression
}

func (LetRecursive) sfirExpression() {}

// String returns the print friendly representation of l.
func (l LetRecursive) String() string {
	names := make([]string, len(l.Definitions))
	for i, d := range l.Definitions {
		names[i] = d.Name
	}
	return fmt.Sprintf("let rec %v; %s", names, l.Body.String())
}

// RecordConstruct constructs a value of the given Record type from Elements, which must match
// Type's declared element count and types in order.
type RecordConstruct struct {
	Type     Type // always a Record (sfir.Record) type.
	Elements []Expression
}

func (RecordConstruct) sfirExpression() {}

// String returns the print friendly representation of r.
func (r RecordConstruct) String() string {
	return fmt.Sprintf("%s{...}", r.Type.String())
}

// RecordElement projects field Index out of Value, which must have Record-typed Type.
type RecordElement struct {
	Type  Type // the Record type of Value.
	Value Expression
	Index int
}

func (RecordElement) sfirExpression() {}

// String returns the print friendly representation of r.
func (r RecordElement) String() string {
	return fmt.Sprintf("%s.%d", r.Value.String(), r.Index)
}

// Variable is a reference to a name bound in the current scope.
type Variable struct {
	Name string
}

func (Variable) sfirExpression() {}

// String returns v.Name.
func (v Variable) String() string {
	return v.Name
}

// VariantConstruct constructs a tagged value: Tag identifies the alternative (by name, resolved
// at lowering time against the module-wide registry of every Case's VariantAlternative names),
// and Payload is the carried value.
type VariantConstruct struct {
	Tag     string
	Payload Expression
}

func (VariantConstruct) sfirExpression() {}

// String returns the print friendly representation of v.
func (v VariantConstruct) String() string {
	return fmt.Sprintf("%s(%s)", v.Tag, v.Payload.String())
}
