// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package expr

import (
	"strings"

	"github.com/dark-flames/yukino-dev-sub000/value"
)

// Expr is a node of the expression tree. Exprs are pure data, they are
// rendered to SQL by Render and never evaluated.
type Expr interface {
	// String returns a representation of the expression for debugging and
	// testing purposes. Literals are inlined.
	String() string

	// expr is a marker method.
	expr()
}

// Ident is a column reference qualified by the alias of the table it belongs
// to. An empty Alias renders the bare column.
type Ident struct {
	Alias  string
	Column string
}

// Column returns an identifier for column of the table bound to alias.
func Column(alias, column string) *Ident {
	return &Ident{Alias: alias, Column: column}
}

func (e *Ident) String() string {
	if e.Alias == "" {
		return e.Column
	}
	return e.Alias + "." + e.Column
}

// Lit is a literal value. It is always rendered as a query parameter.
type Lit struct {
	Value value.DatabaseValue
}

// Literal returns a literal expression for v.
func Literal(v value.DatabaseValue) *Lit {
	return &Lit{Value: v}
}

func (e *Lit) String() string {
	return e.Value.String()
}

// Function is an aggregate function.
type Function int

const (
	Average Function = iota + 1
	BitAnd
	BitOr
	BitXor
	Count
	Max
	Min
	Sum
	GroupConcat
)

var functionNames = map[Function]string{
	Average:     "AVG",
	BitAnd:      "BIT_AND",
	BitOr:       "BIT_OR",
	BitXor:      "BIT_XOR",
	Count:       "COUNT",
	Max:         "MAX",
	Min:         "MIN",
	Sum:         "SUM",
	GroupConcat: "GROUP_CONCAT",
}

func (f Function) String() string {
	return functionNames[f]
}

// FunctionCall is a call to an aggregate function. A call with no Args
// renders as F(*).
type FunctionCall struct {
	Func     Function
	Distinct bool
	Args     []Expr
	// Separator is used by GroupConcat. A nil separator is omitted.
	Separator *Lit
}

func (e *FunctionCall) String() string {
	var sb strings.Builder
	sb.WriteString(e.Func.String())
	sb.WriteString("(")
	if e.Distinct {
		sb.WriteString("DISTINCT ")
	}
	if len(e.Args) == 0 {
		sb.WriteString("*")
	}
	for i, arg := range e.Args {
		if i != 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(arg.String())
	}
	if e.Separator != nil {
		sb.WriteString(" SEPARATOR ")
		sb.WriteString(e.Separator.String())
	}
	sb.WriteString(")")
	return sb.String()
}

// BinaryOp is an infix operator.
type BinaryOp int

const (
	OpAdd BinaryOp = iota + 1
	OpSub
	OpMul
	OpDiv
	OpRem
	OpBitAnd
	OpBitOr
	OpBitXor
	OpLeftShift
	OpRightShift
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAnd
	OpOr
)

var binaryTokens = map[BinaryOp]string{
	OpAdd:        "+",
	OpSub:        "-",
	OpMul:        "*",
	OpDiv:        "/",
	OpRem:        "%",
	OpBitAnd:     "&",
	OpBitOr:      "|",
	OpBitXor:     "^",
	OpLeftShift:  "<<",
	OpRightShift: ">>",
	OpEq:         "=",
	OpNeq:        "<>",
	OpLt:         "<",
	OpLte:        "<=",
	OpGt:         ">",
	OpGte:        ">=",
	OpAnd:        "AND",
	OpOr:         "OR",
}

func (op BinaryOp) String() string {
	return binaryTokens[op]
}

// Comparison reports whether op is one of the comparison operators.
func (op BinaryOp) Comparison() bool {
	switch op {
	case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte:
		return true
	}
	return false
}

// Binary is an infix operation. It always renders parenthesized.
type Binary struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (e *Binary) String() string {
	return "(" + e.Left.String() + " " + e.Op.String() + " " + e.Right.String() + ")"
}

// UnaryOp is a prefix or postfix operator.
type UnaryOp int

const (
	OpNot UnaryOp = iota + 1
	OpBitInverse
	OpNeg
	OpIsNull
	OpIsNotNull
)

// Unary is a unary operation.
type Unary struct {
	Op   UnaryOp
	Expr Expr
}

func (e *Unary) String() string {
	switch e.Op {
	case OpNot:
		return "(NOT " + e.Expr.String() + ")"
	case OpBitInverse:
		return "(~" + e.Expr.String() + ")"
	case OpNeg:
		return "(-" + e.Expr.String() + ")"
	case OpIsNull:
		return "(" + e.Expr.String() + " IS NULL)"
	case OpIsNotNull:
		return "(" + e.Expr.String() + " IS NOT NULL)"
	}
	return "(?" + e.Expr.String() + ")"
}

// InList is a membership test against a list of expressions. An empty IN
// list renders IN (NULL), which matches nothing; an empty NOT IN list
// renders (1 = 1).
type InList struct {
	Expr Expr
	List []Expr
	Not  bool
}

func (e *InList) String() string {
	if e.Not && len(e.List) == 0 {
		return "(1 = 1)"
	}
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(e.Expr.String())
	if e.Not {
		sb.WriteString(" NOT")
	}
	sb.WriteString(" IN (")
	if len(e.List) == 0 {
		sb.WriteString("NULL")
	}
	for i, item := range e.List {
		if i != 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(item.String())
	}
	sb.WriteString("))")
	return sb.String()
}

// Quantifier selects how a subquery is used as a predicate.
type Quantifier int

const (
	Exists Quantifier = iota + 1
	NotExists
	In
	NotIn
	Any
	All
)

// SubqueryPredicate uses a subquery as a boolean predicate. Exists and
// NotExists ignore Expr and Op; In and NotIn ignore Op; Any and All compare
// Expr to the subquery rows with Op.
type SubqueryPredicate struct {
	Quantifier Quantifier
	Expr       Expr
	Op         BinaryOp
	Query      *SelectQuery
}

func (e *SubqueryPredicate) String() string {
	sub := "(" + e.Query.String() + ")"
	switch e.Quantifier {
	case Exists:
		return "(EXISTS " + sub + ")"
	case NotExists:
		return "(NOT EXISTS " + sub + ")"
	case In:
		return "(" + e.Expr.String() + " IN " + sub + ")"
	case NotIn:
		return "(" + e.Expr.String() + " NOT IN " + sub + ")"
	case Any:
		return "(" + e.Expr.String() + " " + e.Op.String() + " ANY " + sub + ")"
	case All:
		return "(" + e.Expr.String() + " " + e.Op.String() + " ALL " + sub + ")"
	}
	return sub
}

// Subquery is a subquery used as a scalar value. The query must return at
// most one row with a single column.
type Subquery struct {
	Query *SelectQuery
}

func (e *Subquery) String() string {
	return "(" + e.Query.String() + ")"
}

// Marker functions for Expr.
func (*Ident) expr()             {}
func (*Lit) expr()               {}
func (*FunctionCall) expr()      {}
func (*Binary) expr()            {}
func (*Unary) expr()             {}
func (*InList) expr()            {}
func (*SubqueryPredicate) expr() {}
func (*Subquery) expr()          {}
