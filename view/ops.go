// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package view

import (
	"github.com/pkg/errors"

	"github.com/dark-flames/yukino-dev-sub000/expr"
	"github.com/dark-flames/yukino-dev-sub000/value"
)

var boolConverter = value.BoolConverter

// operandCheck validates the operand kinds of op.
type operandCheck func(value.DatabaseType) bool

// binary combines two views of T column by column with op. The result is a
// view of R decoded with conv.
func binary[T, R any](l View[T], r View[T], op expr.BinaryOp, check operandCheck, conv value.Converter[R]) ExprView[R] {
	if err := firstErr(l.Err(), r.Err()); err != nil {
		return Invalid[R](err)
	}
	types := l.Converter().Types()
	if len(types) != 1 {
		return Invalid[R](errors.Errorf("operator %s needs a single column operand, got %d columns", op, len(types)))
	}
	if check != nil && !check(types[0]) {
		return Invalid[R](errors.Errorf("operator %s not defined for %s", op, types[0]))
	}
	tags, err := MergeTags(l.Tags(), r.Tags())
	if err != nil {
		return Invalid[R](err)
	}
	e := &expr.Binary{Op: op, Left: l.Collect()[0], Right: r.Collect()[0]}
	return ExprView[R]{exprs: []expr.Expr{e}, tags: restrictOrderable(conv, tags), conv: conv}
}

// Eq returns a view of v = o. Multi column views are compared column by
// column and the comparisons are joined with AND.
func (v ExprView[T]) Eq(o View[T]) ExprView[bool] {
	return equality(v, o, expr.OpEq, expr.OpAnd)
}

// EqValue returns a view of v = o.
func (v ExprView[T]) EqValue(o T) ExprView[bool] {
	return v.Eq(ValOf(v.Converter(), o))
}

// Neq returns a view of v <> o. Multi column views differ if any column
// differs.
func (v ExprView[T]) Neq(o View[T]) ExprView[bool] {
	return equality(v, o, expr.OpNeq, expr.OpOr)
}

// NeqValue returns a view of v <> o.
func (v ExprView[T]) NeqValue(o T) ExprView[bool] {
	return v.Neq(ValOf(v.Converter(), o))
}

func equality[T any](l View[T], r View[T], op, join expr.BinaryOp) ExprView[bool] {
	if err := firstErr(l.Err(), r.Err()); err != nil {
		return Invalid[bool](err)
	}
	tags, err := MergeTags(l.Tags(), r.Tags())
	if err != nil {
		return Invalid[bool](err)
	}
	for _, ty := range l.Converter().Types() {
		if !ty.Eq() {
			return Invalid[bool](errors.Errorf("operator %s not defined for %s", op, ty))
		}
	}
	left, right := l.Collect(), r.Collect()
	if len(left) != len(right) {
		return Invalid[bool](errors.Errorf("cannot compare views of width %d and %d", len(left), len(right)))
	}
	var result expr.Expr
	for i := range left {
		e := &expr.Binary{Op: op, Left: left[i], Right: right[i]}
		if result == nil {
			result = e
			continue
		}
		result = &expr.Binary{Op: join, Left: result, Right: e}
	}
	if result == nil {
		// Zero width values are always equal.
		result = expr.Literal(value.Bool(op == expr.OpEq))
	}
	return ExprView[bool]{exprs: []expr.Expr{result}, tags: tags, conv: boolConverter}
}

// ordering returns the view of an ordering comparison. Both operands must
// be Orderable.
func ordering[T any](l View[T], r View[T], op expr.BinaryOp) ExprView[bool] {
	if err := firstErr(l.Err(), r.Err()); err != nil {
		return Invalid[bool](err)
	}
	if !l.Tags().Has(Orderable) || !r.Tags().Has(Orderable) {
		return Invalid[bool](errors.Errorf("operator %s needs orderable operands", op))
	}
	return binary(l, r, op, value.DatabaseType.Ord, boolConverter)
}

// Lt returns a view of v < o.
func (v ExprView[T]) Lt(o View[T]) ExprView[bool] { return ordering[T](v, o, expr.OpLt) }

// Lte returns a view of v <= o.
func (v ExprView[T]) Lte(o View[T]) ExprView[bool] { return ordering[T](v, o, expr.OpLte) }

// Gt returns a view of v > o.
func (v ExprView[T]) Gt(o View[T]) ExprView[bool] { return ordering[T](v, o, expr.OpGt) }

// Gte returns a view of v >= o.
func (v ExprView[T]) Gte(o View[T]) ExprView[bool] { return ordering[T](v, o, expr.OpGte) }

// LtValue returns a view of v < o.
func (v ExprView[T]) LtValue(o T) ExprView[bool] { return v.Lt(ValOf(v.Converter(), o)) }

// LteValue returns a view of v <= o.
func (v ExprView[T]) LteValue(o T) ExprView[bool] { return v.Lte(ValOf(v.Converter(), o)) }

// GtValue returns a view of v > o.
func (v ExprView[T]) GtValue(o T) ExprView[bool] { return v.Gt(ValOf(v.Converter(), o)) }

// GteValue returns a view of v >= o.
func (v ExprView[T]) GteValue(o T) ExprView[bool] { return v.Gte(ValOf(v.Converter(), o)) }

func arithmetic[T any](l ExprView[T], r View[T], op expr.BinaryOp) ExprView[T] {
	if l.err != nil {
		return l
	}
	return binary[T, T](l, r, op, value.DatabaseType.AddOperate, l.Converter())
}

func bitwise[T any](l ExprView[T], r View[T], op expr.BinaryOp) ExprView[T] {
	if l.err != nil {
		return l
	}
	return binary[T, T](l, r, op, value.DatabaseType.BitOperate, l.Converter())
}

// Add returns a view of v + o.
func (v ExprView[T]) Add(o View[T]) ExprView[T] { return arithmetic[T](v, o, expr.OpAdd) }

// Sub returns a view of v - o.
func (v ExprView[T]) Sub(o View[T]) ExprView[T] { return arithmetic[T](v, o, expr.OpSub) }

// Mul returns a view of v * o.
func (v ExprView[T]) Mul(o View[T]) ExprView[T] { return arithmetic[T](v, o, expr.OpMul) }

// Div returns a view of v / o.
func (v ExprView[T]) Div(o View[T]) ExprView[T] { return arithmetic[T](v, o, expr.OpDiv) }

// Rem returns a view of v % o.
func (v ExprView[T]) Rem(o View[T]) ExprView[T] { return arithmetic[T](v, o, expr.OpRem) }

// AddValue returns a view of v + o.
func (v ExprView[T]) AddValue(o T) ExprView[T] { return v.Add(ValOf(v.Converter(), o)) }

// SubValue returns a view of v - o.
func (v ExprView[T]) SubValue(o T) ExprView[T] { return v.Sub(ValOf(v.Converter(), o)) }

// MulValue returns a view of v * o.
func (v ExprView[T]) MulValue(o T) ExprView[T] { return v.Mul(ValOf(v.Converter(), o)) }

// DivValue returns a view of v / o.
func (v ExprView[T]) DivValue(o T) ExprView[T] { return v.Div(ValOf(v.Converter(), o)) }

// RemValue returns a view of v % o.
func (v ExprView[T]) RemValue(o T) ExprView[T] { return v.Rem(ValOf(v.Converter(), o)) }

// BitAnd returns a view of v & o.
func (v ExprView[T]) BitAnd(o View[T]) ExprView[T] { return bitwise[T](v, o, expr.OpBitAnd) }

// BitOr returns a view of v | o.
func (v ExprView[T]) BitOr(o View[T]) ExprView[T] { return bitwise[T](v, o, expr.OpBitOr) }

// BitXor returns a view of v ^ o.
func (v ExprView[T]) BitXor(o View[T]) ExprView[T] { return bitwise[T](v, o, expr.OpBitXor) }

// Shl returns a view of v << o.
func (v ExprView[T]) Shl(o View[T]) ExprView[T] { return bitwise[T](v, o, expr.OpLeftShift) }

// Shr returns a view of v >> o.
func (v ExprView[T]) Shr(o View[T]) ExprView[T] { return bitwise[T](v, o, expr.OpRightShift) }

// unary applies op to the single column of v.
func unary[T, R any](v View[T], op expr.UnaryOp, check operandCheck, conv value.Converter[R]) ExprView[R] {
	if err := v.Err(); err != nil {
		return Invalid[R](err)
	}
	types := v.Converter().Types()
	if len(types) != 1 {
		return Invalid[R](errors.Errorf("unary operator needs a single column operand, got %d columns", len(types)))
	}
	if check != nil && !check(types[0]) {
		return Invalid[R](errors.Errorf("unary operator not defined for %s", types[0]))
	}
	if v.Tags().Has(Entity) {
		return Invalid[R](errors.New("cannot apply an operator to an entity view"))
	}
	e := &expr.Unary{Op: op, Expr: v.Collect()[0]}
	return ExprView[R]{exprs: []expr.Expr{e}, tags: restrictOrderable(conv, v.Tags().Without(Entity)), conv: conv}
}

// Neg returns a view of -v.
func (v ExprView[T]) Neg() ExprView[T] {
	if v.err != nil {
		return v
	}
	return unary[T, T](v, expr.OpNeg, value.DatabaseType.Numeric, v.Converter())
}

// BitNot returns a view of ~v.
func (v ExprView[T]) BitNot() ExprView[T] {
	if v.err != nil {
		return v
	}
	return unary[T, T](v, expr.OpBitInverse, value.DatabaseType.Integer, v.Converter())
}

// IsNull returns a view that is true when every column of v is NULL.
func (v ExprView[T]) IsNull() ExprView[bool] {
	return nullCheck[T](v, expr.OpIsNull)
}

// IsNotNull returns a view that is true when no column of v is NULL.
func (v ExprView[T]) IsNotNull() ExprView[bool] {
	return nullCheck[T](v, expr.OpIsNotNull)
}

func nullCheck[T any](v View[T], op expr.UnaryOp) ExprView[bool] {
	if err := v.Err(); err != nil {
		return Invalid[bool](err)
	}
	var result expr.Expr
	for _, e := range v.Collect() {
		var check expr.Expr = &expr.Unary{Op: op, Expr: e}
		if result != nil {
			check = &expr.Binary{Op: expr.OpAnd, Left: result, Right: check}
		}
		result = check
	}
	if result == nil {
		return Invalid[bool](errors.New("cannot check a zero width value for NULL"))
	}
	return ExprView[bool]{exprs: []expr.Expr{result}, tags: v.Tags().Without(Entity), conv: boolConverter}
}

// In returns a view that is true when v is one of values. An empty list is
// never matched.
func (v ExprView[T]) In(values ...T) ExprView[bool] {
	return v.inList(values, false)
}

// NotIn returns a view that is true when v is none of values. An empty list
// always matches.
func (v ExprView[T]) NotIn(values ...T) ExprView[bool] {
	return v.inList(values, true)
}

func (v ExprView[T]) inList(values []T, not bool) ExprView[bool] {
	if err := v.Err(); err != nil {
		return Invalid[bool](err)
	}
	conv := v.Converter()
	if conv.Width() != 1 {
		return Invalid[bool](errors.Errorf("IN needs a single column operand, got %d columns", conv.Width()))
	}
	list := make([]expr.Expr, 0, len(values))
	for _, val := range values {
		list = append(list, expr.Literal(conv.Serialize(val)[0]))
	}
	tags, err := MergeTags(v.tags, Tags(Constant, Orderable))
	if err != nil {
		return Invalid[bool](err)
	}
	e := &expr.InList{Expr: v.Collect()[0], List: list, Not: not}
	return ExprView[bool]{exprs: []expr.Expr{e}, tags: tags, conv: boolConverter}
}

// And returns the conjunction of views. With no views it is true.
func And(views ...View[bool]) ExprView[bool] {
	return junction(expr.OpAnd, true, views)
}

// Or returns the disjunction of views. With no views it is false.
func Or(views ...View[bool]) ExprView[bool] {
	return junction(expr.OpOr, false, views)
}

func junction(op expr.BinaryOp, empty bool, views []View[bool]) ExprView[bool] {
	if len(views) == 0 {
		return ValOf(boolConverter, empty)
	}
	var result expr.Expr
	sets := make([]TagSet, 0, len(views))
	for _, v := range views {
		if err := v.Err(); err != nil {
			return Invalid[bool](err)
		}
		sets = append(sets, v.Tags())
		e := v.Collect()[0]
		if result == nil {
			result = e
			continue
		}
		result = &expr.Binary{Op: op, Left: result, Right: e}
	}
	tags, err := mergeAll(sets...)
	if err != nil {
		return Invalid[bool](err)
	}
	return ExprView[bool]{exprs: []expr.Expr{result}, tags: tags.Without(Entity), conv: boolConverter}
}

// Not returns the negation of v.
func Not(v View[bool]) ExprView[bool] {
	return unary[bool, bool](v, expr.OpNot, nil, boolConverter)
}

// SortItem is one key of an ORDER BY clause.
type SortItem struct {
	items []expr.OrderByItem
	tags  TagSet
	err   error
}

// Items returns the ORDER BY entries of s, one per column.
func (s SortItem) Items() []expr.OrderByItem {
	return s.items
}

// Tags returns the tags of the view s sorts by.
func (s SortItem) Tags() TagSet {
	return s.tags
}

// Err returns the error recorded while building s.
func (s SortItem) Err() error {
	return s.err
}

// Asc returns an ascending sort key on v. v must be Orderable.
func (v ExprView[T]) Asc() SortItem {
	return sortItem[T](v, expr.Asc)
}

// Desc returns a descending sort key on v. v must be Orderable.
func (v ExprView[T]) Desc() SortItem {
	return sortItem[T](v, expr.Desc)
}

func sortItem[T any](v View[T], order expr.Order) SortItem {
	if err := v.Err(); err != nil {
		return SortItem{err: err}
	}
	if !v.Tags().Has(Orderable) {
		return SortItem{err: errors.Errorf("cannot sort by a value that is not orderable (tags %s)", v.Tags())}
	}
	var items []expr.OrderByItem
	for _, e := range v.Collect() {
		items = append(items, expr.OrderByItem{Expr: e, Order: order})
	}
	return SortItem{items: items, tags: v.Tags()}
}

// Asc returns an ascending sort key on v.
func Asc[T any](v View[T]) SortItem { return sortItem(v, expr.Asc) }

// Desc returns a descending sort key on v.
func Desc[T any](v View[T]) SortItem { return sortItem(v, expr.Desc) }
