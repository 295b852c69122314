// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package view

import (
	"github.com/pkg/errors"

	"github.com/dark-flames/yukino-dev-sub000/expr"
	"github.com/dark-flames/yukino-dev-sub000/value"
)

// Subquery is a built query whose rows are values of T. It is implemented
// by the query builders.
type Subquery[T any] interface {
	// SelectQuery returns a copy of the query state.
	SelectQuery() (*expr.SelectQuery, error)
	// SingleRow reports whether the query returns at most one row.
	SingleRow() bool
	// Converter returns the converter of the rows.
	Converter() value.Converter[T]
}

// columnQuery returns the state of q after checking that it projects a
// single column.
func columnQuery[T any](q Subquery[T]) (*expr.SelectQuery, error) {
	sel, err := q.SelectQuery()
	if err != nil {
		return nil, errors.Wrap(err, "cannot use subquery")
	}
	if len(sel.Projection) != 1 {
		return nil, errors.Errorf("cannot use subquery: it must select exactly one column, got %d", len(sel.Projection))
	}
	return sel, nil
}

// uncorrelated returns tags unchanged when sel is self-contained. A
// correlated subquery reads a column of the enclosing row, so its value is
// neither a constant nor an aggregate of that query.
func uncorrelated(sel *expr.SelectQuery, tags TagSet) TagSet {
	if len(expr.FreeAliases(sel)) > 0 {
		return tags.Without(Constant).Without(Aggregate)
	}
	return tags
}

func predicate(p *expr.SubqueryPredicate, tags TagSet) ExprView[bool] {
	tags = uncorrelated(p.Query, tags)
	return ExprView[bool]{exprs: []expr.Expr{p}, tags: tags.Without(Entity).With(Orderable), conv: boolConverter}
}

// InQuery returns a view that is true when v is one of the rows of q.
func InQuery[T any](v View[T], q Subquery[T]) ExprView[bool] {
	return inQuery(v, q, expr.In)
}

// NotInQuery returns a view that is true when v is none of the rows of q.
func NotInQuery[T any](v View[T], q Subquery[T]) ExprView[bool] {
	return inQuery(v, q, expr.NotIn)
}

func inQuery[T any](v View[T], q Subquery[T], quantifier expr.Quantifier) ExprView[bool] {
	if err := v.Err(); err != nil {
		return Invalid[bool](err)
	}
	exprs := v.Collect()
	if len(exprs) != 1 {
		return Invalid[bool](errors.Errorf("IN needs a single column operand, got %d columns", len(exprs)))
	}
	sel, err := columnQuery(q)
	if err != nil {
		return Invalid[bool](err)
	}
	return predicate(&expr.SubqueryPredicate{Quantifier: quantifier, Expr: exprs[0], Query: sel}, v.Tags())
}

// Exists returns a view that is true when q returns at least one row.
func Exists[T any](q Subquery[T]) ExprView[bool] {
	return exists(q, expr.Exists)
}

// NotExists returns a view that is true when q returns no row.
func NotExists[T any](q Subquery[T]) ExprView[bool] {
	return exists(q, expr.NotExists)
}

func exists[T any](q Subquery[T], quantifier expr.Quantifier) ExprView[bool] {
	sel, err := q.SelectQuery()
	if err != nil {
		return Invalid[bool](errors.Wrap(err, "cannot use subquery"))
	}
	return predicate(&expr.SubqueryPredicate{Quantifier: quantifier, Query: sel}, 0)
}

// CompareAny returns a view of v op ANY (q). op must be a comparison
// operator.
func CompareAny[T any](v View[T], op expr.BinaryOp, q Subquery[T]) ExprView[bool] {
	return quantified(v, op, q, expr.Any)
}

// CompareAll returns a view of v op ALL (q). op must be a comparison
// operator.
func CompareAll[T any](v View[T], op expr.BinaryOp, q Subquery[T]) ExprView[bool] {
	return quantified(v, op, q, expr.All)
}

func quantified[T any](v View[T], op expr.BinaryOp, q Subquery[T], quantifier expr.Quantifier) ExprView[bool] {
	if err := v.Err(); err != nil {
		return Invalid[bool](err)
	}
	if !op.Comparison() {
		return Invalid[bool](errors.Errorf("operator %s is not a comparison", op))
	}
	if op != expr.OpEq && op != expr.OpNeq && !v.Tags().Has(Orderable) {
		return Invalid[bool](errors.Errorf("operator %s needs orderable operands", op))
	}
	exprs := v.Collect()
	if len(exprs) != 1 {
		return Invalid[bool](errors.Errorf("quantified comparison needs a single column operand, got %d columns", len(exprs)))
	}
	sel, err := columnQuery(q)
	if err != nil {
		return Invalid[bool](err)
	}
	return predicate(&expr.SubqueryPredicate{Quantifier: quantifier, Expr: exprs[0], Op: op, Query: sel}, v.Tags())
}

// Scalar returns the single value returned by q as a view. q must be known
// to return at most one row.
func Scalar[T any](q Subquery[T]) ExprView[T] {
	if !q.SingleRow() {
		return Invalid[T](errors.New("cannot use subquery as a value: it may return more than one row"))
	}
	sel, err := columnQuery(q)
	if err != nil {
		return Invalid[T](err)
	}
	conv := q.Converter()
	if conv == nil || conv.Width() != 1 {
		return Invalid[T](errors.New("cannot use subquery as a value: it must return a single column value"))
	}
	return ExprView[T]{exprs: []expr.Expr{&expr.Subquery{Query: sel}}, tags: orderableIf(conv, uncorrelated(sel, Tags(Constant))), conv: conv}
}
