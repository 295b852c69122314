// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package view

import (
	"github.com/pkg/errors"

	"github.com/dark-flames/yukino-dev-sub000/expr"
	"github.com/dark-flames/yukino-dev-sub000/value"
)

// Unit returns the zero width view.
func Unit() ExprView[value.Unit] {
	return ExprView[value.Unit]{tags: Tags(Constant, Orderable), conv: value.UnitConverter}
}

// Pair returns a view of the tuple (a, b). Its columns are the columns of a
// followed by the columns of b.
func Pair[A, B any](a View[A], b View[B]) ExprView[value.Pair[A, B]] {
	if err := firstErr(a.Err(), b.Err()); err != nil {
		return Invalid[value.Pair[A, B]](err)
	}
	tags, err := mergeTupleTags(a.Tags(), b.Tags())
	if err != nil {
		return Invalid[value.Pair[A, B]](err)
	}
	exprs := append(a.Collect(), b.Collect()...)
	conv := value.PairConverter(a.Converter(), b.Converter())
	return ExprView[value.Pair[A, B]]{exprs: exprs, tags: restrictOrderable(conv, tags), conv: conv}
}

// Triple returns a view of the tuple (a, b, c).
func Triple[A, B, C any](a View[A], b View[B], c View[C]) ExprView[value.Triple[A, B, C]] {
	if err := firstErr(a.Err(), b.Err(), c.Err()); err != nil {
		return Invalid[value.Triple[A, B, C]](err)
	}
	tags, err := mergeTupleTags(a.Tags(), b.Tags(), c.Tags())
	if err != nil {
		return Invalid[value.Triple[A, B, C]](err)
	}
	exprs := append(append(a.Collect(), b.Collect()...), c.Collect()...)
	conv := value.TripleConverter(a.Converter(), b.Converter(), c.Converter())
	return ExprView[value.Triple[A, B, C]]{exprs: exprs, tags: restrictOrderable(conv, tags), conv: conv}
}

// First returns the view of the first element of a pair view.
func First[A, B any](p View[value.Pair[A, B]]) ExprView[A] {
	if err := p.Err(); err != nil {
		return Invalid[A](err)
	}
	l, _, ok := value.PairParts(p.Converter())
	if !ok {
		return Invalid[A](errors.New("cannot split a pair view with a custom converter"))
	}
	exprs := p.Collect()
	return ExprView[A]{exprs: exprs[:l.Width()], tags: restrictOrderable(l, p.Tags()), conv: l}
}

// Second returns the view of the second element of a pair view.
func Second[A, B any](p View[value.Pair[A, B]]) ExprView[B] {
	if err := p.Err(); err != nil {
		return Invalid[B](err)
	}
	l, r, ok := value.PairParts(p.Converter())
	if !ok {
		return Invalid[B](errors.New("cannot split a pair view with a custom converter"))
	}
	exprs := p.Collect()
	return ExprView[B]{exprs: exprs[l.Width():], tags: restrictOrderable(r, p.Tags()), conv: r}
}

// Assignment sets columns of an updated row.
type Assignment struct {
	set []expr.Assignment
	err error
}

// Set returns the column assignments.
func (a Assignment) Set() []expr.Assignment {
	return a.set
}

// Err returns the error recorded while building a.
func (a Assignment) Err() error {
	return a.err
}

// Assign sets the columns of target, a view of columns of the updated
// table, to v.
func Assign[T any](target View[T], v View[T]) Assignment {
	if err := firstErr(target.Err(), v.Err()); err != nil {
		return Assignment{err: err}
	}
	if v.Tags().Has(Aggregate) {
		return Assignment{err: errors.New("cannot assign an aggregate value")}
	}
	columns, values := target.Collect(), v.Collect()
	if len(columns) != len(values) {
		return Assignment{err: errors.Errorf("cannot assign a value of width %d to %d columns", len(values), len(columns))}
	}
	var a Assignment
	for i, c := range columns {
		id, ok := c.(*expr.Ident)
		if !ok {
			return Assignment{err: errors.Errorf("cannot assign to %s: not a column", c)}
		}
		a.set = append(a.set, expr.Assignment{Column: id.Column, Value: values[i]})
	}
	return a
}

// AssignValue sets the columns of target to v.
func AssignValue[T any](target ExprView[T], v T) Assignment {
	return Assign[T](target, ValOf(target.Converter(), v))
}
