// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package query

import (
	"github.com/pkg/errors"

	"github.com/dark-flames/yukino-dev-sub000/expr"
	"github.com/dark-flames/yukino-dev-sub000/value"
	"github.com/dark-flames/yukino-dev-sub000/view"
)

// Mapped is a query whose rows are the values of a view computed from the
// rows, or the groups, of another query.
type Mapped[R any] struct {
	stage
	out view.ExprView[R]
	// grouped is set when the rows are groups, in which case aggregate
	// functions may be used for sorting.
	grouped bool
}

func newMapped[R any](s stage, out view.ExprView[R], grouped bool) *Mapped[R] {
	m := &Mapped[R]{stage: s, out: out, grouped: grouped}
	if err := out.Err(); err != nil {
		m.fail(err)
		return m
	}
	m.state.Projection = m.embed(out.Collect())
	return m
}

// Map projects every row of b to the value returned by f. f must not use
// aggregate functions; use Fold to aggregate rows.
func Map[E, V, R any](b *SelectBuilder[E, V], f func(V) view.ExprView[R]) *Mapped[R] {
	s := b.stage.clone()
	out := f(b.row)
	if out.Err() == nil && out.Tags().Has(view.Aggregate) {
		s.fail(errors.New("cannot map rows to an aggregate value, use Fold"))
	}
	return newMapped(s, out, false)
}

func (m *Mapped[R]) copy() *Mapped[R] {
	return &Mapped[R]{stage: m.stage.clone(), out: m.out, grouped: m.grouped}
}

// View returns the view of a row of m.
func (m *Mapped[R]) View() view.ExprView[R] {
	return m.out
}

// Sort appends the items returned by f to the ordering of the rows.
func (m *Mapped[R]) Sort(f func(view.ExprView[R]) []view.SortItem) *Mapped[R] {
	c := m.copy()
	c.sort(f(c.out), c.grouped)
	return c
}

// Limit returns at most n rows.
func (m *Mapped[R]) Limit(n uint64) *Mapped[R] {
	c := m.copy()
	c.state.Limit = limit(n)
	return c
}

// Offset skips the first n rows.
func (m *Mapped[R]) Offset(n uint64) *Mapped[R] {
	c := m.copy()
	c.state.Offset = limit(n)
	return c
}

// Distinct removes duplicate rows.
func (m *Mapped[R]) Distinct() *Mapped[R] {
	c := m.copy()
	c.state.Distinct = true
	return c
}

// Build returns the query state.
func (m *Mapped[R]) Build() (*expr.SelectQuery, error) {
	return m.build()
}

// SelectQuery returns a copy of the query state for use as a subquery.
func (m *Mapped[R]) SelectQuery() (*expr.SelectQuery, error) {
	return m.selectQuery()
}

// SingleRow reports whether the query is limited to at most one row.
func (m *Mapped[R]) SingleRow() bool {
	return m.singleRow()
}

// Converter returns the converter of the rows.
func (m *Mapped[R]) Converter() value.Converter[R] {
	return m.out.Converter()
}

// Err returns the first error recorded while building m.
func (m *Mapped[R]) Err() error {
	return m.err
}

// Folded is a query collapsing every row of another query into a single
// aggregate value.
type Folded[R any] struct {
	stage
	out view.ExprView[R]
}

// Fold aggregates every row of b into the value returned by f. The value
// must be aggregated: a column used outside of an aggregate function is an
// error. Ordering of b is dropped, and b must not be limited.
func Fold[E, V, R any](b *SelectBuilder[E, V], f func(V) view.ExprView[R]) *Folded[R] {
	s := b.stage.clone()
	out := f(b.row)
	fo := &Folded[R]{stage: s, out: out}
	switch {
	case out.Err() != nil:
		fo.fail(out.Err())
	case !out.Tags().Has(view.Aggregate):
		fo.fail(errors.Errorf("cannot fold rows into %s: not an aggregate value", out))
	case s.state.Limit != nil || s.state.Offset != nil:
		fo.fail(errors.New("cannot fold a limited query"))
	default:
		fo.state.Projection = fo.embed(out.Collect())
		fo.state.OrderBy = nil
		fo.state.Distinct = false
	}
	return fo
}

// View returns the view of the result of f.
func (f *Folded[R]) View() view.ExprView[R] {
	return f.out
}

// Build returns the query state.
func (f *Folded[R]) Build() (*expr.SelectQuery, error) {
	return f.build()
}

// SelectQuery returns a copy of the query state for use as a subquery.
func (f *Folded[R]) SelectQuery() (*expr.SelectQuery, error) {
	return f.selectQuery()
}

// SingleRow always returns true: an aggregate without grouping has exactly
// one row.
func (f *Folded[R]) SingleRow() bool {
	return true
}

// Converter returns the converter of the result.
func (f *Folded[R]) Converter() value.Converter[R] {
	return f.out.Converter()
}

// Err returns the first error recorded while building f.
func (f *Folded[R]) Err() error {
	return f.err
}
