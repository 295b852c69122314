// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package query

import (
	"github.com/pkg/errors"

	"github.com/dark-flames/yukino-dev-sub000/value"
	"github.com/dark-flames/yukino-dev-sub000/view"
)

// Grouped is a query whose rows are grouped by a key. Filters on a grouped
// query select groups and may only use the key and aggregate functions.
type Grouped[E, V, K any] struct {
	stage
	row V
	key view.ExprView[K]
}

// GroupBy groups the rows of b by the key returned by f. A key of width zero
// puts every row in a single group.
func GroupBy[E, V, K any](b *SelectBuilder[E, V], f func(V) view.ExprView[K]) *Grouped[E, V, K] {
	g := &Grouped[E, V, K]{stage: b.stage.clone(), row: b.row}
	key := f(b.row)
	switch {
	case key.Err() != nil:
		g.fail(key.Err())
		g.key = key
		return g
	case key.Tags().Has(view.Aggregate):
		g.fail(errors.New("cannot group rows by an aggregate value"))
		g.key = key
		return g
	case b.state.Limit != nil || b.state.Offset != nil:
		g.fail(errors.New("cannot group a limited query"))
	}
	exprs := g.embed(key.Collect())
	g.state.GroupBy = append(g.state.GroupBy, exprs...)
	g.state.OrderBy = nil
	// Within a group the key is a single value, so it combines with
	// aggregates.
	g.key = key.FromExprs(exprs).WithTags(key.Tags().Without(view.Entity).With(view.Aggregate))
	return g
}

func (g *Grouped[E, V, K]) copy() *Grouped[E, V, K] {
	return &Grouped[E, V, K]{stage: g.stage.clone(), row: g.row, key: g.key}
}

// Key returns the view of the group key.
func (g *Grouped[E, V, K]) Key() view.ExprView[K] {
	return g.key
}

// Filter keeps the groups for which every predicate is true.
func (g *Grouped[E, V, K]) Filter(fs ...func(key view.ExprView[K], row V) view.ExprView[bool]) *Grouped[E, V, K] {
	c := g.copy()
	for _, f := range fs {
		v := f(c.key, c.row)
		if v.Err() == nil && !v.Tags().Has(view.Aggregate) && !v.Tags().Has(view.Constant) {
			c.fail(errors.Errorf("cannot filter groups by %s: it uses a column that is neither aggregated nor part of the key", v))
			break
		}
		p, ok := c.predicate(v)
		if !ok {
			break
		}
		c.state.Having = append(c.state.Having, p)
	}
	return c
}

// Sort appends the items returned by f to the ordering of the groups.
func (g *Grouped[E, V, K]) Sort(f func(key view.ExprView[K], row V) []view.SortItem) *Grouped[E, V, K] {
	c := g.copy()
	c.sort(f(c.key, c.row), true)
	return c
}

// FoldGroup aggregates every group of g into the value returned by f. The
// rows of the result are pairs of the group key and that value.
func FoldGroup[E, V, K, R any](g *Grouped[E, V, K], f func(V) view.ExprView[R]) *Mapped[value.Pair[K, R]] {
	s := g.stage.clone()
	agg := f(g.row)
	if agg.Err() == nil && !agg.Tags().Has(view.Aggregate) {
		s.fail(errors.Errorf("cannot fold groups into %s: not an aggregate value", agg))
	}
	return newMapped(s, view.Pair[K, R](g.key, agg), true)
}

// MapGroup projects every group of g to the value returned by f. The value
// may only use the key and aggregate functions.
func MapGroup[E, V, K, R any](g *Grouped[E, V, K], f func(key view.ExprView[K], row V) view.ExprView[R]) *Mapped[R] {
	s := g.stage.clone()
	out := f(g.key, g.row)
	if out.Err() == nil && !out.Tags().Has(view.Aggregate) && !out.Tags().Has(view.Constant) {
		s.fail(errors.Errorf("cannot map groups to %s: it uses a column that is neither aggregated nor part of the key", out))
	}
	return newMapped(s, out, true)
}
