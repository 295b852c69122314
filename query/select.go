// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package query

import (
	"github.com/pkg/errors"

	"github.com/dark-flames/yukino-dev-sub000/expr"
	"github.com/dark-flames/yukino-dev-sub000/value"
	"github.com/dark-flames/yukino-dev-sub000/view"
)

// SelectBuilder builds a query over the rows of an entity, or of an entity
// joined to its parents. Every method returns a new builder and leaves the
// receiver untouched.
type SelectBuilder[E, V any] struct {
	stage
	row   V
	codec rowConverter[E, V]
}

// Select starts a query over every row of ent. The query owns a new alias
// generator.
func Select[E, V any](ent Entity[E, V]) *SelectBuilder[E, V] {
	return SelectWith(NewAliasGenerator(), ent)
}

// SelectWith starts a query over every row of ent with aliases issued by gen.
func SelectWith[E, V any](gen *AliasGenerator, ent Entity[E, V]) *SelectBuilder[E, V] {
	alias := gen.Generate(ent.TableName())
	row := ent.Pure(alias)
	b := &SelectBuilder[E, V]{
		stage: stage{
			gen: gen,
			state: &expr.SelectQuery{
				Projection: ent.Collect(row),
				From:       expr.TableRef{Table: ent.TableName(), Alias: alias},
			},
		},
		row:   row,
		codec: rowConverter[E, V]{collect: ent.Collect, conv: ent.Converter()},
	}
	if b.codec.conv == nil {
		b.err = errors.Errorf("entity %s has no converter", ent.TableName())
	} else if n := len(b.state.Projection); n != b.codec.conv.Width() {
		b.err = errors.Errorf("entity %s has %d columns, converter expects %d", ent.TableName(), n, b.codec.conv.Width())
	}
	return b
}

func (b *SelectBuilder[E, V]) copy() *SelectBuilder[E, V] {
	return &SelectBuilder[E, V]{stage: b.stage.clone(), row: b.row, codec: b.codec}
}

// Row returns the row view of the query.
func (b *SelectBuilder[E, V]) Row() V {
	return b.row
}

// Filter keeps the rows for which every predicate is true. Predicates must
// not contain aggregate functions; use GroupBy to filter groups.
func (b *SelectBuilder[E, V]) Filter(fs ...func(V) view.ExprView[bool]) *SelectBuilder[E, V] {
	c := b.copy()
	for _, f := range fs {
		v := f(c.row)
		if v.Err() == nil && v.Tags().Has(view.Aggregate) {
			c.fail(errors.New("cannot filter rows by an aggregate value"))
			break
		}
		p, ok := c.predicate(v)
		if !ok {
			break
		}
		c.state.Where = append(c.state.Where, p)
	}
	return c
}

// Sort appends the items returned by f to the ordering of the rows. Sort
// may be called more than once; earlier items take precedence.
func (b *SelectBuilder[E, V]) Sort(f func(V) []view.SortItem) *SelectBuilder[E, V] {
	c := b.copy()
	c.sort(f(c.row), false)
	return c
}

// Limit returns at most n rows.
func (b *SelectBuilder[E, V]) Limit(n uint64) *SelectBuilder[E, V] {
	c := b.copy()
	c.state.Limit = limit(n)
	return c
}

// Offset skips the first n rows.
func (b *SelectBuilder[E, V]) Offset(n uint64) *SelectBuilder[E, V] {
	c := b.copy()
	c.state.Offset = limit(n)
	return c
}

// Distinct removes duplicate rows.
func (b *SelectBuilder[E, V]) Distinct() *SelectBuilder[E, V] {
	c := b.copy()
	c.state.Distinct = true
	return c
}

// Build returns the query state.
func (b *SelectBuilder[E, V]) Build() (*expr.SelectQuery, error) {
	return b.build()
}

// SelectQuery returns a copy of the query state for use as a subquery. It
// may reference aliases bound by an enclosing query.
func (b *SelectBuilder[E, V]) SelectQuery() (*expr.SelectQuery, error) {
	return b.selectQuery()
}

// SingleRow reports whether the query is limited to at most one row.
func (b *SelectBuilder[E, V]) SingleRow() bool {
	return b.singleRow()
}

// Converter returns the converter of the rows.
func (b *SelectBuilder[E, V]) Converter() value.Converter[E] {
	return b.codec.conv
}

// Err returns the first error recorded while building b.
func (b *SelectBuilder[E, V]) Err() error {
	return b.err
}
