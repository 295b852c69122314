// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package query

import (
	"github.com/pkg/errors"

	"github.com/dark-flames/yukino-dev-sub000/expr"
	"github.com/dark-flames/yukino-dev-sub000/view"
)

// Modification is a statement that changes rows.
type Modification interface {
	// Build returns the statement ready to be rendered.
	Build() (expr.Statement, error)
}

// InsertBuilder builds an INSERT statement.
type InsertBuilder[E, V any] struct {
	ent  Entity[E, V]
	rows []E
	omit map[string]bool
}

// Insert inserts rows into the table of ent.
func Insert[E, V any](ent Entity[E, V], rows ...E) *InsertBuilder[E, V] {
	return &InsertBuilder[E, V]{ent: ent, rows: rows}
}

// Omit leaves columns out of the statement so that the database assigns
// their default value. It is typically used for auto increment keys.
func (b *InsertBuilder[E, V]) Omit(columns ...string) *InsertBuilder[E, V] {
	c := &InsertBuilder[E, V]{ent: b.ent, rows: b.rows, omit: map[string]bool{}}
	for k := range b.omit {
		c.omit[k] = true
	}
	for _, col := range columns {
		c.omit[col] = true
	}
	return c
}

// Build returns the INSERT statement.
func (b *InsertBuilder[E, V]) Build() (expr.Statement, error) {
	if len(b.rows) == 0 {
		return nil, errors.New("cannot build insert: no rows")
	}
	conv := b.ent.Converter()
	columns := b.ent.Columns()
	if conv == nil || conv.Width() != len(columns) {
		return nil, errors.Errorf("cannot build insert: entity %s has a converter that does not match its columns", b.ent.TableName())
	}
	q := &expr.InsertQuery{Table: b.ent.TableName()}
	var keep []int
	for i, col := range columns {
		if b.omit[col] {
			continue
		}
		keep = append(keep, i)
		q.Columns = append(q.Columns, col)
	}
	for col := range b.omit {
		if !contains(columns, col) {
			return nil, errors.Errorf("cannot build insert: table %s has no column %q", b.ent.TableName(), col)
		}
	}
	for _, row := range b.rows {
		values := conv.Serialize(row)
		exprs := make([]expr.Expr, len(keep))
		for j, i := range keep {
			exprs[j] = expr.Literal(values[i])
		}
		q.Values = append(q.Values, exprs)
	}
	return q, nil
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}

// UpdateBuilder builds an UPDATE statement.
type UpdateBuilder[E, V any] struct {
	gen   *AliasGenerator
	row   V
	state *expr.UpdateQuery
	err   error
}

// Update updates the rows of the table of ent.
func Update[E, V any](ent Entity[E, V]) *UpdateBuilder[E, V] {
	gen := NewAliasGenerator()
	alias := gen.Generate(ent.TableName())
	return &UpdateBuilder[E, V]{
		gen:   gen,
		row:   ent.Pure(alias),
		state: &expr.UpdateQuery{Table: expr.TableRef{Table: ent.TableName(), Alias: alias}},
	}
}

func (b *UpdateBuilder[E, V]) copy() *UpdateBuilder[E, V] {
	s := *b.state
	s.Set = append([]expr.Assignment(nil), b.state.Set...)
	s.Where = append([]expr.Expr(nil), b.state.Where...)
	s.OrderBy = append([]expr.OrderByItem(nil), b.state.OrderBy...)
	return &UpdateBuilder[E, V]{gen: b.gen, row: b.row, state: &s, err: b.err}
}

// Filter restricts the update to the rows for which every predicate is
// true.
func (b *UpdateBuilder[E, V]) Filter(fs ...func(V) view.ExprView[bool]) *UpdateBuilder[E, V] {
	c := b.copy()
	st := stage{gen: c.gen, state: &expr.SelectQuery{}, err: c.err}
	for _, f := range fs {
		v := f(c.row)
		if v.Err() == nil && v.Tags().Has(view.Aggregate) {
			st.fail(errors.New("cannot filter rows by an aggregate value"))
			break
		}
		p, ok := st.predicate(v)
		if !ok {
			break
		}
		c.state.Where = append(c.state.Where, p)
	}
	c.err = st.err
	return c
}

// Set appends the assignments returned by f.
func (b *UpdateBuilder[E, V]) Set(f func(V) []view.Assignment) *UpdateBuilder[E, V] {
	c := b.copy()
	st := stage{gen: c.gen, err: c.err}
	for _, a := range f(c.row) {
		if err := a.Err(); err != nil {
			st.fail(err)
			break
		}
		for _, set := range a.Set() {
			set.Value = st.embed([]expr.Expr{set.Value})[0]
			c.state.Set = append(c.state.Set, set)
		}
	}
	c.err = st.err
	return c
}

// Limit updates at most n rows.
func (b *UpdateBuilder[E, V]) Limit(n uint64) *UpdateBuilder[E, V] {
	c := b.copy()
	c.state.Limit = limit(n)
	return c
}

// Build returns the UPDATE statement.
func (b *UpdateBuilder[E, V]) Build() (expr.Statement, error) {
	if b.err != nil {
		return nil, errors.Wrap(b.err, "cannot build update")
	}
	if len(b.state.Set) == 0 {
		return nil, errors.New("cannot build update: no assignments")
	}
	q := b.copy().state
	if free := unbound(q.Table.Alias, q.Where, q.Set); len(free) > 0 {
		return nil, errors.Wrapf(ErrUnknownAlias, "cannot build update: alias %q is not bound", free[0])
	}
	return q, nil
}

// DeleteBuilder builds a DELETE statement.
type DeleteBuilder[E, V any] struct {
	gen   *AliasGenerator
	row   V
	state *expr.DeleteQuery
	err   error
}

// Delete deletes rows of the table of ent.
func Delete[E, V any](ent Entity[E, V]) *DeleteBuilder[E, V] {
	gen := NewAliasGenerator()
	alias := gen.Generate(ent.TableName())
	return &DeleteBuilder[E, V]{
		gen:   gen,
		row:   ent.Pure(alias),
		state: &expr.DeleteQuery{Table: expr.TableRef{Table: ent.TableName(), Alias: alias}},
	}
}

// Filter restricts the deletion to the rows for which every predicate is
// true. A delete without filter deletes every row.
func (b *DeleteBuilder[E, V]) Filter(fs ...func(V) view.ExprView[bool]) *DeleteBuilder[E, V] {
	s := *b.state
	s.Where = append([]expr.Expr(nil), b.state.Where...)
	c := &DeleteBuilder[E, V]{gen: b.gen, row: b.row, state: &s}
	st := stage{gen: c.gen, state: &expr.SelectQuery{}, err: b.err}
	for _, f := range fs {
		v := f(c.row)
		if v.Err() == nil && v.Tags().Has(view.Aggregate) {
			st.fail(errors.New("cannot filter rows by an aggregate value"))
			break
		}
		p, ok := st.predicate(v)
		if !ok {
			break
		}
		c.state.Where = append(c.state.Where, p)
	}
	c.err = st.err
	return c
}

// Build returns the DELETE statement.
func (b *DeleteBuilder[E, V]) Build() (expr.Statement, error) {
	if b.err != nil {
		return nil, errors.Wrap(b.err, "cannot build delete")
	}
	q := *b.state
	q.Where = expr.CloneAll(b.state.Where)
	if free := unbound(q.Table.Alias, q.Where, nil); len(free) > 0 {
		return nil, errors.Wrapf(ErrUnknownAlias, "cannot build delete: alias %q is not bound", free[0])
	}
	return &q, nil
}

// unbound returns the aliases other than alias referenced by where and set.
func unbound(alias string, where []expr.Expr, set []expr.Assignment) []string {
	exprs := append([]expr.Expr(nil), where...)
	for _, a := range set {
		exprs = append(exprs, a.Value)
	}
	var free []string
	for _, e := range exprs {
		for _, a := range freeAliases(e) {
			if a != alias && !contains(free, a) {
				free = append(free, a)
			}
		}
	}
	return free
}
