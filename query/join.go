// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package query

import (
	"github.com/dark-flames/yukino-dev-sub000/expr"
	"github.com/dark-flames/yukino-dev-sub000/value"
	"github.com/dark-flames/yukino-dev-sub000/view"
)

// BelongsTo is a many-to-one relation: every row of Child references a row
// of Parent through a foreign key of type K.
type BelongsTo[C, CV, P, PV any, K comparable] struct {
	Child  Entity[C, CV]
	Parent Keyed[P, PV, K]
	// ForeignKey returns the view of the foreign key of a child row.
	ForeignKey func(CV) view.ExprView[K]
	// ForeignKeyOf returns the foreign key of a child.
	ForeignKeyOf func(C) K
}

// BelongingToQuery keeps the children whose parent is returned by parents.
// A single column key is matched with IN, wider keys with a correlated
// EXISTS.
func (rel BelongsTo[C, CV, P, PV, K]) BelongingToQuery(children *SelectBuilder[C, CV], parents *SelectBuilder[P, PV]) *SelectBuilder[C, CV] {
	return children.Filter(func(row CV) view.ExprView[bool] {
		fk := rel.ForeignKey(row)
		if fk.Err() == nil && fk.Width() == 1 {
			return view.InQuery[K](fk, Map(parents, rel.Parent.PrimaryKey))
		}
		return view.Exists[P](parents.Filter(func(p PV) view.ExprView[bool] {
			return rel.Parent.PrimaryKey(p).Eq(fk)
		}))
	})
}

// BelongingToValues keeps the children of one of parents. An empty list of
// parents keeps no child.
func (rel BelongsTo[C, CV, P, PV, K]) BelongingToValues(children *SelectBuilder[C, CV], parents ...P) *SelectBuilder[C, CV] {
	keys := make([]K, len(parents))
	for i, p := range parents {
		keys[i] = rel.Parent.PrimaryKeyOf(p)
	}
	return children.Filter(func(row CV) view.ExprView[bool] {
		fk := rel.ForeignKey(row)
		if fk.Err() != nil || fk.Width() == 1 {
			return fk.In(keys...)
		}
		eqs := make([]view.View[bool], len(keys))
		for i, k := range keys {
			eqs[i] = fk.EqValue(k)
		}
		return view.Or(eqs...)
	})
}

// BelongingToView keeps the children of the parent row parent. parent is
// usually the row of an enclosing query, in which case the result is a
// correlated subquery.
func (rel BelongsTo[C, CV, P, PV, K]) BelongingToView(children *SelectBuilder[C, CV], parent PV) *SelectBuilder[C, CV] {
	return children.Filter(func(row CV) view.ExprView[bool] {
		return rel.ForeignKey(row).Eq(rel.Parent.PrimaryKey(parent))
	})
}

// Group distributes children among parents, see GroupByParent.
func (rel BelongsTo[C, CV, P, PV, K]) Group(parents []P, children []C) []Group[P, C] {
	return GroupByParent(parents, children, rel.Parent.PrimaryKeyOf, rel.ForeignKeyOf)
}

// Joined is the row of a child joined to its parent.
type Joined[CV, PV any] struct {
	Child  CV
	Parent PV
}

// JoinParent joins every child row of children to its parent row. Rows
// decode to pairs of child and parent.
func JoinParent[C, CV, P, PV any, K comparable](rel BelongsTo[C, CV, P, PV, K], children *SelectBuilder[C, CV]) *SelectBuilder[value.Pair[C, P], Joined[CV, PV]] {
	s := children.stage.clone()
	alias := s.gen.Generate(rel.Parent.TableName())
	row := Joined[CV, PV]{Child: children.row, Parent: rel.Parent.Pure(alias)}
	codec := rowConverter[value.Pair[C, P], Joined[CV, PV]]{
		collect: func(j Joined[CV, PV]) []expr.Expr {
			return append(children.codec.collect(j.Child), rel.Parent.Collect(j.Parent)...)
		},
		conv: value.PairConverter(children.codec.conv, rel.Parent.Converter()),
	}
	on := rel.ForeignKey(row.Child).Eq(rel.Parent.PrimaryKey(row.Parent))
	if err := on.Err(); err != nil {
		s.fail(err)
	} else {
		s.state.Joins = append(s.state.Joins, expr.Join{
			Kind:  expr.InnerJoin,
			Table: expr.TableRef{Table: rel.Parent.TableName(), Alias: alias},
			On:    on.Collect()[0],
		})
	}
	s.state.Projection = codec.collect(row)
	return &SelectBuilder[value.Pair[C, P], Joined[CV, PV]]{stage: s, row: row, codec: codec}
}

// Group is a parent together with its children.
type Group[P, C any] struct {
	Parent   P
	Children []C
}

// GroupByParent distributes children among parents by matching the key of
// each child, returned by fkOf, with the key of each parent, returned by
// pkOf. Groups are returned in the order of parents and children keep their
// relative order. Children without a parent are dropped.
func GroupByParent[P, C any, K comparable](parents []P, children []C, pkOf func(P) K, fkOf func(C) K) []Group[P, C] {
	groups := make([]Group[P, C], len(parents))
	index := make(map[K][]int, len(parents))
	for i, p := range parents {
		groups[i].Parent = p
		k := pkOf(p)
		index[k] = append(index[k], i)
	}
	for _, c := range children {
		for _, i := range index[fkOf(c)] {
			groups[i].Children = append(groups[i].Children, c)
		}
	}
	return groups
}
