// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package query

import (
	"github.com/dark-flames/yukino-dev-sub000/expr"
	"github.com/dark-flames/yukino-dev-sub000/value"
	"github.com/dark-flames/yukino-dev-sub000/view"
)

// Entity describes a record type E mapped to one table and V, the view of a
// row of that table. Implementations are written by hand, generated, or
// built at run time by the schema package.
type Entity[E, V any] interface {
	// TableName returns the name of the table.
	TableName() string
	// Columns returns the columns of the table in the order of the
	// decomposition of E.
	Columns() []string
	// Pure returns a view of the row of the table bound to alias.
	Pure(alias string) V
	// Collect returns the expressions of every column of v, in the order
	// of Columns.
	Collect(v V) []expr.Expr
	// FromExprs rebuilds a row view from expressions returned by Collect.
	FromExprs(exprs []expr.Expr) V
	// Converter returns the converter of E.
	Converter() value.Converter[E]
}

// Keyed is an entity with a primary key of type K.
type Keyed[E, V, K any] interface {
	Entity[E, V]
	// PrimaryKeyColumns returns the columns of the primary key.
	PrimaryKeyColumns() []string
	// PrimaryKey returns the view of the primary key of row v.
	PrimaryKey(v V) view.ExprView[K]
	// PrimaryKeyOf returns the primary key of e.
	PrimaryKeyOf(e E) K
}

// Row returns the whole row v as a view tagged Entity.
func Row[E, V any](ent Entity[E, V], v V) view.ExprView[E] {
	return view.New(ent.Converter(), view.Tags(view.Entity), ent.Collect(v)...)
}
