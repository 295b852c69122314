/*
Yukino is a typed query layer for SQL databases. Queries are built from Go
values instead of SQL strings and their rows are decoded back into Go values.

# Entities

An entity is a Go type mapped to one table. Its row is described by a view
type holding one typed column view per field:

	type Person struct {
		ID    int64
		Name  string
		Age   int32
		Level int32
	}

	type PersonView struct {
		ID    view.ExprView[int64]
		Name  view.ExprView[string]
		Age   view.ExprView[int32]
		Level view.ExprView[int32]
	}

Entities implement [query.Entity]. They are usually generated, but the schema
package can also define them at run time from "db" struct tags.

# Building queries

A query starts from an entity and is refined stage by stage. Every stage
returns a new builder:

	adults := query.Select(Persons).
		Filter(func(p PersonView) view.ExprView[bool] { return p.Age.GtValue(18) }).
		Sort(func(p PersonView) []view.SortItem { return []view.SortItem{p.Name.Asc()} })

Rows may be mapped to other values with [query.Map], collapsed into an
aggregate with [query.Fold] or grouped with [query.GroupBy]:

	byLevel := query.FoldGroup(
		query.GroupBy(query.Select(Persons), func(p PersonView) view.ExprView[int32] { return p.Level }),
		func(p PersonView) view.ExprView[int64] { return view.Count(p.ID) },
	)

Invalid compositions, such as sorting by an aggregate that has not been made
orderable or filtering rows with an aggregate, are reported when the query is
built, before any SQL is rendered.

# Running queries

Queries run on any [Executor]: a [DB], a [TX] or a plain database/sql
object. [DB] also selects the SQL dialect and the logger:

	db := yukino.NewDB(sqldb, yukino.WithDialect(expr.DialectSQLite))
	people, err := yukino.All(ctx, db, adults)
	counts, err := yukino.All(ctx, db, byLevel) // []value.Pair[int32, int64]

[One] expects exactly one row, [Iter] iterates over rows lazily and [Exec]
runs insert, update and delete statements.
*/
package yukino
