// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package view_test

import (
	"encoding/json"
	"testing"

	. "gopkg.in/check.v1"

	"github.com/dark-flames/yukino-dev-sub000/expr"
	"github.com/dark-flames/yukino-dev-sub000/value"
	"github.com/dark-flames/yukino-dev-sub000/view"
)

// Hook up gocheck into the "go test" runner.
func TestView(t *testing.T) { TestingT(t) }

type ViewSuite struct{}

var _ = Suite(&ViewSuite{})

// render renders the single expression of v.
func render[T any](c *C, v view.View[T]) (string, []value.DatabaseValue) {
	c.Assert(v.Err(), IsNil)
	exprs := v.Collect()
	c.Assert(exprs, HasLen, 1)
	sql, params, err := expr.RenderExpr(expr.DefaultDialect, exprs[0])
	c.Assert(err, IsNil)
	return sql, params
}

var mergeTests = []struct {
	summary  string
	a, b     view.TagSet
	expected view.TagSet
	err      string
}{{
	summary:  "orderable and orderable",
	a:        view.Tags(view.Orderable),
	b:        view.Tags(view.Orderable),
	expected: view.Tags(view.Orderable),
}, {
	summary:  "orderable and not orderable",
	a:        view.Tags(view.Orderable),
	b:        view.Tags(),
	expected: view.Tags(),
}, {
	summary:  "aggregate and constant",
	a:        view.Tags(view.Aggregate),
	b:        view.Tags(view.Constant, view.Orderable),
	expected: view.Tags(view.Aggregate),
}, {
	summary:  "aggregate and plain column",
	a:        view.Tags(view.Aggregate),
	b:        view.Tags(view.Orderable),
	expected: view.Tags(),
}, {
	summary:  "constants",
	a:        view.Tags(view.Constant, view.Orderable),
	b:        view.Tags(view.Constant),
	expected: view.Tags(view.Constant),
}, {
	summary:  "entity and constant",
	a:        view.Tags(view.Entity),
	b:        view.Tags(view.Constant),
	expected: view.Tags(),
}, {
	summary: "two entities",
	a:       view.Tags(view.Entity),
	b:       view.Tags(view.Entity, view.Orderable),
	err:     "cannot combine two entity views",
}, {
	summary: "entity and aggregate",
	a:       view.Tags(view.Aggregate),
	b:       view.Tags(view.Entity),
	err:     `cannot combine an entity view with an aggregate view \(\{Aggregate\} and \{Entity\}\)`,
}}

func (s *ViewSuite) TestMergeTags(c *C) {
	for i, t := range mergeTests {
		tags, err := view.MergeTags(t.a, t.b)
		if t.err != "" {
			c.Check(err, ErrorMatches, t.err, Commentf("test %d failed (%s)", i, t.summary))
			_, ok := err.(*view.TagMergeError)
			c.Check(ok, Equals, true)
			continue
		}
		c.Assert(err, IsNil, Commentf("test %d failed (%s)", i, t.summary))
		c.Check(tags, Equals, t.expected, Commentf("test %d failed (%s): got %s", i, t.summary, tags))
	}
}

func (s *ViewSuite) TestTagSetString(c *C) {
	c.Check(view.Tags(view.Orderable, view.Entity).String(), Equals, "{Entity, Orderable}")
	c.Check(view.Tags().String(), Equals, "{}")
}

func (s *ViewSuite) TestComparison(c *C) {
	age := view.Column[int32]("p", "age")
	c.Check(age.Tags(), Equals, view.Tags(view.Orderable))

	sql, params := render[bool](c, age.GtValue(18))
	c.Check(sql, Equals, "(`p`.`age` > ?)")
	c.Check(params, DeepEquals, []value.DatabaseValue{value.Integer(18)})

	sql, _ = render[bool](c, view.And(age.GteValue(18), age.Lt(view.Column[int32]("p", "level")), age.NeqValue(30)))
	c.Check(sql, Equals, "(((`p`.`age` >= ?) AND (`p`.`age` < `p`.`level`)) AND (`p`.`age` <> ?))")

	sql, _ = render[bool](c, view.Or(view.Not(age.IsNull()), age.In(1, 2)))
	c.Check(sql, Equals, "((NOT (`p`.`age` IS NULL)) OR (`p`.`age` IN (?, ?)))")
}

func (s *ViewSuite) TestEmptyJunctions(c *C) {
	sql, params := render[bool](c, view.And())
	c.Check(sql, Equals, "?")
	c.Check(params, DeepEquals, []value.DatabaseValue{value.Bool(true)})
}

func (s *ViewSuite) TestArithmetic(c *C) {
	age := view.Column[int64]("p", "age")
	sql, params := render[int64](c, age.AddValue(1).Mul(age).Neg())
	c.Check(sql, Equals, "(-((`p`.`age` + ?) * `p`.`age`))")
	c.Check(params, DeepEquals, []value.DatabaseValue{value.BigInteger(1)})

	sql, _ = render[int64](c, age.BitAnd(age).Shl(view.Val[int64](2)))
	c.Check(sql, Equals, "((`p`.`age` & `p`.`age`) << ?)")
}

func (s *ViewSuite) TestOperatorKindChecks(c *C) {
	name := view.Column[string]("p", "name")
	c.Check(name.AddValue("x").Err(), ErrorMatches, "operator \\+ not defined for String")
	c.Check(name.BitOr(name).Err(), ErrorMatches, "operator \\| not defined for String")

	doc := view.Column[json.RawMessage]("p", "doc")
	c.Check(doc.Tags().Has(view.Orderable), Equals, false)
	c.Check(doc.Gt(doc).Err(), ErrorMatches, "operator > needs orderable operands")
	c.Check(doc.Asc().Err(), ErrorMatches, `cannot sort by a value that is not orderable \(tags \{\}\)`)
	c.Check(doc.Ordered().Err(), ErrorMatches, "values of type Json are not orderable")
	c.Check(doc.Eq(doc).Err(), IsNil)
}

func (s *ViewSuite) TestErrorsPropagate(c *C) {
	bad := view.Column[string]("p", "name").AddValue("x")
	c.Check(bad.GtValue("y").Err(), NotNil)
	c.Check(view.And(bad.EqValue("y"), view.Val(true)).Err(), NotNil)
	c.Check(view.Count[string](bad).Err(), NotNil)
}

func (s *ViewSuite) TestAggregates(c *C) {
	id := view.Column[int64]("p", "id")
	count := view.Count[int64](id)
	c.Check(count.Tags(), Equals, view.Tags(view.Aggregate))
	sql, _ := render[int64](c, count)
	c.Check(sql, Equals, "COUNT(`p`.`id`)")

	sql, _ = render[float64](c, view.Average[int64](id))
	c.Check(sql, Equals, "AVG(`p`.`id`)")

	sql, _ = render[int64](c, view.CountDistinct[int64](id))
	c.Check(sql, Equals, "COUNT(DISTINCT `p`.`id`)")

	sql, params := render[string](c, view.GroupConcat[string](view.Column[string]("p", "name"), ";"))
	c.Check(sql, Equals, "GROUP_CONCAT(`p`.`name` SEPARATOR ?)")
	c.Check(params, DeepEquals, []value.DatabaseValue{value.String(";")})

	pair := view.Pair[int64, string](id, view.Column[string]("p", "name"))
	sql, _ = render[int64](c, view.Count[value.Pair[int64, string]](pair))
	c.Check(sql, Equals, "COUNT(*)")

	c.Check(view.Sum[int64](count).Err(), ErrorMatches, "cannot nest aggregate functions in SUM")
	c.Check(view.Sum[string](view.Column[string]("p", "name")).Err(), ErrorMatches, "SUM not defined for String")
	c.Check(view.MaxOrNull[int64](id).Converter().Width(), Equals, 1)
}

func (s *ViewSuite) TestAggregateIsNotOrderable(c *C) {
	count := view.Count[int64](view.Column[int64]("p", "id"))
	c.Check(count.Asc().Err(), ErrorMatches, `cannot sort by a value that is not orderable \(tags \{Aggregate\}\)`)
	c.Check(count.GtValue(1).Err(), ErrorMatches, "operator > needs orderable operands")

	ordered := count.Ordered()
	c.Check(ordered.Tags(), Equals, view.Tags(view.Aggregate, view.Orderable))
	c.Check(ordered.Desc().Err(), IsNil)
	gt := ordered.GtValue(1)
	c.Check(gt.Err(), IsNil)
	c.Check(gt.Tags().Has(view.Aggregate), Equals, true)
}

func (s *ViewSuite) TestFromExprsOnAggregatePanics(c *C) {
	count := view.Count[int64](view.Column[int64]("p", "id"))
	c.Check(func() { count.FromExprs([]expr.Expr{expr.Column("q", "id")}) }, PanicMatches, ".*aggregate view")

	age := view.Column[int64]("p", "age")
	moved := age.FromExprs([]expr.Expr{expr.Column("q", "age")})
	c.Check(moved.String(), Equals, "q.age")
	c.Check(moved.Tags(), Equals, age.Tags())
}

func (s *ViewSuite) TestSortItems(c *C) {
	pair := view.Pair[int64, string](view.Column[int64]("p", "id"), view.Column[string]("p", "name"))
	items := pair.Desc().Items()
	c.Assert(items, HasLen, 2)
	c.Check(items[0].Expr.String(), Equals, "p.id")
	c.Check(items[1].Order, Equals, expr.Desc)
	c.Check(pair.Desc().Tags(), Equals, pair.Tags())
	c.Check(view.CountAll().Ordered().Asc().Tags(), Equals, view.Tags(view.Aggregate, view.Orderable))
}

func (s *ViewSuite) TestMultiColumnEquality(c *C) {
	pair := view.Pair[int64, string](view.Column[int64]("p", "id"), view.Column[string]("p", "name"))
	sql, params := render[bool](c, pair.EqValue(value.MakePair(int64(1), "a")))
	c.Check(sql, Equals, "((`p`.`id` = ?) AND (`p`.`name` = ?))")
	c.Check(params, DeepEquals, []value.DatabaseValue{value.BigInteger(1), value.String("a")})

	sql, _ = render[bool](c, pair.NeqValue(value.MakePair(int64(1), "a")))
	c.Check(sql, Equals, "((`p`.`id` <> ?) OR (`p`.`name` <> ?))")

	sql, _ = render[bool](c, pair.IsNull())
	c.Check(sql, Equals, "((`p`.`id` IS NULL) AND (`p`.`name` IS NULL))")
}

func (s *ViewSuite) TestTuples(c *C) {
	pair := view.Pair[int64, string](view.Column[int64]("p", "id"), view.Column[string]("p", "name"))
	c.Check(pair.Width(), Equals, 2)
	c.Check(view.First[int64, string](pair).String(), Equals, "p.id")
	c.Check(view.Second[int64, string](pair).String(), Equals, "p.name")

	triple := view.Triple[int64, value.Unit, string](view.Column[int64]("p", "id"), view.Unit(), view.Column[string]("p", "name"))
	c.Check(triple.Width(), Equals, 2)

	entity := view.ColumnOf(value.PairConverter(value.Int64Converter, value.StringConverter), "p", "id", "name").
		WithTags(view.Tags(view.Entity))
	_, err := view.MergeTags(entity.Tags(), entity.Tags())
	c.Check(err, NotNil)
	c.Check(view.Pair[value.Pair[int64, string], value.Pair[int64, string]](entity, entity).Err(), IsNil)
	c.Check(view.Pair[value.Pair[int64, string], int64](entity, view.CountAll()).Err(), ErrorMatches,
		"cannot combine an entity view with an aggregate view .*")
	c.Check(entity.Eq(entity).Err(), ErrorMatches, "cannot combine two entity views")
}

func (s *ViewSuite) TestAssign(c *C) {
	age := view.Column[int32]("p", "age")
	a := view.Assign[int32](age, age.AddValue(1))
	c.Assert(a.Err(), IsNil)
	c.Assert(a.Set(), HasLen, 1)
	c.Check(a.Set()[0].Column, Equals, "age")
	c.Check(a.Set()[0].Value.String(), Equals, "(p.age + 1)")

	c.Check(view.AssignValue(age.AddValue(1), 3).Err(), ErrorMatches, `cannot assign to \(p.age \+ 1\): not a column`)
	c.Check(view.Assign[int64](view.Column[int64]("p", "id"), view.CountAll()).Err(), ErrorMatches, "cannot assign an aggregate value")
}

type fakeSubquery struct {
	sel    *expr.SelectQuery
	single bool
}

func (q fakeSubquery) SelectQuery() (*expr.SelectQuery, error) { return q.sel.Clone(), nil }
func (q fakeSubquery) SingleRow() bool                         { return q.single }
func (q fakeSubquery) Converter() value.Converter[int64]       { return value.Int64Converter }

func adults() fakeSubquery {
	return fakeSubquery{sel: &expr.SelectQuery{
		Projection: []expr.Expr{expr.Column("h", "id")},
		From:       expr.TableRef{Table: "person", Alias: "h"},
		Where: []expr.Expr{&expr.Binary{
			Op: expr.OpGt, Left: expr.Column("h", "age"), Right: expr.Literal(value.Integer(18)),
		}},
	}}
}

func (s *ViewSuite) TestSubqueries(c *C) {
	hostID := view.Column[int64]("c", "host_id")
	sql, params := render[bool](c, view.InQuery[int64](hostID, adults()))
	c.Check(sql, Equals, "(`c`.`host_id` IN (SELECT `h`.`id` FROM `person` AS `h` WHERE (`h`.`age` > ?)))")
	c.Check(params, DeepEquals, []value.DatabaseValue{value.Integer(18)})

	sql, _ = render[bool](c, view.NotExists[int64](adults()))
	c.Check(sql, Equals, "(NOT EXISTS (SELECT `h`.`id` FROM `person` AS `h` WHERE (`h`.`age` > ?)))")

	sql, _ = render[bool](c, view.CompareAll[int64](hostID, expr.OpGte, adults()))
	c.Check(sql, Equals, "(`c`.`host_id` >= ALL (SELECT `h`.`id` FROM `person` AS `h` WHERE (`h`.`age` > ?)))")

	c.Check(view.CompareAny[int64](hostID, expr.OpAdd, adults()).Err(), ErrorMatches, `operator \+ is not a comparison`)
	c.Check(view.Scalar[int64](adults()).Err(), ErrorMatches, "cannot use subquery as a value: it may return more than one row")

	single := adults()
	single.single = true
	scalar := view.Scalar[int64](single)
	c.Assert(scalar.Err(), IsNil)
	sql, _ = render[bool](c, hostID.Eq(scalar))
	c.Check(sql, Equals, "(`c`.`host_id` = (SELECT `h`.`id` FROM `person` AS `h` WHERE (`h`.`age` > ?)))")

	c.Check(scalar.Tags(), Equals, view.Tags(view.Constant, view.Orderable))
	c.Check(view.InQuery[int64](view.Val[int64](3), adults()).Tags().Has(view.Constant), Equals, true)

	// A subquery reading a column of the enclosing row is not a constant.
	correlated := adults()
	correlated.single = true
	correlated.sel.Where = append(correlated.sel.Where, &expr.Binary{
		Op: expr.OpEq, Left: expr.Column("h", "id"), Right: expr.Column("c", "host_id"),
	})
	c.Check(view.Scalar[int64](correlated).Tags(), Equals, view.Tags(view.Orderable))
	c.Check(view.InQuery[int64](view.Val[int64](3), correlated).Tags().Has(view.Constant), Equals, false)
	c.Check(view.InQuery[int64](view.CountAll(), correlated).Tags().Has(view.Aggregate), Equals, false)

	wide := adults()
	wide.sel.Projection = append(wide.sel.Projection, expr.Column("h", "name"))
	c.Check(view.InQuery[int64](hostID, wide).Err(), ErrorMatches, "cannot use subquery: it must select exactly one column, got 2")
}
