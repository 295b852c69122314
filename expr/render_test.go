// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package expr_test

import (
	"testing"

	. "gopkg.in/check.v1"

	"github.com/dark-flames/yukino-dev-sub000/expr"
	"github.com/dark-flames/yukino-dev-sub000/value"
)

// Hook up gocheck into the "go test" runner.
func TestExpr(t *testing.T) { TestingT(t) }

type ExprSuite struct{}

var _ = Suite(&ExprSuite{})

func col(alias, column string) expr.Expr {
	return expr.Column(alias, column)
}

func lit(v value.DatabaseValue) expr.Expr {
	return expr.Literal(v)
}

func bin(op expr.BinaryOp, l, r expr.Expr) expr.Expr {
	return &expr.Binary{Op: op, Left: l, Right: r}
}

func limit(n uint64) *uint64 { return &n }

var renderTests = []struct {
	summary        string
	stmt           expr.Statement
	expectedSQL    string
	expectedParams []value.DatabaseValue
}{{
	summary: "filter on one column",
	stmt: &expr.SelectQuery{
		Projection: []expr.Expr{col("p", "id"), col("p", "age")},
		From:       expr.TableRef{Table: "person", Alias: "p"},
		Where:      []expr.Expr{bin(expr.OpGt, col("p", "age"), lit(value.Integer(18)))},
	},
	expectedSQL:    "SELECT `p`.`id`, `p`.`age` FROM `person` AS `p` WHERE (`p`.`age` > ?)",
	expectedParams: []value.DatabaseValue{value.Integer(18)},
}, {
	summary: "where clauses are joined with AND",
	stmt: &expr.SelectQuery{
		Projection: []expr.Expr{col("p", "id")},
		From:       expr.TableRef{Table: "person", Alias: "p"},
		Where: []expr.Expr{
			bin(expr.OpGte, col("p", "age"), lit(value.Integer(18))),
			bin(expr.OpNeq, col("p", "name"), lit(value.String("Bob"))),
		},
	},
	expectedSQL:    "SELECT `p`.`id` FROM `person` AS `p` WHERE (`p`.`age` >= ?) AND (`p`.`name` <> ?)",
	expectedParams: []value.DatabaseValue{value.Integer(18), value.String("Bob")},
}, {
	summary: "nested binary operators are fully parenthesized",
	stmt: &expr.SelectQuery{
		Projection: []expr.Expr{bin(expr.OpMul, bin(expr.OpAdd, col("p", "a"), lit(value.Integer(1))), col("p", "b"))},
		From:       expr.TableRef{Table: "t", Alias: "p"},
	},
	expectedSQL:    "SELECT ((`p`.`a` + ?) * `p`.`b`) FROM `t` AS `p`",
	expectedParams: []value.DatabaseValue{value.Integer(1)},
}, {
	summary: "clause order",
	stmt: &expr.SelectQuery{
		Projection: []expr.Expr{col("p", "level"), &expr.FunctionCall{Func: expr.Count, Args: []expr.Expr{col("p", "id")}}},
		From:       expr.TableRef{Table: "person", Alias: "p"},
		Where:      []expr.Expr{&expr.Unary{Op: expr.OpIsNotNull, Expr: col("p", "level")}},
		GroupBy:    []expr.Expr{col("p", "level")},
		Having:     []expr.Expr{bin(expr.OpGt, &expr.FunctionCall{Func: expr.Count, Args: []expr.Expr{col("p", "id")}}, lit(value.BigInteger(1)))},
		OrderBy:    []expr.OrderByItem{{Expr: col("p", "level"), Order: expr.Desc}},
		Limit:      limit(10),
		Offset:     limit(5),
	},
	expectedSQL: "SELECT `p`.`level`, COUNT(`p`.`id`) FROM `person` AS `p` WHERE (`p`.`level` IS NOT NULL) " +
		"GROUP BY `p`.`level` HAVING (COUNT(`p`.`id`) > ?) ORDER BY `p`.`level` DESC LIMIT 10 OFFSET 5",
	expectedParams: []value.DatabaseValue{value.BigInteger(1)},
}, {
	summary: "count without arguments",
	stmt: &expr.SelectQuery{
		Projection: []expr.Expr{&expr.FunctionCall{Func: expr.Count}},
		From:       expr.TableRef{Table: "person", Alias: "p"},
	},
	expectedSQL: "SELECT COUNT(*) FROM `person` AS `p`",
}, {
	summary: "distinct aggregate",
	stmt: &expr.SelectQuery{
		Projection: []expr.Expr{&expr.FunctionCall{Func: expr.Count, Distinct: true, Args: []expr.Expr{col("p", "level")}}},
		From:       expr.TableRef{Table: "person", Alias: "p"},
	},
	expectedSQL: "SELECT COUNT(DISTINCT `p`.`level`) FROM `person` AS `p`",
}, {
	summary: "join",
	stmt: &expr.SelectQuery{
		Projection: []expr.Expr{col("c", "name"), col("h", "name")},
		From:       expr.TableRef{Table: "pet", Alias: "c"},
		Joins: []expr.Join{{
			Kind:  expr.InnerJoin,
			Table: expr.TableRef{Table: "person", Alias: "h"},
			On:    bin(expr.OpEq, col("c", "host_id"), col("h", "id")),
		}},
	},
	expectedSQL: "SELECT `c`.`name`, `h`.`name` FROM `pet` AS `c` INNER JOIN `person` AS `h` ON (`c`.`host_id` = `h`.`id`)",
}, {
	summary: "in subquery",
	stmt: &expr.SelectQuery{
		Projection: []expr.Expr{col("c", "id")},
		From:       expr.TableRef{Table: "pet", Alias: "c"},
		Where: []expr.Expr{&expr.SubqueryPredicate{
			Quantifier: expr.In,
			Expr:       col("c", "host_id"),
			Query: &expr.SelectQuery{
				Projection: []expr.Expr{col("h", "id")},
				From:       expr.TableRef{Table: "person", Alias: "h"},
				Where:      []expr.Expr{bin(expr.OpGt, col("h", "age"), lit(value.Integer(18)))},
			},
		}, bin(expr.OpEq, col("c", "kind"), lit(value.String("cat")))},
	},
	expectedSQL: "SELECT `c`.`id` FROM `pet` AS `c` WHERE (`c`.`host_id` IN " +
		"(SELECT `h`.`id` FROM `person` AS `h` WHERE (`h`.`age` > ?))) AND (`c`.`kind` = ?)",
	expectedParams: []value.DatabaseValue{value.Integer(18), value.String("cat")},
}, {
	summary: "exists and quantified comparison",
	stmt: &expr.SelectQuery{
		Projection: []expr.Expr{col("h", "id")},
		From:       expr.TableRef{Table: "person", Alias: "h"},
		Where: []expr.Expr{&expr.SubqueryPredicate{
			Quantifier: expr.NotExists,
			Query: &expr.SelectQuery{
				Projection: []expr.Expr{col("c", "id")},
				From:       expr.TableRef{Table: "pet", Alias: "c"},
				Where:      []expr.Expr{bin(expr.OpEq, col("c", "host_id"), col("h", "id"))},
			},
		}, &expr.SubqueryPredicate{
			Quantifier: expr.All,
			Op:         expr.OpGt,
			Expr:       col("h", "age"),
			Query: &expr.SelectQuery{
				Projection: []expr.Expr{col("o", "age")},
				From:       expr.TableRef{Table: "person", Alias: "o"},
			},
		}},
	},
	expectedSQL: "SELECT `h`.`id` FROM `person` AS `h` WHERE (NOT EXISTS (SELECT `c`.`id` FROM `pet` AS `c` " +
		"WHERE (`c`.`host_id` = `h`.`id`))) AND (`h`.`age` > ALL (SELECT `o`.`age` FROM `person` AS `o`))",
}, {
	summary: "in list and empty lists",
	stmt: &expr.SelectQuery{
		Projection: []expr.Expr{col("p", "id")},
		From:       expr.TableRef{Table: "person", Alias: "p"},
		Where: []expr.Expr{
			&expr.InList{Expr: col("p", "id"), List: []expr.Expr{lit(value.BigInteger(1)), lit(value.BigInteger(2))}},
			&expr.InList{Expr: col("p", "id")},
			&expr.InList{Expr: col("p", "id"), Not: true},
		},
	},
	expectedSQL:    "SELECT `p`.`id` FROM `person` AS `p` WHERE (`p`.`id` IN (?, ?)) AND (`p`.`id` IN (NULL)) AND (1 = 1)",
	expectedParams: []value.DatabaseValue{value.BigInteger(1), value.BigInteger(2)},
}, {
	summary: "insert renders one group per row",
	stmt: &expr.InsertQuery{
		Table:   "person",
		Columns: []string{"name", "age"},
		Values: [][]expr.Expr{
			{lit(value.String("Alice")), lit(value.Integer(30))},
			{lit(value.String("Bob")), lit(value.Integer(12))},
		},
	},
	expectedSQL:    "INSERT INTO `person` (`name`, `age`) VALUES (?, ?), (?, ?)",
	expectedParams: []value.DatabaseValue{value.String("Alice"), value.Integer(30), value.String("Bob"), value.Integer(12)},
}, {
	summary: "update",
	stmt: &expr.UpdateQuery{
		Table: expr.TableRef{Table: "person", Alias: "p"},
		Set:   []expr.Assignment{{Column: "age", Value: bin(expr.OpAdd, col("p", "age"), lit(value.Integer(1)))}},
		Where: []expr.Expr{bin(expr.OpEq, col("p", "id"), lit(value.BigInteger(7)))},
	},
	expectedSQL:    "UPDATE `person` AS `p` SET `age` = (`p`.`age` + ?) WHERE (`p`.`id` = ?)",
	expectedParams: []value.DatabaseValue{value.Integer(1), value.BigInteger(7)},
}, {
	summary: "delete",
	stmt: &expr.DeleteQuery{
		Table: expr.TableRef{Table: "person", Alias: "p"},
		Where: []expr.Expr{&expr.Unary{Op: expr.OpNot, Expr: bin(expr.OpLt, col("p", "age"), lit(value.Integer(0)))}},
	},
	expectedSQL:    "DELETE FROM `person` AS `p` WHERE (NOT (`p`.`age` < ?))",
	expectedParams: []value.DatabaseValue{value.Integer(0)},
}}

func (s *ExprSuite) TestRender(c *C) {
	for i, t := range renderTests {
		sql, params, err := expr.Render(expr.DialectMySQL, t.stmt)
		c.Assert(err, IsNil, Commentf("test %d failed (%s)", i, t.summary))
		c.Check(sql, Equals, t.expectedSQL, Commentf("test %d failed (%s)", i, t.summary))
		c.Check(params, DeepEquals, t.expectedParams, Commentf("test %d failed (%s)", i, t.summary))
	}
}

func (s *ExprSuite) TestRenderIsDeterministic(c *C) {
	for _, t := range renderTests {
		sql1, params1, err := expr.Render(expr.DefaultDialect, t.stmt)
		c.Assert(err, IsNil)
		sql2, params2, err := expr.Render(expr.DefaultDialect, t.stmt)
		c.Assert(err, IsNil)
		c.Check(sql1, Equals, sql2)
		c.Check(params1, DeepEquals, params2)
	}
}

func (s *ExprSuite) TestRenderDialects(c *C) {
	stmt := &expr.SelectQuery{
		Projection: []expr.Expr{&expr.FunctionCall{
			Func:      expr.GroupConcat,
			Args:      []expr.Expr{col("p", "name")},
			Separator: expr.Literal(value.String(",")),
		}},
		From:   expr.TableRef{Table: "person", Alias: "p"},
		Where:  []expr.Expr{bin(expr.OpEq, col("p", "level"), lit(value.Integer(2)))},
		Offset: limit(3),
	}

	sql, params, err := expr.Render(expr.DialectMySQL, stmt)
	c.Assert(err, IsNil)
	c.Check(sql, Equals, "SELECT GROUP_CONCAT(`p`.`name` SEPARATOR ?) FROM `person` AS `p` WHERE (`p`.`level` = ?) LIMIT 18446744073709551615 OFFSET 3")
	c.Check(params, DeepEquals, []value.DatabaseValue{value.String(","), value.Integer(2)})

	sql, _, err = expr.Render(expr.DialectSQLite, stmt)
	c.Assert(err, IsNil)
	c.Check(sql, Equals, "SELECT GROUP_CONCAT(`p`.`name`, ?) FROM `person` AS `p` WHERE (`p`.`level` = ?) LIMIT -1 OFFSET 3")

	sql, _, err = expr.Render(expr.DialectPostgres, stmt)
	c.Assert(err, IsNil)
	c.Check(sql, Equals, `SELECT STRING_AGG("p"."name", $1) FROM "person" AS "p" WHERE ("p"."level" = $2) LIMIT ALL OFFSET 3`)
}

func (s *ExprSuite) TestDialectByName(c *C) {
	d, err := expr.DialectByName("SQLite3")
	c.Assert(err, IsNil)
	c.Check(d.Name, Equals, "sqlite")

	d, err = expr.DialectByName("")
	c.Assert(err, IsNil)
	c.Check(d.Name, Equals, "mysql")

	_, err = expr.DialectByName("oracle")
	c.Assert(err, ErrorMatches, `unknown dialect "oracle"`)
}

var renderErrorTests = []struct {
	summary string
	stmt    expr.Statement
	err     string
}{{
	summary: "empty projection",
	stmt:    &expr.SelectQuery{From: expr.TableRef{Table: "person"}},
	err:     "cannot render statement: empty projection",
}, {
	summary: "insert row of wrong length",
	stmt: &expr.InsertQuery{
		Table:   "person",
		Columns: []string{"name", "age"},
		Values:  [][]expr.Expr{{lit(value.String("Alice"))}},
	},
	err: "cannot render statement: row 0 has 1 values, expected 2",
}, {
	summary: "quantified comparison with a boolean operator",
	stmt: &expr.SelectQuery{
		Projection: []expr.Expr{col("p", "id")},
		From:       expr.TableRef{Table: "person", Alias: "p"},
		Where: []expr.Expr{&expr.SubqueryPredicate{
			Quantifier: expr.Any,
			Op:         expr.OpAnd,
			Expr:       col("p", "id"),
			Query:      &expr.SelectQuery{Projection: []expr.Expr{col("o", "id")}, From: expr.TableRef{Table: "person", Alias: "o"}},
		}},
	},
	err: `cannot render statement: quantified comparison with non comparison operator "AND"`,
}, {
	summary: "update without assignments",
	stmt:    &expr.UpdateQuery{Table: expr.TableRef{Table: "person", Alias: "p"}},
	err:     "cannot render statement: update without assignments",
}}

func (s *ExprSuite) TestRenderErrors(c *C) {
	for i, t := range renderErrorTests {
		_, _, err := expr.Render(expr.DefaultDialect, t.stmt)
		c.Check(err, ErrorMatches, t.err, Commentf("test %d failed (%s)", i, t.summary))
	}
}

func (s *ExprSuite) TestString(c *C) {
	e := bin(expr.OpAnd,
		bin(expr.OpGt, col("p", "age"), lit(value.Integer(18))),
		bin(expr.OpEq, col("p", "name"), lit(value.String("O'Brien"))))
	c.Check(e.String(), Equals, "((p.age > 18) AND (p.name = 'O''Brien'))")

	sql, params, err := expr.RenderExpr(expr.DefaultDialect, e)
	c.Assert(err, IsNil)
	c.Check(sql, Equals, "((`p`.`age` > ?) AND (`p`.`name` = ?))")
	c.Check(expr.Args(params), DeepEquals, []any{int64(18), "O'Brien"})
}

func (s *ExprSuite) TestQuotedIdentifiers(c *C) {
	q := &expr.SelectQuery{
		Projection: []expr.Expr{col("p", "we`ird"), col("p", `sa"id`)},
		From:       expr.TableRef{Table: "odd`table", Alias: "p"},
	}
	sql, _, err := expr.Render(expr.DialectMySQL, q)
	c.Assert(err, IsNil)
	c.Check(sql, Equals, "SELECT `p`.`we``ird`, `p`.`sa\"id` FROM `odd``table` AS `p`")

	sql, _, err = expr.Render(expr.DialectPostgres, q)
	c.Assert(err, IsNil)
	c.Check(sql, Equals, `SELECT "p"."we`+"`"+`ird", "p"."sa""id" FROM "odd`+"`"+`table" AS "p"`)
}
