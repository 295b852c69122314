// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package expr_test

import (
	. "gopkg.in/check.v1"

	"github.com/dark-flames/yukino-dev-sub000/expr"
	"github.com/dark-flames/yukino-dev-sub000/value"
)

func subquery() *expr.SelectQuery {
	return &expr.SelectQuery{
		Projection: []expr.Expr{col("h", "id")},
		From:       expr.TableRef{Table: "person", Alias: "h"},
		Where:      []expr.Expr{bin(expr.OpEq, col("h", "id"), col("c", "host_id"))},
	}
}

func (s *ExprSuite) TestCloneIsDeep(c *C) {
	orig := bin(expr.OpAnd,
		bin(expr.OpGt, col("c", "age"), lit(value.Integer(3))),
		&expr.SubqueryPredicate{Quantifier: expr.Exists, Query: subquery()})
	clone := expr.Clone(orig)
	c.Assert(clone.String(), Equals, orig.String())

	clone.(*expr.Binary).Left.(*expr.Binary).Left.(*expr.Ident).Alias = "x"
	clone.(*expr.Binary).Right.(*expr.SubqueryPredicate).Query.From.Alias = "y"
	c.Check(orig.String(), Equals,
		"((c.age > 3) AND (EXISTS (SELECT h.id FROM person AS h WHERE (h.id = c.host_id))))")
}

func (s *ExprSuite) TestRewriteAliases(c *C) {
	orig := &expr.InList{Expr: col("a", "id"), List: []expr.Expr{lit(value.BigInteger(1))}}
	rewritten := expr.Rewrite(orig, func(e expr.Expr) expr.Expr {
		if id, ok := e.(*expr.Ident); ok && id.Alias == "a" {
			id.Alias = "b"
		}
		return e
	})
	c.Check(rewritten.String(), Equals, "(b.id IN (1))")
	c.Check(orig.String(), Equals, "(a.id IN (1))")
}

func (s *ExprSuite) TestRewriteQueryDescends(c *C) {
	q := &expr.SelectQuery{
		Projection: []expr.Expr{col("c", "id")},
		From:       expr.TableRef{Table: "pet", Alias: "c"},
		Where:      []expr.Expr{&expr.SubqueryPredicate{Quantifier: expr.In, Expr: col("c", "host_id"), Query: subquery()}},
		OrderBy:    []expr.OrderByItem{{Expr: col("c", "id"), Order: expr.Asc}},
	}
	out := expr.RewriteQuery(q, func(e expr.Expr) expr.Expr {
		if id, ok := e.(*expr.Ident); ok && id.Alias == "c" {
			return expr.Column("z", id.Column)
		}
		return e
	})
	c.Check(out.String(), Equals,
		"SELECT z.id FROM pet AS c WHERE (z.host_id IN (SELECT h.id FROM person AS h WHERE (h.id = z.host_id))) ORDER BY z.id ASC")
	c.Check(q.String(), Equals,
		"SELECT c.id FROM pet AS c WHERE (c.host_id IN (SELECT h.id FROM person AS h WHERE (h.id = c.host_id))) ORDER BY c.id ASC")
}

func (s *ExprSuite) TestIdents(c *C) {
	e := bin(expr.OpAnd,
		bin(expr.OpGt, col("c", "age"), lit(value.Integer(3))),
		&expr.Subquery{Query: subquery()})
	var names []string
	for _, id := range expr.Idents(e) {
		names = append(names, id.String())
	}
	c.Check(names, DeepEquals, []string{"c.age", "h.id", "h.id", "c.host_id"})
}

func (s *ExprSuite) TestContainsAggregate(c *C) {
	count := &expr.FunctionCall{Func: expr.Count, Args: []expr.Expr{col("p", "id")}}
	c.Check(expr.ContainsAggregate(count), Equals, true)
	c.Check(expr.ContainsAggregate(bin(expr.OpAdd, count, lit(value.Integer(1)))), Equals, true)
	c.Check(expr.ContainsAggregate(col("p", "id")), Equals, false)

	inner := subquery()
	inner.Projection = []expr.Expr{count}
	c.Check(expr.ContainsAggregate(&expr.Subquery{Query: inner}), Equals, false)
}

func (s *ExprSuite) TestAliases(c *C) {
	q := &expr.SelectQuery{
		From:  expr.TableRef{Table: "pet", Alias: "c"},
		Joins: []expr.Join{{Kind: expr.InnerJoin, Table: expr.TableRef{Table: "person", Alias: "h"}}},
	}
	c.Check(q.Aliases(), DeepEquals, []string{"c", "h"})
}

func (s *ExprSuite) TestFreeAliases(c *C) {
	c.Check(expr.FreeAliases(subquery()), DeepEquals, []string{"c"})

	outer := &expr.SelectQuery{
		Projection: []expr.Expr{col("c", "id")},
		From:       expr.TableRef{Table: "pet", Alias: "c"},
		Where:      []expr.Expr{&expr.SubqueryPredicate{Quantifier: expr.Exists, Query: subquery()}},
	}
	c.Check(expr.FreeAliases(outer), HasLen, 0)

	outer.Having = []expr.Expr{bin(expr.OpGt, &expr.Subquery{Query: subquery()}, col("x", "age"))}
	c.Check(expr.FreeAliases(outer), DeepEquals, []string{"x"})
}
