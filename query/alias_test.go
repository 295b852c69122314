// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package query_test

import (
	"math/rand"
	"regexp"

	. "gopkg.in/check.v1"

	"github.com/dark-flames/yukino-dev-sub000/example"
	"github.com/dark-flames/yukino-dev-sub000/expr"
	"github.com/dark-flames/yukino-dev-sub000/query"
)

var validAlias = regexp.MustCompile("^[a-z][a-z0-9]{7}$")

func (s *QuerySuite) TestAliasGenerator(c *C) {
	gen := query.NewAliasGenerator()
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		alias := gen.Generate("person")
		c.Assert(validAlias.MatchString(alias), Equals, true, Commentf("alias %q", alias))
		c.Assert(seen[alias], Equals, false, Commentf("alias %q issued twice", alias))
		seen[alias] = true
	}
	c.Assert(gen.Aliases(), HasLen, 500)

	pet := gen.Generate("pet")
	table, ok := gen.Table(pet)
	c.Assert(ok, Equals, true)
	c.Assert(table, Equals, "pet")
	_, ok = gen.Table("missing0")
	c.Assert(ok, Equals, false)

	aliases := gen.Aliases()
	for i := 1; i < len(aliases); i++ {
		c.Assert(aliases[i-1] < aliases[i], Equals, true)
	}
}

func (s *QuerySuite) TestAliasGeneratorWithSource(c *C) {
	a := query.NewAliasGeneratorWithSource(rand.NewSource(42))
	b := query.NewAliasGeneratorWithSource(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		c.Assert(a.Generate("t"), Equals, b.Generate("t"))
	}
}

func (s *QuerySuite) TestSubstitute(c *C) {
	inner := &expr.SelectQuery{
		Projection: []expr.Expr{expr.Column("b", "id")},
		From:       expr.TableRef{Table: "pet", Alias: "b"},
		Where: []expr.Expr{&expr.Binary{
			Op:    expr.OpEq,
			Left:  expr.Column("b", "host_id"),
			Right: expr.Column("a", "id"),
		}},
	}
	q := &expr.SelectQuery{
		Projection: []expr.Expr{expr.Column("a", "id")},
		From:       expr.TableRef{Table: "person", Alias: "a"},
		Where: []expr.Expr{
			&expr.Binary{Op: expr.OpEq, Left: expr.Column("a", "level"), Right: expr.Column("outer", "level")},
			&expr.SubqueryPredicate{Quantifier: expr.Exists, Query: inner},
		},
	}

	gen := query.NewAliasGenerator()
	out, free := query.Substitute(gen, q)
	c.Assert(free, DeepEquals, []string{"outer"})

	a := out.From.Alias
	c.Assert(a, Not(Equals), "a")
	table, ok := gen.Table(a)
	c.Assert(ok, Equals, true)
	c.Assert(table, Equals, "person")
	c.Assert(out.Projection[0], DeepEquals, expr.Column(a, "id"))

	eq := out.Where[0].(*expr.Binary)
	c.Assert(eq.Left, DeepEquals, expr.Column(a, "level"))
	c.Assert(eq.Right, DeepEquals, expr.Column("outer", "level"))

	sub := out.Where[1].(*expr.SubqueryPredicate).Query
	b := sub.From.Alias
	c.Assert(b, Not(Equals), a)
	table, _ = gen.Table(b)
	c.Assert(table, Equals, "pet")
	corr := sub.Where[0].(*expr.Binary)
	c.Assert(corr.Left, DeepEquals, expr.Column(b, "host_id"))
	c.Assert(corr.Right, DeepEquals, expr.Column(a, "id"))

	// The input is left untouched.
	c.Assert(q.From.Alias, Equals, "a")
	c.Assert(inner.From.Alias, Equals, "b")
	c.Assert(inner.Where[0].(*expr.Binary).Right, DeepEquals, expr.Column("a", "id"))

	// Substituting the nested query on its own reports the correlation.
	_, free = query.Substitute(query.NewAliasGenerator(), inner)
	c.Assert(free, DeepEquals, []string{"a"})
}

func (s *QuerySuite) TestGroupByParent(c *C) {
	people := example.People[:3]
	pets := []Pet{
		{ID: 10, Name: "a", HostID: 2},
		{ID: 11, Name: "b", HostID: 1},
		{ID: 12, Name: "c", HostID: 2},
		{ID: 13, Name: "orphan", HostID: 9},
	}
	groups := example.PetHost.Group(people, pets)
	c.Assert(groups, DeepEquals, []query.Group[Person, Pet]{
		{Parent: people[0], Children: []Pet{pets[1]}},
		{Parent: people[1], Children: []Pet{pets[0], pets[2]}},
		{Parent: people[2]},
	})

	c.Assert(query.GroupByParent([]Person(nil), pets, example.Persons.PrimaryKeyOf, func(p Pet) int64 { return p.HostID }), HasLen, 0)
}
