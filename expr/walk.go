// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package expr

import "sort"

// Clone returns a deep copy of e. Nested subqueries are cloned as well.
func Clone(e Expr) Expr {
	return Rewrite(e, func(e Expr) Expr { return e })
}

// CloneAll clones every expression in exprs.
func CloneAll(exprs []Expr) []Expr {
	if exprs == nil {
		return nil
	}
	out := make([]Expr, len(exprs))
	for i, e := range exprs {
		out[i] = Clone(e)
	}
	return out
}

// Rewrite returns a copy of e where every node has been passed through f,
// children first. The input tree is not modified and f always receives a
// fresh copy of the node, which it may modify. Queries nested in subquery
// nodes are copied and rewritten with the same function.
func Rewrite(e Expr, f func(Expr) Expr) Expr {
	return rewrite(e, f, true)
}

// RewriteShallow is like Rewrite except that it does not descend into
// nested queries. Subquery nodes are passed to f with a copy of their query,
// so that f can rewrite it in its own scope.
func RewriteShallow(e Expr, f func(Expr) Expr) Expr {
	return rewrite(e, f, false)
}

func rewrite(e Expr, f func(Expr) Expr, deep bool) Expr {
	if e == nil {
		return nil
	}
	sub := func(q *SelectQuery) *SelectQuery {
		if deep {
			return rewriteQuery(q, f, true)
		}
		return q.Clone()
	}
	var out Expr
	switch e := e.(type) {
	case *Ident:
		c := *e
		out = &c
	case *Lit:
		c := *e
		out = &c
	case *FunctionCall:
		c := &FunctionCall{Func: e.Func, Distinct: e.Distinct, Args: rewriteAll(e.Args, f, deep)}
		if e.Separator != nil {
			c.Separator = rewrite(e.Separator, f, deep).(*Lit)
		}
		out = c
	case *Binary:
		out = &Binary{Op: e.Op, Left: rewrite(e.Left, f, deep), Right: rewrite(e.Right, f, deep)}
	case *Unary:
		out = &Unary{Op: e.Op, Expr: rewrite(e.Expr, f, deep)}
	case *InList:
		out = &InList{Expr: rewrite(e.Expr, f, deep), List: rewriteAll(e.List, f, deep), Not: e.Not}
	case *SubqueryPredicate:
		out = &SubqueryPredicate{
			Quantifier: e.Quantifier,
			Expr:       rewrite(e.Expr, f, deep),
			Op:         e.Op,
			Query:      sub(e.Query),
		}
	case *Subquery:
		out = &Subquery{Query: sub(e.Query)}
	default:
		out = e
	}
	return f(out)
}

// RewriteQuery returns a copy of q with every expression it contains
// rewritten by f. Aliases of the FROM clause and joins are left unchanged.
func RewriteQuery(q *SelectQuery, f func(Expr) Expr) *SelectQuery {
	return rewriteQuery(q, f, true)
}

// RewriteQueryShallow rewrites the expressions of q with RewriteShallow.
func RewriteQueryShallow(q *SelectQuery, f func(Expr) Expr) *SelectQuery {
	return rewriteQuery(q, f, false)
}

func rewriteQuery(q *SelectQuery, f func(Expr) Expr, deep bool) *SelectQuery {
	if q == nil {
		return nil
	}
	c := &SelectQuery{
		Distinct:   q.Distinct,
		Projection: rewriteAll(q.Projection, f, deep),
		From:       q.From,
		Where:      rewriteAll(q.Where, f, deep),
		GroupBy:    rewriteAll(q.GroupBy, f, deep),
		Having:     rewriteAll(q.Having, f, deep),
		Limit:      q.Limit,
		Offset:     q.Offset,
	}
	for _, j := range q.Joins {
		c.Joins = append(c.Joins, Join{Kind: j.Kind, Table: j.Table, On: rewrite(j.On, f, deep)})
	}
	for _, o := range q.OrderBy {
		c.OrderBy = append(c.OrderBy, OrderByItem{Expr: rewrite(o.Expr, f, deep), Order: o.Order})
	}
	return c
}

func rewriteAll(exprs []Expr, f func(Expr) Expr, deep bool) []Expr {
	if exprs == nil {
		return nil
	}
	out := make([]Expr, len(exprs))
	for i, e := range exprs {
		out[i] = rewrite(e, f, deep)
	}
	return out
}

// Walk calls f for every node of e in pre-order. If f returns false the
// children of that node are skipped. Walk descends into nested subqueries.
func Walk(e Expr, f func(Expr) bool) {
	if e == nil || !f(e) {
		return
	}
	switch e := e.(type) {
	case *FunctionCall:
		walkAll(e.Args, f)
		if e.Separator != nil {
			Walk(e.Separator, f)
		}
	case *Binary:
		Walk(e.Left, f)
		Walk(e.Right, f)
	case *Unary:
		Walk(e.Expr, f)
	case *InList:
		Walk(e.Expr, f)
		walkAll(e.List, f)
	case *SubqueryPredicate:
		Walk(e.Expr, f)
		WalkQuery(e.Query, f)
	case *Subquery:
		WalkQuery(e.Query, f)
	}
}

// WalkQuery calls Walk on every expression contained in q.
func WalkQuery(q *SelectQuery, f func(Expr) bool) {
	if q == nil {
		return
	}
	walkAll(q.Projection, f)
	for _, j := range q.Joins {
		Walk(j.On, f)
	}
	walkAll(q.Where, f)
	walkAll(q.GroupBy, f)
	walkAll(q.Having, f)
	for _, o := range q.OrderBy {
		Walk(o.Expr, f)
	}
}

func walkAll(exprs []Expr, f func(Expr) bool) {
	for _, e := range exprs {
		Walk(e, f)
	}
}

// Idents returns every identifier in e, including those in nested
// subqueries, in traversal order.
func Idents(e Expr) []*Ident {
	var idents []*Ident
	Walk(e, func(e Expr) bool {
		if id, ok := e.(*Ident); ok {
			idents = append(idents, id)
		}
		return true
	})
	return idents
}

// ContainsAggregate reports whether e contains an aggregate function call
// outside of any nested subquery.
func ContainsAggregate(e Expr) bool {
	found := false
	Walk(e, func(e Expr) bool {
		switch e := e.(type) {
		case *FunctionCall:
			found = true
			return false
		case *SubqueryPredicate:
			found = found || ContainsAggregate(e.Expr)
			return false
		case *Subquery:
			return false
		}
		return !found
	})
	return found
}

// FreeAliases returns the aliases referenced by q, or by the queries nested
// in it, that no query in q binds. A query with free aliases is correlated
// with an enclosing query.
func FreeAliases(q *SelectQuery) []string {
	free := map[string]bool{}
	collectFree(q, map[string]bool{}, free)
	out := make([]string, 0, len(free))
	for alias := range free {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

func collectFree(q *SelectQuery, outer map[string]bool, free map[string]bool) {
	if q == nil {
		return
	}
	scope := make(map[string]bool, len(outer)+1+len(q.Joins))
	for alias := range outer {
		scope[alias] = true
	}
	for _, alias := range q.Aliases() {
		scope[alias] = true
	}
	var visit func(Expr) bool
	visit = func(e Expr) bool {
		switch e := e.(type) {
		case *Ident:
			if e.Alias != "" && !scope[e.Alias] {
				free[e.Alias] = true
			}
		case *SubqueryPredicate:
			Walk(e.Expr, visit)
			collectFree(e.Query, scope, free)
			return false
		case *Subquery:
			collectFree(e.Query, scope, free)
			return false
		}
		return true
	}
	WalkQuery(q, visit)
}
