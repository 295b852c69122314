// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package query

import (
	"github.com/pkg/errors"

	"github.com/dark-flames/yukino-dev-sub000/expr"
	"github.com/dark-flames/yukino-dev-sub000/value"
	"github.com/dark-flames/yukino-dev-sub000/view"
)

// ErrUnknownAlias is returned when a query references a table alias that
// neither the query nor an enclosing query binds. It usually means that a
// closure captured the row of an unrelated query.
var ErrUnknownAlias = errors.New("unknown alias")

// Selection is a select query whose rows decode to R.
type Selection[R any] interface {
	view.Subquery[R]
	// Build returns the query state ready to be rendered.
	Build() (*expr.SelectQuery, error)
}

// stage is the state shared by every select builder. A stage is copied by
// each builder method; the alias generator is shared by all the stages of
// one root query.
type stage struct {
	gen   *AliasGenerator
	state *expr.SelectQuery
	err   error
}

func (s stage) clone() stage {
	return stage{gen: s.gen, state: s.state.Clone(), err: s.err}
}

func (s *stage) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

// embed prepares exprs produced by a closure for inclusion in the query.
// Queries nested in the expressions are given fresh aliases issued by the
// generator of s so that no alias is bound twice in the root query.
func (s *stage) embed(exprs []expr.Expr) []expr.Expr {
	out := make([]expr.Expr, len(exprs))
	for i, e := range exprs {
		out[i] = expr.RewriteShallow(e, func(e expr.Expr) expr.Expr {
			switch e := e.(type) {
			case *expr.SubqueryPredicate:
				e.Query, _ = Substitute(s.gen, e.Query)
			case *expr.Subquery:
				e.Query, _ = Substitute(s.gen, e.Query)
			}
			return e
		})
	}
	return out
}

// predicate checks a boolean view built by a filter closure and returns its
// single expression.
func (s *stage) predicate(v view.ExprView[bool]) (expr.Expr, bool) {
	if err := v.Err(); err != nil {
		s.fail(err)
		return nil, false
	}
	exprs := v.Collect()
	if len(exprs) != 1 {
		s.fail(errors.Errorf("predicate has %d columns, expected 1", len(exprs)))
		return nil, false
	}
	return s.embed(exprs)[0], true
}

// sort appends items to the ORDER BY clause. When the rows are groups,
// aggregates is set and every item must be built from the key, aggregates
// or constants.
func (s *stage) sort(items []view.SortItem, aggregates bool) {
	for _, item := range items {
		if err := item.Err(); err != nil {
			s.fail(err)
			return
		}
		if aggregates && !item.Tags().Has(view.Aggregate) && !item.Tags().Has(view.Constant) {
			s.fail(errors.New("cannot sort groups by a column that is neither aggregated nor part of the key"))
			return
		}
		for _, o := range item.Items() {
			if !aggregates && expr.ContainsAggregate(o.Expr) {
				s.fail(errors.New("cannot sort rows by an aggregate value outside of a group"))
				return
			}
			o.Expr = s.embed([]expr.Expr{o.Expr})[0]
			s.state.OrderBy = append(s.state.OrderBy, o)
		}
	}
}

func (s stage) selectQuery() (*expr.SelectQuery, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.state.Clone(), nil
}

// build returns the query state after checking that every alias it
// references is bound.
func (s stage) build() (*expr.SelectQuery, error) {
	q, err := s.selectQuery()
	if err != nil {
		return nil, errors.Wrap(err, "cannot build query")
	}
	if _, free := Substitute(NewAliasGenerator(), q); len(free) > 0 {
		return nil, errors.Wrapf(ErrUnknownAlias, "cannot build query: alias %q is not bound", free[0])
	}
	return q, nil
}

func (s stage) singleRow() bool {
	return s.state.Limit != nil && *s.state.Limit <= 1
}

func limit(n uint64) *uint64 {
	return &n
}

// rowConverter is the decoding half of an entity, kept by builders whose row
// is not a plain view.
type rowConverter[E, V any] struct {
	collect func(V) []expr.Expr
	conv    value.Converter[E]
}
