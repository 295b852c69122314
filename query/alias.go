// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package query

import (
	"math/rand"
	"sort"

	"github.com/dark-flames/yukino-dev-sub000/expr"
)

const (
	aliasLength  = 8
	aliasLetters = "abcdefghijklmnopqrstuvwxyz"
	aliasChars   = aliasLetters + "0123456789"
)

// AliasGenerator issues table aliases that are unique within one query.
// It is not safe for concurrent use; every root query owns its generator.
type AliasGenerator struct {
	rand *rand.Rand
	// aliases maps every issued alias to the table it is bound to.
	aliases map[string]string
}

// NewAliasGenerator returns an empty generator.
func NewAliasGenerator() *AliasGenerator {
	return &AliasGenerator{aliases: map[string]string{}}
}

// NewAliasGeneratorWithSource returns a generator drawing aliases from src.
func NewAliasGeneratorWithSource(src rand.Source) *AliasGenerator {
	return &AliasGenerator{rand: rand.New(src), aliases: map[string]string{}}
}

func (g *AliasGenerator) intn(n int) int {
	if g.rand == nil {
		return rand.Intn(n)
	}
	return g.rand.Intn(n)
}

// Generate returns a fresh alias bound to table. Aliases start with a letter
// and are retried until one that has not been issued by g is found.
func (g *AliasGenerator) Generate(table string) string {
	buf := make([]byte, aliasLength)
	for {
		buf[0] = aliasLetters[g.intn(len(aliasLetters))]
		for i := 1; i < aliasLength; i++ {
			buf[i] = aliasChars[g.intn(len(aliasChars))]
		}
		alias := string(buf)
		if _, ok := g.aliases[alias]; !ok {
			g.aliases[alias] = table
			return alias
		}
	}
}

// Table returns the table alias is bound to.
func (g *AliasGenerator) Table(alias string) (string, bool) {
	table, ok := g.aliases[alias]
	return table, ok
}

// Aliases returns every alias issued by g, sorted.
func (g *AliasGenerator) Aliases() []string {
	aliases := make([]string, 0, len(g.aliases))
	for alias := range g.aliases {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}

// Substitute returns a copy of q where every alias bound by q, and by the
// queries nested in it, is replaced by a fresh alias issued by gen. It also
// returns the free aliases of q: the aliases q references without binding
// them, which must be bound by an enclosing query.
func Substitute(gen *AliasGenerator, q *expr.SelectQuery) (*expr.SelectQuery, []string) {
	s := &substitution{gen: gen, free: map[string]bool{}}
	out := s.query(q, map[string]string{})
	free := make([]string, 0, len(s.free))
	for alias := range s.free {
		free = append(free, alias)
	}
	sort.Strings(free)
	return out, free
}

type substitution struct {
	gen  *AliasGenerator
	free map[string]bool
}

// query rewrites q in a scope extending outer with the aliases q binds.
func (s *substitution) query(q *expr.SelectQuery, outer map[string]string) *expr.SelectQuery {
	scope := make(map[string]string, len(outer)+1+len(q.Joins))
	for k, v := range outer {
		scope[k] = v
	}
	scope[q.From.Alias] = s.gen.Generate(q.From.Table)
	for _, j := range q.Joins {
		scope[j.Table.Alias] = s.gen.Generate(j.Table.Table)
	}
	out := expr.RewriteQueryShallow(q, func(e expr.Expr) expr.Expr {
		return s.expr(e, scope)
	})
	out.From.Alias = scope[q.From.Alias]
	for i := range out.Joins {
		out.Joins[i].Table.Alias = scope[q.Joins[i].Table.Alias]
	}
	return out
}

func (s *substitution) expr(e expr.Expr, scope map[string]string) expr.Expr {
	switch e := e.(type) {
	case *expr.Ident:
		if e.Alias == "" {
			break
		}
		if alias, ok := scope[e.Alias]; ok {
			e.Alias = alias
		} else {
			s.free[e.Alias] = true
		}
	case *expr.SubqueryPredicate:
		e.Query = s.query(e.Query, scope)
	case *expr.Subquery:
		e.Query = s.query(e.Query, scope)
	}
	return e
}

// freeAliases returns the aliases referenced by e, or by queries nested in
// it, that are not bound inside e.
func freeAliases(e expr.Expr) []string {
	s := &substitution{gen: NewAliasGenerator(), free: map[string]bool{}}
	expr.RewriteShallow(e, func(e expr.Expr) expr.Expr {
		return s.expr(e, map[string]string{})
	})
	free := make([]string, 0, len(s.free))
	for alias := range s.free {
		free = append(free, alias)
	}
	sort.Strings(free)
	return free
}
