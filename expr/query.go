// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package expr

import (
	"strconv"
	"strings"
)

// Statement is a query state that can be rendered to SQL.
type Statement interface {
	// String returns a debug rendering of the statement with literals
	// inlined.
	String() string

	// statement is a marker method.
	statement()
}

// TableRef is a table bound to an alias.
type TableRef struct {
	Table string
	Alias string
}

func (t TableRef) String() string {
	if t.Alias == "" {
		return t.Table
	}
	return t.Table + " AS " + t.Alias
}

// JoinKind is the kind of a join.
type JoinKind int

const (
	InnerJoin JoinKind = iota + 1
	LeftJoin
	CrossJoin
)

func (k JoinKind) String() string {
	switch k {
	case InnerJoin:
		return "INNER JOIN"
	case LeftJoin:
		return "LEFT JOIN"
	case CrossJoin:
		return "CROSS JOIN"
	}
	return "JOIN"
}

// Join is a joined table. On is ignored for cross joins.
type Join struct {
	Kind  JoinKind
	Table TableRef
	On    Expr
}

// Order is the direction of an ORDER BY item.
type Order int

const (
	Asc Order = iota + 1
	Desc
)

func (o Order) String() string {
	if o == Desc {
		return "DESC"
	}
	return "ASC"
}

// OrderByItem is one entry of an ORDER BY clause.
type OrderByItem struct {
	Expr  Expr
	Order Order
}

// SelectQuery is the state of a SELECT statement.
type SelectQuery struct {
	Distinct   bool
	Projection []Expr
	From       TableRef
	Joins      []Join
	Where      []Expr
	GroupBy    []Expr
	Having     []Expr
	OrderBy    []OrderByItem
	Limit      *uint64
	Offset     *uint64
}

// Aliases returns the aliases bound by the FROM clause and joins of q, in
// order.
func (q *SelectQuery) Aliases() []string {
	aliases := []string{q.From.Alias}
	for _, j := range q.Joins {
		aliases = append(aliases, j.Table.Alias)
	}
	return aliases
}

// Clone returns a deep copy of q.
func (q *SelectQuery) Clone() *SelectQuery {
	c := rewriteQuery(q, func(e Expr) Expr { return e }, true)
	if c == nil {
		return nil
	}
	if q.Limit != nil {
		limit := *q.Limit
		c.Limit = &limit
	}
	if q.Offset != nil {
		offset := *q.Offset
		c.Offset = &offset
	}
	return c
}

func (q *SelectQuery) String() string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if q.Distinct {
		sb.WriteString("DISTINCT ")
	}
	writeExprList(&sb, q.Projection)
	sb.WriteString(" FROM ")
	sb.WriteString(q.From.String())
	for _, j := range q.Joins {
		sb.WriteString(" ")
		sb.WriteString(j.Kind.String())
		sb.WriteString(" ")
		sb.WriteString(j.Table.String())
		if j.Kind != CrossJoin && j.On != nil {
			sb.WriteString(" ON ")
			sb.WriteString(j.On.String())
		}
	}
	if len(q.Where) > 0 {
		sb.WriteString(" WHERE ")
		writeConjunction(&sb, q.Where)
	}
	if len(q.GroupBy) > 0 {
		sb.WriteString(" GROUP BY ")
		writeExprList(&sb, q.GroupBy)
	}
	if len(q.Having) > 0 {
		sb.WriteString(" HAVING ")
		writeConjunction(&sb, q.Having)
	}
	writeOrderBy(&sb, q.OrderBy)
	writeLimitOffset(&sb, q.Limit, q.Offset)
	return sb.String()
}

// Assignment is one SET entry of an UPDATE statement.
type Assignment struct {
	Column string
	Value  Expr
}

// UpdateQuery is the state of an UPDATE statement.
type UpdateQuery struct {
	Table   TableRef
	Set     []Assignment
	Where   []Expr
	OrderBy []OrderByItem
	Limit   *uint64
}

func (q *UpdateQuery) String() string {
	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(q.Table.String())
	sb.WriteString(" SET ")
	for i, a := range q.Set {
		if i != 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.Column)
		sb.WriteString(" = ")
		sb.WriteString(a.Value.String())
	}
	if len(q.Where) > 0 {
		sb.WriteString(" WHERE ")
		writeConjunction(&sb, q.Where)
	}
	writeOrderBy(&sb, q.OrderBy)
	writeLimitOffset(&sb, q.Limit, nil)
	return sb.String()
}

// DeleteQuery is the state of a DELETE statement.
type DeleteQuery struct {
	Table   TableRef
	Where   []Expr
	OrderBy []OrderByItem
	Limit   *uint64
}

func (q *DeleteQuery) String() string {
	var sb strings.Builder
	sb.WriteString("DELETE FROM ")
	sb.WriteString(q.Table.String())
	if len(q.Where) > 0 {
		sb.WriteString(" WHERE ")
		writeConjunction(&sb, q.Where)
	}
	writeOrderBy(&sb, q.OrderBy)
	writeLimitOffset(&sb, q.Limit, nil)
	return sb.String()
}

// InsertQuery is the state of an INSERT statement. Every row has one value
// per column.
type InsertQuery struct {
	Table   string
	Columns []string
	Values  [][]Expr
}

func (q *InsertQuery) String() string {
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(q.Table)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(q.Columns, ", "))
	sb.WriteString(") VALUES ")
	for i, row := range q.Values {
		if i != 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		writeExprList(&sb, row)
		sb.WriteString(")")
	}
	return sb.String()
}

// Marker functions for Statement.
func (*SelectQuery) statement() {}
func (*UpdateQuery) statement() {}
func (*DeleteQuery) statement() {}
func (*InsertQuery) statement() {}

func writeExprList(sb *strings.Builder, exprs []Expr) {
	for i, e := range exprs {
		if i != 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(e.String())
	}
}

func writeConjunction(sb *strings.Builder, exprs []Expr) {
	for i, e := range exprs {
		if i != 0 {
			sb.WriteString(" AND ")
		}
		sb.WriteString(e.String())
	}
}

func writeOrderBy(sb *strings.Builder, items []OrderByItem) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(" ORDER BY ")
	for i, o := range items {
		if i != 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(o.Expr.String())
		sb.WriteString(" ")
		sb.WriteString(o.Order.String())
	}
}

func writeLimitOffset(sb *strings.Builder, limit, offset *uint64) {
	if limit != nil {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.FormatUint(*limit, 10))
	}
	if offset != nil {
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.FormatUint(*offset, 10))
	}
}
