// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package expr

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/dark-flames/yukino-dev-sub000/value"
)

// Dialect holds the parts of the generated SQL that differ between
// databases.
type Dialect struct {
	Name string
	// OpenQuote and CloseQuote surround every identifier segment.
	OpenQuote, CloseQuote string
	// Placeholder returns the placeholder token of the n-th parameter,
	// starting at 1.
	Placeholder func(n int) string
	// NoLimit is written as the LIMIT when only an OFFSET is requested.
	NoLimit string
	// GroupConcat names the string aggregation function. If SeparatorArg is
	// set the separator is passed as a second argument instead of with the
	// SEPARATOR keyword.
	GroupConcat  string
	SeparatorArg bool
}

func questionMark(int) string { return "?" }

var (
	// DialectMySQL quotes identifiers with backticks and uses ? placeholders.
	DialectMySQL = Dialect{
		Name:        "mysql",
		OpenQuote:   "`",
		CloseQuote:  "`",
		Placeholder: questionMark,
		NoLimit:     "18446744073709551615",
		GroupConcat: "GROUP_CONCAT",
	}
	// DialectSQLite accepts the MySQL quoting and placeholders.
	DialectSQLite = Dialect{
		Name:         "sqlite",
		OpenQuote:    "`",
		CloseQuote:   "`",
		Placeholder:  questionMark,
		NoLimit:      "-1",
		GroupConcat:  "GROUP_CONCAT",
		SeparatorArg: true,
	}
	// DialectPostgres quotes identifiers with double quotes and uses
	// numbered placeholders.
	DialectPostgres = Dialect{
		Name:         "postgres",
		OpenQuote:    `"`,
		CloseQuote:   `"`,
		Placeholder:  func(n int) string { return "$" + strconv.Itoa(n) },
		NoLimit:      "ALL",
		GroupConcat:  "STRING_AGG",
		SeparatorArg: true,
	}
)

// DefaultDialect is used when no dialect is specified.
var DefaultDialect = DialectMySQL

// DialectByName returns the dialect with the given name.
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "", "mysql":
		return DialectMySQL, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	}
	return Dialect{}, errors.Errorf("unknown dialect %q", name)
}

// Render renders stmt to parameterized SQL. Every literal is replaced by a
// placeholder and its value is appended to the returned parameters in
// left-to-right order. Binary operations are always parenthesized.
func Render(d Dialect, stmt Statement) (sql string, params []value.DatabaseValue, err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "cannot render statement")
		}
	}()
	if d.Placeholder == nil {
		d = DefaultDialect
	}
	r := &renderer{dialect: d}
	switch stmt := stmt.(type) {
	case *SelectQuery:
		err = r.writeSelect(stmt)
	case *InsertQuery:
		err = r.writeInsert(stmt)
	case *UpdateQuery:
		err = r.writeUpdate(stmt)
	case *DeleteQuery:
		err = r.writeDelete(stmt)
	default:
		err = errors.Errorf("unsupported statement %T", stmt)
	}
	if err != nil {
		return "", nil, err
	}
	return r.buf.String(), r.params, nil
}

// RenderExpr renders a single expression. It is used to show the SQL of
// a predicate on its own.
func RenderExpr(d Dialect, e Expr) (string, []value.DatabaseValue, error) {
	if d.Placeholder == nil {
		d = DefaultDialect
	}
	r := &renderer{dialect: d}
	if err := r.writeExpr(e); err != nil {
		return "", nil, err
	}
	return r.buf.String(), r.params, nil
}

// Args converts rendered parameters to database/sql arguments.
func Args(params []value.DatabaseValue) []any {
	args := make([]any, len(params))
	for i, p := range params {
		args[i] = p.Driver()
	}
	return args
}

// renderer accumulates the generated SQL and its parameters.
type renderer struct {
	dialect Dialect
	buf     bytes.Buffer
	params  []value.DatabaseValue
}

func (r *renderer) write(s string) {
	r.buf.WriteString(s)
}

// writeIdent writes a dotted identifier with every segment quoted.
// Segments are never split on dots.
func (r *renderer) writeIdent(segments ...string) {
	first := true
	for _, s := range segments {
		if s == "" {
			continue
		}
		if !first {
			r.buf.WriteString(".")
		}
		first = false
		r.buf.WriteString(r.dialect.OpenQuote)
		// A quote inside a segment is doubled.
		r.buf.WriteString(strings.ReplaceAll(s, r.dialect.CloseQuote, r.dialect.CloseQuote+r.dialect.CloseQuote))
		r.buf.WriteString(r.dialect.CloseQuote)
	}
}

func (r *renderer) writeParam(v value.DatabaseValue) {
	r.params = append(r.params, v)
	r.buf.WriteString(r.dialect.Placeholder(len(r.params)))
}

// writeCommaSeparatedList writes out the list using writer for each
// element.
func (r *renderer) writeCommaSeparatedList(n int, writer func(i int) error) error {
	for i := 0; i < n; i++ {
		if i != 0 {
			r.buf.WriteString(", ")
		}
		if err := writer(i); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) writeExprs(exprs []Expr) error {
	return r.writeCommaSeparatedList(len(exprs), func(i int) error {
		return r.writeExpr(exprs[i])
	})
}

func (r *renderer) writeConjunction(exprs []Expr) error {
	for i, e := range exprs {
		if i != 0 {
			r.write(" AND ")
		}
		if err := r.writeExpr(e); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) writeTable(t TableRef) {
	r.writeIdent(t.Table)
	if t.Alias != "" {
		r.write(" AS ")
		r.writeIdent(t.Alias)
	}
}

func (r *renderer) writeSelect(q *SelectQuery) error {
	if len(q.Projection) == 0 {
		return errors.New("empty projection")
	}
	if q.From.Table == "" {
		return errors.New("missing table")
	}
	r.write("SELECT ")
	if q.Distinct {
		r.write("DISTINCT ")
	}
	if err := r.writeExprs(q.Projection); err != nil {
		return err
	}
	r.write(" FROM ")
	r.writeTable(q.From)
	for _, j := range q.Joins {
		r.write(" " + j.Kind.String() + " ")
		r.writeTable(j.Table)
		if j.Kind == CrossJoin {
			continue
		}
		if j.On == nil {
			return errors.Errorf("join of %s without condition", j.Table.Table)
		}
		r.write(" ON ")
		if err := r.writeExpr(j.On); err != nil {
			return err
		}
	}
	if len(q.Where) > 0 {
		r.write(" WHERE ")
		if err := r.writeConjunction(q.Where); err != nil {
			return err
		}
	}
	if len(q.GroupBy) > 0 {
		r.write(" GROUP BY ")
		if err := r.writeExprs(q.GroupBy); err != nil {
			return err
		}
	}
	if len(q.Having) > 0 {
		r.write(" HAVING ")
		if err := r.writeConjunction(q.Having); err != nil {
			return err
		}
	}
	if err := r.writeOrderBy(q.OrderBy); err != nil {
		return err
	}
	r.writeLimitOffset(q.Limit, q.Offset)
	return nil
}

func (r *renderer) writeOrderBy(items []OrderByItem) error {
	if len(items) == 0 {
		return nil
	}
	r.write(" ORDER BY ")
	return r.writeCommaSeparatedList(len(items), func(i int) error {
		if err := r.writeExpr(items[i].Expr); err != nil {
			return err
		}
		r.write(" " + items[i].Order.String())
		return nil
	})
}

func (r *renderer) writeLimitOffset(limit, offset *uint64) {
	switch {
	case limit != nil:
		r.write(" LIMIT " + strconv.FormatUint(*limit, 10))
	case offset != nil:
		r.write(" LIMIT " + r.dialect.NoLimit)
	}
	if offset != nil {
		r.write(" OFFSET " + strconv.FormatUint(*offset, 10))
	}
}

func (r *renderer) writeInsert(q *InsertQuery) error {
	if len(q.Columns) == 0 {
		return errors.New("insert without columns")
	}
	if len(q.Values) == 0 {
		return errors.New("insert without rows")
	}
	r.write("INSERT INTO ")
	r.writeIdent(q.Table)
	r.write(" (")
	r.writeCommaSeparatedList(len(q.Columns), func(i int) error {
		r.writeIdent(q.Columns[i])
		return nil
	})
	r.write(") VALUES ")
	for i, row := range q.Values {
		if len(row) != len(q.Columns) {
			return errors.Errorf("row %d has %d values, expected %d", i, len(row), len(q.Columns))
		}
		if i != 0 {
			r.write(", ")
		}
		r.write("(")
		if err := r.writeExprs(row); err != nil {
			return err
		}
		r.write(")")
	}
	return nil
}

func (r *renderer) writeUpdate(q *UpdateQuery) error {
	if len(q.Set) == 0 {
		return errors.New("update without assignments")
	}
	r.write("UPDATE ")
	r.writeTable(q.Table)
	r.write(" SET ")
	err := r.writeCommaSeparatedList(len(q.Set), func(i int) error {
		r.writeIdent(q.Set[i].Column)
		r.write(" = ")
		return r.writeExpr(q.Set[i].Value)
	})
	if err != nil {
		return err
	}
	if len(q.Where) > 0 {
		r.write(" WHERE ")
		if err := r.writeConjunction(q.Where); err != nil {
			return err
		}
	}
	if err := r.writeOrderBy(q.OrderBy); err != nil {
		return err
	}
	r.writeLimitOffset(q.Limit, nil)
	return nil
}

func (r *renderer) writeDelete(q *DeleteQuery) error {
	r.write("DELETE FROM ")
	r.writeTable(q.Table)
	if len(q.Where) > 0 {
		r.write(" WHERE ")
		if err := r.writeConjunction(q.Where); err != nil {
			return err
		}
	}
	if err := r.writeOrderBy(q.OrderBy); err != nil {
		return err
	}
	r.writeLimitOffset(q.Limit, nil)
	return nil
}

func (r *renderer) writeSubquery(q *SelectQuery) error {
	if q == nil {
		return errors.New("missing subquery")
	}
	r.write("(")
	if err := r.writeSelect(q); err != nil {
		return err
	}
	r.write(")")
	return nil
}

func (r *renderer) writeExpr(e Expr) error {
	switch e := e.(type) {
	case *Ident:
		r.writeIdent(e.Alias, e.Column)
	case *Lit:
		if e.Value == nil {
			return errors.New("literal without value")
		}
		r.writeParam(e.Value)
	case *FunctionCall:
		return r.writeFunctionCall(e)
	case *Binary:
		return r.writeBinary(e)
	case *Unary:
		return r.writeUnary(e)
	case *InList:
		return r.writeInList(e)
	case *SubqueryPredicate:
		return r.writeSubqueryPredicate(e)
	case *Subquery:
		return r.writeSubquery(e.Query)
	case nil:
		return errors.New("missing expression")
	default:
		return errors.Errorf("unsupported expression %T", e)
	}
	return nil
}

func (r *renderer) writeFunctionCall(e *FunctionCall) error {
	name := e.Func.String()
	if e.Func == GroupConcat {
		name = r.dialect.GroupConcat
	}
	if name == "" {
		return errors.Errorf("unknown function %d", e.Func)
	}
	r.write(name + "(")
	if e.Distinct {
		r.write("DISTINCT ")
	}
	if len(e.Args) == 0 {
		r.write("*")
	}
	if err := r.writeExprs(e.Args); err != nil {
		return err
	}
	if e.Separator != nil {
		if r.dialect.SeparatorArg {
			r.write(", ")
		} else {
			r.write(" SEPARATOR ")
		}
		if err := r.writeExpr(e.Separator); err != nil {
			return err
		}
	}
	r.write(")")
	return nil
}

func (r *renderer) writeBinary(e *Binary) error {
	token, ok := binaryTokens[e.Op]
	if !ok {
		return errors.Errorf("unknown binary operator %d", e.Op)
	}
	r.write("(")
	if err := r.writeExpr(e.Left); err != nil {
		return err
	}
	r.write(" " + token + " ")
	if err := r.writeExpr(e.Right); err != nil {
		return err
	}
	r.write(")")
	return nil
}

func (r *renderer) writeUnary(e *Unary) error {
	var prefix, suffix string
	switch e.Op {
	case OpNot:
		prefix = "NOT "
	case OpBitInverse:
		prefix = "~"
	case OpNeg:
		prefix = "-"
	case OpIsNull:
		suffix = " IS NULL"
	case OpIsNotNull:
		suffix = " IS NOT NULL"
	default:
		return errors.Errorf("unknown unary operator %d", e.Op)
	}
	r.write("(" + prefix)
	if err := r.writeExpr(e.Expr); err != nil {
		return err
	}
	r.write(suffix + ")")
	return nil
}

func (r *renderer) writeInList(e *InList) error {
	if e.Not && len(e.List) == 0 {
		r.write("(1 = 1)")
		return nil
	}
	r.write("(")
	if err := r.writeExpr(e.Expr); err != nil {
		return err
	}
	if e.Not {
		r.write(" NOT")
	}
	r.write(" IN (")
	if len(e.List) == 0 {
		r.write("NULL")
	}
	if err := r.writeExprs(e.List); err != nil {
		return err
	}
	r.write("))")
	return nil
}

func (r *renderer) writeSubqueryPredicate(e *SubqueryPredicate) error {
	if e.Quantifier == Exists || e.Quantifier == NotExists {
		if e.Quantifier == Exists {
			r.write("(EXISTS ")
		} else {
			r.write("(NOT EXISTS ")
		}
		if err := r.writeSubquery(e.Query); err != nil {
			return err
		}
		r.write(")")
		return nil
	}
	var keyword string
	switch e.Quantifier {
	case In:
		keyword = "IN"
	case NotIn:
		keyword = "NOT IN"
	case Any, All:
		if !e.Op.Comparison() {
			return errors.Errorf("quantified comparison with non comparison operator %q", e.Op)
		}
		keyword = e.Op.String() + " ANY"
		if e.Quantifier == All {
			keyword = e.Op.String() + " ALL"
		}
	default:
		return errors.Errorf("unknown quantifier %d", e.Quantifier)
	}
	r.write("(")
	if err := r.writeExpr(e.Expr); err != nil {
		return err
	}
	r.write(" " + keyword + " ")
	if err := r.writeSubquery(e.Query); err != nil {
		return err
	}
	r.write(")")
	return nil
}
