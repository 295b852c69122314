// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package yukino

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/dark-flames/yukino-dev-sub000/expr"
	"github.com/dark-flames/yukino-dev-sub000/query"
	"github.com/dark-flames/yukino-dev-sub000/value"
)

// prepare renders stmt in the dialect of ex and prepares it on ex.
func prepare(ctx context.Context, ex Executor, stmt expr.Statement) (*sql.Stmt, []any, error) {
	o := optionsOf(ex)
	sqlText, params, err := expr.Render(o.dialect, stmt)
	if err != nil {
		return nil, nil, err
	}
	args := expr.Args(params)
	o.logger.DebugContext(ctx, "executing statement", "sql", sqlText, "params", args)
	sqlstmt, err := ex.PrepareContext(ctx, sqlText)
	if err != nil {
		return nil, nil, errors.Wrap(err, "cannot prepare statement")
	}
	return sqlstmt, args, nil
}

// Iterator is used to iterate over the rows returned by a query. It is not
// safe for concurrent use.
type Iterator[R any] struct {
	conv    value.Converter[R]
	stmt    *sql.Stmt
	rows    *sql.Rows
	dest    []any
	err     error
	started bool
}

// Iter runs q on ex and returns an [Iterator] over its rows.
// [Iterator.Close] must be run once iteration is finished.
func Iter[R any](ctx context.Context, ex Executor, q query.Selection[R]) *Iterator[R] {
	if ctx == nil {
		ctx = context.Background()
	}
	sel, err := q.Build()
	if err != nil {
		return &Iterator[R]{err: err}
	}
	conv := q.Converter()
	if conv == nil {
		return &Iterator[R]{err: errors.New("cannot run query: missing converter")}
	}
	stmt, args, err := prepare(ctx, ex, sel)
	if err != nil {
		return &Iterator[R]{err: err}
	}
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		stmt.Close()
		return &Iterator[R]{err: err}
	}
	iter := &Iterator[R]{conv: conv, stmt: stmt, rows: rows}
	cols, err := rows.Columns()
	if err == nil && len(cols) != conv.Width() {
		err = errors.Errorf("query returns %d columns, expected %d", len(cols), conv.Width())
	}
	if err != nil {
		iter.err = err
		iter.release()
		return iter
	}
	iter.dest = make([]any, conv.Width())
	return iter
}

// Next prepares the next row for [Iterator.Get]. It returns false when there
// are no more rows or an error occurred; the error is returned by
// [Iterator.Close].
func (iter *Iterator[R]) Next() bool {
	iter.started = true
	if iter.err != nil || iter.rows == nil {
		return false
	}
	return iter.rows.Next()
}

// Get decodes the row prepared by the previous [Iterator.Next] call. A row
// that cannot be decoded does not end the iteration.
func (iter *Iterator[R]) Get() (r R, err error) {
	if iter.err != nil {
		return r, iter.err
	}
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "cannot get result")
		}
	}()

	if !iter.started {
		return r, errors.New("cannot call Get before Next")
	}
	if iter.rows == nil {
		return r, errors.New("iteration ended")
	}

	raw := make([]any, len(iter.dest))
	for i := range iter.dest {
		iter.dest[i] = &raw[i]
	}
	if err := iter.rows.Scan(iter.dest...); err != nil {
		return r, err
	}
	values := make([]value.DatabaseValue, len(raw))
	for i, ty := range iter.conv.Types() {
		values[i], err = value.FromDriver(ty, raw[i])
		if err != nil {
			return r, errors.Wrapf(err, "column %d", i)
		}
	}
	return iter.conv.Deserialize(values)
}

// Close finishes the iteration and returns any errors encountered. Close can
// be called multiple times on the [Iterator] and the same error will be
// returned.
func (iter *Iterator[R]) Close() error {
	iter.started = true
	if iter.rows == nil {
		return iter.err
	}
	err := iter.release()
	if iter.err != nil {
		return iter.err
	}
	return err
}

// release closes the rows and the statement they were read from.
func (iter *Iterator[R]) release() error {
	err := iter.rows.Err()
	if cerr := iter.rows.Close(); err == nil {
		err = cerr
	}
	iter.rows = nil
	if cerr := iter.stmt.Close(); err == nil {
		err = cerr
	}
	iter.stmt = nil
	return err
}

// All runs q on ex and decodes every row.
func All[R any](ctx context.Context, ex Executor, q query.Selection[R]) ([]R, error) {
	iter := Iter(ctx, ex, q)
	var out []R
	for iter.Next() {
		r, err := iter.Get()
		if err != nil {
			iter.Close()
			return nil, err
		}
		out = append(out, r)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

// One runs q on ex and decodes its only row. It returns [ErrNoRows] if q
// returns no row and [ErrTooManyRows] if it returns more than one.
func One[R any](ctx context.Context, ex Executor, q query.Selection[R]) (r R, err error) {
	iter := Iter(ctx, ex, q)
	defer func() {
		if cerr := iter.Close(); err == nil {
			err = cerr
		}
	}()
	if !iter.Next() {
		if err := iter.Close(); err != nil {
			return r, err
		}
		return r, ErrNoRows
	}
	if r, err = iter.Get(); err != nil {
		return r, err
	}
	if iter.Next() {
		var zero R
		return zero, ErrTooManyRows
	}
	return r, nil
}

// Outcome holds metadata about an executed statement.
type Outcome struct {
	result sql.Result
}

// Result returns a [sql.Result] containing information about the statement
// execution. If no result is set then Result returns nil.
func (o *Outcome) Result() sql.Result {
	return o.result
}

// RowsAffected returns the number of rows changed by the statement.
func (o *Outcome) RowsAffected() (int64, error) {
	if o.result == nil {
		return 0, errors.New("no result")
	}
	return o.result.RowsAffected()
}

// Exec runs the statement built by m on ex.
func Exec(ctx context.Context, ex Executor, m query.Modification) (*Outcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	stmt, err := m.Build()
	if err != nil {
		return nil, err
	}
	sqlstmt, args, err := prepare(ctx, ex, stmt)
	if err != nil {
		return nil, err
	}
	defer sqlstmt.Close()
	result, err := sqlstmt.ExecContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	return &Outcome{result: result}, nil
}
