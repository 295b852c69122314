// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package yukino

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/dark-flames/yukino-dev-sub000/expr"
)

var ErrNoRows = sql.ErrNoRows
var ErrTooManyRows = errors.New("query returned more than one row")
var ErrTXDone = sql.ErrTxDone

// Executor prepares statements on a database connection. It is implemented
// by [sql.DB], [sql.Tx], [sql.Conn], [DB] and [TX].
type Executor interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// options configure how statements are rendered and logged.
type options struct {
	dialect expr.Dialect
	logger  *slog.Logger
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func defaultOptions() *options {
	return &options{dialect: expr.DefaultDialect, logger: discardLogger}
}

// Option configures a [DB].
type Option func(*options)

// WithDialect sets the SQL dialect statements are rendered in. The default
// is [expr.DialectMySQL].
func WithDialect(d expr.Dialect) Option {
	return func(o *options) {
		o.dialect = d
	}
}

// WithLogger sets the logger every executed statement is logged to, at
// debug level.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// configured is implemented by executors carrying options.
type configured interface {
	options() *options
}

func optionsOf(ex Executor) *options {
	if c, ok := ex.(configured); ok {
		return c.options()
	}
	return defaultOptions()
}

type DB struct {
	// sqldb is the underlying database/sql DB object.
	sqldb *sql.DB
	opts  *options
}

// NewDB creates a new [DB] from a [sql.DB].
func NewDB(sqldb *sql.DB, opts ...Option) *DB {
	if sqldb == nil {
		return nil
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &DB{sqldb: sqldb, opts: o}
}

// PlainDB returns the underlying database object.
func (db *DB) PlainDB() *sql.DB {
	return db.sqldb
}

// Dialect returns the dialect statements run on db are rendered in.
func (db *DB) Dialect() expr.Dialect {
	return db.opts.dialect
}

// PrepareContext prepares a statement on the underlying database.
func (db *DB) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	return db.sqldb.PrepareContext(ctx, query)
}

func (db *DB) options() *options {
	return db.opts
}

// TX is a transaction begun on a [DB]. It renders and logs statements with
// the dialect and logger of that DB, so queries run on a TX and on its DB
// produce the same SQL.
type TX struct {
	sqltx *sql.Tx
	opts  *options
	// ended is set by the first Commit or Rollback.
	ended atomic.Bool
}

// TXOptions configures the transactions started by [DB.Begin]. A nil
// *TXOptions uses the defaults of the driver.
type TXOptions struct {
	// Isolation is the isolation level; zero means the driver default.
	Isolation sql.IsolationLevel
	ReadOnly  bool
}

func (o *TXOptions) sqlOptions() *sql.TxOptions {
	if o == nil {
		return nil
	}
	return &sql.TxOptions{Isolation: o.Isolation, ReadOnly: o.ReadOnly}
}

// Begin starts a transaction on db. It must be ended by [TX.Commit] or
// [TX.Rollback].
func (db *DB) Begin(ctx context.Context, opts *TXOptions) (*TX, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	sqltx, err := db.sqldb.BeginTx(ctx, opts.sqlOptions())
	if err != nil {
		return nil, errors.Wrap(err, "cannot begin transaction")
	}
	db.opts.logger.DebugContext(ctx, "transaction started")
	return &TX{sqltx: sqltx, opts: db.opts}, nil
}

// Dialect returns the dialect statements run in tx are rendered in.
func (tx *TX) Dialect() expr.Dialect {
	return tx.opts.dialect
}

// Commit commits tx. Ending a transaction twice returns [ErrTXDone].
func (tx *TX) Commit() error {
	return tx.end("commit", tx.sqltx.Commit)
}

// Rollback aborts tx. Ending a transaction twice returns [ErrTXDone].
func (tx *TX) Rollback() error {
	return tx.end("rollback", tx.sqltx.Rollback)
}

func (tx *TX) end(outcome string, f func() error) error {
	if !tx.ended.CompareAndSwap(false, true) {
		return ErrTXDone
	}
	err := f()
	tx.opts.logger.Debug("transaction ended", slog.String("outcome", outcome), slog.Any("error", err))
	return err
}

// PrepareContext prepares a statement in tx. database/sql closes the
// statements of a transaction when it ends.
func (tx *TX) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	if tx.ended.Load() {
		return nil, ErrTXDone
	}
	return tx.sqltx.PrepareContext(ctx, query)
}

func (tx *TX) options() *options {
	return tx.opts
}
