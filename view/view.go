// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package view

import (
	"github.com/pkg/errors"

	"github.com/dark-flames/yukino-dev-sub000/expr"
	"github.com/dark-flames/yukino-dev-sub000/value"
)

// View is a typed value in the query language: a list of expressions, one
// per column of T, together with the tags describing how it may be used.
type View[T any] interface {
	// Collect returns the expressions of the view, one per column of T.
	Collect() []expr.Expr
	// Tags returns the capability tags of the view.
	Tags() TagSet
	// Err returns the error recorded while the view was constructed.
	Err() error
	// Converter returns the converter used to decode T.
	Converter() value.Converter[T]
}

// ExprView is the View implementation used for everything that is not an
// entity row. Views are values: every operation returns a new view and
// leaves its operands untouched. An invalid operation does not panic; the
// error is carried by the resulting view and reported when the query is
// built.
type ExprView[T any] struct {
	exprs []expr.Expr
	tags  TagSet
	conv  value.Converter[T]
	err   error
}

// New returns a view over exprs decoded with conv. conv may be nil, in which
// case the default converter of T is used.
func New[T any](conv value.Converter[T], tags TagSet, exprs ...expr.Expr) ExprView[T] {
	if conv == nil {
		c, err := value.ConverterOf[T]()
		if err != nil {
			return Invalid[T](err)
		}
		conv = c
	}
	if len(exprs) != conv.Width() {
		return Invalid[T](errors.Errorf("view has %d expressions, converter expects %d", len(exprs), conv.Width()))
	}
	return ExprView[T]{exprs: exprs, tags: tags, conv: conv}
}

var errMissingConverter = errors.New("missing converter")

// Invalid returns a view carrying err.
func Invalid[T any](err error) ExprView[T] {
	return ExprView[T]{err: err}
}

// Of converts any View to an ExprView.
func Of[T any](v View[T]) ExprView[T] {
	if ev, ok := v.(ExprView[T]); ok {
		return ev
	}
	if err := v.Err(); err != nil {
		return Invalid[T](err)
	}
	return ExprView[T]{exprs: v.Collect(), tags: v.Tags(), conv: v.Converter()}
}

// Column returns a view of a single column of the table bound to alias.
func Column[T any](alias, column string) ExprView[T] {
	conv, err := value.ConverterOf[T]()
	if err != nil {
		return Invalid[T](errors.Wrapf(err, "column %s", column))
	}
	return ColumnOf(conv, alias, column)
}

// ColumnOf returns a view of the columns of the table bound to alias,
// decoded with conv. The number of columns must match the width of conv.
func ColumnOf[T any](conv value.Converter[T], alias string, columns ...string) ExprView[T] {
	if conv == nil {
		return Invalid[T](errMissingConverter)
	}
	if len(columns) != conv.Width() {
		return Invalid[T](errors.Errorf("%d columns given for a value of width %d", len(columns), conv.Width()))
	}
	exprs := make([]expr.Expr, len(columns))
	for i, c := range columns {
		exprs[i] = expr.Column(alias, c)
	}
	return ExprView[T]{exprs: exprs, tags: orderableIf(conv, 0), conv: conv}
}

// Val returns a constant view of v. Every column becomes a query parameter.
func Val[T any](v T) ExprView[T] {
	conv, err := value.ConverterOf[T]()
	if err != nil {
		return Invalid[T](err)
	}
	return ValOf(conv, v)
}

// ValOf returns a constant view of v, serialized with conv.
func ValOf[T any](conv value.Converter[T], v T) ExprView[T] {
	if conv == nil {
		return Invalid[T](errMissingConverter)
	}
	values := conv.Serialize(v)
	exprs := make([]expr.Expr, len(values))
	for i, dv := range values {
		exprs[i] = expr.Literal(dv)
	}
	return ExprView[T]{exprs: exprs, tags: orderableIf(conv, Tags(Constant)), conv: conv}
}

// orderableIf adds Orderable to tags when every column of conv is of an
// orderable kind.
func orderableIf[T any](conv value.Converter[T], tags TagSet) TagSet {
	if ordered(conv.Types()) {
		return tags.With(Orderable)
	}
	return tags.Without(Orderable)
}

// restrictOrderable removes Orderable from tags unless every column of conv
// is of an orderable kind.
func restrictOrderable[T any](conv value.Converter[T], tags TagSet) TagSet {
	if ordered(conv.Types()) {
		return tags
	}
	return tags.Without(Orderable)
}

func ordered(types []value.DatabaseType) bool {
	for _, ty := range types {
		if !ty.Ord() {
			return false
		}
	}
	return true
}

// Collect returns copies of the expressions of v.
func (v ExprView[T]) Collect() []expr.Expr {
	return expr.CloneAll(v.exprs)
}

// Tags returns the tags of v.
func (v ExprView[T]) Tags() TagSet {
	return v.tags
}

// Err returns the first error recorded while building v.
func (v ExprView[T]) Err() error {
	if v.err != nil {
		return v.err
	}
	if v.conv == nil {
		if _, err := value.ConverterOf[T](); err != nil {
			return err
		}
	}
	return nil
}

// Converter returns the converter of v.
func (v ExprView[T]) Converter() value.Converter[T] {
	if v.conv == nil {
		c, _ := value.ConverterOf[T]()
		return c
	}
	return v.conv
}

// Width returns the number of columns of v.
func (v ExprView[T]) Width() int {
	if c := v.Converter(); c != nil {
		return c.Width()
	}
	return len(v.exprs)
}

// FromExprs returns a view of the same type and tags over exprs. It is
// used to rebuild a view after its expressions have been rewritten. An
// aggregate view is indivisible, calling FromExprs on it panics.
func (v ExprView[T]) FromExprs(exprs []expr.Expr) ExprView[T] {
	if v.tags.Has(Aggregate) {
		panic("internal error: FromExprs called on an aggregate view")
	}
	if v.err != nil {
		return v
	}
	return New(v.Converter(), v.tags, exprs...)
}

// WithTags returns v with its tags replaced.
func (v ExprView[T]) WithTags(tags TagSet) ExprView[T] {
	v.tags = tags
	return v
}

// Ordered returns v tagged Orderable. It fails if a column of v is not of an
// orderable kind. It re-establishes ordering on aggregate results.
func (v ExprView[T]) Ordered() ExprView[T] {
	if v.err != nil {
		return v
	}
	if !ordered(v.Converter().Types()) {
		return Invalid[T](errors.Errorf("values of type %s are not orderable", typesString(v.Converter().Types())))
	}
	v.tags = v.tags.With(Orderable)
	return v
}

func (v ExprView[T]) String() string {
	if v.err != nil {
		return "invalid view: " + v.err.Error()
	}
	s := ""
	for i, e := range v.exprs {
		if i != 0 {
			s += ", "
		}
		s += e.String()
	}
	return s
}

// firstErr returns the first non nil error in errs.
func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func typesString(types []value.DatabaseType) string {
	if len(types) == 1 {
		return types[0].String()
	}
	s := "("
	for i, ty := range types {
		if i != 0 {
			s += ", "
		}
		s += ty.String()
	}
	return s + ")"
}
