// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package schema

import (
	"reflect"
	"strconv"

	"github.com/pkg/errors"

	"github.com/dark-flames/yukino-dev-sub000/expr"
	"github.com/dark-flames/yukino-dev-sub000/value"
	"github.com/dark-flames/yukino-dev-sub000/view"
)

// Table maps the struct type E to a table whose primary key is of type K.
// Columns are read from the "db" tags of E; the primary key field is tagged
// with the "pk" option:
//
//	type Toy struct {
//		ID    int64  `db:"id,pk"`
//		Name  string `db:"name"`
//		PetID int64  `db:"pet_id"`
//	}
//
// Table implements query.Keyed[E, Row, K].
type Table[E any, K comparable] struct {
	name string
	info *info
	conv value.Converter[E]
	key  value.Converter[K]
}

// Define maps E to the table name. The name follows the rules of column
// names.
func Define[E any, K comparable](name string) (*Table[E, K], error) {
	t := reflect.TypeOf((*E)(nil)).Elem()
	in, err := getInfo(t)
	if err != nil {
		return nil, err
	}
	if !validColNameRx.MatchString(name) {
		return nil, &Error{Type: t, Msg: "invalid table name " + strconv.Quote(name)}
	}
	pk := in.fields[in.pk]
	if kt := reflect.TypeOf((*K)(nil)).Elem(); kt != pk.conv.Type {
		return nil, &Error{Type: t, Field: pk.name, Msg: "primary key is of type " + pk.conv.Type.String() + ", not " + kt.String()}
	}
	key, err := value.ConverterOf[K]()
	if err != nil {
		return nil, &Error{Type: t, Field: pk.name, Msg: err.Error()}
	}
	return &Table[E, K]{name: name, info: in, conv: &structConverter[E]{info: in}, key: key}, nil
}

// MustDefine is the same as Define except that it panics on error.
func MustDefine[E any, K comparable](name string) *Table[E, K] {
	t, err := Define[E, K](name)
	if err != nil {
		panic(err)
	}
	return t
}

// TableName returns the name of the table.
func (t *Table[E, K]) TableName() string {
	return t.name
}

// Columns returns the mapped columns, in field order.
func (t *Table[E, K]) Columns() []string {
	columns := make([]string, len(t.info.fields))
	for i, f := range t.info.fields {
		columns[i] = f.column
	}
	return columns
}

// Pure returns the row of the table bound to alias.
func (t *Table[E, K]) Pure(alias string) Row {
	exprs := make([]expr.Expr, len(t.info.fields))
	for i, f := range t.info.fields {
		exprs[i] = expr.Column(alias, f.column)
	}
	return Row{info: t.info, exprs: exprs}
}

// Collect returns the expressions of every column of r.
func (t *Table[E, K]) Collect(r Row) []expr.Expr {
	return expr.CloneAll(r.exprs)
}

// FromExprs rebuilds a row from expressions returned by Collect.
func (t *Table[E, K]) FromExprs(exprs []expr.Expr) Row {
	return Row{info: t.info, exprs: expr.CloneAll(exprs)}
}

// Converter returns the converter of E.
func (t *Table[E, K]) Converter() value.Converter[E] {
	return t.conv
}

// PrimaryKeyColumns returns the column of the primary key.
func (t *Table[E, K]) PrimaryKeyColumns() []string {
	return []string{t.info.fields[t.info.pk].column}
}

// PrimaryKey returns the view of the primary key of r.
func (t *Table[E, K]) PrimaryKey(r Row) view.ExprView[K] {
	return columnView(r, t.info.pk, t.key)
}

// PrimaryKeyOf returns the primary key of e.
func (t *Table[E, K]) PrimaryKeyOf(e E) K {
	f := t.info.fields[t.info.pk]
	return reflect.ValueOf(&e).Elem().Field(f.index).Interface().(K)
}

// Row is the view of a row of a table defined with Define. Columns are
// accessed by name with Col.
type Row struct {
	info  *info
	exprs []expr.Expr
}

// Col returns the view of the column named column of r. T must be the type
// of the field mapped to the column.
func Col[T any](r Row, column string) view.ExprView[T] {
	if r.info == nil {
		return view.Invalid[T](errors.New("cannot use an uninitialised row"))
	}
	for i, f := range r.info.fields {
		if f.column != column {
			continue
		}
		if want := reflect.TypeOf((*T)(nil)).Elem(); want != f.conv.Type {
			return view.Invalid[T](&Error{Type: r.info.typ, Field: f.name, Msg: "column " + column + " is of type " + f.conv.Type.String() + ", not " + want.String()})
		}
		conv, err := value.ConverterOf[T]()
		if err != nil {
			return view.Invalid[T](err)
		}
		return columnView(r, i, conv)
	}
	return view.Invalid[T](&Error{Type: r.info.typ, Msg: "no column named " + column})
}

func columnView[T any](r Row, i int, conv value.Converter[T]) view.ExprView[T] {
	v := view.New(conv, 0, expr.Clone(r.exprs[i]))
	if conv.Types()[0].Ord() {
		return v.Ordered()
	}
	return v
}

// structConverter converts a struct with the converters of its mapped
// fields.
type structConverter[E any] struct {
	info *info
}

func (c *structConverter[E]) Width() int {
	return len(c.info.fields)
}

func (c *structConverter[E]) Types() []value.DatabaseType {
	types := make([]value.DatabaseType, len(c.info.fields))
	for i, f := range c.info.fields {
		types[i] = f.conv.Types[0]
	}
	return types
}

func (c *structConverter[E]) Serialize(e E) []value.DatabaseValue {
	v := reflect.ValueOf(&e).Elem()
	out := make([]value.DatabaseValue, 0, len(c.info.fields))
	for _, f := range c.info.fields {
		out = append(out, f.conv.Serialize(v.Field(f.index))...)
	}
	return out
}

func (c *structConverter[E]) Deserialize(values []value.DatabaseValue) (E, error) {
	var e E
	if len(values) != len(c.info.fields) {
		return e, errors.Errorf("expected %d values, got %d", len(c.info.fields), len(values))
	}
	v := reflect.ValueOf(&e).Elem()
	for i, f := range c.info.fields {
		fv, err := f.conv.Deserialize(values[i : i+1])
		if err != nil {
			return e, errors.Wrapf(err, "field %s", f.name)
		}
		v.Field(f.index).Set(fv)
	}
	return e, nil
}
