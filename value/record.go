// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package value

import (
	"github.com/pkg/errors"
)

// Field is one field of a record type T together with the converter of its
// value.
type Field[T any] interface {
	// Name returns the name of the field.
	Name() string
	width() int
	types() []DatabaseType
	serialize(v T) []DatabaseValue
	deserialize(dst *T, values []DatabaseValue) error
}

type field[T, F any] struct {
	name string
	conv Converter[F]
	get  func(T) F
	set  func(*T, F)
}

// FieldOf returns a field named name whose value is read with get, written
// with set and converted with c.
func FieldOf[T, F any](name string, c Converter[F], get func(T) F, set func(*T, F)) Field[T] {
	return &field[T, F]{name: name, conv: c, get: get, set: set}
}

func (f *field[T, F]) Name() string { return f.name }

func (f *field[T, F]) width() int { return f.conv.Width() }

func (f *field[T, F]) types() []DatabaseType { return f.conv.Types() }

func (f *field[T, F]) serialize(v T) []DatabaseValue {
	return f.conv.Serialize(f.get(v))
}

func (f *field[T, F]) deserialize(dst *T, values []DatabaseValue) error {
	v, err := f.conv.Deserialize(values)
	if err != nil {
		return errors.Wrapf(err, "field %s", f.name)
	}
	f.set(dst, v)
	return nil
}

type record[T any] struct {
	fields []Field[T]
	width  int
	types  []DatabaseType
}

// Record returns the converter of a record type made of fields. The
// decomposition of a record is the concatenation of the decompositions of
// its fields, in order.
func Record[T any](fields ...Field[T]) Converter[T] {
	r := &record[T]{fields: fields}
	for _, f := range fields {
		r.width += f.width()
		r.types = append(r.types, f.types()...)
	}
	return r
}

func (r *record[T]) Width() int { return r.width }

func (r *record[T]) Types() []DatabaseType { return r.types }

func (r *record[T]) Serialize(v T) []DatabaseValue {
	out := make([]DatabaseValue, 0, r.width)
	for _, f := range r.fields {
		out = append(out, f.serialize(v)...)
	}
	return out
}

func (r *record[T]) Deserialize(values []DatabaseValue) (T, error) {
	var v T
	if err := checkWidth(values, r.width); err != nil {
		return v, err
	}
	offset := 0
	for _, f := range r.fields {
		if err := f.deserialize(&v, values[offset:offset+f.width()]); err != nil {
			return v, err
		}
		offset += f.width()
	}
	return v, nil
}
