// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package value

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Converter is a bidirectional codec between a Go value and its positional
// decomposition into database values. Width and Types are fixed for the
// lifetime of the converter and Serialize and Deserialize agree on the order
// of the decomposition.
type Converter[T any] interface {
	// Width is the number of columns/parameters a value of T occupies.
	Width() int
	// Types returns the kind of each of the Width columns.
	Types() []DatabaseType
	// Serialize decomposes v into exactly Width database values.
	Serialize(v T) []DatabaseValue
	// Deserialize rebuilds a T from exactly Width database values.
	Deserialize(values []DatabaseValue) (T, error)
}

// scalar is a width 1 converter built from a pair of functions.
type scalar[T any] struct {
	ty   DatabaseType
	to   func(T) DatabaseValue
	from func(DatabaseValue) (T, bool)
}

func (c *scalar[T]) Width() int { return 1 }

func (c *scalar[T]) Types() []DatabaseType { return []DatabaseType{c.ty} }

func (c *scalar[T]) Serialize(v T) []DatabaseValue {
	return []DatabaseValue{c.to(v)}
}

func (c *scalar[T]) Deserialize(values []DatabaseValue) (T, error) {
	var zero T
	if err := checkWidth(values, 1); err != nil {
		return zero, err
	}
	v, ok := c.from(values[0])
	if !ok {
		return zero, UnexpectedValueType(c.ty, values[0])
	}
	return v, nil
}

// Scalar returns a width 1 converter for kind ty. from must report false when
// the value it is given is not of kind ty.
func Scalar[T any](ty DatabaseType, to func(T) DatabaseValue, from func(DatabaseValue) (T, bool)) Converter[T] {
	return &scalar[T]{ty: ty, to: to, from: from}
}

var (
	BoolConverter = Scalar(TypeBool,
		func(v bool) DatabaseValue { return Bool(v) },
		func(dv DatabaseValue) (bool, bool) { v, ok := dv.(Bool); return bool(v), ok })
	Int16Converter = Scalar(TypeSmallInteger,
		func(v int16) DatabaseValue { return SmallInteger(v) },
		func(dv DatabaseValue) (int16, bool) { v, ok := dv.(SmallInteger); return int16(v), ok })
	Uint16Converter = Scalar(TypeUnsignedSmallInteger,
		func(v uint16) DatabaseValue { return UnsignedSmallInteger(v) },
		func(dv DatabaseValue) (uint16, bool) { v, ok := dv.(UnsignedSmallInteger); return uint16(v), ok })
	Int32Converter = Scalar(TypeInteger,
		func(v int32) DatabaseValue { return Integer(v) },
		func(dv DatabaseValue) (int32, bool) { v, ok := dv.(Integer); return int32(v), ok })
	Uint32Converter = Scalar(TypeUnsignedInteger,
		func(v uint32) DatabaseValue { return UnsignedInteger(v) },
		func(dv DatabaseValue) (uint32, bool) { v, ok := dv.(UnsignedInteger); return uint32(v), ok })
	Int64Converter = Scalar(TypeBigInteger,
		func(v int64) DatabaseValue { return BigInteger(v) },
		func(dv DatabaseValue) (int64, bool) { v, ok := dv.(BigInteger); return int64(v), ok })
	Uint64Converter = Scalar(TypeUnsignedBigInteger,
		func(v uint64) DatabaseValue { return UnsignedBigInteger(v) },
		func(dv DatabaseValue) (uint64, bool) { v, ok := dv.(UnsignedBigInteger); return uint64(v), ok })
	IntConverter = Scalar(TypeBigInteger,
		func(v int) DatabaseValue { return BigInteger(v) },
		func(dv DatabaseValue) (int, bool) { v, ok := dv.(BigInteger); return int(v), ok })
	Float32Converter = Scalar(TypeFloat,
		func(v float32) DatabaseValue { return Float(v) },
		func(dv DatabaseValue) (float32, bool) { v, ok := dv.(Float); return float32(v), ok })
	Float64Converter = Scalar(TypeDouble,
		func(v float64) DatabaseValue { return Double(v) },
		func(dv DatabaseValue) (float64, bool) { v, ok := dv.(Double); return float64(v), ok })
	DecimalConverter = Scalar(TypeDecimal,
		func(v decimal.Decimal) DatabaseValue { return Decimal{v} },
		func(dv DatabaseValue) (decimal.Decimal, bool) { v, ok := dv.(Decimal); return v.Decimal, ok })
	StringConverter = Scalar(TypeString,
		func(v string) DatabaseValue { return String(v) },
		func(dv DatabaseValue) (string, bool) { v, ok := dv.(String); return string(v), ok })
	CharConverter = Scalar(TypeCharacter,
		func(v Char) DatabaseValue { return Character(v) },
		func(dv DatabaseValue) (Char, bool) { v, ok := dv.(Character); return Char(v), ok })
	BytesConverter = Scalar(TypeBinary,
		func(v []byte) DatabaseValue { return Binary(v) },
		func(dv DatabaseValue) ([]byte, bool) { v, ok := dv.(Binary); return []byte(v), ok })
	JSONConverter = Scalar(TypeJson,
		func(v json.RawMessage) DatabaseValue { return Json(v) },
		func(dv DatabaseValue) (json.RawMessage, bool) { v, ok := dv.(Json); return json.RawMessage(v), ok })
	DateTimeConverter = Scalar(TypeDateTime,
		func(v time.Time) DatabaseValue { return DateTime{v} },
		func(dv DatabaseValue) (time.Time, bool) { v, ok := dv.(DateTime); return v.Time, ok })
	DateConverter = Scalar(TypeDate,
		func(v CivilDate) DatabaseValue { return Date{v.In(time.UTC)} },
		func(dv DatabaseValue) (CivilDate, bool) { v, ok := dv.(Date); return DateOf(v.Time), ok })
	TimeConverter = Scalar(TypeTime,
		func(v CivilTime) DatabaseValue { return Time{v.In(time.UTC)} },
		func(dv DatabaseValue) (CivilTime, bool) { v, ok := dv.(Time); return TimeOf(v.Time), ok })
)

// Char is a single character stored in a Character column. It is distinct
// from rune so that it is not confused with an int32 Integer column.
type Char rune

// CivilDate is a date without a time zone.
type CivilDate struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the civil date of t in t's location.
func DateOf(t time.Time) CivilDate {
	return CivilDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// In returns midnight at the start of the date in loc.
func (d CivilDate) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d CivilDate) String() string {
	return d.In(time.UTC).Format(dateLayout)
}

// CivilTime is a time of day without a date or time zone.
type CivilTime struct {
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
}

// TimeOf returns the civil time of t in t's location.
func TimeOf(t time.Time) CivilTime {
	return CivilTime{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(), Nanosecond: t.Nanosecond()}
}

// In returns the time of day on 0000-01-01 in loc.
func (t CivilTime) In(loc *time.Location) time.Time {
	return time.Date(0, 1, 1, t.Hour, t.Minute, t.Second, t.Nanosecond, loc)
}

func (t CivilTime) String() string {
	return t.In(time.UTC).Format(timeLayout)
}

// nullable wraps a converter so that NULL decodes to a nil pointer.
type nullable[T any] struct {
	inner Converter[T]
}

// Nullable returns a converter for *T. A nil pointer serializes to typed
// nulls of the inner kinds; deserializing yields nil only when every value is
// a null of the expected kind.
func Nullable[T any](c Converter[T]) Converter[*T] {
	return &nullable[T]{inner: c}
}

func (c *nullable[T]) Width() int { return c.inner.Width() }

func (c *nullable[T]) Types() []DatabaseType { return c.inner.Types() }

func (c *nullable[T]) Serialize(v *T) []DatabaseValue {
	if v == nil {
		types := c.inner.Types()
		values := make([]DatabaseValue, len(types))
		for i, ty := range types {
			values[i] = Null{Of: ty}
		}
		return values
	}
	return c.inner.Serialize(*v)
}

func (c *nullable[T]) Deserialize(values []DatabaseValue) (*T, error) {
	if err := checkWidth(values, c.Width()); err != nil {
		return nil, err
	}
	types := c.inner.Types()
	nulls := 0
	for i, v := range values {
		n, ok := v.(Null)
		if !ok {
			continue
		}
		if n.Of != types[i] {
			return nil, &ConvertError{Expected: types[i], Actual: n.Of}
		}
		nulls++
	}
	if nulls == len(values) && nulls > 0 {
		return nil, nil
	}
	v, err := c.inner.Deserialize(values)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
