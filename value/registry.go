// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package value

import (
	"encoding/json"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// UUIDConverter stores a uuid.UUID in its canonical textual form.
var UUIDConverter = Scalar(TypeString,
	func(v uuid.UUID) DatabaseValue { return String(v.String()) },
	func(dv DatabaseValue) (uuid.UUID, bool) {
		s, ok := dv.(String)
		if !ok {
			return uuid.Nil, false
		}
		u, err := uuid.Parse(string(s))
		return u, err == nil
	})

// registryMutex must be held when accessing registry.
var registryMutex sync.RWMutex

// registry maps Go types to their default converter, stored as a
// Converter[T] for the key type.
var registry = map[reflect.Type]any{}

func init() {
	register(BoolConverter)
	register(Int16Converter)
	register(Uint16Converter)
	register(Int32Converter)
	register(Uint32Converter)
	register(Int64Converter)
	register(Uint64Converter)
	register(IntConverter)
	register(Float32Converter)
	register(Float64Converter)
	register(DecimalConverter)
	register(StringConverter)
	register(CharConverter)
	register(BytesConverter)
	register(JSONConverter)
	register(DateTimeConverter)
	register(DateConverter)
	register(TimeConverter)
	register(UUIDConverter)
	register(UnitConverter)
}

// register adds c as the default converter of T and of *T.
func register[T any](c Converter[T]) {
	Register(c)
	Register(Nullable(c))
}

// Register makes c the default converter for T, replacing any previous one.
func Register[T any](c Converter[T]) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	registryMutex.Lock()
	defer registryMutex.Unlock()
	registry[t] = c
	erasers[t] = func() Erased { return Erase(c) }
}

// ConverterOf returns the default converter for T.
func ConverterOf[T any]() (Converter[T], error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	registryMutex.RLock()
	c, ok := registry[t]
	registryMutex.RUnlock()
	if !ok {
		return nil, errors.Errorf("no converter registered for type %s", t)
	}
	return c.(Converter[T]), nil
}

// MustConverterOf is the same as ConverterOf except that it panics on error.
func MustConverterOf[T any]() Converter[T] {
	c, err := ConverterOf[T]()
	if err != nil {
		panic(err)
	}
	return c
}

// Registered reports whether a default converter exists for t.
func Registered(t reflect.Type) bool {
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	_, ok := registry[t]
	return ok
}

// Erased is a converter with its Go type erased to reflect.Value. It is used
// by code that assembles converters for types only known at run time.
type Erased struct {
	Type        reflect.Type
	Width       int
	Types       []DatabaseType
	Serialize   func(v reflect.Value) []DatabaseValue
	Deserialize func(values []DatabaseValue) (reflect.Value, error)
}

// Erase returns the type erased form of c.
func Erase[T any](c Converter[T]) Erased {
	return Erased{
		Type:  reflect.TypeOf((*T)(nil)).Elem(),
		Width: c.Width(),
		Types: c.Types(),
		Serialize: func(v reflect.Value) []DatabaseValue {
			return c.Serialize(v.Interface().(T))
		},
		Deserialize: func(values []DatabaseValue) (reflect.Value, error) {
			v, err := c.Deserialize(values)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(&v).Elem(), nil
		},
	}
}

// erasers holds the erased form of every registered converter, keyed like
// registry.
var erasers = map[reflect.Type]func() Erased{}

// ErasedOf returns the erased default converter for t.
func ErasedOf(t reflect.Type) (Erased, error) {
	registryMutex.RLock()
	e, ok := erasers[t]
	registryMutex.RUnlock()
	if !ok {
		return Erased{}, errors.Errorf("no converter registered for type %s", t)
	}
	return e(), nil
}

// Ensure the registered Go types are the ones the converters are declared
// for.
var (
	_ Converter[json.RawMessage] = JSONConverter
	_ Converter[time.Time]       = DateTimeConverter
	_ Converter[decimal.Decimal] = DecimalConverter
)
