// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package value

import "fmt"

// DatabaseType is the type-only tag of a DatabaseValue. It is used to
// type-check null values and to decide which operators apply to a column.
type DatabaseType int

const (
	TypeBool DatabaseType = iota + 1
	TypeSmallInteger
	TypeUnsignedSmallInteger
	TypeInteger
	TypeUnsignedInteger
	TypeBigInteger
	TypeUnsignedBigInteger
	TypeFloat
	TypeDouble
	TypeDecimal
	TypeDate
	TypeTime
	TypeDateTime
	TypeCharacter
	TypeString
	TypeBinary
	TypeJson
)

var typeNames = map[DatabaseType]string{
	TypeBool:                 "Bool",
	TypeSmallInteger:         "SmallInteger",
	TypeUnsignedSmallInteger: "UnsignedSmallInteger",
	TypeInteger:              "Integer",
	TypeUnsignedInteger:      "UnsignedInteger",
	TypeBigInteger:           "BigInteger",
	TypeUnsignedBigInteger:   "UnsignedBigInteger",
	TypeFloat:                "Float",
	TypeDouble:               "Double",
	TypeDecimal:              "Decimal",
	TypeDate:                 "Date",
	TypeTime:                 "Time",
	TypeDateTime:             "DateTime",
	TypeCharacter:            "Character",
	TypeString:               "String",
	TypeBinary:               "Binary",
	TypeJson:                 "Json",
}

func (t DatabaseType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("DatabaseType(%d)", int(t))
}

// Valid reports whether t is one of the declared kinds.
func (t DatabaseType) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// Integer reports whether t is a signed or unsigned integer kind.
func (t DatabaseType) Integer() bool {
	switch t {
	case TypeSmallInteger, TypeUnsignedSmallInteger,
		TypeInteger, TypeUnsignedInteger,
		TypeBigInteger, TypeUnsignedBigInteger:
		return true
	}
	return false
}

// Numeric reports whether t is an integer, floating point or decimal kind.
func (t DatabaseType) Numeric() bool {
	switch t {
	case TypeFloat, TypeDouble, TypeDecimal:
		return true
	}
	return t.Integer()
}

// Temporal reports whether t is a date or time kind.
func (t DatabaseType) Temporal() bool {
	switch t {
	case TypeDate, TypeTime, TypeDateTime:
		return true
	}
	return false
}

// AddOperate reports whether arithmetic operators apply to t.
func (t DatabaseType) AddOperate() bool {
	return t.Numeric() || t.Temporal()
}

// BitOperate reports whether bitwise operators apply to t.
func (t DatabaseType) BitOperate() bool {
	return t.Integer() || t == TypeBool
}

// Ord reports whether values of t can be ordered.
func (t DatabaseType) Ord() bool {
	switch t {
	case TypeBinary, TypeJson:
		return false
	}
	return t.Valid()
}

// Eq reports whether values of t can be compared for equality. Every kind
// supports equality.
func (t DatabaseType) Eq() bool {
	return t.Valid()
}
