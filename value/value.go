// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package value

import (
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	dateLayout     = "2006-01-02"
	timeLayout     = "15:04:05.999999999"
	dateTimeLayout = "2006-01-02 15:04:05.999999999"
)

// DatabaseValue is a wire-level scalar. The set of implementations is closed;
// it is the union of the kinds listed in DatabaseType plus Null.
type DatabaseValue interface {
	// Type returns the kind of the value. For Null it is the kind the null
	// stands in for.
	Type() DatabaseType
	// Driver returns the value in a form accepted as a database/sql argument.
	Driver() any
	// String returns a SQL literal representation for debugging and tests.
	String() string

	// databaseValue is a marker method.
	databaseValue()
}

type (
	Bool                 bool
	SmallInteger         int16
	UnsignedSmallInteger uint16
	Integer              int32
	UnsignedInteger      uint32
	BigInteger           int64
	UnsignedBigInteger   uint64
	Float                float32
	Double               float64
	Character            rune
	String               string
	Binary               []byte
	Json                 json.RawMessage
)

// Decimal is an arbitrary precision decimal value.
type Decimal struct{ decimal.Decimal }

// Date is a calendar date. Only the year, month and day of the wrapped time
// are meaningful.
type Date struct{ time.Time }

// Time is a time of day. Only the clock of the wrapped time is meaningful.
type Time struct{ time.Time }

// DateTime is an instant, bound to the database in UTC.
type DateTime struct{ time.Time }

// Null is a typed null.
type Null struct {
	Of DatabaseType
}

func (Bool) Type() DatabaseType                 { return TypeBool }
func (SmallInteger) Type() DatabaseType         { return TypeSmallInteger }
func (UnsignedSmallInteger) Type() DatabaseType { return TypeUnsignedSmallInteger }
func (Integer) Type() DatabaseType              { return TypeInteger }
func (UnsignedInteger) Type() DatabaseType      { return TypeUnsignedInteger }
func (BigInteger) Type() DatabaseType           { return TypeBigInteger }
func (UnsignedBigInteger) Type() DatabaseType   { return TypeUnsignedBigInteger }
func (Float) Type() DatabaseType                { return TypeFloat }
func (Double) Type() DatabaseType               { return TypeDouble }
func (Decimal) Type() DatabaseType              { return TypeDecimal }
func (Date) Type() DatabaseType                 { return TypeDate }
func (Time) Type() DatabaseType                 { return TypeTime }
func (DateTime) Type() DatabaseType             { return TypeDateTime }
func (Character) Type() DatabaseType            { return TypeCharacter }
func (String) Type() DatabaseType               { return TypeString }
func (Binary) Type() DatabaseType               { return TypeBinary }
func (Json) Type() DatabaseType                 { return TypeJson }
func (n Null) Type() DatabaseType               { return n.Of }

func (v Bool) Driver() any                 { return bool(v) }
func (v SmallInteger) Driver() any         { return int64(v) }
func (v UnsignedSmallInteger) Driver() any { return int64(v) }
func (v Integer) Driver() any              { return int64(v) }
func (v UnsignedInteger) Driver() any      { return int64(v) }
func (v BigInteger) Driver() any           { return int64(v) }
func (v Float) Driver() any                { return float64(v) }
func (v Double) Driver() any               { return float64(v) }
func (v Decimal) Driver() any              { return v.Decimal.String() }
func (v Date) Driver() any                 { return v.Time.Format(dateLayout) }
func (v Time) Driver() any                 { return v.Time.Format(timeLayout) }
func (v DateTime) Driver() any             { return v.Time.UTC() }
func (v Character) Driver() any            { return string(rune(v)) }
func (v String) Driver() any               { return string(v) }
func (v Binary) Driver() any               { return []byte(v) }
func (v Json) Driver() any                 { return string(v) }
func (Null) Driver() any                   { return nil }

// Driver returns the value as an int64 when it fits, the database/sql default
// converter rejects uint64 values with the high bit set.
func (v UnsignedBigInteger) Driver() any {
	if uint64(v) > 1<<63-1 {
		return strconv.FormatUint(uint64(v), 10)
	}
	return int64(v)
}

func (v Bool) String() string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}
func (v SmallInteger) String() string         { return strconv.FormatInt(int64(v), 10) }
func (v UnsignedSmallInteger) String() string { return strconv.FormatUint(uint64(v), 10) }
func (v Integer) String() string              { return strconv.FormatInt(int64(v), 10) }
func (v UnsignedInteger) String() string      { return strconv.FormatUint(uint64(v), 10) }
func (v BigInteger) String() string           { return strconv.FormatInt(int64(v), 10) }
func (v UnsignedBigInteger) String() string   { return strconv.FormatUint(uint64(v), 10) }
func (v Float) String() string                { return strconv.FormatFloat(float64(v), 'g', -1, 32) }
func (v Double) String() string               { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v Decimal) String() string              { return v.Decimal.String() }
func (v Date) String() string                 { return quote(v.Time.Format(dateLayout)) }
func (v Time) String() string                 { return quote(v.Time.Format(timeLayout)) }
func (v DateTime) String() string             { return quote(v.Time.UTC().Format(dateTimeLayout)) }
func (v Character) String() string            { return quote(string(rune(v))) }
func (v String) String() string               { return quote(string(v)) }
func (v Binary) String() string               { return "X'" + strings.ToUpper(hex.EncodeToString(v)) + "'" }
func (v Json) String() string                 { return quote(string(v)) }
func (Null) String() string                   { return "NULL" }

func (Bool) databaseValue()                 {}
func (SmallInteger) databaseValue()         {}
func (UnsignedSmallInteger) databaseValue() {}
func (Integer) databaseValue()              {}
func (UnsignedInteger) databaseValue()      {}
func (BigInteger) databaseValue()           {}
func (UnsignedBigInteger) databaseValue()   {}
func (Float) databaseValue()                {}
func (Double) databaseValue()               {}
func (Decimal) databaseValue()              {}
func (Date) databaseValue()                 {}
func (Time) databaseValue()                 {}
func (DateTime) databaseValue()             {}
func (Character) databaseValue()            {}
func (String) databaseValue()               {}
func (Binary) databaseValue()               {}
func (Json) databaseValue()                 {}
func (Null) databaseValue()                 {}

// quote renders s as a single quoted SQL string literal.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// IsNull reports whether v is a typed null.
func IsNull(v DatabaseValue) bool {
	_, ok := v.(Null)
	return ok
}
