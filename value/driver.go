// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package value

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// driverType returns the kind closest to a raw value returned by database/sql
// when it is scanned into an *any.
func driverType(src any) DatabaseType {
	switch src.(type) {
	case bool:
		return TypeBool
	case int64, int, int32:
		return TypeBigInteger
	case float64, float32:
		return TypeDouble
	case string:
		return TypeString
	case []byte:
		return TypeBinary
	case time.Time:
		return TypeDateTime
	}
	return 0
}

func mismatch(expected DatabaseType, src any) error {
	return &ConvertError{Expected: expected, Actual: driverType(src), Source: src}
}

// FromDriver maps a value scanned from a database/sql row into a
// DatabaseValue of kind ty. A nil src becomes Null{ty}. Drivers disagree on
// the Go types they return for many column kinds, so textual and integer
// representations are accepted where the conversion is lossless.
func FromDriver(ty DatabaseType, src any) (DatabaseValue, error) {
	if src == nil {
		return Null{Of: ty}, nil
	}
	switch ty {
	case TypeBool:
		switch v := src.(type) {
		case bool:
			return Bool(v), nil
		case int64:
			return Bool(v != 0), nil
		case string, []byte:
			b, err := strconv.ParseBool(asString(v))
			if err != nil {
				return nil, mismatch(ty, src)
			}
			return Bool(b), nil
		}
	case TypeSmallInteger:
		i, err := integer(ty, src, math.MinInt16, math.MaxInt16)
		return SmallInteger(i), err
	case TypeUnsignedSmallInteger:
		i, err := integer(ty, src, 0, math.MaxUint16)
		return UnsignedSmallInteger(i), err
	case TypeInteger:
		i, err := integer(ty, src, math.MinInt32, math.MaxInt32)
		return Integer(i), err
	case TypeUnsignedInteger:
		i, err := integer(ty, src, 0, math.MaxUint32)
		return UnsignedInteger(i), err
	case TypeBigInteger:
		i, err := integer(ty, src, math.MinInt64, math.MaxInt64)
		return BigInteger(i), err
	case TypeUnsignedBigInteger:
		switch v := src.(type) {
		case int64:
			if v < 0 {
				return nil, errors.Errorf("value %d out of range for %s", v, ty)
			}
			return UnsignedBigInteger(v), nil
		case string, []byte:
			u, err := strconv.ParseUint(asString(v), 10, 64)
			if err != nil {
				return nil, mismatch(ty, src)
			}
			return UnsignedBigInteger(u), nil
		}
	case TypeFloat:
		f, err := float(ty, src)
		return Float(f), err
	case TypeDouble:
		f, err := float(ty, src)
		return Double(f), err
	case TypeDecimal:
		switch v := src.(type) {
		case int64:
			return Decimal{decimal.NewFromInt(v)}, nil
		case float64:
			return Decimal{decimal.NewFromFloat(v)}, nil
		case string, []byte:
			d, err := decimal.NewFromString(asString(v))
			if err != nil {
				return nil, mismatch(ty, src)
			}
			return Decimal{d}, nil
		}
	case TypeDate:
		t, err := temporal(ty, src, dateLayout, time.RFC3339Nano, dateTimeLayout)
		if err != nil {
			return nil, err
		}
		return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}, nil
	case TypeTime:
		t, err := temporal(ty, src, timeLayout)
		if err != nil {
			return nil, err
		}
		return Time{time.Date(0, 1, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)}, nil
	case TypeDateTime:
		t, err := temporal(ty, src, dateTimeLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00")
		if err != nil {
			return nil, err
		}
		return DateTime{t.UTC()}, nil
	case TypeCharacter:
		switch v := src.(type) {
		case string, []byte:
			r := []rune(asString(v))
			if len(r) != 1 {
				return nil, errors.Errorf("cannot decode %q as a single character", asString(v))
			}
			return Character(r[0]), nil
		case int64:
			if v < 0 || v > utf8.MaxRune || !utf8.ValidRune(rune(v)) {
				return nil, mismatch(ty, src)
			}
			return Character(rune(v)), nil
		}
	case TypeString:
		switch v := src.(type) {
		case string, []byte:
			return String(asString(v)), nil
		}
	case TypeBinary:
		switch v := src.(type) {
		case []byte:
			return Binary(append([]byte(nil), v...)), nil
		case string:
			return Binary(v), nil
		}
	case TypeJson:
		switch v := src.(type) {
		case string, []byte:
			raw := []byte(asString(v))
			if !json.Valid(raw) {
				return nil, errors.Errorf("invalid json value %q", raw)
			}
			return Json(raw), nil
		}
	default:
		return nil, errors.Errorf("internal error: unknown database type %s", ty)
	}
	return nil, mismatch(ty, src)
}

func asString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return ""
}

func integer(ty DatabaseType, src any, min, max int64) (int64, error) {
	var i int64
	switch v := src.(type) {
	case int64:
		i = v
	case bool:
		if v {
			i = 1
		}
	case string, []byte:
		n, err := strconv.ParseInt(asString(v), 10, 64)
		if err != nil {
			return 0, mismatch(ty, src)
		}
		i = n
	default:
		return 0, mismatch(ty, src)
	}
	if i < min || i > max {
		return 0, errors.Errorf("value %d out of range for %s", i, ty)
	}
	return i, nil
}

func float(ty DatabaseType, src any) (float64, error) {
	switch v := src.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case string, []byte:
		f, err := strconv.ParseFloat(asString(v), 64)
		if err != nil {
			return 0, mismatch(ty, src)
		}
		return f, nil
	}
	return 0, mismatch(ty, src)
}

func temporal(ty DatabaseType, src any, layouts ...string) (time.Time, error) {
	switch v := src.(type) {
	case time.Time:
		return v, nil
	case string, []byte:
		s := asString(v)
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, mismatch(ty, src)
}
