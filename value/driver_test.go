// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package value_test

import (
	"time"

	"github.com/shopspring/decimal"
	. "gopkg.in/check.v1"

	"github.com/dark-flames/yukino-dev-sub000/value"
)

var fromDriverTests = []struct {
	summary  string
	ty       value.DatabaseType
	src      any
	expected value.DatabaseValue
}{{
	summary:  "null keeps the requested type",
	ty:       value.TypeDate,
	src:      nil,
	expected: value.Null{Of: value.TypeDate},
}, {
	summary:  "bool from integer",
	ty:       value.TypeBool,
	src:      int64(1),
	expected: value.Bool(true),
}, {
	summary:  "small integer",
	ty:       value.TypeSmallInteger,
	src:      int64(-3),
	expected: value.SmallInteger(-3),
}, {
	summary:  "unsigned big integer from text",
	ty:       value.TypeUnsignedBigInteger,
	src:      []byte("18446744073709551615"),
	expected: value.UnsignedBigInteger(1<<64 - 1),
}, {
	summary:  "double from integer",
	ty:       value.TypeDouble,
	src:      int64(2),
	expected: value.Double(2),
}, {
	summary:  "decimal from text",
	ty:       value.TypeDecimal,
	src:      "1.50",
	expected: value.Decimal{Decimal: decimal.RequireFromString("1.50")},
}, {
	summary:  "date from text",
	ty:       value.TypeDate,
	src:      "2021-03-04",
	expected: value.Date{Time: time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)},
}, {
	summary:  "date from time",
	ty:       value.TypeDate,
	src:      time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC),
	expected: value.Date{Time: time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)},
}, {
	summary:  "time of day",
	ty:       value.TypeTime,
	src:      "13:14:15",
	expected: value.Time{Time: time.Date(0, 1, 1, 13, 14, 15, 0, time.UTC)},
}, {
	summary:  "datetime from text",
	ty:       value.TypeDateTime,
	src:      "2021-03-04 05:06:07",
	expected: value.DateTime{Time: time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)},
}, {
	summary:  "character",
	ty:       value.TypeCharacter,
	src:      "x",
	expected: value.Character('x'),
}, {
	summary:  "string from bytes",
	ty:       value.TypeString,
	src:      []byte("Fred"),
	expected: value.String("Fred"),
}, {
	summary:  "json",
	ty:       value.TypeJson,
	src:      `[1,2]`,
	expected: value.Json(`[1,2]`),
}}

func (s *ValueSuite) TestFromDriver(c *C) {
	for i, t := range fromDriverTests {
		v, err := value.FromDriver(t.ty, t.src)
		c.Assert(err, IsNil, Commentf("test %d failed (%s)", i, t.summary))
		c.Check(v, DeepEquals, t.expected, Commentf("test %d failed (%s)", i, t.summary))
	}
}

var fromDriverErrorTests = []struct {
	summary string
	ty      value.DatabaseType
	src     any
	err     string
}{{
	summary: "out of range",
	ty:      value.TypeSmallInteger,
	src:     int64(70000),
	err:     "value 70000 out of range for SmallInteger",
}, {
	summary: "string for integer",
	ty:      value.TypeInteger,
	src:     "ten",
	err:     `unexpected value type: expected Integer, got String \(string\)`,
}, {
	summary: "several characters",
	ty:      value.TypeCharacter,
	src:     "xy",
	err:     `cannot decode "xy" as a single character`,
}, {
	summary: "code point out of range",
	ty:      value.TypeCharacter,
	src:     int64(0x110000),
	err:     `unexpected value type: expected Character, got BigInteger \(int64\)`,
}, {
	summary: "surrogate code point",
	ty:      value.TypeCharacter,
	src:     int64(0xD800),
	err:     `unexpected value type: expected Character, got BigInteger \(int64\)`,
}, {
	summary: "negative code point",
	ty:      value.TypeCharacter,
	src:     int64(-1),
	err:     `unexpected value type: expected Character, got BigInteger \(int64\)`,
}, {
	summary: "invalid json",
	ty:      value.TypeJson,
	src:     "{",
	err:     `invalid json value "\{"`,
}}

func (s *ValueSuite) TestFromDriverErrors(c *C) {
	for i, t := range fromDriverErrorTests {
		_, err := value.FromDriver(t.ty, t.src)
		c.Check(err, ErrorMatches, t.err, Commentf("test %d failed (%s)", i, t.summary))
	}

	_, err := value.FromDriver(value.TypeCharacter, int64(0x110000))
	convErr, ok := err.(*value.ConvertError)
	c.Assert(ok, Equals, true)
	c.Check(convErr.Expected, Equals, value.TypeCharacter)
}

func (s *ValueSuite) TestDriverValues(c *C) {
	c.Check(value.UnsignedBigInteger(5).Driver(), Equals, int64(5))
	c.Check(value.UnsignedBigInteger(1<<64-1).Driver(), Equals, "18446744073709551615")
	c.Check(value.Date{Time: time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)}.Driver(), Equals, "2021-03-04")
	c.Check(value.Null{Of: value.TypeString}.Driver(), IsNil)
}

func (s *ValueSuite) TestTypePredicates(c *C) {
	c.Check(value.TypeBigInteger.BitOperate(), Equals, true)
	c.Check(value.TypeBool.BitOperate(), Equals, true)
	c.Check(value.TypeDouble.BitOperate(), Equals, false)
	c.Check(value.TypeDouble.AddOperate(), Equals, true)
	c.Check(value.TypeDateTime.AddOperate(), Equals, true)
	c.Check(value.TypeString.AddOperate(), Equals, false)
	c.Check(value.TypeString.Ord(), Equals, true)
	c.Check(value.TypeJson.Ord(), Equals, false)
	c.Check(value.TypeBinary.Ord(), Equals, false)
	c.Check(value.TypeJson.Eq(), Equals, true)
}
