// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package value

// Unit is the zero width value.
type Unit struct{}

// Pair is a two element tuple.
type Pair[L, R any] struct {
	First  L
	Second R
}

// Triple is a three element tuple.
type Triple[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

// MakePair returns a Pair of l and r.
func MakePair[L, R any](l L, r R) Pair[L, R] {
	return Pair[L, R]{First: l, Second: r}
}

type unitConverter struct{}

// UnitConverter converts Unit, which occupies no columns.
var UnitConverter Converter[Unit] = unitConverter{}

func (unitConverter) Width() int                        { return 0 }
func (unitConverter) Types() []DatabaseType             { return nil }
func (unitConverter) Serialize(Unit) []DatabaseValue    { return nil }
func (unitConverter) Deserialize(values []DatabaseValue) (Unit, error) {
	return Unit{}, checkWidth(values, 0)
}

type pairConverter[L, R any] struct {
	left  Converter[L]
	right Converter[R]
}

// PairConverter composes l and r. The decomposition of a Pair is the
// decomposition of First followed by the decomposition of Second; values are
// split at l.Width().
func PairConverter[L, R any](l Converter[L], r Converter[R]) Converter[Pair[L, R]] {
	return &pairConverter[L, R]{left: l, right: r}
}

func (c *pairConverter[L, R]) Width() int {
	return c.left.Width() + c.right.Width()
}

func (c *pairConverter[L, R]) Types() []DatabaseType {
	return concat(c.left.Types(), c.right.Types())
}

func (c *pairConverter[L, R]) Serialize(v Pair[L, R]) []DatabaseValue {
	return concat(c.left.Serialize(v.First), c.right.Serialize(v.Second))
}

func (c *pairConverter[L, R]) Deserialize(values []DatabaseValue) (Pair[L, R], error) {
	var p Pair[L, R]
	if err := checkWidth(values, c.Width()); err != nil {
		return p, err
	}
	split := c.left.Width()
	l, err := c.left.Deserialize(values[:split])
	if err != nil {
		return p, err
	}
	r, err := c.right.Deserialize(values[split:])
	if err != nil {
		return p, err
	}
	return Pair[L, R]{First: l, Second: r}, nil
}

type tripleConverter[A, B, C any] struct {
	a Converter[A]
	b Converter[B]
	c Converter[C]
}

// TripleConverter composes a, b and c in order.
func TripleConverter[A, B, C any](a Converter[A], b Converter[B], c Converter[C]) Converter[Triple[A, B, C]] {
	return &tripleConverter[A, B, C]{a: a, b: b, c: c}
}

func (c *tripleConverter[A, B, C]) Width() int {
	return c.a.Width() + c.b.Width() + c.c.Width()
}

func (c *tripleConverter[A, B, C]) Types() []DatabaseType {
	return concat(concat(c.a.Types(), c.b.Types()), c.c.Types())
}

func (c *tripleConverter[A, B, C]) Serialize(v Triple[A, B, C]) []DatabaseValue {
	return concat(concat(c.a.Serialize(v.First), c.b.Serialize(v.Second)), c.c.Serialize(v.Third))
}

func (c *tripleConverter[A, B, C]) Deserialize(values []DatabaseValue) (Triple[A, B, C], error) {
	var t Triple[A, B, C]
	if err := checkWidth(values, c.Width()); err != nil {
		return t, err
	}
	i, j := c.a.Width(), c.a.Width()+c.b.Width()
	a, err := c.a.Deserialize(values[:i])
	if err != nil {
		return t, err
	}
	b, err := c.b.Deserialize(values[i:j])
	if err != nil {
		return t, err
	}
	cv, err := c.c.Deserialize(values[j:])
	if err != nil {
		return t, err
	}
	return Triple[A, B, C]{First: a, Second: b, Third: cv}, nil
}

func concat[T any](a, b []T) []T {
	out := make([]T, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// PairParts returns the converters c was composed from. It reports false
// when c was not built by PairConverter.
func PairParts[L, R any](c Converter[Pair[L, R]]) (Converter[L], Converter[R], bool) {
	pc, ok := c.(*pairConverter[L, R])
	if !ok {
		return nil, nil, false
	}
	return pc.left, pc.right, true
}
