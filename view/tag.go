// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package view

import (
	"fmt"
	"strings"
)

// Tag is a capability marker carried by an expression view.
type Tag uint8

const (
	// Entity marks the projection of a whole entity row.
	Entity Tag = 1 << iota
	// Aggregate marks the result of an aggregate function, or a group key
	// once the query is grouped.
	Aggregate
	// Orderable marks a view that can be sorted and compared with <, <=, >
	// and >=.
	Orderable
	// Constant marks a view built only from literal values.
	Constant
)

var tagNames = []struct {
	tag  Tag
	name string
}{
	{Entity, "Entity"},
	{Aggregate, "Aggregate"},
	{Orderable, "Orderable"},
	{Constant, "Constant"},
}

func (t Tag) String() string {
	for _, n := range tagNames {
		if n.tag == t {
			return n.name
		}
	}
	return fmt.Sprintf("Tag(%d)", uint8(t))
}

// TagSet is a set of tags.
type TagSet uint8

// Tags returns the set containing tags.
func Tags(tags ...Tag) TagSet {
	var s TagSet
	for _, t := range tags {
		s |= TagSet(t)
	}
	return s
}

// Has reports whether t is in s.
func (s TagSet) Has(t Tag) bool {
	return s&TagSet(t) != 0
}

// With returns s with t added.
func (s TagSet) With(t Tag) TagSet {
	return s | TagSet(t)
}

// Without returns s with t removed.
func (s TagSet) Without(t Tag) TagSet {
	return s &^ TagSet(t)
}

func (s TagSet) String() string {
	var names []string
	for _, n := range tagNames {
		if s.Has(n.tag) {
			names = append(names, n.name)
		}
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// TagMergeError is returned when two views with incompatible tags are
// combined.
type TagMergeError struct {
	Left, Right TagSet
}

func (e *TagMergeError) Error() string {
	switch {
	case e.Left.Has(Entity) && e.Right.Has(Entity):
		return "cannot combine two entity views"
	default:
		return fmt.Sprintf("cannot combine an entity view with an aggregate view (%s and %s)", e.Left, e.Right)
	}
}

// MergeTags returns the tags of a view derived from two operands with tags
// a and b. Two entity views, or an entity and an aggregate view, cannot be
// combined. The result is:
//   - Orderable if both operands are Orderable,
//   - Aggregate if both operands are Aggregate or Constant and at least one
//     is Aggregate,
//   - Constant if both operands are Constant.
//
// The result never carries Entity.
func MergeTags(a, b TagSet) (TagSet, error) {
	if a.Has(Entity) && b.Has(Entity) {
		return 0, &TagMergeError{Left: a, Right: b}
	}
	if (a.Has(Entity) && b.Has(Aggregate)) || (a.Has(Aggregate) && b.Has(Entity)) {
		return 0, &TagMergeError{Left: a, Right: b}
	}
	var s TagSet
	if a.Has(Orderable) && b.Has(Orderable) {
		s = s.With(Orderable)
	}
	aggOrConst := func(t TagSet) bool { return t.Has(Aggregate) || t.Has(Constant) }
	if aggOrConst(a) && aggOrConst(b) && (a.Has(Aggregate) || b.Has(Aggregate)) {
		s = s.With(Aggregate)
	}
	if a.Has(Constant) && b.Has(Constant) {
		s = s.With(Constant)
	}
	return s, nil
}

// mergeAll folds MergeTags over sets. An empty list yields the tags of a
// constant.
func mergeAll(sets ...TagSet) (TagSet, error) {
	if len(sets) == 0 {
		return Tags(Constant, Orderable), nil
	}
	acc := sets[0]
	for _, s := range sets[1:] {
		var err error
		if acc, err = MergeTags(acc, s); err != nil {
			return 0, err
		}
	}
	return acc, nil
}

// mergeTupleTags returns the tags of a tuple of views with tags sets. Unlike
// MergeTags several entities may be grouped in a tuple, but entity rows and
// aggregates cannot be mixed.
func mergeTupleTags(sets ...TagSet) (TagSet, error) {
	var union TagSet
	for _, s := range sets {
		union |= s
	}
	if union.Has(Entity) && union.Has(Aggregate) {
		return 0, &TagMergeError{Left: union.Without(Aggregate), Right: union.Without(Entity)}
	}
	stripped := make([]TagSet, len(sets))
	for i, s := range sets {
		stripped[i] = s.Without(Entity)
	}
	return mergeAll(stripped...)
}
