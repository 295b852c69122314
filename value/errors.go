// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package value

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConvertError is returned when a decoded DatabaseValue does not have the
// kind a converter expects.
type ConvertError struct {
	Expected DatabaseType
	Actual   DatabaseType
	// Null is set when the unexpected value is a typed null.
	Null bool
	// Source is the raw driver value when the error comes from FromDriver.
	Source any
}

func (e *ConvertError) Error() string {
	if e.Null {
		return fmt.Sprintf("unexpected value type: expected %s, got NULL", e.Expected)
	}
	if e.Source != nil {
		return fmt.Sprintf("unexpected value type: expected %s, got %s (%T)", e.Expected, e.Actual, e.Source)
	}
	return fmt.Sprintf("unexpected value type: expected %s, got %s", e.Expected, e.Actual)
}

// UnexpectedValueType returns a ConvertError for a decoded value of the wrong
// kind.
func UnexpectedValueType(expected DatabaseType, actual DatabaseValue) error {
	var actualType DatabaseType
	if actual != nil {
		actualType = actual.Type()
	}
	return &ConvertError{Expected: expected, Actual: actualType, Null: actual != nil && IsNull(actual)}
}

// widthError is returned when a converter receives the wrong number of values.
func widthError(expected, actual int) error {
	return errors.Errorf("expected %d values to decode, got %d", expected, actual)
}

// checkWidth checks that values has exactly width entries.
func checkWidth(values []DatabaseValue, width int) error {
	if len(values) != width {
		return widthError(width, len(values))
	}
	return nil
}
