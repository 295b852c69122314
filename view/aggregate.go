// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package view

import (
	"github.com/pkg/errors"

	"github.com/dark-flames/yukino-dev-sub000/expr"
	"github.com/dark-flames/yukino-dev-sub000/value"
)

// aggregate builds a call to fn over the single column of v. The result is
// tagged Aggregate only; use Ordered to sort or compare it.
func aggregate[T, R any](fn expr.Function, v View[T], distinct bool, check operandCheck, conv value.Converter[R]) ExprView[R] {
	if err := v.Err(); err != nil {
		return Invalid[R](err)
	}
	exprs := v.Collect()
	if len(exprs) != 1 {
		return Invalid[R](errors.Errorf("%s needs a single column argument, got %d columns", fn, len(exprs)))
	}
	if expr.ContainsAggregate(exprs[0]) {
		return Invalid[R](errors.Errorf("cannot nest aggregate functions in %s", fn))
	}
	if ty := v.Converter().Types()[0]; check != nil && !check(ty) {
		return Invalid[R](errors.Errorf("%s not defined for %s", fn, ty))
	}
	call := &expr.FunctionCall{Func: fn, Distinct: distinct, Args: exprs}
	return ExprView[R]{exprs: []expr.Expr{call}, tags: Tags(Aggregate), conv: conv}
}

// Count counts the rows of the group. A single column view counts the non
// NULL values of that column; a view of any other width, such as an entity,
// counts every row.
func Count[T any](v View[T]) ExprView[int64] {
	if err := v.Err(); err != nil {
		return Invalid[int64](err)
	}
	if len(v.Collect()) != 1 {
		call := &expr.FunctionCall{Func: expr.Count}
		return ExprView[int64]{exprs: []expr.Expr{call}, tags: Tags(Aggregate), conv: value.Int64Converter}
	}
	return aggregate[T, int64](expr.Count, v, false, nil, value.Int64Converter)
}

// CountAll counts every row of the group.
func CountAll() ExprView[int64] {
	call := &expr.FunctionCall{Func: expr.Count}
	return ExprView[int64]{exprs: []expr.Expr{call}, tags: Tags(Aggregate), conv: value.Int64Converter}
}

// CountDistinct counts the distinct non NULL values of v.
func CountDistinct[T any](v View[T]) ExprView[int64] {
	return aggregate[T, int64](expr.Count, v, true, nil, value.Int64Converter)
}

// Sum returns the sum of v. The sum of an empty group is NULL, which fails to
// decode into T; use SumOrNull when the group may be empty.
func Sum[T any](v View[T]) ExprView[T] {
	return aggregate[T, T](expr.Sum, v, false, value.DatabaseType.Numeric, v.Converter())
}

// SumOrNull returns the sum of v, decoding the sum of an empty group to nil.
func SumOrNull[T any](v View[T]) ExprView[*T] {
	return nullableAggregate(expr.Sum, v, value.DatabaseType.Numeric)
}

// Average returns the mean of v as a double.
func Average[T any](v View[T]) ExprView[float64] {
	return aggregate[T, float64](expr.Average, v, false, value.DatabaseType.Numeric, value.Float64Converter)
}

// Min returns the smallest value of v.
func Min[T any](v View[T]) ExprView[T] {
	return aggregate[T, T](expr.Min, v, false, value.DatabaseType.Ord, v.Converter())
}

// MinOrNull returns the smallest value of v, or nil for an empty group.
func MinOrNull[T any](v View[T]) ExprView[*T] {
	return nullableAggregate(expr.Min, v, value.DatabaseType.Ord)
}

// Max returns the largest value of v.
func Max[T any](v View[T]) ExprView[T] {
	return aggregate[T, T](expr.Max, v, false, value.DatabaseType.Ord, v.Converter())
}

// MaxOrNull returns the largest value of v, or nil for an empty group.
func MaxOrNull[T any](v View[T]) ExprView[*T] {
	return nullableAggregate(expr.Max, v, value.DatabaseType.Ord)
}

// BitAndAgg returns the bitwise AND of every value of v.
func BitAndAgg[T any](v View[T]) ExprView[T] {
	return aggregate[T, T](expr.BitAnd, v, false, value.DatabaseType.BitOperate, v.Converter())
}

// BitOrAgg returns the bitwise OR of every value of v.
func BitOrAgg[T any](v View[T]) ExprView[T] {
	return aggregate[T, T](expr.BitOr, v, false, value.DatabaseType.BitOperate, v.Converter())
}

// BitXorAgg returns the bitwise XOR of every value of v.
func BitXorAgg[T any](v View[T]) ExprView[T] {
	return aggregate[T, T](expr.BitXor, v, false, value.DatabaseType.BitOperate, v.Converter())
}

// GroupConcat joins the values of v with separator.
func GroupConcat[T any](v View[T], separator string) ExprView[string] {
	agg := aggregate[T, string](expr.GroupConcat, v, false, nil, value.StringConverter)
	if agg.err != nil {
		return agg
	}
	agg.exprs[0].(*expr.FunctionCall).Separator = expr.Literal(value.String(separator))
	return agg
}

func nullableAggregate[T any](fn expr.Function, v View[T], check operandCheck) ExprView[*T] {
	conv := v.Converter()
	if conv == nil {
		return aggregate[T, *T](fn, v, false, check, nil)
	}
	return aggregate[T, *T](fn, v, false, check, value.Nullable(conv))
}
