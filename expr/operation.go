// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package expr builds lazy expression graphs over symbolic variables.
//
// Combinators such as Add or Mul never compute anything: they return a new
// graph node that resolves itself on demand from the current variable
// values. Comparisons (Eq, Ge, Le, ...) return a Constraint instead of a
// boolean, ready to be handed to an optimizer together with an objective.
//
//	reg := expr.NewRegistry()
//	a, b := reg.Variable("a"), reg.Variable("b")
//	obj := expr.Sum(expr.Pow(expr.Sub(expr.Add(expr.Mul(a, xs), b), ys), 2))
package expr

import (
	"fmt"
	"reflect"
	"strconv"
)

// Operation is the capability shared by every node of an expression graph:
// producing its current numeric value and participating in further
// combination. The node set is closed: Expression, Constraint, Array,
// Variable and the literals coerced by the combinators.
type Operation interface {
	// Eval resolves the node to its current numeric value.
	// Evaluation recurses through nested nodes and never caches.
	Eval() (Value, error)
	fmt.Stringer
}

// literal is a resolved numeric leaf.
type literal struct {
	v Value
}

func (l literal) Eval() (Value, error) {
	return l.v, nil
}

func (l literal) String() string {
	if f, err := l.v.Float(); err == nil {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return fmt.Sprintf("%v", l.v.data)
}

// operand coerces a supported operand into a graph node: an Operation
// passes through, numeric scalars become literals and (nested) slices
// become Arrays. Anything else is a programmer error.
func operand(v any) Operation {
	switch x := v.(type) {
	case Operation:
		return x
	case Value:
		return literal{x}
	case float64:
		return literal{Scalar(x)}
	case float32:
		return literal{Scalar(float64(x))}
	case int:
		return literal{Scalar(float64(x))}
	case int8:
		return literal{Scalar(float64(x))}
	case int16:
		return literal{Scalar(float64(x))}
	case int32:
		return literal{Scalar(float64(x))}
	case int64:
		return literal{Scalar(float64(x))}
	case uint:
		return literal{Scalar(float64(x))}
	case uint8:
		return literal{Scalar(float64(x))}
	case uint16:
		return literal{Scalar(float64(x))}
	case uint32:
		return literal{Scalar(float64(x))}
	case uint64:
		return literal{Scalar(float64(x))}
	case nil:
		panic("expr: nil operand")
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		a, err := NewArray(v)
		if err != nil {
			panic("expr: " + err.Error())
		}
		return a
	}
	panic(fmt.Sprintf("expr: invalid operand %T", v))
}

// Add returns the deferred node (x + y).
func Add(x, y any) *Expression {
	return newBinary(opAdd, operand(x), operand(y))
}

// Sub returns the deferred node (x - y).
func Sub(x, y any) *Expression {
	return newBinary(opSub, operand(x), operand(y))
}

// Mul returns the deferred node (x * y).
func Mul(x, y any) *Expression {
	return newBinary(opMul, operand(x), operand(y))
}

// Div returns the deferred node (x / y).
func Div(x, y any) *Expression {
	return newBinary(opDiv, operand(x), operand(y))
}

// FloorDiv returns the deferred node (x // y), the floor of the true quotient.
func FloorDiv(x, y any) *Expression {
	return newBinary(opFloorDiv, operand(x), operand(y))
}

// Pow returns the deferred node (x ** y).
func Pow(x, y any) *Expression {
	return newBinary(opPow, operand(x), operand(y))
}

// MatMul returns the deferred matrix product (x @ y).
func MatMul(x, y any) *Expression {
	return newBinary(opMatMul, operand(x), operand(y))
}

// Neg returns the deferred negation of x.
func Neg(x any) *Expression {
	return newUnary(opNeg, operand(x))
}

// Abs returns the deferred absolute value of x.
func Abs(x any) *Expression {
	return newUnary(opAbs, operand(x))
}

// Sum reduces the resolved value of x to the sum of its elements.
func Sum(x any) *Expression {
	return newUnary(opSum, operand(x))
}

// Min reduces the resolved value of x to its smallest element.
func Min(x any) *Expression {
	return newUnary(opMin, operand(x))
}

// Max reduces the resolved value of x to its largest element.
func Max(x any) *Expression {
	return newUnary(opMax, operand(x))
}

// Exp applies the exponential element-wise to the resolved value of x.
func Exp(x any) *Expression {
	return newUnary(opExp, operand(x))
}

// Log applies the natural logarithm element-wise to the resolved value of x.
func Log(x any) *Expression {
	return newUnary(opLog, operand(x))
}

// Eq returns the equality constraint (x == y).
func Eq(x, y any) *Constraint {
	return &Constraint{operand(x), operand(y), Equal}
}

// Ge returns the inequality constraint (x >= y).
func Ge(x, y any) *Constraint {
	return &Constraint{operand(x), operand(y), GreaterEqual}
}

// Le returns the inequality constraint (x <= y).
func Le(x, y any) *Constraint {
	return &Constraint{operand(x), operand(y), LessEqual}
}

// Gt is an alias of Ge: the solver contract knows no strict inequalities,
// so (x > y) is handled as (x >= y).
func Gt(x, y any) *Constraint {
	return Ge(x, y)
}

// Lt is an alias of Le: the solver contract knows no strict inequalities,
// so (x < y) is handled as (x <= y).
func Lt(x, y any) *Constraint {
	return Le(x, y)
}
