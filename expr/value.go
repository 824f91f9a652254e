// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package expr

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// ErrUnresolved reports evaluation of a variable that has no assigned value.
var ErrUnresolved = errors.New("unresolved operand")

// ErrShapeMismatch reports operands whose shapes cannot be combined.
var ErrShapeMismatch = errors.New("shape mismatch")

// Value is the result of resolving an operand: a float64 scalar or a
// dense tensor stored row-major in a flat buffer.
type Value struct {
	shape []int // nil for scalars
	data  []float64
}

// Scalar wraps x into a scalar Value.
func Scalar(x float64) Value {
	return Value{data: []float64{x}}
}

func tensor(shape []int, data []float64) Value {
	if shape == nil {
		return Value{data: data}
	}
	return Value{shape: shape, data: data}
}

// IsScalar reports whether v holds a single scalar.
func (v Value) IsScalar() bool {
	return v.shape == nil
}

// Shape returns the tensor shape, nil for scalars.
func (v Value) Shape() []int {
	return slices.Clone(v.shape)
}

// Data returns a copy of the flat row-major buffer.
func (v Value) Data() []float64 {
	return slices.Clone(v.data)
}

// Float returns the scalar value.
func (v Value) Float() (float64, error) {
	if !v.IsScalar() {
		return 0, fmt.Errorf("%w: want scalar, have shape %v", ErrShapeMismatch, v.shape)
	}
	if len(v.data) == 0 {
		return 0, fmt.Errorf("%w: empty value", ErrUnresolved)
	}
	return v.data[0], nil
}

// zip combines two values element-wise, broadcasting a scalar against
// a tensor. Tensor operands must agree on shape exactly.
func zip(a, b Value, f func(x, y float64) float64) (Value, error) {
	switch {
	case a.IsScalar() && b.IsScalar():
		return Scalar(f(a.data[0], b.data[0])), nil
	case a.IsScalar():
		out := make([]float64, len(b.data))
		for i, y := range b.data {
			out[i] = f(a.data[0], y)
		}
		return tensor(slices.Clone(b.shape), out), nil
	case b.IsScalar():
		out := make([]float64, len(a.data))
		for i, x := range a.data {
			out[i] = f(x, b.data[0])
		}
		return tensor(slices.Clone(a.shape), out), nil
	case slices.Equal(a.shape, b.shape):
		out := make([]float64, len(a.data))
		for i, x := range a.data {
			out[i] = f(x, b.data[i])
		}
		return tensor(slices.Clone(a.shape), out), nil
	}
	return Value{}, fmt.Errorf("%w: %v against %v", ErrShapeMismatch, a.shape, b.shape)
}

// apply maps f over every element of v.
func apply(v Value, f func(x float64) float64) Value {
	out := make([]float64, len(v.data))
	for i, x := range v.data {
		out[i] = f(x)
	}
	return tensor(slices.Clone(v.shape), out)
}

func reduceSum(v Value) Value {
	s := 0.0
	for _, x := range v.data {
		s += x
	}
	return Scalar(s)
}

func reduceMin(v Value) (Value, error) {
	if len(v.data) == 0 {
		return Value{}, fmt.Errorf("%w: min of empty array", ErrShapeMismatch)
	}
	m := v.data[0]
	for _, x := range v.data[1:] {
		m = math.Min(m, x)
	}
	return Scalar(m), nil
}

func reduceMax(v Value) (Value, error) {
	if len(v.data) == 0 {
		return Value{}, fmt.Errorf("%w: max of empty array", ErrShapeMismatch)
	}
	m := v.data[0]
	for _, x := range v.data[1:] {
		m = math.Max(m, x)
	}
	return Scalar(m), nil
}

// matmul computes the matrix product of two values:
// vec·vec (dot), mat·vec, vec·mat or mat·mat.
func matmul(a, b Value) (Value, error) {
	ra, rb := len(a.shape), len(b.shape)
	mismatch := func() error {
		return fmt.Errorf("%w: matmul %v against %v", ErrShapeMismatch, a.shape, b.shape)
	}
	switch {
	case ra == 1 && rb == 1:
		if a.shape[0] != b.shape[0] {
			return Value{}, mismatch()
		}
		s := 0.0
		for i, x := range a.data {
			s += x * b.data[i]
		}
		return Scalar(s), nil
	case ra == 2 && rb == 1:
		m, k := a.shape[0], a.shape[1]
		if k != b.shape[0] {
			return Value{}, mismatch()
		}
		out := make([]float64, m)
		for i := 0; i < m; i++ {
			s := 0.0
			for j := 0; j < k; j++ {
				s += a.data[i*k+j] * b.data[j]
			}
			out[i] = s
		}
		return tensor([]int{m}, out), nil
	case ra == 1 && rb == 2:
		k, n := b.shape[0], b.shape[1]
		if a.shape[0] != k {
			return Value{}, mismatch()
		}
		out := make([]float64, n)
		for j := 0; j < n; j++ {
			s := 0.0
			for i := 0; i < k; i++ {
				s += a.data[i] * b.data[i*n+j]
			}
			out[j] = s
		}
		return tensor([]int{n}, out), nil
	case ra == 2 && rb == 2:
		m, k := a.shape[0], a.shape[1]
		if k != b.shape[0] {
			return Value{}, mismatch()
		}
		n := b.shape[1]
		out := make([]float64, m*n)
		for i := 0; i < m; i++ {
			for j := 0; j < n; j++ {
				s := 0.0
				for l := 0; l < k; l++ {
					s += a.data[i*k+l] * b.data[l*n+j]
				}
				out[i*n+j] = s
			}
		}
		return tensor([]int{m, n}, out), nil
	}
	return Value{}, fmt.Errorf("%w: matmul requires vector or matrix operands", ErrShapeMismatch)
}
