// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package expr

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Array is a fixed-shape container whose elements may mix plain numbers,
// variables and sub-expressions. The shape is fixed at construction;
// indexing returns the raw stored element while Eval resolves every element
// independently, without assuming the contents are homogeneous.
type Array struct {
	shape []int
	elems []any // row-major; each element is a float64 or an Operation
}

// NewArray derives the shape of v, an arbitrarily nested combination of
// slices and arrays over numbers and graph nodes, and stores its elements
// flattened in row-major order. Ragged input is rejected.
func NewArray(v any) (*Array, error) {
	shape, err := shapeOf(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	n := 1
	for _, d := range shape {
		n *= d
	}
	a := &Array{shape: shape, elems: make([]any, 0, n)}
	if err := a.flatten(reflect.ValueOf(v), shape); err != nil {
		return nil, err
	}
	return a, nil
}

func shapeOf(rv reflect.Value) ([]int, error) {
	if rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if _, ok := rv.Interface().(Operation); ok {
			return nil, nil
		}
		n := rv.Len()
		if n == 0 {
			return []int{0}, nil
		}
		inner, err := shapeOf(rv.Index(0))
		if err != nil {
			return nil, err
		}
		return append([]int{n}, inner...), nil
	}
	return nil, nil
}

func (a *Array) flatten(rv reflect.Value, shape []int) error {
	if rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	if len(shape) == 0 {
		el, err := leafOf(rv)
		if err != nil {
			return err
		}
		a.elems = append(a.elems, el)
		return nil
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("%w: ragged array input", ErrShapeMismatch)
	}
	if rv.Len() != shape[0] {
		return fmt.Errorf("%w: ragged array input, want %d elements, have %d", ErrShapeMismatch, shape[0], rv.Len())
	}
	for i := 0; i < rv.Len(); i++ {
		if err := a.flatten(rv.Index(i), shape[1:]); err != nil {
			return err
		}
	}
	return nil
}

var float64Type = reflect.TypeOf(float64(0))

func leafOf(rv reflect.Value) (any, error) {
	if !rv.IsValid() {
		return nil, fmt.Errorf("%w: nil array element", ErrUnresolved)
	}
	if op, ok := rv.Interface().(Operation); ok {
		return op, nil
	}
	if rv.CanConvert(float64Type) {
		return rv.Convert(float64Type).Float(), nil
	}
	return nil, fmt.Errorf("expr: array element %s is neither numeric nor an operation", rv.Type())
}

// Shape returns the fixed shape.
func (a *Array) Shape() []int {
	return slices.Clone(a.shape)
}

// Len returns the total number of stored elements.
func (a *Array) Len() int {
	return len(a.elems)
}

// At returns the raw stored element at the given indices, one per dimension.
// The element may itself be a Variable or an Expression, not yet resolved.
func (a *Array) At(idx ...int) any {
	if len(idx) != len(a.shape) {
		panic("expr: index rank mismatch")
	}
	off := 0
	for d, i := range idx {
		if i < 0 || i >= a.shape[d] {
			panic("expr: index out of range")
		}
		off = off*a.shape[d] + i
	}
	return a.elems[off]
}

// Eval resolves every element independently and assembles the result tensor.
// Each element must resolve to a scalar.
func (a *Array) Eval() (Value, error) {
	data := make([]float64, len(a.elems))
	for i, el := range a.elems {
		switch x := el.(type) {
		case float64:
			data[i] = x
		case Operation:
			v, err := x.Eval()
			if err != nil {
				return Value{}, err
			}
			f, err := v.Float()
			if err != nil {
				return Value{}, fmt.Errorf("array element %d: %w", i, err)
			}
			data[i] = f
		}
	}
	return tensor(slices.Clone(a.shape), data), nil
}

func (a *Array) String() string {
	var b strings.Builder
	a.render(&b, a.shape, 0)
	return b.String()
}

func (a *Array) render(b *strings.Builder, shape []int, off int) int {
	if len(shape) == 0 {
		switch x := a.elems[off].(type) {
		case float64:
			b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
		case Operation:
			b.WriteString(name(x))
		}
		return off + 1
	}
	b.WriteByte('[')
	for i := 0; i < shape[0]; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		off = a.render(b, shape[1:], off)
	}
	b.WriteByte(']')
	return off
}
