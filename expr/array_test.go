// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package expr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArrayShape(t *testing.T) {
	a, err := NewArray([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	require.Equal(t, []int{2, 3}, a.Shape())
	require.Equal(t, 6, a.Len())
	require.Equal(t, 6.0, a.At(1, 2))
}

func TestArrayRawIndexing(t *testing.T) {
	reg := NewRegistry()
	v := reg.Variable("v")
	e := Add(v, 1)

	a, err := NewArray([]any{v, e, 2})
	require.NoError(t, err)

	// indexing returns the stored element, not its resolved value
	require.Same(t, v, a.At(0))
	require.Same(t, e, a.At(1))
	require.Equal(t, 2.0, a.At(2))
}

func TestArrayEvalMixed(t *testing.T) {
	reg := NewRegistry()
	v := reg.Variable("v")
	v.Set(5)

	a, err := NewArray([]any{v, Add(v, 1), 2})
	require.NoError(t, err)

	val, err := a.Eval()
	require.NoError(t, err)
	require.Equal(t, []float64{5, 6, 2}, val.Data())

	// element-wise resolution sees mutations immediately
	v.Set(7)
	val, err = a.Eval()
	require.NoError(t, err)
	require.Equal(t, []float64{7, 8, 2}, val.Data())
}

func TestArrayEvalUnresolved(t *testing.T) {
	reg := NewRegistry()
	v := reg.Variable("v")

	a, err := NewArray([]any{1, v})
	require.NoError(t, err)
	_, err = a.Eval()
	require.ErrorIs(t, err, ErrUnresolved)
}

func TestArrayRagged(t *testing.T) {
	_, err := NewArray([][]float64{{1}, {2, 3}})
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestArrayMixedIntKinds(t *testing.T) {
	a, err := NewArray([]any{1, int32(2), 3.5})
	require.NoError(t, err)
	v, err := a.Eval()
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 3.5}, v.Data())
}

func TestArrayIndexPanics(t *testing.T) {
	a, err := NewArray([]float64{1, 2})
	require.NoError(t, err)
	require.Panics(t, func() { a.At(0, 0) })
	require.Panics(t, func() { a.At(2) })
}

func TestArrayString(t *testing.T) {
	reg := NewRegistry()
	v := reg.Variable("v")

	a, err := NewArray([]any{v, 2})
	require.NoError(t, err)
	require.Equal(t, "[v 2]", a.String())

	m, err := NewArray([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	require.Equal(t, "[[1 2] [3 4]]", m.String())
}
