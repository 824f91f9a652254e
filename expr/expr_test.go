// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package expr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func scalarOf(t *testing.T, op Operation) float64 {
	t.Helper()
	v, err := op.Eval()
	require.NoError(t, err)
	f, err := v.Float()
	require.NoError(t, err)
	return f
}

func TestDeferredArithmetic(t *testing.T) {
	cases := []struct {
		name string
		node *Expression
		want float64
	}{
		{"add", Add(2, 3), 5},
		{"sub", Sub(7, 2), 5},
		{"mul", Mul(3, 4), 12},
		{"div", Div(1, 8), 0.125},
		{"floordiv", FloorDiv(7, 2), 3},
		{"floordiv negative", FloorDiv(-7, 2), -4},
		{"pow", Pow(2, 10), 1024},
		{"neg", Neg(3), -3},
		{"abs", Abs(-2.5), 2.5},
		{"exp", Exp(0), 1},
		{"log", Log(1), 0},
		{"sum", Sum([]float64{1, 2, 3}), 6},
		{"min", Min([]float64{3, 1, 2}), 1},
		{"max", Max([]float64{3, 1, 2}), 3},
		{"dot", MatMul([]float64{1, 2, 3}, []float64{4, 5, 6}), 32},
		{"nested", Mul(Add(1, 2), Sub(10, 6)), 12},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, scalarOf(t, tc.node))
		})
	}
}

func TestVariableMutation(t *testing.T) {
	reg := NewRegistry()
	a := reg.Variable("a")
	b := reg.Variable("b")
	a.Set(1)
	b.Set(2)

	e := Add(a, b)
	require.Equal(t, 3.0, scalarOf(t, e))

	// no caching of stale values
	a.Set(10)
	require.Equal(t, 12.0, scalarOf(t, e))

	// idempotent without mutation in between
	require.Equal(t, scalarOf(t, e), scalarOf(t, e))
}

func TestUnresolvedVariable(t *testing.T) {
	reg := NewRegistry()
	a := reg.Variable("alpha")

	_, err := Add(a, 1).Eval()
	require.ErrorIs(t, err, ErrUnresolved)
	require.ErrorContains(t, err, "alpha")
}

func TestVariableRegistry(t *testing.T) {
	reg := NewRegistry()
	a := reg.Variable("")
	b := reg.Variable("beta")

	require.Equal(t, uint64(0), a.ID())
	require.Equal(t, "var0", a.Name())
	require.Equal(t, uint64(1), b.ID())
	require.Equal(t, 2, reg.Size())
	require.Same(t, a, reg.Get(0))
	require.Same(t, b, reg.Get(1))
	require.Nil(t, reg.Get(2))
}

func TestVariablesDeduplicated(t *testing.T) {
	reg := NewRegistry()
	v := reg.Variable("v")

	require.Len(t, VariablesOf(Mul(v, v)), 1)
	require.Len(t, VariablesOf(Add(v, Mul(v, 2))), 1)

	a := reg.Variable("a")
	x := reg.Variable("x")
	vars := VariablesOf(Add(Mul(a, x), a)) // a through two paths
	require.Len(t, vars, 2)
	require.Contains(t, vars, a)
	require.Contains(t, vars, x)
}

func TestVariablesThroughArray(t *testing.T) {
	reg := NewRegistry()
	a := reg.Variable("a")
	b := reg.Variable("b")

	vars := VariablesOf(Sum([]any{a, Mul(b, 2), 3.0}))
	require.Len(t, vars, 2)
	require.Contains(t, vars, a)
	require.Contains(t, vars, b)
}

func TestVariablesOrderDeterministic(t *testing.T) {
	reg := NewRegistry()
	a := reg.Variable("a")
	b := reg.Variable("b")
	c := reg.Variable("c")

	root := Add(Mul(a, b), c)
	first := VariablesOf(root)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, VariablesOf(root))
	}
}

func TestRendering(t *testing.T) {
	reg := NewRegistry()
	a := reg.Variable("a")
	b := reg.Variable("b")

	require.Equal(t, "(a + b)", Add(a, b).String())
	require.Equal(t, "-a", Neg(a).String())
	require.Equal(t, "abs(a)", Abs(a).String())
	require.Equal(t, "sum((a * b))", Sum(Mul(a, b)).String())
	require.Equal(t, "(a == b)", Eq(a, b).String())
	require.Equal(t, "((a ** 2) <= 4)", Le(Pow(a, 2), 4).String())

	require.Equal(t, "<a>", a.String())
	a.Set(1.2345)
	require.Equal(t, "<a: 1.2345>", a.String())
}

func TestInvalidOperandPanics(t *testing.T) {
	require.Panics(t, func() { Add("not a number", 1) })
	require.Panics(t, func() { Add(nil, 1) })
}
