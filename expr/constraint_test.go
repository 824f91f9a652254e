// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package expr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConstraintClassification(t *testing.T) {
	reg := NewRegistry()
	a := reg.Variable("a")
	b := reg.Variable("b")

	cases := []struct {
		name       string
		cons       *Constraint
		eq, ge, le bool
	}{
		{"eq", Eq(a, b), true, false, false},
		{"ge", Ge(a, b), false, true, false},
		{"le", Le(a, b), false, false, true},
		{"gt collapses to ge", Gt(a, b), false, true, false},
		{"lt collapses to le", Lt(a, b), false, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.eq, tc.cons.IsEquality())
			require.Equal(t, tc.ge, tc.cons.IsGreaterThan())
			require.Equal(t, tc.le, tc.cons.IsLessThan())
		})
	}
}

func TestEqualityResidual(t *testing.T) {
	reg := NewRegistry()
	a := reg.Variable("a")
	b := reg.Variable("b")
	a.Set(5)
	b.Set(5)

	c := Eq(a, b)
	require.True(t, c.IsEquality())
	require.Equal(t, 0.0, scalarOf(t, Sub(c.Left(), c.Right())))
}

func TestConstraintTruthValue(t *testing.T) {
	reg := NewRegistry()
	a := reg.Variable("a")
	a.Set(3)

	require.Equal(t, 1.0, scalarOf(t, Le(a, 4)))
	require.Equal(t, 0.0, scalarOf(t, Ge(a, 4)))
	require.Equal(t, 1.0, scalarOf(t, Eq(a, 3)))
}

func TestNewConstraintRejectsUnknownRelation(t *testing.T) {
	reg := NewRegistry()
	a := reg.Variable("a")

	c, err := NewConstraint(a, 1, LessEqual)
	require.NoError(t, err)
	require.True(t, c.IsLessThan())

	_, err = NewConstraint(a, 1, Relation(9))
	require.ErrorContains(t, err, "unclassifiable")
}
