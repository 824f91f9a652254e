// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package expr

import (
	"fmt"
)

// Relation classifies a constraint for the optimizer.
type Relation uint8

const (
	// Equal requires (left - right) to be driven to zero.
	Equal Relation = iota + 1
	// GreaterEqual requires (left - right) to stay non-negative.
	GreaterEqual
	// LessEqual requires (right - left) to stay non-negative.
	LessEqual
)

func (r Relation) String() string {
	switch r {
	case Equal:
		return "=="
	case GreaterEqual:
		return ">="
	case LessEqual:
		return "<="
	}
	return fmt.Sprintf("relation(%d)", uint8(r))
}

// Constraint ties two operands with an equality or inequality relation.
// Comparisons deliberately build constraints instead of booleans, so a
// relation can be carried around unevaluated and classified later.
type Constraint struct {
	left, right Operation
	rel         Relation
}

// NewConstraint builds a constraint from raw operands and a relation.
// An unknown relation is rejected here, by name, rather than being allowed
// to vanish silently during problem construction.
func NewConstraint(x, y any, rel Relation) (*Constraint, error) {
	switch rel {
	case Equal, GreaterEqual, LessEqual:
		return &Constraint{operand(x), operand(y), rel}, nil
	}
	return nil, fmt.Errorf("expr: unclassifiable constraint relation %q", rel)
}

// Left returns the left operand.
func (c *Constraint) Left() Operation {
	return c.left
}

// Right returns the right operand.
func (c *Constraint) Right() Operation {
	return c.right
}

// Relation returns the relation kind.
func (c *Constraint) Relation() Relation {
	return c.rel
}

// IsEquality reports whether the relation is (==).
func (c *Constraint) IsEquality() bool {
	return c.rel == Equal
}

// IsGreaterThan reports whether the relation is (>=).
func (c *Constraint) IsGreaterThan() bool {
	return c.rel == GreaterEqual
}

// IsLessThan reports whether the relation is (<=).
func (c *Constraint) IsLessThan() bool {
	return c.rel == LessEqual
}

// Eval resolves both sides and returns the truth value of the relation,
// 1 where it holds and 0 where it does not, element-wise.
func (c *Constraint) Eval() (Value, error) {
	lv, err := c.left.Eval()
	if err != nil {
		return Value{}, err
	}
	rv, err := c.right.Eval()
	if err != nil {
		return Value{}, err
	}
	var holds func(x, y float64) bool
	switch c.rel {
	case Equal:
		holds = func(x, y float64) bool { return x == y }
	case GreaterEqual:
		holds = func(x, y float64) bool { return x >= y }
	case LessEqual:
		holds = func(x, y float64) bool { return x <= y }
	default:
		return Value{}, fmt.Errorf("expr: unclassifiable constraint relation %q", c.rel)
	}
	return zip(lv, rv, func(x, y float64) float64 {
		if holds(x, y) {
			return 1
		}
		return 0
	})
}

func (c *Constraint) String() string {
	return "(" + name(c.left) + " " + c.rel.String() + " " + name(c.right) + ")"
}
