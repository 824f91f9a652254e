// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package expr

import (
	"math"
)

// opKind tags an Expression with its combining operator.
type opKind uint8

const (
	opAdd opKind = iota
	opSub
	opMul
	opDiv
	opFloorDiv
	opPow
	opMatMul
	opNeg // unary operators from here on
	opAbs
	opSum
	opMin
	opMax
	opExp
	opLog
)

func (k opKind) unary() bool {
	return k >= opNeg
}

// apply combines the resolved operand values. Unary operators ignore l.
func (k opKind) apply(l, r Value) (Value, error) {
	switch k {
	case opAdd:
		return zip(l, r, func(x, y float64) float64 { return x + y })
	case opSub:
		return zip(l, r, func(x, y float64) float64 { return x - y })
	case opMul:
		return zip(l, r, func(x, y float64) float64 { return x * y })
	case opDiv:
		return zip(l, r, func(x, y float64) float64 { return x / y })
	case opFloorDiv:
		return zip(l, r, func(x, y float64) float64 { return math.Floor(x / y) })
	case opPow:
		return zip(l, r, math.Pow)
	case opMatMul:
		return matmul(l, r)
	case opNeg:
		return apply(r, func(y float64) float64 { return -y }), nil
	case opAbs:
		return apply(r, math.Abs), nil
	case opExp:
		return apply(r, math.Exp), nil
	case opLog:
		return apply(r, math.Log), nil
	case opSum:
		return reduceSum(r), nil
	case opMin:
		return reduceMin(r)
	case opMax:
		return reduceMax(r)
	}
	panic("expr: unknown operator")
}

func (k opKind) symbol() string {
	switch k {
	case opAdd:
		return "+"
	case opSub:
		return "-"
	case opMul:
		return "*"
	case opDiv:
		return "/"
	case opFloorDiv:
		return "//"
	case opPow:
		return "**"
	case opMatMul:
		return "@"
	}
	panic("expr: unknown operator")
}

func (k opKind) render(l, r string) string {
	switch k {
	case opNeg:
		return "-" + r
	case opAbs:
		return "abs(" + r + ")"
	case opSum:
		return "sum(" + r + ")"
	case opMin:
		return "min(" + r + ")"
	case opMax:
		return "max(" + r + ")"
	case opExp:
		return "exp(" + r + ")"
	case opLog:
		return "log(" + r + ")"
	}
	return "(" + l + " " + k.symbol() + " " + r + ")"
}

// Expression is a unary or binary operation node. It owns its operands and
// never stores a value: Eval recomputes from the current operand values on
// every call, so mutating a variable is visible immediately.
type Expression struct {
	op    opKind
	left  Operation // nil for unary forms
	right Operation
}

func newBinary(op opKind, l, r Operation) *Expression {
	return &Expression{op: op, left: l, right: r}
}

func newUnary(op opKind, r Operation) *Expression {
	return &Expression{op: op, right: r}
}

// Left returns the left operand, nil for unary forms.
func (e *Expression) Left() Operation {
	return e.left
}

// Right returns the right operand.
func (e *Expression) Right() Operation {
	return e.right
}

// Eval resolves both operands and combines them.
func (e *Expression) Eval() (Value, error) {
	rv, err := e.right.Eval()
	if err != nil {
		return Value{}, err
	}
	if e.op.unary() {
		return e.op.apply(Value{}, rv)
	}
	lv, err := e.left.Eval()
	if err != nil {
		return Value{}, err
	}
	return e.op.apply(lv, rv)
}

func (e *Expression) String() string {
	var l, r string
	if e.left != nil {
		l = name(e.left)
	}
	if e.right != nil {
		r = name(e.right)
	}
	return e.op.render(l, r)
}

// name prefers a variable's bare name over its full rendering.
func name(op Operation) string {
	switch x := op.(type) {
	case nil:
		return ""
	case *Variable:
		return x.Name()
	}
	return op.String()
}

// VariablesOf returns the distinct variables reachable from op, each exactly
// once, in first-visit order. The traversal uses an explicit worklist so deep
// graphs do not exhaust the call stack; a variable reachable through several
// paths is recorded once, keyed by identity.
func VariablesOf(op Operation) []*Variable {
	if op == nil {
		return nil
	}

	var vars []*Variable
	seen := make(map[*Variable]struct{})
	work := []Operation{op}

	for len(work) > 0 {
		cur := work[len(work)-1]
		work = work[:len(work)-1]

		switch x := cur.(type) {
		case *Variable:
			if _, ok := seen[x]; !ok {
				seen[x] = struct{}{}
				vars = append(vars, x)
			}
		case *Expression:
			if x.left != nil {
				work = append(work, x.left)
			}
			if x.right != nil {
				work = append(work, x.right)
			}
		case *Constraint:
			work = append(work, x.left, x.right)
		case *Array:
			for _, el := range x.elems {
				if o, ok := el.(Operation); ok {
					work = append(work, o)
				}
			}
		}
	}
	return vars
}
