// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package expr

import (
	"fmt"
	"strconv"
)

// Registry creates and indexes the variables of one modeling session.
// It is append-only: ids are assigned monotonically and never reused, so a
// variable can be recovered from the numeric identity found during a graph
// traversal. Registries are not safe for concurrent use, and two solver runs
// must not share variables; give each run its own registry.
type Registry struct {
	vars []*Variable
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return new(Registry)
}

// Variable creates a new variable with no assigned value.
// An empty name defaults to "var<id>".
func (r *Registry) Variable(name string) *Variable {
	id := uint64(len(r.vars))
	if name == "" {
		name = "var" + strconv.FormatUint(id, 10)
	}
	v := &Variable{id: id, name: name}
	r.vars = append(r.vars, v)
	return v
}

// Get returns the variable with the given id, or nil.
func (r *Registry) Get(id uint64) *Variable {
	if id >= uint64(len(r.vars)) {
		return nil
	}
	return r.vars[id]
}

// Size returns the number of variables created so far.
func (r *Registry) Size() int {
	return len(r.vars)
}

// Variable is a named mutable scalar placeholder. Its current value is the
// evaluation point of every expression containing it: the optimizer writes a
// candidate here before each evaluation and commits the optimum at the end.
type Variable struct {
	id   uint64
	name string
	val  float64
	set  bool
}

// ID returns the registry-unique identity.
func (v *Variable) ID() uint64 {
	return v.id
}

// Name returns the display name.
func (v *Variable) Name() string {
	return v.name
}

// Set assigns the current value.
func (v *Variable) Set(x float64) {
	v.val, v.set = x, true
}

// Value returns the current value and whether one has been assigned.
func (v *Variable) Value() (float64, bool) {
	return v.val, v.set
}

// Eval returns the current value, or ErrUnresolved when none is assigned.
// Absence is never treated as zero.
func (v *Variable) Eval() (Value, error) {
	if !v.set {
		return Value{}, fmt.Errorf("%w: variable %s has no value", ErrUnresolved, v.name)
	}
	return Scalar(v.val), nil
}

func (v *Variable) String() string {
	if v.set {
		return fmt.Sprintf("<%s: %.4f>", v.name, v.val)
	}
	return "<" + v.name + ">"
}
