// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package nlp adapts expression graphs to nonlinear programming solvers.
//
// A Problem consumes one objective expression and any number of constraints,
// discovers the participating variables and turns the graph into the
// closures a solver expects. Gradients the graph cannot provide are
// approximated by forward finite differences.
package nlp

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/curioloop/optimizer/lbfgsb"
	"github.com/curioloop/optimizer/numdiff"
	"github.com/curioloop/optimizer/slsqp"

	"github.com/curioloop/symfit/expr"
	"github.com/curioloop/symfit/logger"
)

// Method selects the solving algorithm.
type Method uint8

const (
	// SLSQP is sequential least squares programming: the default, and the
	// only method accepting general equality and inequality constraints.
	SLSQP Method = iota
	// LBFGSB is limited-memory BFGS with bound constraints only.
	LBFGSB
)

func (m Method) String() string {
	switch m {
	case SLSQP:
		return "SLSQP"
	case LBFGSB:
		return "L-BFGS-B"
	}
	return fmt.Sprintf("method(%d)", uint8(m))
}

// Bound limits one variable. An infinite side is treated as open.
type Bound struct {
	Lower, Upper float64
}

// Option configures a Problem.
type Option func(*Problem)

// WithTolerance sets the solver accuracy, 1e-6 by default.
func WithTolerance(tol float64) Option {
	return func(p *Problem) { p.tol = tol }
}

// WithMaxIterations caps the solver iterations, 100 by default.
func WithMaxIterations(n int) Option {
	return func(p *Problem) { p.maxIter = n }
}

// WithBounds sets per-variable bounds, aligned with the discovered
// variable order.
func WithBounds(bounds []Bound) Option {
	return func(p *Problem) { p.bounds = slices.Clone(bounds) }
}

// WithMethod selects the solving algorithm.
func WithMethod(m Method) Option {
	return func(p *Problem) { p.method = m }
}

const (
	defaultTolerance = 1e-6
	defaultMaxIter   = 100
	lbfgsCorrections = 10
)

// Problem translates an expression graph and constraint set into
// solver-ready closures and writes the optimum back onto the variables.
// A Problem drives one optimization at a time: concurrent runs must not
// share variables (use disjoint registries).
type Problem struct {
	objective   expr.Operation
	constraints []*expr.Constraint
	vars        []*expr.Variable

	tol     float64
	maxIter int
	method  Method
	bounds  []Bound

	evalErr error // first evaluation failure inside a solver callback
}

// New builds a problem around the given objective. Variable discovery runs
// on the objective: its first-visit order fixes the mapping between the
// variables and the solver's flat vector. A variable appearing only in a
// constraint is treated as a fixed parameter and must already hold a value.
func New(objective expr.Operation, constraints []*expr.Constraint, opts ...Option) (*Problem, error) {
	if objective == nil {
		return nil, errors.New("nlp: objective is required")
	}

	p := &Problem{
		objective:   objective,
		constraints: slices.Clone(constraints),
		tol:         defaultTolerance,
		maxIter:     defaultMaxIter,
	}
	for _, opt := range opts {
		opt(p)
	}

	switch {
	case p.tol <= 0:
		return nil, errors.New("nlp: tolerance must be greater than 0")
	case p.maxIter <= 0:
		return nil, errors.New("nlp: max iterations must be greater than 0")
	case p.method == LBFGSB && len(p.constraints) > 0:
		return nil, errors.New("nlp: L-BFGS-B accepts bounds but no general constraints")
	}

	p.vars = expr.VariablesOf(objective)
	if len(p.vars) == 0 {
		return nil, errors.New("nlp: objective contains no variables")
	}
	if p.bounds != nil && len(p.bounds) != len(p.vars) {
		return nil, fmt.Errorf("nlp: have %d bounds for %d variables", len(p.bounds), len(p.vars))
	}

	solved := make(map[*expr.Variable]struct{}, len(p.vars))
	for _, v := range p.vars {
		solved[v] = struct{}{}
	}
	for i, c := range p.constraints {
		if c == nil {
			return nil, fmt.Errorf("nlp: constraint %d is nil", i)
		}
		if !c.IsEquality() && !c.IsGreaterThan() && !c.IsLessThan() {
			return nil, fmt.Errorf("nlp: constraint %d: unclassifiable relation %q", i, c.Relation())
		}
		for _, v := range expr.VariablesOf(c) {
			if _, ok := solved[v]; ok {
				continue
			}
			if _, set := v.Value(); !set {
				return nil, fmt.Errorf("%w: constraint %d references %s, which is outside the objective and has no value",
					expr.ErrUnresolved, i, v.Name())
			}
		}
	}

	return p, nil
}

// Variables returns the discovered variables in solver-vector order.
func (p *Problem) Variables() []*expr.Variable {
	return slices.Clone(p.vars)
}

// InitialGuess produces the solver's starting vector: the variable's current
// value where one is assigned, 1.0 otherwise. The solver never mutates it.
func (p *Problem) InitialGuess() []float64 {
	x := make([]float64, len(p.vars))
	for i, v := range p.vars {
		x[i] = 1
		if val, ok := v.Value(); ok {
			x[i] = val
		}
	}
	return x
}

// assign writes a candidate vector onto the variables, positionally.
func (p *Problem) assign(x []float64) {
	for i, v := range p.vars {
		v.Set(x[i])
	}
}

// fail records the first callback failure and aborts the current solver
// iteration; the solver recovers the panic and reports a failed status.
func (p *Problem) fail(err error) {
	if p.evalErr == nil {
		p.evalErr = err
	}
	panic(err)
}

// scalar builds the assign-then-evaluate closure for root.
func (p *Problem) scalar(root expr.Operation) func(x []float64) float64 {
	return func(x []float64) float64 {
		p.assign(x)
		v, err := root.Eval()
		if err != nil {
			p.fail(err)
		}
		f, err := v.Float()
		if err != nil {
			p.fail(err)
		}
		return f
	}
}

// evaluation adapts a graph to the solver contract: value only when g is
// nil, forward-difference gradient filled into g otherwise.
func (p *Problem) evaluation(root expr.Operation) func(x, g []float64) float64 {
	fn := p.scalar(root)
	n := len(p.vars)
	diff := &numdiff.ApproxSpec{
		N:      n,
		M:      1,
		Method: numdiff.Forward,
		Object: func(x, y []float64) { y[0] = fn(x) },
	}
	return func(x, g []float64) float64 {
		f := fn(x)
		if g != nil {
			if err := diff.Diff(x, g[:n]); err != nil {
				p.fail(err)
			}
		}
		return f
	}
}

// residual builds the expression whose sign encodes the relation: zero for
// equalities, non-negative for inequalities (the (<=) side is flipped so
// both inequality kinds present the same contract to the solver).
func residual(c *expr.Constraint) expr.Operation {
	if c.IsLessThan() {
		return expr.Sub(c.Right(), c.Left())
	}
	return expr.Sub(c.Left(), c.Right())
}

// Result is the outcome of one Minimize call.
type Result struct {
	Converged  bool      // whether the solver reported convergence
	Objective  float64   // final objective value
	X          []float64 // final iterate, already written back to the variables
	Iterations int
}

// Minimize drives the solver from InitialGuess and writes the reported
// vector back onto the variables, whether or not the solver converged;
// inspect Result.Converged before trusting the optimum. Only evaluation
// failures inside the callbacks surface as errors.
func (p *Problem) Minimize() (*Result, error) {
	log := logger.Logger().With().Str("method", p.method.String()).Logger()
	log.Debug().
		Int("variables", len(p.vars)).
		Int("constraints", len(p.constraints)).
		Msg("solving nonlinear program")

	p.evalErr = nil
	x0 := p.InitialGuess()

	var res *Result
	var err error
	switch p.method {
	case SLSQP:
		res, err = p.runSLSQP(x0)
	case LBFGSB:
		res, err = p.runLBFGSB(x0)
	default:
		return nil, fmt.Errorf("nlp: unknown method %q", p.method)
	}
	if err != nil {
		return nil, err
	}
	if p.evalErr != nil {
		return nil, p.evalErr
	}

	p.assign(res.X)
	log.Debug().
		Bool("converged", res.Converged).
		Float64("objective", res.Objective).
		Int("iterations", res.Iterations).
		Msg("solver finished")
	return res, nil
}

func (p *Problem) runSLSQP(x0 []float64) (*Result, error) {
	var eq, neq []slsqp.Evaluation
	for _, c := range p.constraints {
		ev := p.evaluation(residual(c))
		if c.IsEquality() {
			eq = append(eq, ev)
		} else {
			neq = append(neq, ev)
		}
	}

	sp := slsqp.Problem{
		N:       len(p.vars),
		Stop:    slsqp.Termination{Accuracy: p.tol, MaxIterations: p.maxIter},
		Object:  p.evaluation(p.objective),
		EqCons:  eq,
		NeqCons: neq,
		Bounds:  p.slsqpBounds(),
	}
	opt, err := sp.New()
	if err != nil {
		return nil, fmt.Errorf("nlp: %w", err)
	}
	r := opt.Fit(x0, opt.Init())
	return &Result{Converged: r.OK, Objective: r.F, X: r.X, Iterations: r.NumIter}, nil
}

func (p *Problem) runLBFGSB(x0 []float64) (*Result, error) {
	bp := lbfgsb.Problem{
		N:    len(p.vars),
		M:    lbfgsCorrections,
		Eval: p.evaluation(p.objective),
		Stop: lbfgsb.Termination{
			MaxIterations:     p.maxIter,
			EpsAccuracyFactor: 1e7,
			ProjGradTolerance: p.tol,
		},
		Bounds: p.lbfgsBounds(),
	}
	opt, err := bp.New(nil)
	if err != nil {
		return nil, fmt.Errorf("nlp: %w", err)
	}
	r := opt.Fit(x0, opt.Init())
	return &Result{Converged: r.OK, Objective: r.F, X: r.X, Iterations: r.NumIter}, nil
}

func (p *Problem) slsqpBounds() []slsqp.Bound {
	if p.bounds == nil {
		return nil
	}
	out := make([]slsqp.Bound, len(p.bounds))
	for i, b := range p.bounds {
		out[i] = slsqp.Bound{Lower: b.Lower, Upper: b.Upper}
	}
	return out
}

func (p *Problem) lbfgsBounds() []lbfgsb.Bound {
	if p.bounds == nil {
		return nil
	}
	// L-BFGS-B marks an open side with NaN rather than an infinity.
	side := func(x float64) float64 {
		if math.IsInf(x, 0) {
			return math.NaN()
		}
		return x
	}
	out := make([]lbfgsb.Bound, len(p.bounds))
	for i, b := range p.bounds {
		out[i] = lbfgsb.Bound{Lower: side(b.Lower), Upper: side(b.Upper)}
	}
	return out
}

// String renders the problem statement.
func (p *Problem) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "minimise %s", p.objective)
	if len(p.constraints) > 0 {
		b.WriteString("\ns.t.")
		for _, c := range p.constraints {
			b.WriteByte('\n')
			b.WriteString(c.String())
		}
	}
	return b.String()
}
