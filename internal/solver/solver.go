// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package solver implements the bound-aware Newton iteration: full
// Newton steps relaxed against the model's strictly positive bound
// expressions, a pluggable sparse direct linear solver, and
// per-iteration diagnostics on a configurable sink.
package solver

import (
	"fmt"
	"io"
	"math"
	"time"

	gio "github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/utl"

	"github.com/VolkerSiep/SigmaMu/internal/numeric"
	"github.com/VolkerSiep/SigmaMu/internal/sigmaerr"
	"github.com/VolkerSiep/SigmaMu/internal/util"
)

// Callback is invoked after every accepted step; returning false aborts
// the solve with IterativeProcessInterrupted.
type Callback func(iter int, rep IterationReport, x []float64, props func() (util.Nested, error)) bool

// Config tunes one solve. The zero value is usable.
type Config struct {
	MaxIter  int     // iteration budget; default 30
	Gamma    float64 // bound-step margin; default 0.9
	LinSol   string  // sparse backend name for la.GetSolver; default "umfpack"
	Out      io.Writer
	ShowR    bool // stream one report line per iteration to Out
	Callback Callback
}

func (c Config) withDefaults() Config {
	if c.MaxIter == 0 {
		c.MaxIter = 30
	}
	if c.Gamma == 0 {
		c.Gamma = 0.9
	}
	if c.LinSol == "" {
		c.LinSol = "umfpack"
	}
	return c
}

// IterationReport is the diagnostic record of one iteration.
type IterationReport struct {
	Iter          int
	LMET          float64
	Alpha         float64
	Wallclock     time.Duration
	LimitingBound string
	MaxResidual   string
}

// Columns names the report stream's columns.
func Columns() []string {
	return []string{"Iter", "LMET", "Alpha", "Time", "Limit on bound", "Max residual"}
}

// ToRow renders the record for the external report table.
func (r IterationReport) ToRow() []string {
	return []string{
		gio.Sf("%d", r.Iter),
		gio.Sf("%.4f", r.LMET),
		gio.Sf("%.4f", r.Alpha),
		gio.Sf("%v", r.Wallclock),
		r.LimitingBound,
		r.MaxResidual,
	}
}

// Report is the outcome of a solve: the iteration trail, the final
// state and a property callable over it.
type Report struct {
	Converged  bool
	Iterations []IterationReport
	FinalState []float64
	Props      func() (util.Nested, error)
}

// Solve drives the handler's state to convergence. On success the
// handler's x holds the solution; on failure it holds the last accepted
// step, never the rejected trial.
func Solve(h *numeric.Handler, cfg Config) (*Report, error) {
	cfg = cfg.withDefaults()
	rep := &Report{Props: h.PropertyFunc()}

	if h.NumResiduals() != h.NumStates() {
		return rep, sigmaerr.New(sigmaerr.NonSquareSystem, "", "%d residuals vs %d states", h.NumResiduals(), h.NumStates())
	}

	if cfg.ShowR && cfg.Out != nil {
		fmt.Fprintf(cfg.Out, "%6s%12s%10s%14s  %-28s%-28s\n",
			"Iter", "LMET", "Alpha", "Time", "Limit on bound", "Max residual")
	}

	start := time.Now()
	for it := 0; ; it++ {
		if it > cfg.MaxIter {
			rep.FinalState = append([]float64(nil), h.X...)
			return rep, sigmaerr.New(sigmaerr.IterativeProcessFailed, "", "iteration limit %d exhausted", cfg.MaxIter)
		}

		r, jr, err := h.ResidualsJacobian()
		if err != nil {
			return rep, err
		}
		lmet, worst := logMaxErr(r, h.ResidualNames())

		if lmet < 0 {
			// converged; report the final evaluation as an idempotent
			// iteration so a warm start still emits one record
			ir := IterationReport{Iter: it, LMET: lmet, Alpha: 0, Wallclock: time.Since(start), MaxResidual: worst}
			rep.Iterations = append(rep.Iterations, ir)
			emit(cfg, ir)
			rep.Converged = true
			rep.FinalState = append([]float64(nil), h.X...)
			return rep, nil
		}

		dx, err := linSolve(cfg.LinSol, jr, r, h.StateNames())
		if err != nil {
			return rep, err
		}

		// relax the step against the bounds: x + alpha*dx must keep
		// every bound strictly positive
		b, jb, err := h.BoundsJacobian()
		if err != nil {
			return rep, err
		}
		alpha, limiting := stepFactor(cfg.Gamma, b, jb, dx, h.BoundNames())

		for i := range h.X {
			h.X[i] += alpha * dx[i]
		}
		if err := h.Relax(); err != nil {
			return rep, err
		}

		ir := IterationReport{
			Iter: it, LMET: lmet, Alpha: alpha,
			Wallclock:     time.Since(start),
			LimitingBound: limiting,
			MaxResidual:   worst,
		}
		rep.Iterations = append(rep.Iterations, ir)
		emit(cfg, ir)

		if cfg.Callback != nil && !cfg.Callback(it, ir, h.X, rep.Props) {
			return rep, sigmaerr.New(sigmaerr.IterativeProcessInterrupted, "", "user callback aborted at iteration %d", it)
		}
	}
}

func emit(cfg Config, ir IterationReport) {
	if !cfg.ShowR || cfg.Out == nil {
		return
	}
	fmt.Fprintf(cfg.Out, "%6d%12.4f%10.4f%14v  %-28s%-28s\n",
		ir.Iter, ir.LMET, ir.Alpha, ir.Wallclock.Round(time.Microsecond), ir.LimitingBound, ir.MaxResidual)
}

// logMaxErr is LMET = log10 max|r_i| over the tolerance-scaled
// residuals, with the offender's qualified name.
func logMaxErr(r []float64, names []string) (float64, string) {
	maxAbs, worst := 0.0, ""
	for i, v := range r {
		if a := math.Abs(v); a > maxAbs {
			maxAbs = a
			worst = names[i]
		}
	}
	if maxAbs == 0 {
		return math.Inf(-1), worst
	}
	return math.Log10(maxAbs), worst
}

// linSolve solves J*dx = -r through the pluggable sparse backend.
func linSolve(backend string, jr *la.Triplet, r []float64, stateNames []string) ([]float64, error) {
	neg := make([]float64, len(r))
	for i, v := range r {
		neg[i] = -v
	}
	dx := make([]float64, len(r))

	lis := la.GetSolver(backend)
	defer lis.Clean()
	if err := lis.InitR(jr, false, false, false); err != nil {
		return nil, sigmaerr.New(sigmaerr.SingularJacobian, "", "linear solver init: %v", err)
	}
	if err := lis.Fact(); err != nil {
		vars := suspectVariables(jr, stateNames)
		return nil, sigmaerr.New(sigmaerr.SingularJacobian, "", "factorisation failed (%v); suspect variables: %v", err, vars)
	}
	if err := lis.SolveR(dx, neg, false); err != nil {
		return nil, sigmaerr.New(sigmaerr.SingularJacobian, "", "solve failed: %v", err)
	}
	for _, v := range dx {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, sigmaerr.New(sigmaerr.NumericBreak, "", "non-finite Newton step")
		}
	}
	return dx, nil
}

// suspectVariables estimates the variable set of a near-null right
// singular direction by dense Gaussian elimination with partial
// pivoting: the columns whose pivot collapses are the ones the
// Jacobian cannot resolve.
func suspectVariables(jr *la.Triplet, names []string) []string {
	m := jr.ToMatrix(nil).ToDense()
	nrow := len(m)
	if nrow == 0 {
		return nil
	}
	ncol := len(m[0])
	a := make([][]float64, nrow)
	for i := range m {
		a[i] = append([]float64(nil), m[i]...)
	}

	maxAbs := 0.0
	for i := range a {
		for j := range a[i] {
			maxAbs = utl.Max(maxAbs, math.Abs(a[i][j]))
		}
	}
	if maxAbs == 0 {
		return append([]string(nil), names...)
	}
	tol := 1e-12 * maxAbs

	var suspects []string
	row := 0
	for col := 0; col < ncol && row < nrow; col++ {
		pivot, pr := 0.0, -1
		for i := row; i < nrow; i++ {
			if v := math.Abs(a[i][col]); v > pivot {
				pivot, pr = v, i
			}
		}
		if pivot <= tol {
			if col < len(names) {
				suspects = append(suspects, names[col])
			}
			continue
		}
		a[row], a[pr] = a[pr], a[row]
		for i := row + 1; i < nrow; i++ {
			f := a[i][col] / a[row][col]
			for j := col; j < ncol; j++ {
				a[i][j] -= f * a[row][j]
			}
		}
		row++
	}
	return suspects
}

// stepFactor relaxes a full Newton step against the bound expressions:
// alpha = min(1, gamma*min{-b_i/db_i : db_i < 0}).
func stepFactor(gamma float64, b []float64, jb *la.Triplet, dx []float64, names []string) (float64, string) {
	if len(b) == 0 {
		return 1, ""
	}
	db := make([]float64, len(b))
	la.SpMatVecMul(db, 1, jb.ToMatrix(nil), dx)

	alphaBound, limiting := math.Inf(1), ""
	for i := range b {
		if db[i] >= 0 {
			continue
		}
		if a := -b[i] / db[i]; a < alphaBound {
			alphaBound = a
			limiting = names[i]
		}
	}
	alpha := utl.Min(1, gamma*alphaBound)
	if alpha == 1 {
		return 1, ""
	}
	return alpha, limiting
}
