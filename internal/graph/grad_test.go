// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph_test

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/VolkerSiep/SigmaMu/internal/graph"
)

// TestGradMatchesReverseMode checks the symbolically built derivative
// expressions against the numeric reverse-mode Jacobian of the same
// function at a handful of points.
func TestGradMatchesReverseMode(t *testing.T) {
	tab := graph.NewSymbolTable()
	xs, err := tab.Symbol("x", 3)
	if err != nil {
		t.Fatal(err)
	}
	x0, x1, x2 := xs[0], xs[1], xs[2]

	quot, err := x0.Div(x2)
	if err != nil {
		t.Fatal(err)
	}
	expr := x0.Mul(x1).Log().Add(quot.Exp()).Add(x1.Sqrt().Mul(x2.Sq()))

	grads := graph.Grad(expr, xs)
	progG, err := graph.Compile(xs, grads)
	if err != nil {
		t.Fatal(err)
	}
	progF, err := graph.Compile(xs, []*graph.Node{expr})
	if err != nil {
		t.Fatal(err)
	}

	for _, x := range [][]float64{{1.2, 0.7, 2.1}, {3.1, 5.5, 0.4}} {
		g, err := progG.Eval(x)
		if err != nil {
			t.Fatal(err)
		}
		_, jac, err := progF.EvalJacobian(x)
		if err != nil {
			t.Fatal(err)
		}
		dense := jac.ToMatrix(nil).ToDense()
		for j := range x {
			chk.AnaNum(t, io.Sf("dF/dx%d", j), 1e-6, g[j], dense[0][j], chk.Verbose)
		}
	}
}

// TestGradThroughCosAcos covers the trig ops used by the cubic root
// selection.
func TestGradThroughCosAcos(t *testing.T) {
	tab := graph.NewSymbolTable()
	xs, _ := tab.Symbol("x", 1)
	expr := xs[0].Cos().Mul(graph.Const(0.3)).Acos()

	grads := graph.Grad(expr, xs)
	prog, err := graph.Compile(xs, grads)
	if err != nil {
		t.Fatal(err)
	}
	progF, err := graph.Compile(xs, []*graph.Node{expr})
	if err != nil {
		t.Fatal(err)
	}
	x := []float64{0.8}
	g, err := prog.Eval(x)
	if err != nil {
		t.Fatal(err)
	}
	h := 1e-6
	yp, _ := progF.Eval([]float64{x[0] + h})
	ym, _ := progF.Eval([]float64{x[0] - h})
	want := (yp[0] - ym[0]) / (2 * h)
	chk.AnaNum(t, "dF/dx", 1e-6, g[0], want, chk.Verbose)
}
