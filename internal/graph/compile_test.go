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

// centralDiff returns the central-difference Jacobian of f at x, to
// compare against the graph's exact reverse-mode Jacobian.
func centralDiff(f func([]float64) ([]float64, error), x []float64) ([][]float64, error) {
	h := 1e-6
	y0, err := f(x)
	if err != nil {
		return nil, err
	}
	jac := make([][]float64, len(y0))
	for i := range jac {
		jac[i] = make([]float64, len(x))
	}
	for j := range x {
		xp := append([]float64(nil), x...)
		xm := append([]float64(nil), x...)
		xp[j] += h
		xm[j] -= h
		yp, err := f(xp)
		if err != nil {
			return nil, err
		}
		ym, err := f(xm)
		if err != nil {
			return nil, err
		}
		for i := range y0 {
			jac[i][j] = (yp[i] - ym[i]) / (2 * h)
		}
	}
	return jac, nil
}

func TestJacobianMatchesCentralDifference(t *testing.T) {
	tab := graph.NewSymbolTable()
	xs, err := tab.Symbol("x", 2)
	if err != nil {
		t.Fatal(err)
	}
	x0, x1 := xs[0], xs[1]

	sum := x0.Mul(x1).Add(x0.Sq())
	div, err := x1.Div(x0)
	if err != nil {
		t.Fatal(err)
	}
	outputs := []*graph.Node{sum, div.Log()}

	prog, err := graph.Compile(xs, outputs)
	if err != nil {
		t.Fatal(err)
	}

	x := []float64{1.3, 2.7}
	_, jacT, err := prog.EvalJacobian(x)
	if err != nil {
		t.Fatal(err)
	}
	m := jacT.ToMatrix(nil)

	ref, err := centralDiff(prog.Eval, x)
	if err != nil {
		t.Fatal(err)
	}
	dense := m.ToDense()
	for i := range ref {
		for j := range ref[i] {
			chk.AnaNum(t, io.Sf("dF%d/dx%d", i, j), 1e-4, dense[i][j], ref[i][j], chk.Verbose)
		}
	}
}

func TestDivisionByLiteralZeroFails(t *testing.T) {
	_, err := graph.Const(1).Div(graph.Const(0))
	if err == nil {
		t.Fatal("expected NumericBuild error")
	}
}

func TestMissingSymbolAtCompile(t *testing.T) {
	tab := graph.NewSymbolTable()
	xs, _ := tab.Symbol("x", 1)
	other := graph.NewSymbolTable()
	ys, _ := other.Symbol("y", 1)
	_, err := graph.Compile(xs, []*graph.Node{ys[0]})
	if err == nil {
		t.Fatal("expected MissingSymbol error")
	}
}
