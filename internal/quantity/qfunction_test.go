// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quantity_test

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/VolkerSiep/SigmaMu/internal/graph"
	"github.com/VolkerSiep/SigmaMu/internal/quantity"
	"github.com/VolkerSiep/SigmaMu/internal/unit"
)

func TestQFunctionEvalAndJacobian(t *testing.T) {
	reg := unit.NewRegistry()
	kelvin, _ := reg.Lookup("K")
	joulePerMol, _ := reg.Lookup("J/mol")

	table := graph.NewSymbolTable()
	argSpec := quantity.Structure{
		"T": {Unit: kelvin, N: 1},
		"p": {Unit: unit.Dimensionless, N: 1}, // reduced pressure p/p_ref
	}
	args, err := quantity.NewArgs(table, argSpec)
	if err != nil {
		t.Fatal(err)
	}
	T, p := args["T"][0], args["p"][0]

	// mu = T*ln(p/p_ref), forced into J/mol at the boundary just to
	// exercise log/mul through the QFunction compilation
	lnp, err := p.Log()
	if err != nil {
		t.Fatal(err)
	}
	mu := T.Mul(lnp)
	mu = quantity.Quantity{Node: mu.Node, Unit: joulePerMol}

	resSpec := quantity.Structure{"mu": {Unit: joulePerMol, N: 1}}
	f, err := quantity.Compile(argSpec, args, resSpec, map[string][]quantity.Quantity{"mu": {mu}})
	if err != nil {
		t.Fatal(err)
	}

	out, err := f.Eval(map[string][]float64{"T": {300}, "p": {2}})
	if err != nil {
		t.Fatal(err)
	}
	want := 300 * math.Log(2)
	chk.Scalar(t, "mu", 1e-9, out["mu"][0], want)

	_, jac, err := f.EvalJacobian(map[string][]float64{"T": {300}, "p": {2}})
	if err != nil {
		t.Fatal(err)
	}
	dense := jac.ToMatrix(nil).ToDense()
	chk.AnaNum(t, "d(mu)/dT", 1e-6, dense[0][0], math.Log(2), chk.Verbose)
}

func TestQFunctionRejectsDimensionMismatch(t *testing.T) {
	reg := unit.NewRegistry()
	kelvin, _ := reg.Lookup("K")
	pascal, _ := reg.Lookup("Pa")

	table := graph.NewSymbolTable()
	argSpec := quantity.Structure{"T": {Unit: kelvin, N: 1}}
	args, err := quantity.NewArgs(table, argSpec)
	if err != nil {
		t.Fatal(err)
	}

	// declare the result as a pressure while actually supplying a
	// temperature-dimensioned quantity
	resSpec := quantity.Structure{"p": {Unit: pascal, N: 1}}
	_, err = quantity.Compile(argSpec, args, resSpec, map[string][]quantity.Quantity{"p": {args["T"][0]}})
	if err == nil {
		t.Fatal("expected DimensionMismatch error")
	}
}
