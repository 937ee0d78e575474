// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// sigmamu-demo wires the pure-methane flow scenario end to end: an
// ideal-gas Gibbs frame, a square model fixing T, p and volume flow,
// and one bound-aware Newton solve with the iteration report streamed
// to stdout. It is a smoke-test harness, not a CLI; configuration file
// handling lives outside the core.
package main

import (
	"os"

	"github.com/cpmech/gosl/io"

	"github.com/VolkerSiep/SigmaMu/internal/material"
	"github.com/VolkerSiep/SigmaMu/internal/model"
	"github.com/VolkerSiep/SigmaMu/internal/numeric"
	"github.com/VolkerSiep/SigmaMu/internal/paramfile"
	"github.com/VolkerSiep/SigmaMu/internal/quantity"
	"github.com/VolkerSiep/SigmaMu/internal/solver"
	"github.com/VolkerSiep/SigmaMu/internal/unit"
	"github.com/VolkerSiep/SigmaMu/internal/util"
)

func methaneDefinition() (*material.MaterialDefinition, error) {
	reg := unit.Default()
	src, err := paramfile.DecodeSource(reg, "builtin", util.Nested{
		"H0S0ReferenceState": util.Nested{
			"T_ref":   "298.15 K",
			"p_ref":   "1 bar",
			"dh_form": util.Nested{"CH4": "-74.873 kJ/mol"},
			"s_0":     util.Nested{"CH4": "188.66 J/(mol.K)"},
		},
		"LinearHeatCapacity": util.Nested{
			"a": util.Nested{"CH4": "33.25 J/(mol.K)"},
			"b": util.Nested{"CH4": "0.021 J/(mol.K2)"},
		},
	})
	if err != nil {
		return nil, err
	}
	store := material.NewStore()
	store.AddSource(src)

	fs, err := paramfile.DecodeFrameStructure(map[string]interface{}{
		"state": "GibbsState",
		"contributions": []interface{}{
			"H0S0ReferenceState",
			"LinearHeatCapacity",
			"IdealMix",
			"GibbsIdealGas",
		},
	})
	if err != nil {
		return nil, err
	}

	parse := func(lit string) quantity.Quantity {
		q, perr := quantity.Parse(reg, lit)
		if perr != nil {
			panic(perr)
		}
		return q
	}
	return &material.MaterialDefinition{
		Name:      "methane",
		Species:   []string{"CH4"},
		Structure: fs,
		Initial: material.InitialState{
			T:    parse("400 K"),
			POrV: parse("2 bar"),
			N:    quantity.Dict{"CH4": parse("1 mol/s")},
		},
		Store: store,
	}, nil
}

// flowSpec fixes temperature, pressure and volume flow of one stream.
type flowSpec struct {
	def *material.MaterialDefinition
}

func (m *flowSpec) Interface(ifc *model.Interface) {
	reg := unit.Default()
	degC, _ := reg.Lookup("degC")
	bar, _ := reg.Lookup("bar")
	m3h, _ := reg.Lookup("m3/h")
	ifc.Parameter("T", quantity.FromFloat(degC.ToSI(25), degC))
	ifc.Parameter("p", quantity.FromFloat(bar.ToSI(1), bar))
	ifc.Parameter("V", quantity.FromFloat(m3h.ToSI(10), m3h))
	ifc.Material("feed", m.def, material.Flow)
}

func (m *flowSpec) Define(ctx *model.DefineContext) error {
	mat, err := ctx.Material("feed")
	if err != nil {
		return err
	}
	reg := unit.Default()
	kelvin, _ := reg.Lookup("K")
	pa, _ := reg.Lookup("Pa")
	m3h, _ := reg.Lookup("m3/h")
	for _, s := range []struct {
		name string
		tol  unit.Unit
	}{{"T", kelvin}, {"p", pa}, {"V", m3h}} {
		have, err := mat.Frame.Props.Scalar(s.name)
		if err != nil {
			return err
		}
		want, err := ctx.Param(s.name)
		if err != nil {
			return err
		}
		diff, err := have.Sub(want)
		if err != nil {
			return err
		}
		if err := ctx.AddResidual(s.name, diff, s.tol); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	def, err := methaneDefinition()
	if err != nil {
		io.PfRed("material definition failed: %v\n", err)
		os.Exit(1)
	}
	prob, err := model.Flatten(&flowSpec{def: def}, "plant")
	if err != nil {
		io.PfRed("flatten failed: %v\n", err)
		os.Exit(1)
	}
	handler, err := numeric.NewHandler(prob)
	if err != nil {
		io.PfRed("numeric handler failed: %v\n", err)
		os.Exit(1)
	}

	io.Pfyel("solving pure-methane flow specification\n")
	rep, err := solver.Solve(handler, solver.Config{ShowR: true, Out: os.Stdout})
	if err != nil {
		io.PfRed("solve failed: %v\n", err)
		os.Exit(1)
	}
	io.Pfgreen("converged in %d iterations\n", len(rep.Iterations))

	props, err := rep.Props()
	if err != nil {
		io.PfRed("property evaluation failed: %v\n", err)
		os.Exit(1)
	}
	flat, keys := util.Flatten(props, "/")
	for _, k := range keys {
		io.Pf("%-28s %v\n", k, flat[k])
	}

	exported := handler.ExportState()
	eflat, ekeys := util.Flatten(exported, "/")
	io.Pfcyan("\nfinal state\n")
	for _, k := range ekeys {
		io.Pf("%-28s %v\n", k, eflat[k])
	}
}
