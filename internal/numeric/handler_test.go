// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package numeric_test

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
	gio "github.com/cpmech/gosl/io"
	"github.com/stretchr/testify/require"

	"github.com/VolkerSiep/SigmaMu/internal/material"
	"github.com/VolkerSiep/SigmaMu/internal/model"
	"github.com/VolkerSiep/SigmaMu/internal/numeric"
	"github.com/VolkerSiep/SigmaMu/internal/quantity"
	"github.com/VolkerSiep/SigmaMu/internal/unit"
	"github.com/VolkerSiep/SigmaMu/internal/util"
)

func q(t *testing.T, lit string) quantity.Quantity {
	t.Helper()
	v, err := quantity.Parse(unit.Default(), lit)
	require.NoError(t, err)
	return v
}

func methaneDefinition(t *testing.T) *material.MaterialDefinition {
	t.Helper()
	store := material.NewStore()
	store.AddSource(&material.MapSource{Label: "builtin", Values: map[string]quantity.Quantity{
		"H0S0ReferenceState/T_ref":       q(t, "298.15 K"),
		"H0S0ReferenceState/p_ref":       q(t, "1 bar"),
		"H0S0ReferenceState/dh_form/CH4": q(t, "-74.873 kJ/mol"),
		"H0S0ReferenceState/s_0/CH4":     q(t, "188.66 J/(mol.K)"),
		"LinearHeatCapacity/a/CH4":       q(t, "33.25 J/(mol.K)"),
		"LinearHeatCapacity/b/CH4":       q(t, "0.021 J/(mol.K2)"),
	}})
	return &material.MaterialDefinition{
		Name:    "methane",
		Species: []string{"CH4"},
		Structure: material.FrameStructure{
			StateName: "GibbsState",
			Entries: []material.EntrySpec{
				{Class: "H0S0ReferenceState"},
				{Class: "LinearHeatCapacity"},
				{Class: "IdealMix"},
				{Class: "GibbsIdealGas"},
			},
		},
		Initial: material.InitialState{
			T:    q(t, "400 K"),
			POrV: q(t, "2 bar"),
			N:    quantity.Dict{"CH4": q(t, "1 mol/s")},
		},
		Store: store,
	}
}

// fixedFlow pins the three state entries of one methane stream.
type fixedFlow struct {
	def *material.MaterialDefinition
}

func (m *fixedFlow) Interface(ifc *model.Interface) {
	r := unit.Default()
	degC, _ := r.Lookup("degC")
	bar, _ := r.Lookup("bar")
	m3h, _ := r.Lookup("m3/h")
	ifc.Parameter("T", quantity.FromFloat(degC.ToSI(25), degC))
	ifc.Parameter("p", quantity.FromFloat(bar.ToSI(1), bar))
	ifc.Parameter("V", quantity.FromFloat(m3h.ToSI(10), m3h))
	ifc.Material("feed", m.def, material.Flow)
}

func (m *fixedFlow) Define(ctx *model.DefineContext) error {
	mat, err := ctx.Material("feed")
	if err != nil {
		return err
	}
	fp := mat.Frame.Props
	r := unit.Default()
	kelvin, _ := r.Lookup("K")
	pa, _ := r.Lookup("Pa")
	m3h, _ := r.Lookup("m3/h")
	for _, s := range []struct {
		name, prop, param string
		tol               unit.Unit
	}{
		{"T", "T", "T", kelvin},
		{"p", "p", "p", pa},
		{"V", "V", "V", m3h},
	} {
		have, err := fp.Scalar(s.prop)
		if err != nil {
			return err
		}
		want, err := ctx.Param(s.param)
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

func handler(t *testing.T) *numeric.Handler {
	t.Helper()
	prob, err := model.Flatten(&fixedFlow{def: methaneDefinition(t)}, "plant")
	require.NoError(t, err)
	h, err := numeric.NewHandler(prob)
	require.NoError(t, err)
	return h
}

func TestResidualScaling(t *testing.T) {
	h := handler(t)
	r, err := h.Residuals()
	require.NoError(t, err)
	require.Len(t, r, 3)

	// T residual: (400 - 298.15 K) / 1 K
	require.InDelta(t, 400-298.15, r[0], 1e-9)
	// p residual: (2 bar - 1 bar) / 1 Pa
	require.InDelta(t, 1e5, r[1], 1e-6)
	// V residual: (RT/p - 10 m3/h) / (1 m3/h)
	vSI := 1 * 8.31446 * 400 / 2e5
	require.InDelta(t, (vSI-10.0/3600)*3600, r[2], 1e-9)
}

func TestJacobianMatchesCentralDifference(t *testing.T) {
	h := handler(t)
	_, jr, err := h.ResidualsJacobian()
	require.NoError(t, err)
	dense := jr.ToMatrix(nil).ToDense()

	hstep := 1e-6
	for j := range h.X {
		orig := h.X[j]
		step := hstep * math.Max(1, math.Abs(orig))
		h.X[j] = orig + step
		rp, err := h.Residuals()
		require.NoError(t, err)
		h.X[j] = orig - step
		rm, err := h.Residuals()
		require.NoError(t, err)
		h.X[j] = orig
		for i := range rp {
			fd := (rp[i] - rm[i]) / (2 * step)
			scale := math.Max(1, math.Abs(fd))
			chk.AnaNum(t, gio.Sf("dr%d/dx%d", i, j), 1e-5*scale, dense[i][j], fd, chk.Verbose)
		}
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	h := handler(t)
	orig := append([]float64(nil), h.X...)

	out := h.ExportState()
	// disturb, then restore
	for i := range h.X {
		h.X[i] *= 1.7
	}
	require.NoError(t, h.ImportState(out))
	for i := range orig {
		require.InDelta(t, orig[i], h.X[i], 1e-9*math.Max(1, math.Abs(orig[i])))
	}

	thermoSec := out["thermo"].(util.Nested)
	entry := thermoSec["plant/feed"].(util.Nested)
	require.Contains(t, entry, "T")
	require.Contains(t, entry, "p")
	require.Contains(t, entry["n"].(util.Nested), "CH4")
}

func TestArgumentsEditable(t *testing.T) {
	h := handler(t)
	require.NoError(t, h.SetArgument("plant/p", q(t, "2 bar")))
	r, err := h.Residuals()
	require.NoError(t, err)
	// p state equals the new target already: residual zero
	require.InDelta(t, 0, r[1], 1e-9)

	// dimension mismatch rejected
	require.Error(t, h.SetArgument("plant/p", q(t, "2 K")))
	// unknown path rejected
	require.Error(t, h.SetArgument("plant/nope", q(t, "1 bar")))
}

func TestFunctionPublishesProperties(t *testing.T) {
	h := handler(t)
	props, err := h.Function()
	require.NoError(t, err)
	feed := props["plant"].(util.Nested)["feed"].(util.Nested)
	require.Contains(t, feed, "S")
	require.Contains(t, feed, "mu")
	v := feed["V"].(float64)
	require.InDelta(t, 8.31446*400/2e5, v, 1e-9)
}
