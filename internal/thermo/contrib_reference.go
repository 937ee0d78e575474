// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package thermo

import (
	"github.com/VolkerSiep/SigmaMu/internal/quantity"
	"github.com/VolkerSiep/SigmaMu/internal/sigmaerr"
	"github.com/VolkerSiep/SigmaMu/internal/unit"
)

func init() {
	Register("H0S0ReferenceState", func() Contribution { return &H0S0ReferenceState{} })
	Register("LinearHeatCapacity", func() Contribution { return &LinearHeatCapacity{} })
	Register("StandardState", func() Contribution { return &StandardState{} })
}

// mustUnit resolves a bootstrapped unit symbol from the process-wide
// registry; the catalog only asks for symbols the bootstrap installs.
func mustUnit(sym string) unit.Unit {
	u, ok := unit.Default().Lookup(sym)
	if !ok {
		panic("thermo: unit registry has no " + sym)
	}
	return u
}

// gasR returns R as a constant quantity in J/(mol.K).
func gasR() quantity.Quantity {
	return quantity.FromFloat(GasConstant, mustUnit("J/(mol.K)"))
}

// dictEntry reads one species entry from a resolved per-species
// parameter dict, failing with MissingParameter when the parameter file
// did not cover that species.
func dictEntry(d quantity.Dict, declName, sp string) (quantity.Quantity, error) {
	q, ok := d[sp]
	if !ok {
		return quantity.Quantity{}, sigmaerr.New(sigmaerr.MissingParameter, declName, "no value for species %q", sp)
	}
	return q, nil
}

// H0S0ReferenceState anchors the chemical potentials at the formation
// enthalpy and standard entropy: mu_ref_i = dh_form_i - T*s_0_i,
// evaluated against the frame's live temperature, and publishes the
// reference conditions every later contribution measures against.
type H0S0ReferenceState struct{}

func (c *H0S0ReferenceState) ClassName() string { return "H0S0ReferenceState" }

func (c *H0S0ReferenceState) ParamDecls() []ParamDecl {
	return []ParamDecl{
		{Name: "dh_form", Unit: mustUnit("J/mol"), PerSpecies: true},
		{Name: "s_0", Unit: mustUnit("J/(mol.K)"), PerSpecies: true},
		{Name: "T_ref", Unit: mustUnit("K")},
		{Name: "p_ref", Unit: mustUnit("Pa")},
	}
}

func (c *H0S0ReferenceState) Inputs() []string { return []string{"T", "n"} }

func (c *H0S0ReferenceState) Outputs() []string {
	return []string{"T_ref", "p_ref", "S_ref", "mu_ref", "S", "mu"}
}

func (c *H0S0ReferenceState) Apply(ctx *Context) error {
	T, err := ctx.Props.Scalar("T")
	if err != nil {
		return err
	}
	n, err := ctx.Props.Dict("n")
	if err != nil {
		return err
	}
	dh, err := ctx.Params.Dict("dh_form")
	if err != nil {
		return err
	}
	s0, err := ctx.Params.Dict("s_0")
	if err != nil {
		return err
	}
	tRef, err := ctx.Params.Scalar("T_ref")
	if err != nil {
		return err
	}
	pRef, err := ctx.Params.Scalar("p_ref")
	if err != nil {
		return err
	}

	muRef := quantity.Dict{}
	var sRef quantity.Quantity
	first := true
	for _, sp := range ctx.Species {
		dhi, err := dictEntry(dh, "dh_form", sp)
		if err != nil {
			return err
		}
		s0i, err := dictEntry(s0, "s_0", sp)
		if err != nil {
			return err
		}
		mui, err := dhi.Sub(T.Mul(s0i))
		if err != nil {
			return err
		}
		muRef[sp] = mui

		ni, err := dictEntry(n, "n", sp)
		if err != nil {
			return err
		}
		term := ni.Mul(s0i)
		if first {
			sRef = term
			first = false
		} else if sRef, err = sRef.Add(term); err != nil {
			return err
		}
	}

	ctx.Props.SetScalar("T_ref", tRef)
	ctx.Props.SetScalar("p_ref", pRef)
	ctx.Props.SetScalar("S_ref", sRef)
	ctx.Props.SetDict("mu_ref", muRef)
	ctx.Props.SetScalar("S", sRef)
	mu := quantity.Dict{}
	for sp, q := range muRef {
		mu[sp] = q
	}
	ctx.Props.SetDict("mu", mu)
	return nil
}

// LinearHeatCapacity integrates c_p(T) = a + b*T from T_ref to T into
// the chemical potentials and the entropy. Bound: T > 0.
type LinearHeatCapacity struct{}

func (c *LinearHeatCapacity) ClassName() string { return "LinearHeatCapacity" }

func (c *LinearHeatCapacity) ParamDecls() []ParamDecl {
	return []ParamDecl{
		{Name: "a", Unit: mustUnit("J/(mol.K)"), PerSpecies: true},
		{Name: "b", Unit: mustUnit("J/(mol.K2)"), PerSpecies: true},
	}
}

func (c *LinearHeatCapacity) Inputs() []string  { return []string{"T", "T_ref", "n", "mu", "S"} }
func (c *LinearHeatCapacity) Outputs() []string { return []string{"mu", "S"} }

func (c *LinearHeatCapacity) Apply(ctx *Context) error {
	T, err := ctx.Props.Scalar("T")
	if err != nil {
		return err
	}
	tRef, err := ctx.Props.Scalar("T_ref")
	if err != nil {
		return err
	}
	n, err := ctx.Props.Dict("n")
	if err != nil {
		return err
	}
	mu, err := ctx.Props.Dict("mu")
	if err != nil {
		return err
	}
	S, err := ctx.Props.Scalar("S")
	if err != nil {
		return err
	}
	pa, err := ctx.Params.Dict("a")
	if err != nil {
		return err
	}
	pb, err := ctx.Params.Dict("b")
	if err != nil {
		return err
	}

	dT, err := T.Sub(tRef)
	if err != nil {
		return err
	}
	ratio, err := T.Div(tRef)
	if err != nil {
		return err
	}
	lnT, err := ratio.Log()
	if err != nil {
		return err
	}
	dT2, err := T.Sq().Sub(tRef.Sq())
	if err != nil {
		return err
	}

	muOut := quantity.Dict{}
	for sp, q := range mu {
		muOut[sp] = q
	}
	for _, sp := range ctx.Species {
		ai, err := dictEntry(pa, "a", sp)
		if err != nil {
			return err
		}
		bi, err := dictEntry(pb, "b", sp)
		if err != nil {
			return err
		}
		// dh = integral of c_p dT, ds = integral of c_p/T dT
		dh, err := ai.Mul(dT).Add(bi.Mul(dT2).Scale(0.5))
		if err != nil {
			return err
		}
		ds, err := ai.Mul(lnT).Add(bi.Mul(dT))
		if err != nil {
			return err
		}
		dmu, err := dh.Sub(T.Mul(ds))
		if err != nil {
			return err
		}
		if muOut[sp], err = muOut[sp].Add(dmu); err != nil {
			return err
		}
		ni, err := dictEntry(n, "n", sp)
		if err != nil {
			return err
		}
		if S, err = S.Add(ni.Mul(ds)); err != nil {
			return err
		}
	}

	ctx.Props.SetDict("mu", muOut)
	ctx.Props.SetScalar("S", S)
	ctx.AddBound("T", T)
	return nil
}

// StandardState freezes the current S, mu and p as the standard-state
// properties S_std, mu_std and p_std. No computation; none of the
// contributions in this package reads these copies.
type StandardState struct{}

func (c *StandardState) ClassName() string { return "StandardState" }

func (c *StandardState) ParamDecls() []ParamDecl { return nil }

func (c *StandardState) Inputs() []string  { return []string{"S", "mu", "p"} }
func (c *StandardState) Outputs() []string { return []string{"S_std", "mu_std", "p_std"} }

func (c *StandardState) Apply(ctx *Context) error {
	S, err := ctx.Props.Scalar("S")
	if err != nil {
		return err
	}
	mu, err := ctx.Props.Dict("mu")
	if err != nil {
		return err
	}
	p, err := ctx.Props.Scalar("p")
	if err != nil {
		return err
	}
	frozen := quantity.Dict{}
	for sp, q := range mu {
		frozen[sp] = q
	}
	ctx.Props.SetScalar("S_std", S)
	ctx.Props.SetDict("mu_std", frozen)
	ctx.Props.SetScalar("p_std", p)
	return nil
}
