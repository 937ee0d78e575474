// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package thermo

import (
	"github.com/VolkerSiep/SigmaMu/internal/quantity"
	"github.com/VolkerSiep/SigmaMu/internal/species"
	"github.com/VolkerSiep/SigmaMu/internal/unit"
	"github.com/VolkerSiep/SigmaMu/internal/util"
)

func init() {
	Register("GenericProperties", func() Contribution { return &GenericProperties{} })
	Register("Elemental", func() Contribution { return &Elemental{} })
}

// GenericProperties augments a frame with the derived engineering
// properties: mass (flow), enthalpy H = G + T*S with G = sum n_i mu_i,
// and the average molecular weight. Species names are parsed as
// formulas to obtain molecular weights.
type GenericProperties struct{}

func (c *GenericProperties) ClassName() string       { return "GenericProperties" }
func (c *GenericProperties) ParamDecls() []ParamDecl { return nil }
func (c *GenericProperties) Inputs() []string        { return []string{"T", "n", "mu", "S"} }
func (c *GenericProperties) Outputs() []string       { return []string{"mass", "H", "MW"} }

func (c *GenericProperties) Apply(ctx *Context) error {
	T, err := ctx.Props.Scalar("T")
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

	var mass, G quantity.Quantity
	first := true
	for _, sp := range ctx.Species {
		spec, err := species.Parse(unit.Default(), sp, sp)
		if err != nil {
			return err
		}
		ni, err := dictEntry(n, "n", sp)
		if err != nil {
			return err
		}
		mui, err := dictEntry(mu, "mu", sp)
		if err != nil {
			return err
		}
		mTerm := ni.Mul(spec.MolecularWeight)
		gTerm := ni.Mul(mui)
		if first {
			mass, G = mTerm, gTerm
			first = false
			continue
		}
		if mass, err = mass.Add(mTerm); err != nil {
			return err
		}
		if G, err = G.Add(gTerm); err != nil {
			return err
		}
	}

	H, err := G.Add(T.Mul(S))
	if err != nil {
		return err
	}
	N, err := n.Sum()
	if err != nil {
		return err
	}
	MW, err := mass.Div(N)
	if err != nil {
		return err
	}

	ctx.Props.SetScalar("mass", mass)
	ctx.Props.SetScalar("H", H)
	ctx.Props.SetScalar("MW", MW)
	return nil
}

// Elemental augments a frame with elemental mole flows: for each
// chemical element appearing in the species set, the contraction of the
// species composition vector against n, assembled through the sparse
// MCounter so no dense species-by-element intermediate is built.
type Elemental struct{}

func (c *Elemental) ClassName() string       { return "Elemental" }
func (c *Elemental) ParamDecls() []ParamDecl { return nil }
func (c *Elemental) Inputs() []string        { return []string{"n"} }
func (c *Elemental) Outputs() []string       { return []string{"elements"} }

func (c *Elemental) Apply(ctx *Context) error {
	n, err := ctx.Props.Dict("n")
	if err != nil {
		return err
	}

	// element -> (species -> stoichiometric count)
	counters := map[string]util.MCounter{}
	for _, sp := range ctx.Species {
		spec, err := species.Parse(unit.Default(), sp, sp)
		if err != nil {
			return err
		}
		for el, cnt := range spec.ElementCounts {
			if counters[el] == nil {
				counters[el] = util.MCounter{}
			}
			counters[el] = counters[el].Add(util.MCounter{sp: float64(cnt)})
		}
	}

	out := quantity.Dict{}
	for el, counter := range counters {
		flow, err := counter.Dot(n)
		if err != nil {
			return err
		}
		out[el] = flow
	}
	ctx.Props.SetDict("elements", out)
	return nil
}
