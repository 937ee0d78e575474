// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package thermo

import (
	"github.com/VolkerSiep/SigmaMu/internal/quantity"
)

func init() {
	Register("IdealMix", func() Contribution { return &IdealMix{} })
	Register("GibbsIdealGas", func() Contribution { return &GibbsIdealGas{} })
	Register("HelmholtzIdealGas", func() Contribution { return &HelmholtzIdealGas{} })
	Register("ConstantGibbsVolume", func() Contribution { return &ConstantGibbsVolume{} })
}

// IdealMix adds the entropy of mixing: mu_i += R*T*ln(n_i/N) and
// S -= sum n_i R ln(n_i/N). Bounds: every n_i > 0.
type IdealMix struct{}

func (c *IdealMix) ClassName() string       { return "IdealMix" }
func (c *IdealMix) ParamDecls() []ParamDecl { return nil }
func (c *IdealMix) Inputs() []string        { return []string{"T", "n", "mu", "S"} }
func (c *IdealMix) Outputs() []string       { return []string{"mu", "S"} }

func (c *IdealMix) Apply(ctx *Context) error {
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
	N, err := n.Sum()
	if err != nil {
		return err
	}
	R := gasR()
	RT := R.Mul(T)

	muOut := quantity.Dict{}
	for sp, q := range mu {
		muOut[sp] = q
	}
	for _, sp := range ctx.Species {
		ni, err := dictEntry(n, "n", sp)
		if err != nil {
			return err
		}
		xi, err := ni.Div(N)
		if err != nil {
			return err
		}
		lnx, err := xi.Log()
		if err != nil {
			return err
		}
		if muOut[sp], err = muOut[sp].Add(RT.Mul(lnx)); err != nil {
			return err
		}
		if S, err = S.Sub(ni.Mul(R).Mul(lnx)); err != nil {
			return err
		}
		ctx.AddBound("n/"+sp, ni)
	}
	ctx.Props.SetDict("mu", muOut)
	ctx.Props.SetScalar("S", S)
	return nil
}

// GibbsIdealGas is the pressure dependence of an ideal gas on a Gibbs
// state: mu_i += R*T*ln(p/p_ref), S -= N*R*ln(p/p_ref), V = N*R*T/p.
// Bound: p > 0.
type GibbsIdealGas struct{}

func (c *GibbsIdealGas) ClassName() string       { return "GibbsIdealGas" }
func (c *GibbsIdealGas) ParamDecls() []ParamDecl { return nil }
func (c *GibbsIdealGas) Inputs() []string        { return []string{"T", "p", "n", "p_ref", "mu", "S"} }
func (c *GibbsIdealGas) Outputs() []string       { return []string{"mu", "S", "V"} }

func (c *GibbsIdealGas) Apply(ctx *Context) error {
	T, err := ctx.Props.Scalar("T")
	if err != nil {
		return err
	}
	p, err := ctx.Props.Scalar("p")
	if err != nil {
		return err
	}
	n, err := ctx.Props.Dict("n")
	if err != nil {
		return err
	}
	pRef, err := ctx.Props.Scalar("p_ref")
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
	N, err := n.Sum()
	if err != nil {
		return err
	}
	R := gasR()

	ratio, err := p.Div(pRef)
	if err != nil {
		return err
	}
	lnp, err := ratio.Log()
	if err != nil {
		return err
	}
	RTlnp := R.Mul(T).Mul(lnp)

	muOut := quantity.Dict{}
	for _, sp := range ctx.Species {
		mui, err := dictEntry(mu, "mu", sp)
		if err != nil {
			return err
		}
		if muOut[sp], err = mui.Add(RTlnp); err != nil {
			return err
		}
	}
	if S, err = S.Sub(N.Mul(R).Mul(lnp)); err != nil {
		return err
	}
	V, err := N.Mul(R).Mul(T).Div(p)
	if err != nil {
		return err
	}

	ctx.Props.SetDict("mu", muOut)
	ctx.Props.SetScalar("S", S)
	ctx.Props.SetScalar("V", V)
	ctx.AddBound("p", p)
	return nil
}

// HelmholtzIdealGas is the symmetric form on a Helmholtz state: it emits
// p = N*R*T/V and folds the same ln(p/p_ref) terms into mu and S using
// that pressure. Bound: V > 0.
type HelmholtzIdealGas struct{}

func (c *HelmholtzIdealGas) ClassName() string       { return "HelmholtzIdealGas" }
func (c *HelmholtzIdealGas) ParamDecls() []ParamDecl { return nil }
func (c *HelmholtzIdealGas) Inputs() []string        { return []string{"T", "V", "n", "p_ref", "mu", "S"} }
func (c *HelmholtzIdealGas) Outputs() []string       { return []string{"mu", "S", "p"} }

func (c *HelmholtzIdealGas) Apply(ctx *Context) error {
	T, err := ctx.Props.Scalar("T")
	if err != nil {
		return err
	}
	V, err := ctx.Props.Scalar("V")
	if err != nil {
		return err
	}
	n, err := ctx.Props.Dict("n")
	if err != nil {
		return err
	}
	pRef, err := ctx.Props.Scalar("p_ref")
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
	N, err := n.Sum()
	if err != nil {
		return err
	}
	R := gasR()

	p, err := N.Mul(R).Mul(T).Div(V)
	if err != nil {
		return err
	}
	ratio, err := p.Div(pRef)
	if err != nil {
		return err
	}
	lnp, err := ratio.Log()
	if err != nil {
		return err
	}
	RTlnp := R.Mul(T).Mul(lnp)

	muOut := quantity.Dict{}
	for _, sp := range ctx.Species {
		mui, err := dictEntry(mu, "mu", sp)
		if err != nil {
			return err
		}
		if muOut[sp], err = mui.Add(RTlnp); err != nil {
			return err
		}
	}
	if S, err = S.Sub(N.Mul(R).Mul(lnp)); err != nil {
		return err
	}

	ctx.Props.SetDict("mu", muOut)
	ctx.Props.SetScalar("S", S)
	ctx.Props.SetScalar("p", p)
	ctx.AddBound("V", V)
	return nil
}

// ConstantGibbsVolume models an incompressible condensed phase with a
// fixed molar volume per species: V += sum v_n_i*n_i and
// mu_i += v_n_i*(p - p_ref).
type ConstantGibbsVolume struct{}

func (c *ConstantGibbsVolume) ClassName() string { return "ConstantGibbsVolume" }

func (c *ConstantGibbsVolume) ParamDecls() []ParamDecl {
	return []ParamDecl{{Name: "v_n", Unit: mustUnit("m3/mol"), PerSpecies: true}}
}

func (c *ConstantGibbsVolume) Inputs() []string  { return []string{"p", "p_ref", "n", "mu"} }
func (c *ConstantGibbsVolume) Outputs() []string { return []string{"V", "mu"} }

func (c *ConstantGibbsVolume) Apply(ctx *Context) error {
	p, err := ctx.Props.Scalar("p")
	if err != nil {
		return err
	}
	pRef, err := ctx.Props.Scalar("p_ref")
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
	vn, err := ctx.Params.Dict("v_n")
	if err != nil {
		return err
	}

	dp, err := p.Sub(pRef)
	if err != nil {
		return err
	}

	muOut := quantity.Dict{}
	for sp, q := range mu {
		muOut[sp] = q
	}
	var dV quantity.Quantity
	first := true
	for _, sp := range ctx.Species {
		vi, err := dictEntry(vn, "v_n", sp)
		if err != nil {
			return err
		}
		ni, err := dictEntry(n, "n", sp)
		if err != nil {
			return err
		}
		term := vi.Mul(ni)
		if first {
			dV = term
			first = false
		} else if dV, err = dV.Add(term); err != nil {
			return err
		}
		if muOut[sp], err = muOut[sp].Add(vi.Mul(dp)); err != nil {
			return err
		}
	}

	V := dV
	if ctx.Props.Has("V") {
		prev, err := ctx.Props.Scalar("V")
		if err != nil {
			return err
		}
		if V, err = prev.Add(dV); err != nil {
			return err
		}
	}
	ctx.Props.SetScalar("V", V)
	ctx.Props.SetDict("mu", muOut)
	return nil
}
