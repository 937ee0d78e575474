// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package thermo

import (
	"math"

	"github.com/VolkerSiep/SigmaMu/internal/graph"
	"github.com/VolkerSiep/SigmaMu/internal/quantity"
	"github.com/VolkerSiep/SigmaMu/internal/sigmaerr"
	"github.com/VolkerSiep/SigmaMu/internal/unit"
)

func init() {
	Register("CriticalParameters", func() Contribution { return &CriticalParameters{} })
	Register("RedlichKwongMFactor", func() Contribution { return &RedlichKwongMFactor{} })
	Register("BostonMathiasAlphaFunction", func() Contribution { return &BostonMathiasAlphaFunction{} })
	Register("RedlichKwongAFunction", func() Contribution { return &RedlichKwongAFunction{} })
	Register("RedlichKwongBFunction", func() Contribution { return &RedlichKwongBFunction{} })
	Register("LinearMixingRule", func() Contribution { return &LinearMixingRule{} })
	Register("NonSymmetricMixingRule", func() Contribution { return &NonSymmetricMixingRule{} })
	// historical triple-m spelling, kept as an alias of the same class
	Register("NonSymmmetricMixingRule", func() Contribution { return &NonSymmetricMixingRule{} })
	Register("VolumeShift", func() Contribution { return &VolumeShift{} })
	Register("RedlichKwongEOSGas", func() Contribution { return &RedlichKwongEOS{Phase: PhaseGas} })
	Register("RedlichKwongEOSLiquid", func() Contribution { return &RedlichKwongEOS{Phase: PhaseLiquid} })
	Register("RedlichKwongEOS", func() Contribution { return &RedlichKwongEOS{Phase: PhaseGas} })
}

func dimless(v float64) quantity.Quantity {
	return quantity.FromFloat(v, unit.Dimensionless)
}

// CriticalParameters publishes the per-species critical temperature,
// critical pressure and acentric factor for the cubic EOS chain.
type CriticalParameters struct{}

func (c *CriticalParameters) ClassName() string { return "CriticalParameters" }

func (c *CriticalParameters) ParamDecls() []ParamDecl {
	return []ParamDecl{
		{Name: "T_c", Unit: mustUnit("K"), PerSpecies: true},
		{Name: "p_c", Unit: mustUnit("Pa"), PerSpecies: true},
		{Name: "omega", Unit: unit.Dimensionless, PerSpecies: true},
	}
}

func (c *CriticalParameters) Inputs() []string  { return nil }
func (c *CriticalParameters) Outputs() []string { return []string{"T_c", "p_c", "omega"} }

func (c *CriticalParameters) Apply(ctx *Context) error {
	for _, name := range []string{"T_c", "p_c", "omega"} {
		d, err := ctx.Params.Dict(name)
		if err != nil {
			return err
		}
		out := quantity.Dict{}
		for _, sp := range ctx.Species {
			q, err := dictEntry(d, name, sp)
			if err != nil {
				return err
			}
			out[sp] = q
		}
		ctx.Props.SetDict(name, out)
	}
	return nil
}

// RedlichKwongMFactor is the Soave slope from the acentric factor:
// m = 0.48508 - (0.15613*omega - 1.55171)*omega.
type RedlichKwongMFactor struct{}

func (c *RedlichKwongMFactor) ClassName() string       { return "RedlichKwongMFactor" }
func (c *RedlichKwongMFactor) ParamDecls() []ParamDecl { return nil }
func (c *RedlichKwongMFactor) Inputs() []string        { return []string{"omega"} }
func (c *RedlichKwongMFactor) Outputs() []string       { return []string{"_ceos_m"} }

func (c *RedlichKwongMFactor) Apply(ctx *Context) error {
	omega, err := ctx.Props.Dict("omega")
	if err != nil {
		return err
	}
	out := quantity.Dict{}
	for _, sp := range ctx.Species {
		w, err := dictEntry(omega, "omega", sp)
		if err != nil {
			return err
		}
		inner, err := w.Scale(0.15613).Sub(dimless(1.55171))
		if err != nil {
			return err
		}
		m, err := dimless(0.48508).Sub(inner.Mul(w))
		if err != nil {
			return err
		}
		out[sp] = m
	}
	ctx.Props.SetDict("_ceos_m", out)
	return nil
}

// BostonMathiasAlphaFunction publishes the EOS alpha per species as the
// square of the continuous Boston-Mathias base function: below T_c the
// base is 1 + m(1-tau) - eta(1-tau)(0.7-tau^2) with tau = sqrt(T/T_c),
// above it exp((c/d)(1-tau^d)) with c = m + 0.3 eta, d = 1 + 4 eta/c + c.
// The base and its first two derivatives are continuous across tau = 1.
type BostonMathiasAlphaFunction struct{}

func (c *BostonMathiasAlphaFunction) ClassName() string { return "BostonMathiasAlphaFunction" }

func (c *BostonMathiasAlphaFunction) ParamDecls() []ParamDecl {
	return []ParamDecl{{Name: "eta", Unit: unit.Dimensionless, PerSpecies: true}}
}

func (c *BostonMathiasAlphaFunction) Inputs() []string  { return []string{"T", "T_c", "_ceos_m"} }
func (c *BostonMathiasAlphaFunction) Outputs() []string { return []string{"_ceos_alpha"} }

func (c *BostonMathiasAlphaFunction) Apply(ctx *Context) error {
	T, err := ctx.Props.Scalar("T")
	if err != nil {
		return err
	}
	tc, err := ctx.Props.Dict("T_c")
	if err != nil {
		return err
	}
	ms, err := ctx.Props.Dict("_ceos_m")
	if err != nil {
		return err
	}
	etas, err := ctx.Params.Dict("eta")
	if err != nil {
		return err
	}

	one := dimless(1)
	out := quantity.Dict{}
	for _, sp := range ctx.Species {
		tci, err := dictEntry(tc, "T_c", sp)
		if err != nil {
			return err
		}
		m, err := dictEntry(ms, "_ceos_m", sp)
		if err != nil {
			return err
		}
		eta, err := dictEntry(etas, "eta", sp)
		if err != nil {
			return err
		}

		tr, err := T.Div(tci)
		if err != nil {
			return err
		}
		tau := tr.Sqrt()
		oneMinusTau, err := one.Sub(tau)
		if err != nil {
			return err
		}

		// sub-critical base: 1 + m(1-tau) - eta(1-tau)(0.7-tau^2)
		poly, err := dimless(0.7).Sub(tau.Sq())
		if err != nil {
			return err
		}
		sub, err := one.Add(m.Mul(oneMinusTau))
		if err != nil {
			return err
		}
		if sub, err = sub.Sub(eta.Mul(oneMinusTau).Mul(poly)); err != nil {
			return err
		}

		// super-critical base: exp((cBM/dBM)(1-tau^dBM))
		cBM, err := m.Add(eta.Scale(0.3))
		if err != nil {
			return err
		}
		fourEta, err := eta.Scale(4).Div(cBM)
		if err != nil {
			return err
		}
		dBM, err := one.Add(fourEta)
		if err != nil {
			return err
		}
		if dBM, err = dBM.Add(cBM); err != nil {
			return err
		}
		tauD := quantity.Quantity{Node: tau.Node.Pow(dBM.Node), Unit: unit.Dimensionless}
		expArg, err := one.Sub(tauD)
		if err != nil {
			return err
		}
		ratio, err := cBM.Div(dBM)
		if err != nil {
			return err
		}
		super, err := ratio.Mul(expArg).Exp()
		if err != nil {
			return err
		}

		subCrit, err := one.Sub(tr)
		if err != nil {
			return err
		}
		base, err := quantity.Cond(subCrit, sub, super)
		if err != nil {
			return err
		}
		out[sp] = base.Sq()
	}
	ctx.Props.SetDict("_ceos_alpha", out)
	return nil
}

// RedlichKwongAFunction: a_i = 29.5518*alpha_i*T_c_i^2/p_c_i, the pure
// component attraction parameter in Pa.m6/mol2. The literal is
// 0.42748*R^2, carried with that dimension so the unit algebra closes.
type RedlichKwongAFunction struct{}

func (c *RedlichKwongAFunction) ClassName() string       { return "RedlichKwongAFunction" }
func (c *RedlichKwongAFunction) ParamDecls() []ParamDecl { return nil }
func (c *RedlichKwongAFunction) Inputs() []string        { return []string{"_ceos_alpha", "T_c", "p_c"} }
func (c *RedlichKwongAFunction) Outputs() []string       { return []string{"_ceos_a_pure"} }

func (c *RedlichKwongAFunction) Apply(ctx *Context) error {
	alpha, err := ctx.Props.Dict("_ceos_alpha")
	if err != nil {
		return err
	}
	tc, err := ctx.Props.Dict("T_c")
	if err != nil {
		return err
	}
	pc, err := ctx.Props.Dict("p_c")
	if err != nil {
		return err
	}
	cu := mustUnit("J/(mol.K)").Pow(2)
	cq := quantity.FromFloat(29.5518, cu)

	out := quantity.Dict{}
	for _, sp := range ctx.Species {
		ai, err := dictEntry(alpha, "_ceos_alpha", sp)
		if err != nil {
			return err
		}
		tci, err := dictEntry(tc, "T_c", sp)
		if err != nil {
			return err
		}
		pci, err := dictEntry(pc, "p_c", sp)
		if err != nil {
			return err
		}
		q, err := cq.Mul(ai).Mul(tci.Sq()).Div(pci)
		if err != nil {
			return err
		}
		out[sp] = q
	}
	ctx.Props.SetDict("_ceos_a_pure", out)
	return nil
}

// RedlichKwongBFunction: b_i = 0.720368*T_c_i/p_c_i, the pure component
// co-volume in m3/mol. The literal is close to 0.08664*R (0.720365) and
// is carried with the dimension of R.
type RedlichKwongBFunction struct{}

func (c *RedlichKwongBFunction) ClassName() string       { return "RedlichKwongBFunction" }
func (c *RedlichKwongBFunction) ParamDecls() []ParamDecl { return nil }
func (c *RedlichKwongBFunction) Inputs() []string        { return []string{"T_c", "p_c"} }
func (c *RedlichKwongBFunction) Outputs() []string       { return []string{"_ceos_b_pure"} }

func (c *RedlichKwongBFunction) Apply(ctx *Context) error {
	tc, err := ctx.Props.Dict("T_c")
	if err != nil {
		return err
	}
	pc, err := ctx.Props.Dict("p_c")
	if err != nil {
		return err
	}
	cq := quantity.FromFloat(0.720368, mustUnit("J/(mol.K)"))

	out := quantity.Dict{}
	for _, sp := range ctx.Species {
		tci, err := dictEntry(tc, "T_c", sp)
		if err != nil {
			return err
		}
		pci, err := dictEntry(pc, "p_c", sp)
		if err != nil {
			return err
		}
		q, err := cq.Mul(tci).Div(pci)
		if err != nil {
			return err
		}
		out[sp] = q
	}
	ctx.Props.SetDict("_ceos_b_pure", out)
	return nil
}

// LinearMixingRule forms an extensive mixture property as target =
// sum c_i*n_i from the per-species property published under
// <target>_pure. Target is an instance option, not a subtype.
type LinearMixingRule struct {
	Target string
}

func (c *LinearMixingRule) ClassName() string       { return "LinearMixingRule" }
func (c *LinearMixingRule) ParamDecls() []ParamDecl { return nil }
func (c *LinearMixingRule) Inputs() []string        { return []string{"n", c.Target + "_pure"} }
func (c *LinearMixingRule) Outputs() []string       { return []string{c.Target} }

func (c *LinearMixingRule) SetOption(key, value string) error {
	if key != "target" {
		return sigmaerr.New(sigmaerr.MissingRequirement, c.ClassName(), "unknown option %q", key)
	}
	c.Target = value
	return nil
}

func (c *LinearMixingRule) Apply(ctx *Context) error {
	n, err := ctx.Props.Dict("n")
	if err != nil {
		return err
	}
	pure, err := ctx.Props.Dict(c.Target + "_pure")
	if err != nil {
		return err
	}
	var total quantity.Quantity
	first := true
	for _, sp := range ctx.Species {
		ci, err := dictEntry(pure, c.Target+"_pure", sp)
		if err != nil {
			return err
		}
		ni, err := dictEntry(n, "n", sp)
		if err != nil {
			return err
		}
		term := ci.Mul(ni)
		if first {
			total = term
			first = false
		} else if total, err = total.Add(term); err != nil {
			return err
		}
	}
	ctx.Props.SetScalar(c.Target, total)
	return nil
}

// NonSymmetricMixingRule forms the attraction mixture property with
// temperature dependent binary interaction (k1, k2) and a non-symmetric
// composition correction (l1):
//
//	target = (sum sqrt(a_i) n_i)^2
//	       + sum_{i<j} 2 n_i n_j sqrt(a_i a_j) (k1_ij - k2_ij (T/T_ref - 1))
//	       - (2/N) sum_{i<j} (n_j - n_i) n_i n_j sqrt(a_i a_j) l1_ij
//
// Absent pair parameters count as zero.
type NonSymmetricMixingRule struct {
	Target string
}

func (c *NonSymmetricMixingRule) ClassName() string { return "NonSymmetricMixingRule" }

func (c *NonSymmetricMixingRule) ParamDecls() []ParamDecl {
	return []ParamDecl{
		{Name: "k1", Unit: unit.Dimensionless, PerPair: true},
		{Name: "k2", Unit: unit.Dimensionless, PerPair: true},
		{Name: "l1", Unit: unit.Dimensionless, PerPair: true},
	}
}

func (c *NonSymmetricMixingRule) Inputs() []string  { return []string{"n", "T", "T_ref", c.Target + "_pure"} }
func (c *NonSymmetricMixingRule) Outputs() []string { return []string{c.Target} }

func (c *NonSymmetricMixingRule) SetOption(key, value string) error {
	if key != "target" {
		return sigmaerr.New(sigmaerr.MissingRequirement, c.ClassName(), "unknown option %q", key)
	}
	c.Target = value
	return nil
}

func (c *NonSymmetricMixingRule) Apply(ctx *Context) error {
	n, err := ctx.Props.Dict("n")
	if err != nil {
		return err
	}
	T, err := ctx.Props.Scalar("T")
	if err != nil {
		return err
	}
	tRef, err := ctx.Props.Scalar("T_ref")
	if err != nil {
		return err
	}
	pure, err := ctx.Props.Dict(c.Target + "_pure")
	if err != nil {
		return err
	}
	k1 := ctx.Params.Pairs["k1"]
	k2 := ctx.Params.Pairs["k2"]
	l1 := ctx.Params.Pairs["l1"]

	trm1, err := T.Div(tRef)
	if err != nil {
		return err
	}
	if trm1, err = trm1.Sub(dimless(1)); err != nil {
		return err
	}
	N, err := n.Sum()
	if err != nil {
		return err
	}

	// symmetric base: (sum sqrt(a_i) n_i)^2
	var root quantity.Quantity
	first := true
	for _, sp := range ctx.Species {
		ai, err := dictEntry(pure, c.Target+"_pure", sp)
		if err != nil {
			return err
		}
		ni, err := dictEntry(n, "n", sp)
		if err != nil {
			return err
		}
		term := ai.Sqrt().Mul(ni)
		if first {
			root = term
			first = false
		} else if root, err = root.Add(term); err != nil {
			return err
		}
	}
	total := root.Sq()

	for i, spi := range ctx.Species {
		for _, spj := range ctx.Species[i+1:] {
			ai, err := dictEntry(pure, c.Target+"_pure", spi)
			if err != nil {
				return err
			}
			aj, err := dictEntry(pure, c.Target+"_pure", spj)
			if err != nil {
				return err
			}
			ni, err := dictEntry(n, "n", spi)
			if err != nil {
				return err
			}
			nj, err := dictEntry(n, "n", spj)
			if err != nil {
				return err
			}
			gij := ai.Mul(aj).Sqrt()
			nij := ni.Mul(nj)

			k1ij, hasK1 := k1.Get(spi, spj)
			k2ij, hasK2 := k2.Get(spi, spj)
			if hasK1 || hasK2 {
				inter := k1ij
				if !hasK1 {
					inter = dimless(0)
				}
				if hasK2 {
					if inter, err = inter.Sub(k2ij.Mul(trm1)); err != nil {
						return err
					}
				}
				if total, err = total.Add(nij.Scale(2).Mul(gij).Mul(inter)); err != nil {
					return err
				}
			}

			if l1ij, ok := l1.Get(spi, spj); ok {
				diff, err := nj.Sub(ni)
				if err != nil {
					return err
				}
				corr, err := diff.Mul(nij).Mul(gij).Mul(l1ij).Scale(2).Div(N)
				if err != nil {
					return err
				}
				if total, err = total.Sub(corr); err != nil {
					return err
				}
			}
		}
	}
	ctx.Props.SetScalar(c.Target, total)
	return nil
}

// VolumeShift publishes the extensive volume translation
// _ceos_c = sum c_i*n_i.
type VolumeShift struct{}

func (c *VolumeShift) ClassName() string { return "VolumeShift" }

func (c *VolumeShift) ParamDecls() []ParamDecl {
	return []ParamDecl{{Name: "c", Unit: mustUnit("m3/mol"), PerSpecies: true}}
}

func (c *VolumeShift) Inputs() []string  { return []string{"n"} }
func (c *VolumeShift) Outputs() []string { return []string{"_ceos_c"} }

func (c *VolumeShift) Apply(ctx *Context) error {
	n, err := ctx.Props.Dict("n")
	if err != nil {
		return err
	}
	cs, err := ctx.Params.Dict("c")
	if err != nil {
		return err
	}
	var total quantity.Quantity
	first := true
	for _, sp := range ctx.Species {
		ci, err := dictEntry(cs, "c", sp)
		if err != nil {
			return err
		}
		ni, err := dictEntry(n, "n", sp)
		if err != nil {
			return err
		}
		term := ci.Mul(ni)
		if first {
			total = term
			first = false
		} else if total, err = total.Add(term); err != nil {
			return err
		}
	}
	ctx.Props.SetScalar("_ceos_c", total)
	return nil
}

// Phase selects the cubic root the EOS keeps.
type Phase int

const (
	PhaseGas    Phase = iota // largest real root
	PhaseLiquid              // smallest real root
)

// RedlichKwongEOS closes the cubic equation of state over the mixture
// properties _ceos_a and _ceos_b (and _ceos_c when a VolumeShift is
// stacked). On a Gibbs state it solves the cubic for V analytically,
// selecting the root by phase via the discriminant, and adds the
// residual (departure) terms to mu and S; on a Helmholtz state it emits
// p(T,V,n) directly. The residual terms are exact symbolic derivatives
// of the departure state function, so they stay consistent with any
// mixing rule stacked before the EOS.
type RedlichKwongEOS struct {
	Phase Phase

	// compiled during Apply for the Relax hook (Helmholtz state only)
	relaxProg *graph.Program
	helmholtz bool
}

func (c *RedlichKwongEOS) ClassName() string {
	if c.Phase == PhaseLiquid {
		return "RedlichKwongEOSLiquid"
	}
	return "RedlichKwongEOSGas"
}

func (c *RedlichKwongEOS) ParamDecls() []ParamDecl { return nil }

func (c *RedlichKwongEOS) Inputs() []string {
	return []string{"T", "n", "_ceos_a", "_ceos_b", "mu", "S"}
}

func (c *RedlichKwongEOS) Outputs() []string { return []string{"mu", "S", "V", "p"} }

func (c *RedlichKwongEOS) Apply(ctx *Context) error {
	if ctx.StateKind == "HelmholtzState" {
		return c.applyHelmholtz(ctx)
	}
	return c.applyGibbs(ctx)
}

// cbrtNode is the real cube root over the full axis, written with the
// closed op set: sign(x)*|x|^(1/3).
func cbrtNode(x *graph.Node) *graph.Node {
	third := graph.Const(1.0 / 3.0)
	return graph.Cond(x, x.Pow(third), x.Neg().Pow(third).Neg())
}

// clampUnit pins x into [-1, 1]; engaged only on the analytically dead
// branch of the root selection, where the raw value can leave the acos
// domain.
func clampUnit(x *graph.Node) *graph.Node {
	one := graph.One
	return graph.Cond(x.Sub(one), one, graph.Cond(x.Add(one), x, one.Neg()))
}

// selectRoot returns the chosen real root of t^3 + p t + q = 0.
func selectRoot(pd, qd *graph.Node, phase Phase) *graph.Node {
	half := graph.Const(0.5)
	disc := qd.Mul(half).Sq().Add(pd.Mul(graph.Const(1.0 / 3.0)).Pow(graph.Const(3)))

	// one real root: Cardano
	discPos := graph.Cond(disc, disc, graph.Zero)
	sq := discPos.Sqrt()
	mq := qd.Mul(half).Neg()
	single := cbrtNode(mq.Add(sq)).Add(cbrtNode(mq.Sub(sq)))

	// three real roots: trigonometric form, clamped so the dead branch
	// stays finite when disc > 0
	tiny := graph.Const(1e-30)
	negp3 := pd.Mul(graph.Const(1.0 / 3.0)).Neg()
	mneg := graph.Cond(negp3.Sub(tiny), negp3, tiny)
	m := mneg.Sqrt()
	m3 := mneg.Mul(m)
	cosArg := clampUnit(mustDivNode(mq, m3))
	phi := cosArg.Acos().Mul(graph.Const(1.0 / 3.0))
	var trig *graph.Node
	if phase == PhaseLiquid {
		trig = m.Mul(graph.Const(2)).Mul(phi.Sub(graph.Const(4 * math.Pi / 3)).Cos())
	} else {
		trig = m.Mul(graph.Const(2)).Mul(phi.Cos())
	}

	return graph.Cond(disc, single, trig)
}

func mustDivNode(a, b *graph.Node) *graph.Node {
	n, err := a.Div(b)
	if err != nil {
		panic(err)
	}
	return n
}

// ceosMixture gathers the common EOS inputs.
func ceosMixture(ctx *Context) (T, A, B, N quantity.Quantity, n quantity.Dict, err error) {
	if T, err = ctx.Props.Scalar("T"); err != nil {
		return
	}
	if A, err = ctx.Props.Scalar("_ceos_a"); err != nil {
		return
	}
	if B, err = ctx.Props.Scalar("_ceos_b"); err != nil {
		return
	}
	if n, err = ctx.Props.Dict("n"); err != nil {
		return
	}
	N, err = n.Sum()
	return
}

// residualHelmholtz is the departure A_res(T,V,n) of the RK form
// p = NRT/(V-B) - A/(V(V+B)):
//
//	A_res = NRT ln(V/(V-B)) + (A/B) ln(V/(V+B))
func residualHelmholtz(NRT, A, B, V quantity.Quantity) (quantity.Quantity, error) {
	vmb, err := V.Sub(B)
	if err != nil {
		return quantity.Quantity{}, err
	}
	r1, err := V.Div(vmb)
	if err != nil {
		return quantity.Quantity{}, err
	}
	ln1, err := r1.Log()
	if err != nil {
		return quantity.Quantity{}, err
	}
	vpb, err := V.Add(B)
	if err != nil {
		return quantity.Quantity{}, err
	}
	r2, err := V.Div(vpb)
	if err != nil {
		return quantity.Quantity{}, err
	}
	ln2, err := r2.Log()
	if err != nil {
		return quantity.Quantity{}, err
	}
	aOverB, err := A.Div(B)
	if err != nil {
		return quantity.Quantity{}, err
	}
	return NRT.Mul(ln1).Add(aOverB.Mul(ln2))
}

// addDeparture folds the exact partial derivatives of the departure
// state function F into mu (d/dn_i) and S (-d/dT).
func addDeparture(ctx *Context, F, T quantity.Quantity, n quantity.Dict) error {
	mu, err := ctx.Props.Dict("mu")
	if err != nil {
		return err
	}
	S, err := ctx.Props.Scalar("S")
	if err != nil {
		return err
	}
	wrt := []quantity.Quantity{T}
	for _, sp := range ctx.Species {
		ni, err := dictEntry(n, "n", sp)
		if err != nil {
			return err
		}
		wrt = append(wrt, ni)
	}
	grads := quantity.Grad(F, wrt)
	if S, err = S.Sub(grads[0]); err != nil {
		return err
	}
	muOut := quantity.Dict{}
	for sp, q := range mu {
		muOut[sp] = q
	}
	for i, sp := range ctx.Species {
		if muOut[sp], err = muOut[sp].Add(grads[i+1]); err != nil {
			return err
		}
	}
	ctx.Props.SetDict("mu", muOut)
	ctx.Props.SetScalar("S", S)
	return nil
}

func (c *RedlichKwongEOS) applyGibbs(ctx *Context) error {
	T, A, B, N, n, err := ceosMixture(ctx)
	if err != nil {
		return err
	}
	p, err := ctx.Props.Scalar("p")
	if err != nil {
		return err
	}
	NRT := N.Mul(gasR()).Mul(T)

	// cubic V^3 + a2 V^2 + a1 V + a0 = 0, unit-checked coefficients
	a2, err := NRT.Div(p)
	if err != nil {
		return err
	}
	a2 = a2.Neg()
	nrtB, err := NRT.Mul(B).Sub(A)
	if err != nil {
		return err
	}
	a1, err := nrtB.Neg().Div(p)
	if err != nil {
		return err
	}
	if a1, err = a1.Sub(B.Sq()); err != nil {
		return err
	}
	ab, err := A.Mul(B).Div(p)
	if err != nil {
		return err
	}
	a0 := ab.Neg()

	// depressed form t^3 + pd t + qd = 0, V = t - a2/3
	pdN := a1.Node.Sub(a2.Node.Sq().Mul(graph.Const(1.0 / 3.0)))
	qdN := a2.Node.Sq().Mul(a2.Node).Mul(graph.Const(2.0 / 27.0)).
		Sub(a2.Node.Mul(a1.Node).Mul(graph.Const(1.0 / 3.0))).
		Add(a0.Node)
	tN := selectRoot(pdN, qdN, c.Phase)
	vN := tN.Sub(a2.Node.Mul(graph.Const(1.0 / 3.0)))
	// a2 = -NRT/p already carries the frame's volume dimension (m3 for
	// holdups, m3/s for flows)
	V := quantity.Quantity{Node: vN, Unit: a2.Unit}

	// departure at fixed T and p:
	// G_res = A_res(T,V,n) - NRT ln(Vp/NRT) + pV - NRT
	aRes, err := residualHelmholtz(NRT, A, B, V)
	if err != nil {
		return err
	}
	vr, err := V.Mul(p).Div(NRT)
	if err != nil {
		return err
	}
	lnvr, err := vr.Log()
	if err != nil {
		return err
	}
	gRes, err := aRes.Sub(NRT.Mul(lnvr))
	if err != nil {
		return err
	}
	if gRes, err = gRes.Add(p.Mul(V)); err != nil {
		return err
	}
	if gRes, err = gRes.Sub(NRT); err != nil {
		return err
	}

	vOut := V
	if ctx.Props.Has("_ceos_c") {
		C, err := ctx.Props.Scalar("_ceos_c")
		if err != nil {
			return err
		}
		if vOut, err = V.Sub(C); err != nil {
			return err
		}
		if gRes, err = gRes.Sub(p.Mul(C)); err != nil {
			return err
		}
	}

	if err := addDeparture(ctx, gRes, T, n); err != nil {
		return err
	}
	ctx.Props.SetScalar("V", vOut)
	vmb, err := V.Sub(B)
	if err != nil {
		return err
	}
	ctx.AddBound("V-b", vmb)
	c.helmholtz = false
	return nil
}

func (c *RedlichKwongEOS) applyHelmholtz(ctx *Context) error {
	T, A, B, N, n, err := ceosMixture(ctx)
	if err != nil {
		return err
	}
	V, err := ctx.Props.Scalar("V")
	if err != nil {
		return err
	}
	NRT := N.Mul(gasR()).Mul(T)

	veff := V
	if ctx.Props.Has("_ceos_c") {
		C, err := ctx.Props.Scalar("_ceos_c")
		if err != nil {
			return err
		}
		if veff, err = V.Add(C); err != nil {
			return err
		}
	}

	vmb, err := veff.Sub(B)
	if err != nil {
		return err
	}
	vpb, err := veff.Add(B)
	if err != nil {
		return err
	}
	rep, err := NRT.Div(vmb)
	if err != nil {
		return err
	}
	att, err := A.Div(veff.Mul(vpb))
	if err != nil {
		return err
	}
	p, err := rep.Sub(att)
	if err != nil {
		return err
	}

	aRes, err := residualHelmholtz(NRT, A, B, veff)
	if err != nil {
		return err
	}
	if err := addDeparture(ctx, aRes, T, n); err != nil {
		return err
	}
	ctx.Props.SetScalar("p", p)
	ctx.AddBound("V-b", vmb)

	// compile B against the raw state symbols so Relax can keep the
	// stepped V strictly outside the co-volume
	stateDict, err := ctx.Props.Dict("_state")
	if err != nil {
		return err
	}
	syms := make([]*graph.Node, len(stateDict))
	for i := range syms {
		q, ok := stateDict[stateIndexKey(i)]
		if !ok {
			return sigmaerr.New(sigmaerr.NumericBuild, c.ClassName(), "state vector has no entry %d", i)
		}
		syms[i] = q.Node
	}
	prog, err := graph.Compile(syms, []*graph.Node{B.Node})
	if err != nil {
		return err
	}
	c.relaxProg = prog
	c.helmholtz = true
	return nil
}

func stateIndexKey(i int) string {
	if i == 0 {
		return "0"
	}
	s := ""
	for i > 0 {
		s = string(rune('0'+i%10)) + s
		i /= 10
	}
	return s
}

// Relax projects a stepped Helmholtz state back onto the selected
// branch: the raw V entry is kept strictly above the mixture co-volume.
// On a Gibbs state the root choice is baked into the analytic volume
// expression and there is nothing to project.
func (c *RedlichKwongEOS) Relax(x []float64) error {
	if !c.helmholtz || c.relaxProg == nil {
		return nil
	}
	bv, err := c.relaxProg.Eval(x)
	if err != nil {
		return err
	}
	floor := bv[0] * (1 + 1e-6)
	if x[1] <= floor {
		x[1] = floor
	}
	return nil
}
