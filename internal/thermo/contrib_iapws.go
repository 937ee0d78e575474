// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package thermo

import (
	"github.com/VolkerSiep/SigmaMu/internal/graph"
	"github.com/VolkerSiep/SigmaMu/internal/quantity"
	"github.com/VolkerSiep/SigmaMu/internal/sigmaerr"
	"github.com/VolkerSiep/SigmaMu/internal/unit"
)

func init() {
	Register("ReducedStateIAPWS", func() Contribution { return &ReducedStateIAPWS{} })
	Register("IdealGasIAPWS", func() Contribution { return &IdealGasIAPWS{} })
	Register("PolynomialResidualIAPWS", func() Contribution { return &PolynomialResidualIAPWS{} })
	Register("ExponentialResidualIAPWS", func() Contribution { return &ExponentialResidualIAPWS{} })
	Register("GaussianResidualIAPWS", func() Contribution { return &GaussianResidualIAPWS{} })
	Register("NonanalyticResidualIAPWS", func() Contribution { return &NonanalyticResidualIAPWS{} })
	Register("ResidualBaseIAPWS", func() Contribution { return &ResidualBaseIAPWS{} })
}

// The IAPWS-95 scientific formulation: a dimensionless Helmholtz
// function phi(tau, delta) = phi0 + phir, accumulated under the
// _iapws_phi property by the ideal-gas contribution and the four
// residual blocks, then aggregated into p, S and mu by
// ResidualBaseIAPWS (stacked last). Term tables follow the IAPWS
// Release on the IAPWS Formulation 1995.

// addPhi accumulates a dimensionless phi piece into the shared table.
func addPhi(ctx *Context, piece quantity.Quantity) error {
	if ctx.Props.Has("_iapws_phi") {
		prev, err := ctx.Props.Scalar("_iapws_phi")
		if err != nil {
			return err
		}
		if piece, err = prev.Add(piece); err != nil {
			return err
		}
	}
	ctx.Props.SetScalar("_iapws_phi", piece)
	return nil
}

// reducedPair reads tau and delta.
func reducedPair(ctx *Context) (tau, delta quantity.Quantity, err error) {
	if tau, err = ctx.Props.Scalar("_iapws_tau"); err != nil {
		return
	}
	delta, err = ctx.Props.Scalar("_iapws_delta")
	return
}

// ReducedStateIAPWS publishes the inverse reduced temperature
// tau = T_crit/T and the reduced molar density delta = N/(V*rho_crit)
// of a Helmholtz state.
type ReducedStateIAPWS struct{}

func (c *ReducedStateIAPWS) ClassName() string { return "ReducedStateIAPWS" }

func (c *ReducedStateIAPWS) ParamDecls() []ParamDecl {
	return []ParamDecl{
		{Name: "T_crit", Unit: mustUnit("K")},
		{Name: "rho_crit", Unit: mustUnit("mol/m3")},
	}
}

func (c *ReducedStateIAPWS) Inputs() []string  { return []string{"T", "V", "n"} }
func (c *ReducedStateIAPWS) Outputs() []string { return []string{"_iapws_tau", "_iapws_delta"} }

func (c *ReducedStateIAPWS) Apply(ctx *Context) error {
	if ctx.StateKind != "HelmholtzState" {
		return sigmaerr.New(sigmaerr.MissingRequirement, c.ClassName(), "requires a Helmholtz state")
	}
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
	tCrit, err := ctx.Params.Scalar("T_crit")
	if err != nil {
		return err
	}
	rhoCrit, err := ctx.Params.Scalar("rho_crit")
	if err != nil {
		return err
	}
	N, err := n.Sum()
	if err != nil {
		return err
	}

	tau, err := tCrit.Div(T)
	if err != nil {
		return err
	}
	rho, err := N.Div(V)
	if err != nil {
		return err
	}
	delta, err := rho.Div(rhoCrit)
	if err != nil {
		return err
	}
	ctx.Props.SetScalar("_iapws_tau", tau)
	ctx.Props.SetScalar("_iapws_delta", delta)
	ctx.AddBound("T", T)
	ctx.AddBound("V", V)
	return nil
}

// ideal-gas part: phi0 = ln(delta) + n1 + n2 tau + n3 ln(tau)
//                      + sum n_i ln(1 - exp(-gamma_i tau))
var iapwsIdealN = [3]float64{-8.3204464837497, 6.6832105275932, 3.00632}

var iapwsIdealEinstein = [][2]float64{ // {n, gamma}
	{0.012436, 1.28728967},
	{0.97315, 3.53734222},
	{1.27950, 7.74073708},
	{0.96956, 9.24437796},
	{0.24873, 27.5075105},
}

// IdealGasIAPWS adds phi0 to the accumulated phi.
type IdealGasIAPWS struct{}

func (c *IdealGasIAPWS) ClassName() string       { return "IdealGasIAPWS" }
func (c *IdealGasIAPWS) ParamDecls() []ParamDecl { return nil }
func (c *IdealGasIAPWS) Inputs() []string        { return []string{"_iapws_tau", "_iapws_delta"} }
func (c *IdealGasIAPWS) Outputs() []string       { return []string{"_iapws_phi"} }

func (c *IdealGasIAPWS) Apply(ctx *Context) error {
	tau, delta, err := reducedPair(ctx)
	if err != nil {
		return err
	}
	lnd, err := delta.Log()
	if err != nil {
		return err
	}
	lnt, err := tau.Log()
	if err != nil {
		return err
	}
	phi, err := lnd.Add(dimless(iapwsIdealN[0]))
	if err != nil {
		return err
	}
	if phi, err = phi.Add(tau.Scale(iapwsIdealN[1])); err != nil {
		return err
	}
	if phi, err = phi.Add(lnt.Scale(iapwsIdealN[2])); err != nil {
		return err
	}
	one := graph.One
	for _, row := range iapwsIdealEinstein {
		term := one.Sub(tau.Node.Mul(graph.Const(-row[1])).Exp()).Log().Mul(graph.Const(row[0]))
		q := quantity.Quantity{Node: term, Unit: unit.Dimensionless}
		if phi, err = phi.Add(q); err != nil {
			return err
		}
	}
	return addPhi(ctx, phi)
}

// residual part, polynomial block: sum n_i delta^d_i tau^t_i
var iapwsPoly = []struct{ d, t, n float64 }{
	{1, -0.5, 0.12533547935523e-1},
	{1, 0.875, 0.78957634722828e1},
	{1, 1, -0.87803203303561e1},
	{2, 0.5, 0.31802509345418},
	{2, 0.75, -0.26145533859358},
	{3, 0.375, -0.78199751687981e-2},
	{4, 1, 0.88089493102134e-2},
}

// PolynomialResidualIAPWS adds the seven leading polynomial terms.
type PolynomialResidualIAPWS struct{}

func (c *PolynomialResidualIAPWS) ClassName() string       { return "PolynomialResidualIAPWS" }
func (c *PolynomialResidualIAPWS) ParamDecls() []ParamDecl { return nil }
func (c *PolynomialResidualIAPWS) Inputs() []string        { return []string{"_iapws_tau", "_iapws_delta"} }
func (c *PolynomialResidualIAPWS) Outputs() []string       { return []string{"_iapws_phi"} }

func (c *PolynomialResidualIAPWS) Apply(ctx *Context) error {
	tau, delta, err := reducedPair(ctx)
	if err != nil {
		return err
	}
	sum := graph.Zero
	for _, row := range iapwsPoly {
		term := delta.Node.Pow(graph.Const(row.d)).Mul(tau.Node.Pow(graph.Const(row.t))).Mul(graph.Const(row.n))
		sum = sum.Add(term)
	}
	return addPhi(ctx, quantity.Quantity{Node: sum, Unit: unit.Dimensionless})
}

// residual part, exponential block: sum n_i delta^d_i tau^t_i exp(-delta^c_i)
var iapwsExp = []struct{ cc, d, t, n float64 }{
	{1, 1, 4, -0.66856572307965},
	{1, 1, 6, 0.20433810950965},
	{1, 1, 12, -0.66212605039687e-4},
	{1, 2, 1, -0.19232721156002},
	{1, 2, 5, -0.25709043003438},
	{1, 3, 4, 0.16074868486251},
	{1, 4, 2, -0.40092828925807e-1},
	{1, 4, 13, 0.39343422603254e-6},
	{1, 5, 9, -0.75941377088144e-5},
	{1, 7, 3, 0.56250979351888e-3},
	{1, 9, 4, -0.15608652257135e-4},
	{1, 10, 11, 0.11537996422951e-8},
	{1, 11, 4, 0.36582165144204e-6},
	{1, 13, 13, -0.13251180074668e-11},
	{1, 15, 1, -0.62639586912454e-9},
	{2, 1, 7, -0.10793600908932},
	{2, 2, 1, 0.17611491008752e-1},
	{2, 2, 9, 0.22132295167546},
	{2, 2, 10, -0.40247669763528},
	{2, 3, 10, 0.58083399985759},
	{2, 4, 3, 0.49969146990806e-2},
	{2, 4, 7, -0.31358700712549e-1},
	{2, 4, 10, -0.74315929710341},
	{2, 5, 10, 0.47807329915480},
	{2, 6, 6, 0.20527224929201e-1},
	{2, 6, 10, -0.13636435110343},
	{2, 7, 10, 0.14180634400617e-1},
	{2, 9, 1, 0.83326504880713e-2},
	{2, 9, 2, -0.29052336009585e-1},
	{2, 9, 3, 0.38615085574206e-1},
	{2, 9, 4, -0.20393486513704e-1},
	{2, 9, 8, -0.16554050063734e-2},
	{2, 10, 6, 0.19955571979541e-2},
	{2, 10, 9, 0.15870308324157e-3},
	{2, 12, 8, -0.16388568342530e-4},
	{3, 3, 16, 0.43613615723811e-1},
	{3, 4, 22, 0.34994005463765e-1},
	{3, 4, 23, -0.76788197844621e-1},
	{3, 5, 23, 0.22446277332006e-1},
	{4, 14, 10, -0.62689710414685e-4},
	{6, 3, 50, -0.55711118565645e-9},
	{6, 6, 44, -0.19905718354408},
	{6, 6, 46, 0.31777497330738},
	{6, 6, 50, -0.11841182425981},
}

// ExponentialResidualIAPWS adds the exponentially damped terms.
type ExponentialResidualIAPWS struct{}

func (c *ExponentialResidualIAPWS) ClassName() string       { return "ExponentialResidualIAPWS" }
func (c *ExponentialResidualIAPWS) ParamDecls() []ParamDecl { return nil }
func (c *ExponentialResidualIAPWS) Inputs() []string        { return []string{"_iapws_tau", "_iapws_delta"} }
func (c *ExponentialResidualIAPWS) Outputs() []string       { return []string{"_iapws_phi"} }

func (c *ExponentialResidualIAPWS) Apply(ctx *Context) error {
	tau, delta, err := reducedPair(ctx)
	if err != nil {
		return err
	}
	sum := graph.Zero
	for _, row := range iapwsExp {
		damp := delta.Node.Pow(graph.Const(row.cc)).Neg().Exp()
		term := delta.Node.Pow(graph.Const(row.d)).
			Mul(tau.Node.Pow(graph.Const(row.t))).
			Mul(damp).
			Mul(graph.Const(row.n))
		sum = sum.Add(term)
	}
	return addPhi(ctx, quantity.Quantity{Node: sum, Unit: unit.Dimensionless})
}

// residual part, Gaussian block:
// sum n_i delta^d_i tau^t_i exp(-alpha_i(delta-eps_i)^2 - beta_i(tau-gamma_i)^2)
var iapwsGauss = []struct{ d, t, n, alpha, beta, gamma, eps float64 }{
	{3, 0, -0.31306260323435e2, 20, 150, 1.21, 1},
	{3, 1, 0.31546140237781e2, 20, 150, 1.21, 1},
	{3, 4, -0.25213154341695e4, 20, 250, 1.25, 1},
}

// GaussianResidualIAPWS adds the near-critical Gaussian terms.
type GaussianResidualIAPWS struct{}

func (c *GaussianResidualIAPWS) ClassName() string       { return "GaussianResidualIAPWS" }
func (c *GaussianResidualIAPWS) ParamDecls() []ParamDecl { return nil }
func (c *GaussianResidualIAPWS) Inputs() []string        { return []string{"_iapws_tau", "_iapws_delta"} }
func (c *GaussianResidualIAPWS) Outputs() []string       { return []string{"_iapws_phi"} }

func (c *GaussianResidualIAPWS) Apply(ctx *Context) error {
	tau, delta, err := reducedPair(ctx)
	if err != nil {
		return err
	}
	sum := graph.Zero
	for _, row := range iapwsGauss {
		dd := delta.Node.Sub(graph.Const(row.eps)).Sq().Mul(graph.Const(row.alpha))
		tt := tau.Node.Sub(graph.Const(row.gamma)).Sq().Mul(graph.Const(row.beta))
		damp := dd.Add(tt).Neg().Exp()
		term := delta.Node.Pow(graph.Const(row.d)).
			Mul(tau.Node.Pow(graph.Const(row.t))).
			Mul(damp).
			Mul(graph.Const(row.n))
		sum = sum.Add(term)
	}
	return addPhi(ctx, quantity.Quantity{Node: sum, Unit: unit.Dimensionless})
}

// residual part, nonanalytic block:
// sum n_i Delta^b_i delta psi with
// Delta = theta^2 + B_i ((delta-1)^2)^a_i,
// theta = (1 - tau) + A_i ((delta-1)^2)^(1/(2 beta_i)),
// psi = exp(-C_i (delta-1)^2 - D_i (tau-1)^2)
var iapwsNonan = []struct{ n, a, b, bigB, bigC, bigD, bigA, beta float64 }{
	{-0.14874640856724, 3.5, 0.85, 0.2, 28, 700, 0.32, 0.3},
	{0.31806110878444, 3.5, 0.95, 0.2, 32, 800, 0.32, 0.3},
}

// NonanalyticResidualIAPWS adds the two critical-region terms.
type NonanalyticResidualIAPWS struct{}

func (c *NonanalyticResidualIAPWS) ClassName() string       { return "NonanalyticResidualIAPWS" }
func (c *NonanalyticResidualIAPWS) ParamDecls() []ParamDecl { return nil }
func (c *NonanalyticResidualIAPWS) Inputs() []string        { return []string{"_iapws_tau", "_iapws_delta"} }
func (c *NonanalyticResidualIAPWS) Outputs() []string       { return []string{"_iapws_phi"} }

func (c *NonanalyticResidualIAPWS) Apply(ctx *Context) error {
	tau, delta, err := reducedPair(ctx)
	if err != nil {
		return err
	}
	one := graph.One
	dm1sq := delta.Node.Sub(one).Sq()
	tm1sq := tau.Node.Sub(one).Sq()
	sum := graph.Zero
	for _, row := range iapwsNonan {
		theta := one.Sub(tau.Node).Add(dm1sq.Pow(graph.Const(1 / (2 * row.beta))).Mul(graph.Const(row.bigA)))
		bigDelta := theta.Sq().Add(dm1sq.Pow(graph.Const(row.a)).Mul(graph.Const(row.bigB)))
		psi := dm1sq.Mul(graph.Const(row.bigC)).Add(tm1sq.Mul(graph.Const(row.bigD))).Neg().Exp()
		term := bigDelta.Pow(graph.Const(row.b)).Mul(delta.Node).Mul(psi).Mul(graph.Const(row.n))
		sum = sum.Add(term)
	}
	return addPhi(ctx, quantity.Quantity{Node: sum, Unit: unit.Dimensionless})
}

// ResidualBaseIAPWS aggregates the accumulated phi into the canonical
// properties of the Helmholtz state: A = N R T phi, then p = -dA/dV,
// S = -dA/dT, mu_i = dA/dn_i as exact symbolic derivatives. It is
// stacked after the phi-contributing blocks.
type ResidualBaseIAPWS struct{}

func (c *ResidualBaseIAPWS) ClassName() string       { return "ResidualBaseIAPWS" }
func (c *ResidualBaseIAPWS) ParamDecls() []ParamDecl { return nil }

func (c *ResidualBaseIAPWS) Inputs() []string  { return []string{"T", "V", "n", "_iapws_phi"} }
func (c *ResidualBaseIAPWS) Outputs() []string { return []string{"p", "S", "mu"} }

func (c *ResidualBaseIAPWS) Apply(ctx *Context) error {
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
	phi, err := ctx.Props.Scalar("_iapws_phi")
	if err != nil {
		return err
	}
	N, err := n.Sum()
	if err != nil {
		return err
	}
	A := N.Mul(gasR()).Mul(T).Mul(phi)

	wrt := []quantity.Quantity{V, T}
	for _, sp := range ctx.Species {
		ni, err := dictEntry(n, "n", sp)
		if err != nil {
			return err
		}
		wrt = append(wrt, ni)
		ctx.AddBound("n/"+sp, ni)
	}
	grads := quantity.Grad(A, wrt)
	p := grads[0].Neg()
	S := grads[1].Neg()

	if ctx.Props.Has("S") {
		prev, err := ctx.Props.Scalar("S")
		if err != nil {
			return err
		}
		if S, err = prev.Add(S); err != nil {
			return err
		}
	}
	mu := quantity.Dict{}
	if ctx.Props.Has("mu") {
		prev, err := ctx.Props.Dict("mu")
		if err != nil {
			return err
		}
		for sp, q := range prev {
			mu[sp] = q
		}
	}
	for i, sp := range ctx.Species {
		if existing, ok := mu[sp]; ok {
			if mu[sp], err = existing.Add(grads[i+2]); err != nil {
				return err
			}
		} else {
			mu[sp] = grads[i+2]
		}
	}

	ctx.Props.SetScalar("p", p)
	ctx.Props.SetScalar("S", S)
	ctx.Props.SetDict("mu", mu)
	return nil
}
