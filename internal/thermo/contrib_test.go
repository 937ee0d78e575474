// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package thermo

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/VolkerSiep/SigmaMu/internal/graph"
	"github.com/VolkerSiep/SigmaMu/internal/quantity"
)

// evalAt compiles q against the given symbol inputs and evaluates it.
func evalAt(t *testing.T, inputs []*graph.Node, q quantity.Quantity, x []float64) float64 {
	t.Helper()
	prog, err := graph.Compile(inputs, []*graph.Node{q.Node})
	if err != nil {
		t.Fatal(err)
	}
	y, err := prog.Eval(x)
	if err != nil {
		t.Fatal(err)
	}
	return y[0]
}

func TestRedlichKwongMFactor(t *testing.T) {
	ctx := &Context{Species: []string{"CH4"}, Props: NewProps(), Params: newParams()}
	ctx.Props.SetDict("omega", quantity.Dict{"CH4": dimless(0.2)})

	c := &RedlichKwongMFactor{}
	if err := c.Apply(ctx); err != nil {
		t.Fatal(err)
	}
	m, err := ctx.Props.Dict("_ceos_m")
	if err != nil {
		t.Fatal(err)
	}
	got, ok := m["CH4"].Node.ConstValue()
	if !ok {
		t.Fatal("m factor of a constant omega should fold to a constant")
	}
	want := 0.48508 - (0.15613*0.2-1.55171)*0.2
	chk.Scalar(t, "m", 1e-12, got, want)
	chk.Scalar(t, "m reference", 1e-5, want, 0.79197)
}

func TestConstantGibbsVolume(t *testing.T) {
	tab := graph.NewSymbolTable()
	ps, _ := tab.Symbol("p", 1)
	ns, _ := tab.Symbol("n", 2)
	pa := mustUnit("Pa")
	mol := mustUnit("mol")
	jmol := mustUnit("J/mol")

	ctx := &Context{Species: []string{"A", "B"}, Props: NewProps(), Params: newParams()}
	ctx.Props.SetScalar("p", quantity.New(ps[0], pa))
	ctx.Props.SetScalar("p_ref", quantity.FromFloat(1e5, pa))
	ctx.Props.SetDict("n", quantity.Dict{
		"A": quantity.New(ns[0], mol),
		"B": quantity.New(ns[1], mol),
	})
	ctx.Props.SetDict("mu", quantity.Dict{
		"A": quantity.FromFloat(-100, jmol),
		"B": quantity.FromFloat(-200, jmol),
	})
	vA, vB := 1.8e-5, 4.2e-5
	ctx.Params.Dicts["v_n"] = quantity.Dict{
		"A": quantity.FromFloat(vA, mustUnit("m3/mol")),
		"B": quantity.FromFloat(vB, mustUnit("m3/mol")),
	}

	c := &ConstantGibbsVolume{}
	if err := c.Apply(ctx); err != nil {
		t.Fatal(err)
	}

	inputs := []*graph.Node{ps[0], ns[0], ns[1]}
	x := []float64{3e5, 1.5, 2.5}
	V, err := ctx.Props.Scalar("V")
	if err != nil {
		t.Fatal(err)
	}
	chk.Scalar(t, "V", 1e-15, evalAt(t, inputs, V, x), vA*1.5+vB*2.5)
	mu, err := ctx.Props.Dict("mu")
	if err != nil {
		t.Fatal(err)
	}
	chk.Scalar(t, "mu_A", 1e-10, evalAt(t, inputs, mu["A"], x), -100+vA*(3e5-1e5))
	chk.Scalar(t, "mu_B", 1e-10, evalAt(t, inputs, mu["B"], x), -200+vB*(3e5-1e5))
}

func TestGibbsIdealGasResidual(t *testing.T) {
	tab := graph.NewSymbolTable()
	ts, _ := tab.Symbol("T", 1)
	ps, _ := tab.Symbol("p", 1)
	ns, _ := tab.Symbol("n", 2)
	kelvin := mustUnit("K")
	pa := mustUnit("Pa")
	mol := mustUnit("mol")
	jmol := mustUnit("J/mol")

	muIm0, muIm1, sIm := -1000.0, -2000.0, 55.0
	ctx := &Context{Species: []string{"A", "B"}, Props: NewProps(), Params: newParams()}
	ctx.Props.SetScalar("T", quantity.New(ts[0], kelvin))
	ctx.Props.SetScalar("p", quantity.New(ps[0], pa))
	ctx.Props.SetScalar("p_ref", quantity.FromFloat(1e5, pa))
	ctx.Props.SetDict("n", quantity.Dict{
		"A": quantity.New(ns[0], mol),
		"B": quantity.New(ns[1], mol),
	})
	ctx.Props.SetDict("mu", quantity.Dict{
		"A": quantity.FromFloat(muIm0, jmol),
		"B": quantity.FromFloat(muIm1, jmol),
	})
	ctx.Props.SetScalar("S", quantity.FromFloat(sIm, mustUnit("J/K")))

	c := &GibbsIdealGas{}
	if err := c.Apply(ctx); err != nil {
		t.Fatal(err)
	}

	inputs := []*graph.Node{ts[0], ps[0], ns[0], ns[1]}
	x := []float64{350, 2.4e5, 0.4, 0.6}
	lnp := math.Log(2.4e5 / 1e5)
	R := GasConstant

	mu, _ := ctx.Props.Dict("mu")
	chk.Scalar(t, "mu_A", 1e-9, evalAt(t, inputs, mu["A"], x), muIm0+350*R*lnp)
	chk.Scalar(t, "mu_B", 1e-9, evalAt(t, inputs, mu["B"], x), muIm1+350*R*lnp)
	S, _ := ctx.Props.Scalar("S")
	chk.Scalar(t, "S", 1e-9, evalAt(t, inputs, S, x), sIm-(0.4+0.6)*R*lnp)
	V, _ := ctx.Props.Scalar("V")
	chk.Scalar(t, "V", 1e-12, evalAt(t, inputs, V, x), (0.4+0.6)*R*350/2.4e5)
	if len(ctx.Bounds) != 1 || ctx.Bounds[0].Name != "p" {
		t.Fatalf("expected one p bound, got %+v", ctx.Bounds)
	}
}

// alphaFor builds the Boston-Mathias alpha for one species as a
// function of the temperature symbol.
func alphaFor(t *testing.T, m, eta, tc float64) (*graph.Node, quantity.Quantity) {
	t.Helper()
	tab := graph.NewSymbolTable()
	ts, _ := tab.Symbol("T", 1)
	ctx := &Context{Species: []string{"X"}, Props: NewProps(), Params: newParams()}
	ctx.Props.SetScalar("T", quantity.New(ts[0], mustUnit("K")))
	ctx.Props.SetDict("T_c", quantity.Dict{"X": quantity.FromFloat(tc, mustUnit("K"))})
	ctx.Props.SetDict("_ceos_m", quantity.Dict{"X": dimless(m)})
	ctx.Params.Dicts["eta"] = quantity.Dict{"X": dimless(eta)}

	c := &BostonMathiasAlphaFunction{}
	if err := c.Apply(ctx); err != nil {
		t.Fatal(err)
	}
	alpha, err := ctx.Props.Dict("_ceos_alpha")
	if err != nil {
		t.Fatal(err)
	}
	return ts[0], alpha["X"]
}

func TestBostonMathiasAlphaContinuity(t *testing.T) {
	const tc = 190.56
	tSym, alpha := alphaFor(t, 0.5, 0.1, tc)
	prog, err := graph.Compile([]*graph.Node{tSym}, []*graph.Node{alpha.Node})
	if err != nil {
		t.Fatal(err)
	}
	val := func(T float64) float64 {
		y, err := prog.Eval([]float64{T})
		if err != nil {
			t.Fatal(err)
		}
		return y[0]
	}
	deriv := func(T float64) float64 {
		_, jac, err := prog.EvalJacobian([]float64{T})
		if err != nil {
			t.Fatal(err)
		}
		return jac.ToMatrix(nil).ToDense()[0][0]
	}

	// both branches equal 1 at T = T_c
	chk.Scalar(t, "alpha just below T_c", 1e-6, val(tc*(1-1e-9)), 1)
	chk.Scalar(t, "alpha just above T_c", 1e-6, val(tc*(1+1e-9)), 1)

	// first derivative continuous across T_c
	dl := deriv(tc * (1 - 1e-7))
	dr := deriv(tc * (1 + 1e-7))
	chk.AnaNum(t, "dalpha/dT across T_c", 1e-6, dl, dr, chk.Verbose)

	// finite value and slope well away from T_c
	for _, T := range []float64{0.5 * tc, 2 * tc} {
		v, d := val(T), deriv(T)
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			t.Fatalf("alpha(%v) = %v", T, v)
		}
		if math.IsNaN(d) || math.IsInf(d, 0) {
			t.Fatalf("dalpha/dT(%v) = %v", T, d)
		}
	}
}

// TestRedlichKwongGibbsNearIdeal drives the full cubic chain with a
// tiny attraction and co-volume: the selected gas root must approach
// the ideal volume NRT/p, and the departure terms must vanish with the
// interaction.
func TestRedlichKwongGibbsNearIdeal(t *testing.T) {
	tab := graph.NewSymbolTable()
	ts, _ := tab.Symbol("T", 1)
	ps, _ := tab.Symbol("p", 1)
	ns, _ := tab.Symbol("n", 1)
	kelvin := mustUnit("K")
	pa := mustUnit("Pa")
	mol := mustUnit("mol")
	jmol := mustUnit("J/mol")

	ctx := &Context{Species: []string{"A"}, StateKind: "GibbsState", Props: NewProps(), Params: newParams()}
	ctx.Props.SetScalar("T", quantity.New(ts[0], kelvin))
	ctx.Props.SetScalar("p", quantity.New(ps[0], pa))
	n := quantity.Dict{"A": quantity.New(ns[0], mol)}
	ctx.Props.SetDict("n", n)
	ctx.Props.SetDict("mu", quantity.Dict{"A": quantity.FromFloat(0, jmol)})
	ctx.Props.SetScalar("S", quantity.FromFloat(0, mustUnit("J/K")))

	// nearly ideal: a and b tiny but positive
	pam6 := pa.Mul(mustUnit("m3")).Mul(mustUnit("m3"))
	ctx.Props.SetScalar("_ceos_a", quantity.New(ns[0], mol).Mul(quantity.New(ns[0], mol)).Mul(quantity.FromFloat(1e-12, pam6.Div(mol).Div(mol))))
	ctx.Props.SetScalar("_ceos_b", quantity.New(ns[0], mol).Mul(quantity.FromFloat(1e-12, mustUnit("m3/mol"))))

	c := &RedlichKwongEOS{Phase: PhaseGas}
	if err := c.Apply(ctx); err != nil {
		t.Fatal(err)
	}

	inputs := []*graph.Node{ts[0], ps[0], ns[0]}
	x := []float64{300, 1e5, 2}
	V, err := ctx.Props.Scalar("V")
	if err != nil {
		t.Fatal(err)
	}
	want := 2 * GasConstant * 300 / 1e5
	chk.Scalar(t, "near-ideal gas root V", 1e-6*want, evalAt(t, inputs, V, x), want)
	mu, _ := ctx.Props.Dict("mu")
	chk.Scalar(t, "near-ideal departure mu", 1e-3, evalAt(t, inputs, mu["A"], x), 0)
}
