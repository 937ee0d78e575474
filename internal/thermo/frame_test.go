// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package thermo

import (
	"testing"

	"github.com/VolkerSiep/SigmaMu/internal/graph"
	"github.com/VolkerSiep/SigmaMu/internal/quantity"
	"github.com/VolkerSiep/SigmaMu/internal/sigmaerr"
	"github.com/VolkerSiep/SigmaMu/internal/state"
	"github.com/VolkerSiep/SigmaMu/internal/unit"
)

// constResolver resolves every declared parameter to a fixed literal,
// enough to assemble frames in tests without a parameter store.
type constResolver struct {
	values map[string]float64 // "<param>" or "<param>/<species>" -> SI value
}

func (r constResolver) Resolve(alias, class string, decls []ParamDecl, species []string) (Params, error) {
	p := newParams()
	for _, d := range decls {
		switch {
		case d.PerPair:
			p.Pairs[d.Name] = PairDict{}
		case d.PerSpecies:
			dict := quantity.Dict{}
			for _, sp := range species {
				v := r.values[d.Name+"/"+sp]
				dict[sp] = quantity.FromFloat(v, d.Unit)
			}
			p.Dicts[d.Name] = dict
		default:
			p.Scalars[d.Name] = quantity.FromFloat(r.values[d.Name], d.Unit)
		}
	}
	return p, nil
}

func methaneResolver() constResolver {
	return constResolver{values: map[string]float64{
		"T_ref":       298.15,
		"p_ref":       1e5,
		"dh_form/CH4": -74873,
		"s_0/CH4":     188.66,
		"a/CH4":       33.25,
		"b/CH4":       0.021,
	}}
}

func methaneEntries() []Entry {
	mk := func(name string) Entry {
		c, ok := New(name)
		if !ok {
			panic("unregistered contribution " + name)
		}
		return Entry{Contribution: c}
	}
	return []Entry{
		mk("H0S0ReferenceState"),
		mk("LinearHeatCapacity"),
		mk("IdealMix"),
		mk("GibbsIdealGas"),
	}
}

func TestAssembleIdealGasFrame(t *testing.T) {
	tab := graph.NewSymbolTable()
	f, err := Assemble(unit.Default(), tab, "feed", state.GibbsState{}, []string{"CH4"}, mustUnit("mol/s"), methaneEntries(), methaneResolver())
	if err != nil {
		t.Fatal(err)
	}

	for _, prop := range []string{"_state", "T", "p", "n", "S", "mu", "V"} {
		if !f.Props.Has(prop) {
			t.Fatalf("assembled frame lacks mandatory property %q", prop)
		}
	}

	// bound set: T > 0 from the heat capacity, n > 0 from the ideal
	// mix, p > 0 from the ideal gas
	names := map[string]bool{}
	for _, b := range f.Bounds {
		names[b.Name] = true
	}
	for _, want := range []string{"T", "n/CH4", "p"} {
		if !names[want] {
			t.Fatalf("missing bound %q in %v", want, names)
		}
	}

	// parameter usage enumerates exactly the stacked declarations
	if len(f.ParamUsage["H0S0ReferenceState"]) != 4 {
		t.Fatalf("H0S0ReferenceState should declare 4 parameters, got %d", len(f.ParamUsage["H0S0ReferenceState"]))
	}
	if len(f.ParamUsage["LinearHeatCapacity"]) != 2 {
		t.Fatalf("LinearHeatCapacity should declare 2 parameters, got %d", len(f.ParamUsage["LinearHeatCapacity"]))
	}
}

func TestAssembleRejectsOutOfOrderInputs(t *testing.T) {
	// GibbsIdealGas before anything published mu must fail with
	// MissingRequirement
	mk := func(name string) Entry {
		c, _ := New(name)
		return Entry{Contribution: c}
	}
	tab := graph.NewSymbolTable()
	_, err := Assemble(unit.Default(), tab, "feed", state.GibbsState{}, []string{"CH4"}, mustUnit("mol/s"),
		[]Entry{mk("GibbsIdealGas")}, methaneResolver())
	if err == nil {
		t.Fatal("expected assembly to fail")
	}
	if !sigmaerr.Is(err, sigmaerr.MissingRequirement) {
		t.Fatalf("want MissingRequirement, got %v", err)
	}
}

func TestAssembleIAPWSFrame(t *testing.T) {
	mk := func(name string) Entry {
		c, ok := New(name)
		if !ok {
			panic("unregistered contribution " + name)
		}
		return Entry{Contribution: c}
	}
	entries := []Entry{
		mk("ReducedStateIAPWS"),
		mk("IdealGasIAPWS"),
		mk("PolynomialResidualIAPWS"),
		mk("ExponentialResidualIAPWS"),
		mk("GaussianResidualIAPWS"),
		mk("NonanalyticResidualIAPWS"),
		mk("ResidualBaseIAPWS"),
	}
	resolver := constResolver{values: map[string]float64{
		"T_crit":   647.096,
		"rho_crit": 322.0 / 0.018015268,
	}}
	tab := graph.NewSymbolTable()
	f, err := Assemble(unit.Default(), tab, "steam", state.HelmholtzState{}, []string{"H2O"}, mustUnit("mol"), entries, resolver)
	if err != nil {
		t.Fatal(err)
	}
	for _, prop := range []string{"T", "V", "n", "S", "mu", "p"} {
		if !f.Props.Has(prop) {
			t.Fatalf("IAPWS frame lacks %q", prop)
		}
	}

	// evaluate p at liquid-like conditions; it must be finite
	p, err := f.Props.Scalar("p")
	if err != nil {
		t.Fatal(err)
	}
	syms := make([]*graph.Node, len(f.StateVector()))
	for i, q := range f.StateVector() {
		syms[i] = q.Node
	}
	prog, err := graph.Compile(syms, []*graph.Node{p.Node})
	if err != nil {
		t.Fatal(err)
	}
	// 1 mol of water at 300 K in 19 cm3: dense liquid
	y, err := prog.Eval([]float64{300, 1.9e-5, 1})
	if err != nil {
		t.Fatal(err)
	}
	if y[0] == 0 {
		t.Fatal("IAPWS pressure degenerated to zero")
	}
}
