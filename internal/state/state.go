// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package state implements the state definitions: the mandatory first
// contribution of every ThermoFrame, which interprets a raw, SI-scaled
// state vector as either (T, p, n) or (T, V, n) and publishes the
// frame's initial property set. The two definitions register
// themselves into a process-wide, read-only-after-bootstrap table
// keyed by name, so model-structure files can select one by string.
package state

import (
	"github.com/VolkerSiep/SigmaMu/internal/graph"
	"github.com/VolkerSiep/SigmaMu/internal/quantity"
	"github.com/VolkerSiep/SigmaMu/internal/sigmaerr"
	"github.com/VolkerSiep/SigmaMu/internal/unit"
)

// Properties is the property set a state definition publishes before any
// thermo contribution runs. Exactly one of P/V is populated, matching
// the definition's Kind.
type Properties struct {
	State []quantity.Quantity // the raw vector itself, each entry in its physical unit
	T     quantity.Quantity
	P     quantity.Quantity // Gibbs state only
	V     quantity.Quantity // Helmholtz state only
	N     quantity.Dict
}

// Definition is a raw-state-vector layout.
type Definition interface {
	// Name is the registry lookup key ("GibbsState", "HelmholtzState").
	Name() string
	// Build allocates the raw state symbols on table, qualified under
	// prefix (the owning material's qualified name), for the given
	// ordered species set, and returns the published Properties. amount
	// is the unit of the n entries: mol for state (holdup) materials,
	// mol/s for flow materials; volumes scale along with it.
	Build(reg *unit.Registry, table *graph.SymbolTable, prefix string, species []string, amount unit.Unit) (Properties, error)
	// InitialState packs T, p-or-V and n into a raw SI vector in the
	// layout Build's symbols expect.
	InitialState(reg *unit.Registry, T, pOrV quantity.Quantity, n quantity.Dict, species []string, amount unit.Unit) ([]float64, error)
}

var registry = map[string]Definition{}

// Register adds a state definition to the process-wide table. Called
// only from package init; the table is read-only during assembly.
func Register(d Definition) { registry[d.Name()] = d }

// Lookup returns the registered definition for name.
func Lookup(name string) (Definition, bool) {
	d, ok := registry[name]
	return d, ok
}

func init() {
	Register(GibbsState{})
	Register(HelmholtzState{})
}

func constOf(q quantity.Quantity) (float64, bool) {
	return q.Node.ConstValue()
}

// GibbsState lays out the raw vector as [T, p, n_0...n_{k-1}]; its
// canonical state function is G(T,p,n).
type GibbsState struct{}

func (GibbsState) Name() string { return "GibbsState" }

func (GibbsState) Build(reg *unit.Registry, table *graph.SymbolTable, prefix string, species []string, amount unit.Unit) (Properties, error) {
	kelvin, _ := reg.Lookup("K")
	pascal, _ := reg.Lookup("Pa")

	ts, err := table.Symbol(prefix+"/T", 1)
	if err != nil {
		return Properties{}, err
	}
	ps, err := table.Symbol(prefix+"/p", 1)
	if err != nil {
		return Properties{}, err
	}
	ns, err := table.Symbol(prefix+"/n", len(species))
	if err != nil {
		return Properties{}, err
	}

	T := quantity.New(ts[0], kelvin)
	P := quantity.New(ps[0], pascal)
	n := quantity.Dict{}
	vec := []quantity.Quantity{T, P}
	for i, sp := range species {
		q := quantity.New(ns[i], amount)
		n[sp] = q
		vec = append(vec, q)
	}
	return Properties{State: vec, T: T, P: P, N: n}, nil
}

func (GibbsState) InitialState(reg *unit.Registry, T, p quantity.Quantity, n quantity.Dict, species []string, amount unit.Unit) ([]float64, error) {
	kelvin, _ := reg.Lookup("K")
	pascal, _ := reg.Lookup("Pa")
	if !T.Unit.SameDimension(kelvin) {
		return nil, sigmaerr.New(sigmaerr.DimensionMismatch, "", "GibbsState: T has dimension %v, want temperature", T.Unit.Dim)
	}
	if !p.Unit.SameDimension(pascal) {
		return nil, sigmaerr.New(sigmaerr.DimensionMismatch, "", "GibbsState: p has dimension %v, want pressure", p.Unit.Dim)
	}
	tSI, ok := constOf(T)
	if !ok {
		return nil, sigmaerr.New(sigmaerr.NumericBuild, "", "GibbsState: T is not a literal constant")
	}
	pSI, ok := constOf(p)
	if !ok {
		return nil, sigmaerr.New(sigmaerr.NumericBuild, "", "GibbsState: p is not a literal constant")
	}
	vec := []float64{tSI, pSI}
	for _, sp := range species {
		v := 0.0
		if q, ok := n[sp]; ok {
			if !q.Unit.SameDimension(amount) {
				return nil, sigmaerr.New(sigmaerr.DimensionMismatch, "", "GibbsState: n[%s] has dimension %v, want %v", sp, q.Unit.Dim, amount.Dim)
			}
			si, ok := constOf(q)
			if !ok {
				return nil, sigmaerr.New(sigmaerr.NumericBuild, "", "GibbsState: n[%s] is not a literal constant", sp)
			}
			v = si
		}
		vec = append(vec, v)
	}
	return vec, nil
}

// HelmholtzState lays out the raw vector as [T, V, n_0...n_{k-1}]; its
// canonical state function is A(T,V,n).
type HelmholtzState struct{}

func (HelmholtzState) Name() string { return "HelmholtzState" }

func (HelmholtzState) Build(reg *unit.Registry, table *graph.SymbolTable, prefix string, species []string, amount unit.Unit) (Properties, error) {
	kelvin, _ := reg.Lookup("K")
	mole, _ := reg.Lookup("mol")
	m3, _ := reg.Lookup("m3")
	vol := m3.Mul(amount).Div(mole) // m3 for holdups, m3/s for flows

	ts, err := table.Symbol(prefix+"/T", 1)
	if err != nil {
		return Properties{}, err
	}
	vs, err := table.Symbol(prefix+"/V", 1)
	if err != nil {
		return Properties{}, err
	}
	ns, err := table.Symbol(prefix+"/n", len(species))
	if err != nil {
		return Properties{}, err
	}

	T := quantity.New(ts[0], kelvin)
	V := quantity.New(vs[0], vol)
	n := quantity.Dict{}
	vec := []quantity.Quantity{T, V}
	for i, sp := range species {
		q := quantity.New(ns[i], amount)
		n[sp] = q
		vec = append(vec, q)
	}
	return Properties{State: vec, T: T, V: V, N: n}, nil
}

func (HelmholtzState) InitialState(reg *unit.Registry, T, v quantity.Quantity, n quantity.Dict, species []string, amount unit.Unit) ([]float64, error) {
	kelvin, _ := reg.Lookup("K")
	mole, _ := reg.Lookup("mol")
	m3, _ := reg.Lookup("m3")
	vol := m3.Mul(amount).Div(mole)
	if !T.Unit.SameDimension(kelvin) {
		return nil, sigmaerr.New(sigmaerr.DimensionMismatch, "", "HelmholtzState: T has dimension %v, want temperature", T.Unit.Dim)
	}
	if !v.Unit.SameDimension(vol) {
		return nil, sigmaerr.New(sigmaerr.DimensionMismatch, "", "HelmholtzState: V has dimension %v, want volume", v.Unit.Dim)
	}
	tSI, ok := constOf(T)
	if !ok {
		return nil, sigmaerr.New(sigmaerr.NumericBuild, "", "HelmholtzState: T is not a literal constant")
	}
	vSI, ok := constOf(v)
	if !ok {
		return nil, sigmaerr.New(sigmaerr.NumericBuild, "", "HelmholtzState: V is not a literal constant")
	}
	vec := []float64{tSI, vSI}
	for _, sp := range species {
		val := 0.0
		if q, ok := n[sp]; ok {
			if !q.Unit.SameDimension(amount) {
				return nil, sigmaerr.New(sigmaerr.DimensionMismatch, "", "HelmholtzState: n[%s] has dimension %v, want %v", sp, q.Unit.Dim, amount.Dim)
			}
			si, ok := constOf(q)
			if !ok {
				return nil, sigmaerr.New(sigmaerr.NumericBuild, "", "HelmholtzState: n[%s] is not a literal constant", sp)
			}
			val = si
		}
		vec = append(vec, val)
	}
	return vec, nil
}
