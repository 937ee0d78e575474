// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package thermo

import (
	"github.com/VolkerSiep/SigmaMu/internal/graph"
	"github.com/VolkerSiep/SigmaMu/internal/quantity"
	"github.com/VolkerSiep/SigmaMu/internal/sigmaerr"
	"github.com/VolkerSiep/SigmaMu/internal/state"
	"github.com/VolkerSiep/SigmaMu/internal/unit"
)

// Entry is one contribution slot within a frame's declared order: a
// contribution instance with its options already set, and the alias it
// is resolved and referenced under, defaulting to its class name when
// the structure file gives it none.
type Entry struct {
	Alias        string
	Contribution Contribution
}

// ParamResolver resolves a contribution's declared parameters against
// whatever sources the caller configured. internal/material's
// ThermoParameterStore implements this; thermo itself never imports
// material, keeping frame assembly usable independent of how parameters
// are ultimately sourced.
type ParamResolver interface {
	Resolve(alias, class string, decls []ParamDecl, species []string) (Params, error)
}

// Frame is an assembled ThermoFrame: an ordered species set, a state
// definition and the resulting property table, bound list, and
// per-alias Relax hooks.
type Frame struct {
	Species     []string
	StateKind   string // "GibbsState" or "HelmholtzState"
	Props       *Props
	Bounds      []Bound
	ParamUsage  map[string][]ParamDecl // alias -> declared parameters, for the "parameter_structure" test property
	relaxers    []namedRelaxer
	stateVector []quantity.Quantity
}

type namedRelaxer struct {
	alias string
	r     Relaxer
}

// mandatoryOutputs is the published-property floor every frame must
// meet after assembly; p/V are swapped per state kind.
func mandatoryOutputs(stateKind string) []string {
	if stateKind == "HelmholtzState" {
		return []string{"_state", "T", "V", "n", "S", "mu"}
	}
	return []string{"_state", "T", "p", "n", "S", "mu", "V"}
}

// Assemble builds a Frame: the state definition first, then every
// entry in declared order, each reading/writing the shared property
// table. Every
// contribution's declared Inputs must already be published, or assembly
// fails with MissingRequirement; every declared Output must actually be
// published after Apply, or assembly fails with UndeclaredProperty.
func Assemble(reg *unit.Registry, table *graph.SymbolTable, prefix string, stateDef state.Definition, species []string, amount unit.Unit, entries []Entry, resolver ParamResolver) (*Frame, error) {
	sProps, err := stateDef.Build(reg, table, prefix, species, amount)
	if err != nil {
		return nil, err
	}

	props := NewProps()
	props.SetScalar("T", sProps.T)
	stateKind := stateDef.Name()
	if stateKind == "HelmholtzState" {
		props.SetScalar("V", sProps.V)
	} else {
		props.SetScalar("p", sProps.P)
	}
	props.SetDict("n", sProps.N)
	stateDict := quantity.Dict{}
	for i, q := range sProps.State {
		stateDict[indexName(i)] = q
	}
	props.SetDict("_state", stateDict)

	f := &Frame{
		Species:     species,
		StateKind:   stateKind,
		Props:       props,
		ParamUsage:  map[string][]ParamDecl{},
		stateVector: sProps.State,
	}

	seenAlias := map[string]bool{}
	for _, e := range entries {
		alias := e.Alias
		if alias == "" {
			alias = e.Contribution.ClassName()
		}
		if seenAlias[alias] {
			return nil, sigmaerr.New(sigmaerr.MissingRequirement, alias, "duplicate contribution alias %q", alias)
		}
		seenAlias[alias] = true

		for _, in := range e.Contribution.Inputs() {
			if !props.Has(in) {
				return nil, sigmaerr.New(sigmaerr.MissingRequirement, alias, "contribution %q requires input %q, which is not yet published", e.Contribution.ClassName(), in)
			}
		}

		decls := e.Contribution.ParamDecls()
		params, err := resolver.Resolve(alias, e.Contribution.ClassName(), decls, species)
		if err != nil {
			return nil, err
		}
		f.ParamUsage[alias] = decls

		ctx := &Context{Species: species, StateKind: stateKind, Props: props, Params: params}
		if err := e.Contribution.Apply(ctx); err != nil {
			return nil, err
		}
		f.Bounds = append(f.Bounds, ctx.Bounds...)

		for _, out := range e.Contribution.Outputs() {
			if !props.Has(out) {
				return nil, sigmaerr.New(sigmaerr.UndeclaredProperty, alias, "contribution %q declared output %q but did not publish it", e.Contribution.ClassName(), out)
			}
		}

		if r, ok := e.Contribution.(Relaxer); ok {
			f.relaxers = append(f.relaxers, namedRelaxer{alias: alias, r: r})
		}
	}

	for _, req := range mandatoryOutputs(stateKind) {
		if !props.Has(req) {
			return nil, sigmaerr.New(sigmaerr.MissingRequirement, "", "frame does not publish mandatory property %q", req)
		}
	}

	return f, nil
}

// StateVector returns the raw state-vector Quantities in layout order
// ([T,p,n...] or [T,V,n...]), for seeding the numeric handler's x.
func (f *Frame) StateVector() []quantity.Quantity { return f.stateVector }

// Relax invokes every contribution's Relax hook, in frame order, against
// this material's raw state slice x.
func (f *Frame) Relax(x []float64) error {
	for _, nr := range f.relaxers {
		if err := nr.r.Relax(x); err != nil {
			return sigmaerr.New(sigmaerr.NumericBreak, nr.alias, "relax failed: %v", err)
		}
	}
	return nil
}

func indexName(i int) string {
	const digits = "0123456789"
	if i < 10 {
		return string(digits[i])
	}
	buf := []byte{}
	for i > 0 {
		buf = append([]byte{digits[i%10]}, buf...)
		i /= 10
	}
	return string(buf)
}
