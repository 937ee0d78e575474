// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package material

import (
	"github.com/VolkerSiep/SigmaMu/internal/graph"
	"github.com/VolkerSiep/SigmaMu/internal/quantity"
	"github.com/VolkerSiep/SigmaMu/internal/sigmaerr"
	"github.com/VolkerSiep/SigmaMu/internal/state"
	"github.com/VolkerSiep/SigmaMu/internal/thermo"
	"github.com/VolkerSiep/SigmaMu/internal/unit"
)

// Kind distinguishes flow materials (amounts per time, mol/s scale)
// from state materials (holdups, mol scale).
type Kind int

const (
	Flow Kind = iota
	State
)

func (k Kind) String() string {
	if k == State {
		return "state"
	}
	return "flow"
}

// EntrySpec names one contribution slot of a frame structure, as read
// from a model-structure file: class, optional alias and options.
type EntrySpec struct {
	Class   string
	Alias   string
	Options map[string]string
}

// FrameStructure is the declarative recipe for a frame: the state
// definition name and the ordered contribution slots.
type FrameStructure struct {
	StateName string // "GibbsState" or "HelmholtzState"
	Entries   []EntrySpec
}

// instantiate stamps fresh contribution instances (options applied);
// contributions hold per-frame compiled artifacts, so instances are
// never shared between materials.
func (fs FrameStructure) instantiate() ([]thermo.Entry, error) {
	entries := make([]thermo.Entry, 0, len(fs.Entries))
	for _, es := range fs.Entries {
		c, ok := thermo.New(es.Class)
		if !ok {
			return nil, sigmaerr.New(sigmaerr.MissingRequirement, es.Class, "unknown contribution class %q", es.Class)
		}
		if len(es.Options) > 0 {
			setter, ok := c.(thermo.OptionSetter)
			if !ok {
				return nil, sigmaerr.New(sigmaerr.MissingRequirement, es.Class, "contribution %q accepts no options", es.Class)
			}
			for k, v := range es.Options {
				if err := setter.SetOption(k, v); err != nil {
					return nil, err
				}
			}
		}
		entries = append(entries, thermo.Entry{Alias: es.Alias, Contribution: c})
	}
	return entries, nil
}

// InitialState seeds both solves and linearizations:
// a temperature, a pressure or volume, and per-species amounts.
type InitialState struct {
	T   quantity.Quantity
	POrV quantity.Quantity
	N   quantity.Dict
}

// MaterialDefinition is the (frame, initial state, parameter store)
// triple. Definitions are shared: materials created from one definition
// reference the same store, never a copy.
type MaterialDefinition struct {
	Name      string
	Species   []string
	Structure FrameStructure
	Initial   InitialState
	Store     *ThermoParameterStore
}

// Material is one instantiated stream or holdup: a frame assembled
// under the material's qualified name, whose property table is live
// over the material's own state slice.
type Material struct {
	Name       string
	Kind       Kind
	Definition *MaterialDefinition
	Frame      *thermo.Frame
}

// CreateInstance assembles a frame for one named material on the given
// symbol table. The qualified name prefixes every state symbol, keeping
// per-material namespaces disjoint in the flat problem.
// resolver overrides the definition's store when non-nil; the model
// layer passes a wrapper that turns resolved parameters into editable
// problem arguments.
func (d *MaterialDefinition) CreateInstance(name string, kind Kind, table *graph.SymbolTable, resolver thermo.ParamResolver) (*Material, error) {
	def, ok := state.Lookup(d.Structure.StateName)
	if !ok {
		return nil, sigmaerr.New(sigmaerr.MissingRequirement, name, "unknown state definition %q", d.Structure.StateName)
	}
	entries, err := d.Structure.instantiate()
	if err != nil {
		return nil, err
	}
	if resolver == nil {
		resolver = d.Store
	}
	frame, err := thermo.Assemble(unit.Default(), table, name, def, d.Species, amountUnit(kind), entries, resolver)
	if err != nil {
		return nil, err
	}
	return &Material{Name: name, Kind: kind, Definition: d, Frame: frame}, nil
}

// InitialStateVector packs the definition's initial state into the raw
// SI layout of the material's state definition.
func (m *Material) InitialStateVector() ([]float64, error) {
	def, _ := state.Lookup(m.Definition.Structure.StateName)
	return def.InitialState(unit.Default(), m.Definition.Initial.T, m.Definition.Initial.POrV, m.Definition.Initial.N, m.Definition.Species, m.AmountUnit())
}

// amountUnit is the amount dimension of a material kind: mol/s for flow
// materials, mol for state materials.
func amountUnit(kind Kind) unit.Unit {
	r := unit.Default()
	if kind == State {
		u, _ := r.Lookup("mol")
		return u
	}
	u, _ := r.Lookup("mol/s")
	return u
}

// AmountUnit is the tolerance unit for this material's amount-typed
// residuals.
func (m *Material) AmountUnit() unit.Unit { return amountUnit(m.Kind) }

// MaterialSpec constrains what a model's material port accepts: the
// species set and the state kind.
type MaterialSpec struct {
	Species []string
	Kind    Kind
}

// Accepts checks m against the spec; an empty species list accepts any.
func (s MaterialSpec) Accepts(m *Material) error {
	if m.Kind != s.Kind {
		return sigmaerr.New(sigmaerr.MissingRequirement, m.Name, "port wants a %s material, got %s", s.Kind, m.Kind)
	}
	if len(s.Species) == 0 {
		return nil
	}
	have := map[string]bool{}
	for _, sp := range m.Definition.Species {
		have[sp] = true
	}
	for _, sp := range s.Species {
		if !have[sp] {
			return sigmaerr.New(sigmaerr.MissingRequirement, m.Name, "port requires species %q, absent from material", sp)
		}
	}
	return nil
}
