// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package material glues the thermodynamic layer to the model layer: a
// MaterialDefinition pairs a frame structure with an initial state and a
// ThermoParameterStore, and stamps out Material instances whose property
// dictionaries are live symbolic expressions over their own state slice.
package material

import (
	"sort"

	"github.com/VolkerSiep/SigmaMu/internal/quantity"
	"github.com/VolkerSiep/SigmaMu/internal/sigmaerr"
	"github.com/VolkerSiep/SigmaMu/internal/thermo"
)

// Source provides thermo parameters, keyed by contribution class (or
// alias), parameter name, and an optional species or species-pair key.
type Source interface {
	// Name identifies the source in missing-parameter reports.
	Name() string
	// Lookup returns the parameter under (class, param, key), where key
	// is "" for scalars, a species name, or "i/j" for pair parameters.
	Lookup(class, param, key string) (quantity.Quantity, bool)
}

// MapSource is a Source backed by a flat path map, the shape the
// boundary decoder produces from a parameter file.
type MapSource struct {
	Label  string
	Values map[string]quantity.Quantity // "Class/param", "Class/param/species" or "Class/param/i/j"
}

func (s *MapSource) Name() string { return s.Label }

func (s *MapSource) Lookup(class, param, key string) (quantity.Quantity, bool) {
	path := class + "/" + param
	if key != "" {
		path += "/" + key
	}
	q, ok := s.Values[path]
	return q, ok
}

// ThermoParameterStore is an ordered list of parameter sources; lookup
// walks the list and the first match wins, so later sources are
// lower-priority fallbacks. It is append-only during
// assembly and read-only during solves.
type ThermoParameterStore struct {
	sources []Source
}

// NewStore returns an empty store.
func NewStore() *ThermoParameterStore { return &ThermoParameterStore{} }

// AddSource appends a source as the lowest-priority fallback so far.
func (s *ThermoParameterStore) AddSource(src Source) { s.sources = append(s.sources, src) }

// lookup walks the sources in order; alias shadows class so one
// instance of a contribution can be parameterized apart from others.
func (s *ThermoParameterStore) lookup(alias, class, param, key string) (quantity.Quantity, bool) {
	for _, src := range s.sources {
		if q, ok := src.Lookup(alias, param, key); ok {
			return q, true
		}
		if alias != class {
			if q, ok := src.Lookup(class, param, key); ok {
				return q, true
			}
		}
	}
	return quantity.Quantity{}, false
}

// Resolve implements thermo.ParamResolver against the stacked sources.
// A declared parameter with no covering source fails with
// MissingParameter; pair parameters are optional and default to empty.
func (s *ThermoParameterStore) Resolve(alias, class string, decls []thermo.ParamDecl, species []string) (thermo.Params, error) {
	p := thermo.Params{
		Scalars: map[string]quantity.Quantity{},
		Dicts:   map[string]quantity.Dict{},
		Pairs:   map[string]thermo.PairDict{},
	}
	for _, d := range decls {
		switch {
		case d.PerPair:
			pd := thermo.PairDict{}
			for i, spi := range species {
				for _, spj := range species[i+1:] {
					if q, ok := s.lookup(alias, class, d.Name, spi+"/"+spj); ok {
						pd[[2]string{spi, spj}] = q
					} else if q, ok := s.lookup(alias, class, d.Name, spj+"/"+spi); ok {
						pd[[2]string{spi, spj}] = q
					}
				}
			}
			p.Pairs[d.Name] = pd
		case d.PerSpecies:
			dict := quantity.Dict{}
			for _, sp := range species {
				q, ok := s.lookup(alias, class, d.Name, sp)
				if !ok {
					return thermo.Params{}, sigmaerr.New(sigmaerr.MissingParameter, alias+"/"+d.Name+"/"+sp, "no source provides %s/%s for species %s", class, d.Name, sp)
				}
				if !q.Unit.SameDimension(d.Unit) {
					return thermo.Params{}, sigmaerr.New(sigmaerr.DimensionMismatch, alias+"/"+d.Name+"/"+sp, "parameter has dimension %v, want %v", q.Unit.Dim, d.Unit.Dim)
				}
				dict[sp] = q
			}
			p.Dicts[d.Name] = dict
		default:
			q, ok := s.lookup(alias, class, d.Name, "")
			if !ok {
				return thermo.Params{}, sigmaerr.New(sigmaerr.MissingParameter, alias+"/"+d.Name, "no source provides %s/%s", class, d.Name)
			}
			if !q.Unit.SameDimension(d.Unit) {
				return thermo.Params{}, sigmaerr.New(sigmaerr.DimensionMismatch, alias+"/"+d.Name, "parameter has dimension %v, want %v", q.Unit.Dim, d.Unit.Dim)
			}
			p.Scalars[d.Name] = q
		}
	}
	return p, nil
}

// GetMissingSymbols reports, in sorted order, the qualified parameter
// paths of required that no source covers. required maps a contribution
// alias (or class) to its declarations, forming the union requirement
// set of a frame.
func (s *ThermoParameterStore) GetMissingSymbols(required map[string][]thermo.ParamDecl, species []string) []string {
	var missing []string
	for alias, decls := range required {
		for _, d := range decls {
			switch {
			case d.PerPair:
				// optional, absent pairs mean zero interaction
			case d.PerSpecies:
				for _, sp := range species {
					if _, ok := s.lookup(alias, alias, d.Name, sp); !ok {
						missing = append(missing, alias+"/"+d.Name+"/"+sp)
					}
				}
			default:
				if _, ok := s.lookup(alias, alias, d.Name, ""); !ok {
					missing = append(missing, alias+"/"+d.Name)
				}
			}
		}
	}
	sort.Strings(missing)
	return missing
}
