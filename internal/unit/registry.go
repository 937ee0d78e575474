// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package unit

import (
	"strconv"
	"strings"

	"github.com/VolkerSiep/SigmaMu/internal/sigmaerr"
)

// Registry is a process-wide, append-only table of named units,
// mutated only through Register and read-only once bootstrapped: a
// global map populated from init() functions, never touched again
// during assembly or solving.
type Registry struct {
	units map[string]Unit
}

// NewRegistry returns a registry pre-loaded with the SI base units and
// the small set of derived units the core scenarios exercise.
func NewRegistry() *Registry {
	r := &Registry{units: map[string]Unit{}}
	r.bootstrap()
	return r
}

// defaultRegistry is the process-wide unit table: contribution
// catalogs declare their parameter units against it at init time,
// since a fresh per-build registry would have no bootstrapped units
// yet to look up by symbol.
var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// Register adds (or replaces) a named unit definition.
func (r *Registry) Register(u Unit) {
	r.units[u.Symbol] = u
}

// Lookup returns the unit registered under name.
func (r *Registry) Lookup(name string) (Unit, bool) {
	u, ok := r.units[name]
	return u, ok
}

func (r *Registry) bootstrap() {
	kg := Unit{Symbol: "kg", Dim: dim(1, 0, 0, 0, 0, 0, 0), Scale: 1}
	m := Unit{Symbol: "m", Dim: dim(0, 1, 0, 0, 0, 0, 0), Scale: 1}
	s := Unit{Symbol: "s", Dim: dim(0, 0, 1, 0, 0, 0, 0), Scale: 1}
	amp := Unit{Symbol: "A", Dim: dim(0, 0, 0, 1, 0, 0, 0), Scale: 1}
	k := Unit{Symbol: "K", Dim: dim(0, 0, 0, 0, 1, 0, 0), Scale: 1}
	mol := Unit{Symbol: "mol", Dim: dim(0, 0, 0, 0, 0, 1, 0), Scale: 1}
	cd := Unit{Symbol: "cd", Dim: dim(0, 0, 0, 0, 0, 0, 1), Scale: 1}
	for _, u := range []Unit{kg, m, s, amp, k, mol, cd} {
		r.Register(u)
	}
	r.Register(Dimensionless)

	r.Register(Unit{Symbol: "g", Dim: kg.Dim, Scale: 1e-3})
	r.Register(Unit{Symbol: "cm", Dim: m.Dim, Scale: 1e-2})
	r.Register(Unit{Symbol: "mm", Dim: m.Dim, Scale: 1e-3})
	r.Register(Unit{Symbol: "min", Dim: s.Dim, Scale: 60})
	r.Register(Unit{Symbol: "h", Dim: s.Dim, Scale: 3600})
	r.Register(Unit{Symbol: "day", Dim: s.Dim, Scale: 86400})

	r.Register(Unit{Symbol: "degC", Dim: k.Dim, Scale: 1, Offset: 273.15})

	pa := Unit{Symbol: "Pa", Dim: kg.Dim.Add(m.Dim.Scale(-1)).Add(s.Dim.Scale(-2)), Scale: 1}
	r.Register(pa)
	r.Register(Unit{Symbol: "kPa", Dim: pa.Dim, Scale: 1e3})
	r.Register(Unit{Symbol: "bar", Dim: pa.Dim, Scale: 1e5})
	r.Register(Unit{Symbol: "atm", Dim: pa.Dim, Scale: 101325})
	r.Register(Unit{Symbol: "MPa", Dim: pa.Dim, Scale: 1e6})

	// gauge-pressure aliases: same dimension as the absolute unit,
	// offset by the corresponding atmospheric reference.
	r.Register(Unit{Symbol: "bar_gauge", Dim: pa.Dim, Scale: 1e5, Offset: 1.01325e5})
	r.Register(Unit{Symbol: "barg", Dim: pa.Dim, Scale: 1e5, Offset: 1.01325e5})
	r.Register(Unit{Symbol: "atm_gauge", Dim: pa.Dim, Scale: 101325, Offset: 101325})
	r.Register(Unit{Symbol: "atmg", Dim: pa.Dim, Scale: 101325, Offset: 101325})
	r.Register(Unit{Symbol: "kilo_pascal_gauge", Dim: pa.Dim, Scale: 1e3, Offset: 101325})
	r.Register(Unit{Symbol: "kPag", Dim: pa.Dim, Scale: 1e3, Offset: 101325})

	j := Unit{Symbol: "J", Dim: kg.Dim.Add(m.Dim.Scale(2)).Add(s.Dim.Scale(-2)), Scale: 1}
	r.Register(j)
	r.Register(Unit{Symbol: "kJ", Dim: j.Dim, Scale: 1e3})

	w := Unit{Symbol: "W", Dim: j.Dim.Sub(s.Dim), Scale: 1}
	r.Register(w)
	r.Register(Unit{Symbol: "kW", Dim: w.Dim, Scale: 1e3})

	r.Register(Unit{Symbol: "mol/s", Dim: mol.Dim.Sub(s.Dim), Scale: 1})
	r.Register(Unit{Symbol: "kmol/day", Dim: mol.Dim.Sub(s.Dim), Scale: 1e3 / 86400})
	r.Register(Unit{Symbol: "mol/m3", Dim: mol.Dim.Sub(m.Dim.Scale(3)), Scale: 1})
	r.Register(Unit{Symbol: "J/mol", Dim: j.Dim.Sub(mol.Dim), Scale: 1})
	r.Register(Unit{Symbol: "kJ/mol", Dim: j.Dim.Sub(mol.Dim), Scale: 1e3})
	r.Register(Unit{Symbol: "J/(mol.K)", Dim: j.Dim.Sub(mol.Dim).Sub(k.Dim), Scale: 1})
	r.Register(Unit{Symbol: "J/(mol.K2)", Dim: j.Dim.Sub(mol.Dim).Sub(k.Dim.Scale(2)), Scale: 1})
	r.Register(Unit{Symbol: "J/K", Dim: j.Dim.Sub(k.Dim), Scale: 1})
	r.Register(Unit{Symbol: "W/K", Dim: w.Dim.Sub(k.Dim), Scale: 1})

	m3 := Unit{Symbol: "m3", Dim: m.Dim.Scale(3), Scale: 1}
	r.Register(m3)
	r.Register(Unit{Symbol: "m3/mol", Dim: m3.Dim.Sub(mol.Dim), Scale: 1})
	r.Register(Unit{Symbol: "m3/h", Dim: m3.Dim.Sub(s.Dim), Scale: 1.0 / 3600})
	r.Register(Unit{Symbol: "kg/mol", Dim: kg.Dim.Sub(mol.Dim), Scale: 1})
	r.Register(Unit{Symbol: "g/mol", Dim: kg.Dim.Sub(mol.Dim), Scale: 1e-3})
	r.Register(Unit{Symbol: "kg/s", Dim: kg.Dim.Sub(s.Dim), Scale: 1})
}

func dim(kgE, mE, sE, aE, kE, molE, cdE float64) Dimension {
	return Dimension{kgE, mE, sE, aE, kE, molE, cdE}
}

// Parse turns a literal of the form "<number> <unit>" into a
// base-SI magnitude and the unit it was read in, e.g. "25 degC" or
// "-241.826 kJ/mol". A bare number with no unit token is treated as
// dimensionless.
func (r *Registry) Parse(literal string) (valueSI float64, u Unit, err error) {
	fields := strings.Fields(strings.TrimSpace(literal))
	if len(fields) == 0 {
		return 0, Unit{}, sigmaerr.New(sigmaerr.DimensionMismatch, "", "empty quantity literal")
	}
	v, perr := strconv.ParseFloat(fields[0], 64)
	if perr != nil {
		return 0, Unit{}, sigmaerr.New(sigmaerr.DimensionMismatch, "", "cannot parse magnitude %q: %v", fields[0], perr)
	}
	if len(fields) == 1 {
		return v, Dimensionless, nil
	}
	sym := strings.Join(fields[1:], " ")
	u, ok := r.Lookup(sym)
	if !ok {
		return 0, Unit{}, sigmaerr.New(sigmaerr.DimensionMismatch, "", "unknown unit %q", sym)
	}
	return u.ToSI(v), u, nil
}

// Format renders a base-SI magnitude back as "<number> <unit>" in u.
func (r *Registry) Format(valueSI float64, u Unit) string {
	return strconv.FormatFloat(u.FromSI(valueSI), 'g', -1, 64) + " " + u.Symbol
}
