// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package thermo implements the stackable thermodynamic contributions
// and the frame assembly: a ThermoFrame is an ordered state definition
// (internal/state) plus an ordered list of contributions that read and
// write a shared, growing property table. Each contribution is a small
// stateless strategy, registered into a process-wide factory table: a
// tagged variant over a closed set, not an open class hierarchy.
package thermo

import (
	"github.com/VolkerSiep/SigmaMu/internal/quantity"
	"github.com/VolkerSiep/SigmaMu/internal/sigmaerr"
	"github.com/VolkerSiep/SigmaMu/internal/unit"
)

// GasConstant is R as used throughout. The literal is kept at this
// precision (rather than the full CODATA value) so the bundled
// end-to-end scenarios replay bit-identically.
const GasConstant = 8.31446

// ParamDecl declares one parameter a contribution requires: its name,
// unit, and whether it is indexed per species.
type ParamDecl struct {
	Name       string
	Unit       unit.Unit
	PerSpecies bool
	PerPair    bool // k1/k2/l1-style symmetric species-pair parameters
}

// Params is the resolved parameter set handed to a contribution's Apply:
// scalar parameters as a Quantity, per-species parameters as a Dict, and
// per-pair parameters as a PairDict.
type Params struct {
	Scalars map[string]quantity.Quantity
	Dicts   map[string]quantity.Dict
	Pairs   map[string]PairDict
}

// PairDict holds a symmetric per-species-pair parameter, keyed by an
// ordered pair of species names; lookup tries both orderings.
type PairDict map[[2]string]quantity.Quantity

// Get returns the pair value for (i,j), trying both orderings, and a
// false ok if absent (callers treat an absent pair parameter as zero).
func (d PairDict) Get(i, j string) (quantity.Quantity, bool) {
	if q, ok := d[[2]string{i, j}]; ok {
		return q, true
	}
	if q, ok := d[[2]string{j, i}]; ok {
		return q, true
	}
	return quantity.Quantity{}, false
}

func newParams() Params {
	return Params{Scalars: map[string]quantity.Quantity{}, Dicts: map[string]quantity.Dict{}, Pairs: map[string]PairDict{}}
}

// Scalar looks up a required scalar parameter, failing with
// MissingParameter if absent.
func (p Params) Scalar(name string) (quantity.Quantity, error) {
	q, ok := p.Scalars[name]
	if !ok {
		return quantity.Quantity{}, sigmaerr.New(sigmaerr.MissingParameter, name, "missing scalar parameter %q", name)
	}
	return q, nil
}

// Dict looks up a required per-species parameter.
func (p Params) Dict(name string) (quantity.Dict, error) {
	d, ok := p.Dicts[name]
	if !ok {
		return nil, sigmaerr.New(sigmaerr.MissingParameter, name, "missing per-species parameter %q", name)
	}
	return d, nil
}

// Pair looks up a required per-species-pair parameter.
func (p Params) Pair(name string) (PairDict, error) {
	d, ok := p.Pairs[name]
	if !ok {
		return nil, sigmaerr.New(sigmaerr.MissingParameter, name, "missing pair parameter %q", name)
	}
	return d, nil
}

// Props is the shared property table a frame assembles: the state
// definition and every contribution read from and write into it, in
// declared order.
type Props struct {
	scalars map[string]quantity.Quantity
	dicts   map[string]quantity.Dict
}

// NewProps returns an empty property table.
func NewProps() *Props {
	return &Props{scalars: map[string]quantity.Quantity{}, dicts: map[string]quantity.Dict{}}
}

// SetScalar publishes a scalar property.
func (p *Props) SetScalar(name string, q quantity.Quantity) { p.scalars[name] = q }

// SetDict publishes a per-species property.
func (p *Props) SetDict(name string, d quantity.Dict) { p.dicts[name] = d }

// Scalar reads a previously published scalar property, failing with
// MissingRequirement if it was never published.
func (p *Props) Scalar(name string) (quantity.Quantity, error) {
	q, ok := p.scalars[name]
	if !ok {
		return quantity.Quantity{}, sigmaerr.New(sigmaerr.MissingRequirement, name, "property %q has not been published yet", name)
	}
	return q, nil
}

// Dict reads a previously published per-species property.
func (p *Props) Dict(name string) (quantity.Dict, error) {
	d, ok := p.dicts[name]
	if !ok {
		return nil, sigmaerr.New(sigmaerr.MissingRequirement, name, "property %q has not been published yet", name)
	}
	return d, nil
}

// Has reports whether a scalar or dict property has been published.
func (p *Props) Has(name string) bool {
	if _, ok := p.scalars[name]; ok {
		return true
	}
	_, ok := p.dicts[name]
	return ok
}

// ScalarNames and DictNames expose the published property names, for
// the frame's mandatory-property check after assembly.
func (p *Props) ScalarNames() []string {
	names := make([]string, 0, len(p.scalars))
	for k := range p.scalars {
		names = append(names, k)
	}
	return names
}

func (p *Props) DictNames() []string {
	names := make([]string, 0, len(p.dicts))
	for k := range p.dicts {
		names = append(names, k)
	}
	return names
}

// Bound is a positivity constraint a contribution adds to the frame;
// the solver limits its steps so every bound stays strictly positive.
type Bound struct {
	Name string
	Expr quantity.Quantity
}

// Context is the working state passed to Contribution.Apply: the
// species set, the shared property table, this contribution's resolved
// parameters, and the bound list it may append to.
type Context struct {
	Species   []string
	StateKind string // "GibbsState" or "HelmholtzState"
	Props     *Props
	Params    Params
	Bounds    []Bound
}

// AddBound appends a positivity constraint under name.
func (c *Context) AddBound(name string, q quantity.Quantity) {
	c.Bounds = append(c.Bounds, Bound{Name: name, Expr: q})
}

// Relaxer is implemented by contributions whose Apply result needs
// per-step projection back onto a physical branch after the solver
// takes a Newton step; the cubic
// EOS root selection is the motivating case.
type Relaxer interface {
	// Relax mutates the just-stepped raw state slice x (this material's
	// slice only) in place, e.g. re-seating it on the gas/liquid root.
	Relax(x []float64) error
}

// Contribution is one stackable unit of a ThermoFrame.
// Implementations are small, stateless, parameterized-by-options value
// types; options (e.g. LinearMixingRule's target) are instance records,
// not new Go types.
type Contribution interface {
	// ClassName is the registered factory key, e.g. "LinearHeatCapacity".
	ClassName() string
	// ParamDecls declares required parameters.
	ParamDecls() []ParamDecl
	// Inputs lists property names this contribution reads, which must
	// already be published by an earlier contribution or the state
	// definition.
	Inputs() []string
	// Outputs lists property names this contribution publishes.
	Outputs() []string
	// Apply runs the contribution against ctx, reading Inputs from
	// ctx.Props and writing Outputs into it (and any bounds into
	// ctx.Bounds).
	Apply(ctx *Context) error
}

// OptionSetter is implemented by contributions that accept structure
// file options, e.g. the mixing rules' target.
type OptionSetter interface {
	SetOption(key, value string) error
}

// Factory builds a fresh, zero-valued Contribution instance; options are
// applied by the caller after construction through OptionSetter
// (internal/material does this when it instantiates a frame structure).
type Factory func() Contribution

var allocators = map[string]Factory{}

// Register adds a contribution class to the process-wide factory table.
// Called only from package init.
func Register(class string, f Factory) { allocators[class] = f }

// New instantiates a registered contribution class by name.
func New(class string) (Contribution, bool) {
	f, ok := allocators[class]
	if !ok {
		return nil, false
	}
	return f(), true
}
