// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package model implements the hierarchical model graph: reusable
// modules with a declarative interface pass and a constructive define
// pass, composed into one flat numeric problem with disjoint,
// '/'-qualified namespaces.
package model

import (
	"github.com/VolkerSiep/SigmaMu/internal/material"
	"github.com/VolkerSiep/SigmaMu/internal/quantity"
	"github.com/VolkerSiep/SigmaMu/internal/sigmaerr"
	"github.com/VolkerSiep/SigmaMu/internal/unit"
)

// Model is one reusable module. Interface declares what the module
// exposes; Define builds the symbolic expressions for the declared
// properties and residuals. The engine calls Interface top-down over
// the whole tree, then Define bottom-up.
type Model interface {
	Interface(ifc *Interface)
	Define(ctx *DefineContext) error
}

// paramDecl is one declared parameter with its default.
type paramDecl struct {
	name string
	def  quantity.Quantity
}

// materialDecl is a material created by this node from a definition.
type materialDecl struct {
	name string
	def  *material.MaterialDefinition
	kind material.Kind
}

// childDecl is a child-model slot with its connection table mapping
// child port names to this node's material handles.
type childDecl struct {
	name    string
	model   Model
	connect map[string]string
}

// stateDecl is a non-canonical state variable (an independent unknown
// that belongs to no material).
type stateDecl struct {
	name string
	def  quantity.Quantity
}

// Interface is the declaration record built during the interface pass.
// Orders are preserved: the flat problem's vectors follow declaration
// order within a deterministic depth-first traversal.
type Interface struct {
	params    []paramDecl
	props     []string
	propUnits map[string]unit.Unit
	ports     []string
	portSpecs map[string]material.MaterialSpec
	materials []materialDecl
	states    []stateDecl
	children  []childDecl
	err       error
}

func newInterface() *Interface {
	return &Interface{propUnits: map[string]unit.Unit{}, portSpecs: map[string]material.MaterialSpec{}}
}

func (i *Interface) fail(cat sigmaerr.Category, path, format string, args ...interface{}) {
	if i.err == nil {
		i.err = sigmaerr.New(cat, path, format, args...)
	}
}

// Parameter declares a named parameter with its default quantity; the
// default fixes the parameter's unit.
func (i *Interface) Parameter(name string, def quantity.Quantity) {
	i.params = append(i.params, paramDecl{name: name, def: def})
}

// Property declares a published property and the unit it must carry.
func (i *Interface) Property(name string, u unit.Unit) {
	if _, ok := i.propUnits[name]; ok {
		i.fail(sigmaerr.UndeclaredProperty, name, "property %q declared twice", name)
		return
	}
	i.props = append(i.props, name)
	i.propUnits[name] = u
}

// MaterialPort declares a port the parent must fill with a material
// matching spec.
func (i *Interface) MaterialPort(name string, spec material.MaterialSpec) {
	if _, ok := i.portSpecs[name]; ok {
		i.fail(sigmaerr.UndeclaredProperty, name, "port %q declared twice", name)
		return
	}
	i.ports = append(i.ports, name)
	i.portSpecs[name] = spec
}

// Material declares a material created by this node itself.
func (i *Interface) Material(name string, def *material.MaterialDefinition, kind material.Kind) {
	i.materials = append(i.materials, materialDecl{name: name, def: def, kind: kind})
}

// StateVar declares a non-canonical independent unknown with its
// initial value.
func (i *Interface) StateVar(name string, def quantity.Quantity) {
	i.states = append(i.states, stateDecl{name: name, def: def})
}

// Child declares a child-model slot. connect maps the child's port
// names to this node's material handle names (its own ports or
// materials); it may be nil for children without ports.
func (i *Interface) Child(name string, m Model, connect map[string]string) {
	i.children = append(i.children, childDecl{name: name, model: m, connect: connect})
}

// Residual is one (qualified name, expression, tolerance unit) record;
// its dimensionless scaled value is magnitude_SI / tolerance_SI.
type Residual struct {
	Name string
	Expr quantity.Quantity
	Tol  unit.Unit
}

// node is one assembled model instance.
type node struct {
	name      string // qualified path
	model     Model
	ifc       *Interface
	parent    *node
	children  []*node
	materials map[string]*material.Material // ports and own materials
	params    map[string]quantity.Quantity  // symbol-backed
	stateVars map[string]quantity.Quantity  // symbol-backed
	props     map[string]quantity.Quantity  // published during define
	defined   bool
	residuals []Residual
}

// DefineContext is the typed handle set a model works with during its
// define pass.
type DefineContext struct {
	n *node
}

// Name returns the node's qualified name.
func (c *DefineContext) Name() string { return c.n.name }

// Param returns the symbol-backed quantity of a declared parameter.
func (c *DefineContext) Param(name string) (quantity.Quantity, error) {
	q, ok := c.n.params[name]
	if !ok {
		return quantity.Quantity{}, sigmaerr.New(sigmaerr.UndeclaredProperty, c.n.name, "parameter %q was not declared", name)
	}
	return q, nil
}

// StateVar returns the symbol-backed quantity of a declared
// non-canonical state.
func (c *DefineContext) StateVar(name string) (quantity.Quantity, error) {
	q, ok := c.n.stateVars[name]
	if !ok {
		return quantity.Quantity{}, sigmaerr.New(sigmaerr.UndeclaredProperty, c.n.name, "state %q was not declared", name)
	}
	return q, nil
}

// Material returns the material bound to a port or created locally.
func (c *DefineContext) Material(name string) (*material.Material, error) {
	m, ok := c.n.materials[name]
	if !ok {
		return nil, sigmaerr.New(sigmaerr.UndeclaredProperty, c.n.name, "material %q was not declared", name)
	}
	return m, nil
}

// Child returns the handle onto a defined child's published properties.
func (c *DefineContext) Child(name string) (*ChildHandle, error) {
	for _, ch := range c.n.children {
		if ch.name == c.n.name+"/"+name {
			return &ChildHandle{n: ch}, nil
		}
	}
	return nil, sigmaerr.New(sigmaerr.UndeclaredProperty, c.n.name, "child %q was not declared", name)
}

// SetProperty publishes a declared property; writing to an undeclared
// name fails with UndeclaredProperty, and the unit must match the
// declaration.
func (c *DefineContext) SetProperty(name string, q quantity.Quantity) error {
	u, ok := c.n.ifc.propUnits[name]
	if !ok {
		return sigmaerr.New(sigmaerr.UndeclaredProperty, c.n.name, "property %q was not declared", name)
	}
	if !q.Unit.SameDimension(u) {
		return sigmaerr.New(sigmaerr.DimensionMismatch, c.n.name, "property %q has dimension %v, declared %v", name, q.Unit.Dim, u.Dim)
	}
	c.n.props[name] = q
	return nil
}

// AddResidual appends a residual under this node's namespace. The
// expression must carry the tolerance unit's dimension.
func (c *DefineContext) AddResidual(name string, expr quantity.Quantity, tol unit.Unit) error {
	if !expr.Unit.SameDimension(tol) {
		return sigmaerr.New(sigmaerr.DimensionMismatch, c.n.name, "residual %q has dimension %v, tolerance %v", name, expr.Unit.Dim, tol.Dim)
	}
	c.n.residuals = append(c.n.residuals, Residual{Name: c.n.name + "/" + name, Expr: expr, Tol: tol})
	return nil
}

// ChildHandle exposes a child's published properties to its parent.
type ChildHandle struct {
	n *node
}

// Prop reads one published property. Reading before the child's define
// completed fails with DataFlowError.
func (h *ChildHandle) Prop(name string) (quantity.Quantity, error) {
	if !h.n.defined {
		return quantity.Quantity{}, sigmaerr.New(sigmaerr.DataFlowError, h.n.name, "property %q read before define completed", name)
	}
	q, ok := h.n.props[name]
	if !ok {
		return quantity.Quantity{}, sigmaerr.New(sigmaerr.UndeclaredProperty, h.n.name, "child publishes no property %q", name)
	}
	return q, nil
}

// Material returns a material handle of the child, letting a parent
// pick up e.g. an outlet stream the child created itself.
func (h *ChildHandle) Material(name string) (*material.Material, error) {
	m, ok := h.n.materials[name]
	if !ok {
		return nil, sigmaerr.New(sigmaerr.UndeclaredProperty, h.n.name, "child has no material %q", name)
	}
	return m, nil
}
