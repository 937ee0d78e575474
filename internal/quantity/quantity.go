// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package quantity implements the dimensioned scalar that every model
// and thermo contribution computes with: a graph node paired with a
// unit, checked for dimensional compatibility on every operation.
// Quantities are immutable; every arithmetic method returns a new
// value.
package quantity

import (
	"github.com/VolkerSiep/SigmaMu/internal/graph"
	"github.com/VolkerSiep/SigmaMu/internal/sigmaerr"
	"github.com/VolkerSiep/SigmaMu/internal/unit"
)

// Quantity is an (node, unit) pair. All storage and internal arithmetic
// is carried out in base SI: New and FromFloat reduce the given unit to
// its offset-free SI unit (unit.SI), so the Unit field never implies a
// pending conversion.
type Quantity struct {
	Node *graph.Node
	Unit unit.Unit
}

// New wraps a graph node with an explicit SI-backed unit.
func New(n *graph.Node, u unit.Unit) Quantity {
	return Quantity{Node: n, Unit: u.SI()}
}

// FromFloat builds a constant quantity from a magnitude already given in
// base SI.
func FromFloat(valueSI float64, u unit.Unit) Quantity {
	return Quantity{Node: graph.Const(valueSI), Unit: u.SI()}
}

// Parse reads a "<number> <unit>" literal through r and
// returns the resulting constant Quantity.
func Parse(r *unit.Registry, literal string) (Quantity, error) {
	si, u, err := r.Parse(literal)
	if err != nil {
		return Quantity{}, err
	}
	return FromFloat(si, u), nil
}

func dimMismatch(op string, a, b unit.Unit) error {
	return sigmaerr.New(sigmaerr.DimensionMismatch, "", "%s: incompatible units %q (%v) and %q (%v)", op, a.Symbol, a.Dim, b.Symbol, b.Dim)
}

// Add requires matching dimensions; the result carries the left operand's
// unit.
func (q Quantity) Add(o Quantity) (Quantity, error) {
	if !q.Unit.SameDimension(o.Unit) {
		return Quantity{}, dimMismatch("add", q.Unit, o.Unit)
	}
	return Quantity{Node: q.Node.Add(o.Node), Unit: q.Unit}, nil
}

// Sub requires matching dimensions; the result carries the left operand's
// unit.
func (q Quantity) Sub(o Quantity) (Quantity, error) {
	if !q.Unit.SameDimension(o.Unit) {
		return Quantity{}, dimMismatch("sub", q.Unit, o.Unit)
	}
	return Quantity{Node: q.Node.Sub(o.Node), Unit: q.Unit}, nil
}

// Mul combines dimensions multiplicatively; always legal.
func (q Quantity) Mul(o Quantity) Quantity {
	return Quantity{Node: q.Node.Mul(o.Node), Unit: q.Unit.Mul(o.Unit)}
}

// Div combines dimensions by subtraction; always legal except division
// by a graph-literal zero, which graph.Node.Div itself rejects.
func (q Quantity) Div(o Quantity) (Quantity, error) {
	n, err := q.Node.Div(o.Node)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Node: n, Unit: q.Unit.Div(o.Unit)}, nil
}

// Scale multiplies by a dimensionless float64 literal.
func (q Quantity) Scale(f float64) Quantity {
	return Quantity{Node: q.Node.Mul(graph.Const(f)), Unit: q.Unit}
}

// Neg returns the additive inverse.
func (q Quantity) Neg() Quantity {
	return Quantity{Node: q.Node.Neg(), Unit: q.Unit}
}

// Pow raises q to a dimensionless literal exponent, scaling its unit.
func (q Quantity) Pow(p float64) Quantity {
	return Quantity{Node: q.Node.Pow(graph.Const(p)), Unit: q.Unit.Pow(p)}
}

// Sqrt returns the quantity's square root; the unit exponents are halved.
func (q Quantity) Sqrt() Quantity {
	return Quantity{Node: q.Node.Sqrt(), Unit: q.Unit.Pow(0.5)}
}

// Sq returns q*q.
func (q Quantity) Sq() Quantity {
	return Quantity{Node: q.Node.Sq(), Unit: q.Unit.Pow(2)}
}

// Log requires a dimensionless argument and returns a dimensionless
// result.
func (q Quantity) Log() (Quantity, error) {
	if !q.Unit.Dim.IsDimensionless() {
		return Quantity{}, dimMismatch("log", q.Unit, unit.Dimensionless)
	}
	return Quantity{Node: q.Node.Log(), Unit: unit.Dimensionless}, nil
}

// Exp requires a dimensionless argument and returns a dimensionless
// result.
func (q Quantity) Exp() (Quantity, error) {
	if !q.Unit.Dim.IsDimensionless() {
		return Quantity{}, dimMismatch("exp", q.Unit, unit.Dimensionless)
	}
	return Quantity{Node: q.Node.Exp(), Unit: unit.Dimensionless}, nil
}

// Cond selects a when cond's magnitude is positive, b otherwise. a and b
// must share a dimension; cond need not.
func Cond(cond, a, b Quantity) (Quantity, error) {
	if !a.Unit.SameDimension(b.Unit) {
		return Quantity{}, dimMismatch("cond", a.Unit, b.Unit)
	}
	return Quantity{Node: graph.Cond(cond.Node, a.Node, b.Node), Unit: a.Unit}, nil
}
