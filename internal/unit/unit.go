// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package unit

import (
	"fmt"
	"strings"
)

// Unit is a dimensional signature carrying everything needed to move a
// literal value in and out of SI: the base-quantity exponents, the scale
// to base SI, and an additive offset used only by non-ratio scales
// (temperature, gauge pressure). Storage and internal arithmetic always
// happen in base SI; scale/offset are display/parse-time concerns only.
type Unit struct {
	Symbol string
	Dim    Dimension
	Scale  float64 // multiply a value in this unit by Scale to get base SI
	Offset float64 // add Offset (in base SI) *after* scaling: si = raw*Scale + Offset
}

// ToSI converts a literal value expressed in u into base SI.
func (u Unit) ToSI(v float64) float64 {
	return v*u.Scale + u.Offset
}

// FromSI converts a base-SI magnitude back into u's display form.
func (u Unit) FromSI(v float64) float64 {
	return (v - u.Offset) / u.Scale
}

// SI returns the canonical, offset-free unit sharing u's dimension: the
// unit all internal Quantity arithmetic is actually carried out in.
func (u Unit) SI() Unit {
	return Unit{Symbol: u.Dim.String(), Dim: u.Dim, Scale: 1, Offset: 0}
}

// Mul returns the unit of a product a*b.
func (a Unit) Mul(b Unit) Unit {
	return Unit{
		Symbol: strings.TrimSuffix(a.Symbol+"."+b.Symbol, "."),
		Dim:    a.Dim.Add(b.Dim),
		Scale:  1,
	}
}

// Div returns the unit of a quotient a/b.
func (a Unit) Div(b Unit) Unit {
	return Unit{
		Symbol: a.Symbol + "/" + b.Symbol,
		Dim:    a.Dim.Sub(b.Dim),
		Scale:  1,
	}
}

// Pow returns the unit of a^p.
func (a Unit) Pow(p float64) Unit {
	return Unit{
		Symbol: fmt.Sprintf("(%s)^%g", a.Symbol, p),
		Dim:    a.Dim.Scale(p),
		Scale:  1,
	}
}

// SameDimension reports whether a and b can be added/subtracted/compared.
func (a Unit) SameDimension(b Unit) bool {
	return a.Dim.Equal(b.Dim)
}

// Dimensionless is the zero-exponent unit with unit scale, used for
// fractions, mole fractions and logarithm/exponential arguments.
var Dimensionless = Unit{Symbol: "dimless", Dim: Dimension{}, Scale: 1}
