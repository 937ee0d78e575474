// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quantity

import "github.com/VolkerSiep/SigmaMu/internal/graph"

// Grad differentiates f symbolically with respect to each of the given
// symbol-backed quantities, carrying the quotient unit. The thermo layer
// uses this to turn a canonical state function expression into mu, S and
// p without hand-deriving each partial.
func Grad(f Quantity, wrt []Quantity) []Quantity {
	syms := make([]*graph.Node, len(wrt))
	for i, x := range wrt {
		syms[i] = x.Node
	}
	grads := graph.Grad(f.Node, syms)
	out := make([]Quantity, len(wrt))
	for i, g := range grads {
		out[i] = Quantity{Node: g, Unit: f.Unit.Div(wrt[i].Unit)}
	}
	return out
}
