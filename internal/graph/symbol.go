// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

import "github.com/VolkerSiep/SigmaMu/internal/sigmaerr"

// SymbolTable allocates named symbol vectors for one function build and
// enforces that names are globally unique across it. A
// fresh table belongs to exactly one model/frame assembly; it is not
// shared across builds, unlike the package-level contribution/state
// registries in internal/thermo and internal/state.
type SymbolTable struct {
	seen map[string]bool
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{seen: map[string]bool{}}
}

// Symbol allocates n symbols bound to name[0..n-1].
func (t *SymbolTable) Symbol(name string, n int) ([]*Node, error) {
	if t.seen[name] {
		return nil, sigmaerr.New(sigmaerr.NumericBuild, "", "symbol %q already declared", name)
	}
	t.seen[name] = true
	nodes := make([]*Node, n)
	for i := range nodes {
		nodes[i] = &Node{op: opSymbol, name: name, index: i, size: n}
	}
	return nodes, nil
}
