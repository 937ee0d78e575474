// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package state_test

import (
	"testing"

	"github.com/VolkerSiep/SigmaMu/internal/graph"
	"github.com/VolkerSiep/SigmaMu/internal/quantity"
	"github.com/VolkerSiep/SigmaMu/internal/state"
	"github.com/VolkerSiep/SigmaMu/internal/unit"
)

func TestGibbsStateBuildAndInitialState(t *testing.T) {
	reg := unit.NewRegistry()
	def, ok := state.Lookup("GibbsState")
	if !ok {
		t.Fatal("GibbsState not registered")
	}
	table := graph.NewSymbolTable()
	species := []string{"CH4", "O2"}
	props, err := def.Build(reg, table, "feed", species, mustLookup(reg, "mol/s"))
	if err != nil {
		t.Fatal(err)
	}
	if len(props.State) != 4 {
		t.Fatalf("state vector has %d entries, want 4", len(props.State))
	}
	if len(props.N) != 2 {
		t.Fatalf("n has %d entries, want 2", len(props.N))
	}

	kelvin, _ := reg.Lookup("K")
	bar, _ := reg.Lookup("bar")
	Tq := quantity.FromFloat(kelvin.ToSI(400), kelvin)
	pq := quantity.FromFloat(bar.ToSI(2), bar)
	n := quantity.Dict{"CH4": quantity.FromFloat(1, mustLookup(reg, "mol/s"))}

	vec, err := def.InitialState(reg, Tq, pq, n, species, mustLookup(reg, "mol/s"))
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 4 {
		t.Fatalf("initial state has %d entries, want 4", len(vec))
	}
	if vec[0] != 400 {
		t.Fatalf("T = %v, want 400", vec[0])
	}
	if vec[3] != 0 {
		t.Fatalf("n[O2] (absent) = %v, want 0", vec[3])
	}
}

func mustLookup(reg *unit.Registry, name string) unit.Unit {
	u, _ := reg.Lookup(name)
	return u
}
