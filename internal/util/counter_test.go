// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package util_test

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/VolkerSiep/SigmaMu/internal/graph"
	"github.com/VolkerSiep/SigmaMu/internal/quantity"
	"github.com/VolkerSiep/SigmaMu/internal/unit"
	"github.com/VolkerSiep/SigmaMu/internal/util"
)

func TestMCounterDotAndMerge(t *testing.T) {
	reg := unit.NewRegistry()
	molPerS, _ := reg.Lookup("mol/s")

	flows := quantity.Dict{
		"CH4": quantity.FromFloat(2, molPerS),
		"H2O": quantity.FromFloat(3, molPerS),
	}

	c1 := util.MCounter{"CH4": 1, "H2O": 2}
	c2 := util.MCounter{"CH4": 1, "O2": 5}
	merged := c1.Add(c2).Scale(0.5)

	got, err := merged.Dot(flows)
	if err != nil {
		t.Fatal(err)
	}
	// merged = {CH4: 1, H2O: 1, O2: 2.5}; O2 absent from flows -> ignored
	prog, err := graph.Compile(nil, []*graph.Node{got.Node})
	if err != nil {
		t.Fatal(err)
	}
	y, err := prog.Eval(nil)
	if err != nil {
		t.Fatal(err)
	}
	chk.Scalar(t, "dot", 1e-9, y[0], 1*2+1*3)
}
