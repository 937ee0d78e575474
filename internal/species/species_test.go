// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package species_test

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/VolkerSiep/SigmaMu/internal/species"
	"github.com/VolkerSiep/SigmaMu/internal/unit"
)

func TestParseSimpleFormula(t *testing.T) {
	reg := unit.NewRegistry()
	s, err := species.Parse(reg, "methane", "CH4")
	if err != nil {
		t.Fatal(err)
	}
	if s.ElementCounts["C"] != 1 || s.ElementCounts["H"] != 4 {
		t.Fatalf("unexpected element counts: %v", s.ElementCounts)
	}
	gPerMol, _ := reg.Lookup("g/mol")
	siValue, _ := s.MolecularWeight.Node.ConstValue()
	mw := gPerMol.FromSI(siValue)
	chk.Scalar(t, "molecular weight", 1e-6, mw, 12.011+4*1.008)
}

func TestParseGroupedFormula(t *testing.T) {
	reg := unit.NewRegistry()
	s, err := species.Parse(reg, "calcium hydroxide", "Ca(OH)2")
	if err != nil {
		t.Fatal(err)
	}
	if s.ElementCounts["Ca"] != 1 || s.ElementCounts["O"] != 2 || s.ElementCounts["H"] != 2 {
		t.Fatalf("unexpected element counts: %v", s.ElementCounts)
	}
}

func TestParseHyphenatedFormula(t *testing.T) {
	reg := unit.NewRegistry()
	s, err := species.Parse(reg, "ethanol", "CH3-CH2-OH")
	if err != nil {
		t.Fatal(err)
	}
	if s.ElementCounts["C"] != 2 || s.ElementCounts["H"] != 6 || s.ElementCounts["O"] != 1 {
		t.Fatalf("unexpected element counts: %v", s.ElementCounts)
	}
}

func TestParseCharge(t *testing.T) {
	reg := unit.NewRegistry()
	s, err := species.Parse(reg, "sulfate", "SO4^2-")
	if err != nil {
		t.Fatal(err)
	}
	if s.Charge != -2 {
		t.Fatalf("charge = %d, want -2", s.Charge)
	}
	s2, err := species.Parse(reg, "sodium", "Na+")
	if err != nil {
		t.Fatal(err)
	}
	if s2.Charge != 1 {
		t.Fatalf("charge = %d, want 1", s2.Charge)
	}
}

func TestParseUnknownElementFails(t *testing.T) {
	reg := unit.NewRegistry()
	_, err := species.Parse(reg, "bad", "Xy2")
	if err == nil {
		t.Fatal("expected error for unknown element")
	}
}
