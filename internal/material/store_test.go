// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package material_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/VolkerSiep/SigmaMu/internal/material"
	"github.com/VolkerSiep/SigmaMu/internal/quantity"
	"github.com/VolkerSiep/SigmaMu/internal/thermo"
	"github.com/VolkerSiep/SigmaMu/internal/unit"
)

func q(t *testing.T, lit string) quantity.Quantity {
	t.Helper()
	v, err := quantity.Parse(unit.Default(), lit)
	require.NoError(t, err)
	return v
}

func TestStoreFirstMatchWins(t *testing.T) {
	s := material.NewStore()
	s.AddSource(&material.MapSource{Label: "primary", Values: map[string]quantity.Quantity{
		"H0S0ReferenceState/T_ref": q(t, "300 K"),
	}})
	s.AddSource(&material.MapSource{Label: "fallback", Values: map[string]quantity.Quantity{
		"H0S0ReferenceState/T_ref": q(t, "400 K"),
		"H0S0ReferenceState/p_ref": q(t, "1 bar"),
	}})

	kelvin, _ := unit.Default().Lookup("K")
	pa, _ := unit.Default().Lookup("Pa")
	decls := []thermo.ParamDecl{
		{Name: "T_ref", Unit: kelvin},
		{Name: "p_ref", Unit: pa},
	}
	p, err := s.Resolve("H0S0ReferenceState", "H0S0ReferenceState", decls, nil)
	require.NoError(t, err)

	tr, ok := p.Scalars["T_ref"].Node.ConstValue()
	require.True(t, ok)
	require.InDelta(t, 300, tr, 1e-12) // primary shadows fallback
	pr, ok := p.Scalars["p_ref"].Node.ConstValue()
	require.True(t, ok)
	require.InDelta(t, 1e5, pr, 1e-9)
}

func TestStoreAddingSourceNeverChangesResolved(t *testing.T) {
	s := material.NewStore()
	s.AddSource(&material.MapSource{Label: "a", Values: map[string]quantity.Quantity{
		"X/k": q(t, "2 K"),
	}})
	kelvin, _ := unit.Default().Lookup("K")
	decls := []thermo.ParamDecl{{Name: "k", Unit: kelvin}}

	p1, err := s.Resolve("X", "X", decls, nil)
	require.NoError(t, err)
	v1, _ := p1.Scalars["k"].Node.ConstValue()

	s.AddSource(&material.MapSource{Label: "b", Values: map[string]quantity.Quantity{
		"X/k": q(t, "99 K"),
	}})
	p2, err := s.Resolve("X", "X", decls, nil)
	require.NoError(t, err)
	v2, _ := p2.Scalars["k"].Node.ConstValue()
	require.Equal(t, v1, v2)
}

func TestStoreMissingSymbols(t *testing.T) {
	s := material.NewStore()
	s.AddSource(&material.MapSource{Label: "partial", Values: map[string]quantity.Quantity{
		"H0S0ReferenceState/dh_form/H2O": q(t, "-241.826 kJ/mol"),
	}})
	jmol, _ := unit.Default().Lookup("J/mol")
	jmolk, _ := unit.Default().Lookup("J/(mol.K)")
	required := map[string][]thermo.ParamDecl{
		"H0S0ReferenceState": {
			{Name: "dh_form", Unit: jmol, PerSpecies: true},
			{Name: "s_0", Unit: jmolk, PerSpecies: true},
		},
	}
	missing := s.GetMissingSymbols(required, []string{"H2O"})
	require.Equal(t, []string{"H0S0ReferenceState/s_0/H2O"}, missing)
}

func TestStoreDimensionChecked(t *testing.T) {
	s := material.NewStore()
	s.AddSource(&material.MapSource{Label: "bad", Values: map[string]quantity.Quantity{
		"X/k": q(t, "2 mol"),
	}})
	kelvin, _ := unit.Default().Lookup("K")
	_, err := s.Resolve("X", "X", []thermo.ParamDecl{{Name: "k", Unit: kelvin}}, nil)
	require.Error(t, err)
}
