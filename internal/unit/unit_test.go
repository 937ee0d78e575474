// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package unit_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/VolkerSiep/SigmaMu/internal/unit"
)

func TestParseGaugePressureAliases(t *testing.T) {
	r := unit.NewRegistry()

	si, u, err := r.Parse("1 bar_gauge")
	require.NoError(t, err)
	require.Equal(t, "bar_gauge", u.Symbol)
	require.InDelta(t, 1.01325e5+1e5, si, 1e-6)

	si, _, err = r.Parse("0 atmg")
	require.NoError(t, err)
	require.InDelta(t, 101325, si, 1e-6)

	si, _, err = r.Parse("0 kPag")
	require.NoError(t, err)
	require.InDelta(t, 101325, si, 1e-6)
}

func TestParseTemperatureOffset(t *testing.T) {
	r := unit.NewRegistry()
	si, _, err := r.Parse("25 degC")
	require.NoError(t, err)
	require.InDelta(t, 298.15, si, 1e-9)
}

func TestDimensionlessAlias(t *testing.T) {
	r := unit.NewRegistry()
	_, u, err := r.Parse("3")
	require.NoError(t, err)
	require.True(t, u.Dim.IsDimensionless())
}

func TestDimensionMismatchRejectsUnknownUnit(t *testing.T) {
	r := unit.NewRegistry()
	_, _, err := r.Parse("1 furlong")
	require.Error(t, err)
}

func TestMulDivPow(t *testing.T) {
	r := unit.NewRegistry()
	molS, _ := r.Lookup("mol/s")
	s, _ := r.Lookup("s")
	mol, _ := r.Lookup("mol")
	require.True(t, molS.Dim.Equal(mol.Dim.Sub(s.Dim)))
	require.True(t, mol.Mul(s.Pow(-1)).Dim.Equal(molS.Dim))
}
