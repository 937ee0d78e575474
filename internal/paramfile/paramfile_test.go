// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package paramfile_test

import (
	"testing"

	"github.com/cpmech/gosl/fun"
	"github.com/stretchr/testify/require"

	"github.com/VolkerSiep/SigmaMu/internal/paramfile"
	"github.com/VolkerSiep/SigmaMu/internal/unit"
	"github.com/VolkerSiep/SigmaMu/internal/util"
)

func TestDecodeSource(t *testing.T) {
	in := util.Nested{
		"H0S0ReferenceState": util.Nested{
			"T_ref": "25 degC",
			"dh_form": util.Nested{
				"H2O": "-241.826 kJ/mol",
			},
		},
	}
	src, err := paramfile.DecodeSource(unit.Default(), "water", in)
	require.NoError(t, err)

	q, ok := src.Lookup("H0S0ReferenceState", "T_ref", "")
	require.True(t, ok)
	v, _ := q.Node.ConstValue()
	require.InDelta(t, 298.15, v, 1e-9)

	q, ok = src.Lookup("H0S0ReferenceState", "dh_form", "H2O")
	require.True(t, ok)
	v, _ = q.Node.ConstValue()
	require.InDelta(t, -241826, v, 1e-6)

	_, ok = src.Lookup("H0S0ReferenceState", "dh_form", "CO2")
	require.False(t, ok)
}

func TestDecodePrms(t *testing.T) {
	prms := fun.Prms{
		&fun.Prm{N: "T_ref", V: 298.15, U: "K"},
		&fun.Prm{N: "s_0/CH4", V: 188.66, U: "J/(mol.K)"},
	}
	src, err := paramfile.DecodePrms(unit.Default(), "db", "H0S0ReferenceState", prms)
	require.NoError(t, err)

	q, ok := src.Lookup("H0S0ReferenceState", "s_0", "CH4")
	require.True(t, ok)
	v, _ := q.Node.ConstValue()
	require.InDelta(t, 188.66, v, 1e-12)
}

func TestDecodeFrameStructure(t *testing.T) {
	in := map[string]interface{}{
		"state": "GibbsState",
		"contributions": []interface{}{
			"H0S0ReferenceState",
			"CriticalParameters",
			map[string]interface{}{
				"cls":     "NonSymmmetricMixingRule", // historical triple-m alias
				"name":    "a-mix",
				"options": map[string]interface{}{"target": "_ceos_a"},
			},
		},
	}
	fs, err := paramfile.DecodeFrameStructure(in)
	require.NoError(t, err)
	require.Equal(t, "GibbsState", fs.StateName)
	require.Len(t, fs.Entries, 3)
	require.Equal(t, "a-mix", fs.Entries[2].Alias)
	require.Equal(t, "_ceos_a", fs.Entries[2].Options["target"])
}

func TestDecodeFrameStructureRejectsBadEntries(t *testing.T) {
	_, err := paramfile.DecodeFrameStructure(map[string]interface{}{
		"state":         "GibbsState",
		"contributions": []interface{}{42},
	})
	require.Error(t, err)
}
