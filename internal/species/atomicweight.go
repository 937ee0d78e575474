// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package species

// atomicWeight is the standard atomic weight table (g/mol), covering the
// elements the core's reference scenarios and parameter files exercise.
var atomicWeight = map[string]float64{
	"H":  1.008,
	"He": 4.0026,
	"Li": 6.94,
	"C":  12.011,
	"N":  14.007,
	"O":  15.999,
	"F":  18.998,
	"Ne": 20.180,
	"Na": 22.990,
	"Mg": 24.305,
	"Al": 26.982,
	"Si": 28.085,
	"P":  30.974,
	"S":  32.06,
	"Cl": 35.45,
	"Ar": 39.948,
	"K":  39.098,
	"Ca": 40.078,
	"Fe": 55.845,
	"Ni": 58.693,
	"Cu": 63.546,
	"Zn": 65.38,
	"Br": 79.904,
	"Ag": 107.868,
	"I":  126.904,
	"Ba": 137.327,
	"Pt": 195.084,
	"Au": 196.967,
	"Hg": 200.592,
	"Pb": 207.2,
}
