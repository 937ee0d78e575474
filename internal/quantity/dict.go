// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quantity

import (
	"github.com/VolkerSiep/SigmaMu/internal/sigmaerr"
	"github.com/VolkerSiep/SigmaMu/internal/unit"
)

// Dict maps species name to Quantity, all sharing one unit dimension.
// Add/Sub are element-wise over the union of keys; a key absent from
// one side is treated as zero in that side's dimension.
type Dict map[string]Quantity

// Keys returns the dict's keys in a stable, sorted order.
func (d Dict) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sortStrings(keys)
	return keys
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// unionKeys returns the sorted union of a's and b's keys.
func unionKeys(a, b Dict) []string {
	seen := map[string]bool{}
	var keys []string
	for k := range a {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for k := range b {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sortStrings(keys)
	return keys
}

// Add returns the element-wise sum over the union of keys.
func (d Dict) Add(o Dict) (Dict, error) {
	out := Dict{}
	for _, k := range unionKeys(d, o) {
		a, aok := d[k]
		b, bok := o[k]
		switch {
		case aok && bok:
			sum, err := a.Add(b)
			if err != nil {
				return nil, err
			}
			out[k] = sum
		case aok:
			out[k] = a
		default:
			out[k] = b
		}
	}
	return out, nil
}

// Sub returns the element-wise difference over the union of keys.
func (d Dict) Sub(o Dict) (Dict, error) {
	out := Dict{}
	for _, k := range unionKeys(d, o) {
		a, aok := d[k]
		b, bok := o[k]
		switch {
		case aok && bok:
			diff, err := a.Sub(b)
			if err != nil {
				return nil, err
			}
			out[k] = diff
		case aok:
			out[k] = a
		default:
			out[k] = b.Neg()
		}
	}
	return out, nil
}

// Sum reduces the dict to a single Quantity by summing all entries; it
// requires at least one entry to infer the shared unit.
func (d Dict) Sum() (Quantity, error) {
	keys := d.Keys()
	if len(keys) == 0 {
		return Quantity{}, sigmaerr.New(sigmaerr.MissingRequirement, "", "sum of an empty dict has no unit")
	}
	total := d[keys[0]]
	for _, k := range keys[1:] {
		var err error
		total, err = total.Add(d[k])
		if err != nil {
			return Quantity{}, err
		}
	}
	return total, nil
}

// Dimension returns the shared dimension of the dict's entries, or the
// dimensionless unit if the dict is empty.
func (d Dict) Dimension() unit.Dimension {
	for _, q := range d {
		return q.Unit.Dim
	}
	return unit.Dimension{}
}
