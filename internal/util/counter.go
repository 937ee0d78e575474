// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package util

import "github.com/VolkerSiep/SigmaMu/internal/quantity"

// MCounter is a mergeable sparse counter keyed by name -- a species
// composition vector (element -> stoichiometric count) or any other
// sparse weighting used while assembling a residual, kept sparse rather
// than as a dense slice over the full species/element set.
type MCounter map[string]float64

// Add merges two counters, summing weights on shared keys.
func (m MCounter) Add(o MCounter) MCounter {
	out := make(MCounter, len(m)+len(o))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range o {
		out[k] += v
	}
	return out
}

// Scale multiplies every weight by f.
func (m MCounter) Scale(f float64) MCounter {
	out := make(MCounter, len(m))
	for k, v := range m {
		out[k] = v * f
	}
	return out
}

// Dot contracts the counter against a dict of Quantities sharing one
// unit, producing Σ weight_k * dict[k] without ever materializing a
// dense vector over the full key set. Keys present in the counter but
// absent from dict are treated as zero, mirroring quantity.Dict's own
// "absent key is zero" rule.
func (m MCounter) Dot(d quantity.Dict) (quantity.Quantity, error) {
	var total quantity.Quantity
	first := true
	for _, k := range m.keys() {
		w := m[k]
		if w == 0 {
			continue
		}
		q, ok := d[k]
		if !ok {
			continue
		}
		term := q.Scale(w)
		if first {
			total = term
			first = false
			continue
		}
		var err error
		total, err = total.Add(term)
		if err != nil {
			return quantity.Quantity{}, err
		}
	}
	return total, nil
}

func (m MCounter) keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys
}

func sortKeys(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
