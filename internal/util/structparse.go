// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package util

import (
	"github.com/VolkerSiep/SigmaMu/internal/quantity"
	"github.com/VolkerSiep/SigmaMu/internal/sigmaerr"
	"github.com/VolkerSiep/SigmaMu/internal/unit"
)

// ParseQuantitiesInStruct recursively walks a Nested tree of the kind
// a parameter-file boundary decoder hands the core and replaces every
// string leaf with the Quantity it parses to. Non-string leaves are left untouched except
// for their type in the returned tree: quantity.Quantity where a string
// was, Nested where a nested map was, and the original value otherwise.
func ParseQuantitiesInStruct(r *unit.Registry, n Nested) (Nested, error) {
	out := Nested{}
	for k, v := range n {
		switch t := v.(type) {
		case string:
			q, err := quantity.Parse(r, t)
			if err != nil {
				return nil, sigmaerr.New(sigmaerr.DimensionMismatch, k, "%v", err)
			}
			out[k] = q
		case Nested:
			child, err := ParseQuantitiesInStruct(r, t)
			if err != nil {
				return nil, err
			}
			out[k] = child
		case map[string]interface{}:
			child, err := ParseQuantitiesInStruct(r, Nested(t))
			if err != nil {
				return nil, err
			}
			out[k] = child
		default:
			out[k] = v
		}
	}
	return out, nil
}
