// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package util implements the small nested-dictionary and sparse-counter
// utilities the rest of the core leans on: path flattening for QFunction
// argument/result structures, and MCounter, the mergeable
// sparse accumulator used while assembling residuals.
package util

import (
	"sort"
	"strings"
)

// Nested is a dictionary whose leaves are float64, []float64, or another
// Nested -- the shape QFunction arguments/results and parameter/property
// files are expressed in.
type Nested map[string]interface{}

// Flatten walks nested depth-first and returns a single-level map keyed
// by "/"-joined paths, with deterministic (lexicographic) key order
// preserved via the returned key slice.
func Flatten(n Nested, sep string) (Nested, []string) {
	out := Nested{}
	flattenInto(n, "", sep, out)
	keys := make([]string, 0, len(out))
	for k := range out {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return out, keys
}

func flattenInto(n Nested, prefix, sep string, out Nested) {
	keys := make([]string, 0, len(n))
	for k := range n {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := n[k]
		path := k
		if prefix != "" {
			path = prefix + sep + k
		}
		if child, ok := v.(Nested); ok {
			flattenInto(child, path, sep, out)
			continue
		}
		out[path] = v
	}
}

// Unflatten is the inverse of Flatten: it rebuilds the nested structure
// from "/"-joined paths.
func Unflatten(flat Nested, sep string) Nested {
	out := Nested{}
	for path, v := range flat {
		parts := strings.Split(path, sep)
		cur := out
		for i, p := range parts {
			if i == len(parts)-1 {
				cur[p] = v
				continue
			}
			next, ok := cur[p].(Nested)
			if !ok {
				next = Nested{}
				cur[p] = next
			}
			cur = next
		}
	}
	return out
}
