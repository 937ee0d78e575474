// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package paramfile is the boundary decoder between parsed
// configuration trees and the core: it turns nested parameter
// dictionaries (class -> parameter -> species, string leaves like
// "-241.826 kJ/mol") into parameter-store sources, gosl fun.Prm records
// into the same, and model-structure mappings into frame structures.
// File parsing itself stays outside the core; this package only
// consumes what a YAML/JSON reader already decoded.
package paramfile

import (
	"github.com/cpmech/gosl/fun"

	"github.com/VolkerSiep/SigmaMu/internal/material"
	"github.com/VolkerSiep/SigmaMu/internal/quantity"
	"github.com/VolkerSiep/SigmaMu/internal/sigmaerr"
	"github.com/VolkerSiep/SigmaMu/internal/unit"
	"github.com/VolkerSiep/SigmaMu/internal/util"
)

// DecodeSource converts a nested parameter dictionary into a store
// source. String leaves are parsed through the unit registry; anything
// else is rejected.
func DecodeSource(reg *unit.Registry, label string, in util.Nested) (*material.MapSource, error) {
	parsed, err := util.ParseQuantitiesInStruct(reg, in)
	if err != nil {
		return nil, err
	}
	flat, keys := util.Flatten(parsed, "/")
	values := make(map[string]quantity.Quantity, len(keys))
	for _, k := range keys {
		q, ok := flat[k].(quantity.Quantity)
		if !ok {
			return nil, sigmaerr.New(sigmaerr.DimensionMismatch, k, "parameter leaf is not a quantity literal")
		}
		values[k] = q
	}
	return &material.MapSource{Label: label, Values: values}, nil
}

// DecodePrms converts a gosl parameter set into a store source under
// one contribution class: each {N, V, U} triple becomes class/N (or
// class/N/species when N is written as "name/species").
func DecodePrms(reg *unit.Registry, label, class string, prms fun.Prms) (*material.MapSource, error) {
	values := map[string]quantity.Quantity{}
	for _, prm := range prms {
		u := unit.Dimensionless
		if prm.U != "" {
			var ok bool
			if u, ok = reg.Lookup(prm.U); !ok {
				return nil, sigmaerr.New(sigmaerr.DimensionMismatch, class+"/"+prm.N, "unknown unit %q", prm.U)
			}
		}
		values[class+"/"+prm.N] = quantity.FromFloat(u.ToSI(prm.V), u)
	}
	return &material.MapSource{Label: label, Values: values}, nil
}

// DecodeFrameStructure converts one model-structure mapping
// {state: <name>, contributions: [<name> | {cls, name, options}]} into
// a frame structure.
func DecodeFrameStructure(in map[string]interface{}) (material.FrameStructure, error) {
	fs := material.FrameStructure{}
	stateName, ok := in["state"].(string)
	if !ok {
		return fs, sigmaerr.New(sigmaerr.MissingRequirement, "state", "structure misses the state definition name")
	}
	fs.StateName = stateName

	rawList, ok := in["contributions"].([]interface{})
	if !ok {
		return fs, sigmaerr.New(sigmaerr.MissingRequirement, "contributions", "structure misses the contribution list")
	}
	for i, raw := range rawList {
		switch v := raw.(type) {
		case string:
			fs.Entries = append(fs.Entries, material.EntrySpec{Class: v})
		case map[string]interface{}:
			cls, ok := v["cls"].(string)
			if !ok {
				return fs, sigmaerr.New(sigmaerr.MissingRequirement, "contributions", "entry %d misses cls", i)
			}
			es := material.EntrySpec{Class: cls}
			if alias, ok := v["name"].(string); ok {
				es.Alias = alias
			}
			if rawOpts, ok := v["options"].(map[string]interface{}); ok {
				es.Options = map[string]string{}
				for k, ov := range rawOpts {
					s, ok := ov.(string)
					if !ok {
						return fs, sigmaerr.New(sigmaerr.MissingRequirement, cls, "option %q is not a string", k)
					}
					es.Options[k] = s
				}
			}
			fs.Entries = append(fs.Entries, es)
		default:
			return fs, sigmaerr.New(sigmaerr.MissingRequirement, "contributions", "entry %d has unsupported type %T", i, raw)
		}
	}
	return fs, nil
}
