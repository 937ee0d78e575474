// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quantity

import (
	"sort"

	"github.com/cpmech/gosl/la"

	"github.com/VolkerSiep/SigmaMu/internal/graph"
	"github.com/VolkerSiep/SigmaMu/internal/sigmaerr"
	"github.com/VolkerSiep/SigmaMu/internal/unit"
)

// Spec describes one named slot of a QFunction's argument or result
// structure: the unit every entry of the slot is expressed in, and how
// many entries it holds (1 for a scalar, len(species) for a per-species
// vector such as n).
type Spec struct {
	Unit unit.Unit
	N    int
}

// Structure is the unit skeleton of a QFunction's inputs or outputs
// (the argument and result skeletons). It is keyed by
// name, not by a full nested path -- the deeper nesting used when
// composing whole models happens further up, in internal/numeric, which
// joins qualified names with '/' and nests them via internal/util.Unflatten.
type Structure map[string]Spec

// names returns the structure's keys in deterministic (sorted) order --
// the order every flat input/output vector is built and read in.
func (s Structure) names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// NewArgs allocates one symbol vector per entry of spec on table and
// wraps each leaf in a Quantity carrying the declared unit. The returned
// map is the set of symbolic handles a contribution or model uses to
// build its output expressions.
func NewArgs(table *graph.SymbolTable, spec Structure) (map[string][]Quantity, error) {
	args := make(map[string][]Quantity, len(spec))
	for _, name := range spec.names() {
		s := spec[name]
		nodes, err := table.Symbol(name, s.N)
		if err != nil {
			return nil, err
		}
		qs := make([]Quantity, s.N)
		for i, n := range nodes {
			qs[i] = New(n, s.Unit)
		}
		args[name] = qs
	}
	return args, nil
}

// QFunction is a compiled callable whose inputs and outputs are named
// vectors of dimensioned Quantities. Flattening to/from
// plain float64 vectors happens at the unit boundary: Eval/EvalJacobian
// accept and return base-SI magnitudes only, keyed by the same names as
// argSpec/resSpec.
type QFunction struct {
	prog    *graph.Program
	argSpec Structure
	argOrd  []string
	resSpec Structure
	resOrd  []string
}

// Compile builds a QFunction from the symbolic inputs (args, matching
// argSpec) and outputs (results, matching resSpec). Every entry's unit
// must match its declared spec dimension, or compilation fails with
// DimensionMismatch; this is the boundary where a contribution's
// constructed expressions are frozen into a callable.
func Compile(argSpec Structure, args map[string][]Quantity, resSpec Structure, results map[string][]Quantity) (*QFunction, error) {
	argOrd := argSpec.names()
	resOrd := resSpec.names()

	var inputs []*graph.Node
	for _, name := range argOrd {
		qs, ok := args[name]
		if !ok {
			return nil, sigmaerr.New(sigmaerr.MissingRequirement, "", "qfunction: argument %q not supplied", name)
		}
		s := argSpec[name]
		if len(qs) != s.N {
			return nil, sigmaerr.New(sigmaerr.DimensionMismatch, "", "qfunction: argument %q has %d entries, want %d", name, len(qs), s.N)
		}
		for i, q := range qs {
			if !q.Unit.SameDimension(s.Unit) {
				return nil, sigmaerr.New(sigmaerr.DimensionMismatch, "", "qfunction: argument %q[%d] has dimension %v, want %v", name, i, q.Unit.Dim, s.Unit.Dim)
			}
			if !q.Node.IsSymbol() {
				return nil, sigmaerr.New(sigmaerr.NumericBuild, "", "qfunction: argument %q[%d] is not a bare symbol", name, i)
			}
			inputs = append(inputs, q.Node)
		}
	}

	var outputs []*graph.Node
	for _, name := range resOrd {
		qs, ok := results[name]
		if !ok {
			return nil, sigmaerr.New(sigmaerr.MissingRequirement, "", "qfunction: result %q not supplied", name)
		}
		s := resSpec[name]
		if len(qs) != s.N {
			return nil, sigmaerr.New(sigmaerr.DimensionMismatch, "", "qfunction: result %q has %d entries, want %d", name, len(qs), s.N)
		}
		for i, q := range qs {
			if !q.Unit.SameDimension(s.Unit) {
				return nil, sigmaerr.New(sigmaerr.DimensionMismatch, "", "qfunction: result %q[%d] has dimension %v, want %v", name, i, q.Unit.Dim, s.Unit.Dim)
			}
			outputs = append(outputs, q.Node)
		}
	}

	prog, err := graph.Compile(inputs, outputs)
	if err != nil {
		return nil, err
	}
	return &QFunction{prog: prog, argSpec: argSpec, argOrd: argOrd, resSpec: resSpec, resOrd: resOrd}, nil
}

// ArgStructure returns the argument unit skeleton.
func (f *QFunction) ArgStructure() Structure { return f.argSpec }

// ResultStructure returns the result unit skeleton.
func (f *QFunction) ResultStructure() Structure { return f.resSpec }

func (f *QFunction) flattenArgs(args map[string][]float64) ([]float64, error) {
	var x []float64
	for _, name := range f.argOrd {
		v, ok := args[name]
		if !ok {
			return nil, sigmaerr.New(sigmaerr.MissingRequirement, "", "qfunction: missing argument %q", name)
		}
		if len(v) != f.argSpec[name].N {
			return nil, sigmaerr.New(sigmaerr.DimensionMismatch, "", "qfunction: argument %q has %d entries, want %d", name, len(v), f.argSpec[name].N)
		}
		x = append(x, v...)
	}
	return x, nil
}

func (f *QFunction) unflattenResults(y []float64) map[string][]float64 {
	out := make(map[string][]float64, len(f.resOrd))
	i := 0
	for _, name := range f.resOrd {
		n := f.resSpec[name].N
		out[name] = append([]float64(nil), y[i:i+n]...)
		i += n
	}
	return out
}

// Eval evaluates the function at args (base-SI magnitudes) and returns
// results in the same units.
func (f *QFunction) Eval(args map[string][]float64) (map[string][]float64, error) {
	x, err := f.flattenArgs(args)
	if err != nil {
		return nil, err
	}
	y, err := f.prog.Eval(x)
	if err != nil {
		return nil, err
	}
	return f.unflattenResults(y), nil
}

// EvalJacobian evaluates the function and its Jacobian w.r.t. the
// flattened argument vector, as the la.Triplet the graph package
// already builds for the solver (ToMatrix converts it to compressed
// sparse column form).
func (f *QFunction) EvalJacobian(args map[string][]float64) (map[string][]float64, *la.Triplet, error) {
	x, err := f.flattenArgs(args)
	if err != nil {
		return nil, nil, err
	}
	y, jac, err := f.prog.EvalJacobian(x)
	if err != nil {
		return nil, nil, err
	}
	return f.unflattenResults(y), jac, nil
}

// InputNames and OutputNames expose the deterministic flattening order,
// used by the numeric handler to map global vector offsets back to
// qualified names.
func (f *QFunction) InputNames() []string  { return f.argOrd }
func (f *QFunction) OutputNames() []string { return f.resOrd }
