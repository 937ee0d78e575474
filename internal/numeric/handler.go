// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package numeric implements the numeric handler: it owns the global
// state vector x, compiles the flattened model's scaled residuals,
// bounds and published properties into callables, and round-trips
// states through the unit parser for persistence.
package numeric

import (
	"github.com/cpmech/gosl/la"

	"github.com/VolkerSiep/SigmaMu/internal/graph"
	"github.com/VolkerSiep/SigmaMu/internal/model"
	"github.com/VolkerSiep/SigmaMu/internal/quantity"
	"github.com/VolkerSiep/SigmaMu/internal/sigmaerr"
	"github.com/VolkerSiep/SigmaMu/internal/unit"
	"github.com/VolkerSiep/SigmaMu/internal/util"
)

// Handler assembles and owns the numeric form of a flattened model. It
// holds the only mutable cursor into x.
type Handler struct {
	prob *model.Problem

	X      []float64 // current state, base SI
	params []float64 // current parameter values, base SI

	resNames   []string
	boundNames []string
	propNames  []string

	resProg   *graph.Program
	boundProg *graph.Program
	propProg  *graph.Program
}

// NewHandler compiles the problem's residual, bound and property
// callables over the combined [states, parameters] input vector.
func NewHandler(prob *model.Problem) (*Handler, error) {
	h := &Handler{prob: prob}

	inputs := make([]*graph.Node, 0, len(prob.States)+len(prob.Params))
	for _, se := range prob.States {
		h.X = append(h.X, se.Init)
		inputs = append(inputs, se.Sym.Node)
	}
	for _, pe := range prob.Params {
		h.params = append(h.params, pe.Default)
		inputs = append(inputs, pe.Sym.Node)
	}

	var resOut []*graph.Node
	for _, r := range prob.Residuals {
		h.resNames = append(h.resNames, r.Name)
		if r.Tol.Offset != 0 {
			return nil, sigmaerr.New(sigmaerr.DimensionMismatch, r.Name, "offset unit %q cannot be a tolerance", r.Tol.Symbol)
		}
		scaled := r.Expr.Node.Mul(graph.Const(1 / r.Tol.Scale))
		resOut = append(resOut, scaled)
	}
	var boundOut []*graph.Node
	for _, b := range prob.Bounds {
		h.boundNames = append(h.boundNames, b.Name)
		boundOut = append(boundOut, b.Expr.Node)
	}
	var propOut []*graph.Node
	for _, np := range prob.Props {
		h.propNames = append(h.propNames, np.Name)
		propOut = append(propOut, np.Q.Node)
	}

	var err error
	if h.resProg, err = graph.Compile(inputs, resOut); err != nil {
		return nil, err
	}
	if h.boundProg, err = graph.Compile(inputs, boundOut); err != nil {
		return nil, err
	}
	if h.propProg, err = graph.Compile(inputs, propOut); err != nil {
		return nil, err
	}
	return h, nil
}

// Problem returns the underlying flat problem.
func (h *Handler) Problem() *model.Problem { return h.prob }

// NumStates and NumResiduals size the square system check.
func (h *Handler) NumStates() int    { return len(h.prob.States) }
func (h *Handler) NumResiduals() int { return len(h.prob.Residuals) }

// ResidualNames, BoundNames and StateNames map vector offsets back to
// qualified names for diagnostics.
func (h *Handler) ResidualNames() []string { return h.resNames }
func (h *Handler) BoundNames() []string    { return h.boundNames }

func (h *Handler) StateNames() []string {
	names := make([]string, len(h.prob.States))
	for i, se := range h.prob.States {
		names[i] = se.Name
	}
	return names
}

func (h *Handler) joined() []float64 {
	xp := make([]float64, 0, len(h.X)+len(h.params))
	xp = append(xp, h.X...)
	return append(xp, h.params...)
}

// Residuals evaluates the scaled residual vector at the current state.
func (h *Handler) Residuals() ([]float64, error) {
	return h.resProg.Eval(h.joined())
}

// ResidualsJacobian evaluates r and J_r = dr/dx (state columns only) in
// sparse triplet form ready for the linear solver backend.
func (h *Handler) ResidualsJacobian() ([]float64, *la.Triplet, error) {
	return h.resProg.EvalJacobianN(h.joined(), len(h.X))
}

// Bounds evaluates the bound vector at the current state.
func (h *Handler) Bounds() ([]float64, error) {
	return h.boundProg.Eval(h.joined())
}

// BoundsJacobian evaluates b and J_b = db/dx.
func (h *Handler) BoundsJacobian() ([]float64, *la.Triplet, error) {
	return h.boundProg.EvalJacobianN(h.joined(), len(h.X))
}

// Relax runs the contribution relax chain over the stepped state.
func (h *Handler) Relax() error { return h.prob.Relax(h.X) }

// Arguments returns the editable parameter defaults as a nested
// dictionary of quantities, keyed by qualified path.
func (h *Handler) Arguments() util.Nested {
	flat := util.Nested{}
	for i, pe := range h.prob.Params {
		flat[pe.Path] = quantity.FromFloat(h.params[i], pe.Display)
	}
	return util.Unflatten(flat, "/")
}

// SetArgument overrides one parameter by qualified path; the value must
// match the declared dimension.
func (h *Handler) SetArgument(path string, q quantity.Quantity) error {
	for i, pe := range h.prob.Params {
		if pe.Path != path {
			continue
		}
		if !q.Unit.SameDimension(pe.Display) {
			return sigmaerr.New(sigmaerr.DimensionMismatch, path, "argument has dimension %v, want %v", q.Unit.Dim, pe.Display.Dim)
		}
		v, ok := q.Node.ConstValue()
		if !ok {
			return sigmaerr.New(sigmaerr.NumericBuild, path, "argument is not a literal")
		}
		h.params[i] = v
		return nil
	}
	return sigmaerr.New(sigmaerr.MissingParameter, path, "no such argument")
}

// Function evaluates every published property at the current state and
// arguments, without Jacobians, returning base-SI magnitudes keyed by
// qualified path.
func (h *Handler) Function() (util.Nested, error) {
	y, err := h.propProg.Eval(h.joined())
	if err != nil {
		return nil, err
	}
	flat := util.Nested{}
	for i, name := range h.propNames {
		flat[name] = y[i]
	}
	return util.Unflatten(flat, "/"), nil
}

// PropertyFunc returns a closure over the current state for solver
// reports: it re-evaluates the property set on demand.
func (h *Handler) PropertyFunc() func() (util.Nested, error) {
	return h.Function
}

// ExportState renders the current state as nested string quantities:
// {thermo: {<material>: {T, p|V, n:{species}}}, states: {...}}.
func (h *Handler) ExportState() util.Nested {
	reg := unit.Default()
	kelvin, _ := reg.Lookup("K")
	pa, _ := reg.Lookup("Pa")
	m3, _ := reg.Lookup("m3")

	thermoOut := util.Nested{}
	covered := make([]bool, len(h.X))
	for _, slot := range h.prob.Slots {
		mat := slot.Mat
		amount := mat.AmountUnit()
		entry := util.Nested{}
		entry["T"] = reg.Format(h.X[slot.Offset], kelvin)
		if mat.Definition.Structure.StateName == "HelmholtzState" {
			vol := m3.Mul(amount).Div(mustLookup(reg, "mol"))
			entry["V"] = reg.Format(h.X[slot.Offset+1], vol)
		} else {
			entry["p"] = reg.Format(h.X[slot.Offset+1], pa)
		}
		ns := util.Nested{}
		for i, sp := range mat.Definition.Species {
			ns[sp] = reg.Format(h.X[slot.Offset+2+i], amount)
		}
		entry["n"] = ns
		thermoOut[mat.Name] = entry
		for i := slot.Offset; i < slot.Offset+slot.Size; i++ {
			covered[i] = true
		}
	}

	states := util.Nested{}
	for i, se := range h.prob.States {
		if !covered[i] {
			states[se.Name] = reg.Format(h.X[i], se.Sym.Unit)
		}
	}
	out := util.Nested{"thermo": thermoOut}
	if len(states) > 0 {
		out["states"] = states
	}
	return out
}

// ImportState restores x from an ExportState dictionary, parsing the
// string leaves through the unit registry and checking dimensions
// against each slot.
func (h *Handler) ImportState(in util.Nested) error {
	reg := unit.Default()
	thermoIn, _ := in["thermo"].(util.Nested)
	if thermoIn == nil {
		return sigmaerr.New(sigmaerr.MissingRequirement, "", "state dictionary has no thermo section")
	}
	for _, slot := range h.prob.Slots {
		mat := slot.Mat
		entry, _ := thermoIn[mat.Name].(util.Nested)
		if entry == nil {
			return sigmaerr.New(sigmaerr.MissingRequirement, mat.Name, "state dictionary misses material %q", mat.Name)
		}
		tq, err := parseLeaf(reg, entry, "T")
		if err != nil {
			return err
		}
		kelvin, _ := reg.Lookup("K")
		if !tq.Unit.SameDimension(kelvin) {
			return sigmaerr.New(sigmaerr.DimensionMismatch, mat.Name, "T entry has dimension %v", tq.Unit.Dim)
		}
		second := "p"
		if mat.Definition.Structure.StateName == "HelmholtzState" {
			second = "V"
		}
		sq, err := parseLeaf(reg, entry, second)
		if err != nil {
			return err
		}
		tv, _ := tq.Node.ConstValue()
		sv, _ := sq.Node.ConstValue()
		h.X[slot.Offset] = tv
		h.X[slot.Offset+1] = sv

		ns, _ := entry["n"].(util.Nested)
		if ns == nil {
			return sigmaerr.New(sigmaerr.MissingRequirement, mat.Name, "state dictionary misses n for %q", mat.Name)
		}
		amount := mat.AmountUnit()
		for i, sp := range mat.Definition.Species {
			nq, err := parseLeaf(reg, ns, sp)
			if err != nil {
				return err
			}
			if !nq.Unit.SameDimension(amount) {
				return sigmaerr.New(sigmaerr.DimensionMismatch, mat.Name, "n[%s] has dimension %v, want %v", sp, nq.Unit.Dim, amount.Dim)
			}
			nv, _ := nq.Node.ConstValue()
			h.X[slot.Offset+2+i] = nv
		}
	}

	if statesIn, ok := in["states"].(util.Nested); ok {
		byName := map[string]int{}
		for i, se := range h.prob.States {
			byName[se.Name] = i
		}
		for name, leaf := range statesIn {
			idx, ok := byName[name]
			if !ok {
				return sigmaerr.New(sigmaerr.MissingRequirement, name, "unknown non-canonical state %q", name)
			}
			lit, ok := leaf.(string)
			if !ok {
				return sigmaerr.New(sigmaerr.DimensionMismatch, name, "state leaf is not a quantity string")
			}
			q, err := quantity.Parse(reg, lit)
			if err != nil {
				return err
			}
			v, _ := q.Node.ConstValue()
			h.X[idx] = v
		}
	}
	return nil
}

func parseLeaf(reg *unit.Registry, n util.Nested, key string) (quantity.Quantity, error) {
	lit, ok := n[key].(string)
	if !ok {
		return quantity.Quantity{}, sigmaerr.New(sigmaerr.MissingRequirement, key, "state dictionary misses %q", key)
	}
	return quantity.Parse(reg, lit)
}

func mustLookup(reg *unit.Registry, sym string) unit.Unit {
	u, _ := reg.Lookup(sym)
	return u
}
