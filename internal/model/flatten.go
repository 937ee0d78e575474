// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

import (
	"github.com/VolkerSiep/SigmaMu/internal/graph"
	"github.com/VolkerSiep/SigmaMu/internal/material"
	"github.com/VolkerSiep/SigmaMu/internal/quantity"
	"github.com/VolkerSiep/SigmaMu/internal/sigmaerr"
	"github.com/VolkerSiep/SigmaMu/internal/thermo"
	"github.com/VolkerSiep/SigmaMu/internal/unit"
)

// StateEntry is one independent variable of the flat problem.
type StateEntry struct {
	Name string
	Sym  quantity.Quantity
	Init float64 // base SI
}

// ParamEntry is one editable parameter of the flat problem: a symbol
// in the graph, its default in base SI, and the unit it was declared
// in for round-tripping at the I/O boundary.
type ParamEntry struct {
	Path    string
	Sym     quantity.Quantity
	Default float64
	Display unit.Unit
}

// MaterialSlot locates one material's contiguous state slice inside
// the global x.
type MaterialSlot struct {
	Mat    *material.Material
	Offset int
	Size   int
}

// NamedQuantity is one published property with its qualified name.
type NamedQuantity struct {
	Name string
	Q    quantity.Quantity
}

// Problem is the flat numeric problem a model tree compiles to:
// ordered states, scaled residuals, strictly positive bounds, editable
// parameters and the published property expressions.
type Problem struct {
	Table     *graph.SymbolTable
	States    []StateEntry
	Slots     []MaterialSlot
	Residuals []Residual
	Bounds    []thermo.Bound
	Params    []ParamEntry
	Props     []NamedQuantity

	root *node
}

// symbolizeResolver wraps a material definition's parameter store so
// every resolved thermo parameter becomes a named symbol with the
// store's value as its default -- the mechanism that makes thermo
// parameters editable arguments of the numeric problem without
// recompilation.
type symbolizeResolver struct {
	inner  thermo.ParamResolver
	table  *graph.SymbolTable
	prefix string
	out    *[]ParamEntry
}

func (r *symbolizeResolver) symbolize(path string, q quantity.Quantity) (quantity.Quantity, error) {
	def, ok := q.Node.ConstValue()
	if !ok {
		return quantity.Quantity{}, sigmaerr.New(sigmaerr.NumericBuild, path, "parameter value is not a literal")
	}
	syms, err := r.table.Symbol(path, 1)
	if err != nil {
		return quantity.Quantity{}, err
	}
	sq := quantity.New(syms[0], q.Unit)
	*r.out = append(*r.out, ParamEntry{Path: path, Sym: sq, Default: def, Display: q.Unit})
	return sq, nil
}

func (r *symbolizeResolver) Resolve(alias, class string, decls []thermo.ParamDecl, species []string) (thermo.Params, error) {
	p, err := r.inner.Resolve(alias, class, decls, species)
	if err != nil {
		return thermo.Params{}, err
	}
	// walk the declarations, not the maps, so the parameter vector
	// order is deterministic
	base := r.prefix + "/" + alias
	for _, d := range decls {
		switch {
		case d.PerPair:
			pairs := p.Pairs[d.Name]
			out := thermo.PairDict{}
			for i, spi := range species {
				for _, spj := range species[i+1:] {
					q, ok := pairs.Get(spi, spj)
					if !ok {
						continue
					}
					key := [2]string{spi, spj}
					if out[key], err = r.symbolize(base+"/"+d.Name+"/"+spi+"/"+spj, q); err != nil {
						return thermo.Params{}, err
					}
				}
			}
			p.Pairs[d.Name] = out
		case d.PerSpecies:
			dict := p.Dicts[d.Name]
			out := quantity.Dict{}
			for _, sp := range species {
				q, ok := dict[sp]
				if !ok {
					continue
				}
				if out[sp], err = r.symbolize(base+"/"+d.Name+"/"+sp, q); err != nil {
					return thermo.Params{}, err
				}
			}
			p.Dicts[d.Name] = out
		default:
			q, ok := p.Scalars[d.Name]
			if !ok {
				continue
			}
			if p.Scalars[d.Name], err = r.symbolize(base+"/"+d.Name, q); err != nil {
				return thermo.Params{}, err
			}
		}
	}
	return p, nil
}

// Flatten runs the interface pass, material creation and port binding,
// the symbol allocation and the define pass over the whole tree, and
// assembles the flat problem.
func Flatten(root Model, name string) (*Problem, error) {
	prob := &Problem{Table: graph.NewSymbolTable()}

	rootNode, err := prob.buildInterfaces(nil, name, root)
	if err != nil {
		return nil, err
	}
	if len(rootNode.ifc.ports) > 0 {
		return nil, sigmaerr.New(sigmaerr.MissingRequirement, name, "root model declares material ports but has no parent to fill them")
	}
	if err := prob.bindMaterials(rootNode); err != nil {
		return nil, err
	}
	if err := prob.allocateSymbols(rootNode); err != nil {
		return nil, err
	}
	if err := defineBottomUp(rootNode); err != nil {
		return nil, err
	}
	if err := prob.collect(rootNode); err != nil {
		return nil, err
	}
	prob.root = rootNode
	return prob, nil
}

func (p *Problem) buildInterfaces(parent *node, name string, m Model) (*node, error) {
	ifc := newInterface()
	m.Interface(ifc)
	if ifc.err != nil {
		return nil, ifc.err
	}
	n := &node{
		name:      name,
		model:     m,
		ifc:       ifc,
		parent:    parent,
		materials: map[string]*material.Material{},
		params:    map[string]quantity.Quantity{},
		stateVars: map[string]quantity.Quantity{},
		props:     map[string]quantity.Quantity{},
	}
	for _, cd := range ifc.children {
		child, err := p.buildInterfaces(n, name+"/"+cd.name, cd.model)
		if err != nil {
			return nil, err
		}
		n.children = append(n.children, child)
	}
	return n, nil
}

// bindMaterials creates each node's own materials and hands them down
// into child ports along the connection tables, top-down.
func (p *Problem) bindMaterials(n *node) error {
	for _, md := range n.ifc.materials {
		if _, taken := n.materials[md.name]; taken {
			return sigmaerr.New(sigmaerr.UndeclaredProperty, n.name, "material handle %q declared twice", md.name)
		}
		res := &symbolizeResolver{
			inner:  md.def.Store,
			table:  p.Table,
			prefix: n.name + "/" + md.name + "/thermo",
			out:    &p.Params,
		}
		mat, err := md.def.CreateInstance(n.name+"/"+md.name, md.kind, p.Table, res)
		if err != nil {
			return err
		}
		n.materials[md.name] = mat
		p.Slots = append(p.Slots, MaterialSlot{Mat: mat})
	}
	for i, cd := range n.ifc.children {
		child := n.children[i]
		for _, port := range child.ifc.ports {
			handle, ok := cd.connect[port]
			if !ok {
				return sigmaerr.New(sigmaerr.MissingRequirement, child.name, "port %q is not connected", port)
			}
			mat, ok := n.materials[handle]
			if !ok {
				return sigmaerr.New(sigmaerr.MissingRequirement, n.name, "connection for %s/%s names unknown material %q", cd.name, port, handle)
			}
			if err := child.ifc.portSpecs[port].Accepts(mat); err != nil {
				return err
			}
			child.materials[port] = mat
		}
		if err := p.bindMaterials(child); err != nil {
			return err
		}
	}
	return nil
}

// allocateSymbols creates the parameter and non-canonical state
// symbols of every node.
func (p *Problem) allocateSymbols(n *node) error {
	for _, pd := range n.ifc.params {
		path := n.name + "/" + pd.name
		def, ok := pd.def.Node.ConstValue()
		if !ok {
			return sigmaerr.New(sigmaerr.NumericBuild, path, "parameter default is not a literal")
		}
		syms, err := p.Table.Symbol(path, 1)
		if err != nil {
			return err
		}
		sq := quantity.New(syms[0], pd.def.Unit)
		n.params[pd.name] = sq
		p.Params = append(p.Params, ParamEntry{Path: path, Sym: sq, Default: def, Display: pd.def.Unit})
	}
	for _, sd := range n.ifc.states {
		path := n.name + "/" + sd.name
		if _, ok := sd.def.Node.ConstValue(); !ok {
			return sigmaerr.New(sigmaerr.NumericBuild, path, "state default is not a literal")
		}
		syms, err := p.Table.Symbol(path, 1)
		if err != nil {
			return err
		}
		n.stateVars[sd.name] = quantity.New(syms[0], sd.def.Unit)
	}
	for _, child := range n.children {
		if err := p.allocateSymbols(child); err != nil {
			return err
		}
	}
	return nil
}

func defineBottomUp(n *node) error {
	for _, child := range n.children {
		if err := defineBottomUp(child); err != nil {
			return err
		}
	}
	if err := n.model.Define(&DefineContext{n: n}); err != nil {
		return err
	}
	for _, prop := range n.ifc.props {
		if _, ok := n.props[prop]; !ok {
			return sigmaerr.New(sigmaerr.MissingRequirement, n.name, "declared property %q was never published", prop)
		}
	}
	n.defined = true
	return nil
}

// collect walks the tree depth-first and assembles the flat vectors in
// deterministic order: per node its own materials' state slices in
// declaration order, its non-canonical states, its residuals, then its
// children.
func (p *Problem) collect(n *node) error {
	for _, md := range n.ifc.materials {
		mat := n.materials[md.name]
		init, err := mat.InitialStateVector()
		if err != nil {
			return err
		}
		vec := mat.Frame.StateVector()
		if len(init) != len(vec) {
			return sigmaerr.New(sigmaerr.NumericBuild, mat.Name, "initial state has %d entries, frame expects %d", len(init), len(vec))
		}
		offset := len(p.States)
		for i, q := range vec {
			p.States = append(p.States, StateEntry{
				Name: stateEntryName(mat, i),
				Sym:  q,
				Init: init[i],
			})
		}
		for si := range p.Slots {
			if p.Slots[si].Mat == mat {
				p.Slots[si].Offset = offset
				p.Slots[si].Size = len(vec)
			}
		}
		for _, b := range mat.Frame.Bounds {
			p.Bounds = append(p.Bounds, thermo.Bound{Name: mat.Name + "/" + b.Name, Expr: b.Expr})
		}
		p.collectFrameProps(mat)
	}
	for _, sd := range n.ifc.states {
		def, _ := sd.def.Node.ConstValue()
		p.States = append(p.States, StateEntry{Name: n.name + "/" + sd.name, Sym: n.stateVars[sd.name], Init: def})
	}
	p.Residuals = append(p.Residuals, n.residuals...)
	for _, prop := range n.ifc.props {
		p.Props = append(p.Props, NamedQuantity{Name: n.name + "/" + prop, Q: n.props[prop]})
	}
	for _, child := range n.children {
		if err := p.collect(child); err != nil {
			return err
		}
	}
	return nil
}

// collectFrameProps flattens a material frame's published property
// table into the problem's named property list.
func (p *Problem) collectFrameProps(mat *material.Material) {
	props := mat.Frame.Props
	names := props.ScalarNames()
	sortStrings(names)
	for _, name := range names {
		if name[0] == '_' {
			continue
		}
		q, _ := props.Scalar(name)
		p.Props = append(p.Props, NamedQuantity{Name: mat.Name + "/" + name, Q: q})
	}
	dictNames := props.DictNames()
	sortStrings(dictNames)
	for _, name := range dictNames {
		if name[0] == '_' {
			continue
		}
		d, _ := props.Dict(name)
		for _, key := range d.Keys() {
			p.Props = append(p.Props, NamedQuantity{Name: mat.Name + "/" + name + "/" + key, Q: d[key]})
		}
	}
}

func stateEntryName(mat *material.Material, i int) string {
	species := mat.Definition.Species
	switch {
	case i == 0:
		return mat.Name + "/T"
	case i == 1:
		if mat.Definition.Structure.StateName == "HelmholtzState" {
			return mat.Name + "/V"
		}
		return mat.Name + "/p"
	default:
		return mat.Name + "/n/" + species[i-2]
	}
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// Relax runs every material frame's relax chain against the freshly
// stepped global state, each over its own slice.
func (p *Problem) Relax(x []float64) error {
	for _, slot := range p.Slots {
		if err := slot.Mat.Frame.Relax(x[slot.Offset : slot.Offset+slot.Size]); err != nil {
			return err
		}
	}
	return nil
}
