// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

import (
	"math"

	"github.com/cpmech/gosl/la"

	"github.com/VolkerSiep/SigmaMu/internal/sigmaerr"
)

// Program is a compiled callable: a topologically ordered slice of
// every node reachable from outputs, plus the declared input symbols.
type Program struct {
	order      []*Node
	index      map[*Node]int
	inputs     []*Node
	inputIndex map[*Node]int
	outputs    []*Node
}

// Compile builds a Program. Every symbol reachable from outputs must
// appear in inputs, or compilation fails with MissingSymbol.
func Compile(inputs, outputs []*Node) (*Program, error) {
	inputIndex := make(map[*Node]int, len(inputs))
	for i, s := range inputs {
		if !s.IsSymbol() {
			return nil, sigmaerr.New(sigmaerr.NumericBuild, "", "compile: input %d is not a symbol", i)
		}
		inputIndex[s] = i
	}

	var order []*Node
	visited := map[*Node]bool{}
	var visit func(n *Node) error
	visit = func(n *Node) error {
		if visited[n] {
			return nil
		}
		visited[n] = true
		if n.op == opSymbol {
			if _, ok := inputIndex[n]; !ok {
				return sigmaerr.New(sigmaerr.MissingSymbol, "", "symbol %q[%d] is not among the compiled inputs", n.name, n.index)
			}
			order = append(order, n)
			return nil
		}
		for _, a := range n.args {
			if err := visit(a); err != nil {
				return err
			}
		}
		order = append(order, n)
		return nil
	}
	for _, o := range outputs {
		if err := visit(o); err != nil {
			return nil, err
		}
	}

	index := make(map[*Node]int, len(order))
	for i, n := range order {
		index[n] = i
	}
	return &Program{order: order, index: index, inputs: inputs, inputIndex: inputIndex, outputs: outputs}, nil
}

// NumInputs returns the declared input count (the program's column count).
func (p *Program) NumInputs() int { return len(p.inputs) }

// NumOutputs returns the declared output count (the program's row count).
func (p *Program) NumOutputs() int { return len(p.outputs) }

func (p *Program) forward(x []float64) ([]float64, error) {
	vals := make([]float64, len(p.order))
	for i, n := range p.order {
		switch n.op {
		case opConst:
			vals[i] = n.value
		case opSymbol:
			vals[i] = x[p.inputIndex[n]]
		case opAdd:
			vals[i] = vals[p.index[n.args[0]]] + vals[p.index[n.args[1]]]
		case opSub:
			vals[i] = vals[p.index[n.args[0]]] - vals[p.index[n.args[1]]]
		case opMul:
			vals[i] = vals[p.index[n.args[0]]] * vals[p.index[n.args[1]]]
		case opDiv:
			vals[i] = vals[p.index[n.args[0]]] / vals[p.index[n.args[1]]]
		case opPow:
			vals[i] = math.Pow(vals[p.index[n.args[0]]], vals[p.index[n.args[1]]])
		case opLog:
			vals[i] = math.Log(vals[p.index[n.args[0]]])
		case opExp:
			vals[i] = math.Exp(vals[p.index[n.args[0]]])
		case opSqrt:
			vals[i] = math.Sqrt(vals[p.index[n.args[0]]])
		case opSq:
			v := vals[p.index[n.args[0]]]
			vals[i] = v * v
		case opCos:
			vals[i] = math.Cos(vals[p.index[n.args[0]]])
		case opAcos:
			vals[i] = math.Acos(vals[p.index[n.args[0]]])
		case opCond:
			if vals[p.index[n.args[0]]] > 0 {
				vals[i] = vals[p.index[n.args[1]]]
			} else {
				vals[i] = vals[p.index[n.args[2]]]
			}
		}
	}
	return vals, nil
}

// Eval evaluates the outputs at x, without computing a Jacobian. A
// non-finite output fails with NumericBreak; intermediate values are
// not checked, since the dead branch of a conditional (e.g. the unused
// cubic-root formula) may legitimately evaluate non-finite.
func (p *Program) Eval(x []float64) ([]float64, error) {
	vals, err := p.forward(x)
	if err != nil {
		return nil, err
	}
	y := make([]float64, len(p.outputs))
	for i, o := range p.outputs {
		y[i] = vals[p.index[o]]
		if math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			return nil, sigmaerr.New(sigmaerr.NumericBreak, "", "non-finite value in output %d", i)
		}
	}
	return y, nil
}

// EvalJacobian evaluates the outputs and their Jacobian w.r.t. inputs at
// x, via one reverse-mode sweep per output row. The returned Jacobian's
// sparsity pattern reflects actual data dependence: entries
// structurally independent of a given input are never visited, so the
// structure is exact without numerical zero-detection.
func (p *Program) EvalJacobian(x []float64) (y []float64, jac *la.Triplet, err error) {
	return p.EvalJacobianN(x, len(p.inputs))
}

// EvalJacobianN restricts the Jacobian to the first ncols inputs. The
// numeric handler compiles residuals over [states, parameters] and asks
// only for the state columns here, since parameters are constant within
// one solve.
func (p *Program) EvalJacobianN(x []float64, ncols int) (y []float64, jac *la.Triplet, err error) {
	vals, err := p.forward(x)
	if err != nil {
		return nil, nil, err
	}
	y = make([]float64, len(p.outputs))
	for i, o := range p.outputs {
		y[i] = vals[p.index[o]]
		if math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			return nil, nil, sigmaerr.New(sigmaerr.NumericBreak, "", "non-finite value in output %d", i)
		}
	}

	t := new(la.Triplet)
	t.Init(len(p.outputs), ncols, len(p.outputs)*ncols+1)
	t.Start()
	for row, o := range p.outputs {
		adj, reached := p.backward(vals, p.index[o])
		for col := 0; col < ncols; col++ {
			if reached[col] {
				if math.IsNaN(adj[col]) || math.IsInf(adj[col], 0) {
					return nil, nil, sigmaerr.New(sigmaerr.NumericBreak, "", "non-finite Jacobian entry (%d,%d)", row, col)
				}
				t.Put(row, col, adj[col])
			}
		}
	}
	return y, t, nil
}

// backward runs one reverse sweep seeded at node outIdx and returns the
// adjoints read out at every declared input, in input order, together
// with whether each input is structurally reachable from the seed.
func (p *Program) backward(vals []float64, outIdx int) ([]float64, []bool) {
	adj := make([]float64, len(p.order))
	adj[outIdx] = 1
	seen := make([]bool, len(p.order))
	seen[outIdx] = true
	for i := len(p.order) - 1; i >= 0; i-- {
		n := p.order[i]
		if !seen[i] {
			continue
		}
		for _, arg := range n.args {
			seen[p.index[arg]] = true
		}
		a := adj[i]
		if a == 0 {
			continue
		}
		switch n.op {
		case opAdd:
			adj[p.index[n.args[0]]] += a
			adj[p.index[n.args[1]]] += a
		case opSub:
			adj[p.index[n.args[0]]] += a
			adj[p.index[n.args[1]]] -= a
		case opMul:
			adj[p.index[n.args[0]]] += a * vals[p.index[n.args[1]]]
			adj[p.index[n.args[1]]] += a * vals[p.index[n.args[0]]]
		case opDiv:
			u := vals[p.index[n.args[0]]]
			v := vals[p.index[n.args[1]]]
			adj[p.index[n.args[0]]] += a / v
			adj[p.index[n.args[1]]] += -a * u / (v * v)
		case opPow:
			u := vals[p.index[n.args[0]]]
			e := vals[p.index[n.args[1]]]
			adj[p.index[n.args[0]]] += a * e * math.Pow(u, e-1)
			if u > 0 {
				adj[p.index[n.args[1]]] += a * vals[i] * math.Log(u)
			}
		case opLog:
			adj[p.index[n.args[0]]] += a / vals[p.index[n.args[0]]]
		case opExp:
			adj[p.index[n.args[0]]] += a * vals[i]
		case opSqrt:
			adj[p.index[n.args[0]]] += a / (2 * vals[i])
		case opSq:
			adj[p.index[n.args[0]]] += a * 2 * vals[p.index[n.args[0]]]
		case opCos:
			adj[p.index[n.args[0]]] -= a * math.Sin(vals[p.index[n.args[0]]])
		case opAcos:
			u := vals[p.index[n.args[0]]]
			adj[p.index[n.args[0]]] -= a / math.Sqrt(1-u*u)
		case opCond:
			if vals[p.index[n.args[0]]] > 0 {
				adj[p.index[n.args[1]]] += a
			} else {
				adj[p.index[n.args[2]]] += a
			}
		}
	}
	row := make([]float64, len(p.inputs))
	reached := make([]bool, len(p.inputs))
	for i, s := range p.inputs {
		if k, ok := p.index[s]; ok && seen[k] {
			row[i] = adj[k]
			reached[i] = true
		}
	}
	return row, reached
}
