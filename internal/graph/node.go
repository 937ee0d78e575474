// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package graph implements the symbolic expression DAG and its
// reverse-mode differentiation: the scalar nodes that back every
// Quantity (internal/quantity), built bottom-up so no cycle can ever
// occur, and compiled down to a flat evaluator plus a compressed sparse
// column Jacobian for the solver (internal/solver) to consume.
package graph

import (
	"math"

	"github.com/VolkerSiep/SigmaMu/internal/sigmaerr"
)

// op identifies a primitive operation. Every node other than a constant
// or a symbol carries one.
type op int

const (
	opConst op = iota
	opSymbol
	opAdd
	opSub
	opMul
	opDiv
	opPow
	opLog
	opExp
	opSqrt
	opSq
	opCos
	opAcos
	opCond
)

// Node is one scalar in the expression DAG. Leaves are opConst or
// opSymbol; every other node names its operands in args. Nodes are
// immutable once built.
type Node struct {
	op    op
	value float64 // opConst literal
	name  string  // opSymbol base name
	index int     // opSymbol position within its vector
	size  int     // opSymbol: total length of the vector it was allocated from
	args  []*Node
}

// Const allocates a literal leaf.
func Const(v float64) *Node {
	return &Node{op: opConst, value: v}
}

// Zero and One are the two literals used constantly enough to deserve
// their own names.
var (
	Zero = Const(0)
	One  = Const(1)
)

// IsSymbol reports whether n is a bare symbol leaf (used by the model
// layer to recognise state-vector entries).
func (n *Node) IsSymbol() bool { return n.op == opSymbol }

// ConstValue returns the literal value of a constant leaf and true, or
// (0, false) if n is not a constant -- used where a caller builds a
// value that is guaranteed constant by construction (e.g. a molecular
// weight computed from literal atomic weights) and wants it back as a
// plain float64 without a full Compile/Eval round trip.
func (n *Node) ConstValue() (float64, bool) {
	if n.op != opConst {
		return 0, false
	}
	return n.value, true
}

// SymbolName returns the base name and index of a symbol leaf; it panics
// if n is not a symbol, mirroring the DAG's "structural cycles never
// occur" invariant -- callers are expected to have checked IsSymbol.
func (n *Node) SymbolName() (string, int) {
	if n.op != opSymbol {
		panic("graph: SymbolName called on a non-symbol node")
	}
	return n.name, n.index
}

// Add builds n + m.
func (n *Node) Add(m *Node) *Node {
	if n.op == opConst && m.op == opConst {
		return Const(n.value + m.value)
	}
	return &Node{op: opAdd, args: []*Node{n, m}}
}

// Sub builds n - m.
func (n *Node) Sub(m *Node) *Node {
	if n.op == opConst && m.op == opConst {
		return Const(n.value - m.value)
	}
	return &Node{op: opSub, args: []*Node{n, m}}
}

// Mul builds n * m.
func (n *Node) Mul(m *Node) *Node {
	if n.op == opConst && m.op == opConst {
		return Const(n.value * m.value)
	}
	return &Node{op: opMul, args: []*Node{n, m}}
}

// Div builds n / m. Division by a literal zero fails at construction
// time with NumericBuild.
func (n *Node) Div(m *Node) (*Node, error) {
	if m.op == opConst && m.value == 0 {
		return nil, sigmaerr.New(sigmaerr.NumericBuild, "", "division by literal zero")
	}
	if n.op == opConst && m.op == opConst {
		return Const(n.value / m.value), nil
	}
	return &Node{op: opDiv, args: []*Node{n, m}}, nil
}

// Pow builds n^m.
func (n *Node) Pow(m *Node) *Node {
	if n.op == opConst && m.op == opConst {
		return Const(math.Pow(n.value, m.value))
	}
	return &Node{op: opPow, args: []*Node{n, m}}
}

// Log builds ln(n).
func (n *Node) Log() *Node {
	if n.op == opConst {
		return Const(math.Log(n.value))
	}
	return &Node{op: opLog, args: []*Node{n}}
}

// Exp builds exp(n).
func (n *Node) Exp() *Node {
	if n.op == opConst {
		return Const(math.Exp(n.value))
	}
	return &Node{op: opExp, args: []*Node{n}}
}

// Sqrt builds sqrt(n).
func (n *Node) Sqrt() *Node {
	if n.op == opConst {
		return Const(math.Sqrt(n.value))
	}
	return &Node{op: opSqrt, args: []*Node{n}}
}

// Sq builds n^2, kept distinct from Pow(Const(2)) so the adjoint is a
// single multiply rather than a pow-rule evaluation.
func (n *Node) Sq() *Node {
	if n.op == opConst {
		return Const(n.value * n.value)
	}
	return &Node{op: opSq, args: []*Node{n}}
}

// Cos builds cos(n). It exists for the trigonometric solution of the
// cubic equation of state (three-real-root branch); it is not part of
// the Quantity-level operator table.
func (n *Node) Cos() *Node {
	if n.op == opConst {
		return Const(math.Cos(n.value))
	}
	return &Node{op: opCos, args: []*Node{n}}
}

// Acos builds arccos(n); see Cos.
func (n *Node) Acos() *Node {
	if n.op == opConst {
		return Const(math.Acos(n.value))
	}
	return &Node{op: opAcos, args: []*Node{n}}
}

// Cond builds a value that selects a when cond > 0, b otherwise -- the
// graph's only branch, used by e.g. the Boston-Mathias alpha function's
// sub/super-critical split.
func Cond(cond, a, b *Node) *Node {
	if cond.op == opConst {
		if cond.value > 0 {
			return a
		}
		return b
	}
	return &Node{op: opCond, args: []*Node{cond, a, b}}
}

// Neg builds -n.
func (n *Node) Neg() *Node {
	return Zero.Sub(n)
}
