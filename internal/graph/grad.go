// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

import "math"

// Grad builds the derivative expressions of expr with respect to each of
// the given symbol leaves, as new nodes in the same DAG. This is the
// symbolic counterpart of Program.EvalJacobian: the thermo layer uses it
// to derive mu_i, S and p as exact partial derivatives of a canonical
// state function expression, so the resulting properties are themselves
// differentiable again when the solver asks for the residual Jacobian.
func Grad(expr *Node, wrt []*Node) []*Node {
	// reverse topological order of everything reachable from expr
	var order []*Node
	visited := map[*Node]bool{}
	var visit func(n *Node)
	visit = func(n *Node) {
		if visited[n] {
			return
		}
		visited[n] = true
		for _, a := range n.args {
			visit(a)
		}
		order = append(order, n)
	}
	visit(expr)

	adj := map[*Node]*Node{expr: One}
	acc := func(n, d *Node) {
		if cur, ok := adj[n]; ok {
			adj[n] = cur.Add(d)
		} else {
			adj[n] = d
		}
	}
	for i := len(order) - 1; i >= 0; i-- {
		n := order[i]
		a, ok := adj[n]
		if !ok {
			continue
		}
		switch n.op {
		case opAdd:
			acc(n.args[0], a)
			acc(n.args[1], a)
		case opSub:
			acc(n.args[0], a)
			acc(n.args[1], a.Neg())
		case opMul:
			acc(n.args[0], a.Mul(n.args[1]))
			acc(n.args[1], a.Mul(n.args[0]))
		case opDiv:
			u, v := n.args[0], n.args[1]
			acc(u, mustDiv(a, v))
			acc(v, mustDiv(a.Mul(u), v.Sq()).Neg())
		case opPow:
			u, e := n.args[0], n.args[1]
			acc(u, a.Mul(e).Mul(u.Pow(e.Sub(One))))
			if e.op != opConst {
				acc(e, a.Mul(n).Mul(u.Log()))
			}
		case opLog:
			acc(n.args[0], mustDiv(a, n.args[0]))
		case opExp:
			acc(n.args[0], a.Mul(n))
		case opSqrt:
			acc(n.args[0], mustDiv(a, n.Mul(Const(2))))
		case opSq:
			acc(n.args[0], a.Mul(Const(2)).Mul(n.args[0]))
		case opCos:
			// sin(u) written as cos(u - pi/2), keeping the op set closed
			acc(n.args[0], a.Mul(n.args[0].Sub(Const(math.Pi/2)).Cos()).Neg())
		case opAcos:
			u := n.args[0]
			acc(u, mustDiv(a, One.Sub(u.Sq()).Sqrt()).Neg())
		case opCond:
			acc(n.args[1], Cond(n.args[0], a, Zero))
			acc(n.args[2], Cond(n.args[0], Zero, a))
		}
	}

	out := make([]*Node, len(wrt))
	for i, s := range wrt {
		if d, ok := adj[s]; ok {
			out[i] = d
		} else {
			out[i] = Zero
		}
	}
	return out
}

// mustDiv is Div for divisors already accepted into the DAG, where the
// literal-zero case cannot recur.
func mustDiv(u, v *Node) *Node {
	n, err := u.Div(v)
	if err != nil {
		panic(err)
	}
	return n
}
