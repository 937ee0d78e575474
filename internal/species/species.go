// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package species implements the species/formula layer: element
// counts, molecular weight and charge derived from a chemical formula,
// feeding the GenericProperties and Elemental frame augmenters. A
// formula such as "Ca(OH)2" or "CH3-CH2-OH" is parsed by a small
// recursive-descent scanner over element tokens, grouping parentheses,
// hyphen separators and integer multipliers.
package species

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/cpmech/gosl/chk"

	"github.com/VolkerSiep/SigmaMu/internal/quantity"
	"github.com/VolkerSiep/SigmaMu/internal/unit"
)

// Species is a named chemical formula together with the properties a
// formula parse derives from it.
type Species struct {
	Name            string
	Formula         string
	ElementCounts   map[string]int
	MolecularWeight quantity.Quantity
	Charge          int
}

// Parse builds a Species from name and formula, deriving element counts,
// molecular weight (via the standard atomic weight table) and charge.
func Parse(reg *unit.Registry, name, formula string) (*Species, error) {
	body, charge, err := stripCharge(formula)
	if err != nil {
		return nil, err
	}
	p := &parser{s: []rune(body)}
	counts, err := p.parseGroup()
	if err != nil {
		return nil, chk.Err("species: formula %q: %v", formula, err)
	}
	if p.i != len(p.s) {
		return nil, chk.Err("species: formula %q: unmatched ')' at position %d", formula, p.i)
	}

	mass := 0.0
	for el, n := range counts {
		w, ok := atomicWeight[el]
		if !ok {
			return nil, chk.Err("species: formula %q: unknown element symbol %q", formula, el)
		}
		mass += w * float64(n)
	}
	gPerMol, ok := reg.Lookup("g/mol")
	if !ok {
		return nil, chk.Err("species: unit registry has no g/mol entry")
	}

	return &Species{
		Name:            name,
		Formula:         formula,
		ElementCounts:   counts,
		MolecularWeight: quantity.FromFloat(gPerMol.ToSI(mass), gPerMol),
		Charge:          charge,
	}, nil
}

// stripCharge removes a trailing charge marker ("+", "-", "2+", "3-",
// optionally preceded by a caret) and returns the stripped formula body
// and the signed charge magnitude.
func stripCharge(formula string) (string, int, error) {
	f := strings.TrimSpace(formula)
	if f == "" {
		return f, 0, chk.Err("species: empty formula")
	}
	last := f[len(f)-1]
	if last != '+' && last != '-' {
		return f, 0, nil
	}
	sign := 1
	if last == '-' {
		sign = -1
	}
	j := len(f) - 1
	for j > 0 && unicode.IsDigit(rune(f[j-1])) {
		j--
	}
	mag := 1
	if numStr := f[j : len(f)-1]; numStr != "" {
		n, err := strconv.Atoi(numStr)
		if err != nil {
			return "", 0, chk.Err("species: bad charge magnitude in %q", formula)
		}
		mag = n
	}
	body := strings.TrimSuffix(f[:j], "^")
	return body, sign * mag, nil
}

type parser struct {
	s []rune
	i int
}

// parseGroup consumes element tokens, nested parenthesised groups and
// hyphen separators until it hits ')' or the end of input.
func (p *parser) parseGroup() (map[string]int, error) {
	counts := map[string]int{}
	for p.i < len(p.s) {
		c := p.s[p.i]
		switch {
		case c == ')':
			return counts, nil
		case c == '(':
			p.i++
			inner, err := p.parseGroup()
			if err != nil {
				return nil, err
			}
			if p.i >= len(p.s) || p.s[p.i] != ')' {
				return nil, chk.Err("unmatched '('")
			}
			p.i++
			mult := p.parseInt(1)
			for el, n := range inner {
				counts[el] += n * mult
			}
		case c == '-':
			p.i++ // hyphen: fragment separator, no grouping effect
		case unicode.IsUpper(c):
			el := p.parseSymbol()
			mult := p.parseInt(1)
			counts[el] += mult
		default:
			return nil, chk.Err("unexpected character %q", c)
		}
	}
	return counts, nil
}

func (p *parser) parseSymbol() string {
	start := p.i
	p.i++
	for p.i < len(p.s) && unicode.IsLower(p.s[p.i]) {
		p.i++
	}
	return string(p.s[start:p.i])
}

func (p *parser) parseInt(def int) int {
	start := p.i
	for p.i < len(p.s) && unicode.IsDigit(p.s[p.i]) {
		p.i++
	}
	if p.i == start {
		return def
	}
	n, _ := strconv.Atoi(string(p.s[start:p.i]))
	return n
}
