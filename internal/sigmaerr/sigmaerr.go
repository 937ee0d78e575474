// Copyright 2016 The SigmaMu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sigmaerr implements the engine's error taxonomy as a single
// typed error carrying a category, so callers discriminate failures
// structurally instead of grepping formatted messages.
package sigmaerr

import (
	"errors"
	"fmt"

	"github.com/cpmech/gosl/io"
)

// Category names a failure class from the taxonomy.
type Category string

const (
	DimensionMismatch           Category = "DimensionMismatch"
	UndeclaredProperty          Category = "UndeclaredProperty"
	MissingRequirement          Category = "MissingRequirement"
	DataFlowError               Category = "DataFlowError"
	MissingParameter            Category = "MissingParameter"
	NonSquareSystem             Category = "NonSquareSystem"
	SingularJacobian            Category = "SingularJacobian"
	IterativeProcessFailed      Category = "IterativeProcessFailed"
	IterativeProcessInterrupted Category = "IterativeProcessInterrupted"
	NumericBreak                Category = "NumericBreak"
	NumericBuild                Category = "NumericBuild"
	MissingSymbol                Category = "MissingSymbol"
)

// Error is the concrete error type for every category above. Path is the
// qualified model/contribution name that triggered the failure, when one
// is known; assembly-time errors always carry it, solver-time errors may
// leave it empty.
type Error struct {
	Category Category
	Path     string
	Detail   string
}

func (e *Error) Error() string {
	if e.Path == "" {
		return io.Sf("%s: %s", e.Category, e.Detail)
	}
	return io.Sf("%s at %q: %s", e.Category, e.Path, e.Detail)
}

// New builds a categorized error with a formatted detail message.
func New(cat Category, path, format string, args ...interface{}) *Error {
	return &Error{Category: cat, Path: path, Detail: fmt.Sprintf(format, args...)}
}

// Is reports whether err (or any error it wraps) belongs to cat.
func Is(err error, cat Category) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Category == cat
}
