// Copyright 2025 The Goflyde Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package errors provides a standard error definition for use in
// goflyde. Each error is assigned a class of error (kind) and an
// operation with optional arguments. Errors may be chained, and thus
// can be used to annotate upstream errors.
//
// Package errors provides functions Errorf and New as convenience
// constructors, so that users need import only one error package.
//
// The API was inspired by package upspin.io/errors.
package errors

import (
	"bytes"
	"context"
	goerrors "errors"
	"fmt"
	"os"
)

// Separator is inserted between chained errors while rendering.
// The default value (":\n\t") is intended for interactive tools. A
// server can set this to a different value to be more log friendly.
var Separator = ":\n\t"

// Kind denotes the type of the error. The error's kind is used to
// render the error message and also for interpretation.
type Kind int

const (
	// Other denotes an unknown error.
	Other Kind = iota
	// Canceled denotes a cancellation error.
	Canceled
	// Load denotes an error loading a flow declaration: a malformed
	// document, an unresolved import, an unknown node id, or a cyclic
	// import.
	Load
	// Validation denotes a graph validation error: a required input
	// without an upstream connection or a static default.
	Validation
	// Connection denotes a connection referencing an unknown instance
	// or pin.
	Connection
	// Worker denotes an error escaping a node's process body.
	Worker
	// Delivery denotes a send to a fully closed output.
	Delivery
	// NotExist denotes an error originating from a nonexistent resource.
	NotExist
	// Invalid indicates an invalid state or data.
	Invalid
	// Fatal denotes an unrecoverable error.
	Fatal

	maxKind
)

// String renders a human-readable description of kind k.
func (k Kind) String() string {
	switch k {
	default:
		return "unknown error"
	case Canceled:
		return "canceled"
	case Load:
		return "flow load error"
	case Validation:
		return "graph validation error"
	case Connection:
		return "connection error"
	case Worker:
		return "worker error"
	case Delivery:
		return "delivery error"
	case NotExist:
		return "resource does not exist"
	case Invalid:
		return "invalid"
	case Fatal:
		return "fatal"
	}
}

// Error defines a goflyde error. It is used to indicate an error
// associated with an operation (and arguments), and may wrap another
// error.
//
// Errors should be constructed by errors.E.
type Error struct {
	// Kind is the error's type.
	Kind Kind
	// Op is a one-word description of the operation that errored.
	Op string
	// Arg is an (optional) list of arguments to the operation.
	Arg []string
	// Err is this error's underlying error: this error is caused
	// by Err.
	Err error
}

// E is used to construct errors. E constructs errors from a set of
// arguments; each of which must be one of the following types:
//
//	string
//		The first string argument is taken as the error's Op; subsequent
//		arguments are taken as the error's Arg.
//	Kind
//		Taken as the error's Kind.
//	error
//		Taken as the error's underlying error.
//
// If a Kind is not provided and an underlying error is, E inherits
// the Kind from an underlying *Error, or else interprets the
// underlying error: context.Canceled becomes Canceled and
// os.IsNotExist errors become NotExist.
func E(args ...interface{}) error {
	if len(args) == 0 {
		panic("no args")
	}
	e := new(Error)
	for _, arg := range args {
		switch arg := arg.(type) {
		case string:
			if e.Op == "" {
				e.Op = arg
			} else {
				e.Arg = append(e.Arg, arg)
			}
		case Kind:
			e.Kind = arg
		case *Error:
			copy := *arg
			e.Err = &copy
		case error:
			e.Err = arg
		default:
			return Errorf("unknown type %T, value %v in error call", arg, arg)
		}
	}
	if e.Err == nil {
		return e
	}
	switch prev := e.Err.(type) {
	case *Error:
		if prev.Kind == e.Kind {
			e.Kind = prev.Kind
			prev.Kind = Other
		} else if e.Kind == Other {
			e.Kind = prev.Kind
			prev.Kind = Other
		}
		if prev.Op == "" && prev.Kind == Other {
			e.Err = prev.Err
		}
	default:
		if e.Kind != Other {
			break
		}
		switch {
		case e.Err == context.Canceled:
			e.Kind = Canceled
		case os.IsNotExist(e.Err):
			e.Kind = NotExist
		}
	}
	return e
}

func pad(b *bytes.Buffer, s string) {
	if b.Len() == 0 {
		return
	}
	b.WriteString(s)
}

// Error renders this error and its chain of underlying errors,
// separated by Separator.
func (e *Error) Error() string {
	return e.ErrorSeparator(Separator)
}

// ErrorSeparator renders this error and its chain of underlying
// errors, separated by sep.
func (e *Error) ErrorSeparator(sep string) string {
	b := new(bytes.Buffer)
	if e.Op != "" {
		b.WriteString(e.Op)
	}
	for _, arg := range e.Arg {
		pad(b, " ")
		b.WriteString(arg)
	}
	if e.Kind != Other {
		pad(b, sep)
		b.WriteString(e.Kind.String())
	}
	if e.Err != nil {
		pad(b, sep)
		if err, ok := e.Err.(*Error); ok {
			b.WriteString(err.ErrorSeparator(sep))
		} else {
			b.WriteString(e.Err.Error())
		}
	}
	if b.Len() == 0 {
		return "no error"
	}
	return b.String()
}

// Recover recovers any error into an *Error. If the passed-in err is
// already an *Error, it is simply returned; otherwise it is wrapped
// in one.
func Recover(err error) *Error {
	if err == nil {
		return nil
	}
	if err, ok := err.(*Error); ok {
		return err
	}
	return &Error{Err: err}
}

// Match tells whether every nonempty field in err1 matches the
// corresponding fields in err2. The comparison recurs on chained
// errors. Match is designed to aid in testing errors.
func Match(err1 interface{}, err2 error) bool {
	var e1 *Error
	switch arg := err1.(type) {
	case *Error:
		e1 = arg
	case Kind:
		e1 = &Error{Kind: arg}
	case string:
		e1 = &Error{Op: arg}
	default:
		return false
	}
	e2 := Recover(err2)
	if e2 == nil {
		return false
	}
	if e1.Kind != Other && e1.Kind != e2.Kind {
		return false
	}
	if e1.Op != "" && e1.Op != e2.Op {
		return false
	}
	if len(e1.Arg) > 0 {
		if len(e1.Arg) != len(e2.Arg) {
			return false
		}
		for i := range e1.Arg {
			if e1.Arg[i] != e2.Arg[i] {
				return false
			}
		}
	}
	if e1.Err != nil {
		if e2.Err == nil {
			return false
		}
		if _, ok := e1.Err.(*Error); ok {
			return Match(e1.Err, e2.Err)
		}
		return e1.Err.Error() == e2.Err.Error()
	}
	return true
}

// Is tells whether an error has a provided kind.
func Is(kind Kind, err error) bool {
	if err == nil {
		return false
	}
	if e, ok := err.(*Error); ok {
		if e.Kind != Other {
			return kind == e.Kind
		}
		if e.Err != nil {
			return Is(kind, e.Err)
		}
	}
	return kind == Other
}

// New is synonymous with errors.New, and is provided here so that
// users need only import one errors package.
func New(msg string) error {
	return goerrors.New(msg)
}

// Errorf is synonymous with fmt.Errorf, and is provided here so that
// users need only import one errors package.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
