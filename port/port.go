// Copyright 2025 The Goflyde Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package port implements the endpoints through which nodes in a
// flow exchange payloads. An Input is a consuming endpoint with one
// of three modes (queue, sticky, static); an Output is a producing
// endpoint with one of three fan-out modes (ref, value, circle); a
// GraphPort splices the inside of a subgraph to its outside. Ports
// are connected by bounded queues, which are the only state shared
// between two workers.
package port

import (
	"github.com/trustmaster/goflyde/values"
)

// DefaultDepth is the capacity of connection queues created without
// an explicit depth. The bound is finite so that a fast producer is
// subject to backpressure rather than exhausting memory.
var DefaultDepth = 1024

type eos struct{}

func (*eos) String() string { return "EOS" }

// EOS is the end-of-stream sentinel. It is carried on data queues to
// announce that an upstream endpoint will emit no further items. EOS
// is a process-wide singleton and is identified by reference
// equality; use IsEOS to test for it.
var EOS values.T = new(eos)

// IsEOS tells whether v is the end-of-stream sentinel.
func IsEOS(v values.T) bool {
	return v == EOS
}

// InputMode defines how an input produces values to its node.
type InputMode int

const (
	// ModeQueue inputs consume exactly one queued item per Get,
	// blocking while the queue is empty.
	ModeQueue InputMode = iota
	// ModeSticky inputs latch the last received value and return it
	// between arrivals. Once primed, a sticky input never blocks.
	ModeSticky
	// ModeStatic inputs return a fixed configured value and are never
	// connected to a queue.
	ModeStatic
)

// String renders the declaration form of mode m.
func (m InputMode) String() string {
	switch m {
	case ModeSticky:
		return "sticky"
	case ModeStatic:
		return "static"
	default:
		return "queue"
	}
}

// ParseInputMode parses the declaration form of an input mode.
func ParseInputMode(s string) (InputMode, bool) {
	switch s {
	case "queue":
		return ModeQueue, true
	case "sticky":
		return ModeSticky, true
	case "static":
		return ModeStatic, true
	}
	return ModeQueue, false
}

// Requiredness tells whether an input must be satisfied for its node
// to run.
type Requiredness int

const (
	// Required inputs must be connected or carry a static default.
	Required Requiredness = iota
	// Optional inputs may be left unconnected.
	Optional
	// RequiredIfConnected inputs are pulled like required inputs when
	// bound to an upstream, and ignored otherwise.
	RequiredIfConnected
)

// String renders the declaration form of requiredness r.
func (r Requiredness) String() string {
	switch r {
	case Optional:
		return "optional"
	case RequiredIfConnected:
		return "required-if-connected"
	default:
		return "required"
	}
}

// OutputMode defines the behavior of an output that is connected to
// multiple input queues.
type OutputMode int

const (
	// ModeRef outputs enqueue the same value to every consumer.
	ModeRef OutputMode = iota
	// ModeValue outputs enqueue a deep copy per additional consumer,
	// so that no two consumers share mutable state.
	ModeValue
	// ModeCircle outputs deliver each value to one consumer in
	// round-robin order.
	ModeCircle
)

// String renders the declaration form of mode m.
func (m OutputMode) String() string {
	switch m {
	case ModeValue:
		return "value"
	case ModeCircle:
		return "circle"
	default:
		return "ref"
	}
}

// ParseOutputMode parses the declaration form of an output mode.
func ParseOutputMode(s string) (OutputMode, bool) {
	switch s {
	case "ref":
		return ModeRef, true
	case "value":
		return ModeValue, true
	case "circle":
		return ModeCircle, true
	}
	return ModeRef, false
}

// A Sender accepts values pushed by an output. *Queue implements
// Sender; GraphPorts substitute a splice that re-emits on their
// inner side.
type Sender interface {
	Put(v values.T)
}

// An InPort is the consuming end of a connection: a plain Input or
// the outer face of a GraphPort. The graph wiring code binds the
// port's sink to the upstream output and registers the upstream as a
// live producer.
type InPort interface {
	ID() string
	Sink() Sender
	IncRefCount()
	Required() Requiredness
	Connected() bool
	HasDefault() bool
}

// An OutPort is the producing end of a connection: a plain Output or
// the inner face of a GraphPort.
type OutPort interface {
	ID() string
	Connect(s Sender)
	Close()
}
