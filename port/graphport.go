// Copyright 2025 The Goflyde Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package port

import (
	"sync/atomic"

	"github.com/trustmaster/goflyde/values"
)

// A GraphPort is the interface between the inside and the outside of
// a graph. A graph input is an Input to the outside world but emits
// values inside the graph; a graph output receives values from
// inside the graph and is an Output to the outside. Both directions
// are the same splice: values put on the consuming face are re-sent
// on the producing face.
//
// The port counts live producers on its consuming face. Each EOS
// received decrements the count; when it reaches zero the producing
// face is closed, so end of stream crosses the graph boundary
// exactly once.
type GraphPort struct {
	id          string
	description string
	required    Requiredness

	rc        int32
	connected int32

	out *Output
}

// NewGraphPort returns a graph port with the given pin id. The
// producing face defaults to ref fan-out.
func NewGraphPort(id, description string) *GraphPort {
	return &GraphPort{
		id:          id,
		description: description,
		out:         NewOutput(id, description),
	}
}

// WithMode sets the fan-out mode of the producing face.
func (g *GraphPort) WithMode(m OutputMode) *GraphPort {
	g.out.WithMode(m)
	return g
}

// AsOptional marks the consuming face optional.
func (g *GraphPort) AsOptional() *GraphPort {
	g.required = Optional
	return g
}

// ID returns the pin id.
func (g *GraphPort) ID() string { return g.id }

// Description returns the pin description.
func (g *GraphPort) Description() string { return g.description }

// Required returns the consuming face's requiredness.
func (g *GraphPort) Required() Requiredness { return g.required }

// HasDefault reports false: graph ports carry no configured value.
func (g *GraphPort) HasDefault() bool { return false }

// Sink returns the sender producers push into. Values are re-sent on
// the producing face; EOS decrements the producer count and closes
// the producing face when it reaches zero.
func (g *GraphPort) Sink() Sender {
	return splice{g}
}

// IncRefCount registers one more live producer on the consuming
// face.
func (g *GraphPort) IncRefCount() {
	atomic.AddInt32(&g.rc, 1)
	atomic.StoreInt32(&g.connected, 1)
}

// Connected tells whether the consuming face was ever bound.
func (g *GraphPort) Connected() bool {
	return atomic.LoadInt32(&g.connected) != 0
}

// Connect binds a consumer to the producing face.
func (g *GraphPort) Connect(s Sender) {
	g.out.Connect(s)
}

// Close closes the producing face, emitting EOS to every consumer
// once.
func (g *GraphPort) Close() {
	g.out.Close()
}

// Out returns the producing face. It is exposed so tests and
// embedding flows can observe fan-out state.
func (g *GraphPort) Out() *Output {
	return g.out
}

// splice is the write-only queue stand-in that re-drives values put
// on a graph port's consuming face out through its producing face.
type splice struct {
	g *GraphPort
}

func (s splice) Put(v values.T) {
	if IsEOS(v) {
		if int(atomic.AddInt32(&s.g.rc, -1)) <= 0 {
			s.g.out.Close()
		}
		return
	}
	s.g.out.Send(v)
}
