// Copyright 2025 The Goflyde Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package port

import (
	"sync"

	"github.com/grailbio/base/sync/once"

	"github.com/trustmaster/goflyde/log"
	"github.com/trustmaster/goflyde/values"
)

// An Output is a producing endpoint on a node. Consumer queues are
// bound with Connect before the flow runs; Send then dispatches each
// value according to the output's fan-out mode. When the owning node
// finishes it calls Close, which emits EOS to every consumer exactly
// once.
type Output struct {
	id          string
	description string
	typeName    string
	mode        OutputMode

	// Delayed is editor-facing metadata preserved on round-trip; it
	// has no runtime effect.
	Delayed bool

	mu        sync.Mutex
	consumers []Sender
	circle    int
	closed    bool
	closeOnce once.Task

	Log *log.Logger
}

// NewOutput returns a ref-mode output with the given pin id.
func NewOutput(id, description string) *Output {
	return &Output{id: id, description: description}
}

// WithMode sets the output's fan-out mode and returns the output for
// chaining.
func (o *Output) WithMode(m OutputMode) *Output {
	o.mode = m
	return o
}

// WithType records the declared payload type name.
func (o *Output) WithType(name string) *Output {
	o.typeName = name
	return o
}

// ID returns the pin id.
func (o *Output) ID() string { return o.id }

// Description returns the pin description.
func (o *Output) Description() string { return o.description }

// TypeName returns the declared payload type name, if any.
func (o *Output) TypeName() string { return o.typeName }

// Mode returns the output's fan-out mode.
func (o *Output) Mode() OutputMode { return o.mode }

// Connect binds a consumer to the output. It may be called multiple
// times to fan the output out to multiple consumers, and must be
// called before Send.
func (o *Output) Connect(s Sender) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.consumers = append(o.consumers, s)
}

// Connected tells whether any consumer is bound.
func (o *Output) Connected() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.consumers) > 0
}

// Send dispatches v to the output's consumers according to its
// fan-out mode. An output with no consumers drops the value
// silently. Sending on a closed output is a program error: it is
// logged and the value is dropped.
func (o *Output) Send(v values.T) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		o.logger().Errorf("output %s: send on closed output dropped", o.id)
		return
	}
	if len(o.consumers) == 0 {
		return
	}
	if len(o.consumers) == 1 {
		o.consumers[0].Put(v)
		return
	}
	switch o.mode {
	case ModeCircle:
		o.consumers[o.circle].Put(v)
		o.circle = (o.circle + 1) % len(o.consumers)
	case ModeValue:
		// The first consumer receives the original; the rest receive
		// deep copies so no two consumers share mutable state.
		for i, c := range o.consumers {
			if i == 0 {
				c.Put(v)
			} else {
				c.Put(values.Copy(v))
			}
		}
	default:
		for _, c := range o.consumers {
			c.Put(v)
		}
	}
}

// Close emits EOS to every consumer and marks the output closed.
// Close is idempotent: EOS is emitted only on the first call.
func (o *Output) Close() {
	o.closeOnce.Do(func() error {
		o.mu.Lock()
		o.closed = true
		consumers := make([]Sender, len(o.consumers))
		copy(consumers, o.consumers)
		o.mu.Unlock()
		for _, c := range consumers {
			c.Put(EOS)
		}
		return nil
	})
}

// Closed tells whether the output was closed.
func (o *Output) Closed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

func (o *Output) logger() *log.Logger {
	if o.Log != nil {
		return o.Log
	}
	return log.Std
}
