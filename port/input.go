// Copyright 2025 The Goflyde Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package port

import (
	"sync"
	"sync/atomic"

	"github.com/trustmaster/goflyde/values"
)

// An Input is a consuming endpoint on a node. Its mode determines
// how Get produces values: queue inputs consume one buffered item
// per call, sticky inputs latch the last received value, and static
// inputs return a fixed configured value.
//
// The reference count tracks upstream producers that are still live.
// Each producer bound at wiring time increments it; every EOS
// dequeued decrements it. A queue input returns EOS to its caller
// only once the count reaches zero, so fan-in drains all upstreams
// before the node observes end of stream.
//
// Get must be called from the single worker that owns the node.
type Input struct {
	id          string
	description string
	typeName    string
	mode        InputMode
	required    Requiredness

	value    values.T
	hasValue bool

	qinit sync.Once
	q     *Queue

	rc        int32
	connected int32
}

// NewInput returns a queue-mode, required input with the given pin
// id. The declaration helpers (AsSticky, AsStatic, WithDefault,
// AsOptional, IfConnected, WithType) adjust the new input and return
// it for chaining.
func NewInput(id, description string) *Input {
	return &Input{id: id, description: description}
}

// AsSticky puts the input in sticky mode.
func (in *Input) AsSticky() *Input {
	in.mode = ModeSticky
	return in
}

// AsStatic puts the input in static mode with the given value.
func (in *Input) AsStatic(v values.T) *Input {
	in.mode = ModeStatic
	in.value = v
	in.hasValue = true
	return in
}

// WithDefault sets the input's default value, returned by sticky
// inputs before any item arrives.
func (in *Input) WithDefault(v values.T) *Input {
	in.value = v
	in.hasValue = true
	return in
}

// WithType records the declared payload type name. The runtime does
// not enforce it; it is editor-facing metadata.
func (in *Input) WithType(name string) *Input {
	in.typeName = name
	return in
}

// AsOptional marks the input optional.
func (in *Input) AsOptional() *Input {
	in.required = Optional
	return in
}

// IfConnected marks the input required-if-connected.
func (in *Input) IfConnected() *Input {
	in.required = RequiredIfConnected
	return in
}

// SetMode overrides the input's mode. It is used by the loader when
// a declaration's inputConfig reconfigures a pin.
func (in *Input) SetMode(m InputMode) {
	in.mode = m
}

// SetValue replaces the input's configured value.
func (in *Input) SetValue(v values.T) {
	in.value = v
	in.hasValue = true
}

// ID returns the pin id.
func (in *Input) ID() string { return in.id }

// Description returns the pin description.
func (in *Input) Description() string { return in.description }

// TypeName returns the declared payload type name, if any.
func (in *Input) TypeName() string { return in.typeName }

// Mode returns the input's mode.
func (in *Input) Mode() InputMode { return in.mode }

// Required returns the input's requiredness.
func (in *Input) Required() Requiredness { return in.required }

// HasDefault tells whether a default or static value is configured.
func (in *Input) HasDefault() bool { return in.hasValue }

// Queue returns the input's internal queue, creating it on first
// use. Static inputs have no queue; Queue panics for them.
func (in *Input) Queue() *Queue {
	if in.mode == ModeStatic {
		panic("static input " + in.id + " has no queue")
	}
	in.qinit.Do(func() {
		in.q = NewQueue(DefaultDepth)
	})
	return in.q
}

// Sink returns the sender upstream outputs push into.
func (in *Input) Sink() Sender {
	return in.Queue()
}

// IncRefCount registers one more live upstream producer. It is
// called by graph wiring code once per bound output.
func (in *Input) IncRefCount() {
	atomic.AddInt32(&in.rc, 1)
	atomic.StoreInt32(&in.connected, 1)
}

// DecRefCount deregisters a live upstream producer and returns the
// remaining count.
func (in *Input) DecRefCount() int {
	return int(atomic.AddInt32(&in.rc, -1))
}

// RefCount returns the number of live upstream producers.
func (in *Input) RefCount() int {
	return int(atomic.LoadInt32(&in.rc))
}

// Connected tells whether the input was ever bound to an upstream
// output. The flag is not reset when producers finish, so the
// pull-loop's notion of which pins are bound is stable for the
// duration of a run.
func (in *Input) Connected() bool {
	return atomic.LoadInt32(&in.connected) != 0
}

// Get returns the input's next value.
//
// Queue inputs block until an item is available and return exactly
// one item per call, in FIFO order. A dequeued EOS decrements the
// reference count: while producers remain the read is retried, and
// once the count reaches zero EOS is returned to the caller.
//
// Sticky inputs return the latched value. The first call blocks if
// no item has arrived and no default was configured; afterwards Get
// consumes at most one pending item per call and never blocks. EOS
// is absorbed: a primed sticky input keeps returning its latch.
//
// Static inputs return the configured value unchanged on every call.
func (in *Input) Get() values.T {
	switch in.mode {
	case ModeStatic:
		return in.value
	case ModeSticky:
		for {
			if in.hasValue && in.Queue().Empty() {
				return in.value
			}
			v := in.Queue().Get()
			if IsEOS(v) {
				if in.DecRefCount() <= 0 && !in.hasValue {
					return EOS
				}
				if in.hasValue {
					return in.value
				}
				continue
			}
			in.value, in.hasValue = v, true
			return in.value
		}
	default:
		for {
			v := in.Queue().Get()
			if !IsEOS(v) {
				return v
			}
			if in.DecRefCount() > 0 {
				continue
			}
			return EOS
		}
	}
}

// Empty tells whether a Get would find nothing: an empty queue for
// queue inputs, no value for sticky and static inputs.
func (in *Input) Empty() bool {
	if in.mode == ModeQueue {
		return in.Queue().Empty()
	}
	return !in.hasValue
}

// Count returns the number of buffered items.
func (in *Input) Count() int {
	if in.mode == ModeQueue {
		return in.Queue().Len()
	}
	if in.hasValue {
		return 1
	}
	return 0
}

// Terminate unblocks a pending Get by injecting EOS directly into
// the input's queue. It is the forceful escape hatch; cooperative
// stop does not use it.
func (in *Input) Terminate() {
	if in.mode == ModeStatic {
		return
	}
	in.Queue().TryPut(EOS)
}
