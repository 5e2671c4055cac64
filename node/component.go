// Copyright 2025 The Goflyde Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package node

import (
	"context"
	"sync"

	"gopkg.in/tomb.v2"

	"github.com/trustmaster/goflyde/errors"
	"github.com/trustmaster/goflyde/log"
	"github.com/trustmaster/goflyde/port"
	"github.com/trustmaster/goflyde/values"
)

// A Process is the body of a component. It receives the values
// pulled for one iteration, keyed by input pin id, and returns the
// values to emit:
//
//	values.Map
//		Each entry is sent on the output pin named by its key. To
//		emit a mapping payload itself, wrap it: values.Map{"out": m}.
//	nil
//		Nothing is sent.
//	any other value
//		Sent on the component's single output.
//
// A Process may also emit directly with Component.Send, and may end
// its own stream by calling Component.Stop. A returned error stops
// the component: it is logged, downstream consumers observe EOS, and
// sibling nodes keep running.
type Process func(in values.Map) (values.T, error)

// A Component is a leaf node: a process function surrounded by a
// pull-loop worker. Each iteration pulls one value from every
// blocking required input (in pin declaration order), samples sticky
// and static pins, invokes the process, and forwards its result.
// The worker exits when a required input reaches end of stream, when
// the process errors, or when a stop was requested; on exit it
// closes all outputs, propagating EOS downstream.
type Component struct {
	id          string
	nodeTypeID  string
	displayName string
	description string

	inputs      map[string]*port.Input
	inputOrder  []string
	outputs     map[string]*port.Output
	outputOrder []string
	inputConfig map[string]string

	proc       Process
	onShutdown func()

	life    tomb.Tomb
	runOnce sync.Once
	logger  *log.Logger
}

// New returns a component built from the given construction
// arguments. Pins, the process body and other attributes are
// attached with the With chain.
func New(a Args) *Component {
	displayName := a.DisplayName
	if displayName == "" {
		displayName = a.NodeTypeID
	}
	return &Component{
		id:          a.ID,
		nodeTypeID:  a.NodeTypeID,
		displayName: displayName,
		inputs:      map[string]*port.Input{},
		outputs:     map[string]*port.Output{},
		inputConfig: a.InputConfig,
		logger:      a.Log.Tee(nil, a.ID+": "),
	}
}

// WithDescription sets the component's description, used in
// generated editor metadata.
func (c *Component) WithDescription(s string) *Component {
	c.description = s
	return c
}

// WithInputs declares the component's input pins in pull order. Any
// inputConfig overrides from the declaration are applied here.
func (c *Component) WithInputs(ins ...*port.Input) *Component {
	for _, in := range ins {
		if m, ok := c.inputConfig[in.ID()]; ok {
			if mode, ok := port.ParseInputMode(m); ok {
				in.SetMode(mode)
			}
		}
		c.inputs[in.ID()] = in
		c.inputOrder = append(c.inputOrder, in.ID())
	}
	return c
}

// WithOutputs declares the component's output pins.
func (c *Component) WithOutputs(outs ...*port.Output) *Component {
	for _, out := range outs {
		out.Log = c.logger
		c.outputs[out.ID()] = out
		c.outputOrder = append(c.outputOrder, out.ID())
	}
	return c
}

// WithProcess attaches the component's body.
func (c *Component) WithProcess(p Process) *Component {
	c.proc = p
	return c
}

// OnShutdown attaches an optional hook invoked on the supervising
// goroutine after the flow has stopped. It is the only place a
// component may touch thread-hostile resources.
func (c *Component) OnShutdown(f func()) *Component {
	c.onShutdown = f
	return c
}

// ID returns the instance id.
func (c *Component) ID() string { return c.id }

// NodeTypeID returns the node type name.
func (c *Component) NodeTypeID() string { return c.nodeTypeID }

// DisplayName returns the human-readable name.
func (c *Component) DisplayName() string { return c.displayName }

// Description returns the component description.
func (c *Component) Description() string { return c.description }

// Input returns an input pin by id.
func (c *Component) Input(id string) *port.Input { return c.inputs[id] }

// Output returns an output pin by id.
func (c *Component) Output(id string) *port.Output { return c.outputs[id] }

// In returns the consuming face of a pin, or nil.
func (c *Component) In(id string) port.InPort {
	if in, ok := c.inputs[id]; ok {
		return in
	}
	return nil
}

// Out returns the producing face of a pin, or nil.
func (c *Component) Out(id string) port.OutPort {
	if out, ok := c.outputs[id]; ok {
		return out
	}
	return nil
}

// Ins returns the input pins in declaration order.
func (c *Component) Ins() []port.InPort {
	ins := make([]port.InPort, len(c.inputOrder))
	for i, id := range c.inputOrder {
		ins[i] = c.inputs[id]
	}
	return ins
}

// Outs returns the output pins in declaration order.
func (c *Component) Outs() []port.OutPort {
	outs := make([]port.OutPort, len(c.outputOrder))
	for i, id := range c.outputOrder {
		outs[i] = c.outputs[id]
	}
	return outs
}

// Send emits a value on the named output pin. Unknown pins are
// logged and dropped.
func (c *Component) Send(pin string, v values.T) {
	out, ok := c.outputs[pin]
	if !ok {
		c.logger.Errorf("send to unknown output %q dropped", pin)
		return
	}
	out.Send(v)
}

// Context returns a context canceled when the component is stopping.
// Process bodies performing blocking work should honor it.
func (c *Component) Context() context.Context {
	return c.life.Context(context.Background())
}

// Log returns the component's logger.
func (c *Component) Log() *log.Logger { return c.logger }

// Run starts the component's worker. It is a no-op after the first
// call.
func (c *Component) Run() {
	c.runOnce.Do(func() {
		c.life.Go(c.run)
	})
}

// Stop requests a cooperative stop. The worker observes it at the
// next iteration boundary; a running process call is never
// interrupted. Stop is idempotent.
func (c *Component) Stop() {
	c.life.Kill(nil)
}

// Terminate requests a stop and forcefully unblocks pending input
// reads by injecting EOS into their queues.
func (c *Component) Terminate() {
	c.life.Kill(nil)
	for _, id := range c.inputOrder {
		c.inputs[id].Terminate()
	}
}

// Stopped returns a channel closed when the worker has finished.
func (c *Component) Stopped() <-chan struct{} {
	return c.life.Dead()
}

// Err returns the worker's error, if it failed. It returns nil while
// the worker is still running.
func (c *Component) Err() error {
	select {
	case <-c.life.Dead():
		return c.life.Err()
	default:
		return nil
	}
}

// Shutdown invokes the component's shutdown hook, if any.
func (c *Component) Shutdown() {
	if c.onShutdown != nil {
		c.onShutdown()
	}
}

func (c *Component) run() error {
	defer c.closeOutputs()
	for {
		select {
		case <-c.life.Dying():
			return nil
		default:
		}
		in, eos := c.pull()
		if eos {
			return nil
		}
		result, err := c.proc(in)
		if err != nil {
			err = errors.E("process", c.id, errors.Worker, err)
			c.logger.Error(err)
			return err
		}
		c.forward(result)
	}
}

// pull gathers one iteration's arguments: one value from each
// blocking required pin in declaration order, then the current value
// of each sticky and static pin. It reports end of stream when any
// pull returns EOS.
func (c *Component) pull() (values.Map, bool) {
	in := make(values.Map, len(c.inputOrder))
	for _, id := range c.inputOrder {
		p := c.inputs[id]
		if p.Mode() != port.ModeQueue {
			continue
		}
		switch p.Required() {
		case port.Required:
		case port.RequiredIfConnected:
			if !p.Connected() {
				continue
			}
		default:
			// Optional queue inputs are not pulled.
			continue
		}
		v := p.Get()
		if port.IsEOS(v) {
			return nil, true
		}
		in[id] = v
	}
	for _, id := range c.inputOrder {
		p := c.inputs[id]
		if p.Mode() == port.ModeQueue {
			continue
		}
		v := p.Get()
		if port.IsEOS(v) {
			return nil, true
		}
		in[id] = v
	}
	return in, false
}

func (c *Component) forward(result values.T) {
	switch r := result.(type) {
	case nil:
	case values.Map:
		for pin, v := range r {
			out, ok := c.outputs[pin]
			if !ok {
				c.logger.Errorf("process result for unknown output %q dropped", pin)
				continue
			}
			out.Send(v)
		}
	default:
		if len(c.outputOrder) != 1 {
			c.logger.Errorf("process result %T needs a single output, component has %d", r, len(c.outputOrder))
			return
		}
		c.outputs[c.outputOrder[0]].Send(result)
	}
}

func (c *Component) closeOutputs() {
	for _, id := range c.outputOrder {
		c.outputs[id].Close()
	}
}
