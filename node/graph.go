// Copyright 2025 The Goflyde Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package node

import (
	"sync"

	"gopkg.in/tomb.v2"

	"github.com/trustmaster/goflyde/errors"
	"github.com/trustmaster/goflyde/log"
	"github.com/trustmaster/goflyde/port"
)

// ErrorPolicy selects how a graph reacts to a child worker failing.
type ErrorPolicy int

const (
	// ContinueOnError keeps sibling workers running; they observe the
	// failure as premature EOS. This is the default.
	ContinueOnError ErrorPolicy = iota
	// StopOnError requests a stop of all remaining children as soon
	// as any child fails.
	StopOnError
)

// A GraphSpec describes a composite node to be assembled: its child
// instances in declaration order, the connections between their
// pins, and the graph's own external ports.
type GraphSpec struct {
	ID          string
	NodeTypeID  string
	DisplayName string
	Instances   []Node
	Connections []Connection
	Inputs      []*port.GraphPort
	Outputs     []*port.GraphPort
	OnError     ErrorPolicy
	Log         *log.Logger
}

// A Graph is a composite node. It owns its child instances and their
// wiring. Running a graph starts one worker per leaf component;
// the graph itself only supervises: it waits for every child to
// stop, then stops itself. End of stream propagates through the
// wiring without the graph's involvement, so a graph whose sources
// are exhausted shuts down deterministically.
type Graph struct {
	id          string
	nodeTypeID  string
	displayName string

	instances map[string]Node
	order     []string
	conns     []Connection

	inputs      map[string]*port.GraphPort
	inputOrder  []string
	outputs     map[string]*port.GraphPort
	outputOrder []string

	policy ErrorPolicy

	life    tomb.Tomb
	runOnce sync.Once
	logger  *log.Logger
}

// NewGraph assembles a graph from its spec: it indexes the children,
// wires every connection, and validates that each required child
// input is satisfied. Assembly fails with a Connection error when an
// edge references an unknown instance or pin, and with a Validation
// error when a required input has neither an upstream connection nor
// a configured default.
func NewGraph(spec GraphSpec) (*Graph, error) {
	displayName := spec.DisplayName
	if displayName == "" {
		displayName = spec.NodeTypeID
	}
	g := &Graph{
		id:          spec.ID,
		nodeTypeID:  spec.NodeTypeID,
		displayName: displayName,
		instances:   map[string]Node{},
		conns:       spec.Connections,
		inputs:      map[string]*port.GraphPort{},
		outputs:     map[string]*port.GraphPort{},
		policy:      spec.OnError,
		logger:      spec.Log.Tee(nil, spec.ID+": "),
	}
	for _, n := range spec.Instances {
		if _, ok := g.instances[n.ID()]; ok {
			return nil, errors.E("assemble", g.id, errors.Invalid,
				errors.Errorf("duplicate instance id %q", n.ID()))
		}
		g.instances[n.ID()] = n
		g.order = append(g.order, n.ID())
	}
	for _, p := range spec.Inputs {
		g.inputs[p.ID()] = p
		g.inputOrder = append(g.inputOrder, p.ID())
	}
	for _, p := range spec.Outputs {
		g.outputs[p.ID()] = p
		g.outputOrder = append(g.outputOrder, p.ID())
	}
	for _, conn := range g.conns {
		if err := g.wire(conn); err != nil {
			return nil, err
		}
	}
	if err := g.validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// wire binds one connection: the source output (or the graph's own
// input port) is connected to the destination input's queue, and the
// destination's producer count is incremented.
func (g *Graph) wire(conn Connection) error {
	var src port.OutPort
	if conn.From.InsID == g.id {
		if p, ok := g.inputs[conn.From.PinID]; ok {
			src = p
		}
	} else if n, ok := g.instances[conn.From.InsID]; ok {
		src = n.Out(conn.From.PinID)
	}
	if src == nil {
		return errors.E("wire", conn.String(), errors.Connection,
			errors.Errorf("unknown source %s", conn.From))
	}
	var dst port.InPort
	if conn.To.InsID == g.id {
		if p, ok := g.outputs[conn.To.PinID]; ok {
			dst = p
		}
	} else if n, ok := g.instances[conn.To.InsID]; ok {
		dst = n.In(conn.To.PinID)
	}
	if dst == nil {
		return errors.E("wire", conn.String(), errors.Connection,
			errors.Errorf("unknown destination %s", conn.To))
	}
	if in, ok := dst.(*port.Input); ok && in.Mode() == port.ModeStatic {
		return errors.E("wire", conn.String(), errors.Connection,
			errors.Errorf("destination %s is a static input", conn.To))
	}
	src.Connect(dst.Sink())
	dst.IncRefCount()
	return nil
}

func (g *Graph) validate() error {
	for _, id := range g.order {
		n := g.instances[id]
		for _, in := range n.Ins() {
			if in.Required() != port.Required {
				continue
			}
			if in.Connected() || in.HasDefault() {
				continue
			}
			return errors.E("validate", id+"."+in.ID(), errors.Validation,
				errors.Errorf("required input has no connection and no static value"))
		}
	}
	return nil
}

// ID returns the instance id.
func (g *Graph) ID() string { return g.id }

// NodeTypeID returns the node type name.
func (g *Graph) NodeTypeID() string { return g.nodeTypeID }

// DisplayName returns the human-readable name.
func (g *Graph) DisplayName() string { return g.displayName }

// Instance returns a child instance by id.
func (g *Graph) Instance(id string) Node { return g.instances[id] }

// Instances returns the child instance ids in declaration order.
func (g *Graph) Instances() []string {
	ids := make([]string, len(g.order))
	copy(ids, g.order)
	return ids
}

// Connections returns the graph's wiring list.
func (g *Graph) Connections() []Connection {
	conns := make([]Connection, len(g.conns))
	copy(conns, g.conns)
	return conns
}

// Input returns a graph input port by id.
func (g *Graph) Input(id string) *port.GraphPort { return g.inputs[id] }

// Output returns a graph output port by id.
func (g *Graph) Output(id string) *port.GraphPort { return g.outputs[id] }

// In returns the graph's external input port, or nil.
func (g *Graph) In(id string) port.InPort {
	if p, ok := g.inputs[id]; ok {
		return p
	}
	return nil
}

// Out returns the graph's external output port, or nil.
func (g *Graph) Out(id string) port.OutPort {
	if p, ok := g.outputs[id]; ok {
		return p
	}
	return nil
}

// Ins returns the graph's external input ports in declaration order.
func (g *Graph) Ins() []port.InPort {
	ins := make([]port.InPort, len(g.inputOrder))
	for i, id := range g.inputOrder {
		ins[i] = g.inputs[id]
	}
	return ins
}

// Outs returns the graph's external output ports in declaration
// order.
func (g *Graph) Outs() []port.OutPort {
	outs := make([]port.OutPort, len(g.outputOrder))
	for i, id := range g.outputOrder {
		outs[i] = g.outputs[id]
	}
	return outs
}

// Run starts every child and a supervisor that waits for them. It is
// a no-op after the first call.
func (g *Graph) Run() {
	g.runOnce.Do(func() {
		g.life.Go(g.run)
	})
}

type childExit struct {
	id  string
	err error
}

func (g *Graph) run() error {
	for _, id := range g.order {
		g.instances[id].Run()
	}
	// Relay a stop request to the children. The relay exits with the
	// supervisor so the graph can die.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-g.life.Dying():
			for _, id := range g.order {
				g.instances[id].Stop()
			}
		case <-done:
		}
	}()
	exits := make(chan childExit)
	for _, id := range g.order {
		go func(id string, n Node) {
			<-n.Stopped()
			exits <- childExit{id, n.Err()}
		}(id, g.instances[id])
	}
	var err error
	for range g.order {
		exit := <-exits
		if exit.err == nil {
			g.logger.Debugf("node %s stopped", exit.id)
			continue
		}
		g.logger.Errorf("node %s failed: %v", exit.id, exit.err)
		if err == nil {
			err = exit.err
		}
		if g.policy == StopOnError {
			for _, id := range g.order {
				g.instances[id].Terminate()
			}
		}
	}
	return err
}

// Stop requests a cooperative stop of every child. Stop is
// idempotent.
func (g *Graph) Stop() {
	g.life.Kill(nil)
}

// Terminate requests a stop and forcefully unblocks children waiting
// on empty input queues.
func (g *Graph) Terminate() {
	g.life.Kill(nil)
	for _, id := range g.order {
		g.instances[id].Terminate()
	}
}

// Stopped returns a channel closed when every child has stopped.
func (g *Graph) Stopped() <-chan struct{} {
	return g.life.Dead()
}

// Err returns the first child failure, if any, once the graph has
// stopped.
func (g *Graph) Err() error {
	select {
	case <-g.life.Dead():
		return g.life.Err()
	default:
		return nil
	}
}

// Shutdown invokes every child's shutdown hook. It must be called
// from the supervising goroutine after the graph has stopped.
func (g *Graph) Shutdown() {
	for _, id := range g.order {
		g.instances[id].Shutdown()
	}
}
