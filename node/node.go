// Copyright 2025 The Goflyde Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package node defines the runtime nodes of a flow. A Node is either
// a Component — a leaf whose body is a process function driven by a
// pull-loop worker — or a Graph, a composite that owns child
// instances, wires connections between their ports, and supervises
// their termination.
//
// Node types are registered in a process-wide registry by name; the
// flow loader resolves declaration imports against it. A small
// closed set of parametric macro nodes (InlineValue, GetAttribute,
// Conditional) is registered separately and resolved from declared
// node ids, either the bare macro name or the form Name__suffix.
package node

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/trustmaster/goflyde/log"
	"github.com/trustmaster/goflyde/port"
	"github.com/trustmaster/goflyde/values"
)

// A Node is an instance in a running flow. Run starts the node's
// worker(s); Stop requests a cooperative stop, observed at the next
// iteration boundary; Terminate forcefully unblocks pending input
// reads by injecting EOS. Stopped is closed exactly once, when the
// node's worker has finished; Err reports the worker's error, if
// any, once stopped. Shutdown is an optional hook invoked on the
// supervising goroutine after the whole flow has stopped.
type Node interface {
	ID() string
	NodeTypeID() string
	DisplayName() string

	In(id string) port.InPort
	Out(id string) port.OutPort
	Ins() []port.InPort
	Outs() []port.OutPort

	Run()
	Stop()
	Terminate()
	Stopped() <-chan struct{}
	Err() error
	Shutdown()
}

// Args carries the construction arguments a factory passes to a node
// constructor: the instance identity, the per-pin mode overrides and
// config parsed from the declaration, and the directory of the
// declaring flow file for resolving relative resources.
type Args struct {
	ID          string
	NodeTypeID  string
	DisplayName string
	InputConfig map[string]string
	Config      values.Map
	Dir         string
	Log         *log.Logger
}

// A Constructor creates a node instance from its parsed declaration.
type Constructor func(a Args) (Node, error)

var (
	mu       sync.RWMutex
	registry = map[string]Constructor{}
	macros   = map[string]Constructor{}
)

// Register adds a node constructor to the process-wide registry
// under the given type name. User component packages register their
// constructors at init time; the flow loader resolves imported names
// against the registry.
func Register(name string, ctor Constructor) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = ctor
}

// Lookup returns the registered constructor for a node type name.
func Lookup(name string) (Constructor, bool) {
	mu.RLock()
	defer mu.RUnlock()
	ctor, ok := registry[name]
	return ctor, ok
}

// Names returns the sorted names of all registered node types.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterMacro adds a constructor to the macro table. The macro set
// is closed: it is populated by the built-in library at init time.
func RegisterMacro(name string, ctor Constructor) {
	mu.Lock()
	defer mu.Unlock()
	macros[name] = ctor
}

// LookupMacro returns the constructor for a macro name.
func LookupMacro(name string) (Constructor, bool) {
	mu.RLock()
	defer mu.RUnlock()
	ctor, ok := macros[name]
	return ctor, ok
}

// MacroNames returns the sorted names of the supported macros.
func MacroNames() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(macros))
	for name := range macros {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsMacro tells whether a declared node id refers to a macro, either
// directly by name or in the generated Name__suffix form, and
// returns the macro name.
func IsMacro(nodeID string) (string, bool) {
	mu.RLock()
	defer mu.RUnlock()
	if _, ok := macros[nodeID]; ok {
		return nodeID, true
	}
	for name := range macros {
		if len(nodeID) > len(name)+2 && nodeID[:len(name)] == name && nodeID[len(name):len(name)+2] == "__" {
			return name, true
		}
	}
	return "", false
}

// NewInstanceID generates a fresh unique instance id for a node
// type.
func NewInstanceID(nodeID string) string {
	return nodeID + "-" + uuid.NewString()
}
