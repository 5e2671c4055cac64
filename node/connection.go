// Copyright 2025 The Goflyde Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package node

// An Endpoint names one side of a connection: an instance id and a
// pin id on that instance. The owning graph's own id denotes the
// graph's external ports.
type Endpoint struct {
	InsID string
	PinID string
}

// String renders the endpoint as insId.pinId.
func (e Endpoint) String() string {
	return e.InsID + "." + e.PinID
}

// A Connection is a directed edge between two pins. Connections are
// declarative: they own no runtime state, and the graph resolves
// them by id when it wires ports together. Delayed and Hidden are
// editor-facing metadata preserved on round-trip; they do not alter
// runtime behavior.
type Connection struct {
	From    Endpoint
	To      Endpoint
	Delayed bool
	Hidden  bool
}

// String renders the connection as from -> to.
func (c Connection) String() string {
	return c.From.String() + " -> " + c.To.String()
}
