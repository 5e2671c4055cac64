// Copyright 2025 The Goflyde Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package stdlib

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/time/rate"

	"github.com/trustmaster/goflyde/node"
	"github.com/trustmaster/goflyde/port"
	"github.com/trustmaster/goflyde/values"
)

// Throttle forwards its input at a bounded rate. The rate (events
// per second) and burst come from the node's configuration and
// default to 1/s with a burst of 1.
func newThrottle(a node.Args) (node.Node, error) {
	rps := 1.0
	burst := 1
	if v, ok := a.Config["rate"]; ok {
		switch v := v.(type) {
		case int:
			rps = float64(v)
		case float64:
			rps = v
		}
	}
	if v, ok := a.Config["burst"].(int); ok {
		burst = v
	}
	lim := rate.NewLimiter(rate.Limit(rps), burst)
	c := node.New(a).
		WithDescription("Forwards values at a bounded rate").
		WithInputs(port.NewInput("value", "The value to forward")).
		WithOutputs(port.NewOutput("value", "The forwarded value"))
	return c.WithProcess(func(in values.Map) (values.T, error) {
		if err := lim.Wait(c.Context()); err != nil {
			// Stop requested while waiting for a slot.
			return nil, nil
		}
		return values.Map{"value": in["value"]}, nil
	}), nil
}

// PrintWriter receives Print output. It is a package variable so
// tests can capture it.
var PrintWriter io.Writer = os.Stdout

// Print writes its input to the process output, one value per line.
func newPrint(a node.Args) (node.Node, error) {
	c := node.New(a).
		WithDescription("Prints the input message").
		WithInputs(port.NewInput("msg", "The message to print"))
	return c.WithProcess(func(in values.Map) (values.T, error) {
		fmt.Fprintln(PrintWriter, in["msg"])
		return nil, nil
	}), nil
}
