// Copyright 2025 The Goflyde Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package node_test

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/trustmaster/goflyde/errors"
	"github.com/trustmaster/goflyde/node"
	"github.com/trustmaster/goflyde/port"
	"github.com/trustmaster/goflyde/values"
)

// echo forwards its input unchanged.
func echo(a node.Args) *node.Component {
	c := node.New(a).
		WithInputs(port.NewInput("inp", "the input")).
		WithOutputs(port.NewOutput("out", "the output"))
	return c.WithProcess(func(in values.Map) (values.T, error) {
		return values.Map{"out": in["inp"]}, nil
	})
}

// source emits the given values, one per tick, then ends its
// stream.
func source(a node.Args, vals ...values.T) *node.Component {
	c := node.New(a).
		WithOutputs(port.NewOutput("out", "emitted values"))
	i := 0
	return c.WithProcess(func(in values.Map) (values.T, error) {
		if i >= len(vals) {
			c.Stop()
			return nil, nil
		}
		v := vals[i]
		i++
		return values.Map{"out": v}, nil
	})
}

// collect consumes values into a shared slice.
func collect(a node.Args, mu *sync.Mutex, got *[]values.T) *node.Component {
	c := node.New(a).
		WithInputs(port.NewInput("inp", "collected values"))
	return c.WithProcess(func(in values.Map) (values.T, error) {
		mu.Lock()
		*got = append(*got, in["inp"])
		mu.Unlock()
		return nil, nil
	})
}

func waitStopped(t *testing.T, n node.Node) {
	t.Helper()
	select {
	case <-n.Stopped():
	case <-time.After(5 * time.Second):
		t.Fatal("node did not stop")
	}
}

func drainUntilEOS(t *testing.T, q *port.Queue) []values.T {
	t.Helper()
	var got []values.T
	for {
		v := q.Get()
		if port.IsEOS(v) {
			return got
		}
		got = append(got, v)
	}
}

func TestEcho(t *testing.T) {
	c := echo(node.Args{ID: "echo"})
	out := port.NewQueue(8)
	c.Output("out").Connect(out)
	inp := c.Input("inp")
	inp.IncRefCount()
	c.Run()
	for _, v := range []values.T{"hello", "world"} {
		inp.Sink().Put(v)
	}
	inp.Sink().Put(port.EOS)
	got := drainUntilEOS(t, out)
	if want := []values.T{"hello", "world"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	waitStopped(t, c)
	if err := c.Err(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// Two required pins are pulled together, pairing their streams.
func TestPullPairs(t *testing.T) {
	c := node.New(node.Args{ID: "pair"}).
		WithInputs(port.NewInput("a", ""), port.NewInput("b", "")).
		WithOutputs(port.NewOutput("out", ""))
	c.WithProcess(func(in values.Map) (values.T, error) {
		return values.Map{"out": fmt.Sprint(in["a"], in["b"])}, nil
	})
	out := port.NewQueue(8)
	c.Output("out").Connect(out)
	a, b := c.Input("a"), c.Input("b")
	a.IncRefCount()
	b.IncRefCount()
	c.Run()
	a.Sink().Put("a1")
	b.Sink().Put("b1")
	a.Sink().Put(port.EOS)
	b.Sink().Put(port.EOS)
	got := drainUntilEOS(t, out)
	if want := []values.T{"a1b1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	waitStopped(t, c)
}

// A sticky input pairs its latched default with every queued value.
func TestStickyPairing(t *testing.T) {
	c := node.New(node.Args{ID: "repeat"}).
		WithInputs(
			port.NewInput("word", "the word"),
			port.NewInput("times", "repetitions").AsSticky().WithDefault(3),
		).
		WithOutputs(port.NewOutput("out", ""))
	c.WithProcess(func(in values.Map) (values.T, error) {
		return values.Map{"out": strings.Repeat(in["word"].(string), in["times"].(int))}, nil
	})
	out := port.NewQueue(8)
	c.Output("out").Connect(out)
	word := c.Input("word")
	word.IncRefCount()
	c.Run()
	word.Sink().Put("ab")
	word.Sink().Put("c")
	word.Sink().Put(port.EOS)
	got := drainUntilEOS(t, out)
	if want := []values.T{"ababab", "ccc"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	waitStopped(t, c)
}

// A required-if-connected pin is pulled when bound and skipped when
// unbound.
func TestRequiredIfConnected(t *testing.T) {
	newNode := func() *node.Component {
		c := node.New(node.Args{ID: "opt"}).
			WithInputs(
				port.NewInput("inp", ""),
				port.NewInput("opt", "").IfConnected(),
			).
			WithOutputs(port.NewOutput("out", ""))
		return c.WithProcess(func(in values.Map) (values.T, error) {
			opt, ok := in["opt"]
			if !ok {
				opt = "-"
			}
			return values.Map{"out": fmt.Sprint(in["inp"], opt)}, nil
		})
	}

	// Case A: opt is wired; the node blocks for it each iteration.
	c := newNode()
	out := port.NewQueue(8)
	c.Output("out").Connect(out)
	inp, opt := c.Input("inp"), c.Input("opt")
	inp.IncRefCount()
	opt.IncRefCount()
	c.Run()
	inp.Sink().Put("x")
	opt.Sink().Put("y")
	inp.Sink().Put(port.EOS)
	opt.Sink().Put(port.EOS)
	got := drainUntilEOS(t, out)
	if want := []values.T{"xy"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	waitStopped(t, c)

	// Case B: opt is unconnected; the node runs without pulling it.
	c = newNode()
	out = port.NewQueue(8)
	c.Output("out").Connect(out)
	inp = c.Input("inp")
	inp.IncRefCount()
	c.Run()
	inp.Sink().Put("x")
	inp.Sink().Put(port.EOS)
	got = drainUntilEOS(t, out)
	if want := []values.T{"x-"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	waitStopped(t, c)
}

// A node whose only inputs are static runs until stopped.
func TestStaticOnlyStops(t *testing.T) {
	var n int
	var mu sync.Mutex
	c := node.New(node.Args{ID: "ticker"}).
		WithInputs(port.NewInput("n", "").AsStatic(1))
	c.WithProcess(func(in values.Map) (values.T, error) {
		mu.Lock()
		n++
		mu.Unlock()
		return nil, nil
	})
	c.Run()
	for {
		mu.Lock()
		ticks := n
		mu.Unlock()
		if ticks > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	c.Stop()
	waitStopped(t, c)
}

func TestStopIdempotent(t *testing.T) {
	c := source(node.Args{ID: "src"}, 1, 2, 3)
	c.Run()
	c.Stop()
	c.Stop()
	waitStopped(t, c)
	if err := c.Err(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// A process returning a bare value routes it to the single output.
func TestSingleValueResult(t *testing.T) {
	c := node.New(node.Args{ID: "caps"}).
		WithInputs(port.NewInput("inp", "")).
		WithOutputs(port.NewOutput("out", ""))
	c.WithProcess(func(in values.Map) (values.T, error) {
		return strings.ToUpper(in["inp"].(string)), nil
	})
	out := port.NewQueue(8)
	c.Output("out").Connect(out)
	inp := c.Input("inp")
	inp.IncRefCount()
	c.Run()
	inp.Sink().Put("hello")
	inp.Sink().Put(port.EOS)
	got := drainUntilEOS(t, out)
	if want := []values.T{"HELLO"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	waitStopped(t, c)
}

// A failing process stops the component with a Worker error and
// closes its outputs.
func TestWorkerError(t *testing.T) {
	c := node.New(node.Args{ID: "bad"}).
		WithInputs(port.NewInput("inp", "")).
		WithOutputs(port.NewOutput("out", ""))
	c.WithProcess(func(in values.Map) (values.T, error) {
		return nil, errors.New("boom")
	})
	out := port.NewQueue(8)
	c.Output("out").Connect(out)
	inp := c.Input("inp")
	inp.IncRefCount()
	c.Run()
	inp.Sink().Put("x")
	got := drainUntilEOS(t, out)
	if len(got) != 0 {
		t.Errorf("got %v, want no values", got)
	}
	waitStopped(t, c)
	if !errors.Is(errors.Worker, c.Err()) {
		t.Errorf("error %v is not a worker error", c.Err())
	}
}

func TestShutdownHook(t *testing.T) {
	var fired bool
	c := source(node.Args{ID: "src"}).OnShutdown(func() { fired = true })
	c.Run()
	waitStopped(t, c)
	c.Shutdown()
	if !fired {
		t.Error("shutdown hook did not fire")
	}
}
