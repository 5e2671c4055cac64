// Copyright 2025 The Goflyde Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package node_test

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/trustmaster/goflyde/errors"
	"github.com/trustmaster/goflyde/node"
	"github.com/trustmaster/goflyde/port"
	"github.com/trustmaster/goflyde/values"
)

func conn(fromIns, fromPin, toIns, toPin string) node.Connection {
	return node.Connection{
		From: node.Endpoint{InsID: fromIns, PinID: fromPin},
		To:   node.Endpoint{InsID: toIns, PinID: toPin},
	}
}

func TestEmptyGraph(t *testing.T) {
	g, err := node.NewGraph(node.GraphSpec{ID: "empty"})
	if err != nil {
		t.Fatal(err)
	}
	g.Run()
	waitStopped(t, g)
	if err := g.Err(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSingleLink(t *testing.T) {
	var mu sync.Mutex
	var got []values.T
	g, err := node.NewGraph(node.GraphSpec{
		ID: "main",
		Instances: []node.Node{
			source(node.Args{ID: "src"}, "hello"),
			collect(node.Args{ID: "print"}, &mu, &got),
		},
		Connections: []node.Connection{conn("src", "out", "print", "inp")},
	})
	if err != nil {
		t.Fatal(err)
	}
	g.Run()
	waitStopped(t, g)
	if want := []values.T{"hello"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

// A ref fan-out delivers the same object to every consumer.
func TestRefFanOut(t *testing.T) {
	var mu sync.Mutex
	var a, b []values.T
	payload := values.Map{"k": 0}
	g, err := node.NewGraph(node.GraphSpec{
		ID: "main",
		Instances: []node.Node{
			source(node.Args{ID: "src"}, 1, 2, payload),
			collect(node.Args{ID: "a"}, &mu, &a),
			collect(node.Args{ID: "b"}, &mu, &b),
		},
		Connections: []node.Connection{
			conn("src", "out", "a", "inp"),
			conn("src", "out", "b", "inp"),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	g.Run()
	waitStopped(t, g)
	want := []values.T{1, 2, payload}
	if !reflect.DeepEqual(a, want) || !reflect.DeepEqual(b, want) {
		t.Fatalf("got a=%v b=%v, want %v", a, b, want)
	}
	// Same object identity on both sides.
	if reflect.ValueOf(a[2]).Pointer() != reflect.ValueOf(b[2]).Pointer() {
		t.Error("ref fan-out did not share identity")
	}
}

// A value fan-out isolates consumers from each other's mutations.
func TestValueFanOutMutation(t *testing.T) {
	var mu sync.Mutex
	var b []values.T
	src := node.New(node.Args{ID: "src"}).
		WithOutputs(port.NewOutput("out", "").WithMode(port.ModeValue))
	sent := false
	src.WithProcess(func(in values.Map) (values.T, error) {
		if sent {
			src.Stop()
			return nil, nil
		}
		sent = true
		return values.Map{"out": values.Map{"k": 0}}, nil
	})
	mutator := node.New(node.Args{ID: "a"}).
		WithInputs(port.NewInput("inp", ""))
	mutator.WithProcess(func(in values.Map) (values.T, error) {
		in["inp"].(values.Map)["k"] = 1
		return nil, nil
	})
	g, err := node.NewGraph(node.GraphSpec{
		ID: "main",
		Instances: []node.Node{
			src,
			mutator,
			collect(node.Args{ID: "b"}, &mu, &b),
		},
		Connections: []node.Connection{
			conn("src", "out", "a", "inp"),
			conn("src", "out", "b", "inp"),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	g.Run()
	waitStopped(t, g)
	if got, want := len(b), 1; got != want {
		t.Fatalf("got %v items, want %v", got, want)
	}
	if got, want := b[0].(values.Map)["k"], 0; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

// A circle fan-out delivers item j to consumer j mod k.
func TestCircleFanOut(t *testing.T) {
	var mu sync.Mutex
	var x, y, z []values.T
	src := node.New(node.Args{ID: "src"}).
		WithOutputs(port.NewOutput("out", "").WithMode(port.ModeCircle))
	vals := []values.T{"a", "b", "c", "d", "e"}
	i := 0
	src.WithProcess(func(in values.Map) (values.T, error) {
		if i >= len(vals) {
			src.Stop()
			return nil, nil
		}
		v := vals[i]
		i++
		return values.Map{"out": v}, nil
	})
	g, err := node.NewGraph(node.GraphSpec{
		ID: "main",
		Instances: []node.Node{
			src,
			collect(node.Args{ID: "x"}, &mu, &x),
			collect(node.Args{ID: "y"}, &mu, &y),
			collect(node.Args{ID: "z"}, &mu, &z),
		},
		Connections: []node.Connection{
			conn("src", "out", "x", "inp"),
			conn("src", "out", "y", "inp"),
			conn("src", "out", "z", "inp"),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	g.Run()
	waitStopped(t, g)
	if want := []values.T{"a", "d"}; !reflect.DeepEqual(x, want) {
		t.Errorf("x got %v, want %v", x, want)
	}
	if want := []values.T{"b", "e"}; !reflect.DeepEqual(y, want) {
		t.Errorf("y got %v, want %v", y, want)
	}
	if want := []values.T{"c"}; !reflect.DeepEqual(z, want) {
		t.Errorf("z got %v, want %v", z, want)
	}
}

// End of stream crosses a subgraph boundary through its graph port.
func TestNestedGraphEOS(t *testing.T) {
	inner, err := node.NewGraph(node.GraphSpec{
		ID:        "inner",
		Instances: []node.Node{source(node.Args{ID: "src"}, "x")},
		Outputs:   []*port.GraphPort{port.NewGraphPort("out", "")},
		Connections: []node.Connection{
			conn("src", "out", "inner", "out"),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	var mu sync.Mutex
	var got []values.T
	outer, err := node.NewGraph(node.GraphSpec{
		ID: "outer",
		Instances: []node.Node{
			inner,
			collect(node.Args{ID: "sink"}, &mu, &got),
		},
		Connections: []node.Connection{
			conn("inner", "out", "sink", "inp"),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	outer.Run()
	waitStopped(t, outer)
	if want := []values.T{"x"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

// A graph input port splices external values to inner consumers.
func TestGraphInputPort(t *testing.T) {
	var mu sync.Mutex
	var got []values.T
	g, err := node.NewGraph(node.GraphSpec{
		ID: "main",
		Instances: []node.Node{
			collect(node.Args{ID: "sink"}, &mu, &got),
		},
		Inputs: []*port.GraphPort{port.NewGraphPort("inp", "")},
		Connections: []node.Connection{
			conn("main", "inp", "sink", "inp"),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	g.Run()
	g.In("inp").Sink().Put("hello")
	g.In("inp").Sink().Put(port.EOS)
	waitStopped(t, g)
	if want := []values.T{"hello"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestValidationError(t *testing.T) {
	_, err := node.NewGraph(node.GraphSpec{
		ID:        "main",
		Instances: []node.Node{echo(node.Args{ID: "echo"})},
	})
	if !errors.Is(errors.Validation, err) {
		t.Errorf("error %v is not a validation error", err)
	}
}

func TestConnectionError(t *testing.T) {
	_, err := node.NewGraph(node.GraphSpec{
		ID: "main",
		Instances: []node.Node{
			source(node.Args{ID: "src"}, 1),
		},
		Connections: []node.Connection{conn("src", "out", "nosuch", "inp")},
	})
	if !errors.Is(errors.Connection, err) {
		t.Errorf("error %v is not a connection error", err)
	}
	_, err = node.NewGraph(node.GraphSpec{
		ID: "main",
		Instances: []node.Node{
			source(node.Args{ID: "src"}, 1),
		},
		Connections: []node.Connection{conn("src", "nopin", "src", "inp")},
	})
	if !errors.Is(errors.Connection, err) {
		t.Errorf("error %v is not a connection error", err)
	}
}

// A failing worker is localized: siblings observe premature EOS and
// the graph finishes on its own.
func TestWorkerErrorLocalized(t *testing.T) {
	bad := node.New(node.Args{ID: "bad"}).
		WithInputs(port.NewInput("inp", "")).
		WithOutputs(port.NewOutput("out", ""))
	bad.WithProcess(func(in values.Map) (values.T, error) {
		return nil, errors.New("boom")
	})
	var mu sync.Mutex
	var got []values.T
	g, err := node.NewGraph(node.GraphSpec{
		ID: "main",
		Instances: []node.Node{
			source(node.Args{ID: "src"}, 1, 2, 3),
			bad,
			collect(node.Args{ID: "sink"}, &mu, &got),
		},
		Connections: []node.Connection{
			conn("src", "out", "bad", "inp"),
			conn("bad", "out", "sink", "inp"),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	g.Run()
	waitStopped(t, g)
	if !errors.Is(errors.Worker, g.Err()) {
		t.Errorf("error %v is not a worker error", g.Err())
	}
	if len(got) != 0 {
		t.Errorf("sink observed %v, want none", got)
	}
}

func TestGraphStop(t *testing.T) {
	ticker := node.New(node.Args{ID: "ticker"}).
		WithInputs(port.NewInput("n", "").AsStatic(1))
	ticker.WithProcess(func(in values.Map) (values.T, error) {
		return nil, nil
	})
	g, err := node.NewGraph(node.GraphSpec{
		ID:        "main",
		Instances: []node.Node{ticker},
	})
	if err != nil {
		t.Fatal(err)
	}
	g.Run()
	time.Sleep(time.Millisecond)
	g.Stop()
	g.Stop()
	waitStopped(t, g)
}
