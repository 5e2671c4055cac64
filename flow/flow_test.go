// Copyright 2025 The Goflyde Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package flow_test

import (
	"bytes"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/trustmaster/goflyde/errors"
	"github.com/trustmaster/goflyde/flow"
	"github.com/trustmaster/goflyde/node"
	"github.com/trustmaster/goflyde/port"
	"github.com/trustmaster/goflyde/stdlib"
	"github.com/trustmaster/goflyde/values"
)

func init() {
	node.Register("Echo", func(a node.Args) (node.Node, error) {
		c := node.New(a).
			WithInputs(port.NewInput("inp", "the input")).
			WithOutputs(port.NewOutput("out", "the output"))
		return c.WithProcess(func(in values.Map) (values.T, error) {
			return values.Map{"out": in["inp"]}, nil
		}), nil
	})
	node.Register("Capitalize", func(a node.Args) (node.Node, error) {
		c := node.New(a).
			WithInputs(port.NewInput("inp", "the input")).
			WithOutputs(port.NewOutput("out", "the output"))
		return c.WithProcess(func(in values.Map) (values.T, error) {
			return values.Map{"out": strings.ToUpper(in["inp"].(string))}, nil
		}), nil
	})
	node.Register("RepeatWordNTimes", func(a node.Args) (node.Node, error) {
		c := node.New(a).
			WithInputs(
				port.NewInput("word", "the word"),
				port.NewInput("times", "repetitions").AsSticky().WithDefault(1),
			).
			WithOutputs(port.NewOutput("out", "the repeated word"))
		return c.WithProcess(func(in values.Map) (values.T, error) {
			return values.Map{"out": strings.Repeat(in["word"].(string), in["times"].(int))}, nil
		}), nil
	})
}

func testdata(name string) string {
	return filepath.Join("testdata", name)
}

func waitFlowStopped(t *testing.T, f *flow.Flow) {
	t.Helper()
	select {
	case <-f.Stopped():
	case <-time.After(5 * time.Second):
		t.Fatal("flow did not stop")
	}
}

func TestIsolatedFlow(t *testing.T) {
	var buf bytes.Buffer
	old := stdlib.PrintWriter
	stdlib.PrintWriter = &buf
	defer func() { stdlib.PrintWriter = old }()

	f, err := flow.FromFile(testdata("TestIsolatedFlow.flyde"), flow.Config{})
	if err != nil {
		t.Fatal(err)
	}
	f.Run()
	waitFlowStopped(t, f)
	if err := f.Err(); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "hello\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestInOutFlow(t *testing.T) {
	f, err := flow.FromFile(testdata("TestInOutFlow.flyde"), flow.Config{})
	if err != nil {
		t.Fatal(err)
	}
	out := port.NewQueue(8)
	f.Root().Out("outMsg").Connect(out)
	in := f.Root().In("inMsg")
	f.Run()
	for _, msg := range []string{"Hello", "World"} {
		in.Sink().Put(msg)
		if got := out.Get(); got != msg {
			t.Errorf("got %v, want %v", got, msg)
		}
	}
	in.Sink().Put(port.EOS)
	if got := out.Get(); !port.IsEOS(got) {
		t.Errorf("got %v, want EOS", got)
	}
	waitFlowStopped(t, f)
}

func TestNestedFlow(t *testing.T) {
	f, err := flow.FromFile(testdata("TestNestedFlow.flyde"), flow.Config{})
	if err != nil {
		t.Fatal(err)
	}
	out := port.NewQueue(8)
	f.Root().Out("out").Connect(out)
	in := f.Root().In("inp")
	f.Run()
	in.Sink().Put("hello")
	if got, want := out.Get(), values.T("HELLO"); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	in.Sink().Put(port.EOS)
	if got := out.Get(); !port.IsEOS(got) {
		t.Errorf("got %v, want EOS", got)
	}
	waitFlowStopped(t, f)
}

// The sticky times input latches its last value across words.
func TestStickyFlow(t *testing.T) {
	f, err := flow.FromFile(testdata("TestStickyFlow.flyde"), flow.Config{})
	if err != nil {
		t.Fatal(err)
	}
	out := port.NewQueue(8)
	f.Root().Out("out").Connect(out)
	word := f.Root().In("word")
	times := f.Root().In("times")
	f.Run()
	times.Sink().Put(3)
	word.Sink().Put("ab")
	if got, want := out.Get(), values.T("ababab"); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	word.Sink().Put("c")
	if got, want := out.Get(), values.T("ccc"); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	times.Sink().Put(port.EOS)
	word.Sink().Put(port.EOS)
	if got := out.Get(); !port.IsEOS(got) {
		t.Errorf("got %v, want EOS", got)
	}
	waitFlowStopped(t, f)
}

func TestCyclicImport(t *testing.T) {
	_, err := flow.FromFile(testdata("TestCyclicA.flyde"), flow.Config{})
	if !errors.Is(errors.Load, err) {
		t.Errorf("error %v is not a load error", err)
	}
	if err == nil || !strings.Contains(err.Error(), "cyclic") {
		t.Errorf("error %v does not mention the cycle", err)
	}
}

func TestUnknownNode(t *testing.T) {
	_, err := flow.FromFile(testdata("TestUnknownNode.flyde"), flow.Config{})
	if !errors.Is(errors.Load, err) {
		t.Errorf("error %v is not a load error", err)
	}
}

func TestUnsatisfiedInput(t *testing.T) {
	_, err := flow.FromFile(testdata("TestUnsatisfied.flyde"), flow.Config{})
	if !errors.Is(errors.Validation, err) {
		t.Errorf("error %v is not a validation error", err)
	}
}

func TestMissingFile(t *testing.T) {
	_, err := flow.FromFile(testdata("NoSuchFlow.flyde"), flow.Config{})
	if !errors.Is(errors.Load, err) {
		t.Errorf("error %v is not a load error", err)
	}
}

// Serializing a loaded flow and loading the result again is a fixed
// point.
func TestRoundTrip(t *testing.T) {
	f, err := flow.FromFile(testdata("TestInOutFlow.flyde"), flow.Config{})
	if err != nil {
		t.Fatal(err)
	}
	doc1, err := f.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	f2, err := flow.FromYAML(doc1, "testdata", flow.Config{})
	if err != nil {
		t.Fatal(err)
	}
	doc2, err := f2.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(doc1, doc2) {
		t.Errorf("round trip diverged:\n%s\nvs\n%s", doc1, doc2)
	}
}

// Layout data and unknown editor fields survive the round trip
// verbatim.
func TestRoundTripPreservesLayout(t *testing.T) {
	f, err := flow.FromFile(testdata("TestInOutFlow.flyde"), flow.Config{})
	if err != nil {
		t.Fatal(err)
	}
	doc, err := f.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"inputsPosition", "x: 12.5", "y: -3.25", "x: 250.75"} {
		if !strings.Contains(string(doc), want) {
			t.Errorf("serialized flow lacks %q:\n%s", want, doc)
		}
	}
}

func TestToDict(t *testing.T) {
	f, err := flow.FromFile(testdata("TestIsolatedFlow.flyde"), flow.Config{})
	if err != nil {
		t.Fatal(err)
	}
	dict := f.ToDict()
	if len(dict) == 0 {
		t.Fatal("empty dict")
	}
	if got, want := dict[0].Key, interface{}("imports"); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRunSync(t *testing.T) {
	f, err := flow.FromFile(testdata("TestIsolatedFlow.flyde"), flow.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.RunSync(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-f.Stopped():
	default:
		t.Error("flow not stopped after RunSync")
	}
}

func TestStopIdempotent(t *testing.T) {
	f, err := flow.FromFile(testdata("TestInOutFlow.flyde"), flow.Config{})
	if err != nil {
		t.Fatal(err)
	}
	f.Run()
	f.Stop()
	f.Stop()
	f.Terminate()
	waitFlowStopped(t, f)
}
