// Copyright 2025 The Goflyde Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package node_test

import (
	"strings"
	"testing"

	"github.com/trustmaster/goflyde/node"
	"github.com/trustmaster/goflyde/port"
)

func TestRegistry(t *testing.T) {
	node.Register("TestEchoNode", func(a node.Args) (node.Node, error) {
		return echo(a), nil
	})
	ctor, ok := node.Lookup("TestEchoNode")
	if !ok {
		t.Fatal("registered node not found")
	}
	n, err := ctor(node.Args{ID: "e1"})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := n.ID(), "e1"; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	found := false
	for _, name := range node.Names() {
		if name == "TestEchoNode" {
			found = true
		}
	}
	if !found {
		t.Error("registered node not listed")
	}
	if _, ok := node.Lookup("NoSuchNode"); ok {
		t.Error("unknown node resolved")
	}
}

func TestIsMacro(t *testing.T) {
	node.RegisterMacro("TestMacro", func(a node.Args) (node.Node, error) {
		return echo(a), nil
	})
	for _, tc := range []struct {
		nodeID string
		name   string
		ok     bool
	}{
		{"TestMacro", "TestMacro", true},
		{"TestMacro__ab1", "TestMacro", true},
		{"TestMacroX__ab1", "", false},
		{"Other__ab1", "", false},
	} {
		name, ok := node.IsMacro(tc.nodeID)
		if name != tc.name || ok != tc.ok {
			t.Errorf("IsMacro(%q): got (%q, %v), want (%q, %v)", tc.nodeID, name, ok, tc.name, tc.ok)
		}
	}
}

func TestNewInstanceID(t *testing.T) {
	id1 := node.NewInstanceID("Echo")
	id2 := node.NewInstanceID("Echo")
	if !strings.HasPrefix(id1, "Echo-") {
		t.Errorf("id %q lacks node prefix", id1)
	}
	if id1 == id2 {
		t.Error("instance ids are not unique")
	}
}

func TestInputConfigOverride(t *testing.T) {
	c := node.New(node.Args{
		ID:          "cfg",
		InputConfig: map[string]string{"inp": "sticky"},
	}).WithInputs(port.NewInput("inp", ""))
	if got, want := c.Input("inp").Mode(), port.ModeSticky; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}
