// Copyright 2025 The Goflyde Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package values

import "testing"

func TestCopyScalars(t *testing.T) {
	for _, v := range []T{nil, true, 42, int64(7), 3.14, "hello"} {
		if got := Copy(v); !Equal(got, v) {
			t.Errorf("got %v, want %v", got, v)
		}
	}
}

func TestCopyMapIsolation(t *testing.T) {
	orig := Map{"k": 0, "nested": Map{"deep": List{1, 2, 3}}}
	dup := Copy(orig).(Map)
	dup["k"] = 1
	dup["nested"].(Map)["deep"].(List)[0] = 99
	if got, want := orig["k"], 0; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := orig["nested"].(Map)["deep"].(List)[0], 1; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCopySliceIsolation(t *testing.T) {
	orig := []string{"a", "b"}
	dup := Copy(orig).([]string)
	dup[0] = "z"
	if got, want := orig[0], "a"; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCopyBytes(t *testing.T) {
	orig := []byte("abc")
	dup := Copy(orig).([]byte)
	dup[0] = 'z'
	if got, want := string(orig), "abc"; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

type record struct {
	Name string
	Tags []string
}

func TestCopyStructPointer(t *testing.T) {
	orig := &record{Name: "n", Tags: []string{"x"}}
	dup := Copy(orig).(*record)
	if dup == orig {
		t.Fatal("pointer was not duplicated")
	}
	dup.Tags[0] = "y"
	if got, want := orig.Tags[0], "x"; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCopyYAMLMap(t *testing.T) {
	orig := map[interface{}]interface{}{"k": List{1}}
	dup := Copy(orig).(map[interface{}]interface{})
	dup["k"].(List)[0] = 2
	if got, want := orig["k"].(List)[0], 1; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}
