// Copyright 2025 The Goflyde Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package values defines the representation of payloads carried on
// flow connections. Payloads are dynamically shaped: a value is one
// of the interchange kinds (nil, boolean, number, string, binary,
// sequence, mapping) or an opaque user value. The runtime never
// inspects payload contents; user nodes downcast as needed.
//
// Values are represented by values.T, defined as
//
//	type T = interface{}
//
// which is done to clarify code that handles flow payloads.
package values

import (
	"reflect"
)

// T is the type of a payload value. It is just an alias to
// interface{}, but is used throughout code for clarity.
type T = interface{}

// Map is the type of mapping values, as decoded from YAML
// declarations and as returned by process bodies addressing output
// pins by id.
type Map = map[string]T

// List is the type of sequence values.
type List = []T

// Copy returns a deep copy of v. Sequences, mappings, binary data
// and pointed-to structs are duplicated recursively; scalar kinds
// are returned as is. Opaque values that cannot be duplicated
// (channels, functions) are passed through by reference.
func Copy(v T) T {
	switch v := v.(type) {
	case nil:
		return nil
	case bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, complex64, complex128:
		return v
	case []byte:
		c := make([]byte, len(v))
		copy(c, v)
		return c
	case List:
		c := make(List, len(v))
		for i := range v {
			c[i] = Copy(v[i])
		}
		return c
	case Map:
		c := make(Map, len(v))
		for k, e := range v {
			c[k] = Copy(e)
		}
		return c
	case map[interface{}]interface{}:
		// YAML mappings with non-string keys decode to this shape.
		c := make(map[interface{}]interface{}, len(v))
		for k, e := range v {
			c[Copy(k)] = Copy(e)
		}
		return c
	}
	rv := reflect.ValueOf(v)
	return copyValue(rv).Interface()
}

func copyValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		c := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			c.Index(i).Set(copyAssignable(v.Index(i)))
		}
		return c
	case reflect.Array:
		c := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			c.Index(i).Set(copyAssignable(v.Index(i)))
		}
		return c
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		c := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			c.SetMapIndex(iter.Key(), copyAssignable(iter.Value()))
		}
		return c
	case reflect.Ptr:
		if v.IsNil() {
			return v
		}
		c := reflect.New(v.Type().Elem())
		c.Elem().Set(copyAssignable(v.Elem()))
		return c
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		c := reflect.New(v.Type()).Elem()
		c.Set(reflect.ValueOf(Copy(v.Interface())))
		return c
	case reflect.Struct:
		c := reflect.New(v.Type()).Elem()
		c.Set(v)
		for i := 0; i < v.NumField(); i++ {
			f := c.Field(i)
			if !f.CanSet() {
				continue
			}
			f.Set(copyAssignable(v.Field(i)))
		}
		return c
	default:
		// Scalars and opaque kinds (chan, func) pass through.
		return v
	}
}

func copyAssignable(v reflect.Value) reflect.Value {
	c := copyValue(v)
	if !c.Type().AssignableTo(v.Type()) {
		return v
	}
	return c
}

// Equal tells whether values a and b are structurally equal.
func Equal(a, b T) bool {
	return reflect.DeepEqual(a, b)
}
