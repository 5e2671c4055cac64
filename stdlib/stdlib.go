// Copyright 2025 The Goflyde Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package stdlib provides the built-in node library: the closed set
// of parametric macro nodes (InlineValue, GetAttribute, Conditional)
// plus a few general-purpose components (Http, Throttle, Print).
// Importing the package registers everything; flow declarations
// reference the nodes through the built-in namespace.
package stdlib

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/trustmaster/goflyde/errors"
	"github.com/trustmaster/goflyde/node"
	"github.com/trustmaster/goflyde/port"
	"github.com/trustmaster/goflyde/values"
)

func init() {
	node.RegisterMacro("InlineValue", newInlineValue)
	node.RegisterMacro("GetAttribute", newGetAttribute)
	node.RegisterMacro("Conditional", newConditional)
	node.Register("Http", newHTTP)
	node.Register("Throttle", newThrottle)
	node.Register("Print", newPrint)
}

// pinConfig is the macroData shape configuring how a pin receives
// its value: dynamically from upstream, or from a configured
// literal.
type pinConfig struct {
	Type     string
	Value    values.T
	HasValue bool
}

func parsePinConfig(v values.T) (pinConfig, bool) {
	m, ok := v.(values.Map)
	if !ok {
		return pinConfig{}, false
	}
	cfg := pinConfig{}
	if t, ok := m["type"].(string); ok {
		cfg.Type = t
	}
	cfg.Value, cfg.HasValue = m["value"]
	return cfg, true
}

func (c pinConfig) dynamic() bool {
	return c.Type == "dynamic"
}

// applyPinConfig reconfigures a declared input per its macroData
// entry: non-dynamic entries freeze the pin to a static literal,
// dynamic entries make it sticky with an optional initial value.
func applyPinConfig(in *port.Input, cfg pinConfig) {
	if cfg.dynamic() {
		in.SetMode(port.ModeSticky)
		if cfg.HasValue {
			in.SetValue(cfg.Value)
		}
		return
	}
	in.SetMode(port.ModeStatic)
	in.SetValue(cfg.Value)
}

// InlineValue emits a configured constant exactly once, then ends
// its stream.
func newInlineValue(a node.Args) (node.Node, error) {
	raw, ok := a.Config["value"]
	if !ok {
		return nil, errors.New("missing value in InlineValue configuration")
	}
	v := raw
	if cfg, ok := parsePinConfig(raw); ok && cfg.HasValue {
		v = cfg.Value
	}
	if a.DisplayName == "" {
		if label, ok := a.Config["label"].(string); ok {
			a.DisplayName = label
		}
	}
	c := node.New(a).
		WithDescription("Emits a constant value once").
		WithOutputs(port.NewOutput("value", "The constant value"))
	return c.WithProcess(func(in values.Map) (values.T, error) {
		c.Send("value", v)
		c.Stop()
		return nil, nil
	}), nil
}

// GetAttribute extracts an attribute from a mapping or struct by a
// dotted key path.
func newGetAttribute(a node.Args) (node.Node, error) {
	keyRaw, ok := a.Config["key"]
	if !ok {
		return nil, errors.New("missing 'key' in GetAttribute configuration")
	}
	keyCfg, ok := parsePinConfig(keyRaw)
	if !ok {
		return nil, errors.New("invalid 'key' in GetAttribute configuration")
	}
	keyIn := port.NewInput("key", "The attribute name").WithType("string")
	applyPinConfig(keyIn, keyCfg)
	c := node.New(a).
		WithDescription("Gets an attribute from an object or mapping").
		WithInputs(
			port.NewInput("object", "The object or mapping"),
			keyIn,
		).
		WithOutputs(port.NewOutput("value", "The attribute value"))
	return c.WithProcess(func(in values.Map) (values.T, error) {
		object := in["object"]
		key, _ := in["key"].(string)
		return values.Map{"value": attributePath(object, key)}, nil
	}), nil
}

// attributePath resolves a dotted key path against mappings and
// struct fields. A missing step resolves to nil.
func attributePath(object values.T, path string) values.T {
	v := object
	for _, key := range strings.Split(path, ".") {
		v = attribute(v, key)
		if v == nil {
			return nil
		}
	}
	return v
}

func attribute(object values.T, key string) values.T {
	switch o := object.(type) {
	case values.Map:
		return o[key]
	case map[interface{}]interface{}:
		return o[key]
	}
	rv := reflect.ValueOf(object)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		mv := rv.MapIndex(reflect.ValueOf(key))
		if !mv.IsValid() {
			return nil
		}
		return mv.Interface()
	case reflect.Struct:
		fv := rv.FieldByName(key)
		if !fv.IsValid() || !fv.CanInterface() {
			return nil
		}
		return fv.Interface()
	}
	return nil
}

// conditionType enumerates the closed set of condition kinds.
type conditionType string

const (
	condEqual        conditionType = "EQUAL"
	condNotEqual     conditionType = "NOT_EQUAL"
	condContains     conditionType = "CONTAINS"
	condNotContains  conditionType = "NOT_CONTAINS"
	condRegexMatches conditionType = "REGEX_MATCHES"
	condExists       conditionType = "EXISTS"
	condNotExists    conditionType = "NOT_EXISTS"
)

// Conditional evaluates a configured condition against its operands
// and routes the left operand to the true or false output.
func newConditional(a node.Args) (node.Node, error) {
	condRaw, ok := a.Config["condition"].(values.Map)
	if !ok {
		return nil, errors.New("missing 'condition' in Conditional configuration")
	}
	condName, _ := condRaw["type"].(string)
	cond := conditionType(condName)
	switch cond {
	case condEqual, condNotEqual, condContains, condNotContains,
		condRegexMatches, condExists, condNotExists:
	default:
		return nil, errors.Errorf("unsupported condition type: %q", condName)
	}
	left := port.NewInput("leftOperand", "Left operand of the condition")
	right := port.NewInput("rightOperand", "Right operand of the condition")
	if cfg, ok := parsePinConfig(a.Config["leftOperand"]); ok && !cfg.dynamic() {
		applyPinConfig(left, cfg)
	}
	if cfg, ok := parsePinConfig(a.Config["rightOperand"]); ok && !cfg.dynamic() {
		applyPinConfig(right, cfg)
	}
	c := node.New(a).
		WithDescription("Routes the input by a condition").
		WithInputs(left, right).
		WithOutputs(
			port.NewOutput("true", "Output when the condition is true"),
			port.NewOutput("false", "Output when the condition is false"),
		)
	return c.WithProcess(func(in values.Map) (values.T, error) {
		l, r := in["leftOperand"], in["rightOperand"]
		result, err := evaluate(cond, l, r)
		if err != nil {
			return nil, err
		}
		if result {
			return values.Map{"true": l}, nil
		}
		return values.Map{"false": l}, nil
	}), nil
}

func evaluate(cond conditionType, left, right values.T) (bool, error) {
	switch cond {
	case condEqual:
		return values.Equal(left, right), nil
	case condNotEqual:
		return !values.Equal(left, right), nil
	case condContains:
		return contains(left, right), nil
	case condNotContains:
		return !contains(left, right), nil
	case condRegexMatches:
		pattern, ok := right.(string)
		if !ok {
			return false, errors.New("REGEX_MATCHES needs a string pattern")
		}
		s, ok := left.(string)
		if !ok {
			return false, errors.New("REGEX_MATCHES needs a string operand")
		}
		return regexp.MatchString(pattern, s)
	case condExists:
		return exists(left), nil
	case condNotExists:
		return !exists(left), nil
	}
	return false, errors.Errorf("unsupported condition type: %q", cond)
}

func contains(left, right values.T) bool {
	switch l := left.(type) {
	case string:
		s, ok := right.(string)
		return ok && strings.Contains(l, s)
	case values.List:
		for _, e := range l {
			if values.Equal(e, right) {
				return true
			}
		}
		return false
	case values.Map:
		key, ok := right.(string)
		if !ok {
			return false
		}
		_, ok = l[key]
		return ok
	}
	return false
}

func exists(v values.T) bool {
	switch v := v.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case values.List:
		return len(v) > 0
	case values.Map:
		return len(v) > 0
	}
	return true
}
