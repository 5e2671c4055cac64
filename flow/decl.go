// Copyright 2025 The Goflyde Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package flow

import (
	"fmt"

	yaml "gopkg.in/yaml.v2"

	"github.com/trustmaster/goflyde/errors"
	"github.com/trustmaster/goflyde/node"
	"github.com/trustmaster/goflyde/values"
)

// A Decl is a parsed flow declaration: the imports table and the
// root node. The original document is retained as an ordered
// yaml.MapSlice so that pin ids, instance ids, editor layout data
// and unrecognized fields round-trip bit-exact.
type Decl struct {
	Imports []ImportDecl
	Node    *NodeDecl

	raw yaml.MapSlice
}

// An ImportDecl maps an import source — a component module reference
// or the built-in namespace — to the names it provides.
type ImportDecl struct {
	Source string
	Names  []string
}

// A NodeDecl declares a graph node: its identity, external pins,
// child instances and connections.
type NodeDecl struct {
	ID          string
	NodeID      string
	DisplayName string
	Instances   []*InstanceDecl
	Connections []node.Connection
	Inputs      yaml.MapSlice
	Outputs     yaml.MapSlice

	raw yaml.MapSlice
}

// An InstanceDecl declares one instance inside a graph. NodeID names
// a node class, an imported nested flow, or a macro (directly or in
// the generated Name__suffix form); MacroID names a macro
// explicitly. Inline nested graphs carry their own NodeDecl.
type InstanceDecl struct {
	ID          string
	NodeID      string
	MacroID     string
	DisplayName string
	InputConfig map[string]string
	MacroData   values.Map
	Inline      *NodeDecl

	raw yaml.MapSlice
}

// ParseDecl parses a flow declaration document.
func ParseDecl(doc []byte) (*Decl, error) {
	var ms yaml.MapSlice
	if err := yaml.Unmarshal(doc, &ms); err != nil {
		return nil, errors.E("parse", errors.Load, err)
	}
	return parseDecl(ms)
}

func parseDecl(ms yaml.MapSlice) (*Decl, error) {
	d := &Decl{raw: ms}
	if importsRaw, ok := msGet(ms, "imports"); ok {
		imports, ok := asMapSlice(importsRaw)
		if !ok {
			return nil, errors.E("parse", "imports", errors.Load,
				errors.New("imports is not a mapping"))
		}
		for _, item := range imports {
			imp := ImportDecl{Source: fmt.Sprint(item.Key)}
			list, ok := item.Value.([]interface{})
			if !ok {
				return nil, errors.E("parse", imp.Source, errors.Load,
					errors.New("import names are not a list"))
			}
			for _, name := range list {
				imp.Names = append(imp.Names, fmt.Sprint(name))
			}
			d.Imports = append(d.Imports, imp)
		}
	}
	nodeRaw, ok := msGet(ms, "node")
	if !ok {
		return nil, errors.E("parse", errors.Load, errors.New("no node in flow definition"))
	}
	nodeMS, ok := asMapSlice(nodeRaw)
	if !ok {
		return nil, errors.E("parse", "node", errors.Load, errors.New("node is not a mapping"))
	}
	nd, err := parseNode(nodeMS)
	if err != nil {
		return nil, err
	}
	d.Node = nd
	return d, nil
}

func parseNode(ms yaml.MapSlice) (*NodeDecl, error) {
	nd := &NodeDecl{
		ID:          msString(ms, "id"),
		NodeID:      msString(ms, "nodeId"),
		DisplayName: msString(ms, "displayName"),
		raw:         ms,
	}
	if nd.ID == "" {
		nd.ID = nd.NodeID
	}
	if inputsRaw, ok := msGet(ms, "inputs"); ok {
		if inputs, ok := asMapSlice(inputsRaw); ok {
			nd.Inputs = inputs
		}
	}
	if outputsRaw, ok := msGet(ms, "outputs"); ok {
		if outputs, ok := asMapSlice(outputsRaw); ok {
			nd.Outputs = outputs
		}
	}
	if insRaw, ok := msGet(ms, "instances"); ok {
		list, ok := insRaw.([]interface{})
		if !ok {
			return nil, errors.E("parse", nd.ID, errors.Load, errors.New("instances is not a list"))
		}
		for _, e := range list {
			ems, ok := asMapSlice(e)
			if !ok {
				return nil, errors.E("parse", nd.ID, errors.Load, errors.New("instance is not a mapping"))
			}
			ins, err := parseInstance(ems)
			if err != nil {
				return nil, err
			}
			nd.Instances = append(nd.Instances, ins)
		}
	}
	if connsRaw, ok := msGet(ms, "connections"); ok {
		list, ok := connsRaw.([]interface{})
		if !ok {
			return nil, errors.E("parse", nd.ID, errors.Load, errors.New("connections is not a list"))
		}
		for _, e := range list {
			ems, ok := asMapSlice(e)
			if !ok {
				return nil, errors.E("parse", nd.ID, errors.Load, errors.New("connection is not a mapping"))
			}
			conn, err := parseConnection(ems)
			if err != nil {
				return nil, err
			}
			nd.Connections = append(nd.Connections, conn)
		}
	}
	return nd, nil
}

func parseInstance(ms yaml.MapSlice) (*InstanceDecl, error) {
	ins := &InstanceDecl{
		ID:          msString(ms, "id"),
		NodeID:      msString(ms, "nodeId"),
		MacroID:     msString(ms, "macroId"),
		DisplayName: msString(ms, "displayName"),
		raw:         ms,
	}
	if ins.ID == "" {
		return nil, errors.E("parse", errors.Load, errors.New("instance without an id"))
	}
	if cfgRaw, ok := msGet(ms, "inputConfig"); ok {
		if cfg, ok := asMapSlice(cfgRaw); ok {
			ins.InputConfig = map[string]string{}
			for _, item := range cfg {
				ins.InputConfig[fmt.Sprint(item.Key)] = fmt.Sprint(item.Value)
			}
		}
	}
	if dataRaw, ok := msGet(ms, "macroData"); ok {
		if data, ok := toValue(dataRaw).(values.Map); ok {
			ins.MacroData = data
		}
	}
	// An instance carrying its own instances is an inline nested
	// graph.
	if _, ok := msGet(ms, "instances"); ok {
		inline, err := parseNode(ms)
		if err != nil {
			return nil, err
		}
		ins.Inline = inline
	}
	return ins, nil
}

func parseConnection(ms yaml.MapSlice) (node.Connection, error) {
	from, err := parseEndpoint(ms, "from")
	if err != nil {
		return node.Connection{}, err
	}
	to, err := parseEndpoint(ms, "to")
	if err != nil {
		return node.Connection{}, err
	}
	return node.Connection{
		From:    from,
		To:      to,
		Delayed: msBool(ms, "delayed"),
		Hidden:  msBool(ms, "hidden"),
	}, nil
}

func parseEndpoint(ms yaml.MapSlice, key string) (node.Endpoint, error) {
	raw, ok := msGet(ms, key)
	if !ok {
		return node.Endpoint{}, errors.E("parse", key, errors.Load,
			errors.New("connection endpoint missing"))
	}
	ems, ok := asMapSlice(raw)
	if !ok {
		return node.Endpoint{}, errors.E("parse", key, errors.Load,
			errors.New("connection endpoint is not a mapping"))
	}
	ep := node.Endpoint{InsID: msString(ems, "insId"), PinID: msString(ems, "pinId")}
	if ep.InsID == "" || ep.PinID == "" {
		return node.Endpoint{}, errors.E("parse", key, errors.Load,
			errors.New("connection endpoint incomplete"))
	}
	return ep, nil
}

// ToDict serializes the declaration back to its document shape. A
// declaration parsed from a document returns that document's fields
// verbatim, in their original order.
func (d *Decl) ToDict() yaml.MapSlice {
	if d.raw != nil {
		return d.raw
	}
	var ms yaml.MapSlice
	imports := yaml.MapSlice{}
	for _, imp := range d.Imports {
		names := make([]interface{}, len(imp.Names))
		for i, n := range imp.Names {
			names[i] = n
		}
		imports = append(imports, yaml.MapItem{Key: imp.Source, Value: names})
	}
	ms = append(ms, yaml.MapItem{Key: "imports", Value: imports})
	if d.Node != nil {
		ms = append(ms, yaml.MapItem{Key: "node", Value: d.Node.toDict()})
	}
	return ms
}

func (nd *NodeDecl) toDict() yaml.MapSlice {
	if nd.raw != nil {
		return nd.raw
	}
	ms := yaml.MapSlice{
		yaml.MapItem{Key: "id", Value: nd.ID},
	}
	if nd.NodeID != "" {
		ms = append(ms, yaml.MapItem{Key: "nodeId", Value: nd.NodeID})
	}
	if nd.DisplayName != "" {
		ms = append(ms, yaml.MapItem{Key: "displayName", Value: nd.DisplayName})
	}
	if nd.Inputs != nil {
		ms = append(ms, yaml.MapItem{Key: "inputs", Value: nd.Inputs})
	}
	if nd.Outputs != nil {
		ms = append(ms, yaml.MapItem{Key: "outputs", Value: nd.Outputs})
	}
	instances := make([]interface{}, len(nd.Instances))
	for i, ins := range nd.Instances {
		instances[i] = ins.toDict()
	}
	ms = append(ms, yaml.MapItem{Key: "instances", Value: instances})
	connections := make([]interface{}, len(nd.Connections))
	for i, conn := range nd.Connections {
		connections[i] = connToDict(conn)
	}
	ms = append(ms, yaml.MapItem{Key: "connections", Value: connections})
	return ms
}

func (ins *InstanceDecl) toDict() yaml.MapSlice {
	if ins.raw != nil {
		return ins.raw
	}
	ms := yaml.MapSlice{
		yaml.MapItem{Key: "id", Value: ins.ID},
		yaml.MapItem{Key: "nodeId", Value: ins.NodeID},
	}
	if ins.MacroID != "" {
		ms = append(ms, yaml.MapItem{Key: "macroId", Value: ins.MacroID})
	}
	if ins.DisplayName != "" {
		ms = append(ms, yaml.MapItem{Key: "displayName", Value: ins.DisplayName})
	}
	if ins.InputConfig != nil {
		cfg := yaml.MapSlice{}
		for k, v := range ins.InputConfig {
			cfg = append(cfg, yaml.MapItem{Key: k, Value: v})
		}
		ms = append(ms, yaml.MapItem{Key: "inputConfig", Value: cfg})
	}
	return ms
}

func connToDict(conn node.Connection) yaml.MapSlice {
	ms := yaml.MapSlice{
		yaml.MapItem{Key: "from", Value: yaml.MapSlice{
			yaml.MapItem{Key: "insId", Value: conn.From.InsID},
			yaml.MapItem{Key: "pinId", Value: conn.From.PinID},
		}},
		yaml.MapItem{Key: "to", Value: yaml.MapSlice{
			yaml.MapItem{Key: "insId", Value: conn.To.InsID},
			yaml.MapItem{Key: "pinId", Value: conn.To.PinID},
		}},
	}
	if conn.Delayed {
		ms = append(ms, yaml.MapItem{Key: "delayed", Value: true})
	}
	if conn.Hidden {
		ms = append(ms, yaml.MapItem{Key: "hidden", Value: true})
	}
	return ms
}

// msGet looks a key up in an ordered mapping.
func msGet(ms yaml.MapSlice, key string) (interface{}, bool) {
	for _, item := range ms {
		if fmt.Sprint(item.Key) == key {
			return item.Value, true
		}
	}
	return nil, false
}

func msString(ms yaml.MapSlice, key string) string {
	if v, ok := msGet(ms, key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func msBool(ms yaml.MapSlice, key string) bool {
	if v, ok := msGet(ms, key); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

func asMapSlice(v interface{}) (yaml.MapSlice, bool) {
	ms, ok := v.(yaml.MapSlice)
	return ms, ok
}

// toValue converts a decoded YAML value to the payload
// representation: ordered mappings become values.Map, sequences
// become values.List.
func toValue(v interface{}) values.T {
	switch v := v.(type) {
	case yaml.MapSlice:
		m := make(values.Map, len(v))
		for _, item := range v {
			m[fmt.Sprint(item.Key)] = toValue(item.Value)
		}
		return m
	case []interface{}:
		l := make(values.List, len(v))
		for i, e := range v {
			l[i] = toValue(e)
		}
		return l
	default:
		return v
	}
}
