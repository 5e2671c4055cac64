// Copyright 2025 The Goflyde Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package flow

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/trustmaster/goflyde/errors"
	"github.com/trustmaster/goflyde/log"
	"github.com/trustmaster/goflyde/node"
	"github.com/trustmaster/goflyde/port"
)

// BuiltinNamespace is the import source resolved against the
// built-in node library instead of user packages.
const BuiltinNamespace = "@flyde/stdlib"

// A symbol is a resolved import name: a constructor from the
// registry or macro table, or a nested flow file to load on demand.
type symbol struct {
	ctor node.Constructor
	path string
}

// A loader resolves one declaration's imports and instantiates its
// node tree. Nested flow files are loaded recursively with their own
// imports; the set of files in flight detects cyclic imports, and
// parsed files are cached so each is read once.
type loader struct {
	dir     string
	symbols map[string]symbol
	loading map[string]bool
	cache   map[string]*Decl
	logger  *log.Logger
}

func newLoader(dir string, logger *log.Logger) *loader {
	return &loader{
		dir:     dir,
		symbols: map[string]symbol{},
		loading: map[string]bool{},
		cache:   map[string]*Decl{},
		logger:  logger,
	}
}

// sub returns a loader for a nested flow file, sharing the cycle
// detection and parse cache state.
func (l *loader) sub(dir string) *loader {
	return &loader{
		dir:     dir,
		symbols: map[string]symbol{},
		loading: l.loading,
		cache:   l.cache,
		logger:  l.logger,
	}
}

func isBuiltin(source string) bool {
	switch source {
	case BuiltinNamespace, "stdlib", "flyde.stdlib":
		return true
	}
	return false
}

// resolveImports binds every imported name once. Built-in names
// resolve against the macro table and the registry; names from a
// .flyde source resolve to that file; all other names must have been
// registered by a linked-in component package.
func (l *loader) resolveImports(imports []ImportDecl) error {
	for _, imp := range imports {
		for _, name := range imp.Names {
			if _, ok := l.symbols[name]; ok {
				continue
			}
			switch {
			case isBuiltin(imp.Source):
				ctor, ok := node.LookupMacro(name)
				if !ok {
					ctor, ok = node.Lookup(name)
				}
				if !ok {
					return errors.E("import", name, errors.Load,
						errors.Errorf("no built-in node %q", name))
				}
				l.symbols[name] = symbol{ctor: ctor}
			case strings.HasSuffix(imp.Source, ".flyde"):
				path := imp.Source
				if !filepath.IsAbs(path) {
					path = filepath.Join(l.dir, path)
				}
				l.symbols[name] = symbol{path: path}
			default:
				ctor, ok := node.Lookup(name)
				if !ok {
					return errors.E("import", name, errors.Load,
						errors.Errorf("node %q from %s is not registered; link its package into the binary", name, imp.Source))
				}
				l.symbols[name] = symbol{ctor: ctor}
			}
			l.logger.Debugf("resolved %s from %s", name, imp.Source)
		}
	}
	return nil
}

// buildGraph assembles the graph declared by nd under the given
// instance id.
func (l *loader) buildGraph(nd *NodeDecl, id string, onError node.ErrorPolicy) (*node.Graph, error) {
	spec := node.GraphSpec{
		ID:          id,
		NodeTypeID:  nd.NodeID,
		DisplayName: nd.DisplayName,
		OnError:     onError,
		Log:         l.logger,
	}
	if spec.NodeTypeID == "" {
		spec.NodeTypeID = nd.ID
	}
	for _, item := range nd.Inputs {
		pin := fmt.Sprint(item.Key)
		gp := port.NewGraphPort(pin, pinDescription(item.Value))
		if pm, ok := asMapSlice(item.Value); ok && msString(pm, "mode") == "optional" {
			gp.AsOptional()
		}
		spec.Inputs = append(spec.Inputs, gp)
	}
	for _, item := range nd.Outputs {
		pin := fmt.Sprint(item.Key)
		gp := port.NewGraphPort(pin, pinDescription(item.Value))
		if pm, ok := asMapSlice(item.Value); ok {
			if mode, ok := port.ParseOutputMode(msString(pm, "mode")); ok {
				gp.WithMode(mode)
			}
			gp.Out().Delayed = msBool(pm, "delayed")
		}
		spec.Outputs = append(spec.Outputs, gp)
	}
	for _, ins := range nd.Instances {
		n, err := l.instantiate(ins, onError)
		if err != nil {
			return nil, err
		}
		spec.Instances = append(spec.Instances, n)
	}
	for _, conn := range nd.Connections {
		// Edges addressing the declared node itself splice to the
		// graph's external ports.
		if conn.From.InsID == nd.ID || conn.From.InsID == "__this" {
			conn.From.InsID = id
		}
		if conn.To.InsID == nd.ID || conn.To.InsID == "__this" {
			conn.To.InsID = id
		}
		spec.Connections = append(spec.Connections, conn)
	}
	return node.NewGraph(spec)
}

func pinDescription(v interface{}) string {
	if ms, ok := asMapSlice(v); ok {
		return msString(ms, "description")
	}
	return ""
}

// instantiate builds one child instance: an inline nested graph, a
// macro (explicit or Name__suffix), a registered node class, or an
// imported nested flow.
func (l *loader) instantiate(ins *InstanceDecl, onError node.ErrorPolicy) (node.Node, error) {
	if ins.Inline != nil {
		return l.buildGraph(ins.Inline, ins.ID, onError)
	}
	a := node.Args{
		ID:          ins.ID,
		NodeTypeID:  ins.NodeID,
		DisplayName: ins.DisplayName,
		InputConfig: ins.InputConfig,
		Config:      ins.MacroData,
		Dir:         l.dir,
		Log:         l.logger,
	}
	if ins.MacroID != "" {
		ctor, ok := node.LookupMacro(ins.MacroID)
		if !ok {
			return nil, errors.E("instantiate", ins.ID, errors.Load,
				errors.Errorf("unknown macro %q", ins.MacroID))
		}
		a.NodeTypeID = ins.MacroID
		return construct(ctor, a)
	}
	if name, ok := node.IsMacro(ins.NodeID); ok {
		ctor, _ := node.LookupMacro(name)
		a.NodeTypeID = name
		return construct(ctor, a)
	}
	sym, ok := l.symbols[ins.NodeID]
	if !ok {
		return nil, errors.E("instantiate", ins.ID, errors.Load,
			errors.Errorf("unknown nodeId %q", ins.NodeID))
	}
	if sym.path != "" {
		return l.loadNested(sym.path, ins, onError)
	}
	return construct(sym.ctor, a)
}

func construct(ctor node.Constructor, a node.Args) (node.Node, error) {
	n, err := ctor(a)
	if err != nil {
		return nil, errors.E("instantiate", a.ID, errors.Load, err)
	}
	return n, nil
}

// loadNested loads a nested flow file as a subgraph instance.
func (l *loader) loadNested(path string, ins *InstanceDecl, onError node.ErrorPolicy) (node.Node, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.E("load", path, errors.Load, err)
	}
	if l.loading[abs] {
		return nil, errors.E("load", path, errors.Load, errors.New("cyclic import"))
	}
	decl, ok := l.cache[abs]
	if !ok {
		doc, err := os.ReadFile(abs)
		if err != nil {
			return nil, errors.E("load", path, errors.Load, err)
		}
		decl, err = ParseDecl(doc)
		if err != nil {
			return nil, errors.E("load", path, err)
		}
		l.cache[abs] = decl
	}
	l.loading[abs] = true
	defer delete(l.loading, abs)
	sub := l.sub(filepath.Dir(abs))
	if err := sub.resolveImports(decl.Imports); err != nil {
		return nil, err
	}
	return sub.buildGraph(decl.Node, ins.ID, onError)
}
