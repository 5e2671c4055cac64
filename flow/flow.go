// Copyright 2025 The Goflyde Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package flow loads declarative flow files and runs them. A Flow is
// the root container: it owns the top-level graph, resolves the
// declaration's imports to concrete node classes, starts and stops
// the network, and serializes the live graph back to its declaration
// shape.
package flow

import (
	"io"
	"os"
	"path/filepath"

	"github.com/grailbio/base/sync/once"
	yaml "gopkg.in/yaml.v2"

	"github.com/trustmaster/goflyde/errors"
	"github.com/trustmaster/goflyde/log"
	"github.com/trustmaster/goflyde/node"
	"github.com/trustmaster/goflyde/port"
)

// Config stores process-level flow configuration.
type Config struct {
	// QueueDepth bounds connection queues. Zero selects the default.
	QueueDepth int
	// OnError selects how graphs react to a failing worker.
	OnError node.ErrorPolicy
	// Log receives runtime log messages. Nil selects the standard
	// logger.
	Log *log.Logger
}

// Merge merges config d into config c, with d taking precedence.
func (c *Config) Merge(d Config) {
	if d.QueueDepth != 0 {
		c.QueueDepth = d.QueueDepth
	}
	if d.OnError != node.ContinueOnError {
		c.OnError = d.OnError
	}
	if d.Log != nil {
		c.Log = d.Log
	}
}

// A Flow is a loaded flow: the parsed declaration, the import table,
// and the root graph built from it. Run executes the root graph on
// its own workers; Stopped is closed exactly once, when the root
// graph has finished.
type Flow struct {
	decl *Decl
	root *node.Graph
	path string
	cfg  Config

	shutdownOnce once.Task
}

// FromFile reads a flow declaration from the named file and builds
// its graph. Relative component flow files referenced by the
// declaration resolve against the file's directory.
func FromFile(path string, cfg Config) (*Flow, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.E("load", path, errors.Load, err)
	}
	f, err := FromYAML(doc, filepath.Dir(path), cfg)
	if err != nil {
		return nil, err
	}
	f.path = path
	return f, nil
}

// FromYAML builds a flow from a declaration document. Relative
// component flow files resolve against dir.
func FromYAML(doc []byte, dir string, cfg Config) (*Flow, error) {
	decl, err := ParseDecl(doc)
	if err != nil {
		return nil, err
	}
	return fromDecl(decl, dir, cfg)
}

func fromDecl(decl *Decl, dir string, cfg Config) (*Flow, error) {
	if cfg.QueueDepth > 0 {
		port.DefaultDepth = cfg.QueueDepth
	}
	logger := cfg.Log
	if logger == nil {
		logger = log.Std
	}
	l := newLoader(dir, logger)
	if err := l.resolveImports(decl.Imports); err != nil {
		return nil, err
	}
	root, err := l.buildGraph(decl.Node, decl.Node.ID, cfg.OnError)
	if err != nil {
		return nil, err
	}
	return &Flow{decl: decl, root: root, cfg: cfg}, nil
}

// Root returns the flow's top-level graph.
func (f *Flow) Root() *node.Graph {
	return f.root
}

// Imports returns the declaration's import table.
func (f *Flow) Imports() []ImportDecl {
	return f.decl.Imports
}

// Path returns the file the flow was loaded from, if any.
func (f *Flow) Path() string {
	return f.path
}

// Run starts the root graph and returns immediately. The caller may
// wait on Stopped.
func (f *Flow) Run() {
	f.root.Run()
}

// RunSync runs the flow and blocks until it has stopped, then
// invokes the shutdown hook of every node reachable from the root.
// It returns the first worker error, if any.
func (f *Flow) RunSync() error {
	f.Run()
	<-f.root.Stopped()
	f.Shutdown()
	return f.root.Err()
}

// Stop requests a cooperative stop of the whole network.
func (f *Flow) Stop() {
	f.root.Stop()
}

// Terminate requests a stop and forcefully unblocks waiting workers.
func (f *Flow) Terminate() {
	f.root.Terminate()
}

// Stopped returns a channel closed when the root graph has finished.
func (f *Flow) Stopped() <-chan struct{} {
	return f.root.Stopped()
}

// Err returns the first worker error once the flow has stopped.
func (f *Flow) Err() error {
	return f.root.Err()
}

// Shutdown runs every node's shutdown hook on the calling goroutine.
// It is idempotent and must be called only after the flow has
// stopped; RunSync does so automatically.
func (f *Flow) Shutdown() {
	f.shutdownOnce.Do(func() error {
		f.root.Shutdown()
		return nil
	})
}

// ToDict serializes the flow back to its declaration shape. Field
// names, pin ids, instance ids and editor layout data are preserved
// verbatim from the loaded document.
func (f *Flow) ToDict() yaml.MapSlice {
	return f.decl.ToDict()
}

// Marshal renders the flow declaration as a YAML document.
func (f *Flow) Marshal() ([]byte, error) {
	return yaml.Marshal(f.ToDict())
}

// Save writes the flow declaration to w.
func (f *Flow) Save(w io.Writer) error {
	doc, err := f.Marshal()
	if err != nil {
		return err
	}
	_, err = w.Write(doc)
	return err
}
