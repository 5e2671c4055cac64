// Copyright 2025 The Goflyde Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tool

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/traverse"
	"golang.org/x/sync/errgroup"

	"github.com/trustmaster/goflyde/flow"
	"github.com/trustmaster/goflyde/node"
	"github.com/trustmaster/goflyde/port"
)

func (c *Cmd) gen(ctx context.Context, args ...string) {
	flags := flag.NewFlagSet("gen", flag.ExitOnError)
	help := `Gen regenerates the editor-side metadata for a directory of
components: a TypeScript definition for every registered node type,
written next to the directory's flow files so the visual editor can
offer them.`
	out := flags.String("o", "", "output file (defaults to <dir>/<dir>.flyde.ts)")
	c.Parse(flags, args, help, "gen path/to/components")
	if flags.NArg() != 1 {
		flags.Usage()
	}
	dir := flags.Arg(0)

	g, ctx := errgroup.WithContext(ctx)

	// Verify the directory's flow files load while the definitions
	// are generated.
	var flows []string
	g.Go(func() error {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".flyde") {
				return nil
			}
			flows = append(flows, path)
			return nil
		})
		if err != nil {
			return err
		}
		return traverse.Each(len(flows), func(i int) error {
			_, err := flow.FromFile(flows[i], flow.Config{Log: c.Log})
			if err != nil {
				c.Log.Errorf("%s: %v", flows[i], err)
			}
			return nil
		})
	})

	names := node.Names()
	defs := make([]string, len(names))
	g.Go(func() error {
		return traverse.Each(len(names), func(i int) error {
			def, err := typescriptDef(names[i])
			if err != nil {
				c.Log.Debugf("skipping %s: %v", names[i], err)
				return nil
			}
			defs[i] = def
			return nil
		})
	})

	if err := g.Wait(); err != nil {
		c.Fatal(err)
	}

	target := *out
	if target == "" {
		base := filepath.Base(dir)
		if base == "." || base == string(filepath.Separator) {
			base = "nodes"
		}
		target = filepath.Join(dir, base+".flyde.ts")
	}
	var b strings.Builder
	b.WriteString(`import { CodeNode } from "@flyde/core";` + "\n")
	n := 0
	for _, def := range defs {
		if def == "" {
			continue
		}
		b.WriteString("\n")
		b.WriteString(def)
		n++
	}
	if err := os.WriteFile(target, []byte(b.String()), 0666); err != nil {
		c.Fatal(err)
	}
	c.Printf("wrote %d node definitions to %s (%d flow files checked)\n", n, target, len(flows))
}

// typescriptDef renders the editor-facing definition of a registered
// node type by introspecting a prototype instance. Node types whose
// constructors need configuration are skipped.
func typescriptDef(name string) (string, error) {
	ctor, ok := node.Lookup(name)
	if !ok {
		return "", fmt.Errorf("not registered")
	}
	proto, err := ctor(node.Args{ID: name})
	if err != nil {
		return "", err
	}
	c, ok := proto.(*node.Component)
	if !ok {
		return "", fmt.Errorf("not a component")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "export const %s: CodeNode = {\n", name)
	fmt.Fprintf(&b, "  id: %q,\n", name)
	fmt.Fprintf(&b, "  description: %q,\n", c.Description())
	b.WriteString("  inputs: {\n")
	for _, ip := range c.Ins() {
		in := ip.(*port.Input)
		fmt.Fprintf(&b, "    %s: { description: %q },\n", in.ID(), in.Description())
	}
	b.WriteString("  },\n")
	b.WriteString("  outputs: {\n")
	for _, op := range c.Outs() {
		out := op.(*port.Output)
		fmt.Fprintf(&b, "    %s: { description: %q },\n", out.ID(), out.Description())
	}
	b.WriteString("  },\n")
	b.WriteString("  run: () => { return; },\n")
	b.WriteString("};\n")
	return b.String(), nil
}
