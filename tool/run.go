// Copyright 2025 The Goflyde Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tool

import (
	"context"
	"flag"

	"github.com/trustmaster/goflyde/flow"
	"github.com/trustmaster/goflyde/node"
)

func (c *Cmd) run(ctx context.Context, args ...string) {
	flags := flag.NewFlagSet("run", flag.ExitOnError)
	help := `Run loads the flow defined in the named .flyde file and executes
it until its sources are exhausted or the process is interrupted.

The exit code is 0 on a clean shutdown, 1 on a load error, and 2
when a worker failed.`
	c.Parse(flags, args, help, "run path/to/flow.flyde")
	if flags.NArg() != 1 {
		flags.Usage()
	}
	path := flags.Arg(0)

	cfg := flow.Config{
		QueueDepth: c.queueFlag,
		Log:        c.Log,
	}
	if c.escalateFlag {
		cfg.OnError = node.StopOnError
	}
	f, err := flow.FromFile(path, cfg)
	if err != nil {
		c.Fatal(err)
	}
	c.Log.Debugf("loaded flow %s", path)
	f.Run()
	// An interrupt requests a stop and then terminates the flow,
	// unblocking workers that wait on empty inputs.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			f.Stop()
			f.Terminate()
		case <-done:
		}
	}()
	<-f.Stopped()
	f.Shutdown()
	if err := f.Err(); err != nil {
		c.Errorln(err)
		c.Exit(2)
	}
}

// Parse parses the provided args against the flag set, printing the
// help and usage string on -help.
func (c *Cmd) Parse(flags *flag.FlagSet, args []string, help, usage string) {
	flags.Usage = func() {
		c.Errorln("usage: goflyde " + usage)
		c.Errorln(help)
		flags.PrintDefaults()
		c.Exit(2)
	}
	flags.Parse(args)
}
