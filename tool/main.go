// Copyright 2025 The Goflyde Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package tool implements the goflyde command.
package tool

import (
	"context"
	"flag"
	"fmt"
	"io"
	golog "log"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/trustmaster/goflyde/log"
)

// Func is the type of a command function.
type Func func(*Cmd, context.Context, ...string)

// Cmd holds the flag definitions and runtime objects required for
// tool invocations.
type Cmd struct {
	// Commands contains an additional set of invocable commands.
	Commands map[string]Func

	// Intro is an additional introduction printed after the standard
	// one.
	Intro string

	// Version is the tool version reported by the version command.
	Version string

	// The standard output and error as defined by this command.
	Stdout, Stderr io.Writer

	Log *log.Logger

	logFlag      string
	queueFlag    int
	escalateFlag bool

	flags   *flag.FlagSet
	onexits []func()
}

var commands = map[string]Func{
	"run":     (*Cmd).run,
	"gen":     (*Cmd).gen,
	"version": (*Cmd).versionCmd,
}

var intro = `The goflyde command runs flow-based programs and maintains their
editor-side metadata.

The command comprises a set of subcommands; the list of supported
commands can be obtained by running

	goflyde -help

Each subcommand can in turn be invoked with -help, displaying its
usage and help text. For example, the following displays help for
the "run" command.

	goflyde run -help`

var help = `Goflyde runs flow-based programs defined in .flyde files.

Usage of goflyde:
	goflyde [flags] <command> [args]`

func (c *Cmd) commandSet() map[string]Func {
	cmds := map[string]Func{}
	for name, f := range commands {
		cmds[name] = f
	}
	for name, f := range c.Commands {
		cmds[name] = f
	}
	return cmds
}

// Flags initializes and returns the toplevel flag set.
func (c *Cmd) Flags() *flag.FlagSet {
	if c.flags == nil {
		c.flags = flag.NewFlagSet("goflyde", flag.ExitOnError)
		c.flags.Usage = func() { c.usage(c.flags) }
		logLevel := strings.ToLower(os.Getenv("LOG_LEVEL"))
		if logLevel == "" {
			logLevel = "info"
		}
		c.flags.StringVar(&c.logFlag, "log", logLevel, "set the log level: off, error, info, debug")
		c.flags.IntVar(&c.queueFlag, "queuedepth", 0, "bound connection queues to this depth")
		c.flags.BoolVar(&c.escalateFlag, "stoponerror", false, "stop the whole flow when any worker fails")
	}
	return c.flags
}

func (c *Cmd) usage(flags *flag.FlagSet) {
	fmt.Fprintln(os.Stderr, help)
	fmt.Fprintln(os.Stderr, "Goflyde commands:")
	var cmds []string
	for name := range c.commandSet() {
		cmds = append(cmds, name)
	}
	sort.Strings(cmds)
	for _, name := range cmds {
		fmt.Fprintln(os.Stderr, "\t"+name)
	}
	fmt.Fprintln(os.Stderr, "Global flags:")
	flags.PrintDefaults()
	c.Exit(2)
}

// Main configures logging from the command line flags and then
// invokes the requested command. The caller is expected to have
// parsed the flagset before calling Main. Main should only be called
// once.
func (c *Cmd) Main() {
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}
	if c.Stderr == nil {
		c.Stderr = os.Stderr
	}
	flags := c.Flags()
	if flags.NArg() == 0 {
		fmt.Fprintln(os.Stderr, intro)
		if c.Intro != "" {
			fmt.Fprintln(os.Stderr)
			fmt.Fprintln(os.Stderr, c.Intro)
		}
		c.Exit(2)
	}
	cmd := flags.Arg(0)
	fn := c.commandSet()[cmd]
	if fn == nil {
		flags.Usage()
	}
	var (
		level     log.Level
		logflags  int
		logprefix = "goflyde: "
	)
	switch c.logFlag {
	case "off":
		level = log.OffLevel
	case "error":
		level = log.ErrorLevel
	case "info":
		level = log.InfoLevel
	case "debug":
		level = log.DebugLevel
	default:
		c.Fatalf("unrecognized log level %v", c.logFlag)
	}
	if level > log.InfoLevel {
		logflags = golog.LstdFlags
		logprefix = ""
	}

	// Set the system wide logger with the same level and output as
	// the one that's threaded through Cmd.
	log.Std = log.New(golog.New(c.Stderr, logprefix, logflags), level)
	c.Log = log.Std

	// Create a context and cancel it if we receive an interrupt. The
	// second interrupt results in a hard exit.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigc := make(chan os.Signal, 2)
	signal.Notify(sigc, os.Interrupt)
	go func() {
		<-sigc
		c.Log.Error("interrupt: stopping the flow")
		cancel()
		<-sigc
		c.Log.Error("second interrupt: exiting")
		c.Exit(1)
	}()

	fn(c, ctx, flags.Args()[1:]...)
	c.Exit(0)
}

// Fatal prints the error to stderr and exits with code 1.
func (c *Cmd) Fatal(v ...interface{}) {
	fmt.Fprintln(os.Stderr, v...)
	c.Exit(1)
}

// Fatalf formats the message to stderr and exits with code 1.
func (c *Cmd) Fatalf(format string, v ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", v...)
	c.Exit(1)
}

// Errorln prints the arguments to the command's stderr.
func (c *Cmd) Errorln(v ...interface{}) {
	fmt.Fprintln(c.Stderr, v...)
}

// Println prints the arguments to the command's stdout.
func (c *Cmd) Println(v ...interface{}) {
	fmt.Fprintln(c.Stdout, v...)
}

// Printf formats to the command's stdout.
func (c *Cmd) Printf(format string, v ...interface{}) {
	fmt.Fprintf(c.Stdout, format, v...)
}

func (c *Cmd) onexit(f func()) {
	c.onexits = append(c.onexits, f)
}

// Exit runs the registered exit hooks and terminates the process
// with the given status.
func (c *Cmd) Exit(code int) {
	for _, f := range c.onexits {
		f()
	}
	os.Exit(code)
}

func (c *Cmd) versionCmd(ctx context.Context, args ...string) {
	version := c.Version
	if version == "" {
		version = "unknown"
	}
	c.Println("goflyde " + version)
}
