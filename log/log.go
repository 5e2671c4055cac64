// Copyright 2025 The Goflyde Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package log implements leveling and teeing on top of Go's standard
// log package. As with the standard log package, this package
// defines a standard logger available as a package global and via
// package functions. Nodes in a running flow log through loggers
// teed off the standard one, prefixed with the node's instance id.
package log

import (
	"fmt"
	"log"
	"os"
)

// Level defines the level of logging. Higher levels are more
// verbose.
type Level int

const (
	// OffLevel turns logging off.
	OffLevel Level = iota
	// ErrorLevel outputs only error messages.
	ErrorLevel
	// InfoLevel is the standard error level.
	InfoLevel
	// DebugLevel outputs detailed debugging output.
	DebugLevel
)

// An Outputter receives published log messages. Go's
// *log.Logger implements Outputter.
type Outputter interface {
	Output(calldepth int, s string) error
}

// A Logger receives log messages at multiple levels, and publishes
// those messages to its outputter if the level (or logger) is
// active. Nil Loggers ignore all log messages.
type Logger struct {
	// Outputter receives all log messages at or below the Logger's
	// current level.
	Outputter
	// Level defines the publishing level of this Logger.
	Level Level

	parent *Logger
	prefix string
}

// New creates a new Logger that publishes messages at or below the
// provided level to the provided outputter.
func New(out Outputter, level Level) *Logger {
	if level == OffLevel {
		return nil
	}
	return &Logger{
		Outputter: out,
		Level:     level,
	}
}

// Tee constructs a new logger that tees its output to the provided
// outputter and parent logger. Messages published on the returned
// logger are forwarded to the parent with the provided prefix. Out
// may be nil, in which case messages are published only to the
// parent.
func (l *Logger) Tee(out Outputter, prefix string) *Logger {
	if l == nil && out == nil {
		return nil
	}
	var level Level
	if l != nil {
		level = l.Level
	}
	if out != nil && level < InfoLevel {
		level = InfoLevel
	}
	return &Logger{
		Outputter: out,
		Level:     level,
		parent:    l,
		prefix:    prefix,
	}
}

// At tells whether the logger is at or below the provided level.
func (l *Logger) At(level Level) bool {
	return l != nil && level <= l.Level
}

// Print formats a message in the manner of fmt.Print and publishes
// it to the logger at InfoLevel.
func (l *Logger) Print(v ...interface{}) {
	l.print(2, InfoLevel, "", v...)
}

// Printf formats a message in the manner of fmt.Printf and publishes
// it to the logger at InfoLevel.
func (l *Logger) Printf(format string, args ...interface{}) {
	l.printf(2, InfoLevel, "", format, args...)
}

// Error formats a message in the manner of fmt.Print and publishes
// it to the logger at ErrorLevel.
func (l *Logger) Error(v ...interface{}) {
	l.print(2, ErrorLevel, "", v...)
}

// Errorf formats a message in the manner of fmt.Printf and publishes
// it to the logger at ErrorLevel.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.printf(2, ErrorLevel, "", format, args...)
}

// Debug formats a message in the manner of fmt.Print and publishes
// it to the logger at DebugLevel.
func (l *Logger) Debug(v ...interface{}) {
	l.print(2, DebugLevel, "", v...)
}

// Debugf formats a message in the manner of fmt.Printf and publishes
// it to the logger at DebugLevel.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.printf(2, DebugLevel, "", format, args...)
}

func (l *Logger) print(calldepth int, level Level, prefix string, v ...interface{}) {
	if l == nil {
		return
	}
	if l.Outputter != nil && level <= l.Level {
		l.Output(calldepth+1, prefix+fmt.Sprint(v...))
	}
	if l.parent != nil {
		l.parent.print(calldepth+1, level, l.prefix+prefix, v...)
	}
}

func (l *Logger) printf(calldepth int, level Level, prefix, format string, args ...interface{}) {
	if l == nil {
		return
	}
	if l.Outputter != nil && level <= l.Level {
		l.Output(calldepth+1, prefix+fmt.Sprintf(format, args...))
	}
	if l.parent != nil {
		l.parent.printf(calldepth+1, level, l.prefix+prefix, format, args...)
	}
}

// Std is the standard logger, used by package-level logging
// functions.
var Std = New(log.New(os.Stderr, "", log.LstdFlags), InfoLevel)

// Print publishes a message to the standard logger at InfoLevel.
func Print(v ...interface{}) {
	Std.print(2, InfoLevel, "", v...)
}

// Printf publishes a formatted message to the standard logger at
// InfoLevel.
func Printf(format string, args ...interface{}) {
	Std.printf(2, InfoLevel, "", format, args...)
}

// Error publishes a message to the standard logger at ErrorLevel.
func Error(v ...interface{}) {
	Std.print(2, ErrorLevel, "", v...)
}

// Errorf publishes a formatted message to the standard logger at
// ErrorLevel.
func Errorf(format string, args ...interface{}) {
	Std.printf(2, ErrorLevel, "", format, args...)
}

// Debug publishes a message to the standard logger at DebugLevel.
func Debug(v ...interface{}) {
	Std.print(2, DebugLevel, "", v...)
}

// Debugf publishes a formatted message to the standard logger at
// DebugLevel.
func Debugf(format string, args ...interface{}) {
	Std.printf(2, DebugLevel, "", format, args...)
}

// At tells whether the standard logger is at or below the provided
// level.
func At(level Level) bool {
	return Std.At(level)
}
