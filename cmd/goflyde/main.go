// Copyright 2025 The Goflyde Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package main

import (
	"os"

	"github.com/trustmaster/goflyde/tool"

	// Register the built-in node library.
	_ "github.com/trustmaster/goflyde/stdlib"
)

func main() {
	cmd := &tool.Cmd{
		Version: "0.1.0",
	}
	cmd.Flags().Parse(os.Args[1:])
	cmd.Main()
}
