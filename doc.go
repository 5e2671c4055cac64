// Copyright 2025 The Goflyde Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package goflyde implements a flow-based programming runtime. A
// flow is a declarative graph of interconnected nodes loaded from a
// .flyde file; every leaf node runs as its own worker, pulling
// values from its input ports, invoking its process body, and
// pushing results to bounded queues wired between nodes. End of
// stream propagates through the queues as a sentinel value, so the
// whole network drains and shuts down deterministically once its
// sources are exhausted.
//
// The runtime is organized in a handful of packages:
//
//	port	input/output endpoints, queues, and the EOS sentinel
//	node	components, graphs, and the node type registry
//	flow	flow loading, execution, and serialization
//	stdlib	the built-in node library
//	tool	the goflyde command (run, gen)
//
// The cmd/goflyde binary runs flows from the command line. User
// component packages register their node types with the node
// registry at init time and are linked into the binary that runs
// their flows.
package goflyde
