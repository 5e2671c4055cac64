// Copyright 2025 The Goflyde Authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package port

import (
	"github.com/trustmaster/goflyde/values"
)

// A Queue is the bounded buffer behind a connection. It is a
// standard multi-producer, multi-consumer queue: Put blocks while
// the queue is full (backpressure), Get blocks while it is empty. A
// queue is owned by the single input it feeds; upstream outputs hold
// only a Sender view used to push into it.
type Queue struct {
	c chan values.T
}

// NewQueue returns a queue with the given capacity. A non-positive
// depth selects DefaultDepth.
func NewQueue(depth int) *Queue {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Queue{c: make(chan values.T, depth)}
}

// Put enqueues v, blocking while the queue is full.
func (q *Queue) Put(v values.T) {
	q.c <- v
}

// TryPut enqueues v if there is room and reports whether it did.
func (q *Queue) TryPut(v values.T) bool {
	select {
	case q.c <- v:
		return true
	default:
		return false
	}
}

// Get dequeues one item, blocking while the queue is empty.
func (q *Queue) Get() values.T {
	return <-q.c
}

// TryGet dequeues one item if one is buffered.
func (q *Queue) TryGet() (values.T, bool) {
	select {
	case v := <-q.c:
		return v, true
	default:
		return nil, false
	}
}

// Len returns the number of buffered items.
func (q *Queue) Len() int {
	return len(q.c)
}

// Empty tells whether the queue has no buffered items.
func (q *Queue) Empty() bool {
	return len(q.c) == 0
}
