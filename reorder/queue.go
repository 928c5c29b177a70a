/*
DESCRIPTION
  queue.go implements the bounded reorder queue ("ReorderQ") of spec.md §2/§5:
  a small FIFO of at most MaxMiniGopSize buffered frames awaiting mini-GOP
  assembly.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package reorder implements the bounded reorder queue and mini-GOP
// assembler (spec.md §4.3). No frame is ever reordered relative to another —
// the queue only buffers, it does not reorder — mini-GOP assembly picks how
// many buffered frames to release as one unit.
package reorder

import (
	"github.com/ausocean/aenc/frame"
	"github.com/pkg/errors"
)

// ErrQueueFull is returned by Push when the queue is already at capacity.
var ErrQueueFull = errors.New("reorder: queue is at capacity")

// Queue is a small bounded FIFO of buffered frame descriptors, no dynamic
// growth expected beyond its configured capacity (spec.md §9).
type Queue struct {
	frames   []frame.Descriptor
	capacity int
}

// NewQueue returns an empty Queue bounded to capacity frames.
func NewQueue(capacity int) *Queue {
	return &Queue{capacity: capacity}
}

// Len returns the number of buffered frames.
func (q *Queue) Len() int { return len(q.frames) }

// Full reports whether the queue is at capacity.
func (q *Queue) Full() bool { return len(q.frames) >= q.capacity }

// Push appends f to the back of the queue.
func (q *Queue) Push(f frame.Descriptor) error {
	if q.Full() {
		return errors.Wrapf(ErrQueueFull, "capacity %d", q.capacity)
	}
	q.frames = append(q.frames, f)
	return nil
}

// At returns the frame at position i (0 is the front of the queue) without
// removing it. At panics if i is out of range, matching slice semantics —
// callers must bound i by Len first.
func (q *Queue) At(i int) frame.Descriptor { return q.frames[i] }

// Find returns the descriptor with the given POC and true if present.
func (q *Queue) Find(poc uint32) (frame.Descriptor, bool) {
	for _, f := range q.frames {
		if f.POC == poc {
			return f, true
		}
	}
	return frame.Descriptor{}, false
}

// Drain removes and returns the first n frames, in order.
func (q *Queue) Drain(n int) []frame.Descriptor {
	if n > len(q.frames) {
		n = len(q.frames)
	}
	out := make([]frame.Descriptor, n)
	copy(out, q.frames[:n])
	q.frames = append(q.frames[:0], q.frames[n:]...)
	return out
}
