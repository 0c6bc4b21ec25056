/*
NAME
  ring.go

DESCRIPTION
  PreCaptureRing (§3, §9 "Ring buffer" design note): a fixed-capacity
  circular buffer of (Frame, DiffResult, FrameVerdict) triples, holding the
  most recent pre_capture frames so an event's movie can start before the
  triggering instant.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.
*/

package event

import (
	"github.com/ausocean/motion/detect"
	"github.com/ausocean/motion/frame"
)

// Entry is one slot of a PreCaptureRing.
type Entry struct {
	Frame   *frame.Frame
	Diff    detect.DiffResult
	Verdict detect.FrameVerdict
}

// PreCaptureRing is a fixed-capacity FIFO. Pushing past capacity evicts the
// oldest entry; frame slots own their own pixel memory, so eviction never
// leaves a dangling reference.
type PreCaptureRing struct {
	buf   []Entry
	cap   int
	start int
	n     int
}

// NewRing returns a ring of the given capacity. Capacity 0 is valid (every
// push is a no-op), matching pre_capture=0 disabling pre-capture entirely.
func NewRing(capacity int) *PreCaptureRing {
	return &PreCaptureRing{buf: make([]Entry, capacity), cap: capacity}
}

// Push appends e, evicting the oldest entry if the ring is full.
func (r *PreCaptureRing) Push(e Entry) {
	if r.cap == 0 {
		return
	}
	idx := (r.start + r.n) % r.cap
	if r.n == r.cap {
		r.start = (r.start + 1) % r.cap
	} else {
		r.n++
	}
	r.buf[idx] = e
}

// Len returns the number of entries currently held.
func (r *PreCaptureRing) Len() int { return r.n }

// Drain returns every entry in FIFO order (oldest first) and empties the
// ring.
func (r *PreCaptureRing) Drain() []Entry {
	out := make([]Entry, r.n)
	for i := 0; i < r.n; i++ {
		out[i] = r.buf[(r.start+i)%r.cap]
	}
	r.start, r.n = 0, 0
	return out
}
