/*
NAME
  frame.go

DESCRIPTION
  Package frame provides the Frame and Box types shared by pixelops, detect,
  event and camera. A Frame is immutable once produced; ownership moves
  between pipeline stages but the byte planes themselves are never mutated
  in place once handed off (see pixelops for the functions that do mutate
  reference-model state, which own their own buffers).

AUTHORS
  Ella Pietraroia <ella@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package frame

import (
	"fmt"
	"time"
)

// Frame is one YUV420p planar video frame, as delivered by a capture
// driver. W and H are both multiples of 8. Y has W*H bytes, U and V each
// have W*H/4 bytes.
type Frame struct {
	W, H    int
	Y, U, V []byte

	// Index is a monotonic per-camera frame counter.
	Index uint64

	// Time is the wall-clock timestamp the capture driver attached to this
	// frame (its "best clock"; see camconfig and camera for how this
	// relates to the monotonic clock used for event-gap/watchdog timing).
	Time time.Time

	// High is an optional higher resolution companion frame used for
	// passthrough recording; nil if not provided by the capture driver.
	High *Frame
}

// New allocates a Frame with zeroed planes for the given dimensions. It
// panics if w or h is not a multiple of 8, matching the invariant in §3 of
// the specification this package implements.
func New(w, h int) *Frame {
	if w%8 != 0 || h%8 != 0 {
		panic(fmt.Sprintf("frame: dimensions %dx%d are not multiples of 8", w, h))
	}
	return &Frame{
		W: w,
		H: h,
		Y: make([]byte, w*h),
		U: make([]byte, w*h/4),
		V: make([]byte, w*h/4),
	}
}

// Clone returns a deep copy of f, not including High.
func (f *Frame) Clone() *Frame {
	c := &Frame{
		W:     f.W,
		H:     f.H,
		Index: f.Index,
		Time:  f.Time,
		Y:     append([]byte(nil), f.Y...),
		U:     append([]byte(nil), f.U...),
		V:     append([]byte(nil), f.V...),
	}
	return c
}

// Box is an axis-aligned bounding box in pixel coordinates.
type Box struct {
	X, Y, W, H int
}

// Empty reports whether b has no area.
func (b Box) Empty() bool { return b.W <= 0 || b.H <= 0 }

// Center returns the integer center point of b.
func (b Box) Center() (x, y int) {
	return b.X + b.W/2, b.Y + b.H/2
}

// Union returns the smallest Box containing both b and o. If one of the two
// is empty, the other is returned unchanged.
func (b Box) Union(o Box) Box {
	if b.Empty() {
		return o
	}
	if o.Empty() {
		return b
	}
	x0, y0 := min(b.X, o.X), min(b.Y, o.Y)
	x1, y1 := max(b.X+b.W, o.X+o.W), max(b.Y+b.H, o.Y+o.H)
	return Box{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Intersects reports whether b and o share any pixel.
func (b Box) Intersects(o Box) bool {
	if b.Empty() || o.Empty() {
		return false
	}
	return b.X < o.X+o.W && o.X < b.X+b.W && b.Y < o.Y+o.H && o.Y < b.Y+b.H
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
