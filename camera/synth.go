/*
NAME
  synth.go

DESCRIPTION
  Synth is a Capture implementation that generates synthetic YUV420p
  frames at a fixed rate instead of reading from hardware, grounded on
  device/file.AVFile's role as a file-backed stand-in AVDevice for
  testing/demo purposes. Useful for exercising CameraLoop without a real
  camera attached, and for tests.

AUTHORS
  Ella Pietraroia <ella@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package camera

import (
	"errors"
	"sync"
	"time"

	"github.com/ausocean/motion/frame"
)

// errSynthStopped is returned from NextFrame once Stop has been called.
var errSynthStopped = errors.New("camera: synth capture stopped")

// Synth generates frames on demand, optionally running a caller-supplied
// function over each frame's Y plane (e.g. to draw a moving blob for
// demos and tests).
type Synth struct {
	w, h int
	rate time.Duration
	fill func(y []byte, index uint64)

	mu      sync.Mutex
	running bool
	index   uint64
}

// NewSynth returns a Synth producing w x h frames at the given interval.
// A nil fill leaves every frame's Y plane at zero.
func NewSynth(w, h int, interval time.Duration, fill func(y []byte, index uint64)) *Synth {
	return &Synth{w: w, h: h, rate: interval, fill: fill}
}

// Name implements Capture.
func (s *Synth) Name() string { return "Synth" }

// Start implements Capture.
func (s *Synth) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	return nil
}

// Stop implements Capture.
func (s *Synth) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	return nil
}

// IsRunning implements Capture.
func (s *Synth) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextFrame implements Capture.
func (s *Synth) NextFrame() (*frame.Frame, error) {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if !running {
		return nil, errSynthStopped
	}

	if s.rate > 0 {
		time.Sleep(s.rate)
	}

	f := frame.New(s.w, s.h)
	f.Index = s.index
	f.Time = time.Now()
	s.index++
	if s.fill != nil {
		s.fill(f.Y, f.Index)
	}
	return f, nil
}
