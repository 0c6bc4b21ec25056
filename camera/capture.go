/*
NAME
  capture.go

DESCRIPTION
  Capture is the interface a capture driver implements to hand CameraLoop
  decoded YUV420p frames. Modelled on the teacher's device.AVDevice
  (Name/Start/Stop/IsRunning), generalised from an io.Reader of encoded
  bytes to a NextFrame method returning already-decoded Frames, since
  per-driver decode is explicitly out of scope (§1 Non-goals) and
  CameraLoop operates purely on the decoded plane model.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.
*/

package camera

import (
	"github.com/ausocean/motion/frame"
)

// Capture describes a configurable video source that yields decoded
// YUV420p frames.
type Capture interface {
	// Name identifies the capture driver, e.g. for log messages.
	Name() string

	// Start begins capturing; NextFrame may be called only after Start
	// succeeds.
	Start() error

	// Stop ends capture. After Stop, NextFrame returns an error.
	Stop() error

	// IsRunning reports whether Start has been called without a matching
	// Stop.
	IsRunning() bool

	// NextFrame blocks until a frame is available, the capture is
	// stopped, or an unrecoverable error occurs.
	NextFrame() (*frame.Frame, error)
}
