/*
NAME
  machine.go

DESCRIPTION
  Machine implements the Idle/Motion/PostMotion state machine of §4.3,
  consuming the (Frame, DiffResult, FrameVerdict) stream DetectionModel
  produces and driving EventSink and WriterPool.

AUTHORS
  Ella Pietraroia <ella@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package event

import (
	"time"

	"github.com/ausocean/motion/camconfig"
	"github.com/ausocean/motion/detect"
	"github.com/ausocean/motion/frame"
)

// State is one of the three states of §4.3.
type State int

const (
	Idle State = iota
	Motion
	PostMotion
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Motion:
		return "motion"
	case PostMotion:
		return "post-motion"
	default:
		return "unknown"
	}
}

// ScriptRunner dispatches a configured script hook without blocking the
// caller; §9's "single per-process subprocess-launcher task" design note.
type ScriptRunner interface {
	Run(cmdline string)
}

// Machine is the per-camera event state machine. Not safe for concurrent
// use; CameraLoop owns one instance per camera and calls Process from a
// single goroutine.
type Machine struct {
	cfg     *camconfig.Config
	sink    EventSink
	writers WriterPool
	scripts ScriptRunner
	grid    AreaGrid

	ring *PreCaptureRing

	state State

	consecutiveMotion uint
	postRemaining     uint

	eventID          uint64
	eventGapDeadline time.Time

	location    frame.Box
	hasLocation bool

	motionFired bool
	areaFired   bool

	movieOpen bool
	moviePath string
}

// New returns a Machine for a w x h camera.
func New(cfg *camconfig.Config, w, h int, sink EventSink, writers WriterPool, scripts ScriptRunner) *Machine {
	return &Machine{
		cfg:     cfg,
		sink:    sink,
		writers: writers,
		scripts: scripts,
		grid:    AreaGrid{W: w, H: h},
		ring:    NewRing(int(cfg.PreCapture)),
	}
}

// State returns the machine's current state.
func (m *Machine) State() State { return m.state }

// EventID returns the id of the most recently started event, 0 before the
// first event. Used by time-lapse's new-per-event rollover mode to detect
// when a fresh event has begun.
func (m *Machine) EventID() uint64 { return m.eventID }

// Process advances the machine by one frame, at wall-clock time t.
func (m *Machine) Process(f *frame.Frame, diff detect.DiffResult, verdict detect.FrameVerdict, t time.Time) error {
	switch m.state {
	case Idle:
		return m.processIdle(f, diff, verdict, t)
	case Motion:
		return m.processMotion(f, diff, verdict, t)
	case PostMotion:
		return m.processPostMotion(f, diff, verdict, t)
	default:
		panic("event: unknown state")
	}
}

func (m *Machine) processIdle(f *frame.Frame, diff detect.DiffResult, verdict detect.FrameVerdict, t time.Time) error {
	m.ring.Push(Entry{Frame: f, Diff: diff, Verdict: verdict})

	if verdict.MotionDetected {
		m.consecutiveMotion++
	} else {
		m.consecutiveMotion = 0
	}

	minFrames := m.cfg.MinimumMotionFrames
	if minFrames == 0 {
		minFrames = 1
	}
	if m.consecutiveMotion < minFrames {
		return nil
	}

	return m.startEvent(t)
}

func (m *Machine) startEvent(t time.Time) error {
	m.eventID++
	m.state = Motion
	m.location = frame.Box{}
	m.hasLocation = false
	m.motionFired = false
	m.areaFired = false
	m.postRemaining = 0

	m.sink.EventStart(m.eventID, t)

	backlog := m.ring.Drain()
	if m.cfg.MovieOutput != "" {
		path, err := m.writers.OpenMovie(m.eventID, t)
		if err != nil {
			return err
		}
		m.movieOpen = true
		m.moviePath = path
		m.sink.FileCreate(MovieMotion, path)
	}
	for _, e := range backlog {
		m.dispatchFrame(e.Frame, e.Frame.Time)
	}

	if m.cfg.OnEventStart != "" {
		m.scripts.Run(m.cfg.OnEventStart)
	}
	m.eventGapDeadline = t.Add(m.cfg.EventGap)
	return nil
}

func (m *Machine) processMotion(f *frame.Frame, diff detect.DiffResult, verdict detect.FrameVerdict, t time.Time) error {
	m.dispatchFrame(f, t)

	if verdict.HasLocation {
		if m.hasLocation {
			m.location = m.location.Union(verdict.Location)
		} else {
			m.location = verdict.Location
			m.hasLocation = true
		}
	}

	if verdict.MotionDetected {
		m.eventGapDeadline = t.Add(m.cfg.EventGap)
		if !m.motionFired {
			m.motionFired = true
			m.sink.MotionDetected(m.eventID, t)
		}
		if m.hasLocation && !m.areaFired && len(m.cfg.AreaDetect) > 0 {
			if areas := m.grid.Contains(m.location); len(areas) > 0 && m.grid.Intersects(m.location, m.cfg.AreaDetect) {
				m.areaFired = true
				m.sink.AreaDetected(m.eventID, t, areas)
			}
		}
	}

	if t.After(m.eventGapDeadline) {
		m.state = PostMotion
		m.postRemaining = m.cfg.PostCapture
		if m.postRemaining == 0 {
			return m.endEvent(t)
		}
	}
	return nil
}

func (m *Machine) processPostMotion(f *frame.Frame, diff detect.DiffResult, verdict detect.FrameVerdict, t time.Time) error {
	m.dispatchFrame(f, t)
	if m.postRemaining > 0 {
		m.postRemaining--
	}
	if m.postRemaining == 0 {
		return m.endEvent(t)
	}
	return nil
}

func (m *Machine) endEvent(t time.Time) error {
	if m.movieOpen {
		path, err := m.writers.CloseMovie()
		m.movieOpen = false
		m.moviePath = ""
		if err != nil {
			return err
		}
		m.sink.FileClose(MovieMotion, path)
	}
	m.sink.EventEnd(m.eventID, t)
	if m.cfg.OnEventEnd != "" {
		m.scripts.Run(m.cfg.OnEventEnd)
	}
	m.state = Idle
	m.consecutiveMotion = 0
	return nil
}

// dispatchFrame writes f to whichever writers are configured, tagging it
// with the frame's own timestamp (not "now") so pre-capture frames land in
// the movie in order, per §4.3 step 2. A writer failure is local to its
// writer and never terminates the camera loop (§4.4): it's logged and
// reported through EventSink.FileError, and the event continues.
func (m *Machine) dispatchFrame(f *frame.Frame, t time.Time) {
	if m.movieOpen {
		if err := m.writers.WriteMovieFrame(f, t); err != nil {
			m.cfg.Logger.Warning("movie frame write failed", "event", m.eventID, "path", m.moviePath, "error", err.Error())
			m.sink.FileError(MovieMotion, m.moviePath, err)
		}
	}
	if m.cfg.PictureOutput != "" {
		if err := m.writers.WriteStill(f, t); err != nil {
			m.cfg.Logger.Warning("still write failed", "event", m.eventID, "path", m.cfg.PictureOutput, "error", err.Error())
			m.sink.FileError(ImageMotion, m.cfg.PictureOutput, err)
		}
	}
}
