/*
NAME
  loop.go

DESCRIPTION
  Loop owns one camera's capture driver, DetectionModel and EventMachine,
  and drives them from a single goroutine: pull a frame, apply geometry,
  run detection, advance the event state machine, repeat. Grounded on the
  teacher's cmd/rv main loop shape (fetch state, act, sleep, repeat) but
  restructured around a capture+detect+event pipeline instead of
  netsender polling, and on device/raspivid's reconnect-on-error pattern
  for the backoff logic.

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
	"context"
	"errors"
	"time"

	"github.com/ausocean/motion/camconfig"
	"github.com/ausocean/motion/detect"
	"github.com/ausocean/motion/event"
	"github.com/ausocean/motion/frame"
	"github.com/ausocean/motion/mask"
	"github.com/ausocean/motion/pixelops"
	"github.com/ausocean/motion/writer"
)

// errWatchdogKill is returned by Run when the watchdog's kill threshold
// elapses with no feed, so a process supervisor restarts the whole
// camera task (§4.4 step 7).
var errWatchdogKill = errors.New("camera: watchdog kill threshold exceeded, no frames processed")

// SnapshotWriter is the independent periodic-sample sink; distinct from
// event.WriterPool because snapshots run on their own timer rather than
// being driven by event state.
type SnapshotWriter interface {
	WriteSnapshot(f *frame.Frame, t time.Time) error
}

// Writers bundles the destinations a Loop dispatches to.
type Writers struct {
	event.WriterPool
	SnapshotWriter
}

// reconnectBackoffFloor is the initial delay before the first reconnect
// attempt; it then doubles up to Config.ReconnectBackoffMax.
const reconnectBackoffFloor = 500 * time.Millisecond

// Loop drives one camera. Not safe for concurrent use; Run owns it for
// its entire lifetime.
type Loop struct {
	cfg     *camconfig.Config
	capture Capture
	model   *detect.DetectionModel
	machine *event.Machine
	writers Writers
	sink    event.EventSink

	wd *watchdog

	privacyWatch *mask.Watcher
	fixedWatch   *mask.Watcher

	lastSnapshot time.Time
	missed       uint

	timelapse     *writer.TimelapseWriter
	lastTimelapse time.Time
}

// New starts capture, reads the first frame to seed DetectionModel, and
// returns a ready Loop. Callers provide an EventSink/ScriptRunner pair
// (often the same Exec instance for scripts, and an application-specific
// EventSink) since those two concerns apply across every camera.
func New(cfg *camconfig.Config, capture Capture, sink event.EventSink, writers Writers, scripts event.ScriptRunner) (*Loop, error) {
	if err := capture.Start(); err != nil {
		return nil, err
	}
	first, err := capture.NextFrame()
	if err != nil {
		capture.Stop()
		return nil, err
	}
	first = applyGeometry(cfg, first)

	model := detect.New(cfg, first.W, first.H, first)
	machine := event.New(cfg, first.W, first.H, sink, writers, scripts)

	l := &Loop{
		cfg:     cfg,
		capture: capture,
		model:   model,
		machine: machine,
		writers: writers,
		sink:    sink,
	}

	if cfg.TimelapseInterval > 0 && cfg.TimelapseOutput != "" {
		l.timelapse = writer.NewTimelapseWriter(cfg)
	}

	if cfg.PrivacyMaskPath != "" {
		if m, err := mask.Load(cfg.PrivacyMaskPath, first.W, first.H, cfg.Logger); err != nil {
			cfg.Logger.Warning("could not load privacy mask", "path", cfg.PrivacyMaskPath, "error", err.Error())
		} else {
			model.SetPrivacyMask(m)
		}
		if cfg.WatchMasks {
			if w, err := mask.Watch(cfg.PrivacyMaskPath, first.W, first.H, cfg.Logger); err == nil {
				l.privacyWatch = w
			}
		}
	}
	if cfg.FixedMaskPath != "" {
		if m, err := mask.Load(cfg.FixedMaskPath, first.W, first.H, cfg.Logger); err != nil {
			cfg.Logger.Warning("could not load fixed mask", "path", cfg.FixedMaskPath, "error", err.Error())
		} else {
			model.SetFixedMask(m)
		}
		if cfg.WatchMasks {
			if w, err := mask.Watch(cfg.FixedMaskPath, first.W, first.H, cfg.Logger); err == nil {
				l.fixedWatch = w
			}
		}
	}

	l.wd = startWatchdog(cfg.WatchdogTimeout, cfg.WatchdogKill, cfg.Logger)
	return l, nil
}

// Close stops capture and any mask watchers.
func (l *Loop) Close() error {
	l.wd.Stop()
	if l.privacyWatch != nil {
		l.privacyWatch.Close()
	}
	if l.fixedWatch != nil {
		l.fixedWatch.Close()
	}
	if l.timelapse != nil {
		if path, err := l.timelapse.Close(); err != nil {
			l.cfg.Logger.Warning("timelapse close failed", "path", path, "error", err.Error())
		} else if path != "" {
			l.sink.FileClose(event.MovieTimelapse, path)
		}
	}
	return l.capture.Stop()
}

// Run processes frames until ctx is cancelled or an unrecoverable error
// occurs.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.wd.Killed():
			return errWatchdogKill
		case <-l.wd.ResetRequested():
			l.resetCapture()
		default:
		}

		f, err := l.capture.NextFrame()
		if err != nil {
			if cerr := l.handleCaptureError(ctx, err); cerr != nil {
				return cerr
			}
			continue
		}
		l.missed = 0

		f = applyGeometry(l.cfg, f)
		l.pollMaskWatchers()

		verdict, diff := l.model.Process(f)
		if err := l.machine.Process(f, diff, verdict, f.Time); err != nil {
			return err
		}

		l.maybeSnapshot(f)
		l.maybeTimelapse(f)
		l.wd.Feed()
	}
}

// handleCaptureError counts consecutive capture errors and, once
// Config.MaxMissedFrames is exceeded, stops and restarts the capture
// driver with exponential backoff capped at ReconnectBackoffMax.
func (l *Loop) handleCaptureError(ctx context.Context, err error) error {
	l.missed++
	l.cfg.Logger.Warning("capture error", "error", err.Error(), "missed", l.missed)
	if l.missed <= l.cfg.MaxMissedFrames {
		return nil
	}

	backoff := reconnectBackoffFloor
	for attempt := 0; ; attempt++ {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}

		l.capture.Stop()
		if err := l.capture.Start(); err == nil {
			l.cfg.Logger.Info("capture reconnected", "attempts", attempt+1)
			l.missed = 0
			return nil
		}
		l.cfg.Logger.Warning("reconnect attempt failed", "attempt", attempt+1, "backoff", backoff)

		backoff *= 2
		if l.cfg.ReconnectBackoffMax > 0 && backoff > l.cfg.ReconnectBackoffMax {
			backoff = l.cfg.ReconnectBackoffMax
		}
	}
}

// resetCapture restarts the capture driver once in response to a
// watchdog reset request, distinct from handleCaptureError's backoff
// loop since it reacts to a frame stall rather than an explicit capture
// error.
func (l *Loop) resetCapture() {
	l.cfg.Logger.Warning("watchdog requested capture reset")
	l.capture.Stop()
	if err := l.capture.Start(); err != nil {
		l.cfg.Logger.Warning("watchdog capture reset failed", "error", err.Error())
	}
}

func (l *Loop) pollMaskWatchers() {
	if l.privacyWatch != nil {
		select {
		case m := <-l.privacyWatch.Updates:
			l.model.SetPrivacyMask(m)
		default:
		}
	}
	if l.fixedWatch != nil {
		select {
		case m := <-l.fixedWatch.Updates:
			l.model.SetFixedMask(m)
		default:
		}
	}
}

func (l *Loop) maybeSnapshot(f *frame.Frame) {
	if l.cfg.SnapshotInterval <= 0 || l.writers.SnapshotWriter == nil {
		return
	}
	if f.Time.Sub(l.lastSnapshot) < l.cfg.SnapshotInterval {
		return
	}
	l.lastSnapshot = f.Time
	if err := l.writers.WriteSnapshot(f, f.Time); err != nil {
		l.cfg.Logger.Warning("snapshot write failed", "error", err.Error())
	}
}

// maybeTimelapse samples f into the time-lapse writer once
// Config.TimelapseInterval has elapsed since the last sample, rolling
// over to a new file per Config.TimelapseMode. A write failure is local
// to the time-lapse writer and never terminates the loop, matching
// dispatchFrame's handling of motion-event writer errors.
func (l *Loop) maybeTimelapse(f *frame.Frame) {
	if l.timelapse == nil || l.cfg.TimelapseInterval <= 0 {
		return
	}
	if f.Time.Sub(l.lastTimelapse) < l.cfg.TimelapseInterval {
		return
	}
	l.lastTimelapse = f.Time
	opened, err := l.timelapse.Sample(f, f.Time, l.machine.EventID())
	if err != nil {
		l.cfg.Logger.Warning("timelapse write failed", "error", err.Error())
		l.sink.FileError(event.MovieTimelapse, opened, err)
		return
	}
	if opened != "" {
		l.sink.FileCreate(event.MovieTimelapse, opened)
	}
}

// applyGeometry applies Config's flip/rotation settings to f, returning
// f unchanged if neither is configured.
func applyGeometry(cfg *camconfig.Config, f *frame.Frame) *frame.Frame {
	reflect := pixelops.ReflectNone
	switch {
	case cfg.HorizontalFlip && cfg.VerticalFlip:
		reflect = pixelops.ReflectNone // both flips together are the 180 rotation below.
	case cfg.HorizontalFlip:
		reflect = pixelops.ReflectHorizontal
	case cfg.VerticalFlip:
		reflect = pixelops.ReflectVertical
	}
	rotation := int(cfg.Rotation % 360)
	if cfg.HorizontalFlip && cfg.VerticalFlip {
		rotation = (rotation + 180) % 360
	}
	if reflect == pixelops.ReflectNone && rotation == 0 {
		return f
	}

	y, w, h := pixelops.RotateReflect(f.Y, f.W, f.H, reflect, rotation)
	u, _, _ := pixelops.RotateReflect(f.U, f.W/2, f.H/2, reflect, rotation)
	v, _, _ := pixelops.RotateReflect(f.V, f.W/2, f.H/2, reflect, rotation)
	return &frame.Frame{W: w, H: h, Y: y, U: u, V: v, Index: f.Index, Time: f.Time, High: f.High}
}
