/*
NAME
  sink.go

DESCRIPTION
  LogSink is the default event.EventSink: it logs every lifecycle
  transition through camconfig.Config's Logger and dispatches the
  on_motion_detected/on_area_detected script hooks event.Machine doesn't
  fire itself (Machine only runs on_event_start/on_event_end directly,
  since those happen exactly once per event; the per-frame hooks are
  left to the sink so a camerad wanting to suppress repeat firings, or
  forward them to a different channel entirely, can swap LogSink out).

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
	"time"

	"github.com/ausocean/motion/camconfig"
	"github.com/ausocean/motion/event"
)

// LogSink implements event.EventSink by logging through cfg.Logger and
// running cfg.OnMotionDetected/cfg.OnAreaDetected via a ScriptRunner.
type LogSink struct {
	cfg     *camconfig.Config
	scripts event.ScriptRunner
}

// NewLogSink returns a LogSink for cfg, dispatching hooks through scripts.
func NewLogSink(cfg *camconfig.Config, scripts event.ScriptRunner) *LogSink {
	return &LogSink{cfg: cfg, scripts: scripts}
}

func (s *LogSink) EventStart(eventID uint64, t time.Time) {
	s.cfg.Logger.Info("event started", "camera", s.cfg.CameraID, "event", eventID, "time", t)
}

func (s *LogSink) EventEnd(eventID uint64, t time.Time) {
	s.cfg.Logger.Info("event ended", "camera", s.cfg.CameraID, "event", eventID, "time", t)
}

func (s *LogSink) MotionDetected(eventID uint64, t time.Time) {
	s.cfg.Logger.Debug("motion detected", "camera", s.cfg.CameraID, "event", eventID, "time", t)
	if s.cfg.OnMotionDetected != "" {
		s.scripts.Run(s.cfg.OnMotionDetected)
	}
}

func (s *LogSink) AreaDetected(eventID uint64, t time.Time, areas []int) {
	s.cfg.Logger.Debug("area detected", "camera", s.cfg.CameraID, "event", eventID, "areas", areas)
	if s.cfg.OnAreaDetected != "" {
		s.scripts.Run(s.cfg.OnAreaDetected)
	}
}

func (s *LogSink) FileCreate(kind event.FileKind, path string) {
	s.cfg.Logger.Info("file created", "camera", s.cfg.CameraID, "kind", kind.String(), "path", path)
}

func (s *LogSink) FileClose(kind event.FileKind, path string) {
	s.cfg.Logger.Info("file closed", "camera", s.cfg.CameraID, "kind", kind.String(), "path", path)
}

// FileError logs a writer failure. The failing writer is local to itself
// and the event it belongs to continues; this is purely observational.
func (s *LogSink) FileError(kind event.FileKind, path string, reason error) {
	s.cfg.Logger.Warning("file write failed", "camera", s.cfg.CameraID, "kind", kind.String(), "path", path, "error", reason.Error())
}
