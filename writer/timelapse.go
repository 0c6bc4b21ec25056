/*
NAME
  timelapse.go

DESCRIPTION
  TimelapseWriter implements the §4.3 time-lapse sub-state: periodic
  frame sampling into its own movie file, independent of Pool's per-event
  movie state, with a rollover policy selected by Config.TimelapseMode.
  Reuses MovieEncoder's tagged JPEG container rather than inventing a
  second one, the same container Pool's per-event movie uses.

AUTHORS
  Ella Pietraroia <ella@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package writer

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/ausocean/motion/camconfig"
	"github.com/ausocean/motion/event"
	"github.com/ausocean/motion/filenamefmt"
	"github.com/ausocean/motion/frame"
)

// TimelapseWriter samples frames into a rolling movie file. Not safe for
// concurrent use; camera.Loop drives it from its own sampling timer.
type TimelapseWriter struct {
	cfg  *camconfig.Config
	host string

	enc  *MovieEncoder
	path string
	key  string
	shot uint
}

// NewTimelapseWriter returns a TimelapseWriter writing under cfg.TargetDir.
func NewTimelapseWriter(cfg *camconfig.Config) *TimelapseWriter {
	host, _ := os.Hostname()
	return &TimelapseWriter{cfg: cfg, host: host}
}

func (w *TimelapseWriter) vars(t time.Time, eventID uint64) filenamefmt.Vars {
	return filenamefmt.Vars{
		EventNumber: eventID,
		Shot:        w.shot,
		CameraID:    w.cfg.CameraID,
		CameraName:  w.cfg.CameraName,
		EventTag:    w.cfg.EventTag,
		Width:       int(w.cfg.Width),
		Height:      int(w.cfg.Height),
		Host:        w.host,
		Version:     Version,
		FPS:         float64(w.cfg.FrameRate),
		FileKindID:  int(event.MovieTimelapse),
	}
}

func (w *TimelapseWriter) target(name string) string {
	if w.cfg.TargetDir == "" {
		return name
	}
	return filepath.Join(w.cfg.TargetDir, name)
}

// rolloverKey identifies which file t/eventID belongs to under mode; a
// changed key makes Sample close the current file and open a new one.
// Manual and Continuous never change key once a file is open, so a single
// file accumulates samples until Close is called explicitly (e.g. camera
// shutdown); Daily and Hourly key off t's calendar day/hour, and
// NewPerEvent keys off the owning event id.
func rolloverKey(mode int, t time.Time, eventID uint64) string {
	switch mode {
	case camconfig.TimelapseDaily:
		return t.Format("2006-01-02")
	case camconfig.TimelapseHourly:
		return t.Format("2006-01-02T15")
	case camconfig.TimelapseNewPerEvent:
		return strconv.FormatUint(eventID, 10)
	default:
		return "open"
	}
}

// Sample writes one frame to the time-lapse file, rolling over to a new
// file first if Config.TimelapseMode calls for it. Returns the path of a
// newly opened file, or "" if no rollover occurred.
func (w *TimelapseWriter) Sample(f *frame.Frame, t time.Time, eventID uint64) (opened string, err error) {
	key := rolloverKey(w.cfg.TimelapseMode, t, eventID)
	if w.enc != nil && key != w.key {
		if _, err := w.Close(); err != nil {
			return "", err
		}
	}
	if w.enc == nil {
		if err := w.open(t, eventID, key); err != nil {
			return "", err
		}
		opened = w.path
	}
	return opened, w.enc.WriteFrame(f)
}

func (w *TimelapseWriter) open(t time.Time, eventID uint64, key string) error {
	name := filenamefmt.Format(w.cfg.TimelapseOutput, t, w.vars(t, eventID))
	full := w.target(name)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return errors.Wrap(err, "writer: creating timelapse directory")
	}
	file, err := os.Create(full)
	if err != nil {
		return errors.Wrapf(err, "writer: creating timelapse file %s", full)
	}
	dst := NewAsyncWriteCloser(file, w.cfg.Logger)
	enc, err := NewMovieEncoder(dst, w.cfg.JPEGQuality)
	if err != nil {
		file.Close()
		return errors.Wrap(err, "writer: initialising timelapse container")
	}
	w.enc = enc
	w.path = full
	w.key = key
	w.shot++
	return nil
}

// Close closes any open time-lapse file, returning its path.
func (w *TimelapseWriter) Close() (string, error) {
	if w.enc == nil {
		return "", nil
	}
	path := w.path
	err := w.enc.Close()
	w.enc = nil
	w.path = ""
	w.key = ""
	return path, err
}
