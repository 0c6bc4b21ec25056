/*
NAME
  mtswriter.go

DESCRIPTION
  MTSPool is an alternative event.WriterPool packetising movie frames as
  MPEG-TS, built on the teacher's container/mts encoder (itself built on
  github.com/Comcast/gots/v2) instead of Pool's own small tagged
  container format in movie.go. Each still frame is JPEG-encoded and
  written as one MTS access unit via mts.EncodeJPEG/pes.JPEGSID, the
  packet-based PSI interval (mts.PacketBasedPSI) avoiding the encoder's
  H264-NAL-sniffing PSI path entirely, since there's no NAL structure to
  sniff here.

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
	"time"

	"github.com/pkg/errors"

	"github.com/ausocean/utils/bitrate"
	"github.com/ausocean/utils/ioext"

	"github.com/ausocean/motion/camconfig"
	"github.com/ausocean/motion/container/mts"
	"github.com/ausocean/motion/container/mts/meta"
	"github.com/ausocean/motion/event"
	"github.com/ausocean/motion/filenamefmt"
	"github.com/ausocean/motion/frame"
)

// mtsPSIInterval is how many MTS packets pass between PSI re-sends, per
// mts.PacketBasedPSI.
const mtsPSIInterval = 7

// MTSPool is an event.WriterPool writing MPEG-TS movies instead of Pool's
// own container format, using the teacher's container/mts encoder.
// WriteStill still writes a plain JPEG, matching Pool; only the movie
// path differs.
type MTSPool struct {
	cfg  *camconfig.Config
	host string
	shot uint

	enc       *mts.Encoder
	moviePath string

	bitrate bitrate.Calculator
}

// NewMTSPool returns an MTSPool writing under cfg.TargetDir.
func NewMTSPool(cfg *camconfig.Config) *MTSPool {
	host, _ := os.Hostname()
	if mts.Meta == nil {
		mts.Meta = meta.New()
	}
	return &MTSPool{cfg: cfg, host: host}
}

func (p *MTSPool) Bitrate() float64 { return p.bitrate.Bitrate() }

func (p *MTSPool) vars(t time.Time, eventID uint64, kind event.FileKind) filenamefmt.Vars {
	return filenamefmt.Vars{
		EventNumber: eventID,
		Shot:        p.shot,
		CameraID:    p.cfg.CameraID,
		CameraName:  p.cfg.CameraName,
		EventTag:    p.cfg.EventTag,
		Width:       int(p.cfg.Width),
		Height:      int(p.cfg.Height),
		Host:        p.host,
		Version:     Version,
		FPS:         float64(p.cfg.FrameRate),
		FileKindID:  int(kind),
	}
}

func (p *MTSPool) path(name string) string {
	if p.cfg.TargetDir == "" {
		return name
	}
	return filepath.Join(p.cfg.TargetDir, name)
}

// OpenMovie implements event.WriterPool.
func (p *MTSPool) OpenMovie(eventID uint64, t time.Time) (string, error) {
	name := filenamefmt.Format(p.cfg.MovieOutput, t, p.vars(t, eventID, event.MovieMotion))
	full := p.path(name)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", errors.Wrap(err, "writer: creating mts movie directory")
	}
	f, err := os.Create(full)
	if err != nil {
		return "", errors.Wrapf(err, "writer: creating mts movie file %s", full)
	}
	tee := ioext.MultiWriteCloser(f, reportWriter{&p.bitrate})
	dst := NewAsyncWriteCloser(tee, p.cfg.Logger)

	rate := float64(p.cfg.FrameRate)
	if rate < 1 {
		rate = 1
	}
	if rate > 60 {
		rate = 60
	}
	enc, err := mts.NewEncoder(dst, p.cfg.Logger,
		mts.MediaType(mts.EncodeJPEG),
		mts.PacketBasedPSI(mtsPSIInterval),
		mts.Rate(rate),
	)
	if err != nil {
		f.Close()
		return "", errors.Wrap(err, "writer: initialising mts encoder")
	}
	p.enc = enc
	p.moviePath = full
	return full, nil
}

// WriteMovieFrame implements event.WriterPool.
func (p *MTSPool) WriteMovieFrame(f *frame.Frame, t time.Time) error {
	if p.enc == nil {
		return errors.New("writer: no mts movie open")
	}
	payload, err := EncodeStill(f, p.cfg.JPEGQuality)
	if err != nil {
		return errors.Wrap(err, "writer: encoding mts access unit")
	}
	_, err = p.enc.Write(payload)
	return err
}

// CloseMovie implements event.WriterPool.
func (p *MTSPool) CloseMovie() (string, error) {
	if p.enc == nil {
		return "", nil
	}
	path := p.moviePath
	err := p.enc.Close()
	p.enc = nil
	p.moviePath = ""
	return path, err
}

// WriteStill implements event.WriterPool.
func (p *MTSPool) WriteStill(f *frame.Frame, t time.Time) error {
	p.shot++
	if p.cfg.PictureOutput == "" {
		return nil
	}
	payload, err := EncodeStill(f, p.cfg.JPEGQuality)
	if err != nil {
		return errors.Wrap(err, "writer: encoding still")
	}
	name := filenamefmt.Format(p.cfg.PictureOutput, t, p.vars(t, 0, event.ImageMotion))
	full := p.path(name)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return errors.Wrap(err, "writer: creating still directory")
	}
	return os.WriteFile(full, payload, 0644)
}
