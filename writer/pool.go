/*
NAME
  pool.go

DESCRIPTION
  Pool implements event.WriterPool and camera's snapshot
  sampling, resolving filenamefmt.Format against camconfig.Config's
  MovieOutput/PictureOutput/SnapshotFilename strings and writing the
  result under Config.TargetDir.

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
	"github.com/ausocean/motion/event"
	"github.com/ausocean/motion/filenamefmt"
	"github.com/ausocean/motion/frame"
)

// lastSnapshotLink is the fixed name of the symlink WriteSnapshot
// repoints at each new timestamped snapshot file, per §12 item 3.
const lastSnapshotLink = "lastsnap.jpg"

// Version is substituted at the %{ver} filenamefmt specifier.
const Version = "v0.1.0"

// Pool is the filesystem-backed WriterPool used by camera.Loop.
type Pool struct {
	cfg  *camconfig.Config
	host string

	shot uint

	movie     *MovieEncoder
	moviePath string

	bitrate bitrate.Calculator
}

// Bitrate reports the current movie-writer throughput, as measured by
// the reportWriter tee'd alongside the movie file via
// ioext.MultiWriteCloser.
func (p *Pool) Bitrate() float64 { return p.bitrate.Bitrate() }

// reportWriter feeds every write's size to a bitrate.Calculator without
// writing the bytes anywhere; ioext.MultiWriteCloser fans the real movie
// file's writes out to this alongside the actual destination, the same
// "tee for metrics" shape the teacher's revid uses bitrate.Calculator.Report
// for via its HTTP/RTP/RTMP senders.
type reportWriter struct{ calc *bitrate.Calculator }

func (r reportWriter) Write(p []byte) (int, error) {
	r.calc.Report(len(p))
	return len(p), nil
}

func (r reportWriter) Close() error { return nil }

// NewPool returns a Pool writing under cfg.TargetDir.
func NewPool(cfg *camconfig.Config) *Pool {
	host, _ := os.Hostname()
	return &Pool{cfg: cfg, host: host}
}

func (p *Pool) vars(t time.Time, eventID uint64, kind event.FileKind) filenamefmt.Vars {
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

func (p *Pool) path(name string) string {
	if p.cfg.TargetDir == "" {
		return name
	}
	return filepath.Join(p.cfg.TargetDir, name)
}

// OpenMovie implements event.WriterPool.
func (p *Pool) OpenMovie(eventID uint64, t time.Time) (string, error) {
	name := filenamefmt.Format(p.cfg.MovieOutput, t, p.vars(t, eventID, event.MovieMotion))
	full := p.path(name)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", errors.Wrap(err, "writer: creating movie directory")
	}
	f, err := os.Create(full)
	if err != nil {
		return "", errors.Wrapf(err, "writer: creating movie file %s", full)
	}
	tee := ioext.MultiWriteCloser(f, reportWriter{&p.bitrate})
	dst := NewAsyncWriteCloser(tee, p.cfg.Logger)
	enc, err := NewMovieEncoder(dst, p.cfg.JPEGQuality)
	if err != nil {
		f.Close()
		return "", errors.Wrap(err, "writer: initialising movie container")
	}
	p.movie = enc
	p.moviePath = full
	return full, nil
}

// WriteMovieFrame implements event.WriterPool.
func (p *Pool) WriteMovieFrame(f *frame.Frame, t time.Time) error {
	if p.movie == nil {
		return errors.New("writer: no movie open")
	}
	return p.movie.WriteFrame(f)
}

// CloseMovie implements event.WriterPool.
func (p *Pool) CloseMovie() (string, error) {
	if p.movie == nil {
		return "", nil
	}
	path := p.moviePath
	err := p.movie.Close()
	p.movie = nil
	p.moviePath = ""
	return path, err
}

// WriteStill implements event.WriterPool, writing a JPEG to
// Config.PictureOutput.
func (p *Pool) WriteStill(f *frame.Frame, t time.Time) error {
	p.shot++
	_, err := p.writeJPEG(p.cfg.PictureOutput, t, 0, event.ImageMotion, f)
	return err
}

// WriteSnapshot writes a JPEG to Config.SnapshotFilename, independent of
// event/movie state; camera.Loop calls this on its own sampling timer. On
// success it also repoints the lastsnap.jpg symlink at the new file, so
// lastsnap.jpg always resolves to the most recent snapshot (§12 item 3).
func (p *Pool) WriteSnapshot(f *frame.Frame, t time.Time) error {
	full, err := p.writeJPEG(p.cfg.SnapshotFilename, t, 0, event.ImageSnapshot, f)
	if err != nil || full == "" {
		return err
	}
	return p.relink(full)
}

// relink repoints the lastsnap.jpg symlink, alongside target, at target.
// The remove-then-symlink sequence isn't atomic against a concurrent
// reader, but matches the original's own lastsnap handling: a reader
// that looks between the two calls finds no link at all.
func (p *Pool) relink(target string) error {
	link := p.path(lastSnapshotLink)
	if err := os.Remove(link); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "writer: removing %s", link)
	}
	rel, err := filepath.Rel(filepath.Dir(link), target)
	if err != nil {
		rel = target
	}
	if err := os.Symlink(rel, link); err != nil {
		return errors.Wrapf(err, "writer: linking %s to %s", link, target)
	}
	return nil
}

func (p *Pool) writeJPEG(spec string, t time.Time, eventID uint64, kind event.FileKind, f *frame.Frame) (string, error) {
	if spec == "" {
		return "", nil
	}
	payload, err := EncodeStill(f, p.cfg.JPEGQuality)
	if err != nil {
		return "", errors.Wrap(err, "writer: encoding still")
	}
	name := filenamefmt.Format(spec, t, p.vars(t, eventID, kind))
	full := p.path(name)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", errors.Wrap(err, "writer: creating still directory")
	}
	if err := os.WriteFile(full, payload, 0644); err != nil {
		return "", err
	}
	return full, nil
}
