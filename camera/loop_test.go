package camera

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/motion/camconfig"
	"github.com/ausocean/motion/event"
	"github.com/ausocean/motion/frame"
)

type fakeSink struct{ events int }

func (f *fakeSink) EventStart(uint64, time.Time)                    { f.events++ }
func (f *fakeSink) EventEnd(uint64, time.Time)                      {}
func (f *fakeSink) MotionDetected(uint64, time.Time)                {}
func (f *fakeSink) AreaDetected(uint64, time.Time, []int)           {}
func (f *fakeSink) FileCreate(event.FileKind, string)               {}
func (f *fakeSink) FileClose(event.FileKind, string)                {}
func (f *fakeSink) FileError(event.FileKind, string, error)         {}

type fakeWriters struct{ stills int }

func (w *fakeWriters) OpenMovie(uint64, time.Time) (string, error)      { return "movie", nil }
func (w *fakeWriters) WriteMovieFrame(*frame.Frame, time.Time) error    { return nil }
func (w *fakeWriters) CloseMovie() (string, error)                     { return "movie", nil }
func (w *fakeWriters) WriteStill(*frame.Frame, time.Time) error        { w.stills++; return nil }
func (w *fakeWriters) WriteSnapshot(*frame.Frame, time.Time) error     { return nil }

type fakeScripts struct{ runs []string }

func (s *fakeScripts) Run(cmdline string) { s.runs = append(s.runs, cmdline) }

func newTestConfig() *camconfig.Config {
	return &camconfig.Config{
		Logger:          logging.New(logging.Debug, &bytes.Buffer{}, true),
		Width:           16,
		Height:          16,
		FrameRate:       10,
		MotionThreshold: 5,
		Noise:           10,
		DespeckleFilter: "",
		MinimumMotionFrames: 1,
		EventGap:        50 * time.Millisecond,
		PreCapture:      2,
		PostCapture:     1,
	}
}

func TestLoopProcessesFramesUntilCancelled(t *testing.T) {
	cfg := newTestConfig()
	synth := NewSynth(16, 16, 0, nil)
	sink := &fakeSink{}
	writers := Writers{WriterPool: &fakeWriters{}, SnapshotWriter: &fakeWriters{}}
	scripts := &fakeScripts{}

	l, err := New(cfg, synth, sink, writers, scripts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := l.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

// erroringCapture fails NextFrame failLeft times (after an initial good
// frame for New's seed read), then succeeds for the remainder of the test.
type erroringCapture struct {
	w, h      int
	failLeft  int
	running   bool
	index     uint64
}

func (c *erroringCapture) Name() string    { return "erroring" }
func (c *erroringCapture) Start() error    { c.running = true; return nil }
func (c *erroringCapture) Stop() error     { c.running = false; return nil }
func (c *erroringCapture) IsRunning() bool { return c.running }

func (c *erroringCapture) NextFrame() (*frame.Frame, error) {
	if c.failLeft > 0 {
		c.failLeft--
		return nil, errSynthStopped
	}
	f := frame.New(c.w, c.h)
	f.Index = c.index
	f.Time = time.Now()
	c.index++
	return f, nil
}

func TestLoopReconnectsAfterCaptureErrors(t *testing.T) {
	cfg := newTestConfig()
	cfg.MaxMissedFrames = 1
	cfg.ReconnectBackoffMax = 5 * time.Millisecond

	dev := &erroringCapture{w: 16, h: 16}
	sink := &fakeSink{}
	writers := Writers{WriterPool: &fakeWriters{}, SnapshotWriter: &fakeWriters{}}
	scripts := &fakeScripts{}

	l, err := New(cfg, dev, sink, writers, scripts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	// Fail the next couple of frames beyond MaxMissedFrames, forcing the
	// reconnect/backoff path (whose first attempt sleeps
	// reconnectBackoffFloor); by the time it fires NextFrame has stopped
	// erroring, so Run should recover rather than returning an error.
	dev.failLeft = 2

	ctx, cancel := context.WithTimeout(context.Background(), 800*time.Millisecond)
	defer cancel()
	if err := l.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
