package writer

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/motion/camconfig"
	"github.com/ausocean/motion/frame"
)

func newMTSTestConfig(t *testing.T, dir string) *camconfig.Config {
	t.Helper()
	cfg := &camconfig.Config{
		Logger:      logging.New(logging.Debug, &bytes.Buffer{}, true),
		Width:       16,
		Height:      16,
		FrameRate:   10,
		TargetDir:   dir,
		MovieOutput: "event-%v.ts",
		JPEGQuality: 80,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return cfg
}

func TestMTSPoolWritesSyncedPackets(t *testing.T) {
	dir := t.TempDir()
	cfg := newMTSTestConfig(t, dir)
	pool := NewMTSPool(cfg)

	path, err := pool.OpenMovie(1, time.Now())
	if err != nil {
		t.Fatalf("OpenMovie: %v", err)
	}

	f := frame.New(16, 16)
	for i := range f.Y {
		f.Y[i] = byte(i)
	}
	for i := 0; i < 3; i++ {
		if err := pool.WriteMovieFrame(f, time.Now()); err != nil {
			t.Fatalf("WriteMovieFrame %d: %v", i, err)
		}
	}

	closedPath, err := pool.CloseMovie()
	if err != nil {
		t.Fatalf("CloseMovie: %v", err)
	}
	if closedPath != path {
		t.Errorf("CloseMovie path = %q, want %q", closedPath, path)
	}

	data, err := os.ReadFile(filepath.Join(dir, filepath.Base(path)))
	if err != nil {
		t.Fatalf("reading movie file: %v", err)
	}
	if len(data) == 0 || len(data)%188 != 0 {
		t.Fatalf("output length %d is not a positive multiple of the MTS packet size", len(data))
	}
	for i := 0; i < len(data); i += 188 {
		if data[i] != 0x47 {
			t.Fatalf("packet at offset %d missing sync byte: got %#x", i, data[i])
		}
	}
}

func TestMTSPoolWriteMovieFrameWithoutOpenErrors(t *testing.T) {
	cfg := newMTSTestConfig(t, t.TempDir())
	pool := NewMTSPool(cfg)
	if err := pool.WriteMovieFrame(frame.New(16, 16), time.Now()); err == nil {
		t.Error("WriteMovieFrame without OpenMovie: got nil error, want one")
	}
}
