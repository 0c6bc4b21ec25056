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

func newPoolTestConfig(t *testing.T, dir string) *camconfig.Config {
	t.Helper()
	cfg := &camconfig.Config{
		Logger:           logging.New(logging.Debug, &bytes.Buffer{}, true),
		Width:            16,
		Height:           16,
		FrameRate:        10,
		TargetDir:        dir,
		SnapshotFilename: "snap-%Y%m%d-%H%M%S.jpg",
		JPEGQuality:      80,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return cfg
}

func TestWriteSnapshotMaintainsLastsnapSymlink(t *testing.T) {
	dir := t.TempDir()
	cfg := newPoolTestConfig(t, dir)
	pool := NewPool(cfg)

	f := frame.New(16, 16)
	if err := pool.WriteSnapshot(f, time.Now()); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	link := filepath.Join(dir, lastSnapshotLink)
	target, err := os.Readlink(link)
	if err != nil {
		t.Fatalf("Readlink(%s): %v", link, err)
	}
	if _, err := os.Stat(filepath.Join(dir, target)); err != nil {
		t.Fatalf("lastsnap target %q does not exist: %v", target, err)
	}
	first := target

	if err := pool.WriteSnapshot(f, time.Now().Add(time.Second)); err != nil {
		t.Fatalf("second WriteSnapshot: %v", err)
	}
	target, err = os.Readlink(link)
	if err != nil {
		t.Fatalf("Readlink after second snapshot: %v", err)
	}
	if target == first {
		t.Errorf("lastsnap still points at %q after a second snapshot", target)
	}
	if _, err := os.Stat(filepath.Join(dir, target)); err != nil {
		t.Fatalf("second lastsnap target %q does not exist: %v", target, err)
	}
}

func TestWriteSnapshotDisabledWithoutFilename(t *testing.T) {
	cfg := newPoolTestConfig(t, t.TempDir())
	cfg.SnapshotFilename = ""
	pool := NewPool(cfg)
	if err := pool.WriteSnapshot(frame.New(16, 16), time.Now()); err != nil {
		t.Errorf("WriteSnapshot with no SnapshotFilename: got %v, want nil", err)
	}
}
