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

func newTimelapseTestConfig(t *testing.T, dir string, mode int) *camconfig.Config {
	t.Helper()
	cfg := &camconfig.Config{
		Logger:          logging.New(logging.Debug, &bytes.Buffer{}, true),
		Width:           16,
		Height:          16,
		FrameRate:       10,
		TargetDir:       dir,
		TimelapseMode:   mode,
		TimelapseOutput: "lapse-%Y%m%d%H%M%S.ts",
		JPEGQuality:     80,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return cfg
}

func TestTimelapseWriterManualStaysOpen(t *testing.T) {
	dir := t.TempDir()
	cfg := newTimelapseTestConfig(t, dir, camconfig.TimelapseManual)
	w := NewTimelapseWriter(cfg)

	f := frame.New(16, 16)
	base := time.Now()

	opened, err := w.Sample(f, base, 1)
	if err != nil {
		t.Fatalf("first Sample: %v", err)
	}
	if opened == "" {
		t.Fatal("first Sample didn't open a file")
	}

	opened, err = w.Sample(f, base.Add(time.Hour), 2)
	if err != nil {
		t.Fatalf("second Sample: %v", err)
	}
	if opened != "" {
		t.Errorf("manual mode rolled over to %q, want no rollover", opened)
	}

	if _, err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestTimelapseWriterNewPerEventRollsOver(t *testing.T) {
	dir := t.TempDir()
	cfg := newTimelapseTestConfig(t, dir, camconfig.TimelapseNewPerEvent)
	w := NewTimelapseWriter(cfg)

	f := frame.New(16, 16)
	base := time.Now()

	first, err := w.Sample(f, base, 1)
	if err != nil {
		t.Fatalf("first Sample: %v", err)
	}
	if first == "" {
		t.Fatal("first Sample didn't open a file")
	}

	second, err := w.Sample(f, base.Add(time.Second), 2)
	if err != nil {
		t.Fatalf("second Sample: %v", err)
	}
	if second == "" || second == first {
		t.Errorf("new-per-event Sample opened %q after event change, want a new file distinct from %q", second, first)
	}
	if _, err := os.Stat(filepath.Join(dir, filepath.Base(first))); err != nil {
		t.Errorf("first timelapse file missing after rollover: %v", err)
	}

	if _, err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
