package camconfig

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ausocean/utils/logging"
)

func newTestConfig() Config {
	return Config{Logger: logging.New(logging.Debug, &bytes.Buffer{}, true)}
}

func TestValidateDefaults(t *testing.T) {
	c := newTestConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}

	if c.Width%8 != 0 || c.Width == 0 {
		t.Errorf("Width = %d, want nonzero multiple of 8", c.Width)
	}
	if c.Height%8 != 0 || c.Height == 0 {
		t.Errorf("Height = %d, want nonzero multiple of 8", c.Height)
	}
	if c.MinimumMotionFrames != 1 {
		t.Errorf("MinimumMotionFrames = %d, want 1", c.MinimumMotionFrames)
	}
	if c.PreCapture != defaultPreCapture {
		t.Errorf("PreCapture = %d, want %d", c.PreCapture, defaultPreCapture)
	}
}

func TestValidateRejectsBadRotation(t *testing.T) {
	c := newTestConfig()
	c.Rotation = 45
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if c.Rotation != 0 {
		t.Errorf("Rotation = %d, want 0 (disabled)", c.Rotation)
	}
}

func TestValidateNilLogger(t *testing.T) {
	var c Config
	if err := c.Validate(); err == nil {
		t.Fatal("Validate with nil Logger: want error, got nil")
	}
}

func TestValidateWarnsOnUnknownDespeckleChar(t *testing.T) {
	var buf bytes.Buffer
	c := Config{Logger: logging.New(logging.Debug, &buf, true)}
	c.DespeckleFilter = "Ex"
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("unrecognised character")) {
		t.Errorf("Validate with bad despeckle filter %q: expected a warning logged, got %q", c.DespeckleFilter, buf.String())
	}
}

// TestValidateIsIdempotent checks that re-running Validate on an
// already-defaulted Config changes nothing, the same property
// revid/config's TestValidate checks via cmp.Equal against a
// hand-built expected Config.
func TestValidateIsIdempotent(t *testing.T) {
	first := newTestConfig()
	if err := first.Validate(); err != nil {
		t.Fatalf("first Validate: %v", err)
	}
	second := first
	if err := second.Validate(); err != nil {
		t.Fatalf("second Validate: %v", err)
	}
	if diff := cmp.Diff(first, second, cmpopts.IgnoreFields(Config{}, "Logger")); diff != "" {
		t.Errorf("Validate is not idempotent (-first +second):\n%s", diff)
	}
}

func TestUpdate(t *testing.T) {
	c := newTestConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}

	c.Update(map[string]string{
		KeyMotionThreshold:     "2000",
		KeyMinimumMotionFrames: "3",
		KeyEventGap:            "1.5",
	})

	if c.MotionThreshold != 2000 {
		t.Errorf("MotionThreshold = %d, want 2000", c.MotionThreshold)
	}
	if c.MinimumMotionFrames != 3 {
		t.Errorf("MinimumMotionFrames = %d, want 3", c.MinimumMotionFrames)
	}
	if c.EventGap.Seconds() != 1.5 {
		t.Errorf("EventGap = %v, want 1.5s", c.EventGap)
	}
}
