/*
NAME
  config.go

AUTHORS
  Ella Pietraroia <ella@ausocean.org>
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package camconfig contains the per-camera configuration for the motion
// detection and event pipeline. Parsing of this struct from an on-disk
// configuration file is out of scope; camconfig only defines the struct,
// its defaults, and runtime updates.
package camconfig

import (
	"time"

	"github.com/ausocean/utils/logging"
)

// Timelapse rollover modes.
const (
	TimelapseManual = iota
	TimelapseDaily
	TimelapseHourly
	TimelapseContinuous
	TimelapseNewPerEvent
)

// Config provides the parameters relevant to one camera's detection and
// event pipeline. A new Config must be passed through Validate before use;
// defaults are filled in for anything unset or out of range.
type Config struct {
	// Logger holds the implementation of the logging.Logger interface used
	// throughout this camera's pipeline. Must be set.
	Logger logging.Logger

	// LogLevel is the verbosity used once Validate has run.
	LogLevel int8

	// CameraID identifies this camera for filename substitution (%t) and
	// EventSink calls.
	CameraID uint
	// CameraName is the human readable camera name (%$).
	CameraName string
	// EventTag is a free-form label substituted at %C in output filenames.
	EventTag string

	// Width and Height are the YUV420p frame dimensions. Both must be
	// multiples of 8.
	Width, Height uint

	// FrameRate is the target capture rate in frames per second.
	FrameRate uint
	// MinimumFrameTime forces a floor on the inter-frame interval even if
	// FrameRate would otherwise allow a shorter one.
	MinimumFrameTime time.Duration

	// Rotation is the output rotation in degrees; must be a multiple of 90.
	Rotation uint
	// HorizontalFlip and VerticalFlip apply before rotation.
	HorizontalFlip, VerticalFlip bool

	// MotionThreshold is the pixel-count threshold above which a frame is
	// considered to contain motion (FrameVerdict.motion_detected).
	MotionThreshold uint
	// Noise is the initial per-pixel Y difference noise floor.
	Noise uint
	// NoiseTune and ThresholdTune enable the auto-tuning heuristics of
	// §4.2 steps 5 and 6.
	NoiseTune, ThresholdTune bool
	// NoiseMin and NoiseMax clamp the auto-tuned noise floor.
	NoiseMin, NoiseMax uint
	// ThresholdMin is the floor the threshold auto-tuner will not shrink
	// below.
	ThresholdMin uint

	// DespeckleFilter is the despeckle recipe string (§4.1).
	DespeckleFilter string

	// LightswitchPercent is the percentage of changed pixels that triggers
	// lightswitch suppression; 0 disables it.
	LightswitchPercent uint
	// LightswitchFrames is the number of frames suppressed after a
	// lightswitch trigger.
	LightswitchFrames uint

	// SmartMaskSpeed is the smartmask decay speed; 0 disables smartmask
	// learning.
	SmartMaskSpeed uint

	// PrivacyMaskPath and FixedMaskPath name PGM files loaded as static
	// masks. Empty means all-pass.
	PrivacyMaskPath, FixedMaskPath string
	// WatchMasks enables hot-reload of the above via fsnotify.
	WatchMasks bool

	// MinimumMotionFrames is the number of consecutive motion frames
	// required before Idle -> Motion (§4.3). 0 is coerced to 1.
	MinimumMotionFrames uint
	// EventGap is the quiet duration allowed within a single event before
	// Motion -> PostMotion.
	EventGap time.Duration
	// PreCapture is the number of frames retained before motion is
	// confirmed.
	PreCapture uint
	// PostCapture is the number of frames written after EventGap expires,
	// unconditionally.
	PostCapture uint
	// EmulateMotion forces every frame to be treated as motion_detected;
	// used for manual/forced recording.
	EmulateMotion bool

	// AreaDetect is the list of 1-9 area-grid regions (3x3 over the frame)
	// that trigger on_area_detected when location intersects them.
	AreaDetect []int

	// TimelapseInterval is the sampling period for the time-lapse stream;
	// 0 disables it.
	TimelapseInterval time.Duration
	// TimelapseMode selects the rollover policy.
	TimelapseMode int
	// TimelapseOutput is the strftime-plus-extensions format string used
	// for time-lapse movie filenames (§6). Empty disables time-lapse
	// output even if TimelapseInterval is set.
	TimelapseOutput string

	// SnapshotInterval is the sampling period for periodic snapshots; 0
	// disables them.
	SnapshotInterval time.Duration
	// SnapshotFilename is the strftime-plus-extensions format string used
	// for snapshot filenames (§6).
	SnapshotFilename string

	// PictureOutput and MovieOutput are the format strings for still and
	// movie filenames respectively. Empty disables the corresponding
	// writer.
	PictureOutput, MovieOutput string
	// TargetDir is the directory still/movie/snapshot/timelapse files are
	// written under.
	TargetDir string
	// JPEGQuality is 0-100 inclusive, passed to the still encoder.
	JPEGQuality int

	// OnEventStart, OnEventEnd, OnMotionDetected and OnAreaDetected are
	// script hooks, dispatched to the subprocess launcher of §9.
	OnEventStart, OnEventEnd, OnMotionDetected, OnAreaDetected string

	// WatchdogTimeout is how long CameraLoop waits for a frame before
	// requesting a capture reset; WatchdogKill is how much longer it waits
	// before terminating the camera task for supervisor restart.
	WatchdogTimeout, WatchdogKill time.Duration

	// MaxMissedFrames is the number of consecutive capture errors tolerated
	// before the reconnect loop begins. No camera-lost or camera-found
	// callback is raised; the errors and reconnects are only logged.
	MaxMissedFrames uint
	// ReconnectBackoffMax caps the exponential reconnect backoff.
	ReconnectBackoffMax time.Duration
}

// LogInvalidField logs that a field was bad or unset and a default is being
// substituted, matching the teacher's convention for per-field validation
// messages.
func (c *Config) LogInvalidField(name string, def interface{}) {
	c.Logger.Info(name+" bad or unset, defaulting", name, def)
}

// Validate checks the fields of Config and defaults anything invalid,
// logging each substitution. It returns an error only when Logger itself is
// nil, since every other default can be silently corrected.
func (c *Config) Validate() error {
	if c.Logger == nil {
		return errNilLogger
	}
	for _, v := range Variables {
		if v.Validate != nil {
			v.Validate(c)
		}
	}
	c.Logger.SetLevel(c.LogLevel)
	return nil
}

// Update takes a map of configuration variable names and values, as might
// arrive from a control-plane request, and applies any recognised changes
// to c.
func (c *Config) Update(vars map[string]string) {
	for _, v := range Variables {
		if s, ok := vars[v.Name]; ok && v.Update != nil {
			v.Update(c, s)
		}
	}
}
