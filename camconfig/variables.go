/*
NAME
  variables.go

DESCRIPTION
  variables.go contains a list of structs that provide a variable Name, a
  function for updating the variable in the Config struct from a string,
  and a validation function to check the validity of the corresponding
  field value in the Config.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package camconfig

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ausocean/utils/sliceutils"
)

var errNilLogger = errors.New("camconfig: Logger must be set before Validate")

// Config map keys, used by Update and as Variables[i].Name.
const (
	KeyCameraName          = "CameraName"
	KeyEventTag            = "EventTag"
	KeyWidth               = "Width"
	KeyHeight              = "Height"
	KeyFrameRate           = "FrameRate"
	KeyRotation            = "Rotation"
	KeyHorizontalFlip      = "HorizontalFlip"
	KeyVerticalFlip        = "VerticalFlip"
	KeyMotionThreshold     = "MotionThreshold"
	KeyNoise               = "Noise"
	KeyNoiseTune           = "NoiseTune"
	KeyThresholdTune       = "ThresholdTune"
	KeyNoiseMin            = "NoiseMin"
	KeyNoiseMax            = "NoiseMax"
	KeyThresholdMin        = "ThresholdMin"
	KeyDespeckleFilter     = "DespeckleFilter"
	KeyLightswitchPercent  = "LightswitchPercent"
	KeyLightswitchFrames   = "LightswitchFrames"
	KeySmartMaskSpeed      = "SmartMaskSpeed"
	KeyMinimumMotionFrames = "MinimumMotionFrames"
	KeyEventGap            = "EventGap"
	KeyPreCapture          = "PreCapture"
	KeyPostCapture         = "PostCapture"
	KeyEmulateMotion       = "EmulateMotion"
	KeyTimelapseInterval   = "TimelapseInterval"
	KeyTimelapseMode       = "TimelapseMode"
	KeyTimelapseOutput     = "TimelapseOutput"
	KeySnapshotInterval    = "SnapshotInterval"
	KeyJPEGQuality         = "JPEGQuality"
	KeyMaxMissedFrames     = "MaxMissedFrames"
)

// Default variable values.
const (
	defaultFrameRate           = 10
	defaultMotionThreshold     = 1500
	defaultNoise               = 16
	defaultNoiseMin            = 4
	defaultNoiseMax            = 80
	defaultThresholdMin        = 100
	defaultDespeckleFilter     = "EeDd"
	defaultMinimumMotionFrames = 1
	defaultEventGap            = 60 * time.Second
	defaultPreCapture          = 3
	defaultPostCapture         = 5
	defaultJPEGQuality         = 75
	defaultMaxMissedFrames     = 10
	defaultWatchdogTimeout     = 10 * time.Second
	defaultWatchdogKill        = 30 * time.Second
	defaultReconnectBackoffMax = 30 * time.Second
	defaultTimelapseOutput     = "timelapse-%Y%m%d.ts"
)

// Variables describes the variables that can be used to update a Config at
// runtime, mirroring the teacher's revid/config.Variables table.
var Variables = []struct {
	Name     string
	Update   func(*Config, string)
	Validate func(*Config)
}{
	{
		Name:   KeyCameraName,
		Update: func(c *Config, v string) { c.CameraName = v },
	},
	{
		Name:   KeyEventTag,
		Update: func(c *Config, v string) { c.EventTag = v },
	},
	{
		Name:   KeyWidth,
		Update: func(c *Config, v string) { c.Width = parseUint(KeyWidth, v, c) },
		Validate: func(c *Config) {
			if c.Width == 0 || c.Width%8 != 0 {
				c.LogInvalidField(KeyWidth, roundDown8(c.Width))
				c.Width = roundDown8(c.Width)
			}
		},
	},
	{
		Name:   KeyHeight,
		Update: func(c *Config, v string) { c.Height = parseUint(KeyHeight, v, c) },
		Validate: func(c *Config) {
			if c.Height == 0 || c.Height%8 != 0 {
				c.LogInvalidField(KeyHeight, roundDown8(c.Height))
				c.Height = roundDown8(c.Height)
			}
		},
	},
	{
		Name:   KeyFrameRate,
		Update: func(c *Config, v string) { c.FrameRate = parseUint(KeyFrameRate, v, c) },
		Validate: func(c *Config) {
			if c.FrameRate == 0 {
				c.LogInvalidField(KeyFrameRate, defaultFrameRate)
				c.FrameRate = defaultFrameRate
			}
		},
	},
	{
		Name:   KeyRotation,
		Update: func(c *Config, v string) { c.Rotation = parseUint(KeyRotation, v, c) },
		Validate: func(c *Config) {
			if c.Rotation%90 != 0 {
				c.Logger.Warning("rotation not a multiple of 90, disabling rotation", "rotation", c.Rotation)
				c.Rotation = 0
			}
			c.Rotation %= 360
		},
	},
	{
		Name:   KeyHorizontalFlip,
		Update: func(c *Config, v string) { c.HorizontalFlip = parseBool(KeyHorizontalFlip, v, c) },
	},
	{
		Name:   KeyVerticalFlip,
		Update: func(c *Config, v string) { c.VerticalFlip = parseBool(KeyVerticalFlip, v, c) },
	},
	{
		Name:   KeyMotionThreshold,
		Update: func(c *Config, v string) { c.MotionThreshold = parseUint(KeyMotionThreshold, v, c) },
		Validate: func(c *Config) {
			if c.MotionThreshold == 0 {
				c.LogInvalidField(KeyMotionThreshold, defaultMotionThreshold)
				c.MotionThreshold = defaultMotionThreshold
			}
		},
	},
	{
		Name:   KeyNoise,
		Update: func(c *Config, v string) { c.Noise = parseUint(KeyNoise, v, c) },
		Validate: func(c *Config) {
			if c.Noise == 0 {
				c.LogInvalidField(KeyNoise, defaultNoise)
				c.Noise = defaultNoise
			}
		},
	},
	{
		Name:   KeyNoiseTune,
		Update: func(c *Config, v string) { c.NoiseTune = parseBool(KeyNoiseTune, v, c) },
	},
	{
		Name:   KeyThresholdTune,
		Update: func(c *Config, v string) { c.ThresholdTune = parseBool(KeyThresholdTune, v, c) },
	},
	{
		Name:   KeyNoiseMin,
		Update: func(c *Config, v string) { c.NoiseMin = parseUint(KeyNoiseMin, v, c) },
		Validate: func(c *Config) {
			if c.NoiseMin == 0 {
				c.NoiseMin = defaultNoiseMin
			}
		},
	},
	{
		Name:   KeyNoiseMax,
		Update: func(c *Config, v string) { c.NoiseMax = parseUint(KeyNoiseMax, v, c) },
		Validate: func(c *Config) {
			if c.NoiseMax == 0 || c.NoiseMax <= c.NoiseMin {
				c.NoiseMax = defaultNoiseMax
			}
		},
	},
	{
		Name:   KeyThresholdMin,
		Update: func(c *Config, v string) { c.ThresholdMin = parseUint(KeyThresholdMin, v, c) },
		Validate: func(c *Config) {
			if c.ThresholdMin == 0 {
				c.ThresholdMin = defaultThresholdMin
			}
		},
	},
	{
		Name:   KeyDespeckleFilter,
		Update: func(c *Config, v string) { c.DespeckleFilter = v },
		Validate: func(c *Config) {
			if c.DespeckleFilter == "" {
				c.DespeckleFilter = defaultDespeckleFilter
			}
			validateDespeckleFilter(c)
		},
	},
	{
		Name:   KeyLightswitchPercent,
		Update: func(c *Config, v string) { c.LightswitchPercent = parseUint(KeyLightswitchPercent, v, c) },
	},
	{
		Name:   KeyLightswitchFrames,
		Update: func(c *Config, v string) { c.LightswitchFrames = parseUint(KeyLightswitchFrames, v, c) },
	},
	{
		Name:   KeySmartMaskSpeed,
		Update: func(c *Config, v string) { c.SmartMaskSpeed = parseUint(KeySmartMaskSpeed, v, c) },
	},
	{
		Name:   KeyMinimumMotionFrames,
		Update: func(c *Config, v string) { c.MinimumMotionFrames = parseUint(KeyMinimumMotionFrames, v, c) },
		Validate: func(c *Config) {
			if c.MinimumMotionFrames == 0 {
				c.MinimumMotionFrames = defaultMinimumMotionFrames
			}
		},
	},
	{
		Name: KeyEventGap,
		Update: func(c *Config, v string) {
			c.EventGap = parseSeconds(KeyEventGap, v, c)
		},
		Validate: func(c *Config) {
			if c.EventGap <= 0 {
				c.LogInvalidField(KeyEventGap, defaultEventGap)
				c.EventGap = defaultEventGap
			}
		},
	},
	{
		Name:   KeyPreCapture,
		Update: func(c *Config, v string) { c.PreCapture = parseUint(KeyPreCapture, v, c) },
		Validate: func(c *Config) {
			if c.PreCapture == 0 {
				c.PreCapture = defaultPreCapture
			}
		},
	},
	{
		Name:   KeyPostCapture,
		Update: func(c *Config, v string) { c.PostCapture = parseUint(KeyPostCapture, v, c) },
		Validate: func(c *Config) {
			if c.PostCapture == 0 {
				c.PostCapture = defaultPostCapture
			}
		},
	},
	{
		Name:   KeyEmulateMotion,
		Update: func(c *Config, v string) { c.EmulateMotion = parseBool(KeyEmulateMotion, v, c) },
	},
	{
		Name: KeyTimelapseInterval,
		Update: func(c *Config, v string) {
			c.TimelapseInterval = parseSeconds(KeyTimelapseInterval, v, c)
		},
	},
	{
		Name:   KeyTimelapseMode,
		Update: func(c *Config, v string) { c.TimelapseMode = parseInt(KeyTimelapseMode, v, c) },
		Validate: func(c *Config) {
			if c.TimelapseMode < TimelapseManual || c.TimelapseMode > TimelapseNewPerEvent {
				c.LogInvalidField(KeyTimelapseMode, TimelapseManual)
				c.TimelapseMode = TimelapseManual
			}
		},
	},
	{
		Name:   KeyTimelapseOutput,
		Update: func(c *Config, v string) { c.TimelapseOutput = v },
		Validate: func(c *Config) {
			if c.TimelapseOutput == "" && c.TimelapseInterval > 0 {
				c.TimelapseOutput = defaultTimelapseOutput
			}
		},
	},
	{
		Name: KeySnapshotInterval,
		Update: func(c *Config, v string) {
			c.SnapshotInterval = parseSeconds(KeySnapshotInterval, v, c)
		},
	},
	{
		Name:   KeyJPEGQuality,
		Update: func(c *Config, v string) { c.JPEGQuality = parseInt(KeyJPEGQuality, v, c) },
		Validate: func(c *Config) {
			if c.JPEGQuality <= 0 || c.JPEGQuality > 100 {
				c.JPEGQuality = defaultJPEGQuality
			}
		},
	},
	{
		Name:   KeyMaxMissedFrames,
		Update: func(c *Config, v string) { c.MaxMissedFrames = parseUint(KeyMaxMissedFrames, v, c) },
		Validate: func(c *Config) {
			if c.MaxMissedFrames == 0 {
				c.MaxMissedFrames = defaultMaxMissedFrames
			}
			if c.WatchdogTimeout <= 0 {
				c.WatchdogTimeout = defaultWatchdogTimeout
			}
			if c.WatchdogKill <= 0 {
				c.WatchdogKill = defaultWatchdogKill
			}
			if c.ReconnectBackoffMax <= 0 {
				c.ReconnectBackoffMax = defaultReconnectBackoffMax
			}
		},
	},
}

func roundDown8(v uint) uint {
	v -= v % 8
	if v == 0 {
		v = 640
	}
	return v
}

func parseUint(n, v string, c *Config) uint {
	_v, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected unsigned int for param %s", n), "value", v)
	}
	return uint(_v)
}

func parseInt(n, v string, c *Config) int {
	_v, err := strconv.Atoi(v)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected integer for param %s", n), "value", v)
	}
	return _v
}

func parseBool(n, v string, c *Config) (b bool) {
	switch strings.ToLower(v) {
	case "true":
		b = true
	case "false":
		b = false
	default:
		c.Logger.Warning(fmt.Sprintf("expected bool for param %s", n), "value", v)
	}
	return
}

func parseSeconds(n, v string, c *Config) time.Duration {
	_v, err := strconv.ParseFloat(v, 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected seconds for param %s", n), "value", v)
	}
	return time.Duration(_v * float64(time.Second))
}

// validDespeckleOps are the despeckle recipe characters pixelops.Despeckle
// recognises; anything else is silently ignored at run time (§9), but is
// worth warning about at config load since it's almost always a typo.
var validDespeckleOps = []string{"E", "e", "D", "d", "l"}

func validateDespeckleFilter(c *Config) {
	for i, r := range c.DespeckleFilter {
		if !sliceutils.ContainsString(validDespeckleOps, string(r)) {
			c.Logger.Warning("despeckle filter contains unrecognised character, ignored at run time",
				"filter", c.DespeckleFilter, "char", string(r), "position", i)
		}
	}
}
