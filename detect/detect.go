/*
NAME
  detect.go

DESCRIPTION
  Package detect implements DetectionModel (§4.2): it owns the reference
  frame and per-pixel reference-age state, the smartmask accumulator, the
  noise/threshold auto-tuners and the lightswitch detector, and turns a
  captured frame into a FrameVerdict plus the DiffResult that produced it.

AUTHORS
  Ella Pietraroia <ella@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package detect

import (
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"github.com/ausocean/motion/camconfig"
	"github.com/ausocean/motion/frame"
	"github.com/ausocean/motion/pixelops"
)

// SmartmaskSensitivity is the fixed clamp the smartmask accumulator
// saturates at (§4.2 step 7); smartmask_final is rebuilt as
// smartmask_accum < SmartmaskSensitivity.
const SmartmaskSensitivity = 20

// noiseTuneAlpha is the EWMA smoothing factor for the noise auto-tuner
// (§4.2 step 5).
const noiseTuneAlpha = 0.125

// noiseSampleCount is how many pixels the noise auto-tuner's percentile
// estimate samples per frame; a full-frame histogram isn't worth the cost
// every frame.
const noiseSampleCount = 512

// thresholdWindowSize is the sliding window length the threshold
// auto-tuner inspects (§4.2 step 6).
const thresholdWindowSize = 50

// ReferenceModel is the state DetectionModel carries between frames.
type ReferenceModel struct {
	Ref            []byte
	RefAge         []uint32
	SmartmaskAccum []int32
	SmartmaskFinal []byte
	PrivacyMask    []byte
	FixedMask      []byte
}

// DiffResult is the transient per-frame output of the diff/despeckle
// pipeline (§3).
type DiffResult struct {
	Out    []byte
	Diffs  int
	Labels *pixelops.Label
}

// FrameVerdict summarises one frame's detection result (§3).
type FrameVerdict struct {
	ChangedPixels int
	Noise         uint8
	Threshold     uint
	Lightswitch   bool
	Location      frame.Box
	HasLocation   bool

	// MotionDetected is (ChangedPixels > Threshold || EmulateMotion) &&
	// !Lightswitch (§4.2), using whichever Threshold was in effect for this
	// frame (the auto-tuner may have moved it since the previous frame).
	MotionDetected bool
}

// DetectionModel is the per-camera motion detection pipeline. It is not
// safe for concurrent use; CameraLoop owns one instance per camera and
// calls Process from a single goroutine.
type DetectionModel struct {
	cfg *camconfig.Config
	w, h int

	model ReferenceModel

	noise     uint8
	threshold uint

	lightswitchRemaining uint

	diffWindow    []int
	diffWindowPos int

	smartmaskCountdown uint

	frameIndex uint64

	rng *rand.Rand
}

// New builds a DetectionModel for a w x h camera, with the reference frame
// seeded from the given first frame's Y plane (action Reset, §4.1).
func New(cfg *camconfig.Config, w, h int, seed *frame.Frame) *DetectionModel {
	d := &DetectionModel{
		cfg:       cfg,
		w:         w,
		h:         h,
		noise:     uint8(cfg.Noise),
		threshold: cfg.MotionThreshold,
		rng:       rand.New(rand.NewSource(1)),
		model: ReferenceModel{
			Ref:            make([]byte, w*h),
			RefAge:         make([]uint32, w*h),
			SmartmaskAccum: make([]int32, w*h),
			SmartmaskFinal: make([]byte, w*h),
		},
	}
	for i := range d.model.SmartmaskFinal {
		d.model.SmartmaskFinal[i] = 1 // all-pass until the learner has run.
	}
	pixelops.UpdateReference(d.model.Ref, d.model.RefAge, seed.Y, d.model.SmartmaskFinal, nil, 0, 0, pixelops.Reset)
	return d
}

// SetPrivacyMask and SetFixedMask install a static mask loaded by the mask
// package; nil reverts to all-pass, matching the "absent masks are
// all-pass" rule of §3.
func (d *DetectionModel) SetPrivacyMask(m []byte) { d.model.PrivacyMask = m }
func (d *DetectionModel) SetFixedMask(m []byte)   { d.model.FixedMask = m }

// ReferenceModel exposes the live reference state, e.g. for diagnostics or
// the motiontrace tool.
func (d *DetectionModel) ReferenceModel() *ReferenceModel { return &d.model }

// Process runs the full per-frame pipeline of §4.2 against f.Y and returns
// the resulting diff image and verdict.
func (d *DetectionModel) Process(f *frame.Frame) (FrameVerdict, DiffResult) {
	d.frameIndex++
	out := make([]byte, d.w*d.h)

	// 1. threshold_diff.
	pixelops.ThresholdDiff(d.model.Ref, f.Y, d.noise, out)

	// 2. apply_masks.
	pixelops.ApplyMasks(out, d.model.SmartmaskFinal, d.model.PrivacyMask, d.model.FixedMask)

	// 3. despeckle.
	minPixels := 1
	diffs, labels := pixelops.Despeckle(out, d.w, d.h, d.cfg.DespeckleFilter, minPixels)

	result := DiffResult{Out: out, Diffs: diffs, Labels: labels}
	verdict := FrameVerdict{ChangedPixels: diffs, Noise: d.noise, Threshold: d.threshold}

	// 4. Lightswitch detection.
	lightswitch := false
	if d.lightswitchRemaining > 0 {
		lightswitch = true
		d.lightswitchRemaining--
		verdict.ChangedPixels = 0
		result.Diffs = 0
	} else if d.cfg.LightswitchPercent > 0 && uint(diffs)*100/uint(d.w*d.h) >= d.cfg.LightswitchPercent {
		lightswitch = true
		d.lightswitchRemaining = d.cfg.LightswitchFrames
	}
	verdict.Lightswitch = lightswitch

	// 5. Noise auto-tune.
	if d.cfg.NoiseTune {
		d.tuneNoise(f)
	}

	// 6. Threshold auto-tune.
	if d.cfg.ThresholdTune {
		d.tuneThreshold(diffs)
	}

	// 7. Smartmask update.
	if d.cfg.SmartMaskSpeed > 0 {
		d.updateSmartmask(out)
	}

	// 8. Reference update.
	action := pixelops.Update
	if lightswitch {
		action = pixelops.Reset
	}
	acceptTimer := pixelops.AcceptTimer(maxUint(d.cfg.FrameRate, 1))
	pixelops.UpdateReference(d.model.Ref, d.model.RefAge, f.Y, d.model.SmartmaskFinal, out, d.noise, acceptTimer, action)

	if labels != nil && labels.Location.W > 0 && labels.Location.H > 0 {
		verdict.HasLocation = true
		verdict.Location = frame.Box{X: labels.Location.X, Y: labels.Location.Y, W: labels.Location.W, H: labels.Location.H}
	}

	verdict.MotionDetected = (verdict.ChangedPixels > int(d.threshold) || d.cfg.EmulateMotion) && !verdict.Lightswitch

	return verdict, result
}

func (d *DetectionModel) tuneNoise(f *frame.Frame) {
	n := len(f.Y)
	if n == 0 {
		return
	}
	samples := make([]float64, 0, noiseSampleCount)
	for i := 0; i < noiseSampleCount; i++ {
		p := d.rng.Intn(n)
		diff := int(d.model.Ref[p]) - int(f.Y[p])
		if diff < 0 {
			diff = -diff
		}
		samples = append(samples, float64(diff))
	}
	measured := stat.Quantile(0.9, stat.Empirical, samples, nil)

	updated := (1-noiseTuneAlpha)*float64(d.noise) + noiseTuneAlpha*measured
	n8 := uint(updated)
	if n8 < d.cfg.NoiseMin {
		n8 = d.cfg.NoiseMin
	}
	if d.cfg.NoiseMax > 0 && n8 > d.cfg.NoiseMax {
		n8 = d.cfg.NoiseMax
	}
	if n8 > 254 {
		n8 = 254
	}
	d.noise = uint8(n8)
}

func (d *DetectionModel) tuneThreshold(diffs int) {
	if cap(d.diffWindow) == 0 {
		d.diffWindow = make([]int, thresholdWindowSize)
	}
	d.diffWindow[d.diffWindowPos%thresholdWindowSize] = diffs
	d.diffWindowPos++

	if d.diffWindowPos < thresholdWindowSize {
		return
	}
	windowMax := 0
	for _, v := range d.diffWindow {
		if v > windowMax {
			windowMax = v
		}
	}
	if uint(windowMax)*2 < d.threshold && d.threshold > d.cfg.ThresholdMin {
		d.threshold--
		if d.threshold < d.cfg.ThresholdMin {
			d.threshold = d.cfg.ThresholdMin
		}
	}
}

func (d *DetectionModel) updateSmartmask(out []byte) {
	speed := int32(d.cfg.SmartMaskSpeed)
	for i, v := range out {
		if v != 0 {
			d.model.SmartmaskAccum[i]++
		} else {
			d.model.SmartmaskAccum[i] -= speed
		}
		if d.model.SmartmaskAccum[i] < 0 {
			d.model.SmartmaskAccum[i] = 0
		}
		if d.model.SmartmaskAccum[i] > SmartmaskSensitivity {
			d.model.SmartmaskAccum[i] = SmartmaskSensitivity
		}
	}

	d.smartmaskCountdown++
	if d.smartmaskCountdown < maxUint(d.cfg.FrameRate, 1) {
		return
	}
	d.smartmaskCountdown = 0
	for i, v := range d.model.SmartmaskAccum {
		if v < SmartmaskSensitivity {
			d.model.SmartmaskFinal[i] = 1
		} else {
			d.model.SmartmaskFinal[i] = 0
		}
	}
}

func maxUint(v, floor uint) uint {
	if v < floor {
		return floor
	}
	return v
}
