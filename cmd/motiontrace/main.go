/*
NAME
  motiontrace is a one-shot CLI that replays a sequence of frames through
  detect.DetectionModel and prints each FrameVerdict, for tuning a
  camconfig.Config offline without a live camera (e.g. "is this
  motion_threshold too low for this clip's lighting"). Frames come from a
  directory of PGM stills (see mask's PGM decoder, reused here since a
  bare luma plane is exactly what Process needs) or, absent that, from a
  synthetic run of camera.Synth for a quick smoke test of the pipeline
  wiring itself.

  Besides the per-frame report, motiontrace renders a changed-pixel/
  threshold history chart via gonum.org/v1/plot and, for any frame
  that carried a despeckle bounding box, a diagnostic overlay PNG via
  pixelops.RenderDiagnosticOverlay, grounded on cmd/rv's flag-based
  single-binary CLI style.

AUTHORS
  Ella Pietraroia <ella@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/
package main

import (
	"bytes"
	"flag"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/motion/camconfig"
	"github.com/ausocean/motion/camera"
	"github.com/ausocean/motion/detect"
	"github.com/ausocean/motion/frame"
	"github.com/ausocean/motion/mask"
	"github.com/ausocean/motion/pixelops"
)

func main() {
	framesDir := flag.String("frames", "", "directory of PGM frames to replay, in lexical order; empty runs a synthetic demo sequence")
	width := flag.Uint("width", 320, "frame width, must be a multiple of 8")
	height := flag.Uint("height", 240, "frame height, must be a multiple of 8")
	count := flag.Int("count", 30, "number of synthetic frames to generate when -frames is empty")
	threshold := flag.Uint("motion-threshold", 200, "changed-pixel count that trips motion_detected")
	noise := flag.Uint("noise", 16, "initial per-pixel difference noise floor")
	despeckle := flag.String("despeckle", "EedD", "despeckle filter recipe")
	chartPath := flag.String("chart", "motiontrace.png", "output path for the changed-pixels/threshold history chart")
	overlayDir := flag.String("overlay-dir", "", "directory to write per-frame diagnostic overlay PNGs, empty disables")
	flag.Parse()

	log := logging.New(logging.Info, os.Stderr, true)

	cfg := &camconfig.Config{
		Logger:          log,
		Width:           *width,
		Height:          *height,
		MotionThreshold: *threshold,
		Noise:           *noise,
		DespeckleFilter: *despeckle,
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", "error", err.Error())
	}

	frames, err := loadFrames(*framesDir, int(*width), int(*height), *count, log)
	if err != nil {
		log.Fatal("could not load frames", "error", err.Error())
	}
	if len(frames) == 0 {
		log.Fatal("no frames to replay")
	}

	model := detect.New(cfg, int(*width), int(*height), frames[0])

	var samples []sample

	for i, f := range frames {
		verdict, diff := model.Process(f)
		samples = append(samples, sample{
			index: i, diffs: verdict.ChangedPixels, noise: verdict.Noise,
			threshold: verdict.Threshold, motion: verdict.MotionDetected,
		})
		fmt.Printf("frame %4d  diffs=%-6d noise=%-3d threshold=%-5d lightswitch=%-5v motion=%v\n",
			i, verdict.ChangedPixels, verdict.Noise, verdict.Threshold, verdict.Lightswitch, verdict.MotionDetected)

		if *overlayDir != "" && verdict.HasLocation {
			if err := writeOverlay(*overlayDir, i, f, diff, int(*width), int(*height)); err != nil {
				log.Warning("could not write overlay", "frame", i, "error", err.Error())
			}
		}
	}

	if err := writeChart(*chartPath, samples); err != nil {
		log.Warning("could not write chart", "error", err.Error())
	} else {
		log.Info("wrote chart", "path", *chartPath)
	}
}

// loadFrames reads dir's *.pgm files in lexical order as luma-only frames
// (chroma planes left zeroed, since motion detection never reads them),
// or generates count synthetic frames via camera.Synth if dir is empty.
func loadFrames(dir string, w, h, count int, log logging.Logger) ([]*frame.Frame, error) {
	if dir == "" {
		synth := camera.NewSynth(w, h, 0, nil)
		if err := synth.Start(); err != nil {
			return nil, err
		}
		defer synth.Stop()
		frames := make([]*frame.Frame, 0, count)
		for i := 0; i < count; i++ {
			f, err := synth.NextFrame()
			if err != nil {
				return nil, err
			}
			frames = append(frames, f)
		}
		return frames, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".pgm" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	frames := make([]*frame.Frame, 0, len(names))
	for i, name := range names {
		y, err := mask.Load(filepath.Join(dir, name), w, h, log)
		if err != nil {
			return nil, err
		}
		f := frame.New(w, h)
		copy(f.Y, y)
		f.Index = uint64(i)
		f.Time = time.Now()
		frames = append(frames, f)
	}
	return frames, nil
}

// writeOverlay renders diag's largest despeckle label as a translucent
// box over f's luma plane and writes it as a PNG.
func writeOverlay(dir string, index int, f *frame.Frame, diag detect.DiffResult, w, h int) error {
	if diag.Labels == nil {
		return nil
	}
	box := pixelops.Box{X: diag.Labels.Location.X, Y: diag.Labels.Location.Y, W: diag.Labels.Location.W, H: diag.Labels.Location.H}
	img := pixelops.RenderDiagnosticOverlay(f.Y, w, h, []pixelops.Box{box}, pixelops.TintRed)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("%04d.png", index))
	return os.WriteFile(path, buf.Bytes(), 0644)
}

type sample struct {
	index     int
	diffs     int
	noise     uint8
	threshold uint
	motion    bool
}

// writeChart plots changed-pixel count and threshold against frame index.
func writeChart(path string, samples []sample) error {
	p := plot.New()
	p.Title.Text = "motion trace"
	p.X.Label.Text = "frame"
	p.Y.Label.Text = "changed pixels"
	p.Add(plotter.NewGrid())

	diffPts := make(plotter.XYs, len(samples))
	threshPts := make(plotter.XYs, len(samples))
	for i, s := range samples {
		diffPts[i] = plotter.XY{X: float64(s.index), Y: float64(s.diffs)}
		threshPts[i] = plotter.XY{X: float64(s.index), Y: float64(s.threshold)}
	}

	diffLine, err := plotter.NewLine(diffPts)
	if err != nil {
		return err
	}
	threshLine, err := plotter.NewLine(threshPts)
	if err != nil {
		return err
	}
	threshLine.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}

	p.Add(diffLine, threshLine)
	p.Legend.Add("changed pixels", diffLine)
	p.Legend.Add("threshold", threshLine)

	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}
