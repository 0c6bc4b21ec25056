/*
NAME
  camerad is a standalone camera daemon running the motion detection and
  event pipeline against a single camera, for demonstration and local
  testing without a control-plane config loader (out of scope per this
  repo's own specification; see camconfig's doc comment). Flags set the
  fields camconfig.Config would otherwise have populated from the cloud.

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
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/motion/camconfig"
	"github.com/ausocean/motion/camera"
	"github.com/ausocean/motion/writer"
)

const version = "v0.1.0"

// Logging configuration, mirroring the teacher's cmd/rv defaults.
const (
	logMaxSize   = 100 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
	logVerbosity = logging.Info
	logSuppress  = true
)

func main() {
	showVersion := flag.Bool("version", false, "show version")
	logPath := flag.String("log", "/var/log/camerad/camerad.log", "log file path")
	cameraID := flag.Uint("camera-id", 0, "camera identifier, substituted at %t in output paths")
	cameraName := flag.String("camera-name", "camera0", "camera name, substituted at %$ in output paths")
	width := flag.Uint("width", 640, "frame width, must be a multiple of 8")
	height := flag.Uint("height", 480, "frame height, must be a multiple of 8")
	frameRate := flag.Uint("fps", 10, "target frame rate")
	threshold := flag.Uint("motion-threshold", 1500, "changed-pixel count that trips motion_detected")
	noise := flag.Uint("noise", 16, "initial per-pixel difference noise floor")
	despeckle := flag.String("despeckle", "EedD", "despeckle filter recipe, e.g. EedD")
	eventGap := flag.Duration("event-gap", 5*time.Second, "quiet duration allowed within an event")
	preCapture := flag.Uint("pre-capture", 2, "frames retained before motion is confirmed")
	postCapture := flag.Uint("post-capture", 2, "frames written unconditionally after the event gap")
	targetDir := flag.String("target-dir", ".", "directory still/movie/snapshot output is written under")
	pictureOutput := flag.String("picture-output", "%Y%m%d/%H%M%S-%q.jpg", "still filename format, empty disables stills")
	movieOutput := flag.String("movie-output", "%Y%m%d/%C-%v.mev", "movie filename format, empty disables movies")
	jpegQuality := flag.Int("jpeg-quality", 80, "still/movie frame JPEG quality, 0-100")
	snapshotInterval := flag.Duration("snapshot-interval", 0, "periodic snapshot sampling period, 0 disables")
	watchdogTimeout := flag.Duration("watchdog-timeout", 30*time.Second, "systemd watchdog timeout (notified at half this interval) and internal reset deadline, 0 disables")
	watchdogKill := flag.Duration("watchdog-kill", 60*time.Second, "further time without a frame, past watchdog-timeout, before the camera task terminates for supervisor restart")
	timelapseInterval := flag.Duration("timelapse-interval", 0, "time-lapse sampling period, 0 disables")
	timelapseMode := flag.Int("timelapse-mode", camconfig.TimelapseDaily, "time-lapse rollover policy: 0=manual 1=daily 2=hourly 3=continuous 4=new-per-event")
	timelapseOutput := flag.String("timelapse-output", "%Y%m%d/timelapse-%H%M%S.mev", "time-lapse filename format, empty disables time-lapse output")
	demo := flag.Bool("demo", true, "run against a synthetic capture source instead of real hardware")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	fileLog := &lumberjack.Logger{
		Filename:   *logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	log := logging.New(logVerbosity, io.MultiWriter(fileLog, os.Stderr), logSuppress)
	log.Info("starting camerad", "version", version)

	cfg := &camconfig.Config{
		Logger:              log,
		CameraID:            *cameraID,
		CameraName:          *cameraName,
		Width:               *width,
		Height:              *height,
		FrameRate:           *frameRate,
		MotionThreshold:     *threshold,
		Noise:               *noise,
		DespeckleFilter:     *despeckle,
		MinimumMotionFrames: 1,
		EventGap:            *eventGap,
		PreCapture:          *preCapture,
		PostCapture:         *postCapture,
		TargetDir:           *targetDir,
		PictureOutput:       *pictureOutput,
		MovieOutput:         *movieOutput,
		JPEGQuality:         *jpegQuality,
		SnapshotInterval:    *snapshotInterval,
		WatchdogTimeout:     *watchdogTimeout,
		WatchdogKill:        *watchdogKill,
		TimelapseInterval:   *timelapseInterval,
		TimelapseMode:       *timelapseMode,
		TimelapseOutput:     *timelapseOutput,
		MaxMissedFrames:     10,
		ReconnectBackoffMax: 30 * time.Second,
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", "error", err.Error())
	}

	if !*demo {
		log.Fatal("camerad was built with only a synthetic capture source; pass -demo or adapt a camera.Capture for real hardware")
	}

	scripts := camera.NewExec(log)
	sink := camera.NewLogSink(cfg, scripts)
	pool := writer.NewPool(cfg)
	writers := camera.Writers{WriterPool: pool, SnapshotWriter: pool}

	interval := time.Second
	if *frameRate > 0 {
		interval = time.Second / time.Duration(*frameRate)
	}
	capture := camera.NewSynth(int(*width), int(*height), interval, nil)

	loop, err := camera.New(cfg, capture, sink, writers, scripts)
	if err != nil {
		log.Fatal("could not start camera loop", "error", err.Error())
	}
	defer loop.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Debug("beginning main loop")
	if err := loop.Run(ctx); err != nil {
		log.Fatal("camera loop exited with error", "error", err.Error())
	}
	log.Info("camerad stopped")
}
