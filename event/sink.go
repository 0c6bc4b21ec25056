/*
NAME
  sink.go

DESCRIPTION
  EventSink and WriterPool, the two interfaces Machine drives (§4.3).
  CameraLoop supplies concrete implementations; EventSink callbacks are
  dispatched synchronously from Machine.Process, so a slow sink blocks the
  camera's frame loop (callers wanting async delivery should buffer inside
  their own EventSink implementation, the same "camera task never blocks"
  principle §9 applies to script execution).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.
*/

package event

import (
	"time"

	"github.com/ausocean/motion/frame"
)

// FileKind identifies which of §6's file categories a FileCreate/
// FileClose/FileError callback concerns, and supplies the %n filenamefmt
// specifier's FileKindID.
type FileKind int

const (
	Image FileKind = iota
	ImageMotion
	ImageSnapshot
	Movie
	MovieMotion
	MovieTimelapse
)

func (k FileKind) String() string {
	switch k {
	case Image:
		return "image"
	case ImageMotion:
		return "image_motion"
	case ImageSnapshot:
		return "image_snapshot"
	case Movie:
		return "movie"
	case MovieMotion:
		return "movie_motion"
	case MovieTimelapse:
		return "movie_timelapse"
	default:
		return "unknown"
	}
}

// EventSink receives notifications of event lifecycle transitions and
// file lifecycle. Configured scripts are run through ScriptRunner, not
// through EventSink.
type EventSink interface {
	EventStart(eventID uint64, t time.Time)
	EventEnd(eventID uint64, t time.Time)
	MotionDetected(eventID uint64, t time.Time)
	AreaDetected(eventID uint64, t time.Time, areas []int)
	FileCreate(kind FileKind, path string)
	FileClose(kind FileKind, path string)
	// FileError reports that a write to path (kind's file) failed with
	// reason; the writer failure is local to its writer and must never
	// terminate the camera loop (§4.4), so this is the only channel such
	// a failure is observable through.
	FileError(kind FileKind, path string, reason error)
}

// WriterPool is the set of output writers Machine dispatches frames to. An
// empty MovieOutput/PictureOutput path on the owning Config means the
// corresponding method is never called; implementations don't need to
// special-case "no output configured".
type WriterPool interface {
	// OpenMovie opens a movie file for the given event, keyed by a
	// formatted filename; path is returned for the FileCreate callback.
	OpenMovie(eventID uint64, t time.Time) (path string, err error)
	WriteMovieFrame(f *frame.Frame, t time.Time) error
	CloseMovie() (path string, err error)

	// WriteStill writes one still image, independent of movie state.
	WriteStill(f *frame.Frame, t time.Time) error
}
