/*
NAME
  movie.go

DESCRIPTION
  MovieEncoder packages a sequence of motion-event frames into a single
  file: each frame is JPEG-encoded and written as a length-prefixed tag,
  mirroring the tag-per-frame shape of container/flv's Encoder.Write
  without FLV's audio/video-specific tag types, since an event movie here
  is a silent, single-stream JPEG sequence rather than a muxed H.264/AAC
  stream.

AUTHORS
  Ella Pietraroia <ella@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package writer

import (
	"encoding/binary"
	"io"

	"github.com/ausocean/motion/frame"
)

// movieMagic identifies the container so a reader can sanity-check a file
// before parsing it.
var movieMagic = [4]byte{'M', 'E', 'V', '1'}

// MovieEncoder writes a sequence of frame tags to dst. Each tag is:
//
//	8 bytes  timestamp, unix nanoseconds, big-endian
//	4 bytes  JPEG payload length, big-endian
//	N bytes  JPEG payload
type MovieEncoder struct {
	dst     io.WriteCloser
	quality int
	wrote   int
}

// NewMovieEncoder returns a MovieEncoder writing to dst at the given JPEG
// quality (0-100).
func NewMovieEncoder(dst io.WriteCloser, quality int) (*MovieEncoder, error) {
	if _, err := dst.Write(movieMagic[:]); err != nil {
		return nil, err
	}
	return &MovieEncoder{dst: dst, quality: quality}, nil
}

// WriteFrame JPEG-encodes f and appends it as a tag.
func (e *MovieEncoder) WriteFrame(f *frame.Frame) error {
	payload, err := EncodeStill(f, e.quality)
	if err != nil {
		return err
	}
	var hdr [12]byte
	binary.BigEndian.PutUint64(hdr[0:8], uint64(f.Time.UnixNano()))
	binary.BigEndian.PutUint32(hdr[8:12], uint32(len(payload)))
	if _, err := e.dst.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := e.dst.Write(payload); err != nil {
		return err
	}
	e.wrote++
	return nil
}

// Frames reports how many frames have been written so far.
func (e *MovieEncoder) Frames() int { return e.wrote }

// Close closes the underlying destination.
func (e *MovieEncoder) Close() error {
	return e.dst.Close()
}
