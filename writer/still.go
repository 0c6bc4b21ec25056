/*
NAME
  still.go

DESCRIPTION
  EncodeStill converts a YUV420p Frame to JPEG. Go's image.YCbCr is laid
  out exactly like our planar YUV420p model (full-resolution Y, quarter-
  resolution Cb/Cr at 4:2:0), so no pixel shuffling is needed beyond
  wrapping the existing planes.

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
	"bytes"
	"image"
	"image/jpeg"

	"github.com/ausocean/motion/frame"
)

// ycbcr wraps f's planes in an image.YCbCr without copying. f must outlive
// the returned image.
func ycbcr(f *frame.Frame) *image.YCbCr {
	return &image.YCbCr{
		Y:              f.Y,
		Cb:             f.U,
		Cr:             f.V,
		YStride:        f.W,
		CStride:        f.W / 2,
		SubsampleRatio: image.YCbCrSubsampleRatio420,
		Rect:           image.Rect(0, 0, f.W, f.H),
	}
}

// EncodeStill encodes f as a JPEG at the given quality (0-100).
func EncodeStill(f *frame.Frame, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, ycbcr(f), &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
