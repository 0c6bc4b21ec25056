/*
NAME
  geometry.go

DESCRIPTION
  scale_half and rotate_reflect (§4.1): nearest-neighbour half-size
  subsampling for the sub-stream, and rotation/reflection of a captured
  frame before it reaches DetectionModel.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.
*/

package pixelops

import (
	"image"

	"golang.org/x/image/draw"
)

// Reflect selects an optional flip applied before rotation.
type Reflect int

const (
	ReflectNone Reflect = iota
	ReflectHorizontal
	ReflectVertical
)

// ScaleHalf nearest-neighbour subsamples src (w x h) into dst ((w/2) x
// (h/2)). Both w and h should be multiples of 16 per §4.1 for the exact
// every-other-pixel decimation the hot path wants; ScaleHalf still fills
// dst when that doesn't hold, using golang.org/x/image/draw's
// approximate bilinear scaler instead, but reports ok=false so callers
// that need the precise semantics (e.g. the despeckle label-location
// math, which assumes exact 2x decimation) can choose to forward the
// full-size image unchanged instead of trusting the approximation.
func ScaleHalf(src []byte, w, h int, dst []byte) (ok bool) {
	dw, dh := w/2, h/2
	if len(src) != w*h || len(dst) != dw*dh {
		panic("pixelops: scale_half buffer size mismatch")
	}
	if w%16 != 0 || h%16 != 0 {
		scaleHalfApprox(src, w, h, dst, dw, dh)
		return false
	}
	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			dst[y*dw+x] = src[(2*y)*w+2*x]
		}
	}
	return true
}

// scaleHalfApprox handles the non-multiple-of-16 case via
// draw.ApproxBiLinear, wrapping the planes directly in image.Gray since
// a single luma byte per pixel is exactly image.Gray's pixel format.
func scaleHalfApprox(src []byte, w, h int, dst []byte, dw, dh int) {
	srcImg := &image.Gray{Pix: src, Stride: w, Rect: image.Rect(0, 0, w, h)}
	dstImg := &image.Gray{Pix: dst, Stride: dw, Rect: image.Rect(0, 0, dw, dh)}
	draw.ApproxBiLinear.Scale(dstImg, dstImg.Rect, srcImg, srcImg.Rect, draw.Src, nil)
}

// RotateReflect rotates a W*H plane by degrees (one of 0, 90, 180, 270),
// optionally preceded by a flip, and returns the resulting plane and its
// new dimensions. 180 degrees is done in place via byte reversal; 90
// and 270 need a scratch buffer since they transpose. degrees values other
// than a multiple of 90 panic; callers must validate and disable rotation
// at config time instead (§4.1 "Error conditions").
func RotateReflect(src []byte, w, h int, reflect Reflect, degrees int) (dst []byte, dstW, dstH int) {
	if degrees%90 != 0 {
		panic("pixelops: degrees must be a multiple of 90")
	}
	degrees = ((degrees % 360) + 360) % 360

	work := applyReflect(src, w, h, reflect)

	switch degrees {
	case 0:
		return work, w, h
	case 180:
		reverseInPlace(work)
		return work, w, h
	case 90:
		return rotate90(work, w, h), h, w
	case 270:
		return rotate270(work, w, h), h, w
	}
	panic("unreachable")
}

func applyReflect(src []byte, w, h int, reflect Reflect) []byte {
	switch reflect {
	case ReflectNone:
		return append([]byte(nil), src...)
	case ReflectHorizontal:
		out := make([]byte, len(src))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out[y*w+x] = src[y*w+(w-1-x)]
			}
		}
		return out
	case ReflectVertical:
		out := make([]byte, len(src))
		for y := 0; y < h; y++ {
			copy(out[y*w:(y+1)*w], src[(h-1-y)*w:(h-y)*w])
		}
		return out
	}
	panic("pixelops: unknown reflect kind")
}

func reverseInPlace(buf []byte) {
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
}

// rotate90 rotates a w x h plane 90 degrees clockwise into a new h x w
// plane.
func rotate90(src []byte, w, h int) []byte {
	dst := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// Destination is h wide, w tall.
			dx := h - 1 - y
			dy := x
			dst[dy*h+dx] = src[y*w+x]
		}
	}
	return dst
}

// rotate270 rotates a w x h plane 270 degrees clockwise (= 90
// counter-clockwise) into a new h x w plane.
func rotate270(src []byte, w, h int) []byte {
	dst := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := y
			dy := w - 1 - x
			dst[dy*h+dx] = src[y*w+x]
		}
	}
	return dst
}
