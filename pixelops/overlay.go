/*
NAME
  overlay.go

DESCRIPTION
  overlay_smartmask / overlay_fixed_mask / overlay_largest_label (§4.1):
  stamp a colour tint into a YUV420p image wherever a mask is active, for
  the "motion-overlay" diagnostic image variant.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.
*/

package pixelops

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Tint selects which colour OverlayMask stamps.
type Tint int

const (
	TintRed Tint = iota
	TintGreen
	TintBlue
)

// tint Y/U/V values, chosen so the overlay reads clearly against a mid-grey
// scene without fully clipping the underlying luma.
var tintYUV = map[Tint][3]byte{
	TintRed:   {76, 84, 255},
	TintGreen: {149, 43, 21},
	TintBlue:  {29, 255, 107},
}

// OverlaySmartmask tints y/u/v wherever smartmaskFinal is active.
func OverlaySmartmask(y, u, v []byte, w, h int, smartmaskFinal []byte) {
	overlayMask(y, u, v, w, h, smartmaskFinal, TintRed)
}

// OverlayFixedMask tints y/u/v wherever fixedMask is active.
func OverlayFixedMask(y, u, v []byte, w, h int, fixedMask []byte) {
	overlayMask(y, u, v, w, h, fixedMask, TintGreen)
}

// OverlayLargestLabel tints y/u/v wherever box covers, for the largest
// connected component found by Despeckle.
func OverlayLargestLabel(y, u, v []byte, w, h int, box Box) {
	if box.empty() {
		return
	}
	mask := make([]byte, w*h)
	for py := box.Y; py < box.Y+box.H && py < h; py++ {
		for px := box.X; px < box.X+box.W && px < w; px++ {
			mask[py*w+px] = setPixel
		}
	}
	overlayMask(y, u, v, w, h, mask, TintBlue)
}

// RenderDiagnosticOverlay composites a translucent box over a copy of the
// y plane (rendered as greyscale) for boxes such as the despeckle/area
// bounding boxes exported to motion-trace diagnostics, where the in-place
// tinting overlayMask does for live frames is too heavy-handed on a
// still meant to be inspected after the fact. Unlike overlayMask this
// alpha-blends rather than stamping a flat colour, via
// golang.org/x/image/draw's general Draw/Over compositing rather than
// its Scaler (used instead by ScaleHalf's fallback path).
func RenderDiagnosticOverlay(y []byte, w, h int, boxes []Box, t Tint) image.Image {
	base := &image.Gray{Pix: append([]byte(nil), y...), Stride: w, Rect: image.Rect(0, 0, w, h)}
	dst := image.NewRGBA(base.Rect)
	draw.Draw(dst, dst.Bounds(), base, image.Point{}, draw.Src)

	c := tintYUV[t]
	highlight := image.NewUniform(color.NRGBA{R: c[0], G: c[1], B: c[2], A: 96})
	for _, b := range boxes {
		if b.empty() {
			continue
		}
		r := image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H).Intersect(dst.Bounds())
		if r.Empty() {
			continue
		}
		draw.Draw(dst, r, highlight, image.Point{}, draw.Over)
	}
	return dst
}

func overlayMask(y, u, v []byte, w, h int, mask []byte, t Tint) {
	if mask == nil {
		return
	}
	c := tintYUV[t]
	cw, ch := w/2, h/2
	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			i := py*w + px
			if mask[i] == clearPixel {
				continue
			}
			y[i] = c[0]
			ci := (py/2)*cw + px/2
			if ci < len(u) && py/2 < ch {
				u[ci] = c[1]
				v[ci] = c[2]
			}
		}
	}
}
