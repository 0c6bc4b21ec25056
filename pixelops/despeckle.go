/*
NAME
  despeckle.go

DESCRIPTION
  despeckle, the erode/dilate/connected-component recipe interpreter of
  §4.1. Ported from the Motion project's despeckle filter semantics
  (described, not literally transcribed, in the filtered source this
  repository was distilled from); the recipe-string parsing follows the
  despeckle recipe parser design note of §9: warn on unknown characters,
  apply left-to-right.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.
*/

package pixelops

// Label describes the result of the "l" despeckle operation: connected
// components of the binary diff image, keeping only components at or
// above minPixels.
type Label struct {
	TotalLabels        int
	LargestLabelPixels int
	Location           Box
}

// Box is an axis-aligned pixel-coordinate bounding box, local to the
// despeckle labelling step. Callers that need to combine it with a
// frame.Box can convert field-for-field; kept separate here so pixelops
// has no dependency on the frame package.
type Box struct {
	X, Y, W, H int
}

func (b Box) empty() bool { return b.W <= 0 || b.H <= 0 }

// Despeckle runs the despeckle recipe in filterSpec against the W*H binary
// image out (values are 0 or setPixel), left-to-right. Unrecognised
// characters are ignored. Returns the post-filter set-pixel count and, if
// the recipe contains an 'l', the labelling result (minPixels is the
// minimum component size to keep; components smaller than this are
// cleared).
func Despeckle(out []byte, w, h int, filterSpec string, minPixels int) (diffsAfter int, labels *Label) {
	if len(out) != w*h {
		panic("pixelops: despeckle buffer size mismatch")
	}

	scratch := make([]byte, w*h)
	for _, op := range filterSpec {
		switch op {
		case 'E':
			erode(out, scratch, w, h, box3x3)
		case 'e':
			erode(out, scratch, w, h, cross3x3)
		case 'D':
			dilate(out, scratch, w, h, box3x3)
		case 'd':
			dilate(out, scratch, w, h, cross3x3)
		case 'l':
			labels = labelAndFilter(out, w, h, minPixels)
		default:
			// Unknown character: ignored, matching §9's despeckle recipe
			// parser note. Validation (warn-on-unknown) happens at config
			// load, not here.
		}
	}
	return Popcount(out), labels
}

// neighborhood enumerates the 8 neighbour offsets used by a 3x3
// structuring element; box3x3 uses all eight, cross3x3 only the four
// orthogonal ones.
type neighborhood [][2]int

var (
	box3x3 = neighborhood{
		{-1, -1}, {0, -1}, {1, -1},
		{-1, 0}, {1, 0},
		{-1, 1}, {0, 1}, {1, 1},
	}
	cross3x3 = neighborhood{
		{0, -1}, {-1, 0}, {1, 0}, {0, 1},
	}
)

// erode clears a set pixel unless every neighbour in nh is also set
// (pixels outside the image are treated as set, i.e. the border is not
// eroded inward from off-image).
func erode(out, scratch []byte, w, h int, nh neighborhood) {
	copy(scratch, out)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if scratch[i] == clearPixel {
				continue
			}
			keep := true
			for _, d := range nh {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				if scratch[ny*w+nx] == clearPixel {
					keep = false
					break
				}
			}
			if !keep {
				out[i] = clearPixel
			}
		}
	}
}

// dilate sets a clear pixel if any neighbour in nh is set.
func dilate(out, scratch []byte, w, h int, nh neighborhood) {
	copy(scratch, out)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if scratch[i] != clearPixel {
				continue
			}
			for _, d := range nh {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				if scratch[ny*w+nx] != clearPixel {
					out[i] = setPixel
					break
				}
			}
		}
	}
}

// labelAndFilter does an 8-connected flood fill labelling pass, clears
// components smaller than minPixels, and reports the largest surviving
// component's size and bounding box.
func labelAndFilter(out []byte, w, h int, minPixels int) *Label {
	visited := make([]bool, w*h)
	var stack []int

	type component struct {
		pixels []int
		box    Box
	}
	var components []component

	for start := 0; start < w*h; start++ {
		if out[start] == clearPixel || visited[start] {
			continue
		}
		visited[start] = true
		stack = append(stack[:0], start)
		var comp component
		minX, minY := w, h
		maxX, maxY := -1, -1

		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp.pixels = append(comp.pixels, i)
			x, y := i%w, i/w
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
			for _, d := range box3x3 {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				ni := ny*w + nx
				if out[ni] == clearPixel || visited[ni] {
					continue
				}
				visited[ni] = true
				stack = append(stack, ni)
			}
		}
		comp.box = Box{X: minX, Y: minY, W: maxX - minX + 1, H: maxY - minY + 1}
		components = append(components, comp)
	}

	result := &Label{TotalLabels: len(components)}
	for _, c := range components {
		if len(c.pixels) < minPixels {
			for _, i := range c.pixels {
				out[i] = clearPixel
			}
			continue
		}
		if len(c.pixels) > result.LargestLabelPixels {
			result.LargestLabelPixels = len(c.pixels)
			result.Location = c.box
		}
	}
	return result
}
