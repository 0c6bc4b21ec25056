/*
NAME
  areagrid.go

DESCRIPTION
  AreaGrid, a supplemented feature from the original source (area_detect):
  a 3x3 grid over the frame, numbered 1-9 left-to-right, top-to-bottom,
  used to fire on_area_detected only when motion intersects configured
  regions.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.
*/

package event

import "github.com/ausocean/motion/frame"

// AreaGrid divides a W x H frame into a 3x3 grid of regions numbered 1-9:
//
//	1 2 3
//	4 5 6
//	7 8 9
type AreaGrid struct {
	W, H int
}

// Contains returns the grid region numbers (1-9) that b overlaps.
func (g AreaGrid) Contains(b frame.Box) []int {
	if b.Empty() {
		return nil
	}
	cw, ch := g.W/3, g.H/3
	if cw == 0 || ch == 0 {
		return nil
	}

	var regions []int
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			cell := frame.Box{X: col * cw, Y: row * ch, W: cw, H: ch}
			if row == 2 {
				cell.H = g.H - cell.Y
			}
			if col == 2 {
				cell.W = g.W - cell.X
			}
			if b.Intersects(cell) {
				regions = append(regions, row*3+col+1)
			}
		}
	}
	return regions
}

// Intersects reports whether b overlaps any of the given region numbers.
func (g AreaGrid) Intersects(b frame.Box, areas []int) bool {
	if len(areas) == 0 {
		return false
	}
	hit := g.Contains(b)
	for _, a := range areas {
		for _, h := range hit {
			if a == h {
				return true
			}
		}
	}
	return false
}
