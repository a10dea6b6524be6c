// Zaparoo Serialplot
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo Serialplot.
//
// Zaparoo Serialplot is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo Serialplot is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo Serialplot.  If not, see <http://www.gnu.org/licenses/>.

package tui

import "github.com/gdamore/tcell/v2"

const brailleBase = 0x2800

// braille dot bits indexed by [row][col] within a 2x4 cell.
var brailleDots = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Canvas is a monochrome-per-cell dot matrix rendered with braille
// characters. Each terminal cell holds 2x4 dots; the most recent color
// written to a cell wins.
type Canvas struct {
	dots   []uint8
	colors []tcell.Color
	width  int
	height int
}

// NewCanvas creates a canvas of width x height terminal cells.
func NewCanvas(width, height int) *Canvas {
	n := max(width, 0) * max(height, 0)
	return &Canvas{
		dots:   make([]uint8, n),
		colors: make([]tcell.Color, n),
		width:  max(width, 0),
		height: max(height, 0),
	}
}

// Size is the canvas resolution in dots.
func (c *Canvas) Size() (w, h int) {
	return c.width * 2, c.height * 4
}

// Set lights the dot at (x, y). Dots outside the canvas are ignored.
func (c *Canvas) Set(x, y int, color tcell.Color) {
	w, h := c.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return
	}
	i := (y/4)*c.width + x/2
	c.dots[i] |= brailleDots[y%4][x%2]
	c.colors[i] = color
}

// Line draws a straight line between two dots using Bresenham's algorithm.
func (c *Canvas) Line(x0, y0, x1, y1 int, color tcell.Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		c.Set(x0, y0, color)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// Cell returns the braille rune and color at terminal cell (cx, cy). ok is
// false when no dot is set there.
func (c *Canvas) Cell(cx, cy int) (r rune, color tcell.Color, ok bool) {
	if cx < 0 || cy < 0 || cx >= c.width || cy >= c.height {
		return 0, tcell.ColorDefault, false
	}
	i := cy*c.width + cx
	if c.dots[i] == 0 {
		return 0, tcell.ColorDefault, false
	}
	return rune(brailleBase + int(c.dots[i])), c.colors[i], true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
