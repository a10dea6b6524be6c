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

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
)

func TestCanvas_SetDots(t *testing.T) {
	t.Parallel()

	c := NewCanvas(2, 1)
	w, h := c.Size()
	assert.Equal(t, 4, w)
	assert.Equal(t, 4, h)

	_, _, ok := c.Cell(0, 0)
	assert.False(t, ok)

	c.Set(0, 0, tcell.ColorRed)
	r, color, ok := c.Cell(0, 0)
	assert.True(t, ok)
	assert.Equal(t, '⠁', r)
	assert.Equal(t, tcell.ColorRed, color)

	c.Set(1, 3, tcell.ColorBlue)
	r, color, _ = c.Cell(0, 0)
	assert.Equal(t, '⢁', r)
	assert.Equal(t, tcell.ColorBlue, color, "last color written wins")
}

func TestCanvas_IgnoresOutOfRange(t *testing.T) {
	t.Parallel()

	c := NewCanvas(1, 1)
	c.Set(-1, 0, tcell.ColorRed)
	c.Set(2, 0, tcell.ColorRed)
	c.Set(0, 4, tcell.ColorRed)

	_, _, ok := c.Cell(0, 0)
	assert.False(t, ok)
	_, _, ok = c.Cell(5, 5)
	assert.False(t, ok)
}

func TestCanvas_Line(t *testing.T) {
	t.Parallel()

	c := NewCanvas(2, 1)
	c.Line(0, 0, 3, 0, tcell.ColorGreen)
	r0, _, _ := c.Cell(0, 0)
	r1, _, _ := c.Cell(1, 0)
	assert.Equal(t, '⠉', r0)
	assert.Equal(t, '⠉', r1)

	v := NewCanvas(1, 1)
	v.Line(0, 3, 0, 0, tcell.ColorGreen)
	r, _, _ := v.Cell(0, 0)
	assert.Equal(t, '⡇', r)
}

func TestCanvas_ZeroSize(t *testing.T) {
	t.Parallel()

	c := NewCanvas(-3, 0)
	c.Line(0, 0, 10, 10, tcell.ColorGreen)
	w, h := c.Size()
	assert.Zero(t, w)
	assert.Zero(t, h)
}
