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
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/require"
)

// TestScreen wraps a SimulationScreen with helper methods for testing.
type TestScreen struct {
	tcell.SimulationScreen
	t         *testing.T
	finalized bool
}

// NewTestScreen creates and initializes a simulation screen for testing.
func NewTestScreen(t *testing.T, width, height int) *TestScreen {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	require.NotNil(t, sim, "failed to create simulation screen")

	err := sim.Init()
	require.NoError(t, err, "failed to initialize simulation screen")

	sim.SetSize(width, height)

	return &TestScreen{
		SimulationScreen: sim,
		t:                t,
	}
}

// InjectEscape simulates pressing the Escape key.
func (s *TestScreen) InjectEscape() {
	s.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)
}

// InjectRune simulates typing a character.
func (s *TestScreen) InjectRune(r rune) {
	s.InjectKey(tcell.KeyRune, r, tcell.ModNone)
}

// GetCellContent returns the rune at a specific position.
func (s *TestScreen) GetCellContent(x, y int) rune {
	cells, width, _ := s.GetContents()
	idx := y*width + x
	if idx < len(cells) && len(cells[idx].Runes) > 0 {
		return cells[idx].Runes[0]
	}
	return ' '
}

// GetLineContent returns the text content of a specific line.
func (s *TestScreen) GetLineContent(y int) string {
	cells, width, height := s.GetContents()
	if y < 0 || y >= height {
		return ""
	}

	var sb strings.Builder
	for x := range width {
		cell := cells[y*width+x]
		if len(cell.Runes) > 0 {
			sb.WriteRune(cell.Runes[0])
		} else {
			sb.WriteRune(' ')
		}
	}
	return strings.TrimRight(sb.String(), " ")
}

// GetScreenText returns all screen content as a single string.
func (s *TestScreen) GetScreenText() string {
	_, _, height := s.GetContents()
	lines := make([]string, height)
	for y := range height {
		lines[y] = s.GetLineContent(y)
	}
	return strings.Join(lines, "\n")
}

// ContainsText checks if the screen contains the specified text anywhere.
func (s *TestScreen) ContainsText(text string) bool {
	return strings.Contains(s.GetScreenText(), text)
}

// CountBraille counts cells holding a braille plot character.
func (s *TestScreen) CountBraille() int {
	cells, _, _ := s.GetContents()
	n := 0
	for _, cell := range cells {
		if len(cell.Runes) > 0 && cell.Runes[0] > brailleBase && cell.Runes[0] <= brailleBase+0xff {
			n++
		}
	}
	return n
}

// DumpScreen returns a formatted string representation of the screen for debugging.
func (s *TestScreen) DumpScreen() string {
	width, _ := s.Size()
	var sb strings.Builder
	sb.WriteString("Screen dump:\n")
	sb.WriteString(strings.Repeat("-", width) + "\n")
	sb.WriteString(s.GetScreenText())
	sb.WriteString("\n" + strings.Repeat("-", width) + "\n")
	return sb.String()
}

// Cleanup should be called when done with the screen.
func (s *TestScreen) Cleanup() {
	if !s.finalized {
		s.finalized = true
		s.Fini()
	}
}
