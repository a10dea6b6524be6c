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
	"fmt"

	"github.com/ZaparooProject/serialplot/pkg/helpers/syncutil"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Theme defines all colors used in the TUI.
type Theme struct {
	Name                     string
	ErrorColorName           string
	WarningColorName         string
	SuccessColorName         string
	LabelColorName           string
	Series                   []tcell.Color
	PrimitiveBackgroundColor tcell.Color
	ContrastBackgroundColor  tcell.Color
	BorderColor              tcell.Color
	PrimaryTextColor         tcell.Color
	SecondaryTextColor       tcell.Color
	InverseTextColor         tcell.Color
	AxisColor                tcell.Color
	MarkerColor              tcell.Color
}

// ThemeDefault is a dark theme with a bright series palette.
var ThemeDefault = Theme{
	Name: "default",

	PrimitiveBackgroundColor: tcell.ColorBlack,
	ContrastBackgroundColor:  tcell.ColorDarkBlue,
	BorderColor:              tcell.ColorLightYellow,
	PrimaryTextColor:         tcell.ColorWhite,
	SecondaryTextColor:       tcell.ColorGray,
	InverseTextColor:         tcell.ColorBlack,
	AxisColor:                tcell.ColorGray,
	MarkerColor:              tcell.ColorFuchsia,

	ErrorColorName:   "red",
	WarningColorName: "yellow",
	SuccessColorName: "green",
	LabelColorName:   "gray",

	Series: []tcell.Color{
		tcell.ColorAqua,
		tcell.ColorYellow,
		tcell.ColorLime,
		tcell.ColorOrange,
		tcell.ColorViolet,
		tcell.ColorTomato,
		tcell.ColorDeepSkyBlue,
		tcell.ColorWhite,
	},
}

// ThemeHighContrast uses true black background with bright yellow for accessibility.
var ThemeHighContrast = Theme{
	Name: "high_contrast",

	PrimitiveBackgroundColor: tcell.NewHexColor(0x000000),
	ContrastBackgroundColor:  tcell.NewHexColor(0x000000),
	BorderColor:              tcell.ColorYellow,
	PrimaryTextColor:         tcell.ColorWhite,
	SecondaryTextColor:       tcell.ColorWhite,
	InverseTextColor:         tcell.NewHexColor(0x000000),
	AxisColor:                tcell.ColorWhite,
	MarkerColor:              tcell.ColorRed,

	ErrorColorName:   "red",
	WarningColorName: "yellow",
	SuccessColorName: "lime",
	LabelColorName:   "white",

	Series: []tcell.Color{
		tcell.ColorYellow,
		tcell.ColorAqua,
		tcell.ColorLime,
		tcell.ColorWhite,
	},
}

// ThemeMonogreen is a retro green-on-black theme inspired by classic CRT monitors.
var ThemeMonogreen = Theme{
	Name: "monogreen",

	PrimitiveBackgroundColor: tcell.ColorBlack,
	ContrastBackgroundColor:  tcell.NewHexColor(0x0A1A0A),
	BorderColor:              tcell.ColorGreen,
	PrimaryTextColor:         tcell.ColorGreen,
	SecondaryTextColor:       tcell.ColorDarkGreen,
	InverseTextColor:         tcell.ColorBlack,
	AxisColor:                tcell.ColorDarkGreen,
	MarkerColor:              tcell.ColorLime,

	ErrorColorName:   "red",
	WarningColorName: "yellow",
	SuccessColorName: "lime",
	LabelColorName:   "darkgreen",

	Series: []tcell.Color{
		tcell.ColorLime,
		tcell.ColorGreen,
		tcell.ColorGreenYellow,
		tcell.ColorSpringGreen,
	},
}

// AvailableThemes maps theme names to theme definitions.
var AvailableThemes = map[string]*Theme{
	"default":       &ThemeDefault,
	"high_contrast": &ThemeHighContrast,
	"monogreen":     &ThemeMonogreen,
}

var (
	currentTheme = &ThemeDefault
	themeMu      syncutil.RWMutex
)

// CurrentTheme returns the currently active theme.
func CurrentTheme() *Theme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return currentTheme
}

// SetCurrentTheme sets the current theme by name.
// Returns false if the theme name is not found.
func SetCurrentTheme(name string) bool {
	theme, ok := AvailableThemes[name]
	if !ok {
		return false
	}
	themeMu.Lock()
	currentTheme = theme
	themeMu.Unlock()
	ApplyTheme(theme)
	return true
}

// ApplyTheme applies the given theme to tview's global styles.
func ApplyTheme(theme *Theme) {
	tview.Styles.PrimitiveBackgroundColor = theme.PrimitiveBackgroundColor
	tview.Styles.ContrastBackgroundColor = theme.ContrastBackgroundColor
	tview.Styles.BorderColor = theme.BorderColor
	tview.Styles.PrimaryTextColor = theme.PrimaryTextColor
	tview.Styles.SecondaryTextColor = theme.SecondaryTextColor
	tview.Styles.InverseTextColor = theme.InverseTextColor
}

// SeriesColor is the color of the channel first seen at position i.
func (t *Theme) SeriesColor(i int) tcell.Color {
	return t.Series[i%len(t.Series)]
}

// colorTag formats c as a tview color tag.
func colorTag(c tcell.Color) string {
	return fmt.Sprintf("[#%06x]", c.Hex())
}
