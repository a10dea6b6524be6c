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

package config

import (
	"slices"
	"time"
)

const (
	FormatPNG  = "png"
	FormatCSV  = "csv"
	FormatHTML = "html"

	DefaultWindow = 30 * time.Second
)

type Plot struct {
	Window      string `toml:"window" validate:"omitempty,duration"`
	Theme       string `toml:"theme,omitempty" validate:"omitempty,oneof=default high_contrast monogreen"`
	FPS         int    `toml:"fps" validate:"gte=0,lte=240"`
	MaxFetch    int    `toml:"max_fetch" validate:"gte=0"`
	BusCapacity int    `toml:"bus_capacity" validate:"gte=0"`
	Diagnostics bool   `toml:"diagnostics"`
	PruneEmpty  bool   `toml:"prune_empty"`
	ShowLog     bool   `toml:"show_log"`
}

type Export struct {
	Dir     string   `toml:"dir,omitempty"`
	Formats []string `toml:"formats,omitempty" validate:"dive,oneof=png csv html"`
}

func (c *Instance) Plot() Plot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Plot
}

// Window is the retention window of the series store.
func (c *Instance) Window() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDuration(c.vals.Plot.Window, DefaultWindow)
}

func (c *Instance) FPS() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Plot.FPS <= 0 {
		return 30
	}
	return c.vals.Plot.FPS
}

// Theme is the TUI colour theme name, "default" when unset.
func (c *Instance) Theme() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Plot.Theme == "" {
		return "default"
	}
	return c.vals.Plot.Theme
}

func (c *Instance) SetShowLog(show bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Plot.ShowLog = show
}

// ExportDir returns the configured directory, or fallback when unset.
func (c *Instance) ExportDir(fallback string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Export.Dir == "" {
		return fallback
	}
	return c.vals.Export.Dir
}

func (c *Instance) ExportFormats() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.vals.Export.Formats) == 0 {
		return []string{FormatPNG}
	}
	return slices.Clone(c.vals.Export.Formats)
}
