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

package render

import (
	"time"

	"github.com/ZaparooProject/serialplot/pkg/models"
	"github.com/ZaparooProject/serialplot/pkg/series"
)

// ChannelView is what the plot draws for one channel. Index is the channel's
// first-seen position in the store and picks its color, so a channel keeps
// its color while others scroll in and out of view.
type ChannelView struct {
	Index      int
	Name       string
	Points     []series.Point
	Summary    series.Summary
	Diagnostic bool
}

// Viewport is the visible time range with the channels and markers inside
// it.
type Viewport struct {
	From     time.Time
	To       time.Time
	Channels []ChannelView
	Markers  []series.Marker
	// Known counts every channel in the store, plotted or not.
	Known int
}

// Views snapshots every non-empty channel within the visible span ending at
// now, or at the pause instant while paused.
func (r *Renderer) Views(now time.Time) Viewport {
	to := r.viewTime(now)
	from := to.Add(-r.VisibleSpan())

	names := r.store.Channels()
	vp := Viewport{From: from, To: to, Known: len(names)}
	for i, name := range names {
		pts := r.store.Between(name, from, to)
		if len(pts) == 0 {
			continue
		}
		vp.Channels = append(vp.Channels, ChannelView{
			Index:      i,
			Name:       name,
			Points:     pts,
			Summary:    series.Summarize(pts),
			Diagnostic: models.IsDiagnostic(name),
		})
	}
	for _, m := range r.store.Markers() {
		if !m.At.Before(from) && !m.At.After(to) {
			vp.Markers = append(vp.Markers, m)
		}
	}
	return vp
}
