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

// Package render holds the per-frame half of the pipeline: it drains the
// bus into the series store and keeps the state the plot is drawn from. A
// Renderer belongs to the UI goroutine.
package render

import (
	"fmt"
	"time"

	"github.com/ZaparooProject/serialplot/pkg/bus"
	"github.com/ZaparooProject/serialplot/pkg/models"
	"github.com/ZaparooProject/serialplot/pkg/series"
	"github.com/rs/zerolog/log"
)

const (
	DefaultWarningLog = 200
	DefaultFPSHistory = 120

	MaxZoom = 64

	ChannelFetchCount = models.DiagnosticPrefix + "fetch_count"
	ChannelPending    = models.DiagnosticPrefix + "pending_messages"
	ChannelDropped    = models.DiagnosticPrefix + "dropped"
)

type Options struct {
	Bus   *bus.Bus
	Store *series.Store
	// MaxFetch caps items drained per frame, 0 drains everything queued.
	MaxFetch    int
	WarningLog  int
	FPSHistory  int
	Diagnostics bool
}

// FrameStats summarizes one Frame call.
type FrameStats struct {
	At       time.Time
	Fetched  int
	Samples  int
	Events   int
	Warnings int
	Rejected int
	Pending  int
	Dropped  uint64
	FPS      float64
	Paused   bool
}

type Renderer struct {
	bus         *bus.Bus
	store       *series.Store
	lastEvent   *models.ConnectionEvent
	warnings    []models.Warning
	frameTimes  []time.Time
	fpsHistory  []float64
	pausedAt    time.Time
	last        FrameStats
	opts        Options
	droppedSeen uint64
	markers     int
	zoom        int
	state       models.ConnState
	paused      bool
}

func New(opts Options) *Renderer {
	if opts.WarningLog <= 0 {
		opts.WarningLog = DefaultWarningLog
	}
	if opts.FPSHistory <= 0 {
		opts.FPSHistory = DefaultFPSHistory
	}
	return &Renderer{
		bus:   opts.Bus,
		store: opts.Store,
		opts:  opts,
		zoom:  1,
	}
}

// Frame runs one render step: drain, ingest, apply events, evict. While
// paused nothing is drained; the bus absorbs the backlog by dropping its
// oldest items.
func (r *Renderer) Frame(now time.Time) FrameStats {
	stats := FrameStats{At: now, Paused: r.paused}

	if !r.paused {
		items := r.bus.DrainUpTo(r.opts.MaxFetch)
		stats.Fetched = len(items)
		for _, it := range items {
			r.apply(it, &stats)
		}
		r.store.EvictExpired(now)
	}

	stats.Pending = r.bus.Len()
	stats.Dropped = r.bus.Dropped()

	if r.opts.Diagnostics && !r.paused {
		r.recordDiagnostics(now, stats)
	}

	stats.FPS = r.updateFPS(now)
	r.last = stats
	return stats
}

func (r *Renderer) apply(it bus.Item, stats *FrameStats) {
	switch {
	case it.Sample != nil:
		if err := r.store.Ingest(*it.Sample); err != nil {
			stats.Rejected++
			log.Debug().Err(err).Msg("sample rejected")
			return
		}
		stats.Samples++
	case it.Event != nil:
		ev := *it.Event
		r.state = r.state.Apply(ev)
		r.lastEvent = &ev
		stats.Events++
		if ev.Kind == models.EventReadError {
			r.addWarning(models.Warning{At: ev.At, Kind: models.WarningConnection, Message: ev.Reason})
		}
	case it.Warning != nil:
		r.addWarning(*it.Warning)
		stats.Warnings++
	}
}

func (r *Renderer) recordDiagnostics(now time.Time, stats FrameStats) {
	dropped := stats.Dropped - r.droppedSeen
	r.droppedSeen = stats.Dropped
	for _, s := range []models.Sample{
		{At: now, Channel: ChannelFetchCount, Value: float64(stats.Fetched)},
		{At: now, Channel: ChannelPending, Value: float64(stats.Pending)},
		{At: now, Channel: ChannelDropped, Value: float64(dropped)},
	} {
		if err := r.store.Ingest(s); err != nil {
			log.Debug().Err(err).Msg("diagnostic sample rejected")
		}
	}
}

// updateFPS counts frames within the last second.
func (r *Renderer) updateFPS(now time.Time) float64 {
	r.frameTimes = append(r.frameTimes, now)
	cutoff := now.Add(-time.Second)
	i := 0
	for i < len(r.frameTimes) && !r.frameTimes[i].After(cutoff) {
		i++
	}
	r.frameTimes = r.frameTimes[i:]

	fps := float64(len(r.frameTimes))
	r.fpsHistory = append(r.fpsHistory, fps)
	if over := len(r.fpsHistory) - r.opts.FPSHistory; over > 0 {
		r.fpsHistory = r.fpsHistory[over:]
	}
	return fps
}

func (r *Renderer) addWarning(w models.Warning) {
	r.warnings = append(r.warnings, w)
	if over := len(r.warnings) - r.opts.WarningLog; over > 0 {
		r.warnings = r.warnings[over:]
	}
}

func (r *Renderer) State() models.ConnState {
	return r.state
}

// LastEvent is the most recent connection event, or nil before the first.
func (r *Renderer) LastEvent() *models.ConnectionEvent {
	return r.lastEvent
}

func (r *Renderer) LastFrame() FrameStats {
	return r.last
}

// Warnings returns the retained warnings, oldest first.
func (r *Renderer) Warnings() []models.Warning {
	out := make([]models.Warning, len(r.warnings))
	copy(out, r.warnings)
	return out
}

func (r *Renderer) FPSHistory() []float64 {
	out := make([]float64, len(r.fpsHistory))
	copy(out, r.fpsHistory)
	return out
}

func (r *Renderer) Paused() bool {
	return r.paused
}

// TogglePause freezes or resumes the view at now.
func (r *Renderer) TogglePause(now time.Time) bool {
	r.paused = !r.paused
	if r.paused {
		r.pausedAt = now
	}
	return r.paused
}

// AddMarker labels the current instant and returns the label used.
func (r *Renderer) AddMarker(now time.Time, label string) string {
	r.markers++
	if label == "" {
		label = fmt.Sprintf("M%d", r.markers)
	}
	r.store.AddMarker(r.viewTime(now), label)
	return label
}

// Clear drops all plotted history. Warnings are kept.
func (r *Renderer) Clear() {
	r.store.Clear()
	r.markers = 0
}

func (r *Renderer) ZoomIn() {
	if r.zoom < MaxZoom {
		r.zoom *= 2
	}
}

func (r *Renderer) ZoomOut() {
	if r.zoom > 1 {
		r.zoom /= 2
	}
}

func (r *Renderer) Zoom() int {
	return r.zoom
}

// VisibleSpan is the time range shown, never more than the retention window.
func (r *Renderer) VisibleSpan() time.Duration {
	return r.store.Window() / time.Duration(r.zoom)
}

func (r *Renderer) viewTime(now time.Time) time.Time {
	if r.paused {
		return r.pausedAt
	}
	return now
}
