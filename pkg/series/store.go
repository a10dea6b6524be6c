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

// Package series holds the time-windowed plot history. A Store is owned by
// the render loop and is not safe for concurrent use.
package series

import (
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/serialplot/pkg/models"
)

// ErrOutOfOrder is returned by Ingest when a sample is older than the last
// one retained for its channel. Such samples are rejected, never re-sorted.
var ErrOutOfOrder = errors.New("sample timestamp out of order")

// Point is one retained observation.
type Point struct {
	At    time.Time
	Value float64
}

// Marker is an operator annotation at an instant.
type Marker struct {
	At    time.Time
	Label string
}

type Option func(*Store)

// WithPruneEmpty removes channels that become empty after eviction.
func WithPruneEmpty(prune bool) Option {
	return func(s *Store) {
		s.pruneEmpty = prune
	}
}

type Store struct {
	channels   map[string]*channel
	order      []string
	markers    []Marker
	window     time.Duration
	rejected   uint64
	pruneEmpty bool
}

// New creates a store retaining window worth of history per channel.
func New(window time.Duration, opts ...Option) *Store {
	s := &Store{
		channels: make(map[string]*channel),
		window:   window,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Window() time.Duration {
	return s.window
}

// Ingest appends a sample to its channel, creating the channel on first use.
func (s *Store) Ingest(sample models.Sample) error {
	ch, ok := s.channels[sample.Channel]
	if !ok {
		ch = &channel{}
		s.channels[sample.Channel] = ch
		s.order = append(s.order, sample.Channel)
	}

	if last, ok := ch.last(); ok && sample.At.Before(last.At) {
		s.rejected++
		return fmt.Errorf("%w: %s at %s before %s",
			ErrOutOfOrder, sample.Channel,
			sample.At.Format(time.RFC3339Nano), last.At.Format(time.RFC3339Nano))
	}

	ch.push(Point{At: sample.At, Value: sample.Value})
	return nil
}

// EvictBefore drops every point and marker with a timestamp before cutoff.
func (s *Store) EvictBefore(cutoff time.Time) {
	for name, ch := range s.channels {
		ch.evictBefore(cutoff)
		if s.pruneEmpty && ch.len() == 0 {
			delete(s.channels, name)
			s.removeOrder(name)
		}
	}

	i := 0
	for i < len(s.markers) && s.markers[i].At.Before(cutoff) {
		i++
	}
	if i > 0 {
		s.markers = append(s.markers[:0], s.markers[i:]...)
	}
}

// EvictExpired drops everything older than the retention window relative to
// now.
func (s *Store) EvictExpired(now time.Time) {
	s.EvictBefore(now.Add(-s.window))
}

// Snapshot returns a copy of the channel's retained points in timestamp
// order. Unknown channels return nil.
func (s *Store) Snapshot(name string) []Point {
	ch, ok := s.channels[name]
	if !ok {
		return nil
	}
	return ch.points()
}

// Between returns the channel's points with from <= At <= to.
func (s *Store) Between(name string, from, to time.Time) []Point {
	ch, ok := s.channels[name]
	if !ok {
		return nil
	}
	return ch.between(from, to)
}

// Channels lists known channels in the order they were first observed.
func (s *Store) Channels() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len is the number of points retained for a channel.
func (s *Store) Len(name string) int {
	ch, ok := s.channels[name]
	if !ok {
		return 0
	}
	return ch.len()
}

// Rejected counts out-of-order samples refused by Ingest.
func (s *Store) Rejected() uint64 {
	return s.rejected
}

// AddMarker records an annotation. Markers are expected in time order; they
// are evicted from the front like points.
func (s *Store) AddMarker(at time.Time, label string) {
	s.markers = append(s.markers, Marker{At: at, Label: label})
}

func (s *Store) Markers() []Marker {
	out := make([]Marker, len(s.markers))
	copy(out, s.markers)
	return out
}

// Clear forgets all channels and markers.
func (s *Store) Clear() {
	s.channels = make(map[string]*channel)
	s.order = nil
	s.markers = nil
}

func (s *Store) removeOrder(name string) {
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
