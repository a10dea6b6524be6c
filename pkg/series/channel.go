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

package series

import (
	"sort"
	"time"
)

// compactThreshold is the number of evicted head slots tolerated before the
// backing slice is compacted.
const compactThreshold = 1024

// channel is an append-only slice with a moving head. Eviction advances the
// head; the dead prefix is reclaimed once it dominates the slice so appends
// stay amortized O(1).
type channel struct {
	data []Point
	head int
}

func (c *channel) len() int {
	return len(c.data) - c.head
}

func (c *channel) last() (Point, bool) {
	if c.len() == 0 {
		return Point{}, false
	}
	return c.data[len(c.data)-1], true
}

func (c *channel) push(p Point) {
	c.data = append(c.data, p)
}

func (c *channel) live() []Point {
	return c.data[c.head:]
}

func (c *channel) evictBefore(cutoff time.Time) {
	live := c.live()
	n := sort.Search(len(live), func(i int) bool {
		return !live[i].At.Before(cutoff)
	})
	c.head += n

	if c.head == len(c.data) {
		c.data = c.data[:0]
		c.head = 0
		return
	}
	if c.head >= compactThreshold && c.head >= c.len() {
		remaining := make([]Point, c.len(), max(c.len()*2, 16))
		copy(remaining, c.live())
		c.data = remaining
		c.head = 0
	}
}

func (c *channel) points() []Point {
	live := c.live()
	out := make([]Point, len(live))
	copy(out, live)
	return out
}

func (c *channel) between(from, to time.Time) []Point {
	live := c.live()
	lo := sort.Search(len(live), func(i int) bool {
		return !live[i].At.Before(from)
	})
	hi := sort.Search(len(live), func(i int) bool {
		return live[i].At.After(to)
	})
	if lo >= hi {
		return nil
	}
	out := make([]Point, hi-lo)
	copy(out, live[lo:hi])
	return out
}
