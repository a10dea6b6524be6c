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

// Package bus provides the bounded handoff between the acquisition goroutine
// and the render loop. It is the only value shared between the two.
//
// The bus never blocks the producer: when it is full the oldest queued item is
// evicted to admit the newest one. The consumer drains whatever is queued once
// per frame without waiting.
package bus

import (
	"errors"
	"sync/atomic"

	"github.com/ZaparooProject/serialplot/pkg/models"
)

const DefaultCapacity = 1024

var ErrBusClosed = errors.New("sample bus closed")

// Item carries exactly one of Sample, Event or Warning.
type Item struct {
	Sample  *models.Sample
	Event   *models.ConnectionEvent
	Warning *models.Warning
}

func SampleItem(s models.Sample) Item { return Item{Sample: &s} }

func EventItem(ev models.ConnectionEvent) Item { return Item{Event: &ev} }

func WarningItem(w models.Warning) Item { return Item{Warning: &w} }

// Bus is a bounded single-producer/single-consumer queue with a drop-oldest
// overflow policy.
type Bus struct {
	ch      chan Item
	dropped atomic.Uint64
	pushed  atomic.Uint64
	closed  atomic.Bool
}

// New creates a bus holding at most capacity items. A capacity below one
// falls back to DefaultCapacity.
func New(capacity int) *Bus {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Bus{ch: make(chan Item, capacity)}
}

// Push enqueues it, evicting the oldest queued item if the bus is full. It
// only returns false once the bus has been closed.
func (b *Bus) Push(it Item) bool {
	if b.closed.Load() {
		return false
	}
	for {
		select {
		case b.ch <- it:
			b.pushed.Add(1)
			return true
		default:
		}

		// full: make room. the consumer may have emptied a slot in the
		// meantime, in which case there is nothing to evict.
		select {
		case <-b.ch:
			b.dropped.Add(1)
		default:
		}
	}
}

// DrainAvailable returns every item currently queued, oldest first. It never
// waits and never returns more than Cap items.
func (b *Bus) DrainAvailable() []Item {
	return b.DrainUpTo(0)
}

// DrainUpTo is DrainAvailable limited to max items. A max of zero or less
// means no limit beyond the capacity.
func (b *Bus) DrainUpTo(max int) []Item {
	limit := cap(b.ch)
	if max > 0 && max < limit {
		limit = max
	}

	n := len(b.ch)
	if n > limit {
		n = limit
	}
	if n == 0 {
		return nil
	}

	items := make([]Item, 0, n)
	for len(items) < limit {
		select {
		case it := <-b.ch:
			items = append(items, it)
		default:
			return items
		}
	}
	return items
}

// Len is the number of queued items.
func (b *Bus) Len() int { return len(b.ch) }

// Cap is the configured capacity.
func (b *Bus) Cap() int { return cap(b.ch) }

// Dropped is the number of items evicted by the drop-oldest policy.
func (b *Bus) Dropped() uint64 { return b.dropped.Load() }

// Pushed is the number of items accepted since creation.
func (b *Bus) Pushed() uint64 { return b.pushed.Load() }

// Close stops the bus from accepting new items. Queued items can still be
// drained. The underlying channel is left open so a late producer cannot
// panic.
func (b *Bus) Close() {
	b.closed.Store(true)
}

// Closed reports whether Close has been called.
func (b *Bus) Closed() bool {
	return b.closed.Load()
}
