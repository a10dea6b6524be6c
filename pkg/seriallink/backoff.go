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

package seriallink

import "time"

const (
	DefaultBackoffInitial = 100 * time.Millisecond
	DefaultBackoffMax     = 5 * time.Second
	DefaultBackoffFactor  = 2
)

// Backoff yields exponentially growing reconnect delays. The zero value uses
// the package defaults.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
	Factor  float64
	next    time.Duration
}

// Next returns the delay to wait now and advances the sequence.
func (b *Backoff) Next() time.Duration {
	initial, limit, factor := b.params()
	if b.next <= 0 {
		b.next = initial
	}

	d := b.next
	grown := time.Duration(float64(b.next) * factor)
	if grown > limit || grown <= 0 {
		grown = limit
	}
	b.next = grown

	if d > limit {
		d = limit
	}
	return d
}

// Reset restarts the sequence after a successful connection.
func (b *Backoff) Reset() {
	b.next = 0
}

func (b *Backoff) params() (initial, limit time.Duration, factor float64) {
	initial, limit, factor = b.Initial, b.Max, b.Factor
	if initial <= 0 {
		initial = DefaultBackoffInitial
	}
	if limit <= 0 {
		limit = DefaultBackoffMax
	}
	if limit < initial {
		limit = initial
	}
	if factor < 1 {
		factor = DefaultBackoffFactor
	}
	return initial, limit, factor
}
