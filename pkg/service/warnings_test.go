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

package service

import (
	"testing"
	"time"

	"github.com/ZaparooProject/serialplot/pkg/bus"
	"github.com/ZaparooProject/serialplot/pkg/models"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWarningSink_RateLimited(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	b := bus.New(16)
	sink := NewWarningSink(clock, b.Push, 1, 2)

	for range 5 {
		sink.Warn(models.WarningParse, "bad capture")
	}

	items := b.DrainAvailable()
	require.Len(t, items, 2)
	assert.Equal(t, 3, sink.Suppressed())

	clock.Advance(time.Second)
	sink.Warn(models.WarningDecode, "invalid utf-8")

	items = b.DrainAvailable()
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Warning)
	assert.Equal(t, models.WarningDecode, items[0].Warning.Kind)
	assert.Equal(t, 3, items[0].Warning.Suppressed)
	assert.Equal(t, clock.Now(), items[0].Warning.At)
	assert.Equal(t, 0, sink.Suppressed())
}

func TestWarningSink_Defaults(t *testing.T) {
	t.Parallel()

	b := bus.New(64)
	sink := NewWarningSink(clockwork.NewFakeClock(), b.Push, 0, 0)
	for range DefaultWarningBurst + 5 {
		sink.Warn(models.WarningOverflow, "line too long")
	}

	assert.Len(t, b.DrainAvailable(), DefaultWarningBurst)
	assert.Equal(t, 5, sink.Suppressed())
}
