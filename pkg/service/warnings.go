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
	"github.com/ZaparooProject/serialplot/pkg/bus"
	"github.com/ZaparooProject/serialplot/pkg/helpers/syncutil"
	"github.com/ZaparooProject/serialplot/pkg/models"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	DefaultWarningRate  rate.Limit = 10
	DefaultWarningBurst            = 20
)

// WarningSink forwards acquisition warnings to the bus, rate limited so a
// device spewing garbage cannot crowd samples out of the queue. Warnings
// over the limit are counted and the count rides on the next one admitted.
type WarningSink struct {
	limiter    *rate.Limiter
	clock      clockwork.Clock
	push       func(bus.Item) bool
	suppressed int
	mu         syncutil.Mutex
}

func NewWarningSink(clock clockwork.Clock, push func(bus.Item) bool, limit rate.Limit, burst int) *WarningSink {
	if limit <= 0 {
		limit = DefaultWarningRate
	}
	if burst <= 0 {
		burst = DefaultWarningBurst
	}
	return &WarningSink{
		limiter: rate.NewLimiter(limit, burst),
		clock:   clock,
		push:    push,
	}
}

// Warn matches lines.WarningFunc.
func (s *WarningSink) Warn(kind models.WarningKind, msg string) {
	now := s.clock.Now()

	s.mu.Lock()
	if !s.limiter.AllowN(now, 1) {
		s.suppressed++
		s.mu.Unlock()
		return
	}
	w := models.Warning{At: now, Kind: kind, Message: msg, Suppressed: s.suppressed}
	s.suppressed = 0
	s.mu.Unlock()

	log.Debug().Str("kind", kind.String()).Int("suppressed", w.Suppressed).Msg(msg)
	s.push(bus.WarningItem(w))
}

// Suppressed is the number of warnings dropped since the last one admitted.
func (s *WarningSink) Suppressed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suppressed
}
