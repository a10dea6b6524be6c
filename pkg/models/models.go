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

// Package models holds the values that cross the acquisition/render boundary.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Sample is a single numeric observation of a named channel.
type Sample struct {
	At      time.Time
	Channel string
	Value   float64
}

func (s Sample) String() string {
	return fmt.Sprintf("%s=%g", s.Channel, s.Value)
}

// EventKind identifies a connection state change.
type EventKind int

const (
	EventConnecting EventKind = iota
	EventConnected
	EventDisconnected
	EventReadError
)

func (k EventKind) String() string {
	switch k {
	case EventConnecting:
		return "connecting"
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventReadError:
		return "read_error"
	default:
		return "unknown"
	}
}

// ConnectionEvent is an out-of-band signal from the serial link.
type ConnectionEvent struct {
	At     time.Time
	Reason string
	Kind   EventKind
}

// WarningKind classifies recoverable problems surfaced to the operator.
type WarningKind int

const (
	WarningDecode WarningKind = iota
	WarningOverflow
	WarningParse
	WarningConfig
	WarningConnection
)

func (k WarningKind) String() string {
	switch k {
	case WarningDecode:
		return "decode"
	case WarningOverflow:
		return "overflow"
	case WarningParse:
		return "parse"
	case WarningConfig:
		return "config"
	case WarningConnection:
		return "connection"
	default:
		return "unknown"
	}
}

// Warning is a rate limited, display-only notice from the acquisition side.
// Suppressed counts warnings that were dropped by the limiter before this one.
type Warning struct {
	At         time.Time
	Message    string
	Kind       WarningKind
	Suppressed int
}

func (w Warning) String() string {
	if w.Suppressed > 0 {
		return fmt.Sprintf("[%s] %s (+%d suppressed)", w.Kind, w.Message, w.Suppressed)
	}
	return fmt.Sprintf("[%s] %s", w.Kind, w.Message)
}

// DiagnosticPrefix namespaces the channels the plotter records about itself.
// Extraction rules may not use it, so device data never shares a series with
// a diagnostic.
const DiagnosticPrefix = "_diag."

// IsDiagnostic reports whether name is in the reserved diagnostic namespace.
func IsDiagnostic(name string) bool {
	return strings.HasPrefix(name, DiagnosticPrefix)
}
