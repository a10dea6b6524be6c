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

package models

// ConnState is the connection status shown to the operator.
//
//	Disconnected -> Connecting -> Connected -> Disconnected
//	Connecting -> Disconnected (failed open)
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	default:
		return "UNKNOWN"
	}
}

// Apply returns the state reached after ev. ReadError does not change the
// state on its own; the link follows it with a Disconnected event.
func (s ConnState) Apply(ev ConnectionEvent) ConnState {
	switch ev.Kind {
	case EventConnecting:
		return StateConnecting
	case EventConnected:
		return StateConnected
	case EventDisconnected:
		return StateDisconnected
	default:
		return s
	}
}
