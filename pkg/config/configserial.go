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

package config

import "time"

const (
	DefaultBaudRate     = 9600
	DefaultReconnectMax = 5 * time.Second
)

type Serial struct {
	Port          string `toml:"port"`
	Parity        string `toml:"parity" validate:"omitempty,oneof=none odd even mark space N O E M S n o e m s"`
	Encoding      string `toml:"encoding"`
	ReconnectMax  string `toml:"reconnect_max,omitempty" validate:"omitempty,duration"`
	BaudRate      int    `toml:"baud_rate" validate:"gte=0"`
	DataBits      int    `toml:"data_bits" validate:"omitempty,oneof=5 6 7 8"`
	StopBits      int    `toml:"stop_bits" validate:"omitempty,oneof=1 2"`
	MaxLineLength int    `toml:"max_line_length" validate:"gte=0,lte=1048576"`
}

// Rule maps one regular expression to a channel name. Rules are checked when
// the extraction table is compiled, not here, so a single bad pattern only
// disables that channel.
type Rule struct {
	Name    string `toml:"name"`
	Pattern string `toml:"pattern"`
}

// SerialOverrides are command line values that win over the file and
// survive reloads.
type SerialOverrides struct {
	Port     string
	BaudRate int
}

func (o SerialOverrides) apply(s Serial) Serial {
	if o.Port != "" {
		s.Port = o.Port
	}
	if o.BaudRate > 0 {
		s.BaudRate = o.BaudRate
	}
	return s
}

func (c *Instance) Serial() Serial {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.overrides.apply(c.vals.Serial)
}

func (c *Instance) SetOverrides(o SerialOverrides) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overrides = o
}

func (c *Instance) SetSerialPort(port string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Serial.Port = port
}

// ReconnectMaxDuration is the upper bound of the reconnect backoff.
func (s Serial) ReconnectMaxDuration() time.Duration {
	return parseDuration(s.ReconnectMax, DefaultReconnectMax)
}

func (c *Instance) ReconnectMax() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Serial.ReconnectMaxDuration()
}

// Rules returns a copy of the configured extraction rules in file order.
func (c *Instance) Rules() []Rule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Rule, len(c.vals.Rules))
	copy(out, c.vals.Rules)
	return out
}

func (c *Instance) SetRules(rules []Rule) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Rules = append([]Rule(nil), rules...)
}
