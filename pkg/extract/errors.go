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

package extract

import "fmt"

// ConfigError reports a rule that was refused or replaced at compile time.
type ConfigError struct {
	Err     error
	Rule    string
	Pattern string
	Index   int
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rule %d (%s): %s: %v", e.Index, e.Rule, e.Pattern, e.Err)
	}
	return fmt.Sprintf("rule %d (%s): %s", e.Index, e.Rule, e.Pattern)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ParseError reports a capture that matched a rule but was not a finite
// number.
type ParseError struct {
	Err     error
	Channel string
	Capture string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("channel %s: cannot parse %q: %v", e.Channel, e.Capture, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
