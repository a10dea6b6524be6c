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

// Package extract turns text lines into samples using a table of named
// regular expressions.
package extract

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ZaparooProject/serialplot/pkg/config"
	"github.com/ZaparooProject/serialplot/pkg/helpers"
	"github.com/ZaparooProject/serialplot/pkg/models"
)

// ValueGroup is the capture group name that selects the numeric value when a
// pattern has more than one group.
const ValueGroup = "value"

var (
	ErrNoCaptureGroup = errors.New("pattern has no capture group")
	ErrEmptyName      = errors.New("rule has no channel name")
	ErrNameSpace      = errors.New("channel name has leading or trailing whitespace")
	ErrReservedName   = errors.New("channel name uses the reserved " + models.DiagnosticPrefix + " prefix")
	ErrDuplicateName  = errors.New("duplicate channel name, later rule wins")
	ErrNotFinite      = errors.New("value is not finite")
)

type compiledRule struct {
	re    *regexp.Regexp
	name  string
	group int
}

// RuleSet is an immutable compiled rule table. It is safe for concurrent use.
type RuleSet struct {
	// OnSkip is called for captures that do not parse as a finite number.
	OnSkip func(*ParseError)
	rules  []compiledRule
}

// Compile builds a RuleSet from rules. Rules with an invalid pattern, no
// capture group, or a blank, padded or reserved name are refused. When two rules share a name the
// later one replaces the earlier. Every refusal or replacement is returned
// as a *ConfigError; the RuleSet is usable regardless.
func Compile(rules []config.Rule) (*RuleSet, []error) {
	return CompileWith(helpers.GlobalRegexCache, rules)
}

// CompileWith is Compile using the given regex cache.
func CompileWith(cache *helpers.RegexCache, rules []config.Rule) (*RuleSet, []error) {
	var errs []error
	compiled := make([]compiledRule, 0, len(rules))
	index := make(map[string]int, len(rules))

	for i, rule := range rules {
		name := rule.Name
		switch {
		case strings.TrimSpace(name) == "":
			errs = append(errs, &ConfigError{Index: i, Pattern: rule.Pattern, Err: ErrEmptyName})
			continue
		case strings.TrimSpace(name) != name:
			errs = append(errs, &ConfigError{Index: i, Rule: name, Pattern: rule.Pattern, Err: ErrNameSpace})
			continue
		case models.IsDiagnostic(name):
			errs = append(errs, &ConfigError{Index: i, Rule: name, Pattern: rule.Pattern, Err: ErrReservedName})
			continue
		}

		re, err := cache.Compile(rule.Pattern)
		if err != nil {
			errs = append(errs, &ConfigError{Index: i, Rule: name, Pattern: rule.Pattern, Err: err})
			continue
		}

		group := re.SubexpIndex(ValueGroup)
		if group < 0 {
			if re.NumSubexp() < 1 {
				errs = append(errs, &ConfigError{
					Index: i, Rule: name, Pattern: rule.Pattern, Err: ErrNoCaptureGroup,
				})
				continue
			}
			group = 1
		}

		if prev, ok := index[name]; ok {
			errs = append(errs, &ConfigError{Index: i, Rule: name, Pattern: rule.Pattern, Err: ErrDuplicateName})
			compiled = append(compiled[:prev], compiled[prev+1:]...)
			for n, idx := range index {
				if idx > prev {
					index[n] = idx - 1
				}
			}
		}

		index[name] = len(compiled)
		compiled = append(compiled, compiledRule{re: re, name: name, group: group})
	}

	return &RuleSet{rules: compiled}, errs
}

// Names lists the channel names of the active rules in table order.
func (rs *RuleSet) Names() []string {
	out := make([]string, len(rs.rules))
	for i, r := range rs.rules {
		out[i] = r.name
	}
	return out
}

func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// Extract applies every rule to line. Samples come out in rule order, then
// match order, and all carry the timestamp at. Lines matching no rule yield
// nothing.
func (rs *RuleSet) Extract(line string, at time.Time) []models.Sample {
	var out []models.Sample
	for _, r := range rs.rules {
		for _, loc := range r.re.FindAllStringSubmatchIndex(line, -1) {
			start, end := loc[2*r.group], loc[2*r.group+1]
			if start < 0 {
				// optional group did not participate
				continue
			}

			capture := line[start:end]
			v, err := parseValue(capture)
			if err != nil {
				if rs.OnSkip != nil {
					rs.OnSkip(&ParseError{Channel: r.name, Capture: capture, Err: err})
				}
				continue
			}
			out = append(out, models.Sample{At: at, Channel: r.name, Value: v})
		}
	}
	return out
}

func parseValue(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			return 0, numErr.Err
		}
		return 0, fmt.Errorf("parse float: %w", err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNotFinite
	}
	return v, nil
}
