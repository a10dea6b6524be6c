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

package helpers

import (
	"fmt"
	"regexp"

	"github.com/ZaparooProject/serialplot/pkg/helpers/syncutil"
)

// DefaultRegexCacheSize bounds how many patterns a cache keeps before it is
// flushed. Every config reload compiles a fresh rule table.
const DefaultRegexCacheSize = 256

// RegexCache memoizes compiled extraction patterns. Safe for concurrent use.
type RegexCache struct {
	cache   map[string]*regexp.Regexp
	limit   int
	flushes int
	mu      syncutil.RWMutex
}

// GlobalRegexCache is shared by every rule compilation in the process.
var GlobalRegexCache = NewRegexCache(DefaultRegexCacheSize)

func NewRegexCache(limit int) *RegexCache {
	if limit <= 0 {
		limit = DefaultRegexCacheSize
	}
	return &RegexCache{
		cache: make(map[string]*regexp.Regexp),
		limit: limit,
	}
}

// Compile returns the cached regexp for pattern, compiling it on a miss.
// Failed compilations are not cached.
func (rc *RegexCache) Compile(pattern string) (*regexp.Regexp, error) {
	rc.mu.RLock()
	if re, ok := rc.cache[pattern]; ok {
		rc.mu.RUnlock()
		return re, nil
	}
	rc.mu.RUnlock()

	rc.mu.Lock()
	defer rc.mu.Unlock()

	// another goroutine may have won the race
	if re, ok := rc.cache[pattern]; ok {
		return re, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to compile regex pattern %q: %w", pattern, err)
	}

	if len(rc.cache) >= rc.limit {
		rc.cache = make(map[string]*regexp.Regexp, rc.limit)
		rc.flushes++
	}
	rc.cache[pattern] = re
	return re, nil
}

func (rc *RegexCache) Clear() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.cache = make(map[string]*regexp.Regexp, rc.limit)
}

// Size returns the number of cached patterns.
func (rc *RegexCache) Size() int {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return len(rc.cache)
}

// Flushes counts how often the cache was emptied for reaching its limit.
func (rc *RegexCache) Flushes() int {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.flushes
}

func CachedCompile(pattern string) (*regexp.Regexp, error) {
	return GlobalRegexCache.Compile(pattern)
}
