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

// Package lines reassembles newline-delimited text from arbitrary read
// chunks.
package lines

import (
	"bytes"
	"fmt"
	"iter"
	"strings"
	"unicode/utf8"

	"github.com/ZaparooProject/serialplot/pkg/models"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

const (
	DefaultMaxLineLength = 4096
	DefaultEncoding      = "utf-8"
)

// WarningFunc receives recoverable problems found while assembling lines.
type WarningFunc func(kind models.WarningKind, msg string)

type Options struct {
	OnWarning WarningFunc
	// Encoding is a WHATWG encoding label, e.g. "utf-8" or "windows-1252".
	Encoding string
	// MaxLineLength bounds the carry-over buffer in bytes.
	MaxLineLength int
}

// Assembler buffers partial lines between reads. It is used from a single
// goroutine.
type Assembler struct {
	dec        *encoding.Decoder
	onWarning  WarningFunc
	buf        []byte
	off        int
	maxLen     int
	isUTF8     bool
	overflowed bool
}

func NewAssembler(opts Options) (*Assembler, error) {
	if opts.MaxLineLength <= 0 {
		opts.MaxLineLength = DefaultMaxLineLength
	}
	if opts.Encoding == "" {
		opts.Encoding = DefaultEncoding
	}

	enc, err := htmlindex.Get(opts.Encoding)
	if err != nil {
		return nil, fmt.Errorf("unknown line encoding %q: %w", opts.Encoding, err)
	}
	name, _ := htmlindex.Name(enc)

	return &Assembler{
		dec:       enc.NewDecoder(),
		isUTF8:    enc == unicode.UTF8 || strings.EqualFold(name, "utf-8"),
		onWarning: opts.OnWarning,
		maxLen:    opts.MaxLineLength,
	}, nil
}

// Feed appends chunk to the carry-over buffer and returns the complete lines
// now available. Lines are removed from the buffer as they are yielded, so
// stopping early leaves the rest for the next Feed. A trailing '\r' is
// stripped from each line.
func (a *Assembler) Feed(chunk []byte) iter.Seq[string] {
	a.append(chunk)

	return func(yield func(string) bool) {
		for {
			data := a.buf[a.off:]
			idx := bytes.IndexByte(data, '\n')
			if idx < 0 {
				return
			}

			raw := data[:idx]
			a.off += idx + 1
			if len(raw) > a.maxLen {
				a.warn(models.WarningOverflow, fmt.Sprintf(
					"line of %d bytes exceeds limit of %d, discarded", len(raw), a.maxLen))
				continue
			}

			line := a.decode(bytes.TrimSuffix(raw, []byte{'\r'}))
			if !yield(line) {
				return
			}
		}
	}
}

// Lines feeds chunk and collects every completed line.
func (a *Assembler) Lines(chunk []byte) []string {
	var out []string
	for line := range a.Feed(chunk) {
		out = append(out, line)
	}
	return out
}

// Pending returns a copy of the buffered bytes that have not been yielded as
// lines yet.
func (a *Assembler) Pending() []byte {
	data := a.buf[a.off:]
	out := make([]byte, len(data))
	copy(out, data)
	return out
}

// Reset drops any buffered partial line, e.g. after a reconnect.
func (a *Assembler) Reset() {
	a.buf = a.buf[:0]
	a.off = 0
	a.overflowed = false
}

func (a *Assembler) append(chunk []byte) {
	if a.overflowed {
		// drop everything up to the next delimiter
		idx := bytes.IndexByte(chunk, '\n')
		if idx < 0 {
			return
		}
		a.overflowed = false
		chunk = chunk[idx+1:]
	}

	if a.off > 0 {
		n := copy(a.buf, a.buf[a.off:])
		a.buf = a.buf[:n]
		a.off = 0
	}
	a.buf = append(a.buf, chunk...)

	// only the unterminated tail counts against the limit
	tail := a.buf
	if idx := bytes.LastIndexByte(a.buf, '\n'); idx >= 0 {
		tail = a.buf[idx+1:]
	}
	if len(tail) > a.maxLen {
		a.warn(models.WarningOverflow, fmt.Sprintf(
			"no line delimiter within %d bytes, discarding until next newline", a.maxLen))
		a.buf = a.buf[:len(a.buf)-len(tail)]
		a.overflowed = true
	}
}

func (a *Assembler) decode(raw []byte) string {
	if a.isUTF8 && utf8.Valid(raw) {
		return string(raw)
	}

	out, err := a.dec.Bytes(raw)
	if err != nil {
		a.warn(models.WarningDecode, fmt.Sprintf("failed to decode line: %v", err))
		return strings.ToValidUTF8(string(raw), string(utf8.RuneError))
	}
	if a.isUTF8 {
		a.warn(models.WarningDecode, "invalid UTF-8 replaced in line")
	}
	return string(out)
}

func (a *Assembler) warn(kind models.WarningKind, msg string) {
	if a.onWarning != nil {
		a.onWarning(kind, msg)
	}
}
