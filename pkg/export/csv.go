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

package export

import (
	"fmt"
	"io"
	"time"

	"github.com/ZaparooProject/serialplot/pkg/render"
	"github.com/gocarina/gocsv"
)

// Row is one CSV record. Rows are grouped by channel in legend order.
type Row struct {
	Channel string  `csv:"channel"`
	Time    string  `csv:"time"`
	Seconds float64 `csv:"seconds"`
	Value   float64 `csv:"value"`
}

func Rows(vp render.Viewport) []Row {
	var rows []Row
	for _, ch := range vp.Channels {
		for _, p := range ch.Points {
			rows = append(rows, Row{
				Channel: ch.Name,
				Time:    p.At.Format(time.RFC3339Nano),
				Seconds: seconds(vp, p.At),
				Value:   p.Value,
			})
		}
	}
	return rows
}

func WriteCSV(w io.Writer, vp render.Viewport) error {
	if err := gocsv.Marshal(Rows(vp), w); err != nil {
		return fmt.Errorf("failed to marshal CSV: %w", err)
	}
	return nil
}
