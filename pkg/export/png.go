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
	"image/color"
	"io"
	"math"

	"github.com/ZaparooProject/serialplot/pkg/render"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	pngWidth  = 12 * vg.Inch
	pngHeight = 6 * vg.Inch
)

var markerColor = color.RGBA{R: 128, G: 128, B: 128, A: 255}

func WritePNG(w io.Writer, vp render.Viewport) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s to %s",
		vp.From.Format("15:04:05.000"), vp.To.Format("15:04:05.000"))
	p.X.Label.Text = "Time (s)"
	p.X.Min = 0
	p.X.Max = vp.To.Sub(vp.From).Seconds()
	p.Legend.Top = true
	p.Legend.Left = true

	colors := channelColors(vp)
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, ch := range vp.Channels {
		pts := make(plotter.XYs, len(ch.Points))
		for j, pt := range ch.Points {
			pts[j] = plotter.XY{X: seconds(vp, pt.At), Y: pt.Value}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("channel %s: %w", ch.Name, err)
		}
		line.Color = colors[ch.Index]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(ch.Name, line)

		lo = math.Min(lo, ch.Summary.Min)
		hi = math.Max(hi, ch.Summary.Max)
	}

	for _, m := range vp.Markers {
		x := seconds(vp, m.At)
		line, err := plotter.NewLine(plotter.XYs{{X: x, Y: lo}, {X: x, Y: hi}})
		if err != nil {
			return fmt.Errorf("marker %s: %w", m.Label, err)
		}
		line.Color = markerColor
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(line)
	}

	wt, err := p.WriterTo(pngWidth, pngHeight, "png")
	if err != nil {
		return fmt.Errorf("failed to render PNG: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write PNG: %w", err)
	}
	return nil
}

// channelColors covers every channel index in vp, so a channel exported from
// different windows keeps the same hue.
func channelColors(vp render.Viewport) []color.Color {
	n := vp.Known
	for _, ch := range vp.Channels {
		n = max(n, ch.Index+1)
	}
	return Palette(n)
}

// Palette returns n evenly spaced hues.
func Palette(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	for i := range n {
		r, g, b := hslToRGB(float64(i)/float64(n), 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

func hslToRGB(h, s, l float64) (r, g, b uint8) {
	if s == 0 {
		v := uint8(math.Round(l * 255))
		return v, v, v
	}
	q := l + s - l*s
	if l < 0.5 {
		q = l * (1 + s)
	}
	p := 2*l - q
	return hueToByte(p, q, h+1.0/3), hueToByte(p, q, h), hueToByte(p, q, h-1.0/3)
}

func hueToByte(p, q, t float64) uint8 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	var v float64
	switch {
	case t < 1.0/6:
		v = p + (q-p)*6*t
	case t < 1.0/2:
		v = q
	case t < 2.0/3:
		v = p + (q-p)*(2.0/3-t)*6
	default:
		v = p
	}
	return uint8(math.Round(v * 255))
}
