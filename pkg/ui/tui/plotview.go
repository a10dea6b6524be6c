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

package tui

import (
	"fmt"
	"math"
	"strconv"

	"github.com/ZaparooProject/serialplot/pkg/render"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const (
	axisLabelWidth = 9
	waitingText    = "waiting for data"
)

// PlotView draws the channels of a render.Viewport as braille line plots
// scaled to the visible time span.
type PlotView struct {
	*tview.Box
	theme *Theme
	vp    render.Viewport
}

func NewPlotView(theme *Theme) *PlotView {
	return &PlotView{
		Box:   tview.NewBox(),
		theme: theme,
	}
}

func (p *PlotView) SetViewport(vp render.Viewport) *PlotView {
	p.vp = vp
	return p
}

func (p *PlotView) Viewport() render.Viewport {
	return p.vp
}

// Draw implements tview.Primitive.
func (p *PlotView) Draw(screen tcell.Screen) {
	p.DrawForSubclass(screen, p)
	x, y, width, height := p.GetInnerRect()
	if width <= axisLabelWidth+1 || height < 3 {
		return
	}

	if len(p.vp.Channels) == 0 {
		tview.Print(screen, waitingText, x, y+height/2, width, tview.AlignCenter, p.theme.AxisColor)
		return
	}

	plotX := x + axisLabelWidth
	plotW := width - axisLabelWidth
	plotH := height - 1

	lo, hi := valueRange(p.vp)
	canvas := NewCanvas(plotW, plotH)
	dotsW, dotsH := canvas.Size()
	span := p.vp.To.Sub(p.vp.From).Seconds()

	toX := func(sec float64) int {
		if span <= 0 {
			return dotsW - 1
		}
		return int(math.Round(sec / span * float64(dotsW-1)))
	}
	toY := func(v float64) int {
		return int(math.Round((hi - v) / (hi - lo) * float64(dotsH-1)))
	}

	for _, m := range p.vp.Markers {
		mx := toX(m.At.Sub(p.vp.From).Seconds())
		for my := 0; my < dotsH; my += 2 {
			canvas.Set(mx, my, p.theme.MarkerColor)
		}
	}

	for _, ch := range p.vp.Channels {
		color := p.theme.SeriesColor(ch.Index)
		prevX, prevY := -1, -1
		for _, pt := range ch.Points {
			px := toX(pt.At.Sub(p.vp.From).Seconds())
			py := toY(pt.Value)
			if prevX < 0 {
				canvas.Set(px, py, color)
			} else {
				canvas.Line(prevX, prevY, px, py, color)
			}
			prevX, prevY = px, py
		}
	}

	for cy := range plotH {
		for cx := range plotW {
			if r, color, ok := canvas.Cell(cx, cy); ok {
				style := tcell.StyleDefault.
					Background(p.theme.PrimitiveBackgroundColor).
					Foreground(color)
				screen.SetContent(plotX+cx, y+cy, r, nil, style)
			}
		}
	}

	p.drawAxes(screen, x, y, plotW, plotH, lo, hi, toX)
}

func (p *PlotView) drawAxes(
	screen tcell.Screen,
	x, y, plotW, plotH int,
	lo, hi float64,
	toX func(float64) int,
) {
	axis := p.theme.AxisColor
	tview.Print(screen, formatValue(hi), x, y, axisLabelWidth-1, tview.AlignRight, axis)
	if plotH > 2 {
		tview.Print(screen, formatValue((hi+lo)/2), x, y+plotH/2, axisLabelWidth-1, tview.AlignRight, axis)
	}
	tview.Print(screen, formatValue(lo), x, y+plotH-1, axisLabelWidth-1, tview.AlignRight, axis)

	bottom := y + plotH
	plotX := x + axisLabelWidth
	span := p.vp.To.Sub(p.vp.From)
	tview.Print(screen, "-"+span.String(), plotX, bottom, plotW, tview.AlignLeft, axis)
	tview.Print(screen, p.vp.To.Format("15:04:05"), plotX, bottom, plotW, tview.AlignRight, axis)

	for _, m := range p.vp.Markers {
		cx := toX(m.At.Sub(p.vp.From).Seconds()) / 2
		tview.Print(screen, m.Label, plotX+cx, y, plotW-cx, tview.AlignLeft, p.theme.MarkerColor)
	}
}

// valueRange is the y range covering every visible point, padded when flat.
func valueRange(vp render.Viewport) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, ch := range vp.Channels {
		lo = math.Min(lo, ch.Summary.Min)
		hi = math.Max(hi, ch.Summary.Max)
	}
	if lo == hi {
		pad := math.Max(math.Abs(lo)*0.1, 1)
		lo, hi = lo-pad, hi+pad
	}
	return lo, hi
}

func formatValue(v float64) string {
	s := strconv.FormatFloat(v, 'g', 5, 64)
	if len(s) > axisLabelWidth-1 {
		s = fmt.Sprintf("%.2e", v)
	}
	return s
}
