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

	"github.com/ZaparooProject/serialplot/pkg/render"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

func WriteHTML(w io.Writer, vp render.Viewport) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "serialplot " + vp.To.Format("2006-01-02 15:04:05"),
			Width:     "1200px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "serialplot",
			Subtitle: fmt.Sprintf("%s to %s", vp.From.Format("15:04:05.000"), vp.To.Format("15:04:05.000")),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithXAxisOpts(opts.XAxis{
			Type: "value", Name: "Time (s)", NameLocation: "middle", NameGap: 25,
			Min: 0, Max: vp.To.Sub(vp.From).Seconds(),
		}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Scale: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
	)

	colors := channelColors(vp)
	for i, ch := range vp.Channels {
		data := make([]opts.LineData, len(ch.Points))
		for j, p := range ch.Points {
			data[j] = opts.LineData{Value: []interface{}{seconds(vp, p.At), p.Value}}
		}

		seriesOpts := []charts.SeriesOpts{
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(colors[ch.Index])}),
		}
		if i == 0 {
			for _, m := range vp.Markers {
				seriesOpts = append(seriesOpts, charts.WithMarkLineNameXAxisItemOpts(
					opts.MarkLineNameXAxisItem{Name: m.Label, XAxis: seconds(vp, m.At)}))
			}
		}
		line.AddSeries(ch.Name, data, seriesOpts...)
	}

	if err := line.Render(w); err != nil {
		return fmt.Errorf("failed to render HTML: %w", err)
	}
	return nil
}

func hexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
