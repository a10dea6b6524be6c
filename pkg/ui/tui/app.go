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

// Package tui is the interactive terminal plotter.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ZaparooProject/serialplot/pkg/config"
	"github.com/ZaparooProject/serialplot/pkg/export"
	"github.com/ZaparooProject/serialplot/pkg/models"
	"github.com/ZaparooProject/serialplot/pkg/render"
	"github.com/ZaparooProject/serialplot/pkg/service"
	"github.com/gdamore/tcell/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

const (
	logHeight = 8
	helpText  = "space pause  m marker  e export  l log  +/- zoom  c clear  q quit"
)

// SessionSource reports the running acquisition session, if any.
type SessionSource interface {
	Session() *service.Session
}

type Options struct {
	Config   *config.Instance
	Renderer *render.Renderer
	Exporter *export.Exporter
	Sessions SessionSource
	Clock    clockwork.Clock
	// App lets tests supply an application bound to a simulation screen.
	App *tview.Application
}

// App owns the tview application and the render loop. Everything except
// Run's ticker goroutine executes on the tview event goroutine.
type App struct {
	clock    clockwork.Clock
	cfg      *config.Instance
	renderer *render.Renderer
	exporter *export.Exporter
	sessions SessionSource
	theme    *Theme
	app      *tview.Application
	root     *tview.Flex
	plot     *PlotView
	status   *tview.TextView
	legend   *tview.TextView
	log      *tview.TextView
	notice   string
	logKey   string
	showLog  bool
}

func New(opts Options) *App {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.App == nil {
		opts.App = tview.NewApplication()
	}
	if !SetCurrentTheme(opts.Config.Theme()) {
		log.Warn().Str("theme", opts.Config.Theme()).Msg("unknown theme, using default")
		SetCurrentTheme(ThemeDefault.Name)
	}

	a := &App{
		clock:    opts.Clock,
		cfg:      opts.Config,
		renderer: opts.Renderer,
		exporter: opts.Exporter,
		sessions: opts.Sessions,
		theme:    CurrentTheme(),
		app:      opts.App,
		showLog:  opts.Config.Plot().ShowLog,
	}
	a.build()
	a.app.SetInputCapture(a.handleKey)
	return a
}

func (a *App) build() {
	a.status = tview.NewTextView().SetDynamicColors(true)
	a.plot = NewPlotView(a.theme)
	a.plot.SetBorder(true).SetTitle(" " + config.AppName + " ")

	a.legend = tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	a.legend.SetBorder(true).SetTitle(" Channels ")

	a.log = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	a.log.SetBorder(true).SetTitle(" Warnings ")

	help := tview.NewTextView().SetDynamicColors(true).
		SetText(fmt.Sprintf("[%s]%s", a.theme.LabelColorName, helpText))

	body := tview.NewFlex().
		AddItem(a.plot, 0, 3, false).
		AddItem(a.legend, 38, 0, false)

	a.root = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.status, 1, 0, false).
		AddItem(body, 0, 1, true).
		AddItem(a.log, a.logSize(), 0, false).
		AddItem(help, 1, 0, false)
}

func (a *App) Root() tview.Primitive {
	return a.root
}

func (a *App) Application() *tview.Application {
	return a.app
}

// Run starts the frame ticker and blocks until the UI is closed or ctx is
// cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.tick(ctx)
	go func() {
		<-ctx.Done()
		a.app.Stop()
	}()

	a.app.SetRoot(a.root, true)
	if err := a.app.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

func (a *App) tick(ctx context.Context) {
	interval := time.Second / time.Duration(a.cfg.FPS())
	ticker := a.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if ctx.Err() != nil {
				return
			}
			a.app.QueueUpdateDraw(a.Frame)
		}
	}
}

// Frame runs one render step and refreshes every widget. It must be called
// on the event goroutine.
func (a *App) Frame() {
	now := a.clock.Now()
	a.renderer.Frame(now)
	a.refresh(now)
}

func (a *App) refresh(now time.Time) {
	vp := a.renderer.Views(now)
	a.plot.SetViewport(vp)
	a.status.SetText(a.statusText())
	a.legend.SetText(a.legendText(vp))
	if a.showLog {
		a.refreshLog()
	}
}

func (a *App) handleKey(ev *tcell.EventKey) *tcell.EventKey {
	now := a.clock.Now()
	switch ev.Key() { //nolint:exhaustive
	case tcell.KeyEscape:
		a.app.Stop()
		return nil
	case tcell.KeyRune:
	default:
		return ev
	}

	switch ev.Rune() {
	case 'q':
		a.app.Stop()
		return nil
	case ' ':
		if a.renderer.TogglePause(now) {
			a.notice = "paused"
		} else {
			a.notice = "resumed"
		}
	case 'm':
		label := a.renderer.AddMarker(now, "")
		a.notice = "marker " + label
	case 'e':
		a.export(now)
	case 'l':
		a.toggleLog()
	case '+', '=':
		a.renderer.ZoomIn()
	case '-', '_':
		a.renderer.ZoomOut()
	case 'c':
		a.renderer.Clear()
		a.notice = "cleared"
	default:
		return ev
	}
	a.refresh(now)
	return nil
}

func (a *App) export(now time.Time) {
	if a.exporter == nil {
		a.notice = "export disabled"
		return
	}
	paths, err := a.exporter.Export(a.renderer.Views(now), now)
	switch {
	case errors.Is(err, export.ErrNothingToExport):
		a.notice = "nothing to export"
	case err != nil:
		log.Error().Err(err).Msg("export failed")
		a.notice = fmt.Sprintf("[%s]export failed: %v[-]", a.theme.ErrorColorName, err)
	default:
		a.notice = fmt.Sprintf("exported %d file(s) to %s", len(paths), a.exporter.Dir())
	}
}

func (a *App) toggleLog() {
	a.showLog = !a.showLog
	a.cfg.SetShowLog(a.showLog)
	a.root.ResizeItem(a.log, a.logSize(), 0)
	a.logKey = ""
}

func (a *App) logSize() int {
	if a.showLog {
		return logHeight
	}
	return 0
}

func (a *App) refreshLog() {
	warnings := a.renderer.Warnings()
	key := fmt.Sprintf("%d", len(warnings))
	if n := len(warnings); n > 0 {
		key += warnings[n-1].At.String() + warnings[n-1].Message
	}
	if key == a.logKey {
		return
	}
	a.logKey = key

	var sb strings.Builder
	for _, w := range warnings {
		fmt.Fprintf(&sb, "[%s]%s[-] %s\n",
			a.theme.LabelColorName, w.At.Format("15:04:05.000"), tview.Escape(w.String()))
	}
	a.log.SetText(sb.String())
	a.log.ScrollToEnd()
}

func (a *App) statusText() string {
	stats := a.renderer.LastFrame()
	sess := a.session()

	// between sessions only the drained events are left to go by
	state := a.renderer.State()
	if sess != nil {
		state = sess.State()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s::b]%s[-::-]", a.stateColor(state), state)

	if sess != nil {
		fmt.Fprintf(&sb, " %s %s", tview.Escape(sess.Port), sess.Options)
	}
	if ev := a.renderer.LastEvent(); ev != nil && ev.Kind != models.EventConnected && ev.Reason != "" {
		fmt.Fprintf(&sb, " [%s](%s)[-]", a.theme.LabelColorName, tview.Escape(ev.Reason))
	}
	fmt.Fprintf(&sb, " | %.0f fps | dropped %d | pending %d | x%d",
		stats.FPS, stats.Dropped, stats.Pending, a.renderer.Zoom())
	if a.renderer.Paused() {
		fmt.Fprintf(&sb, " | [%s::b]PAUSED[-::-]", a.theme.WarningColorName)
	}
	if a.notice != "" {
		sb.WriteString(" | " + a.notice)
	}
	return sb.String()
}

func (a *App) stateColor(state models.ConnState) string {
	switch state {
	case models.StateConnected:
		return a.theme.SuccessColorName
	case models.StateConnecting:
		return a.theme.WarningColorName
	default:
		return a.theme.ErrorColorName
	}
}

func (a *App) session() *service.Session {
	if a.sessions == nil {
		return nil
	}
	return a.sessions.Session()
}

func (a *App) legendText(vp render.Viewport) string {
	if len(vp.Channels) == 0 {
		return fmt.Sprintf("[%s]no channels", a.theme.LabelColorName)
	}
	var sb strings.Builder
	for _, ch := range vp.Channels {
		s := ch.Summary
		fmt.Fprintf(&sb, "%s■[-] %s\n", colorTag(a.theme.SeriesColor(ch.Index)), tview.Escape(ch.Name))
		fmt.Fprintf(&sb, "  [%s]last[-] %-9s [%s]n[-] %d\n",
			a.theme.LabelColorName, formatValue(s.Last), a.theme.LabelColorName, s.Count)
		fmt.Fprintf(&sb, "  [%s]min[-]  %-9s [%s]max[-] %s\n",
			a.theme.LabelColorName, formatValue(s.Min), a.theme.LabelColorName, formatValue(s.Max))
		fmt.Fprintf(&sb, "  [%s]mean[-] %-9s [%s]sd[-]  %s\n",
			a.theme.LabelColorName, formatValue(s.Mean), a.theme.LabelColorName, formatValue(s.StdDev))
	}
	return sb.String()
}
