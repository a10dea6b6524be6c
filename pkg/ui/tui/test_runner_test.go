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
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/stretchr/testify/require"
)

// TestAppRunner drives the plotter's tview application on a simulation
// screen. Run happens on its own goroutine; done closes when it returns.
type TestAppRunner struct {
	runErr error
	app    *tview.Application
	screen *TestScreen
	drawn  chan struct{}
	done   chan struct{}
}

// NewTestAppRunner creates a runner with a width x height screen. The
// application is not running until Start.
func NewTestAppRunner(t *testing.T, width, height int) *TestAppRunner {
	t.Helper()

	screen := NewTestScreen(t, width, height)
	app := tview.NewApplication()
	app.SetScreen(screen.SimulationScreen)

	r := &TestAppRunner{
		app:    app,
		screen: screen,
		drawn:  make(chan struct{}),
		done:   make(chan struct{}),
	}
	var once sync.Once
	app.SetAfterDrawFunc(func(tcell.Screen) {
		once.Do(func() { close(r.drawn) })
	})
	return r
}

// Start runs the application with root and blocks until the first frame
// has been drawn.
func (r *TestAppRunner) Start(t *testing.T, root tview.Primitive) {
	t.Helper()
	r.app.SetRoot(root, true)
	go func() {
		defer close(r.done)
		r.runErr = r.app.Run()
	}()
	select {
	case <-r.drawn:
	case <-r.done:
		require.FailNow(t, "application exited before drawing", "%v", r.runErr)
	case <-time.After(waitTimeout):
		require.FailNow(t, "application never drew")
	}
	t.Cleanup(r.Stop)
}

// Stop stops the application and waits for Run to return. Stopping also
// finalizes the screen.
func (r *TestAppRunner) Stop() {
	if r.IsStopped() {
		return
	}
	r.app.Stop()
	select {
	case <-r.done:
	case <-time.After(waitTimeout):
	}
}

// Screen returns the simulation screen for key injection and assertions.
func (r *TestAppRunner) Screen() *TestScreen {
	return r.screen
}

// App returns the application for handing to New before Start.
func (r *TestAppRunner) App() *tview.Application {
	return r.app
}

// OnUI runs f on the event goroutine, waits for it, then redraws.
func (r *TestAppRunner) OnUI(f func()) {
	r.app.QueueUpdateDraw(f)
}

// IsStopped reports whether Run has returned, whether from Stop or a quit
// key.
func (r *TestAppRunner) IsStopped() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// RunError returns what Run returned. It is nil until IsStopped.
func (r *TestAppRunner) RunError() error {
	if !r.IsStopped() {
		return nil
	}
	return r.runErr
}

// WaitForCondition polls condition until it holds or timeout passes.
func (*TestAppRunner) WaitForCondition(condition func() bool, timeout time.Duration) bool {
	tick := time.NewTicker(5 * time.Millisecond)
	defer tick.Stop()
	deadline := time.After(timeout)
	for {
		if condition() {
			return true
		}
		select {
		case <-tick.C:
		case <-deadline:
			return condition()
		}
	}
}

// WaitForText redraws until text is on screen.
func (r *TestAppRunner) WaitForText(text string, timeout time.Duration) bool {
	return r.WaitForCondition(func() bool {
		r.redraw()
		return r.screen.ContainsText(text)
	}, timeout)
}

// WaitForNoText redraws until text is gone from the screen.
func (r *TestAppRunner) WaitForNoText(text string, timeout time.Duration) bool {
	return r.WaitForCondition(func() bool {
		r.redraw()
		return !r.screen.ContainsText(text)
	}, timeout)
}

func (r *TestAppRunner) redraw() {
	if !r.IsStopped() {
		r.app.Draw()
	}
}
