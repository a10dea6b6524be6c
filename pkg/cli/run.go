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

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ZaparooProject/serialplot/pkg/bus"
	"github.com/ZaparooProject/serialplot/pkg/config"
	"github.com/ZaparooProject/serialplot/pkg/export"
	"github.com/ZaparooProject/serialplot/pkg/helpers"
	"github.com/ZaparooProject/serialplot/pkg/render"
	"github.com/ZaparooProject/serialplot/pkg/seriallink"
	"github.com/ZaparooProject/serialplot/pkg/series"
	"github.com/ZaparooProject/serialplot/pkg/service"
	"github.com/ZaparooProject/serialplot/pkg/ui/tui"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

type RunOptions struct {
	Config  *config.Instance
	Fs      afero.Fs
	Clock   clockwork.Clock
	Factory seriallink.PortFactory
	Out     io.Writer
	Paths   helpers.Paths
	// Tail prints samples to Out instead of starting the UI.
	Tail        bool
	WatchConfig bool
}

// Run wires acquisition to either the plot UI or tail output and blocks
// until ctx is cancelled or the UI exits.
//
//nolint:gocritic // options struct copied for immutability
func Run(ctx context.Context, opts RunOptions) error {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	cfg := opts.Config
	plot := cfg.Plot()
	b := bus.New(plot.BusCapacity)
	defer b.Close()

	acq := service.New(service.Options{
		Config:      cfg,
		Bus:         b,
		Clock:       opts.Clock,
		Factory:     opts.Factory,
		WatchConfig: opts.WatchConfig,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return acq.Run(gctx)
	})

	if opts.Tail {
		interval := time.Second / time.Duration(cfg.FPS())
		g.Go(func() error {
			return Tail(gctx, b, opts.Clock, interval, opts.Out)
		})
	} else {
		store := series.New(cfg.Window(), series.WithPruneEmpty(plot.PruneEmpty))
		renderer := render.New(render.Options{
			Bus:         b,
			Store:       store,
			MaxFetch:    plot.MaxFetch,
			Diagnostics: plot.Diagnostics,
		})
		exporter := export.New(opts.Fs, cfg.ExportDir(opts.Paths.ExportDir), cfg.ExportFormats())
		ui := tui.New(tui.Options{
			Config:   cfg,
			Renderer: renderer,
			Exporter: exporter,
			Sessions: acq,
			Clock:    opts.Clock,
		})
		g.Go(func() error {
			// closing the UI ends the program
			defer cancel()
			return ui.Run(gctx)
		})
	}

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("serialplot stopped with error")
		return fmt.Errorf("serialplot: %w", err)
	}
	log.Info().Uint64("sessions", acq.Sessions()).Uint64("dropped", b.Dropped()).Msg("serialplot stopped")
	return nil
}
