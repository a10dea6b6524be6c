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

// Package service runs the acquisition side of the pipeline: the serial
// link, line assembly and channel extraction, feeding the sample bus.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ZaparooProject/serialplot/pkg/bus"
	"github.com/ZaparooProject/serialplot/pkg/config"
	"github.com/ZaparooProject/serialplot/pkg/extract"
	"github.com/ZaparooProject/serialplot/pkg/lines"
	"github.com/ZaparooProject/serialplot/pkg/models"
	"github.com/ZaparooProject/serialplot/pkg/seriallink"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrNoPort is reported when no serial port is configured.
var ErrNoPort = errors.New("no serial port configured")

type Options struct {
	Config  *config.Instance
	Bus     *bus.Bus
	Clock   clockwork.Clock
	Factory seriallink.PortFactory
	// WatchConfig restarts acquisition when the config file changes.
	WatchConfig bool
}

// Acquisition owns one serial session at a time and restarts it whenever the
// configuration changes. The bus and everything downstream survive restarts.
type Acquisition struct {
	cfg      *config.Instance
	bus      *bus.Bus
	clock    clockwork.Clock
	factory  seriallink.PortFactory
	sink     *WarningSink
	reload   chan config.Values
	session  atomic.Pointer[Session]
	sessions atomic.Uint64
	watch    bool
}

// Session describes the running acquisition session.
type Session struct {
	ID       string
	Port     string
	Options  seriallink.PortOptions
	Channels []string
	link     *seriallink.Link
}

// NewSession describes a session running on link.
func NewSession(port string, opts seriallink.PortOptions, channels []string, link *seriallink.Link) *Session {
	return &Session{
		ID:       uuid.NewString(),
		Port:     port,
		Options:  opts,
		Channels: channels,
		link:     link,
	}
}

// State is the live link state of the session. It is read from the link
// itself, so it stays current when connection events are dropped from the
// bus or the view is paused.
func (s *Session) State() models.ConnState {
	if s == nil || s.link == nil {
		return models.StateDisconnected
	}
	return s.link.State()
}

func New(opts Options) *Acquisition {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Factory == nil {
		opts.Factory = seriallink.DefaultPortFactory
	}

	a := &Acquisition{
		cfg:     opts.Config,
		bus:     opts.Bus,
		clock:   opts.Clock,
		factory: opts.Factory,
		reload:  make(chan config.Values, 1),
		watch:   opts.WatchConfig,
	}
	a.sink = NewWarningSink(opts.Clock, opts.Bus.Push, DefaultWarningRate, DefaultWarningBurst)
	return a
}

// Session returns the running session, or nil between sessions.
func (a *Acquisition) Session() *Session {
	return a.session.Load()
}

// Sessions counts sessions started so far.
func (a *Acquisition) Sessions() uint64 {
	return a.sessions.Load()
}

func (a *Acquisition) Warnings() *WarningSink {
	return a.sink
}

// Reload restarts acquisition with vals. Only the newest pending reload is
// kept.
//
//nolint:gocritic // config struct copied for immutability
func (a *Acquisition) Reload(vals config.Values) {
	for {
		select {
		case a.reload <- vals:
			return
		default:
		}
		select {
		case <-a.reload:
		default:
		}
	}
}

// Run blocks until ctx is cancelled or the bus is closed.
func (a *Acquisition) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if a.watch {
		g.Go(func() error {
			// acquisition keeps running without live reload
			if err := a.cfg.Watch(gctx, a.clock, a.Reload); err != nil {
				log.Warn().Err(err).Msg("config watch disabled")
			}
			return nil
		})
	}
	g.Go(func() error {
		return a.supervise(gctx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, bus.ErrBusClosed) {
		return nil
	}
	return err
}

func (a *Acquisition) supervise(ctx context.Context) error {
	vals := a.cfg.Snapshot()
	for {
		sctx, cancel := context.WithCancelCause(ctx)
		done := make(chan error, 1)
		go func() {
			done <- a.runSession(sctx, cancel, vals)
		}()

		select {
		case next := <-a.reload:
			log.Info().Msg("configuration changed, restarting acquisition")
			cancel(nil)
			<-done
			vals = next
			continue
		case err := <-done:
			cancel(nil)
			if errors.Is(err, bus.ErrBusClosed) {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// the session cannot run with this config, wait for a fix
			log.Warn().Err(err).Msg("acquisition stopped")
			a.sink.Warn(models.WarningConfig, err.Error())
		case <-ctx.Done():
			cancel(nil)
			<-done
			return ctx.Err()
		}

		select {
		case next := <-a.reload:
			vals = next
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

//nolint:gocritic // config struct copied for immutability
func (a *Acquisition) runSession(ctx context.Context, stop context.CancelCauseFunc, vals config.Values) error {
	defer a.session.Store(nil)

	if vals.Serial.Port == "" {
		return ErrNoPort
	}

	push := func(it bus.Item) {
		if !a.bus.Push(it) {
			stop(bus.ErrBusClosed)
		}
	}

	rules, errs := extract.Compile(vals.Rules)
	for _, err := range errs {
		log.Warn().Err(err).Msg("extraction rule")
		a.sink.Warn(models.WarningConfig, err.Error())
	}
	if rules.Len() == 0 {
		a.sink.Warn(models.WarningConfig, "no usable extraction rules, nothing will be plotted")
	}
	rules.OnSkip = func(e *extract.ParseError) {
		a.sink.Warn(models.WarningParse, e.Error())
	}

	asm, err := lines.NewAssembler(lines.Options{
		MaxLineLength: vals.Serial.MaxLineLength,
		Encoding:      vals.Serial.Encoding,
		OnWarning:     a.sink.Warn,
	})
	if err != nil {
		return fmt.Errorf("failed to create line assembler: %w", err)
	}

	portOpts := seriallink.FromConfig(vals.Serial)
	link, err := seriallink.New(seriallink.Options{
		Path:    vals.Serial.Port,
		Port:    portOpts,
		Clock:   a.clock,
		Factory: a.factory,
		Backoff: seriallink.Backoff{Max: vals.Serial.ReconnectMaxDuration()},
		OnEvent: func(ev models.ConnectionEvent) {
			if ev.Kind == models.EventDisconnected {
				// a partial line from the old connection is garbage now
				asm.Reset()
			}
			push(bus.EventItem(ev))
		},
		OnChunk: func(chunk []byte, at time.Time) {
			for line := range asm.Feed(chunk) {
				for _, s := range rules.Extract(line, at) {
					push(bus.SampleItem(s))
				}
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create serial link: %w", err)
	}

	sess := NewSession(vals.Serial.Port, portOpts, rules.Names(), link)
	a.session.Store(sess)
	a.sessions.Add(1)
	log.Info().
		Str("session", sess.ID).
		Str("port", sess.Port).
		Stringer("mode", portOpts).
		Strs("channels", sess.Channels).
		Msg("acquisition session started")

	err = link.Run(ctx)
	if cause := context.Cause(ctx); errors.Is(cause, bus.ErrBusClosed) {
		return cause
	}
	return err
}
