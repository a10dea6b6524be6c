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

// Package seriallink owns the serial device: it opens the port, runs the
// blocking read loop and reconnects with exponential backoff after failures.
package seriallink

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ZaparooProject/serialplot/pkg/helpers/syncutil"
	"github.com/ZaparooProject/serialplot/pkg/models"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

const (
	DefaultReadTimeout = 100 * time.Millisecond
	ReadChunkSize      = 1024
)

// ErrConnect wraps every failed connection attempt.
var ErrConnect = errors.New("failed to connect to serial device")

// ChunkHandler receives each successful read. The chunk is only valid until
// the handler returns.
type ChunkHandler func(chunk []byte, at time.Time)

type EventHandler func(models.ConnectionEvent)

type Options struct {
	Clock   clockwork.Clock
	Factory PortFactory
	OnChunk ChunkHandler
	OnEvent EventHandler
	Path    string
	Port    PortOptions
	Backoff Backoff
	// ReadTimeout bounds each read so cancellation is noticed.
	ReadTimeout time.Duration
}

// Link is the connection state machine for one device. Run is called from a
// single goroutine; State and Close may be called from anywhere.
type Link struct {
	clock   clockwork.Clock
	port    Port
	mode    *serial.Mode
	opts    Options
	buf     []byte
	backoff Backoff
	state   atomic.Int32
	mu      syncutil.Mutex // protects port
}

func New(opts Options) (*Link, error) {
	if opts.Path == "" {
		return nil, errors.New("serial port path not set")
	}
	mode, err := opts.Port.SerialMode()
	if err != nil {
		return nil, fmt.Errorf("invalid port options: %w", err)
	}
	if opts.Factory == nil {
		opts.Factory = DefaultPortFactory
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}

	return &Link{
		clock:   opts.Clock,
		mode:    mode,
		opts:    opts,
		backoff: opts.Backoff,
		buf:     make([]byte, ReadChunkSize),
	}, nil
}

func (l *Link) Path() string {
	return l.opts.Path
}

func (l *Link) State() models.ConnState {
	return models.ConnState(l.state.Load())
}

// Open makes one connection attempt, moving Disconnected to Connecting and
// then to Connected or back to Disconnected.
func (l *Link) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.emit(models.EventConnecting, l.opts.Path)

	port, err := l.opts.Factory(l.opts.Path, l.mode)
	if err != nil {
		l.emit(models.EventDisconnected, err.Error())
		return fmt.Errorf("%w %s: %w", ErrConnect, l.opts.Path, err)
	}

	if err := port.SetReadTimeout(l.opts.ReadTimeout); err != nil {
		_ = port.Close()
		l.emit(models.EventDisconnected, err.Error())
		return fmt.Errorf("%w %s: failed to set read timeout: %w", ErrConnect, l.opts.Path, err)
	}

	l.mu.Lock()
	l.port = port
	l.mu.Unlock()

	l.emit(models.EventConnected, l.opts.Path)
	log.Info().Str("path", l.opts.Path).Msg("serial port connected")
	return nil
}

// Run reads until ctx is cancelled. Read failures close the port and start
// reconnecting; they are never returned. Run returns ctx.Err() after the
// port has been released.
func (l *Link) Run(ctx context.Context) error {
	defer l.shutdown()

	// the backoff only resets once a connection has proven it can read,
	// so a port that opens and fails straight away keeps backing off
	proven := false
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		port := l.currentPort()
		if port == nil {
			if err := l.Open(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				delay := l.backoff.Next()
				log.Debug().Err(err).Dur("retry_in", delay).Msg("serial connect failed")
				if !l.wait(ctx, delay) {
					return ctx.Err()
				}
				continue
			}
			proven = false
			continue
		}

		n, err := port.Read(l.buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.fail(err)
			delay := l.backoff.Next()
			log.Debug().Dur("retry_in", delay).Msg("serial reconnect scheduled")
			if !l.wait(ctx, delay) {
				return ctx.Err()
			}
			continue
		}
		if !proven {
			proven = true
			l.backoff.Reset()
		}
		if n == 0 {
			// read timeout
			continue
		}

		if l.opts.OnChunk != nil {
			l.opts.OnChunk(l.buf[:n], l.clock.Now())
		}
	}
}

// Close releases the port if one is open. A running Run loop will notice the
// failed read and reconnect; cancel its context to stop it instead.
func (l *Link) Close() error {
	l.mu.Lock()
	port := l.port
	l.port = nil
	l.mu.Unlock()

	if port == nil {
		return nil
	}
	if err := port.Close(); err != nil {
		return fmt.Errorf("failed to close serial port: %w", err)
	}
	return nil
}

func (l *Link) fail(readErr error) {
	reason := readErr.Error()
	log.Warn().Err(readErr).Str("path", l.opts.Path).Msg("serial read failed")
	l.emit(models.EventReadError, reason)
	if err := l.Close(); err != nil {
		log.Debug().Err(err).Msg("error closing failed port")
	}
	l.emit(models.EventDisconnected, reason)
}

func (l *Link) shutdown() {
	wasOpen := l.currentPort() != nil
	if err := l.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing serial port on shutdown")
	}
	if wasOpen || l.State() != models.StateDisconnected {
		l.emit(models.EventDisconnected, "shutdown")
	}
}

func (l *Link) currentPort() Port {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.port
}

func (l *Link) wait(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-l.clock.After(d):
		return true
	}
}

func (l *Link) emit(kind models.EventKind, reason string) {
	ev := models.ConnectionEvent{At: l.clock.Now(), Kind: kind, Reason: reason}
	next := l.State().Apply(ev)
	l.state.Store(int32(next))
	if l.opts.OnEvent != nil {
		l.opts.OnEvent(ev)
	}
}
