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

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ReloadDebounce collapses the burst of events editors produce on save.
const ReloadDebounce = 250 * time.Millisecond

// Watch reloads the config file whenever it changes on disk and passes the
// new values to onReload. A file that fails to load is logged and ignored.
// Watch needs the instance to be backed by the OS filesystem and blocks until
// ctx is done.
func (c *Instance) Watch(ctx context.Context, clock clockwork.Clock, onReload func(Values)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	// watch the directory so editors that replace the file are seen
	target := filepath.Clean(c.cfgPath)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}
	log.Debug().Str("path", target).Msg("watching config file")

	var (
		timer  clockwork.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = clock.NewTimer(ReloadDebounce)
			} else {
				timer.Reset(ReloadDebounce)
			}
			timerC = timer.Chan()
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(watchErr).Msg("config watcher error")
		case <-timerC:
			timerC = nil
			if err := c.Load(); err != nil {
				log.Warn().Err(err).Msg("config reload failed, keeping current settings")
				continue
			}
			log.Info().Msg("config file reloaded")
			if onReload != nil {
				onReload(c.Snapshot())
			}
		}
	}
}
