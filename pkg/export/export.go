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

// Package export writes the visible plot window to files.
package export

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/ZaparooProject/serialplot/pkg/config"
	"github.com/ZaparooProject/serialplot/pkg/render"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

var (
	ErrNothingToExport = errors.New("no samples in the visible window")
	ErrUnknownFormat   = errors.New("unknown export format")
)

const filenameTime = "20060102-150405"

// Exporter writes viewport snapshots into one directory.
type Exporter struct {
	fs      afero.Fs
	dir     string
	formats []string
}

func New(fs afero.Fs, dir string, formats []string) *Exporter {
	if len(formats) == 0 {
		formats = []string{config.FormatPNG}
	}
	return &Exporter{fs: fs, dir: dir, formats: formats}
}

func (e *Exporter) Dir() string {
	return e.dir
}

// Export writes vp once per configured format and returns the paths
// written. A failing format does not stop the others.
func (e *Exporter) Export(vp render.Viewport, at time.Time) ([]string, error) {
	if len(vp.Channels) == 0 {
		return nil, ErrNothingToExport
	}
	if err := e.fs.MkdirAll(e.dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create export dir: %w", err)
	}

	base := fmt.Sprintf("%s-%s-%s", config.AppName, at.Format(filenameTime), uuid.NewString()[:8])

	var (
		paths []string
		errs  []error
	)
	for _, format := range e.formats {
		path := filepath.Join(e.dir, base+"."+format)
		if err := e.write(path, format, vp); err != nil {
			errs = append(errs, fmt.Errorf("%s export: %w", format, err))
			continue
		}
		log.Info().Str("path", path).Msg("exported plot")
		paths = append(paths, path)
	}
	return paths, errors.Join(errs...)
}

func (e *Exporter) write(path, format string, vp render.Viewport) error {
	var writeFn func(io.Writer, render.Viewport) error
	switch format {
	case config.FormatPNG:
		writeFn = WritePNG
	case config.FormatCSV:
		writeFn = WriteCSV
	case config.FormatHTML:
		writeFn = WriteHTML
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	f, err := e.fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := writeFn(f, vp); err != nil {
		_ = f.Close()
		_ = e.fs.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// seconds is t relative to the start of the viewport.
func seconds(vp render.Viewport, t time.Time) float64 {
	return t.Sub(vp.From).Seconds()
}
