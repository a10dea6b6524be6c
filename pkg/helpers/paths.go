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

package helpers

import (
	"fmt"
	"path/filepath"

	"github.com/ZaparooProject/serialplot/pkg/config"
	"github.com/adrg/xdg"
	"github.com/spf13/afero"
)

// Paths are the per-user directories the application reads and writes.
type Paths struct {
	ConfigDir string
	DataDir   string
	LogDir    string
	ExportDir string
}

// DefaultPaths resolves the XDG base directories for the application.
func DefaultPaths() Paths {
	data := filepath.Join(xdg.DataHome, config.AppName)
	return Paths{
		ConfigDir: filepath.Join(xdg.ConfigHome, config.AppName),
		DataDir:   data,
		LogDir:    filepath.Join(xdg.StateHome, config.AppName),
		ExportDir: filepath.Join(data, config.ExportsDir),
	}
}

// EnsureDirs creates every directory in p that does not exist yet.
func (p Paths) EnsureDirs(fs afero.Fs) error {
	for _, dir := range []string{p.ConfigDir, p.DataDir, p.LogDir, p.ExportDir} {
		if dir == "" {
			continue
		}
		if err := fs.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
