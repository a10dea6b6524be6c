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

// Package cli holds the command line surface shared by the serialplot
// binaries: flags, environment setup and the top level run loop.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/ZaparooProject/serialplot/pkg/config"
	"github.com/ZaparooProject/serialplot/pkg/helpers"
	"github.com/ZaparooProject/serialplot/pkg/seriallink"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// ErrExit signals that Pre fully handled the invocation.
var ErrExit = errors.New("exit requested")

type Flags struct {
	set       *flag.FlagSet
	ListPorts func() ([]seriallink.PortInfo, error)
	Config    *string
	Port      *string
	Baud      *int
	List      *bool
	Tail      *bool
	Version   *bool
	Debug     *bool
}

// SetupFlags defines the CLI flags on the process-wide flag set.
func SetupFlags() *Flags {
	return NewFlags(flag.CommandLine)
}

// NewFlags defines the CLI flags on set.
func NewFlags(set *flag.FlagSet) *Flags {
	return &Flags{
		set:       set,
		ListPorts: seriallink.ListPorts,
		Config: set.String(
			"config",
			"",
			"path to config file (default: $"+config.CfgEnv+" or the user config dir)",
		),
		Port: set.String(
			"port",
			"",
			"serial port to open, overrides the config file",
		),
		Baud: set.Int(
			"baud",
			0,
			"baud rate, overrides the config file",
		),
		List: set.Bool(
			"list-ports",
			false,
			"list available serial ports and exit",
		),
		Tail: set.Bool(
			"tail",
			false,
			"print samples to stdout instead of starting the plot UI",
		),
		Version: set.Bool(
			"version",
			false,
			"print version and exit",
		),
		Debug: set.Bool(
			"debug",
			false,
			"enable debug logging",
		),
	}
}

// Pre parses args and handles the flags that need no environment. It
// returns ErrExit when the process should stop successfully.
func (f *Flags) Pre(args []string, out io.Writer) error {
	if err := f.set.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	switch {
	case *f.Version:
		_, _ = fmt.Fprintf(out, "%s v%s\n", config.AppName, config.AppVersion)
		return ErrExit
	case *f.List:
		ports, err := f.ListPorts()
		if err != nil {
			return err
		}
		if len(ports) == 0 {
			_, _ = fmt.Fprintln(out, "no serial ports found")
			return ErrExit
		}
		for _, p := range ports {
			_, _ = fmt.Fprintln(out, p.String())
		}
		return ErrExit
	}

	if *f.Baud < 0 {
		return fmt.Errorf("invalid baud rate: %d", *f.Baud)
	}
	return nil
}

// Setup creates the app directories, starts logging and loads the config.
//
//nolint:gocritic // config struct copied for immutability
func (f *Flags) Setup(
	fs afero.Fs,
	paths helpers.Paths,
	defaults config.Values,
	writers ...io.Writer,
) (*config.Instance, error) {
	if err := paths.EnsureDirs(fs); err != nil {
		return nil, fmt.Errorf("error creating directories: %w", err)
	}

	if err := helpers.InitLogging(paths.LogDir, *f.Debug, writers...); err != nil {
		return nil, fmt.Errorf("error initializing logging: %w", err)
	}

	var (
		cfg *config.Instance
		err error
	)
	if *f.Config != "" {
		cfg, err = config.NewConfigAt(fs, *f.Config, defaults)
	} else {
		cfg, err = config.NewConfig(fs, paths.ConfigDir, defaults)
	}
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	debug := *f.Debug || cfg.DebugLogging()
	zerolog.SetGlobalLevel(helpers.LogLevel(debug))
	log.Info().
		Str("version", config.AppVersion).
		Str("config", cfg.Path()).
		Bool("debug", debug).
		Msg("starting " + config.AppName)

	return cfg, nil
}

// Post applies the flags that depend on a loaded config.
func (f *Flags) Post(cfg *config.Instance) {
	overrides := config.SerialOverrides{
		Port:     *f.Port,
		BaudRate: *f.Baud,
	}
	if overrides != (config.SerialOverrides{}) {
		log.Info().Str("port", overrides.Port).Int("baud", overrides.BaudRate).
			Msg("serial settings overridden from command line")
	}
	cfg.SetOverrides(overrides)
}
