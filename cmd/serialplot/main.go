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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZaparooProject/serialplot/pkg/cli"
	"github.com/ZaparooProject/serialplot/pkg/config"
	"github.com/ZaparooProject/serialplot/pkg/helpers"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := cli.SetupFlags()
	if err := flags.Pre(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, cli.ErrExit) {
			return nil
		}
		return err
	}

	// the plot UI owns the terminal, so only tail mode logs to the console
	var logWriters []io.Writer
	if *flags.Tail {
		logWriters = []io.Writer{helpers.ConsoleWriter()}
	}

	fs := afero.NewOsFs()
	paths := helpers.DefaultPaths()
	cfg, err := flags.Setup(fs, paths, config.BaseDefaults, logWriters...)
	if err != nil {
		return err
	}

	defer func() {
		if err := recover(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %s\n", err)
			log.Fatal().Msgf("panic: %v", err)
		}
	}()

	flags.Post(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return cli.Run(ctx, cli.RunOptions{
		Config:      cfg,
		Fs:          fs,
		Out:         os.Stdout,
		Paths:       paths,
		Tail:        *flags.Tail,
		WatchConfig: true,
	})
}
