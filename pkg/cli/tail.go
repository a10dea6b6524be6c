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
	"fmt"
	"io"
	"time"

	"github.com/ZaparooProject/serialplot/pkg/bus"
	"github.com/jonboulle/clockwork"
)

const tailTime = "15:04:05.000"

// Tail drains b once per interval and prints every item to out until ctx
// is done. Whatever is still queued at that point is printed before
// returning.
func Tail(ctx context.Context, b *bus.Bus, clock clockwork.Clock, interval time.Duration, out io.Writer) error {
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return printItems(out, b.DrainAvailable())
		case <-ticker.Chan():
			if err := printItems(out, b.DrainAvailable()); err != nil {
				return err
			}
		}
	}
}

func printItems(out io.Writer, items []bus.Item) error {
	for _, it := range items {
		if err := printItem(out, it); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func printItem(out io.Writer, it bus.Item) error {
	var err error
	switch {
	case it.Sample != nil:
		s := it.Sample
		_, err = fmt.Fprintf(out, "%s %s\n", s.At.Format(tailTime), s)
	case it.Event != nil:
		ev := it.Event
		if ev.Reason != "" {
			_, err = fmt.Fprintf(out, "%s # %s: %s\n", ev.At.Format(tailTime), ev.Kind, ev.Reason)
		} else {
			_, err = fmt.Fprintf(out, "%s # %s\n", ev.At.Format(tailTime), ev.Kind)
		}
	case it.Warning != nil:
		_, err = fmt.Fprintf(out, "%s ! %s\n", it.Warning.At.Format(tailTime), it.Warning)
	}
	return err
}
