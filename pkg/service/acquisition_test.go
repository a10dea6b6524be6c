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

package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ZaparooProject/serialplot/pkg/bus"
	"github.com/ZaparooProject/serialplot/pkg/config"
	"github.com/ZaparooProject/serialplot/pkg/models"
	"github.com/ZaparooProject/serialplot/pkg/seriallink"
	"github.com/ZaparooProject/serialplot/pkg/testing/mocks"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const thRules = `
[[rules]]
name = "temp"
pattern = 'T=([0-9.]+)'

[[rules]]
name = "hum"
pattern = 'H=([0-9.]+)'
`

func newTestConfig(t *testing.T, port string, extra string) *config.Instance {
	t.Helper()
	fs := afero.NewMemMapFs()
	body := fmt.Sprintf("config_schema = %d\n%s\n[serial]\nport = %q\n", config.SchemaVersion, extra, port)
	require.NoError(t, afero.WriteFile(fs, "/cfg/config.toml", []byte(body), 0o600))
	cfg, err := config.NewConfigAt(fs, "/cfg/config.toml", config.BaseDefaults)
	require.NoError(t, err)
	return cfg
}

func factoryFrom(opener *mocks.MockPortOpener) seriallink.PortFactory {
	return func(path string, mode *serial.Mode) (seriallink.Port, error) {
		p, err := opener.Open(path, mode)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

// collector drains the bus in the background the way the render loop would.
type collector struct {
	items []bus.Item
	mu    sync.Mutex
}

func (c *collector) drain(b *bus.Bus) {
	got := b.DrainAvailable()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, got...)
}

func (c *collector) samples() []models.Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.Sample
	for _, it := range c.items {
		if it.Sample != nil {
			out = append(out, *it.Sample)
		}
	}
	return out
}

func (c *collector) warnings() []models.Warning {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.Warning
	for _, it := range c.items {
		if it.Warning != nil {
			out = append(out, *it.Warning)
		}
	}
	return out
}

func (c *collector) events() []models.EventKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.EventKind
	for _, it := range c.items {
		if it.Event != nil {
			out = append(out, it.Event.Kind)
		}
	}
	return out
}

type harness struct {
	acq    *Acquisition
	bus    *bus.Bus
	col    *collector
	cancel context.CancelFunc
	done   chan error
}

func startAcquisition(t *testing.T, cfg *config.Instance, opener *mocks.MockPortOpener, clock clockwork.Clock) *harness {
	t.Helper()
	b := bus.New(64)
	acq := New(Options{Config: cfg, Bus: b, Clock: clock, Factory: factoryFrom(opener)})

	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{acq: acq, bus: b, col: &collector{}, cancel: cancel, done: make(chan error, 1)}
	go func() {
		h.done <- acq.Run(ctx)
	}()
	t.Cleanup(func() {
		h.stop(t)
	})
	return h
}

func (h *harness) eventually(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		h.col.drain(h.bus)
		return cond()
	}, 2*time.Second, 5*time.Millisecond)
}

func (h *harness) stop(t *testing.T) {
	t.Helper()
	if h.cancel == nil {
		return
	}
	h.cancel()
	h.cancel = nil
	select {
	case err := <-h.done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("acquisition did not stop")
	}
}

func TestAcquisition_TemperatureHumidityLine(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	port := mocks.NewMockSerialPort(mocks.ReadStep{Data: []byte("T=23.5 H=60\n")})
	opener := &mocks.MockPortOpener{}
	opener.On("Open", "/dev/ttyTEST0", mock.Anything).Return(port, nil).Once()

	h := startAcquisition(t, newTestConfig(t, "/dev/ttyTEST0", thRules), opener, clock)
	h.eventually(t, func() bool { return len(h.col.samples()) == 2 })

	got := h.col.samples()
	assert.Equal(t, "temp", got[0].Channel)
	assert.InDelta(t, 23.5, got[0].Value, 0)
	assert.Equal(t, "hum", got[1].Channel)
	assert.InDelta(t, 60.0, got[1].Value, 0)
	assert.Equal(t, got[0].At, got[1].At)

	assert.Equal(t, []models.EventKind{models.EventConnecting, models.EventConnected}, h.col.events())

	sess := h.acq.Session()
	require.NotNil(t, sess)
	assert.Equal(t, "/dev/ttyTEST0", sess.Port)
	assert.Equal(t, []string{"temp", "hum"}, sess.Channels)
	assert.Equal(t, models.StateConnected, sess.State())
	assert.NotEmpty(t, sess.ID)
}

func TestAcquisition_GarbageYieldsNoSamples(t *testing.T) {
	t.Parallel()

	port := mocks.NewMockSerialPort(mocks.ReadStep{Data: []byte("#$%^garbage\n")})
	opener := &mocks.MockPortOpener{}
	opener.On("Open", "/dev/ttyTEST0", mock.Anything).Return(port, nil).Once()

	h := startAcquisition(t, newTestConfig(t, "/dev/ttyTEST0", thRules), opener, clockwork.NewFakeClock())
	h.eventually(t, func() bool { return port.Reads() > 1 })

	h.col.drain(h.bus)
	assert.Empty(t, h.col.samples())
	assert.Empty(t, h.col.warnings())
}

func TestAcquisition_ParseAndConfigWarnings(t *testing.T) {
	t.Parallel()

	rules := `
[[rules]]
name = "temp"
pattern = 'T=(\S+)'

[[rules]]
name = "broken"
pattern = 'X=([0-9'
`
	port := mocks.NewMockSerialPort(mocks.ReadStep{Data: []byte("T=hot\r\nT=\xff\n")})
	opener := &mocks.MockPortOpener{}
	opener.On("Open", "/dev/ttyTEST0", mock.Anything).Return(port, nil).Once()

	h := startAcquisition(t, newTestConfig(t, "/dev/ttyTEST0", rules), opener, clockwork.NewFakeClock())
	h.eventually(t, func() bool {
		kinds := map[models.WarningKind]bool{}
		for _, w := range h.col.warnings() {
			kinds[w.Kind] = true
		}
		return kinds[models.WarningConfig] && kinds[models.WarningParse] && kinds[models.WarningDecode]
	})
	assert.Empty(t, h.col.samples())
}

func TestAcquisition_NoPortWaitsForReload(t *testing.T) {
	t.Parallel()

	port := mocks.NewMockSerialPort(mocks.ReadStep{Data: []byte("T=1\n")})
	opener := &mocks.MockPortOpener{}
	opener.On("Open", "/dev/ttyLATE", mock.Anything).Return(port, nil).Once()

	cfg := newTestConfig(t, "", thRules)
	h := startAcquisition(t, cfg, opener, clockwork.NewFakeClock())

	h.eventually(t, func() bool {
		for _, w := range h.col.warnings() {
			if w.Kind == models.WarningConfig && w.Message == ErrNoPort.Error() {
				return true
			}
		}
		return false
	})
	assert.Nil(t, h.acq.Session())

	vals := cfg.Snapshot()
	vals.Serial.Port = "/dev/ttyLATE"
	h.acq.Reload(vals)

	h.eventually(t, func() bool { return len(h.col.samples()) == 1 })
	opener.AssertExpectations(t)
}

func TestAcquisition_ReloadRestartsSession(t *testing.T) {
	t.Parallel()

	first := mocks.NewMockSerialPort()
	second := mocks.NewMockSerialPort(mocks.ReadStep{Data: []byte("H=40\n")})
	opener := &mocks.MockPortOpener{}
	opener.On("Open", "/dev/ttyA", mock.Anything).Return(first, nil).Once()
	opener.On("Open", "/dev/ttyB", mock.Anything).Return(second, nil).Once()

	cfg := newTestConfig(t, "/dev/ttyA", thRules)
	h := startAcquisition(t, cfg, opener, clockwork.NewFakeClock())

	h.eventually(t, func() bool {
		s := h.acq.Session()
		return s != nil && s.State() == models.StateConnected
	})

	vals := cfg.Snapshot()
	vals.Serial.Port = "/dev/ttyB"
	h.acq.Reload(vals)

	h.eventually(t, func() bool { return len(h.col.samples()) == 1 })
	assert.True(t, first.IsClosed())
	assert.Equal(t, uint64(2), h.acq.Sessions())
	assert.Equal(t, "/dev/ttyB", h.acq.Session().Port)
	opener.AssertExpectations(t)
}

func TestAcquisition_StopsWhenBusClosed(t *testing.T) {
	t.Parallel()

	port := mocks.NewMockSerialPort()
	opener := &mocks.MockPortOpener{}
	opener.On("Open", "/dev/ttyTEST0", mock.Anything).Return(port, nil).Once()

	b := bus.New(8)
	acq := New(Options{
		Config:  newTestConfig(t, "/dev/ttyTEST0", thRules),
		Bus:     b,
		Clock:   clockwork.NewFakeClock(),
		Factory: factoryFrom(opener),
	})

	done := make(chan error, 1)
	go func() {
		done <- acq.Run(context.Background())
	}()

	require.Eventually(t, func() bool {
		s := acq.Session()
		return s != nil && s.State() == models.StateConnected
	}, 2*time.Second, 5*time.Millisecond)

	b.Close()
	port.Script(mocks.ReadStep{Data: []byte("T=5\n")})

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("acquisition kept running after the bus closed")
	}
	assert.True(t, port.IsClosed())
}

func TestReload_KeepsNewest(t *testing.T) {
	t.Parallel()

	acq := New(Options{Config: newTestConfig(t, "", ""), Bus: bus.New(1)})
	a := config.BaseDefaults
	a.Serial.Port = "/dev/a"
	b := config.BaseDefaults
	b.Serial.Port = "/dev/b"

	acq.Reload(a)
	acq.Reload(b)

	got := <-acq.reload
	assert.Equal(t, "/dev/b", got.Serial.Port)
}
