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

package mocks

import (
	"errors"
	"time"

	"github.com/ZaparooProject/serialplot/pkg/helpers/syncutil"
	"github.com/stretchr/testify/mock"
	"go.bug.st/serial"
)

// ErrPortClosed is returned by reads on a closed MockSerialPort.
var ErrPortClosed = errors.New("port closed")

// IdleReadDelay is how long a MockSerialPort with nothing scripted waits
// before reporting a read timeout.
const IdleReadDelay = 5 * time.Millisecond

// ReadStep is one scripted Read result.
type ReadStep struct {
	Err  error
	Data []byte
}

// MockSerialPort replays scripted reads. Once the script is exhausted reads
// behave like a timeout on an idle line.
type MockSerialPort struct {
	TimeoutErr  error
	CloseError  error
	ReadFunc    func(p []byte) (n int, err error)
	steps       []ReadStep
	readTimeout time.Duration
	reads       int
	closed      bool
	mu          syncutil.Mutex
}

func NewMockSerialPort(steps ...ReadStep) *MockSerialPort {
	return &MockSerialPort{steps: steps}
}

// Script appends more reads to the port.
func (m *MockSerialPort) Script(steps ...ReadStep) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, steps...)
}

func (m *MockSerialPort) Read(p []byte) (int, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, ErrPortClosed
	}
	m.reads++
	if m.ReadFunc != nil {
		fn := m.ReadFunc
		m.mu.Unlock()
		return fn(p)
	}
	if len(m.steps) == 0 {
		m.mu.Unlock()
		time.Sleep(IdleReadDelay)
		return 0, nil
	}

	step := &m.steps[0]
	if step.Err != nil {
		err := step.Err
		m.steps = m.steps[1:]
		m.mu.Unlock()
		return 0, err
	}
	n := copy(p, step.Data)
	step.Data = step.Data[n:]
	if len(step.Data) == 0 {
		m.steps = m.steps[1:]
	}
	m.mu.Unlock()
	return n, nil
}

func (m *MockSerialPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return m.CloseError
}

func (m *MockSerialPort) SetReadTimeout(t time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readTimeout = t
	return m.TimeoutErr
}

func (m *MockSerialPort) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *MockSerialPort) ReadTimeout() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readTimeout
}

// Reads counts calls to Read.
func (m *MockSerialPort) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// MockPortOpener records open attempts and returns the configured port.
type MockPortOpener struct {
	mock.Mock
}

func (m *MockPortOpener) Open(path string, mode *serial.Mode) (*MockSerialPort, error) {
	args := m.Called(path, mode)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	port, ok := args.Get(0).(*MockSerialPort)
	if !ok {
		return nil, errors.New("mock opener returned no port")
	}
	return port, nil
}
