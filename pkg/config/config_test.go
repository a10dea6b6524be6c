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
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCfgPath = "/cfg/serialplot/config.toml"

func newMemConfig(t *testing.T, content string) (*Instance, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	if content != "" {
		require.NoError(t, afero.WriteFile(fs, testCfgPath, []byte(content), 0o600))
	}
	cfg, err := NewConfigAt(fs, testCfgPath, BaseDefaults)
	require.NoError(t, err)
	return cfg, fs
}

func TestNewConfig_WritesDefaultFile(t *testing.T) {
	t.Parallel()

	cfg, fs := newMemConfig(t, "")

	data, err := afero.ReadFile(fs, testCfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "config_schema = 1")
	assert.Contains(t, string(data), "[serial]")
	assert.NotEmpty(t, cfg.InstanceID())

	assert.Equal(t, DefaultBaudRate, cfg.Serial().BaudRate)
	assert.Equal(t, 30*time.Second, cfg.Window())
	assert.Equal(t, 30, cfg.FPS())
	assert.Empty(t, cfg.Rules())
}

//nolint:paralleltest // uses t.Setenv
func TestNewConfig_EnvPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	t.Setenv(CfgEnv, "/elsewhere/custom.toml")

	cfg, err := NewConfig(fs, "/ignored", BaseDefaults)
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere/custom.toml", cfg.Path())

	exists, err := afero.Exists(fs, "/elsewhere/custom.toml")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLoad_PreservesDefaultsForMissingFields(t *testing.T) {
	t.Parallel()

	cfg, _ := newMemConfig(t, fmt.Sprintf("config_schema = %d\n", SchemaVersion))

	s := cfg.Serial()
	assert.Equal(t, DefaultBaudRate, s.BaudRate)
	assert.Equal(t, 8, s.DataBits)
	assert.Equal(t, "none", s.Parity)
	assert.Equal(t, 4096, s.MaxLineLength)
	assert.True(t, cfg.Plot().ShowLog)
	assert.Equal(t, []string{FormatPNG, FormatCSV}, cfg.ExportFormats())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	t.Parallel()

	content := fmt.Sprintf(`config_schema = %d
debug_logging = true

[serial]
port = "/dev/ttyACM0"
baud_rate = 115200
parity = "even"
reconnect_max = "2s"

[plot]
window = "1m"
fps = 60
max_fetch = 500
diagnostics = true

[export]
dir = "/tmp/plots"
formats = ["html"]

[[rules]]
name = "temp"
pattern = 'T=([0-9.]+)'

[[rules]]
name = "hum"
pattern = 'H=(?P<value>[0-9.]+)'
`, SchemaVersion)

	cfg, _ := newMemConfig(t, content)

	assert.True(t, cfg.DebugLogging())
	s := cfg.Serial()
	assert.Equal(t, "/dev/ttyACM0", s.Port)
	assert.Equal(t, 115200, s.BaudRate)
	assert.Equal(t, "even", s.Parity)
	assert.Equal(t, 2*time.Second, cfg.ReconnectMax())

	assert.Equal(t, time.Minute, cfg.Window())
	assert.Equal(t, 60, cfg.FPS())
	assert.Equal(t, 500, cfg.Plot().MaxFetch)
	assert.True(t, cfg.Plot().Diagnostics)

	assert.Equal(t, "/tmp/plots", cfg.ExportDir("/fallback"))
	assert.Equal(t, []string{FormatHTML}, cfg.ExportFormats())

	assert.Equal(t, []Rule{
		{Name: "temp", Pattern: `T=([0-9.]+)`},
		{Name: "hum", Pattern: `H=(?P<value>[0-9.]+)`},
	}, cfg.Rules())
}

func TestLoad_SchemaMismatch(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, testCfgPath, []byte("config_schema = 99\n"), 0o600))

	_, err := NewConfigAt(fs, testCfgPath, BaseDefaults)
	require.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestLoad_ValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "bad window", body: "[plot]\nwindow = \"soon\"\n", wantErr: "Plot.Window"},
		{name: "negative window", body: "[plot]\nwindow = \"-5s\"\n", wantErr: "Plot.Window"},
		{name: "fps too high", body: "[plot]\nfps = 1000\n", wantErr: "Plot.FPS"},
		{name: "unknown theme", body: "[plot]\ntheme = \"neon\"\n", wantErr: "Plot.Theme"},
		{name: "bad parity", body: "[serial]\nparity = \"sideways\"\n", wantErr: "Serial.Parity"},
		{name: "bad data bits", body: "[serial]\ndata_bits = 9\n", wantErr: "Serial.DataBits"},
		{name: "bad format", body: "[export]\nformats = [\"gif\"]\n", wantErr: "Export.Formats[0]"},
		{name: "bad toml", body: "[serial\n", wantErr: "failed to unmarshal config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(fmt.Sprintf("config_schema = %d\n%s", SchemaVersion, tt.body)), BaseDefaults)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParse_InvalidRulePatternIsNotFatal(t *testing.T) {
	t.Parallel()

	body := fmt.Sprintf("config_schema = %d\n[[rules]]\nname = \"bad\"\npattern = \"T=([0-9\"\n", SchemaVersion)
	vals, err := Parse([]byte(body), BaseDefaults)
	require.NoError(t, err)
	require.Len(t, vals.Rules, 1)
	assert.Equal(t, "bad", vals.Rules[0].Name)
}

func TestLoad_FailedReloadKeepsValues(t *testing.T) {
	t.Parallel()

	cfg, fs := newMemConfig(t, fmt.Sprintf("config_schema = %d\n[plot]\nfps = 20\n", SchemaVersion))
	require.Equal(t, 20, cfg.FPS())

	require.NoError(t, afero.WriteFile(fs, testCfgPath, []byte("config_schema = [\n"), 0o600))
	require.Error(t, cfg.Load())
	assert.Equal(t, 20, cfg.FPS())
}

func TestLoad_ReloadCycle(t *testing.T) {
	t.Parallel()

	cfg, _ := newMemConfig(t, "")
	id := cfg.InstanceID()

	cfg.SetSerialPort("/dev/ttyUSB1")
	cfg.SetRules([]Rule{{Name: "v", Pattern: `V=(\d+)`}})
	cfg.SetShowLog(false)
	require.NoError(t, cfg.Save())
	require.NoError(t, cfg.Load())

	assert.Equal(t, "/dev/ttyUSB1", cfg.Serial().Port)
	assert.Equal(t, []Rule{{Name: "v", Pattern: `V=(\d+)`}}, cfg.Rules())
	assert.False(t, cfg.Plot().ShowLog)
	assert.Equal(t, id, cfg.InstanceID(), "instance id is generated once")
	assert.Equal(t, DefaultBaudRate, cfg.Serial().BaudRate)
}

func TestOverrides_SurviveReload(t *testing.T) {
	t.Parallel()

	cfg, _ := newMemConfig(t, fmt.Sprintf("config_schema = %d\n[serial]\nport = \"/dev/a\"\n", SchemaVersion))
	cfg.SetOverrides(SerialOverrides{Port: "/dev/b", BaudRate: 57600})

	require.NoError(t, cfg.Load())
	s := cfg.Serial()
	assert.Equal(t, "/dev/b", s.Port)
	assert.Equal(t, 57600, s.BaudRate)
	assert.Equal(t, "/dev/b", cfg.Snapshot().Serial.Port)
}

func TestSnapshot_IsCopy(t *testing.T) {
	t.Parallel()

	cfg, _ := newMemConfig(t, "")
	cfg.SetRules([]Rule{{Name: "a", Pattern: `a=(\d)`}})

	snap := cfg.Snapshot()
	snap.Rules[0].Name = "mutated"
	snap.Export.Formats[0] = "mutated"

	assert.Equal(t, "a", cfg.Rules()[0].Name)
	assert.Equal(t, FormatPNG, cfg.ExportFormats()[0])
}

func TestExportDir_Fallback(t *testing.T) {
	t.Parallel()

	cfg, _ := newMemConfig(t, "")
	assert.Equal(t, filepath.Join("data", ExportsDir), cfg.ExportDir(filepath.Join("data", ExportsDir)))
}
