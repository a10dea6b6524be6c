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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/ZaparooProject/serialplot/pkg/helpers/syncutil"
	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	SchemaVersion = 1
	CfgEnv        = "SERIALPLOT_CFG"
)

// ErrSchemaMismatch is returned by Load for files written by an incompatible
// version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

type Values struct {
	Serial       Serial `toml:"serial"`
	Plot         Plot   `toml:"plot"`
	Export       Export `toml:"export"`
	InstanceID   string `toml:"instance_id"`
	Rules        []Rule `toml:"rules,omitempty"`
	ConfigSchema int    `toml:"config_schema"`
	DebugLogging bool   `toml:"debug_logging"`
}

var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Serial: Serial{
		BaudRate:      DefaultBaudRate,
		DataBits:      8,
		StopBits:      1,
		Parity:        "none",
		Encoding:      "utf-8",
		MaxLineLength: 4096,
		ReconnectMax:  "5s",
	},
	Plot: Plot{
		Window:      "30s",
		FPS:         30,
		BusCapacity: 1024,
		ShowLog:     true,
	},
	Export: Export{
		Formats: []string{FormatPNG, FormatCSV},
	},
}

type Instance struct {
	fs        afero.Fs
	cfgPath   string
	overrides SerialOverrides
	vals      Values
	defaults  Values
	mu        syncutil.RWMutex
}

// NewConfig loads the config file from configDir, or from the path in
// SERIALPLOT_CFG when set. A default file is written when none exists.
//
//nolint:gocritic // config struct copied for immutability
func NewConfig(fs afero.Fs, configDir string, defaults Values) (*Instance, error) {
	cfgPath := os.Getenv(CfgEnv)
	log.Debug().Msgf("env config path: %s", cfgPath)

	if cfgPath == "" {
		cfgPath = filepath.Join(configDir, CfgFile)
	}

	return NewConfigAt(fs, cfgPath, defaults)
}

// NewConfigAt is NewConfig for an explicit file path.
//
//nolint:gocritic // config struct copied for immutability
func NewConfigAt(fs afero.Fs, cfgPath string, defaults Values) (*Instance, error) {
	cfg := &Instance{
		fs:       fs,
		cfgPath:  cfgPath,
		vals:     defaults,
		defaults: defaults,
	}

	exists, err := afero.Exists(fs, cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if !exists {
		log.Info().Str("path", cfgPath).Msg("saving new default config to disk")

		if err := fs.MkdirAll(filepath.Dir(cfgPath), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := cfg.Save(); err != nil {
			return nil, err
		}
	}

	if err := cfg.Load(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load reads the file over a copy of the defaults. The current values are
// only replaced when the whole file parses and validates, so a bad edit
// leaves the running configuration intact.
func (c *Instance) Load() error {
	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	data, err := afero.ReadFile(c.fs, c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	newVals, err := Parse(data, c.defaults)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals = newVals
	return nil
}

// Parse decodes TOML on top of defaults and validates the result.
//
//nolint:gocritic // config struct copied for immutability
func Parse(data []byte, defaults Values) (Values, error) {
	// fields missing from the file keep their default value
	// slices are decoded into fresh storage so defaults are never aliased
	newVals := defaults
	newVals.Rules = nil
	newVals.Export.Formats = nil
	if err := toml.Unmarshal(data, &newVals); err != nil {
		return Values{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if newVals.Rules == nil {
		newVals.Rules = slices.Clone(defaults.Rules)
	}
	if newVals.Export.Formats == nil {
		newVals.Export.Formats = slices.Clone(defaults.Export.Formats)
	}

	if newVals.ConfigSchema != SchemaVersion {
		log.Error().Msgf(
			"schema version mismatch: got %d, expecting %d",
			newVals.ConfigSchema,
			SchemaVersion,
		)
		return Values{}, fmt.Errorf("%w: got %d, expecting %d",
			ErrSchemaMismatch, newVals.ConfigSchema, SchemaVersion)
	}

	if err := Validate(&newVals); err != nil {
		return Values{}, err
	}

	// bad rules are refused later by the extractor, warn early here
	for i, rule := range newVals.Rules {
		if !validPattern(rule.Pattern) {
			log.Warn().Msgf("invalid pattern for rule %d (%s): %q", i, rule.Name, rule.Pattern)
		}
	}

	return newVals, nil
}

func (c *Instance) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	c.vals.ConfigSchema = SchemaVersion

	if c.vals.InstanceID == "" {
		c.vals.InstanceID = uuid.New().String()
		log.Info().Msgf("generated new instance id: %s", c.vals.InstanceID)
	}

	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := afero.WriteFile(c.fs, c.cfgPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Path is the file the instance loads from and saves to.
func (c *Instance) Path() string {
	return c.cfgPath
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = enabled
}

func (c *Instance) InstanceID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.InstanceID
}

// Snapshot returns a copy of the loaded values with overrides applied.
func (c *Instance) Snapshot() Values {
	c.mu.RLock()
	defer c.mu.RUnlock()
	vals := c.vals
	vals.Serial = c.overrides.apply(vals.Serial)
	vals.Rules = append([]Rule(nil), c.vals.Rules...)
	vals.Export.Formats = append([]string(nil), c.vals.Export.Formats...)
	return vals
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
