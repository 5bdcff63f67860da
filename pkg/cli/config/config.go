/* Copyright 2025 Folio Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config reads and writes the folio configuration file
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/folio-reader/folio/pkg/cli/consts"
	"github.com/folio-reader/folio/pkg/cli/context"
	"github.com/folio-reader/folio/pkg/cli/utils"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	// DefaultAPIEndpoint is the API endpoint used when none is configured
	DefaultAPIEndpoint = "http://localhost:3001/api"
	// DefaultSyncInterval is the period of background sync cycles
	DefaultSyncInterval = 5 * time.Minute
	// DefaultProbeInterval is the period of connectivity checks
	DefaultProbeInterval = 30 * time.Second
	// DefaultDebounceWindow is the quiet period before a progress update is pushed
	DefaultDebounceWindow = 1500 * time.Millisecond
)

// Config holds folio configuration
type Config struct {
	APIEndpoint    string        `yaml:"apiEndpoint"`
	SyncInterval   time.Duration `yaml:"syncInterval"`
	ProbeInterval  time.Duration `yaml:"probeInterval"`
	DebounceWindow time.Duration `yaml:"debounceWindow"`
}

// Default returns the configuration written on first run
func Default(apiEndpoint string) Config {
	if apiEndpoint == "" {
		apiEndpoint = DefaultAPIEndpoint
	}

	return Config{
		APIEndpoint:    apiEndpoint,
		SyncInterval:   DefaultSyncInterval,
		ProbeInterval:  DefaultProbeInterval,
		DebounceWindow: DefaultDebounceWindow,
	}
}

// withDefaults fills the missing values
func (c Config) withDefaults() Config {
	d := Default(c.APIEndpoint)

	if c.SyncInterval <= 0 {
		c.SyncInterval = d.SyncInterval
	}
	if c.ProbeInterval <= 0 {
		c.ProbeInterval = d.ProbeInterval
	}
	if c.DebounceWindow <= 0 {
		c.DebounceWindow = d.DebounceWindow
	}
	c.APIEndpoint = d.APIEndpoint

	return c
}

// GetPath returns the path to the folio config file
func GetPath(ctx context.FolioCtx) string {
	return filepath.Join(ctx.Paths.Config, consts.FolioDirName, consts.ConfigFilename)
}

// ReadFile reads the config file at the given path
func ReadFile(path string) (Config, error) {
	var ret Config

	b, err := os.ReadFile(path)
	if err != nil {
		return ret, errors.Wrap(err, "reading config file")
	}

	err = yaml.Unmarshal(b, &ret)
	if err != nil {
		return ret, errors.Wrap(err, "unmarshalling config")
	}

	return ret.withDefaults(), nil
}

// Read reads the config file
func Read(ctx context.FolioCtx) (Config, error) {
	return ReadFile(GetPath(ctx))
}

// Write writes the config to the config file
func Write(ctx context.FolioCtx, cf Config) error {
	path := GetPath(ctx)

	b, err := yaml.Marshal(cf)
	if err != nil {
		return errors.Wrap(err, "marshalling config into YAML")
	}

	if err := utils.WriteFileAtomic(path, b, 0644); err != nil {
		return errors.Wrap(err, "writing the config file")
	}

	return nil
}

// Apply copies the configured values into the context
func Apply(ctx *context.FolioCtx, cf Config) {
	ctx.APIEndpoint = cf.APIEndpoint
	ctx.SyncInterval = cf.SyncInterval
	ctx.ProbeInterval = cf.ProbeInterval
	ctx.DebounceWindow = cf.DebounceWindow
}
