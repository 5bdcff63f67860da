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

// Package dirs provides base directory definitions for the system
package dirs

import (
	"os"
	"os/user"
	"path/filepath"

	"github.com/pkg/errors"
)

// AppName is the name of the directory created under each base directory
const AppName = "folio"

// envFolioHome, when set, places every folio directory under a single root
const envFolioHome = "FOLIO_HOME"

var (
	// Home is the home directory of the user
	Home string
	// ConfigHome is the full path to the directory in which user-specific
	// configurations should be written.
	ConfigHome string
	// DataHome is the full path to the directory in which user-specific data
	// files should be written.
	DataHome string
	// CacheHome is the full path to the directory in which user-specific
	// non-essential cached data should be written.
	CacheHome string
)

func init() {
	Reload()
}

// Reload reloads the directory definitions
func Reload() {
	initDirs()

	if root := os.Getenv(envFolioHome); root != "" {
		ConfigHome = filepath.Join(root, "config")
		DataHome = filepath.Join(root, "data")
		CacheHome = filepath.Join(root, "cache")
	}
}

// Config returns the folio directory for configuration files
func Config() string {
	return filepath.Join(ConfigHome, AppName)
}

// Data returns the folio directory for the local database
func Data() string {
	return filepath.Join(DataHome, AppName)
}

// Cache returns the folio directory for cached files
func Cache() string {
	return filepath.Join(CacheHome, AppName)
}

// Ensure creates the folio directories if they do not exist
func Ensure() error {
	for _, dir := range []string{Config(), Data(), Cache()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "creating directory at %s", dir)
		}
	}

	return nil
}

func getHomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}

	usr, err := user.Current()
	if err != nil {
		panic(errors.Wrap(err, "getting home dir"))
	}

	return usr.HomeDir
}

func readPath(envName, defaultPath string) string {
	if dir := os.Getenv(envName); dir != "" {
		return dir
	}

	return defaultPath
}
