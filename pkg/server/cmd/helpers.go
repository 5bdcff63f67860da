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

package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/folio-reader/folio/pkg/clock"
	"github.com/folio-reader/folio/pkg/server/app"
	"github.com/folio-reader/folio/pkg/server/config"
	"github.com/folio-reader/folio/pkg/server/database"
	"github.com/pkg/errors"
)

func initApp(cfg config.Config) (app.App, error) {
	db, err := database.Init(cfg)
	if err != nil {
		return app.App{}, errors.Wrap(err, "initializing database")
	}

	return app.App{
		DB:         db,
		Clock:      clock.New(),
		SessionTTL: cfg.SessionTTL,
	}, nil
}

// printFlags prints flags with -- prefix for consistency with CLI
func printFlags(fs *flag.FlagSet) {
	fs.VisitAll(func(f *flag.Flag) {
		fmt.Printf("  --%s", f.Name)

		name, usage := flag.UnquoteUsage(f)
		if name != "" {
			fmt.Printf(" %s", name)
		}
		fmt.Println()

		if usage != "" {
			fmt.Printf("    \t%s", usage)
			if f.DefValue != "" && f.DefValue != "false" {
				fmt.Printf(" (default: %s)", f.DefValue)
			}
			fmt.Println()
		}
	})
}

// setupFlagSet creates a FlagSet with standard usage format
func setupFlagSet(name, usageCmd string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Printf(`Usage:
  %s [flags]

Flags:
`, usageCmd)
		printFlags(fs)
	}
	return fs
}

// dbFlags registers the database flags shared by every command
func dbFlags(fs *flag.FlagSet) (driver, path *string) {
	driver = fs.String("dbDriver", "", "Database driver: sqlite or postgres (env: DBDriver, default: sqlite)")
	path = fs.String("dbPath", "", "Path to SQLite database file (env: DBPath, default: $XDG_DATA_HOME/folio/server.db)")

	return driver, path
}

// requireString validates that a required string flag is not empty
func requireString(fs *flag.FlagSet, value, fieldName string) {
	if value == "" {
		fmt.Printf("Error: %s is required\n", fieldName)
		fs.Usage()
		os.Exit(1)
	}
}

// setupAppWithDB creates config, initializes app, and returns cleanup function
func setupAppWithDB(fs *flag.FlagSet, dbDriver, dbPath string) (*app.App, func()) {
	cfg, err := config.New(config.Params{
		DBDriver: dbDriver,
		DBPath:   dbPath,
	})
	if err != nil {
		fmt.Printf("Error: %s\n\n", err)
		fs.Usage()
		os.Exit(1)
	}

	a, err := initApp(cfg)
	if err != nil {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}

	cleanup := func() {
		database.Close(a.DB)
	}

	return &a, cleanup
}
