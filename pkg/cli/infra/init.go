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

// Package infra provides operations and definitions for the
// local infrastructure for folio
package infra

import (
	"strconv"

	"github.com/folio-reader/folio/pkg/cli/client"
	"github.com/folio-reader/folio/pkg/cli/config"
	"github.com/folio-reader/folio/pkg/cli/consts"
	"github.com/folio-reader/folio/pkg/cli/context"
	"github.com/folio-reader/folio/pkg/cli/database"
	"github.com/folio-reader/folio/pkg/cli/log"
	"github.com/folio-reader/folio/pkg/cli/session"
	"github.com/folio-reader/folio/pkg/cli/utils"
	"github.com/folio-reader/folio/pkg/clock"
	"github.com/folio-reader/folio/pkg/dirs"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// RunEFunc is a function type of folio commands
type RunEFunc func(*cobra.Command, []string) error

func getDBPath(paths context.Paths, customPath string) string {
	if customPath != "" {
		return customPath
	}

	return context.DBPath(paths)
}

// newBaseCtx creates a minimal context with paths and database connection.
// This base context is used for file and database initialization before
// being enriched with config values by setupCtx.
func newBaseCtx(versionTag, customDBPath string) (context.FolioCtx, error) {
	dirs.Reload()

	paths := context.Paths{
		Home:   dirs.Home,
		Config: dirs.ConfigHome,
		Data:   dirs.DataHome,
		Cache:  dirs.CacheHome,
	}

	// The database file is created inside the data directory
	if err := context.InitFolioDirs(paths); err != nil {
		return context.FolioCtx{}, errors.Wrap(err, "creating the folio dirs")
	}

	db, err := database.Open(getDBPath(paths, customDBPath))
	if err != nil {
		return context.FolioCtx{}, errors.Wrap(err, "connecting to db")
	}

	ctx := context.FolioCtx{
		Paths:   paths,
		Version: versionTag,
		DB:      db,
		Clock:   clock.New(),
	}

	return ctx, nil
}

// Init initializes the folio environment and returns a new folio context.
// A non-empty apiEndpoint is written to a new config file and overrides the
// configured endpoint for this run.
func Init(versionTag, apiEndpoint, dbPath string) (*context.FolioCtx, error) {
	ctx, err := newBaseCtx(versionTag, dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "initializing a context")
	}

	if err := initConfigFile(ctx, apiEndpoint); err != nil {
		return nil, errors.Wrap(err, "generating the config file")
	}

	if err := database.Migrate(ctx.DB); err != nil {
		return nil, errors.Wrap(err, "running migration")
	}
	if err := InitSystem(ctx); err != nil {
		return nil, errors.Wrap(err, "initializing system data")
	}

	ctx, err = setupCtx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "setting up the context")
	}

	if apiEndpoint != "" {
		ctx.APIEndpoint = apiEndpoint
	}

	log.Debug("context: %s\n", context.Redact(ctx))

	return &ctx, nil
}

// setupCtx enriches the base context with values from config file and database.
// This is called after files and database have been initialized.
func setupCtx(ctx context.FolioCtx) (context.FolioCtx, error) {
	s, err := session.Load(ctx.DB, ctx.Clock)
	if err != nil {
		return ctx, errors.Wrap(err, "loading session")
	}

	cf, err := config.Read(ctx)
	if err != nil {
		return ctx, errors.Wrap(err, "reading config")
	}

	ret := context.FolioCtx{
		Paths:      ctx.Paths,
		Version:    ctx.Version,
		DB:         ctx.DB,
		Store:      database.NewStore(ctx.DB),
		Session:    s,
		Clock:      ctx.Clock,
		HTTPClient: client.NewRateLimitedHTTPClient(),
	}
	config.Apply(&ret, cf)

	return ret, nil
}

func initSystemKV(db *database.DB, key string, val string) error {
	var count int
	if err := db.QueryRow("SELECT count(*) FROM system WHERE key = ?", key).Scan(&count); err != nil {
		return errors.Wrapf(err, "counting %s", key)
	}

	if count > 0 {
		return nil
	}

	if _, err := db.Exec("INSERT INTO system (key, value) VALUES (?, ?)", key, val); err != nil {
		return errors.Wrapf(err, "inserting %s %s", key, val)
	}

	return nil
}

// InitSystem inserts system data if missing
func InitSystem(ctx context.FolioCtx) error {
	log.Debug("initializing the system\n")

	tx, err := ctx.DB.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	if err := initSystemKV(tx, consts.SystemLastSyncAt, strconv.Itoa(0)); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "initializing system config for %s", consts.SystemLastSyncAt)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}

	return nil
}

// initConfigFile populates a new config file if it does not exist yet
func initConfigFile(ctx context.FolioCtx, apiEndpoint string) error {
	path := config.GetPath(ctx)
	ok, err := utils.FileExists(path)
	if err != nil {
		return errors.Wrap(err, "checking if config exists")
	}
	if ok {
		return nil
	}

	if err := config.Write(ctx, config.Default(apiEndpoint)); err != nil {
		return errors.Wrap(err, "writing config")
	}

	return nil
}
