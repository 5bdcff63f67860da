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

package database

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/folio-reader/folio/pkg/entity"
	"github.com/folio-reader/folio/pkg/server/config"
	"github.com/folio-reader/folio/pkg/server/log"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// getDBLogLevel maps the server log level to the gorm log level. Queries are
// only logged at debug level.
func getDBLogLevel(level string) logger.LogLevel {
	switch level {
	case log.LevelDebug:
		return logger.Info
	case log.LevelWarn:
		return logger.Warn
	case log.LevelError:
		return logger.Error
	default:
		return logger.Silent
	}
}

func isMemory(dsn string) bool {
	return dsn == ":memory:" || strings.HasPrefix(dsn, "file:") && strings.Contains(dsn, "mode=memory")
}

func openSQLite(dbPath string, cfg *gorm.Config) (*gorm.DB, error) {
	if !isMemory(dbPath) {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, "creating database directory at %s", dir)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), cfg)
	if err != nil {
		return nil, errors.Wrap(err, "opening sqlite database")
	}

	if !isMemory(dbPath) {
		if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
			return nil, errors.Wrap(err, "enabling WAL")
		}
	}
	if err := db.Exec("PRAGMA busy_timeout=5000").Error; err != nil {
		return nil, errors.Wrap(err, "setting busy timeout")
	}

	return db, nil
}

// Open initializes the database connection for the given driver
func Open(driver, dsn, logLevel string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(getDBLogLevel(logLevel)),
	}

	switch driver {
	case config.DriverSQLite:
		return openSQLite(dsn, cfg)
	case config.DriverPostgres:
		db, err := gorm.Open(postgres.Open(dsn), cfg)
		if err != nil {
			return nil, errors.Wrap(err, "opening postgres database")
		}
		return db, nil
	default:
		return nil, errors.Errorf("unsupported database driver '%s'", driver)
	}
}

// InitSchema migrates database schema to reflect the latest model definition
func InitSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}, &Session{}); err != nil {
		return errors.Wrap(err, "migrating users and sessions")
	}

	for _, t := range entity.Types() {
		if err := db.Table(t.Table()).AutoMigrate(&Row{}); err != nil {
			return errors.Wrapf(err, "migrating %s", t.Table())
		}
	}

	return nil
}

// Init opens the database and brings its schema up to date
func Init(c config.Config) (*gorm.DB, error) {
	db, err := Open(c.DBDriver, c.DSN(), c.LogLevel)
	if err != nil {
		return nil, err
	}

	if err := InitSchema(db); err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, errors.Wrap(err, "running migrations")
	}

	return db, nil
}

// Close closes the underlying connection pool
func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.ErrorWrap(err, "getting the connection pool")
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.ErrorWrap(err, "closing database")
	}
}

// IsSQLite checks if the connection uses the SQLite dialect
func IsSQLite(db *gorm.DB) bool {
	return db.Dialector.Name() == "sqlite"
}

// Checkpoint moves the SQLite write-ahead log into the database file. It is a
// no-op for other drivers.
func Checkpoint(db *gorm.DB) error {
	if !IsSQLite(db) {
		return nil
	}

	if err := db.Exec("PRAGMA wal_checkpoint(TRUNCATE)").Error; err != nil {
		return errors.Wrap(err, "checkpointing WAL")
	}

	return nil
}
