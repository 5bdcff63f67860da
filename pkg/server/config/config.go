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

package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/folio-reader/folio/pkg/dirs"
	"github.com/folio-reader/folio/pkg/server/log"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	// DriverSQLite is the database driver for a SQLite file
	DriverSQLite = "sqlite"
	// DriverPostgres is the database driver for PostgreSQL
	DriverPostgres = "postgres"

	// DefaultDBDir is the default directory name for folio data
	DefaultDBDir = "folio"
	// DefaultDBFilename is the default database filename
	DefaultDBFilename = "server.db"
	// DefaultEnvFile is the env file read on startup, if present
	DefaultEnvFile = ".env"
	// DefaultSessionTTL is the lifetime of a session
	DefaultSessionTTL = 24 * 100 * time.Hour
)

var (
	// ErrDBMissingPath is an error for an incomplete configuration missing the database path
	ErrDBMissingPath = errors.New("DB Path is empty")
	// ErrDBMissingURL is an error for a postgres configuration without a connection url
	ErrDBMissingURL = errors.New("DATABASE_URL is empty")
	// ErrDBDriverInvalid is an error for an unsupported database driver
	ErrDBDriverInvalid = errors.New("Invalid DBDriver")
	// ErrPortInvalid is an error for an incomplete configuration with invalid port
	ErrPortInvalid = errors.New("Invalid Port")
	// ErrLogLevelInvalid is an error for an unknown log level
	ErrLogLevelInvalid = errors.New("Invalid log level")
	// ErrSessionTTLInvalid is an error for a non-positive session lifetime
	ErrSessionTTLInvalid = errors.New("Invalid SessionTTL")
)

// DefaultDBPath returns the default path to the database file
func DefaultDBPath() string {
	return filepath.Join(dirs.Data(), DefaultDBDir, DefaultDBFilename)
}

// getOrEnv returns value if non-empty, otherwise env var, otherwise default
func getOrEnv(value, envKey, defaultVal string) string {
	if value != "" {
		return value
	}
	if env := os.Getenv(envKey); env != "" {
		return env
	}
	return defaultVal
}

// Config is an application configuration
type Config struct {
	Port        string
	DBDriver    string
	DBPath      string
	DatabaseURL string
	LogLevel    string
	SessionTTL  time.Duration
}

// Params are the configuration parameters for creating a new Config
type Params struct {
	Port     string
	DBDriver string
	DBPath   string
	LogLevel string
	// EnvFile is loaded before the environment is read. Variables already set
	// in the environment take precedence.
	EnvFile string
}

func loadEnvFile(path string) error {
	if path == "" {
		path = DefaultEnvFile
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "loading %s", path)
	}

	log.WithFields(log.Fields{"path": path}).Debug("loaded env file")

	return nil
}

func parseSessionTTL(s string) (time.Duration, error) {
	if s == "" {
		return DefaultSessionTTL, nil
	}

	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	// bare numbers are hours
	hours, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(ErrSessionTTLInvalid, "'%s'", s)
	}

	return time.Duration(hours) * time.Hour, nil
}

// New constructs and returns a new validated config.
// Empty string params will fall back to environment variables and defaults.
func New(p Params) (Config, error) {
	if err := loadEnvFile(p.EnvFile); err != nil {
		return Config{}, err
	}

	ttl, err := parseSessionTTL(os.Getenv("SessionTTL"))
	if err != nil {
		return Config{}, err
	}

	c := Config{
		Port:        getOrEnv(p.Port, "PORT", "3001"),
		DBDriver:    getOrEnv(p.DBDriver, "DBDriver", DriverSQLite),
		DBPath:      getOrEnv(p.DBPath, "DBPath", DefaultDBPath()),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LogLevel:    getOrEnv(p.LogLevel, "LOG_LEVEL", log.LevelInfo),
		SessionTTL:  ttl,
	}

	if err := validate(c); err != nil {
		return Config{}, err
	}

	return c, nil
}

// DSN returns the data source name for the configured driver
func (c Config) DSN() string {
	if c.DBDriver == DriverPostgres {
		return c.DatabaseURL
	}

	return c.DBPath
}

func validate(c Config) error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return errors.Wrapf(ErrPortInvalid, "'%s'", c.Port)
	}

	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			return ErrDBMissingPath
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return ErrDBMissingURL
		}
	default:
		return errors.Wrapf(ErrDBDriverInvalid, "'%s'", c.DBDriver)
	}

	if !log.ValidLevel(c.LogLevel) {
		return errors.Wrapf(ErrLogLevelInvalid, "'%s'", c.LogLevel)
	}
	if c.SessionTTL <= 0 {
		return ErrSessionTTLInvalid
	}

	return nil
}
