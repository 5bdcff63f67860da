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
	"fmt"

	"github.com/folio-reader/folio/pkg/cli/log"
	"github.com/folio-reader/folio/pkg/entity"
	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"
)

// MigrationTableName is the name of the table that keeps track of applied migrations
const MigrationTableName = "migrations"

func entityTableSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s
		(
			id text NOT NULL,
			owner_id text NOT NULL DEFAULT '',
			payload text NOT NULL,
			updated_at integer NOT NULL,
			synced boolean NOT NULL DEFAULT false,
			PRIMARY KEY (id, owner_id)
		);
		CREATE INDEX IF NOT EXISTS idx_%[1]s_owner_synced ON %[1]s(owner_id, synced);`, table)
}

func initialMigration() *migrate.Migration {
	m := &migrate.Migration{Id: "001-init"}

	for _, t := range entity.Types() {
		m.Up = append(m.Up, entityTableSQL(t.Table()))
		m.Down = append(m.Down, fmt.Sprintf("DROP TABLE %s", t.Table()))
	}

	m.Up = append(m.Up, `CREATE TABLE IF NOT EXISTS system
		(
			key text PRIMARY KEY,
			value text NOT NULL
		)`)
	m.Down = append(m.Down, "DROP TABLE system")

	return m
}

// Migrations returns the migrations of the local schema in order
func Migrations() *migrate.MemoryMigrationSource {
	return &migrate.MemoryMigrationSource{
		Migrations: []*migrate.Migration{
			initialMigration(),
			{
				Id: "002-pending-deletes",
				Up: []string{`CREATE TABLE IF NOT EXISTS pending_deletes
					(
						entity_type text NOT NULL,
						id text NOT NULL,
						owner_id text NOT NULL,
						deleted_at integer NOT NULL,
						PRIMARY KEY (entity_type, id, owner_id)
					)`},
				Down: []string{"DROP TABLE pending_deletes"},
			},
		},
	}
}

// Migrate brings the local schema up to date
func Migrate(db *DB) error {
	migrate.SetTable(MigrationTableName)

	n, err := migrate.Exec(db.Conn, "sqlite3", Migrations(), migrate.Up)
	if err != nil {
		return errors.Wrap(err, "running migrations")
	}

	if n > 0 {
		log.Debug("applied %d local migrations\n", n)
	}

	return nil
}
