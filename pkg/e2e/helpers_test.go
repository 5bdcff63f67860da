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

package e2e

import (
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/folio-reader/folio/pkg/cli/config"
	"github.com/folio-reader/folio/pkg/cli/consts"
	cliDatabase "github.com/folio-reader/folio/pkg/cli/database"
	clitest "github.com/folio-reader/folio/pkg/cli/testutils"
	"github.com/folio-reader/folio/pkg/clock"
	"github.com/folio-reader/folio/pkg/entity"
	"github.com/folio-reader/folio/pkg/server/app"
	"github.com/folio-reader/folio/pkg/server/controllers"
	"github.com/folio-reader/folio/pkg/server/database"
	apitest "github.com/folio-reader/folio/pkg/server/testutils"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
	"gorm.io/gorm"
)

// testServer is an in-process server with its own database
type testServer struct {
	*httptest.Server
	DB *gorm.DB
}

// setupServer starts a server on a fresh database. It runs on the real clock
// because the CLI checks session expiry against its own clock.
func setupServer(t *testing.T) testServer {
	db := apitest.InitMemoryDB(t)

	a := app.App{
		DB:         db,
		Clock:      clock.New(),
		SessionTTL: 24 * time.Hour,
	}

	server := controllers.MustNewServer(t, &a)

	return testServer{Server: server, DB: db}
}

// APIEndpoint returns the endpoint the CLI should be configured with
func (s testServer) APIEndpoint() string {
	return fmt.Sprintf("%s/api", s.URL)
}

// rows returns the rows the server holds for the owner
func (s testServer) rows(t *testing.T, table, ownerID string) []database.Row {
	var ret []database.Row
	if err := s.DB.Table(table).Where("owner_id = ?", ownerID).Order("id").Find(&ret).Error; err != nil {
		t.Fatal(errors.Wrapf(err, "selecting %s", table))
	}

	return ret
}

// revokeSessions signs the user out of every device
func (s testServer) revokeSessions(t *testing.T, user database.User) {
	apitest.MustExec(t, s.DB.Where("user_id = ?", user.ID).Delete(&database.Session{}), "deleting sessions")
}

// device is a CLI installation with its own config and local database
type device struct {
	dir  string
	opts clitest.RunFolioCmdOptions
}

func newDevice(t *testing.T, apiEndpoint string) device {
	dir := t.TempDir()

	d := device{
		dir: dir,
		opts: clitest.RunFolioCmdOptions{
			Env: []string{
				fmt.Sprintf("XDG_CONFIG_HOME=%s", dir),
				fmt.Sprintf("XDG_DATA_HOME=%s", dir),
				fmt.Sprintf("XDG_CACHE_HOME=%s", dir),
			},
		},
	}
	d.setEndpoint(t, apiEndpoint)

	return d
}

// setEndpoint points the device at the given API endpoint
func (d device) setEndpoint(t *testing.T, apiEndpoint string) {
	cf := config.Default(apiEndpoint)
	// a short window keeps debounced pushes from outliving the command
	cf.DebounceWindow = 10 * time.Millisecond

	b, err := yaml.Marshal(cf)
	if err != nil {
		t.Fatal(errors.Wrap(err, "marshalling config"))
	}

	configDir := filepath.Join(d.dir, consts.FolioDirName)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(errors.Wrap(err, "creating config directory"))
	}
	if err := os.WriteFile(filepath.Join(configDir, consts.ConfigFilename), b, 0644); err != nil {
		t.Fatal(errors.Wrap(err, "writing config"))
	}
}

func (d device) run(t *testing.T, arg ...string) string {
	return clitest.RunFolioCmd(t, d.opts, cliBinaryName, arg...)
}

func (d device) login(t *testing.T, email, password string) string {
	return d.run(t, "login", "--email", email, "--password", password)
}

// withDB opens the local database of the device for the duration of fn
func (d device) withDB(t *testing.T, fn func(db *cliDatabase.DB)) {
	db := clitest.MustOpenDatabase(t, filepath.Join(d.dir, consts.FolioDirName, consts.FolioDBFileName))
	defer db.Close()

	fn(db)
}

// localCount counts the local records of a table matching the condition
func (d device) localCount(t *testing.T, table, where string, args ...interface{}) int {
	var count int

	d.withDB(t, func(db *cliDatabase.DB) {
		query := fmt.Sprintf("SELECT count(*) FROM %s WHERE %s", table, where)
		cliDatabase.MustScan(t, fmt.Sprintf("counting %s", table), db.QueryRow(query, args...), &count)
	})

	return count
}

// localIDs returns the ids of the local records of a table
func (d device) localIDs(t *testing.T, table string) []string {
	ids := []string{}

	d.withDB(t, func(db *cliDatabase.DB) {
		rows, err := db.Query(fmt.Sprintf("SELECT id FROM %s ORDER BY id", table))
		if err != nil {
			t.Fatal(errors.Wrapf(err, "querying %s", table))
		}
		defer rows.Close()

		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				t.Fatal(errors.Wrap(err, "scanning id"))
			}
			ids = append(ids, id)
		}
	})

	return ids
}

// decodeRow decodes the payload of a server row
func decodeRow[T entity.Payload](t *testing.T, row database.Row) T {
	var v T
	clitest.MustUnmarshalJSON(t, []byte(row.Payload), &v)

	return v
}
