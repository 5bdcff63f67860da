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

package context

import (
	"testing"

	"github.com/folio-reader/folio/pkg/cli/database"
	"github.com/folio-reader/folio/pkg/cli/session"
	"github.com/folio-reader/folio/pkg/clock"
	"github.com/pkg/errors"
)

// getDefaultTestPaths creates default test paths with all paths pointing to a temp directory
func getDefaultTestPaths(t *testing.T) Paths {
	tmpDir := t.TempDir()
	return Paths{
		Home:   tmpDir,
		Cache:  tmpDir,
		Config: tmpDir,
		Data:   tmpDir,
	}
}

// InitTestCtx initializes a test context with a migrated in-memory database,
// a signed-out session and a temporary directory for all paths
func InitTestCtx(t *testing.T) FolioCtx {
	paths := getDefaultTestPaths(t)
	db := database.InitTestMemoryDB(t)

	if err := InitFolioDirs(paths); err != nil {
		t.Fatal(errors.Wrap(err, "creating test directories"))
	}

	c := clock.NewMock()
	s, err := session.Load(db, c)
	if err != nil {
		t.Fatal(errors.Wrap(err, "loading session"))
	}

	return FolioCtx{
		DB:      db,
		Store:   database.NewStore(db),
		Session: s,
		Paths:   paths,
		Clock:   c,
	}
}
