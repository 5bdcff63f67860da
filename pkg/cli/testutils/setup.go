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

package testutils

import (
	"testing"
	"time"

	"github.com/folio-reader/folio/pkg/cli/connectivity"
	"github.com/folio-reader/folio/pkg/cli/database"
	"github.com/folio-reader/folio/pkg/cli/session"
	"github.com/folio-reader/folio/pkg/clock"
	"github.com/pkg/errors"
)

// Epoch is the time the mock clock of a test environment starts at
var Epoch = time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

// Env is the set of collaborators a sync manager is built from, backed by
// an in-memory database and a fake remote store
type Env struct {
	DB      *database.DB
	Store   *database.Store
	Session *session.Session
	Remote  *FakeRemote
	Monitor *connectivity.Monitor
	Clock   *clock.Mock
}

// Setup returns a signed-out, online environment
func Setup(t *testing.T) *Env {
	db := database.InitTestMemoryDB(t)

	c := clock.NewMock()
	c.SetNow(Epoch)

	s, err := session.Load(db, c)
	if err != nil {
		t.Fatal(errors.Wrap(err, "loading session"))
	}

	return &Env{
		DB:      db,
		Store:   database.NewStore(db),
		Session: s,
		Remote:  NewFakeRemote(),
		Monitor: connectivity.New(true),
		Clock:   c,
	}
}

// Login signs the given user in with a session that outlives the test
func Login(t *testing.T, s *session.Session, userID string) {
	if err := s.SignIn(userID, "someSessionKey", Epoch.Add(24*time.Hour).Unix()); err != nil {
		t.Fatal(errors.Wrap(err, "signing in"))
	}
}
