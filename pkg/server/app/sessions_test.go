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

package app

import (
	"testing"
	"time"

	"github.com/folio-reader/folio/pkg/assert"
	"github.com/folio-reader/folio/pkg/clock"
	"github.com/folio-reader/folio/pkg/server/database"
	"github.com/folio-reader/folio/pkg/server/testutils"
	"github.com/pkg/errors"
)

func TestAuthenticateSession(t *testing.T) {
	db := testutils.InitMemoryDB(t)
	user := testutils.SetupUserData(db, "alice@example.com", "pass1234")

	a := NewTest(db)
	mock := a.Clock.(*clock.Mock)

	session, err := a.CreateSession(user.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating session"))
	}

	got, err := a.AuthenticateSession(session.Key)
	if err != nil {
		t.Fatal(errors.Wrap(err, "authenticating"))
	}
	assert.Equal(t, got.ID, user.ID, "user mismatch")

	_, err = a.AuthenticateSession("unknown")
	assert.Equal(t, err, ErrNotFound, "unknown key should not authenticate")

	mock.Advance(a.SessionTTL)
	_, err = a.AuthenticateSession(session.Key)
	assert.Equal(t, err, ErrNotFound, "expired session should not authenticate")
}

func TestDeleteSession(t *testing.T) {
	db := testutils.InitMemoryDB(t)
	user := testutils.SetupUserData(db, "alice@example.com", "pass1234")
	a := NewTest(db)

	s1 := testutils.SetupSession(db, user, a.Clock.Now())
	testutils.SetupSession(db, user, a.Clock.Now())

	if err := a.DeleteSession(s1.Key); err != nil {
		t.Fatal(errors.Wrap(err, "deleting session"))
	}
	assert.Equal(t, testutils.CountRows(t, db, "sessions"), int64(1), "session count mismatch")

	if err := a.DeleteUserSessions(db, user.ID); err != nil {
		t.Fatal(errors.Wrap(err, "deleting user sessions"))
	}
	assert.Equal(t, testutils.CountRows(t, db, "sessions"), int64(0), "session count mismatch")
}

func TestPurgeExpiredSessions(t *testing.T) {
	db := testutils.InitMemoryDB(t)
	user := testutils.SetupUserData(db, "alice@example.com", "pass1234")
	a := NewTest(db)
	now := a.Clock.Now()

	// SetupSession expires a day after the given time
	testutils.SetupSession(db, user, now.Add(-48*time.Hour))
	testutils.SetupSession(db, user, now.Add(-24*time.Hour))
	live := testutils.SetupSession(db, user, now)

	n, err := a.PurgeExpiredSessions()
	if err != nil {
		t.Fatal(errors.Wrap(err, "purging"))
	}
	assert.Equal(t, n, int64(2), "purged count mismatch")

	var remaining []database.Session
	testutils.MustExec(t, db.Find(&remaining), "finding sessions")
	assert.Equal(t, len(remaining), 1, "session count mismatch")
	assert.Equal(t, remaining[0].Key, live.Key, "remaining session mismatch")
}
