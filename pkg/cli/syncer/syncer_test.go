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

package syncer

import (
	"context"
	"testing"
	"time"

	"github.com/folio-reader/folio/pkg/assert"
	"github.com/folio-reader/folio/pkg/cli/database"
	"github.com/folio-reader/folio/pkg/cli/testutils"
	"github.com/folio-reader/folio/pkg/entity"
	"github.com/pkg/errors"
)

func newManager(env *testutils.Env, retryMin time.Duration) *Manager {
	return New(Params{
		Store:        env.Store,
		Remote:       env.Remote,
		Auth:         env.Session,
		Connectivity: env.Monitor,
		Clock:        env.Clock,
		RetryMin:     retryMin,
		RetryMax:     8 * retryMin,
	})
}

func highlight(id string, page int) entity.Highlight {
	return entity.Highlight{
		ID:        id,
		BookSlug:  "alice-in-wonderland",
		Page:      page,
		Text:      "Curiouser and curiouser!",
		Color:     entity.ColorYellow,
		Timestamp: testutils.Epoch,
	}
}

func word(id, w string) entity.VocabularyWord {
	return entity.VocabularyWord{
		ID:         id,
		Word:       w,
		Definition: "a definition",
		CreatedAt:  testutils.Epoch,
	}
}

func mustSave(t *testing.T, m *Manager, p entity.Payload) (entity.Record, Outcome) {
	rec, outcome, err := m.Save(context.Background(), p)
	if err != nil {
		t.Fatal(errors.Wrap(err, "saving"))
	}

	return rec, outcome
}

func mustGet(t *testing.T, s *database.Store, typ entity.Type, owner, id string) entity.Record {
	rec, ok, err := s.Get(typ, owner, id)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting record"))
	}
	if !ok {
		t.Fatalf("%s %s not found", typ, id)
	}

	return rec
}

func mustCountUnsynced(t *testing.T, s *database.Store, owner string) int {
	n, err := s.CountUnsynced(owner)
	if err != nil {
		t.Fatal(errors.Wrap(err, "counting unsynced"))
	}

	return n
}

func TestSave(t *testing.T) {
	t.Run("online", func(t *testing.T) {
		env := testutils.Setup(t)
		testutils.Login(t, env.Session, "u1")
		m := newManager(env, 0)

		rec, outcome := mustSave(t, m, highlight("h1", 3))

		assert.Equal(t, outcome, OutcomeSynced, "outcome mismatch")
		assert.Equal(t, rec.OwnerID, "u1", "owner mismatch")
		assert.Equal(t, mustGet(t, env.Store, entity.TypeHighlight, "u1", "h1").Synced, true, "local record should be synced")

		rows := env.Remote.Rows("highlights", "u1")
		assert.Equal(t, len(rows), 1, "remote row count mismatch")
		assert.Equal(t, rows[0].ID, "h1", "remote row id mismatch")
	})

	t.Run("offline", func(t *testing.T) {
		env := testutils.Setup(t)
		testutils.Login(t, env.Session, "u1")
		env.Monitor.Set(false)
		m := newManager(env, 0)

		_, outcome := mustSave(t, m, highlight("h1", 3))

		assert.Equal(t, outcome, OutcomeQueued, "outcome mismatch")
		assert.Equal(t, len(env.Remote.Upserts()), 0, "no request should be made offline")
		assert.Equal(t, mustGet(t, env.Store, entity.TypeHighlight, "u1", "h1").Synced, false, "local record should be unsynced")
		assert.Equal(t, m.Indicator().UnsyncedCount, 1, "unsynced count mismatch")
	})

	t.Run("signed out", func(t *testing.T) {
		env := testutils.Setup(t)
		m := newManager(env, 0)

		rec, outcome := mustSave(t, m, highlight("h1", 3))

		assert.Equal(t, outcome, OutcomeQueued, "outcome mismatch")
		assert.Equal(t, rec.OwnerID, "", "owner should be empty")
		assert.Equal(t, len(env.Remote.Upserts()), 0, "no request should be made while signed out")
	})

	t.Run("rejected", func(t *testing.T) {
		env := testutils.Setup(t)
		testutils.Login(t, env.Session, "u1")
		env.Remote.FailAll(testutils.PermissionError())
		m := newManager(env, time.Second)

		_, outcome := mustSave(t, m, highlight("h1", 3))

		assert.Equal(t, outcome, OutcomeRejected, "outcome mismatch")
		assert.Equal(t, mustGet(t, env.Store, entity.TypeHighlight, "u1", "h1").Synced, false, "local record should stay unsynced")
		assert.Equal(t, m.retrier.Pending(), false, "permission failures should not be retried")
	})

	t.Run("invalid", func(t *testing.T) {
		env := testutils.Setup(t)
		m := newManager(env, 0)

		_, _, err := m.Save(context.Background(), highlight("h1", 0))

		assert.Equal(t, errors.Is(err, entity.ErrInvalid), true, "error mismatch")
		assert.Equal(t, mustCountUnsynced(t, env.Store, ""), 0, "invalid payload should not be stored")
	})
}

func TestSync_Idempotent(t *testing.T) {
	env := testutils.Setup(t)
	testutils.Login(t, env.Session, "u1")
	env.Monitor.Set(false)
	m := newManager(env, 0)

	mustSave(t, m, highlight("h1", 1))
	mustSave(t, m, highlight("h2", 2))
	mustSave(t, m, highlight("h3", 3))
	mustSave(t, m, entity.ReadingProgress{BookSlug: "alice-in-wonderland", CurrentPage: 12, LastReadAt: testutils.Epoch})

	env.Monitor.Set(true)

	first := m.Sync(context.Background())
	assert.Equal(t, first, Progress{Status: StatusSuccess, Synced: 4, Total: 4}, "first cycle mismatch")
	assert.Equal(t, len(env.Remote.Upserts()), 2, "one batch per entity type expected")

	second := m.Sync(context.Background())
	assert.Equal(t, second, Progress{Status: StatusSuccess, Synced: 0, Total: 0}, "second cycle mismatch")
	assert.Equal(t, len(env.Remote.Upserts()), 2, "second cycle should not push anything")

	assert.Equal(t, len(env.Remote.Rows("highlights", "u1")), 3, "remote highlight count mismatch")
	assert.Equal(t, len(env.Remote.Rows("reading_progress", "u1")), 1, "remote progress count mismatch")
	assert.Equal(t, mustCountUnsynced(t, env.Store, "u1"), 0, "unsynced count mismatch")
}

func TestSync_OfflineQueues(t *testing.T) {
	env := testutils.Setup(t)
	testutils.Login(t, env.Session, "u1")
	env.Monitor.Set(false)
	m := newManager(env, 0)

	mustSave(t, m, highlight("h1", 1))
	mustSave(t, m, word("w1", "apple"))

	got := m.Sync(context.Background())

	assert.Equal(t, got.Status, StatusQueued, "status mismatch")
	assert.Equal(t, got.Total, 2, "total mismatch")
	assert.Equal(t, len(env.Remote.Upserts()), 0, "no request should be made offline")
	assert.Equal(t, mustCountUnsynced(t, env.Store, "u1"), 2, "records should stay unsynced")
}

func TestReconnect_RunsExactlyOneCycle(t *testing.T) {
	env := testutils.Setup(t)
	testutils.Login(t, env.Session, "u1")
	env.Monitor.Set(false)
	m := newManager(env, 0)

	detach := m.Attach(context.Background(), env.Monitor, env.Session)
	defer detach()

	var finished []Progress
	m.Subscribe(func(p Progress) {
		if p.Status == StatusSuccess || p.Status == StatusError {
			finished = append(finished, p)
		}
	})

	mustSave(t, m, highlight("h1", 1))
	mustSave(t, m, highlight("h2", 2))

	env.Monitor.Set(true)
	env.Monitor.Set(true)

	assert.Equal(t, len(finished), 1, "cycle count mismatch")
	assert.Equal(t, finished[0], Progress{Status: StatusSuccess, Synced: 2, Total: 2}, "cycle result mismatch")
	assert.Equal(t, len(env.Remote.Upserts()), 1, "upsert call count mismatch")
	assert.Equal(t, mustCountUnsynced(t, env.Store, "u1"), 0, "unsynced count mismatch")
}

func TestSync_FailureIsolation(t *testing.T) {
	env := testutils.Setup(t)
	testutils.Login(t, env.Session, "u1")
	env.Monitor.Set(false)
	m := newManager(env, 0)

	mustSave(t, m, highlight("h1", 1))
	mustSave(t, m, word("w1", "apple"))

	env.Remote.FailTable("highlights", testutils.NetworkError())
	env.Monitor.Set(true)

	got := m.Sync(context.Background())

	assert.Equal(t, got.Status, StatusError, "status mismatch")
	assert.Equal(t, got.Synced, 1, "synced mismatch")
	assert.Equal(t, got.Total, 2, "total mismatch")
	assert.Equal(t, mustGet(t, env.Store, entity.TypeHighlight, "u1", "h1").Synced, false, "failed group should stay unsynced")
	assert.Equal(t, mustGet(t, env.Store, entity.TypeVocabularyWord, "u1", "w1").Synced, true, "other group should be synced")

	env.Remote.FailTable("highlights", nil)

	got = m.Sync(context.Background())
	assert.Equal(t, got, Progress{Status: StatusSuccess, Synced: 1, Total: 1}, "retry result mismatch")
}

func TestSync_ProgressEvents(t *testing.T) {
	env := testutils.Setup(t)
	testutils.Login(t, env.Session, "u1")
	env.Monitor.Set(false)
	m := newManager(env, 0)

	mustSave(t, m, highlight("h1", 1))
	mustSave(t, m, word("w1", "apple"))
	env.Monitor.Set(true)

	var events []Progress
	unsubscribe := m.Subscribe(func(p Progress) { events = append(events, p) })
	m.Sync(context.Background())
	unsubscribe()
	m.Sync(context.Background())

	expected := []Progress{
		{Status: StatusSyncing, Synced: 0, Total: 2},
		{Status: StatusSyncing, Synced: 1, Total: 2},
		{Status: StatusSyncing, Synced: 2, Total: 2},
		{Status: StatusSuccess, Synced: 2, Total: 2},
	}
	assert.DeepEqual(t, events, expected, "events mismatch")
	assert.Equal(t, m.Indicator().Last.Status, StatusSuccess, "last status mismatch")
}

func TestSync_KeepsNewerWrite(t *testing.T) {
	env := testutils.Setup(t)
	testutils.Login(t, env.Session, "u1")
	env.Monitor.Set(false)
	m := newManager(env, 0)

	mustSave(t, m, entity.ReadingProgress{BookSlug: "alice", CurrentPage: 5, LastReadAt: testutils.Epoch})
	env.Monitor.Set(true)

	written := false
	env.Remote.BeforeCall(func() {
		if written {
			return
		}
		written = true

		env.Clock.Advance(time.Second)
		if _, err := m.Write(entity.ReadingProgress{BookSlug: "alice", CurrentPage: 6, LastReadAt: testutils.Epoch}); err != nil {
			t.Fatal(errors.Wrap(err, "writing during sync"))
		}
	})

	m.Sync(context.Background())

	rec := mustGet(t, env.Store, entity.TypeReadingProgress, "u1", "alice")
	assert.Equal(t, rec.Payload.(entity.ReadingProgress).CurrentPage, 6, "local page mismatch")
	assert.Equal(t, rec.Synced, false, "newer write should stay unsynced")

	m.Sync(context.Background())

	rows := env.Remote.Rows("reading_progress", "u1")
	assert.Equal(t, len(rows), 1, "remote row count mismatch")
	assert.Equal(t, mustGet(t, env.Store, entity.TypeReadingProgress, "u1", "alice").Synced, true, "newer write should be synced by the next cycle")
}

func TestOfflineHighlightScenario(t *testing.T) {
	env := testutils.Setup(t)
	testutils.Login(t, env.Session, "u1")
	m := newManager(env, 0)

	detach := m.Attach(context.Background(), env.Monitor, env.Session)
	defer detach()

	env.Monitor.Set(false)
	_, outcome := mustSave(t, m, highlight("h1", 42))
	assert.Equal(t, outcome, OutcomeQueued, "outcome mismatch")

	local := m.Load(context.Background(), entity.TypeHighlight)
	assert.Equal(t, len(local), 1, "highlight should be readable offline")
	assert.Equal(t, local[0].Synced, false, "highlight should be unsynced")
	assert.Equal(t, m.Indicator(), Indicator{UnsyncedCount: 1, IsOnline: false, IsSyncing: false, Last: Progress{Status: StatusIdle}}, "offline indicator mismatch")

	env.Monitor.Set(true)

	rows := env.Remote.Rows("highlights", "u1")
	assert.Equal(t, len(rows), 1, "remote row count mismatch")
	assert.Equal(t, rows[0].ID, "h1", "remote row id mismatch")

	ind := m.Indicator()
	assert.Equal(t, ind.UnsyncedCount, 0, "unsynced count mismatch")
	assert.Equal(t, ind.IsOnline, true, "online mismatch")
	assert.Equal(t, ind.Last.Status, StatusSuccess, "last status mismatch")
}

func TestSync_Retry(t *testing.T) {
	env := testutils.Setup(t)
	testutils.Login(t, env.Session, "u1")
	m := newManager(env, time.Second)
	defer m.Close()

	env.Remote.FailAll(testutils.NetworkError())

	_, outcome := mustSave(t, m, highlight("h1", 1))
	assert.Equal(t, outcome, OutcomeQueued, "outcome mismatch")
	assert.Equal(t, m.retrier.Pending(), true, "retry should be scheduled")
	assert.Equal(t, len(env.Remote.Upserts()), 1, "upsert count after save mismatch")

	env.Clock.Advance(time.Second)
	assert.Equal(t, len(env.Remote.Upserts()), 2, "upsert count after first retry mismatch")
	assert.Equal(t, m.retrier.Attempts(), 2, "attempt count mismatch")

	env.Remote.FailAll(nil)

	env.Clock.Advance(time.Second)
	assert.Equal(t, len(env.Remote.Upserts()), 2, "second retry should wait for the longer backoff")

	env.Clock.Advance(time.Second)
	assert.Equal(t, len(env.Remote.Upserts()), 3, "upsert count after second retry mismatch")
	assert.Equal(t, mustCountUnsynced(t, env.Store, "u1"), 0, "unsynced count mismatch")
	assert.Equal(t, m.retrier.Attempts(), 0, "backoff should reset after success")
	assert.Equal(t, m.retrier.Pending(), false, "no retry should be pending")
}

func TestSync_PermissionNotRetried(t *testing.T) {
	env := testutils.Setup(t)
	testutils.Login(t, env.Session, "u1")
	env.Monitor.Set(false)
	m := newManager(env, time.Second)
	defer m.Close()

	mustSave(t, m, highlight("h1", 1))
	env.Remote.FailAll(testutils.PermissionError())
	env.Monitor.Set(true)

	got := m.Sync(context.Background())

	assert.Equal(t, got.Status, StatusError, "status mismatch")
	assert.Equal(t, m.retrier.Pending(), false, "permission failures should not be retried")
}

func TestRemove(t *testing.T) {
	t.Run("online", func(t *testing.T) {
		env := testutils.Setup(t)
		testutils.Login(t, env.Session, "u1")
		m := newManager(env, 0)

		mustSave(t, m, highlight("h1", 1))

		ok, outcome, err := m.Remove(context.Background(), entity.TypeHighlight, "h1")
		if err != nil {
			t.Fatal(errors.Wrap(err, "removing"))
		}

		assert.Equal(t, ok, true, "removed mismatch")
		assert.Equal(t, outcome, OutcomeSynced, "outcome mismatch")
		assert.DeepEqual(t, env.Remote.Deletes(), []testutils.DeleteCall{{Table: "highlights", ID: "h1", OwnerID: "u1"}}, "delete calls mismatch")
		assert.Equal(t, len(env.Remote.Rows("highlights", "u1")), 0, "remote row should be deleted")
	})

	t.Run("offline", func(t *testing.T) {
		env := testutils.Setup(t)
		testutils.Login(t, env.Session, "u1")
		m := newManager(env, 0)

		mustSave(t, m, highlight("h1", 1))
		env.Monitor.Set(false)

		_, outcome, err := m.Remove(context.Background(), entity.TypeHighlight, "h1")
		if err != nil {
			t.Fatal(errors.Wrap(err, "removing"))
		}

		assert.Equal(t, outcome, OutcomeQueued, "outcome mismatch")
		assert.Equal(t, len(env.Remote.Deletes()), 0, "no request should be made offline")
		assert.Equal(t, mustCountUnsynced(t, env.Store, "u1"), 1, "pending delete should be counted")

		// the remote copy must not come back through a refresh before the delete is sent
		env.Monitor.Set(true)
		assert.Equal(t, len(m.Load(context.Background(), entity.TypeHighlight)), 0, "deleted highlight reappeared")
		assert.Equal(t, len(env.Remote.Deletes()), 0, "load should not send the delete")

		got := m.Sync(context.Background())

		assert.Equal(t, got, Progress{Status: StatusSuccess, Synced: 1, Total: 1}, "cycle mismatch")
		assert.Equal(t, len(env.Remote.Rows("highlights", "u1")), 0, "remote row should be deleted")
		assert.Equal(t, mustCountUnsynced(t, env.Store, "u1"), 0, "pending delete should be cleared")
	})
}

func TestLoad(t *testing.T) {
	env := testutils.Setup(t)
	testutils.Login(t, env.Session, "u1")
	m := newManager(env, 0)

	remote := entity.NewRecord(highlight("h-remote", 1), "u1", testutils.Epoch.Add(-time.Hour))
	env.Remote.Seed(remote)

	gone := entity.NewRecord(highlight("h-gone", 2), "u1", testutils.Epoch.Add(-2*time.Hour))
	gone.Synced = true
	if err := env.Store.Put(gone); err != nil {
		t.Fatal(errors.Wrap(err, "putting record"))
	}

	env.Monitor.Set(false)
	mustSave(t, m, highlight("h-local", 3))

	offline := m.Load(context.Background(), entity.TypeHighlight)
	assert.Equal(t, len(offline), 2, "offline record count mismatch")
	assert.Equal(t, env.Remote.Selects(), 0, "no request should be made offline")

	env.Monitor.Set(true)
	online := m.Load(context.Background(), entity.TypeHighlight)

	ids := []string{}
	for _, rec := range online {
		ids = append(ids, rec.ID)
	}
	assert.DeepEqual(t, ids, []string{"h-remote", "h-local"}, "ids mismatch")
	assert.Equal(t, online[0].Synced, true, "remote record should be stored as synced")
	assert.Equal(t, online[1].Synced, false, "local record should stay unsynced")
}

func TestHandleAuthChange(t *testing.T) {
	env := testutils.Setup(t)
	m := newManager(env, 0)

	detach := m.Attach(context.Background(), env.Monitor, env.Session)
	defer detach()

	mustSave(t, m, word("w1", "apple"))

	testutils.Login(t, env.Session, "u1")

	rows := env.Remote.Rows("vocabulary_words", "u1")
	assert.Equal(t, len(rows), 1, "claimed record should be pushed after sign in")
	assert.Equal(t, mustGet(t, env.Store, entity.TypeVocabularyWord, "u1", "w1").Synced, true, "claimed record should be synced")

	if err := env.Session.SignOut(); err != nil {
		t.Fatal(errors.Wrap(err, "signing out"))
	}

	assert.Equal(t, len(mustList(t, env.Store, entity.TypeVocabularyWord, "u1")), 1, "sign out should not delete local records")
	assert.Equal(t, len(m.Load(context.Background(), entity.TypeVocabularyWord)), 0, "signed-out reads should not show the user's records")
}

func TestHandleAuthChange_duplicateWord(t *testing.T) {
	testCases := []struct {
		name        string
		otherDevice bool
	}{
		{name: "saved on this device", otherDevice: false},
		{name: "saved on another device", otherDevice: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := testutils.Setup(t)
			m := newManager(env, 0)

			detach := m.Attach(context.Background(), env.Monitor, env.Session)
			defer detach()

			if tc.otherDevice {
				env.Remote.Seed(entity.NewRecord(word("w1", "apple"), "u1", testutils.Epoch))
			} else {
				testutils.Login(t, env.Session, "u1")
				mustSave(t, m, word("w1", "apple"))
				if err := env.Session.SignOut(); err != nil {
					t.Fatal(errors.Wrap(err, "signing out"))
				}
			}

			mustSave(t, m, word("w2", "Apple"))
			testutils.Login(t, env.Session, "u1")

			local := mustList(t, env.Store, entity.TypeVocabularyWord, "u1")
			assert.Equal(t, len(local), 1, "local word count mismatch")
			assert.Equal(t, local[0].ID, "w1", "the saved word should be kept")

			rows := env.Remote.Rows("vocabulary_words", "u1")
			assert.Equal(t, len(rows), 1, "remote word count mismatch")
			assert.Equal(t, rows[0].ID, "w1", "remote word id mismatch")
		})
	}
}

func mustList(t *testing.T, s *database.Store, typ entity.Type, owner string) []entity.Record {
	recs, err := s.List(typ, owner)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing records"))
	}

	return recs
}
