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
	"strings"
	"testing"

	"github.com/folio-reader/folio/pkg/assert"
	clitest "github.com/folio-reader/folio/pkg/cli/testutils"
	"github.com/folio-reader/folio/pkg/entity"
	apitest "github.com/folio-reader/folio/pkg/server/testutils"
)

func TestSync_loginClaimsOfflineWrites(t *testing.T) {
	server := setupServer(t)
	alice := apitest.SetupUserData(server.DB, "alice@example.com", "pass1234")
	d := newDevice(t, server.APIEndpoint())

	out := d.run(t, "highlight", "add", "alice", "12", "Curiouser and curiouser!")
	assert.Equal(t, strings.Contains(out, "will sync when online"), true, "a signed-out write should be queued")
	out = d.run(t, "vocab", "add", "Ephemeral", "-d", "lasting a short time")
	assert.Equal(t, strings.Contains(out, "will sync when online"), true, "a signed-out write should be queued")

	assert.Equal(t, d.localCount(t, "highlights", "owner_id = ''"), 1, "highlight should be unowned")
	assert.Equal(t, len(server.rows(t, "highlights", alice.UUID)), 0, "nothing should reach the server")

	d.login(t, "alice@example.com", "pass1234")

	assert.Equal(t, d.localCount(t, "highlights", "owner_id = ? AND synced = 1", alice.UUID), 1, "highlight should be claimed and synced")
	assert.Equal(t, d.localCount(t, "vocabulary_words", "owner_id = ? AND synced = 1", alice.UUID), 1, "word should be claimed and synced")

	rows := server.rows(t, "highlights", alice.UUID)
	assert.Equal(t, len(rows), 1, "server highlight count mismatch")
	h := decodeRow[entity.Highlight](t, rows[0])
	assert.Equal(t, h.BookSlug, "alice", "book mismatch")
	assert.Equal(t, h.Page, 12, "page mismatch")
	assert.Equal(t, h.Text, "Curiouser and curiouser!", "text mismatch")

	words := server.rows(t, "vocabulary_words", alice.UUID)
	assert.Equal(t, len(words), 1, "server word count mismatch")
	assert.Equal(t, decodeRow[entity.VocabularyWord](t, words[0]).Word, "ephemeral", "word should be stored normalized")

	out = d.run(t, "status")
	assert.Equal(t, strings.Contains(out, "unsynced changes: 0"), true, "status should report nothing pending")
	assert.Equal(t, strings.Contains(out, "connection: online"), true, "status should report online")
}

func TestSync_twoDevices(t *testing.T) {
	server := setupServer(t)
	apitest.SetupUserData(server.DB, "alice@example.com", "pass1234")

	phone := newDevice(t, server.APIEndpoint())
	laptop := newDevice(t, server.APIEndpoint())
	phone.login(t, "alice@example.com", "pass1234")
	laptop.login(t, "alice@example.com", "pass1234")

	out := phone.run(t, "highlight", "add", "alice", "3", "Off with their heads!", "--color", "pink")
	assert.Equal(t, strings.Contains(out, "(synced)"), true, "an online write should be synced")
	phone.run(t, "like", "b1", "--slug", "alice", "--title", "Alice in Wonderland")

	out = laptop.run(t, "highlight", "ls", "alice")
	assert.Equal(t, strings.Contains(out, "Off with their heads!"), true, "the other device should see the highlight")
	out = laptop.run(t, "like", "ls")
	assert.Equal(t, strings.Contains(out, "Alice in Wonderland"), true, "the other device should see the like")

	assert.Equal(t, laptop.localCount(t, "highlights", "synced = 1"), 1, "pulled highlight should be stored as synced")
}

func TestSync_remove(t *testing.T) {
	server := setupServer(t)
	alice := apitest.SetupUserData(server.DB, "alice@example.com", "pass1234")

	phone := newDevice(t, server.APIEndpoint())
	laptop := newDevice(t, server.APIEndpoint())
	phone.login(t, "alice@example.com", "pass1234")
	laptop.login(t, "alice@example.com", "pass1234")

	phone.run(t, "highlight", "add", "alice", "1", "Down the rabbit hole")
	laptop.run(t, "highlight", "ls", "alice")
	assert.Equal(t, len(laptop.localIDs(t, "highlights")), 1, "laptop should pull the highlight")

	ids := phone.localIDs(t, "highlights")
	assert.Equal(t, len(ids), 1, "phone highlight count mismatch")

	phone.run(t, "highlight", "rm", "-y", ids[0])
	assert.Equal(t, len(server.rows(t, "highlights", alice.UUID)), 0, "remove should reach the server")
	assert.Equal(t, phone.localCount(t, "pending_deletes", "1 = 1"), 0, "an online remove should not leave a tombstone")

	out := laptop.run(t, "highlight", "ls", "alice")
	assert.Equal(t, strings.Contains(out, "Down the rabbit hole"), false, "the removal should reach the other device")
	assert.Equal(t, len(laptop.localIDs(t, "highlights")), 0, "laptop should drop the removed highlight")
}

func TestSync_lastWriteWins(t *testing.T) {
	server := setupServer(t)
	alice := apitest.SetupUserData(server.DB, "alice@example.com", "pass1234")

	phone := newDevice(t, server.APIEndpoint())
	laptop := newDevice(t, server.APIEndpoint())
	phone.login(t, "alice@example.com", "pass1234")
	laptop.login(t, "alice@example.com", "pass1234")

	phone.run(t, "settings", "set", "alice", "--font-size", "22", "--theme", "dark")
	laptop.run(t, "settings", "set", "alice", "--font-size", "26")

	rows := server.rows(t, "reader_settings", alice.UUID)
	assert.Equal(t, len(rows), 1, "settings count mismatch")
	s := decodeRow[entity.ReaderSettings](t, rows[0])
	assert.Equal(t, s.FontSize, 26, "the later write should win")

	out := phone.run(t, "settings", "show", "alice")
	assert.Equal(t, strings.Contains(out, "font size: 26"), true, "the phone should see the winning settings")
}

func TestSync_offline(t *testing.T) {
	server := setupServer(t)
	alice := apitest.SetupUserData(server.DB, "alice@example.com", "pass1234")

	d := newDevice(t, server.APIEndpoint())
	d.login(t, "alice@example.com", "pass1234")

	d.run(t, "highlight", "add", "alice", "5", "We're all mad here")
	ids := d.localIDs(t, "highlights")

	// nothing listens on the discard port
	d.setEndpoint(t, "http://127.0.0.1:9/api")

	out := d.run(t, "highlight", "add", "alice", "7", "Who are you?")
	assert.Equal(t, strings.Contains(out, "will sync when online"), true, "an offline write should be queued")
	d.run(t, "highlight", "rm", "-y", ids[0])

	out = d.run(t, "status")
	assert.Equal(t, strings.Contains(out, "connection: offline"), true, "status should report offline")
	assert.Equal(t, strings.Contains(out, "unsynced changes: 2"), true, "the write and the removal should be pending")
	assert.Equal(t, d.localCount(t, "pending_deletes", "owner_id = ?", alice.UUID), 1, "the removal should be queued")

	d.setEndpoint(t, server.APIEndpoint())
	d.run(t, "sync")

	rows := server.rows(t, "highlights", alice.UUID)
	assert.Equal(t, len(rows), 1, "server highlight count mismatch")
	assert.Equal(t, decodeRow[entity.Highlight](t, rows[0]).Text, "Who are you?", "text mismatch")
	assert.Equal(t, d.localCount(t, "pending_deletes", "1 = 1"), 0, "the tombstone should be cleared")
	assert.Equal(t, d.localCount(t, "highlights", "synced = 0"), 0, "every highlight should be synced")
}

func TestSync_revokedSession(t *testing.T) {
	server := setupServer(t)
	alice := apitest.SetupUserData(server.DB, "alice@example.com", "pass1234")

	d := newDevice(t, server.APIEndpoint())
	d.login(t, "alice@example.com", "pass1234")

	server.revokeSessions(t, alice)

	out := d.run(t, "vocab", "add", "Serendipity", "-d", "a happy accident")
	assert.Equal(t, strings.Contains(out, "will sync when online"), true, "a write with a revoked session should be queued")
	assert.Equal(t, d.localCount(t, "vocabulary_words", "synced = 0"), 1, "the word should be kept locally")
	assert.Equal(t, len(server.rows(t, "vocabulary_words", alice.UUID)), 0, "nothing should reach the server")

	d.login(t, "alice@example.com", "pass1234")

	assert.Equal(t, len(server.rows(t, "vocabulary_words", alice.UUID)), 1, "the word should sync after logging in again")
	assert.Equal(t, d.localCount(t, "vocabulary_words", "synced = 0"), 0, "the word should be synced")
}

func TestSync_ownersAreIsolated(t *testing.T) {
	server := setupServer(t)
	alice := apitest.SetupUserData(server.DB, "alice@example.com", "pass1234")
	bob := apitest.SetupUserData(server.DB, "bob@example.com", "pass1234")

	aliceDevice := newDevice(t, server.APIEndpoint())
	bobDevice := newDevice(t, server.APIEndpoint())
	aliceDevice.login(t, "alice@example.com", "pass1234")
	bobDevice.login(t, "bob@example.com", "pass1234")

	aliceDevice.run(t, "highlight", "add", "alice", "1", "alice's highlight")
	bobDevice.run(t, "highlight", "add", "alice", "1", "bob's highlight")

	out := bobDevice.run(t, "highlight", "ls", "alice")
	assert.Equal(t, strings.Contains(out, "alice's highlight"), false, "bob should not see alice's highlight")
	assert.Equal(t, strings.Contains(out, "bob's highlight"), true, "bob should see his highlight")

	assert.Equal(t, len(server.rows(t, "highlights", alice.UUID)), 1, "alice row count mismatch")
	assert.Equal(t, len(server.rows(t, "highlights", bob.UUID)), 1, "bob row count mismatch")
}

func TestSync_progressAndLikes(t *testing.T) {
	server := setupServer(t)
	alice := apitest.SetupUserData(server.DB, "alice@example.com", "pass1234")

	d := newDevice(t, server.APIEndpoint())
	d.login(t, "alice@example.com", "pass1234")

	d.run(t, "progress", "alice", "5", "--spent", "10m")
	d.run(t, "progress", "alice", "9", "--spent", "5m")

	rows := server.rows(t, "reading_progress", alice.UUID)
	assert.Equal(t, len(rows), 1, "progress count mismatch")
	p := decodeRow[entity.ReadingProgress](t, rows[0])
	assert.Equal(t, p.CurrentPage, 9, "page mismatch")
	assert.Equal(t, p.TotalTimeSpentSeconds, int64(900), "time spent mismatch")

	testCases := []struct {
		expectedLiked bool
	}{
		{expectedLiked: true},
		{expectedLiked: false},
	}

	for i, tc := range testCases {
		t.Run(fmt.Sprintf("toggle %d", i), func(t *testing.T) {
			d.run(t, "like", "b1", "--slug", "alice", "--title", "Alice in Wonderland")

			liked := len(server.rows(t, "liked_books", alice.UUID)) == 1
			assert.Equal(t, liked, tc.expectedLiked, "server like mismatch")
		})
	}
}

func TestLogin_prompts(t *testing.T) {
	server := setupServer(t)
	alice := apitest.SetupUserData(server.DB, "alice@example.com", "pass1234")
	d := newDevice(t, server.APIEndpoint())

	d.run(t, "like", "b1", "--slug", "alice")

	clitest.MustWaitFolioCmd(t, d.opts, clitest.AnswerLogin("alice@example.com", "pass1234"), cliBinaryName, "login")

	out := d.run(t, "status")
	assert.Equal(t, strings.Contains(out, "user: "+alice.UUID), true, "status should show the signed-in user")
	assert.Equal(t, len(server.rows(t, "liked_books", alice.UUID)), 1, "the like should sync on login")

	d.run(t, "logout")
	out = d.run(t, "status")
	assert.Equal(t, strings.Contains(out, "user: not logged in"), true, "status should show the user signed out")
}

func TestLogin_wrongPassword(t *testing.T) {
	server := setupServer(t)
	apitest.SetupUserData(server.DB, "alice@example.com", "pass1234")
	d := newDevice(t, server.APIEndpoint())

	out := clitest.RunFolioCmdErr(t, d.opts, cliBinaryName, "login", "--email", "alice@example.com", "--password", "wrongpass")
	assert.Equal(t, strings.Contains(out, "wrong credentials"), true, "output should explain the failure")
	assert.Equal(t, apitest.CountRows(t, server.DB, "sessions"), int64(0), "no session should be created")
}
