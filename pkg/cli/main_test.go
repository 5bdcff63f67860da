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

package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/folio-reader/folio/pkg/assert"
	"github.com/folio-reader/folio/pkg/cli/consts"
	"github.com/folio-reader/folio/pkg/cli/database"
	"github.com/folio-reader/folio/pkg/cli/testutils"
	"github.com/folio-reader/folio/pkg/cli/utils"
	"github.com/folio-reader/folio/pkg/entity"
	"github.com/pkg/errors"
)

var binaryName = "test-folio"

// setupTestEnv creates a unique test directory for parallel test execution
func setupTestEnv(t *testing.T) (string, testutils.RunFolioCmdOptions) {
	testDir := t.TempDir()
	opts := testutils.RunFolioCmdOptions{
		Env: []string{
			fmt.Sprintf("XDG_CONFIG_HOME=%s", testDir),
			fmt.Sprintf("XDG_DATA_HOME=%s", testDir),
			fmt.Sprintf("XDG_CACHE_HOME=%s", testDir),
		},
	}
	return testDir, opts
}

func openTestDB(t *testing.T, testDir string) *database.DB {
	db := testutils.MustOpenDatabase(t, filepath.Join(testDir, consts.FolioDirName, consts.FolioDBFileName))
	t.Cleanup(func() { db.Close() })

	return db
}

func TestMain(m *testing.M) {
	if err := exec.Command("go", "build", "-o", binaryName).Run(); err != nil {
		log.Print(errors.Wrap(err, "building a binary").Error())
		os.Exit(1)
	}

	code := m.Run()
	os.Remove(binaryName)
	os.Exit(code)
}

func TestInit(t *testing.T) {
	testDir, opts := setupTestEnv(t)

	testutils.RunFolioCmd(t, opts, binaryName, "status")

	db := openTestDB(t, testDir)

	ok, err := utils.FileExists(filepath.Join(testDir, consts.FolioDirName, consts.ConfigFilename))
	if err != nil {
		t.Fatal(errors.Wrap(err, "checking if folio config exists"))
	}
	if !ok {
		t.Errorf("config file was not initialized")
	}

	for _, table := range []string{"highlights", "vocabulary_words", "liked_books", "reader_settings", "reading_progress", "pending_deletes", "system"} {
		var count int
		database.MustScan(t, fmt.Sprintf("counting %s", table),
			db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type = ? AND name = ?", "table", table), &count)
		assert.Equal(t, count, 1, fmt.Sprintf("%s table count mismatch", table))
	}

	var lastSyncAt string
	database.MustScan(t, "scanning last sync at",
		db.QueryRow("SELECT value FROM system WHERE key = ?", consts.SystemLastSyncAt), &lastSyncAt)
	assert.Equal(t, lastSyncAt, "0", "last sync at mismatch")
}

func TestHighlight(t *testing.T) {
	testDir, opts := setupTestEnv(t)

	out := testutils.RunFolioCmd(t, opts, binaryName, "highlight", "add", "alice", "12", "Curiouser and curiouser!")
	assert.Equal(t, strings.Contains(out, "will sync when online"), true, "signed-out write should be queued")
	testutils.RunFolioCmd(t, opts, binaryName, "highlight", "add", "alice", "3", "Off with their heads!", "--color", "pink")
	testutils.RunFolioCmd(t, opts, binaryName, "hl", "add", "hobbit", "1", "In a hole in the ground")

	out = testutils.RunFolioCmd(t, opts, binaryName, "highlight", "ls", "alice")
	assert.Equal(t, strings.Index(out, "p.3") < strings.Index(out, "p.12"), true, "highlights should be ordered by page")
	assert.Equal(t, strings.Contains(out, "hobbit"), false, "other books should not be listed")

	db := openTestDB(t, testDir)

	var count, unsynced int
	database.MustScan(t, "counting highlights", db.QueryRow("SELECT count(*) FROM highlights"), &count)
	database.MustScan(t, "counting unsynced", db.QueryRow("SELECT count(*) FROM highlights WHERE synced = false AND owner_id = ''"), &unsynced)
	assert.Equal(t, count, 3, "highlight count mismatch")
	assert.Equal(t, unsynced, 3, "unsynced count mismatch")

	testutils.RunFolioCmdErr(t, opts, binaryName, "highlight", "add", "alice", "twelve", "foo")
	testutils.RunFolioCmdErr(t, opts, binaryName, "highlight", "add", "alice", "1", "foo", "--color", "orange")

	database.MustScan(t, "counting highlights", db.QueryRow("SELECT count(*) FROM highlights"), &count)
	assert.Equal(t, count, 3, "invalid highlights should not be saved")
}

func TestRemoveHighlight(t *testing.T) {
	testCases := []struct {
		yesFlag bool
	}{
		{
			yesFlag: false,
		},
		{
			yesFlag: true,
		},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("--yes=%t", tc.yesFlag), func(t *testing.T) {
			_, opts := setupTestEnv(t)

			db, dbPath := database.InitTestFileDB(t)
			defer db.Close()
			store := database.NewStore(db)

			for _, h := range []entity.Highlight{
				{ID: "h1", BookSlug: "alice", Page: 3, Text: "foo", Color: entity.ColorYellow},
				{ID: "h2", BookSlug: "alice", Page: 4, Text: "bar", Color: entity.ColorBlue},
			} {
				if err := store.Put(entity.NewRecord(h, "", testutils.Epoch)); err != nil {
					t.Fatal(errors.Wrap(err, "seeding highlight"))
				}
			}

			if tc.yesFlag {
				testutils.RunFolioCmd(t, opts, binaryName, "--dbPath", dbPath, "highlight", "rm", "-y", "h1")
			} else {
				testutils.MustWaitFolioCmd(t, opts, testutils.ConfirmRemove, binaryName, "--dbPath", dbPath, "highlight", "rm", "h1")
			}

			var count int
			database.MustScan(t, "counting highlights", db.QueryRow("SELECT count(*) FROM highlights"), &count)
			assert.Equal(t, count, 1, "highlight count mismatch")

			var id string
			database.MustScan(t, "getting remaining highlight", db.QueryRow("SELECT id FROM highlights"), &id)
			assert.Equal(t, id, "h2", "remaining highlight mismatch")
		})
	}

	t.Run("cancel", func(t *testing.T) {
		_, opts := setupTestEnv(t)

		db, dbPath := database.InitTestFileDB(t)
		defer db.Close()

		h := entity.Highlight{ID: "h1", BookSlug: "alice", Page: 3, Text: "foo", Color: entity.ColorYellow}
		if err := database.NewStore(db).Put(entity.NewRecord(h, "", testutils.Epoch)); err != nil {
			t.Fatal(errors.Wrap(err, "seeding highlight"))
		}

		testutils.MustWaitFolioCmd(t, opts, testutils.CancelRemove, binaryName, "--dbPath", dbPath, "highlight", "rm", "h1")

		var count int
		database.MustScan(t, "counting highlights", db.QueryRow("SELECT count(*) FROM highlights"), &count)
		assert.Equal(t, count, 1, "highlight should be kept")
	})
}

func TestVocab(t *testing.T) {
	testDir, opts := setupTestEnv(t)

	testutils.RunFolioCmd(t, opts, binaryName, "vocab", "add", "Apple", "-d", "a fruit")
	out := testutils.RunFolioCmdErr(t, opts, binaryName, "vocab", "add", "apple", "-d", "a fruit")
	assert.Equal(t, strings.Contains(out, "already saved"), true, "duplicate error mismatch")

	testutils.RunFolioCmd(t, opts, binaryName, "vocab", "add", "ephemeral", "-d", "lasting a short time")

	out = testutils.RunFolioCmd(t, opts, binaryName, "vocab", "ls")
	assert.Equal(t, strings.Index(out, "apple") < strings.Index(out, "ephemeral"), true, "words should be ordered")

	db := openTestDB(t, testDir)

	var count int
	database.MustScan(t, "counting words", db.QueryRow("SELECT count(*) FROM vocabulary_words"), &count)
	assert.Equal(t, count, 2, "word count mismatch")

	var id string
	database.MustScan(t, "getting word", db.QueryRow("SELECT id FROM vocabulary_words WHERE json_extract(payload, '$.word') = ?", "apple"), &id)

	testutils.RunFolioCmd(t, opts, binaryName, "vocab", "review", id)

	var mastery int
	database.MustScan(t, "getting mastery",
		db.QueryRow("SELECT json_extract(payload, '$.mastery_level') FROM vocabulary_words WHERE id = ?", id), &mastery)
	assert.Equal(t, mastery, 1, "mastery mismatch")

	testutils.RunFolioCmd(t, opts, binaryName, "vocab", "rm", "-y", id)
	database.MustScan(t, "counting words", db.QueryRow("SELECT count(*) FROM vocabulary_words"), &count)
	assert.Equal(t, count, 1, "word count after removal mismatch")
}

func TestLike(t *testing.T) {
	testDir, opts := setupTestEnv(t)

	testutils.RunFolioCmd(t, opts, binaryName, "like", "b1", "--slug", "alice", "--title", "Alice in Wonderland")
	out := testutils.RunFolioCmd(t, opts, binaryName, "like", "ls")
	assert.Equal(t, strings.Contains(out, "Alice in Wonderland"), true, "liked book should be listed")

	db := openTestDB(t, testDir)

	var count int
	database.MustScan(t, "counting likes", db.QueryRow("SELECT count(*) FROM liked_books"), &count)
	assert.Equal(t, count, 1, "like count mismatch")

	testutils.RunFolioCmd(t, opts, binaryName, "like", "b1")
	database.MustScan(t, "counting likes", db.QueryRow("SELECT count(*) FROM liked_books"), &count)
	assert.Equal(t, count, 0, "like should be toggled off")
}

func TestSettings(t *testing.T) {
	_, opts := setupTestEnv(t)

	out := testutils.RunFolioCmd(t, opts, binaryName, "settings", "show", "alice")
	assert.Equal(t, strings.Contains(out, "font size: 18"), true, "default font size mismatch")

	testutils.RunFolioCmd(t, opts, binaryName, "settings", "set", "alice", "--font-size", "22", "--theme", "dark")
	out = testutils.RunFolioCmd(t, opts, binaryName, "settings", "show", "alice")
	assert.Equal(t, strings.Contains(out, "font size: 22"), true, "font size mismatch")
	assert.Equal(t, strings.Contains(out, "theme: dark"), true, "theme mismatch")

	testutils.RunFolioCmdErr(t, opts, binaryName, "settings", "set", "alice", "--font-size", "100")
	testutils.RunFolioCmdErr(t, opts, binaryName, "settings", "set", "alice")
}

func TestProgress(t *testing.T) {
	testDir, opts := setupTestEnv(t)

	out := testutils.RunFolioCmd(t, opts, binaryName, "progress", "alice")
	assert.Equal(t, strings.Contains(out, "not started"), true, "initial progress mismatch")

	testutils.RunFolioCmd(t, opts, binaryName, "progress", "alice", "5", "--spent", "10m")
	testutils.RunFolioCmd(t, opts, binaryName, "progress", "alice", "7", "--spent", "5m")

	db := openTestDB(t, testDir)

	var page, spent int
	database.MustScan(t, "getting progress",
		db.QueryRow("SELECT json_extract(payload, '$.current_page'), json_extract(payload, '$.total_time_spent') FROM reading_progress WHERE id = ?", "alice"),
		&page, &spent)
	assert.Equal(t, page, 7, "page mismatch")
	assert.Equal(t, spent, 900, "time spent mismatch")
}

func TestDBPathFlag(t *testing.T) {
	testDir, opts := setupTestEnv(t)
	customDBPath1 := filepath.Join(testDir, "custom-test1.db")
	customDBPath2 := filepath.Join(testDir, "custom-test2.db")

	testutils.RunFolioCmd(t, opts, binaryName, "--dbPath", customDBPath1, "highlight", "add", "alice", "1", "in db1")
	testutils.RunFolioCmd(t, opts, binaryName, "highlight", "add", "hobbit", "1", "in db2", "--dbPath="+customDBPath2)

	verify := func(dbPath, expectedBook string) {
		db := testutils.MustOpenDatabase(t, dbPath)
		defer db.Close()

		var count int
		database.MustScan(t, "counting highlights", db.QueryRow("SELECT count(*) FROM highlights"), &count)
		assert.Equal(t, count, 1, fmt.Sprintf("%s highlight count mismatch", dbPath))

		var book string
		database.MustScan(t, "getting book", db.QueryRow("SELECT json_extract(payload, '$.book_slug') FROM highlights"), &book)
		assert.Equal(t, book, expectedBook, fmt.Sprintf("%s book mismatch", dbPath))
	}

	verify(customDBPath1, "alice")
	verify(customDBPath2, "hobbit")

	ok, err := utils.FileExists(filepath.Join(testDir, consts.FolioDirName, consts.FolioDBFileName))
	if err != nil {
		t.Fatal(errors.Wrap(err, "checking default database"))
	}
	assert.Equal(t, ok, false, "default database should not be created")
}
