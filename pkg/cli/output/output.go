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

// Package output provides functions to print informations on the terminal
// in a consistent manner
package output

import (
	"fmt"
	"time"

	"github.com/folio-reader/folio/pkg/cli/log"
	"github.com/folio-reader/folio/pkg/cli/syncer"
	"github.com/folio-reader/folio/pkg/entity"
)

const timeLayout = "Jan 2, 2006 3:04pm (MST)"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	return t.Local().Format(timeLayout)
}

// Saved reports the result of a write
func Saved(what string, outcome syncer.Outcome) {
	switch outcome {
	case syncer.OutcomeSynced:
		log.Successf("%s (synced)\n", what)
	case syncer.OutcomeRejected:
		log.Warnf("%s locally, but the server rejected it\n", what)
	default:
		log.Successf("%s (will sync when online)\n", what)
	}
}

// HighlightInfo prints a highlight
func HighlightInfo(h entity.Highlight) {
	log.Infof("book: %s, page %d\n", h.BookSlug, h.Page)
	log.Infof("color: %s\n", h.Color)
	log.Infof("created at: %s\n", formatTime(h.Timestamp))
	log.Infof("highlight id: %s\n", h.ID)

	fmt.Printf("\n  \"%s\"\n\n", h.Text)
}

// Highlights prints a list of highlights, one per line
func Highlights(hs []entity.Highlight) {
	for _, h := range hs {
		fmt.Printf("%s  %s p.%d [%s] %s\n", log.ColorYellow.Sprint(h.ID), h.BookSlug, h.Page, h.Color, h.Text)
	}
}

// WordInfo prints a vocabulary word
func WordInfo(w entity.VocabularyWord) {
	log.Infof("word: %s\n", w.Word)
	log.Infof("definition: %s\n", w.Definition)
	if w.Context != "" {
		log.Infof("context: %s\n", w.Context)
	}
	log.Infof("mastery: %d/%d (%d reviews)\n", w.MasteryLevel, entity.MaxMasteryLevel, w.ReviewCount)
	log.Infof("next review: %s\n", formatTime(w.NextReviewAt))
	log.Infof("word id: %s\n", w.ID)
}

// Words prints a list of vocabulary words, one per line
func Words(ws []entity.VocabularyWord) {
	for _, w := range ws {
		fmt.Printf("%s  %s: %s (mastery %d)\n", log.ColorYellow.Sprint(w.ID), w.Word, w.Definition, w.MasteryLevel)
	}
}

// LikedBooks prints a list of liked books
func LikedBooks(bs []entity.LikedBook) {
	for _, b := range bs {
		title := b.BookTitle
		if title == "" {
			title = b.BookSlug
		}

		fmt.Printf("%s  %s (liked %s)\n", log.ColorYellow.Sprint(b.BookID), title, formatTime(b.LikedAt))
	}
}

// SettingsInfo prints the reader settings of a book
func SettingsInfo(s entity.ReaderSettings) {
	log.Infof("book: %s\n", s.BookSlug)
	log.Infof("font size: %d\n", s.FontSize)
	log.Infof("line height: %.2f\n", s.LineHeight)
	log.Infof("letter spacing: %.2f\n", s.LetterSpacing)
	log.Infof("theme: %s\n", s.Theme)
}

// ProgressInfo prints the reading progress of a book
func ProgressInfo(p entity.ReadingProgress) {
	log.Infof("book: %s\n", p.BookSlug)
	log.Infof("page: %d\n", p.CurrentPage)
	log.Infof("last read: %s\n", formatTime(p.LastReadAt))
	log.Infof("time spent: %s\n", time.Duration(p.TotalTimeSpentSeconds)*time.Second)
}

// SyncProgress prints a progress event of a sync cycle
func SyncProgress(p syncer.Progress) {
	switch p.Status {
	case syncer.StatusSyncing:
		log.Infof("syncing %d/%d\n", p.Synced, p.Total)
	case syncer.StatusSuccess:
		log.Successf("synced %d records\n", p.Total)
	case syncer.StatusError:
		log.Errorf("sync failed: %s\n", p.Message)
	case syncer.StatusQueued:
		log.Warnf("%d changes queued: %s\n", p.Total, p.Message)
	}
}

// Status prints the sync indicator
func Status(userID string, ind syncer.Indicator, lastSyncAt time.Time) {
	if userID == "" {
		log.Infof("user: not logged in\n")
	} else {
		log.Infof("user: %s\n", userID)
	}

	if ind.IsOnline {
		log.Infof("connection: online\n")
	} else {
		log.Infof("connection: offline\n")
	}

	log.Infof("unsynced changes: %d\n", ind.UnsyncedCount)
	log.Infof("last sync: %s\n", formatTime(lastSyncAt))
}
