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

package entity

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// MaxMasteryLevel is the highest mastery a vocabulary word can reach
const MaxMasteryLevel = 5

// reviewIntervals maps a mastery level to the delay before the next review
var reviewIntervals = [MaxMasteryLevel + 1]time.Duration{
	10 * time.Minute,
	24 * time.Hour,
	3 * 24 * time.Hour,
	7 * 24 * time.Hour,
	14 * 24 * time.Hour,
	30 * 24 * time.Hour,
}

// NormalizeWord returns the form under which vocabulary words are compared.
// Surrounding space is trimmed, the text is composed to NFC and case folded.
// Diacritics are kept, so "resume" and "résumé" are different words.
func NormalizeWord(word string) string {
	s := strings.TrimSpace(word)
	s = norm.NFC.String(s)

	return cases.Fold().String(s)
}

// Review records the outcome of a review at the given time and schedules the next one
func (w VocabularyWord) Review(correct bool, now time.Time) VocabularyWord {
	w.ReviewCount++

	if correct {
		w.CorrectCount++
		if w.MasteryLevel < MaxMasteryLevel {
			w.MasteryLevel++
		}
	} else {
		w.IncorrectCount++
		if w.MasteryLevel > 0 {
			w.MasteryLevel--
		}
	}

	w.NextReviewAt = now.Add(reviewIntervals[w.MasteryLevel])

	return w
}

// IsDue checks if the word should be reviewed at the given time
func (w VocabularyWord) IsDue(now time.Time) bool {
	return !w.NextReviewAt.After(now)
}
