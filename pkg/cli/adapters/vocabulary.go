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

package adapters

import (
	"context"
	"sort"
	"time"

	"github.com/folio-reader/folio/pkg/cli/syncer"
	"github.com/folio-reader/folio/pkg/entity"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Vocabulary stores words saved for study. A user cannot save the same
// normalized word twice.
type Vocabulary struct {
	Collection[entity.VocabularyWord]
}

// NewVocabulary returns the vocabulary adapter
func NewVocabulary(m *syncer.Manager) *Vocabulary {
	return &Vocabulary{NewCollection[entity.VocabularyWord](m)}
}

// WordParams are the fields of a new vocabulary word
type WordParams struct {
	Word       string
	Definition string
	Context    string
	BookID     string
}

// Find returns the saved word matching the given word after normalization
func (v *Vocabulary) Find(ctx context.Context, word string) (entity.VocabularyWord, bool) {
	normalized := entity.NormalizeWord(word)

	for _, w := range v.List(ctx) {
		if entity.NormalizeWord(w.Word) == normalized {
			return w, true
		}
	}

	return entity.VocabularyWord{}, false
}

// Add saves a new word. It returns ErrDuplicateWord if the word is already saved.
func (v *Vocabulary) Add(ctx context.Context, p WordParams) (entity.VocabularyWord, syncer.Outcome, error) {
	normalized := entity.NormalizeWord(p.Word)
	if normalized == "" {
		return entity.VocabularyWord{}, syncer.OutcomeQueued, errors.Wrap(entity.ErrInvalid, "empty word")
	}

	if existing, ok := v.Find(ctx, normalized); ok {
		return existing, syncer.OutcomeQueued, errors.Wrapf(ErrDuplicateWord, "'%s'", existing.Word)
	}

	now := v.m.Clock().Now().UTC()
	w := entity.VocabularyWord{
		ID:           uuid.NewString(),
		Word:         normalized,
		Definition:   p.Definition,
		Context:      p.Context,
		BookID:       p.BookID,
		NextReviewAt: now,
		CreatedAt:    now,
	}

	_, outcome, err := v.Put(ctx, w)
	if err != nil {
		return entity.VocabularyWord{}, outcome, err
	}

	return w, outcome, nil
}

// Review records a review outcome for the word and schedules the next review.
// The word is refreshed from the remote store first when possible.
func (v *Vocabulary) Review(ctx context.Context, id string, correct bool) (entity.VocabularyWord, syncer.Outcome, error) {
	w, err := v.Fetch(ctx, id)
	if err != nil {
		return entity.VocabularyWord{}, syncer.OutcomeQueued, err
	}

	w = w.Review(correct, v.m.Clock().Now().UTC())

	_, outcome, err := v.Put(ctx, w)
	if err != nil {
		return entity.VocabularyWord{}, outcome, err
	}

	return w, outcome, nil
}

// Words returns every saved word in alphabetical order
func (v *Vocabulary) Words(ctx context.Context) []entity.VocabularyWord {
	ret := v.List(ctx)

	sort.SliceStable(ret, func(i, j int) bool {
		return ret[i].Word < ret[j].Word
	})

	return ret
}

// Due returns the words due for review at the given time, most overdue first
func (v *Vocabulary) Due(ctx context.Context, now time.Time) []entity.VocabularyWord {
	ret := []entity.VocabularyWord{}
	for _, w := range v.List(ctx) {
		if w.IsDue(now) {
			ret = append(ret, w)
		}
	}

	sort.SliceStable(ret, func(i, j int) bool {
		return ret[i].NextReviewAt.Before(ret[j].NextReviewAt)
	})

	return ret
}

// Remove deletes a word
func (v *Vocabulary) Remove(ctx context.Context, id string) (syncer.Outcome, error) {
	return v.Delete(ctx, id)
}
