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

	"github.com/folio-reader/folio/pkg/cli/syncer"
	"github.com/folio-reader/folio/pkg/entity"
	"github.com/google/uuid"
)

// Highlights stores highlighted passages
type Highlights struct {
	Collection[entity.Highlight]
}

// NewHighlights returns the highlights adapter
func NewHighlights(m *syncer.Manager) *Highlights {
	return &Highlights{NewCollection[entity.Highlight](m)}
}

// Add highlights text on a page of a book. An empty color means yellow.
func (h *Highlights) Add(ctx context.Context, bookSlug string, page int, text, color string) (entity.Highlight, syncer.Outcome, error) {
	if color == "" {
		color = entity.ColorYellow
	}

	v := entity.Highlight{
		ID:        uuid.NewString(),
		BookSlug:  bookSlug,
		Page:      page,
		Text:      text,
		Color:     color,
		Timestamp: h.m.Clock().Now().UTC(),
	}

	_, outcome, err := h.Put(ctx, v)
	if err != nil {
		return entity.Highlight{}, outcome, err
	}

	return v, outcome, nil
}

// ForBook returns the highlights of a book in page order. An empty slug
// returns the highlights of every book.
func (h *Highlights) ForBook(ctx context.Context, bookSlug string) []entity.Highlight {
	ret := []entity.Highlight{}
	for _, v := range h.List(ctx) {
		if bookSlug == "" || v.BookSlug == bookSlug {
			ret = append(ret, v)
		}
	}

	sort.SliceStable(ret, func(i, j int) bool {
		if ret[i].BookSlug != ret[j].BookSlug {
			return ret[i].BookSlug < ret[j].BookSlug
		}
		if ret[i].Page != ret[j].Page {
			return ret[i].Page < ret[j].Page
		}

		return ret[i].Timestamp.Before(ret[j].Timestamp)
	})

	return ret
}

// Remove deletes a highlight
func (h *Highlights) Remove(ctx context.Context, id string) (syncer.Outcome, error) {
	return h.Delete(ctx, id)
}
