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
	"sync"

	"github.com/folio-reader/folio/pkg/cli/log"
	"github.com/folio-reader/folio/pkg/cli/syncer"
	"github.com/folio-reader/folio/pkg/entity"
	"github.com/pkg/errors"
)

// Likes keeps the liked books. Toggles are applied to an in-memory view
// first and rolled back if they cannot be kept.
type Likes struct {
	Collection[entity.LikedBook]

	mu     sync.Mutex
	loaded bool
	view   map[string]entity.LikedBook
}

// NewLikes returns the likes adapter
func NewLikes(m *syncer.Manager) *Likes {
	return &Likes{
		Collection: NewCollection[entity.LikedBook](m),
		view:       map[string]entity.LikedBook{},
	}
}

// Refresh reloads the view from the store
func (l *Likes) Refresh(ctx context.Context) {
	books := l.List(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.view = map[string]entity.LikedBook{}
	for _, b := range books {
		l.view[b.BookID] = b
	}
	l.loaded = true
}

func (l *Likes) ensureLoaded(ctx context.Context) {
	l.mu.Lock()
	loaded := l.loaded
	l.mu.Unlock()

	if !loaded {
		l.Refresh(ctx)
	}
}

// IsLiked checks the view for the book
func (l *Likes) IsLiked(ctx context.Context, bookID string) bool {
	l.ensureLoaded(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.view[bookID]
	return ok
}

// Books returns the liked books, most recently liked first
func (l *Likes) Books(ctx context.Context) []entity.LikedBook {
	l.ensureLoaded(ctx)

	l.mu.Lock()
	ret := make([]entity.LikedBook, 0, len(l.view))
	for _, b := range l.view {
		ret = append(ret, b)
	}
	l.mu.Unlock()

	sort.Slice(ret, func(i, j int) bool {
		if !ret[i].LikedAt.Equal(ret[j].LikedAt) {
			return ret[i].LikedAt.After(ret[j].LikedAt)
		}

		return ret[i].BookID < ret[j].BookID
	})

	return ret
}

// apply sets the view entry of the book and returns a function that restores
// the previous entry
func (l *Likes) apply(bookID string, b *entity.LikedBook) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev, had := l.view[bookID]
	if b == nil {
		delete(l.view, bookID)
	} else {
		l.view[bookID] = *b
	}

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()

		if had {
			l.view[bookID] = prev
		} else {
			delete(l.view, bookID)
		}
	}
}

// Toggle likes the book if it is not liked and unlikes it otherwise. It
// returns whether the book is liked afterwards. When the change cannot be
// stored locally or the remote store rejects it, the view and the local
// store are rolled back and the previous state is returned.
func (l *Likes) Toggle(ctx context.Context, book entity.LikedBook) (bool, syncer.Outcome, error) {
	if l.IsLiked(ctx, book.BookID) {
		return l.unlike(ctx, book.BookID)
	}

	return l.like(ctx, book)
}

func (l *Likes) like(ctx context.Context, book entity.LikedBook) (bool, syncer.Outcome, error) {
	book.LikedAt = l.m.Clock().Now().UTC()
	rollback := l.apply(book.BookID, &book)

	_, outcome, err := l.Put(ctx, book)
	if err != nil {
		rollback()
		return false, outcome, errors.Wrap(err, "liking")
	}
	if outcome == syncer.OutcomeRejected {
		rollback()
		if err := l.m.Discard(l.t, book.BookID); err != nil {
			log.Errorf("rolling back like of %s: %s\n", book.BookID, err.Error())
		}
		return false, outcome, nil
	}

	return true, outcome, nil
}

func (l *Likes) unlike(ctx context.Context, bookID string) (bool, syncer.Outcome, error) {
	prev, ok, err := l.m.Get(l.t, bookID)
	if err != nil {
		return true, syncer.OutcomeQueued, errors.Wrap(err, "reading like")
	}

	rollback := l.apply(bookID, nil)

	outcome, err := l.Delete(ctx, bookID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		rollback()
		return true, outcome, errors.Wrap(err, "unliking")
	}
	if outcome == syncer.OutcomeRejected {
		rollback()
		if ok {
			if err := l.m.Restore(prev); err != nil {
				log.Errorf("rolling back unlike of %s: %s\n", bookID, err.Error())
			}
		}
		return true, outcome, nil
	}

	return false, outcome, nil
}
