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
	"sync"
	"time"

	"github.com/folio-reader/folio/pkg/cli/log"
	"github.com/folio-reader/folio/pkg/cli/syncer"
	"github.com/folio-reader/folio/pkg/entity"
	"github.com/pkg/errors"
)

// DefaultDebounceWindow is the quiet period before a progress update is pushed
const DefaultDebounceWindow = 1500 * time.Millisecond

// Progress stores the reading position of each book. Every update is written
// locally right away; pushes are debounced per book.
type Progress struct {
	Collection[entity.ReadingProgress]

	ctx       context.Context
	debouncer *syncer.Debouncer[entity.Record]

	mu      sync.Mutex
	fetched map[string]bool
}

// NewProgress returns the progress adapter. Debounced pushes run with ctx.
func NewProgress(ctx context.Context, m *syncer.Manager, window time.Duration) *Progress {
	p := &Progress{
		Collection: NewCollection[entity.ReadingProgress](m),
		ctx:        ctx,
		fetched:    map[string]bool{},
	}
	p.debouncer = syncer.NewDebouncer(m.Clock(), window, p.push)

	return p
}

func (p *Progress) push(bookSlug string, rec entity.Record) {
	outcome := p.m.Push(p.ctx, rec)
	log.Debug("pushed progress of %s: %s\n", bookSlug, outcome)
}

// Fetch refreshes the reading positions from the remote store when possible
// and returns the one of the book
func (p *Progress) Fetch(ctx context.Context, bookSlug string) (entity.ReadingProgress, error) {
	v, err := p.Collection.Fetch(ctx, bookSlug)

	p.mu.Lock()
	p.fetched[bookSlug] = true
	p.mu.Unlock()

	return v, err
}

// current returns the position in a book that an update builds on. The
// first update of a book reads it through Fetch, later ones locally.
func (p *Progress) current(bookSlug string) (entity.ReadingProgress, error) {
	p.mu.Lock()
	fetched := p.fetched[bookSlug]
	p.mu.Unlock()

	if fetched {
		return p.Get(bookSlug)
	}

	return p.Fetch(p.ctx, bookSlug)
}

// Update moves the position in a book to the given page and adds the time
// spent since the previous update
func (p *Progress) Update(bookSlug string, page int, spent time.Duration) (entity.ReadingProgress, error) {
	v, err := p.current(bookSlug)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return entity.ReadingProgress{}, err
	}

	v.BookSlug = bookSlug
	v.CurrentPage = page
	v.LastReadAt = p.m.Clock().Now().UTC()
	if spent > 0 {
		v.TotalTimeSpentSeconds += int64(spent / time.Second)
	}

	rec, err := p.m.Write(v)
	if err != nil {
		return entity.ReadingProgress{}, err
	}

	p.debouncer.Put(bookSlug, rec)

	return v, nil
}

// Pending returns the number of books with an update waiting to be pushed
func (p *Progress) Pending() int {
	return p.debouncer.Len()
}

// Flush pushes the pending updates now
func (p *Progress) Flush() {
	p.debouncer.Flush()
}

// Close flushes the pending updates
func (p *Progress) Close() {
	p.Flush()
}
